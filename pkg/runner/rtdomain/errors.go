package rtdomain

import (
	"errors"
	"fmt"
	"strings"

	multierror "github.com/hashicorp/go-multierror"
)

// ErrorClass is the sum type classifying every provider outcome that is not
// a successful ProviderResponse. Strategies and the retry controller never
// inspect raw driver errors — only this taxonomy.
type ErrorClass int

const (
	// ClassNone marks a nil/success outcome; never attached to a real error.
	ClassNone ErrorClass = iota
	ClassTimeout
	ClassRateLimit
	ClassRetryable
	ClassSkip
	ClassAuth
	ClassConfig
	ClassFatal
	// ClassCancelled marks a synthetic attempt that never ran because its
	// context was cancelled (spec §4.7.2/§5) — ParallelAny cutting off the
	// losers once a winner is found, or a caller-cancelled run context.
	ClassCancelled
)

func (c ErrorClass) String() string {
	switch c {
	case ClassTimeout:
		return "timeout"
	case ClassRateLimit:
		return "rate_limit"
	case ClassRetryable:
		return "retryable"
	case ClassSkip:
		return "skip"
	case ClassAuth:
		return "auth"
	case ClassConfig:
		return "config"
	case ClassFatal:
		return "fatal"
	case ClassCancelled:
		return "cancelled"
	default:
		return "none"
	}
}

// Family maps a class to the coarse event family used on provider_call /
// run_metric events (spec §4.1).
func (c ErrorClass) Family() string {
	switch c {
	case ClassRateLimit:
		return "rate_limit"
	case ClassSkip:
		return "skip"
	case ClassAuth, ClassConfig, ClassFatal:
		return "fatal"
	case ClassRetryable, ClassTimeout:
		return "retryable"
	default:
		return "unknown"
	}
}

// IsFatalSubclass reports whether the class is one of the Fatal-family
// subclasses that never retries but may still let the strategy advance
// (Auth/Config), as opposed to a bare Fatal that aborts the run immediately.
func (c ErrorClass) IsFatalSubclass() bool {
	return c == ClassAuth || c == ClassConfig
}

// ProviderError wraps a classified provider failure.
type ProviderError struct {
	Class   ErrorClass
	Message string
	Reason  string // only meaningful for ClassSkip
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Class.String()
}

func (e *ProviderError) Unwrap() error { return e.Err }

// TypeName mirrors the python original's type(error).__name__ used in the
// error_type field of emitted events.
func (e *ProviderError) TypeName() string {
	switch e.Class {
	case ClassTimeout:
		return "TimeoutError"
	case ClassRateLimit:
		return "RateLimitError"
	case ClassRetryable:
		return "RetryableError"
	case ClassSkip:
		return "ProviderSkip"
	case ClassAuth:
		return "AuthError"
	case ClassConfig:
		return "ConfigError"
	case ClassFatal:
		return "FatalError"
	case ClassCancelled:
		return "CancelledError"
	default:
		return "Error"
	}
}

func newClassErr(class ErrorClass, msg string, err error) *ProviderError {
	return &ProviderError{Class: class, Message: msg, Err: err}
}

// NewTimeoutError, NewRateLimitError, ... construct classified errors.
func NewTimeoutError(msg string) *ProviderError   { return newClassErr(ClassTimeout, msg, nil) }
func NewRateLimitError(msg string) *ProviderError { return newClassErr(ClassRateLimit, msg, nil) }
func NewRetryableError(msg string) *ProviderError { return newClassErr(ClassRetryable, msg, nil) }
func NewAuthError(msg string) *ProviderError      { return newClassErr(ClassAuth, msg, nil) }
func NewConfigError(msg string) *ProviderError    { return newClassErr(ClassConfig, msg, nil) }
func NewFatalError(msg string) *ProviderError     { return newClassErr(ClassFatal, msg, nil) }

// NewSkipError constructs a ClassSkip error carrying an optional reason.
func NewSkipError(msg, reason string) *ProviderError {
	return &ProviderError{Class: ClassSkip, Message: msg, Reason: reason}
}

// NewCancelledError constructs a synthetic ClassCancelled error for an
// attempt that was cut off before (or during) dispatch, mirroring the
// original's inline asyncio.CancelledError() used at the point a
// parallel-any worker is cancelled.
func NewCancelledError(msg string) *ProviderError {
	return newClassErr(ClassCancelled, msg, nil)
}

// ClassifyError maps an opaque driver error to a ProviderError. Drivers are
// expected to already return classified errors in most cases (wrapping a
// *ProviderError); ClassifyError is the fallback for raw driver errors
// (e.g. a bare error from net/http) so the invoker always has a class to
// work with.
func ClassifyError(err error) *ProviderError {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe
	}
	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded"):
		return newClassErr(ClassTimeout, err.Error(), err)
	case strings.Contains(lower, "rate limit") || strings.Contains(lower, "429"):
		return newClassErr(ClassRateLimit, err.Error(), err)
	case strings.Contains(lower, "auth") || strings.Contains(lower, "401") || strings.Contains(lower, "api key"):
		return newClassErr(ClassAuth, err.Error(), err)
	case strings.Contains(lower, "config"):
		return newClassErr(ClassConfig, err.Error(), err)
	default:
		return newClassErr(ClassRetryable, err.Error(), err)
	}
}

// ProviderFailureSummary is one line of a run's failure report, ordered by
// attempt index (spec §7 "Determinism").
type ProviderFailureSummary struct {
	Provider string
	Attempt  int
	Summary  string
}

func joinSummaries(failures []ProviderFailureSummary) string {
	parts := make([]string, 0, len(failures))
	for _, f := range failures {
		parts = append(parts, fmt.Sprintf("%s(attempt %d): %s", f.Provider, f.Attempt, f.Summary))
	}
	return strings.Join(parts, "; ")
}

// AllFailedError is returned by Sequential and ParallelAny when every
// provider in the run failed.
type AllFailedError struct {
	Message    string
	Failures   []ProviderFailureSummary
	StopReason string
	cause      error
	merr       *multierror.Error
}

// NewAllFailedError builds an AllFailedError, aggregating every failure's
// underlying error with hashicorp/go-multierror so callers get a usable
// Unwrap()/errors.Is() chain in addition to the spec-mandated Failures list.
func NewAllFailedError(failures []ProviderFailureSummary, causes []error, stopReason string) *AllFailedError {
	var merr *multierror.Error
	for _, c := range causes {
		if c != nil {
			merr = multierror.Append(merr, c)
		}
	}
	var cause error
	if len(causes) > 0 {
		cause = causes[len(causes)-1]
	}
	return &AllFailedError{
		Message:    fmt.Sprintf("all providers failed: %s", joinSummaries(failures)),
		Failures:   failures,
		StopReason: stopReason,
		cause:      cause,
		merr:       merr,
	}
}

func (e *AllFailedError) Error() string { return e.Message }
func (e *AllFailedError) Unwrap() error {
	if e.merr != nil {
		return e.merr.ErrorOrNil()
	}
	return e.cause
}

// ParallelExecutionError is returned by ParallelAll and Consensus when the
// run cannot produce a winner (all providers failed, consensus gates
// excluded every candidate, quorum not reached, ...).
type ParallelExecutionError struct {
	Message  string
	Failures []ProviderFailureSummary
	merr     *multierror.Error
}

// NewParallelExecutionError builds a ParallelExecutionError.
func NewParallelExecutionError(message string, failures []ProviderFailureSummary, causes []error) *ParallelExecutionError {
	var merr *multierror.Error
	for _, c := range causes {
		if c != nil {
			merr = multierror.Append(merr, c)
		}
	}
	return &ParallelExecutionError{Message: message, Failures: failures, merr: merr}
}

func (e *ParallelExecutionError) Error() string {
	if len(e.Failures) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, joinSummaries(e.Failures))
}

func (e *ParallelExecutionError) Unwrap() error {
	if e.merr != nil {
		return e.merr.ErrorOrNil()
	}
	return nil
}

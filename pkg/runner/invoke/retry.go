package invoke

import (
	"time"

	"github.com/lexlapax/llm-runner/pkg/runner/rtdomain"
)

// Disposition is the Retry Controller's verdict on a failed attempt.
type Disposition int

const (
	// Advance means move on to the next provider without sleeping.
	Advance Disposition = iota
	// RetrySameProvider means the class's backoff has already been slept
	// and the same provider should be attempted again; the per-provider
	// attempt budget still has room.
	RetrySameProvider
	// Abort means stop the run immediately and surface err (bare Fatal, or
	// a Timeout/Retryable error whose backoff flag forbids advancing).
	Abort
	// Fallback means treat the error as non-fatal for run purposes: log a
	// provider_fallback event and advance (Auth/Config subclasses).
	Fallback
)

// RetryController maps a classified ProviderError to a Disposition using
// the run's BackoffConfig and per-provider retry budget, mirroring
// _SequentialRunTracker.handle_failure and runner_async_modes/base.py's
// compute_parallel_retry_decision, generalized per spec §4.5/§7 to retry
// the same provider (not just advance) while its budget remains.
type RetryController struct {
	Backoff rtdomain.BackoffConfig
	// MaxProviderAttempts is max(0, retries.max) + 1 — see
	// rtdomain.RunnerConfig.ProviderMaxAttempts.
	MaxProviderAttempts int
	// Sleep defaults to time.Sleep; tests inject a fake to avoid real
	// delays.
	Sleep func(time.Duration)
}

// NewRetryController builds a controller with the real time.Sleep.
func NewRetryController(backoff rtdomain.BackoffConfig, maxProviderAttempts int) *RetryController {
	return &RetryController{Backoff: backoff, MaxProviderAttempts: maxProviderAttempts, Sleep: time.Sleep}
}

// Decide classifies perr and returns what the calling strategy should do
// next. providerAttempt is the 1-based count of attempts already made
// against the current provider, including the one that just failed. A
// RetrySameProvider verdict has already slept the class's backoff by the
// time Decide returns.
func (rc *RetryController) Decide(perr *rtdomain.ProviderError, providerAttempt int) Disposition {
	budgetRemains := providerAttempt < rc.MaxProviderAttempts

	switch perr.Class {
	case rtdomain.ClassFatal:
		return Abort
	case rtdomain.ClassAuth, rtdomain.ClassConfig:
		return Fallback
	case rtdomain.ClassRateLimit:
		if budgetRemains {
			rc.sleep(rc.Backoff.RateLimitSleepS)
			return RetrySameProvider
		}
		return Advance
	case rtdomain.ClassTimeout:
		if !rc.Backoff.TimeoutNextProvider {
			return Abort
		}
		return Advance
	case rtdomain.ClassRetryable:
		if budgetRemains {
			rc.sleep(rc.Backoff.RetryBackoffS)
			return RetrySameProvider
		}
		if rc.Backoff.RetryableNextProvider {
			return Advance
		}
		return Abort
	case rtdomain.ClassSkip:
		return Advance
	default:
		return Abort
	}
}

func (rc *RetryController) sleep(secs float64) {
	if secs <= 0 {
		return
	}
	sleep := rc.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	sleep(time.Duration(secs * float64(time.Second)))
}

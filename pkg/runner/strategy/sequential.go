// Package strategy implements the Strategy Engine (C9): Sequential,
// ParallelAny, ParallelAll, and Consensus execution over a provider chain.
// Grounded on the original adapter's runner_sync_sequential.py (retry/
// fallback decision tree) and parallel_exec.py (bounded-concurrency
// fan-out), reworked onto goroutines/channels in the idiom of
// pkg/llm/provider.MultiProvider's concurrentGenerate helpers.
package strategy

import (
	"context"
	"sync/atomic"

	"github.com/lexlapax/llm-runner/pkg/runner/invoke"
	"github.com/lexlapax/llm-runner/pkg/runner/rtdomain"
)

// AttemptBudget is a run-wide cap on total provider attempts, shared across
// every strategy and (for parallel strategies) every goroutine, via a
// single atomic counter (spec §9 open question: max_attempts is a run-wide
// ceiling, not per-provider).
type AttemptBudget struct {
	remaining int64 // -1 means unlimited
}

// NewAttemptBudget creates a budget. max == nil means unlimited.
func NewAttemptBudget(max *int) *AttemptBudget {
	if max == nil {
		return &AttemptBudget{remaining: -1}
	}
	return &AttemptBudget{remaining: int64(*max)}
}

// Take reserves one attempt slot, returning false if the budget is
// exhausted.
func (b *AttemptBudget) Take() bool {
	if b.remaining < 0 {
		return true
	}
	for {
		cur := atomic.LoadInt64(&b.remaining)
		if cur <= 0 {
			return false
		}
		if atomic.CompareAndSwapInt64(&b.remaining, cur, cur-1) {
			return true
		}
	}
}

// providerNames returns providers' names in order, for the providers[]
// field on provider_call/run_metric/provider_chain_failed events.
func providerNames(providers []rtdomain.Provider) []string {
	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.Name()
	}
	return names
}

// Sequential tries providers in order, stopping at the first success. On
// each failure it consults the Retry Controller to decide whether to
// retry the same provider, advance, fall back (log and continue), or
// abort — the per-provider retry loop is gated by rc.MaxProviderAttempts
// (spec §4.5/§7).
func Sequential(
	ctx context.Context,
	providers []rtdomain.Provider,
	req rtdomain.ProviderRequest,
	inv *invoke.Invoker,
	rc *invoke.RetryController,
	budget *AttemptBudget,
	logger rtdomain.Logger,
	shadowProvider rtdomain.Provider,
) (rtdomain.ProviderResponse, error) {
	if len(providers) == 0 {
		return rtdomain.ProviderResponse{}, rtdomain.NewAllFailedError(nil, nil, "no providers configured")
	}
	if logger == nil {
		logger = rtdomain.NopLogger{}
	}

	names := providerNames(providers)
	var failures []rtdomain.ProviderFailureSummary
	var causes []error
	var lastErr error
	attempts := 0

	for _, p := range providers {
		providerAttempt := 0
	retryLoop:
		for {
			if !budget.Take() {
				emitChainFailed(logger, req, attempts, providers, lastErr)
				return rtdomain.ProviderResponse{}, rtdomain.NewAllFailedError(failures, causes, "exhausted")
			}
			attempts++
			providerAttempt++

			result := inv.Invoke(ctx, p, req, invoke.Options{
				Attempt: attempts, TotalProviders: len(providers), Mode: rtdomain.ModeSequential,
				ShadowProvider: shadowProvider, Retries: providerAttempt - 1, ProviderNames: names,
			})

			if result.Success() {
				invoke.EmitRunMetric(logger, invoke.RunMetricInput{
					Request: req, Provider: p, Status: "ok", Attempts: attempts, LatencyMs: result.LatencyMs,
					TokensIn: result.TokensIn, TokensOut: result.TokensOut,
					CostUSD: rtdomain.EstimateCost(p, result.TokensIn, result.TokensOut),
					Mode: rtdomain.ModeSequential, Providers: names, ShadowUsed: shadowProvider != nil,
				})
				return *result.Response, nil
			}

			perr := result.Err
			lastErr = perr
			failures = append(failures, rtdomain.ProviderFailureSummary{
				Provider: p.Name(), Attempt: attempts, Summary: perr.TypeName() + ": " + perr.Error(),
			})
			causes = append(causes, perr)

			invoke.EmitRunMetric(logger, invoke.RunMetricInput{
				Request: req, Provider: p, Status: "error", Attempts: attempts, LatencyMs: result.LatencyMs,
				Err: perr, Mode: rtdomain.ModeSequential, Providers: names, ShadowUsed: shadowProvider != nil,
			})

			disposition := rc.Decide(perr, providerAttempt)
			switch disposition {
			case invoke.RetrySameProvider:
				continue retryLoop
			case invoke.Fallback:
				logger.Emit(rtdomain.Event{
					Type:               rtdomain.EventProviderFallback,
					RequestFingerprint: rtdomain.Fingerprint(req.Prompt, req.Options, req.MaxTokens),
					Fields: map[string]interface{}{
						"provider":      p.Name(),
						"attempt":       attempts,
						"error_type":    perr.TypeName(),
						"error_message": perr.Error(),
					},
				})
				break retryLoop
			case invoke.Advance:
				break retryLoop
			case invoke.Abort:
				emitChainFailed(logger, req, attempts, providers, lastErr)
				return rtdomain.ProviderResponse{}, perr
			}
		}
	}

	emitChainFailed(logger, req, attempts, providers, lastErr)
	return rtdomain.ProviderResponse{}, rtdomain.NewAllFailedError(failures, causes, "exhausted")
}

func emitChainFailed(logger rtdomain.Logger, req rtdomain.ProviderRequest, attempts int, providers []rtdomain.Provider, lastErr error) {
	fields := map[string]interface{}{
		"provider_attempts": attempts,
		"providers":         providerNames(providers),
	}
	if perr, ok := lastErr.(*rtdomain.ProviderError); ok && perr != nil {
		fields["last_error_type"] = perr.TypeName()
		fields["last_error_message"] = perr.Error()
		fields["last_error_family"] = perr.Class.Family()
	}
	logger.Emit(rtdomain.Event{
		Type:               rtdomain.EventProviderChainFailed,
		RequestFingerprint: rtdomain.Fingerprint(req.Prompt, req.Options, req.MaxTokens),
		Fields:             fields,
	})
}

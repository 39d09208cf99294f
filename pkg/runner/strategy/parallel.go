package strategy

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lexlapax/llm-runner/pkg/runner/invoke"
	"github.com/lexlapax/llm-runner/pkg/runner/rtdomain"
)

// workerResult pairs a provider with its InvocationResult, preserving the
// original provider index for deterministic failure ordering.
type workerResult struct {
	index  int
	result rtdomain.InvocationResult
}

// runWorkers fans req out to providers with at most concurrency in flight,
// mirroring MultiProvider.concurrentGenerate's channel+WaitGroup idiom.
// It sends every result on the returned channel, which is closed once all
// workers finish or ctx is cancelled. cancel lets callers stop outstanding
// workers early (ParallelAny first-success cutoff). budget, when non-nil,
// gates every attempt against the run-wide cap (spec §5/§9); a worker that
// loses the race for a budget slot before starting simply never attempts
// and sends no result. A worker cut off by ctx after it started waiting,
// by contrast, reports a synthetic Cancelled InvocationResult so every
// attempt that was actually admitted still emits exactly one provider_call
// (spec §4.7.2/§5/§8).
func runWorkers(
	ctx context.Context,
	providers []rtdomain.Provider,
	req rtdomain.ProviderRequest,
	inv *invoke.Invoker,
	mode rtdomain.Mode,
	concurrency int,
	shadowProvider rtdomain.Provider,
	budget *AttemptBudget,
	captureShadowMetrics bool,
) (<-chan workerResult, context.CancelFunc) {
	workCtx, cancel := context.WithCancel(ctx)
	resultCh := make(chan workerResult, len(providers))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, p := range providers {
		wg.Add(1)
		go func(idx int, provider rtdomain.Provider) {
			defer wg.Done()
			opts := invoke.Options{
				Attempt: idx + 1, TotalProviders: len(providers), Mode: mode, ShadowProvider: shadowProvider,
				CaptureShadowMetrics: captureShadowMetrics,
			}
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-workCtx.Done():
				resultCh <- workerResult{index: idx, result: inv.InvokeCancelled(provider, req, opts)}
				return
			}
			select {
			case <-workCtx.Done():
				resultCh <- workerResult{index: idx, result: inv.InvokeCancelled(provider, req, opts)}
				return
			default:
			}
			if budget != nil && !budget.Take() {
				return
			}
			result := inv.Invoke(workCtx, provider, req, opts)
			select {
			case resultCh <- workerResult{index: idx, result: result}:
			case <-workCtx.Done():
				resultCh <- workerResult{index: idx, result: result}
			}
		}(i, p)
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	return resultCh, cancel
}

// parallelAnyLabels draws successive run-wide unique attempt labels for
// ParallelAny's RateLimit re-attempts (spec §4.7.2: "new attempt label =
// total_providers + retry_attempts + 1"), grounded on
// runner_async_modes/base.py's compute_parallel_retry_decision.
type parallelAnyLabels struct {
	next int64 // atomic; starts at totalProviders
}

func newParallelAnyLabels(totalProviders int) *parallelAnyLabels {
	return &parallelAnyLabels{next: int64(totalProviders)}
}

func (l *parallelAnyLabels) take() int {
	return int(atomic.AddInt64(&l.next, 1))
}

// runParallelAnyWorkers is runWorkers specialized for ParallelAny's extra
// RateLimit retry hook: on a RateLimitError, a worker sleeps
// backoff.rate_limit_sleep_s and re-attempts the same provider under a new,
// run-wide-unique attempt label, as long as maxAttempts allows it. The
// retry event is only emitted once the re-attempt actually starts (it is
// held as "pending" across the sleep so a cancellation racing the sleep
// never emits a retry for an attempt that never ran), mirroring the
// original's pending_retry_events flushed at worker entry.
func runParallelAnyWorkers(
	ctx context.Context,
	providers []rtdomain.Provider,
	req rtdomain.ProviderRequest,
	inv *invoke.Invoker,
	concurrency int,
	shadowProvider rtdomain.Provider,
	budget *AttemptBudget,
	backoff rtdomain.BackoffConfig,
	maxAttempts *int,
	logger rtdomain.Logger,
) (<-chan workerResult, context.CancelFunc) {
	workCtx, cancel := context.WithCancel(ctx)
	resultCh := make(chan workerResult, len(providers)*2)
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	labels := newParallelAnyLabels(len(providers))
	fp := rtdomain.Fingerprint(req.Prompt, req.Options, req.MaxTokens)

	for i, p := range providers {
		wg.Add(1)
		go func(idx int, provider rtdomain.Provider) {
			defer wg.Done()
			attempt := idx + 1
			retryAttempt := 0
			var pendingRetry map[string]interface{}

			sendCancelled := func() {
				resultCh <- workerResult{index: idx, result: inv.InvokeCancelled(provider, req, invoke.Options{
					Attempt: attempt, TotalProviders: len(providers), Mode: rtdomain.ModeParallelAny, ShadowProvider: shadowProvider,
				})}
			}

			for {
				select {
				case sem <- struct{}{}:
				case <-workCtx.Done():
					sendCancelled()
					return
				}
				select {
				case <-workCtx.Done():
					<-sem
					sendCancelled()
					return
				default:
				}
				if budget != nil && !budget.Take() {
					<-sem
					return
				}
				if pendingRetry != nil {
					logger.Emit(rtdomain.Event{
						Type:               rtdomain.EventRetry,
						RequestFingerprint: fp,
						Fields:             pendingRetry,
					})
					pendingRetry = nil
				}

				result := inv.Invoke(workCtx, provider, req, invoke.Options{
					Attempt: attempt, TotalProviders: len(providers), Mode: rtdomain.ModeParallelAny,
					ShadowProvider: shadowProvider, Retries: retryAttempt,
				})
				<-sem

				if result.Success() || result.Err.Class != rtdomain.ClassRateLimit {
					resultCh <- workerResult{index: idx, result: result}
					return
				}

				nextAttempt := labels.take()
				if maxAttempts != nil && nextAttempt > *maxAttempts {
					resultCh <- workerResult{index: idx, result: result}
					return
				}
				retryAttempt++
				pendingRetry = map[string]interface{}{
					"provider":      provider.Name(),
					"attempt":       attempt,
					"retry_attempt": retryAttempt,
					"next_attempt":  nextAttempt,
					"error_type":    result.Err.TypeName(),
					"delay_seconds": backoff.RateLimitSleepS,
				}
				attempt = nextAttempt
				if backoff.RateLimitSleepS > 0 {
					select {
					case <-time.After(time.Duration(backoff.RateLimitSleepS * float64(time.Second))):
					case <-workCtx.Done():
						sendCancelled()
						return
					}
				}
			}
		}(i, p)
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	return resultCh, cancel
}

// ParallelAny fires every provider concurrently and returns the first
// success, cancelling the rest. If every provider fails, it returns an
// AllFailedError aggregating every failure.
func ParallelAny(
	ctx context.Context,
	providers []rtdomain.Provider,
	req rtdomain.ProviderRequest,
	inv *invoke.Invoker,
	concurrency int,
	budget *AttemptBudget,
	backoff rtdomain.BackoffConfig,
	maxAttempts *int,
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

	resultCh, cancel := runParallelAnyWorkers(ctx, providers, req, inv, concurrency, shadowProvider, budget, backoff, maxAttempts, logger)
	defer cancel()

	var failures []rtdomain.ProviderFailureSummary
	var causes []error

	for wr := range resultCh {
		p := providers[wr.index]
		if wr.result.Success() {
			invoke.EmitRunMetric(logger, invoke.RunMetricInput{
				Request: req, Provider: p, Status: "ok", Attempts: wr.result.Attempt, LatencyMs: wr.result.LatencyMs,
				TokensIn: wr.result.TokensIn, TokensOut: wr.result.TokensOut,
				CostUSD: rtdomain.EstimateCost(p, wr.result.TokensIn, wr.result.TokensOut),
				Mode: rtdomain.ModeParallelAny, Providers: names, ShadowUsed: shadowProvider != nil,
			})
			cancel()
			return *wr.result.Response, nil
		}
		perr := wr.result.Err
		invoke.EmitRunMetric(logger, invoke.RunMetricInput{
			Request: req, Provider: p, Status: "error", Attempts: wr.result.Attempt, LatencyMs: wr.result.LatencyMs,
			Err: perr, Mode: rtdomain.ModeParallelAny, Providers: names, ShadowUsed: shadowProvider != nil,
		})
		failures = append(failures, rtdomain.ProviderFailureSummary{
			Provider: p.Name(), Attempt: wr.result.Attempt, Summary: perr.TypeName() + ": " + perr.Error(),
		})
		causes = append(causes, perr)
	}

	return rtdomain.ProviderResponse{}, rtdomain.NewAllFailedError(failures, causes, "all_failed")
}

// ParallelAll fires every provider concurrently and waits for all of them,
// returning every InvocationResult (successes and failures alike) ordered
// by original provider index. It returns an error only when every provider
// failed.
func ParallelAll(
	ctx context.Context,
	providers []rtdomain.Provider,
	req rtdomain.ProviderRequest,
	inv *invoke.Invoker,
	concurrency int,
	budget *AttemptBudget,
	logger rtdomain.Logger,
	shadowProvider rtdomain.Provider,
) ([]rtdomain.InvocationResult, error) {
	if len(providers) == 0 {
		return nil, rtdomain.NewParallelExecutionError("no providers configured", nil, nil)
	}
	if logger == nil {
		logger = rtdomain.NopLogger{}
	}
	names := providerNames(providers)

	resultCh, cancel := runWorkers(ctx, providers, req, inv, rtdomain.ModeParallelAll, concurrency, shadowProvider, budget, false)
	defer cancel()

	results := make([]rtdomain.InvocationResult, len(providers))
	seen := make([]bool, len(providers))
	successes := 0
	var failures []rtdomain.ProviderFailureSummary
	var causes []error

	for wr := range resultCh {
		p := providers[wr.index]
		results[wr.index] = wr.result
		seen[wr.index] = true
		if wr.result.Success() {
			successes++
			invoke.EmitRunMetric(logger, invoke.RunMetricInput{
				Request: req, Provider: p, Status: "ok", Attempts: wr.result.Attempt, LatencyMs: wr.result.LatencyMs,
				TokensIn: wr.result.TokensIn, TokensOut: wr.result.TokensOut,
				CostUSD: rtdomain.EstimateCost(p, wr.result.TokensIn, wr.result.TokensOut),
				Mode: rtdomain.ModeParallelAll, Providers: names, ShadowUsed: shadowProvider != nil,
			})
			continue
		}
		perr := wr.result.Err
		invoke.EmitRunMetric(logger, invoke.RunMetricInput{
			Request: req, Provider: p, Status: "error", Attempts: wr.result.Attempt, LatencyMs: wr.result.LatencyMs,
			Err: perr, Mode: rtdomain.ModeParallelAll, Providers: names, ShadowUsed: shadowProvider != nil,
		})
		failures = append(failures, rtdomain.ProviderFailureSummary{
			Provider: p.Name(), Attempt: wr.result.Attempt, Summary: perr.TypeName() + ": " + perr.Error(),
		})
		causes = append(causes, perr)
	}

	if successes == 0 {
		return nil, rtdomain.NewParallelExecutionError("all providers failed", failures, causes)
	}
	return results, nil
}

// Package invoke implements the Provider Invoker (C6): one provider
// attempt, wrapped with rate limiting, shadow comparison, and provider_call
// event emission. Grounded on the original adapter's
// runner_sync_invocation.py (ProviderInvoker) and runner_shared.py
// (log_provider_call/log_run_metric/estimate_cost/log_provider_skipped).
package invoke

import (
	"context"
	"time"

	"github.com/lexlapax/llm-runner/pkg/runner/ratelimit"
	"github.com/lexlapax/llm-runner/pkg/runner/rtdomain"
	"github.com/lexlapax/llm-runner/pkg/runner/shadow"
)

// BudgetReserver is the subset of budget.Manager the Invoker needs. It is
// declared here, not imported from pkg/runner/budget, so the invoke
// package stays agnostic of budget tracking when no ceiling is configured.
type BudgetReserver interface {
	Reserve(provider string, costUSD float64) (ok bool, stopReason string)
}

// Invoker performs one provider attempt, capturing latency, token usage,
// cost and (optionally) a shadow comparison, and emitting a provider_call
// event for every attempt.
type Invoker struct {
	Limiter *ratelimit.Limiter
	Logger  rtdomain.Logger
	// Budget, when set, gates every successful attempt's estimated cost
	// against a run/daily ceiling before the result is returned to the
	// strategy (spec §4.9): a breach demotes the result to a ClassConfig
	// error instead of letting the strategy treat it as a success.
	Budget BudgetReserver
}

// New creates an Invoker. limiter may be nil (no rate limiting); logger may
// be nil (events are dropped).
func New(limiter *ratelimit.Limiter, logger rtdomain.Logger) *Invoker {
	if logger == nil {
		logger = rtdomain.NopLogger{}
	}
	return &Invoker{Limiter: limiter, Logger: logger}
}

// WithBudget attaches a BudgetReserver to the Invoker, returning it for
// chaining.
func (inv *Invoker) WithBudget(b BudgetReserver) *Invoker {
	inv.Budget = b
	return inv
}

// Options carries the per-invocation context needed to populate events,
// kept separate from ProviderRequest because it describes the run, not the
// request payload (spec §4.3).
type Options struct {
	Attempt        int
	TotalProviders int
	Mode           rtdomain.Mode
	ShadowProvider rtdomain.Provider
	TraceID        string
	ProjectID      string
	// Retries is how many prior attempts were already made against this
	// same provider before this one (0 on a provider's first attempt).
	Retries int
	// ProviderNames lists every provider configured for the run, in order,
	// reported on provider_call/run_metric events (spec §6 providers[]).
	ProviderNames []string
	// CaptureShadowMetrics, when true, tells shadow.Run to build the
	// ShadowMetrics record but not emit shadow_diff — the caller (Consensus)
	// defers emission until the winner is known (spec §4.4/§4.7.4).
	CaptureShadowMetrics bool
}

// Invoke runs one attempt against provider, honoring ctx cancellation via
// the rate limiter wait and returning a fully populated InvocationResult.
func (inv *Invoker) Invoke(
	ctx context.Context,
	provider rtdomain.Provider,
	req rtdomain.ProviderRequest,
	opts Options,
) rtdomain.InvocationResult {
	if err := inv.Limiter.AcquireContext(ctx); err != nil {
		return rtdomain.InvocationResult{
			Provider: provider.Name(),
			Attempt:  opts.Attempt,
			Err:      rtdomain.NewTimeoutError(err.Error()),
		}
	}

	fp := rtdomain.Fingerprint(req.Prompt, req.Options, req.MaxTokens)
	start := time.Now()

	resp, perr, shadowMetrics := shadow.Run(ctx, provider, opts.ShadowProvider, req, inv.Logger, opts.CaptureShadowMetrics)
	latencyMs := time.Since(start).Milliseconds()

	result := rtdomain.InvocationResult{
		Provider:           provider.Name(),
		Attempt:            opts.Attempt,
		LatencyMs:          latencyMs,
		ShadowMetrics:      shadowMetrics,
		ProviderCallLogged: true,
	}

	if perr != nil {
		result.Err = perr
		if perr.Class == rtdomain.ClassSkip {
			inv.emitProviderSkipped(fp, provider, req, opts, perr)
		}
		inv.emitProviderCall(fp, provider, req, opts, "error", latencyMs, 0, 0, perr, shadowMetrics)
		return result
	}

	tokensIn := resp.TokenUsage.Prompt
	tokensOut := resp.TokenUsage.Completion

	if inv.Budget != nil {
		cost := rtdomain.EstimateCost(provider, tokensIn, tokensOut)
		if ok, reason := inv.Budget.Reserve(provider.Name(), cost); !ok {
			guardErr := rtdomain.NewConfigError("budget exceeded: " + reason)
			result.Err = guardErr
			result.TokensIn = tokensIn
			result.TokensOut = tokensOut
			inv.emitProviderCall(fp, provider, req, opts, "error", latencyMs, tokensIn, tokensOut, guardErr, shadowMetrics)
			return result
		}
	}

	result.Response = &resp
	result.TokensIn = tokensIn
	result.TokensOut = tokensOut
	inv.emitProviderCall(fp, provider, req, opts, "ok", latencyMs, tokensIn, tokensOut, nil, shadowMetrics)
	return result
}

// InvokeCancelled synthesizes the InvocationResult for an attempt that was
// cut off before (or during) dispatch to provider — e.g. a ParallelAny
// worker whose context was cancelled once a winner was already found. It
// still emits a provider_call event so the spec §8 "every attempt emits
// exactly one provider_call" invariant holds for cancelled workers too
// (spec §4.7.2/§5), mirroring the original's _emit_cancelled_metrics.
func (inv *Invoker) InvokeCancelled(
	provider rtdomain.Provider,
	req rtdomain.ProviderRequest,
	opts Options,
) rtdomain.InvocationResult {
	fp := rtdomain.Fingerprint(req.Prompt, req.Options, req.MaxTokens)
	perr := rtdomain.NewCancelledError("attempt cancelled")
	inv.emitProviderCall(fp, provider, req, opts, "error", 0, 0, 0, perr, nil)
	return rtdomain.InvocationResult{
		Provider:           provider.Name(),
		Attempt:            opts.Attempt,
		Err:                perr,
		ProviderCallLogged: true,
	}
}

func (inv *Invoker) emitProviderSkipped(
	fp string,
	provider rtdomain.Provider,
	req rtdomain.ProviderRequest,
	opts Options,
	perr *rtdomain.ProviderError,
) {
	inv.Logger.Emit(rtdomain.Event{
		TsMs:               time.Now().UnixMilli(),
		Type:               rtdomain.EventProviderSkipped,
		RequestFingerprint: fp,
		RequestHash:        rtdomain.RequestHash(provider.Name(), req),
		Fields: map[string]interface{}{
			"provider":        provider.Name(),
			"attempt":         opts.Attempt,
			"total_providers": opts.TotalProviders,
			"reason":          perr.Reason,
			"error_message":   perr.Error(),
		},
	})
}

func (inv *Invoker) emitProviderCall(
	fp string,
	provider rtdomain.Provider,
	req rtdomain.ProviderRequest,
	opts Options,
	status string,
	latencyMs int64,
	tokensIn, tokensOut int,
	perr *rtdomain.ProviderError,
	shadowMetrics *rtdomain.ShadowMetrics,
) {
	costEstimate := 0.0
	if status == "ok" {
		costEstimate = rtdomain.EstimateCost(provider, tokensIn, tokensOut)
	}
	fields := map[string]interface{}{
		"run_id":          fp,
		"provider":        provider.Name(),
		"provider_id":     provider.Name(),
		"model":           req.Model,
		"attempt":         opts.Attempt,
		"total_providers": opts.TotalProviders,
		"retries":         opts.Retries,
		"status":          status,
		"outcome":         outcomeFor(status),
		"latency_ms":      latencyMs,
		"tokens_in":       tokensIn,
		"tokens_out":      tokensOut,
		"token_usage":     rtdomain.TokenUsageFields(rtdomain.TokenUsage{Prompt: tokensIn, Completion: tokensOut}),
		"cost_estimate":   costEstimate,
		"shadow_used":     opts.ShadowProvider != nil,
		"mode":            string(opts.Mode),
	}
	if len(opts.ProviderNames) > 0 {
		fields["providers"] = opts.ProviderNames
	}
	if opts.TraceID != "" {
		fields["trace_id"] = opts.TraceID
	}
	if opts.ProjectID != "" {
		fields["project_id"] = opts.ProjectID
	}
	if perr != nil {
		fields["error_type"] = perr.TypeName()
		fields["error_message"] = perr.Error()
		fields["error_family"] = perr.Class.Family()
	}
	if shadowMetrics != nil {
		fields["shadow_provider_id"] = shadowMetrics.ShadowProvider
		fields["shadow_outcome"] = string(shadowMetrics.ShadowOutcome)
		if shadowMetrics.ShadowLatencyMs != nil {
			fields["shadow_latency_ms"] = *shadowMetrics.ShadowLatencyMs
		}
	}
	inv.Logger.Emit(rtdomain.Event{
		TsMs:               time.Now().UnixMilli(),
		Type:               rtdomain.EventProviderCall,
		RequestFingerprint: fp,
		RequestHash:        rtdomain.RequestHash(provider.Name(), req),
		Fields:             fields,
	})
}

func outcomeFor(status string) string {
	if status == "ok" {
		return "success"
	}
	return "error"
}

// RunMetricInput bundles one run_metric emission's fields (spec §4.3/§6/
// §7/§8), a struct in place of the original log_run_metric's keyword
// arguments. Provider is nil for the run-level terminal metric emitted
// once a run exhausts every provider (spec §4.8 step 6).
type RunMetricInput struct {
	Request    rtdomain.ProviderRequest
	Provider   rtdomain.Provider
	Status     string
	Attempts   int
	LatencyMs  int64
	TokensIn   int
	TokensOut  int
	CostUSD    float64
	Err        error
	Mode       rtdomain.Mode
	Providers  []string
	ShadowUsed bool
}

// EmitRunMetric emits the run_metric event that closes out an attempt once
// a strategy has decided its final disposition, or the run as a whole once
// every provider has been exhausted (spec §4.3/§7/§8).
func EmitRunMetric(logger rtdomain.Logger, in RunMetricInput) {
	if logger == nil {
		logger = rtdomain.NopLogger{}
	}
	fp := rtdomain.Fingerprint(in.Request.Prompt, in.Request.Options, in.Request.MaxTokens)
	retries := in.Attempts - 1
	if retries < 0 {
		retries = 0
	}
	fields := map[string]interface{}{
		"run_id":        fp,
		"status":        in.Status,
		"outcome":       outcomeFor(in.Status),
		"attempts":      in.Attempts,
		"retries":       retries,
		"latency_ms":    in.LatencyMs,
		"tokens_in":     in.TokensIn,
		"tokens_out":    in.TokensOut,
		"token_usage":   rtdomain.TokenUsageFields(rtdomain.TokenUsage{Prompt: in.TokensIn, Completion: in.TokensOut}),
		"cost_usd":      in.CostUSD,
		"cost_estimate": in.CostUSD,
		"mode":          string(in.Mode),
		"shadow_used":   in.ShadowUsed,
	}
	if len(in.Providers) > 0 {
		fields["providers"] = in.Providers
	}
	if in.Provider != nil {
		fields["provider"] = in.Provider.Name()
		fields["provider_id"] = in.Provider.Name()
	}
	if in.Err != nil {
		if perr, ok := in.Err.(*rtdomain.ProviderError); ok {
			fields["error_type"] = perr.TypeName()
			fields["error_message"] = perr.Error()
			fields["error_family"] = perr.Class.Family()
		} else {
			fields["error_message"] = in.Err.Error()
		}
	}
	var requestHash string
	if in.Provider != nil {
		requestHash = rtdomain.RequestHash(in.Provider.Name(), in.Request)
	}
	logger.Emit(rtdomain.Event{
		TsMs:               time.Now().UnixMilli(),
		Type:               rtdomain.EventRunMetric,
		RequestFingerprint: fp,
		RequestHash:        requestHash,
		Fields:             fields,
	})
}

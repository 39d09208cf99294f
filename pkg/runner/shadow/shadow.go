// Package shadow implements the Shadow Runner (C4): it fires a secondary
// "shadow" provider concurrently with the primary invocation purely for
// comparison, never allowing the shadow's latency or failure to affect the
// caller. Grounded on the original adapter's shadow.py/shadow_async.py/
// shadow_metrics.py, reworked onto goroutines/channels in the style of
// pkg/llm/provider.MultiProvider's concurrentGenerate helpers.
package shadow

import (
	"context"
	"time"

	"github.com/lexlapax/llm-runner/pkg/runner/rtdomain"
)

// JoinTimeout bounds how long the primary call waits for a straggling
// shadow goroutine to finish before giving up on enriching the event with
// shadow data (original: thread.join(timeout=10)).
const JoinTimeout = 10 * time.Second

type shadowOutcome struct {
	response *rtdomain.ProviderResponse
	err      *rtdomain.ProviderError
	timedOut bool
	latency  time.Duration
}

// Run invokes primary (blocking) and, if shadow is non-nil, invokes it
// concurrently in a best-effort goroutine. It always returns the primary's
// result; shadow errors and timeouts never propagate. If logger is
// non-nil and captureMetrics is false, a shadow_diff event is emitted once
// the shadow outcome is known or JoinTimeout elapses, whichever comes
// first. If captureMetrics is true, emission is skipped and the metrics
// are only returned, so a strategy that must enrich them first (Consensus,
// deferring until the winner is known) can call Emit itself later.
func Run(
	ctx context.Context,
	primary rtdomain.Provider,
	shadowProvider rtdomain.Provider,
	req rtdomain.ProviderRequest,
	logger rtdomain.Logger,
	captureMetrics bool,
) (rtdomain.ProviderResponse, *rtdomain.ProviderError, *rtdomain.ShadowMetrics) {
	var resultCh chan shadowOutcome
	if shadowProvider != nil {
		resultCh = make(chan shadowOutcome, 1)
		go func() {
			start := time.Now()
			resp, err := shadowProvider.Invoke(ctx, req)
			elapsed := time.Since(start)
			if err != nil {
				resultCh <- shadowOutcome{err: rtdomain.ClassifyError(err), latency: elapsed}
				return
			}
			resultCh <- shadowOutcome{response: &resp, latency: elapsed}
		}()
	}

	primaryStart := time.Now()
	primaryResp, primaryErr := primary.Invoke(ctx, req)
	primaryLatency := time.Since(primaryStart)
	_ = primaryLatency

	if shadowProvider == nil {
		var pErr *rtdomain.ProviderError
		if primaryErr != nil {
			pErr = rtdomain.ClassifyError(primaryErr)
		}
		return primaryResp, pErr, nil
	}

	var outcome shadowOutcome
	outcome.timedOut = true
	select {
	case outcome = <-resultCh:
	case <-time.After(JoinTimeout):
	}

	var pErr *rtdomain.ProviderError
	if primaryErr != nil {
		pErr = rtdomain.ClassifyError(primaryErr)
	}

	metrics := buildMetrics(primary.Name(), shadowProvider.Name(), primaryResp, req, outcome)
	if logger != nil && !captureMetrics {
		Emit(logger, metrics)
	}
	return primaryResp, pErr, metrics
}

func buildMetrics(
	primaryName, shadowName string,
	primaryResp rtdomain.ProviderResponse,
	req rtdomain.ProviderRequest,
	outcome shadowOutcome,
) *rtdomain.ShadowMetrics {
	fp := rtdomain.Fingerprint(req.Prompt, req.Options, req.MaxTokens)

	m := &rtdomain.ShadowMetrics{
		RequestFingerprint:     fp,
		PrimaryProvider:        primaryName,
		ShadowProvider:         shadowName,
		PrimaryLatencyMs:       primaryResp.LatencyMs,
		PrimaryTextLen:         len(primaryResp.Text),
		PrimaryTokenUsageTotal: primaryResp.TokenUsage.Total(),
	}

	switch {
	case outcome.timedOut:
		m.ShadowOK = false
		m.ShadowOutcome = rtdomain.ShadowTimeout
		m.ShadowError = "ShadowTimeout"
	case outcome.err != nil:
		m.ShadowOK = false
		m.ShadowOutcome = rtdomain.ShadowError
		m.ShadowError = outcome.err.TypeName()
	case outcome.response != nil:
		m.ShadowOK = true
		m.ShadowOutcome = rtdomain.ShadowSuccess
		latencyMs := outcome.response.LatencyMs
		m.ShadowLatencyMs = &latencyMs
		textLen := len(outcome.response.Text)
		m.ShadowTextLen = &textLen
		total := outcome.response.TokenUsage.Total()
		m.ShadowTokenUsageTotal = &total
		gap := latencyMs - primaryResp.LatencyMs
		m.LatencyGapMs = &gap
	}
	return m
}

// Emit logs m as a shadow_diff event. Exported so a strategy that asked
// Run for captureMetrics can emit the (possibly enriched) metrics itself
// once it knows more than Run did at call time (spec §4.4/§4.7.4).
func Emit(logger rtdomain.Logger, m *rtdomain.ShadowMetrics) {
	fields := map[string]interface{}{
		"primary_provider":          m.PrimaryProvider,
		"shadow_provider":           m.ShadowProvider,
		"primary_latency_ms":        m.PrimaryLatencyMs,
		"primary_text_len":          m.PrimaryTextLen,
		"primary_token_usage_total": m.PrimaryTokenUsageTotal,
		"shadow_ok":                 m.ShadowOK,
		"shadow_outcome":            string(m.ShadowOutcome),
	}
	if m.ShadowLatencyMs != nil {
		fields["shadow_latency_ms"] = *m.ShadowLatencyMs
	}
	if m.ShadowTextLen != nil {
		fields["shadow_text_len"] = *m.ShadowTextLen
	}
	if m.ShadowTokenUsageTotal != nil {
		fields["shadow_token_usage_total"] = *m.ShadowTokenUsageTotal
	}
	if m.ShadowError != "" {
		fields["shadow_error"] = m.ShadowError
	}
	if m.LatencyGapMs != nil {
		fields["latency_gap_ms"] = *m.LatencyGapMs
	}
	if m.ShadowConsensusDelta != nil {
		fields["shadow_consensus_delta"] = *m.ShadowConsensusDelta
	}
	logger.Emit(rtdomain.Event{
		TsMs:               time.Now().UnixMilli(),
		Type:               rtdomain.EventShadowDiff,
		RequestFingerprint: m.RequestFingerprint,
		Fields:             fields,
	})
}

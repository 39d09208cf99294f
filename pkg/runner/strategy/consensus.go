package strategy

import (
	"context"

	"github.com/lexlapax/llm-runner/pkg/runner/consensus"
	"github.com/lexlapax/llm-runner/pkg/runner/invoke"
	"github.com/lexlapax/llm-runner/pkg/runner/rtdomain"
	"github.com/lexlapax/llm-runner/pkg/runner/shadow"
)

// Consensus fires every candidate provider concurrently (ParallelAll
// semantics), then hands every successful response to the Consensus
// Evaluator. judge, when non-nil, is used to break a still-tied vote.
// Shadow comparisons are captured but not emitted per attempt (spec
// §4.4/§4.7.4 "Ownership"): once the evaluator has a winner, its shadow
// metrics are enriched with shadow_consensus_delta and emitted; every
// other candidate's shadow metrics are emitted unenriched.
func Consensus(
	ctx context.Context,
	providers []rtdomain.Provider,
	req rtdomain.ProviderRequest,
	inv *invoke.Invoker,
	concurrency int,
	budget *AttemptBudget,
	cfg rtdomain.ConsensusConfig,
	judge rtdomain.Provider,
	logger rtdomain.Logger,
	shadowProvider rtdomain.Provider,
) (rtdomain.ConsensusResult, error) {
	if len(providers) == 0 {
		return rtdomain.ConsensusResult{}, rtdomain.NewParallelExecutionError("no providers configured", nil, nil)
	}
	if logger == nil {
		logger = rtdomain.NopLogger{}
	}
	names := providerNames(providers)

	resultCh, cancel := runWorkers(ctx, providers, req, inv, rtdomain.ModeConsensus, concurrency, shadowProvider, budget, shadowProvider != nil)
	defer cancel()

	observations := make([]rtdomain.ConsensusObservation, 0, len(providers))
	shadowByProvider := make(map[string]*rtdomain.ShadowMetrics)
	for wr := range resultCh {
		p := providers[wr.index]
		status := "error"
		var perr *rtdomain.ProviderError
		if wr.result.Success() {
			status = "ok"
			observations = append(observations, rtdomain.ConsensusObservation{
				ProviderID:   p.Name(),
				Response:     wr.result.Response,
				LatencyMs:    wr.result.LatencyMs,
				Tokens:       rtdomain.TokenUsage{Prompt: wr.result.TokensIn, Completion: wr.result.TokensOut},
				CostEstimate: rtdomain.EstimateCost(p, wr.result.TokensIn, wr.result.TokensOut),
			})
		} else {
			perr = wr.result.Err
		}
		if wr.result.ShadowMetrics != nil {
			shadowByProvider[p.Name()] = wr.result.ShadowMetrics
		}
		invoke.EmitRunMetric(logger, invoke.RunMetricInput{
			Request: req, Provider: p, Status: status, Attempts: wr.result.Attempt, LatencyMs: wr.result.LatencyMs,
			TokensIn: wr.result.TokensIn, TokensOut: wr.result.TokensOut,
			CostUSD: rtdomain.EstimateCost(p, wr.result.TokensIn, wr.result.TokensOut),
			Err: perr, Mode: rtdomain.ModeConsensus, Providers: names, ShadowUsed: shadowProvider != nil,
		})
	}

	if len(observations) == 0 {
		return rtdomain.ConsensusResult{}, rtdomain.NewParallelExecutionError("all providers failed", nil, nil)
	}

	result, err := consensus.Evaluate(ctx, observations, cfg, judge)
	if err != nil {
		return rtdomain.ConsensusResult{}, err
	}

	emitShadowMetrics(logger, shadowByProvider, result)

	fp := rtdomain.Fingerprint(req.Prompt, req.Options, req.MaxTokens)
	candidateSummaries := make([]map[string]interface{}, 0, len(result.CandidateSummaries))
	for _, cand := range result.CandidateSummaries {
		candidateSummaries = append(candidateSummaries, map[string]interface{}{
			"provider":   cand.Provider,
			"latency_ms": cand.LatencyMs,
			"votes":      cand.Votes,
			"text_hash":  cand.TextHash,
		})
	}
	logger.Emit(rtdomain.Event{
		Type:               rtdomain.EventConsensusVote,
		RequestFingerprint: fp,
		Fields: map[string]interface{}{
			"strategy":             string(result.Strategy),
			"reason":               result.Reason,
			"tie_breaker":          string(result.TieBreaker),
			"quorum":               result.MinVotes,
			"min_votes":            result.MinVotes,
			"voters_total":         result.TotalVoters,
			"total_voters":         result.TotalVoters,
			"votes_for":            result.Votes,
			"votes":                result.Votes,
			"votes_against":        result.VotesAgainst(),
			"abstained":            result.Abstained,
			"chosen_provider":      result.WinnerProviderID,
			"winner_provider":      result.WinnerProviderID,
			"winner_score":         result.WinnerScore,
			"winner_latency_ms":    result.WinnerLatencyMs,
			"tie_break_applied":    result.TieBreakApplied,
			"tie_break_reason":     result.TieBreakReason,
			"tie_breaker_selected": result.TieBreakerSelected,
			"rounds":               result.Rounds,
			"scores":               result.Scores,
			"schema_checked":       result.SchemaChecked,
			"schema_failures":      result.SchemaFailures,
			"judge":                result.JudgeName,
			"judge_score":          result.JudgeScore,
			"tally":                result.Tally,
			"candidate_summaries":  candidateSummaries,
		},
	})
	return result, nil
}

// emitShadowMetrics emits the deferred shadow_diff events once Consensus
// knows the winner: the winner's metrics are enriched with
// shadow_consensus_delta before emitting; every other candidate's shadow
// metrics are emitted as captured, unenriched (spec §4.4/§4.7.4).
func emitShadowMetrics(logger rtdomain.Logger, byProvider map[string]*rtdomain.ShadowMetrics, result rtdomain.ConsensusResult) {
	if len(byProvider) == 0 {
		return
	}
	var delta float64
	if result.TotalVoters > 0 {
		delta = float64(result.Votes) / float64(result.TotalVoters)
	}
	for provider, metrics := range byProvider {
		if provider == result.WinnerProviderID {
			metrics.ShadowConsensusDelta = &delta
		}
		shadow.Emit(logger, metrics)
	}
}

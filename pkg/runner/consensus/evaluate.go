package consensus

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	schemaDomain "github.com/lexlapax/llm-runner/pkg/schema/domain"
	"github.com/lexlapax/llm-runner/pkg/schema/validation"

	"github.com/lexlapax/llm-runner/pkg/runner/rtdomain"
)

// Evaluate runs the Consensus Evaluator pipeline over observations (spec
// §4.6): schema gate, optional latency/cost constraint gate, candidate
// grouping, strategy selection, tie-breaking, and an optional judge round.
func Evaluate(
	ctx context.Context,
	observations []rtdomain.ConsensusObservation,
	cfg rtdomain.ConsensusConfig,
	judge rtdomain.Provider,
) (rtdomain.ConsensusResult, error) {
	if len(observations) == 0 {
		return rtdomain.ConsensusResult{}, rtdomain.NewParallelExecutionError(
			"observations must not be empty", nil, nil)
	}

	strategy := cfg.Strategy
	if strategy == "" {
		strategy = rtdomain.ConsensusMajority
	}

	validEntries, schemaFailures, schemaChecked, schemaErr := validateSchema(observations, cfg.Schema)
	if schemaErr != nil {
		return rtdomain.ConsensusResult{}, rtdomain.NewConfigError(schemaErr.Error())
	}

	if cfg.MaxLatencyMs != nil || cfg.MaxCostUSD != nil {
		validEntries = applyConstraints(validEntries, cfg)
		if len(validEntries) == 0 {
			return rtdomain.ConsensusResult{}, rtdomain.NewParallelExecutionError(
				"no responses satisfied consensus constraints", nil, nil)
		}
	}

	if len(validEntries) == 0 {
		return rtdomain.ConsensusResult{}, rtdomain.NewParallelExecutionError(
			"all responses failed schema validation", nil, nil)
	}

	cs := newCandidateSet(validEntries, cfg.ProviderWeights)
	if cs.isEmpty() {
		return rtdomain.ConsensusResult{}, rtdomain.NewParallelExecutionError(
			"consensus tally is empty", nil, nil)
	}

	tally := cs.tally()
	values := cs.values()
	pool, winnerScore, scores := selectByStrategy(strategy, values)
	if pool == nil {
		return rtdomain.ConsensusResult{}, rtdomain.NewParallelExecutionError(
			fmt.Sprintf("unsupported consensus strategy: %q", strategy), nil, nil)
	}

	rounds := 1
	maxRounds := -1
	if cfg.MaxRounds != nil {
		maxRounds = *cfg.MaxRounds
	}
	nextRound := func() error {
		if maxRounds >= 0 && rounds >= maxRounds {
			return rtdomain.NewParallelExecutionError("consensus max_rounds exhausted", nil, nil)
		}
		rounds++
		return nil
	}

	tieBreakApplied := len(pool) > 1
	var tieBreakReason, tieBreakerSelected string
	remaining := pool

	if tieBreakApplied {
		if cfg.TieBreaker != "" {
			if err := nextRound(); err != nil {
				return rtdomain.ConsensusResult{}, err
			}
			narrowed, reason := tieBreak(cfg.TieBreaker, remaining)
			remaining, tieBreakReason, tieBreakerSelected = narrowed, reason, string(cfg.TieBreaker)
		} else {
			if err := nextRound(); err != nil {
				return rtdomain.ConsensusResult{}, err
			}
			for _, fallback := range []rtdomain.TieBreaker{
				rtdomain.TieBreakMinLatency, rtdomain.TieBreakMinCost, rtdomain.TieBreakStableOrder,
			} {
				if len(remaining) <= 1 {
					break
				}
				narrowed, reason := tieBreak(fallback, remaining)
				if len(narrowed) < len(remaining) {
					remaining, tieBreakReason, tieBreakerSelected = narrowed, reason, string(fallback)
					break
				}
			}
		}
	}

	var judgeName string
	var judgeScore *float64
	if len(remaining) > 1 && cfg.Judge != "" && judge != nil {
		if err := nextRound(); err != nil {
			return rtdomain.ConsensusResult{}, err
		}
		judgeName = cfg.Judge
		choice, score, jerr := invokeJudge(ctx, judge, remaining)
		if jerr != nil {
			return rtdomain.ConsensusResult{}, rtdomain.NewParallelExecutionError(
				"judge invocation failed: "+jerr.Error(), nil, nil)
		}
		judgeScore = &score
		found := false
		for _, c := range remaining {
			if c.text == choice {
				remaining = []*candidate{c}
				found = true
				break
			}
		}
		if !found {
			return rtdomain.ConsensusResult{}, rtdomain.NewParallelExecutionError(
				"judge returned unknown choice", nil, nil)
		}
	}

	if len(remaining) > 1 {
		return rtdomain.ConsensusResult{}, rtdomain.NewParallelExecutionError(
			"consensus tie could not be resolved", nil, nil)
	}

	winner := remaining[0]
	votes := winner.votes
	quorum := len(validEntries)
	if cfg.Quorum != nil {
		quorum = *cfg.Quorum
	}
	if votes < quorum {
		return rtdomain.ConsensusResult{}, rtdomain.NewParallelExecutionError(
			"consensus quorum not reached", nil, nil)
	}

	reasonParts := []string{string(strategy), fmt.Sprintf("quorum=%d/%d", quorum, len(validEntries))}
	if tieBreakApplied {
		detail := tieBreakerSelected
		if detail == "" {
			detail = string(cfg.TieBreaker)
		}
		if detail == "" {
			detail = "tie"
		}
		reasonParts = append(reasonParts, "tie_breaker="+detail)
		if tieBreakReason != "" {
			reasonParts = append(reasonParts, "tie_break_reason="+tieBreakReason)
		}
	}
	if judgeName != "" {
		reasonParts = append(reasonParts, "judge="+judgeName)
		if judgeScore != nil {
			reasonParts = append(reasonParts, "judge_score="+strconv.FormatFloat(*judgeScore, 'g', -1, 64))
		}
	}

	winnerEntry := winner.entries[0]
	for _, e := range winner.entries[1:] {
		if e.index < winnerEntry.index {
			winnerEntry = e
		}
	}

	return rtdomain.ConsensusResult{
		Response:           winner.primary(),
		Votes:              votes,
		Tally:              tally,
		TotalVoters:        len(observations),
		Reason:             strings.Join(reasonParts, " "),
		Strategy:           strategy,
		MinVotes:           cfg.Quorum,
		TieBreaker:         cfg.TieBreaker,
		TieBreakApplied:    tieBreakApplied,
		TieBreakReason:     tieBreakReason,
		TieBreakerSelected: tieBreakerSelected,
		WinnerScore:        winnerScore,
		Abstained:          len(observations) - len(validEntries),
		Rounds:             rounds,
		SchemaChecked:      schemaChecked,
		SchemaFailures:     schemaFailures,
		JudgeName:          judgeName,
		JudgeScore:         judgeScore,
		Scores:             scores,
		WinnerProviderID:   winnerEntry.obs.ProviderID,
		WinnerLatencyMs:    resolveLatency(winnerEntry.obs),
		CandidateSummaries: cs.candidateSummaries(validEntries),
	}, nil
}

// validateSchema implements the spec §4.6 step-1 gate using the teacher's
// JSON-schema validation engine instead of a hand-rolled type/required
// check, restricted to the two properties the spec names: type=="object"
// and a required-keys list.
func validateSchema(observations []rtdomain.ConsensusObservation, schemaText string) (valid []indexedObservation, failures map[int]string, checked bool, err error) {
	if strings.TrimSpace(schemaText) == "" {
		valid = make([]indexedObservation, 0, len(observations))
		for i, obs := range observations {
			valid = append(valid, indexedObservation{index: i, obs: obs})
		}
		return valid, map[int]string{}, false, nil
	}

	var schema schemaDomain.Schema
	if uerr := jsonAPI.UnmarshalFromString(schemaText, &schema); uerr != nil {
		return nil, nil, true, fmt.Errorf("invalid consensus schema: %w", uerr)
	}
	validator := validation.NewValidator()

	failures = make(map[int]string)
	for i, obs := range observations {
		if obs.Response == nil {
			continue
		}
		result, err := validator.Validate(&schema, obs.Response.Text)
		if err != nil {
			failures[i] = "invalid json: " + err.Error()
			continue
		}
		if !result.Valid {
			failures[i] = strings.Join(result.Errors, "; ")
			continue
		}
		valid = append(valid, indexedObservation{index: i, obs: obs})
	}
	return valid, failures, true, nil
}

func applyConstraints(entries []indexedObservation, cfg rtdomain.ConsensusConfig) []indexedObservation {
	var out []indexedObservation
	for _, e := range entries {
		latency := resolveLatency(e.obs)
		cost := resolveCost(e.obs)
		if cfg.MaxLatencyMs != nil && latency > *cfg.MaxLatencyMs {
			continue
		}
		if cfg.MaxCostUSD != nil && cost > *cfg.MaxCostUSD {
			continue
		}
		out = append(out, e)
	}
	return out
}

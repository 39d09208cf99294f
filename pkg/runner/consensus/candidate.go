// Package consensus implements the Consensus Evaluator (C8): grouping
// candidate responses by normalized text, applying a schema gate, a voting
// strategy, tie-breaking, and an optional judge round. Grounded on the
// original adapter's consensus_candidates.py and runner_parallel/
// {consensus,models,observations}.py, with the schema gate delegated to
// the teacher's pkg/schema/validation engine instead of a hand-rolled
// json.loads/isinstance check.
package consensus

import (
	"math"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/lexlapax/llm-runner/pkg/runner/rtdomain"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// candidate accumulates every observation whose response text normalizes
// to the same key.
type candidate struct {
	normalized  string
	text        string
	entries     []entry
	votes       int
	score       float64
	bestScore   float64
	latencyMs   int64
	costUSD     float64
	weight      float64
	stableIndex int
}

type entry struct {
	index int
	obs   rtdomain.ConsensusObservation
}

func (c *candidate) record(index int, obs rtdomain.ConsensusObservation, weight float64) {
	c.entries = append(c.entries, entry{index: index, obs: obs})
	c.votes++
	if c.votes == 1 {
		c.weight = weight
	} else {
		c.weight += weight
	}
	value := extractScore(obs.Response)
	c.score += value
	if c.votes == 1 || value > c.bestScore {
		c.bestScore = value
	}
	latency := resolveLatency(obs)
	cost := resolveCost(obs)
	if c.votes == 1 || latency < c.latencyMs {
		c.latencyMs = latency
	}
	if c.votes == 1 || cost < c.costUSD {
		c.costUSD = cost
	}
	if c.votes == 1 || index < c.stableIndex {
		c.stableIndex = index
	}
}

// primary returns the response belonging to the entry with the smallest
// original index, used as the winner's representative response.
func (c *candidate) primary() rtdomain.ProviderResponse {
	best := c.entries[0]
	for _, e := range c.entries[1:] {
		if e.index < best.index {
			best = e
		}
	}
	return *best.obs.Response
}

func extractScore(resp *rtdomain.ProviderResponse) float64 {
	if resp == nil {
		return 0
	}
	if raw, ok := resp.Raw.(map[string]interface{}); ok {
		if v, ok := raw["score"]; ok {
			switch n := v.(type) {
			case float64:
				return n
			case int:
				return float64(n)
			}
		}
	}
	return 0
}

func resolveLatency(obs rtdomain.ConsensusObservation) int64 {
	if obs.LatencyMs != 0 {
		return obs.LatencyMs
	}
	if obs.Response != nil {
		return obs.Response.LatencyMs
	}
	return 0
}

func resolveCost(obs rtdomain.ConsensusObservation) float64 {
	if obs.CostEstimate != 0 {
		return obs.CostEstimate
	}
	return float64(obs.Tokens.Total())
}

// normalizeCandidateText canonicalizes JSON text (sorted keys, minimal
// separators) so semantically-identical JSON responses group together;
// falls back to whitespace-collapsed lowercasing for non-JSON text.
func normalizeCandidateText(text string) (normalized, display string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", trimmed
	}
	var parsed interface{}
	if err := jsonAPI.UnmarshalFromString(text, &parsed); err == nil {
		if canon, cerr := rtdomain.CanonicalizeJSON(parsed); cerr == nil {
			return canon, trimmed
		}
	}
	return strings.Join(strings.Fields(trimmed), " "), trimmed
}

// candidateSet groups every observation with a response by normalized text.
type candidateSet struct {
	byNormalized map[string]*candidate
	order        []string // insertion order, for stable iteration
}

func newCandidateSet(entries []indexedObservation, weights map[string]float64) *candidateSet {
	cs := &candidateSet{byNormalized: make(map[string]*candidate)}
	for _, e := range entries {
		if e.obs.Response == nil {
			continue
		}
		normalized, display := normalizeCandidateText(e.obs.Response.Text)
		c, ok := cs.byNormalized[normalized]
		if !ok {
			c = &candidate{normalized: normalized, text: display}
			cs.byNormalized[normalized] = c
			cs.order = append(cs.order, normalized)
		}
		weight := 1.0
		if w, ok := weights[e.obs.ProviderID]; ok {
			weight = w
		}
		c.record(e.index, e.obs, weight)
	}
	return cs
}

func (cs *candidateSet) isEmpty() bool { return len(cs.byNormalized) == 0 }

func (cs *candidateSet) values() []*candidate {
	out := make([]*candidate, 0, len(cs.order))
	for _, k := range cs.order {
		out = append(out, cs.byNormalized[k])
	}
	return out
}

// candidateSummaries builds one summary per observation (not per grouped
// candidate), ordered to match entries — mirroring the original's loop
// over (provider, response, metadata) tuples ahead of the group-by-text
// tally (runner_sync_consensus.py candidate_summaries).
func (cs *candidateSet) candidateSummaries(entries []indexedObservation) []rtdomain.CandidateSummary {
	out := make([]rtdomain.CandidateSummary, 0, len(entries))
	for _, e := range entries {
		if e.obs.Response == nil {
			continue
		}
		normalized, _ := normalizeCandidateText(e.obs.Response.Text)
		votes := 0
		if c, ok := cs.byNormalized[normalized]; ok {
			votes = c.votes
		}
		out = append(out, rtdomain.CandidateSummary{
			Provider:  e.obs.ProviderID,
			LatencyMs: resolveLatency(e.obs),
			Votes:     votes,
			TextHash:  rtdomain.ContentHash("consensus", e.obs.Response.Text),
		})
	}
	return out
}

func (cs *candidateSet) tally() map[string]int {
	out := make(map[string]int, len(cs.byNormalized))
	for _, c := range cs.values() {
		out[c.text] = c.votes
	}
	return out
}

type indexedObservation struct {
	index int
	obs   rtdomain.ConsensusObservation
}

const epsilon = 1e-9

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) <= epsilon
}

// selectByStrategy implements consensus_candidates.py's _select_candidates.
func selectByStrategy(strategy rtdomain.ConsensusStrategyName, values []*candidate) (pool []*candidate, winnerScore float64, scores map[string]float64) {
	switch strategy {
	case rtdomain.ConsensusMajority, "":
		pivot := 0
		for _, c := range values {
			if c.votes > pivot {
				pivot = c.votes
			}
		}
		for _, c := range values {
			if c.votes == pivot {
				pool = append(pool, c)
			}
		}
		return pool, float64(pivot), nil
	case rtdomain.ConsensusWeighted:
		scores = make(map[string]float64, len(values))
		pivot := values[0].score
		for _, c := range values {
			scores[c.text] = c.score
			if c.score > pivot {
				pivot = c.score
			}
		}
		for _, c := range values {
			if approxEqual(c.score, pivot) {
				pool = append(pool, c)
			}
		}
		return pool, pivot, scores
	case rtdomain.ConsensusMaxScore:
		scores = make(map[string]float64, len(values))
		pivot := values[0].bestScore
		for _, c := range values {
			scores[c.text] = c.bestScore
			if c.bestScore > pivot {
				pivot = c.bestScore
			}
		}
		for _, c := range values {
			if approxEqual(c.bestScore, pivot) {
				pool = append(pool, c)
			}
		}
		return pool, pivot, scores
	case rtdomain.ConsensusWeightedVote:
		scores = make(map[string]float64, len(values))
		pivot := values[0].weight
		for _, c := range values {
			scores[c.text] = c.weight
			if c.weight > pivot {
				pivot = c.weight
			}
		}
		for _, c := range values {
			if approxEqual(c.weight, pivot) {
				pool = append(pool, c)
			}
		}
		return pool, pivot, scores
	default:
		return nil, 0, nil
	}
}

// tieBreak implements consensus_candidates.py's _apply_tie_breaker.
func tieBreak(tb rtdomain.TieBreaker, candidates []*candidate) (narrowed []*candidate, reason string) {
	switch tb {
	case rtdomain.TieBreakMinLatency:
		best := candidates[0].latencyMs
		for _, c := range candidates {
			if c.latencyMs < best {
				best = c.latencyMs
			}
		}
		for _, c := range candidates {
			if c.latencyMs == best {
				narrowed = append(narrowed, c)
			}
		}
		return narrowed, "min_latency(min=" + itoa64(best) + ")"
	case rtdomain.TieBreakMinCost:
		best := candidates[0].costUSD
		for _, c := range candidates {
			if c.costUSD < best {
				best = c.costUSD
			}
		}
		for _, c := range candidates {
			if c.costUSD == best {
				narrowed = append(narrowed, c)
			}
		}
		return narrowed, "min_cost(min)"
	case rtdomain.TieBreakStableOrder:
		chosen := candidates[0]
		for _, c := range candidates[1:] {
			if c.normalized < chosen.normalized ||
				(c.normalized == chosen.normalized && c.stableIndex < chosen.stableIndex) {
				chosen = c
			}
		}
		return []*candidate{chosen}, "stable_order(text=" + chosen.text + ")"
	default:
		return candidates, ""
	}
}

func itoa64(v int64) string {
	return strconv.FormatInt(v, 10)
}

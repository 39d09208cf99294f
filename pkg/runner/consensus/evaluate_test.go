package consensus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lexlapax/llm-runner/pkg/runner/rtdomain"
)

func obs(provider, text string, latencyMs int64) rtdomain.ConsensusObservation {
	return rtdomain.ConsensusObservation{
		ProviderID: provider,
		Response:   &rtdomain.ProviderResponse{Text: text, LatencyMs: latencyMs},
		LatencyMs:  latencyMs,
	}
}

func TestEvaluate_MajorityPicksMostVotedAnswer(t *testing.T) {
	observations := []rtdomain.ConsensusObservation{
		obs("a", "yes", 10),
		obs("b", "yes", 20),
		obs("c", "no", 5),
	}
	result, err := Evaluate(context.Background(), observations, rtdomain.ConsensusConfig{
		Strategy: rtdomain.ConsensusMajority,
	}, nil)
	require.NoError(t, err)
	require.Equal(t, "yes", result.Response.Text)
	require.Equal(t, 2, result.Votes)
	require.Equal(t, 3, result.TotalVoters)
	require.False(t, result.TieBreakApplied)
}

func TestEvaluate_CandidateSummariesCoverEveryObservation(t *testing.T) {
	observations := []rtdomain.ConsensusObservation{
		obs("a", "yes", 10),
		obs("b", "yes", 20),
		obs("c", "no", 5),
	}
	result, err := Evaluate(context.Background(), observations, rtdomain.ConsensusConfig{
		Strategy: rtdomain.ConsensusMajority,
	}, nil)
	require.NoError(t, err)
	require.Len(t, result.CandidateSummaries, 3)
	for _, cand := range result.CandidateSummaries {
		require.NotEmpty(t, cand.Provider)
		require.NotEmpty(t, cand.TextHash)
	}
	require.Equal(t, result.TotalVoters, result.VotesAgainst()+result.Votes+result.Abstained)
}

func TestEvaluate_TieBreaksByMinLatencyWhenVotesEqual(t *testing.T) {
	observations := []rtdomain.ConsensusObservation{
		obs("a", "yes", 50),
		obs("b", "no", 10),
	}
	result, err := Evaluate(context.Background(), observations, rtdomain.ConsensusConfig{
		Strategy: rtdomain.ConsensusMajority,
	}, nil)
	require.NoError(t, err)
	require.True(t, result.TieBreakApplied)
	require.Equal(t, "no", result.Response.Text)
	require.Equal(t, "min_latency", result.TieBreakerSelected)
}

func TestEvaluate_QuorumNotReachedFails(t *testing.T) {
	observations := []rtdomain.ConsensusObservation{
		obs("a", "yes", 10),
		obs("b", "no", 5),
	}
	minVotes := 2
	_, err := Evaluate(context.Background(), observations, rtdomain.ConsensusConfig{
		Strategy: rtdomain.ConsensusMajority,
		Quorum:   &minVotes,
	}, nil)
	require.Error(t, err)
}

func TestEvaluate_SchemaGateExcludesNonConformingResponses(t *testing.T) {
	observations := []rtdomain.ConsensusObservation{
		obs("a", `{"answer":"yes"}`, 10),
		obs("b", `{"answer":"yes"}`, 12),
		obs("c", "not json", 5),
	}
	result, err := Evaluate(context.Background(), observations, rtdomain.ConsensusConfig{
		Strategy: rtdomain.ConsensusMajority,
		Schema:   `{"type":"object","required":["answer"]}`,
	}, nil)
	require.NoError(t, err)
	require.True(t, result.SchemaChecked)
	require.Equal(t, 1, result.Abstained)
	require.Contains(t, result.SchemaFailures, 2)
}

func TestEvaluate_WeightedStrategySumsPerResponseScores(t *testing.T) {
	observations := []rtdomain.ConsensusObservation{
		obs("heavy", `{"score":1}`, 10),
		obs("light1", `{"score":1}`, 10),
		obs("light2", `{"score":1}`, 10),
	}
	observations[0].Response.Raw = map[string]interface{}{"score": 10.0}
	observations[1].Response.Raw = map[string]interface{}{"score": 1.0}
	observations[2].Response.Raw = map[string]interface{}{"score": 1.0}
	observations[0].Response.Text = `{"v":"A"}`
	observations[1].Response.Text = `{"v":"B"}`
	observations[2].Response.Text = `{"v":"B"}`

	result, err := Evaluate(context.Background(), observations, rtdomain.ConsensusConfig{
		Strategy: rtdomain.ConsensusWeighted,
	}, nil)
	require.NoError(t, err)
	require.Equal(t, `{"v":"A"}`, result.Response.Text)
}

func TestEvaluate_EmptyObservationsErrors(t *testing.T) {
	_, err := Evaluate(context.Background(), nil, rtdomain.ConsensusConfig{}, nil)
	require.Error(t, err)
}

package rtdomain

// InvocationResult is the outcome of one provider attempt (spec §3).
type InvocationResult struct {
	Provider           string
	Attempt            int // 1-based
	Response           *ProviderResponse
	Err                *ProviderError
	LatencyMs          int64
	TokensIn           int
	TokensOut          int
	ShadowMetrics      *ShadowMetrics
	ProviderCallLogged bool
}

// Success reports whether the attempt produced a response.
func (r InvocationResult) Success() bool { return r.Err == nil && r.Response != nil }

// ShadowOutcome enumerates the outcome categories of a shadow invocation.
type ShadowOutcome string

const (
	ShadowSuccess ShadowOutcome = "success"
	ShadowError   ShadowOutcome = "error"
	ShadowTimeout ShadowOutcome = "timeout"
)

// ShadowMetrics is the record emitted as a shadow_diff event (spec §3/§4.4).
type ShadowMetrics struct {
	RequestFingerprint     string
	PrimaryProvider        string
	ShadowProvider         string
	PrimaryLatencyMs       int64
	ShadowLatencyMs        *int64
	ShadowOK               bool
	ShadowOutcome          ShadowOutcome
	ShadowError            string
	ShadowTextLen          *int
	ShadowTokenUsageTotal  *int
	LatencyGapMs           *int64
	ShadowConsensusDelta   *float64
	PrimaryTextLen         int
	PrimaryTokenUsageTotal int
}

// ConsensusObservation is one successful provider response fed into the
// Consensus Evaluator (spec §3/§4.6).
type ConsensusObservation struct {
	ProviderID   string
	Response     *ProviderResponse
	LatencyMs    int64
	Tokens       TokenUsage
	CostEstimate float64
	Err          *ProviderError
}

// CandidateSummary is one grouped response text considered by the Consensus
// Evaluator, reported on the consensus_vote event's candidate_summaries
// array (spec §6).
type CandidateSummary struct {
	Provider  string
	LatencyMs int64
	Votes     int
	TextHash  string
}

// ConsensusResult is the outcome of the Consensus Evaluator (spec §3/§4.6).
type ConsensusResult struct {
	Response           ProviderResponse
	Votes              int
	Tally              map[string]int
	TotalVoters        int
	Reason             string
	Strategy           ConsensusStrategyName
	MinVotes           *int
	TieBreaker         TieBreaker
	TieBreakApplied    bool
	TieBreakReason     string
	TieBreakerSelected string
	WinnerScore        float64
	Abstained          int
	Rounds             int
	SchemaChecked      bool
	SchemaFailures     map[int]string
	JudgeName          string
	JudgeScore         *float64
	Scores             map[string]float64
	WinnerProviderID   string
	WinnerLatencyMs    int64
	CandidateSummaries []CandidateSummary
}

// VotesAgainst is the complement of Votes/Abstained among TotalVoters,
// mirroring the original's votes_against computation on consensus_vote.
func (r ConsensusResult) VotesAgainst() int {
	n := r.TotalVoters - r.Votes - r.Abstained
	if n < 0 {
		return 0
	}
	return n
}

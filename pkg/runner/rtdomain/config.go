package rtdomain

// Mode selects the strategy the Runner Facade dispatches to.
type Mode string

const (
	ModeSequential  Mode = "sequential"
	ModeParallelAny Mode = "parallel_any"
	ModeParallelAll Mode = "parallel_all"
	ModeConsensus   Mode = "consensus"
)

// BackoffConfig controls the Retry Controller's sleep-and-advance decisions
// (spec §4.5).
type BackoffConfig struct {
	RateLimitSleepS      float64
	RetryBackoffS        float64
	TimeoutNextProvider  bool
	RetryableNextProvider bool
}

// RetryPolicy is the per-provider retry budget.
type RetryPolicy struct {
	Max int // additional attempts beyond the first; MaxAttempts = max(0,Max)+1
}

// ConsensusStrategyName enumerates the consensus selection strategies of
// spec §3/§4.6.
type ConsensusStrategyName string

const (
	ConsensusMajority     ConsensusStrategyName = "majority"
	ConsensusWeighted     ConsensusStrategyName = "weighted"
	ConsensusMaxScore     ConsensusStrategyName = "max_score"
	ConsensusWeightedVote ConsensusStrategyName = "weighted_vote"
)

// TieBreaker enumerates the consensus tie-breaking strategies.
type TieBreaker string

const (
	TieBreakMinLatency  TieBreaker = "min_latency"
	TieBreakMinCost     TieBreaker = "min_cost"
	TieBreakStableOrder TieBreaker = "stable_order"
)

// ConsensusConfig configures the Consensus Evaluator (C8).
type ConsensusConfig struct {
	Strategy        ConsensusStrategyName
	Quorum          *int
	TieBreaker      TieBreaker
	Schema          string // JSON schema text, type=object + required keys
	Judge           string // name of an external judge provider
	ProviderWeights map[string]float64
	MaxLatencyMs    *int64
	MaxCostUSD      *float64
	MaxRounds       *int
}

// RunnerConfig configures the Runner Facade and Strategy Engine (C9/C10).
type RunnerConfig struct {
	Mode           Mode
	MaxAttempts    *int // run-wide cap on total provider attempts
	MaxConcurrency *int
	RPM            *int
	Backoff        BackoffConfig
	Retries        RetryPolicy
	Consensus      ConsensusConfig
	ShadowProvider string
	MetricsPath    string
	DailyBudgetUSD *float64
	RunBudgetUSD   *float64
	AllowOverrun   bool
}

// EffectiveMaxConcurrency resolves max_concurrency against the number of
// providers in the run per spec §5 ("default = number of providers,
// clamped >= 1").
func (c RunnerConfig) EffectiveMaxConcurrency(numProviders int) int {
	if c.MaxConcurrency != nil && *c.MaxConcurrency > 0 {
		if *c.MaxConcurrency < numProviders {
			return *c.MaxConcurrency
		}
		return numProviders
	}
	if numProviders < 1 {
		return 1
	}
	return numProviders
}

// ProviderMaxAttempts returns max(0, retries.max) + 1.
func (c RunnerConfig) ProviderMaxAttempts() int {
	n := c.Retries.Max
	if n < 0 {
		n = 0
	}
	return n + 1
}

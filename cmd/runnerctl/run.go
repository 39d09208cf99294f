package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/lexlapax/llm-runner/pkg/runner"
	"github.com/lexlapax/llm-runner/pkg/runner/eventlog"
	"github.com/lexlapax/llm-runner/pkg/runner/rtdomain"
)

// RunCmd executes a single request against a provider chain under one
// RunnerConfig, mirroring the original adapter's cli/args.py --mode/
// --providers/--aggregate flag surface over the Runner Facade.
type RunCmd struct {
	Mode          string   `kong:"required,enum='sequential,parallel-any,parallel-all,consensus',help='Execution strategy'"`
	Providers     []string `kong:"required,sep=',',help='Comma-separated configured provider names, in attempt order'"`
	MaxConcurrency int     `kong:"name='max-concurrency',help='Cap on concurrent provider calls (parallel/consensus modes)'"`
	RPM           int      `kong:"help='Requests-per-minute ceiling shared across every provider call'"`
	Aggregate     string   `kong:"enum='majority,weighted,max_score,weighted_vote,',help='Consensus selection strategy'"`
	Quorum        int      `kong:"help='Minimum vote count consensus requires to declare a winner'"`
	TieBreaker    string   `kong:"name='tie-breaker',enum='min_latency,min_cost,stable_order,',help='Consensus tie-break order'"`
	Schema        string   `kong:"type='path',help='Path to a JSON schema every consensus candidate must satisfy'"`
	Judge         string   `kong:"help='Configured provider name that breaks a remaining consensus tie'"`
	Weights       string   `kong:"help='Comma-separated provider=weight pairs for the weighted_vote strategy'"`
	MaxLatencyMs  int64    `kong:"name='max-latency-ms',help='Drop consensus candidates slower than this'"`
	MaxCostUSD    float64  `kong:"name='max-cost-usd',help='Drop consensus candidates costing more than this'"`
	RunBudgetUSD  float64  `kong:"name='run-budget-usd',help='Abort the run once its own spend exceeds this'"`
	DailyBudgetUSD float64 `kong:"name='daily-budget-usd',help='Abort once cumulative spend today exceeds this'"`
	AllowOverrun  bool     `kong:"name='allow-overrun',help='Permit exceeding run/daily budgets instead of aborting'"`
	Shadow        string   `kong:"help='Configured provider name run concurrently for comparison only'"`
	Input         string   `kong:"required,type='path',help='Request JSON file, or - for stdin'"`
	OutFormat     string   `kong:"name='out-format',default='text',enum='text,json,jsonl',help='Response rendering'"`
	Metrics       string   `kong:"type='path',help='Append JSONL events to this file'"`
}

func (c *RunCmd) Run(app *appContext) error {
	providers, err := buildProviders(c.Providers, app.fileCfg)
	if err != nil {
		return err
	}

	var judge rtdomain.Provider
	if c.Judge != "" {
		judges, err := buildProviders([]string{c.Judge}, app.fileCfg)
		if err != nil {
			return fmt.Errorf("judge: %w", err)
		}
		judge = judges[0]
	}

	var logger rtdomain.Logger
	if c.Metrics != "" {
		jl, err := eventlog.NewJSONLLogger(c.Metrics)
		if err != nil {
			return fmt.Errorf("opening metrics file: %w", err)
		}
		defer jl.Close()
		logger = jl
	}

	cfg, err := c.toRunnerConfig()
	if err != nil {
		return err
	}

	req, err := readRequest(c.Input)
	if err != nil {
		return err
	}

	r := runner.New(providers, cfg, logger, judge)
	result, err := r.Run(app.ctx, req)
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}

	resp := result.Response
	if cfg.Mode == rtdomain.ModeConsensus {
		resp = result.Consensus.Response
	} else if cfg.Mode == rtdomain.ModeParallelAll {
		resp = firstSuccess(result.ParallelAllResults)
	}

	out, err := formatOutput(resp, c.OutFormat)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, out)
	return nil
}

func firstSuccess(results []rtdomain.InvocationResult) rtdomain.ProviderResponse {
	for _, r := range results {
		if r.Success() {
			return *r.Response
		}
	}
	return rtdomain.ProviderResponse{}
}

func (c *RunCmd) toRunnerConfig() (rtdomain.RunnerConfig, error) {
	mode := rtdomain.Mode(strings.ReplaceAll(c.Mode, "-", "_"))

	cfg := rtdomain.RunnerConfig{
		Mode:           mode,
		ShadowProvider: c.Shadow,
	}
	if c.MaxConcurrency > 0 {
		v := c.MaxConcurrency
		cfg.MaxConcurrency = &v
	}
	if c.RPM > 0 {
		v := c.RPM
		cfg.RPM = &v
	}
	if c.RunBudgetUSD > 0 {
		v := c.RunBudgetUSD
		cfg.RunBudgetUSD = &v
	}
	if c.DailyBudgetUSD > 0 {
		v := c.DailyBudgetUSD
		cfg.DailyBudgetUSD = &v
	}
	cfg.AllowOverrun = c.AllowOverrun

	if mode == rtdomain.ModeConsensus {
		consensus, err := c.toConsensusConfig()
		if err != nil {
			return rtdomain.RunnerConfig{}, err
		}
		cfg.Consensus = consensus
	}
	return cfg, nil
}

func (c *RunCmd) toConsensusConfig() (rtdomain.ConsensusConfig, error) {
	cfg := rtdomain.ConsensusConfig{
		Strategy:   rtdomain.ConsensusStrategyName(c.Aggregate),
		TieBreaker: rtdomain.TieBreaker(c.TieBreaker),
		Judge:      c.Judge,
	}
	if c.Quorum > 0 {
		v := c.Quorum
		cfg.Quorum = &v
	}
	if c.MaxLatencyMs > 0 {
		v := c.MaxLatencyMs
		cfg.MaxLatencyMs = &v
	}
	if c.MaxCostUSD > 0 {
		v := c.MaxCostUSD
		cfg.MaxCostUSD = &v
	}
	if c.Schema != "" {
		b, err := os.ReadFile(c.Schema)
		if err != nil {
			return rtdomain.ConsensusConfig{}, fmt.Errorf("reading schema: %w", err)
		}
		cfg.Schema = string(b)
	}
	if c.Weights != "" {
		weights, err := parseWeights(c.Weights)
		if err != nil {
			return rtdomain.ConsensusConfig{}, err
		}
		cfg.ProviderWeights = weights
	}
	return cfg, nil
}

func parseWeights(csv string) (map[string]float64, error) {
	weights := make(map[string]float64)
	for _, item := range strings.Split(csv, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		name, raw, found := strings.Cut(item, "=")
		if !found {
			return nil, fmt.Errorf("weight %q must be name=value", item)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("weight %q: %w", item, err)
		}
		weights[strings.TrimSpace(name)] = v
	}
	if len(weights) == 0 {
		return nil, fmt.Errorf("--weights must name at least one provider")
	}
	return weights, nil
}

// Package runner implements the Runner Facade (C10): the single entry
// point wiring the Rate Limiter, Provider Invoker, Retry Controller,
// Attempt Budget, Budget Manager, and Strategy Engine around a configured
// provider chain. Grounded on the original adapter's runner.py (the
// simple sequential Runner) and runner_sync.py/runner_sync_modes.py (the
// RunnerConfig-driven SyncRunContext dispatch the latter expands into),
// reworked onto the package boundaries already established by
// pkg/runner/{invoke,strategy,budget,consensus}.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/lexlapax/llm-runner/pkg/runner/budget"
	"github.com/lexlapax/llm-runner/pkg/runner/invoke"
	"github.com/lexlapax/llm-runner/pkg/runner/ratelimit"
	"github.com/lexlapax/llm-runner/pkg/runner/rtdomain"
	"github.com/lexlapax/llm-runner/pkg/runner/strategy"
)

// Result is the outcome of one Run call. Exactly one of Response or
// Consensus is populated, matching which RunnerConfig.Mode produced it;
// ParallelAllResults is populated only for ModeParallelAll.
type Result struct {
	Response           rtdomain.ProviderResponse
	Consensus          rtdomain.ConsensusResult
	ParallelAllResults []rtdomain.InvocationResult
}

// Runner orchestrates a fixed provider chain under a RunnerConfig. A
// Runner is safe for concurrent use by multiple goroutines calling Run;
// its Limiter and Budget are both internally synchronized, and Run builds
// a fresh Invoker/RetryController/AttemptBudget per call so concurrent
// runs never share per-run state.
type Runner struct {
	providers []rtdomain.Provider
	byName    map[string]rtdomain.Provider
	cfg       rtdomain.RunnerConfig
	logger    rtdomain.Logger

	limiter *ratelimit.Limiter
	budget  *budget.Manager
	judge   rtdomain.Provider
}

// New builds a Runner over providers, configured by cfg. logger may be nil
// (events are dropped, spec §4.8 "nil if neither"). judge, when non-nil,
// participates in the Consensus Evaluator's judge round when
// cfg.Consensus.Judge names it.
func New(providers []rtdomain.Provider, cfg rtdomain.RunnerConfig, logger rtdomain.Logger, judge rtdomain.Provider) *Runner {
	if logger == nil {
		logger = rtdomain.NopLogger{}
	}
	byName := make(map[string]rtdomain.Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}

	var limiter *ratelimit.Limiter
	if cfg.RPM != nil && *cfg.RPM > 0 {
		limiter = ratelimit.New(*cfg.RPM)
	}

	var budgetMgr *budget.Manager
	if cfg.DailyBudgetUSD != nil || cfg.RunBudgetUSD != nil {
		budgetMgr = budget.New(budget.Config{
			RunBudgetUSD:   cfg.RunBudgetUSD,
			DailyBudgetUSD: cfg.DailyBudgetUSD,
			AllowOverrun:   cfg.AllowOverrun,
		})
	}

	return &Runner{
		providers: providers,
		byName:    byName,
		cfg:       cfg,
		logger:    logger,
		limiter:   limiter,
		budget:    budgetMgr,
		judge:     judge,
	}
}

// shadowProvider resolves cfg.ShadowProvider (a name) against the
// configured provider chain, or nil when unset or unresolvable.
func (r *Runner) shadowProvider() rtdomain.Provider {
	if r.cfg.ShadowProvider == "" {
		return nil
	}
	return r.byName[r.cfg.ShadowProvider]
}

// Run dispatches req to the strategy named by cfg.Mode (spec §4.6/§5).
// Every successful attempt's estimated cost is gated against the Budget
// Manager, if configured, inside the shared invoke.Invoker itself (spec
// §4.9): a breach demotes that attempt to a ClassConfig error before the
// strategy ever sees it as a success, so Sequential falls back to the
// next provider and ParallelAll/Consensus record it as a failed
// observation, exactly like any other provider error.
func (r *Runner) Run(ctx context.Context, req rtdomain.ProviderRequest) (Result, error) {
	req = req.Normalize()
	runStart := time.Now()
	inv := invoke.New(r.limiter, r.logger)
	if r.budget != nil {
		inv.WithBudget(r.budget)
	}
	rc := invoke.NewRetryController(r.cfg.Backoff, r.cfg.ProviderMaxAttempts())
	attemptBudget := strategy.NewAttemptBudget(r.cfg.MaxAttempts)
	concurrency := r.cfg.EffectiveMaxConcurrency(len(r.providers))
	shadowProvider := r.shadowProvider()
	names := make([]string, len(r.providers))
	for i, p := range r.providers {
		names[i] = p.Name()
	}

	fail := func(err error) (Result, error) {
		invoke.EmitRunMetric(r.logger, invoke.RunMetricInput{
			Request: req, Status: "error", Attempts: attemptsFromErr(err),
			LatencyMs: time.Since(runStart).Milliseconds(), Err: err,
			Mode: r.cfg.Mode, Providers: names, ShadowUsed: shadowProvider != nil,
		})
		return Result{}, err
	}

	switch r.cfg.Mode {
	case rtdomain.ModeParallelAny:
		resp, err := strategy.ParallelAny(ctx, r.providers, req, inv, concurrency, attemptBudget, r.cfg.Backoff, r.cfg.MaxAttempts, r.logger, shadowProvider)
		if err != nil {
			return fail(err)
		}
		return Result{Response: resp}, nil

	case rtdomain.ModeParallelAll:
		results, err := strategy.ParallelAll(ctx, r.providers, req, inv, concurrency, attemptBudget, r.logger, shadowProvider)
		if err != nil {
			return fail(err)
		}
		return Result{ParallelAllResults: results}, nil

	case rtdomain.ModeConsensus:
		cr, err := strategy.Consensus(ctx, r.providers, req, inv, concurrency, attemptBudget, r.cfg.Consensus, r.judge, r.logger, shadowProvider)
		if err != nil {
			return fail(err)
		}
		return Result{Consensus: cr}, nil

	case rtdomain.ModeSequential, "":
		resp, err := strategy.Sequential(ctx, r.providers, req, inv, rc, attemptBudget, r.logger, shadowProvider)
		if err != nil {
			return fail(err)
		}
		return Result{Response: resp}, nil

	default:
		return Result{}, rtdomain.NewConfigError(fmt.Sprintf("unknown runner mode %q", r.cfg.Mode))
	}
}

// attemptsFromErr recovers the total attempt count from a run-failure
// error for the terminal run_metric (spec §4.8 step 6), without the
// Runner Facade having to thread an attempts counter out of every
// strategy's return signature.
func attemptsFromErr(err error) int {
	switch e := err.(type) {
	case *rtdomain.AllFailedError:
		return len(e.Failures)
	case *rtdomain.ParallelExecutionError:
		return len(e.Failures)
	default:
		return 0
	}
}

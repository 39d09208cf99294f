// Package budget implements the Budget Manager (C11): an in-process,
// process-lifetime spend tracker per provider, per run, and cumulative per
// day. There is no original_source counterpart — cost tracking there stops
// at estimate_cost (runner_shared/costs.py) — so this package is a
// supplemented feature (SPEC_FULL.md §4.9), built in the teacher's
// concurrency idiom (a mutex-guarded accumulator, as in
// pkg/util/metrics.Counter).
package budget

import (
	"sync"
	"time"
)

// Manager tracks cumulative spend and rejects reservations that would
// breach the configured run or daily ceiling.
type Manager struct {
	mu sync.Mutex

	runBudgetUSD   *float64
	dailyBudgetUSD *float64
	allowOverrun   bool

	runSpendUSD     float64
	providerSpend   map[string]float64
	day             string
	dailySpendUSD   float64
	now             func() time.Time
}

// Config configures a Manager (spec §4.9).
type Config struct {
	RunBudgetUSD   *float64
	DailyBudgetUSD *float64
	AllowOverrun   bool
}

// New creates a Manager using the real wall clock to key daily totals.
func New(cfg Config) *Manager {
	return NewWithClock(cfg, time.Now)
}

// NewWithClock creates a Manager with an injected clock, used by tests to
// control which "day" a reservation falls on.
func NewWithClock(cfg Config, now func() time.Time) *Manager {
	return &Manager{
		runBudgetUSD:   cfg.RunBudgetUSD,
		dailyBudgetUSD: cfg.DailyBudgetUSD,
		allowOverrun:   cfg.AllowOverrun,
		providerSpend:  make(map[string]float64),
		now:            now,
	}
}

func (m *Manager) rolloverLocked() {
	today := m.now().UTC().Format("2006-01-02")
	if today != m.day {
		m.day = today
		m.dailySpendUSD = 0
	}
}

// Reserve records costUSD against provider, the run, and the current day,
// returning ok=false with a stopReason when doing so would exceed a
// configured ceiling and AllowOverrun is false. The spend is NOT recorded
// when the reservation is rejected.
func (m *Manager) Reserve(provider string, costUSD float64) (ok bool, stopReason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rolloverLocked()

	wouldRun := m.runSpendUSD + costUSD
	wouldDaily := m.dailySpendUSD + costUSD

	if !m.allowOverrun {
		if m.runBudgetUSD != nil && wouldRun > *m.runBudgetUSD {
			return false, "run_budget_exceeded"
		}
		if m.dailyBudgetUSD != nil && wouldDaily > *m.dailyBudgetUSD {
			return false, "daily_budget_exceeded"
		}
	}

	m.runSpendUSD = wouldRun
	m.dailySpendUSD = wouldDaily
	m.providerSpend[provider] += costUSD
	return true, ""
}

// RunSpendUSD returns the total committed spend for the current run.
func (m *Manager) RunSpendUSD() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runSpendUSD
}

// DailySpendUSD returns the total committed spend for the current day.
func (m *Manager) DailySpendUSD() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rolloverLocked()
	return m.dailySpendUSD
}

// ProviderSpendUSD returns the cumulative committed spend for one provider
// across the run's lifetime.
func (m *Manager) ProviderSpendUSD(provider string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.providerSpend[provider]
}

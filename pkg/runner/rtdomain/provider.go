package rtdomain

import "context"

// Provider is the contract a driver must satisfy to participate in a run
// (spec §6). It is intentionally narrower than the teacher's streaming
// domain.Provider: the runner core only ever needs one synchronous call.
type Provider interface {
	// Name returns the provider's identifier, used as provider/provider_id
	// on every emitted event.
	Name() string

	// Capabilities returns the set of capability tags the provider
	// advertises (e.g. "chat", "json_mode", "vision").
	Capabilities() map[string]struct{}

	// Invoke performs one synchronous attempt. Errors must be classified
	// (a *ProviderError) or are classified by ClassifyError before use.
	Invoke(ctx context.Context, req ProviderRequest) (ProviderResponse, error)
}

// CostEstimator is an optional capability a Provider may implement to
// supply a cost model used by both the Consensus Evaluator's cost
// constraint gate and the Budget Manager.
type CostEstimator interface {
	EstimateCost(tokensIn, tokensOut int) float64
}

// EstimateCost returns p.EstimateCost(in, out) when p implements
// CostEstimator, else 0 (spec §4.7.4 "else 0").
func EstimateCost(p Provider, tokensIn, tokensOut int) float64 {
	if ce, ok := p.(CostEstimator); ok {
		return ce.EstimateCost(tokensIn, tokensOut)
	}
	return 0
}

// HasCapability reports whether a provider advertises a capability tag.
func HasCapability(p Provider, tag string) bool {
	caps := p.Capabilities()
	_, ok := caps[tag]
	return ok
}

package main

import (
	"fmt"
	"sort"

	llmdomain "github.com/lexlapax/llm-runner/pkg/llm/domain"
	"github.com/lexlapax/llm-runner/pkg/llm/provider"
	runnerproviders "github.com/lexlapax/llm-runner/pkg/runner/providers"
	"github.com/lexlapax/llm-runner/pkg/runner/rtdomain"
)

// buildProviders resolves --providers names against cfg.Providers,
// constructing one teacher driver per entry and wrapping it in
// runnerproviders.Adapter, in the order the caller named them (spec §5
// determinism: provider order is caller-supplied and preserved).
func buildProviders(names []string, cfg FileConfig) ([]rtdomain.Provider, error) {
	out := make([]rtdomain.Provider, 0, len(names))
	for _, name := range names {
		pc, ok := cfg.Providers[name]
		if !ok {
			return nil, fmt.Errorf("provider %q is not configured", name)
		}
		driver, err := buildDriver(pc)
		if err != nil {
			return nil, fmt.Errorf("provider %q: %w", name, err)
		}
		out = append(out, runnerproviders.New(name, driver, []string{"chat"}, pc.CostPerToken))
	}
	return out, nil
}

func buildDriver(pc ProviderConfig) (llmdomain.Provider, error) {
	switch pc.Kind {
	case "openai":
		return provider.NewOpenAIProvider(pc.APIKey, pc.Model), nil
	case "anthropic":
		return provider.NewAnthropicProvider(pc.APIKey, pc.Model), nil
	case "gemini":
		return provider.NewGeminiProvider(pc.APIKey, pc.Model), nil
	case "mock", "":
		return provider.NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown provider kind %q", pc.Kind)
	}
}

// sortedProviderNames returns cfg's configured provider names, sorted,
// for the doctor command's deterministic report.
func sortedProviderNames(cfg FileConfig) []string {
	names := make([]string, 0, len(cfg.Providers))
	for name := range cfg.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

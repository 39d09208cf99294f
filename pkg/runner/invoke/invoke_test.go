package invoke

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lexlapax/llm-runner/pkg/runner/eventlog"
	"github.com/lexlapax/llm-runner/pkg/runner/rtdomain"
)

type stubProvider struct {
	name string
	resp rtdomain.ProviderResponse
	err  error
}

func (s *stubProvider) Name() string                     { return s.name }
func (s *stubProvider) Capabilities() map[string]struct{} { return nil }
func (s *stubProvider) Invoke(ctx context.Context, req rtdomain.ProviderRequest) (rtdomain.ProviderResponse, error) {
	if s.err != nil {
		return rtdomain.ProviderResponse{}, s.err
	}
	return s.resp, nil
}

func TestInvoker_SuccessEmitsOkProviderCall(t *testing.T) {
	mem := eventlog.NewMemory()
	inv := New(nil, mem)
	p := &stubProvider{name: "openai", resp: rtdomain.ProviderResponse{
		Text:       "hello",
		TokenUsage: rtdomain.TokenUsage{Prompt: 3, Completion: 5},
	}}

	result := inv.Invoke(context.Background(), p, rtdomain.ProviderRequest{Prompt: "hi", Model: "gpt"}, Options{
		Attempt: 1, TotalProviders: 2, Mode: rtdomain.ModeSequential,
	})

	require.True(t, result.Success())
	require.Equal(t, 3, result.TokensIn)
	require.Equal(t, 5, result.TokensOut)

	calls := mem.OfType(rtdomain.EventProviderCall)
	require.Len(t, calls, 1)
	require.Equal(t, "ok", calls[0].Fields["status"])
	require.Equal(t, "openai", calls[0].Fields["provider"])
}

func TestInvoker_FailureClassifiesAndEmitsErrorProviderCall(t *testing.T) {
	mem := eventlog.NewMemory()
	inv := New(nil, mem)
	p := &stubProvider{name: "anthropic", err: errors.New("request timed out")}

	result := inv.Invoke(context.Background(), p, rtdomain.ProviderRequest{Prompt: "hi", Model: "claude"}, Options{
		Attempt: 1, TotalProviders: 1, Mode: rtdomain.ModeSequential,
	})

	require.False(t, result.Success())
	require.Equal(t, rtdomain.ClassTimeout, result.Err.Class)

	calls := mem.OfType(rtdomain.EventProviderCall)
	require.Len(t, calls, 1)
	require.Equal(t, "error", calls[0].Fields["status"])
	require.Equal(t, "TimeoutError", calls[0].Fields["error_type"])
}

type rejectingBudget struct{ reason string }

func (b rejectingBudget) Reserve(provider string, costUSD float64) (bool, string) {
	return false, b.reason
}

func TestInvoker_BudgetRejectionDemotesSuccessToConfigError(t *testing.T) {
	mem := eventlog.NewMemory()
	inv := New(nil, mem).WithBudget(rejectingBudget{reason: "run_budget_exceeded"})
	p := &stubProvider{name: "openai", resp: rtdomain.ProviderResponse{Text: "hello"}}

	result := inv.Invoke(context.Background(), p, rtdomain.ProviderRequest{Prompt: "hi", Model: "gpt"}, Options{
		Attempt: 1, TotalProviders: 1, Mode: rtdomain.ModeSequential,
	})

	require.False(t, result.Success())
	require.Equal(t, rtdomain.ClassConfig, result.Err.Class)

	calls := mem.OfType(rtdomain.EventProviderCall)
	require.Len(t, calls, 1)
	require.Equal(t, "error", calls[0].Fields["status"])
}

func TestInvoker_SkipErrorEmitsProviderSkippedBeforeProviderCall(t *testing.T) {
	mem := eventlog.NewMemory()
	inv := New(nil, mem)
	p := &stubProvider{name: "openai", err: rtdomain.NewSkipError("skip", "vision not supported")}

	result := inv.Invoke(context.Background(), p, rtdomain.ProviderRequest{Prompt: "hi"}, Options{
		Attempt: 1, TotalProviders: 1, Mode: rtdomain.ModeSequential,
	})
	require.False(t, result.Success())

	all := mem.All()
	require.Len(t, all, 2)
	require.Equal(t, rtdomain.EventProviderSkipped, all[0].Type)
	require.Equal(t, rtdomain.EventProviderCall, all[1].Type)
}

func TestInvoker_ProviderCallCarriesRequestHash(t *testing.T) {
	mem := eventlog.NewMemory()
	inv := New(nil, mem)
	p := &stubProvider{name: "openai", resp: rtdomain.ProviderResponse{Text: "hello"}}

	inv.Invoke(context.Background(), p, rtdomain.ProviderRequest{Prompt: "hi", Model: "gpt"}, Options{
		Attempt: 1, TotalProviders: 1, Mode: rtdomain.ModeSequential,
	})

	calls := mem.OfType(rtdomain.EventProviderCall)
	require.Len(t, calls, 1)
	require.NotEmpty(t, calls[0].RequestHash)
}

func TestInvoker_InvokeCancelledEmitsSyntheticProviderCall(t *testing.T) {
	mem := eventlog.NewMemory()
	inv := New(nil, mem)
	p := &stubProvider{name: "openai"}

	result := inv.InvokeCancelled(p, rtdomain.ProviderRequest{Prompt: "hi"}, Options{
		Attempt: 2, TotalProviders: 2, Mode: rtdomain.ModeParallelAny,
	})

	require.False(t, result.Success())
	require.Equal(t, rtdomain.ClassCancelled, result.Err.Class)

	calls := mem.OfType(rtdomain.EventProviderCall)
	require.Len(t, calls, 1)
	require.Equal(t, "CancelledError", calls[0].Fields["error_type"])
}

func TestInvoker_WithShadowCarriesShadowMetrics(t *testing.T) {
	mem := eventlog.NewMemory()
	inv := New(nil, mem)
	primary := &stubProvider{name: "primary", resp: rtdomain.ProviderResponse{Text: "a"}}
	shadowP := &stubProvider{name: "shadow", resp: rtdomain.ProviderResponse{Text: "b"}}

	result := inv.Invoke(context.Background(), primary, rtdomain.ProviderRequest{Prompt: "hi"}, Options{
		Attempt: 1, TotalProviders: 1, ShadowProvider: shadowP,
	})

	require.True(t, result.Success())
	require.NotNil(t, result.ShadowMetrics)
	require.True(t, result.ShadowMetrics.ShadowOK)
}

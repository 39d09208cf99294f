package shadow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lexlapax/llm-runner/pkg/runner/eventlog"
	"github.com/lexlapax/llm-runner/pkg/runner/rtdomain"
)

type stubProvider struct {
	name  string
	delay time.Duration
	resp  rtdomain.ProviderResponse
	err   error
}

func (s *stubProvider) Name() string                          { return s.name }
func (s *stubProvider) Capabilities() map[string]struct{}      { return nil }
func (s *stubProvider) Invoke(ctx context.Context, req rtdomain.ProviderRequest) (rtdomain.ProviderResponse, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return rtdomain.ProviderResponse{}, s.err
	}
	return s.resp, nil
}

func TestRun_NoShadowReturnsPrimaryUnchanged(t *testing.T) {
	primary := &stubProvider{name: "primary", resp: rtdomain.ProviderResponse{Text: "hi", LatencyMs: 5}}
	resp, perr, metrics := Run(context.Background(), primary, nil, rtdomain.ProviderRequest{Prompt: "p"}, nil)
	require.Nil(t, perr)
	require.Nil(t, metrics)
	require.Equal(t, "hi", resp.Text)
}

func TestRun_ShadowSuccessEmitsDiffWithoutAffectingPrimary(t *testing.T) {
	primary := &stubProvider{name: "primary", resp: rtdomain.ProviderResponse{Text: "hi", LatencyMs: 5}}
	shadowP := &stubProvider{name: "shadow", resp: rtdomain.ProviderResponse{Text: "hi-shadow", LatencyMs: 9}}
	mem := eventlog.NewMemory()

	resp, perr, metrics := Run(context.Background(), primary, shadowP, rtdomain.ProviderRequest{Prompt: "p"}, mem)

	require.Nil(t, perr)
	require.Equal(t, "hi", resp.Text)
	require.NotNil(t, metrics)
	require.True(t, metrics.ShadowOK)
	require.Equal(t, rtdomain.ShadowSuccess, metrics.ShadowOutcome)
	require.Len(t, mem.OfType(rtdomain.EventShadowDiff), 1)
}

func TestRun_ShadowFailureDoesNotFailPrimary(t *testing.T) {
	primary := &stubProvider{name: "primary", resp: rtdomain.ProviderResponse{Text: "hi"}}
	shadowP := &stubProvider{name: "shadow", err: errors.New("boom")}
	mem := eventlog.NewMemory()

	resp, perr, metrics := Run(context.Background(), primary, shadowP, rtdomain.ProviderRequest{Prompt: "p"}, mem)

	require.Nil(t, perr)
	require.Equal(t, "hi", resp.Text)
	require.False(t, metrics.ShadowOK)
	require.Equal(t, rtdomain.ShadowError, metrics.ShadowOutcome)
}

func TestRun_PrimaryFailureIsClassified(t *testing.T) {
	primary := &stubProvider{name: "primary", err: errors.New("rate limit exceeded (429)")}
	resp, perr, _ := Run(context.Background(), primary, nil, rtdomain.ProviderRequest{Prompt: "p"}, nil)

	require.NotNil(t, perr)
	require.Equal(t, rtdomain.ClassRateLimit, perr.Class)
	require.Empty(t, resp.Text)
}

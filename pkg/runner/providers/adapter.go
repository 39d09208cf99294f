// Package providers adapts the teacher's existing driver implementations
// (pkg/llm/provider: OpenAI, Anthropic, Gemini, Mock) to the runner's
// narrower rtdomain.Provider contract. Each driver already speaks its
// vendor's wire protocol over net/http/encoding/json; this package is a
// thin bridge from GenerateMessage to Invoke, plus latency/token-usage
// capture the runner core needs that the streaming domain.Provider
// contract does not expose directly.
package providers

import (
	"context"
	"time"

	llmdomain "github.com/lexlapax/llm-runner/pkg/llm/domain"
	"github.com/lexlapax/llm-runner/pkg/runner/rtdomain"
)

// Adapter wraps a teacher domain.Provider as an rtdomain.Provider.
type Adapter struct {
	name         string
	underlying   llmdomain.Provider
	capabilities map[string]struct{}
	costPerToken float64 // USD per total token, 0 disables EstimateCost
}

// New wraps underlying under name, advertising capabilities (e.g. "chat",
// "json_mode"). costPerToken, when > 0, makes the adapter implement
// rtdomain.CostEstimator with a flat per-token rate (spec §4.7.4 "else
// 0" applies when costPerToken is 0).
func New(name string, underlying llmdomain.Provider, capabilities []string, costPerToken float64) *Adapter {
	caps := make(map[string]struct{}, len(capabilities))
	for _, c := range capabilities {
		caps[c] = struct{}{}
	}
	return &Adapter{name: name, underlying: underlying, capabilities: caps, costPerToken: costPerToken}
}

func (a *Adapter) Name() string                     { return a.name }
func (a *Adapter) Capabilities() map[string]struct{} { return a.capabilities }

// EstimateCost implements rtdomain.CostEstimator when costPerToken > 0.
func (a *Adapter) EstimateCost(tokensIn, tokensOut int) float64 {
	if a.costPerToken <= 0 {
		return 0
	}
	return float64(tokensIn+tokensOut) * a.costPerToken
}

// Invoke bridges to the underlying driver's GenerateMessage, translating
// ProviderRequest fields into llmdomain.Option values and timing the call
// itself (the teacher's Response carries no latency/token usage).
func (a *Adapter) Invoke(ctx context.Context, req rtdomain.ProviderRequest) (rtdomain.ProviderResponse, error) {
	messages := req.Messages
	if len(messages) == 0 {
		messages = []llmdomain.Message{llmdomain.NewTextMessage(llmdomain.RoleUser, req.Prompt)}
	}

	opts := buildOptions(req)
	start := time.Now()
	resp, err := a.underlying.GenerateMessage(ctx, messages, opts...)
	latency := time.Since(start)
	if err != nil {
		return rtdomain.ProviderResponse{}, err
	}

	tokensIn := estimateTokens(messages)
	tokensOut := estimateTokensFromText(resp.Content)

	return rtdomain.ProviderResponse{
		Text:      resp.Content,
		LatencyMs: latency.Milliseconds(),
		TokenUsage: rtdomain.TokenUsage{
			Prompt:     tokensIn,
			Completion: tokensOut,
		},
		Model: req.Model,
		Raw:   resp,
	}, nil
}

func buildOptions(req rtdomain.ProviderRequest) []llmdomain.Option {
	var opts []llmdomain.Option
	if req.MaxTokens != nil {
		opts = append(opts, llmdomain.WithMaxTokens(*req.MaxTokens))
	}
	if req.Temperature != nil {
		opts = append(opts, llmdomain.WithTemperature(*req.Temperature))
	}
	if req.TopP != nil {
		opts = append(opts, llmdomain.WithTopP(*req.TopP))
	}
	if len(req.Stop) > 0 {
		opts = append(opts, llmdomain.WithStopSequences(req.Stop))
	}
	return opts
}

// estimateTokens approximates prompt tokens from message text length
// (4 characters per token), since the teacher's Response does not report
// real usage counts outside of raw provider payloads.
func estimateTokens(messages []llmdomain.Message) int {
	chars := 0
	for _, m := range messages {
		for _, part := range m.Content {
			chars += len(part.Text)
		}
	}
	return (chars + 3) / 4
}

func estimateTokensFromText(text string) int {
	return (len(text) + 3) / 4
}

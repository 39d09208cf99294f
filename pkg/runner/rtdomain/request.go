// Package rtdomain defines the core data model and contracts shared by the
// runner orchestration layer: requests, responses, the provider error
// taxonomy, configuration, and the events the runner emits.
package rtdomain

import (
	"strings"

	llmdomain "github.com/lexlapax/llm-runner/pkg/llm/domain"
)

// ProviderRequest is the immutable input to a single run.
type ProviderRequest struct {
	Model       string
	Prompt      string
	Messages    []llmdomain.Message
	MaxTokens   *int
	Temperature *float64
	TopP        *float64
	Stop        []string
	TimeoutS    *float64
	Metadata    map[string]interface{}
	Options     map[string]interface{}
}

// Normalize trims the model name and fills in the mutually-derivable
// Prompt/Messages pair: an empty Messages list with a non-empty Prompt
// yields one user message, and an empty Prompt with Messages populates
// Prompt from the first text content part of the first message.
func (r ProviderRequest) Normalize() ProviderRequest {
	r.Model = strings.TrimSpace(r.Model)
	if len(r.Messages) == 0 && r.Prompt != "" {
		r.Messages = []llmdomain.Message{llmdomain.NewTextMessage(llmdomain.RoleUser, r.Prompt)}
	}
	if r.Prompt == "" && len(r.Messages) > 0 {
		r.Prompt = firstText(r.Messages[0])
	}
	return r
}

func firstText(m llmdomain.Message) string {
	for _, part := range m.Content {
		if part.Type == llmdomain.ContentTypeText {
			return part.Text
		}
	}
	return ""
}

// Valid reports whether the request satisfies the model-name invariant.
func (r ProviderRequest) Valid() bool {
	return strings.TrimSpace(r.Model) != ""
}

// TokenUsage tallies prompt and completion tokens for one invocation.
type TokenUsage struct {
	Prompt     int
	Completion int
}

// Total returns Prompt + Completion.
func (t TokenUsage) Total() int {
	return t.Prompt + t.Completion
}

// ProviderResponse is a normalized successful outcome from a Provider.
type ProviderResponse struct {
	Text         string
	LatencyMs    int64
	TokenUsage   TokenUsage
	Model        string
	FinishReason string
	Raw          interface{}
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/lexlapax/llm-runner/pkg/runner/rtdomain"
)

// requestPayload mirrors the --input JSON document's shape (spec §4.1's
// ProviderRequest, loosened to plain JSON types for the CLI boundary).
type requestPayload struct {
	Model       string         `json:"model"`
	Prompt      string         `json:"prompt"`
	MaxTokens   *int           `json:"max_tokens,omitempty"`
	Temperature *float64       `json:"temperature,omitempty"`
	TopP        *float64       `json:"top_p,omitempty"`
	Stop        []string       `json:"stop,omitempty"`
	Options     map[string]any `json:"options,omitempty"`
}

// readRequest loads --input (a path, or "-" for stdin) as one JSON object,
// matching the original adapter's cli/io.py _read_structured_payload
// default contract (jsonl=False; nothing in that CLI ever sets it true).
func readRequest(path string) (rtdomain.ProviderRequest, error) {
	var raw []byte
	var err error
	if path == "-" || path == "" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return rtdomain.ProviderRequest{}, fmt.Errorf("reading input: %w", err)
	}

	var payload requestPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return rtdomain.ProviderRequest{}, fmt.Errorf("parsing input: %w", err)
	}

	return rtdomain.ProviderRequest{
		Model:       payload.Model,
		Prompt:      payload.Prompt,
		MaxTokens:   payload.MaxTokens,
		Temperature: payload.Temperature,
		TopP:        payload.TopP,
		Stop:        payload.Stop,
		Options:     payload.Options,
	}.Normalize(), nil
}

// formatOutput renders a response per --out-format, grounded on the
// original adapter's cli/io.py _format_output.
func formatOutput(resp rtdomain.ProviderResponse, format string) (string, error) {
	if format == "text" {
		return resp.Text, nil
	}
	payload := map[string]any{
		"status":     "success",
		"text":       resp.Text,
		"provider":   resp.Model,
		"model":      resp.Model,
		"latency_ms": resp.LatencyMs,
		"token_usage": map[string]any{
			"prompt":     resp.TokenUsage.Prompt,
			"completion": resp.TokenUsage.Completion,
			"total":      resp.TokenUsage.Total(),
		},
	}
	if resp.FinishReason != "" {
		payload["finish_reason"] = resp.FinishReason
	}
	if resp.Raw != nil {
		payload["raw"] = resp.Raw
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

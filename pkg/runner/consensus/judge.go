package consensus

import (
	"context"

	jsoniter "github.com/json-iterator/go"

	"github.com/lexlapax/llm-runner/pkg/runner/rtdomain"
)

// Judge breaks a still-tied consensus by picking one candidate's text and
// reporting a confidence score. The judge role is itself a Provider: its
// response text must be a JSON object {"choice": "<exact candidate
// text>", "score": <float>}.
func invokeJudge(ctx context.Context, judge rtdomain.Provider, candidates []*candidate) (choice string, score float64, err error) {
	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.text
	}
	prompt, merr := rtdomain.CanonicalizeJSON(map[string]interface{}{"candidates": texts})
	if merr != nil {
		return "", 0, merr
	}
	resp, ierr := judge.Invoke(ctx, rtdomain.ProviderRequest{
		Model:  judge.Name(),
		Prompt: "Pick the best candidate response and return JSON {\"choice\":...,\"score\":...}. Candidates: " + prompt,
	})
	if ierr != nil {
		return "", 0, ierr
	}
	var parsed struct {
		Choice string  `json:"choice"`
		Score  float64 `json:"score"`
	}
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.UnmarshalFromString(resp.Text, &parsed); err != nil {
		return "", 0, err
	}
	return parsed.Choice, parsed.Score, nil
}

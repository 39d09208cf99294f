package rtdomain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var canonicalJSON = jsoniter.Config{SortMapKeys: true}.Froze()

// Fingerprint computes the 16-hex-character truncated SHA-256 over
// ("runner", prompt, options, max_tokens), used as request_fingerprint
// (spec §3). Canonical serialization of options sorts map keys so two
// requests with identical content but differently-ordered option maps
// fingerprint identically.
func Fingerprint(prompt string, options map[string]interface{}, maxTokens *int) string {
	optionsJSON, _ := canonicalJSON.Marshal(options)
	tokens := "null"
	if maxTokens != nil {
		tokens = fmt.Sprintf("%d", *maxTokens)
	}
	h := sha256.New()
	h.Write([]byte("runner\x00"))
	h.Write([]byte(prompt))
	h.Write([]byte("\x00"))
	h.Write(optionsJSON)
	h.Write([]byte("\x00"))
	h.Write([]byte(tokens))
	sum := h.Sum(nil)
	return hex.EncodeToString(sum)[:16]
}

// RequestHash computes a per-provider hash distinct from the overall
// request fingerprint, mirroring the original's request_hash used on
// provider_call/run_metric events (see SPEC_FULL.md §9).
func RequestHash(providerName string, req ProviderRequest) string {
	return Fingerprint(providerName+"\x00"+req.Prompt, req.Options, req.MaxTokens)
}

// ContentHash computes a short, domain-scoped SHA-256 hash of text, used
// for candidate_summaries[].text_hash on the consensus_vote event (spec
// §6), mirroring the original's content_hash("consensus", text) helper.
func ContentHash(domain, text string) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0})
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return hex.EncodeToString(sum)[:16]
}

// CanonicalizeJSON re-encodes an already-parsed JSON value with sorted
// keys and minimal separators, used by the Consensus Evaluator to
// normalize candidate text for grouping (spec §4.6 step 3).
func CanonicalizeJSON(v interface{}) (string, error) {
	b, err := canonicalJSON.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

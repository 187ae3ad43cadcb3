package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	fenceJSON = "```json"
	fence     = "```"
)

// DecodeError reports a response that did not carry a decodable JSON
// object. Raw holds the full original text.
type DecodeError struct {
	Raw string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode structured response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// FencedPayload locates the JSON candidate inside a model response:
// the text after a ```json opener up to the next fence, else the text
// between the first pair of fences, else the whole response. A missing
// closing fence runs to the end of the text.
func FencedPayload(text string) string {
	if i := strings.Index(text, fenceJSON); i >= 0 {
		return untilFence(text[i+len(fenceJSON):])
	}
	if i := strings.Index(text, fence); i >= 0 {
		return untilFence(text[i+len(fence):])
	}
	return strings.TrimSpace(text)
}

func untilFence(s string) string {
	if j := strings.Index(s, fence); j >= 0 {
		s = s[:j]
	}
	return strings.TrimSpace(s)
}

// ExtractJSON decodes the JSON object embedded in text.
// Any failure is returned as a *DecodeError.
func ExtractJSON(text string) (map[string]any, error) {
	var out map[string]any
	if err := ExtractInto(text, &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, &DecodeError{Raw: text, Err: fmt.Errorf("payload is not a JSON object")}
	}
	return out, nil
}

// ExtractInto decodes the fenced payload of text into v.
func ExtractInto(text string, v any) error {
	payload := FencedPayload(text)
	if payload == "" {
		return &DecodeError{Raw: text, Err: fmt.Errorf("empty payload")}
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return &DecodeError{Raw: text, Err: err}
	}
	return nil
}

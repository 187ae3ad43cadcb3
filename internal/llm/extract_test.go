package llm

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[string]any
	}{
		{"json fence", "```json\n{\"a\":1}\n```", map[string]any{"a": 1.0}},
		{"bare object", `{"a":1}`, map[string]any{"a": 1.0}},
		{"prose around json fence", "Here you go:\n```json\n{\"root_cause\":\"x\"}\n```\nHope it helps", map[string]any{"root_cause": "x"}},
		{"unlabeled fence", "Result:\n```\n{\"b\":true}\n```", map[string]any{"b": true}},
		{"json fence wins over earlier plain fence", "```\nnot this\n```\n```json\n{\"c\":\"yes\"}\n```", map[string]any{"c": "yes"}},
		{"unterminated json fence", "```json\n{\"d\":2}", map[string]any{"d": 2.0}},
		{"surrounding whitespace", "  \n {\"e\":[]} \n", map[string]any{"e": []any{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.input)
			if err != nil {
				t.Fatalf("ExtractJSON(%q) failed: %v", tt.input, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractJSON_DecodeError(t *testing.T) {
	inputs := []string{
		"not json at all",
		"",
		"```json\n```",
		"[1, 2, 3]",
		"null",
	}

	for _, input := range inputs {
		_, err := ExtractJSON(input)
		if err == nil {
			t.Errorf("ExtractJSON(%q) should fail", input)
			continue
		}
		var decodeErr *DecodeError
		if !errors.As(err, &decodeErr) {
			t.Errorf("ExtractJSON(%q) returned %T, want *DecodeError", input, err)
			continue
		}
		if decodeErr.Raw != input {
			t.Errorf("raw text not preserved: got %q, want %q", decodeErr.Raw, input)
		}
	}
}

func TestExtractInto(t *testing.T) {
	var out struct {
		RootCause string  `json:"root_cause"`
		Score     float64 `json:"confidence_score"`
	}
	err := ExtractInto("```json\n{\"root_cause\":\"missing env\",\"confidence_score\":0.8}\n```", &out)
	if err != nil {
		t.Fatalf("ExtractInto failed: %v", err)
	}
	if out.RootCause != "missing env" || out.Score != 0.8 {
		t.Errorf("unexpected decode result: %+v", out)
	}
}

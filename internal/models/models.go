// Package models holds the data types exchanged between the orchestrator,
// the analysis agents and the solution ranker.
package models

import (
	"math"
	"strconv"
	"strings"
)

// ContextType tells the agents where the error was captured.
type ContextType string

const (
	ContextConsole  ContextType = "console"
	ContextIDE      ContextType = "ide"
	ContextTerminal ContextType = "terminal"
	ContextGeneral  ContextType = "general"
)

// ParseContextType maps free-form input onto a known ContextType,
// falling back to ContextGeneral.
func ParseContextType(s string) ContextType {
	switch ContextType(strings.ToLower(strings.TrimSpace(s))) {
	case ContextConsole:
		return ContextConsole
	case ContextIDE:
		return ContextIDE
	case ContextTerminal:
		return ContextTerminal
	default:
		return ContextGeneral
	}
}

// ErrorContext is the read-only input of one debug run.
// An image may be given either as raw bytes or as a path on disk.
type ErrorContext struct {
	ErrorText   string      `json:"error_text"`
	Image       []byte      `json:"-"`
	ImagePath   string      `json:"image_path,omitempty"`
	CodeContext string      `json:"code_context,omitempty"`
	Type        ContextType `json:"type,omitempty"`
}

// HasImage reports whether a screenshot accompanies the error.
func (c ErrorContext) HasImage() bool {
	return len(c.Image) > 0 || c.ImagePath != ""
}

// ContextKind returns Type, defaulting to ContextGeneral.
func (c ErrorContext) ContextKind() ContextType {
	if c.Type == "" {
		return ContextGeneral
	}
	return c.Type
}

// CodeChange is a single suggested edit.
type CodeChange struct {
	File string `json:"file"`
	Code string `json:"code"`
}

// CandidateSolution is an unranked fix proposed by synthesis.
type CandidateSolution struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Steps       []string     `json:"steps"`
	CodeChanges []CodeChange `json:"code_changes"`
	Confidence  float64      `json:"confidence"`
	Votes       int          `json:"votes"`
	Date        string       `json:"date,omitempty"`
	Sources     []string     `json:"sources"`
}

// RankedSolution is a CandidateSolution after dedup, scoring and sorting.
type RankedSolution struct {
	Rank          int          `json:"rank"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	Steps         []string     `json:"steps"`
	CodeChanges   []CodeChange `json:"code_changes"`
	Confidence    float64      `json:"confidence"`
	Sources       []string     `json:"sources"`
	WhyRankedHere string       `json:"why_ranked_here"`
	TradeOffs     []string     `json:"trade_offs"`
}

// DebugResult is the terminal artifact of one orchestration run.
type DebugResult struct {
	RunID           string                        `json:"run_id,omitempty"`
	RootCause       string                        `json:"root_cause"`
	Solutions       []RankedSolution              `json:"solutions"`
	FixInstructions string                        `json:"fix_instructions"`
	ConfidenceScore float64                       `json:"confidence_score"`
	AgentMetrics    map[string]map[string]float64 `json:"agent_metrics"`
	ExecutionTime   float64                       `json:"execution_time"`
}

// CandidateFromMap converts a loosely shaped solution object into a
// CandidateSolution. Missing or mistyped fields fall back to zero values so
// one malformed entry never discards a batch.
func CandidateFromMap(m map[string]any) CandidateSolution {
	c := CandidateSolution{
		Title:       stringField(m, "title"),
		Description: stringField(m, "description"),
		Steps:       stepsField(m["steps"]),
		CodeChanges: codeChangesField(m["code_changes"]),
		Votes:       votesField(m["votes"]),
		Date:        dateField(m["date"]),
		Sources:     sourcesField(m),
	}

	if v, ok := numberField(m["confidence"]); ok {
		c.Confidence = Clamp01(v)
	} else if v, ok := numberField(m["probability"]); ok {
		c.Confidence = Clamp01(v)
	}

	return c
}

// CandidatesFromMaps converts every element with CandidateFromMap.
func CandidatesFromMaps(raw []map[string]any) []CandidateSolution {
	out := make([]CandidateSolution, 0, len(raw))
	for _, m := range raw {
		out = append(out, CandidateFromMap(m))
	}
	return out
}

// Clamp01 bounds v to [0, 1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// UniqueStrings drops empty and repeated entries, keeping first-seen order.
func UniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func stringField(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func numberField(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func votesField(v any) int {
	n, ok := numberField(v)
	if !ok || n <= 0 || math.IsNaN(n) {
		return 0
	}
	if n >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

// dateField keeps strings verbatim; whole JSON numbers such as 2021 are
// rendered back to their decimal form.
func dateField(v any) string {
	switch d := v.(type) {
	case string:
		return d
	case float64:
		if d == math.Trunc(d) {
			return strconv.FormatInt(int64(d), 10)
		}
	}
	return ""
}

func stepsField(v any) []string {
	items, ok := v.([]any)
	if !ok {
		if ss, ok := v.([]string); ok {
			return append([]string{}, ss...)
		}
		return []string{}
	}

	steps := make([]string, 0, len(items))
	for _, item := range items {
		switch s := item.(type) {
		case string:
			steps = append(steps, s)
		case map[string]any:
			for _, key := range []string{"content", "description", "title"} {
				if text, ok := s[key].(string); ok && text != "" {
					steps = append(steps, text)
					break
				}
			}
		}
	}
	return steps
}

func codeChangesField(v any) []CodeChange {
	items, ok := v.([]any)
	if !ok {
		return []CodeChange{}
	}

	changes := make([]CodeChange, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		changes = append(changes, CodeChange{
			File: stringField(m, "file"),
			Code: stringField(m, "code"),
		})
	}
	return changes
}

func sourcesField(m map[string]any) []string {
	var sources []string
	switch s := m["sources"].(type) {
	case []any:
		for _, item := range s {
			if str, ok := item.(string); ok {
				sources = append(sources, str)
			}
		}
	case []string:
		sources = append(sources, s...)
	case string:
		sources = append(sources, s)
	}
	if single, ok := m["source"].(string); ok {
		sources = append(sources, single)
	}
	return UniqueStrings(sources)
}

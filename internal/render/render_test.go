package render

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"

	"debuggenie/internal/models"
	"debuggenie/internal/storage"
)

func TestTruncateWithEllipsis(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"a longer line of text", 10, "a longe..."},
		{"abcdef", 2, ".."},
	}
	for _, tt := range tests {
		if got := TruncateWithEllipsis(tt.in, tt.width); got != tt.want {
			t.Errorf("TruncateWithEllipsis(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestIndent(t *testing.T) {
	got := Indent("one two three four", 2, 12)
	for _, line := range strings.Split(got, "\n") {
		if !strings.HasPrefix(line, "  ") {
			t.Errorf("line %q is not indented", line)
		}
		if w := ansi.StringWidth(line); w > 12 {
			t.Errorf("line %q is %d wide", line, w)
		}
	}
}

func TestFirstLine(t *testing.T) {
	if got := FirstLine("\n  \n  boom\nmore"); got != "boom" {
		t.Errorf("FirstLine = %q", got)
	}
}

func TestReport(t *testing.T) {
	res := models.DebugResult{
		RunID:     "run-1",
		RootCause: "requests missing",
		Solutions: []models.RankedSolution{{
			Rank:          1,
			Title:         "Install requests",
			Steps:         []string{"pip install requests"},
			CodeChanges:   []models.CodeChange{{File: "requirements.txt", Code: "requests==2.31"}},
			Confidence:    0.9,
			Sources:       []string{"stackoverflow"},
			WhyRankedHere: "Ranked #1 with high confidence",
			TradeOffs:     []string{"Adds a dependency"},
		}},
		FixInstructions: "Run pip",
		ConfidenceScore: 0.8,
		AgentMetrics:    map[string]map[string]float64{"web_research": {"api_calls": 2}},
		ExecutionTime:   3.4,
	}

	out := ansi.Strip(Report(res, 60))
	for _, want := range []string{
		"Debug Report", "run-1", "requests missing", "80%",
		"1. Install requests", "1) pip install requests", "requirements.txt", "requests==2.31",
		"! Adds a dependency", "sources: stackoverflow", "Run pip",
		"web_research", "calls=2", "Completed in 3.4s",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestReport_NoSolutions(t *testing.T) {
	out := ansi.Strip(Report(models.DebugResult{RootCause: "unknown"}, 0))
	if !strings.Contains(out, "No solutions proposed.") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if strings.Contains(out, "Agents") {
		t.Error("empty metrics should not render")
	}
}

func TestHistory(t *testing.T) {
	if out := ansi.Strip(History(nil, 80)); !strings.Contains(out, "No saved reports.") {
		t.Errorf("empty history = %q", out)
	}

	items := []storage.Summary{{
		ID:         "0123456789abcdef",
		CreatedAt:  time.Date(2024, 5, 1, 10, 30, 0, 0, time.Local),
		RootCause:  "a very long root cause that should be cut short\nsecond line",
		Confidence: 0.5,
		Solutions:  3,
	}}
	out := ansi.Strip(History(items, 60))
	if !strings.Contains(out, "01234567  2024-05-01 10:30:00") || !strings.Contains(out, "...") {
		t.Errorf("unexpected history line: %q", out)
	}
	if strings.Contains(out, "second line") {
		t.Error("only the first root cause line should be shown")
	}
	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		if w := ansi.StringWidth(line); w > 60 {
			t.Errorf("line is %d wide: %q", w, line)
		}
	}
}

// Package render formats debug results and archive listings for the
// terminal.
package render

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"debuggenie/internal/models"
	"debuggenie/internal/storage"
)

const DefaultWidth = 80

// Report renders a full debug result. width bounds wrapped paragraphs.
func Report(res models.DebugResult, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	var b strings.Builder

	b.WriteString(Title.Render("Debug Report"))
	if res.RunID != "" {
		b.WriteString(" " + Dim.Render(res.RunID))
	}
	b.WriteString("\n\n")

	b.WriteString(Header.Render("Root cause") + "  " + Confidence(res.ConfidenceScore) + "\n")
	b.WriteString(Indent(res.RootCause, 2, width) + "\n\n")

	if len(res.Solutions) == 0 {
		b.WriteString(Dim.Render("No solutions proposed.") + "\n")
	} else {
		b.WriteString(Header.Render("Solutions") + "\n")
		for _, s := range res.Solutions {
			b.WriteString(Solution(s, width))
		}
	}

	if res.FixInstructions != "" {
		b.WriteString("\n" + Header.Render("How to fix") + "\n")
		b.WriteString(Indent(res.FixInstructions, 2, width) + "\n")
	}

	if m := Metrics(res.AgentMetrics); m != "" {
		b.WriteString("\n" + m)
	}
	b.WriteString(Dim.Render(fmt.Sprintf("Completed in %.1fs", res.ExecutionTime)) + "\n")
	return b.String()
}

// Solution renders one ranked solution.
func Solution(s models.RankedSolution, width int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s %s  %s\n", Key.Render(fmt.Sprintf("%d.", s.Rank)), s.Title, Confidence(s.Confidence))
	if s.Description != "" {
		b.WriteString(Indent(s.Description, 3, width) + "\n")
	}
	for i, step := range s.Steps {
		b.WriteString(Indent(fmt.Sprintf("%d) %s", i+1, step), 5, width) + "\n")
	}
	for _, c := range s.CodeChanges {
		b.WriteString("   " + Dim.Render(c.File) + "\n")
		b.WriteString(Panel.Render(strings.TrimRight(c.Code, "\n")) + "\n")
	}
	if s.WhyRankedHere != "" {
		b.WriteString(Indent(Dim.Render(s.WhyRankedHere), 3, width) + "\n")
	}
	for _, t := range s.TradeOffs {
		b.WriteString("   " + Dim.Render("! "+t) + "\n")
	}
	if len(s.Sources) > 0 {
		b.WriteString("   " + Dim.Render("sources: "+strings.Join(s.Sources, ", ")) + "\n")
	}
	return b.String()
}

// Metrics renders per-agent usage counters, one line per agent in name
// order. It returns "" when there is nothing to show.
func Metrics(m map[string]map[string]float64) string {
	if len(m) == 0 {
		return ""
	}
	roles := make([]string, 0, len(m))
	for role := range m {
		roles = append(roles, role)
	}
	sort.Strings(roles)

	var b strings.Builder
	b.WriteString(Header.Render("Agents") + "\n")
	for _, role := range roles {
		c := m[role]
		fmt.Fprintf(&b, "  %-18s %s\n", role, Dim.Render(fmt.Sprintf(
			"calls=%.0f errors=%.0f cache_hits=%.0f tokens=%.0f latency=%.1fs",
			c["api_calls"], c["errors"], c["cache_hits"], c["total_tokens"], c["total_latency"])))
	}
	return b.String()
}

// History renders archived report summaries, one per line.
func History(items []storage.Summary, width int) string {
	if len(items) == 0 {
		return Dim.Render("No saved reports.") + "\n"
	}
	if width <= 0 {
		width = DefaultWidth
	}

	var b strings.Builder
	for _, s := range items {
		id := s.ID
		if len(id) > 8 {
			id = id[:8]
		}
		prefix := fmt.Sprintf("%s  %s  %4s  %d  ", id, s.CreatedAt.Format(time.DateTime), Percent(s.Confidence), s.Solutions)
		cause := TruncateWithEllipsis(FirstLine(s.RootCause), width-len(prefix))
		b.WriteString(Key.Render(id) + strings.TrimPrefix(prefix, id) + cause + "\n")
	}
	return b.String()
}

package tools

import (
	"context"
	"encoding/json"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// SearchCodebaseTool searches for patterns in code using ripgrep, falling
// back to grep when rg is not installed.
type SearchCodebaseTool struct {
	Workspace Workspace
}

func (t *SearchCodebaseTool) Name() string        { return "search_codebase" }
func (t *SearchCodebaseTool) Description() string { return "Search for patterns in code using ripgrep" }

func (t *SearchCodebaseTool) Parameters() []ToolParam {
	return []ToolParam{
		{Name: "pattern", Type: "string", Description: "Search pattern", Required: true},
		{Name: "path", Type: "string", Description: "Path to search in", Default: "."},
		{Name: "fixed", Type: "bool", Description: "Treat pattern as a literal string", Default: false},
		{Name: "file_types", Type: "[]string", Description: "File types to include (e.g., 'go', 'py')"},
		{Name: "ignore_case", Type: "bool", Description: "Case-insensitive search", Default: false},
		{Name: "max_results", Type: "int", Description: "Maximum results", Default: 50},
	}
}

// SearchMatch represents a single search match.
type SearchMatch struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Column  int    `json:"column,omitempty"`
	Content string `json:"content"`
}

// SearchResult contains the search output.
type SearchResult struct {
	Pattern    string        `json:"pattern"`
	Path       string        `json:"path"`
	Matches    []SearchMatch `json:"matches"`
	TotalCount int           `json:"total_count"`
	Truncated  bool          `json:"truncated"`
}

// lookPath is swapped in tests to force the grep fallback.
var lookPath = exec.LookPath

func (t *SearchCodebaseTool) Execute(ctx context.Context, params map[string]any) ToolResult {
	start := time.Now()

	pattern := GetString(params, "pattern", "")
	if pattern == "" {
		return NewErrorResult("pattern is required", time.Since(start))
	}

	searchPath, err := t.Workspace.Resolve(GetString(params, "path", "."))
	if err != nil {
		return NewErrorResult("invalid path: "+err.Error(), time.Since(start))
	}
	fixed := GetBool(params, "fixed", false)
	ignoreCase := GetBool(params, "ignore_case", false)
	maxResults := GetInt(params, "max_results", 50)
	fileTypes := GetStringSlice(params, "file_types")

	var matches []SearchMatch
	if _, err := lookPath("rg"); err == nil {
		matches = runRipgrep(ctx, pattern, searchPath, fixed, ignoreCase, maxResults, fileTypes)
	} else {
		matches = runGrep(ctx, pattern, searchPath, fixed, ignoreCase)
	}

	truncated := false
	if len(matches) > maxResults {
		matches = matches[:maxResults]
		truncated = true
	}

	return NewResult(SearchResult{
		Pattern:    pattern,
		Path:       searchPath,
		Matches:    matches,
		TotalCount: len(matches),
		Truncated:  truncated,
	}, time.Since(start))
}

func runRipgrep(ctx context.Context, pattern, path string, fixed, ignoreCase bool, maxResults int, fileTypes []string) []SearchMatch {
	args := []string{"--json", "--max-count", strconv.Itoa(maxResults * 2)}
	if fixed {
		args = append(args, "-F")
	}
	if ignoreCase {
		args = append(args, "-i")
	}
	for _, ft := range fileTypes {
		args = append(args, "-t", ft)
	}
	args = append(args, "--", pattern, path)

	// rg exits 1 on no match; the output is still authoritative
	output, _ := exec.CommandContext(ctx, "rg", args...).Output()
	return parseRipgrepJSON(string(output))
}

func runGrep(ctx context.Context, pattern, path string, fixed, ignoreCase bool) []SearchMatch {
	args := []string{"-rnI"}
	if fixed {
		args = append(args, "-F")
	}
	if ignoreCase {
		args = append(args, "-i")
	}
	args = append(args, "--", pattern, path)

	output, _ := exec.CommandContext(ctx, "grep", args...).Output()
	return parseGrepOutput(string(output))
}

func parseGrepOutput(output string) []SearchMatch {
	var matches []SearchMatch
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ":", 3)
		if len(parts) < 3 {
			continue
		}
		lineNum, err := strconv.Atoi(parts[1])
		if err != nil {
			continue
		}
		matches = append(matches, SearchMatch{File: parts[0], Line: lineNum, Content: parts[2]})
	}
	return matches
}

func parseRipgrepJSON(output string) []SearchMatch {
	var matches []SearchMatch

	for _, line := range strings.Split(output, "\n") {
		if line == "" {
			continue
		}

		var msg struct {
			Type string `json:"type"`
			Data struct {
				Path struct {
					Text string `json:"text"`
				} `json:"path"`
				LineNumber int `json:"line_number"`
				Lines      struct {
					Text string `json:"text"`
				} `json:"lines"`
				Submatches []struct {
					Start int `json:"start"`
				} `json:"submatches"`
			} `json:"data"`
		}

		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			continue
		}
		if msg.Type != "match" {
			continue
		}

		match := SearchMatch{
			File:    msg.Data.Path.Text,
			Line:    msg.Data.LineNumber,
			Content: strings.TrimRight(msg.Data.Lines.Text, "\n"),
		}
		if len(msg.Data.Submatches) > 0 {
			match.Column = msg.Data.Submatches[0].Start + 1
		}
		matches = append(matches, match)
	}

	return matches
}

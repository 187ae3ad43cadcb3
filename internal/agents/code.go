package agents

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"debuggenie/internal/llm"
	"debuggenie/internal/models"
	"debuggenie/internal/tools"
)

const (
	maxFileRefs    = 3
	maxIdentifiers = 2
	snippetRadius  = 8
	maxSearchHits  = 5
)

var (
	pyFrameRe  = regexp.MustCompile(`File "([^"]+)", line (\d+)`)
	fileLineRe = regexp.MustCompile(`([A-Za-z0-9_./\\-]+\.[A-Za-z]{1,6}):(\d+)`)
	quotedRe   = regexp.MustCompile("['\"`]([A-Za-z_][A-Za-z0-9_.]{2,60})['\"`]")
)

const codeSystemPrompt = `You are an expert codebase analysis agent. Your goal is to analyze the provided error and codebase evidence to find the root cause. Always respond with valid JSON only.`

// FileRef is a source location mentioned in an error.
type FileRef struct {
	Path string
	Line int
}

// CodeAgent inspects the local workspace for code related to the error
// before asking the model for a root cause hypothesis.
type CodeAgent struct {
	base
	tools *tools.Registry
}

// NewCodeAgent returns a CodeAgent. A nil registry disables workspace
// inspection.
func NewCodeAgent(c Caller, reg *tools.Registry, logger *zap.Logger) *CodeAgent {
	return &CodeAgent{base: newBase(c, logger, RoleCode), tools: reg}
}

func (a *CodeAgent) Analyze(ctx context.Context, ec models.ErrorContext) (map[string]any, error) {
	evidence := a.gather(ctx, ec.ErrorText)
	return a.completeJSON(ctx, llm.Request{
		System: codeSystemPrompt,
		Prompt: codePrompt(ec, evidence),
	}, map[string]any{
		"similar_patterns":      []any{},
		"root_cause_hypothesis": "",
		"affected_files":        []any{},
		"dependency_chain":      []any{},
		"code_snippets":         []any{},
		"confidence_score":      0.0,
	})
}

// gather runs the workspace tools and renders their output for the prompt.
// Tool failures are skipped.
func (a *CodeAgent) gather(ctx context.Context, errText string) string {
	if a.tools == nil {
		return ""
	}
	var sb strings.Builder

	if res := a.tools.Execute(ctx, "list_dir", map[string]any{"path": "."}); res.Success {
		if listing, ok := res.Data.(tools.ListDirResult); ok {
			sb.WriteString("Project layout:\n")
			sb.WriteString(listing.Tree())
			sb.WriteString("\n")
		}
	}

	for _, ref := range FileRefs(errText) {
		res := a.tools.Execute(ctx, "read_file", map[string]any{
			"path":        ref.Path,
			"around_line": ref.Line,
			"radius":      snippetRadius,
		})
		if !res.Success {
			a.logger.Debug("skipping file reference", zap.String("path", ref.Path), zap.String("error", res.Error))
			continue
		}
		file, ok := res.Data.(tools.ReadFileResult)
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "%s (lines %d-%d):\n%s\n\n", ref.Path, file.StartLine, file.EndLine,
			llm.PrepareForLLM(numberLines(file.Content, file.StartLine), maxPromptInput))
	}

	for _, ident := range Identifiers(errText) {
		res := a.tools.Execute(ctx, "search_codebase", map[string]any{
			"pattern":     ident,
			"fixed":       true,
			"max_results": maxSearchHits,
		})
		if !res.Success {
			continue
		}
		found, ok := res.Data.(tools.SearchResult)
		if !ok || found.TotalCount == 0 {
			continue
		}
		fmt.Fprintf(&sb, "Occurrences of %q:\n", ident)
		for _, m := range found.Matches {
			fmt.Fprintf(&sb, "  %s:%d: %s\n", m.File, m.Line, llm.PrepareForLLM(m.Content, 200))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// FileRefs returns up to three distinct file:line locations in text, in
// order of appearance. URLs are ignored.
func FileRefs(text string) []FileRef {
	var refs []FileRef
	seen := make(map[FileRef]bool)
	add := func(path, line string) {
		n, err := strconv.Atoi(line)
		if err != nil || n <= 0 || strings.HasPrefix(path, "//") || len(refs) >= maxFileRefs {
			return
		}
		ref := FileRef{Path: path, Line: n}
		if !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}

	for _, m := range pyFrameRe.FindAllStringSubmatch(text, -1) {
		add(m[1], m[2])
	}
	for _, m := range fileLineRe.FindAllStringSubmatchIndex(text, -1) {
		// skip scheme://host:port
		if start := m[2]; start >= 1 && text[start-1] == ':' {
			continue
		}
		add(text[m[2]:m[3]], text[m[4]:m[5]])
	}
	return refs
}

// Identifiers returns up to two distinct quoted names from text that look
// like code identifiers rather than file names.
func Identifiers(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range quotedRe.FindAllStringSubmatch(text, -1) {
		id := m[1]
		if seen[id] || strings.Contains(id, "/") || fileLineRe.MatchString(id+":1") {
			continue
		}
		seen[id] = true
		out = append(out, id)
		if len(out) == maxIdentifiers {
			break
		}
	}
	return out
}

func numberLines(content string, first int) string {
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		lines[i] = fmt.Sprintf("%5d  %s", first+i, l)
	}
	return strings.Join(lines, "\n")
}

func codePrompt(ec models.ErrorContext, evidence string) string {
	var sb strings.Builder
	sb.WriteString("Error Information:\n")
	sb.WriteString(errorBlock(ec))
	sb.WriteString("\n\n")

	if code := llm.PrepareForLLM(ec.CodeContext, maxPromptInput); code != "" {
		sb.WriteString("Code provided by the user:\n")
		sb.WriteString(code)
		sb.WriteString("\n\n")
	}
	if evidence != "" {
		sb.WriteString("Workspace evidence:\n")
		sb.WriteString(evidence)
	}

	sb.WriteString(`Task:
1. Search the evidence for the error message or relevant code patterns.
2. Trace the execution flow and dependencies.
3. Formulate a hypothesis about the root cause.

Output your analysis as a valid JSON object matching this structure:
{
  "similar_patterns": [{"pattern": "string", "location": "string"}],
  "root_cause_hypothesis": "string",
  "affected_files": ["string"],
  "dependency_chain": ["string"],
  "code_snippets": [{"file": "string", "code": "string"}],
  "confidence_score": 0.0
}`)
	return sb.String()
}

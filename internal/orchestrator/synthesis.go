package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"debuggenie/internal/envelope"
	"debuggenie/internal/llm"
	"debuggenie/internal/models"
)

// Fallback report fields used when synthesis fails.
const (
	FallbackRootCause       = "Synthesis failed. Please review individual agent outputs."
	FallbackFixInstructions = "Check agent logs."
)

// Report is the decoded synthesis output.
type Report struct {
	RootCause       string
	Solutions       []map[string]any
	FixInstructions string
	ConfidenceScore float64
}

func fallbackReport() Report {
	return Report{
		RootCause:       FallbackRootCause,
		Solutions:       []map[string]any{},
		FixInstructions: FallbackFixInstructions,
		ConfidenceScore: 0.0,
	}
}

func (o *Orchestrator) synthesize(ctx context.Context, parsed ParsedError, f Findings, log *zap.Logger) Report {
	if o.agents.Synthesis == nil {
		log.Warn("no synthesizer configured")
		return fallbackReport()
	}
	prompt, err := BuildSynthesisPrompt(parsed, f)
	if err != nil {
		log.Warn("synthesis prompt failed", zap.Error(err))
		return fallbackReport()
	}

	res := envelope.Invoke(ctx, func(ctx context.Context) (string, error) {
		return o.agents.Synthesis.Synthesize(ctx, prompt)
	})
	text, ok := res.Payload()
	if !ok {
		log.Warn("synthesis failed", zap.String("error", res.Message()))
		return fallbackReport()
	}

	report, err := ParseReport(text)
	if err != nil {
		fields := []zap.Field{zap.Error(err)}
		var decodeErr *llm.DecodeError
		if errors.As(err, &decodeErr) {
			fields = append(fields, zap.String("raw", llm.Truncate(decodeErr.Raw, 500)))
		}
		log.Warn("synthesis reply unusable", fields...)
		return fallbackReport()
	}
	return report
}

// BuildSynthesisPrompt embeds every envelope, including skipped and failed
// ones, so the synthesizer can account for gaps.
func BuildSynthesisPrompt(parsed ParsedError, f Findings) (string, error) {
	visual, err := json.MarshalIndent(f.VisualAnalysis, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode visual findings: %w", err)
	}
	code, err := json.MarshalIndent(f.CodebaseAnalysis, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode codebase findings: %w", err)
	}
	web, err := json.MarshalIndent(f.WebResearch, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode web findings: %w", err)
	}

	return fmt.Sprintf(`You are the Lead Debugging Architect. Your goal is to synthesize findings from three specialized agents into a coherent debugging report.

--- ERROR ---
%s

--- AGENT FINDINGS ---

1. VISUAL ANALYSIS:
%s

2. CODEBASE ANALYSIS:
%s

3. WEB RESEARCH:
%s

Findings marked [skipped] or [failed] are unavailable; do not invent them.

--- INSTRUCTIONS ---

Based on the above, provide a final report containing:
1. ROOT CAUSE: A definitive explanation of why the error occurred. Resolve any contradictions between agents.
2. SOLUTIONS: Up to 5 candidate solutions. For each, provide a title, description, steps, code changes, a confidence between 0.0 and 1.0, and the votes, date and sources reported by web research when they apply.
3. FIX INSTRUCTIONS: Step-by-step instructions to apply the best solution.
4. CONFIDENCE: An overall confidence score (0.0 to 1.0).

Output strictly as valid JSON matching this structure:
{
  "root_cause": "string",
  "solutions": [
    {
      "title": "string",
      "description": "string",
      "steps": ["string"],
      "code_changes": [{"file": "string", "code": "string"}],
      "confidence": 0.0,
      "votes": 0,
      "date": "YYYY",
      "sources": ["string"]
    }
  ],
  "fix_instructions": "string",
  "confidence_score": 0.0
}`, llm.PrepareForLLM(parsed.Summary, 0), visual, code, web), nil
}

// ParseReport decodes a synthesis reply. Absent fields take defaults and
// non-object solution entries are dropped.
func ParseReport(text string) (Report, error) {
	m, err := llm.ExtractJSON(text)
	if err != nil {
		return Report{}, err
	}

	r := Report{
		RootCause:       "Unknown",
		Solutions:       []map[string]any{},
		FixInstructions: "",
	}
	if s, ok := m["root_cause"].(string); ok && s != "" {
		r.RootCause = s
	}
	if s, ok := m["fix_instructions"].(string); ok {
		r.FixInstructions = s
	}
	if v, ok := m["confidence_score"].(float64); ok {
		r.ConfidenceScore = models.Clamp01(v)
	}
	if list, ok := m["solutions"].([]any); ok {
		for _, item := range list {
			if sol, ok := item.(map[string]any); ok {
				r.Solutions = append(r.Solutions, sol)
			}
		}
	}
	return r, nil
}

package agents

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"debuggenie/internal/llm"
	"debuggenie/internal/models"
)

const webSystemPrompt = `You are a web research agent for debugging. You know public issue trackers, Stack Overflow answers, release notes and official documentation. Always respond with valid JSON only.`

// WebAgent researches known fixes for an error.
type WebAgent struct {
	base
}

func NewWebAgent(c Caller, logger *zap.Logger) *WebAgent {
	return &WebAgent{base: newBase(c, logger, RoleWeb)}
}

func (a *WebAgent) Analyze(ctx context.Context, ec models.ErrorContext) (map[string]any, error) {
	a.logger.Debug("researching error")
	return a.completeJSON(ctx, llm.Request{
		System: webSystemPrompt,
		Prompt: webPrompt(ec),
	}, map[string]any{
		"summary":    "",
		"solutions":  []any{},
		"references": []any{},
	})
}

func webPrompt(ec models.ErrorContext) string {
	return fmt.Sprintf(`Search for known causes and fixes of this error.

Error (captured in: %s):
%s

Prefer widely confirmed answers, and report how many people confirmed each
fix (upvotes, reactions) as votes and the year it was published as date.

Return a JSON object matching this exact structure:
{
  "summary": "string",
  "solutions": [
    {
      "title": "string",
      "description": "string",
      "steps": ["string"],
      "votes": 0,
      "date": "YYYY",
      "sources": ["url"]
    }
  ],
  "references": ["url"]
}`, ec.ContextKind(), errorBlock(ec))
}

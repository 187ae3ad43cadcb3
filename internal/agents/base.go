// Package agents implements the analysis engines that examine an error from
// one angle each (web knowledge, the local codebase, a screenshot) and the
// synthesis role that merges their findings.
package agents

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"debuggenie/internal/llm"
	"debuggenie/internal/models"
)

// Role names. They key envelopes in the synthesis prompt and agent metrics
// in a DebugResult.
const (
	RoleWeb       = "web_research"
	RoleCode      = "codebase_analysis"
	RoleVisual    = "visual_analysis"
	RoleSynthesis = "synthesis"
)

// maxPromptInput bounds user-supplied text embedded in a prompt.
const maxPromptInput = 6000

// ErrNoImage is returned by the visual agent when the context has no image.
var ErrNoImage = errors.New("no image provided in context")

// Caller is the model access an agent needs. *llm.Caller satisfies it.
type Caller interface {
	Call(ctx context.Context, req llm.Request) (string, error)
	Metrics() *llm.Metrics
}

type base struct {
	caller Caller
	logger *zap.Logger
}

func newBase(c Caller, logger *zap.Logger, role string) base {
	if logger == nil {
		logger = zap.NewNop()
	}
	return base{caller: c, logger: logger.With(zap.String("agent", role))}
}

// Metrics returns the agent's cumulative model usage.
func (b base) Metrics() map[string]float64 {
	return b.caller.Metrics().Snapshot()
}

// completeJSON sends req and decodes the fenced-JSON reply, filling absent
// keys from defaults.
func (b base) completeJSON(ctx context.Context, req llm.Request, defaults map[string]any) (map[string]any, error) {
	req.JSON = true
	out, err := b.caller.Call(ctx, req)
	if err != nil {
		return nil, err
	}
	m, err := llm.ExtractJSON(out)
	if err != nil {
		b.logger.Debug("reply was not JSON", zap.Error(err))
		return nil, err
	}
	return withDefaults(m, defaults), nil
}

func withDefaults(m, defaults map[string]any) map[string]any {
	for k, v := range defaults {
		if _, ok := m[k]; !ok {
			m[k] = v
		}
	}
	if v, ok := m["confidence_score"].(float64); ok {
		m["confidence_score"] = models.Clamp01(v)
	}
	return m
}

// errorBlock renders the sanitized error text for a prompt.
func errorBlock(ec models.ErrorContext) string {
	text := llm.PrepareForLLM(ec.ErrorText, maxPromptInput)
	if text == "" {
		return "No error text provided"
	}
	return text
}

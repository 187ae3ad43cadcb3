package agents

import (
	"context"

	"go.uber.org/zap"

	"debuggenie/internal/llm"
)

const synthesisSystemPrompt = `You are the lead debugging architect. You reconcile findings from specialist agents into one report. Always respond with valid JSON only.`

// Synthesizer merges agent findings into a final report. It is a separate
// role from the analysis agents even when it shares their model.
type Synthesizer struct {
	caller Caller
	logger *zap.Logger
}

func NewSynthesizer(c Caller, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{caller: c, logger: logger.With(zap.String("agent", RoleSynthesis))}
}

// Synthesize returns the raw model reply to prompt.
func (s *Synthesizer) Synthesize(ctx context.Context, prompt string) (string, error) {
	s.logger.Debug("synthesizing", zap.Int("prompt_bytes", len(prompt)))
	return s.caller.Call(ctx, llm.Request{
		System: synthesisSystemPrompt,
		Prompt: prompt,
		JSON:   true,
	})
}

func (s *Synthesizer) Metrics() map[string]float64 {
	return s.caller.Metrics().Snapshot()
}

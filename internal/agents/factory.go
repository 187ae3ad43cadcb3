package agents

import (
	"go.uber.org/zap"

	"debuggenie/internal/config"
	"debuggenie/internal/llm"
	"debuggenie/internal/tools"
)

// Set is the full team of agents for one process.
type Set struct {
	Web       *WebAgent
	Code      *CodeAgent
	Visual    *VisualAgent
	Synthesis *Synthesizer
}

// NewSet wires every agent to its model from cfg. Web research goes to
// Perplexity when it is configured and falls back to the local code model.
// Each agent gets its own cache, rate limiter and metrics. root is the
// workspace the code agent inspects.
func NewSet(cfg *config.Config, root string, logger *zap.Logger) *Set {
	if logger == nil {
		logger = zap.NewNop()
	}

	caller := func(p llm.Provider) *llm.Caller {
		return llm.NewCaller(p, llm.CallerOptions{
			MinInterval: cfg.MinRequestInterval,
			MaxAttempts: cfg.MaxAttempts,
			Cache:       llm.NewResponseCache(cfg.CacheSize, cfg.CacheTTL),
			Logger:      logger,
		})
	}

	codeModel := llm.NewOllamaClient(cfg.OllamaURL, cfg.CodeModel, cfg.RequestTimeout)

	var research llm.Provider = codeModel
	if cfg.IsWebSearchEnabled() {
		if pplx := llm.NewPerplexityClient(cfg.PerplexityKey, cfg.PerplexityModel, cfg.RequestTimeout); pplx != nil {
			research = llm.NewFallback(pplx, codeModel, logger)
		}
	}

	return &Set{
		Web:       NewWebAgent(caller(research), logger),
		Code:      NewCodeAgent(caller(codeModel), tools.DefaultRegistry(tools.Workspace{Root: root}), logger),
		Visual:    NewVisualAgent(caller(llm.NewOllamaClient(cfg.OllamaURL, cfg.VisionModel, cfg.RequestTimeout)), logger),
		Synthesis: NewSynthesizer(caller(llm.NewOllamaClient(cfg.OllamaURL, cfg.SynthesisModel, cfg.RequestTimeout)), logger),
	}
}

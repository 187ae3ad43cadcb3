// Package orchestrator runs one debug analysis end to end: it fans the error
// out to the analysis agents, waits for all of them, has the findings
// synthesized into a report and ranks the proposed solutions.
package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"debuggenie/internal/agents"
	"debuggenie/internal/envelope"
	"debuggenie/internal/models"
	"debuggenie/internal/pipeline"
	"debuggenie/internal/ranker"
)

const summaryLen = 200

// Analyzer examines an error from one angle. Analyze may block and may
// fail; Metrics must not block.
type Analyzer interface {
	Analyze(ctx context.Context, ec models.ErrorContext) (map[string]any, error)
	Metrics() map[string]float64
}

// Synthesizer turns a findings prompt into a fenced-JSON report.
type Synthesizer interface {
	Synthesize(ctx context.Context, prompt string) (string, error)
}

// metricsReporter is implemented by synthesizers that track usage.
type metricsReporter interface {
	Metrics() map[string]float64
}

// Agents are the collaborators of a run. A nil analyzer is reported as
// skipped.
type Agents struct {
	Web       Analyzer
	Code      Analyzer
	Visual    Analyzer
	Synthesis Synthesizer
}

// Findings holds one envelope per analysis role.
type Findings struct {
	WebResearch      envelope.Result[map[string]any] `json:"web_research"`
	CodebaseAnalysis envelope.Result[map[string]any] `json:"codebase_analysis"`
	VisualAnalysis   envelope.Result[map[string]any] `json:"visual_analysis"`
}

// ParsedError is the normalized error text of a run.
type ParsedError struct {
	RawText string
	Summary string
}

// ParseError keeps the raw text and a short summary of it.
func ParseError(raw string) ParsedError {
	summary := "No error text provided"
	if raw != "" {
		summary = raw
		if r := []rune(raw); len(r) > summaryLen {
			summary = string(r[:summaryLen])
		}
	}
	return ParsedError{RawText: raw, Summary: summary}
}

type Orchestrator struct {
	agents Agents
	ranker ranker.Ranker
	bus    *pipeline.EventBus
	logger *zap.Logger
}

type Option func(*Orchestrator)

// WithEventBus publishes run progress on bus.
func WithEventBus(bus *pipeline.EventBus) Option {
	return func(o *Orchestrator) { o.bus = bus }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRanker overrides the solution ranker, e.g. to pin the recency year.
func WithRanker(r ranker.Ranker) Option {
	return func(o *Orchestrator) { o.ranker = r }
}

func New(a Agents, opts ...Option) *Orchestrator {
	o := &Orchestrator{agents: a, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Debug runs a full analysis of ec. It always returns a result: agent
// failures reach the synthesis prompt as failed findings, and a failed or
// unparseable synthesis yields a zero-confidence report. Cancelling ctx
// cancels the agents and degrades the report the same way.
func (o *Orchestrator) Debug(ctx context.Context, ec models.ErrorContext) models.DebugResult {
	start := time.Now()
	runID := uuid.NewString()
	log := o.logger.With(zap.String("run_id", runID))

	parsed := ParseError(ec.ErrorText)
	log.Info("debug run started",
		zap.String("summary", parsed.Summary),
		zap.Bool("has_image", ec.HasImage()),
		zap.String("type", string(ec.ContextKind())))
	o.publish(pipeline.Event{Type: pipeline.EventRunStarted, RunID: runID, Data: parsed.Summary})

	findings := o.dispatch(ctx, runID, ec, log)

	o.publish(pipeline.Event{Type: pipeline.EventSynthesisStarted, RunID: runID})
	report := o.synthesize(ctx, parsed, findings, log)

	result := models.DebugResult{
		RunID:           runID,
		RootCause:       report.RootCause,
		Solutions:       o.ranker.RankAndFilter(report.Solutions),
		FixInstructions: report.FixInstructions,
		ConfidenceScore: report.ConfidenceScore,
		AgentMetrics:    o.metrics(log),
	}
	elapsed := time.Since(start)
	result.ExecutionTime = elapsed.Seconds()

	log.Info("debug run completed",
		zap.Duration("elapsed", elapsed),
		zap.Int("solutions", len(result.Solutions)),
		zap.Float64("confidence", result.ConfidenceScore))
	o.publish(pipeline.Event{
		Type:  pipeline.EventRunCompleted,
		RunID: runID,
		Data: pipeline.RunCompletedData{
			Solutions:  len(result.Solutions),
			Confidence: result.ConfidenceScore,
			Elapsed:    elapsed,
		},
	})
	return result
}

// dispatch runs the three roles concurrently and returns once all of them
// have finished.
func (o *Orchestrator) dispatch(ctx context.Context, runID string, ec models.ErrorContext, log *zap.Logger) Findings {
	var f Findings
	o.publish(pipeline.Event{Type: pipeline.EventAgentsDispatched, RunID: runID})

	// Tasks never return errors, so the group only provides the barrier.
	var g errgroup.Group
	g.Go(func() error {
		f.WebResearch = o.run(ctx, runID, agents.RoleWeb, o.agents.Web, ec, log)
		return nil
	})
	g.Go(func() error {
		f.CodebaseAnalysis = o.run(ctx, runID, agents.RoleCode, o.agents.Code, ec, log)
		return nil
	})
	g.Go(func() error {
		if !ec.HasImage() {
			f.VisualAnalysis = envelope.Skipped[map[string]any]("No image provided")
			o.finished(runID, agents.RoleVisual, f.VisualAnalysis.Status(), 0, log)
			return nil
		}
		f.VisualAnalysis = o.run(ctx, runID, agents.RoleVisual, o.agents.Visual, ec, log)
		return nil
	})
	_ = g.Wait()

	return f
}

func (o *Orchestrator) run(ctx context.Context, runID, role string, a Analyzer, ec models.ErrorContext, log *zap.Logger) envelope.Result[map[string]any] {
	if a == nil {
		res := envelope.Skipped[map[string]any]("No analyzer configured")
		o.finished(runID, role, res.Status(), 0, log)
		return res
	}
	start := time.Now()
	res := envelope.Invoke(ctx, func(ctx context.Context) (map[string]any, error) {
		return a.Analyze(ctx, ec)
	})
	o.finished(runID, role, res.Status(), time.Since(start), log)
	if res.IsFailed() {
		log.Warn("agent failed", zap.String("agent", role), zap.String("error", res.Message()))
	}
	return res
}

func (o *Orchestrator) finished(runID, role string, status envelope.Status, elapsed time.Duration, log *zap.Logger) {
	log.Debug("agent finished",
		zap.String("agent", role),
		zap.String("status", string(status)),
		zap.Duration("elapsed", elapsed))
	o.publish(pipeline.Event{
		Type:   pipeline.EventAgentFinished,
		RunID:  runID,
		Source: role,
		Data:   pipeline.AgentFinishedData{Agent: role, Status: string(status), Elapsed: elapsed},
	})
}

// metrics snapshots each collaborator's counters after the run. A
// collaborator whose snapshot fails or panics is left out.
func (o *Orchestrator) metrics(log *zap.Logger) map[string]map[string]float64 {
	out := make(map[string]map[string]float64)
	collect := func(role string, snapshot func() map[string]float64) {
		res := envelope.Invoke(context.Background(), func(context.Context) (map[string]float64, error) {
			return snapshot(), nil
		})
		if m, ok := res.Payload(); ok {
			out[role] = m
			return
		}
		log.Warn("metrics snapshot failed", zap.String("agent", role), zap.String("error", res.Message()))
	}

	for _, role := range []string{agents.RoleWeb, agents.RoleCode, agents.RoleVisual} {
		if a := o.analyzer(role); a != nil {
			collect(role, a.Metrics)
		}
	}
	if m, ok := o.agents.Synthesis.(metricsReporter); ok {
		collect(agents.RoleSynthesis, m.Metrics)
	}
	return out
}

func (o *Orchestrator) analyzer(role string) Analyzer {
	switch role {
	case agents.RoleWeb:
		return o.agents.Web
	case agents.RoleCode:
		return o.agents.Code
	case agents.RoleVisual:
		return o.agents.Visual
	}
	return nil
}

func (o *Orchestrator) publish(e pipeline.Event) {
	if o.bus != nil {
		o.bus.Publish(e)
	}
}

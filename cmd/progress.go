package cmd

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"debuggenie/internal/pipeline"
)

// progress drives a spinner from orchestrator events.
type progress struct {
	mu       sync.Mutex
	s        *spinner.Spinner
	finished int
	stopped  bool
}

func newProgress(w io.Writer) *progress {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " Starting analysis..."
	return &progress{s: s}
}

// Attach subscribes to bus and starts the spinner. Handlers run on agent
// goroutines.
func (p *progress) Attach(bus *pipeline.EventBus) {
	bus.SubscribeAll(p.handle)
	p.s.Start()
}

func (p *progress) handle(e pipeline.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}

	switch e.Type {
	case pipeline.EventAgentsDispatched:
		p.setSuffix(" Agents researching (0/3)...")
	case pipeline.EventAgentFinished:
		p.finished++
		d, _ := e.Data.(pipeline.AgentFinishedData)
		p.setSuffix(fmt.Sprintf(" Agents researching (%d/3), %s %s...", p.finished, d.Agent, d.Status))
	case pipeline.EventSynthesisStarted:
		p.setSuffix(" Synthesizing findings...")
	case pipeline.EventRunCompleted:
		p.s.Stop()
		p.stopped = true
	}
}

func (p *progress) setSuffix(s string) {
	p.s.Lock()
	p.s.Suffix = s
	p.s.Unlock()
}

func (p *progress) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.stopped {
		p.s.Stop()
		p.stopped = true
	}
}

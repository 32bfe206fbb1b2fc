package analysis

import (
	"fmt"
	"sync"

	"github.com/zeu5/trafficcontrol/core"
	"github.com/zeu5/trafficcontrol/util"
)

type agentProgress struct {
	output  *util.ParallelOutput
	runs    int
	episode int
	steps   int
	reward  float64
	last    float64
	done    bool
}

func (a *agentProgress) String(name string) string {
	status := "running"
	if a.done {
		status = "done"
	}
	return fmt.Sprintf("%s: episode %d/%d, steps: %d, reward: %.2f, last episode reward: %.2f (%s)",
		name, a.episode, a.runs, a.steps, a.reward, a.last, status)
}

// ProgressObserver keeps one live status line per agent on a terminal
// printer
type ProgressObserver struct {
	printer *util.TerminalPrinter
	mtx     *sync.Mutex
	agents  map[string]*agentProgress
}

var _ core.Observer = &ProgressObserver{}

func NewProgressObserver(printer *util.TerminalPrinter) *ProgressObserver {
	return &ProgressObserver{
		printer: printer,
		mtx:     new(sync.Mutex),
		agents:  make(map[string]*agentProgress),
	}
}

func (p *ProgressObserver) AgentStarted(name string, runs int) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	a := &agentProgress{output: p.printer.NewOutput(), runs: runs}
	p.agents[name] = a
	a.output.Set(a.String(name))
}

func (p *ProgressObserver) get(name string) *agentProgress {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.agents[name]
}

// StepTaken skips the update when the printer holds the line
func (p *ProgressObserver) StepTaken(name string, reward float64) {
	a := p.get(name)
	if a == nil {
		return
	}
	a.steps++
	a.reward += reward
	a.output.TrySet(a.String(name))
}

func (p *ProgressObserver) EpisodeFinished(r *core.EpisodeResult) {
	a := p.get(r.Agent)
	if a == nil {
		return
	}
	a.episode = r.Episode + 1
	a.steps = 0
	a.reward = 0
	a.last = r.Reward
	a.output.Set(a.String(r.Agent))
}

func (p *ProgressObserver) AgentFinished(name string) {
	a := p.get(name)
	if a == nil {
		return
	}
	a.done = true
	a.output.Set(a.String(name))
}

// Line returns the current status line of an agent
func (p *ProgressObserver) Line(name string) string {
	a := p.get(name)
	if a == nil {
		return ""
	}
	return a.output.Get()
}

package agents

import (
	"context"

	"github.com/zeu5/trafficcontrol/config"
	"github.com/zeu5/trafficcontrol/core"
)

// FixedCycle leaves the signal to its fixed timing program and only
// advances the simulation clock. It has nothing to learn or persist.
type FixedCycle struct {
	base
}

var _ core.Agent = &FixedCycle{}

func NewFixedCycle(inst *config.Instance, env core.Environment, opts *Options) *FixedCycle {
	return &FixedCycle{base: newBase(inst, env, opts)}
}

func (f *FixedCycle) Init() error {
	return nil
}

func (f *FixedCycle) Run(ctx context.Context, learn bool, outPath string) (string, error) {
	return f.run(ctx, learn, outPath, f.episode)
}

func (f *FixedCycle) episode(_ int) (*episodeStats, error) {
	stats := &episodeStats{}
	if _, err := f.env.Reset(); err != nil {
		return nil, err
	}
	for {
		step, err := f.step()
		if err != nil {
			return nil, err
		}
		f.record(stats, step)
		if step.Done() {
			return stats, nil
		}
	}
}

// step runs the clock for one control interval and samples the result
func (f *FixedCycle) step() (core.Step, error) {
	for i := 0; i < f.env.DeltaTime(); i++ {
		if err := f.env.SimStep(); err != nil {
			return core.Step{}, err
		}
	}
	return f.env.Sample()
}

func (f *FixedCycle) Save(_ string) error {
	return nil
}

func (f *FixedCycle) Load(_ string, _ core.Environment) error {
	return nil
}

package agents

import (
	"fmt"

	"github.com/zeu5/trafficcontrol/config"
	"github.com/zeu5/trafficcontrol/core"
)

// EnvBuilder produces fresh, exclusively owned environment handles
type EnvBuilder interface {
	Build(fixed bool) (core.Environment, error)
}

// Factory builds the agents of an experiment's Instances section
type Factory struct {
	settings *config.AgentSettings
	builder  EnvBuilder
	opts     *Options
}

var _ core.AgentFactory = &Factory{}

func NewFactory(settings *config.AgentSettings, builder EnvBuilder, opts *Options) *Factory {
	opts = opts.withDefaults()
	if opts.Seed == 0 {
		opts.Seed = settings.Environment.Seed
	}
	return &Factory{
		settings: settings,
		builder:  builder,
		opts:     opts,
	}
}

func (f *Factory) Instances() []string {
	return f.settings.Names()
}

// NewAgent validates the instance before building any environment. FIXED
// agents get a fixed-timing handle. An instance with a Model is built
// unbound and loaded into a fresh handle.
func (f *Factory) NewAgent(name string) (core.Agent, error) {
	inst, ok := f.settings.Instance(name)
	if !ok {
		return nil, fmt.Errorf("%w: no instance %s", config.ErrInvalid, name)
	}
	if err := inst.Validate(); err != nil {
		return nil, err
	}

	if inst.AgentType == config.TypeFixed {
		env, err := f.builder.Build(true)
		if err != nil {
			return nil, err
		}
		return NewFixedCycle(inst, env, f.opts), nil
	}

	var agent core.Agent
	if inst.Model != "" {
		switch inst.AgentType {
		case config.TypeQL:
			agent = NewQLearning(inst, nil, f.opts)
		case config.TypeSarsa:
			agent = NewSarsa(inst, nil, f.opts)
		}
		env, err := f.builder.Build(false)
		if err != nil {
			return nil, err
		}
		if err := agent.Load(inst.Model, env); err != nil {
			env.Close()
			return nil, fmt.Errorf("loading model %s: %w", inst.Model, err)
		}
		return agent, nil
	}

	env, err := f.builder.Build(false)
	if err != nil {
		return nil, err
	}
	switch inst.AgentType {
	case config.TypeQL:
		agent = NewQLearning(inst, env, f.opts)
	case config.TypeSarsa:
		agent = NewSarsa(inst, env, f.opts)
	}
	return agent, nil
}

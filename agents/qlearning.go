package agents

import (
	"context"
	"fmt"

	"github.com/zeu5/trafficcontrol/config"
	"github.com/zeu5/trafficcontrol/core"
	"github.com/zeu5/trafficcontrol/policies"
	"github.com/zeu5/trafficcontrol/util"
)

// QLearning wraps a tabular Q-learner indexed by the environment's
// encoding of observations
type QLearning struct {
	base
	learner *policies.QLearner
}

var _ core.Agent = &QLearning{}

func NewQLearning(inst *config.Instance, env core.Environment, opts *Options) *QLearning {
	return &QLearning{base: newBase(inst, env, opts)}
}

// Init resets the environment to find the starting state
func (q *QLearning) Init() error {
	if q.learner != nil {
		return nil
	}
	if err := q.config.Validate(); err != nil {
		return err
	}
	if q.env == nil {
		return ErrUnbound
	}
	actions := q.env.ActionSpace()
	if actions.Kind != core.DiscreteSpace {
		return fmt.Errorf("QL needs a discrete action space, got %s", actions)
	}
	obs, err := q.env.Reset()
	if err != nil {
		return err
	}
	exploration := policies.NewEpsilonGreedy(*q.config.InitEpsilon, *q.config.MinEpsilon, *q.config.Decay, q.seed)
	q.learner = policies.NewQLearner(q.env.Encode(obs), actions.N, *q.config.Alpha, *q.config.Gamma, exploration)
	return nil
}

func (q *QLearning) Run(ctx context.Context, learn bool, outPath string) (string, error) {
	if err := q.Init(); err != nil {
		return "", err
	}
	return q.run(ctx, learn, outPath, func(_ int) (*episodeStats, error) {
		return q.episode(learn)
	})
}

func (q *QLearning) episode(learn bool) (*episodeStats, error) {
	stats := &episodeStats{}
	obs, err := q.env.Reset()
	if err != nil {
		return nil, err
	}
	q.learner.SetState(q.env.Encode(obs))
	for {
		step, err := q.env.Step(q.learner.Act())
		if err != nil {
			return nil, err
		}
		next := q.env.Encode(step.Observation)
		if learn {
			q.learner.Learn(next, step.Reward)
		} else {
			q.learner.SetState(next)
		}
		q.record(stats, step)
		if step.Done() {
			return stats, nil
		}
	}
}

// Learner is nil until Init or Load
func (q *QLearning) Learner() *policies.QLearner {
	return q.learner
}

func (q *QLearning) Save(path string) error {
	if err := q.Init(); err != nil {
		return err
	}
	e := q.learner.Exploration
	return util.SaveJson(path, &QLModel{
		ModelHeader: ModelHeader{Version: ModelVersion, AgentType: config.TypeQL},
		Alpha:       q.learner.Alpha,
		Gamma:       q.learner.Gamma,
		Exploration: ExplorationModel{
			InitialEpsilon: e.InitialEpsilon,
			MinEpsilon:     e.MinEpsilon,
			Decay:          e.Decay,
			Epsilon:        e.Epsilon,
		},
		Actions: q.learner.Table.Actions(),
		QTable:  q.learner.Table.Snapshot(),
	})
}

// Load rebuilds the learner from a persisted model against env. The table
// is restored verbatim and must match env's action count.
func (q *QLearning) Load(path string, env core.Environment) error {
	m, err := readQLModel(path)
	if err != nil {
		return err
	}
	actions := env.ActionSpace()
	if actions.Kind != core.DiscreteSpace || actions.N != m.Actions {
		return fmt.Errorf("%s: model has %d actions, environment %s: %w", path, m.Actions, actions, ErrIncompatibleModel)
	}
	obs, err := env.Reset()
	if err != nil {
		return err
	}
	exploration := policies.NewEpsilonGreedy(m.Exploration.InitialEpsilon, m.Exploration.MinEpsilon, m.Exploration.Decay, q.seed)
	exploration.Epsilon = m.Exploration.Epsilon
	learner := policies.NewQLearner(env.Encode(obs), m.Actions, m.Alpha, m.Gamma, exploration)
	if err := learner.Table.Restore(m.QTable); err != nil {
		return fmt.Errorf("%s: %v: %w", path, err, ErrIncompatibleModel)
	}
	q.rebind(env)
	q.learner = learner
	return nil
}

package agents

import (
	"context"
	"fmt"

	"github.com/zeu5/trafficcontrol/config"
	"github.com/zeu5/trafficcontrol/core"
	"github.com/zeu5/trafficcontrol/policies"
	"github.com/zeu5/trafficcontrol/util"
)

// DefaultMaxNonZero bounds the non-zero entries of each Fourier coefficient
// vector when the instance does not set Max_non_zero
const DefaultMaxNonZero = 2

// Sarsa wraps true online Sarsa(lambda) over raw observations
type Sarsa struct {
	base
	learner *policies.TrueOnlineSarsa
}

var _ core.Agent = &Sarsa{}

func NewSarsa(inst *config.Instance, env core.Environment, opts *Options) *Sarsa {
	return &Sarsa{base: newBase(inst, env, opts)}
}

func (s *Sarsa) Init() error {
	if s.learner != nil {
		return nil
	}
	if err := s.config.Validate(); err != nil {
		return err
	}
	if s.env == nil {
		return ErrUnbound
	}
	learner, err := s.newLearner(s.env, policies.SarsaParams{
		Alpha:        *s.config.Alpha,
		Gamma:        *s.config.Gamma,
		Epsilon:      *s.config.Epsilon,
		Lambda:       *s.config.Lambda,
		FourierOrder: *s.config.FourierOrder,
		MaxNonZero:   s.config.MaxNonZeroOr(DefaultMaxNonZero),
		Seed:         s.seed,
	})
	if err != nil {
		return err
	}
	s.learner = learner
	return nil
}

func (s *Sarsa) newLearner(env core.Environment, params policies.SarsaParams) (*policies.TrueOnlineSarsa, error) {
	obs, actions := env.ObservationSpace(), env.ActionSpace()
	if obs.Kind != core.BoxSpace || actions.Kind != core.DiscreteSpace {
		return nil, fmt.Errorf("SARSA needs a box observation space and discrete actions, got %s and %s", obs, actions)
	}
	return policies.NewTrueOnlineSarsa(obs.Low, obs.High, actions.N, params)
}

func (s *Sarsa) Run(ctx context.Context, learn bool, outPath string) (string, error) {
	if err := s.Init(); err != nil {
		return "", err
	}
	return s.run(ctx, learn, outPath, func(_ int) (*episodeStats, error) {
		return s.episode(learn)
	})
}

func (s *Sarsa) episode(learn bool) (*episodeStats, error) {
	stats := &episodeStats{}
	obs, err := s.env.Reset()
	if err != nil {
		return nil, err
	}
	s.learner.ResetTraces()
	for {
		action, err := s.learner.Act(obs)
		if err != nil {
			return nil, err
		}
		step, err := s.env.Step(action)
		if err != nil {
			return nil, err
		}
		if learn {
			if err := s.learner.Learn(obs, action, step.Reward, step.Observation, step.Terminated); err != nil {
				return nil, err
			}
		}
		obs = step.Observation
		s.record(stats, step)
		if step.Done() {
			return stats, nil
		}
	}
}

// Learner is nil until Init or Load
func (s *Sarsa) Learner() *policies.TrueOnlineSarsa {
	return s.learner
}

func (s *Sarsa) Save(path string) error {
	if err := s.Init(); err != nil {
		return err
	}
	l := s.learner
	return util.SaveJson(path, &SarsaModel{
		ModelHeader:  ModelHeader{Version: ModelVersion, AgentType: config.TypeSarsa},
		Alpha:        l.Alpha,
		Gamma:        l.Gamma,
		Epsilon:      l.Epsilon,
		Lambda:       l.Lambda,
		FourierOrder: l.FourierOrder,
		MaxNonZero:   l.MaxNonZero,
		StateDim:     l.Basis.StateDim(),
		Actions:      l.Actions(),
		Weights:      l.Weights(),
	})
}

// Load rebuilds the learner from persisted hyperparameters and weights
// against env's spaces
func (s *Sarsa) Load(path string, env core.Environment) error {
	m, err := readSarsaModel(path)
	if err != nil {
		return err
	}
	obs, actions := env.ObservationSpace(), env.ActionSpace()
	if obs.Dim() != m.StateDim || actions.N != m.Actions {
		return fmt.Errorf("%s: model for %d state dims and %d actions, environment %s and %s: %w",
			path, m.StateDim, m.Actions, obs, actions, ErrIncompatibleModel)
	}
	learner, err := s.newLearner(env, policies.SarsaParams{
		Alpha:        m.Alpha,
		Gamma:        m.Gamma,
		Epsilon:      m.Epsilon,
		Lambda:       m.Lambda,
		FourierOrder: m.FourierOrder,
		MaxNonZero:   m.MaxNonZero,
		Seed:         s.seed,
	})
	if err != nil {
		return err
	}
	if m.Weights != nil {
		if err := learner.SetWeights(m.Weights); err != nil {
			return fmt.Errorf("%s: %v: %w", path, err, ErrIncompatibleModel)
		}
	}
	s.rebind(env)
	s.learner = learner
	return nil
}

package agents

import (
	"fmt"

	"github.com/zeu5/trafficcontrol/config"
	"github.com/zeu5/trafficcontrol/util"
)

// ModelVersion is the persisted model schema version
const ModelVersion = 1

// ModelHeader is common to all persisted models
type ModelHeader struct {
	Version   int              `json:"version"`
	AgentType config.AgentType `json:"agent_type"`
}

func (h ModelHeader) check(path string, want config.AgentType) error {
	if h.Version != ModelVersion {
		return fmt.Errorf("%s: version %d, expected %d: %w", path, h.Version, ModelVersion, ErrIncompatibleModel)
	}
	if h.AgentType != want {
		return fmt.Errorf("%s: model of a %s agent, expected %s: %w", path, h.AgentType, want, ErrIncompatibleModel)
	}
	return nil
}

type ExplorationModel struct {
	InitialEpsilon float64 `json:"initial_epsilon"`
	MinEpsilon     float64 `json:"min_epsilon"`
	Decay          float64 `json:"decay"`
	// epsilon at save time
	Epsilon float64 `json:"epsilon"`
}

type QLModel struct {
	ModelHeader
	Alpha       float64              `json:"alpha"`
	Gamma       float64              `json:"gamma"`
	Exploration ExplorationModel     `json:"exploration"`
	Actions     int                  `json:"actions"`
	QTable      map[string][]float64 `json:"q_table"`
}

type SarsaModel struct {
	ModelHeader
	Alpha        float64     `json:"alpha"`
	Gamma        float64     `json:"gamma"`
	Epsilon      float64     `json:"epsilon"`
	Lambda       float64     `json:"lambda"`
	FourierOrder int         `json:"fourier_order"`
	MaxNonZero   int         `json:"max_non_zero"`
	StateDim     int         `json:"state_dim"`
	Actions      int         `json:"actions"`
	Weights      [][]float64 `json:"weights,omitempty"`
}

// ReadModelHeader reads only the common fields of a persisted model
func ReadModelHeader(path string) (*ModelHeader, error) {
	h := &ModelHeader{}
	if err := util.ReadJson(path, h); err != nil {
		return nil, err
	}
	return h, nil
}

func readQLModel(path string) (*QLModel, error) {
	m := &QLModel{}
	if err := util.ReadJson(path, m); err != nil {
		return nil, err
	}
	return m, m.check(path, config.TypeQL)
}

func readSarsaModel(path string) (*SarsaModel, error) {
	m := &SarsaModel{}
	if err := util.ReadJson(path, m); err != nil {
		return nil, err
	}
	return m, m.check(path, config.TypeSarsa)
}

// ModelSummary describes a persisted model without rebuilding its agent
type ModelSummary struct {
	ModelHeader
	Hyperparameters map[string]float64
	Actions         int
	// QL: visited states, SARSA: basis functions per action
	Size int
}

func InspectModel(path string) (*ModelSummary, error) {
	h, err := ReadModelHeader(path)
	if err != nil {
		return nil, err
	}
	switch h.AgentType {
	case config.TypeQL:
		m, err := readQLModel(path)
		if err != nil {
			return nil, err
		}
		return &ModelSummary{
			ModelHeader: m.ModelHeader,
			Hyperparameters: map[string]float64{
				"alpha":           m.Alpha,
				"gamma":           m.Gamma,
				"initial_epsilon": m.Exploration.InitialEpsilon,
				"min_epsilon":     m.Exploration.MinEpsilon,
				"decay":           m.Exploration.Decay,
				"epsilon":         m.Exploration.Epsilon,
			},
			Actions: m.Actions,
			Size:    len(m.QTable),
		}, nil
	case config.TypeSarsa:
		m, err := readSarsaModel(path)
		if err != nil {
			return nil, err
		}
		size := 0
		if len(m.Weights) > 0 {
			size = len(m.Weights[0])
		}
		return &ModelSummary{
			ModelHeader: m.ModelHeader,
			Hyperparameters: map[string]float64{
				"alpha":         m.Alpha,
				"gamma":         m.Gamma,
				"epsilon":       m.Epsilon,
				"lambda":        m.Lambda,
				"fourier_order": float64(m.FourierOrder),
				"max_non_zero":  float64(m.MaxNonZero),
				"state_dim":     float64(m.StateDim),
			},
			Actions: m.Actions,
			Size:    size,
		}, nil
	}
	return nil, fmt.Errorf("%s: unknown agent type %q: %w", path, h.AgentType, ErrIncompatibleModel)
}

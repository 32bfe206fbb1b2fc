package config

import (
	"fmt"
	"strings"
)

type AgentType string

const (
	TypeQL    AgentType = "QL"
	TypeSarsa AgentType = "SARSA"
	TypeFixed AgentType = "FIXED"
)

// Instance is the configuration of one control agent. Optional values are
// pointers so that absence can be told apart from zero.
type Instance struct {
	Name      string    `yaml:"-"`
	AgentType AgentType `yaml:"Agent_type"`
	Runs      *int      `yaml:"Runs"`
	Model     string    `yaml:"Model"`
	Seed      *int64    `yaml:"Seed"`

	Alpha *float64 `yaml:"Alpha"`
	Gamma *float64 `yaml:"Gamma"`

	// QL
	InitEpsilon *float64 `yaml:"Init_epsilon"`
	MinEpsilon  *float64 `yaml:"Min_epsilon"`
	Decay       *float64 `yaml:"Decay"`

	// SARSA
	Epsilon      *float64 `yaml:"Epsilon"`
	FourierOrder *int     `yaml:"FourierOrder"`
	Lambda       *float64 `yaml:"Lambda"`
	MaxNonZero   *int     `yaml:"Max_non_zero"`
}

func (i *Instance) Validate() error {
	missing := make([]string, 0)
	if i.Runs == nil {
		missing = append(missing, "Runs")
	}
	switch i.AgentType {
	case TypeFixed:
	case TypeQL:
		missing = appendMissing(missing, map[string]bool{
			"Alpha":        i.Alpha == nil,
			"Gamma":        i.Gamma == nil,
			"Init_epsilon": i.InitEpsilon == nil,
			"Min_epsilon":  i.MinEpsilon == nil,
			"Decay":        i.Decay == nil,
		}, "Alpha", "Gamma", "Init_epsilon", "Min_epsilon", "Decay")
	case TypeSarsa:
		missing = appendMissing(missing, map[string]bool{
			"Alpha":        i.Alpha == nil,
			"Gamma":        i.Gamma == nil,
			"Epsilon":      i.Epsilon == nil,
			"FourierOrder": i.FourierOrder == nil,
			"Lambda":       i.Lambda == nil,
		}, "Alpha", "Gamma", "Epsilon", "FourierOrder", "Lambda")
	case "":
		missing = append(missing, "Agent_type")
	default:
		return fmt.Errorf("%w: instance %s: unknown Agent_type %q", ErrInvalid, i.Name, i.AgentType)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: instance %s: %s", ErrMissingKey, i.Name, strings.Join(missing, ", "))
	}
	if *i.Runs <= 0 {
		return fmt.Errorf("%w: instance %s: Runs must be positive", ErrInvalid, i.Name)
	}
	if i.FourierOrder != nil && *i.FourierOrder < 0 {
		return fmt.Errorf("%w: instance %s: FourierOrder must not be negative", ErrInvalid, i.Name)
	}
	return nil
}

func appendMissing(missing []string, absent map[string]bool, order ...string) []string {
	for _, key := range order {
		if absent[key] {
			missing = append(missing, key)
		}
	}
	return missing
}

// Value helpers for validated instances

func (i *Instance) RunsOr(def int) int {
	if i.Runs == nil {
		return def
	}
	return *i.Runs
}

func (i *Instance) MaxNonZeroOr(def int) int {
	if i.MaxNonZero == nil {
		return def
	}
	return *i.MaxNonZero
}

func (i *Instance) SeedOr(def int64) int64 {
	if i.Seed == nil {
		return def
	}
	return *i.Seed
}

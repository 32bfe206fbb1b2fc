package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Observation is the raw signal-controller observation:
// [phase one-hot..., min green flag, lane densities..., lane queues...]
type Observation []float64

func (o Observation) Copy() Observation {
	out := make(Observation, len(o))
	copy(out, o)
	return out
}

type SpaceKind string

const (
	BoxSpace      SpaceKind = "Box"
	DiscreteSpace SpaceKind = "Discrete"
)

// Space describes valid observations (Box) or actions (Discrete)
type Space struct {
	Kind SpaceKind
	Low  []float64
	High []float64
	N    int
}

func NewBox(low, high []float64) Space {
	return Space{Kind: BoxSpace, Low: low, High: high}
}

func NewDiscrete(n int) Space {
	return Space{Kind: DiscreteSpace, N: n}
}

// Dim returns the length of vectors in a Box space, or the number of actions
// in a Discrete one.
func (s Space) Dim() int {
	if s.Kind == DiscreteSpace {
		return s.N
	}
	return len(s.Low)
}

func (s Space) String() string {
	if s.Kind == DiscreteSpace {
		return fmt.Sprintf("Discrete(%d)", s.N)
	}
	return fmt.Sprintf("Box(%d)", len(s.Low))
}

// Step is the outcome of advancing the environment by one control decision
type Step struct {
	Observation Observation
	Reward      float64
	Terminated  bool
	Truncated   bool
	Info        map[string]float64
}

func (s Step) Done() bool {
	return s.Terminated || s.Truncated
}

// Clock exposes the raw simulation clock. Fixed-cycle control uses it to run
// the simulator without handing actions to the signal controller.
type Clock interface {
	// SimStep advances the simulation by one second
	SimStep() error
	// Sample recomputes observation, reward, info and termination at the
	// current simulation time
	Sample() (Step, error)
}

// MetricsSaver writes the metrics recorded during the current episode
type MetricsSaver interface {
	// SaveCSV writes <outFile>_ep<episode>.csv and returns its path
	SaveCSV(outFile string, episode int) (string, error)
}

type Environment interface {
	Clock
	MetricsSaver

	Reset() (Observation, error)
	Step(action int) (Step, error)
	// Encode maps a raw observation to the discrete state key used by
	// tabular learners
	Encode(Observation) string

	ObservationSpace() Space
	ActionSpace() Space
	DeltaTime() int

	Close() error
}

// DensityBuckets is the number of buckets lane densities and queues are
// discretized into by EncodeObservation
const DensityBuckets = 10

// EncodeObservation produces the discrete state key of an observation with
// greenPhases leading one-hot phase entries.
func EncodeObservation(obs Observation, greenPhases int) string {
	if greenPhases > len(obs) {
		greenPhases = len(obs)
	}
	phase := 0
	for i := 0; i < greenPhases; i++ {
		if obs[i] == 1 {
			phase = i
			break
		}
	}
	parts := make([]string, 0, len(obs)-greenPhases+1)
	parts = append(parts, strconv.Itoa(phase))
	if len(obs) > greenPhases {
		parts = append(parts, strconv.Itoa(int(obs[greenPhases])))
		for _, d := range obs[greenPhases+1:] {
			parts = append(parts, strconv.Itoa(discretize(d)))
		}
	}
	return strings.Join(parts, ",")
}

func discretize(v float64) int {
	b := int(v * DensityBuckets)
	if b > DensityBuckets-1 {
		b = DensityBuckets - 1
	}
	if b < 0 {
		b = 0
	}
	return b
}

package policies

import (
	"math"

	erand "golang.org/x/exp/rand"
)

// EpsilonGreedy picks a random action with probability Epsilon and the
// best known action otherwise. Epsilon decays after every choice down to
// MinEpsilon.
type EpsilonGreedy struct {
	InitialEpsilon float64
	MinEpsilon     float64
	Decay          float64
	Epsilon        float64

	rand *erand.Rand
}

func NewEpsilonGreedy(initial, min, decay float64, seed int64) *EpsilonGreedy {
	return &EpsilonGreedy{
		InitialEpsilon: initial,
		MinEpsilon:     min,
		Decay:          decay,
		Epsilon:        initial,
		rand:           newRand(seed),
	}
}

func (e *EpsilonGreedy) Choose(q *QTable, state string) int {
	var action int
	if e.rand.Float64() < e.Epsilon {
		action = e.rand.Intn(q.Actions())
	} else {
		action, _ = q.Max(state)
	}
	e.Epsilon = math.Max(e.Epsilon*e.Decay, e.MinEpsilon)
	return action
}

func (e *EpsilonGreedy) Reset() {
	e.Epsilon = e.InitialEpsilon
}

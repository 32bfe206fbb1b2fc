package policies

import (
	"fmt"

	erand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

type SarsaParams struct {
	Alpha        float64
	Gamma        float64
	Epsilon      float64
	Lambda       float64
	FourierOrder int
	MaxNonZero   int
	Seed         int64
}

// TrueOnlineSarsa is true online Sarsa(lambda) with linear value functions
// over a Fourier basis, one weight vector per action
type TrueOnlineSarsa struct {
	SarsaParams
	Basis   *FourierBasis
	actions int

	lr    *mat.VecDense
	theta []*mat.VecDense
	et    []*mat.VecDense

	qOld    float64
	hasQOld bool
	rand    *erand.Rand
}

func NewTrueOnlineSarsa(low, high []float64, actions int, params SarsaParams) (*TrueOnlineSarsa, error) {
	if actions <= 0 {
		return nil, fmt.Errorf("%d actions: %w", actions, ErrShapeMismatch)
	}
	basis, err := NewFourierBasis(low, high, params.FourierOrder, params.MaxNonZero)
	if err != nil {
		return nil, err
	}
	params.MaxNonZero = basis.MaxNonZero
	s := &TrueOnlineSarsa{
		SarsaParams: params,
		Basis:       basis,
		actions:     actions,
		lr:          basis.LearningRates(params.Alpha),
		theta:       make([]*mat.VecDense, actions),
		et:          make([]*mat.VecDense, actions),
		rand:        newRand(params.Seed),
	}
	n := basis.NumBasis()
	for a := 0; a < actions; a++ {
		s.theta[a] = mat.NewVecDense(n, nil)
		s.et[a] = mat.NewVecDense(n, nil)
	}
	return s, nil
}

func (s *TrueOnlineSarsa) Actions() int {
	return s.actions
}

func (s *TrueOnlineSarsa) QValue(features mat.Vector, action int) float64 {
	return mat.Dot(s.theta[action], features)
}

// Act is epsilon-greedy over the linear action values of obs
func (s *TrueOnlineSarsa) Act(obs []float64) (int, error) {
	features, err := s.Basis.Features(obs)
	if err != nil {
		return 0, err
	}
	return s.actFeatures(features), nil
}

func (s *TrueOnlineSarsa) actFeatures(features mat.Vector) int {
	if s.rand.Float64() < s.Epsilon {
		return s.rand.Intn(s.actions)
	}
	best := 0
	bestQ := s.QValue(features, 0)
	for a := 1; a < s.actions; a++ {
		if q := s.QValue(features, a); q > bestQ {
			best, bestQ = a, q
		}
	}
	return best
}

// Learn applies the true online update for one transition. Traces are
// cleared when done is set.
func (s *TrueOnlineSarsa) Learn(state []float64, action int, reward float64, next []float64, done bool) error {
	phi, err := s.Basis.Features(state)
	if err != nil {
		return err
	}
	nextPhi, err := s.Basis.Features(next)
	if err != nil {
		return err
	}
	q := s.QValue(phi, action)
	nextQ := 0.0
	if !done {
		nextQ = s.QValue(nextPhi, s.actFeatures(nextPhi))
	}
	tdError := reward + s.Gamma*nextQ - q
	if !s.hasQOld {
		s.qOld, s.hasQOld = q, true
	}

	n := phi.Len()
	tmp := mat.NewVecDense(n, nil)
	for a := 0; a < s.actions; a++ {
		et, theta := s.et[a], s.theta[a]
		if a == action {
			// et = lambda*gamma*et + phi - (lr*gamma*lambda*(et.phi)) * phi
			dot := mat.Dot(et, phi)
			tmp.ScaleVec(s.Gamma*s.Lambda*dot, s.lr)
			tmp.MulElemVec(tmp, phi)
			et.ScaleVec(s.Lambda*s.Gamma, et)
			et.AddVec(et, phi)
			et.SubVec(et, tmp)

			// theta += lr*(td + q - qOld)*et - lr*(q - qOld)*phi
			tmp.MulElemVec(s.lr, et)
			theta.AddScaledVec(theta, tdError+q-s.qOld, tmp)
			tmp.MulElemVec(s.lr, phi)
			theta.AddScaledVec(theta, -(q - s.qOld), tmp)
		} else {
			et.ScaleVec(s.Lambda*s.Gamma, et)
			tmp.MulElemVec(s.lr, et)
			theta.AddScaledVec(theta, tdError+q-s.qOld, tmp)
		}
	}
	s.qOld = nextQ
	if done {
		s.ResetTraces()
	}
	return nil
}

func (s *TrueOnlineSarsa) ResetTraces() {
	s.hasQOld = false
	s.qOld = 0
	for _, et := range s.et {
		et.Zero()
	}
}

// Weights copies the weight vectors, one per action
func (s *TrueOnlineSarsa) Weights() [][]float64 {
	out := make([][]float64, s.actions)
	for a, theta := range s.theta {
		out[a] = mat.Col(nil, 0, theta)
	}
	return out
}

func (s *TrueOnlineSarsa) SetWeights(weights [][]float64) error {
	if len(weights) != s.actions {
		return fmt.Errorf("%d weight vectors for %d actions: %w", len(weights), s.actions, ErrShapeMismatch)
	}
	n := s.Basis.NumBasis()
	for a, w := range weights {
		if len(w) != n {
			return fmt.Errorf("weight vector %d has length %d, basis has %d: %w", a, len(w), n, ErrShapeMismatch)
		}
	}
	for a, w := range weights {
		s.theta[a] = mat.NewVecDense(n, append([]float64(nil), w...))
	}
	return nil
}

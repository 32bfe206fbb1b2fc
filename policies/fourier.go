package policies

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/combin"
)

// FourierBasis projects a bounded state onto cos(pi * c . s) features. The
// coefficient vectors c have at most MaxNonZero non-zero entries, each in
// [1, Order].
type FourierBasis struct {
	Order      int
	MaxNonZero int

	low   []float64
	high  []float64
	coeff *mat.Dense
}

func NewFourierBasis(low, high []float64, order, maxNonZero int) (*FourierBasis, error) {
	if len(low) != len(high) {
		return nil, fmt.Errorf("bounds of length %d and %d: %w", len(low), len(high), ErrShapeMismatch)
	}
	if len(low) == 0 {
		return nil, fmt.Errorf("empty state space: %w", ErrShapeMismatch)
	}
	if maxNonZero > len(low) {
		maxNonZero = len(low)
	}
	b := &FourierBasis{
		Order:      order,
		MaxNonZero: maxNonZero,
		low:        append([]float64(nil), low...),
		high:       append([]float64(nil), high...),
	}
	b.coeff = b.buildCoefficients()
	return b, nil
}

func (b *FourierBasis) StateDim() int {
	return len(b.low)
}

func (b *FourierBasis) NumBasis() int {
	r, _ := b.coeff.Dims()
	return r
}

func (b *FourierBasis) Coefficients() mat.Matrix {
	return b.coeff
}

func (b *FourierBasis) buildCoefficients() *mat.Dense {
	dim := len(b.low)
	rows := [][]float64{make([]float64, dim)} // bias
	for k := 1; k <= b.MaxNonZero && b.Order > 0; k++ {
		for _, indices := range combin.Combinations(dim, k) {
			// every assignment of values 1..Order to the chosen indices
			lens := make([]int, k)
			for i := range lens {
				lens[i] = b.Order
			}
			for _, c := range combin.Cartesian(lens) {
				row := make([]float64, dim)
				for i, idx := range indices {
					row[idx] = float64(c[i] + 1)
				}
				rows = append(rows, row)
			}
		}
	}
	coeff := mat.NewDense(len(rows), dim, nil)
	for i, row := range rows {
		coeff.SetRow(i, row)
	}
	return coeff
}

// LearningRates scales alpha by the norm of each coefficient vector. The
// bias row keeps alpha.
func (b *FourierBasis) LearningRates(alpha float64) *mat.VecDense {
	n := b.NumBasis()
	lrs := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		norm := floats.Norm(b.coeff.RawRowView(i), 2)
		if norm == 0 {
			norm = 1
		}
		lrs.SetVec(i, alpha/norm)
	}
	return lrs
}

func (b *FourierBasis) scale(state []float64) *mat.VecDense {
	scaled := mat.NewVecDense(len(state), nil)
	for i, s := range state {
		span := b.high[i] - b.low[i]
		if span == 0 || math.IsInf(span, 0) {
			scaled.SetVec(i, s)
			continue
		}
		scaled.SetVec(i, (s-b.low[i])/span)
	}
	return scaled
}

func (b *FourierBasis) Features(state []float64) (*mat.VecDense, error) {
	if len(state) != len(b.low) {
		return nil, fmt.Errorf("state of length %d, basis expects %d: %w", len(state), len(b.low), ErrShapeMismatch)
	}
	features := mat.NewVecDense(b.NumBasis(), nil)
	features.MulVec(b.coeff, b.scale(state))
	for i := 0; i < features.Len(); i++ {
		features.SetVec(i, math.Cos(math.Pi*features.AtVec(i)))
	}
	return features, nil
}

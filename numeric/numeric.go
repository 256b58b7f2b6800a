// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package numeric implements the dense matrix and vector primitives
// used to build and validate continuous-time Markov substitution models.
package numeric

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// A RateMatrix is a S×S continuous-time Markov rate matrix.
//
// Off-diagonal entries must be non-negative and every row must sum to
// (approximately) zero.
type RateMatrix struct {
	s int
	q *mat.Dense
}

// RowSumTolerance is the tolerance used when checking
// that a rate matrix has zero row sums.
const RowSumTolerance = 1e-9

// NewRateMatrix builds a RateMatrix from a dense S×S slice of rates,
// validating the §3 invariants.
func NewRateMatrix(q [][]float64) (*RateMatrix, error) {
	s := len(q)
	if s == 0 {
		return nil, fmt.Errorf("rate matrix: empty alphabet")
	}
	for i, row := range q {
		if len(row) != s {
			return nil, fmt.Errorf("rate matrix: row %d: expecting %d columns, found %d", i, s, len(row))
		}
	}

	d := mat.NewDense(s, s, nil)
	for i := 0; i < s; i++ {
		var sum float64
		for j := 0; j < s; j++ {
			v := q[i][j]
			if i != j && v < 0 {
				return nil, fmt.Errorf("rate matrix: row %d, col %d: negative off-diagonal rate %v", i, j, v)
			}
			if i == j && v > 0 {
				return nil, fmt.Errorf("rate matrix: row %d: positive diagonal rate %v", i, v)
			}
			d.Set(i, j, v)
			sum += v
		}
		if abs(sum) > RowSumTolerance {
			return nil, fmt.Errorf("rate matrix: row %d: row sum %v, expecting zero", i, sum)
		}
	}

	return &RateMatrix{s: s, q: d}, nil
}

// Size returns the alphabet size S.
func (r *RateMatrix) Size() int { return r.s }

// At returns Q[i][j].
func (r *RateMatrix) At(i, j int) float64 { return r.q.At(i, j) }

// Lambda returns the uniformization rate λ = max_i(-Q[i][i]).
func (r *RateMatrix) Lambda() float64 {
	var lambda float64
	for i := 0; i < r.s; i++ {
		v := -r.q.At(i, i)
		if v > lambda {
			lambda = v
		}
	}
	return lambda
}

// JumpMatrix returns the stochastic jump matrix R = I + Q/λ.
//
// It fails if λ is zero (a rate matrix with no negative diagonal entry,
// i.e. no substitutions are possible) or if a resulting row does not sum
// to one within RowSumTolerance.
func (r *RateMatrix) JumpMatrix() (*mat.Dense, error) {
	lambda := r.Lambda()
	if lambda <= 0 {
		return nil, fmt.Errorf("rate matrix: non-positive uniformization rate %v", lambda)
	}

	jr := mat.NewDense(r.s, r.s, nil)
	for i := 0; i < r.s; i++ {
		row := make([]float64, r.s)
		for j := 0; j < r.s; j++ {
			v := r.q.At(i, j) / lambda
			if i == j {
				v += 1
			}
			row[j] = v
		}
		sum := floats.Sum(row)
		if abs(sum-1) > 1e-9 {
			return nil, fmt.Errorf("rate matrix: jump matrix row %d sums to %v, expecting 1", i, sum)
		}
		jr.SetRow(i, row)
	}
	return jr, nil
}

// A Vector is a simple named alias over a plain float64 slice,
// used throughout the core for background frequencies and
// other small S-sized numeric vectors.
type Vector []float64

// NewFrequencies builds a background-frequency vector,
// validating that entries are non-negative and sum to one.
func NewFrequencies(pi []float64) (Vector, error) {
	if len(pi) == 0 {
		return nil, fmt.Errorf("frequencies: empty vector")
	}
	var sum float64
	for i, v := range pi {
		if v < 0 {
			return nil, fmt.Errorf("frequencies: index %d: negative value %v", i, v)
		}
		sum += v
	}
	if abs(sum-1) > 1e-6 {
		return nil, fmt.Errorf("frequencies: sum %v, expecting 1", sum)
	}
	out := make(Vector, len(pi))
	copy(out, pi)
	return out, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package pv implements operations on discrete probability vectors:
// distributions of a non-negative integer random variable over a
// contiguous support [0, N).
package pv

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// TrimThreshold is the probability mass below which a trailing entry
// is dropped from the retained support.
const TrimThreshold = 1e-10

// SumTolerance is the tolerance used when checking that a probability
// vector sums to one.
const SumTolerance = 1e-4

// Side selects a one-sided p-value.
type Side int

const (
	// Lower computes P(X <= x).
	Lower Side = iota
	// Upper computes P(X >= x).
	Upper
)

// A Vector is a probability distribution over {0, ..., len(V)-1}.
type Vector []float64

// New returns a zero vector of size n.
func New(n int) Vector {
	return make(Vector, n)
}

// Point returns a point-mass distribution at x.
func Point(x int) Vector {
	v := make(Vector, x+1)
	v[x] = 1
	return v
}

// Normalize scales v so that it sums to one, then trims trailing
// entries below TrimThreshold. It returns an error if the vector sums
// to zero or less.
func (v Vector) Normalize() (Vector, error) {
	sum := floats.Sum(v)
	if sum <= 0 {
		return nil, fmt.Errorf("pv: normalize: zero-mass vector")
	}

	out := make(Vector, len(v))
	for i, p := range v {
		out[i] = p / sum
	}
	return out.trim(), nil
}

// trim drops trailing entries with probability below TrimThreshold.
func (v Vector) trim() Vector {
	n := len(v)
	for n > 1 && v[n-1] < TrimThreshold {
		n--
	}
	return v[:n]
}

// CheckSum returns an error if v does not sum to one within
// SumTolerance.
func (v Vector) CheckSum() error {
	sum := floats.Sum(v)
	if math.Abs(sum-1) > SumTolerance {
		return fmt.Errorf("pv: probability sum %v out of [%v, %v]", sum, 1-SumTolerance, 1+SumTolerance)
	}
	return nil
}

// Stats returns the mean and variance of v.
//
// Accumulation is performed in index-ascending order, as required by
// the core's numerical-ordering policy.
func (v Vector) Stats() (mean, variance float64) {
	for i, p := range v {
		mean += float64(i) * p
	}
	var m2 float64
	for i, p := range v {
		d := float64(i)
		m2 += d * d * p
	}
	variance = m2 - mean*mean
	return mean, variance
}

// ConfidenceInterval returns the narrowest interval [lo, hi]
// containing mass >= alpha. Ties in candidate intervals of the same
// width are broken by preferring the earlier lo. The masses left in
// the two tails are not balanced against each other.
func (v Vector) ConfidenceInterval(alpha float64) (lo, hi int) {
	n := len(v)
	// Prefix sums for O(1) mass-in-range queries.
	cum := make([]float64, n+1)
	for i, p := range v {
		cum[i+1] = cum[i] + p
	}

	bestWidth := n + 1
	for l := 0; l < n; l++ {
		// Smallest h >= l such that mass in [l, h] >= alpha.
		h := l
		for h < n && cum[h+1]-cum[l] < alpha {
			h++
		}
		if h >= n {
			continue
		}
		width := h - l
		if width < bestWidth {
			bestWidth = width
			lo, hi = l, h
		}
	}
	return lo, hi
}

// PValue computes P(X <= x) (Lower) or P(X >= x) (Upper).
func (v Vector) PValue(x int, side Side) float64 {
	if side == Lower {
		if x < 0 {
			return 0
		}
		if x >= len(v) {
			return 1
		}
		var sum float64
		for i := 0; i <= x; i++ {
			sum += v[i]
		}
		return sum
	}

	if x >= len(v) {
		return 0
	}
	if x < 0 {
		return 1
	}
	var sum float64
	for i := x; i < len(v); i++ {
		sum += v[i]
	}
	return sum
}

// Convolve returns the k-fold convolution of v with itself
// (the distribution of the sum of k independent draws from v),
// using repeated squaring.
func (v Vector) Convolve(k int) (Vector, error) {
	if k < 1 {
		return nil, fmt.Errorf("pv: convolve: invalid count %d", k)
	}
	return ConvolveMany([]Vector{v}, []int{k})
}

// convolvePair computes the convolution of two probability vectors.
//
// Summation is performed in index-ascending order of the output
// index, and, for each output index, in index-ascending order of the
// split point.
func convolvePair(a, b Vector) Vector {
	out := make(Vector, len(a)+len(b)-1)
	for i := range out {
		lo := 0
		if i-(len(b)-1) > lo {
			lo = i - (len(b) - 1)
		}
		hiI := len(a) - 1
		if i < hiI {
			hiI = i
		}
		var sum float64
		for j := lo; j <= hiI; j++ {
			sum += a[j] * b[i-j]
		}
		out[i] = sum
	}
	return out
}

// ConvolveMany convolves a list of probability vectors.
//
// If counts is nil, every vector in ps is convolved with every other
// vector exactly once. If counts is given, ps[i] is first convolved
// with itself counts[i] times (by repeated squaring), and the results
// are then convolved across vectors. The overall order of operations
// is chosen to keep intermediate support sizes small: vectors (or
// per-vector powers) are combined smallest-support-first.
func ConvolveMany(ps []Vector, counts []int) (Vector, error) {
	if len(ps) == 0 {
		return nil, fmt.Errorf("pv: convolve many: no vectors")
	}
	if counts != nil && len(counts) != len(ps) {
		return nil, fmt.Errorf("pv: convolve many: %d vectors, %d counts", len(ps), len(counts))
	}

	terms := make([]Vector, 0, len(ps))
	for i, p := range ps {
		c := 1
		if counts != nil {
			c = counts[i]
		}
		if c < 1 {
			return nil, fmt.Errorf("pv: convolve many: index %d: invalid count %d", i, c)
		}
		// Repeated squaring for the binary digits of c.
		base := p
		acc := Vector{1}
		first := true
		for c > 0 {
			if c&1 == 1 {
				if first {
					acc = base
					first = false
				} else {
					acc = convolvePair(acc, base)
				}
			}
			c >>= 1
			if c > 0 {
				base = convolvePair(base, base)
			}
		}
		terms = append(terms, acc)
	}

	for len(terms) > 1 {
		// Combine the two smallest-support terms first.
		i, j := smallestTwo(terms)
		merged := convolvePair(terms[i], terms[j])
		next := make([]Vector, 0, len(terms)-1)
		for k, t := range terms {
			if k == i || k == j {
				continue
			}
			next = append(next, t)
		}
		next = append(next, merged)
		terms = next
	}
	return terms[0], nil
}

func smallestTwo(terms []Vector) (i, j int) {
	i, j = 0, 1
	if len(terms[j]) < len(terms[i]) {
		i, j = j, i
	}
	for k := 2; k < len(terms); k++ {
		if len(terms[k]) < len(terms[i]) {
			j = i
			i = k
		} else if len(terms[k]) < len(terms[j]) {
			j = k
		}
	}
	return i, j
}

// ZValue returns the z-value such that a symmetric Gaussian interval
// of mean ± z*sd contains mass ci (0 < ci < 1).
func ZValue(ci float64) float64 {
	n := distuv.Normal{Mu: 0, Sigma: 1}
	return n.Quantile(1 - (1-ci)/2)
}

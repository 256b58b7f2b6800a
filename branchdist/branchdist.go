// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package branchdist builds the per-branch joint distribution of
// end-base and substitution count, given a start base and a branch
// length, from a jump-process's B tensor.
package branchdist

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"
)

// TrimThreshold is the mass below which trailing substitution-count
// columns are dropped after a branch table is built, bounding the
// tensor growth that would otherwise compound across tree depth.
const TrimThreshold = 1e-10

// A Table is D[a][b][n] = P(end-base = b, n substitutions | start-base
// = a, branch length t), for a fixed branch. Each row (fixed a) is a
// probability matrix over (b, n) that sums to one.
type Table struct {
	s     int
	ncols int
	d     [][][]float64
}

// NewTable allocates an empty table for an alphabet of size s with n
// ranging over [0, ncols).
func NewTable(s, ncols int) Table {
	d := make([][][]float64, s)
	for a := range d {
		d[a] = make([][]float64, s)
		for b := range d[a] {
			d[a][b] = make([]float64, ncols)
		}
	}
	return Table{s: s, ncols: ncols, d: d}
}

// Size returns the alphabet size S.
func (t Table) Size() int { return t.s }

// NCols returns the number of substitution-count columns retained.
func (t Table) NCols() int { return t.ncols }

// At returns D[a][b][n]; it returns zero for n out of range.
func (t Table) At(a, b, n int) float64 {
	if n < 0 || n >= t.ncols {
		return 0
	}
	return t.d[a][b][n]
}

func (t Table) set(a, b, n int, v float64) {
	t.d[a][b][n] = v
}

// Row returns D[a][·][·] as an S x ncols probability matrix, indexed
// [b][n].
func (t Table) Row(a int) [][]float64 {
	return t.d[a]
}

// PoissonTerms returns Poisson(lambda*t)[j] for j = 0 ... J-1, where J
// is the distribution's natural truncation point: the smallest J such
// that the retained mass is within 1e-12 of one, summing gonum's
// Poisson probabilities term by term. It fails if J would reach or exceed jmax, per the
// "Poisson truncation J >= jmax" resource error of §7.
func PoissonTerms(lambda, t float64, jmax int) ([]float64, error) {
	if t == 0 {
		return []float64{1}, nil
	}

	p := distuv.Poisson{Lambda: lambda * t}
	terms := make([]float64, 0, jmax)
	var cum float64
	for j := 0; cum < 1-1e-12; j++ {
		if j >= jmax {
			return nil, fmt.Errorf("branchdist: poisson truncation reached jmax=%d for lambda*t=%v", jmax, lambda*t)
		}
		pj := p.Prob(float64(j))
		terms = append(terms, pj)
		cum += pj
	}
	return terms, nil
}

// Build constructs the branch-conditional table D for a branch of
// length t, given the jump process's B[a][b][n][j] tensor (sized
// s x s x jmax x jmax), uniformization rate lambda, and truncation
// jmax.
//
// t = 0 concentrates the result at D[a][a][0] = 1.
func Build(b [][][][]float64, s, jmax int, lambda, t float64) (Table, error) {
	if t < 0 {
		return Table{}, fmt.Errorf("branchdist: negative branch length %v", t)
	}

	out := NewTable(s, jmax)
	if t == 0 {
		for a := 0; a < s; a++ {
			out.set(a, a, 0, 1)
		}
		return out, nil
	}

	pj, err := PoissonTerms(lambda, t, jmax)
	if err != nil {
		return Table{}, err
	}

	for a := 0; a < s; a++ {
		var rowSum float64
		for bb := 0; bb < s; bb++ {
			for n := 0; n < jmax; n++ {
				var sum float64
				for j, p := range pj {
					if p == 0 {
						continue
					}
					sum += b[a][bb][n][j] * p
				}
				out.set(a, bb, n, sum)
				rowSum += sum
			}
		}
		if rowSum <= 0 {
			return Table{}, fmt.Errorf("branchdist: branch length %v: row %d has zero mass", t, a)
		}
		for bb := 0; bb < s; bb++ {
			for n := 0; n < jmax; n++ {
				out.d[a][bb][n] /= rowSum
			}
		}
	}

	return out.trim(), nil
}

// trim shrinks the table to the smallest ncols that retains all
// columns with mass above TrimThreshold in every row, so that
// substitution-count ranges don't grow by a full jmax at every branch
// of a tree traversal.
func (t Table) trim() Table {
	last := 0
	for a := 0; a < t.s; a++ {
		for b := 0; b < t.s; b++ {
			for n := t.ncols - 1; n > last; n-- {
				if t.d[a][b][n] > TrimThreshold {
					last = n
					break
				}
			}
		}
	}
	if last+1 >= t.ncols {
		return t
	}

	out := NewTable(t.s, last+1)
	for a := 0; a < t.s; a++ {
		for b := 0; b < t.s; b++ {
			copy(out.d[a][b], t.d[a][b][:last+1])
		}
	}
	return out
}

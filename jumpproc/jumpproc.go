// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package jumpproc builds the uniformized discrete-jump representation
// of a continuous-time Markov substitution model (C3): the jump matrix
// R, the marginal and start-conditioned jump/substitution tensors A,
// B, and M, and the per-branch conditional distributions for every
// branch of a tree.
package jumpproc

import (
	"fmt"
	"math"

	"github.com/js-arias/phast/branchdist"
	"github.com/js-arias/phast/numeric"
	"github.com/js-arias/phast/phylotree"
	"github.com/js-arias/phast/ratemodel"
)

// MinJmax is the minimum jump-count truncation used regardless of
// total branch length.
const MinJmax = 20

// JmaxMultiplier scales the total tree branch length into the
// jump-count truncation jmax.
const JmaxMultiplier = 15

// A JumpProcess is the immutable bundle of precomputed tables
// described in §3 of the core specification. It is built once per
// (model, tree) pair and shared read-only across all feature p-value
// queries.
type JumpProcess struct {
	s      int
	lambda float64
	r      [][]float64
	jmax   int

	// a[i][n][j] = P(end-base=i, n substitutions | j jumps)
	a [][][]float64
	// b[a][i][n][j] = P(end-base=i, n substitutions | j jumps, start-base=a)
	b [][][][]float64
	// m[n][j] = P(n substitutions | j jumps)
	m [][]float64

	branch map[int]branchdist.Table

	pi numeric.Vector
}

// Size returns the alphabet size S.
func (jp *JumpProcess) Size() int { return jp.s }

// Lambda returns the uniformization rate.
func (jp *JumpProcess) Lambda() float64 { return jp.lambda }

// Jmax returns the jump-count truncation.
func (jp *JumpProcess) Jmax() int { return jp.jmax }

// Pi returns the background frequencies used to build A.
func (jp *JumpProcess) Pi() numeric.Vector { return jp.pi }

// A returns P(end-base=i, n substitutions | j jumps).
func (jp *JumpProcess) A(i, n, j int) float64 { return jp.a[i][n][j] }

// B returns P(end-base=i, n substitutions | j jumps, start-base=a).
func (jp *JumpProcess) B(a, i, n, j int) float64 { return jp.b[a][i][n][j] }

// M returns P(n substitutions | j jumps).
func (jp *JumpProcess) M(n, j int) float64 { return jp.m[n][j] }

// BranchDistrib returns the precomputed branch-conditional table for
// a non-root node. It returns false at the root, which has no branch.
func (jp *JumpProcess) BranchDistrib(node int) (branchdist.Table, bool) {
	t, ok := jp.branch[node]
	return t, ok
}

// Build constructs a JumpProcess from a substitution model and a
// tree, precomputing A, B, M, and every non-root branch's conditional
// distribution.
func Build(model *ratemodel.Model, tree *phylotree.Tree) (*JumpProcess, error) {
	s := model.Size()
	if s == 0 {
		return nil, fmt.Errorf("jumpproc: zero-size alphabet")
	}

	for _, id := range tree.Nodes() {
		if tree.IsRoot(id) {
			continue
		}
		if d := tree.DParent(id); d < 0 {
			return nil, fmt.Errorf("jumpproc: node %d: negative branch length %v", id, d)
		}
	}

	q := model.Q()
	lambda := q.Lambda()
	rm, err := q.JumpMatrix()
	if err != nil {
		return nil, err
	}
	r := make([][]float64, s)
	for i := range r {
		r[i] = make([]float64, s)
		for j := range r[i] {
			r[i][j] = rm.At(i, j)
		}
	}

	jmax := MinJmax
	if v := int(math.Ceil(JmaxMultiplier * tree.TotalBranchLength())); v > jmax {
		jmax = v
	}

	pi := model.Pi()

	a := buildA(s, jmax, r, pi)
	b := buildB(s, jmax, r)
	m := buildM(s, jmax, a)

	if err := checkTensors(s, jmax, a, b); err != nil {
		return nil, err
	}

	jp := &JumpProcess{
		s:      s,
		lambda: lambda,
		r:      r,
		jmax:   jmax,
		a:      a,
		b:      b,
		m:      m,
		branch: make(map[int]branchdist.Table, tree.NumNodes()-1),
		pi:     pi,
	}

	for _, id := range tree.Nodes() {
		if tree.IsRoot(id) {
			continue
		}
		t := tree.DParent(id)
		tbl, err := branchdist.Build(b, s, jmax, lambda, t)
		if err != nil {
			return nil, fmt.Errorf("jumpproc: node %d: %v", id, err)
		}
		jp.branch[id] = tbl
	}

	return jp, nil
}

// buildA fills A[i][n][j] by the two-index recurrence of §4.1,
// starting from the background frequencies.
func buildA(s, jmax int, r [][]float64, pi numeric.Vector) [][][]float64 {
	a := allocTensor(s, jmax)
	for i := 0; i < s; i++ {
		a[i][0][0] = pi[i]
	}
	fillRecurrence(a, s, jmax, r)
	return a
}

// buildB fills B[a][i][n][j] by the same recurrence, once per start
// state a, starting from a point mass at (i=a, n=0, j=0).
func buildB(s, jmax int, r [][]float64) [][][][]float64 {
	b := make([][][][]float64, s)
	for start := 0; start < s; start++ {
		t := allocTensor(s, jmax)
		t[start][0][0] = 1
		fillRecurrence(t, s, jmax, r)
		b[start] = t
	}
	return b
}

// allocTensor allocates a S x jmax x jmax tensor.
func allocTensor(s, jmax int) [][][]float64 {
	t := make([][][]float64, s)
	for i := range t {
		t[i] = make([][]float64, jmax)
		for n := range t[i] {
			t[i][n] = make([]float64, jmax)
		}
	}
	return t
}

// fillRecurrence applies the §4.1 two-index recurrence to t[i][0][0],
// already set by the caller.
func fillRecurrence(t [][][]float64, s, jmax int, r [][]float64) {
	for j := 1; j < jmax; j++ {
		for n := 0; n <= j; n++ {
			for i := 0; i < s; i++ {
				v := t[i][n][j-1] * r[i][i]
				if n > 0 {
					var sum float64
					for k := 0; k < s; k++ {
						if k == i {
							continue
						}
						sum += t[k][n-1][j-1] * r[k][i]
					}
					v += sum
				}
				t[i][n][j] = v
			}
		}
	}
}

func buildM(s, jmax int, a [][][]float64) [][]float64 {
	m := make([][]float64, jmax)
	for n := range m {
		m[n] = make([]float64, jmax)
		for j := range m[n] {
			var sum float64
			for i := 0; i < s; i++ {
				sum += a[i][n][j]
			}
			m[n][j] = sum
		}
	}
	return m
}

// checkTensors validates the §3/§8 mass invariants for A and B.
func checkTensors(s, jmax int, a [][][]float64, b [][][][]float64) error {
	for j := 0; j < jmax; j++ {
		var sum float64
		for i := 0; i < s; i++ {
			for n := 0; n <= j; n++ {
				sum += a[i][n][j]
			}
		}
		if math.Abs(sum-1) > 1e-9 {
			return fmt.Errorf("jumpproc: A mass at j=%d is %v, expecting 1", j, sum)
		}

		for start := 0; start < s; start++ {
			var bSum float64
			for i := 0; i < s; i++ {
				for n := 0; n <= j; n++ {
					bSum += b[start][i][n][j]
				}
			}
			if math.Abs(bSum-1) > 1e-9 {
				return fmt.Errorf("jumpproc: B mass at start=%d, j=%d is %v, expecting 1", start, j, bSum)
			}
		}
	}
	return nil
}

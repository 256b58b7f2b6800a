// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package subtree implements the tree dynamic program (C5): a
// postorder traversal producing, per alignment site, the joint
// distribution of substitution count and ancestral labeling, either
// as a scalar (total substitutions) or bivariate (left subtree count
// x right subtree count) distribution.
package subtree

import (
	"fmt"

	"github.com/js-arias/phast/branchdist"
	"github.com/js-arias/phast/jumpproc"
	"github.com/js-arias/phast/phylotree"
	"github.com/js-arias/phast/pm"
	"github.com/js-arias/phast/pv"
	"github.com/js-arias/phast/ratemodel"
	"github.com/js-arias/phast/seqalign"
)

// An Engine binds a jump process, a tree, a substitution model, and
// an alignment, and answers per-site substitution-count queries.
type Engine struct {
	tree  *phylotree.Tree
	jp    *jumpproc.JumpProcess
	model *ratemodel.Model
	align *seqalign.Alignment
	bind  *seqalign.Binding
}

// New builds an Engine. It fails if the model and jump process
// alphabets disagree, or if the alignment cannot be bound to the
// tree's terminal nodes.
func New(tree *phylotree.Tree, jp *jumpproc.JumpProcess, model *ratemodel.Model, align *seqalign.Alignment) (*Engine, error) {
	if model.Size() != jp.Size() {
		return nil, fmt.Errorf("subtree: model alphabet size %d, jump process size %d", model.Size(), jp.Size())
	}

	bind, err := align.Bind(tree)
	if err != nil {
		return nil, err
	}

	return &Engine{
		tree:  tree,
		jp:    jp,
		model: model,
		align: align,
		bind:  bind,
	}, nil
}

// table is the per-node conditional distribution of the dynamic
// program: l[a][n] = P(data below this node, n substitutions below
// this node | this node is labeled a).
type table struct {
	maxn int
	l    [][]float64
}

func newTable(s, maxn int) *table {
	l := make([][]float64, s)
	for a := range l {
		l[a] = make([]float64, maxn+1)
	}
	return &table{maxn: maxn, l: l}
}

// leafFunc supplies the observed data at a leaf node, as a per-state
// table. It lets the same postorder machinery compute either a
// posterior (conditioned on an alignment tuple) or a prior
// (conditioned on nothing, i.e. every leaf marginalized out).
type leafFunc func(node int) (*table, error)

func (e *Engine) leafFromTuple(tupleIdx int) leafFunc {
	return func(node int) (*table, error) {
		s := e.model.Size()
		t := newTable(s, 0)

		row, ok := e.bind.Row(node)
		if !ok {
			return nil, fmt.Errorf("subtree: no alignment row bound to leaf %q", e.tree.Leaf(node))
		}
		c := e.align.Char(tupleIdx, row)

		if c == e.align.GapChar() || e.align.IsMissing(c) {
			for a := 0; a < s; a++ {
				t.l[a][0] = 1
			}
			return t, nil
		}

		idx, ok := e.model.Index(c)
		if !ok {
			return nil, fmt.Errorf("subtree: unknown character %q at tuple %d, leaf %q", c, tupleIdx, e.tree.Leaf(node))
		}
		t.l[idx][0] = 1
		return t, nil
	}
}

func (e *Engine) leafMissing() leafFunc {
	return func(node int) (*table, error) {
		s := e.model.Size()
		t := newTable(s, 0)
		for a := 0; a < s; a++ {
			t.l[a][0] = 1
		}
		return t, nil
	}
}

// buildTables runs the full postorder dynamic program, returning the
// table computed at every node (including the root).
func (e *Engine) buildTables(leaf leafFunc) (map[int]*table, error) {
	s := e.model.Size()
	tables := make(map[int]*table, e.tree.NumNodes())
	var buildErr error

	e.tree.Postorder(func(id int) {
		if buildErr != nil {
			return
		}
		if e.tree.IsLeaf(id) {
			t, err := leaf(id)
			if err != nil {
				buildErr = err
				return
			}
			tables[id] = t
			return
		}

		lc := e.tree.LChild(id)
		rc := e.tree.RChild(id)
		dL, ok := e.jp.BranchDistrib(lc)
		if !ok {
			buildErr = fmt.Errorf("subtree: no branch distribution for node %d", lc)
			return
		}
		dR, ok := e.jp.BranchDistrib(rc)
		if !ok {
			buildErr = fmt.Errorf("subtree: no branch distribution for node %d", rc)
			return
		}
		tables[id] = combine(s, tables[lc], tables[rc], dL, dR)
	})
	if buildErr != nil {
		return nil, buildErr
	}
	return tables, nil
}

// sideSums computes, for a fixed child subtree and the branch
// distribution leading to it, side(a, j) = sum_b sum_i child.l[b][i]
// * d[a][b][j-i], for a in [0, s) and j in [0, maxJ], with the
// summation clipped to i in [max(0, j-d.NCols()+1), min(j,
// child.maxn)] as required by spec.md §4.4.
func sideSums(s int, child *table, d branchdist.Table, maxJ int) [][]float64 {
	out := make([][]float64, s)
	for a := 0; a < s; a++ {
		row := make([]float64, maxJ+1)
		for j := 0; j <= maxJ; j++ {
			lo := j - d.NCols() + 1
			if lo < 0 {
				lo = 0
			}
			hi := j
			if hi > child.maxn {
				hi = child.maxn
			}
			var sum float64
			for i := lo; i <= hi; i++ {
				n := j - i
				for b := 0; b < s; b++ {
					lv := child.l[b][i]
					if lv == 0 {
						continue
					}
					sum += lv * d.At(a, b, n)
				}
			}
			row[j] = sum
		}
		out[a] = row
	}
	return out
}

// combine merges the tables of two children into their parent's
// table, per the internal-node recursion of spec.md §4.4.
func combine(s int, left, right *table, dL, dR branchdist.Table) *table {
	maxLeft := left.maxn + dL.NCols() - 1
	maxRight := right.maxn + dR.NCols() - 1
	maxv := maxLeft
	if maxRight > maxv {
		maxv = maxRight
	}

	leftArr := sideSums(s, left, dL, maxLeft)
	rightArr := sideSums(s, right, dR, maxRight)

	out := newTable(s, maxv)
	for a := 0; a < s; a++ {
		for n := 0; n <= maxv; n++ {
			lo := n - maxRight
			if lo < 0 {
				lo = 0
			}
			hi := n
			if hi > maxLeft {
				hi = maxLeft
			}
			var sum float64
			for j := lo; j <= hi; j++ {
				sum += leftArr[a][j] * rightArr[a][n-j]
			}
			out.l[a][n] = sum
		}
	}
	return out
}

// scalarFromTables weights a root-level table by the background
// frequencies and normalizes it into a probability vector.
func scalarFromTables(pi []float64, root *table) (pv.Vector, error) {
	out := pv.New(root.maxn + 1)
	for a, p := range pi {
		for n := 0; n <= root.maxn; n++ {
			out[n] += p * root.l[a][n]
		}
	}
	return out.Normalize()
}

// ScalarPosterior returns P(N = n | data at tuple tupleIdx), the
// total number of substitutions across all branches.
func (e *Engine) ScalarPosterior(tupleIdx int) (pv.Vector, error) {
	tables, err := e.buildTables(e.leafFromTuple(tupleIdx))
	if err != nil {
		return nil, err
	}
	return scalarFromTables(e.jp.Pi(), tables[e.tree.Root()])
}

// ScalarPrior returns the prior substitution-count distribution for a
// single site, independent of any observed data.
func (e *Engine) ScalarPrior() (pv.Vector, error) {
	tables, err := e.buildTables(e.leafMissing())
	if err != nil {
		return nil, err
	}
	return scalarFromTables(e.jp.Pi(), tables[e.tree.Root()])
}

// bivariateFromTables builds the root-level (left, right) joint
// distribution, treating the right subtree as attached to the root by
// a zero-length branch, per spec.md §4.4.
func (e *Engine) bivariateFromTables(tables map[int]*table) (pm.Matrix, error) {
	root := e.tree.Root()
	if e.tree.IsLeaf(root) {
		return nil, fmt.Errorf("subtree: bivariate posterior requires a non-terminal root")
	}

	lc := e.tree.LChild(root)
	rc := e.tree.RChild(root)
	dL, ok := e.jp.BranchDistrib(lc)
	if !ok {
		return nil, fmt.Errorf("subtree: no branch distribution for node %d", lc)
	}

	left := tables[lc]
	right := tables[rc]

	maxLeft := left.maxn + dL.NCols() - 1
	leftArr := sideSums(e.model.Size(), left, dL, maxLeft)

	out := pm.New(maxLeft+1, right.maxn+1)
	pi := e.jp.Pi()
	for a, p := range pi {
		for n1 := 0; n1 <= maxLeft; n1++ {
			lv := p * leftArr[a][n1]
			if lv == 0 {
				continue
			}
			for n2 := 0; n2 <= right.maxn; n2++ {
				out[n1][n2] += lv * right.l[a][n2]
			}
		}
	}
	return out.Normalize()
}

// BivariatePosterior returns the joint distribution of (left-subtree
// substitutions, right-subtree substitutions) conditioned on the data
// at tuple tupleIdx.
func (e *Engine) BivariatePosterior(tupleIdx int) (pm.Matrix, error) {
	tables, err := e.buildTables(e.leafFromTuple(tupleIdx))
	if err != nil {
		return nil, err
	}
	return e.bivariateFromTables(tables)
}

// BivariatePrior returns the joint prior distribution of (left-subtree
// substitutions, right-subtree substitutions), independent of any
// observed data.
func (e *Engine) BivariatePrior() (pm.Matrix, error) {
	tables, err := e.buildTables(e.leafMissing())
	if err != nil {
		return nil, err
	}
	return e.bivariateFromTables(tables)
}

// AlignmentScalarPosterior returns the scalar posterior distribution
// for every tuple in the bound alignment, indexed by tuple index. Each
// distinct tuple is computed exactly once.
func (e *Engine) AlignmentScalarPosterior() ([]pv.Vector, error) {
	out := make([]pv.Vector, e.align.NumTuples())
	for t := 0; t < e.align.NumTuples(); t++ {
		p, err := e.ScalarPosterior(t)
		if err != nil {
			return nil, err
		}
		out[t] = p
	}
	return out, nil
}

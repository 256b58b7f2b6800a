// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package likecollab implements the likelihood collaborator used by
// C7: a classic Felsenstein pruning likelihood over a fixed, fully
// labeled leaf assignment, using the branch transition probabilities
// already precomputed by a jumpproc.JumpProcess.
//
// This is the same postorder recursion as pruning.fullDownPass,
// specialized from a geographic diffusion kernel to a discrete
// substitution-model transition matrix, and stripped of its
// channel/goroutine pixel-parallelism: spec.md §5 requires the core
// to be single-threaded and synchronous.
package likecollab

import (
	"fmt"
	"math"

	"github.com/js-arias/phast/jumpproc"
	"github.com/js-arias/phast/phylotree"
)

// An Engine binds a tree to a jump process and evaluates the
// likelihood of fully labeled leaf assignments under it.
type Engine struct {
	tree *phylotree.Tree
	jp   *jumpproc.JumpProcess
}

// New creates an Engine.
func New(tree *phylotree.Tree, jp *jumpproc.JumpProcess) *Engine {
	return &Engine{tree: tree, jp: jp}
}

// transProb returns P(end-base = b | start-base = a, branch to node),
// the substitution-model transition probability, obtained by
// marginalizing the branch-conditional table over substitution count.
func (e *Engine) transProb(node, a, b int) float64 {
	d, ok := e.jp.BranchDistrib(node)
	if !ok {
		return 0
	}
	var sum float64
	for n := 0; n < d.NCols(); n++ {
		sum += d.At(a, b, n)
	}
	return sum
}

// conditional returns the per-state conditional likelihood vector at
// a node, given a fixed assignment of states to every leaf.
func (e *Engine) conditional(id int, labels map[int]int) ([]float64, error) {
	s := e.jp.Size()
	if e.tree.IsLeaf(id) {
		lbl, ok := labels[id]
		if !ok {
			return nil, fmt.Errorf("likecollab: no label for leaf %q", e.tree.Leaf(id))
		}
		if lbl < 0 || lbl >= s {
			return nil, fmt.Errorf("likecollab: label %d out of range for leaf %q", lbl, e.tree.Leaf(id))
		}
		l := make([]float64, s)
		l[lbl] = 1
		return l, nil
	}

	lc := e.tree.LChild(id)
	rc := e.tree.RChild(id)
	ll, err := e.conditional(lc, labels)
	if err != nil {
		return nil, err
	}
	lr, err := e.conditional(rc, labels)
	if err != nil {
		return nil, err
	}

	out := make([]float64, s)
	for a := 0; a < s; a++ {
		var sumL, sumR float64
		for b := 0; b < s; b++ {
			sumL += e.transProb(lc, a, b) * ll[b]
			sumR += e.transProb(rc, a, b) * lr[b]
		}
		out[a] = sumL * sumR
	}
	return out, nil
}

// LogLikelihood2 computes the base-2 log-likelihood of a single,
// fully labeled alignment column, labels mapping every leaf node id
// to a state index.
func (e *Engine) LogLikelihood2(labels map[int]int) (float64, error) {
	root := e.tree.Root()
	rootL, err := e.conditional(root, labels)
	if err != nil {
		return 0, err
	}

	var like float64
	for a, p := range e.jp.Pi() {
		like += p * rootL[a]
	}
	if like <= 0 {
		return 0, fmt.Errorf("likecollab: zero likelihood for the given labeling")
	}
	return math.Log2(like), nil
}

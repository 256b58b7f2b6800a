// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package phylotree adapts a *timetree.Tree into the rooted-binary-tree
// shape required by the jump-process builder and the tree dynamic
// program: stable node IDs, lchild/rchild, branch length to parent,
// leaf names, and postorder/preorder traversals.
package phylotree

import (
	"fmt"
	"sort"

	"github.com/js-arias/timetree"
)

// UnitScale converts the time-calibrated tree's age unit (years) into
// the branch-length unit used by the substitution model (expected
// events per branch), the same million-year scaling the teacher uses
// to turn an age difference into a duration (see node.setPDF in the
// diffusion package this was adapted from).
const UnitScale = 1_000_000

// A Tree is a rooted binary phylogenetic tree, as required by §3 of
// the core specification.
type Tree struct {
	t     *timetree.Tree
	nodes []int
	total float64
}

// New wraps a time-calibrated tree for use by the substitution-count
// core.
func New(t *timetree.Tree) (*Tree, error) {
	if t == nil {
		return nil, fmt.Errorf("phylotree: nil tree")
	}

	pt := &Tree{t: t}
	ns := t.Nodes()
	pt.nodes = make([]int, len(ns))
	copy(pt.nodes, ns)
	sort.Ints(pt.nodes)

	for _, id := range pt.nodes {
		if t.IsRoot(id) {
			continue
		}
		pt.total += pt.branchLength(id)
	}

	// Invariant check: leaves = (nnodes+1)/2, and every internal node
	// has exactly zero or two children.
	leaves := 0
	for _, id := range pt.nodes {
		c := t.Children(id)
		if len(c) == 0 {
			leaves++
			continue
		}
		if len(c) != 2 {
			return nil, fmt.Errorf("phylotree: node %d: expecting 0 or 2 children, found %d", id, len(c))
		}
	}
	if leaves != (len(pt.nodes)+1)/2 {
		return nil, fmt.Errorf("phylotree: %d leaves, expecting %d for %d nodes", leaves, (len(pt.nodes)+1)/2, len(pt.nodes))
	}

	return pt, nil
}

func (t *Tree) branchLength(id int) float64 {
	p := t.t.Parent(id)
	return float64(t.t.Age(p)-t.t.Age(id)) / UnitScale
}

// Name returns the name of the tree.
func (t *Tree) Name() string {
	return t.t.Name()
}

// Root returns the ID of the root node.
func (t *Tree) Root() int {
	return t.t.Root()
}

// Nodes returns the IDs of every node, in ascending order.
func (t *Tree) Nodes() []int {
	return t.nodes
}

// NumNodes returns the number of nodes in the tree.
func (t *Tree) NumNodes() int {
	return len(t.nodes)
}

// IsRoot returns true if id is the root.
func (t *Tree) IsRoot(id int) bool {
	return t.t.IsRoot(id)
}

// IsLeaf returns true if id is a leaf (terminal) node.
func (t *Tree) IsLeaf(id int) bool {
	return t.t.IsTerm(id)
}

// Children returns the (zero or two) children of id.
func (t *Tree) Children(id int) []int {
	return t.t.Children(id)
}

// LChild returns the left child of an internal node.
func (t *Tree) LChild(id int) int {
	c := t.t.Children(id)
	return c[0]
}

// RChild returns the right child of an internal node.
func (t *Tree) RChild(id int) int {
	c := t.t.Children(id)
	return c[1]
}

// Parent returns the parent of id, or -1 at the root.
func (t *Tree) Parent(id int) int {
	if t.t.IsRoot(id) {
		return -1
	}
	return t.t.Parent(id)
}

// DParent returns the branch length to the parent. It is undefined
// (returns 0) at the root.
func (t *Tree) DParent(id int) float64 {
	if t.t.IsRoot(id) {
		return 0
	}
	return t.branchLength(id)
}

// Leaf returns the leaf name of a terminal node; it is undefined for
// internal nodes.
func (t *Tree) Leaf(id int) string {
	return t.t.Taxon(id)
}

// TotalBranchLength returns the sum of every branch length in the
// tree.
func (t *Tree) TotalBranchLength() float64 {
	return t.total
}

// Postorder calls visit on every node, children before parents.
func (t *Tree) Postorder(visit func(id int)) {
	var walk func(id int)
	walk = func(id int) {
		for _, c := range t.t.Children(id) {
			walk(c)
		}
		visit(id)
	}
	walk(t.t.Root())
}

// Preorder calls visit on every node, parents before children.
func (t *Tree) Preorder(visit func(id int)) {
	var walk func(id int)
	walk = func(id int) {
		visit(id)
		for _, c := range t.t.Children(id) {
			walk(c)
		}
	}
	walk(t.t.Root())
}

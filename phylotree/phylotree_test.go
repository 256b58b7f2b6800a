// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package phylotree_test

import (
	"testing"

	"github.com/js-arias/phast/phylotree"
	"github.com/js-arias/timetree"
)

// cherry builds the smallest valid tree: a root with two terminal
// children, at rootAge and rootAge-branch respectively.
func cherry(rootAge int64) *timetree.Tree {
	t := timetree.New("cherry", rootAge)
	t.Add(0, rootAge-10, "term0")
	t.Add(0, rootAge-20, "term1")
	return t
}

func TestNewNilTree(t *testing.T) {
	if _, err := phylotree.New(nil); err == nil {
		t.Fatalf("expecting error for a nil tree")
	}
}

func TestNew(t *testing.T) {
	tt := cherry(100)
	pt, err := phylotree.New(tt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if pt.NumNodes() != 3 {
		t.Fatalf("num nodes: got %d, want 3", pt.NumNodes())
	}

	root := pt.Root()
	if !pt.IsRoot(root) {
		t.Errorf("root: node %d should be root", root)
	}
	if pt.Parent(root) != -1 {
		t.Errorf("root parent: got %d, want -1", pt.Parent(root))
	}

	children := pt.Children(root)
	if len(children) != 2 {
		t.Fatalf("root children: got %d, want 2", len(children))
	}
	l, r := pt.LChild(root), pt.RChild(root)
	if l == r {
		t.Errorf("lchild and rchild should differ, both are %d", l)
	}

	for _, id := range pt.Nodes() {
		if id == root {
			continue
		}
		if !pt.IsLeaf(id) {
			t.Errorf("node %d: expecting a leaf", id)
			continue
		}
		if pt.Parent(id) != root {
			t.Errorf("leaf %d parent: got %d, want %d", id, pt.Parent(id), root)
		}
		if pt.DParent(id) <= 0 {
			t.Errorf("leaf %d branch length: got %v, want > 0", id, pt.DParent(id))
		}
		if pt.Leaf(id) == "" {
			t.Errorf("leaf %d: expecting a non-empty name", id)
		}
	}

	if pt.DParent(root) != 0 {
		t.Errorf("root branch length: got %v, want 0", pt.DParent(root))
	}

	if pt.TotalBranchLength() <= 0 {
		t.Errorf("total branch length: got %v, want > 0", pt.TotalBranchLength())
	}
}

func TestPostorderPreorder(t *testing.T) {
	tt := cherry(100)
	pt, err := phylotree.New(tt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var post []int
	pt.Postorder(func(id int) { post = append(post, id) })
	if len(post) != pt.NumNodes() {
		t.Fatalf("postorder length: got %d, want %d", len(post), pt.NumNodes())
	}
	if post[len(post)-1] != pt.Root() {
		t.Errorf("postorder: root should be visited last, got %d at the end", post[len(post)-1])
	}

	var pre []int
	pt.Preorder(func(id int) { pre = append(pre, id) })
	if len(pre) != pt.NumNodes() {
		t.Fatalf("preorder length: got %d, want %d", len(pre), pt.NumNodes())
	}
	if pre[0] != pt.Root() {
		t.Errorf("preorder: root should be visited first, got %d", pre[0])
	}
}

func TestNewRejectsUnbalancedTree(t *testing.T) {
	rootAge := int64(100)
	tt := timetree.New("unary", rootAge)
	tt.Add(0, rootAge-10, "term0")

	if _, err := phylotree.New(tt); err == nil {
		t.Errorf("expecting error for a root with a single child")
	}
}

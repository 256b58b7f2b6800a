// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package subtree_test

import (
	"math"
	"testing"

	"github.com/js-arias/phast/jumpproc"
	"github.com/js-arias/phast/phylotree"
	"github.com/js-arias/phast/ratemodel"
	"github.com/js-arias/phast/seqalign"
	"github.com/js-arias/phast/subtree"
	"github.com/js-arias/timetree"
)

// setup builds a two-leaf ("cherry") tree, a Jukes-Cantor jump
// process, and a one-column alignment shared by every test.
func setup(t *testing.T) (*phylotree.Tree, *jumpproc.JumpProcess, *ratemodel.Model, *seqalign.Alignment) {
	t.Helper()

	model, err := ratemodel.JukesCantor("ACGT", 1.0/3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rootAge := int64(100)
	tt := timetree.New("cherry", rootAge)
	tt.Add(0, rootAge-10, "term0")
	tt.Add(0, rootAge-20, "term1")
	tree, err := phylotree.New(tt)
	if err != nil {
		t.Fatalf("unexpected error building tree: %v", err)
	}

	jp, err := jumpproc.Build(model, tree)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	align := seqalign.New([]string{"term0", "term1"})
	if err := align.AddColumn([]byte{'A', 'C'}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	return tree, jp, model, align
}

func TestNewAlphabetMismatch(t *testing.T) {
	tree, jp, _, align := setup(t)
	bad, err := ratemodel.New("AC", [][]float64{{-1, 1}, {1, -1}}, []float64{0.5, 0.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := subtree.New(tree, jp, bad, align); err == nil {
		t.Errorf("expecting error for mismatched alphabet sizes")
	}
}

func TestScalarPosteriorAndPrior(t *testing.T) {
	tree, jp, model, align := setup(t)
	eng, err := subtree.New(tree, jp, model, align)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	post, err := eng.ScalarPosterior(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var sum float64
	for _, p := range post {
		sum += p
	}
	if math.Abs(sum-1) > 1e-6 {
		t.Errorf("posterior mass: got %v, want 1", sum)
	}
	// A substitution happened on at least one branch, since the two
	// leaves disagree; a zero-substitution outcome should carry no
	// posterior mass.
	if post[0] > 1e-9 {
		t.Errorf("posterior[0]: got %v, want ~0 for disagreeing leaves", post[0])
	}

	prior, err := eng.ScalarPrior()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sum = 0
	for _, p := range prior {
		sum += p
	}
	if math.Abs(sum-1) > 1e-6 {
		t.Errorf("prior mass: got %v, want 1", sum)
	}
}

func TestBivariatePosteriorAndPrior(t *testing.T) {
	tree, jp, model, align := setup(t)
	eng, err := subtree.New(tree, jp, model, align)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	post, err := eng.BivariatePosterior(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := post.CheckSum(); err != nil {
		t.Errorf("checksum: %v", err)
	}

	prior, err := eng.BivariatePrior()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := prior.CheckSum(); err != nil {
		t.Errorf("checksum: %v", err)
	}
}

func TestAlignmentScalarPosterior(t *testing.T) {
	tree, jp, model, align := setup(t)
	if err := align.AddColumn([]byte{'A', 'A'}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	eng, err := subtree.New(tree, jp, model, align)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	posts, err := eng.AlignmentScalarPosterior()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("length: got %d, want 2", len(posts))
	}
	for i, p := range posts {
		var sum float64
		for _, v := range p {
			sum += v
		}
		if math.Abs(sum-1) > 1e-6 {
			t.Errorf("tuple %d mass: got %v, want 1", i, sum)
		}
	}
}

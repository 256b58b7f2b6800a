// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package relentropy_test

import (
	"math"
	"testing"

	"github.com/js-arias/phast/jumpproc"
	"github.com/js-arias/phast/phylotree"
	"github.com/js-arias/phast/ratemodel"
	"github.com/js-arias/phast/relentropy"
	"github.com/js-arias/timetree"
)

func buildProcess(t *testing.T, qOff float64) (*phylotree.Tree, *jumpproc.JumpProcess) {
	t.Helper()
	model, err := ratemodel.JukesCantor("ACGT", qOff)
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
	return tree, jp
}

func TestCompute(t *testing.T) {
	tree, cons := buildProcess(t, 1.0/30)
	_, noncons := buildProcess(t, 1.0/3)

	e, err := relentropy.Compute(tree, cons, noncons)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(e.ConsSum-1) > relentropy.ChecksumTolerance {
		t.Errorf("cons checksum: got %v, want ~1", e.ConsSum)
	}
	if math.Abs(e.NonconsSum-1) > relentropy.ChecksumTolerance {
		t.Errorf("noncons checksum: got %v, want ~1", e.NonconsSum)
	}
	// A slower conserved model should diverge from a faster
	// non-conserved model at a positive relative entropy.
	if e.H <= 0 {
		t.Errorf("H: got %v, want > 0", e.H)
	}
}

func TestComputeAlphabetMismatch(t *testing.T) {
	tree, cons := buildProcess(t, 1.0/30)
	bad, err := ratemodel.New("AC", [][]float64{{-1, 1}, {1, -1}}, []float64{0.5, 0.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	badJP, err := jumpproc.Build(bad, tree)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := relentropy.Compute(tree, cons, badJP); err == nil {
		t.Errorf("expecting error for mismatched alphabet sizes")
	}
}

func TestLMinMax(t *testing.T) {
	tree, cons := buildProcess(t, 1.0/30)
	_, noncons := buildProcess(t, 1.0/3)
	e, err := relentropy.Compute(tree, cons, noncons)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lMin, lMax, err := relentropy.LMinMax(0.5, 100, e)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lMin <= 0 || lMax <= 0 {
		t.Errorf("L_min/L_max: got (%v, %v), want both > 0", lMin, lMax)
	}

	if _, _, err := relentropy.LMinMax(0, 100, e); err == nil {
		t.Errorf("expecting error for out-of-range gamma")
	}
	if _, _, err := relentropy.LMinMax(0.9, 0, e); err == nil {
		t.Errorf("expecting error for a non-positive omega")
	}
}

func TestNewtonInvert(t *testing.T) {
	tree, cons := buildProcess(t, 1.0/30)
	_, noncons := buildProcess(t, 1.0/3)
	e, err := relentropy.Compute(tree, cons, noncons)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res, err := relentropy.NewtonInvert(0.9, e.H, 10, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Omega <= 0 {
		t.Errorf("omega: got %v, want > 0", res.Omega)
	}
	if len(res.Trace) < 2 {
		t.Fatalf("trace: got %d entries, want at least 2", len(res.Trace))
	}
	if res.Trace[0] != 50 {
		t.Errorf("trace[0]: got %v, want the unclamped initial omega 50", res.Trace[0])
	}
	if res.Iterations <= 0 {
		t.Errorf("iterations: got %d, want > 0", res.Iterations)
	}
}

func TestNewtonInvertErrors(t *testing.T) {
	if _, err := relentropy.NewtonInvert(0, 1, 10, 50); err == nil {
		t.Errorf("expecting error for out-of-range gamma")
	}
	if _, err := relentropy.NewtonInvert(0.9, 0, 10, 50); err == nil {
		t.Errorf("expecting error for zero entropy")
	}
	if _, err := relentropy.NewtonInvert(0.9, 1, 10, 0); err == nil {
		t.Errorf("expecting error for a non-positive initial omega")
	}
}

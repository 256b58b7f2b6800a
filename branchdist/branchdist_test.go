// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package branchdist_test

import (
	"math"
	"testing"

	"github.com/js-arias/phast/branchdist"
)

func TestNewTableAt(t *testing.T) {
	tb := branchdist.NewTable(2, 3)
	if tb.Size() != 2 {
		t.Errorf("size: got %d, want 2", tb.Size())
	}
	if tb.NCols() != 3 {
		t.Errorf("ncols: got %d, want 3", tb.NCols())
	}
	if tb.At(0, 0, 0) != 0 {
		t.Errorf("at(0,0,0): got %v, want 0", tb.At(0, 0, 0))
	}
	if tb.At(0, 0, -1) != 0 || tb.At(0, 0, 5) != 0 {
		t.Errorf("out-of-range columns should read as 0")
	}
}

func TestBuildZeroBranch(t *testing.T) {
	tb, err := branchdist.Build(nil, 2, 3, 1, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for a := 0; a < 2; a++ {
		if tb.At(a, a, 0) != 1 {
			t.Errorf("at(%d,%d,0): got %v, want 1", a, a, tb.At(a, a, 0))
		}
	}
}

func TestBuildNegativeBranch(t *testing.T) {
	if _, err := branchdist.Build(nil, 2, 3, 1, -1); err == nil {
		t.Errorf("expecting error for a negative branch length")
	}
}

// identityTensor returns a B tensor that, for every jump count j,
// leaves every state unchanged and records n=0 substitutions: a
// process that never actually substitutes, used to check that Build
// normalizes and trims correctly.
func identityTensor(s, jmax int) [][][][]float64 {
	b := make([][][][]float64, s)
	for a := range b {
		b[a] = make([][][]float64, s)
		for bb := range b[a] {
			b[a][bb] = make([][]float64, jmax)
			for n := range b[a][bb] {
				b[a][bb][n] = make([]float64, jmax)
			}
		}
		for j := 0; j < jmax; j++ {
			b[a][a][0][j] = 1
		}
	}
	return b
}

func TestBuildNormalizesAndTrims(t *testing.T) {
	s, jmax := 2, 4
	b := identityTensor(s, jmax)

	// A tiny lambda*t concentrates nearly all Poisson mass at j=0,
	// so the resulting table should collapse to a single column.
	tb, err := branchdist.Build(b, s, jmax, 1e-9, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tb.NCols() != 1 {
		t.Errorf("ncols after trim: got %d, want 1", tb.NCols())
	}
	for a := 0; a < s; a++ {
		if math.Abs(tb.At(a, a, 0)-1) > 1e-6 {
			t.Errorf("at(%d,%d,0): got %v, want ~1", a, a, tb.At(a, a, 0))
		}
	}
}

func TestPoissonTerms(t *testing.T) {
	terms, err := branchdist.PoissonTerms(1, 0, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(terms) != 1 || terms[0] != 1 {
		t.Errorf("poisson at t=0: got %v, want [1]", terms)
	}

	if _, err := branchdist.PoissonTerms(100, 1, 2); err == nil {
		t.Errorf("expecting truncation error for a small jmax")
	}
}

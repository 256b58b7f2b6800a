// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package ratemodel_test

import (
	"math"
	"strings"
	"testing"

	"github.com/js-arias/phast/ratemodel"
)

func TestNew(t *testing.T) {
	q := [][]float64{
		{-1, 1},
		{1, -1},
	}
	pi := []float64{0.5, 0.5}

	m, err := ratemodel.New("AB", q, pi)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Alphabet() != "AB" {
		t.Errorf("alphabet: got %q, want %q", m.Alphabet(), "AB")
	}
	if m.Size() != 2 {
		t.Errorf("size: got %d, want 2", m.Size())
	}
	if i, ok := m.Index('B'); !ok || i != 1 {
		t.Errorf("index('B'): got (%d, %v), want (1, true)", i, ok)
	}
	if _, ok := m.Index('Z'); ok {
		t.Errorf("index('Z'): expecting ok=false")
	}
	if m.Q().Size() != 2 {
		t.Errorf("q size: got %d, want 2", m.Q().Size())
	}
	if len(m.Pi()) != 2 {
		t.Errorf("pi length: got %d, want 2", len(m.Pi()))
	}
}

func TestNewErrors(t *testing.T) {
	if _, err := ratemodel.New("", nil, nil); err == nil {
		t.Errorf("expecting error for an empty alphabet")
	}
	if _, err := ratemodel.New("AA", [][]float64{{-1, 1}, {1, -1}}, []float64{0.5, 0.5}); err == nil {
		t.Errorf("expecting error for a duplicated symbol")
	}
	if _, err := ratemodel.New("ABC", [][]float64{{-1, 1}, {1, -1}}, []float64{0.5, 0.5}); err == nil {
		t.Errorf("expecting error for alphabet/matrix size mismatch")
	}
	q := [][]float64{{-1, 1}, {1, -1}}
	if _, err := ratemodel.New("AB", q, []float64{0.5, 0.5, 0}); err == nil {
		t.Errorf("expecting error for alphabet/frequency size mismatch")
	}
}

func TestJukesCantor(t *testing.T) {
	m, err := ratemodel.JukesCantor("ACGT", 1.0/3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Size() != 4 {
		t.Fatalf("size: got %d, want 4", m.Size())
	}
	for i := 0; i < 4; i++ {
		if math.Abs(m.Pi()[i]-0.25) > 1e-9 {
			t.Errorf("pi[%d]: got %v, want 0.25", i, m.Pi()[i])
		}
		var rowSum float64
		for j := 0; j < 4; j++ {
			rowSum += m.Q().At(i, j)
		}
		if math.Abs(rowSum) > 1e-9 {
			t.Errorf("row %d sum: got %v, want 0", i, rowSum)
		}
	}
}

func TestReadTSV(t *testing.T) {
	const data = `kind	from	to	value
freq	-	A	0.25
freq	-	C	0.25
freq	-	G	0.25
freq	-	T	0.25
rate	A	C	0.333333
rate	A	G	0.333333
rate	A	T	0.333333
rate	C	A	0.333333
rate	C	G	0.333333
rate	C	T	0.333333
rate	G	A	0.333333
rate	G	C	0.333333
rate	G	T	0.333333
rate	T	A	0.333333
rate	T	C	0.333333
rate	T	G	0.333333
`
	m, err := ratemodel.ReadTSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Alphabet() != "ACGT" {
		t.Errorf("alphabet: got %q, want %q", m.Alphabet(), "ACGT")
	}
	i, ok := m.Index('G')
	if !ok {
		t.Fatalf("index('G'): expecting ok=true")
	}
	var rowSum float64
	for j := 0; j < m.Size(); j++ {
		rowSum += m.Q().At(i, j)
	}
	if math.Abs(rowSum) > 1e-9 {
		t.Errorf("row %d sum: got %v, want 0", i, rowSum)
	}
}

func TestReadTSVErrors(t *testing.T) {
	if _, err := ratemodel.ReadTSV(strings.NewReader("kind\tfrom\tto\n")); err == nil {
		t.Errorf("expecting error for a missing field")
	}
	if _, err := ratemodel.ReadTSV(strings.NewReader("kind\tfrom\tto\tvalue\nbogus\t-\tA\t0.5\n")); err == nil {
		t.Errorf("expecting error for an unknown kind")
	}
}

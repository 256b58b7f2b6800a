// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package pv_test

import (
	"math"
	"testing"

	"github.com/js-arias/phast/pv"
)

func TestPoint(t *testing.T) {
	v := pv.Point(3)
	if len(v) != 4 {
		t.Fatalf("length: got %d, want 4", len(v))
	}
	for i, p := range v {
		if i == 3 {
			if p != 1 {
				t.Errorf("at(%d): got %v, want 1", i, p)
			}
			continue
		}
		if p != 0 {
			t.Errorf("at(%d): got %v, want 0", i, p)
		}
	}
}

func TestNormalize(t *testing.T) {
	v := pv.Vector{1, 1, 1, 1}
	out, err := v.Normalize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := out.CheckSum(); err != nil {
		t.Errorf("checksum: %v", err)
	}
	for _, p := range out {
		if math.Abs(p-0.25) > 1e-12 {
			t.Errorf("entry: got %v, want 0.25", p)
		}
	}

	if _, err := pv.Vector{0, 0, 0}.Normalize(); err == nil {
		t.Errorf("expecting error for zero-mass vector")
	}
}

func TestNormalizeTrims(t *testing.T) {
	v := pv.Vector{0.999999999999, 1e-15, 1e-15}
	out, err := v.Normalize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Errorf("length: got %d, want 1 after trimming", len(out))
	}
}

func TestStats(t *testing.T) {
	// Binomial(2, 0.5): 0.25, 0.5, 0.25 -> mean 1, variance 0.5.
	v := pv.Vector{0.25, 0.5, 0.25}
	mean, variance := v.Stats()
	if math.Abs(mean-1) > 1e-9 {
		t.Errorf("mean: got %v, want 1", mean)
	}
	if math.Abs(variance-0.5) > 1e-9 {
		t.Errorf("variance: got %v, want 0.5", variance)
	}
}

func TestPValue(t *testing.T) {
	v := pv.Vector{0.1, 0.2, 0.3, 0.4}

	tests := map[string]struct {
		x    int
		side pv.Side
		want float64
	}{
		"lower in range": {x: 1, side: pv.Lower, want: 0.3},
		"lower below":    {x: -1, side: pv.Lower, want: 0},
		"lower above":    {x: 10, side: pv.Lower, want: 1},
		"upper in range": {x: 2, side: pv.Upper, want: 0.7},
		"upper below":    {x: -1, side: pv.Upper, want: 1},
		"upper above":    {x: 10, side: pv.Upper, want: 0},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got := v.PValue(test.x, test.side)
			if math.Abs(got-test.want) > 1e-9 {
				t.Errorf("got %v, want %v", got, test.want)
			}
		})
	}
}

func TestConfidenceInterval(t *testing.T) {
	v := pv.Vector{0.1, 0.2, 0.4, 0.2, 0.1}
	lo, hi := v.ConfidenceInterval(0.8)
	if lo > 1 || hi < 3 {
		t.Errorf("interval [%d, %d] does not cover the expected mass region", lo, hi)
	}

	var sum float64
	for i := lo; i <= hi; i++ {
		sum += v[i]
	}
	if sum < 0.8 {
		t.Errorf("interval mass %v below requested 0.8", sum)
	}
}

func TestConvolve(t *testing.T) {
	// Bernoulli(0.5) convolved 3 times is Binomial(3, 0.5).
	b := pv.Vector{0.5, 0.5}
	out, err := b.Convolve(3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{0.125, 0.375, 0.375, 0.125}
	if len(out) != len(want) {
		t.Fatalf("length: got %d, want %d", len(out), len(want))
	}
	for i, w := range want {
		if math.Abs(out[i]-w) > 1e-9 {
			t.Errorf("at(%d): got %v, want %v", i, out[i], w)
		}
	}

	if _, err := b.Convolve(0); err == nil {
		t.Errorf("expecting error for non-positive count")
	}
}

func TestConvolveMany(t *testing.T) {
	a := pv.Vector{0.5, 0.5}
	c := pv.Vector{1}
	out, err := pv.ConvolveMany([]pv.Vector{a, c}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("length: got %d, want 2", len(out))
	}
	for i, p := range out {
		if math.Abs(p-a[i]) > 1e-9 {
			t.Errorf("at(%d): got %v, want %v", i, p, a[i])
		}
	}

	out2, err := pv.ConvolveMany([]pv.Vector{a}, []int{3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	direct, err := a.Convolve(3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range direct {
		if math.Abs(out2[i]-direct[i]) > 1e-9 {
			t.Errorf("at(%d): got %v, want %v", i, out2[i], direct[i])
		}
	}

	if _, err := pv.ConvolveMany(nil, nil); err == nil {
		t.Errorf("expecting error for no vectors")
	}
	if _, err := pv.ConvolveMany([]pv.Vector{a}, []int{1, 2}); err == nil {
		t.Errorf("expecting error for mismatched counts")
	}
}

func TestZValue(t *testing.T) {
	z := pv.ZValue(0.95)
	if math.Abs(z-1.959963985) > 1e-6 {
		t.Errorf("z(0.95): got %v, want ~1.959963985", z)
	}
}

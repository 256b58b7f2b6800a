// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package distplot_test

import (
	"bytes"
	"image/color"
	"testing"

	"github.com/js-arias/phast/distplot"
	"github.com/js-arias/phast/pm"
	"github.com/js-arias/phast/pv"
)

func TestVectorImage(t *testing.T) {
	im := distplot.NewVectorImage(pv.Vector{0.1, 0.4, 0.2})
	b := im.Bounds()
	if b.Dx() != 3*distplot.CellSize || b.Dy() != distplot.CellSize {
		t.Fatalf("bounds: got %v, want %dx%d", b, 3*distplot.CellSize, distplot.CellSize)
	}

	// The maximum-valued entry should map to the gradient's top
	// value, and an out-of-range column to the "no data" gray.
	top := im.Gradient.Gradient(1)
	if got := im.At(1*distplot.CellSize, 0); got != top {
		t.Errorf("at max entry: got %v, want %v", got, top)
	}

	gray := color.RGBA{211, 211, 211, 255}
	if got := im.At(-1, 0); got != gray {
		t.Errorf("at(-1,0): got %v, want the out-of-range gray %v", got, gray)
	}
}

func TestMatrixImage(t *testing.T) {
	m := pm.Matrix{
		{0.1, 0.2},
		{0.3, 0.4},
	}
	im := distplot.NewMatrixImage(m)
	b := im.Bounds()
	if b.Dx() != 2*distplot.CellSize || b.Dy() != 2*distplot.CellSize {
		t.Fatalf("bounds: got %v, want %dx%d", b, 2*distplot.CellSize, 2*distplot.CellSize)
	}

	top := im.Gradient.Gradient(1)
	if got := im.At(1*distplot.CellSize, 1*distplot.CellSize); got != top {
		t.Errorf("at max entry: got %v, want %v", got, top)
	}
}

func TestWritePNG(t *testing.T) {
	im := distplot.NewVectorImage(pv.Vector{0.5, 0.5})
	var buf bytes.Buffer
	if err := distplot.WritePNG(&buf, im); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.Len() == 0 {
		t.Errorf("expecting non-empty PNG output")
	}
}

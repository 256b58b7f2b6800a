// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package distplot renders a pv.Vector or a pm.Matrix as a color
// image, for visual inspection of prior and posterior substitution-
// count distributions.
//
// It is adapted from probmap.Image: the same Gradienter interface and
// the same Paul Tol color-blind-safe palettes, with the geographic
// pixelation, plate-rotation, and landscape color-key machinery
// removed, since this package maps a 1-D or 2-D probability array
// through a gradient, not a sphere.
package distplot

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/js-arias/blind"
	"github.com/js-arias/phast/pm"
	"github.com/js-arias/phast/pv"
)

// A Gradienter returns a color for a value in [0, 1].
type Gradienter interface {
	Gradient(v float64) color.Color
}

// HalfGrayScale returns a gray scale between 0 (black) and 128 (gray).
type HalfGrayScale struct{}

func (h HalfGrayScale) Gradient(v float64) color.Color {
	v = clamp01(v)
	c := 128 - uint8(v*128)
	return color.RGBA{c, c, c, 255}
}

// Incandescent is the incandescent color scheme of Paul Tol.
type Incandescent struct{}

func (i Incandescent) Gradient(v float64) color.Color {
	return blind.Sequential(blind.Incandescent, clamp01(v))
}

// Iridescent is the iridescent color scheme of Paul Tol.
type Iridescent struct{}

func (i Iridescent) Gradient(v float64) color.Color {
	return blind.Sequential(blind.Iridescent, clamp01(v))
}

// RainbowPurpleToRed is the rainbow color scheme of Paul Tol, starting
// at purple and ending at red.
type RainbowPurpleToRed struct{}

func (r RainbowPurpleToRed) Gradient(v float64) color.Color {
	return blind.Sequential(blind.RainbowPurpleToRed, clamp01(v))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// CellSize is the default side length, in pixels, of one distribution
// entry.
const CellSize = 8

// A VectorImage renders a pv.Vector as a horizontal strip, one cell
// per entry, colored relative to the distribution's maximum value.
type VectorImage struct {
	V        pv.Vector
	Gradient Gradienter
	Cell     int

	max float64
}

// NewVectorImage creates a VectorImage with the default gradient and
// cell size.
func NewVectorImage(v pv.Vector) *VectorImage {
	return &VectorImage{V: v, Gradient: RainbowPurpleToRed{}, Cell: CellSize}
}

func (im *VectorImage) format() {
	if im.Gradient == nil {
		im.Gradient = RainbowPurpleToRed{}
	}
	if im.Cell == 0 {
		im.Cell = CellSize
	}
	if im.max == 0 {
		for _, p := range im.V {
			if p > im.max {
				im.max = p
			}
		}
	}
}

func (im *VectorImage) ColorModel() color.Model { return color.RGBAModel }

func (im *VectorImage) Bounds() image.Rectangle {
	im.format()
	return image.Rect(0, 0, len(im.V)*im.Cell, im.Cell)
}

func (im *VectorImage) At(x, y int) color.Color {
	im.format()
	n := x / im.Cell
	if x < 0 || n >= len(im.V) || im.max == 0 {
		return color.RGBA{211, 211, 211, 255}
	}
	return im.Gradient.Gradient(im.V[n] / im.max)
}

// A MatrixImage renders a pm.Matrix as a grid, one cell per (x, y)
// entry, colored relative to the distribution's maximum value.
type MatrixImage struct {
	M        pm.Matrix
	Gradient Gradienter
	Cell     int

	max float64
}

// NewMatrixImage creates a MatrixImage with the default gradient and
// cell size.
func NewMatrixImage(m pm.Matrix) *MatrixImage {
	return &MatrixImage{M: m, Gradient: RainbowPurpleToRed{}, Cell: CellSize}
}

func (im *MatrixImage) format() {
	if im.Gradient == nil {
		im.Gradient = RainbowPurpleToRed{}
	}
	if im.Cell == 0 {
		im.Cell = CellSize
	}
	if im.max == 0 {
		for _, row := range im.M {
			for _, p := range row {
				if p > im.max {
					im.max = p
				}
			}
		}
	}
}

func (im *MatrixImage) ColorModel() color.Model { return color.RGBAModel }

func (im *MatrixImage) Bounds() image.Rectangle {
	im.format()
	nrows, ncols := im.M.Dims()
	return image.Rect(0, 0, ncols*im.Cell, nrows*im.Cell)
}

// At maps image coordinate (x, y) to matrix entry M[row][col], where
// row grows downward from the top (row 0 at the top) and col grows
// rightward, so X (the left-subtree count) runs down the image and Y
// (the right-subtree count) runs across it.
func (im *MatrixImage) At(x, y int) color.Color {
	im.format()
	nrows, ncols := im.M.Dims()
	row := y / im.Cell
	col := x / im.Cell
	if row < 0 || row >= nrows || col < 0 || col >= ncols || im.max == 0 {
		return color.RGBA{211, 211, 211, 255}
	}
	return im.Gradient.Gradient(im.M[row][col] / im.max)
}

// WritePNG encodes an image.Image as a PNG to w.
func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("distplot: while writing PNG: %v", err)
	}
	return nil
}

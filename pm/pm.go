// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package pm implements operations on discrete bivariate probability
// matrices: the joint distribution of two non-negative integer random
// variables (X, Y) over a rectangular support.
package pm

import (
	"fmt"
	"math"

	"github.com/js-arias/phast/pv"
)

// TrimThreshold is the probability mass below which a trailing row or
// column is dropped from the retained support.
const TrimThreshold = 1e-10

// A Matrix is a joint probability distribution over
// {0, ..., nrows-1} x {0, ..., ncols-1}, indexed [x][y].
type Matrix [][]float64

// New returns a zero nrows x ncols matrix.
func New(nrows, ncols int) Matrix {
	m := make(Matrix, nrows)
	for i := range m {
		m[i] = make([]float64, ncols)
	}
	return m
}

// Dims returns the number of rows and columns of m.
func (m Matrix) Dims() (nrows, ncols int) {
	if len(m) == 0 {
		return 0, 0
	}
	return len(m), len(m[0])
}

func (m Matrix) sum() float64 {
	var sum float64
	for _, row := range m {
		for _, p := range row {
			sum += p
		}
	}
	return sum
}

// Normalize scales m so that it sums to one, then trims trailing rows
// and columns below TrimThreshold.
func (m Matrix) Normalize() (Matrix, error) {
	sum := m.sum()
	if sum <= 0 {
		return nil, fmt.Errorf("pm: normalize: zero-mass matrix")
	}

	nrows, ncols := m.Dims()
	out := New(nrows, ncols)
	for i := range m {
		for j := range m[i] {
			out[i][j] = m[i][j] / sum
		}
	}
	return out.trim(), nil
}

// trim drops trailing rows and columns with marginal mass below
// TrimThreshold.
func (m Matrix) trim() Matrix {
	nrows, ncols := m.Dims()
	if nrows == 0 {
		return m
	}

	for nrows > 1 {
		var rowMass float64
		for j := 0; j < ncols; j++ {
			rowMass += m[nrows-1][j]
		}
		if rowMass >= TrimThreshold {
			break
		}
		nrows--
	}
	for ncols > 1 {
		var colMass float64
		for i := 0; i < nrows; i++ {
			colMass += m[i][ncols-1]
		}
		if colMass >= TrimThreshold {
			break
		}
		ncols--
	}

	out := make(Matrix, nrows)
	for i := 0; i < nrows; i++ {
		out[i] = m[i][:ncols]
	}
	return out
}

// CheckSum returns an error if m does not sum to one within
// pv.SumTolerance.
func (m Matrix) CheckSum() error {
	sum := m.sum()
	if math.Abs(sum-1) > pv.SumTolerance {
		return fmt.Errorf("pm: probability sum %v out of [%v, %v]", sum, 1-pv.SumTolerance, 1+pv.SumTolerance)
	}
	return nil
}

// MargX returns the marginal distribution of X: sum over Y of m[x][y].
func (m Matrix) MargX() pv.Vector {
	nrows, ncols := m.Dims()
	out := pv.New(nrows)
	for x := 0; x < nrows; x++ {
		var sum float64
		for y := 0; y < ncols; y++ {
			sum += m[x][y]
		}
		out[x] = sum
	}
	return out
}

// MargY returns the marginal distribution of Y: sum over X of m[x][y].
func (m Matrix) MargY() pv.Vector {
	nrows, ncols := m.Dims()
	out := pv.New(ncols)
	for y := 0; y < ncols; y++ {
		var sum float64
		for x := 0; x < nrows; x++ {
			sum += m[x][y]
		}
		out[y] = sum
	}
	return out
}

// MargTot returns the distribution of the total S = X + Y, by diagonal
// summation.
func (m Matrix) MargTot() pv.Vector {
	nrows, ncols := m.Dims()
	if nrows == 0 {
		return pv.New(0)
	}
	out := pv.New(nrows + ncols - 1)
	for x := 0; x < nrows; x++ {
		for y := 0; y < ncols; y++ {
			out[x+y] += m[x][y]
		}
	}
	return out
}

// XGivenTot returns the conditional distribution of X given X+Y=s:
// entry x equals m[x][s-x] / margTot[s]. It fails if margTot[s] is
// zero.
func (m Matrix) XGivenTot(s int) (pv.Vector, error) {
	nrows, ncols := m.Dims()
	tot := m.MargTot()
	if s < 0 || s >= len(tot) || tot[s] == 0 {
		return nil, fmt.Errorf("pm: x given tot: undefined for total %d", s)
	}

	out := pv.New(nrows)
	for x := 0; x < nrows; x++ {
		y := s - x
		if y < 0 || y >= ncols {
			continue
		}
		out[x] = m[x][y] / tot[s]
	}
	return out, nil
}

// XGivenTotIndep returns the same quantity as XGivenTot, assuming X
// and Y are independent with marginals px and py: entry x equals
// px[x]*py[s-x] / sum_u px[u]*py[s-u].
func XGivenTotIndep(s int, px, py pv.Vector) (pv.Vector, error) {
	out := pv.New(len(px))
	var denom float64
	for x := 0; x < len(px); x++ {
		y := s - x
		if y < 0 || y >= len(py) {
			continue
		}
		out[x] = px[x] * py[y]
		denom += out[x]
	}
	if denom == 0 {
		return nil, fmt.Errorf("pm: x given tot indep: undefined for total %d", s)
	}
	for x := range out {
		out[x] /= denom
	}
	return out, nil
}

// Convolve returns the 2-fold convolution of m with itself: the
// distribution of (X1+X2, Y1+Y2) for two independent draws from m.
func (m Matrix) Convolve() Matrix {
	nrows, ncols := m.Dims()
	out := New(2*nrows-1, 2*ncols-1)
	for x1 := 0; x1 < nrows; x1++ {
		for y1 := 0; y1 < ncols; y1++ {
			p1 := m[x1][y1]
			if p1 == 0 {
				continue
			}
			for x2 := 0; x2 < nrows; x2++ {
				for y2 := 0; y2 < ncols; y2++ {
					out[x1+x2][y1+y2] += p1 * m[x2][y2]
				}
			}
		}
	}
	return out
}

// ConvolveManyFast convolves a list of bivariate probability matrices,
// truncating the output at every step to at most maxRows x maxCols
// (the caller-supplied CLT-derived bounds), to keep the computation
// tractable for long features.
func ConvolveManyFast(ms []Matrix, maxRows, maxCols int) (Matrix, error) {
	if len(ms) == 0 {
		return nil, fmt.Errorf("pm: convolve many fast: no matrices")
	}

	acc := ms[0]
	for _, next := range ms[1:] {
		acc = convolveTrunc(acc, next, maxRows, maxCols)
	}
	return acc, nil
}

func convolveTrunc(a, b Matrix, maxRows, maxCols int) Matrix {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	nrows := ar + br - 1
	if nrows > maxRows {
		nrows = maxRows
	}
	ncols := ac + bc - 1
	if ncols > maxCols {
		ncols = maxCols
	}

	out := New(nrows, ncols)
	for x1 := 0; x1 < ar; x1++ {
		for y1 := 0; y1 < ac; y1++ {
			p1 := a[x1][y1]
			if p1 == 0 {
				continue
			}
			for x2 := 0; x2 < br; x2++ {
				x := x1 + x2
				if x >= nrows {
					continue
				}
				for y2 := 0; y2 < bc; y2++ {
					y := y1 + y2
					if y >= ncols {
						continue
					}
					out[x][y] += p1 * b[x2][y2]
				}
			}
		}
	}
	return out
}

// Stats returns the means, variances, and covariance of (X, Y).
func (m Matrix) Stats() (meanX, meanY, varX, varY, cov float64) {
	nrows, ncols := m.Dims()
	for x := 0; x < nrows; x++ {
		for y := 0; y < ncols; y++ {
			p := m[x][y]
			meanX += float64(x) * p
			meanY += float64(y) * p
		}
	}
	for x := 0; x < nrows; x++ {
		for y := 0; y < ncols; y++ {
			p := m[x][y]
			dx := float64(x) - meanX
			dy := float64(y) - meanY
			varX += dx * dx * p
			varY += dy * dy * p
			cov += dx * dy * p
		}
	}
	return meanX, meanY, varX, varY, cov
}

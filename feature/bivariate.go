// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package feature

import (
	"math"

	"github.com/js-arias/phast/featurelist"
	"github.com/js-arias/phast/pm"
	"github.com/js-arias/phast/pv"
)

// DefaultMaxConvolveSize is the size guard used when the orchestrator
// has not been given an explicit one.
const DefaultMaxConvolveSize = 1_000_000

// CLTOrderThreshold is the feature length above which the joint
// convolution is truncated to CLT bounds rather than L times the
// single-site matrix dimensions.
const CLTOrderThreshold = 25

// SideStats holds the prior and posterior statistics and p-values for
// one side (left subtree, right subtree, or total) of a bivariate
// feature result.
type SideStats struct {
	PriorMean float64
	PriorVar  float64
	PriorLo   int
	PriorHi   int

	PostMean float64
	PostVar  float64
	PostMin  int
	PostMax  int

	PCons     float64
	PAntiCons float64

	// CondPCons and CondPAntiCons are the total-conditioned
	// p-values. They are left zero for the Total side, where
	// conditioning on the total is not meaningful.
	CondPCons     float64
	CondPAntiCons float64
}

// A BivariateResult holds the per-feature statistics for the joint
// (left subtree, right subtree) substitution-count distribution.
type BivariateResult struct {
	Name  string
	Start int
	End   int

	Left  SideStats
	Right SideStats
	Total SideStats

	// Approximate is true when the feature exceeded max_conv_len
	// and the joint prior was not explicitly convolved; marginal
	// p-values are still exact, but conditional-on-total p-values
	// use the independence approximation.
	Approximate bool
}

// tupleStatsMat caches a tuple's bivariate posterior moments.
type tupleStatsMat struct {
	meanX, meanY, varX, varY, cov float64
}

// SetMaxConvolveSize sets the bivariate size guard (spec.md §4.5). A
// value <= 0 resets it to DefaultMaxConvolveSize.
func (o *Orchestrator) SetMaxConvolveSize(n int) {
	o.maxConvolveSize = n
}

func (o *Orchestrator) maxConvolveSizeOrDefault() float64 {
	if o.maxConvolveSize <= 0 {
		return DefaultMaxConvolveSize
	}
	return float64(o.maxConvolveSize)
}

// ensurePriorMat0 caches the single-site bivariate prior.
func (o *Orchestrator) ensurePriorMat0() (pm.Matrix, error) {
	if len(o.powMat) > 0 {
		return o.powMat[0], nil
	}
	p0, err := o.eng.BivariatePrior()
	if err != nil {
		return nil, err
	}
	o.powMat = append(o.powMat, p0)
	return p0, nil
}

// ensurePowMat extends the joint power-of-two cache by repeated
// self-convolution, to at least `need` entries.
func (o *Orchestrator) ensurePowMat(need int) error {
	if _, err := o.ensurePriorMat0(); err != nil {
		return err
	}
	for len(o.powMat) < need {
		sq := o.powMat[len(o.powMat)-1].Convolve()
		norm, err := sq.Normalize()
		if err != nil {
			return err
		}
		o.powMat = append(o.powMat, norm)
	}
	return nil
}

func bitsNeeded(n int) int {
	need := 0
	for (1 << need) <= n {
		need++
	}
	return need
}

// ensureMarginalPowers extends the per-axis marginal power-of-two
// caches (derived from the single-site bivariate prior) to at least
// `need` entries each.
func (o *Orchestrator) ensureMarginalPowers(need int) error {
	p0, err := o.ensurePriorMat0()
	if err != nil {
		return err
	}
	if len(o.powX) == 0 {
		o.powX = append(o.powX, p0.MargX())
		o.powY = append(o.powY, p0.MargY())
	}
	for len(o.powX) < need {
		sq, err := pv.ConvolveMany([]pv.Vector{o.powX[len(o.powX)-1]}, []int{2})
		if err != nil {
			return err
		}
		o.powX = append(o.powX, sq)
	}
	for len(o.powY) < need {
		sq, err := pv.ConvolveMany([]pv.Vector{o.powY[len(o.powY)-1]}, []int{2})
		if err != nil {
			return err
		}
		o.powY = append(o.powY, sq)
	}
	return nil
}

func marginalForLength(pow []pv.Vector, l int) (pv.Vector, error) {
	idx := bitsOf(l)
	ps := make([]pv.Vector, len(idx))
	for i, b := range idx {
		ps[i] = pow[b]
	}
	return pv.ConvolveMany(ps, nil)
}

// maxConvLen finds the largest feature length L such that the
// CLT-bounded joint matrix size fits within maxSize, per spec.md §4.5.
func maxConvLen(muX, sigX, muY, sigY, maxSize float64) int {
	fits := func(l int) bool {
		fl := float64(l)
		sx := fl*muX + 6*sigX*math.Sqrt(fl)
		sy := fl*muY + 6*sigY*math.Sqrt(fl)
		return sx*sy <= maxSize
	}
	if !fits(1) {
		return 0
	}
	l := 1
	for fits(l + 1) {
		l++
	}
	return l
}

func transpose(m pm.Matrix) pm.Matrix {
	nrows, ncols := m.Dims()
	out := pm.New(ncols, nrows)
	for x := 0; x < nrows; x++ {
		for y := 0; y < ncols; y++ {
			out[y][x] = m[x][y]
		}
	}
	return out
}

// tupleMomentsMat returns (and caches) a tuple's bivariate posterior
// moments.
func (o *Orchestrator) tupleMomentsMat(tuple int) (tupleStatsMat, error) {
	if s, ok := o.postBivar[tuple]; ok {
		return s, nil
	}
	p, err := o.eng.BivariatePosterior(tuple)
	if err != nil {
		return tupleStatsMat{}, err
	}
	meanX, meanY, varX, varY, cov := p.Stats()
	s := tupleStatsMat{meanX: meanX, meanY: meanY, varX: varX, varY: varY, cov: cov}
	o.postBivar[tuple] = s
	return s, nil
}

// Bivariate computes the per-feature joint statistics and p-values of
// spec.md §4.5 for every feature in feats.
func (o *Orchestrator) Bivariate(feats []featurelist.Feature, tupleAt func(col int) int) ([]BivariateResult, error) {
	p0, err := o.ensurePriorMat0()
	if err != nil {
		return nil, err
	}
	muX, muY, varX, varY, _ := p0.Stats()
	sigX, sigY := math.Sqrt(varX), math.Sqrt(varY)
	baseRows, baseCols := p0.Dims()

	maxSize := o.maxConvolveSizeOrDefault()
	convLen := maxConvLen(muX, sigX, muY, sigY, maxSize)

	maxlen := 0
	touched := make(map[int]bool)
	for _, f := range feats {
		if f.Len() > maxlen {
			maxlen = f.Len()
		}
		for _, t := range o.tuplesOf(f, tupleAt) {
			touched[t] = true
		}
	}
	if maxlen == 0 {
		return nil, nil
	}

	if err := o.ensureMarginalPowers(bitsNeeded(maxlen)); err != nil {
		return nil, err
	}
	if convLen > 0 {
		if err := o.ensurePowMat(bitsNeeded(convLen)); err != nil {
			return nil, err
		}
	}
	for t := range touched {
		if _, err := o.tupleMomentsMat(t); err != nil {
			return nil, err
		}
	}

	out := make([]BivariateResult, len(feats))
	for i, f := range feats {
		l := f.Len()

		priorX, err := marginalForLength(o.powX, l)
		if err != nil {
			return nil, err
		}
		priorY, err := marginalForLength(o.powY, l)
		if err != nil {
			return nil, err
		}

		approx := l > convLen
		var joint pm.Matrix
		var priorTot pv.Vector
		if !approx {
			var maxRows, maxCols int
			if l > CLTOrderThreshold {
				fl := float64(l)
				maxRows = int(math.Ceil(fl*muX + 6*sigX*math.Sqrt(fl)))
				maxCols = int(math.Ceil(fl*muY + 6*sigY*math.Sqrt(fl)))
			} else {
				maxRows = l * baseRows
				maxCols = l * baseCols
			}
			idx := bitsOf(l)
			ps := make([]pm.Matrix, len(idx))
			for k, b := range idx {
				ps[k] = o.powMat[b]
			}
			j, err := pm.ConvolveManyFast(ps, maxRows, maxCols)
			if err != nil {
				return nil, err
			}
			joint, err = j.Normalize()
			if err != nil {
				return nil, err
			}
			priorTot = joint.MargTot()
		} else {
			priorTot, err = pv.ConvolveMany([]pv.Vector{priorX, priorY}, nil)
			if err != nil {
				return nil, err
			}
		}

		var postMeanX, postVarX, postMeanY, postVarY, postCov float64
		for _, t := range o.tuplesOf(f, tupleAt) {
			s := o.postBivar[t]
			postMeanX += s.meanX
			postVarX += s.varX
			postMeanY += s.meanY
			postVarY += s.varY
			postCov += s.cov
		}
		postMeanTot := postMeanX + postMeanY
		postVarTot := postVarX + postVarY + 2*postCov

		left := o.sideStats(priorX, postMeanX, postVarX)
		right := o.sideStats(priorY, postMeanY, postVarY)
		total := o.sideStats(priorTot, postMeanTot, postVarTot)

		totalObs := int(math.Round(postMeanTot))
		condX, condY := o.conditionals(joint, approx, priorX, priorY, totalObs)
		left.CondPCons = condX.PValue(left.PostMax, pv.Lower)
		left.CondPAntiCons = condX.PValue(left.PostMin, pv.Upper)
		right.CondPCons = condY.PValue(right.PostMax, pv.Lower)
		right.CondPAntiCons = condY.PValue(right.PostMin, pv.Upper)

		out[i] = BivariateResult{
			Name:        f.Name,
			Start:       f.Start,
			End:         f.End,
			Left:        left,
			Right:       right,
			Total:       total,
			Approximate: approx,
		}
	}
	return out, nil
}

func (o *Orchestrator) sideStats(prior pv.Vector, postMean, postVar float64) SideStats {
	priorMean, priorVar := prior.Stats()
	priorLo, priorHi := prior.ConfidenceInterval(DefaultCI)
	postMin, postMax := o.postInterval(postMean, postVar)
	return SideStats{
		PriorMean: priorMean,
		PriorVar:  priorVar,
		PriorLo:   priorLo,
		PriorHi:   priorHi,
		PostMean:  postMean,
		PostVar:   postVar,
		PostMin:   postMin,
		PostMax:   postMax,
		PCons:     prior.PValue(postMax, pv.Lower),
		PAntiCons: prior.PValue(postMin, pv.Upper),
	}
}

// conditionals returns the conditional-on-total distributions for X
// and Y, preferring the exact joint when available and falling back
// to the independence formula otherwise (including when the exact
// formula is undefined for the observed total, a degeneracy the
// orchestrator is not supposed to hit but defends against anyway).
func (o *Orchestrator) conditionals(joint pm.Matrix, approx bool, priorX, priorY pv.Vector, s int) (pv.Vector, pv.Vector) {
	if !approx && joint != nil {
		if cx, err := joint.XGivenTot(s); err == nil {
			if cy, err := transpose(joint).XGivenTot(s); err == nil {
				return cx, cy
			}
		}
	}
	cx, errX := pm.XGivenTotIndep(s, priorX, priorY)
	cy, errY := pm.XGivenTotIndep(s, priorY, priorX)
	if errX != nil {
		cx = priorX
	}
	if errY != nil {
		cy = priorY
	}
	return cx, cy
}

// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package feature implements the feature p-value orchestrator (C6): it
// combines per-site prior and posterior substitution-count
// distributions (C5) into per-feature statistics and p-values, for
// contiguous spans of alignment columns.
package feature

import (
	"fmt"
	"math"

	"github.com/js-arias/phast/featurelist"
	"github.com/js-arias/phast/pm"
	"github.com/js-arias/phast/pv"
	"github.com/js-arias/phast/subtree"
)

// DefaultCI is the confidence level used for a feature's prior
// interval, independent of the caller-supplied posterior ci.
const DefaultCI = 0.95

// A Result holds the scalar statistics and p-values for one feature.
type Result struct {
	Name  string
	Start int
	End   int

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
}

// tupleStats caches a tuple's posterior mean and variance.
type tupleStats struct {
	mean, variance float64
}

// An Orchestrator binds a tree dynamic program engine to the feature
// p-value workflow, caching the per-length prior powers and the
// per-tuple posterior moments described in spec.md §4.5.
type Orchestrator struct {
	eng *subtree.Engine
	ci  float64

	pow    []pv.Vector
	powMat []pm.Matrix
	powX   []pv.Vector
	powY   []pv.Vector

	maxConvolveSize int

	postScalar map[int]tupleStats
	postBivar  map[int]tupleStatsMat
}

// New creates an Orchestrator. ci is the confidence level used for
// posterior integer intervals (0 disables interval widening: both
// post_min and post_max equal the rounded mean).
func New(eng *subtree.Engine, ci float64) *Orchestrator {
	return &Orchestrator{
		eng:        eng,
		ci:         ci,
		postScalar: make(map[int]tupleStats),
		postBivar:  make(map[int]tupleStatsMat),
	}
}

// bitsOf returns the positions of the set bits of n, low to high.
func bitsOf(n int) []int {
	var out []int
	for i := 0; n > 0; i++ {
		if n&1 == 1 {
			out = append(out, i)
		}
		n >>= 1
	}
	return out
}

// preparePowers ensures pow[i] = prior-site-distribution (⋆) 2^i is
// cached for every i needed to decompose lengths up to maxlen.
func (o *Orchestrator) preparePowers(maxlen int) error {
	need := 0
	for (1 << need) <= maxlen {
		need++
	}
	if len(o.pow) >= need {
		return nil
	}

	if len(o.pow) == 0 {
		prior, err := o.eng.ScalarPrior()
		if err != nil {
			return err
		}
		o.pow = append(o.pow, prior)
	}
	for len(o.pow) < need {
		sq, err := pv.ConvolveMany([]pv.Vector{o.pow[len(o.pow)-1]}, []int{2})
		if err != nil {
			return err
		}
		o.pow = append(o.pow, sq)
	}
	return nil
}

// priorForLength returns prior-site-distribution (⋆) L, built from the
// cached powers of two by set-bit decomposition of L.
func (o *Orchestrator) priorForLength(l int) (pv.Vector, error) {
	if l <= 0 {
		return nil, fmt.Errorf("feature: non-positive feature length %d", l)
	}
	if err := o.preparePowers(l); err != nil {
		return nil, err
	}
	idx := bitsOf(l)
	ps := make([]pv.Vector, len(idx))
	for i, b := range idx {
		ps[i] = o.pow[b]
	}
	return pv.ConvolveMany(ps, nil)
}

// tupleMoments returns (and caches) the posterior mean and variance
// for a single alignment tuple.
func (o *Orchestrator) tupleMoments(tuple int) (tupleStats, error) {
	if s, ok := o.postScalar[tuple]; ok {
		return s, nil
	}
	p, err := o.eng.ScalarPosterior(tuple)
	if err != nil {
		return tupleStats{}, err
	}
	mean, variance := p.Stats()
	s := tupleStats{mean: mean, variance: variance}
	o.postScalar[tuple] = s
	return s, nil
}

// postInterval derives the integer posterior interval from an
// aggregated mean and variance, per spec.md §4.5.
func (o *Orchestrator) postInterval(mean, variance float64) (lo, hi int) {
	if o.ci <= 0 {
		r := int(math.Round(mean))
		return r, r
	}
	z := pv.ZValue(o.ci)
	sd := math.Sqrt(variance)
	lo = int(math.Floor(mean - z*sd))
	hi = int(math.Ceil(mean + z*sd))
	if lo < 0 {
		lo = 0
	}
	return lo, hi
}

// tuplesOf returns the alignment tuple index touched by every column
// of a feature.
func (o *Orchestrator) tuplesOf(f featurelist.Feature, tupleAt func(col int) int) []int {
	out := make([]int, 0, f.Len())
	for c := f.Start; c < f.End; c++ {
		out = append(out, tupleAt(c))
	}
	return out
}

// Scalar computes the per-feature scalar statistics and p-values of
// spec.md §4.5 for every feature in feats. tupleAt maps an alignment
// column to its tuple index (seqalign.Alignment.TupleAt).
func (o *Orchestrator) Scalar(feats []featurelist.Feature, tupleAt func(col int) int) ([]Result, error) {
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
	if err := o.preparePowers(maxlen); err != nil {
		return nil, err
	}
	for t := range touched {
		if _, err := o.tupleMoments(t); err != nil {
			return nil, err
		}
	}

	out := make([]Result, len(feats))
	for i, f := range feats {
		prior, err := o.priorForLength(f.Len())
		if err != nil {
			return nil, err
		}
		priorMean, priorVar := prior.Stats()
		priorLo, priorHi := prior.ConfidenceInterval(DefaultCI)

		var postMean, postVar float64
		for _, t := range o.tuplesOf(f, tupleAt) {
			s := o.postScalar[t]
			postMean += s.mean
			postVar += s.variance
		}
		postMin, postMax := o.postInterval(postMean, postVar)

		out[i] = Result{
			Name:      f.Name,
			Start:     f.Start,
			End:       f.End,
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
	return out, nil
}

// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package relentropy implements the relative-entropy and Newton
// iteration tool (C7): given a conserved and a non-conserved tree
// model over the same alphabet and tree, it enumerates every possible
// leaf labeling, computes the Kullback-Leibler divergence between the
// two models' per-column distributions, and inverts the detectable
// conserved-element length equation by Newton's method.
package relentropy

import (
	"fmt"
	"math"

	"github.com/js-arias/phast/jumpproc"
	"github.com/js-arias/phast/likecollab"
	"github.com/js-arias/phast/phylotree"
)

// ChecksumTolerance is the tolerance used to validate that each
// model's per-column distribution sums to one over every possible
// leaf labeling.
const ChecksumTolerance = 1e-4

// MaxNewtonIterations bounds the Newton inversion of §4.6.
const MaxNewtonIterations = 30

// NewtonTolerance is the convergence threshold on |Δμ|.
const NewtonTolerance = 1e-4

// MuMin and MuMax clamp μ at every Newton iteration.
const (
	MuMin = 1e-3
	MuMax = 1 - 1e-3
)

// Entropy holds the relative-entropy statistics of §4.6.
type Entropy struct {
	H    float64
	Halt float64

	// ConsSum and Noncons Sum are the checksums of §4.6: both must
	// be within ChecksumTolerance of one. Computing (and checking)
	// both, rather than checking cons twice, resolves the apparent
	// bug noted in spec.md §9.
	ConsSum    float64
	NonconsSum float64
}

// leafLabeling enumerates every assignment of alphabet states to
// tree leaves, in mixed-radix counting order.
type leafLabeling struct {
	leaves []int
	s      int
	digits []int
	done   bool
}

func newLeafLabeling(leaves []int, s int) *leafLabeling {
	return &leafLabeling{leaves: leaves, s: s, digits: make([]int, len(leaves))}
}

func (it *leafLabeling) labels() map[int]int {
	out := make(map[int]int, len(it.leaves))
	for i, id := range it.leaves {
		out[id] = it.digits[i]
	}
	return out
}

func (it *leafLabeling) next() bool {
	if it.done {
		return false
	}
	for i := len(it.digits) - 1; i >= 0; i-- {
		it.digits[i]++
		if it.digits[i] < it.s {
			return true
		}
		it.digits[i] = 0
	}
	it.done = true
	return false
}

// Compute enumerates all s^leafcount synthetic alignment columns over
// the shared tree and alphabet, and returns the relative-entropy
// statistics between the cons and noncons models.
func Compute(tree *phylotree.Tree, cons, noncons *jumpproc.JumpProcess) (Entropy, error) {
	if cons.Size() != noncons.Size() {
		return Entropy{}, fmt.Errorf("relentropy: cons alphabet size %d, noncons alphabet size %d", cons.Size(), noncons.Size())
	}

	var leaves []int
	for _, id := range tree.Nodes() {
		if tree.IsLeaf(id) {
			leaves = append(leaves, id)
		}
	}
	if len(leaves) == 0 {
		return Entropy{}, fmt.Errorf("relentropy: tree has no leaves")
	}

	consEng := likecollab.New(tree, cons)
	nonconsEng := likecollab.New(tree, noncons)

	var h, halt, consSum, nonconsSum float64
	it := newLeafLabeling(leaves, cons.Size())
	for {
		labels := it.labels()

		logCons, err := consEng.LogLikelihood2(labels)
		if err != nil {
			return Entropy{}, err
		}
		logNoncons, err := nonconsEng.LogLikelihood2(labels)
		if err != nil {
			return Entropy{}, err
		}

		pCons := math.Exp2(logCons)
		pNoncons := math.Exp2(logNoncons)

		h += pCons * (logCons - logNoncons)
		halt += pNoncons * (logNoncons - logCons)
		consSum += pCons
		nonconsSum += pNoncons

		if !it.next() {
			break
		}
	}

	e := Entropy{H: h, Halt: halt, ConsSum: consSum, NonconsSum: nonconsSum}
	if math.Abs(consSum-1) > ChecksumTolerance {
		return e, fmt.Errorf("relentropy: cons checksum %v out of [%v, %v]", consSum, 1-ChecksumTolerance, 1+ChecksumTolerance)
	}
	if math.Abs(nonconsSum-1) > ChecksumTolerance {
		return e, fmt.Errorf("relentropy: noncons checksum %v out of [%v, %v]", nonconsSum, 1-ChecksumTolerance, 1+ChecksumTolerance)
	}
	return e, nil
}

// LMinMax computes the expected minimum detectable conserved-element
// length L_min and the expected maximum tolerated non-conserved
// insertion length L_max, given a target coverage gamma, an expected
// conserved-element length omega, and an Entropy from Compute.
func LMinMax(gamma, omega float64, e Entropy) (lMin, lMax float64, err error) {
	if gamma <= 0 || gamma >= 1 {
		return 0, 0, fmt.Errorf("relentropy: coverage %v out of (0, 1)", gamma)
	}
	if omega <= 0 {
		return 0, 0, fmt.Errorf("relentropy: non-positive expected length %v", omega)
	}

	mu := 1 / omega
	nu := mu * gamma / (1 - gamma)
	if nu <= 0 || nu >= 1 {
		return 0, 0, fmt.Errorf("relentropy: derived nu %v out of (0, 1)", nu)
	}

	num := math.Log2(nu) + math.Log2(mu) - math.Log2(1-nu) - math.Log2(1-mu)
	denomMin := math.Log2(1-nu) - math.Log2(1-mu) - e.H
	denomMax := math.Log2(1-mu) - math.Log2(1-nu) - e.Halt
	if denomMin == 0 || denomMax == 0 {
		return 0, 0, fmt.Errorf("relentropy: zero denominator computing L_min/L_max")
	}

	return num / denomMin, num / denomMax, nil
}

// NewtonResult is the outcome of a Newton inversion.
type NewtonResult struct {
	// Omega is the solved expected conserved-element length.
	Omega float64
	// Trace holds the sequence of omega values printed during the
	// iteration: Trace[0] is the initial, unclamped omega (1/mu at
	// the starting point, before any update); Trace[1:] are the
	// clamped omega at each subsequent iterate. This resolves the
	// printing convention left open in spec.md §9.
	Trace      []float64
	Iterations int
}

// NewtonInvert solves for the expected conserved-element length omega
// that achieves a target L_min*H product, given a fixed coverage
// gamma, entropy H, and a starting expected length omegaInit (used
// only to seed mu1 = 1/omegaInit).
func NewtonInvert(gamma, h, target, omegaInit float64) (NewtonResult, error) {
	if gamma <= 0 || gamma >= 1 {
		return NewtonResult{}, fmt.Errorf("relentropy: coverage %v out of (0, 1)", gamma)
	}
	if h == 0 {
		return NewtonResult{}, fmt.Errorf("relentropy: zero entropy, target L_min is undefined")
	}
	if omegaInit <= 0 {
		return NewtonResult{}, fmt.Errorf("relentropy: non-positive initial expected length %v", omegaInit)
	}

	lt := target / h
	gammaPrime := gamma / (1 - gamma)

	f := func(mu float64) float64 {
		return (lt+1)*math.Log(1-gammaPrime*mu) - (lt-1)*math.Log(1-mu) - math.Log(gammaPrime*mu) - math.Log(mu) - target*math.Ln2
	}
	fPrime := func(mu float64) float64 {
		return -(lt+1)*gammaPrime/(1-gammaPrime*mu) + (lt-1)/(1-mu) - 2/mu
	}

	clamp := func(mu float64) float64 {
		if mu < MuMin {
			return MuMin
		}
		if mu > MuMax {
			return MuMax
		}
		return mu
	}

	mu := 1 / omegaInit
	res := NewtonResult{Trace: []float64{1 / mu}}
	mu = clamp(mu)

	for i := 0; i < MaxNewtonIterations; i++ {
		fv := f(mu)
		fp := fPrime(mu)
		if fp == 0 {
			return res, fmt.Errorf("relentropy: newton iteration %d: zero derivative", i)
		}
		next := clamp(mu - fv/fp)
		res.Trace = append(res.Trace, 1/next)
		res.Iterations = i + 1

		if math.Abs(next-mu) < NewtonTolerance {
			res.Omega = 1 / next
			return res, nil
		}
		mu = next
	}

	return res, fmt.Errorf("relentropy: newton iteration failed to converge within %d steps", MaxNewtonIterations)
}

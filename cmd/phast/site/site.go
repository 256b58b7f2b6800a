// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package site implements a command to print the per-site,
// per-tuple scalar or bivariate substitution-count distribution
// table of a phast project.
package site

import (
	"fmt"
	"math"

	"github.com/js-arias/command"
	"github.com/js-arias/phast/jumpproc"
	"github.com/js-arias/phast/phastproj"
	"github.com/js-arias/phast/phylotree"
	"github.com/js-arias/phast/pv"
	"github.com/js-arias/phast/seqalign"
	"github.com/js-arias/phast/subtree"
)

var Command = &command.Command{
	Usage: `site [--noncons] [--bivariate] [--ci <value>]
	[--tree <name>] <project-file>`,
	Short: "print per-tuple substitution-count distributions",
	Long: `
Command site reads a phast project and prints, for every distinct leaf-
character tuple present in the alignment, the mean and variance of the prior
and posterior scalar substitution-count distribution (the tree dynamic
program of C5), the posterior interval, and the one-site p-values.

Use the flag --bivariate to print the means and variances of the joint
(left-subtree, right-subtree) distribution instead; that table has no
intervals or p-values.

Use the flag --noncons to evaluate the background model instead of the cons
(tree-conditioned) model. Use --tree to select a tree by name when the
project's tree file holds more than one tree.

By default, posterior intervals use a 0.95 confidence level; use --ci to
change it, or --ci 0 to report the rounded mean as a degenerate interval.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var nonconsFlag bool
var bivariateFlag bool
var ci float64
var treeName string

func setFlags(c *command.Command) {
	c.Flags().BoolVar(&nonconsFlag, "noncons", false, "")
	c.Flags().BoolVar(&bivariateFlag, "bivariate", false, "")
	c.Flags().Float64Var(&ci, "ci", 0.95, "")
	c.Flags().StringVar(&treeName, "tree", "", "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}
	p, err := phastproj.Read(args[0])
	if err != nil {
		return err
	}

	eng, align, err := buildEngine(p)
	if err != nil {
		return err
	}

	if bivariateFlag {
		return printBivariate(c, eng, align)
	}
	return printScalar(c, eng, align)
}

func buildEngine(p *phastproj.Project) (*subtree.Engine, *seqalign.Alignment, error) {
	set := phastproj.Cons
	if nonconsFlag {
		set = phastproj.Noncons
	}

	model, err := p.Model(set)
	if err != nil {
		return nil, nil, err
	}
	tt, err := p.Tree(treeName)
	if err != nil {
		return nil, nil, err
	}
	tree, err := phylotree.New(tt)
	if err != nil {
		return nil, nil, err
	}
	jp, err := jumpproc.Build(model, tree)
	if err != nil {
		return nil, nil, fmt.Errorf("while building jump process: %v", err)
	}
	al, err := p.Alignment()
	if err != nil {
		return nil, nil, err
	}

	eng, err := subtree.New(tree, jp, model, al)
	if err != nil {
		return nil, nil, err
	}
	return eng, al, nil
}

func printScalar(c *command.Command, eng *subtree.Engine, align *seqalign.Alignment) error {
	prior, err := eng.ScalarPrior()
	if err != nil {
		return err
	}
	priorMean, priorVar := prior.Stats()

	fmt.Fprintf(c.Stdout(), "tuple\tcount\tprior_mean\tprior_var\tpost_mean\tpost_var\tpost_min\tpost_max\tp_cons\tp_anticons\n")
	for t := 0; t < align.NumTuples(); t++ {
		n := align.Count(t)
		if n == 0 {
			continue
		}
		post, err := eng.ScalarPosterior(t)
		if err != nil {
			return err
		}
		postMean, postVar := post.Stats()
		lo, hi := interval(postMean, postVar)
		pCons := prior.PValue(hi, pv.Lower)
		pAnti := prior.PValue(lo, pv.Upper)
		fmt.Fprintf(c.Stdout(), "%d\t%d\t%.6f\t%.6f\t%.6f\t%.6f\t%d\t%d\t%.6g\t%.6g\n",
			t, n, priorMean, priorVar, postMean, postVar, lo, hi, pCons, pAnti)
	}
	return nil
}

func printBivariate(c *command.Command, eng *subtree.Engine, align *seqalign.Alignment) error {
	prior, err := eng.BivariatePrior()
	if err != nil {
		return err
	}
	pMeanX, pMeanY, pVarX, pVarY, _ := prior.Stats()

	fmt.Fprintf(c.Stdout(), "tuple\tcount\tprior_mean_x\tprior_var_x\tprior_mean_y\tprior_var_y\tpost_mean_x\tpost_var_x\tpost_mean_y\tpost_var_y\n")
	for t := 0; t < align.NumTuples(); t++ {
		n := align.Count(t)
		if n == 0 {
			continue
		}
		post, err := eng.BivariatePosterior(t)
		if err != nil {
			return err
		}
		meanX, meanY, varX, varY, _ := post.Stats()
		fmt.Fprintf(c.Stdout(), "%d\t%d\t%.6f\t%.6f\t%.6f\t%.6f\t%.6f\t%.6f\t%.6f\t%.6f\n",
			t, n, pMeanX, pVarX, pMeanY, pVarY, meanX, varX, meanY, varY)
	}
	return nil
}

func interval(mean, variance float64) (lo, hi int) {
	if ci <= 0 {
		r := int(math.Round(mean))
		return r, r
	}
	z := pv.ZValue(ci)
	sd := math.Sqrt(variance)
	lo = int(math.Floor(mean - z*sd))
	hi = int(math.Ceil(mean + z*sd))
	if lo < 0 {
		lo = 0
	}
	return lo, hi
}

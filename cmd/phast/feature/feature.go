// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package feature implements a command to print per-feature
// substitution-count statistics and p-values for a phast project.
package feature

import (
	"fmt"

	"github.com/js-arias/command"
	"github.com/js-arias/phast/feature"
	"github.com/js-arias/phast/jumpproc"
	"github.com/js-arias/phast/phastproj"
	"github.com/js-arias/phast/phylotree"
	"github.com/js-arias/phast/subtree"
)

var Command = &command.Command{
	Usage: `feature [--noncons] [--bivariate] [--ci <value>]
	[--max-conv <int>] [--tree <name>] <project-file>`,
	Short: "print per-feature substitution-count p-values",
	Long: `
Command feature reads a phast project and prints the per-feature statistics
and p-values of the feature p-value orchestrator (C6): for every feature in
the project's feature list, the prior and posterior substitution-count
moments, the posterior interval, and the conservation/anti-conservation
p-values.

Use the flag --bivariate to report the joint (left-subtree, right-subtree)
statistics, including the total-conditioned p-values, instead of the scalar
statistics.

Use the flag --max-conv to bound the size of the joint convolution used by
--bivariate (the default is feature.DefaultMaxConvolveSize).

Use the flag --noncons to evaluate the background model instead of the cons
(tree-conditioned) model. Use --tree to select a tree by name when the
project's tree file holds more than one tree.

By default, posterior intervals use a 0.95 confidence level; use --ci to
change it.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var nonconsFlag bool
var bivariateFlag bool
var ci float64
var maxConv int
var treeName string

func setFlags(c *command.Command) {
	c.Flags().BoolVar(&nonconsFlag, "noncons", false, "")
	c.Flags().BoolVar(&bivariateFlag, "bivariate", false, "")
	c.Flags().Float64Var(&ci, "ci", 0.95, "")
	c.Flags().IntVar(&maxConv, "max-conv", 0, "")
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

	set := phastproj.Cons
	if nonconsFlag {
		set = phastproj.Noncons
	}
	model, err := p.Model(set)
	if err != nil {
		return err
	}
	tt, err := p.Tree(treeName)
	if err != nil {
		return err
	}
	tree, err := phylotree.New(tt)
	if err != nil {
		return err
	}
	jp, err := jumpproc.Build(model, tree)
	if err != nil {
		return fmt.Errorf("while building jump process: %v", err)
	}
	al, err := p.Alignment()
	if err != nil {
		return err
	}
	feats, err := p.Features()
	if err != nil {
		return err
	}

	eng, err := subtree.New(tree, jp, model, al)
	if err != nil {
		return err
	}
	orc := feature.New(eng, ci)
	orc.SetMaxConvolveSize(maxConv)

	if bivariateFlag {
		res, err := orc.Bivariate(feats, al.TupleAt)
		if err != nil {
			return err
		}
		printBivariate(c, res)
		return nil
	}

	res, err := orc.Scalar(feats, al.TupleAt)
	if err != nil {
		return err
	}
	printScalar(c, res)
	return nil
}

func printScalar(c *command.Command, res []feature.Result) {
	fmt.Fprintf(c.Stdout(), "name\tstart\tend\tprior_mean\tprior_var\tprior_lo\tprior_hi\tpost_mean\tpost_var\tpost_min\tpost_max\tp_cons\tp_anticons\n")
	for _, r := range res {
		fmt.Fprintf(c.Stdout(), "%s\t%d\t%d\t%.6f\t%.6f\t%d\t%d\t%.6f\t%.6f\t%d\t%d\t%.6g\t%.6g\n",
			r.Name, r.Start, r.End, r.PriorMean, r.PriorVar, r.PriorLo, r.PriorHi,
			r.PostMean, r.PostVar, r.PostMin, r.PostMax, r.PCons, r.PAntiCons)
	}
}

func printBivariate(c *command.Command, res []feature.BivariateResult) {
	fmt.Fprintf(c.Stdout(), "name\tstart\tend\tside\tprior_mean\tprior_var\tpost_mean\tpost_var\tpost_min\tpost_max\tp_cons\tp_anticons\tcond_p_cons\tcond_p_anticons\n")
	for _, r := range res {
		sides := []struct {
			name string
			s    feature.SideStats
		}{
			{"left", r.Left},
			{"right", r.Right},
			{"total", r.Total},
		}
		for _, sd := range sides {
			s := sd.s
			fmt.Fprintf(c.Stdout(), "%s\t%d\t%d\t%s\t%.6f\t%.6f\t%.6f\t%.6f\t%d\t%d\t%.6g\t%.6g\t%.6g\t%.6g\n",
				r.Name, r.Start, r.End, sd.name, s.PriorMean, s.PriorVar,
				s.PostMean, s.PostVar, s.PostMin, s.PostMax,
				s.PCons, s.PAntiCons, s.CondPCons, s.CondPAntiCons)
		}
		if r.Approximate {
			fmt.Fprintf(c.Stdout(), "# %s: approximate (feature length exceeded the joint convolution bound)\n", r.Name)
		}
	}
}

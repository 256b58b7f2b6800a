// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package entropy implements a command to compute the relative
// entropy between a phast project's cons and noncons models, and,
// optionally, invert the detectable conserved-element length
// equation by Newton's method.
package entropy

import (
	"fmt"

	"github.com/js-arias/command"
	"github.com/js-arias/phast/jumpproc"
	"github.com/js-arias/phast/phastproj"
	"github.com/js-arias/phast/phylotree"
	"github.com/js-arias/phast/relentropy"
)

var Command = &command.Command{
	Usage: `entropy [--gamma <value>] [--omega <value>]
	[--target <value>] [--tree <name>] <project-file>`,
	Short: "compute relative entropy and invert conserved-element length",
	Long: `
Command entropy reads the cons and noncons models of a phast project,
enumerates every possible leaf labeling over the shared tree, and reports the
relative-entropy statistics of C7: H (the Kullback-Leibler divergence from
noncons to cons) and H_alt (the reverse divergence), together with the two
per-model checksums.

If both --gamma and --omega are given, the command also reports the expected
minimum detectable conserved-element length L_min and the expected maximum
tolerated non-conserved insertion length L_max for the given coverage gamma
and expected conserved-element length omega.

If --gamma, --target, and --omega are all given, the command instead inverts
the L_min equation by Newton's method, solving for the expected conserved-
element length that achieves the target L_min*H product, and prints the
iteration trace.

Use --tree to select a tree by name when the project's tree file holds more
than one tree.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var gamma float64
var omega float64
var target float64
var treeName string

func setFlags(c *command.Command) {
	c.Flags().Float64Var(&gamma, "gamma", 0, "")
	c.Flags().Float64Var(&omega, "omega", 0, "")
	c.Flags().Float64Var(&target, "target", 0, "")
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

	consModel, err := p.Model(phastproj.Cons)
	if err != nil {
		return err
	}
	nonconsModel, err := p.Model(phastproj.Noncons)
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

	cons, err := jumpproc.Build(consModel, tree)
	if err != nil {
		return fmt.Errorf("while building cons jump process: %v", err)
	}
	noncons, err := jumpproc.Build(nonconsModel, tree)
	if err != nil {
		return fmt.Errorf("while building noncons jump process: %v", err)
	}

	e, err := relentropy.Compute(tree, cons, noncons)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Stdout(), "H\t%.6f\n", e.H)
	fmt.Fprintf(c.Stdout(), "H_alt\t%.6f\n", e.Halt)
	fmt.Fprintf(c.Stdout(), "cons_checksum\t%.6f\n", e.ConsSum)
	fmt.Fprintf(c.Stdout(), "noncons_checksum\t%.6f\n", e.NonconsSum)

	if gamma <= 0 || omega <= 0 {
		return nil
	}

	if target > 0 {
		res, err := relentropy.NewtonInvert(gamma, e.H, target, omega)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.Stdout(), "omega\t%.6f\n", res.Omega)
		fmt.Fprintf(c.Stdout(), "iterations\t%d\n", res.Iterations)
		for i, v := range res.Trace {
			fmt.Fprintf(c.Stdout(), "trace[%d]\t%.6f\n", i, v)
		}
		return nil
	}

	lMin, lMax, err := relentropy.LMinMax(gamma, omega, e)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Stdout(), "L_min\t%.6f\n", lMin)
	fmt.Fprintf(c.Stdout(), "L_max\t%.6f\n", lMax)
	return nil
}

// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package build implements a command to register a rate model and a
// tree in a phast project, and validate that a JumpProcess can be
// built from them.
package build

import (
	"errors"
	"fmt"
	"os"

	"github.com/js-arias/command"
	"github.com/js-arias/phast/jumpproc"
	"github.com/js-arias/phast/phastproj"
	"github.com/js-arias/phast/phylotree"
)

var Command = &command.Command{
	Usage: `build [--noncons] [--tree <name>]
	<project-file> [<model-file>] [<tree-file>]`,
	Short: "build and validate a jump process",
	Long: `
Command build reads a continuous-time Markov substitution model and a time
calibrated tree, and validates that a jump process (the uniformized,
discrete-jump representation used by every other phast command) can be built
from them.

The first argument is the name of the project file. If no project file
exists, a new project will be created.

If a model-file is given, it will be set as the cons (tree-conditioned) rate
model of the project. Use the flag --noncons to set it as the background
model instead.

If a tree-file is given, it will be set as the tree file of the project. Use
the flag --tree to select a tree by name when the file holds more than one;
otherwise the file must hold exactly one tree.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var nonconsFlag bool
var treeName string

func setFlags(c *command.Command) {
	c.Flags().BoolVar(&nonconsFlag, "noncons", false, "")
	c.Flags().StringVar(&treeName, "tree", "", "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}
	p, err := openProject(args[0])
	if err != nil {
		return err
	}

	set := phastproj.Cons
	if nonconsFlag {
		set = phastproj.Noncons
	}

	if len(args) >= 2 {
		if _, err := p.Add(set, args[1]); err != nil {
			return err
		}
	}
	if len(args) >= 3 {
		if _, err := p.Add(phastproj.Tree, args[2]); err != nil {
			return err
		}
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

	if err := p.Write(); err != nil {
		return err
	}

	fmt.Fprintf(c.Stdout(), "model\t%s\n", set)
	fmt.Fprintf(c.Stdout(), "alphabet\t%s\n", model.Alphabet())
	fmt.Fprintf(c.Stdout(), "tree\t%s\n", tree.Name())
	fmt.Fprintf(c.Stdout(), "nodes\t%d\n", tree.NumNodes())
	fmt.Fprintf(c.Stdout(), "lambda\t%.6f\n", jp.Lambda())
	fmt.Fprintf(c.Stdout(), "jmax\t%d\n", jp.Jmax())
	return nil
}

func openProject(name string) (*phastproj.Project, error) {
	p, err := phastproj.Read(name)
	if errors.Is(err, os.ErrNotExist) {
		p := phastproj.New()
		p.SetName(name)
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to open project %q: %v", name, err)
	}
	return p, nil
}

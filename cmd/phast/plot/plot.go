// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package plot implements a command to render a site's prior or
// posterior substitution-count distribution as a PNG image.
package plot

import (
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/js-arias/command"
	"github.com/js-arias/phast/distplot"
	"github.com/js-arias/phast/jumpproc"
	"github.com/js-arias/phast/phastproj"
	"github.com/js-arias/phast/phylotree"
	"github.com/js-arias/phast/subtree"
)

var Command = &command.Command{
	Usage: `plot [--noncons] [--bivariate] [--chart] [--scale <color-scale>]
	[--cell <int>] [--tree <name>] -t|--tuple <int>
	-o|--output <file> <project-file>`,
	Short: "render a site's substitution-count distribution",
	Long: `
Command plot reads a phast project, evaluates the tree dynamic program (C5)
for a single alignment tuple, and renders the resulting scalar or bivariate
posterior distribution as a PNG image, using the color gradients of the
distplot package.

The flag --tuple, or -t, is required and selects the alignment tuple to
render.

The flag --output, or -o, is required and names the PNG file to write.

Use the flag --bivariate to render the joint (left-subtree, right-subtree)
posterior as a 2-D grid instead of the scalar posterior as a 1-D strip.

Use the flag --chart to render the scalar posterior as a bar chart instead of
a color strip (not compatible with --bivariate).

By default, a rainbow color scale will be used. Other color scales can be
defined using the --scale flag:

	- rainbow       default value, purple to red
	- incandescent
	- iridescent
	- gray          a gray scale from black to mid gray

Use --cell to change the pixel size of one distribution entry (default 8).
Use --noncons to evaluate the background model instead of the cons model.
Use --tree to select a tree by name when the project's tree file holds more
than one tree.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var nonconsFlag bool
var bivariateFlag bool
var chartFlag bool
var scale string
var cell int
var tuple int
var outFile string
var treeName string

func setFlags(c *command.Command) {
	c.Flags().BoolVar(&nonconsFlag, "noncons", false, "")
	c.Flags().BoolVar(&bivariateFlag, "bivariate", false, "")
	c.Flags().BoolVar(&chartFlag, "chart", false, "")
	c.Flags().StringVar(&scale, "scale", "rainbow", "")
	c.Flags().IntVar(&cell, "cell", distplot.CellSize, "")
	c.Flags().IntVar(&tuple, "tuple", -1, "")
	c.Flags().IntVar(&tuple, "t", -1, "")
	c.Flags().StringVar(&outFile, "output", "", "")
	c.Flags().StringVar(&outFile, "o", "", "")
	c.Flags().StringVar(&treeName, "tree", "", "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}
	if tuple < 0 {
		return c.UsageError("expecting tuple number, flag --tuple")
	}
	if outFile == "" {
		return c.UsageError("expecting output file, flag --output")
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
	if tuple >= al.NumTuples() {
		return fmt.Errorf("plot: tuple %d out of range, alignment has %d tuples", tuple, al.NumTuples())
	}

	eng, err := subtree.New(tree, jp, model, al)
	if err != nil {
		return err
	}

	gradient := gradientFor(scale)

	if bivariateFlag {
		post, err := eng.BivariatePosterior(tuple)
		if err != nil {
			return err
		}
		img := distplot.NewMatrixImage(post)
		img.Gradient = gradient
		img.Cell = cell
		return writePNG(outFile, img)
	}

	post, err := eng.ScalarPosterior(tuple)
	if err != nil {
		return err
	}
	if chartFlag {
		return chartVector(post, fmt.Sprintf("tuple %d posterior", tuple), outFile)
	}
	img := distplot.NewVectorImage(post)
	img.Gradient = gradient
	img.Cell = cell
	return writePNG(outFile, img)
}

func gradientFor(scale string) distplot.Gradienter {
	switch strings.ToLower(scale) {
	case "gray":
		return distplot.HalfGrayScale{}
	case "incandescent":
		return distplot.Incandescent{}
	case "iridescent":
		return distplot.Iridescent{}
	default:
		return distplot.RainbowPurpleToRed{}
	}
}

func writePNG(name string, img image.Image) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		e := f.Close()
		if e != nil && err == nil {
			err = e
		}
	}()

	return distplot.WritePNG(f, img)
}

// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Phast is a tool for statistical phylogenetic analysis of
// substitution-count distributions.
package main

import (
	"github.com/js-arias/command"
	"github.com/js-arias/phast/cmd/phast/build"
	"github.com/js-arias/phast/cmd/phast/entropy"
	"github.com/js-arias/phast/cmd/phast/feature"
	"github.com/js-arias/phast/cmd/phast/plot"
	"github.com/js-arias/phast/cmd/phast/site"
)

var app = &command.Command{
	Usage: "phast <command> [<argument>...]",
	Short: "a tool for statistical phylogenetic analysis of substitution-count distributions",
}

func init() {
	app.Add(build.Command)
	app.Add(site.Command)
	app.Add(feature.Command)
	app.Add(entropy.Command)
	app.Add(plot.Command)
}

func main() {
	app.Main()
}

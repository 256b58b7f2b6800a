// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package plot

import (
	"fmt"

	"github.com/js-arias/phast/pv"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// chartVector renders a scalar substitution-count distribution as a
// bar chart, using the same plot.New/plotter idiom as
// cmd/phygeo/diff/speed's time-series plots, adapted from a
// draw.Canvas line plot to a simple probability-mass bar chart.
func chartVector(v pv.Vector, title, file string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "substitutions"
	p.Y.Label.Text = "probability"

	vals := make(plotter.Values, len(v))
	for i, x := range v {
		vals[i] = x
	}

	bars, err := plotter.NewBarChart(vals, vg.Points(4))
	if err != nil {
		return fmt.Errorf("plot: while building bar chart: %v", err)
	}
	bars.Color = plotter.DefaultLineStyle.Color
	p.Add(bars)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, file); err != nil {
		return fmt.Errorf("plot: while saving chart %q: %v", file, err)
	}
	return nil
}

// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package featurelist implements reading of a GFF-like list of
// alignment features (contiguous column ranges) used to drive the
// feature p-value orchestrator.
package featurelist

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// A Feature is a contiguous span of alignment columns.
//
// Start and End are stored already translated to the core's 0-based,
// half-open convention [Start, End), from the 1-based, inclusive
// convention used in the source file.
type Feature struct {
	Name  string
	Start int
	End   int
}

// Len returns the feature length, in columns.
func (f Feature) Len() int { return f.End - f.Start }

// Read reads a list of features from a tab-delimited file.
//
// The file must contain the following fields:
//
//   - name, a label for the feature
//   - start, the 1-based, inclusive first column of the feature
//   - end, the 1-based, inclusive last column of the feature
//
// Here is an example file:
//
//	name	start	end
//	cns1	100	250
//	cns2	400	404
func Read(r io.Reader) ([]Feature, error) {
	tab := csv.NewReader(r)
	tab.Comma = '\t'
	tab.Comment = '#'

	head, err := tab.Read()
	if err != nil {
		return nil, fmt.Errorf("while reading header: %v", err)
	}
	fields := make(map[string]int, len(head))
	for i, h := range head {
		fields[strings.ToLower(h)] = i
	}
	for _, h := range []string{"name", "start", "end"} {
		if _, ok := fields[h]; !ok {
			return nil, fmt.Errorf("expecting field %q", h)
		}
	}

	var out []Feature
	for {
		row, err := tab.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tab.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("on row %d: %v", ln, err)
		}

		f := "start"
		start, err := strconv.Atoi(row[fields[f]])
		if err != nil {
			return nil, fmt.Errorf("on row %d: field %q: %v", ln, f, err)
		}

		f = "end"
		end, err := strconv.Atoi(row[fields[f]])
		if err != nil {
			return nil, fmt.Errorf("on row %d: field %q: %v", ln, f, err)
		}
		if end < start {
			return nil, fmt.Errorf("on row %d: end %d before start %d", ln, end, start)
		}

		out = append(out, Feature{
			Name:  row[fields["name"]],
			Start: start - 1,
			End:   end,
		})
	}

	return out, nil
}

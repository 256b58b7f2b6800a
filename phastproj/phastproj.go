// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package phastproj implements reading and writing of phast project
// files.
//
// Unlike a PhyGeo project — an open-ended registry of arbitrary
// dataset keywords accumulated over several kinds of analyses — a
// phast project is closed over exactly the five inputs the C1-C7 core
// and its CLI ever read: the cons and noncons rate models, the tree,
// the alignment, and the feature list. That closed schema is enforced
// here: Add and Read reject any dataset keyword outside the five
// known Dataset constants, and Sets and Write always walk them in
// their declared, pipeline order rather than a generic alphabetical
// sort, so a project file reads in the order the CLI commands consume
// it: cons, noncons, tree, alignment, features.
package phastproj

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Dataset is a keyword identifying one of the fixed inputs of a phast
// project.
type Dataset string

// Valid dataset types, in the order a project file presents them.
const (
	// File for the tree-conditioned (cons) rate matrix.
	Cons Dataset = "cons"

	// File for the background (noncons) rate matrix.
	Noncons Dataset = "noncons"

	// File for the phylogenetic tree.
	Tree Dataset = "tree"

	// File for the sufficient-statistics alignment.
	Alignment Dataset = "alignment"

	// File for the feature list.
	Features Dataset = "features"
)

// knownDatasets lists every valid Dataset keyword, in the canonical
// order used by Sets and Write.
var knownDatasets = []Dataset{Cons, Noncons, Tree, Alignment, Features}

// isKnown reports whether set is one of the five recognized phast
// datasets.
func isKnown(set Dataset) bool {
	for _, d := range knownDatasets {
		if d == set {
			return true
		}
	}
	return false
}

// A Project represents the paths of a phast analysis's fixed set of
// input datasets.
type Project struct {
	name  string
	paths map[Dataset]string
}

// New creates a new empty project.
func New() *Project {
	return &Project{
		paths: make(map[Dataset]string, len(knownDatasets)),
	}
}

var header = []string{
	"dataset",
	"path",
}

// Read reads a project file from a TSV file.
//
// The TSV must contain the following fields:
//
//   - dataset, one of "cons", "noncons", "tree", "alignment", or
//     "features"
//   - path, the path of the corresponding file
//
// Here is an example file:
//
//	# phast project files
//	dataset	path
//	cons	cons-rates.tab
//	noncons	noncons-rates.tab
//	tree	tree.tab
//	alignment	alignment.tab
//	features	features.tab
func Read(name string) (*Project, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tsv := csv.NewReader(f)
	tsv.Comma = '\t'
	tsv.Comment = '#'

	head, err := tsv.Read()
	if err != nil {
		return nil, fmt.Errorf("phastproj: on file %q: header: %v", name, err)
	}
	fields := make(map[string]int, len(head))
	for i, h := range head {
		fields[strings.ToLower(h)] = i
	}
	for _, h := range header {
		if _, ok := fields[h]; !ok {
			return nil, fmt.Errorf("phastproj: on file %q: expecting field %q", name, h)
		}
	}

	p := New()
	p.name = name
	for {
		row, err := tsv.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tsv.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("phastproj: on file %q: on row %d: %v", name, ln, err)
		}

		set := Dataset(strings.ToLower(row[fields["dataset"]]))
		if !isKnown(set) {
			return nil, fmt.Errorf("phastproj: on file %q: on row %d: unknown dataset %q", name, ln, set)
		}
		p.paths[set] = row[fields["path"]]
	}

	return p, nil
}

// Add sets the filepath of a dataset in a project, returning the
// previous path for that dataset. An empty path removes the dataset.
// It returns an error if set is not one of the five known Dataset
// keywords.
func (p *Project) Add(set Dataset, path string) (string, error) {
	if !isKnown(set) {
		return "", fmt.Errorf("phastproj: unknown dataset %q", set)
	}

	prev := p.paths[set]
	if path == "" {
		delete(p.paths, set)
		return prev, nil
	}
	p.paths[set] = path
	return prev, nil
}

// Path returns the path of the given dataset.
func (p *Project) Path(set Dataset) string {
	return p.paths[set]
}

// Sets returns the datasets defined on a project, in the canonical
// cons/noncons/tree/alignment/features order.
func (p *Project) Sets() []Dataset {
	sets := make([]Dataset, 0, len(p.paths))
	for _, d := range knownDatasets {
		if _, ok := p.paths[d]; ok {
			sets = append(sets, d)
		}
	}
	return sets
}

// SetName sets the project file name.
func (p *Project) SetName(name string) { p.name = name }

// Write writes a project into a file.
func (p *Project) Write() (err error) {
	f, err := os.Create(p.name)
	if err != nil {
		return err
	}
	defer func() {
		e := f.Close()
		if e != nil && err == nil {
			err = e
		}
	}()

	bw := bufio.NewWriter(f)
	fmt.Fprintf(bw, "# phast project files\n")
	fmt.Fprintf(bw, "# data save on: %s\n", time.Now().Format(time.RFC3339))
	tsv := csv.NewWriter(bw)
	tsv.Comma = '\t'
	tsv.UseCRLF = true

	if err := tsv.Write(header); err != nil {
		return fmt.Errorf("phastproj: on file %q: while writing header: %v", p.name, err)
	}

	for _, s := range p.Sets() {
		row := []string{string(s), p.paths[s]}
		if err := tsv.Write(row); err != nil {
			return fmt.Errorf("phastproj: on file %q: %v", p.name, err)
		}
	}

	tsv.Flush()
	if err := tsv.Error(); err != nil {
		return fmt.Errorf("phastproj: on file %q: while writing data: %v", p.name, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("phastproj: on file %q: while writing data: %v", p.name, err)
	}
	return nil
}

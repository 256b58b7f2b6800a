// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package phastproj

import (
	"fmt"
	"os"

	"github.com/js-arias/phast/featurelist"
	"github.com/js-arias/phast/ratemodel"
	"github.com/js-arias/phast/seqalign"
	"github.com/js-arias/timetree"
)

// Model returns the rate model stored under the given dataset (Cons
// or Noncons) of a project.
func (p *Project) Model(set Dataset) (*ratemodel.Model, error) {
	name := p.Path(set)
	if name == "" {
		return nil, fmt.Errorf("%s model not defined in project %q", set, p.name)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := ratemodel.ReadTSV(f)
	if err != nil {
		return nil, fmt.Errorf("on file %q: %v", name, err)
	}
	return m, nil
}

// Trees returns the tree collection stored in a project.
func (p *Project) Trees() (*timetree.Collection, error) {
	name := p.Path(Tree)
	if name == "" {
		return nil, fmt.Errorf("tree not defined in project %q", p.name)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := timetree.ReadTSV(f)
	if err != nil {
		return nil, fmt.Errorf("while reading file %q: %v", name, err)
	}
	return c, nil
}

// Tree returns a single tree from the project's tree collection. If
// name is empty, the collection must hold exactly one tree.
func (p *Project) Tree(name string) (*timetree.Tree, error) {
	tc, err := p.Trees()
	if err != nil {
		return nil, err
	}

	names := tc.Names()
	if len(names) == 0 {
		return nil, fmt.Errorf("tree file %q has no trees", p.Path(Tree))
	}
	if name != "" {
		t := tc.Tree(name)
		if t == nil {
			return nil, fmt.Errorf("tree %q not found in %q", name, p.Path(Tree))
		}
		return t, nil
	}
	if len(names) > 1 {
		return nil, fmt.Errorf("tree file %q holds %d trees, a tree name must be given", p.Path(Tree), len(names))
	}
	return tc.Tree(names[0]), nil
}

// Alignment returns the sufficient-statistics alignment stored in a
// project.
func (p *Project) Alignment() (*seqalign.Alignment, error) {
	name := p.Path(Alignment)
	if name == "" {
		return nil, fmt.Errorf("alignment not defined in project %q", p.name)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	al, err := seqalign.ReadTSV(f)
	if err != nil {
		return nil, fmt.Errorf("on file %q: %v", name, err)
	}
	return al, nil
}

// Features returns the feature list stored in a project.
func (p *Project) Features() ([]featurelist.Feature, error) {
	name := p.Path(Features)
	if name == "" {
		return nil, fmt.Errorf("features not defined in project %q", p.name)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fts, err := featurelist.Read(f)
	if err != nil {
		return nil, fmt.Errorf("on file %q: %v", name, err)
	}
	return fts, nil
}

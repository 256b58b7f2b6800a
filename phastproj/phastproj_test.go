// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package phastproj_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/js-arias/phast/phastproj"
)

func TestAddPathSets(t *testing.T) {
	p := phastproj.New()
	prev, err := p.Add(phastproj.Tree, "tree.tab")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prev != "" {
		t.Errorf("previous value: got %q, want empty", prev)
	}

	prev, err = p.Add(phastproj.Tree, "tree2.tab")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prev != "tree.tab" {
		t.Errorf("previous value: got %q, want %q", prev, "tree.tab")
	}

	if _, err := p.Add(phastproj.Cons, "cons.tab"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := p.Path(phastproj.Tree); got != "tree2.tab" {
		t.Errorf("path: got %q, want %q", got, "tree2.tab")
	}

	sets := p.Sets()
	if len(sets) != 2 {
		t.Fatalf("sets: got %d, want 2", len(sets))
	}
	// Sets must come back in the canonical pipeline order, not
	// insertion order: cons was added after tree.
	if sets[0] != phastproj.Cons || sets[1] != phastproj.Tree {
		t.Errorf("sets order: got %v, want [cons tree]", sets)
	}

	if _, err := p.Add(phastproj.Tree, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := p.Path(phastproj.Tree); got != "" {
		t.Errorf("path after removal: got %q, want empty", got)
	}
	if len(p.Sets()) != 1 {
		t.Errorf("sets after removal: got %d, want 1", len(p.Sets()))
	}
}

func TestAddUnknownDataset(t *testing.T) {
	p := phastproj.New()
	if _, err := p.Add(phastproj.Dataset("geomotion"), "geo.tab"); err == nil {
		t.Errorf("expecting error for a dataset keyword outside the five known ones")
	}
}

func TestWriteRead(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "project.tab")

	p := phastproj.New()
	p.SetName(name)
	for _, d := range []struct {
		set  phastproj.Dataset
		path string
	}{
		{phastproj.Cons, "cons-rates.tab"},
		{phastproj.Noncons, "noncons-rates.tab"},
		{phastproj.Tree, "tree.tab"},
		{phastproj.Alignment, "alignment.tab"},
		{phastproj.Features, "features.tab"},
	} {
		if _, err := p.Add(d.set, d.path); err != nil {
			t.Fatalf("unexpected error adding %q: %v", d.set, err)
		}
	}

	if err := p.Write(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := phastproj.Read(name)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sets := []phastproj.Dataset{phastproj.Cons, phastproj.Noncons, phastproj.Tree, phastproj.Alignment, phastproj.Features}
	for _, s := range sets {
		if got.Path(s) != p.Path(s) {
			t.Errorf("path(%s): got %q, want %q", s, got.Path(s), p.Path(s))
		}
	}
	if gotSets := got.Sets(); len(gotSets) != len(sets) {
		t.Fatalf("sets: got %d, want %d", len(gotSets), len(sets))
	} else {
		for i, s := range sets {
			if gotSets[i] != s {
				t.Errorf("sets[%d]: got %q, want %q", i, gotSets[i], s)
			}
		}
	}
}

func TestReadMissingFile(t *testing.T) {
	if _, err := phastproj.Read(filepath.Join(t.TempDir(), "missing.tab")); err == nil {
		t.Errorf("expecting error for a missing project file")
	}
}

func TestReadUnknownDataset(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "bad-project.tab")

	p := phastproj.New()
	p.SetName(name)
	if _, err := p.Add(phastproj.Tree, "tree.tab"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Write(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A project file carrying a PhyGeo-style open-registry keyword
	// must be rejected: phast's schema is closed over the five known
	// datasets.
	raw := "dataset\tpath\r\ntree\ttree.tab\r\ngeomotion\tgeo.tab\r\n"
	if err := os.WriteFile(name, []byte(raw), 0o644); err != nil {
		t.Fatalf("unexpected error writing raw file: %v", err)
	}
	if _, err := phastproj.Read(name); err == nil {
		t.Errorf("expecting error for an unknown dataset keyword")
	}
}

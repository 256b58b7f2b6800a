// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package seqalign implements a minimal multiple sequence alignment
// with precomputed sufficient statistics: the distinct alignment
// columns ("tuples"), their per-leaf characters, and their counts.
//
// Full MSA file-format support is outside the scope of this package
// (spec.md §1 treats it as an external collaborator's job); this is
// just enough to drive the tree dynamic program and its orchestrator.
package seqalign

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/js-arias/phast/phylotree"
)

// DefaultGap is the gap character used when none is set explicitly.
const DefaultGap = '-'

// DefaultMissing is the missing-data sentinel used when none is set
// explicitly.
const DefaultMissing = '?'

// An Alignment is a sufficient-statistics representation of a
// multiple sequence alignment: a list of distinct column tuples, each
// with a per-leaf character and a multiplicity (number of alignment
// columns sharing that tuple).
type Alignment struct {
	leaves  []string
	leafIdx map[string]int

	gap     byte
	missing map[byte]bool

	// tuples[t][leaf index] = observed character
	tuples [][]byte
	// counts[t] = number of columns with this tuple
	counts []int
	// colTuple[col] = tuple index of that column
	colTuple []int

	bindOnce sync.Once
	bind     *Binding
	bindErr  error
}

// New creates an empty alignment for the given leaf names, in the
// order their characters will be supplied.
func New(leaves []string) *Alignment {
	idx := make(map[string]int, len(leaves))
	for i, l := range leaves {
		idx[l] = i
	}
	return &Alignment{
		leaves:  leaves,
		leafIdx: idx,
		gap:     DefaultGap,
		missing: map[byte]bool{DefaultMissing: true},
	}
}

// SetGap sets the gap character.
func (al *Alignment) SetGap(c byte) { al.gap = c }

// SetMissing sets the set of missing-data sentinel characters.
func (al *Alignment) SetMissing(chars string) {
	al.missing = make(map[byte]bool, len(chars))
	for i := 0; i < len(chars); i++ {
		al.missing[chars[i]] = true
	}
}

// GapChar returns the gap character.
func (al *Alignment) GapChar() byte { return al.gap }

// IsMissing returns true if c is a missing-data sentinel.
func (al *Alignment) IsMissing(c byte) bool { return al.missing[c] }

// AddColumn adds an alignment column (one character per leaf, in the
// same order as the leaves passed to New) as a new tuple, or
// increments the count of an existing identical tuple.
func (al *Alignment) AddColumn(chars []byte) error {
	if len(chars) != len(al.leaves) {
		return fmt.Errorf("seqalign: column has %d characters, expecting %d", len(chars), len(al.leaves))
	}
	for i, t := range al.tuples {
		if string(t) == string(chars) {
			al.counts[i]++
			al.colTuple = append(al.colTuple, i)
			return nil
		}
	}
	cp := make([]byte, len(chars))
	copy(cp, chars)
	al.tuples = append(al.tuples, cp)
	al.counts = append(al.counts, 1)
	al.colTuple = append(al.colTuple, len(al.tuples)-1)
	return nil
}

// NumTuples returns the number of distinct column tuples.
func (al *Alignment) NumTuples() int { return len(al.tuples) }

// NumSites returns the number of alignment columns (sites).
func (al *Alignment) NumSites() int { return len(al.colTuple) }

// TupleAt returns the tuple index of alignment column col.
func (al *Alignment) TupleAt(col int) int { return al.colTuple[col] }

// Count returns the number of columns sharing tuple t.
func (al *Alignment) Count(t int) int { return al.counts[t] }

// Leaves returns the leaf names, in binding order.
func (al *Alignment) Leaves() []string { return al.leaves }

// Char returns the observed character for tuple t at leaf index i
// (the index into the Leaves slice, not a tree node id).
func (al *Alignment) Char(t, i int) byte { return al.tuples[t][i] }

// A Binding maps phylogenetic tree leaf node IDs to alignment leaf
// indices (msa_seq_idx in spec.md §4.4/§6). It is built lazily on the
// first call to Bind, and cached for reuse.
type Binding struct {
	nodeToRow map[int]int
}

// Row returns the alignment leaf index bound to a tree leaf node.
func (b *Binding) Row(node int) (int, bool) {
	i, ok := b.nodeToRow[node]
	return i, ok
}

// Bind builds (or returns the cached) msa_seq_idx binding between the
// alignment's leaves and a tree's terminal nodes, matched by name.
func (al *Alignment) Bind(tree *phylotree.Tree) (*Binding, error) {
	al.bindOnce.Do(func() {
		nodeToRow := make(map[int]int)
		for _, id := range tree.Nodes() {
			if !tree.IsLeaf(id) {
				continue
			}
			name := tree.Leaf(id)
			i, ok := al.leafIdx[name]
			if !ok {
				al.bindErr = fmt.Errorf("seqalign: no alignment row for tree leaf %q", name)
				return
			}
			nodeToRow[id] = i
		}
		al.bind = &Binding{nodeToRow: nodeToRow}
	})
	return al.bind, al.bindErr
}

// ReadTSV reads a sufficient-statistics alignment from a tab-delimited
// file.
//
// The file must contain the following fields:
//
//   - tuple, the tuple index (0-based; tuples must be contiguous and
//     presented once per taxon)
//   - count, the number of alignment columns sharing the tuple
//     (repeated identically for every taxon row of the same tuple)
//   - taxon, the leaf name
//   - char, the observed character at that taxon for this tuple
//
// Here is an example file for two taxa and two tuples:
//
//	tuple	count	taxon	char
//	0	10	human	A
//	0	10	mouse	A
//	1	3	human	A
//	1	3	mouse	T
func ReadTSV(r io.Reader) (*Alignment, error) {
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
	for _, h := range []string{"tuple", "count", "taxon", "char"} {
		if _, ok := fields[h]; !ok {
			return nil, fmt.Errorf("expecting field %q", h)
		}
	}

	type tupleRow struct {
		count int
		chars map[string]byte
	}
	var order []int
	tuples := make(map[int]*tupleRow)
	leafSet := make(map[string]bool)

	for {
		row, err := tab.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tab.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("on row %d: %v", ln, err)
		}

		f := "tuple"
		tp, err := strconv.Atoi(row[fields[f]])
		if err != nil {
			return nil, fmt.Errorf("on row %d: field %q: %v", ln, f, err)
		}

		f = "count"
		cnt, err := strconv.Atoi(row[fields[f]])
		if err != nil {
			return nil, fmt.Errorf("on row %d: field %q: %v", ln, f, err)
		}

		f = "taxon"
		taxon := row[fields[f]]

		f = "char"
		ch := row[fields[f]]
		if len(ch) != 1 {
			return nil, fmt.Errorf("on row %d: field %q: expecting a single character, found %q", ln, f, ch)
		}

		t, ok := tuples[tp]
		if !ok {
			t = &tupleRow{count: cnt, chars: make(map[string]byte)}
			tuples[tp] = t
			order = append(order, tp)
		}
		t.chars[taxon] = ch[0]
		leafSet[taxon] = true
	}

	leaves := make([]string, 0, len(leafSet))
	for l := range leafSet {
		leaves = append(leaves, l)
	}
	sort.Strings(leaves)

	al := New(leaves)
	for _, tp := range order {
		t := tuples[tp]
		chars := make([]byte, len(leaves))
		for i, l := range leaves {
			c, ok := t.chars[l]
			if !ok {
				return nil, fmt.Errorf("tuple %d: missing character for taxon %q", tp, l)
			}
			chars[i] = c
		}
		for i := 0; i < t.count; i++ {
			if err := al.AddColumn(chars); err != nil {
				return nil, err
			}
		}
	}

	return al, nil
}

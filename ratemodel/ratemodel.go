// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package ratemodel implements reading and writing of a continuous-time
// Markov substitution model: an alphabet, a rate matrix, and background
// (equilibrium) frequencies.
package ratemodel

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/js-arias/phast/numeric"
)

// A Model is a substitution model over a finite alphabet: a rate
// matrix Q and its equilibrium frequencies π.
type Model struct {
	alphabet string
	index    map[byte]int
	q        *numeric.RateMatrix
	pi       numeric.Vector
}

// New builds a Model from an explicit alphabet, rate matrix, and
// frequency vector.
func New(alphabet string, q [][]float64, pi []float64) (*Model, error) {
	if len(alphabet) == 0 {
		return nil, fmt.Errorf("ratemodel: empty alphabet")
	}
	index := make(map[byte]int, len(alphabet))
	for i := 0; i < len(alphabet); i++ {
		index[alphabet[i]] = i
	}
	if len(index) != len(alphabet) {
		return nil, fmt.Errorf("ratemodel: duplicated symbol in alphabet %q", alphabet)
	}

	qm, err := numeric.NewRateMatrix(q)
	if err != nil {
		return nil, err
	}
	if qm.Size() != len(alphabet) {
		return nil, fmt.Errorf("ratemodel: alphabet size %d, rate matrix size %d", len(alphabet), qm.Size())
	}

	freq, err := numeric.NewFrequencies(pi)
	if err != nil {
		return nil, err
	}
	if len(freq) != len(alphabet) {
		return nil, fmt.Errorf("ratemodel: alphabet size %d, frequency vector size %d", len(alphabet), len(freq))
	}

	return &Model{
		alphabet: alphabet,
		index:    index,
		q:        qm,
		pi:       freq,
	}, nil
}

// Alphabet returns the substitution alphabet.
func (m *Model) Alphabet() string { return m.alphabet }

// Size returns the alphabet size S.
func (m *Model) Size() int { return len(m.alphabet) }

// Index returns the alphabet position of a character, and whether it
// is a valid alphabet symbol.
func (m *Model) Index(c byte) (int, bool) {
	i, ok := m.index[c]
	return i, ok
}

// Q returns the rate matrix.
func (m *Model) Q() *numeric.RateMatrix { return m.q }

// Pi returns the background (equilibrium) frequencies.
func (m *Model) Pi() numeric.Vector { return m.pi }

// JukesCantor builds a Jukes-Cantor rate matrix over the given
// alphabet, with every off-diagonal rate set to qOff and uniform
// background frequencies.
func JukesCantor(alphabet string, qOff float64) (*Model, error) {
	s := len(alphabet)
	q := make([][]float64, s)
	for i := range q {
		q[i] = make([]float64, s)
		var rowSum float64
		for j := range q[i] {
			if i == j {
				continue
			}
			q[i][j] = qOff
			rowSum += qOff
		}
		q[i][i] = -rowSum
	}

	pi := make([]float64, s)
	for i := range pi {
		pi[i] = 1.0 / float64(s)
	}

	return New(alphabet, q, pi)
}

// ReadTSV reads a substitution model from a tab-delimited file.
//
// The file must contain the following fields:
//
//   - kind, either "rate" or "freq"
//   - from, the source state (used for "rate" rows)
//   - to, the destination state (for "rate" rows) or the state whose
//     background frequency is given (for "freq" rows)
//   - value, the rate Q[from][to] (for "rate" rows, off-diagonal
//     entries only; the diagonal is computed from the row sum) or the
//     background frequency π[to] (for "freq" rows)
//
// Here is an example file for a Jukes-Cantor model:
//
//	kind	from	to	value
//	freq	-	A	0.25
//	freq	-	C	0.25
//	freq	-	G	0.25
//	freq	-	T	0.25
//	rate	A	C	0.333333
//	rate	A	G	0.333333
//	rate	A	T	0.333333
//	rate	C	A	0.333333
//	rate	C	G	0.333333
//	rate	C	T	0.333333
//	rate	G	A	0.333333
//	rate	G	C	0.333333
//	rate	G	T	0.333333
//	rate	T	A	0.333333
//	rate	T	C	0.333333
//	rate	T	G	0.333333
func ReadTSV(r io.Reader) (*Model, error) {
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
	for _, h := range []string{"kind", "from", "to", "value"} {
		if _, ok := fields[h]; !ok {
			return nil, fmt.Errorf("expecting field %q", h)
		}
	}

	rates := make(map[string]map[string]float64)
	freq := make(map[string]float64)
	states := make(map[string]bool)

	for {
		row, err := tab.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tab.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("on row %d: %v", ln, err)
		}

		f := "kind"
		kind := strings.ToLower(strings.TrimSpace(row[fields[f]]))

		f = "value"
		val, err := strconv.ParseFloat(row[fields[f]], 64)
		if err != nil {
			return nil, fmt.Errorf("on row %d: field %q: %q: %v", ln, f, row[fields[f]], err)
		}

		switch kind {
		case "freq":
			f = "to"
			st := row[fields[f]]
			freq[st] = val
			states[st] = true
		case "rate":
			f = "from"
			from := row[fields[f]]
			f = "to"
			to := row[fields[f]]
			if rates[from] == nil {
				rates[from] = make(map[string]float64)
			}
			rates[from][to] = val
			states[from] = true
			states[to] = true
		default:
			return nil, fmt.Errorf("on row %d: field %q: unknown kind %q", ln, "kind", kind)
		}
	}

	alphabet := make([]string, 0, len(states))
	for s := range states {
		alphabet = append(alphabet, s)
	}
	sort.Strings(alphabet)
	if len(alphabet) == 0 {
		return nil, fmt.Errorf("no states defined")
	}

	idx := make(map[string]int, len(alphabet))
	for i, s := range alphabet {
		if len(s) != 1 {
			return nil, fmt.Errorf("state %q: expecting a single character state", s)
		}
		idx[s] = i
	}

	q := make([][]float64, len(alphabet))
	for i, from := range alphabet {
		q[i] = make([]float64, len(alphabet))
		var rowSum float64
		for to, v := range rates[from] {
			j, ok := idx[to]
			if !ok {
				continue
			}
			if j == i {
				continue
			}
			q[i][j] = v
			rowSum += v
		}
		q[i][i] = -rowSum
	}

	pi := make([]float64, len(alphabet))
	for i, s := range alphabet {
		pi[i] = freq[s]
	}

	ab := strings.Join(alphabet, "")
	return New(ab, q, pi)
}

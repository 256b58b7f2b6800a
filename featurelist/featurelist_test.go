// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package featurelist_test

import (
	"strings"
	"testing"

	"github.com/js-arias/phast/featurelist"
)

func TestRead(t *testing.T) {
	const data = `name	start	end
cns1	100	250
cns2	400	404
`
	feats, err := featurelist.Read(strings.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(feats) != 2 {
		t.Fatalf("length: got %d, want 2", len(feats))
	}

	f := feats[0]
	if f.Name != "cns1" || f.Start != 99 || f.End != 250 {
		t.Errorf("cns1: got %+v, want {cns1 99 250}", f)
	}
	if f.Len() != 151 {
		t.Errorf("cns1 length: got %d, want 151", f.Len())
	}

	f = feats[1]
	if f.Start != 399 || f.End != 404 || f.Len() != 5 {
		t.Errorf("cns2: got %+v, want start=399, end=404, len=5", f)
	}
}

func TestReadErrors(t *testing.T) {
	if _, err := featurelist.Read(strings.NewReader("name\tstart\n")); err == nil {
		t.Errorf("expecting error for a missing field")
	}
	if _, err := featurelist.Read(strings.NewReader("name\tstart\tend\ncns1\t250\t100\n")); err == nil {
		t.Errorf("expecting error for end before start")
	}
}

// SPDX-License-Identifier: MIT

package check

import (
	"errors"
	"fmt"
	"slices"

	"github.com/katalvlaran/sparsegraph/sparse"
)

// Sentinel errors.
var (
	// ErrUnexpectedEntry marks an entry present in the pattern but not in the reference.
	ErrUnexpectedEntry = errors.New("check: entry not present in reference")

	// ErrMissingEntry marks an entry present in the reference but not in the pattern.
	ErrMissingEntry = errors.New("check: reference entry missing from pattern")

	// ErrUnordered marks CSR columns that are not strictly ascending within a row.
	ErrUnordered = errors.New("check: columns are not ordered")

	// ErrNilInput marks a nil pattern or CSR.
	ErrNilInput = errors.New("check: nil input")
)

// MismatchError names the first entry on which a check failed.
type MismatchError struct {
	Entry  sparse.Entry
	Reason error
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("entry %d,%d: %v", e.Entry.Row, e.Entry.Col, e.Reason)
}

// Unwrap returns the reason sentinel.
func (e *MismatchError) Unwrap() error { return e.Reason }

// Reference is the expected entry set with multiplicities.
type Reference map[sparse.Entry]int

// ReferenceFrom builds the reference of the full pairwise closure of conns by
// plain enumeration, independent of any graph implementation.
func ReferenceFrom(conns [][]sparse.Index) Reference {
	ref := make(Reference)
	for _, c := range conns {
		// Count each (i,j) once per list even if the list repeats an index.
		seen := make(map[sparse.Entry]struct{}, len(c)*len(c))
		for _, i := range c {
			for _, j := range c {
				e := sparse.Entry{Row: i, Col: j}
				if _, dup := seen[e]; dup {
					continue
				}
				seen[e] = struct{}{}
				ref[e]++
			}
		}
	}
	return ref
}

// Has reports whether (row, col) is expected.
func (r Reference) Has(row, col sparse.Index) bool {
	_, ok := r[sparse.Entry{Row: row, Col: col}]
	return ok
}

// Entries returns the expected entries sorted by (row, col).
func (r Reference) Entries() []sparse.Entry {
	out := make([]sparse.Entry, 0, len(r))
	for e := range r {
		out = append(out, e)
	}
	slices.SortFunc(out, compareEntries)
	return out
}

func compareEntries(a, b sparse.Entry) int {
	switch {
	case a.Row != b.Row:
		if a.Row < b.Row {
			return -1
		}
		return 1
	case a.Col < b.Col:
		return -1
	case a.Col > b.Col:
		return 1
	default:
		return 0
	}
}

// Graph checks p against ref in both directions.
//
// Errors: ErrNilInput; *MismatchError wrapping ErrUnexpectedEntry or ErrMissingEntry.
// Complexity: O(nnz + |ref|·cost(Has)).
func Graph(p sparse.Pattern, ref Reference) error {
	if p == nil {
		return ErrNilInput
	}
	for i, cols := range p.All() {
		for _, j := range cols {
			if !ref.Has(i, j) {
				return &MismatchError{Entry: sparse.Entry{Row: i, Col: j}, Reason: ErrUnexpectedEntry}
			}
		}
	}
	for _, e := range ref.Entries() {
		if !p.Has(e.Row, e.Col) {
			return &MismatchError{Entry: e, Reason: ErrMissingEntry}
		}
	}
	return nil
}

// CSR checks the arrays of c against ref in both directions and verifies
// that each row's columns strictly ascend.
//
// Errors: ErrNilInput; *MismatchError wrapping ErrUnexpectedEntry,
// ErrMissingEntry or ErrUnordered.
func CSR(c *sparse.CSR, ref Reference) error {
	if c == nil {
		return ErrNilInput
	}
	for i := 0; i < c.NumRows(); i++ {
		row := c.Row(sparse.Index(i))
		for k, j := range row {
			e := sparse.Entry{Row: sparse.Index(i), Col: j}
			if !ref.Has(e.Row, e.Col) {
				return &MismatchError{Entry: e, Reason: ErrUnexpectedEntry}
			}
			if k > 0 && row[k-1] >= j {
				return &MismatchError{Entry: e, Reason: ErrUnordered}
			}
		}
	}
	for _, e := range ref.Entries() {
		if !c.Has(e.Row, e.Col) {
			return &MismatchError{Entry: e, Reason: ErrMissingEntry}
		}
	}
	return nil
}

// Symmetric reports the first entry (i,j) of p whose mirror (j,i) is absent.
//
// Errors: ErrNilInput; *MismatchError wrapping ErrMissingEntry.
func Symmetric(p sparse.Pattern) error {
	if p == nil {
		return ErrNilInput
	}
	for i, cols := range p.All() {
		for _, j := range cols {
			if !p.Has(j, i) {
				return &MismatchError{Entry: sparse.Entry{Row: j, Col: i}, Reason: ErrMissingEntry}
			}
		}
	}
	return nil
}

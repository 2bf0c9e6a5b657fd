// SPDX-License-Identifier: MIT
// File: rowset.go
// Role: RowSet, the per-row deduplication unit shared by both graph kinds.
// Layout:
//   - cols holds the members densely (insertion order until Finalize).
//   - index is a lazily built hash index, created once a row outgrows
//     linearScanLimit; smaller rows are scanned linearly.
// Ordering:
//   - Before Finalize: unspecified.
//   - After Finalize: strictly ascending; later inserts keep it ascending.

package sparse

import (
	"iter"
	"slices"
)

// linearScanLimit is the row length above which membership switches from a
// linear scan of cols to the hash index.
const linearScanLimit = 16

// RowSet is a set of column indices for one row.
// The zero value is an empty, unfinalized set ready to use.
// RowSet is not safe for concurrent use; ContiguousGraph guards each row
// with its own mutex.
type RowSet struct {
	cols   []Index
	index  map[Index]struct{}
	sorted bool
}

// NewRowSet returns an empty RowSet with room for capacity columns.
func NewRowSet(capacity int) *RowSet {
	if capacity < 0 {
		capacity = 0
	}
	return &RowSet{cols: make([]Index, 0, capacity)}
}

// Insert adds col and reports whether it was newly added.
// Inserting an existing column is a no-op.
//
// Complexity: O(1) amortized before Finalize (O(k) scan for k ≤ linearScanLimit),
// O(k) after Finalize (binary search + shift).
func (s *RowSet) Insert(col Index) bool {
	if s.sorted {
		pos, found := slices.BinarySearch(s.cols, col)
		if found {
			return false
		}
		s.cols = slices.Insert(s.cols, pos, col)
		return true
	}

	if s.index != nil {
		if _, ok := s.index[col]; ok {
			return false
		}
		s.index[col] = struct{}{}
		s.cols = append(s.cols, col)
		return true
	}

	if slices.Contains(s.cols, col) {
		return false
	}
	s.cols = append(s.cols, col)
	if len(s.cols) > linearScanLimit {
		s.buildIndex()
	}
	return true
}

// buildIndex promotes the row from linear scanning to hashed membership.
func (s *RowSet) buildIndex() {
	s.index = make(map[Index]struct{}, 2*len(s.cols))
	for _, c := range s.cols {
		s.index[c] = struct{}{}
	}
}

// Contains reports whether col is a member.
func (s *RowSet) Contains(col Index) bool {
	switch {
	case s.sorted:
		_, found := slices.BinarySearch(s.cols, col)
		return found
	case s.index != nil:
		_, ok := s.index[col]
		return ok
	default:
		return slices.Contains(s.cols, col)
	}
}

// Finalize sorts the members ascending and drops the hash index.
// Calling it again is a no-op.
func (s *RowSet) Finalize() {
	if s.sorted {
		return
	}
	slices.Sort(s.cols)
	s.cols = slices.Clip(s.cols)
	s.index = nil
	s.sorted = true
}

// Finalized reports whether Finalize has been called since the last Reset.
func (s *RowSet) Finalized() bool { return s.sorted }

// Len returns the number of members.
func (s *RowSet) Len() int { return len(s.cols) }

// Cols returns the members in current order. The slice is owned by the set.
func (s *RowSet) Cols() []Index { return s.cols }

// All yields the members in current order.
func (s *RowSet) All() iter.Seq[Index] {
	return func(yield func(Index) bool) {
		for _, c := range s.cols {
			if !yield(c) {
				return
			}
		}
	}
}

// Union inserts every column of cols.
func (s *RowSet) Union(cols []Index) {
	for _, c := range cols {
		s.Insert(c)
	}
}

// Clone returns an independent copy.
func (s *RowSet) Clone() *RowSet {
	out := &RowSet{cols: slices.Clone(s.cols), sorted: s.sorted}
	if s.index != nil {
		out.buildIndex()
	}
	return out
}

// Reset empties the set and returns it to the unfinalized state.
func (s *RowSet) Reset() {
	s.cols = s.cols[:0]
	s.index = nil
	s.sorted = false
}

// SPDX-License-Identifier: MIT

package sparse

import (
	"iter"
	"math"
)

// Index identifies a row or column (a degree of freedom).
type Index uint64

// Entry is a single (row, col) position of the pattern.
type Entry struct {
	Row Index
	Col Index
}

// Kind tags the storage strategy of a graph in serialized payloads.
type Kind uint8

const (
	// KindMap is the map-backed Graph.
	KindMap Kind = 1
	// KindContiguous is the array-backed ContiguousGraph.
	KindContiguous Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindMap:
		return "map"
	case KindContiguous:
		return "contiguous"
	default:
		return "unknown"
	}
}

// Pattern is the read side shared by Graph and ContiguousGraph.
// Merge, the check package and the ordering package consume it.
type Pattern interface {
	// Has reports whether (row, col) is present.
	Has(row, col Index) bool

	// Size is the number of rows spanned by the pattern: the declared size of
	// a ContiguousGraph, or max(row)+1 of a Graph (0 when empty).
	Size() int

	// NumRows is the number of non-empty rows.
	NumRows() int

	// NonZeros is the total number of stored entries.
	NonZeros() int

	// Row returns the columns of row i in current order (ascending once
	// finalized). The slice is owned by the graph and must not be modified.
	Row(i Index) []Index

	// All yields non-empty rows in ascending row order.
	All() iter.Seq2[Index, []Index]

	// Finalized reports whether Finalize has been called.
	Finalized() bool
}

// isNilPattern reports whether p is nil or holds a nil graph pointer.
func isNilPattern(p Pattern) bool {
	switch v := p.(type) {
	case nil:
		return true
	case *Graph:
		return v == nil
	case *ContiguousGraph:
		return v == nil
	}
	return false
}

// spanOf returns top+1 as an int, saturating at math.MaxInt.
func spanOf(top Index) int {
	if top >= math.MaxInt {
		return math.MaxInt
	}
	return int(top) + 1
}

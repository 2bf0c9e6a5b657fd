// SPDX-License-Identifier: MIT
// File: graph.go
// Role: Graph, the map-backed sparsity graph with lazily created rows.
// Concurrency:
//   - NOT safe for concurrent mutation: row creation mutates the top-level map.
//     Build one Graph per goroutine and Merge them serially (see package assembly).
//   - Concurrent reads of a finalized Graph are safe.
// Determinism:
//   - All, ExportCSR and MarshalBinary visit rows in ascending row order.

package sparse

import (
	"fmt"
	"iter"
	"maps"
	"slices"
)

// GraphOption configures a Graph at construction.
type GraphOption func(*Graph)

// WithRowCapacity pre-sizes the row map for about n rows.
func WithRowCapacity(n int) GraphOption {
	return func(g *Graph) {
		if n > 0 {
			g.rows = make(map[Index]*RowSet, n)
		}
	}
}

// Graph is a map-backed sparsity graph: row index → RowSet.
type Graph struct {
	rows      map[Index]*RowSet
	order     []Index // ascending row ids; valid only when finalized
	top       Index   // highest row id; meaningless while rows is empty
	nnz       int
	finalized bool
}

// NewGraph returns an empty Graph.
// Complexity: O(1) (plus the optional pre-sizing).
func NewGraph(opts ...GraphOption) *Graph {
	g := &Graph{}
	for _, opt := range opts {
		opt(g)
	}
	if g.rows == nil {
		g.rows = make(map[Index]*RowSet)
	}
	return g
}

// row returns the RowSet for i, creating it on first use.
func (g *Graph) row(i Index) *RowSet {
	r, ok := g.rows[i]
	if !ok {
		r = &RowSet{}
		if len(g.rows) == 0 || i > g.top {
			g.top = i
		}
		g.rows[i] = r
	}
	return r
}

func (g *Graph) insert(i, j Index) {
	if g.row(i).Insert(j) {
		g.nnz++
	}
}

// AddEntries inserts the full pairwise closure of conn: for every i and j in
// conn (i == j included) column j is added to row i. The result is symmetric.
// An empty conn is a no-op.
//
// Errors: ErrFinalized.
// Complexity: O(k²) inserts for len(conn) == k.
func (g *Graph) AddEntries(conn []Index) error {
	if g.finalized {
		return ErrFinalized
	}
	for _, i := range conn {
		r := g.row(i)
		for _, j := range conn {
			if r.Insert(j) {
				g.nnz++
			}
		}
	}
	return nil
}

// AddEntry inserts the single entry (row, col). No mirror entry is added.
//
// Errors: ErrFinalized.
func (g *Graph) AddEntry(row, col Index) error {
	if g.finalized {
		return ErrFinalized
	}
	g.insert(row, col)
	return nil
}

// AddBlock inserts every (r, c) with r in rows and c in cols. Unlike
// AddEntries the block is not mirrored, so rectangular couplings stay
// asymmetric.
//
// Errors: ErrFinalized.
func (g *Graph) AddBlock(rows, cols []Index) error {
	if g.finalized {
		return ErrFinalized
	}
	if len(cols) == 0 {
		return nil
	}
	for _, i := range rows {
		r := g.row(i)
		for _, j := range cols {
			if r.Insert(j) {
				g.nnz++
			}
		}
	}
	return nil
}

// Merge adds every entry of other into g (row-wise union). It is the reduce
// step of per-goroutine assembly. Merging g into itself is a no-op.
//
// Errors: ErrNilGraph, ErrFinalized.
// Complexity: O(nnz(other)).
func (g *Graph) Merge(other Pattern) error {
	if isNilPattern(other) {
		return ErrNilGraph
	}
	if g.finalized {
		return ErrFinalized
	}
	if og, ok := other.(*Graph); ok {
		if og == g {
			return nil
		}
		// Direct map walk; row order does not affect a set union.
		for i, src := range og.rows {
			r := g.row(i)
			for _, j := range src.cols {
				if r.Insert(j) {
					g.nnz++
				}
			}
		}
		return nil
	}
	for i, cols := range other.All() {
		r := g.row(i)
		for _, j := range cols {
			if r.Insert(j) {
				g.nnz++
			}
		}
	}
	return nil
}

// Has reports whether (row, col) is present.
// Complexity: O(1) expected before Finalize, O(log k) after.
func (g *Graph) Has(row, col Index) bool {
	r, ok := g.rows[row]
	if !ok {
		return false
	}
	return r.Contains(col)
}

// Finalize sorts every row and freezes the graph. Calling it again is a no-op.
// Complexity: O(R log R + Σ k log k).
func (g *Graph) Finalize() {
	if g.finalized {
		return
	}
	for _, r := range g.rows {
		r.Finalize()
	}
	g.order = slices.Sorted(maps.Keys(g.rows))
	g.finalized = true
}

// Finalized reports whether Finalize has been called.
func (g *Graph) Finalized() bool { return g.finalized }

// Clear drops every row and returns g to the empty, unfinalized state.
func (g *Graph) Clear() {
	g.rows = make(map[Index]*RowSet)
	g.order = nil
	g.top = 0
	g.nnz = 0
	g.finalized = false
}

// Size returns max(row)+1 over existing rows, or 0 for an empty graph.
// It saturates at math.MaxInt when the highest row id does not fit an int.
func (g *Graph) Size() int {
	if len(g.rows) == 0 {
		return 0
	}
	return spanOf(g.top)
}

// NumRows returns the number of existing rows.
func (g *Graph) NumRows() int { return len(g.rows) }

// NonZeros returns the number of stored entries.
func (g *Graph) NonZeros() int { return g.nnz }

// Row returns the columns of row i (nil if absent). Ascending once finalized.
// The slice is owned by the graph.
func (g *Graph) Row(i Index) []Index {
	r, ok := g.rows[i]
	if !ok {
		return nil
	}
	return r.cols
}

// RowSet returns the RowSet of row i, or nil if absent.
func (g *Graph) RowSet(i Index) *RowSet { return g.rows[i] }

// rowOrder returns the existing row ids ascending.
func (g *Graph) rowOrder() []Index {
	if g.finalized {
		return g.order
	}
	return slices.Sorted(maps.Keys(g.rows))
}

// All yields the existing rows in ascending row order, regardless of the
// order in which they were created.
func (g *Graph) All() iter.Seq2[Index, []Index] {
	return func(yield func(Index, []Index) bool) {
		for _, i := range g.rowOrder() {
			if !yield(i, g.rows[i].cols) {
				return
			}
		}
	}
}

// Entries yields every (row, col) in ascending row order.
func (g *Graph) Entries() iter.Seq[Entry] {
	return entriesOf(g)
}

// Clone returns an independent deep copy, including the finalized state.
func (g *Graph) Clone() *Graph {
	out := &Graph{
		rows:      make(map[Index]*RowSet, len(g.rows)),
		order:     slices.Clone(g.order),
		top:       g.top,
		nnz:       g.nnz,
		finalized: g.finalized,
	}
	for i, r := range g.rows {
		out.rows[i] = r.Clone()
	}
	return out
}

// ExportCSR returns the CSR form of g over rows [0, Size()).
// Missing rows are zero-width.
//
// Errors: ErrNotFinalized; ErrBadSize if the highest row id is
// ≥ MaxCSRRows, since every row below it needs an offset.
// Complexity: O(Size() + nnz).
func (g *Graph) ExportCSR() (*CSR, error) {
	if !g.finalized {
		return nil, fmt.Errorf("export CSR: %w", ErrNotFinalized)
	}
	if len(g.rows) > 0 && g.top >= MaxCSRRows {
		return nil, fmt.Errorf("export CSR: highest row %d exceeds limit %d: %w", g.top, Index(MaxCSRRows), ErrBadSize)
	}
	return buildCSR(g.Size(), g.nnz, g.All()), nil
}

// ExportCSRArrays is ExportCSR returning the bare (rowOffsets, colIndices) pair.
func (g *Graph) ExportCSRArrays() (rowOffsets, colIndices []Index, err error) {
	csr, err := g.ExportCSR()
	if err != nil {
		return nil, nil, err
	}
	return csr.RowOffsets, csr.ColIndices, nil
}

// String returns a short summary, e.g. "sparse.Graph{rows=40 size=40 nnz=412 finalized=true}".
func (g *Graph) String() string {
	return fmt.Sprintf("sparse.Graph{rows=%d size=%d nnz=%d finalized=%t}",
		len(g.rows), g.Size(), g.nnz, g.finalized)
}

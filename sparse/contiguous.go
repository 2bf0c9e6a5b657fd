// SPDX-License-Identifier: MIT
// File: contiguous.go
// Role: ContiguousGraph, a fixed-size array of independently locked rows.
// Concurrency:
//   - AddEntries / AddEntry / AddBlock / Merge are safe from many goroutines.
//     Each row carries its own mutex; there is no graph-wide lock, so
//     goroutines touching disjoint rows never block each other.
//   - Finalize, Clear and the read side (Row, All, ExportCSR, MarshalBinary)
//     must happen-after every writer has returned. Has takes the row lock and
//     may run alongside writers.
// Bounds:
//   - Every index is validated before the first insertion; a violation returns
//     an *IndexError (errors.Is → ErrOutOfRange) and leaves the graph unchanged.

package sparse

import (
	"fmt"
	"iter"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// lockedRow is the unit of mutual exclusion of a ContiguousGraph.
type lockedRow struct {
	mu  sync.Mutex
	set RowSet
}

// ContiguousGraph is a sparsity graph over a declared number of rows.
type ContiguousGraph struct {
	rows      []lockedRow
	nnz       atomic.Int64
	finalized atomic.Bool
}

// NewContiguousGraph returns an empty graph with size rows.
//
// Errors: ErrBadSize if size < 0.
// Complexity: O(size).
func NewContiguousGraph(size int) (*ContiguousGraph, error) {
	if size < 0 {
		return nil, fmt.Errorf("new contiguous graph: size %d: %w", size, ErrBadSize)
	}
	return &ContiguousGraph{rows: make([]lockedRow, size)}, nil
}

// checkBounds returns an *IndexError for the first index ≥ Size().
func (g *ContiguousGraph) checkBounds(idx []Index) error {
	n := Index(len(g.rows))
	for _, i := range idx {
		if i >= n {
			return &IndexError{Index: i, Size: len(g.rows)}
		}
	}
	return nil
}

// insertRow adds cols to row i under its lock.
func (g *ContiguousGraph) insertRow(i Index, cols []Index) {
	r := &g.rows[i]
	added := 0
	r.mu.Lock()
	for _, j := range cols {
		if r.set.Insert(j) {
			added++
		}
	}
	r.mu.Unlock()
	if added > 0 {
		g.nnz.Add(int64(added))
	}
}

// AddEntries inserts the full pairwise closure of conn (diagonal included).
// Safe for concurrent use.
//
// Errors: ErrFinalized; *IndexError (ErrOutOfRange) if any index ≥ Size(),
// in which case nothing is inserted.
// Complexity: O(k²) inserts, k row-lock acquisitions.
func (g *ContiguousGraph) AddEntries(conn []Index) error {
	if g.finalized.Load() {
		return ErrFinalized
	}
	if err := g.checkBounds(conn); err != nil {
		return fmt.Errorf("add entries: %w", err)
	}
	for _, i := range conn {
		g.insertRow(i, conn)
	}
	return nil
}

// AddEntry inserts the single entry (row, col) without a mirror.
// Safe for concurrent use.
//
// Errors: ErrFinalized, ErrOutOfRange.
func (g *ContiguousGraph) AddEntry(row, col Index) error {
	if g.finalized.Load() {
		return ErrFinalized
	}
	if err := g.checkBounds([]Index{row, col}); err != nil {
		return fmt.Errorf("add entry: %w", err)
	}
	g.insertRow(row, []Index{col})
	return nil
}

// AddBlock inserts every (r, c) with r in rows and c in cols, unmirrored.
// Safe for concurrent use.
//
// Errors: ErrFinalized, ErrOutOfRange.
func (g *ContiguousGraph) AddBlock(rows, cols []Index) error {
	if g.finalized.Load() {
		return ErrFinalized
	}
	if err := g.checkBounds(rows); err != nil {
		return fmt.Errorf("add block: %w", err)
	}
	if err := g.checkBounds(cols); err != nil {
		return fmt.Errorf("add block: %w", err)
	}
	for _, i := range rows {
		g.insertRow(i, cols)
	}
	return nil
}

// Merge adds every entry of other into g (row-wise union). The whole of
// other is bounds-checked first. Merging g into itself is a no-op.
// other must not be mutated while Merge runs.
//
// Errors: ErrNilGraph, ErrFinalized, ErrOutOfRange.
// Complexity: O(nnz(other)).
func (g *ContiguousGraph) Merge(other Pattern) error {
	if isNilPattern(other) {
		return ErrNilGraph
	}
	if g.finalized.Load() {
		return ErrFinalized
	}
	if oc, ok := other.(*ContiguousGraph); ok && oc == g {
		return nil
	}
	for i, cols := range other.All() {
		if err := g.checkBounds([]Index{i}); err != nil {
			return fmt.Errorf("merge: %w", err)
		}
		if err := g.checkBounds(cols); err != nil {
			return fmt.Errorf("merge: %w", err)
		}
	}
	for i, cols := range other.All() {
		g.insertRow(i, cols)
	}
	return nil
}

// Has reports whether (row, col) is present. Out-of-range rows report false.
func (g *ContiguousGraph) Has(row, col Index) bool {
	if row >= Index(len(g.rows)) {
		return false
	}
	r := &g.rows[row]
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.set.Contains(col)
}

// Finalize sorts every row and freezes the graph. Calling it again is a no-op.
func (g *ContiguousGraph) Finalize() {
	if !g.finalized.CompareAndSwap(false, true) {
		return
	}
	for i := range g.rows {
		g.finalizeRow(i)
	}
}

// FinalizeParallel is Finalize with rows split into contiguous ranges sorted
// by up to workers goroutines. workers ≤ 1 behaves like Finalize.
func (g *ContiguousGraph) FinalizeParallel(workers int) {
	if workers <= 1 || len(g.rows) < 2*workers {
		g.Finalize()
		return
	}
	if !g.finalized.CompareAndSwap(false, true) {
		return
	}
	chunk := (len(g.rows) + workers - 1) / workers
	var eg errgroup.Group
	for lo := 0; lo < len(g.rows); lo += chunk {
		hi := min(lo+chunk, len(g.rows))
		eg.Go(func() error {
			for i := lo; i < hi; i++ {
				g.finalizeRow(i)
			}
			return nil
		})
	}
	_ = eg.Wait() // row finalization cannot fail
}

func (g *ContiguousGraph) finalizeRow(i int) {
	r := &g.rows[i]
	r.mu.Lock()
	r.set.Finalize()
	r.mu.Unlock()
}

// Finalized reports whether Finalize has been called.
func (g *ContiguousGraph) Finalized() bool { return g.finalized.Load() }

// Clear empties every row and returns g to the unfinalized state.
// The declared size is kept.
func (g *ContiguousGraph) Clear() {
	for i := range g.rows {
		g.rows[i].set = RowSet{}
	}
	g.nnz.Store(0)
	g.finalized.Store(false)
}

// Size returns the declared number of rows.
func (g *ContiguousGraph) Size() int { return len(g.rows) }

// NumRows returns the number of non-empty rows.
// Complexity: O(Size()).
func (g *ContiguousGraph) NumRows() int {
	n := 0
	for i := range g.rows {
		if g.rows[i].set.Len() > 0 {
			n++
		}
	}
	return n
}

// NonZeros returns the number of stored entries.
func (g *ContiguousGraph) NonZeros() int { return int(g.nnz.Load()) }

// Row returns the columns of row i (nil if i ≥ Size()). Ascending once
// finalized. The slice is owned by the graph.
func (g *ContiguousGraph) Row(i Index) []Index {
	if i >= Index(len(g.rows)) {
		return nil
	}
	return g.rows[i].set.cols
}

// All yields the non-empty rows in ascending row order.
func (g *ContiguousGraph) All() iter.Seq2[Index, []Index] {
	return func(yield func(Index, []Index) bool) {
		for i := range g.rows {
			cols := g.rows[i].set.cols
			if len(cols) == 0 {
				continue
			}
			if !yield(Index(i), cols) {
				return
			}
		}
	}
}

// Entries yields every (row, col) in ascending row order.
func (g *ContiguousGraph) Entries() iter.Seq[Entry] {
	return entriesOf(g)
}

// Clone returns an independent deep copy, including the finalized state.
func (g *ContiguousGraph) Clone() *ContiguousGraph {
	out := &ContiguousGraph{rows: make([]lockedRow, len(g.rows))}
	for i := range g.rows {
		out.rows[i].set = *g.rows[i].set.Clone()
	}
	out.nnz.Store(g.nnz.Load())
	out.finalized.Store(g.finalized.Load())
	return out
}

// ExportCSR returns the CSR form of g with exactly Size()+1 row offsets.
//
// Errors: ErrNotFinalized.
// Complexity: O(Size() + nnz).
func (g *ContiguousGraph) ExportCSR() (*CSR, error) {
	if !g.finalized.Load() {
		return nil, fmt.Errorf("export CSR: %w", ErrNotFinalized)
	}
	return buildCSR(len(g.rows), g.NonZeros(), g.All()), nil
}

// ExportCSRArrays is ExportCSR returning the bare (rowOffsets, colIndices) pair.
func (g *ContiguousGraph) ExportCSRArrays() (rowOffsets, colIndices []Index, err error) {
	csr, err := g.ExportCSR()
	if err != nil {
		return nil, nil, err
	}
	return csr.RowOffsets, csr.ColIndices, nil
}

// String returns a short summary.
func (g *ContiguousGraph) String() string {
	return fmt.Sprintf("sparse.ContiguousGraph{size=%d nnz=%d finalized=%t}",
		len(g.rows), g.NonZeros(), g.Finalized())
}

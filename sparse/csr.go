// SPDX-License-Identifier: MIT
// File: csr.go
// Role: CSR, the finalized, query-optimal form of a sparsity graph.
// Contract:
//   - RowOffsets has NumRows()+1 entries, RowOffsets[0] == 0, non-decreasing,
//     RowOffsets[NumRows()] == len(ColIndices).
//   - ColIndices[RowOffsets[i]:RowOffsets[i+1]] is strictly ascending.
//   - A CSR holds no reference to the graph it came from.

package sparse

import (
	"fmt"
	"iter"
	"slices"
)

// MaxCSRRows is the largest row span a Graph exports to CSR. A map graph
// may hold any row id, but its CSR needs one offset per row below the highest.
const MaxCSRRows = 1 << 30

// CSR is a compressed sparse row pattern.
type CSR struct {
	RowOffsets []Index
	ColIndices []Index
}

// NewCSR wraps caller-provided arrays after validating them.
//
// Errors: ErrMalformedCSR (wrapped with the first violation found).
func NewCSR(rowOffsets, colIndices []Index) (*CSR, error) {
	c := &CSR{RowOffsets: rowOffsets, ColIndices: colIndices}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// buildCSR lays out rows (ascending, non-empty) over n rows with nnz entries.
// Rows absent from the sequence get zero-width slices.
func buildCSR(n, nnz int, rows iter.Seq2[Index, []Index]) *CSR {
	offsets := make([]Index, n+1)
	cols := make([]Index, 0, nnz)

	next := 0 // first row whose offset is not yet written
	for i, rc := range rows {
		for ; next <= int(i); next++ {
			offsets[next] = Index(len(cols))
		}
		cols = append(cols, rc...)
	}
	for ; next <= n; next++ {
		offsets[next] = Index(len(cols))
	}

	return &CSR{RowOffsets: offsets, ColIndices: cols}
}

// NumRows returns the number of rows (len(RowOffsets)-1).
func (c *CSR) NumRows() int {
	if len(c.RowOffsets) == 0 {
		return 0
	}
	return len(c.RowOffsets) - 1
}

// NonZeros returns len(ColIndices).
func (c *CSR) NonZeros() int { return len(c.ColIndices) }

// Row returns the ascending columns of row i, or nil if i is out of range.
// The slice aliases ColIndices.
func (c *CSR) Row(i Index) []Index {
	if i >= Index(c.NumRows()) {
		return nil
	}
	return c.ColIndices[c.RowOffsets[i]:c.RowOffsets[i+1]]
}

// Has reports whether (row, col) is present. Complexity: O(log k).
func (c *CSR) Has(row, col Index) bool {
	_, found := slices.BinarySearch(c.Row(row), col)
	return found
}

// Entries yields every (row, col) in CSR order.
func (c *CSR) Entries() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for i := 0; i < c.NumRows(); i++ {
			for _, j := range c.Row(Index(i)) {
				if !yield(Entry{Row: Index(i), Col: j}) {
					return
				}
			}
		}
	}
}

// Equal reports whether both arrays match element for element.
func (c *CSR) Equal(other *CSR) bool {
	if c == nil || other == nil {
		return c == other
	}
	return slices.Equal(c.RowOffsets, other.RowOffsets) &&
		slices.Equal(c.ColIndices, other.ColIndices)
}

// Validate checks the CSR invariants.
//
// Errors: ErrMalformedCSR wrapped with the first violation.
// Complexity: O(NumRows() + NonZeros()).
func (c *CSR) Validate() error {
	if len(c.RowOffsets) == 0 {
		return fmt.Errorf("%w: empty RowOffsets", ErrMalformedCSR)
	}
	if c.RowOffsets[0] != 0 {
		return fmt.Errorf("%w: RowOffsets[0]=%d, want 0", ErrMalformedCSR, c.RowOffsets[0])
	}
	n := len(c.RowOffsets) - 1
	if c.RowOffsets[n] != Index(len(c.ColIndices)) {
		return fmt.Errorf("%w: RowOffsets[%d]=%d != len(ColIndices)=%d",
			ErrMalformedCSR, n, c.RowOffsets[n], len(c.ColIndices))
	}
	for i := 1; i <= n; i++ {
		if c.RowOffsets[i] < c.RowOffsets[i-1] {
			return fmt.Errorf("%w: RowOffsets not monotonic at %d: %d < %d",
				ErrMalformedCSR, i, c.RowOffsets[i], c.RowOffsets[i-1])
		}
	}
	for i := 0; i < n; i++ {
		row := c.ColIndices[c.RowOffsets[i]:c.RowOffsets[i+1]]
		for k := 1; k < len(row); k++ {
			if row[k] <= row[k-1] {
				return fmt.Errorf("%w: row %d columns not strictly ascending at %d: %d after %d",
					ErrMalformedCSR, i, k, row[k], row[k-1])
			}
		}
	}
	return nil
}

// entriesOf flattens a Pattern into its (row, col) entries.
func entriesOf(p Pattern) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for i, cols := range p.All() {
			for _, j := range cols {
				if !yield(Entry{Row: i, Col: j}) {
					return
				}
			}
		}
	}
}

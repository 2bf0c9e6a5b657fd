// SPDX-License-Identifier: MIT

package ordering

import (
	"fmt"
	"slices"

	"github.com/katalvlaran/sparsegraph/sparse"
)

// Bandwidth returns max |i-j| over the entries of p; 0 for nil or empty.
func Bandwidth(p sparse.Pattern) int {
	if p == nil {
		return 0
	}
	bw := sparse.Index(0)
	for i, cols := range p.All() {
		for _, j := range cols {
			d := j - i
			if j < i {
				d = i - j
			}
			bw = max(bw, d)
		}
	}
	return int(bw)
}

// Profile returns Σ (i - f_i) over rows, where f_i is the smallest column of
// row i when that column is below the diagonal (the lower envelope size).
func Profile(p sparse.Pattern) int {
	if p == nil {
		return 0
	}
	total := 0
	for i, cols := range p.All() {
		if len(cols) == 0 {
			continue
		}
		if f := slices.Min(cols); f < i {
			total += int(i - f)
		}
	}
	return total
}

// Permute returns a new finalized graph holding entry (inv[i], inv[j]) for
// every entry (i, j) of p, where inv is perm's inverse.
//
// Errors: ErrNilPattern; ErrBadPermutation if len(perm) != p.Size(), perm is
// not a bijection, or a column of p lies outside [0, p.Size()).
func Permute(p sparse.Pattern, perm Permutation) (*sparse.Graph, error) {
	if p == nil {
		return nil, ErrNilPattern
	}
	if len(perm) != p.Size() {
		return nil, fmt.Errorf("%w: length %d, pattern size %d", ErrBadPermutation, len(perm), p.Size())
	}
	if err := perm.Validate(); err != nil {
		return nil, err
	}
	inv := perm.Inverse()
	n := sparse.Index(len(inv))

	out := sparse.NewGraph()
	row := make([]sparse.Index, 0, 16)
	for i, cols := range p.All() {
		row = row[:0]
		for _, j := range cols {
			if j >= n {
				return nil, fmt.Errorf("%w: column %d of row %d outside [0,%d)", ErrBadPermutation, j, i, n)
			}
			row = append(row, inv[j])
		}
		if err := out.AddBlock([]sparse.Index{inv[i]}, row); err != nil {
			return nil, err
		}
	}
	out.Finalize()
	return out, nil
}

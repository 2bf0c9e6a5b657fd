// SPDX-License-Identifier: MIT

// Package ordering renumbers the rows of a sparsity pattern to shrink its
// bandwidth and profile.
//
// CuthillMcKee walks every connected component breadth-first from a
// pseudo-peripheral, minimum-degree start node, enqueueing neighbors by
// ascending degree (ties by index). WithReverse returns the reversed
// order (RCM), which usually has a smaller profile for the same bandwidth.
//
// The result is a Permutation p with p[new] = old; Permute applies it to a
// pattern and returns a new finalized *sparse.Graph. Bandwidth and Profile
// measure a pattern before and after.
//
// Options follow the functional style:
//
//	perm, err := ordering.CuthillMcKee(g, ordering.WithReverse())
//	h, err := ordering.Permute(g, perm)
//	fmt.Println(ordering.Bandwidth(g), "→", ordering.Bandwidth(h))
//
// Errors:
//
//	ErrNilPattern       - nil input.
//	ErrOptionViolation  - invalid option (e.g. nil context).
//	ErrBadPermutation   - Permute with a non-bijective or mis-sized permutation.
//	context errors      - from WithContext cancellation.
package ordering

// SPDX-License-Identifier: MIT

// Package check verifies a sparsity pattern against a reference set of
// entries, in both directions: every graph entry must be in the reference,
// and every reference entry must be in the graph. CSR arrays are checked the
// same way plus the ascending-column rule.
//
// A Reference maps each expected (row, col) to its multiplicity: the number
// of connectivity lists that couple row and col, which is the value a unit
// element matrix would accumulate at that position.
//
// Failures are *MismatchError values naming the offending entry; match the
// reason with errors.Is against ErrUnexpectedEntry, ErrMissingEntry or
// ErrUnordered.
package check

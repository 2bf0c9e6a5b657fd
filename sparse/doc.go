// SPDX-License-Identifier: MIT

// Package sparse builds the non-zero pattern ("sparsity graph") of a global
// system matrix from per-element degree-of-freedom connectivity lists.
//
// Two storage strategies share one read-side contract (Pattern):
//
//	Graph            - map[row]*RowSet, rows created lazily, no declared size.
//	                   Not safe for concurrent mutation: build one Graph per
//	                   goroutine and Merge them serially.
//	ContiguousGraph  - fixed array of rows, each guarded by its own mutex.
//	                   AddEntries may be called from many goroutines at once;
//	                   goroutines touching disjoint rows never contend.
//
// Lifecycle:
//
//	New → AddEntries / AddEntry / AddBlock / Merge → Finalize → Has / All / ExportCSR / MarshalBinary
//
// AddEntries inserts the full pairwise closure of a connectivity list,
// diagonal included: an element with k DOFs contributes up to k² entries,
// and the resulting pattern is symmetric by construction. Insertion is a set
// union, so the final content does not depend on call order, interleaving or
// merge order, and ExportCSR is byte-for-byte reproducible.
//
// Finalize is one way. Any mutation afterwards fails with ErrFinalized;
// exporting before Finalize fails with ErrNotFinalized. Bounds violations on
// a ContiguousGraph fail with ErrOutOfRange before anything is inserted.
// A Graph accepts any Index as a row, but ExportCSR needs one offset per row
// up to the highest, so it refuses rows at or above MaxCSRRows with ErrBadSize.
//
// Quick example:
//
//	g := sparse.NewGraph()
//	_ = g.AddEntries([]sparse.Index{19, 11, 7, 39})
//	_ = g.AddEntries([]sparse.Index{11, 2, 3, 6})
//	g.Finalize()
//	csr, _ := g.ExportCSR()
//	fmt.Println(csr.Row(11)) // [2 3 6 7 11 19 39]
package sparse

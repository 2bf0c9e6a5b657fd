// SPDX-License-Identifier: MIT

// Package assembly builds sparsity graphs from element connectivities in
// parallel.
//
// An Element exposes one capability, the global equation ids it couples
// (EquationIDs). Connectivity is the plain-slice Element used by tests,
// benchmarks and the random generator.
//
// Two builders cover the two storage strategies of package sparse:
//
//	BuildGraph       - each worker fills a private sparse.Graph from a
//	                   contiguous slice of elements; the partial graphs are
//	                   merged serially in worker order and finalized.
//	BuildContiguous  - Shared (default): all workers insert into one
//	                   sparse.ContiguousGraph, contending only on row locks.
//	                   Partitioned: per-worker sparse.Graph partials merged
//	                   serially into the contiguous graph.
//
// Both produce identical content for any worker count or strategy, and the
// exported CSR is byte-for-byte reproducible.
//
// Workers run under an errgroup: the first failing element cancels the
// others, and context cancellation is checked between elements. Every build
// emits an OpenTelemetry span and duration / non-zero metrics through the
// global providers, and debug events through log/slog.
//
// Random generates the synthetic benchmark mesh: element i draws its node
// ids from a normal distribution centered on DOFs/Elements·i, seeded per
// element so the output does not depend on scheduling.
package assembly

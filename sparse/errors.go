// SPDX-License-Identifier: MIT
// Package sparse: sentinel error set.
// All operations return these sentinels (possibly wrapped with context via
// fmt.Errorf("...: %w", ErrX)); callers match them with errors.Is.

package sparse

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange indicates a row or column index ≥ the declared size of a
	// ContiguousGraph. Nothing is inserted when it is returned.
	ErrOutOfRange = errors.New("sparse: index out of range")

	// ErrFinalized indicates a mutation attempted after Finalize.
	ErrFinalized = errors.New("sparse: graph is finalized")

	// ErrNotFinalized indicates an export attempted before Finalize.
	ErrNotFinalized = errors.New("sparse: graph is not finalized")

	// ErrBadSize indicates a negative declared row count, or a row span too
	// large to export (see MaxCSRRows).
	ErrBadSize = errors.New("sparse: invalid graph size")

	// ErrNilGraph indicates a nil graph passed to Merge.
	ErrNilGraph = errors.New("sparse: graph is nil")

	// ErrCorrupt indicates a malformed serialized payload.
	ErrCorrupt = errors.New("sparse: corrupt payload")

	// ErrVersion indicates a payload written by an unsupported codec version.
	ErrVersion = errors.New("sparse: unsupported payload version")

	// ErrKindMismatch indicates a payload of one graph kind loaded into the other.
	ErrKindMismatch = errors.New("sparse: payload graph kind mismatch")

	// ErrMalformedCSR indicates CSR arrays violating the offsets/ordering invariants.
	ErrMalformedCSR = errors.New("sparse: malformed CSR arrays")
)

// IndexError reports the first index of an operation that violated the
// declared size of a ContiguousGraph.
type IndexError struct {
	Index Index // offending row or column
	Size  int   // declared row count
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("sparse: index %d out of range [0,%d)", e.Index, e.Size)
}

// Unwrap makes errors.Is(err, ErrOutOfRange) hold.
func (e *IndexError) Unwrap() error { return ErrOutOfRange }

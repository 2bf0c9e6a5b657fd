// SPDX-License-Identifier: MIT

package ordering

import (
	"context"
	"errors"
	"fmt"

	"github.com/katalvlaran/sparsegraph/sparse"
)

// Sentinel errors.
var (
	// ErrNilPattern is returned for a nil pattern.
	ErrNilPattern = errors.New("ordering: nil pattern")

	// ErrOptionViolation is returned when an invalid Option is supplied.
	ErrOptionViolation = errors.New("ordering: invalid option supplied")

	// ErrBadPermutation is returned for a permutation that is not a bijection
	// on [0, Size()).
	ErrBadPermutation = errors.New("ordering: invalid permutation")
)

// Permutation maps new positions to old indices: p[new] = old.
type Permutation []sparse.Index

// Inverse returns q with q[old] = new. p must be valid.
func (p Permutation) Inverse() []sparse.Index {
	inv := make([]sparse.Index, len(p))
	for newIdx, old := range p {
		inv[old] = sparse.Index(newIdx)
	}
	return inv
}

// Validate reports whether p is a bijection on [0, len(p)).
func (p Permutation) Validate() error {
	seen := make([]bool, len(p))
	for newIdx, old := range p {
		if old >= sparse.Index(len(p)) {
			return fmt.Errorf("%w: p[%d]=%d out of range [0,%d)", ErrBadPermutation, newIdx, old, len(p))
		}
		if seen[old] {
			return fmt.Errorf("%w: index %d appears twice", ErrBadPermutation, old)
		}
		seen[old] = true
	}
	return nil
}

// Option configures CuthillMcKee. An invalid Option is recorded and surfaced
// as ErrOptionViolation when the ordering runs.
type Option func(*Options)

// Options holds ordering parameters and hooks.
type Options struct {
	// Ctx is checked once per dequeued node.
	Ctx context.Context

	// Reverse returns the reversed Cuthill–McKee order.
	Reverse bool

	// OnVisit is called for each node in Cuthill–McKee order with its BFS
	// level inside its component.
	OnVisit func(node sparse.Index, level int)

	err error
}

// DefaultOptions returns a background context, forward order and a no-op hook.
func DefaultOptions() Options {
	return Options{
		Ctx:     context.Background(),
		OnVisit: func(sparse.Index, int) {},
	}
}

// WithContext sets the cancellation context.
//
//	ctx == nil: invalid option → ErrOptionViolation
func WithContext(ctx context.Context) Option {
	return func(o *Options) {
		if ctx == nil {
			o.err = fmt.Errorf("%w: nil context", ErrOptionViolation)
			return
		}
		o.Ctx = ctx
	}
}

// WithReverse selects the reverse Cuthill–McKee order.
func WithReverse() Option {
	return func(o *Options) { o.Reverse = true }
}

// WithOnVisit installs a visit hook. A nil fn is ignored.
func WithOnVisit(fn func(node sparse.Index, level int)) Option {
	return func(o *Options) {
		if fn != nil {
			o.OnVisit = fn
		}
	}
}

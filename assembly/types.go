// SPDX-License-Identifier: MIT

package assembly

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/katalvlaran/sparsegraph/sparse"
)

// Sentinel errors.
var (
	// ErrOptionViolation is returned when an invalid Option is supplied.
	ErrOptionViolation = errors.New("assembly: invalid option supplied")

	// ErrNilElement is returned for a nil element in the input.
	ErrNilElement = errors.New("assembly: nil element")

	// ErrBadConfig is returned by Random for an unusable RandomConfig.
	ErrBadConfig = errors.New("assembly: invalid random config")
)

// Element is anything that couples a set of global equation ids.
type Element interface {
	EquationIDs() []sparse.Index
}

// Connectivity is an Element given directly by its equation ids.
type Connectivity []sparse.Index

// EquationIDs returns c itself.
func (c Connectivity) EquationIDs() []sparse.Index { return c }

// Strategy selects how BuildContiguous distributes work.
type Strategy int

const (
	// Shared inserts from every worker into one graph under row locks.
	Shared Strategy = iota
	// Partitioned builds per-worker partial graphs and merges them serially.
	Partitioned
)

func (s Strategy) String() string {
	switch s {
	case Shared:
		return "shared"
	case Partitioned:
		return "partitioned"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy maps "shared" / "partitioned" to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "shared", "":
		return Shared, nil
	case "partitioned":
		return Partitioned, nil
	default:
		return 0, fmt.Errorf("%w: unknown strategy %q", ErrOptionViolation, name)
	}
}

// Option configures a build via functional arguments. An invalid Option is
// recorded and surfaced as ErrOptionViolation when the build starts.
type Option func(*Options)

// Options holds build parameters.
type Options struct {
	// Workers is the number of goroutines; capped at the element count.
	Workers int

	// Strategy applies to BuildContiguous only.
	Strategy Strategy

	// Logger receives debug events.
	Logger *slog.Logger

	err error
}

// DefaultOptions returns GOMAXPROCS workers, the Shared strategy and slog.Default().
func DefaultOptions() Options {
	return Options{
		Workers:  runtime.GOMAXPROCS(0),
		Strategy: Shared,
		Logger:   slog.Default(),
	}
}

// WithWorkers sets the worker count.
//
//	n < 1: invalid option → ErrOptionViolation
func WithWorkers(n int) Option {
	return func(o *Options) {
		if n < 1 {
			o.err = fmt.Errorf("%w: workers must be positive (%d)", ErrOptionViolation, n)
			return
		}
		o.Workers = n
	}
}

// WithStrategy sets the BuildContiguous strategy.
func WithStrategy(s Strategy) Option {
	return func(o *Options) {
		if s != Shared && s != Partitioned {
			o.err = fmt.Errorf("%w: unknown strategy %v", ErrOptionViolation, s)
			return
		}
		o.Strategy = s
	}
}

// WithLogger routes debug events to logger. A nil logger is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

func buildOptions(opts []Option) (Options, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o, o.err
}

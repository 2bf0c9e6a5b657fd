// SPDX-License-Identifier: MIT

package assembly

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/sparsegraph/sparse"
)

// cancelCheckEvery is how many elements a worker inserts between context checks.
const cancelCheckEvery = 64

// elemRange is the half-open element range [lo, hi) owned by one worker.
type elemRange struct{ lo, hi int }

// partition splits n elements into at most workers contiguous, non-empty
// ranges in ascending order.
func partition(n, workers int) []elemRange {
	if n == 0 {
		return nil
	}
	workers = max(1, min(workers, n))
	chunk := (n + workers - 1) / workers
	out := make([]elemRange, 0, workers)
	for lo := 0; lo < n; lo += chunk {
		out = append(out, elemRange{lo: lo, hi: min(lo+chunk, n)})
	}
	return out
}

// adder is the insertion side shared by both graph kinds.
type adder interface {
	AddEntries(conn []sparse.Index) error
}

// insertRange adds elems[r.lo:r.hi] into dst, checking ctx between elements.
func insertRange[E Element](ctx context.Context, dst adder, elems []E, r elemRange) error {
	for i := r.lo; i < r.hi; i++ {
		if (i-r.lo)%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if any(elems[i]) == nil {
			return fmt.Errorf("element %d: %w", i, ErrNilElement)
		}
		if err := dst.AddEntries(elems[i].EquationIDs()); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// buildPartials fills one sparse.Graph per range concurrently.
func buildPartials[E Element](ctx context.Context, elems []E, ranges []elemRange, logger *slog.Logger) ([]*sparse.Graph, error) {
	parts := make([]*sparse.Graph, len(ranges))
	g, gctx := errgroup.WithContext(ctx)
	for w, r := range ranges {
		g.Go(func() error {
			part := sparse.NewGraph()
			if err := insertRange(gctx, part, elems, r); err != nil {
				return err
			}
			parts[w] = part
			logger.Debug("assembly partition done",
				slog.Int("worker", w),
				slog.Int("first", r.lo),
				slog.Int("last", r.hi-1),
				slog.Int("nonzeros", part.NonZeros()))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return parts, nil
}

// BuildGraph assembles elems into a finalized sparse.Graph.
//
// Each worker owns a contiguous slice of elems and a private Graph; the
// partial graphs are merged in worker order on the calling goroutine.
//
// Errors: ErrOptionViolation, ErrNilElement, ctx.Err().
func BuildGraph[E Element](ctx context.Context, elems []E, opts ...Option) (*sparse.Graph, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	ranges := partition(len(elems), o.Workers)
	info := buildInfo{kind: sparse.KindMap.String(), strategy: Partitioned.String(), elements: len(elems), workers: max(1, len(ranges))}
	ctx, sp := startBuildSpan(ctx, "assembly.BuildGraph", info)
	defer sp.End()
	start := time.Now()
	o.Logger.Debug("assembly started",
		slog.String("kind", info.kind),
		slog.Int("elements", info.elements),
		slog.Int("workers", info.workers))

	out, err := buildGraph(ctx, elems, ranges, o.Logger)
	nnz := 0
	if out != nil {
		nnz = out.NonZeros()
	}
	finishBuild(ctx, sp, info, start, nnz, err)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}
	o.Logger.Debug("assembly finished",
		slog.String("kind", info.kind),
		slog.Int("nonzeros", nnz),
		slog.Duration("elapsed", time.Since(start)))
	return out, nil
}

func buildGraph[E Element](ctx context.Context, elems []E, ranges []elemRange, logger *slog.Logger) (*sparse.Graph, error) {
	parts, err := buildPartials(ctx, elems, ranges, logger)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		out := sparse.NewGraph()
		out.Finalize()
		return out, nil
	}
	out := parts[0]
	for _, p := range parts[1:] {
		if err := out.Merge(p); err != nil {
			return nil, err
		}
	}
	out.Finalize()
	return out, nil
}

// BuildContiguous assembles elems into a finalized sparse.ContiguousGraph of
// the given size, using the configured Strategy.
//
// Errors: ErrOptionViolation, ErrNilElement, sparse.ErrBadSize,
// sparse.ErrOutOfRange (no element is partially inserted), ctx.Err().
func BuildContiguous[E Element](ctx context.Context, size int, elems []E, opts ...Option) (*sparse.ContiguousGraph, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	ranges := partition(len(elems), o.Workers)
	info := buildInfo{kind: sparse.KindContiguous.String(), strategy: o.Strategy.String(), elements: len(elems), workers: max(1, len(ranges))}
	ctx, sp := startBuildSpan(ctx, "assembly.BuildContiguous", info)
	defer sp.End()
	start := time.Now()
	o.Logger.Debug("assembly started",
		slog.String("kind", info.kind),
		slog.String("strategy", info.strategy),
		slog.Int("size", size),
		slog.Int("elements", info.elements),
		slog.Int("workers", info.workers))

	out, err := sparse.NewContiguousGraph(size)
	if err == nil {
		switch o.Strategy {
		case Partitioned:
			err = fillPartitioned(ctx, out, elems, ranges, o.Logger)
		default:
			err = fillShared(ctx, out, elems, ranges)
		}
	}
	nnz := 0
	if err == nil {
		out.FinalizeParallel(info.workers)
		nnz = out.NonZeros()
	}
	finishBuild(ctx, sp, info, start, nnz, err)
	if err != nil {
		return nil, fmt.Errorf("build contiguous graph: %w", err)
	}
	o.Logger.Debug("assembly finished",
		slog.String("kind", info.kind),
		slog.String("strategy", info.strategy),
		slog.Int("nonzeros", nnz),
		slog.Duration("elapsed", time.Since(start)))
	return out, nil
}

// fillShared lets every worker insert into dst directly; row locks inside
// the graph are the only synchronization.
func fillShared[E Element](ctx context.Context, dst *sparse.ContiguousGraph, elems []E, ranges []elemRange) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, r := range ranges {
		g.Go(func() error {
			return insertRange(gctx, dst, elems, r)
		})
	}
	return g.Wait()
}

// fillPartitioned builds one sparse.Graph per worker and merges them into
// dst in worker order.
func fillPartitioned[E Element](ctx context.Context, dst *sparse.ContiguousGraph, elems []E, ranges []elemRange, logger *slog.Logger) error {
	parts, err := buildPartials(ctx, elems, ranges, logger)
	if err != nil {
		return err
	}
	for w, p := range parts {
		if err := dst.Merge(p); err != nil {
			return fmt.Errorf("merge worker %d: %w", w, err)
		}
	}
	return nil
}

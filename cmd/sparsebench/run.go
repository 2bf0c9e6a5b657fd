// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/katalvlaran/sparsegraph/assembly"
	"github.com/katalvlaran/sparsegraph/ordering"
	"github.com/katalvlaran/sparsegraph/serialize"
	"github.com/katalvlaran/sparsegraph/sparse"
)

// builtPattern is a finalized graph of either kind.
type builtPattern interface {
	sparse.Pattern
	encoding.BinaryMarshaler
	ExportCSR() (*sparse.CSR, error)
}

type report struct {
	kind      string
	elapsed   time.Duration
	rows      int
	nnz       int
	bandwidth int
	profile   int
	// Reverse Cuthill–McKee figures; -1 when not computed.
	rcmBandwidth int
	rcmProfile   int
}

func runBench(ctx context.Context, out, logw io.Writer, cfg Config) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger, err := newLogger(cfg.Log, logw)
	if err != nil {
		return err
	}
	strategy, err := assembly.ParseStrategy(cfg.Strategy)
	if err != nil {
		return err
	}
	opts := []assembly.Option{assembly.WithLogger(logger), assembly.WithStrategy(strategy)}
	if cfg.Workers > 0 {
		opts = append(opts, assembly.WithWorkers(cfg.Workers))
	}

	start := time.Now()
	conns, err := assembly.Random(cfg.Mesh)
	if err != nil {
		return err
	}
	logger.Info("mesh generated",
		slog.Int("elements", len(conns)),
		slog.Int("size", cfg.Mesh.Size()),
		slog.Duration("elapsed", time.Since(start)))

	ser, closeStore, err := openSerializer(cfg.Output, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeStore(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	save := cfg.Output.File != "" || cfg.Output.BadgerDir != ""

	fmt.Fprintf(out, "%-11s %12s %10s %12s %10s %12s\n", "kind", "elapsed", "rows", "nonzeros", "bandwidth", "rcm-bw")
	for _, kind := range cfg.Kinds {
		t0 := time.Now()
		p, err := build(ctx, kind, cfg, conns, opts)
		if err != nil {
			return err
		}
		r := report{
			kind:         kind,
			elapsed:      time.Since(t0),
			rows:         p.NumRows(),
			nnz:          p.NonZeros(),
			bandwidth:    ordering.Bandwidth(p),
			profile:      ordering.Profile(p),
			rcmBandwidth: -1,
			rcmProfile:   -1,
		}
		if csr, err := p.ExportCSR(); err != nil {
			return err
		} else if err := csr.Validate(); err != nil {
			return fmt.Errorf("%s: %w", kind, err)
		}
		if cfg.Reorder {
			if err := reorder(ctx, p, &r); err != nil {
				return fmt.Errorf("%s: %w", kind, err)
			}
		}
		if save {
			if err := ser.Save(kind, p); err != nil {
				return err
			}
		}
		logger.Info("graph built",
			slog.String("kind", kind),
			slog.Int("nonzeros", r.nnz),
			slog.Int("profile", r.profile),
			slog.Int("rcm_profile", r.rcmProfile),
			slog.Duration("elapsed", r.elapsed))
		fmt.Fprintf(out, "%-11s %12s %10d %12d %10d %12d\n",
			r.kind, r.elapsed.Round(time.Microsecond), r.rows, r.nnz, r.bandwidth, r.rcmBandwidth)
	}

	if cfg.Output.File != "" {
		if err := ser.WriteFile(cfg.Output.File); err != nil {
			return err
		}
		logger.Info("patterns written", slog.String("file", cfg.Output.File))
	}
	return nil
}

func build(ctx context.Context, kind string, cfg Config, conns []assembly.Connectivity, opts []assembly.Option) (builtPattern, error) {
	switch kind {
	case "map":
		return assembly.BuildGraph(ctx, conns, opts...)
	case "contiguous":
		return assembly.BuildContiguous(ctx, cfg.Mesh.Size(), conns, opts...)
	default:
		return nil, fmt.Errorf("unknown graph kind %q", kind)
	}
}

func reorder(ctx context.Context, p sparse.Pattern, r *report) error {
	perm, err := ordering.CuthillMcKee(p, ordering.WithReverse(), ordering.WithContext(ctx))
	if err != nil {
		return err
	}
	h, err := ordering.Permute(p, perm)
	if err != nil {
		return err
	}
	r.rcmBandwidth = ordering.Bandwidth(h)
	r.rcmProfile = ordering.Profile(h)
	return nil
}

// openSerializer returns a serializer over BadgerDB when a directory is
// configured, in memory otherwise, plus the matching cleanup.
func openSerializer(c OutputConfig, logger *slog.Logger) (*serialize.Serializer, func() error, error) {
	opts := []serialize.Option{serialize.WithLogger(logger)}
	if c.Compress {
		opts = append(opts, serialize.WithCompression())
	}
	if c.BadgerDir == "" {
		s := serialize.New(opts...)
		return s, s.Close, nil
	}
	db, err := serialize.OpenBadger(c.BadgerDir, logger)
	if err != nil {
		return nil, nil, err
	}
	s := serialize.New(append(opts, serialize.WithBackend(serialize.NewBadgerBackend(db)))...)
	return s, func() error {
		return errors.Join(s.Close(), db.Close())
	}, nil
}

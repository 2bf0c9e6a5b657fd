// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/katalvlaran/sparsegraph/serialize"
	"github.com/katalvlaran/sparsegraph/sparse"
)

// loadAny loads tag as a map graph, falling back to a contiguous graph when
// the payload is of the other kind.
func loadAny(s *serialize.Serializer, tag string) (sparse.Pattern, sparse.Kind, error) {
	g := sparse.NewGraph()
	err := s.Load(tag, g)
	if err == nil {
		return g, sparse.KindMap, nil
	}
	if !errors.Is(err, sparse.ErrKindMismatch) {
		return nil, 0, err
	}
	cg := new(sparse.ContiguousGraph)
	if err := s.Load(tag, cg); err != nil {
		return nil, 0, err
	}
	return cg, sparse.KindContiguous, nil
}

func inspectFile(out io.Writer, path string) error {
	s := serialize.New(serialize.WithLogger(slog.New(slog.DiscardHandler)))
	defer s.Close()
	if err := s.ReadFile(path); err != nil {
		return err
	}
	tags, err := s.Tags()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%-16s %-11s %10s %10s %12s %9s\n", "tag", "kind", "size", "rows", "nonzeros", "finalized")
	for _, tag := range tags {
		p, kind, err := loadAny(s, tag)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%-16s %-11s %10d %10d %12d %9t\n",
			tag, kind, p.Size(), p.NumRows(), p.NonZeros(), p.Finalized())
	}
	return nil
}

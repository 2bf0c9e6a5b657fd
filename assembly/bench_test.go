// SPDX-License-Identifier: MIT

package assembly_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/katalvlaran/sparsegraph/assembly"
)

// benchConfig is the classic 4-node, 4-DOF-block benchmark mesh scaled down.
func benchConfig() assembly.RandomConfig {
	cfg := assembly.DefaultRandomConfig()
	cfg.Elements = 100_000
	cfg.Nodes = cfg.Elements / 6
	return cfg
}

func BenchmarkBuildGraph(b *testing.B) {
	cfg := benchConfig()
	conns, err := assembly.Random(cfg)
	if err != nil {
		b.Fatal(err)
	}
	for _, workers := range []int{1, 4, 8} {
		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := assembly.BuildGraph(context.Background(), conns, assembly.WithWorkers(workers)); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkBuildContiguous(b *testing.B) {
	cfg := benchConfig()
	conns, err := assembly.Random(cfg)
	if err != nil {
		b.Fatal(err)
	}
	for _, strategy := range []assembly.Strategy{assembly.Shared, assembly.Partitioned} {
		b.Run(strategy.String(), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, err := assembly.BuildContiguous(context.Background(), cfg.Size(), conns,
					assembly.WithStrategy(strategy))
				if err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkRandom(b *testing.B) {
	cfg := benchConfig()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := assembly.Random(cfg); err != nil {
			b.Fatal(err)
		}
	}
}

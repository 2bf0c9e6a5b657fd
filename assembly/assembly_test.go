// SPDX-License-Identifier: MIT

package assembly_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/sparsegraph/assembly"
	"github.com/katalvlaran/sparsegraph/check"
	"github.com/katalvlaran/sparsegraph/sparse"
)

const (
	NRandomElements  = 1000
	NodesPerElement  = 8
	RandomGraphNodes = 500
)

var meshConns = check.Fixture()

func mesh() []assembly.Connectivity {
	out := make([]assembly.Connectivity, len(meshConns))
	for i, c := range meshConns {
		out[i] = c
	}
	return out
}

func randomMesh(t testing.TB) (assembly.RandomConfig, []assembly.Connectivity) {
	t.Helper()
	cfg := assembly.RandomConfig{
		Elements:        NRandomElements,
		NodesPerElement: NodesPerElement,
		BlockSize:       1,
		Nodes:           RandomGraphNodes,
		StdDev:          20,
		Seed:            7,
	}
	conns, err := assembly.Random(cfg)
	require.NoError(t, err)
	return cfg, conns
}

func exportCSR(t testing.TB, p interface{ ExportCSR() (*sparse.CSR, error) }) *sparse.CSR {
	t.Helper()
	c, err := p.ExportCSR()
	require.NoError(t, err)
	return c
}

// TestBuildGraph_MatchesReference VERIFIES BuildGraph reproduces the reference of
// the mesh fixture for every worker count.
// Implementation:
//   - Stage 1: Build with 1, 3, 8 and 64 workers.
//   - Stage 2: Check each result against the reference.
func TestBuildGraph_MatchesReference(t *testing.T) {
	ref := check.ReferenceFrom(meshConns)
	for _, workers := range []int{1, 3, 8, 64} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			g, err := assembly.BuildGraph(context.Background(), mesh(), assembly.WithWorkers(workers))
			require.NoError(t, err)
			require.True(t, g.Finalized())
			require.NoError(t, check.Graph(g, ref))
			require.NoError(t, check.CSR(exportCSR(t, g), ref))
		})
	}
}

// TestBuildContiguous_MatchesReference VERIFIES both strategies and all worker
// counts reproduce the reference of the mesh fixture.
func TestBuildContiguous_MatchesReference(t *testing.T) {
	ref := check.ReferenceFrom(meshConns)
	for _, strategy := range []assembly.Strategy{assembly.Shared, assembly.Partitioned} {
		t.Run(strategy.String(), func(t *testing.T) {
			g, err := assembly.BuildContiguous(context.Background(), 40, mesh(),
				assembly.WithWorkers(4), assembly.WithStrategy(strategy))
			require.NoError(t, err)
			require.True(t, g.Finalized())
			assert.Equal(t, 40, g.Size())
			require.NoError(t, check.Graph(g, ref))
		})
	}
}

// TestBuild_WorkerCountDeterminism builds 1000 random elements with 1 and 8
// workers through every builder; all exports must be identical.
func TestBuild_WorkerCountDeterminism(t *testing.T) {
	cfg, conns := randomMesh(t)
	ctx := context.Background()

	serial, err := assembly.BuildGraph(ctx, conns, assembly.WithWorkers(1))
	require.NoError(t, err)
	want := exportCSR(t, serial)
	require.NoError(t, want.Validate())
	require.NoError(t, check.Graph(serial, check.ReferenceFrom(toLists(conns))))

	parallel, err := assembly.BuildGraph(ctx, conns, assembly.WithWorkers(8))
	require.NoError(t, err)
	got := exportCSR(t, parallel)
	assert.Equal(t, want, got)

	for _, strategy := range []assembly.Strategy{assembly.Shared, assembly.Partitioned} {
		for _, workers := range []int{1, 8} {
			cg, err := assembly.BuildContiguous(ctx, cfg.Size(), conns,
				assembly.WithWorkers(workers), assembly.WithStrategy(strategy))
			require.NoError(t, err)
			c := exportCSR(t, cg)
			assert.Equal(t, want.ColIndices, c.ColIndices, "%v/%d", strategy, workers)
			assert.Equal(t, cfg.Size()+1, len(c.RowOffsets))
			assert.Equal(t, want.NonZeros(), c.NonZeros())
		}
	}
}

func toLists(conns []assembly.Connectivity) [][]sparse.Index {
	out := make([][]sparse.Index, len(conns))
	for i, c := range conns {
		out[i] = c
	}
	return out
}

// TestBuildContiguous_OutOfRange VERIFIES index 45 in a 40-row build fails
// with an *IndexError naming it, and a negative size fails with ErrBadSize.
func TestBuildContiguous_OutOfRange(t *testing.T) {
	conns := append(mesh(), assembly.Connectivity{3, 45})
	for _, strategy := range []assembly.Strategy{assembly.Shared, assembly.Partitioned} {
		t.Run(strategy.String(), func(t *testing.T) {
			_, err := assembly.BuildContiguous(context.Background(), 40, conns,
				assembly.WithWorkers(4), assembly.WithStrategy(strategy))
			require.ErrorIs(t, err, sparse.ErrOutOfRange)
			var ie *sparse.IndexError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, sparse.Index(45), ie.Index)
		})
	}

	_, err := assembly.BuildContiguous(context.Background(), -1, mesh())
	require.ErrorIs(t, err, sparse.ErrBadSize)
}

// TestBuild_OptionViolations VERIFIES invalid options surface as ErrOptionViolation.
func TestBuild_OptionViolations(t *testing.T) {
	ctx := context.Background()
	_, err := assembly.BuildGraph(ctx, mesh(), assembly.WithWorkers(0))
	require.ErrorIs(t, err, assembly.ErrOptionViolation)

	_, err = assembly.BuildContiguous(ctx, 40, mesh(), assembly.WithStrategy(assembly.Strategy(9)))
	require.ErrorIs(t, err, assembly.ErrOptionViolation)

	s, err := assembly.ParseStrategy("partitioned")
	require.NoError(t, err)
	assert.Equal(t, assembly.Partitioned, s)
	_, err = assembly.ParseStrategy("bogus")
	require.ErrorIs(t, err, assembly.ErrOptionViolation)
}

// TestBuild_CanceledContext VERIFIES a canceled context aborts both builders.
func TestBuild_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := assembly.BuildGraph(ctx, mesh())
	require.ErrorIs(t, err, context.Canceled)

	_, err = assembly.BuildContiguous(ctx, 40, mesh())
	require.ErrorIs(t, err, context.Canceled)
}

// TestBuild_NilElement VERIFIES a nil element is reported with its position.
func TestBuild_NilElement(t *testing.T) {
	elems := []assembly.Element{assembly.Connectivity{1, 2}, nil}
	_, err := assembly.BuildGraph(context.Background(), elems, assembly.WithWorkers(1))
	require.ErrorIs(t, err, assembly.ErrNilElement)
	assert.Contains(t, err.Error(), "element 1")
}

// TestBuild_Empty VERIFIES empty input yields empty, finalized graphs.
func TestBuild_Empty(t *testing.T) {
	g, err := assembly.BuildGraph(context.Background(), []assembly.Connectivity(nil))
	require.NoError(t, err)
	assert.True(t, g.Finalized())
	assert.Zero(t, g.NonZeros())

	cg, err := assembly.BuildContiguous(context.Background(), 5, []assembly.Connectivity{})
	require.NoError(t, err)
	assert.True(t, cg.Finalized())
	assert.Equal(t, []sparse.Index{0, 0, 0, 0, 0, 0}, exportCSR(t, cg).RowOffsets)
}

// TestRandom_Deterministic VERIFIES equal configs generate equal meshes.
func TestRandom_Deterministic(t *testing.T) {
	cfg, a := randomMesh(t)
	b, err := assembly.Random(cfg)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	cfg.Seed++
	c, err := assembly.Random(cfg)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

// TestRandom_BlocksAndBounds VERIFIES DOF blocks are contiguous and in range.
func TestRandom_BlocksAndBounds(t *testing.T) {
	cfg := assembly.DefaultRandomConfig()
	conns, err := assembly.Random(cfg)
	require.NoError(t, err)
	require.Len(t, conns, cfg.Elements)

	lo := sparse.Index(cfg.BlockSize)
	hi := sparse.Index((cfg.Nodes - 1) * cfg.BlockSize)
	for i, c := range conns {
		require.Len(t, c, cfg.NodesPerElement*cfg.BlockSize, "element %d", i)
		for j := 0; j < cfg.NodesPerElement; j++ {
			base := c[j*cfg.BlockSize]
			assert.Zero(t, base%sparse.Index(cfg.BlockSize), "element %d node %d", i, j)
			for k := 0; k < cfg.BlockSize; k++ {
				id := c[j*cfg.BlockSize+k]
				assert.Equal(t, base+sparse.Index(k), id)
				assert.GreaterOrEqual(t, id, lo)
				assert.Less(t, id, hi)
			}
		}
	}
}

// TestRandom_InvalidConfig VERIFIES Validate rejects degenerate configs.
func TestRandom_InvalidConfig(t *testing.T) {
	base := assembly.DefaultRandomConfig()
	tests := map[string]func(*assembly.RandomConfig){
		"negative elements": func(c *assembly.RandomConfig) { c.Elements = -1 },
		"no nodes":          func(c *assembly.RandomConfig) { c.NodesPerElement = 0 },
		"zero block":        func(c *assembly.RandomConfig) { c.BlockSize = 0 },
		"tiny mesh":         func(c *assembly.RandomConfig) { c.Nodes = 2 },
		"zero stddev":       func(c *assembly.RandomConfig) { c.StdDev = 0 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := base
			mutate(&cfg)
			_, err := assembly.Random(cfg)
			require.ErrorIs(t, err, assembly.ErrBadConfig)
		})
	}
}

// SPDX-License-Identifier: MIT
// Package sparse_test contains fixtures shared by the sparse tests.

package sparse_test

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/sparsegraph/check"
	"github.com/katalvlaran/sparsegraph/sparse"
)

// fixtureSize is the declared row count covering every index of the mesh fixture.
const fixtureSize = check.FixtureSize

// fixtureConnectivities is the shared 31-element mesh.
func fixtureConnectivities() [][]sparse.Index { return check.Fixture() }

// randomConnectivities returns n lists of k distinct-ish indices in [0, size).
func randomConnectivities(seed uint64, n, k, size int) [][]sparse.Index {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([][]sparse.Index, n)
	for e := range out {
		out[e] = make([]sparse.Index, k)
		for j := range out[e] {
			out[e][j] = sparse.Index(rng.IntN(size))
		}
	}
	return out
}

// builder abstracts over the two graph kinds for table-driven tests.
type builder interface {
	sparse.Pattern
	AddEntries(conn []sparse.Index) error
	AddEntry(row, col sparse.Index) error
	AddBlock(rows, cols []sparse.Index) error
	Merge(other sparse.Pattern) error
	Finalize()
	Clear()
	ExportCSR() (*sparse.CSR, error)
	MarshalBinary() ([]byte, error)
	UnmarshalBinary(data []byte) error
}

// graphKinds lists constructors for both kinds, each sized for fixtureSize.
func graphKinds(t *testing.T) map[string]func() builder {
	t.Helper()
	return map[string]func() builder{
		"map": func() builder { return sparse.NewGraph() },
		"contiguous": func() builder {
			g, err := sparse.NewContiguousGraph(fixtureSize)
			require.NoError(t, err)
			return g
		},
	}
}

// mustBuild inserts every list into g and finalizes it.
func mustBuild(t *testing.T, g builder, conns [][]sparse.Index) {
	t.Helper()
	for _, c := range conns {
		require.NoError(t, g.AddEntries(c))
	}
	g.Finalize()
}

// mustCSR exports g, failing the test on error or malformed arrays.
func mustCSR(t *testing.T, g builder) *sparse.CSR {
	t.Helper()
	csr, err := g.ExportCSR()
	require.NoError(t, err)
	require.NoError(t, csr.Validate())
	return csr
}

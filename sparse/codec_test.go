// SPDX-License-Identifier: MIT

package sparse_test

import (
	"encoding/binary"
	"hash/crc32"
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/sparsegraph/check"
	"github.com/katalvlaran/sparsegraph/sparse"
)

// TestCodec_RoundTrip VERIFIES that both graph kinds survive Marshal, Clear and
// Unmarshal with identical content, CSR and bytes.
// Implementation:
//   - Stage 1: Build the mesh fixture and export its CSR.
//   - Stage 2: Marshal, Clear, Unmarshal into the same receiver.
//   - Stage 3: Compare against the reference, the earlier CSR and a re-encoding.
func TestCodec_RoundTrip(t *testing.T) {
	conns := fixtureConnectivities()
	ref := check.ReferenceFrom(conns)
	for name, newGraph := range graphKinds(t) {
		t.Run(name, func(t *testing.T) {
			g := newGraph()
			mustBuild(t, g, conns)
			before := mustCSR(t, g)

			data, err := g.MarshalBinary()
			require.NoError(t, err)
			g.Clear()
			require.Equal(t, 0, g.NonZeros())

			require.NoError(t, g.UnmarshalBinary(data))
			require.True(t, g.Finalized())
			require.NoError(t, check.Graph(g, ref))
			require.True(t, before.Equal(mustCSR(t, g)))

			again, err := g.MarshalBinary()
			require.NoError(t, err)
			assert.Equal(t, data, again, "encoding is deterministic")
		})
	}
}

// TestCodec_UnfinalizedRoundTrip saves mid-assembly; the reloaded graph keeps
// accepting inserts and finalizes to the same result.
func TestCodec_UnfinalizedRoundTrip(t *testing.T) {
	conns := randomConnectivities(11, 200, 6, fixtureSize)
	half := len(conns) / 2
	for name, newGraph := range graphKinds(t) {
		t.Run(name, func(t *testing.T) {
			full := newGraph()
			mustBuild(t, full, conns)

			g := newGraph()
			for _, c := range conns[:half] {
				require.NoError(t, g.AddEntries(c))
			}
			data, err := g.MarshalBinary()
			require.NoError(t, err)

			loaded := newGraph()
			require.NoError(t, loaded.UnmarshalBinary(data))
			require.False(t, loaded.Finalized())
			for _, c := range conns[half:] {
				require.NoError(t, loaded.AddEntries(c))
			}
			loaded.Finalize()
			require.True(t, mustCSR(t, full).Equal(mustCSR(t, loaded)))
		})
	}
}

// TestCodec_RejectsCorruptPayload VERIFIES every malformed payload is rejected
// with a sentinel error and leaves the receiving graph untouched.
func TestCodec_RejectsCorruptPayload(t *testing.T) {
	g := sparse.NewGraph()
	mustBuild(t, g, fixtureConnectivities())
	data, err := g.MarshalBinary()
	require.NoError(t, err)

	target := sparse.NewGraph()
	require.NoError(t, target.AddEntries([]sparse.Index{1, 2}))

	flipped := append([]byte(nil), data...)
	flipped[len(flipped)/2] ^= 0xff

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, sparse.ErrCorrupt},
		{"truncated", data[:len(data)-9], sparse.ErrCorrupt},
		{"bit flip", flipped, sparse.ErrCorrupt},
		{"bad magic", withCRC(replaceAt(data, 0, []byte("NOTGRAPH"))), sparse.ErrCorrupt},
		{"future version", withCRC(replaceAt(data, 8, []byte{9, 0, 0, 0})), sparse.ErrVersion},
		{"size beyond highest row", withCRC(replaceAt(data, 16, []byte{99, 0, 0, 0, 0, 0, 0, 0})), sparse.ErrCorrupt},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, target.UnmarshalBinary(tc.data), tc.want)
			assert.Equal(t, 4, target.NonZeros(), "failed load leaves the target unchanged")
			assert.True(t, target.Has(1, 2))
		})
	}
}

// TestCodec_MapGraphHugeRowIDs VERIFIES that map graphs whose row ids lie far
// past the contiguous allocation limit still save and load back intact.
func TestCodec_MapGraphHugeRowIDs(t *testing.T) {
	for _, conn := range [][]sparse.Index{{1 << 31, 3}, {math.MaxUint64, 0}} {
		g := sparse.NewGraph()
		require.NoError(t, g.AddEntries(conn))
		g.Finalize()
		data, err := g.MarshalBinary()
		require.NoError(t, err)

		back := sparse.NewGraph()
		require.NoError(t, back.UnmarshalBinary(data))
		assert.True(t, back.Finalized())
		assert.Equal(t, g.Size(), back.Size())
		assert.Equal(t, 4, back.NonZeros())
		assert.Equal(t, slices.Collect(g.Entries()), slices.Collect(back.Entries()))
		require.NoError(t, check.Symmetric(back))

		again, err := back.MarshalBinary()
		require.NoError(t, err)
		assert.Equal(t, data, again)
	}
}

// TestCodec_ContiguousSizeLimit VERIFIES a contiguous payload declaring more
// rows than the allocation limit is rejected before anything is allocated.
func TestCodec_ContiguousSizeLimit(t *testing.T) {
	src, err := sparse.NewContiguousGraph(4)
	require.NoError(t, err)
	require.NoError(t, src.AddEntries([]sparse.Index{1, 2}))
	data, err := src.MarshalBinary()
	require.NoError(t, err)

	huge := binary.LittleEndian.AppendUint64(nil, 1<<31)
	dst, err := sparse.NewContiguousGraph(2)
	require.NoError(t, err)
	require.ErrorIs(t, dst.UnmarshalBinary(withCRC(replaceAt(data, 16, huge))), sparse.ErrCorrupt)
	assert.Equal(t, 2, dst.Size())
}

// TestCodec_KindMismatch VERIFIES a payload of one kind never loads into the other.
func TestCodec_KindMismatch(t *testing.T) {
	c, err := sparse.NewContiguousGraph(fixtureSize)
	require.NoError(t, err)
	mustBuild(t, c, fixtureConnectivities())
	data, err := c.MarshalBinary()
	require.NoError(t, err)

	require.ErrorIs(t, sparse.NewGraph().UnmarshalBinary(data), sparse.ErrKindMismatch)

	m := sparse.NewGraph()
	mustBuild(t, m, fixtureConnectivities())
	mdata, err := m.MarshalBinary()
	require.NoError(t, err)
	require.ErrorIs(t, c.UnmarshalBinary(mdata), sparse.ErrKindMismatch)
	require.True(t, c.Has(19, 11), "contiguous target unchanged")
}

// TestCodec_ContiguousAdoptsPayloadSize VERIFIES a contiguous receiver takes the
// declared size of the payload rather than keeping its own.
func TestCodec_ContiguousAdoptsPayloadSize(t *testing.T) {
	src, err := sparse.NewContiguousGraph(100)
	require.NoError(t, err)
	mustBuild(t, src, [][]sparse.Index{{98, 99}})
	data, err := src.MarshalBinary()
	require.NoError(t, err)

	dst, err := sparse.NewContiguousGraph(0)
	require.NoError(t, err)
	require.NoError(t, dst.UnmarshalBinary(data))
	assert.Equal(t, 100, dst.Size())
	assert.True(t, dst.Has(99, 98))
	assert.False(t, dst.Has(0, 0))
}

// replaceAt returns a copy of data with patch written at off.
func replaceAt(data []byte, off int, patch []byte) []byte {
	out := append([]byte(nil), data...)
	copy(out[off:], patch)
	return out
}

// withCRC recomputes the CRC32 trailer so only the patched field is wrong.
func withCRC(data []byte) []byte {
	body := data[:len(data)-4]
	binary.LittleEndian.PutUint32(data[len(data)-4:], crc32.ChecksumIEEE(body))
	return data
}

// SPDX-License-Identifier: MIT

package serialize_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/sparsegraph/check"
	"github.com/katalvlaran/sparsegraph/serialize"
	"github.com/katalvlaran/sparsegraph/sparse"
)

var meshConns = check.Fixture()

func meshGraph(t testing.TB) *sparse.Graph {
	t.Helper()
	g := sparse.NewGraph()
	for _, c := range meshConns {
		require.NoError(t, g.AddEntries(c))
	}
	g.Finalize()
	return g
}

func meshContiguous(t testing.TB) *sparse.ContiguousGraph {
	t.Helper()
	g, err := sparse.NewContiguousGraph(40)
	require.NoError(t, err)
	for _, c := range meshConns {
		require.NoError(t, g.AddEntries(c))
	}
	g.Finalize()
	return g
}

func csrOf(t testing.TB, p interface{ ExportCSR() (*sparse.CSR, error) }) *sparse.CSR {
	t.Helper()
	c, err := p.ExportCSR()
	require.NoError(t, err)
	return c
}

func badgerDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := serialize.OpenBadger("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// backends yields a fresh backend per name.
func backends(t *testing.T) map[string]func() serialize.Backend {
	return map[string]func() serialize.Backend{
		"memory": func() serialize.Backend { return serialize.NewMemoryBackend() },
		"badger": func() serialize.Backend { return serialize.NewBadgerBackend(badgerDB(t)) },
	}
}

func TestSerializer_RoundTrip(t *testing.T) {
	for name, mk := range backends(t) {
		for _, compress := range []bool{false, true} {
			t.Run(fmt.Sprintf("%s/compress=%t", name, compress), func(t *testing.T) {
				opts := []serialize.Option{serialize.WithBackend(mk())}
				if compress {
					opts = append(opts, serialize.WithCompression())
				}
				s := serialize.New(opts...)
				defer s.Close()

				g := meshGraph(t)
				cg := meshContiguous(t)
				require.NoError(t, s.Save("map", g))
				require.NoError(t, s.Save("contiguous", cg))

				var back sparse.Graph
				require.NoError(t, s.Load("map", &back))
				assert.True(t, back.Finalized())
				assert.True(t, csrOf(t, g).Equal(csrOf(t, &back)))

				cback, err := sparse.NewContiguousGraph(0)
				require.NoError(t, err)
				require.NoError(t, s.Load("contiguous", cback))
				assert.Equal(t, 40, cback.Size())
				assert.True(t, csrOf(t, cg).Equal(csrOf(t, cback)))

				tags, err := s.Tags()
				require.NoError(t, err)
				assert.Equal(t, []string{"contiguous", "map"}, tags)
			})
		}
	}
}

func TestSerializer_MissingAndDelete(t *testing.T) {
	for name, mk := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := serialize.New(serialize.WithBackend(mk()))
			var g sparse.Graph
			require.ErrorIs(t, s.Load("nope", &g), serialize.ErrTagNotFound)
			require.ErrorIs(t, s.Delete("nope"), serialize.ErrTagNotFound)

			ok, err := s.Has("nope")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Save("k", meshGraph(t)))
			ok, err = s.Has("k")
			require.NoError(t, err)
			assert.True(t, ok)

			require.NoError(t, s.Delete("k"))
			ok, err = s.Has("k")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestSerializer_InvalidArguments(t *testing.T) {
	s := serialize.New()
	var nilGraph *sparse.Graph

	require.ErrorIs(t, s.Save("", meshGraph(t)), serialize.ErrEmptyTag)
	require.ErrorIs(t, s.Save("x", nil), serialize.ErrNilValue)
	require.ErrorIs(t, s.Save("x", nilGraph), serialize.ErrNilValue)
	require.ErrorIs(t, s.Load("", &sparse.Graph{}), serialize.ErrEmptyTag)
	require.ErrorIs(t, s.Load("x", nilGraph), serialize.ErrNilValue)
	require.ErrorIs(t, s.Delete(""), serialize.ErrEmptyTag)
	_, err := s.Has("")
	require.ErrorIs(t, err, serialize.ErrEmptyTag)
}

func TestSerializer_CorruptRecordLeavesTargetUnchanged(t *testing.T) {
	backend := serialize.NewMemoryBackend()
	s := serialize.New(serialize.WithBackend(backend))

	payload, err := meshGraph(t).MarshalBinary()
	require.NoError(t, err)
	damaged := append([]byte{0}, payload...)
	damaged[len(damaged)/2] ^= 0x40

	tests := []struct {
		name   string
		record []byte
		want   error
	}{
		{"empty record", nil, serialize.ErrCorrupt},
		{"unknown marker", []byte{7, 1, 2, 3}, serialize.ErrCorrupt},
		{"bad zstd frame", []byte{1, 0xde, 0xad, 0xbe, 0xef}, serialize.ErrCorrupt},
		{"damaged payload", damaged, sparse.ErrCorrupt},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, backend.Put("bad", tc.record))

			target := sparse.NewGraph()
			require.NoError(t, target.AddEntries([]sparse.Index{1, 2}))
			err := s.Load("bad", target)
			require.ErrorIs(t, err, tc.want)
			assert.Contains(t, err.Error(), `load "bad"`)

			assert.False(t, target.Finalized())
			assert.Equal(t, 4, target.NonZeros())
			assert.True(t, target.Has(2, 1))
		})
	}
}

func TestSerializer_KindMismatch(t *testing.T) {
	s := serialize.New()
	require.NoError(t, s.Save("map", meshGraph(t)))

	cg, err := sparse.NewContiguousGraph(3)
	require.NoError(t, err)
	require.ErrorIs(t, s.Load("map", cg), sparse.ErrKindMismatch)
	assert.Equal(t, 3, cg.Size())
}

func TestSerializer_CompressionIsReadableWithout(t *testing.T) {
	backend := serialize.NewMemoryBackend()
	writer := serialize.New(serialize.WithBackend(backend), serialize.WithCompression())
	defer writer.Close()
	reader := serialize.New(serialize.WithBackend(backend))
	defer reader.Close()

	g := meshGraph(t)
	require.NoError(t, writer.Save("g", g))

	raw, err := backend.Get("g")
	require.NoError(t, err)
	assert.Equal(t, byte(1), raw[0], "zstd marker")

	var back sparse.Graph
	require.NoError(t, reader.Load("g", &back))
	assert.True(t, csrOf(t, g).Equal(csrOf(t, &back)))
}

func TestSerializer_StreamRoundTrip(t *testing.T) {
	src := serialize.New(serialize.WithCompression())
	defer src.Close()
	require.NoError(t, src.Save("a", meshGraph(t)))
	require.NoError(t, src.Save("b", meshContiguous(t)))

	var buf bytes.Buffer
	n, err := src.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	dst := serialize.New()
	defer dst.Close()
	m, err := dst.ReadFrom(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, n, m)

	tags, err := dst.Tags()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tags)

	var back sparse.Graph
	require.NoError(t, dst.Load("a", &back))
	assert.True(t, csrOf(t, meshGraph(t)).Equal(csrOf(t, &back)))
}

func TestSerializer_CorruptStreamStoresNothing(t *testing.T) {
	src := serialize.New()
	require.NoError(t, src.Save("a", meshGraph(t)))
	require.NoError(t, src.Save("b", meshGraph(t)))
	var buf bytes.Buffer
	_, err := src.WriteTo(&buf)
	require.NoError(t, err)
	good := buf.Bytes()

	flipped := bytes.Clone(good)
	flipped[len(flipped)-10] ^= 0xff

	for name, data := range map[string][]byte{
		"empty":     nil,
		"truncated": good[:len(good)-7],
		"bit flip":  flipped,
	} {
		t.Run(name, func(t *testing.T) {
			dst := serialize.New()
			_, err := dst.ReadFrom(bytes.NewReader(data))
			require.ErrorIs(t, err, serialize.ErrCorrupt)
			tags, err := dst.Tags()
			require.NoError(t, err)
			assert.Empty(t, tags)
		})
	}
}

func TestSerializer_WriteFileReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "patterns.bin")

	src := serialize.New()
	require.NoError(t, src.Save("mesh", meshGraph(t)))
	require.NoError(t, src.WriteFile(path))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp file must be renamed away")
	assert.Equal(t, "patterns.bin", entries[0].Name())

	dst := serialize.New(serialize.WithBackend(serialize.NewBadgerBackend(badgerDB(t))))
	require.NoError(t, dst.ReadFile(path))
	var back sparse.Graph
	require.NoError(t, dst.Load("mesh", &back))
	assert.True(t, csrOf(t, meshGraph(t)).Equal(csrOf(t, &back)))

	require.Error(t, dst.ReadFile(filepath.Join(dir, "missing.bin")))
}

func TestBadgerBackend_PrefixIsolation(t *testing.T) {
	db := badgerDB(t)
	a := serialize.NewBadgerBackendWithPrefix(db, "a/")
	b := serialize.NewBadgerBackendWithPrefix(db, "b/")

	require.NoError(t, a.Put("x", []byte{1}))
	require.NoError(t, b.Put("y", []byte{2}))

	tagsA, err := a.Tags()
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, tagsA)

	_, err = b.Get("x")
	require.ErrorIs(t, err, serialize.ErrTagNotFound)

	got, err := b.Get("y")
	require.NoError(t, err)
	assert.Equal(t, []byte{2}, got)
}

func TestSerializer_Cache(t *testing.T) {
	backend := serialize.NewMemoryBackend()
	s := serialize.New(serialize.WithBackend(backend), serialize.WithCache(4))

	g := meshGraph(t)
	require.NoError(t, s.Save("g", g))

	// Damage the stored record behind the serializer's back: the cached
	// payload still serves Load.
	require.NoError(t, backend.Put("g", []byte{9}))
	var back sparse.Graph
	require.NoError(t, s.Load("g", &back))
	assert.True(t, csrOf(t, g).Equal(csrOf(t, &back)))

	// A serializer without the cache sees the damage.
	plain := serialize.New(serialize.WithBackend(backend))
	require.ErrorIs(t, plain.Load("g", &back), serialize.ErrCorrupt)

	require.NoError(t, s.Delete("g"))
	require.ErrorIs(t, s.Load("g", &back), serialize.ErrTagNotFound)

	assert.Panics(t, func() { serialize.WithCache(0) })
}

// SPDX-License-Identifier: MIT
// File: codec.go
// Role: Binary payload of both graph kinds (encoding.BinaryMarshaler /
//       encoding.BinaryUnmarshaler), consumed by package serialize.
// Layout (little-endian):
//
//	header   {Magic "SPGRAPH1", Version u32, Kind u8, Flags u8, pad u16,
//	          Size u64, NumRows u64, NonZeros u64}
//	rows     NumRows × u64   ascending row ids of non-empty rows
//	counts   NumRows × u64   column count per row
//	cols     NonZeros × u64  per-row ascending columns, concatenated
//	crc      u32             CRC32 (IEEE) of everything above
//
// Decoding validates magic, version, kind, counts against the payload length,
// ordering, bounds and CRC, and only then replaces the receiver's state.

package sparse

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"iter"
	"math"
	"slices"
)

const (
	payloadMagic   = "SPGRAPH1"
	payloadVersion = uint32(1)

	flagFinalized = uint8(1 << 0)

	// maxDecodeSize caps the declared row count a contiguous payload may ask
	// us to allocate. Map payloads allocate by NumRows and NonZeros only.
	maxDecodeSize = MaxCSRRows
)

// payloadHeader is the fixed-size payload prefix.
type payloadHeader struct {
	Magic    [8]byte
	Version  uint32
	Kind     uint8
	Flags    uint8
	_        uint16
	Size     uint64
	NumRows  uint64
	NonZeros uint64
}

var headerSize = binary.Size(payloadHeader{})

// decoded is a fully validated payload, not yet applied to a graph.
type decoded struct {
	kind      Kind
	finalized bool
	size      int
	rows      []Index
	counts    []Index
	cols      []Index
}

// encodeGraph writes the payload of any Pattern. Columns are emitted
// ascending even for unfinalized graphs so that equal content yields equal bytes.
func encodeGraph(kind Kind, p Pattern) ([]byte, error) {
	var rows, counts, cols []Index
	for i, rc := range p.All() {
		rows = append(rows, i)
		counts = append(counts, Index(len(rc)))
		if p.Finalized() {
			cols = append(cols, rc...)
		} else {
			cols = append(cols, slices.Sorted(slices.Values(rc))...)
		}
	}

	hdr := payloadHeader{
		Version:  payloadVersion,
		Kind:     uint8(kind),
		Size:     uint64(p.Size()),
		NumRows:  uint64(len(rows)),
		NonZeros: uint64(len(cols)),
	}
	copy(hdr.Magic[:], payloadMagic)
	if p.Finalized() {
		hdr.Flags |= flagFinalized
	}

	var buf bytes.Buffer
	buf.Grow(headerSize + 8*(2*len(rows)+len(cols)) + 4)
	if err := binary.Write(&buf, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	if err := writeIndexSlice(&buf, rows); err != nil {
		return nil, fmt.Errorf("write rows: %w", err)
	}
	if err := writeIndexSlice(&buf, counts); err != nil {
		return nil, fmt.Errorf("write counts: %w", err)
	}
	if err := writeIndexSlice(&buf, cols); err != nil {
		return nil, fmt.Errorf("write cols: %w", err)
	}
	checksum := crc32.ChecksumIEEE(buf.Bytes())
	if err := binary.Write(&buf, binary.LittleEndian, checksum); err != nil {
		return nil, fmt.Errorf("write CRC32: %w", err)
	}
	return buf.Bytes(), nil
}

// writeIndexSlice appends s as little-endian u64s.
func writeIndexSlice(buf *bytes.Buffer, s []Index) error {
	if len(s) == 0 {
		return nil
	}
	b := make([]byte, 0, 8*len(s))
	for _, v := range s {
		b = binary.LittleEndian.AppendUint64(b, uint64(v))
	}
	_, err := buf.Write(b)
	return err
}

// readIndexSlice reads n little-endian u64s.
func readIndexSlice(r *bytes.Reader, n int) ([]Index, error) {
	if n == 0 {
		return nil, nil
	}
	b := make([]byte, 8*n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	s := make([]Index, n)
	for k := range s {
		s[k] = Index(binary.LittleEndian.Uint64(b[8*k:]))
	}
	return s, nil
}

// decodeGraph validates data and returns its content.
func decodeGraph(want Kind, data []byte) (*decoded, error) {
	if len(data) < headerSize+4 {
		return nil, fmt.Errorf("%w: payload of %d bytes is truncated", ErrCorrupt, len(data))
	}
	body, trailer := data[:len(data)-4], data[len(data)-4:]
	stored := binary.LittleEndian.Uint32(trailer)
	if computed := crc32.ChecksumIEEE(body); stored != computed {
		return nil, fmt.Errorf("%w: CRC32 mismatch: stored=%08x computed=%08x", ErrCorrupt, stored, computed)
	}

	r := bytes.NewReader(body)
	var hdr payloadHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrCorrupt, err)
	}
	if string(hdr.Magic[:]) != payloadMagic {
		return nil, fmt.Errorf("%w: invalid magic bytes %q", ErrCorrupt, hdr.Magic)
	}
	if hdr.Version != payloadVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersion, hdr.Version)
	}
	if Kind(hdr.Kind) != want {
		return nil, fmt.Errorf("%w: payload is %s, target is %s", ErrKindMismatch, Kind(hdr.Kind), want)
	}
	if want == KindContiguous && hdr.Size > maxDecodeSize {
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrCorrupt, hdr.Size, maxDecodeSize)
	}
	if hdr.Size > math.MaxInt {
		return nil, fmt.Errorf("%w: size %d overflows int", ErrCorrupt, hdr.Size)
	}
	// Every remaining u64 must be accounted for by the header counts.
	remaining := uint64(r.Len())
	if remaining%8 != 0 || hdr.NumRows > remaining/8 || hdr.NonZeros > remaining/8 ||
		2*hdr.NumRows+hdr.NonZeros != remaining/8 {
		return nil, fmt.Errorf("%w: header counts (rows=%d nnz=%d) do not match %d body bytes",
			ErrCorrupt, hdr.NumRows, hdr.NonZeros, remaining)
	}

	d := &decoded{
		kind:      Kind(hdr.Kind),
		finalized: hdr.Flags&flagFinalized != 0,
		size:      int(hdr.Size),
	}
	var err error
	if d.rows, err = readIndexSlice(r, int(hdr.NumRows)); err != nil {
		return nil, fmt.Errorf("%w: read rows: %v", ErrCorrupt, err)
	}
	if d.counts, err = readIndexSlice(r, int(hdr.NumRows)); err != nil {
		return nil, fmt.Errorf("%w: read counts: %v", ErrCorrupt, err)
	}
	if d.cols, err = readIndexSlice(r, int(hdr.NonZeros)); err != nil {
		return nil, fmt.Errorf("%w: read cols: %v", ErrCorrupt, err)
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// validate checks ordering, counts and bounds of a decoded payload.
func (d *decoded) validate() error {
	var total uint64
	for k, i := range d.rows {
		if k > 0 && i <= d.rows[k-1] {
			return fmt.Errorf("%w: rows not strictly ascending at %d", ErrCorrupt, k)
		}
		if d.kind == KindContiguous && i >= Index(d.size) {
			return fmt.Errorf("%w: row %d outside size %d", ErrCorrupt, i, d.size)
		}
		if d.counts[k] > Index(len(d.cols)) {
			return fmt.Errorf("%w: row %d count %d exceeds %d columns", ErrCorrupt, i, d.counts[k], len(d.cols))
		}
		total += uint64(d.counts[k])
	}
	if total != uint64(len(d.cols)) {
		return fmt.Errorf("%w: row counts sum to %d, want %d", ErrCorrupt, total, len(d.cols))
	}
	if d.kind == KindMap {
		// A map graph's size is always its highest row + 1, saturated.
		want := 0
		if len(d.rows) > 0 {
			want = spanOf(d.rows[len(d.rows)-1])
		}
		if d.size != want {
			return fmt.Errorf("%w: size %d, highest row implies %d", ErrCorrupt, d.size, want)
		}
	}
	for i, cols := range d.all() {
		for k := 1; k < len(cols); k++ {
			if cols[k] <= cols[k-1] {
				return fmt.Errorf("%w: row %d columns not strictly ascending", ErrCorrupt, i)
			}
		}
		if d.kind == KindContiguous && len(cols) > 0 && cols[len(cols)-1] >= Index(d.size) {
			return fmt.Errorf("%w: row %d column %d outside size %d", ErrCorrupt, i, cols[len(cols)-1], d.size)
		}
	}
	return nil
}

// all yields each decoded row with its column slice.
func (d *decoded) all() iter.Seq2[Index, []Index] {
	return func(yield func(Index, []Index) bool) {
		var off Index
		for k, i := range d.rows {
			end := off + d.counts[k]
			if !yield(i, d.cols[off:end]) {
				return
			}
			off = end
		}
	}
}

// rowSetFrom builds a RowSet from ascending, duplicate-free cols.
func rowSetFrom(cols []Index, finalized bool) RowSet {
	s := RowSet{cols: slices.Clone(cols), sorted: finalized}
	if !finalized && len(s.cols) > linearScanLimit {
		s.buildIndex()
	}
	return s
}

// MarshalBinary encodes g. g must not be mutated concurrently.
func (g *Graph) MarshalBinary() ([]byte, error) {
	return encodeGraph(KindMap, g)
}

// UnmarshalBinary replaces the content of g with data. On error g is unchanged.
//
// Errors: ErrCorrupt, ErrVersion, ErrKindMismatch.
func (g *Graph) UnmarshalBinary(data []byte) error {
	d, err := decodeGraph(KindMap, data)
	if err != nil {
		return err
	}
	rows := make(map[Index]*RowSet, len(d.rows))
	for i, cols := range d.all() {
		s := rowSetFrom(cols, d.finalized)
		rows[i] = &s
	}
	g.rows = rows
	g.top = 0
	if len(d.rows) > 0 {
		g.top = d.rows[len(d.rows)-1]
	}
	g.nnz = len(d.cols)
	g.finalized = d.finalized
	g.order = nil
	if d.finalized {
		g.order = slices.Clone(d.rows)
	}
	return nil
}

// MarshalBinary encodes g. Writers must have returned.
func (g *ContiguousGraph) MarshalBinary() ([]byte, error) {
	return encodeGraph(KindContiguous, g)
}

// UnmarshalBinary replaces the content and declared size of g with data.
// On error g is unchanged. Not safe alongside any other method.
//
// Errors: ErrCorrupt, ErrVersion, ErrKindMismatch.
func (g *ContiguousGraph) UnmarshalBinary(data []byte) error {
	d, err := decodeGraph(KindContiguous, data)
	if err != nil {
		return err
	}
	rows := make([]lockedRow, d.size)
	for i, cols := range d.all() {
		rows[i].set = rowSetFrom(cols, d.finalized)
	}
	if d.finalized {
		// Empty rows are finalized too, so later Contains uses binary search.
		for i := range rows {
			rows[i].set.sorted = true
		}
	}
	g.rows = rows
	g.nnz.Store(int64(len(d.cols)))
	g.finalized.Store(d.finalized)
	return nil
}

// SPDX-License-Identifier: MIT

// Package serialize stores binary payloads under string tags.
//
// A Serializer accepts any encoding.BinaryMarshaler on Save and any
// encoding.BinaryUnmarshaler on Load, so both sparse.Graph and
// sparse.ContiguousGraph round-trip through it unchanged:
//
//	s := serialize.New(serialize.WithCompression())
//	defer s.Close()
//	_ = s.Save("stiffness", g)
//	var back sparse.Graph
//	_ = s.Load("stiffness", &back)
//
// Storage is pluggable through Backend. NewMemoryBackend is the default;
// NewBadgerBackend keeps tags in an embedded BadgerDB under a key prefix.
//
// Each stored record carries a one-byte codec marker, so a Serializer
// without compression can still load records written with it and the other
// way round. WithCompression uses zstd (github.com/klauspost/compress/zstd).
//
// WithCache keeps recently opened payloads in an LRU
// (github.com/hashicorp/golang-lru/v2) so repeated Loads of hot tags skip
// the backend and zstd.
//
// The whole tag set can be written to a single framed stream (WriteTo,
// WriteFile) and read back (ReadFrom, ReadFile). The stream ends in a CRC32
// of its contents and is validated completely before any tag is stored.
//
// Errors:
//
//	ErrTagNotFound  - Load/Delete of an unknown tag.
//	ErrEmptyTag     - Save/Load/Delete/Has with "".
//	ErrNilValue     - Save/Load with a nil value.
//	ErrCorrupt      - bad record marker, bad zstd frame or bad stream.
//
// Errors returned by the value's UnmarshalBinary (for graphs: sparse.ErrCorrupt,
// sparse.ErrVersion, sparse.ErrKindMismatch) are wrapped with the tag and
// leave the target unchanged.
package serialize

// SPDX-License-Identifier: MIT
// File: stream.go
// Role: Whole-store persistence of a Serializer as one framed stream.
// Layout (little-endian):
//
//	magic    "SPSTORE1"
//	version  u32
//	count    u32             number of records
//	records  count × {tagLen u32, tag, dataLen u64, data}
//	crc      u32             CRC32 (IEEE) of everything above
//
// Records hold the stored bytes verbatim (codec marker included), so a
// stream written with compression stays compressed on disk.

package serialize

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	streamMagic   = "SPSTORE1"
	streamVersion = uint32(1)

	// maxStreamTag bounds a single tag length read from a stream.
	maxStreamTag = 1 << 16
)

type streamRecord struct {
	tag  string
	data []byte
}

// crcWriter tees writes into a running CRC32.
type crcWriter struct {
	w    io.Writer
	hash hash.Hash32
	n    int64
}

func (c *crcWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.hash.Write(p[:n])
	c.n += int64(n)
	return n, err
}

// WriteTo writes every stored record to w. It implements io.WriterTo.
func (s *Serializer) WriteTo(w io.Writer) (int64, error) {
	tags, err := s.backend.Tags()
	if err != nil {
		return 0, fmt.Errorf("write stream: %w", err)
	}
	cw := &crcWriter{w: w, hash: crc32.NewIEEE()}

	if _, err := io.WriteString(cw, streamMagic); err != nil {
		return cw.n, fmt.Errorf("write stream magic: %w", err)
	}
	if err := binary.Write(cw, binary.LittleEndian, [2]uint32{streamVersion, uint32(len(tags))}); err != nil {
		return cw.n, fmt.Errorf("write stream header: %w", err)
	}
	for _, tag := range tags {
		data, err := s.backend.Get(tag)
		if err != nil {
			return cw.n, fmt.Errorf("write stream %q: %w", tag, err)
		}
		if err := binary.Write(cw, binary.LittleEndian, uint32(len(tag))); err != nil {
			return cw.n, fmt.Errorf("write stream %q: %w", tag, err)
		}
		if _, err := io.WriteString(cw, tag); err != nil {
			return cw.n, fmt.Errorf("write stream %q: %w", tag, err)
		}
		if err := binary.Write(cw, binary.LittleEndian, uint64(len(data))); err != nil {
			return cw.n, fmt.Errorf("write stream %q: %w", tag, err)
		}
		if _, err := cw.Write(data); err != nil {
			return cw.n, fmt.Errorf("write stream %q: %w", tag, err)
		}
	}

	sum := cw.hash.Sum32()
	if err := binary.Write(w, binary.LittleEndian, sum); err != nil {
		return cw.n, fmt.Errorf("write stream CRC32: %w", err)
	}
	s.logger.Debug("serializer stream written", slog.Int("records", len(tags)), slog.Int64("bytes", cw.n+4))
	return cw.n + 4, nil
}

// ReadFrom reads a stream produced by WriteTo and stores its records,
// replacing same-named tags. The stream is validated completely before the
// first record is stored. It implements io.ReaderFrom.
func (s *Serializer) ReadFrom(r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	n := int64(len(data))
	if err != nil {
		return n, fmt.Errorf("read stream: %w", err)
	}
	records, err := parseStream(data)
	if err != nil {
		return n, err
	}
	for _, rec := range records {
		s.forget(rec.tag)
		if err := s.backend.Put(rec.tag, rec.data); err != nil {
			return n, fmt.Errorf("read stream %q: %w", rec.tag, err)
		}
	}
	s.logger.Debug("serializer stream read", slog.Int("records", len(records)), slog.Int64("bytes", n))
	return n, nil
}

func parseStream(data []byte) ([]streamRecord, error) {
	const fixed = len(streamMagic) + 4 + 4
	if len(data) < fixed+4 {
		return nil, fmt.Errorf("%w: stream too short (%d bytes)", ErrCorrupt, len(data))
	}
	body, trailer := data[:len(data)-4], data[len(data)-4:]
	if got, want := crc32.ChecksumIEEE(body), binary.LittleEndian.Uint32(trailer); got != want {
		return nil, fmt.Errorf("%w: stream CRC32 mismatch (got %08x, want %08x)", ErrCorrupt, got, want)
	}
	if string(body[:len(streamMagic)]) != streamMagic {
		return nil, fmt.Errorf("%w: bad stream magic %q", ErrCorrupt, body[:len(streamMagic)])
	}
	if v := binary.LittleEndian.Uint32(body[len(streamMagic):]); v != streamVersion {
		return nil, fmt.Errorf("%w: unsupported stream version %d", ErrCorrupt, v)
	}
	count := binary.LittleEndian.Uint32(body[len(streamMagic)+4:])

	rd := bytes.NewReader(body[fixed:])
	records := make([]streamRecord, 0, min(int(count), rd.Len()/12))
	for i := uint32(0); i < count; i++ {
		var tagLen uint32
		if err := binary.Read(rd, binary.LittleEndian, &tagLen); err != nil {
			return nil, fmt.Errorf("%w: record %d: tag length: %v", ErrCorrupt, i, err)
		}
		if tagLen == 0 || tagLen > maxStreamTag || int(tagLen) > rd.Len() {
			return nil, fmt.Errorf("%w: record %d: bad tag length %d", ErrCorrupt, i, tagLen)
		}
		tag := make([]byte, tagLen)
		if _, err := io.ReadFull(rd, tag); err != nil {
			return nil, fmt.Errorf("%w: record %d: tag: %v", ErrCorrupt, i, err)
		}
		var dataLen uint64
		if err := binary.Read(rd, binary.LittleEndian, &dataLen); err != nil {
			return nil, fmt.Errorf("%w: record %q: data length: %v", ErrCorrupt, tag, err)
		}
		if dataLen > uint64(rd.Len()) {
			return nil, fmt.Errorf("%w: record %q: data length %d exceeds stream", ErrCorrupt, tag, dataLen)
		}
		rec := make([]byte, dataLen)
		if _, err := io.ReadFull(rd, rec); err != nil {
			return nil, fmt.Errorf("%w: record %q: data: %v", ErrCorrupt, tag, err)
		}
		records = append(records, streamRecord{tag: string(tag), data: rec})
	}
	if rd.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after %d records", ErrCorrupt, rd.Len(), count)
	}
	return records, nil
}

// WriteFile writes the stream to path atomically: a temp file in the same
// directory is written, synced and renamed over path.
func (s *Serializer) WriteFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	f, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := f.Name()
	defer func() {
		// No-op after a successful rename.
		_ = os.Remove(tmpPath)
	}()

	bw := bufio.NewWriterSize(f, 1<<20)
	if _, err := s.WriteTo(bw); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	// Atomic rename.
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// ReadFile loads a stream written by WriteFile.
func (s *Serializer) ReadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	if _, err := s.ReadFrom(bufio.NewReaderSize(f, 1<<20)); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

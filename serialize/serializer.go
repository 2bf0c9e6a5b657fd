// SPDX-License-Identifier: MIT

package serialize

import (
	"encoding"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/klauspost/compress/zstd"
)

// Record codec markers (first byte of every stored record).
const (
	codecRaw  = byte(0)
	codecZstd = byte(1)
)

// maxDecodedRecord bounds zstd output so a hostile frame cannot exhaust memory.
const maxDecodedRecord = 1 << 32

// Serializer saves and loads binary payloads by tag. It is safe for
// concurrent use when its Backend is.
type Serializer struct {
	backend  Backend
	compress bool
	logger   *slog.Logger
	cache    *lru.Cache[string, []byte]

	encOnce sync.Once
	enc     *zstd.Encoder
	encErr  error

	decOnce sync.Once
	dec     *zstd.Decoder
	decErr  error
}

// New returns a Serializer over an in-memory backend unless WithBackend is given.
func New(opts ...Option) *Serializer {
	s := &Serializer{
		backend: NewMemoryBackend(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend returns the record store.
func (s *Serializer) Backend() Backend { return s.backend }

// Close releases the zstd encoder and decoder. The backend is not closed.
func (s *Serializer) Close() error {
	if s.enc != nil {
		if err := s.enc.Close(); err != nil {
			return fmt.Errorf("close zstd encoder: %w", err)
		}
	}
	if s.dec != nil {
		s.dec.Close()
	}
	return nil
}

// Save marshals v and stores it under tag, replacing any previous record.
func (s *Serializer) Save(tag string, v encoding.BinaryMarshaler) error {
	if tag == "" {
		return ErrEmptyTag
	}
	if isNil(v) {
		return ErrNilValue
	}
	payload, err := v.MarshalBinary()
	if err != nil {
		return fmt.Errorf("save %q: marshal: %w", tag, err)
	}
	record, err := s.seal(payload)
	if err != nil {
		return fmt.Errorf("save %q: %w", tag, err)
	}
	if err := s.backend.Put(tag, record); err != nil {
		s.forget(tag)
		return fmt.Errorf("save %q: %w", tag, err)
	}
	if s.cache != nil {
		s.cache.Add(tag, payload)
	}
	s.logger.Debug("serializer saved",
		slog.String("tag", tag),
		slog.Int("payload_bytes", len(payload)),
		slog.Int("record_bytes", len(record)),
		slog.Bool("compressed", s.compress))
	return nil
}

// Load fetches the record under tag and unmarshals it into v. On any error
// v is left as UnmarshalBinary leaves it on failure (graphs: unchanged).
func (s *Serializer) Load(tag string, v encoding.BinaryUnmarshaler) error {
	if tag == "" {
		return ErrEmptyTag
	}
	if isNil(v) {
		return ErrNilValue
	}
	payload, cached := s.cached(tag)
	if !cached {
		record, err := s.backend.Get(tag)
		if err != nil {
			return fmt.Errorf("load %q: %w", tag, err)
		}
		if payload, err = s.open(record); err != nil {
			return fmt.Errorf("load %q: %w", tag, err)
		}
	}
	if err := v.UnmarshalBinary(payload); err != nil {
		return fmt.Errorf("load %q: %w", tag, err)
	}
	if s.cache != nil && !cached {
		s.cache.Add(tag, payload)
	}
	s.logger.Debug("serializer loaded",
		slog.String("tag", tag),
		slog.Int("payload_bytes", len(payload)),
		slog.Bool("cached", cached))
	return nil
}

// Has reports whether a record is stored under tag.
func (s *Serializer) Has(tag string) (bool, error) {
	if tag == "" {
		return false, ErrEmptyTag
	}
	_, err := s.backend.Get(tag)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrTagNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("has %q: %w", tag, err)
	}
}

// Tags lists stored tags in ascending order.
func (s *Serializer) Tags() ([]string, error) {
	tags, err := s.backend.Tags()
	if err != nil {
		return nil, fmt.Errorf("tags: %w", err)
	}
	return tags, nil
}

// Delete removes tag.
func (s *Serializer) Delete(tag string) error {
	if tag == "" {
		return ErrEmptyTag
	}
	s.forget(tag)
	if err := s.backend.Delete(tag); err != nil {
		return fmt.Errorf("delete %q: %w", tag, err)
	}
	return nil
}

func (s *Serializer) cached(tag string) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	return s.cache.Get(tag)
}

func (s *Serializer) forget(tag string) {
	if s.cache != nil {
		s.cache.Remove(tag)
	}
}

// seal prefixes payload with its codec marker, compressing when enabled.
func (s *Serializer) seal(payload []byte) ([]byte, error) {
	if !s.compress {
		out := make([]byte, 0, len(payload)+1)
		out = append(out, codecRaw)
		return append(out, payload...), nil
	}
	enc, err := s.encoder()
	if err != nil {
		return nil, err
	}
	return enc.EncodeAll(payload, []byte{codecZstd}), nil
}

// open reverses seal.
func (s *Serializer) open(record []byte) ([]byte, error) {
	if len(record) == 0 {
		return nil, fmt.Errorf("%w: empty record", ErrCorrupt)
	}
	switch record[0] {
	case codecRaw:
		return record[1:], nil
	case codecZstd:
		dec, err := s.decoder()
		if err != nil {
			return nil, err
		}
		out, err := dec.DecodeAll(record[1:], nil)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %v", ErrCorrupt, err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unknown codec marker %d", ErrCorrupt, record[0])
	}
}

func (s *Serializer) encoder() (*zstd.Encoder, error) {
	s.encOnce.Do(func() {
		s.enc, s.encErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	})
	if s.encErr != nil {
		return nil, fmt.Errorf("zstd encoder: %w", s.encErr)
	}
	return s.enc, nil
}

func (s *Serializer) decoder() (*zstd.Decoder, error) {
	s.decOnce.Do(func() {
		s.dec, s.decErr = zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(0),
			zstd.WithDecoderMaxMemory(maxDecodedRecord))
	})
	if s.decErr != nil {
		return nil, fmt.Errorf("zstd decoder: %w", s.decErr)
	}
	return s.dec, nil
}

// isNil catches both a nil interface and a typed nil pointer.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// SPDX-License-Identifier: MIT

package serialize

import (
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Option configures a Serializer.
type Option func(*Serializer)

// WithBackend sets the record store. Panics on nil.
func WithBackend(b Backend) Option {
	if b == nil {
		panic("serialize: WithBackend(nil)")
	}
	return func(s *Serializer) { s.backend = b }
}

// WithCompression compresses every saved record with zstd.
func WithCompression() Option {
	return func(s *Serializer) { s.compress = true }
}

// WithLogger routes debug events to logger. A nil logger is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Serializer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCache keeps the last n opened payloads in an LRU keyed by tag, so
// repeated Loads skip the backend and decompression. Entries are dropped on
// Save, Delete and ReadFrom through this Serializer; writes made to a shared
// backend by anyone else are not seen until the entry is evicted.
// Panics if n < 1.
func WithCache(n int) Option {
	if n < 1 {
		panic("serialize: WithCache size must be positive")
	}
	return func(s *Serializer) {
		c, _ := lru.New[string, []byte](n) // only fails for n < 1
		s.cache = c
	}
}

// SPDX-License-Identifier: MIT

package serialize

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
)

// DefaultKeyPrefix namespaces serializer records inside a shared BadgerDB.
const DefaultKeyPrefix = "sparsegraph/tag/"

// BadgerBackend stores records in an embedded BadgerDB under a key prefix.
// The DB is owned by the caller; BadgerBackend never closes it.
type BadgerBackend struct {
	db     *badger.DB
	prefix []byte
}

// NewBadgerBackend wraps db, storing keys under DefaultKeyPrefix.
func NewBadgerBackend(db *badger.DB) *BadgerBackend {
	return NewBadgerBackendWithPrefix(db, DefaultKeyPrefix)
}

// NewBadgerBackendWithPrefix wraps db, storing keys under prefix.
func NewBadgerBackendWithPrefix(db *badger.DB, prefix string) *BadgerBackend {
	return &BadgerBackend{db: db, prefix: []byte(prefix)}
}

func (b *BadgerBackend) key(tag string) []byte {
	k := make([]byte, 0, len(b.prefix)+len(tag))
	k = append(k, b.prefix...)
	return append(k, tag...)
}

// Put stores data under tag.
func (b *BadgerBackend) Put(tag string, data []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(b.key(tag), data)
	})
	if err != nil {
		return fmt.Errorf("badger put %q: %w", tag, err)
	}
	return nil
}

// Get returns a copy of the record stored under tag.
func (b *BadgerBackend) Get(tag string) ([]byte, error) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(b.key(tag))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrTagNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("badger get %q: %w", tag, err)
	}
	return out, nil
}

// Delete removes tag.
func (b *BadgerBackend) Delete(tag string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		k := b.key(tag)
		if _, err := txn.Get(k); err != nil {
			return err
		}
		return txn.Delete(k)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrTagNotFound
	}
	if err != nil {
		return fmt.Errorf("badger delete %q: %w", tag, err)
	}
	return nil
}

// Tags returns the stored tags in ascending order (Badger's key order).
func (b *BadgerBackend) Tags() ([]string, error) {
	var tags []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = b.prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.ValidForPrefix(b.prefix); it.Next() {
			k := it.Item().Key()
			tags = append(tags, string(k[len(b.prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger tags: %w", err)
	}
	return tags, nil
}

// OpenBadger opens a BadgerDB in dir, or in memory when dir is "".
// A nil logger silences Badger's internal logging. The caller closes the DB.
func OpenBadger(dir string, logger *slog.Logger) (*badger.DB, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create badger directory %s: %w", dir, err)
		}
		opts = badger.DefaultOptions(dir)
	}
	opts = opts.WithNumVersionsToKeep(1)
	if logger != nil {
		opts = opts.WithLogger(badgerLogger{logger: logger})
	} else {
		opts = opts.WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return db, nil
}

// badgerLogger routes Badger's printf-style logging into slog.
type badgerLogger struct {
	logger *slog.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

package store

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
)

// vertexPrefix namespaces vertex keys inside the database.
var vertexPrefix = []byte("v/")

// BadgerConfig holds configuration for the vertex database.
type BadgerConfig struct {
	// Path is the directory for BadgerDB files.
	// Ignored when InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence).
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// Logger receives BadgerDB's internal messages.
	// If nil, BadgerDB's internal logging is disabled.
	Logger *slog.Logger
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// OpenBadger opens (creating if needed) a BadgerDB database.
// The caller must Close the returned database.
func OpenBadger(cfg BadgerConfig) (*badger.DB, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("store: badger path is required unless InMemory is set")
		}
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("store: create badger directory: %w", err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	opts = opts.
		WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("store: open badger: %w", err)
	}
	return db, nil
}

// BadgerSink stores each vertex as a key with an empty value. Writes are
// batched; Close flushes the batch and closes the database when the sink
// owns it.
type BadgerSink struct {
	db    *badger.DB
	batch *badger.WriteBatch
	owned bool
}

// NewBadgerSink writes vertices into db. The caller keeps ownership of db.
func NewBadgerSink(db *badger.DB) *BadgerSink {
	return &BadgerSink{db: db, batch: db.NewWriteBatch()}
}

// CreateBadgerSink opens a database with cfg and writes vertices into it.
// Closing the sink closes the database.
func CreateBadgerSink(cfg BadgerConfig) (*BadgerSink, error) {
	db, err := OpenBadger(cfg)
	if err != nil {
		return nil, err
	}
	s := NewBadgerSink(db)
	s.owned = true
	return s, nil
}

// Write implements [Sink].
func (s *BadgerSink) Write(vertex string) error {
	key := make([]byte, 0, len(vertexPrefix)+len(vertex))
	key = append(key, vertexPrefix...)
	key = append(key, vertex...)
	if err := s.batch.Set(key, nil); err != nil {
		return fmt.Errorf("store: write vertex: %w", err)
	}
	return nil
}

// Close flushes pending writes.
func (s *BadgerSink) Close() error {
	err := s.batch.Flush()
	if err != nil {
		err = fmt.Errorf("store: flush vertices: %w", err)
	}
	if s.owned {
		if cerr := s.db.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("store: close badger: %w", cerr)
		}
	}
	return err
}

// ReadVertices returns every vertex stored in db in key order.
func ReadVertices(db *badger.DB) ([]string, error) {
	var out []string
	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = vertexPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().Key()
			out = append(out, string(key[len(vertexPrefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: read vertices: %w", err)
	}
	return out, nil
}

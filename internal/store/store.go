// Package store persists normalized media records in Badger.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/mediashelf/mediashelf-server/internal/domain"
	"github.com/mediashelf/mediashelf-server/internal/validation"
)

// MediaIndexer keeps a secondary index in sync with cache writes.
// Index updates run asynchronously and never fail the write.
type MediaIndexer interface {
	IndexMedia(ctx context.Context, record *domain.MediaRecord) error
}

// indexQueueSize bounds pending index updates before upserts block.
const indexQueueSize = 256

// mediaRef identifies a record queued for indexing.
type mediaRef struct {
	mediaType  domain.MediaType
	externalID domain.ExternalID
}

// Store wraps a Badger database instance.
type Store struct {
	db        *badger.DB
	logger    *slog.Logger
	validator *validation.Validator
	now       func() time.Time

	// Set via SetMediaIndexer after store creation; the search service
	// is built from the store.
	indexMu    sync.Mutex
	indexQueue chan mediaRef
	indexDone  chan struct{}
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used to stamp last_refreshed_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New opens (or creates) the database at path.
func New(path string, logger *slog.Logger, opts ...Option) (*Store, error) {
	badgerOpts := badger.DefaultOptions(path)
	badgerOpts.Logger = nil            // Disable Badger's internal logging
	badgerOpts.SyncWrites = true       // Sync writes to disk to prevent corruption on crashes
	badgerOpts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &Store{
		db:        db,
		logger:    logger,
		validator: validation.New(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}

	return s, nil
}

// Close drains pending index updates and closes the database connection.
func (s *Store) Close() error {
	s.stopIndexer()
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// SetMediaIndexer sets the indexer notified after every upsert and starts the
// worker that feeds it. Updates are applied one at a time in commit order.
func (s *Store) SetMediaIndexer(indexer MediaIndexer) {
	s.stopIndexer()

	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	s.indexQueue = make(chan mediaRef, indexQueueSize)
	s.indexDone = make(chan struct{})
	go s.runIndexer(indexer, s.indexQueue, s.indexDone)
}

// enqueueIndex schedules ref for indexing. It is a no-op without an indexer.
func (s *Store) enqueueIndex(ref mediaRef) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	if s.indexQueue == nil {
		return
	}
	s.indexQueue <- ref
}

// stopIndexer closes the queue and waits for the worker to finish it.
func (s *Store) stopIndexer() {
	s.indexMu.Lock()
	queue, done := s.indexQueue, s.indexDone
	s.indexQueue, s.indexDone = nil, nil
	s.indexMu.Unlock()

	if queue == nil {
		return
	}
	close(queue)
	<-done
}

// runIndexer re-reads each queued record before indexing it, so the index
// always ends on the latest committed version of a key.
func (s *Store) runIndexer(indexer MediaIndexer, queue <-chan mediaRef, done chan<- struct{}) {
	defer close(done)

	ctx := context.Background()
	for ref := range queue {
		record, err := s.GetMedia(ctx, ref.mediaType, ref.externalID)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("failed to read media for search index",
					"key", domain.MediaKey(ref.mediaType, ref.externalID),
					"error", err,
				)
			}
			continue
		}
		if err := indexer.IndexMedia(ctx, record); err != nil && s.logger != nil {
			s.logger.Warn("failed to index media for search", "key", record.Key(), "error", err)
		}
	}
}

// get decodes the value at key into dest. Returns ErrNotFound for a missing key.
func (s *Store) get(txn *badger.Txn, key []byte, dest any) error {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dest)
	})
}

// set encodes value and writes it at key.
func (s *Store) set(txn *badger.Txn, key []byte, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return txn.Set(key, data)
}

package search

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/mediashelf/mediashelf-server/internal/domain"
)

// SearchIndex wraps a Bleve index of cached media records.
//
// Thread safety: All public methods are safe for concurrent use.
// The mutex protects against index corruption during rebuild operations.
type SearchIndex struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex // Protects index operations during rebuild

	// writeMu orders single-record updates against a full reindex.
	writeMu sync.Mutex

	// created is true when the index was created empty on open.
	created bool
}

// Options configures the search index.
type Options struct {
	DataPath string       // Directory for index storage
	Logger   *slog.Logger // Logger for operations (uses stderr if nil)
}

// RecordSource iterates cached records for a full reindex.
type RecordSource interface {
	EachMedia(ctx context.Context, t domain.MediaType, fn func(*domain.MediaRecord) error) error
}

// mappingVersion is incremented whenever the index mapping changes.
// A mismatch on startup drops the index and recreates it empty.
const mappingVersion = "1"

const batchSize = 500

// NewSearchIndex creates or opens a search index.
// If the existing index is corrupted or has an outdated mapping, it's removed and recreated.
func NewSearchIndex(opts Options) (*SearchIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	indexPath := filepath.Join(opts.DataPath, "search.bleve")
	versionPath := filepath.Join(opts.DataPath, "search.version")

	var index bleve.Index
	var err error
	needsRebuild := false

	indexExists := false
	if _, statErr := os.Stat(indexPath); statErr == nil {
		indexExists = true
	}

	if indexExists {
		existingVersion, readErr := os.ReadFile(versionPath)
		if readErr != nil {
			logger.Info("search index has no version file, will rebuild with current mapping",
				"new_version", mappingVersion,
			)
			needsRebuild = true
		} else if string(existingVersion) != mappingVersion {
			logger.Info("search index mapping version changed, will rebuild",
				"old_version", string(existingVersion),
				"new_version", mappingVersion,
			)
			needsRebuild = true
		}
	}

	if !needsRebuild && indexExists {
		index, err = bleve.Open(indexPath)
		if err != nil {
			logger.Warn("failed to open existing index, will recreate",
				"path", indexPath,
				"error", err,
			)
			needsRebuild = true
		}
	}

	if needsRebuild {
		if removeErr := os.RemoveAll(indexPath); removeErr != nil {
			return nil, fmt.Errorf("remove old index: %w", removeErr)
		}
		index = nil
	}

	created := false
	if index == nil {
		if mkErr := os.MkdirAll(opts.DataPath, 0o755); mkErr != nil {
			return nil, fmt.Errorf("create data dir: %w", mkErr)
		}
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if writeErr := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); writeErr != nil {
			logger.Warn("failed to write search version file", "error", writeErr)
		}
		created = true
		logger.Info("created new search index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened existing search index", "path", indexPath)
	}

	return &SearchIndex{
		index:   index,
		path:    indexPath,
		logger:  logger,
		created: created,
	}, nil
}

// Close closes the index and releases resources.
func (s *SearchIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// NeedsReindex reports whether the index should be populated from the store:
// it was just created, or it holds no documents.
func (s *SearchIndex) NeedsReindex() bool {
	if s.created {
		return true
	}
	count, err := s.DocumentCount()
	return err != nil || count == 0
}

// IndexMedia indexes a single cached record, replacing any previous version.
// It satisfies store.MediaIndexer.
func (s *SearchIndex) IndexMedia(ctx context.Context, record *domain.MediaRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record == nil {
		return nil
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc := RecordToDocument(record)
	return s.index.Index(doc.ID, doc.ToMap())
}

// IndexDocuments indexes multiple documents in batches.
func (s *SearchIndex) IndexDocuments(docs []*MediaDocument) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := 0; i < len(docs); i += batchSize {
		end := min(i+batchSize, len(docs))

		batch := s.index.NewBatch()
		for _, doc := range docs[i:end] {
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}

		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

// DocumentCount returns the total number of indexed documents.
func (s *SearchIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Reindex rebuilds the index from every record in source.
// Returns the number of records indexed. Single-record updates wait until it
// finishes, so none is overwritten by the older snapshot.
func (s *SearchIndex) Reindex(ctx context.Context, source RecordSource) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.Rebuild(); err != nil {
		return 0, err
	}

	docs := make([]*MediaDocument, 0, batchSize)
	total := 0
	flush := func() error {
		if len(docs) == 0 {
			return nil
		}
		if err := s.IndexDocuments(docs); err != nil {
			return err
		}
		total += len(docs)
		docs = docs[:0]
		return nil
	}

	err := source.EachMedia(ctx, "", func(r *domain.MediaRecord) error {
		docs = append(docs, RecordToDocument(r))
		if len(docs) >= batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return total, fmt.Errorf("iterate records: %w", err)
	}
	if err := flush(); err != nil {
		return total, err
	}

	s.logger.Info("search index rebuilt from store", "documents", total)
	return total, nil
}

// Rebuild drops the existing index and creates a new empty one.
//
// IMPORTANT: This acquires an exclusive lock and blocks all other operations.
func (s *SearchIndex) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}

	if err := os.RemoveAll(s.path); err != nil {
		return fmt.Errorf("remove index: %w", err)
	}

	index, err := bleve.New(s.path, buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	s.index = index
	s.created = false
	s.logger.Debug("rebuilt search index", "path", s.path)

	return nil
}

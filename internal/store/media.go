package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/mediashelf/mediashelf-server/internal/domain"
	"github.com/mediashelf/mediashelf-server/internal/id"
	"github.com/mediashelf/mediashelf-server/internal/metrics"
)

const maxConflictRetries = 3

// GetMedia returns the cached record for (t, externalID), or ErrNotFound.
func (s *Store) GetMedia(ctx context.Context, t domain.MediaType, externalID domain.ExternalID) (*domain.MediaRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := mediaKey(t, externalID)
	defer releaseKey(key)

	var record domain.MediaRecord
	err := s.db.View(func(txn *badger.Txn) error {
		return s.get(txn, key, &record)
	})
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get media %s: %w", domain.MediaKey(t, externalID), err)
	}

	return &record, nil
}

// UpsertMedia creates or overwrites the record at its (type, external id)
// key. Every field is replaced except the internal id, which is assigned on
// create and kept afterwards. LastRefreshedAt is stamped from the store clock.
// The stored record is returned; the argument is not modified.
func (s *Store) UpsertMedia(ctx context.Context, record *domain.MediaRecord) (*domain.MediaRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrInvalidRecord
	}

	stored := *record
	stored.ID = ""
	stored.ApplyDefaults()
	if err := s.validator.Validate(stored); err != nil {
		return nil, ErrInvalidRecord.WithCause(err)
	}

	key := mediaKey(stored.MediaType, stored.ExternalID)
	defer releaseKey(key)

	var created bool
	var err error
	// Concurrent upserts of the same key conflict in Badger; the loser
	// retries against the winner's record.
	for range maxConflictRetries {
		created = false
		err = s.db.Update(func(txn *badger.Txn) error {
			var existing domain.MediaRecord
			switch err := s.get(txn, key, &existing); {
			case err == nil:
				stored.ID = existing.ID
			case errors.Is(err, ErrNotFound):
				created = true
			default:
				return err
			}

			if created {
				newID, err := id.NewMediaID()
				if err != nil {
					return fmt.Errorf("generate id: %w", err)
				}
				stored.ID = newID
			}
			stored.LastRefreshedAt = s.now().UTC()

			return s.set(txn, key, &stored)
		})
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("upsert media %s: %w", stored.Key(), err)
	}

	if created {
		metrics.StoreRecords.WithLabelValues(string(stored.MediaType)).Inc()
	}

	s.enqueueIndex(mediaRef{mediaType: stored.MediaType, externalID: stored.ExternalID})

	return &stored, nil
}

// ListMedia returns every cached record of type t in key order.
// An empty t lists all media types.
func (s *Store) ListMedia(ctx context.Context, t domain.MediaType) ([]*domain.MediaRecord, error) {
	var records []*domain.MediaRecord
	err := s.EachMedia(ctx, t, func(r *domain.MediaRecord) error {
		records = append(records, r)
		return nil
	})
	return records, err
}

// EachMedia calls fn for every cached record of type t (all types when empty).
// Iteration stops at the first error fn returns.
func (s *Store) EachMedia(ctx context.Context, t domain.MediaType, fn func(*domain.MediaRecord) error) error {
	prefix := mediaTypePrefix(t)

	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: true, PrefetchSize: 100, Prefix: prefix})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var record domain.MediaRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			if err := fn(&record); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListMediaPage returns one page of cached records of type t (all types when
// empty) in key order. The returned cursor resumes after the last item.
func (s *Store) ListMediaPage(ctx context.Context, t domain.MediaType, params PaginationParams) (*PaginatedResult[*domain.MediaRecord], error) {
	params.Validate()

	after, err := DecodeCursor(params.Cursor)
	if err != nil {
		return nil, ErrInvalidCursor.WithCause(err)
	}
	prefix := mediaTypePrefix(t)
	if after != "" && !strings.HasPrefix(after, string(prefix)) {
		return nil, ErrInvalidCursor
	}

	result := &PaginatedResult[*domain.MediaRecord]{
		Items: make([]*domain.MediaRecord, 0, params.Limit),
	}

	err = s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: true, PrefetchSize: 100, Prefix: prefix})
		defer it.Close()

		// A trailing zero byte seeks strictly past the cursor key.
		start := prefix
		if after != "" {
			start = append([]byte(after), 0)
		}

		var lastKey string
		for it.Seek(start); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if len(result.Items) == params.Limit {
				result.HasMore = true
				break
			}

			item := it.Item()
			var record domain.MediaRecord
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", item.Key(), err)
			}
			result.Items = append(result.Items, &record)
			lastKey = string(item.KeyCopy(nil))
		}

		if result.HasMore {
			result.NextCursor = EncodeCursor(lastKey)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CountMedia counts cached records of type t (all types when empty).
func (s *Store) CountMedia(ctx context.Context, t domain.MediaType) (int, error) {
	prefix := mediaTypePrefix(t)
	count := 0

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: false, Prefix: prefix})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count media: %w", err)
	}
	return count, nil
}

// SampleRecordGauge sets the per-type record gauge from a full count.
func (s *Store) SampleRecordGauge(ctx context.Context) error {
	for _, t := range domain.AllMediaTypes() {
		n, err := s.CountMedia(ctx, t)
		if err != nil {
			return err
		}
		metrics.StoreRecords.WithLabelValues(string(t)).Set(float64(n))
	}
	return nil
}

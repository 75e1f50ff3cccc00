// Package main prints a read-only summary of the media cache.
//
// Usage:
//
//	DB_PATH=~/mediashelf/db go run ./cmd/dbinspect
//	DB_PATH=~/mediashelf/db go run ./cmd/dbinspect --type anime --window 24h
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/mediashelf/mediashelf-server/internal/domain"
	"github.com/mediashelf/mediashelf-server/internal/freshness"
)

var (
	mediaType = flag.String("type", "", "Only list records of this media type")
	window    = flag.Duration("window", 24*time.Hour, "Freshness window to evaluate records against")
	list      = flag.Bool("list", false, "Print every record, not just the summary")
)

const mediaPrefix = "media:"

type typeStats struct {
	total      int
	fresh      int
	unknown    int
	oldestSeen time.Duration
}

func main() {
	flag.Parse()

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/mediashelf/db")
	}

	prefix := mediaPrefix
	if *mediaType != "" {
		t, ok := domain.ParseMediaType(*mediaType)
		if !ok {
			log.Fatalf("Unsupported media type %q", *mediaType)
		}
		prefix += string(t) + ":"
	}

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	policy := freshness.NewPolicy(*window,
		[]domain.MediaType{domain.MediaMovie, domain.MediaBook, domain.MediaGame},
		[]domain.MediaType{domain.MediaComic},
	)

	fmt.Println("=== Media Cache Inspection ===")
	fmt.Println()

	stats := make(map[domain.MediaType]*typeStats)
	now := time.Now()

	err = db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = []byte(prefix)
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			item := it.Item()
			key := string(item.Key())

			err := item.Value(func(val []byte) error {
				var record domain.MediaRecord
				if err := json.Unmarshal(val, &record); err != nil {
					return fmt.Errorf("%s: %w", key, err)
				}

				st := stats[record.MediaType]
				if st == nil {
					st = &typeStats{}
					stats[record.MediaType] = st
				}
				st.total++
				fresh := policy.IsFresh(&record)
				if fresh {
					st.fresh++
				}
				if record.HasIncompleteStatus() {
					st.unknown++
				}
				age := now.Sub(record.LastRefreshedAt)
				if age > st.oldestSeen {
					st.oldestSeen = age
				}

				if *list {
					fmt.Printf("  %-32s %-40s %-10s fresh=%-5t age=%s\n",
						key, truncate(record.Title, 40), record.Status, fresh, age.Round(time.Minute))
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to read database: %v", err)
	}

	if *list {
		fmt.Println()
	}

	types := make([]domain.MediaType, 0, len(stats))
	for t := range stats {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	total := 0
	fmt.Printf("%-8s %8s %8s %8s %10s %s\n", "TYPE", "RECORDS", "FRESH", "UNKNOWN", "CLASS", "OLDEST")
	for _, t := range types {
		st := stats[t]
		total += st.total
		fmt.Printf("%-8s %8d %8d %8d %10s %s\n",
			t, st.total, st.fresh, st.unknown, policy.Class(t), st.oldestSeen.Round(time.Minute))
	}
	fmt.Println()
	fmt.Printf("Total records: %d\n", total)
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n-1])) + "…"
}

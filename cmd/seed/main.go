// Package main seeds the media cache from a JSON file of search results.
//
// The file holds an array of candidates, each with a "type" field naming its
// media type. Candidates whose cached record is still fresh are left alone.
//
// Usage:
//
//	DATA_PATH=~/mediashelf go run ./cmd/seed --file candidates.json
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/samber/do/v2"

	"github.com/mediashelf/mediashelf-server/internal/di"
	"github.com/mediashelf/mediashelf-server/internal/domain"
	"github.com/mediashelf/mediashelf-server/internal/logger"
	"github.com/mediashelf/mediashelf-server/internal/service"
)

// Registered on the shared flag set; parsed with the config flags.
var seedFile = flag.String("file", "", "JSON file with an array of search candidates")

type seedEntry struct {
	Type string `json:"type"`
}

func main() {
	injector := di.NewCacheContainer()
	log := do.MustInvoke[*logger.Logger](injector)
	defer func() {
		if err := injector.Shutdown(); err != nil {
			log.Error("Shutdown error", "error", err)
		}
	}()

	if *seedFile == "" {
		fmt.Fprintln(os.Stderr, "usage: seed --file candidates.json")
		os.Exit(2)
	}

	data, err := os.ReadFile(*seedFile)
	if err != nil {
		log.Fatal("Failed to read seed file", "path", *seedFile, "error", err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Fatal("Seed file must be a JSON array", "error", err)
	}

	cache := do.MustInvoke[*service.MediaCacheService](injector)
	search := do.MustInvoke[*service.SearchService](injector)
	ctx := context.Background()

	var written, failed int
	for i, item := range raw {
		var entry seedEntry
		var candidate domain.SearchCandidate
		if err := json.Unmarshal(item, &entry); err != nil {
			log.Warn("Skipping malformed entry", "index", i, "error", err)
			failed++
			continue
		}
		if err := json.Unmarshal(item, &candidate); err != nil {
			log.Warn("Skipping malformed entry", "index", i, "error", err)
			failed++
			continue
		}

		t, ok := domain.ParseMediaType(entry.Type)
		if !ok {
			log.Warn("Skipping entry with unsupported type", "index", i, "type", entry.Type)
			failed++
			continue
		}

		record, err := cache.CacheFromSearch(ctx, t, &candidate)
		if err != nil {
			log.Warn("Failed to seed entry", "index", i, "type", t, "error", err)
			failed++
			continue
		}
		written++
		fmt.Printf("%-6s %-12s %s\n", record.MediaType, record.ExternalID, record.Title)
	}

	// Index synchronously so the catalog is complete before the process exits.
	if err := search.ReindexAll(ctx); err != nil {
		log.Error("Reindex after seeding failed", "error", err)
	}

	log.Info("Seeding complete", "seeded", written, "failed", failed, "total", len(raw))
	if failed > 0 {
		os.Exit(1)
	}
}

// Package id generates internal identifiers for cached media records.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// MediaPrefix prefixes every cached media record ID.
const MediaPrefix = "med"

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "med-V1StGXR8_Z5jdHi6B-myT").
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// NewMediaID returns an ID for a newly created media record.
func NewMediaID() (string, error) {
	return Generate(MediaPrefix)
}

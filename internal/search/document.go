// Package search provides full-text search over cached media records using Bleve.
package search

import (
	"github.com/mediashelf/mediashelf-server/internal/domain"
)

// MediaDocument is the document structure for the Bleve index.
// One document exists per cached record, keyed by "type:externalID".
type MediaDocument struct {
	ID         string           `json:"id"`
	MediaType  domain.MediaType `json:"media_type"`
	ExternalID string           `json:"external_id"`
	Title      string           `json:"title"`
	Status     string           `json:"status,omitempty"`
	Synopsis   string           `json:"synopsis,omitempty"`
	Year       int              `json:"year,omitempty"`
	Released   int              `json:"released,omitempty"`

	// Unix millis
	RefreshedAt int64 `json:"refreshed_at"`
}

// ToMap converts the document to a map with the field names used by the mapping.
func (d *MediaDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":           d.ID,
		"media_type":   string(d.MediaType),
		"external_id":  d.ExternalID,
		"title":        d.Title,
		"refreshed_at": d.RefreshedAt,
	}

	if d.Status != "" {
		m["status"] = d.Status
	}
	if d.Synopsis != "" {
		m["synopsis"] = d.Synopsis
	}
	if d.Year > 0 {
		m["year"] = d.Year
	}
	if d.Released > 0 {
		m["released"] = d.Released
	}

	return m
}

// RecordToDocument converts a cached record to a MediaDocument.
func RecordToDocument(r *domain.MediaRecord) *MediaDocument {
	doc := &MediaDocument{
		ID:         r.Key(),
		MediaType:  r.MediaType,
		ExternalID: string(r.ExternalID),
		Title:      r.Title,
		Status:     r.Status,
		Synopsis:   r.Synopsis,
		Year:       r.Year,
		Released:   r.Released,
	}
	if !r.LastRefreshedAt.IsZero() {
		doc.RefreshedAt = r.LastRefreshedAt.UnixMilli()
	}
	return doc
}

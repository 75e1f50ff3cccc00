package domain

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// MediaType is one of the tracked media categories.
type MediaType string

// Supported media types.
const (
	MediaAnime MediaType = "anime"
	MediaManga MediaType = "manga"
	MediaShow  MediaType = "show"
	MediaComic MediaType = "comic"
	MediaMovie MediaType = "movie"
	MediaBook  MediaType = "book"
	MediaGame  MediaType = "game"
)

// Defaults applied when an upstream or caller omits a field.
const (
	PlaceholderImageURL = "https://placehold.co/90x129"
	UnknownStatus       = "Unknown"
	UnknownTitle        = "Unknown Title"
)

// AllMediaTypes returns every supported media type.
func AllMediaTypes() []MediaType {
	return []MediaType{
		MediaAnime, MediaManga, MediaShow, MediaComic,
		MediaMovie, MediaBook, MediaGame,
	}
}

// mediaTypeAliases maps route and legacy collection names to media types.
var mediaTypeAliases = map[string]MediaType{
	"anime":  MediaAnime,
	"animes": MediaAnime,
	"manga":  MediaManga,
	"mangas": MediaManga,
	"show":   MediaShow,
	"shows":  MediaShow,
	"tv":     MediaShow,
	"comic":  MediaComic,
	"comics": MediaComic,
	"movie":  MediaMovie,
	"movies": MediaMovie,
	"book":   MediaBook,
	"books":  MediaBook,
	"game":   MediaGame,
	"games":  MediaGame,
}

// ParseMediaType resolves a media type from its canonical or legacy name.
func ParseMediaType(s string) (MediaType, bool) {
	t, ok := mediaTypeAliases[strings.ToLower(strings.TrimSpace(s))]
	return t, ok
}

// Valid reports whether t is a supported media type.
func (t MediaType) Valid() bool {
	switch t {
	case MediaAnime, MediaManga, MediaShow, MediaComic, MediaMovie, MediaBook, MediaGame:
		return true
	}
	return false
}

// ReleasedUnit names what Released counts for this media type.
func (t MediaType) ReleasedUnit() string {
	switch t {
	case MediaAnime, MediaShow:
		return "episodes"
	case MediaManga:
		return "chapters"
	case MediaComic:
		return "issues"
	case MediaBook:
		return "pages"
	default:
		return ""
	}
}

// ExternalID is the identifier an upstream provider assigns to a media item.
// It is opaque: numeric provider ids are carried as their decimal text and
// never parsed.
type ExternalID string

// String implements fmt.Stringer.
func (id ExternalID) String() string { return string(id) }

// IsZero reports whether the id is empty.
func (id ExternalID) IsZero() bool { return strings.TrimSpace(string(id)) == "" }

// UnmarshalJSON accepts a JSON string or number.
func (id *ExternalID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*id = ""
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ExternalID(strings.TrimSpace(s))
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("external id must be a string or number: %w", err)
		}
		*id = ExternalID(canonicalNumber(n))
		return nil
	}
}

// maxExactFloatInt is the largest integer a float64 holds exactly.
const maxExactFloatInt = 1 << 53

// canonicalNumber renders integral numbers without fraction or exponent, so
// 5114, 5114.0 and 5.114e3 all key the same record.
func canonicalNumber(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	if f, err := n.Float64(); err == nil && f == math.Trunc(f) && math.Abs(f) <= maxExactFloatInt {
		return strconv.FormatInt(int64(f), 10)
	}
	return n.String()
}

// MediaRecord is the normalized cache entry for one external media item.
// Year and Released use 0 for unknown.
type MediaRecord struct {
	ID              string     `json:"id"`
	MediaType       MediaType  `json:"media_type" validate:"required,mediatype"`
	ExternalID      ExternalID `json:"external_id" validate:"required"`
	Title           string     `json:"title" validate:"required"`
	ImageURL        string     `json:"image_url"`
	Year            int        `json:"year" validate:"gte=0"`
	Released        int        `json:"released" validate:"gte=0"`
	Status          string     `json:"status"`
	Synopsis        string     `json:"synopsis,omitempty"`
	LastRefreshedAt time.Time  `json:"last_refreshed_at"`
}

// Key returns the "type:externalID" cache key.
func (r *MediaRecord) Key() string {
	return MediaKey(r.MediaType, r.ExternalID)
}

// MediaKey builds the "type:externalID" cache key.
func MediaKey(t MediaType, id ExternalID) string {
	return string(t) + ":" + string(id)
}

// ApplyDefaults fills missing fields with their documented defaults.
func (r *MediaRecord) ApplyDefaults() {
	r.Title = strings.TrimSpace(r.Title)
	if strings.TrimSpace(r.ImageURL) == "" {
		r.ImageURL = PlaceholderImageURL
	}
	if strings.TrimSpace(r.Status) == "" {
		r.Status = UnknownStatus
	}
	if r.Year < 0 {
		r.Year = 0
	}
	if r.Released < 0 {
		r.Released = 0
	}
}

// HasIncompleteStatus reports whether the provider left the status unset.
func (r *MediaRecord) HasIncompleteStatus() bool {
	return r.Status == "" || r.Status == UnknownStatus
}

// SameContent reports whether two records carry the same metadata,
// ignoring the internal id and refresh time.
func (r *MediaRecord) SameContent(o *MediaRecord) bool {
	return r.MediaType == o.MediaType &&
		r.ExternalID == o.ExternalID &&
		r.Title == o.Title &&
		r.ImageURL == o.ImageURL &&
		r.Year == o.Year &&
		r.Released == o.Released &&
		r.Status == o.Status &&
		r.Synopsis == o.Synopsis
}

// PlaceholderRecord is what callers display when a read fails with
// MediaUnavailable. Viewing, creating, or editing an entry must never fail
// because of the cache; only the richness of the metadata degrades.
// The placeholder is never written to the cache.
func PlaceholderRecord(t MediaType, id ExternalID) *MediaRecord {
	return &MediaRecord{
		MediaType:  t,
		ExternalID: id,
		Title:      UnknownTitle,
		ImageURL:   PlaceholderImageURL,
		Status:     UnknownStatus,
	}
}

package domain

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	domainerrors "github.com/mediashelf/mediashelf-server/internal/errors"
	"github.com/mediashelf/mediashelf-server/internal/normalize"
)

// FlexInt decodes a count or year that clients have historically sent as a
// number, a numeric string, or a placeholder such as "Unknown".
// Anything that is not a number decodes to 0.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (n *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 {
		*n = 0
		return nil
	}
	*n = FlexInt(f)
	return nil
}

// candidateImages mirrors Jikan's nested image block.
type candidateImages struct {
	JPG struct {
		ImageURL string `json:"image_url"`
	} `json:"jpg"`
}

// SearchCandidate is caller-supplied metadata for seeding the cache, usually
// a search result the user picked. Besides the canonical fields it accepts
// every field name earlier clients and search responses used; Normalize
// collapses them exactly once, here at the boundary.
type SearchCandidate struct {
	ExternalID ExternalID `json:"externalId,omitempty"`
	JikanID    ExternalID `json:"jikanId,omitempty"`
	MalID      ExternalID `json:"mal_id,omitempty"`
	ID         ExternalID `json:"id,omitempty"`

	Title string `json:"title,omitempty"`
	Name  string `json:"name,omitempty"`

	ImageURL      string           `json:"imageUrl,omitempty"`
	ImageURLSnake string           `json:"image_url,omitempty"`
	Images        *candidateImages `json:"images,omitempty"`

	Year FlexInt `json:"year,omitempty"`

	Released      FlexInt `json:"released,omitempty"`
	EpisodesTotal FlexInt `json:"episodesTotal,omitempty"`
	ChaptersTotal FlexInt `json:"chaptersTotal,omitempty"`
	IssuesTotal   FlexInt `json:"issuesTotal,omitempty"`
	Episodes      FlexInt `json:"episodes,omitempty"`
	Chapters      FlexInt `json:"chapters,omitempty"`
	CountOfIssues FlexInt `json:"count_of_issues,omitempty"`
	PageCount     FlexInt `json:"pageCount,omitempty"`

	Status      string `json:"status,omitempty"`
	AnimeStatus string `json:"animeStatus,omitempty"`
	MangaStatus string `json:"mangaStatus,omitempty"`
	ShowStatus  string `json:"showStatus,omitempty"`
	ComicStatus string `json:"comicStatus,omitempty"`

	Synopsis string `json:"synopsis,omitempty"`
	Overview string `json:"overview,omitempty"`
}

// ResolvedExternalID returns the first id present across all aliases.
func (c *SearchCandidate) ResolvedExternalID() ExternalID {
	for _, id := range []ExternalID{c.ExternalID, c.JikanID, c.MalID, c.ID} {
		if !id.IsZero() {
			return ExternalID(strings.TrimSpace(string(id)))
		}
	}
	return ""
}

// Normalize converts the candidate into a MediaRecord for media type t.
// Returns ErrMissingExternalID when no alias carries an id.
func (c *SearchCandidate) Normalize(t MediaType) (*MediaRecord, error) {
	externalID := c.ResolvedExternalID()
	if externalID.IsZero() {
		return nil, domainerrors.ErrMissingExternalID
	}

	record := &MediaRecord{
		MediaType:  t,
		ExternalID: externalID,
		Title:      normalize.Title(firstString(c.Title, c.Name)),
		ImageURL:   firstString(c.ImageURL, c.ImageURLSnake, c.jikanImage()),
		Year:       int(c.Year),
		Released:   int(firstCount(c.releasedAliases(t)...)),
		Status:     firstStatus(c.statusAliases(t)...),
		Synopsis:   normalize.HTMLToMarkdown(firstString(c.Synopsis, c.Overview)),
	}
	record.ApplyDefaults()

	return record, nil
}

// releasedAliases lists total-unit fields in precedence order: the canonical
// name, then the per-type legacy name, then the raw provider names.
func (c *SearchCandidate) releasedAliases(t MediaType) []FlexInt {
	switch t {
	case MediaAnime, MediaShow:
		return []FlexInt{c.Released, c.EpisodesTotal, c.Episodes}
	case MediaManga:
		return []FlexInt{c.Released, c.ChaptersTotal, c.Chapters, c.Episodes}
	case MediaComic:
		return []FlexInt{c.Released, c.IssuesTotal, c.CountOfIssues, c.Episodes}
	case MediaBook:
		return []FlexInt{c.Released, c.PageCount}
	default:
		return []FlexInt{c.Released}
	}
}

// statusAliases lists status fields in precedence order.
func (c *SearchCandidate) statusAliases(t MediaType) []string {
	switch t {
	case MediaAnime:
		return []string{c.Status, c.AnimeStatus}
	case MediaManga:
		return []string{c.Status, c.MangaStatus}
	case MediaShow:
		return []string{c.Status, c.ShowStatus}
	case MediaComic:
		return []string{c.Status, c.ComicStatus}
	default:
		return []string{c.Status}
	}
}

func (c *SearchCandidate) jikanImage() string {
	if c.Images == nil {
		return ""
	}
	return c.Images.JPG.ImageURL
}

func firstString(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func firstCount(values ...FlexInt) FlexInt {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

// firstStatus skips the "Unknown" sentinel so a real status under a legacy
// name wins over a placeholder under the canonical one.
func firstStatus(values ...string) string {
	for _, v := range values {
		s := strings.TrimSpace(v)
		if s != "" && s != UnknownStatus {
			return s
		}
	}
	return UnknownStatus
}

// CandidateFromRecord expresses a normalized record as a search candidate
// using only canonical field names.
func CandidateFromRecord(r *MediaRecord) SearchCandidate {
	return SearchCandidate{
		ExternalID: r.ExternalID,
		Title:      r.Title,
		ImageURL:   r.ImageURL,
		Year:       FlexInt(r.Year),
		Released:   FlexInt(r.Released),
		Status:     r.Status,
		Synopsis:   r.Synopsis,
	}
}

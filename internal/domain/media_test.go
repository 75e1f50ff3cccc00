package domain

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/mediashelf/mediashelf-server/internal/errors"
)

func TestParseMediaType(t *testing.T) {
	tests := []struct {
		input  string
		want   MediaType
		wantOK bool
	}{
		{"anime", MediaAnime, true},
		{"animes", MediaAnime, true},
		{"Shows", MediaShow, true},
		{"tv", MediaShow, true},
		{" comics ", MediaComic, true},
		{"movies", MediaMovie, true},
		{"books", MediaBook, true},
		{"game", MediaGame, true},
		{"podcast", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseMediaType(tt.input)
		assert.Equal(t, tt.wantOK, ok, "input %q", tt.input)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}
}

func TestMediaType_Valid(t *testing.T) {
	for _, mt := range AllMediaTypes() {
		assert.True(t, mt.Valid(), "%s should be valid", mt)
	}
	assert.False(t, MediaType("shows").Valid())
}

func TestExternalID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ExternalID
		wantErr bool
	}{
		{"number", `5114`, "5114", false},
		{"integral float", `5114.0`, "5114", false},
		{"exponent", `5.114e3`, "5114", false},
		{"fractional", `5114.5`, "5114.5", false},
		{"string", `"tt0111161"`, "tt0111161", false},
		{"padded string", `" zyTCAlFPjgYC "`, "zyTCAlFPjgYC", false},
		{"null", `null`, "", false},
		{"bool", `true`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id ExternalID
			err := json.Unmarshal([]byte(tt.input), &id)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestMediaRecord_ApplyDefaults(t *testing.T) {
	r := &MediaRecord{
		MediaType:  MediaAnime,
		ExternalID: "1",
		Title:      "  Trigun ",
		Year:       -1,
		Released:   -3,
	}
	r.ApplyDefaults()

	assert.Equal(t, "Trigun", r.Title)
	assert.Equal(t, PlaceholderImageURL, r.ImageURL)
	assert.Equal(t, UnknownStatus, r.Status)
	assert.Equal(t, 0, r.Year)
	assert.Equal(t, 0, r.Released)
}

func TestPlaceholderRecord(t *testing.T) {
	r := PlaceholderRecord(MediaManga, "2")

	assert.Equal(t, UnknownTitle, r.Title)
	assert.Equal(t, PlaceholderImageURL, r.ImageURL)
	assert.Equal(t, 0, r.Year)
	assert.Equal(t, 0, r.Released)
	assert.Equal(t, "manga:2", r.Key())
}

func TestSearchCandidate_Normalize(t *testing.T) {
	tests := []struct {
		name      string
		mediaType MediaType
		payload   string
		want      MediaRecord
	}{
		{
			name:      "canonical fields",
			mediaType: MediaAnime,
			payload:   `{"externalId":5114,"title":"Fullmetal Alchemist: Brotherhood","released":64,"status":"Finished","year":2009}`,
			want: MediaRecord{
				MediaType: MediaAnime, ExternalID: "5114",
				Title: "Fullmetal Alchemist: Brotherhood", ImageURL: PlaceholderImageURL,
				Year: 2009, Released: 64, Status: "Finished",
			},
		},
		{
			name:      "legacy anime aliases",
			mediaType: MediaAnime,
			payload:   `{"jikanId":"21","title":"One Piece","episodesTotal":1100,"animeStatus":"Currently Airing","imageUrl":"https://cdn/op.jpg","year":"Unknown"}`,
			want: MediaRecord{
				MediaType: MediaAnime, ExternalID: "21",
				Title: "One Piece", ImageURL: "https://cdn/op.jpg",
				Year: 0, Released: 1100, Status: "Currently Airing",
			},
		},
		{
			name:      "raw jikan search result",
			mediaType: MediaManga,
			payload:   `{"mal_id":2,"title":"Berserk","chapters":380,"status":"Publishing","images":{"jpg":{"image_url":"https://cdn/berserk.jpg"}}}`,
			want: MediaRecord{
				MediaType: MediaManga, ExternalID: "2",
				Title: "Berserk", ImageURL: "https://cdn/berserk.jpg",
				Released: 380, Status: "Publishing",
			},
		},
		{
			name:      "comic from search keeps unknown status",
			mediaType: MediaComic,
			payload:   `{"id":4050,"name":"Saga","count_of_issues":66,"comicStatus":"Unknown","year":"2012"}`,
			want: MediaRecord{
				MediaType: MediaComic, ExternalID: "4050",
				Title: "Saga", ImageURL: PlaceholderImageURL,
				Year: 2012, Released: 66, Status: UnknownStatus,
			},
		},
		{
			name:      "canonical unknown status yields to legacy value",
			mediaType: MediaShow,
			payload:   `{"externalId":1396,"title":"Breaking Bad","status":"Unknown","showStatus":"Ended","episodesTotal":62}`,
			want: MediaRecord{
				MediaType: MediaShow, ExternalID: "1396",
				Title: "Breaking Bad", ImageURL: PlaceholderImageURL,
				Released: 62, Status: "Ended",
			},
		},
		{
			name:      "book with page count",
			mediaType: MediaBook,
			payload:   `{"externalId":"zyTCAlFPjgYC","title":"The Google Story","pageCount":"208","year":2005}`,
			want: MediaRecord{
				MediaType: MediaBook, ExternalID: "zyTCAlFPjgYC",
				Title: "The Google Story", ImageURL: PlaceholderImageURL,
				Year: 2005, Released: 208, Status: UnknownStatus,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c SearchCandidate
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &c))

			got, err := c.Normalize(tt.mediaType)
			require.NoError(t, err)
			assert.True(t, tt.want.SameContent(got), "want %+v, got %+v", tt.want, *got)
		})
	}
}

func TestSearchCandidate_Normalize_MissingExternalID(t *testing.T) {
	c := SearchCandidate{Title: "No Id"}

	_, err := c.Normalize(MediaAnime)
	assert.ErrorIs(t, err, domainerrors.ErrMissingExternalID)
}

func TestSearchCandidate_Normalize_Defaulting(t *testing.T) {
	c := SearchCandidate{ExternalID: "7", Title: "Akira"}

	r, err := c.Normalize(MediaMovie)
	require.NoError(t, err)
	assert.Equal(t, PlaceholderImageURL, r.ImageURL)
	assert.Equal(t, 0, r.Year)
	assert.Equal(t, 0, r.Released)
}

package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediashelf/mediashelf-server/internal/domain"
)

func TestDefaultPaginationParams(t *testing.T) {
	params := DefaultPaginationParams()
	assert.Equal(t, DefaultPageSize, params.Limit)
	assert.Empty(t, params.Cursor)
}

func TestPaginationParams_Validate(t *testing.T) {
	tests := []struct {
		name          string
		input         PaginationParams
		expectedLimit int
	}{
		{name: "valid parameters", input: PaginationParams{Limit: 50}, expectedLimit: 50},
		{name: "zero limit defaults", input: PaginationParams{Limit: 0}, expectedLimit: DefaultPageSize},
		{name: "negative limit defaults", input: PaginationParams{Limit: -10}, expectedLimit: DefaultPageSize},
		{name: "limit over max is capped", input: PaginationParams{Limit: 5000}, expectedLimit: MaxPageSize},
		{name: "limit at max stays", input: PaginationParams{Limit: MaxPageSize}, expectedLimit: MaxPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := tt.input
			params.Validate()
			assert.Equal(t, tt.expectedLimit, params.Limit)
		})
	}
}

func TestCursor_RoundTrip(t *testing.T) {
	for _, key := range []string{"media:anime:5114", "media:comic:4050-49901", "media:book:OL/27448W"} {
		cursor := EncodeCursor(key)
		assert.NotContains(t, cursor, "=")
		assert.NotContains(t, cursor, "/")

		decoded, err := DecodeCursor(cursor)
		require.NoError(t, err)
		assert.Equal(t, key, decoded)
	}

	assert.Empty(t, EncodeCursor(""))
	decoded, err := DecodeCursor("")
	require.NoError(t, err)
	assert.Empty(t, decoded)

	_, err = DecodeCursor("not-valid-base64!!!")
	assert.Error(t, err)
}

func TestListMediaPage_WalksAllPages(t *testing.T) {
	s, _, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	for i := range 7 {
		_, err := s.UpsertMedia(ctx, &domain.MediaRecord{
			MediaType:  domain.MediaManga,
			ExternalID: domain.ExternalID(fmt.Sprintf("%02d", i)),
			Title:      fmt.Sprintf("Manga %d", i),
		})
		require.NoError(t, err)
	}
	_, err := s.UpsertMedia(ctx, &domain.MediaRecord{MediaType: domain.MediaAnime, ExternalID: "5114", Title: "FMA:B"})
	require.NoError(t, err)

	var seen []domain.ExternalID
	params := PaginationParams{Limit: 3}
	pages := 0
	for {
		page, err := s.ListMediaPage(ctx, domain.MediaManga, params)
		require.NoError(t, err)
		pages++
		for _, r := range page.Items {
			assert.Equal(t, domain.MediaManga, r.MediaType)
			seen = append(seen, r.ExternalID)
		}
		if !page.HasMore {
			assert.Empty(t, page.NextCursor)
			break
		}
		params.Cursor = page.NextCursor
	}

	assert.Equal(t, 3, pages)
	assert.Equal(t, []domain.ExternalID{"00", "01", "02", "03", "04", "05", "06"}, seen)
}

func TestListMediaPage_ExactPageHasNoMore(t *testing.T) {
	s, _, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	for _, id := range []domain.ExternalID{"1", "2"} {
		_, err := s.UpsertMedia(ctx, &domain.MediaRecord{MediaType: domain.MediaGame, ExternalID: id, Title: "Game " + string(id)})
		require.NoError(t, err)
	}

	page, err := s.ListMediaPage(ctx, domain.MediaGame, PaginationParams{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.False(t, page.HasMore)
}

func TestListMediaPage_InvalidCursor(t *testing.T) {
	s, _, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	_, err := s.ListMediaPage(ctx, domain.MediaAnime, PaginationParams{Cursor: "!!!"})
	assert.ErrorIs(t, err, ErrInvalidCursor)

	// A cursor from another type's listing does not apply.
	_, err = s.ListMediaPage(ctx, domain.MediaAnime, PaginationParams{Cursor: EncodeCursor("media:manga:2")})
	assert.ErrorIs(t, err, ErrInvalidCursor)
}

package metadata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediashelf/mediashelf-server/internal/domain"
	domainerrors "github.com/mediashelf/mediashelf-server/internal/errors"
)

type namedProvider struct{ name string }

func (p namedProvider) Name() string { return p.name }

func (p namedProvider) Fetch(context.Context, domain.ExternalID) (*domain.MediaRecord, error) {
	return nil, WrapError("fetch", p.name, "", ErrNotFound)
}

func (p namedProvider) Search(context.Context, string, int) ([]domain.SearchCandidate, error) {
	return nil, nil
}

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry()
	r.Register(domain.MediaManga, namedProvider{"jikan"})
	r.Register(domain.MediaAnime, namedProvider{"jikan"})

	p, err := r.Lookup(domain.MediaAnime)
	require.NoError(t, err)
	assert.Equal(t, "jikan", p.Name())

	_, err = r.Lookup(domain.MediaComic)
	assert.ErrorIs(t, err, domainerrors.ErrUnsupportedMediaType)

	assert.Equal(t, []domain.MediaType{domain.MediaAnime, domain.MediaManga}, r.Types())
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	r := NewRegistry()
	r.Register(domain.MediaShow, namedProvider{"first"})
	r.Register(domain.MediaShow, namedProvider{"tmdb"})

	p, err := r.Lookup(domain.MediaShow)
	require.NoError(t, err)
	assert.Equal(t, "tmdb", p.Name())
}

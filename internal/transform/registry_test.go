package transform

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amaumene/tritonevents/internal/models"
)

func TestNumericID(t *testing.T) {
	tr := NumericID()

	for raw, want := range map[string]string{
		"1":   "1",
		" 42": "42",
		"https://myanimelist.net/anime/1/Cowboy_Bebop": "1",
		"https://anilist.co/anime/21/ONE-PIECE/":       "21",
	} {
		got, err := tr.TransformID(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}

	for _, raw := range []string{"", "abc", "-3", "https://myanimelist.net/anime/", "https://myanimelist.net/anime/abc"} {
		_, err := tr.TransformID(raw)
		assert.ErrorIs(t, err, ErrUnrecognizedID, raw)
	}
}

func TestPrefixedID(t *testing.T) {
	tr := PrefixedID("tt")

	got, err := tr.TransformID("tt0213338")
	require.NoError(t, err)
	assert.Equal(t, "tt0213338", got)

	got, err = tr.TransformID("https://www.imdb.com/title/tt0213338/")
	require.NoError(t, err)
	assert.Equal(t, "tt0213338", got)

	for _, raw := range []string{"tt", "0213338", "https://www.imdb.com/name/nm0000001/"} {
		_, err := tr.TransformID(raw)
		assert.ErrorIs(t, err, ErrUnrecognizedID, raw)
	}
}

func TestRegistryLookupCaseInsensitive(t *testing.T) {
	r := DefaultRegistry()

	for _, name := range []string{"MAL", "mal", " Mal ", "AniList", "imdb"} {
		_, ok := r.Lookup(name)
		assert.True(t, ok, name)
	}

	_, ok := r.Lookup("SOURCE")
	assert.False(t, ok)
	assert.Equal(t, []string{"MAL", "IMDB", "ANILIST"}, r.Names())
}

func TestRegistryOpenForNewProviders(t *testing.T) {
	r := DefaultRegistry()
	r.Register("KITSU", models.MetadataProvider(3), IDTransformFunc(func(raw string) (string, error) {
		return strings.ToLower(raw), nil
	}))

	p, ok := r.Lookup("kitsu")
	require.True(t, ok)
	id, err := p.Transformer.TransformID("ABC")
	require.NoError(t, err)
	assert.Equal(t, "abc", id)

	r.Register("mal", models.MetadataMAL, PrefixedID("m"))
	assert.Len(t, r.Names(), 4)
}

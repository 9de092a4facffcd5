package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moodlens/moodlens/internal/emotion"
)

func TestLoadCatalogCoversAllEmotions(t *testing.T) {
	catalog, err := LoadCatalog()
	require.NoError(t, err)

	for _, e := range emotion.All {
		entry, ok := catalog[e]
		require.True(t, ok, "catalog missing %s", e)

		assert.NotEmpty(t, entry.MovieTerms, "%s movie terms", e)
		assert.NotEmpty(t, entry.SpotifyGenres, "%s spotify genres", e)
		assert.NotEmpty(t, entry.SpotifyKeywords, "%s spotify keywords", e)
		assert.NotEmpty(t, entry.BookKeywords, "%s book keywords", e)

		assert.GreaterOrEqual(t, len(entry.FallbackMovies), DisplayCap, "%s fallback movies", e)
		assert.GreaterOrEqual(t, len(entry.FallbackSongs), DisplayCap, "%s fallback songs", e)
		assert.GreaterOrEqual(t, len(entry.FallbackBooks), DisplayCap, "%s fallback books", e)
	}
}

func TestCatalogFallbackItemsAreRenderable(t *testing.T) {
	catalog, err := LoadCatalog()
	require.NoError(t, err)

	for e, entry := range catalog {
		for _, list := range [][]Item{entry.FallbackMovies, entry.FallbackSongs, entry.FallbackBooks} {
			for _, item := range list {
				assert.NotEmpty(t, item.Title, "%s fallback item title", e)
				assert.NotEmpty(t, item.Link, "%s fallback item link (%s)", e, item.Title)
			}
		}
	}
}

package recommend

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/moodlens/moodlens/internal/emotion"
)

//go:embed catalog.yaml
var catalogYAML []byte

// CatalogEntry holds the per-emotion query vocabulary for each content
// provider plus the hand-authored fallback lists served when live calls
// fail. Read-only after Load.
type CatalogEntry struct {
	MovieTerms      []string `yaml:"movie_terms"`
	SpotifyGenres   []string `yaml:"spotify_genres"`
	SpotifyKeywords []string `yaml:"spotify_keywords"`
	BookKeywords    []string `yaml:"book_keywords"`
	FallbackMovies  []Item   `yaml:"fallback_movies"`
	FallbackSongs   []Item   `yaml:"fallback_songs"`
	FallbackBooks   []Item   `yaml:"fallback_books"`
}

// Catalog maps every canonical emotion to its query terms and fallbacks.
type Catalog map[emotion.Emotion]CatalogEntry

// LoadCatalog parses the embedded catalog and verifies it covers all seven
// emotions with renderable fallback items, so a broken edit to the data
// file fails at startup rather than at serving time.
func LoadCatalog() (Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(catalogYAML, &catalog); err != nil {
		return nil, fmt.Errorf("parsing mood catalog: %w", err)
	}

	for _, e := range emotion.All {
		entry, ok := catalog[e]
		if !ok {
			return nil, fmt.Errorf("mood catalog missing emotion %q", e)
		}
		for _, list := range [][]Item{entry.FallbackMovies, entry.FallbackSongs, entry.FallbackBooks} {
			if len(list) == 0 {
				return nil, fmt.Errorf("mood catalog %q has an empty fallback list", e)
			}
			for _, item := range list {
				if item.Title == "" || item.Link == "" {
					return nil, fmt.Errorf("mood catalog %q has a fallback item without title or link", e)
				}
			}
		}
	}

	return catalog, nil
}

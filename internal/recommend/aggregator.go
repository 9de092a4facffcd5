package recommend

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"strings"
	"sync"

	"github.com/moodlens/moodlens/internal/emotion"
	"github.com/moodlens/moodlens/internal/observability"
)

// MovieSource, SongSource, and BookSource abstract the three content
// providers so the aggregator can be exercised against stubs.
type MovieSource interface {
	MoviesForTerms(ctx context.Context, terms []string) ([]Item, error)
}

type SongSource interface {
	TracksForMood(ctx context.Context, genres, keywords []string) ([]Item, error)
}

type BookSource interface {
	BooksForKeywords(ctx context.Context, keywords []string) ([]Item, error)
}

// Aggregator turns an emotion label into a full recommendation set. Get
// never fails outward: any provider problem degrades that kind to its
// static fallback list.
type Aggregator struct {
	catalog Catalog
	movies  MovieSource
	songs   SongSource
	books   BookSource
}

func NewAggregator(catalog Catalog, movies MovieSource, songs SongSource, books BookSource) *Aggregator {
	return &Aggregator{
		catalog: catalog,
		movies:  movies,
		songs:   songs,
		books:   books,
	}
}

// Get fetches all three content kinds concurrently and independently; a
// slow or failed kind never blocks or aborts the others.
func (a *Aggregator) Get(ctx context.Context, e emotion.Emotion) *Set {
	entry := a.catalog[e]
	set := &Set{}

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		set.Movies = a.fetchKind(ctx, "movies", entry.FallbackMovies, func() ([]Item, error) {
			if a.movies == nil {
				return nil, errUnconfigured
			}
			items, err := a.movies.MoviesForTerms(ctx, entry.MovieTerms)
			if err != nil {
				return nil, err
			}
			return dedupeByID(items), nil
		})
	}()

	go func() {
		defer wg.Done()
		set.Songs = a.fetchKind(ctx, "songs", entry.FallbackSongs, func() ([]Item, error) {
			if a.songs == nil {
				return nil, errUnconfigured
			}
			items, err := a.songs.TracksForMood(ctx, entry.SpotifyGenres, entry.SpotifyKeywords)
			if err != nil {
				return nil, err
			}
			return dedupeByID(items), nil
		})
	}()

	go func() {
		defer wg.Done()
		set.Books = a.fetchKind(ctx, "books", entry.FallbackBooks, func() ([]Item, error) {
			if a.books == nil {
				return nil, errUnconfigured
			}
			items, err := a.books.BooksForKeywords(ctx, entry.BookKeywords)
			if err != nil {
				return nil, err
			}
			return dedupeByTitle(items), nil
		})
	}()

	wg.Wait()
	return set
}

// fetchKind runs one provider fetch and applies the shuffle/trim/fallback
// policy shared by all three kinds.
func (a *Aggregator) fetchKind(ctx context.Context, kind string, fallback []Item, fetch func() ([]Item, error)) []Item {
	items, err := fetch()
	if err != nil || len(items) == 0 {
		if err != nil && !errors.Is(err, errUnconfigured) {
			log.Printf("[RECO] %s fetch failed, serving fallback: %v", kind, err)
		}
		observability.FallbacksServed.WithLabelValues(kind).Inc()
		return trim(fallback)
	}

	rand.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
	return trim(items)
}

var errUnconfigured = errors.New("provider unconfigured")

func trim(items []Item) []Item {
	if len(items) > DisplayCap {
		return items[:DisplayCap]
	}
	return items
}

func dedupeByID(items []Item) []Item {
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, item := range items {
		if item.ID != "" && seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		out = append(out, item)
	}
	return out
}

func dedupeByTitle(items []Item) []Item {
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, item := range items {
		key := strings.ToLower(item.Title)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}

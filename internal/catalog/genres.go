package catalog

import (
	"context"
	"strings"
	"sync"

	"github.com/vadimtrunov/cinescope/internal/core"
	"github.com/vadimtrunov/cinescope/internal/metadata/tmdb"
)

// GenreLister fetches the upstream genre list.
type GenreLister interface {
	GenreList(ctx context.Context) ([]tmdb.Genre, error)
}

// GenreDirectory maps genre display names to upstream ids.
// The list is fetched on demand and kept for the session; stale data is accepted.
type GenreDirectory struct {
	src GenreLister

	mu     sync.RWMutex
	genres []core.Genre
	loaded bool
}

// NewGenreDirectory creates an empty directory backed by src.
func NewGenreDirectory(src GenreLister) *GenreDirectory {
	return &GenreDirectory{src: src}
}

// ListGenres fetches the genre list and replaces the stored one.
func (d *GenreDirectory) ListGenres(ctx context.Context) ([]core.Genre, error) {
	raw, err := d.src.GenreList(ctx)
	if err != nil {
		return nil, wrapFetch("genre list", err)
	}
	genres := tmdb.NormalizeGenres(raw)

	d.mu.Lock()
	d.genres = genres
	d.loaded = len(genres) > 0 // an empty list is fetched again on next use
	d.mu.Unlock()

	return cloneGenres(genres), nil
}

// Cached returns the most recently fetched list and whether a non-empty one exists.
func (d *GenreDirectory) Cached() ([]core.Genre, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return cloneGenres(d.genres), d.loaded
}

// Ensure fetches the list unless it has already been loaded.
func (d *GenreDirectory) Ensure(ctx context.Context) ([]core.Genre, error) {
	if genres, ok := d.Cached(); ok {
		return genres, nil
	}
	return d.ListGenres(ctx)
}

// FindByName does a case-insensitive exact match against the most recent list.
func (d *GenreDirectory) FindByName(name string) (core.Genre, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Genre{}, false
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, g := range d.genres {
		if strings.EqualFold(g.Name, name) {
			return g, true
		}
	}
	return core.Genre{}, false
}

// FindByID returns the genre with the given id from the most recent list.
func (d *GenreDirectory) FindByID(id int) (core.Genre, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, g := range d.genres {
		if g.ID == id {
			return g, true
		}
	}
	return core.Genre{}, false
}

func cloneGenres(in []core.Genre) []core.Genre {
	out := make([]core.Genre, len(in))
	copy(out, in)
	return out
}

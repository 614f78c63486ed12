package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/vadimtrunov/cinescope/internal/core"
	"github.com/vadimtrunov/cinescope/internal/metadata/tmdb"
)

// Source is the upstream API as seen by the resolver. *tmdb.Client implements it.
type Source interface {
	GenreLister
	TrendingMovies(ctx context.Context) ([]tmdb.Movie, error)
	PopularMovies(ctx context.Context) ([]tmdb.Movie, error)
	NowPlayingMovies(ctx context.Context) ([]tmdb.Movie, error)
	DiscoverByGenre(ctx context.Context, genreID int) ([]tmdb.Movie, error)
	SearchMovies(ctx context.Context, query string) ([]tmdb.Movie, error)
	GetMovieDetails(ctx context.Context, id int) (*tmdb.MovieDetails, error)
}

// Resolver decides which upstream request a mode maps to and normalizes the result.
// It mutates nothing but its genre directory; callers own state transitions.
type Resolver struct {
	src    Source
	genres *GenreDirectory
	logger *slog.Logger
}

// compile-time check.
var _ core.Catalog = (*Resolver)(nil)

// NewResolver creates a resolver with its own genre directory.
func NewResolver(src Source, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		src:    src,
		genres: NewGenreDirectory(src),
		logger: logger,
	}
}

// Directory exposes the resolver's genre directory.
func (r *Resolver) Directory() *GenreDirectory {
	return r.genres
}

// Resolve issues exactly one upstream listing request for mode.
// The genre list may additionally be fetched once, the first time a genre is looked up.
func (r *Resolver) Resolve(ctx context.Context, mode core.Mode) ([]core.MovieSummary, error) {
	if err := mode.Validate(); err != nil {
		return nil, err
	}

	raw, err := r.fetch(ctx, mode)
	if err != nil {
		r.logger.Debug("resolve failed",
			slog.String("mode", mode.String()),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	movies := tmdb.NormalizeAll(raw)
	r.logger.Debug("resolved",
		slog.String("mode", mode.String()),
		slog.Int("results", len(movies)),
	)
	return movies, nil
}

func (r *Resolver) fetch(ctx context.Context, mode core.Mode) ([]tmdb.Movie, error) {
	switch mode.Kind {
	case core.KindAll:
		return r.call("trending movies", func() ([]tmdb.Movie, error) { return r.src.TrendingMovies(ctx) })
	case core.KindPopular:
		return r.call("popular movies", func() ([]tmdb.Movie, error) { return r.src.PopularMovies(ctx) })
	case core.KindLatest:
		return r.call("now playing movies", func() ([]tmdb.Movie, error) { return r.src.NowPlayingMovies(ctx) })
	case core.KindGenre:
		genre, err := r.lookupGenre(ctx, mode.GenreName)
		if err != nil {
			return nil, err
		}
		return r.discover(ctx, genre.ID)
	case core.KindSearch:
		return r.search(ctx, mode)
	}
	return nil, fmt.Errorf("unsupported mode kind %v", mode.Kind)
}

func (r *Resolver) search(ctx context.Context, mode core.Mode) ([]tmdb.Movie, error) {
	text := strings.TrimSpace(mode.Text)
	if text == "" {
		// Validate guarantees a genre id here.
		return r.discover(ctx, *mode.GenreID)
	}

	movies, err := r.call("search movies", func() ([]tmdb.Movie, error) { return r.src.SearchMovies(ctx, text) })
	if err != nil || mode.GenreID == nil {
		return movies, err
	}
	return narrowByGenre(movies, *mode.GenreID), nil
}

func (r *Resolver) discover(ctx context.Context, genreID int) ([]tmdb.Movie, error) {
	return r.call("discover movies", func() ([]tmdb.Movie, error) { return r.src.DiscoverByGenre(ctx, genreID) })
}

// lookupGenre consults the directory, populating it on first use.
func (r *Resolver) lookupGenre(ctx context.Context, name string) (core.Genre, error) {
	if _, err := r.genres.Ensure(ctx); err != nil {
		return core.Genre{}, err
	}
	genre, ok := r.genres.FindByName(name)
	if !ok {
		return core.Genre{}, fmt.Errorf("%w: %q", core.ErrGenreNotFound, strings.TrimSpace(name))
	}
	return genre, nil
}

// MovieDetails loads the detail record for id.
func (r *Resolver) MovieDetails(ctx context.Context, id int) (*core.MovieDetail, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid id %d", core.ErrNotFound, id)
	}

	raw, err := r.src.GetMovieDetails(ctx, id)
	if err != nil {
		var fe *core.FetchError
		if errors.As(err, &fe) && fe.Status == http.StatusNotFound {
			return nil, fmt.Errorf("%w: id %d", core.ErrNotFound, id)
		}
		return nil, wrapFetch(fmt.Sprintf("movie %d", id), err)
	}
	if raw == nil || raw.ID == 0 {
		return nil, fmt.Errorf("%w: id %d", core.ErrNotFound, id)
	}

	detail := tmdb.NormalizeDetails(*raw)
	r.logger.Debug("loaded movie details", slog.Int("id", id), slog.String("title", detail.Title))
	return &detail, nil
}

// Genres returns the genre directory, fetching it if it has not been loaded.
func (r *Resolver) Genres(ctx context.Context) ([]core.Genre, error) {
	return r.genres.Ensure(ctx)
}

func (r *Resolver) call(op string, fn func() ([]tmdb.Movie, error)) ([]tmdb.Movie, error) {
	movies, err := fn()
	if err != nil {
		return nil, wrapFetch(op, err)
	}
	return movies, nil
}

// narrowByGenre drops results whose genre ids are known and exclude genreID.
// Records without genre ids are kept: the search endpoint cannot filter by genre.
func narrowByGenre(movies []tmdb.Movie, genreID int) []tmdb.Movie {
	out := make([]tmdb.Movie, 0, len(movies))
	for _, m := range movies {
		if m.GenreIDs == nil || slices.Contains(m.GenreIDs, genreID) {
			out = append(out, m)
		}
	}
	return out
}

// wrapFetch makes sure every upstream failure crossing the resolver is a *core.FetchError.
// Context errors pass through so callers can tell cancellation from failure.
func wrapFetch(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || core.IsFetchError(err) {
		return err
	}
	return &core.FetchError{Op: op, Err: err}
}

package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vadimtrunov/cinescope/internal/core"
	"github.com/vadimtrunov/cinescope/internal/metadata/tmdb"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func ptr[T any](v T) *T { return &v }

// fakeSource implements Source, recording every upstream call.
type fakeSource struct {
	mu       sync.Mutex
	calls    []string
	genreIDs []int
	queries  []string

	movies  []tmdb.Movie
	genres  []tmdb.Genre
	details *tmdb.MovieDetails
	err     error
	// genreErr overrides err for the genre list only.
	genreErr error
}

func (f *fakeSource) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeSource) GenreList(context.Context) ([]tmdb.Genre, error) {
	f.record("genres")
	if f.genreErr != nil {
		return nil, f.genreErr
	}
	return f.genres, nil
}

func (f *fakeSource) TrendingMovies(context.Context) ([]tmdb.Movie, error) {
	f.record("trending")
	return f.movies, f.err
}

func (f *fakeSource) PopularMovies(context.Context) ([]tmdb.Movie, error) {
	f.record("popular")
	return f.movies, f.err
}

func (f *fakeSource) NowPlayingMovies(context.Context) ([]tmdb.Movie, error) {
	f.record("now_playing")
	return f.movies, f.err
}

func (f *fakeSource) DiscoverByGenre(_ context.Context, id int) ([]tmdb.Movie, error) {
	f.record("discover")
	f.mu.Lock()
	f.genreIDs = append(f.genreIDs, id)
	f.mu.Unlock()
	return f.movies, f.err
}

func (f *fakeSource) SearchMovies(_ context.Context, q string) ([]tmdb.Movie, error) {
	f.record("search")
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	return f.movies, f.err
}

func (f *fakeSource) GetMovieDetails(context.Context, int) (*tmdb.MovieDetails, error) {
	f.record("details")
	return f.details, f.err
}

var testGenres = []tmdb.Genre{{ID: 28, Name: "Action"}, {ID: 18, Name: "Drama"}, {ID: 878, Name: "Science Fiction"}}

func TestResolve_ModeEndpoints(t *testing.T) {
	tests := []struct {
		name  string
		mode  core.Mode
		calls []string
	}{
		{"all", core.ModeAll(), []string{"trending"}},
		{"popular", core.ModePopular(), []string{"popular"}},
		{"latest", core.ModeLatest(), []string{"now_playing"}},
		{"genre", core.ModeGenre("Drama"), []string{"genres", "discover"}},
		{"search", core.ModeSearch("alien", nil), []string{"search"}},
		{"search genre only", core.ModeSearch("  ", ptr(28)), []string{"discover"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSource{
				genres: testGenres,
				movies: []tmdb.Movie{{ID: 1, Title: ptr("A")}},
			}
			r := NewResolver(src, discardLogger)

			movies, err := r.Resolve(context.Background(), tt.mode)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(movies) != 1 || movies[0].Title != "A" {
				t.Errorf("unexpected movies: %+v", movies)
			}
			if diff := cmp.Diff(tt.calls, src.calls); diff != "" {
				t.Errorf("upstream calls mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolve_EmptyQueryMakesNoCall(t *testing.T) {
	src := &fakeSource{}
	r := NewResolver(src, discardLogger)

	_, err := r.Resolve(context.Background(), core.ModeSearch("", nil))
	if !errors.Is(err, core.ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
	if n := src.callCount(); n != 0 {
		t.Errorf("expected no upstream calls, got %d (%v)", n, src.calls)
	}
}

func TestResolve_GenreNotFound(t *testing.T) {
	src := &fakeSource{genres: testGenres}
	r := NewResolver(src, discardLogger)

	_, err := r.Resolve(context.Background(), core.ModeGenre("NonexistentGenreXYZ"))
	if !errors.Is(err, core.ErrGenreNotFound) {
		t.Fatalf("expected ErrGenreNotFound, got %v", err)
	}
	for _, c := range src.calls {
		if c == "discover" {
			t.Error("discover must not be called for an unknown genre")
		}
	}
}

func TestResolve_GenreCaseInsensitive(t *testing.T) {
	for _, name := range []string{"action", "ACTION", "Action", " aCtIoN "} {
		t.Run(name, func(t *testing.T) {
			src := &fakeSource{genres: []tmdb.Genre{{ID: 28, Name: "Action"}}}
			r := NewResolver(src, discardLogger)

			if _, err := r.Resolve(context.Background(), core.ModeGenre(name)); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff([]int{28}, src.genreIDs); diff != "" {
				t.Errorf("discover genre ids mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolve_GenreDirectoryFetchedOnce(t *testing.T) {
	src := &fakeSource{genres: testGenres}
	r := NewResolver(src, discardLogger)

	for range 3 {
		if _, err := r.Resolve(context.Background(), core.ModeGenre("Drama")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	genreCalls := 0
	for _, c := range src.calls {
		if c == "genres" {
			genreCalls++
		}
	}
	if genreCalls != 1 {
		t.Errorf("genre list fetched %d times, want 1", genreCalls)
	}
}

func TestResolve_EmptyResults(t *testing.T) {
	modes := []core.Mode{
		core.ModeAll(), core.ModePopular(), core.ModeLatest(),
		core.ModeGenre("Action"), core.ModeSearch("zzz", nil), core.ModeSearch("zzz", ptr(28)),
	}
	for _, mode := range modes {
		t.Run(mode.String(), func(t *testing.T) {
			src := &fakeSource{genres: testGenres, movies: []tmdb.Movie{}}
			r := NewResolver(src, discardLogger)

			movies, err := r.Resolve(context.Background(), mode)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if movies == nil || len(movies) != 0 {
				t.Errorf("expected empty non-nil slice, got %#v", movies)
			}
		})
	}
}

func TestResolve_SearchNarrowedByGenre(t *testing.T) {
	src := &fakeSource{movies: []tmdb.Movie{
		{ID: 1, Title: ptr("Alien"), GenreIDs: []int{27, 878}},
		{ID: 2, Title: ptr("Alien Nation Doc"), GenreIDs: []int{99}},
		{ID: 3, Title: ptr("Unknown genres")},
	}}
	r := NewResolver(src, discardLogger)

	movies, err := r.Resolve(context.Background(), core.ModeSearch("alien", ptr(878)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var ids []int
	for _, m := range movies {
		ids = append(ids, m.ID)
	}
	if diff := cmp.Diff([]int{1, 3}, ids); diff != "" {
		t.Errorf("narrowed ids mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"alien"}, src.queries); diff != "" {
		t.Errorf("search query mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_FetchErrorWrapped(t *testing.T) {
	src := &fakeSource{err: errors.New("connection reset")}
	r := NewResolver(src, discardLogger)

	_, err := r.Resolve(context.Background(), core.ModePopular())
	var fe *core.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *core.FetchError, got %T: %v", err, err)
	}
	if fe.Op != "popular movies" {
		t.Errorf("Op = %q", fe.Op)
	}
}

func TestResolve_GenreListFailure(t *testing.T) {
	src := &fakeSource{genreErr: &core.FetchError{Op: "genre list", Status: 503}}
	r := NewResolver(src, discardLogger)

	_, err := r.Resolve(context.Background(), core.ModeGenre("Action"))
	if !core.IsFetchError(err) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if _, ok := r.Directory().Cached(); ok {
		t.Error("failed fetch must not mark the directory as loaded")
	}
}

func TestResolve_ContextCanceledPassesThrough(t *testing.T) {
	src := &fakeSource{err: context.Canceled}
	r := NewResolver(src, discardLogger)

	_, err := r.Resolve(context.Background(), core.ModeAll())
	if !errors.Is(err, context.Canceled) || core.IsFetchError(err) {
		t.Errorf("expected bare context.Canceled, got %v", err)
	}
}

func TestMovieDetails(t *testing.T) {
	src := &fakeSource{details: &tmdb.MovieDetails{Movie: tmdb.Movie{ID: 550, Title: ptr("Fight Club")}}}
	r := NewResolver(src, discardLogger)

	d, err := r.MovieDetails(context.Background(), 550)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Title != "Fight Club" {
		t.Errorf("Title = %q", d.Title)
	}
}

func TestMovieDetails_NotFound(t *testing.T) {
	tests := []struct {
		name string
		src  *fakeSource
		id   int
	}{
		{"upstream 404", &fakeSource{err: &core.FetchError{Op: "movie 9", Status: http.StatusNotFound}}, 9},
		{"empty record", &fakeSource{details: &tmdb.MovieDetails{}}, 9},
		{"nil record", &fakeSource{}, 9},
		{"invalid id", &fakeSource{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.src, discardLogger)
			_, err := r.MovieDetails(context.Background(), tt.id)
			if !errors.Is(err, core.ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestMovieDetails_ServerError(t *testing.T) {
	src := &fakeSource{err: &core.FetchError{Op: "movie 9", Status: http.StatusInternalServerError}}
	r := NewResolver(src, discardLogger)

	_, err := r.MovieDetails(context.Background(), 9)
	if errors.Is(err, core.ErrNotFound) || !core.IsFetchError(err) {
		t.Errorf("expected FetchError, got %v", err)
	}
}

// TestResolver_AgainstTMDbClient exercises the resolver over a real HTTP round trip.
func TestResolver_AgainstTMDbClient(t *testing.T) {
	var discoverGenre string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/genre/movie/list":
			w.Write([]byte(`{"genres":[{"id":28,"name":"Action"}]}`))
		case "/discover/movie":
			discoverGenre = r.URL.Query().Get("with_genres")
			w.Write([]byte(`{"results":[{"id":603,"title":"The Matrix","poster_path":null,"release_date":"1999-03-31","vote_average":8.2}]}`))
		case "/movie/550":
			w.Write([]byte(`{"id":550,"title":"Fight Club","credits":{"crew":[
				{"id":1,"job":"Director","name":"David Fincher"},
				{"id":2,"job":"Writer","name":"Jim Uhls"}]}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	r := NewResolver(tmdb.NewForTest(server.URL, discardLogger), discardLogger)

	movies, err := r.Resolve(context.Background(), core.ModeGenre("action"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if discoverGenre != "28" {
		t.Errorf("with_genres = %q, want 28", discoverGenre)
	}
	want := []core.MovieSummary{{
		ID:          603,
		Title:       "The Matrix",
		ReleaseYear: ptr("1999"),
		PosterURL:   tmdb.PlaceholderPosterURL,
		Rating:      8.2,
	}}
	if diff := cmp.Diff(want, movies); diff != "" {
		t.Errorf("movies mismatch (-want +got):\n%s", diff)
	}

	d, err := r.MovieDetails(context.Background(), 550)
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if d.Director == nil || d.Director.Name != "David Fincher" {
		t.Errorf("Director = %+v", d.Director)
	}
	if len(d.Writers) != 1 || d.Writers[0].Name != "Jim Uhls" {
		t.Errorf("Writers = %+v", d.Writers)
	}
}

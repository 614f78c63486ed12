package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/vadimtrunov/cinescope/internal/core"
	"github.com/vadimtrunov/cinescope/internal/httpclient"
)

// DefaultBaseURL is the TMDb v3 API root.
const DefaultBaseURL = "https://api.themoviedb.org/3"

// maxErrorBody bounds how much of a failed response is kept for the error message.
const maxErrorBody = 512

// Client is a TMDb API v3 client.
type Client struct {
	baseURL string
	apiKey  string
	http    *httpclient.Client
	logger  *slog.Logger
}

// New creates a new TMDb client. An empty baseURL selects DefaultBaseURL.
func New(apiKey, baseURL string, hc *httpclient.Client, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	if hc == nil {
		hc = httpclient.New(httpclient.DefaultConfig(), logger)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    hc,
		logger:  logger,
	}
}

// NewForTest creates a TMDb client with a custom base URL for testing.
// Exported because it is used by cross-package tests (e.g. internal/catalog).
func NewForTest(baseURL string, logger *slog.Logger) *Client {
	return New("test-key", baseURL, httpclient.New(httpclient.DefaultConfig(), logger), logger)
}

// SearchMovies searches for movies by title.
func (c *Client) SearchMovies(ctx context.Context, query string) ([]Movie, error) {
	return c.list(ctx, "search movies", "/search/movie", url.Values{"query": {query}})
}

// PopularMovies returns the popular movies list.
func (c *Client) PopularMovies(ctx context.Context) ([]Movie, error) {
	return c.list(ctx, "popular movies", "/movie/popular", nil)
}

// NowPlayingMovies returns movies currently in theaters.
func (c *Client) NowPlayingMovies(ctx context.Context) ([]Movie, error) {
	return c.list(ctx, "now playing movies", "/movie/now_playing", nil)
}

// TrendingMovies returns this week's trending movies.
func (c *Client) TrendingMovies(ctx context.Context) ([]Movie, error) {
	return c.list(ctx, "trending movies", "/trending/movie/week", nil)
}

// DiscoverByGenre returns movies tagged with the given genre id.
func (c *Client) DiscoverByGenre(ctx context.Context, genreID int) ([]Movie, error) {
	params := url.Values{"with_genres": {strconv.Itoa(genreID)}}
	return c.list(ctx, "discover movies", "/discover/movie", params)
}

// GenreList returns all movie genres.
func (c *Client) GenreList(ctx context.Context) ([]Genre, error) {
	var resp genreListResponse
	if err := c.get(ctx, "genre list", "/genre/movie/list", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Genres == nil {
		return []Genre{}, nil
	}
	return resp.Genres, nil
}

// GetMovieDetails retrieves a movie with its videos and credits appended.
func (c *Client) GetMovieDetails(ctx context.Context, id int) (*MovieDetails, error) {
	var details MovieDetails
	path := fmt.Sprintf("/movie/%d", id)
	params := url.Values{"append_to_response": {"videos,credits"}}
	if err := c.get(ctx, fmt.Sprintf("movie %d", id), path, params, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

func (c *Client) list(ctx context.Context, op, path string, params url.Values) ([]Movie, error) {
	var resp listResponse
	if err := c.get(ctx, op, path, params, &resp); err != nil {
		return nil, err
	}
	if resp.Results == nil {
		return []Movie{}, nil
	}
	return resp.Results, nil
}

// get performs an authenticated GET request to the TMDb API and decodes the JSON response.
// Failures are returned as *core.FetchError; context cancellation is returned unchanged.
func (c *Client) get(ctx context.Context, op, path string, params url.Values, result any) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return &core.FetchError{Op: op, Err: fmt.Errorf("invalid URL: %w", err)}
	}

	q := u.Query()
	q.Set("api_key", c.apiKey)
	for k, vs := range params {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return &core.FetchError{Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &core.FetchError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &core.FetchError{Op: op, Status: resp.StatusCode, Message: errorMessage(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return &core.FetchError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// errorMessage extracts TMDb's status_message, falling back to the raw body.
func errorMessage(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.StatusMessage != "" {
		return e.StatusMessage
	}
	return strings.TrimSpace(string(body))
}

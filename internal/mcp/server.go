package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vadimtrunov/cinescope/internal/core"
)

// Deps holds the dependencies of the MCP tool handlers.
type Deps struct {
	Catalog core.Catalog
	Version string
}

// Server wraps an MCP SDK server with cinescope tool handlers.
type Server struct {
	server *mcpsdk.Server
	deps   Deps
	logger *slog.Logger
}

// NewServer creates an MCP server with all catalog tools registered.
func NewServer(deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	s := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "cinescope",
			Version: version,
		},
		&mcpsdk.ServerOptions{Logger: logger},
	)

	srv := &Server{server: s, deps: deps, logger: logger}
	srv.registerTools()
	return srv
}

// ServeStdio runs the MCP server over stdin/stdout.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.server.Run(ctx, &mcpsdk.StdioTransport{})
}

// MCPServer returns the underlying MCP SDK server (for testing).
func (s *Server) MCPServer() *mcpsdk.Server {
	return s.server
}

func (s *Server) registerTools() {
	s.server.AddTool(listMoviesTool(), s.handleListMovies)
	s.server.AddTool(moviesByGenreTool(), s.handleMoviesByGenre)
	s.server.AddTool(searchMoviesTool(), s.handleSearchMovies)
	s.server.AddTool(getMovieDetailsTool(), s.handleGetMovieDetails)
	s.server.AddTool(listGenresTool(), s.handleListGenres)
}

// Tool definitions.

func listMoviesTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "list_movies",
		Description: "List movies from a curated listing: 'all' (weekly trending), 'popular' or 'latest' (now playing). Returns TMDb IDs, titles, years, poster URLs and ratings.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"mode": map[string]any{
					"type":        "string",
					"enum":        []any{"all", "popular", "latest"},
					"description": "Which listing to return; defaults to 'all'",
				},
			},
		},
	}
}

func moviesByGenreTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "movies_by_genre",
		Description: "List movies of a genre, matched case-insensitively by name (e.g. 'Action', 'science fiction'). Use list_genres to see the valid names.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"genre": map[string]any{
					"type":        "string",
					"description": "Genre display name",
				},
			},
			"required": []any{"genre"},
		},
	}
}

func searchMoviesTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "search_movies",
		Description: "Search movies by title. An optional genre_id narrows the results; with an empty query the genre alone is listed.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The movie title to search for",
				},
				"genre_id": map[string]any{
					"type":        "integer",
					"description": "Optional TMDb genre ID",
				},
			},
			"required": []any{"query"},
		},
	}
}

func getMovieDetailsTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "get_movie_details",
		Description: "Get detailed information about a movie by its TMDb ID: overview, runtime, genres, director, writers, top cast and trailer.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"tmdb_id": map[string]any{
					"type":        "integer",
					"description": "The TMDb ID of the movie",
				},
			},
			"required": []any{"tmdb_id"},
		},
	}
}

func listGenresTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "list_genres",
		Description: "List all movie genres with their TMDb IDs.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	}
}

// Tool handlers: each parses arguments, calls the catalog, returns JSON text content.

func (s *Server) handleListMovies(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Catalog == nil {
		return toolError("catalog not configured"), nil
	}

	var args struct {
		Mode string `json:"mode"`
	}
	if err := unmarshalArgs(req.Params.Arguments, &args); err != nil {
		return toolError(err.Error()), nil
	}
	kind, err := core.ParseKind(args.Mode)
	if err != nil {
		return toolError(err.Error()), nil
	}
	return s.resolve(ctx, core.ModeFromKind(kind))
}

func (s *Server) handleMoviesByGenre(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Catalog == nil {
		return toolError("catalog not configured"), nil
	}

	genre, err := extractStringFromArgs(req.Params.Arguments, "genre")
	if err != nil {
		return toolError(err.Error()), nil
	}
	return s.resolve(ctx, core.ModeGenre(genre))
}

func (s *Server) handleSearchMovies(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Catalog == nil {
		return toolError("catalog not configured"), nil
	}

	var args struct {
		Query   string `json:"query"`
		GenreID *int   `json:"genre_id"`
	}
	if err := unmarshalArgs(req.Params.Arguments, &args); err != nil {
		return toolError(err.Error()), nil
	}
	return s.resolve(ctx, core.ModeSearch(args.Query, args.GenreID))
}

func (s *Server) handleGetMovieDetails(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Catalog == nil {
		return toolError("catalog not configured"), nil
	}

	tmdbID, err := extractIntFromArgs(req.Params.Arguments, "tmdb_id")
	if err != nil {
		return toolError(err.Error()), nil
	}

	detail, err := s.deps.Catalog.MovieDetails(ctx, tmdbID)
	if err != nil {
		return s.domainError("get_movie_details", err), nil
	}
	return toolJSON(detail)
}

func (s *Server) handleListGenres(ctx context.Context, _ *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Catalog == nil {
		return toolError("catalog not configured"), nil
	}

	genres, err := s.deps.Catalog.Genres(ctx)
	if err != nil {
		return s.domainError("list_genres", err), nil
	}
	return toolJSON(genres)
}

func (s *Server) resolve(ctx context.Context, mode core.Mode) (*mcpsdk.CallToolResult, error) {
	movies, err := s.deps.Catalog.Resolve(ctx, mode)
	if err != nil {
		return s.domainError(mode.String(), err), nil
	}
	if len(movies) == 0 {
		return toolText(core.NoResultsMessage), nil
	}
	return toolJSON(movies)
}

// domainError turns a catalog error into a tool error carrying the user-facing message.
func (s *Server) domainError(op string, err error) *mcpsdk.CallToolResult {
	s.logger.Warn("mcp tool failed", slog.String("op", op), slog.String("error", err.Error()))
	return toolError(core.UserMessage(err))
}

// Helper functions.

// toolJSON marshals v to JSON and returns it as text content.
func toolJSON(v any) (*mcpsdk.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return toolError(fmt.Sprintf("marshal result: %v", err)), nil
	}
	return toolText(string(data)), nil
}

func toolText(text string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: text}},
	}
}

// toolError returns a tool result indicating an error.
func toolError(msg string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: msg}},
		IsError: true,
	}
}

// unmarshalArgs decodes tool arguments; absent arguments leave v untouched.
func unmarshalArgs(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// extractIntFromArgs extracts an integer argument from raw JSON arguments.
func extractIntFromArgs(raw json.RawMessage, key string) (int, error) {
	var args map[string]any
	if err := unmarshalArgs(raw, &args); err != nil {
		return 0, err
	}

	val, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("%s is required", key)
	}

	switch v := val.(type) {
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%s must be a number: %w", key, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s must be a number, got %T", key, val)
	}
}

// extractStringFromArgs extracts a string argument from raw JSON arguments.
func extractStringFromArgs(raw json.RawMessage, key string) (string, error) {
	var args map[string]any
	if err := unmarshalArgs(raw, &args); err != nil {
		return "", err
	}

	val, ok := args[key]
	if !ok {
		return "", fmt.Errorf("%s is required", key)
	}

	s, ok := val.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%s must be a non-empty string", key)
	}
	return s, nil
}

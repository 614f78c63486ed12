package core

import "context"

// Catalog resolves browse modes into movie lists and loads movie details.
// It is the single entry point shared by every frontend.
type Catalog interface {
	// Resolve issues the upstream request selected by mode and returns normalized summaries.
	Resolve(ctx context.Context, mode Mode) ([]MovieSummary, error)

	// MovieDetails loads the full record for a movie, including cast, crew and trailer.
	MovieDetails(ctx context.Context, id int) (*MovieDetail, error)

	// Genres returns the genre directory, fetching it on first use.
	Genres(ctx context.Context) ([]Genre, error)
}

// Frontend defines the interface for long-running frontends (HTTP API, Telegram)
type Frontend interface {
	// Start runs the frontend until ctx is canceled
	Start(ctx context.Context) error

	// Stop stops the frontend
	Stop(ctx context.Context) error

	// Name returns the frontend name (e.g., "api", "telegram")
	Name() string
}

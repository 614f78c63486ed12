package core

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuery is returned for a search with no text and no genre.
	ErrEmptyQuery = errors.New("empty query: enter a title or pick a genre")
	// ErrGenreNotFound is returned when a genre name has no upstream id.
	ErrGenreNotFound = errors.New("genre not found")
	// ErrNotFound is returned when a movie detail lookup has no record.
	ErrNotFound = errors.New("movie not found")
)

// FetchError wraps a network or HTTP failure from the upstream API.
type FetchError struct {
	Op      string // e.g. "trending movies"
	Status  int    // HTTP status, 0 for transport failures
	Message string // upstream status_message or response body
	Err     error  // transport error, if any
}

func (e *FetchError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: upstream error %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: upstream error %d", e.Op, e.Status)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsFetchError reports whether err wraps a *FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// UserMessage maps an error from the catalog to the one-line message shown to users.
func UserMessage(err error) string {
	var fe *FetchError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyQuery):
		return "Enter a movie title or pick a genre."
	case errors.Is(err, ErrGenreNotFound):
		return "Unknown genre. Use the genre list to pick one."
	case errors.Is(err, ErrNotFound):
		return "Movie not found."
	case errors.As(err, &fe):
		return "Failed to fetch movies. Please try again later."
	}
	return "Something went wrong. Please try again."
}

// NoResultsMessage is shown when a listing resolves to zero movies.
const NoResultsMessage = "No movies found. Try searching for something else!"

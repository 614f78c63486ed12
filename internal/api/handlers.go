package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vadimtrunov/cinescope/internal/config"
	"github.com/vadimtrunov/cinescope/internal/core"
)

type handlers struct {
	catalog core.Catalog
}

// MoviesResponse is the body of listing and search endpoints.
type MoviesResponse struct {
	Mode    string              `json:"mode"`
	Results []core.MovieSummary `json:"results"`
	Message string              `json:"message,omitempty"` // set when Results is empty
}

// GenresResponse is the body of GET /api/genres.
type GenresResponse struct {
	Genres []core.Genre `json:"genres"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message   string    `json:"message"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// listMovies serves GET /api/movies?mode=all|popular|latest or ?genre=<name>.
func (h *handlers) listMovies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var mode core.Mode
	if genre := q.Get("genre"); genre != "" {
		mode = core.ModeGenre(genre)
	} else {
		kind, err := core.ParseKind(q.Get("mode"))
		if err != nil {
			h.badRequest(w, r, err.Error())
			return
		}
		mode = core.ModeFromKind(kind)
	}
	h.resolve(w, r, mode)
}

// search serves GET /api/search?q=<text>&genre_id=<id>.
func (h *handlers) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var genreID *int
	if raw := q.Get("genre_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			h.badRequest(w, r, "genre_id must be a positive integer")
			return
		}
		genreID = &id
	}
	h.resolve(w, r, core.ModeSearch(q.Get("q"), genreID))
}

func (h *handlers) resolve(w http.ResponseWriter, r *http.Request, mode core.Mode) {
	movies, err := h.catalog.Resolve(r.Context(), mode)
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	resp := MoviesResponse{Mode: mode.String(), Results: movies}
	if len(movies) == 0 {
		resp.Results = []core.MovieSummary{}
		resp.Message = core.NoResultsMessage
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

// movieDetails serves GET /api/movies/{id}.
func (h *handlers) movieDetails(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		h.badRequest(w, r, "movie id must be a positive integer")
		return
	}

	detail, err := h.catalog.MovieDetails(r.Context(), id)
	if err != nil {
		h.domainError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, detail)
}

// genres serves GET /api/genres.
func (h *handlers) genres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.catalog.Genres(r.Context())
	if err != nil {
		h.domainError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, GenresResponse{Genres: genres})
}

func (h *handlers) notFound(w http.ResponseWriter, r *http.Request) {
	h.errorResponse(w, r, http.StatusNotFound, "The requested resource was not found")
}

func (h *handlers) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.errorResponse(w, r, http.StatusMethodNotAllowed, "Method not allowed")
}

func (h *handlers) badRequest(w http.ResponseWriter, r *http.Request, message string) {
	h.errorResponse(w, r, http.StatusBadRequest, message)
}

// domainError maps a catalog error to a status code and a user-facing message.
func (h *handlers) domainError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	logger := config.LoggerFromContext(r.Context())
	switch {
	case status == statusClientClosedRequest || status == http.StatusGatewayTimeout:
		logger.Debug("request abandoned",
			slog.String("uri", r.URL.Path),
			slog.String("error", err.Error()),
		)
	case status >= http.StatusInternalServerError:
		logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("uri", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
	h.errorResponse(w, r, status, core.UserMessage(err))
}

// statusClientClosedRequest is reported when the client went away mid-request.
const statusClientClosedRequest = 499

// statusFor picks the HTTP status for a catalog error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, core.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrGenreNotFound), errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case core.IsFetchError(err):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// errorResponse sends a JSON-formatted error with the request id.
func (h *handlers) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	resp := ErrorResponse{
		Message:   strings.TrimSpace(message),
		RequestID: middleware.GetReqID(r.Context()),
		Timestamp: time.Now().UTC(),
	}
	h.writeJSON(w, r, status, resp)
}

func (h *handlers) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		config.LoggerFromContext(r.Context()).Error("encode response", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}

package catalog

import (
	"context"
	"sync"

	"github.com/vadimtrunov/cinescope/internal/core"
)

// Session guards a browse State for frontends that handle events concurrently.
// Every request runs under its own context; starting a new one cancels the
// previous in-flight request.
type Session struct {
	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
}

// NewSession creates an idle session.
func NewSession() *Session {
	return &Session{}
}

// State returns a snapshot of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Begin selects mode. When an upstream call is needed it returns the request
// and a context that is canceled once a newer request begins.
func (s *Session) Begin(parent context.Context, mode core.Mode) (context.Context, *Request, State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	next, req := Reduce(s.state, Selected{Mode: mode})
	s.state = next
	if req == nil {
		return nil, nil, next
	}

	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	return ctx, req, next
}

// Complete reports the outcome of a request. It returns the resulting state and
// whether the outcome was applied (false when the request was superseded or
// already completed).
func (s *Session) Complete(seq uint64, movies []core.MovieSummary, err error) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.state.seq || s.state.Status != StatusLoading {
		return s.state, false
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	next, _ := Reduce(s.state, Completed{Seq: seq, Movies: movies, Err: err})
	s.state = next
	return next, true
}

// Run selects mode, resolves it through cat and completes the request.
// applied is false when a newer request superseded this one while it ran.
func (s *Session) Run(parent context.Context, cat core.Catalog, mode core.Mode) (state State, applied bool) {
	ctx, req, st := s.Begin(parent, mode)
	if req == nil {
		return st, true
	}
	movies, err := cat.Resolve(ctx, req.Mode)
	return s.Complete(req.Seq, movies, err)
}

// Close cancels any in-flight request.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

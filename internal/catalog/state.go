package catalog

import "github.com/vadimtrunov/cinescope/internal/core"

// Status is the lifecycle of the current browse request.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// State is the complete browse state. It is a value: transitions go through Reduce.
type State struct {
	Pending core.Mode // most recently selected mode
	Shown   core.Mode // mode that produced Movies
	Movies  []core.MovieSummary
	Status  Status
	Err     error

	seq uint64 // latest issued request
}

// Seq returns the sequence number of the latest issued request.
func (s State) Seq() uint64 { return s.seq }

// Loading reports whether a request is in flight.
func (s State) Loading() bool { return s.Status == StatusLoading }

// Event is an input to Reduce.
type Event interface {
	isEvent()
}

// Selected is emitted when the user picks a new mode.
type Selected struct {
	Mode core.Mode
}

// Completed is emitted when the request with sequence Seq finishes.
type Completed struct {
	Seq    uint64
	Movies []core.MovieSummary
	Err    error
}

func (Selected) isEvent()  {}
func (Completed) isEvent() {}

// Request tells the caller to resolve Mode and report back with Seq.
type Request struct {
	Seq  uint64
	Mode core.Mode
}

// Reduce applies ev to s. A non-nil Request means an upstream call must be issued.
//
// Completions are applied only when their sequence number is the latest
// issued, so a slow response to a superseded request never overwrites a newer
// one. Failures keep the last good result set visible.
func Reduce(s State, ev Event) (State, *Request) {
	switch ev := ev.(type) {
	case Selected:
		s.Pending = ev.Mode
		if err := ev.Mode.Validate(); err != nil {
			// Inline failure: nothing is sent upstream, and any in-flight
			// response is now stale.
			s.seq++
			s.Status = StatusFailed
			s.Err = err
			return s, nil
		}
		s.seq++
		s.Status = StatusLoading
		s.Err = nil
		return s, &Request{Seq: s.seq, Mode: ev.Mode}

	case Completed:
		if ev.Seq != s.seq || s.Status != StatusLoading {
			return s, nil
		}
		if ev.Err != nil {
			s.Status = StatusFailed
			s.Err = ev.Err
			return s, nil
		}
		s.Shown = s.Pending
		s.Movies = ev.Movies
		if s.Movies == nil {
			s.Movies = []core.MovieSummary{}
		}
		s.Status = StatusReady
		s.Err = nil
		return s, nil
	}
	return s, nil
}

package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies which upstream listing a Mode resolves to.
type Kind int

const (
	KindAll Kind = iota
	KindPopular
	KindLatest
	KindGenre
	KindSearch
)

// String returns the canonical name of the kind.
func (k Kind) String() string {
	switch k {
	case KindAll:
		return "all"
	case KindPopular:
		return "popular"
	case KindLatest:
		return "latest"
	case KindGenre:
		return "genre"
	case KindSearch:
		return "search"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// ParseKind maps a user-supplied listing name to a Kind.
// Only the payload-free listings are accepted; genre and search need arguments.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "trending":
		return KindAll, nil
	case "popular":
		return KindPopular, nil
	case "latest", "now_playing", "now-playing":
		return KindLatest, nil
	}
	return 0, fmt.Errorf("unknown listing %q (want all, popular or latest)", s)
}

// Mode is the active browse selection. Exactly one mode is active at a time;
// selecting a new one replaces the whole result set.
type Mode struct {
	Kind      Kind
	GenreName string // KindGenre
	Text      string // KindSearch
	GenreID   *int   // KindSearch, optional narrowing
}

// ModeAll selects the weekly trending list.
func ModeAll() Mode { return Mode{Kind: KindAll} }

// ModePopular selects the popular list.
func ModePopular() Mode { return Mode{Kind: KindPopular} }

// ModeLatest selects the now-playing list.
func ModeLatest() Mode { return Mode{Kind: KindLatest} }

// ModeGenre selects movies of the named genre.
func ModeGenre(name string) Mode { return Mode{Kind: KindGenre, GenreName: name} }

// ModeSearch selects a free-text search, optionally narrowed to a genre id.
func ModeSearch(text string, genreID *int) Mode {
	return Mode{Kind: KindSearch, Text: text, GenreID: genreID}
}

// ModeFromKind builds a payload-free mode.
func ModeFromKind(k Kind) Mode { return Mode{Kind: k} }

// Validate reports preconditions that can be checked without any network call.
func (m Mode) Validate() error {
	if m.Kind == KindSearch && strings.TrimSpace(m.Text) == "" && m.GenreID == nil {
		return ErrEmptyQuery
	}
	return nil
}

// String renders the mode for logs.
func (m Mode) String() string {
	switch m.Kind {
	case KindGenre:
		return "genre:" + m.GenreName
	case KindSearch:
		if m.GenreID != nil {
			return fmt.Sprintf("search:%q genre=%d", m.Text, *m.GenreID)
		}
		return fmt.Sprintf("search:%q", m.Text)
	}
	return m.Kind.String()
}

// Title is the heading shown above a listing.
func (m Mode) Title() string {
	switch m.Kind {
	case KindAll:
		return "Trending this week"
	case KindPopular:
		return "Popular movies"
	case KindLatest:
		return "Now playing"
	case KindGenre:
		return "Genre: " + strings.TrimSpace(m.GenreName)
	case KindSearch:
		if text := strings.TrimSpace(m.Text); text != "" {
			return fmt.Sprintf("Search: %q", text)
		}
		return "Search by genre"
	}
	return m.String()
}

// Equal reports whether two modes select the same listing.
func (m Mode) Equal(o Mode) bool {
	if m.Kind != o.Kind || m.GenreName != o.GenreName || m.Text != o.Text {
		return false
	}
	if (m.GenreID == nil) != (o.GenreID == nil) {
		return false
	}
	return m.GenreID == nil || *m.GenreID == *o.GenreID
}

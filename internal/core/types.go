package core

import (
	"math"
	"strings"
)

// youtubeEmbedBase is where trailer keys are played.
const youtubeEmbedBase = "https://www.youtube.com/embed/"

// MovieSummary is the card-level view of a movie.
type MovieSummary struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	ReleaseYear *string `json:"release_year"` // nil when the release date is unknown
	PosterURL   string  `json:"poster_url"`   // placeholder when the movie has no poster
	BackdropURL string  `json:"backdrop_url,omitempty"`
	Rating      float64 `json:"rating"` // vote average, 0-10
}

// Stars maps the 0-10 rating onto a 0-5 star scale.
func (m MovieSummary) Stars() float64 {
	return m.Rating / 2
}

// MaxStars is the length of a star bar.
const MaxStars = 5

// StarBar renders Stars as filled and empty stars, rounded to the nearest whole star.
func (m MovieSummary) StarBar() string {
	full := int(math.Round(m.Stars()))
	full = max(0, min(full, MaxStars))
	return strings.Repeat("★", full) + strings.Repeat("☆", MaxStars-full)
}

// Year returns the release year or the given fallback.
func (m MovieSummary) Year(fallback string) string {
	if m.ReleaseYear == nil {
		return fallback
	}
	return *m.ReleaseYear
}

// MovieDetail is the full view of a movie shown when a card is opened.
type MovieDetail struct {
	MovieSummary
	Overview       string       `json:"overview"`
	RuntimeMinutes *int         `json:"runtime_minutes"`
	Genres         []Genre      `json:"genres"`
	Director       *Person      `json:"director"`
	Writers        []Person     `json:"writers"`
	TopCast        []CastMember `json:"top_cast"`
	TrailerKey     *string      `json:"trailer_key"`
}

// TrailerURL returns the YouTube embed URL of the trailer, or "" if there is none.
func (d MovieDetail) TrailerURL() string {
	if d.TrailerKey == nil || *d.TrailerKey == "" {
		return ""
	}
	return youtubeEmbedBase + *d.TrailerKey
}

// Genre is a TMDb movie genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Person is a crew member credited on a movie.
type Person struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CastMember is a billed actor.
type CastMember struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Character  string `json:"character"`
	ProfileURL string `json:"profile_url,omitempty"`
}

package tmdb

import (
	"strings"

	"github.com/vadimtrunov/cinescope/internal/core"
)

const (
	imageBaseURL = "https://image.tmdb.org/t/p/"

	// PlaceholderPosterURL is shown for movies without a poster.
	PlaceholderPosterURL = "https://placehold.it/500x750?text=No+Image+Available"

	posterSize   = "w500"
	backdropSize = "w1280"
	profileSize  = "w200"

	topCastSize = 10

	jobDirector = "Director"
	jobWriter   = "Writer"
	typeTrailer = "Trailer"
)

// PosterURL returns the full URL for an image path at the given size.
func PosterURL(posterPath, size string) string {
	if posterPath == "" {
		return ""
	}
	return imageBaseURL + size + posterPath
}

// Normalize shapes a raw list record into the summary shown on a card.
// Absent optional fields map to nil or the placeholder, never to a panic.
func Normalize(m Movie) core.MovieSummary {
	poster := PosterURL(deref(m.PosterPath), posterSize)
	if poster == "" {
		poster = PlaceholderPosterURL
	}
	return core.MovieSummary{
		ID:          m.ID,
		Title:       deref(m.Title),
		ReleaseYear: releaseYear(m.ReleaseDate),
		PosterURL:   poster,
		BackdropURL: PosterURL(deref(m.BackdropPath), backdropSize),
		Rating:      clampRating(m.VoteAverage),
	}
}

// NormalizeAll normalizes a result list, always returning a non-nil slice.
func NormalizeAll(movies []Movie) []core.MovieSummary {
	out := make([]core.MovieSummary, 0, len(movies))
	for _, m := range movies {
		out = append(out, Normalize(m))
	}
	return out
}

// NormalizeGenres converts upstream genres, always returning a non-nil slice.
func NormalizeGenres(genres []Genre) []core.Genre {
	out := make([]core.Genre, 0, len(genres))
	for _, g := range genres {
		out = append(out, core.Genre{ID: g.ID, Name: g.Name})
	}
	return out
}

// NormalizeDetails shapes a detail record, extracting the trailer, director,
// writers and top-billed cast from the appended videos and credits.
func NormalizeDetails(d MovieDetails) core.MovieDetail {
	detail := core.MovieDetail{
		MovieSummary:   Normalize(d.Movie),
		Overview:       deref(d.Overview),
		RuntimeMinutes: d.Runtime,
		Genres:         NormalizeGenres(d.Genres),
		Writers:        []core.Person{},
		TopCast:        []core.CastMember{},
	}

	if d.Videos != nil {
		for _, v := range d.Videos.Results {
			if deref(v.Type) == typeTrailer && deref(v.Key) != "" {
				key := *v.Key
				detail.TrailerKey = &key
				break
			}
		}
	}

	if d.Credits == nil {
		return detail
	}

	seenWriters := make(map[int]bool)
	for _, c := range d.Credits.Crew {
		switch deref(c.Job) {
		case jobDirector:
			if detail.Director == nil {
				detail.Director = &core.Person{ID: c.ID, Name: deref(c.Name)}
			}
		case jobWriter:
			if seenWriters[c.ID] {
				continue
			}
			seenWriters[c.ID] = true
			detail.Writers = append(detail.Writers, core.Person{ID: c.ID, Name: deref(c.Name)})
		}
	}

	cast := d.Credits.Cast
	if len(cast) > topCastSize {
		cast = cast[:topCastSize]
	}
	for _, c := range cast {
		detail.TopCast = append(detail.TopCast, core.CastMember{
			ID:         c.ID,
			Name:       deref(c.Name),
			Character:  deref(c.Character),
			ProfileURL: PosterURL(deref(c.ProfilePath), profileSize),
		})
	}
	return detail
}

// releaseYear takes the segment before the first '-' of a release date.
func releaseYear(date *string) *string {
	if date == nil {
		return nil
	}
	year, _, _ := strings.Cut(strings.TrimSpace(*date), "-")
	if year == "" {
		return nil
	}
	return &year
}

func clampRating(v *float64) float64 {
	if v == nil {
		return 0
	}
	switch {
	case *v < 0:
		return 0
	case *v > 10:
		return 10
	}
	return *v
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vadimtrunov/cinescope/internal/core"
)

const yearBlank = "n/a"

// renderRating renders the star bar and the numeric rating.
func renderRating(m core.MovieSummary) string {
	return styleStar.Render(m.StarBar()) + " " + styleDim.Render(fmt.Sprintf("%.1f", m.Rating))
}

func formatRuntime(minutes *int) string {
	if minutes == nil || *minutes <= 0 {
		return ""
	}
	return fmt.Sprintf("%dh %02dm", *minutes/60, *minutes%60)
}

// renderMovieList prints a numbered listing, one movie per line.
func renderMovieList(mode core.Mode, movies []core.MovieSummary) string {
	var sb strings.Builder
	sb.WriteString(styleHeader.Render(mode.Title()))
	sb.WriteString("\n")
	if len(movies) == 0 {
		sb.WriteString(styleDim.Render(core.NoResultsMessage))
		return sb.String()
	}
	label := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	for i, m := range movies {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s %s %s  %s  %s",
			label.Render(fmt.Sprintf("%2d.", i+1)),
			styleTitle.Render(m.Title),
			styleDim.Render("("+m.Year(yearBlank)+")"),
			renderRating(m),
			styleDim.Render(fmt.Sprintf("#%d", m.ID)),
		)
	}
	return sb.String()
}

// renderGenres prints the genre directory as "id  name" lines.
func renderGenres(genres []core.Genre) string {
	var sb strings.Builder
	sb.WriteString(styleHeader.Render("Genres"))
	sb.WriteString("\n")
	if len(genres) == 0 {
		sb.WriteString(styleDim.Render("No genres available."))
		return sb.String()
	}
	for i, g := range genres {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s  %s", styleDim.Render(fmt.Sprintf("%6d", g.ID)), g.Name)
	}
	return sb.String()
}

// renderDetail lays out a movie detail. Width wraps the overview; 0 disables wrapping.
func renderDetail(d *core.MovieDetail, width int) string {
	var sb strings.Builder

	sb.WriteString(styleHeader.Render(fmt.Sprintf("%s (%s)", d.Title, d.Year(yearBlank))))
	sb.WriteString("\n")

	meta := renderRating(d.MovieSummary) + styleDim.Render("/10")
	if rt := formatRuntime(d.RuntimeMinutes); rt != "" {
		meta += styleDim.Render(" · " + rt)
	}
	sb.WriteString(meta + "\n")

	if len(d.Genres) > 0 {
		names := make([]string, len(d.Genres))
		for i, g := range d.Genres {
			names[i] = g.Name
		}
		sb.WriteString(styleInfo.Render(strings.Join(names, ", ")) + "\n")
	}

	if d.Overview != "" {
		overview := lipgloss.NewStyle()
		if width > 0 {
			overview = overview.Width(width)
		}
		sb.WriteString("\n" + overview.Render(d.Overview) + "\n")
	}

	label := lipgloss.NewStyle().Bold(true)
	if d.Director != nil || len(d.Writers) > 0 || len(d.TopCast) > 0 {
		sb.WriteString("\n")
	}
	if d.Director != nil {
		sb.WriteString(label.Render("Director: ") + d.Director.Name + "\n")
	}
	if len(d.Writers) > 0 {
		names := make([]string, len(d.Writers))
		for i, w := range d.Writers {
			names[i] = w.Name
		}
		sb.WriteString(label.Render("Writers: ") + strings.Join(names, ", ") + "\n")
	}
	if len(d.TopCast) > 0 {
		sb.WriteString(label.Render("Cast:") + "\n")
		for _, c := range d.TopCast {
			line := "  " + c.Name
			if c.Character != "" {
				line += styleDim.Render(" as " + c.Character)
			}
			sb.WriteString(line + "\n")
		}
	}

	if trailer := d.TrailerURL(); trailer != "" {
		sb.WriteString("\n" + label.Render("Trailer: ") + styleInfo.Render(trailer) + "\n")
	}
	sb.WriteString(styleDim.Render("Poster: "+d.PosterURL) + "\n")
	return sb.String()
}

package telegram

import (
	"fmt"
	"strings"

	"github.com/vadimtrunov/cinescope/internal/core"
)

// maxListed caps how many movies one result message shows.
const maxListed = 10

// mdV2Replacer escapes special characters for Telegram MarkdownV2.
var mdV2Replacer = strings.NewReplacer(
	`\`, `\\`,
	"_", "\\_",
	"*", "\\*",
	"[", "\\[",
	"]", "\\]",
	"(", "\\(",
	")", "\\)",
	"~", "\\~",
	"`", "\\`",
	">", "\\>",
	"#", "\\#",
	"+", "\\+",
	"-", "\\-",
	"=", "\\=",
	"|", "\\|",
	"{", "\\{",
	"}", "\\}",
	".", "\\.",
	"!", "\\!",
)

// linkURLReplacer escapes the characters MarkdownV2 reserves inside (...) of a link.
var linkURLReplacer = strings.NewReplacer(`\`, `\\`, ")", "\\)")

// EscapeMdV2 escapes a string for safe use in Telegram MarkdownV2.
func EscapeMdV2(s string) string {
	return mdV2Replacer.Replace(s)
}

// FormatBold returns MarkdownV2 bold text.
func FormatBold(s string) string {
	return "*" + EscapeMdV2(s) + "*"
}

// FormatItalic returns MarkdownV2 italic text.
func FormatItalic(s string) string {
	return "_" + EscapeMdV2(s) + "_"
}

// FormatLink returns a MarkdownV2 inline link.
func FormatLink(label, url string) string {
	return "[" + EscapeMdV2(label) + "](" + linkURLReplacer.Replace(url) + ")"
}

// movieLine renders one list entry as plain text.
func movieLine(m core.MovieSummary) string {
	return fmt.Sprintf("%s (%s) %s %.1f", m.Title, m.Year("n/a"), m.StarBar(), m.Rating)
}

// FormatMovieList renders a result set as MarkdownV2.
func FormatMovieList(mode core.Mode, movies []core.MovieSummary) string {
	if len(movies) == 0 {
		return EscapeMdV2(core.NoResultsMessage)
	}

	var sb strings.Builder
	sb.WriteString(FormatBold(mode.Title()))
	sb.WriteString("\n\n")
	for i, m := range movies[:min(len(movies), maxListed)] {
		sb.WriteString(EscapeMdV2(fmt.Sprintf("%d. %s", i+1, movieLine(m))))
		sb.WriteString("\n")
	}
	if len(movies) > maxListed {
		sb.WriteString(FormatItalic(fmt.Sprintf("and %d more", len(movies)-maxListed)))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatDetail renders a movie detail as MarkdownV2.
func FormatDetail(d *core.MovieDetail) string {
	var sb strings.Builder

	sb.WriteString(FormatBold(fmt.Sprintf("%s (%s)", d.Title, d.Year("n/a"))))
	sb.WriteString("\n")
	sb.WriteString(EscapeMdV2(fmt.Sprintf("%s %.1f/10", d.StarBar(), d.Rating)))
	if d.RuntimeMinutes != nil && *d.RuntimeMinutes > 0 {
		sb.WriteString(EscapeMdV2(fmt.Sprintf(" · %dh %02dm", *d.RuntimeMinutes/60, *d.RuntimeMinutes%60)))
	}
	sb.WriteString("\n")

	if len(d.Genres) > 0 {
		names := make([]string, 0, len(d.Genres))
		for _, g := range d.Genres {
			names = append(names, g.Name)
		}
		sb.WriteString(FormatItalic(strings.Join(names, ", ")))
		sb.WriteString("\n")
	}

	if d.Overview != "" {
		sb.WriteString("\n")
		sb.WriteString(EscapeMdV2(d.Overview))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	if d.Director != nil {
		sb.WriteString(FormatBold("Director: ") + EscapeMdV2(d.Director.Name) + "\n")
	}
	if len(d.Writers) > 0 {
		names := make([]string, 0, len(d.Writers))
		for _, w := range d.Writers {
			names = append(names, w.Name)
		}
		sb.WriteString(FormatBold("Writers: ") + EscapeMdV2(strings.Join(names, ", ")) + "\n")
	}
	if len(d.TopCast) > 0 {
		cast := make([]string, 0, len(d.TopCast))
		for _, c := range d.TopCast {
			if c.Character != "" {
				cast = append(cast, fmt.Sprintf("%s as %s", c.Name, c.Character))
			} else {
				cast = append(cast, c.Name)
			}
		}
		sb.WriteString(FormatBold("Cast: ") + EscapeMdV2(strings.Join(cast, ", ")) + "\n")
	}

	if url := d.TrailerURL(); url != "" {
		sb.WriteString("\n")
		sb.WriteString(FormatLink("▶ Watch trailer", url))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// truncateLabel shortens a button label to n runes.
func truncateLabel(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

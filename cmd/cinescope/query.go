package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/vadimtrunov/cinescope/internal/core"
)

// queryFunc fetches a result from the catalog. render turns it into terminal output.
type queryFunc func(ctx context.Context, cat core.Catalog) (result any, render func() string, err error)

func newListCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:       "list [all|trending|popular|latest]",
		Short:     "List trending, popular or now-playing movies",
		Example:   "  cinescope list popular\n  cinescope list latest --json",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"all", "trending", "popular", "latest"},
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			kind, err := core.ParseKind(name)
			if err != nil {
				return err
			}
			return runQuery(cmd.OutOrStdout(), asJSON, "Loading movies...", listQuery(core.ModeFromKind(kind)))
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	return cmd
}

func newGenreCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "genre <name>",
		Short:   "List movies of a genre",
		Example: `  cinescope genre "science fiction"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := core.ModeGenre(strings.Join(args, " "))
			return runQuery(cmd.OutOrStdout(), asJSON, "Loading movies...", listQuery(mode))
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	return cmd
}

func newSearchCmd() *cobra.Command {
	var (
		asJSON  bool
		genreID int
	)
	cmd := &cobra.Command{
		Use:   "search <title>",
		Short: "Search movies by title",
		Example: `  cinescope search "the matrix"
  cinescope search dune --genre-id 878`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var gid *int
			if cmd.Flags().Changed("genre-id") {
				gid = &genreID
			}
			mode := core.ModeSearch(strings.Join(args, " "), gid)
			return runQuery(cmd.OutOrStdout(), asJSON, "Searching...", listQuery(mode))
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	cmd.Flags().IntVar(&genreID, "genre-id", 0, "narrow results to a TMDb genre id")
	return cmd
}

func newMovieCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "movie <tmdb-id>",
		Short:   "Show a movie's details",
		Example: "  cinescope movie 550",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid movie id %q", args[0])
			}
			return runQuery(cmd.OutOrStdout(), asJSON, "Loading movie...", detailQuery(id))
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the movie as JSON")
	return cmd
}

func newGenresCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "genres",
		Short: "List the genres TMDb knows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runQuery(cmd.OutOrStdout(), asJSON, "Loading genres...", genresQuery())
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print genres as JSON")
	return cmd
}

func listQuery(mode core.Mode) queryFunc {
	return func(ctx context.Context, cat core.Catalog) (any, func() string, error) {
		movies, err := cat.Resolve(ctx, mode)
		if err != nil {
			return nil, nil, err
		}
		return movies, func() string { return renderMovieList(mode, movies) }, nil
	}
}

func detailQuery(id int) queryFunc {
	return func(ctx context.Context, cat core.Catalog) (any, func() string, error) {
		d, err := cat.MovieDetails(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		return d, func() string { return renderDetail(d, 80) }, nil
	}
}

func genresQuery() queryFunc {
	return func(ctx context.Context, cat core.Catalog) (any, func() string, error) {
		genres, err := cat.Genres(ctx)
		if err != nil {
			return nil, nil, err
		}
		return genres, func() string { return renderGenres(genres) }, nil
	}
}

// runQuery resolves q once. JSON output skips the spinner so it stays pipeable.
func runQuery(out io.Writer, asJSON bool, label string, q queryFunc) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger, closeLog, err := setupLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	cat := newCatalog(cfg, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if asJSON {
		result, _, err := q(ctx, cat)
		if err != nil {
			return userError(err)
		}
		return writeJSON(out, result)
	}

	p := tea.NewProgram(newQueryModel(ctx, cat, label, q), tea.WithOutput(out))
	m, err := p.Run()
	if err != nil {
		return fmt.Errorf("run query: %w", err)
	}

	qm, ok := m.(queryModel)
	if !ok {
		return errors.New("unexpected model type from tea program")
	}
	if qm.err != nil {
		return userError(qm.err)
	}
	if qm.render != nil {
		fmt.Fprintln(out, qm.render())
	}
	return nil
}

// userError replaces catalog errors with their user-facing message.
func userError(err error) error {
	if errors.Is(err, context.Canceled) {
		return errors.New("interrupted")
	}
	return errors.New(core.UserMessage(err))
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}

// queryResultMsg carries the catalog response back to the TUI.
type queryResultMsg struct {
	render func() string
	err    error
}

// queryModel shows a spinner while a single catalog call runs.
type queryModel struct {
	ctx     context.Context
	catalog core.Catalog
	query   queryFunc
	label   string
	spinner spinner.Model
	render  func() string
	err     error
	done    bool
}

func newQueryModel(ctx context.Context, cat core.Catalog, label string, q queryFunc) queryModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styleInfo
	return queryModel{
		ctx:     ctx,
		catalog: cat,
		query:   q,
		label:   label,
		spinner: s,
	}
}

func (m queryModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.run())
}

func (m queryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.err = context.Canceled
			m.done = true
			return m, tea.Quit
		}
	case queryResultMsg:
		m.render = msg.render
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View clears once done; the result is printed after the program exits.
func (m queryModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + styleDim.Render(" "+m.label) + "\n"
}

func (m queryModel) run() tea.Cmd {
	return func() tea.Msg {
		_, render, err := m.query(m.ctx, m.catalog)
		return queryResultMsg{render: render, err: err}
	}
}

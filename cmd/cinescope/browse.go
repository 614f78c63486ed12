package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/vadimtrunov/cinescope/internal/catalog"
	"github.com/vadimtrunov/cinescope/internal/config"
	"github.com/vadimtrunov/cinescope/internal/core"
)

// newBrowseCmd returns the "browse" subcommand for the interactive browser.
func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse movies interactively",
		Long: "Open the full-screen movie browser.\n" +
			"1/2/3 switch listings, g/G cycle genres, / searches, enter opens a movie, q quits.",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runBrowse()
		},
	}
}

// runBrowse starts the Bubble Tea browser. Logs go to the log file or nowhere.
func runBrowse() error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger, closeLog, err := setupLogger(cfg, io.Discard)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	m := newBrowseModel(ctx, newCatalog(cfg, logger), browseOptions{
		Debounce:         cfg.UI.SearchDebounce,
		BackdropInterval: cfg.UI.BackdropInterval,
		Logger:           logger,
	})
	p := tea.NewProgram(m, tea.WithAltScreen())

	// Bridge OS signal cancellation into the Bubble Tea event loop.
	go func() {
		<-ctx.Done()
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run browser: %w", err)
	}
	return nil
}

// browseOptions holds the browser's timings.
type browseOptions struct {
	Debounce         time.Duration
	BackdropInterval time.Duration
	Logger           *slog.Logger
}

// Messages delivered back to the browser.
type (
	moviesMsg struct {
		seq    uint64
		movies []core.MovieSummary
		err    error
	}
	detailMsg struct {
		seq    uint64
		detail *core.MovieDetail
		err    error
	}
	genresMsg struct {
		genres []core.Genre
		err    error
	}
	debounceMsg struct {
		seq uint64
	}
	featuredTickMsg struct{}
)

// browseModel is the Bubble Tea model of the movie browser.
// Listing state changes only through catalog.Reduce.
type browseModel struct {
	ctx     context.Context
	catalog core.Catalog
	opts    browseOptions

	state   catalog.State
	cancel  context.CancelFunc // in-flight listing request
	initCmd tea.Cmd

	genres      []core.Genre
	genreIdx    int // -1 when no genre is selected
	genreStep   int // cycle direction waiting for the genre list
	genresErr   error
	genresFetch bool

	search    textinput.Model
	searching bool
	keySeq    uint64 // bumped on every search edit

	detailOpen    bool
	detailLoading bool
	detail        *core.MovieDetail
	detailErr     error
	detailSeq     uint64
	detailCancel  context.CancelFunc

	table    table.Model
	viewport viewport.Model
	spinner  spinner.Model
	featured int

	width  int
	height int
	ready  bool
}

const browseChrome = 9 // lines outside the table: header, banner, search, status, help, table borders

func newBrowseModel(ctx context.Context, cat core.Catalog, opts browseOptions) browseModel {
	if opts.Debounce <= 0 {
		opts.Debounce = config.DefaultSearchDebounce
	}
	if opts.BackdropInterval <= 0 {
		opts.BackdropInterval = config.DefaultBackdropInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ti := textinput.New()
	ti.Placeholder = "Search movies..."
	ti.Prompt = "/ "
	ti.CharLimit = 200

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styleInfo

	t := table.New(
		table.WithColumns(tableColumns(80)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("8")).
		BorderBottom(true).
		Bold(true)
	ts.Selected = ts.Selected.
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("5")).
		Bold(false)
	t.SetStyles(ts)

	m := browseModel{
		ctx:         ctx,
		catalog:     cat,
		opts:        opts,
		genreIdx:    -1,
		genresFetch: true, // Init loads the genre list
		search:      ti,
		spinner:     s,
		table:       t,
	}
	m.initCmd = m.selectMode(core.ModeAll())
	return m
}

// tableColumns sizes the listing columns for a terminal width.
func tableColumns(width int) []table.Column {
	const fixed = 4 + 6 + 16 + 8 // #, year, rating, cell padding
	title := max(width-fixed, 12)
	return []table.Column{
		{Title: "#", Width: 4},
		{Title: "Title", Width: title},
		{Title: "Year", Width: 6},
		{Title: "Rating", Width: 16},
	}
}

// Init fetches the trending listing and the genre list, and starts the banner rotation.
func (m browseModel) Init() tea.Cmd {
	return tea.Batch(m.initCmd, m.loadGenres(), m.featuredTick())
}

// Update handles incoming messages and user input.
func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleResize(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case moviesMsg:
		m.handleMovies(msg)
		return m, nil

	case detailMsg:
		m.handleDetail(msg)
		return m, nil

	case genresMsg:
		return m.handleGenres(msg)

	case debounceMsg:
		if msg.seq != m.keySeq {
			return m, nil
		}
		text := strings.TrimSpace(m.search.Value())
		if text == "" {
			return m, nil
		}
		cmd := m.selectMode(core.ModeSearch(text, nil))
		return m, cmd

	case featuredTickMsg:
		if n := len(m.state.Movies); n > 0 {
			m.featured = (m.featured + 1) % n
		}
		return m, m.featuredTick()

	case spinner.TickMsg:
		if m.state.Loading() || m.detailLoading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if m.searching {
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleResize adjusts the table, viewport and search input on terminal resize.
func (m *browseModel) handleResize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height

	m.table.SetColumns(tableColumns(m.width))
	m.table.SetWidth(m.width)
	m.table.SetHeight(max(m.height-browseChrome, 3))
	m.search.Width = max(m.width-4, 10)

	vpHeight := max(m.height-2, 1)
	if !m.ready {
		m.viewport = viewport.New(m.width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = m.width
		m.viewport.Height = vpHeight
	}
	m.refreshDetail()
}

// handleKey dispatches key events by focus: detail view, search input, or listing.
func (m browseModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.cancelAll()
		return m, tea.Quit
	}
	switch {
	case m.detailOpen:
		return m.handleDetailKey(msg)
	case m.searching:
		return m.handleSearchKey(msg)
	}
	return m.handleListKey(msg)
}

func (m browseModel) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.cancelAll()
		return m, tea.Quit
	case "1":
		cmd := m.selectMode(core.ModeAll())
		return m, cmd
	case "2":
		cmd := m.selectMode(core.ModePopular())
		return m, cmd
	case "3":
		cmd := m.selectMode(core.ModeLatest())
		return m, cmd
	case "g":
		return m.cycleGenre(1)
	case "G":
		return m.cycleGenre(-1)
	case "r":
		cmd := m.selectMode(m.state.Pending)
		return m, cmd
	case "/":
		m.searching = true
		cmd := m.search.Focus()
		return m, cmd
	case "enter":
		cmd := m.openDetail()
		return m, cmd
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m browseModel) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.keySeq++ // drop the pending debounce
		m.search.Blur()
		return m, nil
	case "enter":
		m.keySeq++
		m.searching = false
		m.search.Blur()
		cmd := m.selectMode(core.ModeSearch(strings.TrimSpace(m.search.Value()), nil))
		return m, cmd
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() == before {
		return m, cmd
	}
	m.keySeq++
	seq := m.keySeq
	debounce := tea.Tick(m.opts.Debounce, func(time.Time) tea.Msg {
		return debounceMsg{seq: seq}
	})
	return m, tea.Batch(cmd, debounce)
}

func (m browseModel) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace":
		m.closeDetail()
		return m, nil
	case "q":
		m.cancelAll()
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// selectMode feeds a selection through the reducer and issues its request.
// The previous in-flight listing request is canceled.
func (m *browseModel) selectMode(mode core.Mode) tea.Cmd {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if mode.Kind != core.KindGenre {
		m.genreIdx = -1
	}

	next, req := catalog.Reduce(m.state, catalog.Selected{Mode: mode})
	m.state = next
	if req == nil {
		return nil
	}

	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	cat := m.catalog
	r := *req
	fetch := func() tea.Msg {
		movies, err := cat.Resolve(ctx, r.Mode)
		return moviesMsg{seq: r.Seq, movies: movies, err: err}
	}
	return tea.Batch(fetch, m.spinner.Tick)
}

// handleMovies applies a listing completion. Superseded completions are ignored by the reducer.
func (m *browseModel) handleMovies(msg moviesMsg) {
	current := msg.seq == m.state.Seq()
	next, _ := catalog.Reduce(m.state, catalog.Completed{Seq: msg.seq, Movies: msg.movies, Err: msg.err})
	m.state = next
	if !current {
		return
	}
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if msg.err != nil {
		m.opts.Logger.Warn("listing failed",
			slog.String("mode", m.state.Pending.String()),
			slog.String("error", msg.err.Error()),
		)
		return
	}
	m.featured = 0
	m.table.SetRows(movieRows(m.state.Movies))
	m.table.SetCursor(0)
}

func movieRows(movies []core.MovieSummary) []table.Row {
	rows := make([]table.Row, len(movies))
	for i, mv := range movies {
		rows[i] = table.Row{
			strconv.Itoa(i + 1),
			mv.Title,
			mv.Year(yearBlank),
			fmt.Sprintf("%s %.1f", mv.StarBar(), mv.Rating),
		}
	}
	return rows
}

// cycleGenre moves the genre selection by step, loading the genre list first if needed.
func (m browseModel) cycleGenre(step int) (tea.Model, tea.Cmd) {
	if len(m.genres) == 0 {
		m.genreStep = step
		if m.genresFetch {
			return m, nil
		}
		m.genresFetch = true
		return m, m.loadGenres()
	}
	n := len(m.genres)
	switch {
	case m.genreIdx < 0 && step > 0:
		m.genreIdx = 0
	case m.genreIdx < 0:
		m.genreIdx = n - 1
	default:
		m.genreIdx = ((m.genreIdx+step)%n + n) % n
	}
	cmd := m.selectMode(core.ModeGenre(m.genres[m.genreIdx].Name))
	return m, cmd
}

func (m browseModel) loadGenres() tea.Cmd {
	cat := m.catalog
	ctx := m.ctx
	return func() tea.Msg {
		genres, err := cat.Genres(ctx)
		return genresMsg{genres: genres, err: err}
	}
}

func (m browseModel) handleGenres(msg genresMsg) (tea.Model, tea.Cmd) {
	m.genresFetch = false
	m.genresErr = msg.err
	if msg.err != nil {
		m.opts.Logger.Warn("genre list failed", slog.String("error", msg.err.Error()))
		m.genreStep = 0
		return m, nil
	}
	m.genres = msg.genres
	if step := m.genreStep; step != 0 && len(m.genres) > 0 {
		m.genreStep = 0
		return m.cycleGenre(step)
	}
	return m, nil
}

// openDetail requests the selected movie's detail. Each request carries its own
// sequence number so a late response for another movie is dropped.
func (m *browseModel) openDetail() tea.Cmd {
	row := m.table.Cursor()
	if row < 0 || row >= len(m.state.Movies) {
		return nil
	}
	id := m.state.Movies[row].ID

	if m.detailCancel != nil {
		m.detailCancel()
	}
	m.detailSeq++
	seq := m.detailSeq
	ctx, cancel := context.WithCancel(m.ctx)
	m.detailCancel = cancel

	m.detailOpen = true
	m.detailLoading = true
	m.detail = nil
	m.detailErr = nil
	m.refreshDetail()

	cat := m.catalog
	fetch := func() tea.Msg {
		d, err := cat.MovieDetails(ctx, id)
		return detailMsg{seq: seq, detail: d, err: err}
	}
	return tea.Batch(fetch, m.spinner.Tick)
}

func (m *browseModel) handleDetail(msg detailMsg) {
	if msg.seq != m.detailSeq || !m.detailOpen {
		return
	}
	m.detailLoading = false
	m.detail = msg.detail
	m.detailErr = msg.err
	if msg.err != nil {
		m.opts.Logger.Warn("movie detail failed", slog.String("error", msg.err.Error()))
	}
	m.refreshDetail()
	m.viewport.GotoTop()
}

func (m *browseModel) closeDetail() {
	if m.detailCancel != nil {
		m.detailCancel()
		m.detailCancel = nil
	}
	m.detailSeq++
	m.detailOpen = false
	m.detailLoading = false
	m.detail = nil
	m.detailErr = nil
}

func (m *browseModel) refreshDetail() {
	if !m.ready {
		return
	}
	switch {
	case m.detail != nil:
		m.viewport.SetContent(renderDetail(m.detail, max(m.width-2, 20)))
	case m.detailErr != nil:
		m.viewport.SetContent(styleError.Render(core.UserMessage(m.detailErr)))
	default:
		m.viewport.SetContent("")
	}
}

func (m *browseModel) cancelAll() {
	if m.cancel != nil {
		m.cancel()
	}
	if m.detailCancel != nil {
		m.detailCancel()
	}
}

func (m browseModel) featuredTick() tea.Cmd {
	return tea.Tick(m.opts.BackdropInterval, func(time.Time) tea.Msg {
		return featuredTickMsg{}
	})
}

// View renders either the detail view or the listing.
func (m browseModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.detailOpen {
		return m.viewDetail()
	}

	var sb strings.Builder
	sb.WriteString(m.viewTabs() + "\n")
	sb.WriteString(m.viewBanner() + "\n")
	sb.WriteString(m.search.View() + "\n")
	sb.WriteString(m.viewStatus() + "\n")

	if m.state.Movies != nil && len(m.state.Movies) == 0 {
		sb.WriteString(styleDim.Render(core.NoResultsMessage) + "\n")
	} else {
		sb.WriteString(m.table.View() + "\n")
	}
	sb.WriteString(styleDim.Render(m.helpLine()))
	return sb.String()
}

func (m browseModel) viewTabs() string {
	active := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("5")).Padding(0, 1)
	inactive := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Padding(0, 1)

	tabs := []struct {
		label string
		kind  core.Kind
	}{
		{"1 Trending", core.KindAll},
		{"2 Popular", core.KindPopular},
		{"3 Latest", core.KindLatest},
		{"g Genre", core.KindGenre},
	}
	parts := []string{styleHeader.UnsetMarginBottom().Render("cinescope")}
	for _, t := range tabs {
		label := t.label
		if t.kind == core.KindGenre && m.state.Pending.Kind == core.KindGenre {
			label = "g " + m.state.Pending.GenreName
		}
		if m.state.Pending.Kind == t.kind {
			parts = append(parts, active.Render(label))
		} else {
			parts = append(parts, inactive.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// viewBanner shows the featured movie of the current results.
func (m browseModel) viewBanner() string {
	if len(m.state.Movies) == 0 {
		return styleDim.Render("★ Featured: -")
	}
	f := m.state.Movies[m.featured%len(m.state.Movies)]
	return styleStar.Render("★ Featured: ") +
		styleTitle.Render(f.Title) + " " +
		styleDim.Render("("+f.Year(yearBlank)+")") + "  " +
		renderRating(f)
}

func (m browseModel) viewStatus() string {
	switch {
	case m.state.Loading():
		return m.spinner.View() + styleDim.Render(" Loading "+m.state.Pending.Title()+"...")
	case m.state.Status == catalog.StatusFailed:
		return styleError.Render(core.UserMessage(m.state.Err))
	case m.genresErr != nil && m.genreStep == 0 && m.state.Pending.Kind == core.KindGenre:
		return styleError.Render(core.UserMessage(m.genresErr))
	case m.state.Status == catalog.StatusReady:
		return styleDim.Render(fmt.Sprintf("%s · %d movies", m.state.Shown.Title(), len(m.state.Movies)))
	}
	return ""
}

func (m browseModel) viewDetail() string {
	header := styleDim.Render("esc back · ↑/↓ scroll · q quit")
	if m.detailLoading {
		return header + "\n" + m.spinner.View() + styleDim.Render(" Loading movie...")
	}
	return header + "\n" + m.viewport.View()
}

func (m browseModel) helpLine() string {
	if m.searching {
		return "enter search · esc done"
	}
	return "1/2/3 listings · g/G genres · / search · enter details · r retry · q quit"
}

package telegram

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vadimtrunov/cinescope/internal/core"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeAPI records everything the bot sends.
type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	sendErr  func(tgbotapi.Chattable) error
	updates  chan tgbotapi.Update
	stopped  bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{updates: make(chan tgbotapi.Update, 8)}
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		if err := f.sendErr(c); err != nil {
			return tgbotapi.Message{}, err
		}
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeAPI) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.MessageConfig
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeAPI) photos() []tgbotapi.PhotoConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.PhotoConfig
	for _, c := range f.sent {
		if p, ok := c.(tgbotapi.PhotoConfig); ok {
			out = append(out, p)
		}
	}
	return out
}

func (f *fakeAPI) lastMessage(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	msgs := f.messages()
	if len(msgs) == 0 {
		t.Fatal("no messages sent")
	}
	return msgs[len(msgs)-1]
}

// stubCatalog implements core.Catalog for testing.
type stubCatalog struct {
	mu    sync.Mutex
	modes []core.Mode

	movies     []core.MovieSummary
	resolveErr error
	detail     *core.MovieDetail
	detailErr  error
	genres     []core.Genre
}

func (c *stubCatalog) Resolve(_ context.Context, mode core.Mode) ([]core.MovieSummary, error) {
	c.mu.Lock()
	c.modes = append(c.modes, mode)
	c.mu.Unlock()
	if err := mode.Validate(); err != nil {
		return nil, err
	}
	return c.movies, c.resolveErr
}

func (c *stubCatalog) MovieDetails(context.Context, int) (*core.MovieDetail, error) {
	return c.detail, c.detailErr
}

func (c *stubCatalog) Genres(context.Context) ([]core.Genre, error) {
	return c.genres, nil
}

func (c *stubCatalog) lastMode(t *testing.T) core.Mode {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.modes) == 0 {
		t.Fatal("Resolve was not called")
	}
	return c.modes[len(c.modes)-1]
}

func textMessage(userID int64, text string) *tgbotapi.Message {
	msg := &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID},
		Chat: &tgbotapi.Chat{ID: userID},
		Text: text,
	}
	if strings.HasPrefix(text, "/") {
		cmdLen := len(text)
		if i := strings.IndexByte(text, ' '); i > 0 {
			cmdLen = i
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}}
	}
	return msg
}

func TestHandleMessage_Commands(t *testing.T) {
	tests := []struct {
		text string
		want core.Mode
	}{
		{"/trending", core.ModeAll()},
		{"/popular", core.ModePopular()},
		{"/latest", core.ModeLatest()},
		{"/genre Science Fiction", core.ModeGenre("Science Fiction")},
		{"/search the matrix", core.ModeSearch("the matrix", nil)},
		{"blade runner", core.ModeSearch("blade runner", nil)},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			api := newFakeAPI()
			cat := &stubCatalog{movies: []core.MovieSummary{{ID: 603, Title: "The Matrix", Rating: 8.2}}}
			b := newBot(api, nil, cat, discardLogger)

			b.handleMessage(context.Background(), textMessage(1, tt.text))

			if got := cat.lastMode(t); !got.Equal(tt.want) {
				t.Errorf("mode = %v, want %v", got, tt.want)
			}
			msg := api.lastMessage(t)
			if msg.ParseMode != tgbotapi.ModeMarkdownV2 {
				t.Errorf("ParseMode = %q", msg.ParseMode)
			}
			if !strings.Contains(msg.Text, "The Matrix") {
				t.Errorf("text = %q", msg.Text)
			}
			kb, ok := msg.ReplyMarkup.(*tgbotapi.InlineKeyboardMarkup)
			if !ok || len(kb.InlineKeyboard) != 1 {
				t.Fatalf("expected one-row movie keyboard, got %#v", msg.ReplyMarkup)
			}
			if data := kb.InlineKeyboard[0][0].CallbackData; data == nil || *data != "movie:603" {
				t.Errorf("callback data = %v", data)
			}
		})
	}
}

func TestHandleMessage_EmptySearch(t *testing.T) {
	api := newFakeAPI()
	b := newBot(api, nil, &stubCatalog{}, discardLogger)

	b.handleMessage(context.Background(), textMessage(1, "/search"))

	if got := api.lastMessage(t).Text; got != "Enter a movie title or pick a genre." {
		t.Errorf("text = %q", got)
	}
}

func TestHandleMessage_FetchError(t *testing.T) {
	api := newFakeAPI()
	cat := &stubCatalog{resolveErr: &core.FetchError{Op: "popular movies", Status: 503}}
	b := newBot(api, nil, cat, discardLogger)

	b.handleMessage(context.Background(), textMessage(1, "/popular"))

	if got := api.lastMessage(t).Text; got != "Failed to fetch movies. Please try again later." {
		t.Errorf("text = %q", got)
	}
}

func TestHandleMessage_NoResults(t *testing.T) {
	api := newFakeAPI()
	b := newBot(api, nil, &stubCatalog{movies: []core.MovieSummary{}}, discardLogger)

	b.handleMessage(context.Background(), textMessage(1, "zzzzzz"))

	msg := api.lastMessage(t)
	if msg.Text != EscapeMdV2(core.NoResultsMessage) {
		t.Errorf("text = %q", msg.Text)
	}
	if msg.ReplyMarkup != nil {
		t.Errorf("expected no keyboard, got %#v", msg.ReplyMarkup)
	}
}

func TestHandleMessage_Unauthorized(t *testing.T) {
	api := newFakeAPI()
	cat := &stubCatalog{}
	b := newBot(api, []int64{42}, cat, discardLogger)

	b.handleMessage(context.Background(), textMessage(7, "/popular"))

	if got := api.lastMessage(t).Text; got != unauthorizedMsg {
		t.Errorf("text = %q", got)
	}
	if len(cat.modes) != 0 {
		t.Error("catalog must not be called for unauthorized users")
	}
}

func TestHandleMessage_Start(t *testing.T) {
	api := newFakeAPI()
	b := newBot(api, nil, &stubCatalog{}, discardLogger)

	b.handleMessage(context.Background(), textMessage(1, "/start"))

	if got := api.lastMessage(t).Text; !strings.HasPrefix(got, "Welcome to cinescope") {
		t.Errorf("text = %q", got)
	}
}

func TestHandleMessage_MovieDetail(t *testing.T) {
	api := newFakeAPI()
	cat := &stubCatalog{detail: &core.MovieDetail{
		MovieSummary: core.MovieSummary{ID: 550, Title: "Fight Club", PosterURL: "https://image.tmdb.org/t/p/w500/p.jpg"},
		Director:     &core.Person{Name: "David Fincher"},
	}}
	b := newBot(api, nil, cat, discardLogger)

	b.handleMessage(context.Background(), textMessage(1, "/movie 550"))

	photos := api.photos()
	if len(photos) != 1 {
		t.Fatalf("expected 1 poster, got %d", len(photos))
	}
	if photos[0].Caption != "Fight Club" {
		t.Errorf("caption = %q", photos[0].Caption)
	}
	if got := api.lastMessage(t).Text; !strings.Contains(got, "David Fincher") {
		t.Errorf("detail text = %q", got)
	}
}

func TestHandleMessage_MovieUsage(t *testing.T) {
	api := newFakeAPI()
	b := newBot(api, nil, &stubCatalog{}, discardLogger)

	b.handleMessage(context.Background(), textMessage(1, "/movie abc"))

	if got := api.lastMessage(t).Text; !strings.HasPrefix(got, "Usage: /movie") {
		t.Errorf("text = %q", got)
	}
}

func TestHandleMessage_Genres(t *testing.T) {
	api := newFakeAPI()
	cat := &stubCatalog{genres: []core.Genre{
		{ID: 28, Name: "Action"}, {ID: 12, Name: "Adventure"}, {ID: 16, Name: "Animation"}, {ID: 35, Name: "Comedy"},
	}}
	b := newBot(api, nil, cat, discardLogger)

	b.handleMessage(context.Background(), textMessage(1, "/genres"))

	kb, ok := api.lastMessage(t).ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok {
		t.Fatalf("expected inline keyboard, got %#v", api.lastMessage(t).ReplyMarkup)
	}
	if len(kb.InlineKeyboard) != 2 || len(kb.InlineKeyboard[0]) != 3 {
		t.Errorf("unexpected layout: %d rows", len(kb.InlineKeyboard))
	}
	if data := kb.InlineKeyboard[1][0].CallbackData; data == nil || *data != "genre:Comedy" {
		t.Errorf("callback data = %v", data)
	}
}

func TestHandleCallback(t *testing.T) {
	t.Run("genre", func(t *testing.T) {
		api := newFakeAPI()
		cat := &stubCatalog{movies: []core.MovieSummary{{ID: 1, Title: "Heat"}}}
		b := newBot(api, nil, cat, discardLogger)

		b.handleCallback(context.Background(), &tgbotapi.CallbackQuery{
			ID:      "cb1",
			From:    &tgbotapi.User{ID: 1},
			Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}},
			Data:    "genre:Crime",
		})

		if got := cat.lastMode(t); !got.Equal(core.ModeGenre("Crime")) {
			t.Errorf("mode = %v", got)
		}
		if len(api.requests) == 0 {
			t.Error("expected callback acknowledgement")
		}
	})

	t.Run("movie", func(t *testing.T) {
		api := newFakeAPI()
		cat := &stubCatalog{detailErr: core.ErrNotFound}
		b := newBot(api, nil, cat, discardLogger)

		b.handleCallback(context.Background(), &tgbotapi.CallbackQuery{
			ID:      "cb2",
			From:    &tgbotapi.User{ID: 1},
			Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}},
			Data:    "movie:9",
		})

		if got := api.lastMessage(t).Text; got != "Movie not found." {
			t.Errorf("text = %q", got)
		}
	})
}

func TestSendMarkdown_FallsBackToPlain(t *testing.T) {
	api := newFakeAPI()
	api.sendErr = func(c tgbotapi.Chattable) error {
		if m, ok := c.(tgbotapi.MessageConfig); ok && m.ParseMode == tgbotapi.ModeMarkdownV2 {
			return errors.New("Bad Request: can't parse entities")
		}
		return nil
	}
	b := newBot(api, nil, &stubCatalog{}, discardLogger)

	b.sendMarkdown(1, FormatBold("Dune (2021)"), nil)

	msg := api.lastMessage(t)
	if msg.ParseMode != "" || msg.Text != "Dune (2021)" {
		t.Errorf("fallback message = %+v", msg)
	}
}

func TestMovieKeyboard(t *testing.T) {
	if kb := movieKeyboard(nil); kb != nil {
		t.Error("expected nil keyboard for no movies")
	}

	movies := make([]core.MovieSummary, 15)
	for i := range movies {
		movies[i] = core.MovieSummary{ID: i + 1, Title: "A very long movie title that exceeds thirty characters"}
	}
	kb := movieKeyboard(movies)
	if len(kb.InlineKeyboard) != maxListed {
		t.Errorf("expected %d rows, got %d", maxListed, len(kb.InlineKeyboard))
	}
	if label := kb.InlineKeyboard[0][0].Text; len([]rune(label)) > maxButtonLabel+1 {
		t.Errorf("expected truncated label, got %q", label)
	}
}

func TestStart_StopsOnCancel(t *testing.T) {
	api := newFakeAPI()
	cat := &stubCatalog{movies: []core.MovieSummary{{ID: 1, Title: "Heat"}}}
	b := newBot(api, nil, cat, discardLogger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Start(ctx) }()

	api.updates <- tgbotapi.Update{Message: textMessage(1, "/popular")}
	deadline := time.After(2 * time.Second)
	for len(api.messages()) == 0 {
		select {
		case <-deadline:
			t.Fatal("update was not handled")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	if !api.stopped {
		t.Error("expected StopReceivingUpdates")
	}
}

func TestUnescapeMdV2(t *testing.T) {
	in := FormatBold("Fight Club (1999)") + "\n" + EscapeMdV2("8.4/10 - great!")
	if got := unescapeMdV2(in); got != "Fight Club (1999)\n8.4/10 - great!" {
		t.Errorf("got %q", got)
	}
}

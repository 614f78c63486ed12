package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vadimtrunov/cinescope/internal/core"
)

const (
	unauthorizedMsg = "Sorry, you are not authorized to use this bot."
	resetMsg        = "Session reset."
	welcomeMsg      = `Welcome to cinescope! Browse movies from TMDb.

/trending - trending this week
/popular - popular movies
/latest - now playing in theaters
/genres - pick a genre
/genre <name> - movies of a genre
/search <title> - search by title
/movie <id> - movie details

Or just send a title to search.`

	callbackMovie = "movie:" // prefix for movie detail callback data
	callbackGenre = "genre:" // prefix for genre listing callback data

	maxButtonLabel = 30 // max characters in inline keyboard button label
	genreColumns   = 3
)

// handleMessage processes an incoming text message.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	userID := msg.From.ID
	chatID := msg.Chat.ID

	b.logger.Debug("received message",
		slog.Int64("user_id", userID),
	)

	if !b.sessions.isAllowed(userID) {
		b.sendText(chatID, unauthorizedMsg)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if !msg.IsCommand() {
		b.browse(ctx, chatID, core.ModeSearch(text, nil))
		return
	}

	args := strings.TrimSpace(msg.CommandArguments())
	switch msg.Command() {
	case "start", "help":
		b.sendText(chatID, welcomeMsg)
	case "reset":
		b.sessions.reset(chatID)
		b.sendText(chatID, resetMsg)
	case "trending", "all":
		b.browse(ctx, chatID, core.ModeAll())
	case "popular":
		b.browse(ctx, chatID, core.ModePopular())
	case "latest":
		b.browse(ctx, chatID, core.ModeLatest())
	case "genres":
		b.sendGenres(ctx, chatID)
	case "genre":
		if args == "" {
			b.sendGenres(ctx, chatID)
			return
		}
		b.browse(ctx, chatID, core.ModeGenre(args))
	case "search":
		b.browse(ctx, chatID, core.ModeSearch(args, nil))
	case "movie":
		id, err := strconv.Atoi(args)
		if err != nil || id <= 0 {
			b.sendText(chatID, "Usage: /movie <TMDb id>")
			return
		}
		b.sendDetail(ctx, chatID, id)
	default:
		b.sendText(chatID, "Unknown command. Send /help for the list of commands.")
	}
}

// handleCallback processes inline keyboard callback queries.
func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.Message == nil {
		return
	}
	userID := cq.From.ID
	chatID := cq.Message.Chat.ID

	b.logger.Debug("received callback",
		slog.Int64("user_id", userID),
		slog.String("data", cq.Data),
	)

	// Acknowledge the callback immediately.
	b.api.Request(tgbotapi.NewCallback(cq.ID, "")) //nolint:errcheck // best-effort ack

	if !b.sessions.isAllowed(userID) {
		return
	}

	switch {
	case strings.HasPrefix(cq.Data, callbackMovie):
		id, err := strconv.Atoi(strings.TrimPrefix(cq.Data, callbackMovie))
		if err != nil || id <= 0 {
			return
		}
		b.sendDetail(ctx, chatID, id)
	case strings.HasPrefix(cq.Data, callbackGenre):
		b.browse(ctx, chatID, core.ModeGenre(strings.TrimPrefix(cq.Data, callbackGenre)))
	}
}

// browse runs mode through the chat's session. Results of a request that a
// newer one superseded are dropped; failures leave earlier messages in place.
func (b *Bot) browse(ctx context.Context, chatID int64, mode core.Mode) {
	b.typing(chatID)

	session := b.sessions.getOrCreate(chatID)
	state, applied := session.Run(ctx, b.catalog, mode)
	if !applied {
		b.logger.Debug("dropping superseded result",
			slog.Int64("chat_id", chatID),
			slog.String("mode", mode.String()),
		)
		return
	}

	if state.Err != nil {
		b.logFailure(chatID, mode.String(), state.Err)
		b.sendText(chatID, core.UserMessage(state.Err))
		return
	}

	b.sendMarkdown(chatID, FormatMovieList(mode, state.Movies), movieKeyboard(state.Movies))
}

// sendDetail loads and sends a movie's poster and details.
func (b *Bot) sendDetail(ctx context.Context, chatID int64, id int) {
	b.typing(chatID)

	detail, err := b.catalog.MovieDetails(ctx, id)
	if err != nil {
		b.logFailure(chatID, fmt.Sprintf("movie %d", id), err)
		b.sendText(chatID, core.UserMessage(err))
		return
	}

	b.sendPoster(chatID, detail.PosterURL, detail.Title)
	b.sendMarkdown(chatID, FormatDetail(detail), nil)
}

// sendGenres sends the genre list as an inline keyboard.
func (b *Bot) sendGenres(ctx context.Context, chatID int64) {
	genres, err := b.catalog.Genres(ctx)
	if err != nil {
		b.logFailure(chatID, "genres", err)
		b.sendText(chatID, core.UserMessage(err))
		return
	}
	if len(genres) == 0 {
		b.sendText(chatID, "No genres available.")
		return
	}

	msg := tgbotapi.NewMessage(chatID, "Pick a genre:")
	kb := genreKeyboard(genres)
	msg.ReplyMarkup = kb
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send genres",
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()),
		)
	}
}

// movieKeyboard builds one detail button per listed movie, or nil for no movies.
func movieKeyboard(movies []core.MovieSummary) *tgbotapi.InlineKeyboardMarkup {
	if len(movies) == 0 {
		return nil
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, m := range movies[:min(len(movies), maxListed)] {
		label := truncateLabel(fmt.Sprintf("%d. %s", i+1, m.Title), maxButtonLabel)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, callbackMovie+strconv.Itoa(m.ID)),
		))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

// genreKeyboard arranges genre buttons in rows of genreColumns.
func genreKeyboard(genres []core.Genre) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, g := range genres {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(g.Name, callbackGenre+g.Name))
		if len(row) == genreColumns {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// sendMarkdown sends MarkdownV2 text, falling back to plain text if Telegram rejects it.
func (b *Bot) sendMarkdown(chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true
	if kb != nil {
		msg.ReplyMarkup = kb
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("failed to send markdown, retrying plain",
			slog.String("error", err.Error()),
		)
		plain := tgbotapi.NewMessage(chatID, unescapeMdV2(text))
		if kb != nil {
			plain.ReplyMarkup = kb
		}
		if _, err := b.api.Send(plain); err != nil {
			b.logger.Error("failed to send message",
				slog.Int64("chat_id", chatID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// sendText sends a plain text message (no parse mode).
func (b *Bot) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send message",
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()),
		)
	}
}

// sendPoster sends a movie poster photo. Telegram fetches the URL itself.
func (b *Bot) sendPoster(chatID int64, posterURL, caption string) {
	if posterURL == "" {
		return
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(posterURL))
	photo.Caption = caption
	if _, err := b.api.Send(photo); err != nil {
		b.logger.Debug("failed to send poster",
			slog.String("url", posterURL),
			slog.String("error", err.Error()),
		)
	}
}

func (b *Bot) typing(chatID int64) {
	b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)) //nolint:errcheck // best-effort typing indicator
}

func (b *Bot) logFailure(chatID int64, op string, err error) {
	b.logger.Warn("request failed",
		slog.Int64("chat_id", chatID),
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
}

// unescapeMdV2 strips MarkdownV2 escapes and emphasis markers for the plain-text fallback.
func unescapeMdV2(s string) string {
	var sb strings.Builder
	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			sb.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '*' || r == '_':
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

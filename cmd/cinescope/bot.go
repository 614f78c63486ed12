package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/cinescope/internal/api"
	"github.com/vadimtrunov/cinescope/internal/config"
	"github.com/vadimtrunov/cinescope/internal/core"
	"github.com/vadimtrunov/cinescope/internal/frontend/telegram"
)

// newBotCmd returns the "bot" subcommand for running the Telegram bot.
func newBotCmd() *cobra.Command {
	var withAPI bool
	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Start the Telegram bot",
		Long:  "Start the cinescope Telegram bot. With --with-api the HTTP API runs alongside it.",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runBot(withAPI)
		},
	}
	cmd.Flags().BoolVar(&withAPI, "with-api", false, "also serve the HTTP API on server.addr")
	return cmd
}

// runBot starts the Telegram bot and, optionally, the HTTP API over the same catalog.
func runBot(withAPI bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	if cfg.Telegram == nil {
		return errors.New(
			"telegram configuration is required: set telegram.bot_token in config or CINESCOPE_TELEGRAM_BOT_TOKEN env var",
		)
	}

	logger, closeLog, err := setupLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	cat := newCatalog(cfg, logger)
	bot, err := telegram.New(cfg.Telegram.BotToken, cfg.Telegram.AllowedUserIDs, cat, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	apiErrCh := startAPIIfEnabled(ctx, withAPI, cfg, cat, logger)

	logger.Info("telegram bot starting")
	botErr := bot.Start(ctx)
	cancel() // Unblock the API server goroutine waiting on ctx.

	// Surface the API error if the bot exited cleanly.
	if apiErr := <-apiErrCh; apiErr != nil && !errors.Is(apiErr, context.Canceled) {
		if botErr == nil {
			return apiErr
		}
		logger.Error("api server error", slog.String("error", apiErr.Error()))
	}
	return botErr
}

// startAPIIfEnabled launches the HTTP API in the background.
// The returned channel receives its error, or is closed when the API is disabled.
func startAPIIfEnabled(
	ctx context.Context, enabled bool, cfg *config.Config, cat core.Catalog, logger *slog.Logger,
) <-chan error {
	errCh := make(chan error, 1)
	if !enabled {
		close(errCh)
		return errCh
	}

	srv := api.NewServer(cfg.Server.Addr, cat, logger)
	go func() {
		err := srv.Start(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("api server stopped", slog.String("error", err.Error()))
		}
		errCh <- err
	}()
	return errCh
}

package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"github.com/charmbracelet/lipgloss"

	"github.com/vadimtrunov/cinescope/internal/catalog"
	"github.com/vadimtrunov/cinescope/internal/config"
	"github.com/vadimtrunov/cinescope/internal/httpclient"
	"github.com/vadimtrunov/cinescope/internal/metadata/tmdb"
)

// Lipgloss styles used across commands.
var (
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	styleInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")) // blue
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray
	styleStar    = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	styleTitle   = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)

	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("5")).
			MarginBottom(1)
)

// loadConfig loads and validates the configuration file.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}

// setupLogger installs the JSON logger on the configured log file, or on
// fallback when no file is set. The closer must be called on exit.
func setupLogger(cfg *config.Config, fallback io.Writer) (*slog.Logger, func() error, error) {
	w, closer, err := config.OpenLogOutput(cfg.App.LogFile, fallback)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return config.SetupLogger(cfg.App.LogLevel, w), closer, nil
}

// newCatalog wires the TMDb client into a query resolver.
func newCatalog(cfg *config.Config, logger *slog.Logger) *catalog.Resolver {
	hcfg := httpclient.DefaultConfig()
	hcfg.Timeout = cfg.TMDb.Timeout
	hc := httpclient.New(hcfg, logger)

	client := tmdb.New(cfg.TMDb.APIKey, cfg.TMDb.BaseURL, hc, logger)
	logger.Debug("TMDb client initialized", slog.String("url", sanitizeURL(cfg.TMDb.BaseURL)))
	return catalog.NewResolver(client, logger)
}

// sanitizeURL strips credentials, query params, and fragment from a URL for safe logging.
func sanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || u.Scheme == "" {
		return "<redacted>"
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

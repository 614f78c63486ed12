package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"
)

// Defaults applied by setDefaults.
const (
	DefaultTMDbBaseURL      = "https://api.themoviedb.org/3"
	DefaultTMDbTimeout      = 15 * time.Second
	DefaultBackdropInterval = 7 * time.Second
	DefaultSearchDebounce   = 400 * time.Millisecond
	DefaultServerAddr       = ":8080"
	DefaultLogLevel         = "info"
)

// Config represents the main application configuration
type Config struct {
	// Metadata provider
	TMDb TMDbConfig `yaml:"tmdb"`

	// Terminal browser
	UI UIConfig `yaml:"ui"`

	// HTTP API
	Server ServerConfig `yaml:"server"`

	// Frontends
	Telegram *TelegramConfig `yaml:"telegram,omitempty"`

	// Application settings
	App AppConfig `yaml:"app"`
}

// TMDbConfig holds TMDb API configuration
type TMDbConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// UIConfig holds timings of the terminal browser
type UIConfig struct {
	BackdropInterval time.Duration `yaml:"backdrop_interval,omitempty"` // featured movie rotation
	SearchDebounce   time.Duration `yaml:"search_debounce,omitempty"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken       string  `yaml:"bot_token"`
	AllowedUserIDs []int64 `yaml:"allowed_user_ids,omitempty"`
}

// AppConfig holds application-level settings
type AppConfig struct {
	LogLevel string `yaml:"log_level"`          // "debug", "info", "warn", "error"
	LogFile  string `yaml:"log_file,omitempty"` // empty: stderr, or discarded by the browser
}

// Load loads configuration from a YAML file with environment variable overrides.
// A missing file is not an error: the configuration may come from the environment alone.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := readConfigFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// readConfigFile returns the file contents, or nil if the file does not exist.
func readConfigFile(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to access config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config path %q is a directory, not a file", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return data, nil
}

// applyEnvOverrides overrides config values with environment variables
func (c *Config) applyEnvOverrides() {
	// TMDb
	if v := os.Getenv("CINESCOPE_TMDB_API_KEY"); v != "" {
		c.TMDb.APIKey = v
	}
	if v := os.Getenv("CINESCOPE_TMDB_BASE_URL"); v != "" {
		c.TMDb.BaseURL = v
	}

	// Server
	if v := os.Getenv("CINESCOPE_SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}

	// Telegram, created from env when absent in the file
	if v := os.Getenv("CINESCOPE_TELEGRAM_BOT_TOKEN"); v != "" {
		if c.Telegram == nil {
			c.Telegram = &TelegramConfig{}
		}
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("CINESCOPE_TELEGRAM_ALLOWED_USER_IDS"); v != "" && c.Telegram != nil {
		c.Telegram.AllowedUserIDs = parseIDList(v)
	}

	// App
	if v := os.Getenv("CINESCOPE_LOG_LEVEL"); v != "" {
		c.App.LogLevel = v
	}
	if v := os.Getenv("CINESCOPE_LOG_FILE"); v != "" {
		c.App.LogFile = v
	}
}

// parseIDList parses a comma-separated list of user ids, skipping malformed entries.
func parseIDList(s string) []int64 {
	var ids []int64
	for part := range strings.SplitSeq(s, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// setDefaults fills zero values. Negative durations are left for Validate to reject.
func (c *Config) setDefaults() {
	if c.TMDb.BaseURL == "" {
		c.TMDb.BaseURL = DefaultTMDbBaseURL
	}
	if c.TMDb.Timeout == 0 {
		c.TMDb.Timeout = DefaultTMDbTimeout
	}
	if c.UI.BackdropInterval == 0 {
		c.UI.BackdropInterval = DefaultBackdropInterval
	}
	if c.UI.SearchDebounce == 0 {
		c.UI.SearchDebounce = DefaultSearchDebounce
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = DefaultLogLevel
	}
}

// Validate applies defaults and validates the configuration
func (c *Config) Validate() error {
	c.setDefaults()

	if c.TMDb.APIKey == "" {
		return fmt.Errorf("tmdb.api_key is required")
	}
	if err := validateURL(c.TMDb.BaseURL, "tmdb.base_url"); err != nil {
		return err
	}
	if c.TMDb.Timeout < 0 {
		return fmt.Errorf("tmdb.timeout must be positive")
	}
	if c.UI.BackdropInterval < 0 {
		return fmt.Errorf("ui.backdrop_interval must be positive")
	}
	if c.UI.SearchDebounce < 0 {
		return fmt.Errorf("ui.search_debounce must be positive")
	}

	if c.Telegram != nil && c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}

	switch strings.ToLower(c.App.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("app.log_level must be one of debug, info, warn, error (got %q)", c.App.LogLevel)
	}

	return nil
}

// validateURL checks that raw is an absolute http(s) URL with a host.
func validateURL(raw, field string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: invalid URL: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https (got %q)", field, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s: missing host", field)
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backend names accepted by NETT_BACKEND.
const (
	BackendSQLite   = "sqlite"
	BackendBigQuery = "bigquery"
	BackendSupabase = "supabase"
)

// Config holds settings shared by the api server and the cli.
type Config struct {
	APIURL    string
	Backend   string
	LogLevel  string
	LogFormat string

	SQLitePath string

	BigQueryProject string
	BigQueryDataset string

	SupabaseURL string
	SupabaseKey string

	NotionToken          string
	NotionTransactionsDB string

	DiscordBotToken  string
	DiscordChannelID string

	TelegramToken  string
	TelegramChatID int64

	GCSBucket string

	CORSOrigins []string

	SearchDebounce time.Duration
}

// Load reads .env files (when present) into the environment and builds a Config from it.
// A missing .env file is not an error.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config.Load: reading env file: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		APIURL:               getenv("NETT_API_URL", "http://localhost:8080"),
		Backend:              getenv("NETT_BACKEND", BackendSQLite),
		LogLevel:             getenv("LOG_LEVEL", "info"),
		LogFormat:            getenv("LOG_FORMAT", "console"),
		SQLitePath:           getenv("NETT_SQLITE_PATH", "nett.db"),
		BigQueryProject:      os.Getenv("BQ_PROJECT"),
		BigQueryDataset:      getenv("BQ_DATASET", "finance"),
		SupabaseURL:          os.Getenv("SUPABASE_URL"),
		SupabaseKey:          os.Getenv("SUPABASE_KEY"),
		NotionToken:          os.Getenv("NOTION_TOKEN"),
		NotionTransactionsDB: os.Getenv("NOTION_TRANSACTIONS_DB"),
		DiscordBotToken:      os.Getenv("DISCORD_BOT_TOKEN"),
		DiscordChannelID:     os.Getenv("DISCORD_CHANNEL_ID"),
		TelegramToken:        os.Getenv("TELEGRAM_TOKEN"),
		GCSBucket:            os.Getenv("GCS_BUCKET"),
		SearchDebounce:       300 * time.Millisecond,
		CORSOrigins:          splitList(getenv("CORS_ORIGINS", "*")),
	}

	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("config.FromEnv: TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.TelegramChatID = id
	}

	if v := os.Getenv("SEARCH_DEBOUNCE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("config.FromEnv: SEARCH_DEBOUNCE: %w", err)
		}
		cfg.SearchDebounce = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected backend has what it needs.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("config: NETT_SQLITE_PATH is required for the sqlite backend")
		}
	case BackendBigQuery:
		if c.BigQueryProject == "" {
			return fmt.Errorf("config: BQ_PROJECT is required for the bigquery backend")
		}
	case BackendSupabase:
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			return fmt.Errorf("config: SUPABASE_URL and SUPABASE_KEY are required for the supabase backend")
		}
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "console", "json":
	default:
		return fmt.Errorf("config: LOG_FORMAT must be console or json, got %q", c.LogFormat)
	}
	if c.SearchDebounce < 0 {
		return fmt.Errorf("config: SEARCH_DEBOUNCE must not be negative")
	}
	return nil
}

// NotionEnabled reports whether the Notion mirror is configured.
func (c *Config) NotionEnabled() bool {
	return c.NotionToken != "" && c.NotionTransactionsDB != ""
}

// DiscordEnabled reports whether Discord notifications are configured.
func (c *Config) DiscordEnabled() bool {
	return c.DiscordBotToken != "" && c.DiscordChannelID != ""
}

// TelegramEnabled reports whether Telegram notifications are configured.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitList splits a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

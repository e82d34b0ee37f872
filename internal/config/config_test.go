package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"NETT_API_URL", "NETT_BACKEND", "LOG_LEVEL", "NETT_SQLITE_PATH", "BQ_PROJECT",
		"BQ_DATASET", "SUPABASE_URL", "SUPABASE_KEY", "NOTION_TOKEN", "NOTION_TRANSACTIONS_DB",
		"DISCORD_BOT_TOKEN", "DISCORD_CHANNEL_ID", "TELEGRAM_TOKEN", "TELEGRAM_CHAT_ID",
		"GCS_BUCKET", "SEARCH_DEBOUNCE", "LOG_FORMAT", "CORS_ORIGINS",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if cfg.Backend != BackendSQLite {
		t.Errorf("Backend = %q, want sqlite", cfg.Backend)
	}
	if cfg.APIURL != "http://localhost:8080" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.SearchDebounce != 300*time.Millisecond {
		t.Errorf("SearchDebounce = %v", cfg.SearchDebounce)
	}
	if cfg.NotionEnabled() || cfg.DiscordEnabled() || cfg.TelegramEnabled() {
		t.Error("optional integrations should be disabled by default")
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("CORSOrigins = %v, want [*]", cfg.CORSOrigins)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("NETT_BACKEND", "bigquery")
	t.Setenv("BQ_PROJECT", "demo-project")
	t.Setenv("TELEGRAM_TOKEN", "tok")
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	t.Setenv("SEARCH_DEBOUNCE", "150ms")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, https://nett.example ,")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if cfg.BigQueryProject != "demo-project" || cfg.BigQueryDataset != "finance" {
		t.Errorf("bigquery settings = %q/%q", cfg.BigQueryProject, cfg.BigQueryDataset)
	}
	if !cfg.TelegramEnabled() || cfg.TelegramChatID != 42 {
		t.Errorf("telegram settings = %+v", cfg)
	}
	if cfg.SearchDebounce != 150*time.Millisecond {
		t.Errorf("SearchDebounce = %v", cfg.SearchDebounce)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://nett.example" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown backend", map[string]string{"NETT_BACKEND": "oracle"}},
		{"bigquery without project", map[string]string{"NETT_BACKEND": "bigquery"}},
		{"supabase without key", map[string]string{"NETT_BACKEND": "supabase", "SUPABASE_URL": "https://x.supabase.co"}},
		{"bad chat id", map[string]string{"TELEGRAM_CHAT_ID": "abc"}},
		{"bad debounce", map[string]string{"SEARCH_DEBOUNCE": "soon"}},
		{"bad log format", map[string]string{"LOG_FORMAT": "xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := FromEnv(); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("GCS_BUCKET=exports-bucket\n"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.GCSBucket != "exports-bucket" {
		t.Errorf("GCSBucket = %q", cfg.GCSBucket)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("missing env file should be tolerated, got %v", err)
	}
}

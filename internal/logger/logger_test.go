package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew(t *testing.T) {
	if log := New(); log.GetLevel() != zerolog.InfoLevel {
		t.Errorf("GetLevel() = %v, want info", log.GetLevel())
	}
}

func TestBuild_Formats(t *testing.T) {
	var jsonOut bytes.Buffer
	jsonLog := Build(Options{Format: "JSON", Out: &jsonOut})
	jsonLog.Info().Str("transaction_id", "t1").Msg("mirrored")

	var entry map[string]interface{}
	if err := json.Unmarshal(jsonOut.Bytes(), &entry); err != nil {
		t.Fatalf("json output %q: %v", jsonOut.String(), err)
	}
	if entry["message"] != "mirrored" || entry["transaction_id"] != "t1" || entry["level"] != "info" {
		t.Errorf("entry = %v", entry)
	}

	var console bytes.Buffer
	consoleLog := Build(Options{Out: &console})
	consoleLog.Info().Msg("mirrored")
	if !strings.Contains(console.String(), "mirrored") || json.Valid(console.Bytes()) {
		t.Errorf("console output = %q", console.String())
	}
}

func TestBuild_Level(t *testing.T) {
	var buf bytes.Buffer
	log := Build(Options{Level: "warn", Format: FormatJSON, Out: &buf})
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestNewWithWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)
	log.Debug().Msg("test message")
	if !strings.Contains(buf.String(), "test message") {
		t.Errorf("Expected output to contain 'test message', got: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{" error ", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"chatty", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewWithLevel(t *testing.T) {
	if log := NewWithLevel("warn"); log.GetLevel() != zerolog.WarnLevel {
		t.Errorf("GetLevel() = %v, want warn", log.GetLevel())
	}
}

func TestFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithContext(context.Background(), NewWithWriter(buf))

	log := FromContext(ctx)
	log.Info().Msg("test")
	if buf.Len() == 0 {
		t.Error("Expected log output from retrieved logger")
	}

	if log := FromContext(context.Background()); log.GetLevel() == zerolog.Disabled {
		t.Error("Expected default logger to be enabled")
	}
}

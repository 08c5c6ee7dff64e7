package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/wonny/dietdash/pkg/config"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse log output %q: %v", buf.String(), err)
	}
	return entry
}

func TestNewWithWriter(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		wantLevel zerolog.Level
	}{
		{"debug level", "debug", zerolog.DebugLevel},
		{"info level", "info", zerolog.InfoLevel},
		{"warn level", "warn", zerolog.WarnLevel},
		{"error level", "error", zerolog.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := NewWithWriter(&config.Config{Env: "development", LogLevel: tt.level, LogFormat: "json"}, &buf)
			if log == nil {
				t.Fatal("Expected logger to be created")
			}
			if zerolog.GlobalLevel() != tt.wantLevel {
				t.Errorf("Expected global level %v, got %v", tt.wantLevel, zerolog.GlobalLevel())
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"invalid", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLogLevel(tt.input); got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestServiceFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&config.Config{Env: "staging", LogLevel: "debug", LogFormat: "json"}, &buf)

	log.WithComponent("freshness").Info("cache rebuilt")

	entry := decode(t, &buf)
	if entry["service"] != "dietdash" {
		t.Errorf("Expected service dietdash, got %v", entry["service"])
	}
	if entry["env"] != "staging" {
		t.Errorf("Expected env staging, got %v", entry["env"])
	}
	if entry["component"] != "freshness" {
		t.Errorf("Expected component freshness, got %v", entry["component"])
	}
	if entry["message"] != "cache rebuilt" {
		t.Errorf("Expected message 'cache rebuilt', got %v", entry["message"])
	}
}

func TestWithFieldsAndError(t *testing.T) {
	var buf bytes.Buffer
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log := &Logger{zlog: zerolog.New(&buf)}

	log.WithError(errors.New("disk full")).
		WithFields(map[string]interface{}{
			"path": "Cleaned_All_Diets.csv",
			"rows": 7806,
		}).
		Warn("artifact write failed")

	entry := decode(t, &buf)
	if entry["error"] != "disk full" {
		t.Errorf("Expected error 'disk full', got %v", entry["error"])
	}
	if entry["path"] != "Cleaned_All_Diets.csv" {
		t.Errorf("Expected path field, got %v", entry["path"])
	}
	if entry["rows"] != float64(7806) {
		t.Errorf("Expected rows 7806, got %v", entry["rows"])
	}
	if entry["level"] != "warn" {
		t.Errorf("Expected level warn, got %v", entry["level"])
	}
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&config.Config{Env: "development", LogLevel: "info", LogFormat: "console"}, &buf)

	log.Infof("loaded %d rows", 3)

	if !strings.Contains(buf.String(), "loaded 3 rows") {
		t.Errorf("Expected console output to contain message, got: %s", buf.String())
	}
}

func TestNop(t *testing.T) {
	log := Nop()
	log.WithField("k", "v").Error("discarded")
}

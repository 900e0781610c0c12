package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"artify/internal/config"
	"artify/internal/logging"
	"artify/internal/services"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello from test")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "artify.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "hello from test") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	if strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", buf.String())
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message with caller")

	if !strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", buf.String())
	}
}

func TestConsoleLoggerLiftsComponentAndSource(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "ingest").Info("scraped",
		logging.String(logging.FieldSource, "opera"),
		logging.Int("found", 12),
		logging.String("venue", "Palais Garnier"),
	)

	line := buf.String()
	if !strings.Contains(line, "INFO ingest: [opera] scraped") {
		t.Fatalf("expected component and source prefix, got %q", line)
	}
	if !strings.Contains(line, "found=12") || !strings.Contains(line, `venue="Palais Garnier"`) {
		t.Fatalf("expected quoted key/values, got %q", line)
	}
}

func TestJSONLoggerRenamesKeys(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("json message", logging.String("k", "v"))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode json line: %v", err)
	}
	if payload["level"] != "info" || payload["msg"] != "json message" || payload["k"] != "v" {
		t.Fatalf("unexpected payload: %v", payload)
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", payload)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-42")
	ctx = services.WithSource(ctx, "louvre")
	ctx = services.WithStage(ctx, "normalize")

	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WithContext(ctx, logger).Info("contextual log")

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode json line: %v", err)
	}
	for key, want := range map[string]string{
		logging.FieldRunID:  "run-42",
		logging.FieldSource: "louvre",
		logging.FieldStage:  "normalize",
	} {
		if payload[key] != want {
			t.Fatalf("field %s = %v, want %s", key, payload[key], want)
		}
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "source failed", "source_failed", logging.String(logging.FieldErrorHint, "retry later"))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode json line: %v", err)
	}
	if payload[logging.FieldEventType] != "source_failed" {
		t.Fatalf("expected event_type, got %v", payload)
	}
	if payload[logging.FieldErrorHint] != "retry later" {
		t.Fatalf("expected caller hint to win, got %v", payload[logging.FieldErrorHint])
	}
	if _, ok := payload[logging.FieldImpact]; !ok {
		t.Fatalf("expected impact default, got %v", payload)
	}
}

func TestWarnWithContextTagsErrorKind(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	failure := services.Wrap(services.ErrTimeout, "scrape", "louvre", "no answer within 1s", context.DeadlineExceeded)
	logging.WarnWithContext(logger, "source failed", "source_failed", logging.Error(failure))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode json line: %v", err)
	}
	if payload[logging.FieldErrorKind] != "timeout" {
		t.Fatalf("expected error_kind timeout, got %v", payload)
	}
	if payload["error"] != failure.Error() {
		t.Fatalf("expected error text, got %v", payload["error"])
	}
}

func TestSecretsAreRedacted(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := logging.New(logging.Options{Format: format, Level: "info", Writer: &buf})
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}
			logger.Info("llm configured",
				logging.String("api_key", "sk-or-secret"),
				logging.String("catalog_dsn", "postgres://artify:hunter2@db/artify"),
				logging.String("model", "demo"),
			)
			out := buf.String()
			if strings.Contains(out, "sk-or-secret") || strings.Contains(out, "hunter2") {
				t.Fatalf("secret leaked into %s output: %s", format, out)
			}
			if !strings.Contains(out, "demo") || !strings.Contains(out, "[redacted]") {
				t.Fatalf("expected redaction marker and plain fields, got %s", out)
			}
		})
	}
}

func TestConsoleTruncatesLongValues(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("record rejected", logging.String("description", strings.Repeat("é", 500)))

	out := buf.String()
	if strings.Count(out, "é") != 200 || !strings.Contains(out, "…") {
		t.Fatalf("expected a 200 rune value with an ellipsis, got %d runes", strings.Count(out, "é"))
	}
}

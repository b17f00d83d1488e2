package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/agentstation/pubmap/pkg/logging"
)

func TestDefaultLogger(t *testing.T) {
	original := *logging.Default()
	t.Cleanup(func() { logging.SetDefault(original) })

	buf := &bytes.Buffer{}
	logger := zerolog.New(buf).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	logging.SetDefault(logger)

	logging.Info().Msg("info message")
	logging.Warn().Msg("warning message")

	output := buf.String()
	if !strings.Contains(output, "info message") {
		t.Errorf("Expected info message in output, got: %s", output)
	}
	if !strings.Contains(output, "warning message") {
		t.Errorf("Expected warning message in output, got: %s", output)
	}
}

func TestContextLogger(t *testing.T) {
	testLogger := logging.NewTestLogger(t)

	ctx := logging.WithLogger(context.Background(), testLogger.Logger)
	ctx = logging.WithSource(ctx, "scholar")
	ctx = logging.WithOperation(ctx, "sync")
	ctx = logging.WithCatalog(ctx, "publications.yaml")

	logging.FromContext(ctx).Info().Msg("test message")

	testLogger.AssertContains(t, `"source":"scholar"`)
	testLogger.AssertContains(t, `"operation":"sync"`)
	testLogger.AssertContains(t, `"catalog":"publications.yaml"`)
	testLogger.AssertContains(t, "test message")
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	//nolint:staticcheck // nil context is part of the contract
	if logging.FromContext(nil) != logging.Default() {
		t.Error("FromContext(nil) should return the default logger")
	}
	if logging.Ctx(context.Background()) != logging.Default() {
		t.Error("Ctx without logger should return the default logger")
	}
}

func TestWithFields(t *testing.T) {
	testLogger := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), testLogger.Logger)
	ctx = logging.WithFields(ctx, map[string]any{
		"page":    3,
		"dry_run": true,
	})

	logging.Ctx(ctx).Debug().Msg("page fetched")

	var entry map[string]any
	if err := json.Unmarshal([]byte(testLogger.Lines()[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["page"] != float64(3) {
		t.Errorf("page = %v, want 3", entry["page"])
	}
	if entry["dry_run"] != true {
		t.Errorf("dry_run = %v, want true", entry["dry_run"])
	}
}

func TestConfiguration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pubmap.log")

	logger := logging.NewLoggerFromConfig(&logging.Config{
		Level:  "warn",
		Format: "json",
		Output: path,
		Fields: map[string]any{"app": "pubmap"},
	})
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	output := string(data)
	if strings.Contains(output, "hidden") {
		t.Errorf("info event should be filtered at warn level: %s", output)
	}
	if !strings.Contains(output, "shown") || !strings.Contains(output, `"app":"pubmap"`) {
		t.Errorf("unexpected output: %s", output)
	}
}

func TestCaptureLoggingForTest(t *testing.T) {
	captured := logging.CaptureLoggingForTest(t)

	logging.Warn().Str("title", "Paper").Msg("Skipping record")

	captured.AssertContains(t, "Skipping record")
	if captured.Count() != 1 {
		t.Errorf("Count() = %d, want 1", captured.Count())
	}
}

func TestDisableLoggingForTest(t *testing.T) {
	logging.DisableLoggingForTest(t)
	// Must not panic or write anywhere.
	logging.Error().Msg("discarded")
}

func TestEnvConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("DEBUG", "1")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_OUTPUT", "discard")
	t.Setenv("LOG_FIELDS", "run=nightly, host = ci")

	cfg := logging.EnvConfig()
	if cfg.Level != "debug" {
		t.Errorf("Level = %q, want debug when DEBUG is set", cfg.Level)
	}
	if cfg.Format != "json" || cfg.Output != "discard" {
		t.Errorf("Format/Output = %q/%q", cfg.Format, cfg.Output)
	}
	if cfg.Fields["run"] != "nightly" || cfg.Fields["host"] != "ci" {
		t.Errorf("Fields = %v", cfg.Fields)
	}

	t.Setenv("LOG_LEVEL", "error")
	if got := logging.EnvConfig().Level; got != "error" {
		t.Errorf("LOG_LEVEL should win over DEBUG, got %q", got)
	}
}

func TestMessages(t *testing.T) {
	captured := logging.NewTestLogger(t)

	captured.Warn().Str("link", "https://example.com/1").Msg("Skipping record")
	captured.Info().Msg("Fetching")
	captured.Warn().Str("link", "https://example.com/2").Msg("Skipping record")

	skips := captured.Messages("Skipping record")
	if len(skips) != 2 {
		t.Fatalf("Messages() = %d events, want 2", len(skips))
	}
	if skips[1]["link"] != "https://example.com/2" {
		t.Errorf("second skip link = %v", skips[1]["link"])
	}
	if len(captured.Events()) != 3 {
		t.Errorf("Events() = %d, want 3", len(captured.Events()))
	}
}

package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pedidobot/internal/logging"
	"pedidobot/internal/services"
)

func TestConsoleLoggerWritesComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := logging.New(logging.Options{Level: "info", Format: "console", Console: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer closer()

	logging.NewComponentLogger(logger, "processing").Info("pedido procesado", logging.Int("matches", 2), logging.String("note", "2 coincidencias"))

	line := buf.String()
	if !strings.Contains(line, "processing: pedido procesado") {
		t.Fatalf("expected component prefix, got %q", line)
	}
	if !strings.Contains(line, "matches=2") || !strings.Contains(line, `note="2 coincidencias"`) {
		t.Fatalf("expected fields, got %q", line)
	}
	if strings.Contains(line, "\x1b[") {
		t.Fatalf("expected no colour codes, got %q", line)
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := logging.New(logging.Options{Level: "warn", Console: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("info should be filtered: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("warn should be written: %q", buf.String())
	}
}

func TestLoggerFansOutToJSONFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "pedidobot.log")
	logger, closer, err := logging.New(logging.Options{Level: "info", Console: &buf, FilePath: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("hola", logging.Pedido(7))
	if err := closer(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &record); err != nil {
		t.Fatalf("decode json line %q: %v", data, err)
	}
	if record["msg"] != "hola" || record["level"] != "info" {
		t.Fatalf("unexpected record %v", record)
	}
	if record[logging.FieldPedidoID] != float64(7) {
		t.Fatalf("expected pedido_id 7, got %v", record[logging.FieldPedidoID])
	}
	if !strings.Contains(buf.String(), "hola") {
		t.Fatalf("console should also receive the record: %q", buf.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := logging.New(logging.Options{Format: "json", Console: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := services.WithPedidoID(context.Background(), 12)
	ctx = services.WithChannel(ctx, "120363@g.us")
	ctx = services.WithRequestID(ctx, "req-1")

	logging.WithContext(ctx, logger).Info("ctx")

	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record[logging.FieldChannelID] != "120363@g.us" || record[logging.FieldCorrelationID] != "req-1" {
		t.Fatalf("missing context fields: %v", record)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := logging.New(logging.Options{Format: "json", Console: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logging.WarnWithContext(logger, "classifier fallback", "classifier_fallback", logging.Hint("check OPENROUTER_API_KEY"))

	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record[logging.FieldEventType] != "classifier_fallback" {
		t.Fatalf("missing event_type: %v", record)
	}
	if record[logging.FieldErrorHint] != "check OPENROUTER_API_KEY" {
		t.Fatalf("caller hint should be preserved: %v", record)
	}
	if record[logging.FieldImpact] == nil {
		t.Fatalf("impact should be injected: %v", record)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), 12) {
		t.Fatal("nop logger should never be enabled")
	}
}

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHandlerRenamesKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf))
	logger.Info("contribution accepted", "phase", "Sale")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if line["message"] != "contribution accepted" || line["severity"] != "INFO" {
		t.Fatalf("unexpected line %v", line)
	}
	if _, ok := line["timestamp"]; !ok {
		t.Fatalf("expected timestamp key in %v", line)
	}
}

func TestSetupWithFileWritesRotatingSink(t *testing.T) {
	defaultLogger := slog.Default()
	t.Cleanup(func() { slog.SetDefault(defaultLogger) })

	path := filepath.Join(t.TempDir(), "saled.log")
	logger, closer := SetupWithFile("saled", "test", FileOptions{Path: path})
	logger.Info("started")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"service":"saled"`) || !strings.Contains(string(data), `"env":"test"`) {
		t.Fatalf("unexpected file contents %s", data)
	}
}

func TestHandlerMasksCredentials(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf))
	logger.Info("config", "jwtSecret", "hunter2", "KEYSTORE_PASSPHRASE", "open sesame", "phase", "Sale")
	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if line["jwtSecret"] != RedactedValue || line["KEYSTORE_PASSPHRASE"] != RedactedValue {
		t.Fatalf("expected credentials masked, got %v", line)
	}
	if line["phase"] != "Sale" {
		t.Fatalf("expected ordinary keys untouched, got %v", line)
	}
	if strings.Contains(buf.String(), "hunter2") {
		t.Fatalf("secret leaked: %s", buf.String())
	}
}

func TestRedactionHelpers(t *testing.T) {
	if got := Secret("jwtSecret", "hunter2"); got.Value.String() != RedactedValue {
		t.Fatalf("expected secret to be masked, got %v", got)
	}
	if got := Secret("jwtSecret", " "); got.Value.String() != "" {
		t.Fatalf("unset secrets must log empty, got %v", got)
	}
	if Sensitive("tokens") || !Sensitive("HMACSecret") {
		t.Fatalf("unexpected key classification")
	}
	if got := DSN("eventLog", "postgres://sale:pw@db:5432/events"); strings.Contains(got.Value.String(), "pw@") {
		t.Fatalf("expected password stripped, got %v", got)
	}
	if got := DSN("eventLog", "file:events.db?cache=shared"); got.Value.String() != "file:events.db?cache=shared" {
		t.Fatalf("sqlite paths must pass through, got %v", got)
	}
	if attr := Address("caller", [20]byte{1}); !strings.HasPrefix(attr.Value.String(), "sale1") {
		t.Fatalf("unexpected address attr %v", attr)
	}
}

package main

import (
	"os"
	"path/filepath"
	"testing"

	"crowdsale/config"
	"crowdsale/native/oracle"
	"crowdsale/observability/logging"
	"crowdsale/storage"
)

func TestNewCertifierFollowsMode(t *testing.T) {
	logger := logging.Setup("saled", "test")
	if c := newCertifier(config.OracleConfig{Mode: config.OracleModeRegistry}, logger); c != nil {
		t.Fatalf("registry mode must use the node registry")
	}
	c := newCertifier(config.OracleConfig{Mode: config.OracleModeHTTP, URL: "http://127.0.0.1:9"}, logger)
	if _, ok := c.(*oracle.Client); !ok {
		t.Fatalf("expected http oracle client, got %T", c)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "  ", "b.yaml", "c.yaml"); got != "b.yaml" {
		t.Fatalf("unexpected %q", got)
	}
	if got := firstNonEmpty(); got != "" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestOpenStateFollowsBackend(t *testing.T) {
	dir := t.TempDir()
	db, err := openState(config.NodeConfig{DataDir: dir, StateBackend: config.StateBackendBolt})
	if err != nil {
		t.Fatalf("open bolt state: %v", err)
	}
	if _, ok := db.(*storage.BoltDB); !ok {
		t.Fatalf("expected bolt database, got %T", db)
	}
	db.Close()
	if _, err := os.Stat(filepath.Join(dir, "state.bolt")); err != nil {
		t.Fatalf("expected bolt file: %v", err)
	}

	db, err = openState(config.NodeConfig{DataDir: dir, StateBackend: config.StateBackendLevelDB})
	if err != nil {
		t.Fatalf("open leveldb state: %v", err)
	}
	defer db.Close()
	if _, ok := db.(*storage.LevelDB); !ok {
		t.Fatalf("expected leveldb database, got %T", db)
	}
}

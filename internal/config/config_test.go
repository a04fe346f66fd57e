package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFileDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv(MongoURIEnv, "")

	cfg, err := LoadFile(filepath.Join(home, "missing.toml"), home)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.ExportRoot != filepath.Join(home, "chat-exports") {
		t.Errorf("ExportRoot = %s", cfg.ExportRoot)
	}
	if cfg.Mongo.Enabled() {
		t.Error("mongo should be disabled without a uri")
	}
	if cfg.Mongo.Attempts != 3 || cfg.Mongo.RetryDelay != 5*time.Second {
		t.Errorf("retry policy = %d / %s", cfg.Mongo.Attempts, cfg.Mongo.RetryDelay)
	}
}

func TestLoadFileOverrides(t *testing.T) {
	home := t.TempDir()
	cfgPath := filepath.Join(home, "config.toml")
	body := `export_root = "~/exports"
db_path = "/tmp/x.db"
log_level = "debug"

[mongo]
uri = "mongodb://file"
attempts = 0
retry_delay = "250ms"

[server]
addr = ":9000"
`
	if err := os.WriteFile(cfgPath, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(MongoURIEnv, "mongodb://env")

	cfg, err := LoadFile(cfgPath, home)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.ExportRoot != filepath.Join(home, "exports") {
		t.Errorf("ExportRoot = %s", cfg.ExportRoot)
	}
	if cfg.DBPath != "/tmp/x.db" || cfg.LogLevel != "debug" || cfg.Server.Addr != ":9000" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Mongo.URI != "mongodb://env" {
		t.Errorf("URI = %s, want env override", cfg.Mongo.URI)
	}
	if cfg.Mongo.Attempts != 1 {
		t.Errorf("Attempts = %d, want clamp to 1", cfg.Mongo.Attempts)
	}
	if cfg.Mongo.RetryDelay != 250*time.Millisecond {
		t.Errorf("RetryDelay = %s", cfg.Mongo.RetryDelay)
	}
	if cfg.Mongo.Database != "chat_data" {
		t.Errorf("Database = %s, want default kept", cfg.Mongo.Database)
	}
}

func TestLoadFileBadTOML(t *testing.T) {
	home := t.TempDir()
	cfgPath := filepath.Join(home, "config.toml")
	if err := os.WriteFile(cfgPath, []byte("export_root = ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(cfgPath, home); err == nil {
		t.Fatal("expected parse error")
	}
}

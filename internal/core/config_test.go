package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig() returned an unexpected error: %v", err)
	}

	if cfg.Port != 5555 {
		t.Errorf("Port want = %d, got = %d", 5555, cfg.Port)
	}
	if cfg.Ledger.Engine != "file" {
		t.Errorf("Ledger.Engine want = %s, got = %s", "file", cfg.Ledger.Engine)
	}
	if cfg.WriteTimeout != 10*time.Second {
		t.Errorf("WriteTimeout want = %v, got = %v", 10*time.Second, cfg.WriteTimeout)
	}
	if cfg.WebsocketAddress() != "" {
		t.Errorf("WebsocketAddress() want empty, got = %s", cfg.WebsocketAddress())
	}
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	contents := []byte(`
hostname: 127.0.0.1
port: 6000
websocket_port: 6001
write_timeout: 250ms
ledger:
  engine: sqlite
  path: scores.db
logging:
  log_level: debug
`)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), contents, 0644); err != nil {
		t.Fatalf("error writing test config: %v", err)
	}

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig() returned an unexpected error: %v", err)
	}

	if got := cfg.ListenAddress(); got != "127.0.0.1:6000" {
		t.Errorf("ListenAddress() want = %s, got = %s", "127.0.0.1:6000", got)
	}
	if got := cfg.WebsocketAddress(); got != "127.0.0.1:6001" {
		t.Errorf("WebsocketAddress() want = %s, got = %s", "127.0.0.1:6001", got)
	}
	if cfg.WriteTimeout != 250*time.Millisecond {
		t.Errorf("WriteTimeout want = %v, got = %v", 250*time.Millisecond, cfg.WriteTimeout)
	}
	if cfg.Logging.LogLevel != "debug" {
		t.Errorf("Logging.LogLevel want = %s, got = %s", "debug", cfg.Logging.LogLevel)
	}
	if got := cfg.QualifiedPath(cfg.Ledger.Path); got != filepath.Join(dir, "scores.db") {
		t.Errorf("QualifiedPath() want = %s, got = %s", filepath.Join(dir, "scores.db"), got)
	}
	// Fields not present in the file keep their defaults.
	if cfg.MaxHandleLength != 24 {
		t.Errorf("MaxHandleLength want = %d, got = %d", 24, cfg.MaxHandleLength)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("CONNECT4_LEDGER_ENGINE", "postgres")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig() returned an unexpected error: %v", err)
	}
	if cfg.Ledger.Engine != "postgres" {
		t.Errorf("Ledger.Engine want = %s, got = %s", "postgres", cfg.Ledger.Engine)
	}
}

func TestConfig_DatabaseURL(t *testing.T) {
	cfg := &Config{}
	cfg.Database.Host = "localhost"
	cfg.Database.Port = 5432
	cfg.Database.Name = "testdb"
	cfg.Database.Username = "testuser"
	cfg.Database.Password = "testpassword"

	url := cfg.DatabaseURL()
	expected := "host=localhost port=5432 dbname=testdb user=testuser password=testpassword sslmode="
	if url != expected {
		t.Errorf("DatabaseURL() want = %s, got = %s", expected, url)
	}
}

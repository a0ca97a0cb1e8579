package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}

	if len(cfg.WebSocket.AllowedOrigins) != 0 {
		t.Errorf("expected empty allowed origins by default, got %v", cfg.WebSocket.AllowedOrigins)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("expected addr :8080, got %s", cfg.HTTP.Addr)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.SQLitePath == "" {
		t.Errorf("expected sqlite defaults, got %+v", cfg.Database)
	}
	if !cfg.Game.FallbackEnabled || !cfg.Game.RequireSetup {
		t.Errorf("expected fallback and setup gating on by default, got %+v", cfg.Game)
	}
	if cfg.Telemetry.Enabled {
		t.Error("expected telemetry off by default")
	}
}

func TestLoadConfig_FileNotExists(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.yaml")

	if err != nil {
		t.Errorf("expected no error for missing file, got %v", err)
	}

	if cfg == nil {
		t.Fatal("expected default config for missing file, got nil")
	}

	if cfg.WebSocket.MaxMessageSize != 8192 {
		t.Errorf("expected default max message size, got %d", cfg.WebSocket.MaxMessageSize)
	}
}

func TestLoadConfig_ValidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "server.yaml")

	content := `
http:
  addr: "127.0.0.1:9000"
websocket:
  allowed_origins:
    - "https://example.com"
    - "http://localhost:3000"
  max_message_size: 4096
database:
  driver: postgres
  postgres:
    host: db.internal
    user: chronicle
    database: chronicle
game:
  fallback_enabled: false
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTP.Addr != "127.0.0.1:9000" {
		t.Errorf("expected addr from file, got %s", cfg.HTTP.Addr)
	}
	if len(cfg.WebSocket.AllowedOrigins) != 2 || cfg.WebSocket.AllowedOrigins[0] != "https://example.com" {
		t.Errorf("unexpected allowed origins %v", cfg.WebSocket.AllowedOrigins)
	}
	if cfg.WebSocket.MaxMessageSize != 4096 {
		t.Errorf("expected max message size 4096, got %d", cfg.WebSocket.MaxMessageSize)
	}
	if cfg.Database.Driver != "postgres" || cfg.Database.Postgres.Host != "db.internal" {
		t.Errorf("unexpected database config %+v", cfg.Database)
	}
	// Fields not in the file keep their defaults.
	if cfg.Database.Postgres.Port != 5432 || cfg.Database.Postgres.SSLMode != "disable" {
		t.Errorf("expected postgres defaults to survive, got %+v", cfg.Database.Postgres)
	}
	if cfg.Game.FallbackEnabled {
		t.Error("expected fallback disabled by file")
	}
	if !cfg.Game.RequireSetup {
		t.Error("expected require_setup default to survive")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "server.yaml")
	if err := os.WriteFile(configPath, []byte("http: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(configPath)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if cfg == nil || cfg.HTTP.Addr != ":8080" {
		t.Errorf("expected defaults alongside the error, got %+v", cfg)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("CHRONICLE_HTTP_ADDR", ":7070")
	t.Setenv("CHRONICLE_DB_DRIVER", "postgres")
	t.Setenv("CHRONICLE_PG_HOST", "pg.example")
	t.Setenv("CHRONICLE_PG_PORT", "6543")
	t.Setenv("CHRONICLE_WS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("CHRONICLE_FALLBACK_ENABLED", "false")
	t.Setenv("CHRONICLE_TELEMETRY_ENABLED", "true")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTP.Addr != ":7070" {
		t.Errorf("expected addr override, got %s", cfg.HTTP.Addr)
	}
	if cfg.Database.Driver != "postgres" || cfg.Database.Postgres.Host != "pg.example" || cfg.Database.Postgres.Port != 6543 {
		t.Errorf("unexpected database overrides %+v", cfg.Database)
	}
	if len(cfg.WebSocket.AllowedOrigins) != 2 || cfg.WebSocket.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("unexpected origins %v", cfg.WebSocket.AllowedOrigins)
	}
	if cfg.Game.FallbackEnabled || !cfg.Telemetry.Enabled {
		t.Errorf("expected boolean overrides, got game=%+v telemetry=%+v", cfg.Game, cfg.Telemetry)
	}
}

func TestLoadConfig_InvalidEnv(t *testing.T) {
	t.Setenv("CHRONICLE_PG_PORT", "not-a-port")

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for invalid env value")
	}
}

func TestStorageConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Database.Postgres.User = "chronicle"
	cfg.Database.Postgres.Database = "chronicle"

	sc := cfg.Database.StorageConfig()
	if sc.Driver != "sqlite" || sc.SQLitePath != cfg.Database.SQLitePath {
		t.Errorf("unexpected storage config %+v", sc)
	}
	if sc.Postgres.ConnMaxLifetime != 5*time.Minute {
		t.Errorf("expected 5m lifetime, got %v", sc.Postgres.ConnMaxLifetime)
	}
	want := "host=localhost port=5432 user=chronicle password= dbname=chronicle sslmode=disable"
	if sc.Postgres.DSN() != want {
		t.Errorf("DSN() = %q, want %q", sc.Postgres.DSN(), want)
	}
}

func TestIsOriginAllowed(t *testing.T) {
	sameOrigin := WebSocketConfig{}
	listed := WebSocketConfig{AllowedOrigins: []string{"https://chronicle.example", "http://localhost:3000/"}}
	anyone := WebSocketConfig{AllowedOrigins: []string{"*"}}

	tests := []struct {
		name   string
		cfg    WebSocketConfig
		origin string
		host   string
		want   bool
	}{
		{"no origin header", sameOrigin, "", "localhost:8080", true},
		{"no origin header with list", listed, "", "localhost:8080", true},
		{"same host", sameOrigin, "http://localhost:8080", "localhost:8080", true},
		{"same host other scheme", sameOrigin, "https://localhost:8080", "localhost:8080", true},
		{"same host trailing slash", sameOrigin, "http://localhost:8080/", "localhost:8080", true},
		{"same host mixed case", sameOrigin, "http://LocalHost:8080", "localhost:8080", true},
		{"other port", sameOrigin, "http://localhost:3000", "localhost:8080", false},
		{"other host", sameOrigin, "http://evil.example", "localhost:8080", false},
		{"garbage origin", sameOrigin, "localhost:8080", "localhost:8080", false},
		{"listed", listed, "https://chronicle.example", "api.internal:8080", true},
		{"listed ignores trailing slash", listed, "http://localhost:3000", "localhost:8080", true},
		{"listed rejects port variant", listed, "https://chronicle.example:8443", "localhost:8080", false},
		{"listed rejects own host", listed, "http://localhost:8080", "localhost:8080", false},
		{"wildcard", anyone, "http://anything.example", "localhost:8080", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.IsOriginAllowed(tt.origin, tt.host); got != tt.want {
				t.Errorf("IsOriginAllowed(%q, %q) = %v, want %v", tt.origin, tt.host, got, tt.want)
			}
		})
	}
}

package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/chronicle/internal/database"
)

// ServerConfig is the whole of data/server.yaml after environment overrides.
type ServerConfig struct {
	HTTP        HTTPConfig        `yaml:"http"`
	WebSocket   WebSocketConfig   `yaml:"websocket"`
	Connections ConnectionsConfig `yaml:"connections"`
	Database    DatabaseConfig    `yaml:"database"`
	Game        GameConfig        `yaml:"game"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
}

// HTTPConfig holds the listener settings.
type HTTPConfig struct {
	Addr string `yaml:"addr" env:"CHRONICLE_HTTP_ADDR"`

	// ShutdownSeconds bounds how long in-flight requests may run after a
	// shutdown signal.
	ShutdownSeconds int `yaml:"shutdown_seconds" env:"CHRONICLE_HTTP_SHUTDOWN_SECONDS"`
}

// ConnectionsConfig caps open play channels. Zero lifts a cap.
type ConnectionsConfig struct {
	MaxPerIP int `yaml:"max_per_ip" env:"CHRONICLE_MAX_CONNECTIONS_PER_IP"`
	MaxTotal int `yaml:"max_total" env:"CHRONICLE_MAX_CONNECTIONS"`
}

// WebSocketConfig governs the play channel.
type WebSocketConfig struct {
	// AllowedOrigins lists browser origins such as "https://chronicle.example".
	// Empty means same-origin only, "*" means any.
	AllowedOrigins []string `yaml:"allowed_origins" env:"CHRONICLE_WS_ALLOWED_ORIGINS" envSeparator:","`

	// MaxMessageSize bounds one inbound frame, in bytes.
	MaxMessageSize int64 `yaml:"max_message_size" env:"CHRONICLE_WS_MAX_MESSAGE_SIZE"`
}

// DatabaseConfig selects and configures the storage backend.
type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver     string         `yaml:"driver" env:"CHRONICLE_DB_DRIVER"`
	SQLitePath string         `yaml:"sqlite_path" env:"CHRONICLE_SQLITE_PATH"`
	Postgres   PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host" env:"CHRONICLE_PG_HOST"`
	Port     int    `yaml:"port" env:"CHRONICLE_PG_PORT"`
	User     string `yaml:"user" env:"CHRONICLE_PG_USER"`
	Password string `yaml:"password" env:"CHRONICLE_PG_PASSWORD"`
	Database string `yaml:"database" env:"CHRONICLE_PG_DATABASE"`
	SSLMode  string `yaml:"sslmode" env:"CHRONICLE_PG_SSLMODE"`

	MaxOpenConns           int `yaml:"max_open_conns" env:"CHRONICLE_PG_MAX_OPEN_CONNS"`
	MaxIdleConns           int `yaml:"max_idle_conns" env:"CHRONICLE_PG_MAX_IDLE_CONNS"`
	ConnMaxLifetimeMinutes int `yaml:"conn_max_lifetime_minutes" env:"CHRONICLE_PG_CONN_MAX_LIFETIME_MINUTES"`
}

// GameConfig holds play settings.
type GameConfig struct {
	// PromptsFile is the YAML prompt data seeded into the database at startup.
	PromptsFile string `yaml:"prompts_file" env:"CHRONICLE_PROMPTS_FILE"`

	// FallbackEnabled resolves prompts without rule-table actions by
	// matching phrases in the prompt text.
	FallbackEnabled bool `yaml:"fallback_enabled" env:"CHRONICLE_FALLBACK_ENABLED"`

	// RequireSetup refuses turns until character setup is complete.
	RequireSetup bool `yaml:"require_setup" env:"CHRONICLE_REQUIRE_SETUP"`
}

// TelemetryConfig controls OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled" env:"CHRONICLE_TELEMETRY_ENABLED"`
	ServiceName string `yaml:"service_name" env:"OTEL_SERVICE_NAME"`
}

// DefaultConfig is a same-origin SQLite setup listening on :8080.
func DefaultConfig() *ServerConfig {
	pg := database.DefaultPostgresConfig()
	return &ServerConfig{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ShutdownSeconds: 10,
		},
		WebSocket: WebSocketConfig{
			AllowedOrigins: []string{},
			MaxMessageSize: 8192,
		},
		Connections: ConnectionsConfig{
			MaxPerIP: 3,
			MaxTotal: 100,
		},
		Database: DatabaseConfig{
			Driver:     "sqlite",
			SQLitePath: "data/chronicle.db",
			Postgres: PostgresConfig{
				Host:                   pg.Host,
				Port:                   pg.Port,
				SSLMode:                pg.SSLMode,
				MaxOpenConns:           pg.MaxOpenConns,
				MaxIdleConns:           pg.MaxIdleConns,
				ConnMaxLifetimeMinutes: int(pg.ConnMaxLifetime / time.Minute),
			},
		},
		Game: GameConfig{
			PromptsFile:     "data/prompts.yaml",
			FallbackEnabled: true,
			RequireSetup:    true,
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			ServiceName: "chronicle",
		},
	}
}

// LoadConfig loads server configuration from a YAML file and then applies
// environment overrides. A missing file yields the defaults.
func LoadConfig(path string) (*ServerConfig, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, config); err != nil {
			return DefaultConfig(), fmt.Errorf("parse config %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return config, err
	}

	if err := env.Parse(config); err != nil {
		return config, fmt.Errorf("parse env: %w", err)
	}
	return config, nil
}

// StorageConfig converts the database section into the storage layer's config.
func (c *DatabaseConfig) StorageConfig() database.Config {
	return database.Config{
		Driver:     c.Driver,
		SQLitePath: c.SQLitePath,
		Postgres: database.PostgresConfig{
			Host:            c.Postgres.Host,
			Port:            c.Postgres.Port,
			User:            c.Postgres.User,
			Password:        c.Postgres.Password,
			Database:        c.Postgres.Database,
			SSLMode:         c.Postgres.SSLMode,
			MaxOpenConns:    c.Postgres.MaxOpenConns,
			MaxIdleConns:    c.Postgres.MaxIdleConns,
			ConnMaxLifetime: time.Duration(c.Postgres.ConnMaxLifetimeMinutes) * time.Minute,
		},
	}
}

// IsOriginAllowed decides whether a browser at origin may open a play
// channel on requestHost. An empty allow list admits the page's own host
// only; "*" admits everyone. A request without an Origin header is not from
// a browser and is admitted.
func (c *WebSocketConfig) IsOriginAllowed(origin, requestHost string) bool {
	if origin == "" {
		return true
	}
	if len(c.AllowedOrigins) == 0 {
		return isSameOrigin(origin, requestHost)
	}
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(strings.TrimSuffix(allowed, "/"), strings.TrimSuffix(origin, "/")) {
			return true
		}
	}
	return false
}

func isSameOrigin(origin, requestHost string) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.EqualFold(u.Host, requestHost)
}

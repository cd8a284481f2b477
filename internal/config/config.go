package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileEnv names the optional YAML file applied before env overrides
const FileEnv = "CONSOLE_CONFIG"

// Config holds all configuration for the rounds console
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	API      APIConfig      `yaml:"api"`
	Redis    RedisConfig    `yaml:"redis"`
	Database DatabaseConfig `yaml:"database"`
	Session  SessionConfig  `yaml:"session"`
	Reports  ReportsConfig  `yaml:"reports"`
	Mirror   MirrorConfig   `yaml:"mirror"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// APIConfig points at the rounds backend
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// RedisConfig holds Redis configuration. An empty address keeps sessions
// in process memory.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// DatabaseConfig holds the catalog mirror database. An empty DSN keeps the
// mirror in process memory.
type DatabaseConfig struct {
	DSN           string `yaml:"dsn"`
	MigrationsDir string `yaml:"migrations_dir"`
}

// SessionConfig holds the console session cookie settings
type SessionConfig struct {
	CookieName string        `yaml:"cookie_name"`
	TTL        time.Duration `yaml:"ttl"`
	Secure     bool          `yaml:"secure"`
}

// ReportsConfig holds the report catalog location
type ReportsConfig struct {
	Dir string `yaml:"dir"`
}

// MirrorConfig holds the catalog sync worker configuration
type MirrorConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
	Token    string        `yaml:"token"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			AllowedOrigins:  []string{"http://localhost:5173"},
			ShutdownTimeout: 30 * time.Second,
		},
		API: APIConfig{
			BaseURL: "http://localhost:3000",
			Timeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			MigrationsDir: "./migrations",
		},
		Session: SessionConfig{
			CookieName: "rounds_session",
			TTL:        12 * time.Hour,
		},
		Reports: ReportsConfig{
			Dir: "./reports",
		},
		Mirror: MirrorConfig{
			Interval: 15 * time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from defaults, the optional CONSOLE_CONFIG file
// and environment variables, in that order
func Load() (*Config, error) {
	return LoadFile(os.Getenv(FileEnv))
}

// LoadFile is Load with an explicit YAML file; an empty path skips it
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnvAsInt("SERVER_PORT", c.Server.Port)
	c.Server.AllowedOrigins = getEnvAsList("ALLOWED_ORIGINS", c.Server.AllowedOrigins)
	c.Server.ShutdownTimeout = getEnvAsDuration("SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.API.BaseURL = getEnv("API_BASE_URL", c.API.BaseURL)
	c.API.Timeout = getEnvAsDuration("API_TIMEOUT", c.API.Timeout)

	c.Redis.Address = getEnv("REDIS_ADDRESS", c.Redis.Address)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvAsInt("REDIS_DB", c.Redis.DB)

	c.Database.DSN = getEnv("DATABASE_DSN", c.Database.DSN)
	c.Database.MigrationsDir = getEnv("MIGRATIONS_DIR", c.Database.MigrationsDir)

	c.Session.CookieName = getEnv("SESSION_COOKIE", c.Session.CookieName)
	c.Session.TTL = getEnvAsDuration("SESSION_TTL", c.Session.TTL)
	c.Session.Secure = getEnvAsBool("SESSION_SECURE", c.Session.Secure)

	c.Reports.Dir = getEnv("REPORTS_DIR", c.Reports.Dir)

	c.Mirror.Enabled = getEnvAsBool("MIRROR_ENABLED", c.Mirror.Enabled)
	c.Mirror.Interval = getEnvAsDuration("MIRROR_INTERVAL", c.Mirror.Interval)
	c.Mirror.Token = getEnv("MIRROR_TOKEN", c.Mirror.Token)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid API base URL: %q", c.API.BaseURL)
	}

	if c.Session.CookieName == "" {
		return fmt.Errorf("session cookie name is required")
	}

	if c.Mirror.Enabled && c.Mirror.Token == "" {
		return fmt.Errorf("mirror token is required when the mirror is enabled")
	}

	return nil
}

// SlogLevel maps Log.Level onto slog, defaulting to info
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

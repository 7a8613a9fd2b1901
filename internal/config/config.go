package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/subosito/gotenv"
	"gopkg.in/yaml.v3"

	"github.com/existflow/sitetask/internal/lifecycle"
)

// ServerConfig holds the API server settings
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	Store       string `yaml:"store"` // postgres or memory
	DatabaseURL string `yaml:"database_url"`
	Timezone    string `yaml:"timezone"`

	Auth      AuthConfig      `yaml:"auth"`
	Tasks     TasksConfig     `yaml:"tasks"`
	Log       LogConfig       `yaml:"log"`
	Bootstrap BootstrapConfig `yaml:"bootstrap"`

	Blocks []lifecycle.Block `yaml:"blocks"`
}

// AuthConfig controls sessions and magic links
type AuthConfig struct {
	CookieName       string        `yaml:"cookie_name"`
	CookieSecure     bool          `yaml:"cookie_secure"`
	CookieDomain     string        `yaml:"cookie_domain"`
	SessionTTL       time.Duration `yaml:"session_ttl"`
	MagicLinkTTL     time.Duration `yaml:"magic_link_ttl"`
	ExposeMagicToken bool          `yaml:"expose_magic_token"` // dev only
}

// TasksConfig controls task listing behavior
type TasksConfig struct {
	RecentApprovalWindow time.Duration `yaml:"recent_approval_window"`
}

// LogConfig mirrors logger.Config in file form
type LogConfig struct {
	Level   string `yaml:"level"` // DEBUG, INFO, WARN, ERROR
	File    string `yaml:"file"`  // empty logs to stderr only
	Console bool   `yaml:"console"`
	Format  string `yaml:"format"` // json or console
}

// BootstrapConfig seeds the first admin account
type BootstrapConfig struct {
	AdminEmail    string `yaml:"admin_email"`
	AdminPassword string `yaml:"admin_password"`
}

// DefaultServerConfig returns default settings
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Addr:     ":8080",
		Store:    "postgres",
		Timezone: "Europe/Istanbul",
		Auth: AuthConfig{
			CookieName:   "sitetask_session",
			CookieSecure: true,
			SessionTTL:   30 * 24 * time.Hour,
			MagicLinkTTL: 15 * time.Minute,
		},
		Tasks: TasksConfig{
			RecentApprovalWindow: 72 * time.Hour,
		},
		Log: LogConfig{
			Level:   "INFO",
			Console: true,
			Format:  "json",
		},
		Blocks: lifecycle.DefaultCatalog(),
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

// LoadServer reads .env, then the YAML file at path (SITETASK_CONFIG or
// ./sitetask.yaml when empty), then applies environment overrides.
// A missing file is not an error.
func LoadServer(path string) (*ServerConfig, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if path == "" {
		path = getEnv("SITETASK_CONFIG", "sitetask.yaml")
	}

	cfg := DefaultServerConfig()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ServerConfig) applyEnv() {
	if port := os.Getenv("PORT"); port != "" {
		c.Addr = ":" + port
	}
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.Store = getEnv("SITETASK_STORE", c.Store)
	c.Timezone = getEnv("SITETASK_TZ", c.Timezone)

	c.Log.Level = getEnv("SITETASK_LOG_LEVEL", c.Log.Level)
	c.Log.File = getEnv("SITETASK_LOG_FILE", c.Log.File)
	c.Log.Format = getEnv("SITETASK_LOG_FORMAT", c.Log.Format)
	c.Log.Console = getEnvBool("SITETASK_LOG_CONSOLE", c.Log.Console)

	c.Auth.CookieSecure = getEnvBool("SITETASK_COOKIE_SECURE", c.Auth.CookieSecure)
	c.Auth.ExposeMagicToken = getEnvBool("SITETASK_EXPOSE_MAGIC_TOKEN", c.Auth.ExposeMagicToken)

	c.Bootstrap.AdminEmail = getEnv("SITETASK_ADMIN_EMAIL", c.Bootstrap.AdminEmail)
	c.Bootstrap.AdminPassword = getEnv("SITETASK_ADMIN_PASSWORD", c.Bootstrap.AdminPassword)
}

// Validate checks settings that would otherwise fail at first use
func (c *ServerConfig) Validate() error {
	switch c.Store {
	case "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store %q: want postgres or memory", c.Store)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Auth.SessionTTL <= 0 || c.Auth.MagicLinkTTL <= 0 {
		return fmt.Errorf("auth ttls must be positive")
	}
	if c.Tasks.RecentApprovalWindow <= 0 {
		return fmt.Errorf("tasks.recent_approval_window must be positive")
	}
	return nil
}

// Location resolves the configured time zone
func (c *ServerConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Catalog returns the configured block catalog
func (c *ServerConfig) Catalog() lifecycle.Catalog {
	return lifecycle.Catalog(c.Blocks)
}

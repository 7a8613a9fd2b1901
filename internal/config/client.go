package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ClientConfig holds CLI and TUI preferences plus the saved session
type ClientConfig struct {
	ServerURL string `yaml:"server_url"`
	Token     string `yaml:"token,omitempty"`
	UserID    string `yaml:"user_id,omitempty"`
	Email     string `yaml:"email,omitempty"`
	Role      string `yaml:"role,omitempty"`
	CompanyID string `yaml:"company_id,omitempty"`

	Sort           string `yaml:"sort"` // urgency or newest
	PrioritizeLate bool   `yaml:"prioritize_late"`

	// PollInterval is how often the notification watcher checks for approvals
	PollInterval time.Duration `yaml:"poll_interval"`

	// Logging configuration
	LogLevel   string `yaml:"log_level"`
	LogFile    string `yaml:"log_file"`
	LogConsole bool   `yaml:"log_console"`

	path string
}

// Dir returns ~/.sitetask, or SITETASK_HOME when set
func Dir() (string, error) {
	if dir := os.Getenv("SITETASK_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".sitetask"), nil
}

// DefaultClientConfig returns default settings
func DefaultClientConfig() *ClientConfig {
	logPath := ""
	if dir, err := Dir(); err == nil {
		logPath = filepath.Join(dir, "logs", "sitetask.log")
	}

	return &ClientConfig{
		ServerURL:      getEnv("SITETASK_SERVER", "http://localhost:8080"),
		Sort:           "urgency",
		PrioritizeLate: true,
		PollInterval:   30 * time.Second,
		LogLevel:       getEnv("SITETASK_LOG_LEVEL", "INFO"),
		LogFile:        getEnv("SITETASK_LOG_FILE", logPath),
		LogConsole:     getEnvBool("SITETASK_LOG_CONSOLE", false),
	}
}

// LoadClient loads config from client.yaml in Dir
func LoadClient() (*ClientConfig, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return LoadClientFrom(filepath.Join(dir, "client.yaml"))
}

// LoadClientFrom loads config from path, returning defaults when the file
// does not exist yet
func LoadClientFrom(path string) (*ClientConfig, error) {
	cfg := DefaultClientConfig()
	cfg.path = path

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.path = path

	return cfg, nil
}

// Path returns the file the config is saved to
func (c *ClientConfig) Path() string {
	return c.path
}

// Save writes the config back. The file holds a session token, so it is
// created owner-only.
func (c *ClientConfig) Save() error {
	if c.path == "" {
		return fmt.Errorf("config has no path")
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(c.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// IsLoggedIn returns true if a session token is saved
func (c *ClientConfig) IsLoggedIn() bool {
	return c.Token != ""
}

// ClearSession forgets the saved token and identity
func (c *ClientConfig) ClearSession() {
	c.Token = ""
	c.UserID = ""
	c.Email = ""
	c.Role = ""
	c.CompanyID = ""
}

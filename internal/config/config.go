package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultHost is used when neither the config file nor OLLAMA_HOST names an endpoint.
const DefaultHost = "http://localhost:11434"

// DefaultRegistryBase is the public model registry scraped for the install picker.
const DefaultRegistryBase = "https://registry.ollama.ai"

// Config mirrors the YAML schema. Every field has a usable zero/default so the
// file is optional; Validate() rejects only actively wrong values.
type Config struct {
	Version  int       `yaml:"version"`
	Server   Server    `yaml:"server"`
	Registry Registry  `yaml:"registry"`
	UI       UIOptions `yaml:"ui"`
	Logging  Logging   `yaml:"logging"`
}

type Server struct {
	Host           string `yaml:"host"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type Registry struct {
	BaseURL         string `yaml:"base_url"`
	CacheTTLMinutes int    `yaml:"cache_ttl_minutes"`
}

type UIOptions struct {
	// RefreshHz controls how often the pull progress display re-renders
	// while a pull is active. 0 means 4; values above 10 are clamped.
	RefreshHz int `yaml:"refresh_hz"`
}

type Logging struct {
	Level string `yaml:"level"` // debug|info|warn|error
	File  string `yaml:"file"`  // empty disables file logging
}

// Default returns the configuration used when no YAML file exists.
func Default() *Config {
	return &Config{
		Version: 1,
		Server:  Server{Host: DefaultHost, TimeoutSeconds: 30},
		Registry: Registry{
			BaseURL:         DefaultRegistryBase,
			CacheTTLMinutes: 60,
		},
		UI:      UIOptions{RefreshHz: 4},
		Logging: Logging{Level: "error"},
	}
}

// Load reads, parses, expands, and validates a YAML config file.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}
	expanded, err := expandTilde(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(expanded)
	if err != nil {
		return nil, err
	}
	// Expand ${ENV} placeholders before unmarshalling
	b = []byte(os.ExpandEnv(string(b)))
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}
	if c.Logging.File, err = expandTilde(c.Logging.File); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadOrDefault loads path if it exists and falls back to Default() when it
// does not. Any other error (bad YAML, failed validation) is returned.
func LoadOrDefault(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return c, nil
}

// DefaultPath is ~/.config/modeldash/config.yml unless MODELDASH_CONFIG is set.
func DefaultPath() (string, error) {
	if env := strings.TrimSpace(os.Getenv("MODELDASH_CONFIG")); env != "" {
		return env, nil
	}
	h, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(h, ".config", "modeldash", "config.yml"), nil
}

// HostURL resolves the runtime endpoint: OLLAMA_HOST wins over the config
// file, which wins over the built-in default.
func (c *Config) HostURL() string {
	if env := strings.TrimSpace(os.Getenv("OLLAMA_HOST")); env != "" {
		return normalizeHost(env)
	}
	if h := strings.TrimSpace(c.Server.Host); h != "" {
		return normalizeHost(h)
	}
	return DefaultHost
}

// Timeout returns the per-request network timeout.
func (c *Config) Timeout() time.Duration {
	if c.Server.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Server.TimeoutSeconds) * time.Second
}

// RegistryBase returns the registry base URL without a trailing slash.
func (c *Config) RegistryBase() string {
	b := strings.TrimSpace(c.Registry.BaseURL)
	if b == "" {
		b = DefaultRegistryBase
	}
	return strings.TrimRight(b, "/")
}

func (c *Config) Validate() error {
	if c.Version != 1 {
		return fmt.Errorf("unsupported config version: %d", c.Version)
	}
	if c.Server.TimeoutSeconds < 0 {
		return errors.New("server.timeout_seconds must be >= 0")
	}
	if c.Registry.CacheTTLMinutes < 0 {
		return errors.New("registry.cache_ttl_minutes must be >= 0")
	}
	if c.UI.RefreshHz < 0 {
		return errors.New("ui.refresh_hz must be >= 0")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
		// ok
	default:
		return fmt.Errorf("logging.level invalid: %s", c.Logging.Level)
	}
	return nil
}

func normalizeHost(h string) string {
	if !strings.HasPrefix(h, "http://") && !strings.HasPrefix(h, "https://") {
		h = "http://" + h
	}
	return strings.TrimRight(h, "/")
}

func expandTilde(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if p[0] != '~' {
		return p, nil
	}
	h, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if p == "~" {
		return h, nil
	}
	return filepath.Join(h, p[2:]), nil
}

// ABOUTME: Configuration loading for the memvault CLI
// ABOUTME: Loads TOML config from XDG path with environment variable expansion

package main

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Vault   VaultConfig   `toml:"vault"`
	Client  ClientConfig  `toml:"client"`
	Archive ArchiveConfig `toml:"archive"`
	Logging LoggingConfig `toml:"logging"`
}

type VaultConfig struct {
	Endpoint              string `toml:"endpoint"`
	APIKey                string `toml:"api_key"`
	UserID                string `toml:"user_id"`
	TimeoutSeconds        int    `toml:"timeout_seconds"`
	InsecureSkipTLSVerify bool   `toml:"insecure_skip_tls_verify"`
}

type ClientConfig struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

type ArchiveConfig struct {
	Path string `toml:"path"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

// getConfigPath returns the config file location.
// Priority: MEMVAULT_CONFIG env var > XDG_CONFIG_HOME/memvault/config.toml > ~/.config/memvault/config.toml
func getConfigPath() string {
	if envPath := os.Getenv("MEMVAULT_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "memvault", "config.toml")
}

// defaultArchivePath returns the archive database location.
// Priority: XDG_DATA_HOME/memvault > ~/.local/share/memvault
func defaultArchivePath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "archive.db" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "memvault", "archive.db")
}

// Load reads config from the given path, expanding environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables (${VAR} syntax)
	expanded := expandEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(expanded, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Archive.Path == "" {
		cfg.Archive.Path = defaultArchivePath()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR} with environment variable values.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		return os.Getenv(varName)
	})
}

// Validate checks that required config fields are present and valid.
func (c *Config) Validate() error {
	if c.Vault.Endpoint == "" {
		return fmt.Errorf("vault.endpoint is required")
	}
	u, err := url.Parse(c.Vault.Endpoint)
	if err != nil {
		return fmt.Errorf("vault.endpoint is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("vault.endpoint must use http or https scheme")
	}
	if c.Vault.APIKey == "" {
		return fmt.Errorf("vault.api_key is required")
	}
	if c.Vault.UserID == "" {
		return fmt.Errorf("vault.user_id is required")
	}
	return nil
}

// Timeout returns the configured request timeout, or zero for the
// transport default.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Vault.TimeoutSeconds) * time.Second
}

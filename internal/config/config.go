// Package config loads saeview configuration from a YAML file and
// environment variables, and sets up logging.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration values.
type Config struct {
	// Artifact sources
	SourceURL string `yaml:"source_url"` // default remote artifact
	DataDir   string `yaml:"data_dir"`   // directory served by saeview-server

	// HTTP
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	ServerPort  string        `yaml:"server_port"`

	// Logging
	LogFile  string     `yaml:"log_file"`
	LogLevel slog.Level `yaml:"-"`

	// String form of LogLevel for the YAML file.
	LogLevelName string `yaml:"log_level"`
}

// Load reads configuration from the optional YAML file (SAEVIEW_CONFIG or
// ~/.config/saeview/config.yaml), then applies environment variables on
// top. Env takes precedence over file, file over defaults.
func Load() (Config, error) {
	cfg := Config{
		SourceURL:   "http://localhost:8787/data/feature_windows_enhanced.json.gz",
		DataDir:     "data",
		HTTPTimeout: 5 * time.Minute,
		ServerPort:  "8787",
		LogFile:     filepath.Join(os.TempDir(), "saeview.log"),
		LogLevel:    slog.LevelInfo,
	}

	if err := cfg.applyFile(configPath()); err != nil {
		return cfg, err
	}
	cfg.applyEnv()
	return cfg, nil
}

func configPath() string {
	if p := os.Getenv("SAEVIEW_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "saeview", "config.yaml")
}

func (c *Config) applyFile(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if c.LogLevelName != "" {
		c.LogLevel = parseLogLevel(c.LogLevelName)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("SAEVIEW_SOURCE_URL"); v != "" {
		c.SourceURL = v
	}
	if v := os.Getenv("SAEVIEW_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("SAEVIEW_HTTP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.HTTPTimeout = d
		}
	}
	if v := os.Getenv("SAEVIEW_SERVER_PORT"); v != "" {
		c.ServerPort = v
	}
	if v := os.Getenv("SAEVIEW_LOG_FILE"); v != "" {
		c.LogFile = v
	}
	if v := os.Getenv("SAEVIEW_LOG_LEVEL"); v != "" {
		c.LogLevel = parseLogLevel(v)
	}
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

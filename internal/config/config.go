// Package config loads the gateway configuration from an optional YAML
// file with environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when the config file or a field is absent.
const (
	DefaultListen         = "127.0.0.1:8080"
	DefaultDatabaseDSN    = "guestbook.db"
	DefaultPrinterURL     = "http://127.0.0.1:8765/print"
	DefaultPrinterTimeout = 5 * time.Second
	DefaultDailyLimit     = 30
)

// EnvDailyLimit overrides the configured daily limit, matching the
// deployment convention of setting DAILY_LIMIT in the service environment.
const EnvDailyLimit = "DAILY_LIMIT"

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level      string `yaml:"level"`        // logrus level name; default info.
	File       string `yaml:"file"`         // Empty logs to stderr.
	MaxSizeMB  int    `yaml:"max-size-mb"`  // Rotation threshold when File is set.
	MaxBackups int    `yaml:"max-backups"`  // Rotated files to keep.
	MaxAgeDays int    `yaml:"max-age-days"` // Days to keep rotated files.
	Compress   bool   `yaml:"compress"`     // Gzip rotated files.
}

// Config is the full gateway configuration.
type Config struct {
	Listen                string        `yaml:"listen"`
	DatabaseDSN           string        `yaml:"database-dsn"`
	PrinterURL            string        `yaml:"printer-url"`
	PrinterTimeoutSeconds int           `yaml:"printer-timeout-seconds"`
	DailyLimit            int           `yaml:"daily-limit"`
	TrustedProxies        []string      `yaml:"trusted-proxies"`
	Logging               LoggingConfig `yaml:"logging"`
}

// PrinterTimeout returns the sink request timeout.
func (c *Config) PrinterTimeout() time.Duration {
	if c.PrinterTimeoutSeconds <= 0 {
		return DefaultPrinterTimeout
	}
	return time.Duration(c.PrinterTimeoutSeconds) * time.Second
}

// Load reads the config file at path, fills defaults, and applies
// environment overrides. A missing file is not an error; the defaults
// describe a complete single-host deployment.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Listen:      DefaultListen,
		DatabaseDSN: DefaultDatabaseDSN,
		PrinterURL:  DefaultPrinterURL,
		DailyLimit:  DefaultDailyLimit,
	}

	if path != "" {
		data, errRead := os.ReadFile(path)
		switch {
		case errRead == nil:
			if errUnmarshal := yaml.Unmarshal(data, cfg); errUnmarshal != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, errUnmarshal)
			}
		case os.IsNotExist(errRead):
			// Defaults stand.
		default:
			return nil, fmt.Errorf("config: read %s: %w", path, errRead)
		}
	}

	if raw := strings.TrimSpace(os.Getenv(EnvDailyLimit)); raw != "" {
		limit, errParse := strconv.Atoi(raw)
		if errParse != nil || limit <= 0 {
			return nil, fmt.Errorf("config: invalid %s: %q", EnvDailyLimit, raw)
		}
		cfg.DailyLimit = limit
	}

	if strings.TrimSpace(cfg.Listen) == "" {
		cfg.Listen = DefaultListen
	}
	if strings.TrimSpace(cfg.DatabaseDSN) == "" {
		cfg.DatabaseDSN = DefaultDatabaseDSN
	}
	if strings.TrimSpace(cfg.PrinterURL) == "" {
		cfg.PrinterURL = DefaultPrinterURL
	}
	if cfg.DailyLimit <= 0 {
		cfg.DailyLimit = DefaultDailyLimit
	}

	return cfg, nil
}

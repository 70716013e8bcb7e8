// Package config handles configuration for ad-console.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is where `ad-console install` writes the config.
const DefaultConfigFile = "/etc/ad-console/config.yaml"

// Config holds all ad-console configuration. Durations are plain
// seconds in the file and environment.
type Config struct {
	ListenAddr           string `yaml:"listen_addr"`
	ScriptsDir           string `yaml:"scripts_dir"`
	CORSOrigin           string `yaml:"cors_origin"`
	CacheTTLSeconds      int    `yaml:"cache_ttl_seconds"`
	ScriptTimeoutSeconds int    `yaml:"script_timeout_seconds"`
	AuditLogPath         string `yaml:"audit_log_path"`
	LogLevel             string `yaml:"log_level"`
	LogFormat            string `yaml:"log_format"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		ListenAddr:           ":8420",
		CORSOrigin:           "*",
		CacheTTLSeconds:      30,
		ScriptTimeoutSeconds: 8,
		LogLevel:             "info",
		LogFormat:            "text",
	}
}

// CacheTTL returns the listing cache lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// ScriptTimeout returns the per-invocation script deadline.
func (c *Config) ScriptTimeout() time.Duration {
	return time.Duration(c.ScriptTimeoutSeconds) * time.Second
}

// Load reads configuration in layers: defaults, then the YAML file at
// path (skipped silently when absent), then environment variables.
// A .env file in the working directory is folded into the environment
// first, matching how the directory scripts themselves are configured.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()

	// Only the implicit default location may be absent; a path the
	// user named must exist.
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if explicit || !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnv(cfg)

	if cfg.ScriptsDir == "" {
		return nil, fmt.Errorf("scripts_dir is required (ADC_SCRIPTS_DIR or config file)")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ADC_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("ADC_SCRIPTS_DIR"); v != "" {
		cfg.ScriptsDir = v
	}
	if v := os.Getenv("ADC_CORS_ORIGIN"); v != "" {
		cfg.CORSOrigin = v
	}
	if v := os.Getenv("ADC_CACHE_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.CacheTTLSeconds = n
		}
	}
	if v := os.Getenv("ADC_SCRIPT_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ScriptTimeoutSeconds = n
		}
	}
	if v := os.Getenv("ADC_AUDIT_LOG"); v != "" {
		cfg.AuditLogPath = v
	}
	if v := os.Getenv("ADC_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("ADC_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
}

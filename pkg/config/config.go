// Package config provides configuration loading, validation, and defaults for
// the session coordination daemon. It handles YAML config files with
// environment variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when the config file leaves fields unset.
const (
	DefaultSessionsDir          = "sessions"
	DefaultArchivePath          = "studio.db"
	DefaultEventLogDir          = "logs"
	DefaultDialTimeout          = 10 * time.Second
	DefaultWriteWait            = 10 * time.Second
	DefaultReconnectBaseDelay   = time.Second
	DefaultMaxReconnectAttempts = 5
	DefaultMetricsAddr          = ":9090"
)

// TransportConfig tunes the websocket client.
type TransportConfig struct {
	URL                  string        `yaml:"url"`
	DialTimeout          time.Duration `yaml:"dial_timeout"`
	WriteWait            time.Duration `yaml:"write_wait"`
	ReconnectBaseDelay   time.Duration `yaml:"reconnect_base_delay"`
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"`
}

// StorageConfig locates the on-disk state of the daemon.
type StorageConfig struct {
	SessionsDir string `yaml:"sessions_dir"` // Per-session JSON records
	ArchivePath string `yaml:"archive_path"` // SQLite audit database
	EventLogDir string `yaml:"event_log_dir"`
}

// MetricsConfig controls the Prometheus surface. PrometheusURL is optional;
// when set, the status endpoint reads aggregated session metrics back from
// that Prometheus instance.
type MetricsConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Addr          string `yaml:"addr"`
	PrometheusURL string `yaml:"prometheus_url"`
}

// Config is the daemon configuration.
type Config struct {
	Transport TransportConfig `yaml:"transport"`
	Storage   StorageConfig   `yaml:"storage"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads, substitutes, defaults, and validates a YAML config file.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Replace ${VAR} placeholders with environment values; unknown variables
	// are left as-is so validation can flag them.
	dataStr := envVarRegex.ReplaceAllStringFunc(string(data), func(match string) string {
		envVar := match[2 : len(match)-1]
		if value := os.Getenv(envVar); value != "" {
			return value
		}
		return match
	})

	var cfg Config
	if err := yaml.Unmarshal([]byte(dataStr), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Default returns a config with every default applied and no transport URL.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Transport.DialTimeout <= 0 {
		cfg.Transport.DialTimeout = DefaultDialTimeout
	}
	if cfg.Transport.WriteWait <= 0 {
		cfg.Transport.WriteWait = DefaultWriteWait
	}
	if cfg.Transport.ReconnectBaseDelay <= 0 {
		cfg.Transport.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if cfg.Transport.MaxReconnectAttempts <= 0 {
		cfg.Transport.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if cfg.Storage.SessionsDir == "" {
		cfg.Storage.SessionsDir = DefaultSessionsDir
	}
	if cfg.Storage.ArchivePath == "" {
		cfg.Storage.ArchivePath = DefaultArchivePath
	}
	if cfg.Storage.EventLogDir == "" {
		cfg.Storage.EventLogDir = DefaultEventLogDir
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = DefaultMetricsAddr
	}
}

func validate(cfg *Config) error {
	if cfg.Transport.URL == "" {
		return fmt.Errorf("transport.url is required")
	}
	if envVarRegex.MatchString(cfg.Transport.URL) {
		return fmt.Errorf("transport.url references an unset environment variable: %s", cfg.Transport.URL)
	}
	if cfg.Transport.MaxReconnectAttempts < 0 {
		return fmt.Errorf("transport.max_reconnect_attempts cannot be negative")
	}
	return nil
}

// Singleton access for the daemon process. Tests use Load directly.
//
//nolint:gochecknoglobals // Intentional singleton for process-wide config
var (
	globalConfig *Config
	globalMu     sync.RWMutex
)

// Init loads the config file and installs it as the process-wide config.
func Init(configPath string) error {
	cfg, err := Load(configPath)
	if err != nil {
		return err
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	globalConfig = cfg
	return nil
}

// Get returns the process-wide config. Panics if Init has not been called.
func Get() *Config {
	globalMu.RLock()
	defer globalMu.RUnlock()

	if globalConfig == nil {
		panic("config.Init must be called before Get")
	}
	return globalConfig
}

// Set installs a config directly, primarily for tests.
func Set(cfg *Config) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalConfig = cfg
}

// Package config provides configuration management for the Prometheus
// memory & runtime core, handling environment variables and runtime
// settings. File-format parsing (YAML/TOML) is left to callers; this
// package only builds and validates the in-process Config value.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the root configuration for the memory & runtime core.
type Config struct {
	Store   StoreConfig   `json:"store"`
	Queue   QueueConfig   `json:"queue"`
	Runtime RuntimeConfig `json:"runtime"`
	Logging LoggingConfig `json:"logging"`
}

// StoreConfig configures the embedded Store.
type StoreConfig struct {
	// Path is the database file location; directories are created if missing.
	Path string `json:"path"`
	// EmbeddingDim is the fixed vector dimension, set at database creation time.
	EmbeddingDim int `json:"embedding_dim"`
	// ExcludeDirs augments the conventional vendor/VCS exclusion list for index_codebase.
	ExcludeDirs []string `json:"exclude_dirs"`
}

// QueueConfig configures the Lane Queue.
type QueueConfig struct {
	// LaneDefaults maps a lane name prefix to its default max concurrency.
	LaneDefaults map[string]int `json:"lane_defaults"`
	// WarnAfterMs is the default wait-time threshold before on_wait fires.
	WarnAfterMs int64 `json:"warn_after_ms"`
}

// RuntimeConfig configures the Runtime Dispatcher.
type RuntimeConfig struct {
	TaskPreferences        map[string][]string `json:"task_preferences"`
	MaxChainLength         int                 `json:"max_chain_length"`
	AllowedProviders       []string            `json:"allowed_providers"`
	ExcludedProviders      []string            `json:"excluded_providers"`
	CredentialCooldownBase time.Duration       `json:"credential_cooldown_base_ms"`
	CredentialCooldownMax  time.Duration       `json:"credential_cooldown_max_ms"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level string `json:"level"`
	JSON  bool    `json:"json"`
}

// Default returns a Config populated with sane defaults; callers override
// individual fields from environment variables via LoadFromEnv.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Path:         "prometheus.db",
			EmbeddingDim: 1536,
			ExcludeDirs:  []string{".git", "node_modules", "vendor", ".hg", ".svn"},
		},
		Queue: QueueConfig{
			LaneDefaults: map[string]int{
				"main":      1,
				"index":     2,
				"embedding": 4,
				"runtime":   3,
			},
			WarnAfterMs: 2000,
		},
		Runtime: RuntimeConfig{
			TaskPreferences:        map[string][]string{},
			MaxChainLength:         4,
			CredentialCooldownBase: 2 * time.Second,
			CredentialCooldownMax:  5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level: "info",
			JSON:  true,
		},
	}
}

// LoadFromEnv overlays recognized environment variables onto cfg. dotenvPath,
// if non-empty, is loaded first via godotenv to seed provider credentials
// into the process environment; missing files are not an error.
func LoadFromEnv(cfg *Config, dotenvPath string) {
	if dotenvPath != "" {
		_ = godotenv.Load(dotenvPath)
	}

	cfg.Store.Path = getStringEnvWithDefault("PROMETHEUS_DB_PATH", cfg.Store.Path)
	cfg.Store.EmbeddingDim = getIntEnvWithDefault("PROMETHEUS_EMBEDDING_DIM", cfg.Store.EmbeddingDim)
	if extra := os.Getenv("PROMETHEUS_EXCLUDE_DIRS"); extra != "" {
		cfg.Store.ExcludeDirs = append(cfg.Store.ExcludeDirs, strings.Split(extra, ",")...)
	}

	cfg.Queue.WarnAfterMs = getInt64EnvWithDefault("PROMETHEUS_QUEUE_WARN_MS", cfg.Queue.WarnAfterMs)

	cfg.Runtime.MaxChainLength = getIntEnvWithDefault("PROMETHEUS_MAX_CHAIN_LENGTH", cfg.Runtime.MaxChainLength)
	if v := os.Getenv("PROMETHEUS_ALLOWED_PROVIDERS"); v != "" {
		cfg.Runtime.AllowedProviders = strings.Split(v, ",")
	}
	if v := os.Getenv("PROMETHEUS_EXCLUDED_PROVIDERS"); v != "" {
		cfg.Runtime.ExcludedProviders = strings.Split(v, ",")
	}
	cfg.Runtime.CredentialCooldownBase = getDurationMsEnvWithDefault("PROMETHEUS_CRED_COOLDOWN_BASE_MS", cfg.Runtime.CredentialCooldownBase)
	cfg.Runtime.CredentialCooldownMax = getDurationMsEnvWithDefault("PROMETHEUS_CRED_COOLDOWN_MAX_MS", cfg.Runtime.CredentialCooldownMax)

	cfg.Logging.Level = getStringEnvWithDefault("PROMETHEUS_LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.JSON = getBoolEnvWithDefault("PROMETHEUS_LOG_JSON", cfg.Logging.JSON)
}

// Validate checks structural invariants required before Store.Open / engine construction.
func (c *Config) Validate() error {
	if c.Store.Path == "" {
		return fmt.Errorf("store.path must not be empty")
	}
	if c.Store.EmbeddingDim <= 0 {
		return fmt.Errorf("store.embedding_dim must be positive, got %d", c.Store.EmbeddingDim)
	}
	if c.Runtime.MaxChainLength <= 0 {
		return fmt.Errorf("runtime.max_chain_length must be positive, got %d", c.Runtime.MaxChainLength)
	}
	if c.Runtime.CredentialCooldownMax < c.Runtime.CredentialCooldownBase {
		return fmt.Errorf("runtime.credential_cooldown_max_ms must be >= credential_cooldown_base_ms")
	}
	return nil
}

// ConversationsDir returns the conversation log directory derived from the database path.
func (c *Config) ConversationsDir() string {
	return filepath.Join(filepath.Dir(c.Store.Path), "conversations")
}

func getStringEnvWithDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getIntEnvWithDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func getBoolEnvWithDefault(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationMsEnvWithDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.Duration(n) * time.Millisecond
		}
	}
	return defaultValue
}

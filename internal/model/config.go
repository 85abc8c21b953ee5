package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ServerConfig points the sync client at the authoritative report API.
type ServerConfig struct {
	// BaseURL is the root URL of the report service.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds every remote call so a hung server can never
	// wedge an in-flight operation.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// CacheConfig locates the durable local report cache.
type CacheConfig struct {
	// Path is the SQLite database file. ":memory:" is accepted for
	// throwaway sessions.
	Path string `mapstructure:"path" yaml:"path"`
}

// AIConfig holds settings for AI-assisted classification.
type AIConfig struct {
	// Enabled gates live AI calls. When false, suggestions come from
	// the local rule classifier only.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the prediction URL. Empty means the server's
	// /ai/predict endpoint under BaseURL.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// DelayMs is the artificial latency injected before the simulated
	// provider answers.
	DelayMs int `mapstructure:"delay_ms" yaml:"delay_ms"`

	// CredentialKey names the keyring entry holding the provider key.
	CredentialKey string `mapstructure:"credential_key" yaml:"credential_key"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	Cache  CacheConfig  `mapstructure:"cache" yaml:"cache"`
	AI     AIConfig     `mapstructure:"ai" yaml:"ai"`

	// LogFile receives structured logs; the terminal UI owns stdout.
	LogFile string `mapstructure:"log_file" yaml:"log_file"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/civic/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "civic", "config.yaml")
}

// DefaultCachePath returns the default SQLite cache location,
// ~/.local/share/civic/reports.db.
func DefaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "reports.db")
	}
	return filepath.Join(home, ".local", "share", "civic", "reports.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			BaseURL:    "http://localhost:8787",
			TimeoutSec: 10,
		},
		Cache: CacheConfig{
			Path: DefaultCachePath(),
		},
		AI: AIConfig{
			Enabled:       false,
			DelayMs:       500,
			CredentialKey: "ai_api_key",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("server.base_url", "http://localhost:8787")
	v.SetDefault("server.timeout_sec", 10)
	v.SetDefault("cache.path", DefaultCachePath())
	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.delay_ms", 500)
	v.SetDefault("ai.credential_key", "ai_api_key")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Server.TimeoutSec <= 0 {
		cfg.Server.TimeoutSec = 10
	}
	if cfg.AI.DelayMs < 0 {
		cfg.AI.DelayMs = 0
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("server", cfg.Server)
	v.Set("cache", cfg.Cache)
	v.Set("ai", cfg.AI)
	v.Set("log_file", cfg.LogFile)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

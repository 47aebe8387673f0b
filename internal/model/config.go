package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// BackendConfig describes how to reach the native backend process.
type BackendConfig struct {
	// Command is the backend executable spawned by the client; the two
	// sides speak newline-delimited JSON-RPC over its stdio.
	Command string `mapstructure:"command" yaml:"command"`

	// Args are passed to Command.
	Args []string `mapstructure:"args" yaml:"args"`

	// Socket, when set, dials a unix socket instead of spawning Command.
	Socket string `mapstructure:"socket" yaml:"socket"`
}

// StoreConfig tunes the mail store's fetch and coalescing behavior.
type StoreConfig struct {
	// PageSize is the number of rows requested per list page.
	PageSize int `mapstructure:"page_size" yaml:"page_size"`

	// ReconcileDebounceMs is the quiet window after the last
	// emails-updated event before a reconciliation pass runs.
	ReconcileDebounceMs int `mapstructure:"reconcile_debounce_ms" yaml:"reconcile_debounce_ms"`

	// AutosaveDebounceMs is the quiet window after the last composer
	// edit before the draft is autosaved.
	AutosaveDebounceMs int `mapstructure:"autosave_debounce_ms" yaml:"autosave_debounce_ms"`

	// SenderStaleMinutes is how long a cached sender profile serves
	// passive lookups before being re-fetched.
	SenderStaleMinutes int `mapstructure:"sender_stale_minutes" yaml:"sender_stale_minutes"`
}

// DisplayConfig holds UI preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Backend BackendConfig `mapstructure:"backend" yaml:"backend"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/dueam/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "dueam", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Store: StoreConfig{
			PageSize:            50,
			ReconcileDebounceMs: 400,
			AutosaveDebounceMs:  2000,
			SenderStaleMinutes:  60,
		},
		Display: DisplayConfig{Theme: "default"},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("store.page_size", 50)
	v.SetDefault("store.reconcile_debounce_ms", 400)
	v.SetDefault("store.autosave_debounce_ms", 2000)
	v.SetDefault("store.sender_stale_minutes", 60)
	v.SetDefault("display.theme", "default")

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

	v.Set("backend", cfg.Backend)
	v.Set("store", cfg.Store)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

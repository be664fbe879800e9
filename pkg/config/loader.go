package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "LAUNCHER"

// Loader provides methods for loading configuration from various sources.
type Loader interface {
	// Load loads configuration with the following precedence:
	// 1. Environment variables
	// 2. Configuration file
	// 3. Default values
	//
	// Returns the merged configuration or an error if validation fails.
	Load() (*Config, error)

	// LoadFromFile reads a single configuration file without merging.
	LoadFromFile(path string) (*Config, error)

	// Path returns the configuration file Load used, or "" for none.
	Path() string
}

// loader implements the Loader interface.
type loader struct {
	configPath string
	usedPath   string
}

// envOverrides lists the settings that can be overridden from the
// environment. Nil pointers mean "not set".
type envOverrides struct {
	ConfigPath        *string        `envconfig:"CONFIG"`
	DBPath            *string        `envconfig:"DB"`
	IconCacheDir      *string        `envconfig:"ICON_CACHE_DIR"`
	IconPacksDir      *string        `envconfig:"ICON_PACKS_DIR"`
	DefaultIconsDir   *string        `envconfig:"DEFAULT_ICONS_DIR"`
	FontsDir          *string        `envconfig:"FONTS_DIR"`
	HeartbeatInterval *time.Duration `envconfig:"HEARTBEAT_INTERVAL"`
	MemoryBudgetBytes *int64         `envconfig:"ICON_MEMORY_BUDGET"`
	LogLevel          *string        `envconfig:"LOG_LEVEL"`
	LogFormat         *string        `envconfig:"LOG_FORMAT"`
	LogOutput         *string        `envconfig:"LOG_OUTPUT"`
}

// NewLoader creates a new configuration loader.
//
// If configPath is empty, the loader uses $LAUNCHER_CONFIG, then
// ./launcher.yaml, then ~/.config/launcher/config.yaml.
func NewLoader(configPath string) Loader {
	return &loader{
		configPath: configPath,
	}
}

// Load implements Loader.Load.
func (l *loader) Load() (*Config, error) {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnv, err)
	}

	cfg := Default()

	explicit := l.configPath
	if explicit == "" && env.ConfigPath != nil {
		explicit = *env.ConfigPath
	}

	configPath := explicit
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		fileCfg, err := l.LoadFromFile(configPath)
		if err != nil {
			if explicit != "" {
				return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
			}
		} else {
			cfg = mergeConfigs(cfg, fileCfg)
			l.usedPath = configPath
		}
	}

	cfg = applyEnv(cfg, env)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFromFile implements Loader.LoadFromFile.
func (l *loader) LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) // nolint:gosec
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return &cfg, nil
}

// Path implements Loader.Path.
func (l *loader) Path() string {
	return l.usedPath
}

// findConfigFile returns the first existing standard config location.
func findConfigFile() string {
	candidates := []string{
		"./launcher.yaml",
		DefaultConfigPath(),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// mergeConfigs overlays the non-zero values of override onto base.
func mergeConfigs(base, override *Config) *Config {
	result := *base

	if override.Storage.DBPath != "" {
		result.Storage.DBPath = override.Storage.DBPath
	}
	if override.Storage.IconCacheDir != "" {
		result.Storage.IconCacheDir = override.Storage.IconCacheDir
	}
	if override.Storage.IconPacksDir != "" {
		result.Storage.IconPacksDir = override.Storage.IconPacksDir
	}
	if override.Storage.DefaultIconsDir != "" {
		result.Storage.DefaultIconsDir = override.Storage.DefaultIconsDir
	}
	if override.Storage.FontsDir != "" {
		result.Storage.FontsDir = override.Storage.FontsDir
	}

	if override.Focus.TickInterval > 0 {
		result.Focus.TickInterval = override.Focus.TickInterval
	}
	if override.Focus.HeartbeatInterval > 0 {
		result.Focus.HeartbeatInterval = override.Focus.HeartbeatInterval
	}

	if override.Icons.MemoryBudgetBytes > 0 {
		result.Icons.MemoryBudgetBytes = override.Icons.MemoryBudgetBytes
	}
	if override.Icons.DefaultSizePx > 0 {
		result.Icons.DefaultSizePx = override.Icons.DefaultSizePx
	}
	if override.Icons.PrewarmConcurrency > 0 {
		result.Icons.PrewarmConcurrency = override.Icons.PrewarmConcurrency
	}
	if override.Icons.TintUniformThreshold > 0 {
		result.Icons.TintUniformThreshold = override.Icons.TintUniformThreshold
	}

	if override.Watch.DebounceInterval > 0 {
		result.Watch.DebounceInterval = override.Watch.DebounceInterval
	}
	// Disabled is a bool, so the file value always wins.
	result.Watch.Disabled = override.Watch.Disabled

	if override.Logging.Level != "" {
		result.Logging.Level = override.Logging.Level
	}
	if override.Logging.Output != "" {
		result.Logging.Output = override.Logging.Output
	}
	if override.Logging.Format != "" {
		result.Logging.Format = override.Logging.Format
	}

	return &result
}

// applyEnv applies environment overrides to the configuration.
func applyEnv(cfg *Config, env envOverrides) *Config {
	result := *cfg

	if env.DBPath != nil {
		result.Storage.DBPath = *env.DBPath
	}
	if env.IconCacheDir != nil {
		result.Storage.IconCacheDir = *env.IconCacheDir
	}
	if env.IconPacksDir != nil {
		result.Storage.IconPacksDir = *env.IconPacksDir
	}
	if env.DefaultIconsDir != nil {
		result.Storage.DefaultIconsDir = *env.DefaultIconsDir
	}
	if env.FontsDir != nil {
		result.Storage.FontsDir = *env.FontsDir
	}
	if env.HeartbeatInterval != nil {
		result.Focus.HeartbeatInterval = *env.HeartbeatInterval
	}
	if env.MemoryBudgetBytes != nil {
		result.Icons.MemoryBudgetBytes = *env.MemoryBudgetBytes
	}
	if env.LogLevel != nil {
		result.Logging.Level = strings.ToLower(*env.LogLevel)
	}
	if env.LogFormat != nil {
		result.Logging.Format = strings.ToLower(*env.LogFormat)
	}
	if env.LogOutput != nil {
		result.Logging.Output = *env.LogOutput
	}

	return &result
}

// Load is a convenience function that creates a loader and loads configuration.
func Load() (*Config, error) {
	return NewLoader("").Load()
}

// LoadFromFile loads configuration using path as the config file, with
// defaults and environment overrides applied.
func LoadFromFile(path string) (*Config, error) {
	return NewLoader(path).Load()
}

// Save writes the configuration to a YAML file.
//
// Creates parent directories if they don't exist.
// File is created with 0600 permissions (read/write for owner only).
func Save(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

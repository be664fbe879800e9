// Package config provides configuration management for the launcher core.
//
// Configuration is loaded from multiple sources with the following precedence:
// 1. Environment variables (LAUNCHER_*) (highest priority)
// 2. Configuration file
// 3. Default values (lowest priority)
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Settings DB: %s\n", cfg.Storage.DBPath)
package config

import (
	"time"
)

// Config represents the complete launcher core configuration.
//
// Invariants:
// - Storage.DBPath and Storage.IconCacheDir must be set
// - Focus.TickInterval must be > 0 and <= 1s
// - Focus.HeartbeatInterval must be > 0
// - Icons.MemoryBudgetBytes must be >= 0 (0 selects the runtime-derived budget)
// - Icons.DefaultSizePx and Icons.PrewarmConcurrency must be > 0
// - Icons.TintUniformThreshold must be in (0, 1].
type Config struct {
	// Storage locations
	Storage StorageConfig `yaml:"storage"`

	// Focus session engine settings
	Focus FocusConfig `yaml:"focus"`

	// Icon resolution and cache settings
	Icons IconsConfig `yaml:"icons"`

	// File watching settings
	Watch WatchConfig `yaml:"watch"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging"`
}

// StorageConfig contains storage-related settings.
type StorageConfig struct {
	// Path to the BoltDB settings file
	DBPath string `yaml:"db_path"`

	// Directory holding rendered icons (<hash>.png)
	IconCacheDir string `yaml:"icon_cache_dir"`

	// Directory holding installed icon packs (<pack>/appfilter.xml)
	IconPacksDir string `yaml:"icon_packs_dir"`

	// Directory holding default app icons (<package>.png)
	DefaultIconsDir string `yaml:"default_icons_dir"`

	// Directory holding fonts shipped by other packages (<package>/<name>.ttf)
	FontsDir string `yaml:"fonts_dir"`
}

// FocusConfig contains focus session engine settings.
type FocusConfig struct {
	// Countdown tick period
	TickInterval time.Duration `yaml:"tick_interval"`

	// Period at which a running session re-persists its monotonic end
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
}

// IconsConfig contains icon cache settings.
type IconsConfig struct {
	// Memory tier budget in decoded bytes (0 = derive from runtime memory limit)
	MemoryBudgetBytes int64 `yaml:"memory_budget_bytes"`

	// Icon edge length used when callers do not pass one
	DefaultSizePx int `yaml:"default_size_px"`

	// Number of icons resolved concurrently by prewarm
	PrewarmConcurrency int `yaml:"prewarm_concurrency"`

	// Fraction of identical pixels above which a tint is discarded
	TintUniformThreshold float64 `yaml:"tint_uniform_threshold"`
}

// WatchConfig contains file watcher settings.
type WatchConfig struct {
	// Coalescing window for file change events
	DebounceInterval time.Duration `yaml:"debounce_interval"`

	// Disable watching entirely (e.g. read-only tools)
	Disabled bool `yaml:"disabled"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `yaml:"level"`

	// Log output destination (stdout, stderr, file path)
	Output string `yaml:"output"`

	// Log format (text, json)
	Format string `yaml:"format"`
}

// Validate checks if the configuration satisfies all invariants.
//
// Thread-safety: This method is read-only and thread-safe.
func (c *Config) Validate() error {
	if c.Storage.DBPath == "" {
		return ErrNoDBPath
	}
	if c.Storage.IconCacheDir == "" {
		return ErrNoIconCacheDir
	}

	if c.Focus.TickInterval <= 0 || c.Focus.TickInterval > time.Second {
		return ErrInvalidTickInterval
	}
	if c.Focus.HeartbeatInterval <= 0 {
		return ErrInvalidHeartbeatInterval
	}

	if c.Icons.MemoryBudgetBytes < 0 {
		return ErrInvalidMemoryBudget
	}
	if c.Icons.DefaultSizePx <= 0 {
		return ErrInvalidIconSize
	}
	if c.Icons.PrewarmConcurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.Icons.TintUniformThreshold <= 0 || c.Icons.TintUniformThreshold > 1 {
		return ErrInvalidTintThreshold
	}

	if c.Watch.DebounceInterval < 0 {
		return ErrInvalidDebounce
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	validFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validFormats[c.Logging.Format] {
		return ErrInvalidLogFormat
	}

	return nil
}

// Default returns a configuration with default values.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			DBPath:          defaultDBPath(),
			IconCacheDir:    defaultCacheDir(),
			IconPacksDir:    defaultDataDir("iconpacks"),
			DefaultIconsDir: defaultDataDir("icons"),
			FontsDir:        defaultDataDir("fonts"),
		},
		Focus: FocusConfig{
			TickInterval:      time.Second,
			HeartbeatInterval: 30 * time.Second,
		},
		Icons: IconsConfig{
			MemoryBudgetBytes:    0,
			DefaultSizePx:        128,
			PrewarmConcurrency:   4,
			TintUniformThreshold: 0.98,
		},
		Watch: WatchConfig{
			DebounceInterval: 50 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stderr",
			Format: "text",
		},
	}
}

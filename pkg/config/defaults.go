package config

import (
	"os"
	"path/filepath"
)

// appDir returns ~/.config/launcher, or a relative directory when the home
// directory is unavailable.
func appDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./launcher"
	}

	return filepath.Join(homeDir, ".config", "launcher")
}

// defaultDBPath returns ~/.config/launcher/settings.db.
func defaultDBPath() string {
	return filepath.Join(appDir(), "settings.db")
}

// defaultCacheDir returns the user cache directory for rendered icons.
//
// Returns: $XDG_CACHE_HOME/launcher/iconcache (or ~/.cache/...).
func defaultCacheDir() string {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(appDir(), "iconcache")
	}

	return filepath.Join(cacheDir, "launcher", "iconcache")
}

// defaultDataDir returns ~/.config/launcher/<name>.
func defaultDataDir(name string) string {
	return filepath.Join(appDir(), name)
}

// DefaultConfigPath returns ~/.config/launcher/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(appDir(), "config.yaml")
}

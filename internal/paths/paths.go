// Package paths resolves where ghsql keeps its configuration file and
// prompt history.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user configuration directory.
const AppName = "ghsql"

// EnvConfigDir overrides the configuration directory.
const EnvConfigDir = "GHSQL_CONFIG_DIR"

// File names inside the configuration directory.
const (
	ConfigFileName  = "config.yaml"
	HistoryFileName = "history"
)

// platformDir holds platform lookups that tests replace.
var platformDir = struct {
	goos          string
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	goos:          runtime.GOOS,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/ghsql (fallback ~/.config/ghsql)
// macOS:   ~/Library/Application Support/ghsql
// Windows: %APPDATA%/ghsql
func DefaultConfigDir() (string, error) {
	if platformDir.goos == "linux" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, AppName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", AppName), nil
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// ResolveConfigDir returns the configuration directory: flag if set, else
// GHSQL_CONFIG_DIR, else DefaultConfigDir. Overrides are made absolute.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ConfigFile returns the path of config.yaml in configDir.
func ConfigFile(configDir string) string {
	return filepath.Join(configDir, ConfigFileName)
}

// HistoryFile returns the path of the prompt history file in configDir.
func HistoryFile(configDir string) string {
	return filepath.Join(configDir, HistoryFileName)
}

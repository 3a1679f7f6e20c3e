// Package storage persists preferences, statistics, saved games and
// cached analysis in an embedded BadgerDB.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const appName = "chessmind"

// GetDataDir returns the platform-specific data directory for the application.
// - macOS: ~/Library/Application Support/chessmind/
// - Linux: ~/.local/share/chessmind/
// - Windows: %APPDATA%/chessmind/
func GetDataDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		baseDir = filepath.Join(homeDir, "Library", "Application Support")

	case "windows":
		baseDir = os.Getenv("APPDATA")
		if baseDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			baseDir = filepath.Join(homeDir, "AppData", "Roaming")
		}

	default:
		// Check XDG_DATA_HOME first
		baseDir = os.Getenv("XDG_DATA_HOME")
		if baseDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			baseDir = filepath.Join(homeDir, ".local", "share")
		}
	}

	return ensureDir(filepath.Join(baseDir, appName))
}

// GetDatabaseDir returns the BadgerDB directory under dataDir, or under
// the platform data directory when dataDir is empty.
func GetDatabaseDir(dataDir string) (string, error) {
	if dataDir == "" {
		var err error
		if dataDir, err = GetDataDir(); err != nil {
			return "", err
		}
	}
	return ensureDir(filepath.Join(dataDir, "db"))
}

func ensureDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	return dir, nil
}

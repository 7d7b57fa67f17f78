package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// getDataDir returns the per-user data directory, following the XDG Base
// Directory specification on Linux.
func getDataDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		baseDir = os.Getenv("LOCALAPPDATA")
		if baseDir == "" {
			baseDir = os.Getenv("APPDATA")
		}
		if baseDir == "" {
			return "", fmt.Errorf("could not determine Windows data directory")
		}
		baseDir = filepath.Join(baseDir, "huntkit")

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, "Library", "Application Support", "huntkit")

	default:
		xdgDataHome := os.Getenv("XDG_DATA_HOME")
		if xdgDataHome != "" {
			baseDir = filepath.Join(xdgDataHome, "huntkit")
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("could not determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".local", "share", "huntkit")
		}
	}

	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return baseDir, nil
}

// resultFilePath builds a timestamped output path in the results
// directory, e.g. query-20260828-103000.csv.
func resultFilePath(prefix, ext string) string {
	name := fmt.Sprintf("%s-%s.%s", prefix, time.Now().Format("20060102-150405"), ext)
	return filepath.Join(resultsDir, name)
}

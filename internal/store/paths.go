package store

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const appName = "hexsolver"

// DataDir returns the per-user directory holding the databases, creating it
// if needed: Application Support on macOS, %APPDATA% on Windows and
// $XDG_DATA_HOME (or ~/.local/share) elsewhere.
func DataDir() (string, error) {
	base, err := userDataBase()
	if err != nil {
		return "", fmt.Errorf("locate data directory: %w", err)
	}
	dir := filepath.Join(base, appName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func userDataBase() (string, error) {
	if runtime.GOOS == "windows" {
		if dir := os.Getenv("APPDATA"); dir != "" {
			return dir, nil
		}
	} else if runtime.GOOS != "darwin" {
		if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
			return dir, nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support"), nil
	case "windows":
		return filepath.Join(home, "AppData", "Roaming"), nil
	}
	return filepath.Join(home, ".local", "share"), nil
}

// DefaultDBPath returns the database directory for one solver and board
// size, e.g. ~/.local/share/hexsolver/dfs-7x7.
func DefaultDBPath(kind string, width, height int) (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fmt.Sprintf("%s-%dx%d", kind, width, height)), nil
}

// Package paths resolves where sessions live on disk.
//
// Relative session names map to "<dir>/<name>.yml". Absolute paths are used
// verbatim, which lets a caller save to or load from an arbitrary file.
package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SessionExt is the file extension of a stored session
const SessionExt = ".yml"

// AppName is the directory name used below the user data directory
const AppName = "tabsession"

// ErrInvalidName is returned for names that cannot be mapped to a file safely
var ErrInvalidName = errors.New("invalid session name")

// DataDir returns the per-user data directory, honouring XDG_DATA_HOME
func DataDir() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", AppName), nil
}

// SessionDir returns the default directory holding named sessions
func SessionDir() (string, error) {
	data, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(data, "sessions"), nil
}

// ValidateName checks that a relative session name stays inside the session directory
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: name contains a NUL byte", ErrInvalidName)
	}
	return nil
}

// SessionFile maps a session name to its file path below dir
func SessionFile(dir, name string) (string, error) {
	if filepath.IsAbs(name) {
		return filepath.Clean(name), nil
	}
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(dir, name+SessionExt), nil
}

// SessionName is the inverse of SessionFile for entries of the session directory
func SessionName(file string) (string, bool) {
	base := filepath.Base(file)
	name, ok := strings.CutSuffix(base, SessionExt)
	if !ok || name == "" || strings.HasPrefix(base, ".") {
		return "", false
	}
	return name, true
}

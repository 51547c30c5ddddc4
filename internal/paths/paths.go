// Package paths resolves the locations rq reads from under the user's home.
package paths

import (
	"path/filepath"
	"strings"

	"github.com/ideaspaper/rq/internal/filesystem"
)

// AppDirName is the directory under $HOME holding config.json.
const AppDirName = ".rq"

const configFileName = "config.json"

// AppDataDir returns $HOME/.rq.
func AppDataDir() (string, error) {
	home, err := filesystem.Default.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, AppDirName), nil
}

// DefaultConfigPath returns $HOME/.rq/config.json.
func DefaultConfigPath() (string, error) {
	dir, err := AppDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// ExpandHome replaces a leading "~" in p with the user's home directory.
// "~user" forms are left alone.
func ExpandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := filesystem.Default.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, p[1:]), nil
}

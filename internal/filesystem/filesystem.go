// Package filesystem is the read-only view of local files used when a flag
// value names a file with a leading "@".
package filesystem

import (
	"io/fs"
	"os"
)

// FileSystem defines the read-side file operations the request pipeline needs.
// Header files, cookie files, body files and form attachments are all read
// through it, so tests can swap in a MockFileSystem.
type FileSystem interface {
	ReadFile(name string) ([]byte, error)
	Stat(name string) (fs.FileInfo, error)
	Open(name string) (fs.File, error)
	UserHomeDir() (string, error)
}

// OSFileSystem reads from the host file system.
type OSFileSystem struct{}

// Default is used when no FileSystem is injected.
var Default FileSystem = &OSFileSystem{}

// ReadFile reads the named file and returns the contents.
func (OSFileSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// Stat returns a FileInfo describing the named file.
func (OSFileSystem) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(name)
}

// Open opens the named file for reading.
func (OSFileSystem) Open(name string) (fs.File, error) {
	return os.Open(name)
}

// UserHomeDir returns the current user's home directory.
func (OSFileSystem) UserHomeDir() (string, error) {
	return os.UserHomeDir()
}

// IsFile reports whether path names a regular file. The form builder uses it
// to decide whether a string field is an attachment.
func IsFile(fsys FileSystem, path string) bool {
	info, err := fsys.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

package filesystem

import (
	"bytes"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// MockFileSystem is a mock implementation of FileSystem for testing.
// It uses an in-memory map to simulate files and directories.
type MockFileSystem struct {
	mu sync.RWMutex

	// Files stores file contents by path.
	Files map[string][]byte

	// Dirs stores directory paths (value is always true).
	Dirs map[string]bool

	// ErrByPath allows setting specific errors for specific paths.
	ErrByPath map[string]error

	// HomeDir is the home directory to return from UserHomeDir.
	HomeDir string

	// Opened records every path handed out by Open, in call order.
	Opened []string

	open map[string]*memFile
}

// Ensure MockFileSystem implements FileSystem
var _ FileSystem = (*MockFileSystem)(nil)

// NewMockFileSystem creates a new MockFileSystem.
func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{
		Files:     make(map[string][]byte),
		Dirs:      make(map[string]bool),
		ErrByPath: make(map[string]error),
		HomeDir:   "/home/testuser",
		open:      make(map[string]*memFile),
	}
}

// WithFile adds a file to the mock file system.
func (m *MockFileSystem) WithFile(path, content string) *MockFileSystem {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Files[path] = []byte(content)
	return m
}

// WithDir adds a directory to the mock file system.
func (m *MockFileSystem) WithDir(path string) *MockFileSystem {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Dirs[path] = true
	return m
}

// WithPathError makes every operation on path fail with err.
func (m *MockFileSystem) WithPathError(path string, err error) *MockFileSystem {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ErrByPath[path] = err
	return m
}

// ReadFile reads the named file from the mock file system.
func (m *MockFileSystem) ReadFile(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err, ok := m.ErrByPath[name]; ok {
		return nil, err
	}
	if m.Dirs[name] {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrInvalid}
	}
	data, ok := m.Files[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return bytes.Clone(data), nil
}

// Stat returns a mock FileInfo for the named file or directory.
func (m *MockFileSystem) Stat(name string) (fs.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stat(name)
}

func (m *MockFileSystem) stat(name string) (fs.FileInfo, error) {
	if err, ok := m.ErrByPath[name]; ok {
		return nil, err
	}
	if data, ok := m.Files[name]; ok {
		return &mockFileInfo{name: filepath.Base(name), size: int64(len(data))}, nil
	}
	if m.Dirs[name] {
		return &mockFileInfo{name: filepath.Base(name), isDir: true}, nil
	}
	for p := range m.Files {
		if strings.HasPrefix(p, name+"/") {
			return &mockFileInfo{name: filepath.Base(name), isDir: true}, nil
		}
	}
	return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
}

// Open opens the named file for reading. The returned file tracks whether it
// has been closed, see IsClosed.
func (m *MockFileSystem) Open(name string) (fs.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, err := m.stat(name)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	f := &memFile{Reader: bytes.NewReader(m.Files[name]), info: info}
	m.open[name] = f
	m.Opened = append(m.Opened, name)
	return f, nil
}

// IsClosed reports whether the most recent file opened at path was closed.
func (m *MockFileSystem) IsClosed(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.open[path]
	return ok && f.closed
}

// UserHomeDir returns the configured home directory.
func (m *MockFileSystem) UserHomeDir() (string, error) {
	return m.HomeDir, nil
}

type memFile struct {
	*bytes.Reader
	info   fs.FileInfo
	closed bool
}

func (f *memFile) Stat() (fs.FileInfo, error) { return f.info, nil }

func (f *memFile) Close() error {
	if f.closed {
		return fs.ErrClosed
	}
	f.closed = true
	return nil
}

type mockFileInfo struct {
	name  string
	size  int64
	isDir bool
}

func (m *mockFileInfo) Name() string { return m.name }
func (m *mockFileInfo) Size() int64  { return m.size }
func (m *mockFileInfo) Mode() fs.FileMode {
	if m.isDir {
		return fs.ModeDir | 0755
	}
	return 0644
}
func (m *mockFileInfo) ModTime() time.Time { return time.Time{} }
func (m *mockFileInfo) IsDir() bool        { return m.isDir }
func (m *mockFileInfo) Sys() any           { return nil }

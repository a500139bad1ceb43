package include

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileSystem is the source the resolver probes and the expander reads.
type FileSystem interface {
	// Open opens name for reading.
	Open(name string) (io.ReadCloser, error)
	// IsFile reports whether name exists and is not a directory.
	IsFile(name string) bool
	// Identity returns a stable key for name, used to detect re-entry
	// into a file that is already being expanded.
	Identity(name string) string
}

// OSFileSystem reads from the host file system.
type OSFileSystem struct{}

// Open implements FileSystem.
func (OSFileSystem) Open(name string) (io.ReadCloser, error) {
	return os.Open(name)
}

// IsFile implements FileSystem.
func (OSFileSystem) IsFile(name string) bool {
	info, err := os.Stat(name)
	return err == nil && !info.IsDir()
}

// Identity implements FileSystem. Symlinks are resolved when possible so
// that two spellings of the same file compare equal.
func (OSFileSystem) Identity(name string) string {
	abs, err := filepath.Abs(name)
	if err != nil {
		return filepath.Clean(name)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	return abs
}

// MemoryFileSystem is an in-memory FileSystem keyed by cleaned path.
// It is safe for concurrent use.
type MemoryFileSystem struct {
	mu    sync.RWMutex
	files map[string]string
}

// NewMemoryFileSystem creates a MemoryFileSystem holding the given files.
func NewMemoryFileSystem(files map[string]string) *MemoryFileSystem {
	m := &MemoryFileSystem{files: make(map[string]string, len(files))}
	for name, content := range files {
		m.files[filepath.Clean(name)] = content
	}
	return m
}

// AddFile adds or replaces a file.
func (m *MemoryFileSystem) AddFile(name, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[filepath.Clean(name)] = content
}

// Open implements FileSystem.
func (m *MemoryFileSystem) Open(name string) (io.ReadCloser, error) {
	m.mu.RLock()
	content, ok := m.files[filepath.Clean(name)]
	m.mu.RUnlock()
	if !ok {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrNotExist}
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

// IsFile implements FileSystem.
func (m *MemoryFileSystem) IsFile(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[filepath.Clean(name)]
	return ok
}

// Identity implements FileSystem.
func (m *MemoryFileSystem) Identity(name string) string {
	return filepath.Clean(name)
}

package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// ErrNotFound is returned (wrapped) when a document does not exist.
var ErrNotFound = errors.New("document not found")

// Reader reads documents by path.
type Reader interface {
	// ReadFile returns the contents of path. Missing files yield an error
	// matching ErrNotFound.
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// Abs returns the canonical form of path used for cycle detection and
	// dependency tracking.
	Abs(path string) string
}

// OS reads documents from the local filesystem.
type OS struct{}

// NewOS returns a filesystem reader.
func NewOS() *OS {
	return &OS{}
}

// ReadFile implements Reader.
func (OS) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}
	return data, nil
}

// Abs implements Reader. Symlinks are resolved when the file exists.
func (OS) Abs(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	return abs
}

// Memory serves documents from memory. It is safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemory creates a memory reader holding the given files.
func NewMemory(files map[string]string) *Memory {
	m := &Memory{files: make(map[string][]byte, len(files))}
	for path, content := range files {
		m.files[filepath.Clean(path)] = []byte(content)
	}
	return m
}

// Set stores or replaces a document.
func (m *Memory) Set(path, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[filepath.Clean(path)] = []byte(content)
}

// ReadFile implements Reader.
func (m *Memory) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[filepath.Clean(path)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Abs implements Reader.
func (m *Memory) Abs(path string) string {
	return filepath.Clean(path)
}

// Paths returns the stored paths in sorted order.
func (m *Memory) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	errs "fascraper/pkg/errors"

	"github.com/rs/xid"
)

// ConflictPolicy selects the behavior when a destination file exists
type ConflictPolicy int

const (
	// ConflictFail refuses to touch an existing file
	ConflictFail ConflictPolicy = iota
	// ConflictReplace overwrites the existing file
	ConflictReplace
	// ConflictSkip leaves the existing file alone and reports success
	ConflictSkip
)

func (p ConflictPolicy) String() string {
	switch p {
	case ConflictReplace:
		return "replace"
	case ConflictSkip:
		return "skip"
	default:
		return "fail"
	}
}

// ResolvePolicy maps the replace/skip flag pair onto a policy. Setting both
// is an invalid argument.
func ResolvePolicy(replace, skip bool) (ConflictPolicy, error) {
	switch {
	case replace && skip:
		return ConflictFail, errs.New(errs.ErrorTypeInvalidArgument, "replace and skip are mutually exclusive")
	case replace:
		return ConflictReplace, nil
	case skip:
		return ConflictSkip, nil
	default:
		return ConflictFail, nil
	}
}

// Exists reports whether path names an existing file
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// tempPath returns a unique sibling of path used while a write is in flight
func tempPath(path string) string {
	return fmt.Sprintf("%s~PART-%s", path, xid.New().String())
}

// WriteAtomic copies r into a temporary sibling of path and renames it into
// place. The temporary file is removed on any failure. Parent directories
// are created as needed.
func WriteAtomic(path string, r io.Reader) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	tmp := tempPath(path)
	out, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file: %w", err)
	}

	n, err := io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tmp)
		return n, fmt.Errorf("failed to write file data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tmp)
		return n, fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return n, fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return n, nil
}

// Manager owns an output directory and tracks what has been written to it
// during the process lifetime.
type Manager struct {
	outputDir string
	written   map[string]int64
	mu        sync.RWMutex
}

// NewManager creates a new storage manager rooted at outputDir
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Manager{
		outputDir: outputDir,
		written:   make(map[string]int64),
	}, nil
}

// Path joins elements under the output directory. Elements are stripped of
// path separators so user-controlled names cannot escape it.
func (m *Manager) Path(elem ...string) string {
	parts := make([]string, 0, len(elem)+1)
	parts = append(parts, m.outputDir)
	for _, e := range elem {
		e = strings.NewReplacer("/", "_", "\\", "_").Replace(e)
		if e == "" || e == "." || e == ".." {
			e = "_"
		}
		parts = append(parts, e)
	}
	return filepath.Join(parts...)
}

// Record notes that size bytes were written to path
func (m *Manager) Record(path string, size int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.written[path] = size
}

// Written reports whether path was recorded by this manager
func (m *Manager) Written(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.written[path]
	return ok
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// GetDownloadedCount returns the number of recorded files
func (m *Manager) GetDownloadedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.written)
}

// TotalBytes returns the sum of recorded file sizes
func (m *Manager) TotalBytes() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var total int64
	for _, n := range m.written {
		total += n
	}
	return total
}

// Package resource owns ephemeral binary artifacts produced by a session.
// A manager holds at most one live handle; publishing a replacement always
// releases the old artifact first so peak disk usage is bounded to one file.
package resource

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var ErrNoLiveHandle = errors.New("no live resource handle")

// Handle is a locally-scoped reference to one published binary artifact.
// It stays valid until the owning manager releases it.
type Handle struct {
	name string
	path string
	data []byte

	mu       sync.Mutex
	released bool
}

// Name returns the suggested filename for the artifact.
func (h *Handle) Name() string { return h.name }

// URI returns the local reference for the artifact, or the empty string
// once the handle has been released.
func (h *Handle) URI() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return ""
	}
	return "file://" + filepath.ToSlash(h.path)
}

// Bytes returns the artifact contents, or nil once released.
func (h *Handle) Bytes() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil
	}
	return h.data
}

// Released reports whether the handle has been invalidated.
func (h *Handle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

func (h *Handle) release() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil
	}
	h.released = true
	h.data = nil
	if err := os.Remove(h.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove artifact %q: %w", h.path, err)
	}
	return nil
}

// Manager tracks the single live artifact for one session.
type Manager struct {
	dir string

	mu      sync.Mutex
	current *Handle
}

// NewManager stores artifacts under dir, creating it if needed. An empty
// dir falls back to a per-process directory under the OS temp root.
func NewManager(dir string) (*Manager, error) {
	if strings.TrimSpace(dir) == "" {
		dir = filepath.Join(os.TempDir(), "voicestudio")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory %q: %w", dir, err)
	}
	return &Manager{dir: dir}, nil
}

// Publish releases any live handle, then writes data as a new artifact.
// The old artifact is gone before the new one exists, never both at once.
func (m *Manager) Publish(data []byte, suggestedName string) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		if err := m.current.release(); err != nil {
			return nil, err
		}
		m.current = nil
	}

	name := sanitizeName(suggestedName)
	path := filepath.Join(m.dir, fmt.Sprintf("%s-%s", uuid.NewString()[:8], name))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write artifact %q: %w", path, err)
	}

	handle := &Handle{name: name, path: path, data: data}
	m.current = handle
	return handle, nil
}

// Release invalidates the live handle, if any. Idempotent and safe to call
// when nothing is live.
func (m *Manager) Release() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return nil
	}
	err := m.current.release()
	m.current = nil
	return err
}

// Current returns the live handle, or nil when nothing is published.
func (m *Manager) Current() *Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Close releases the live handle on session teardown.
func (m *Manager) Close() error {
	return m.Release()
}

func sanitizeName(name string) string {
	name = strings.TrimSpace(filepath.Base(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "artifact.bin"
	}
	return name
}

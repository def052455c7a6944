package ner

import (
	"fmt"
	"sync"
)

// Manager holds the process-wide recognizer handle. The recognizer is
// loaded once at startup and shared read-only across requests; Reload
// exists for operational model swaps without a restart.
type Manager struct {
	mu         sync.RWMutex
	recognizer Recognizer
	healthy    bool
	lastErr    error
}

// NewManager builds the named recognizer and wraps it. Construction
// failures are fatal; a service without a recognizer cannot extract
// anything.
func NewManager(name string, settings Settings) (*Manager, error) {
	recognizer, err := NewRecognizer(name, settings)
	if err != nil {
		return nil, fmt.Errorf("load recognizer %q: %w", name, err)
	}
	return &Manager{recognizer: recognizer, healthy: true}, nil
}

// NewManagerWith wraps an already-built recognizer. Used by tests.
func NewManagerWith(recognizer Recognizer) *Manager {
	return &Manager{recognizer: recognizer, healthy: true}
}

// Recognizer returns the current recognizer in a thread-safe manner.
func (m *Manager) Recognizer() (Recognizer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.healthy {
		return nil, fmt.Errorf("recognizer is unhealthy: %w", m.lastErr)
	}
	if m.recognizer == nil {
		return nil, fmt.Errorf("no recognizer available")
	}
	return m.recognizer, nil
}

// Healthy reports whether a recognizer is loaded and serving.
func (m *Manager) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.healthy
}

// Reload swaps in a freshly-built recognizer. The previous one keeps
// serving until the replacement loads; on failure the manager is marked
// unhealthy.
func (m *Manager) Reload(name string, settings Settings) error {
	recognizer, err := NewRecognizer(name, settings)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.healthy = false
		m.lastErr = err
		return fmt.Errorf("reload recognizer %q: %w", name, err)
	}

	old := m.recognizer
	m.recognizer = recognizer
	m.healthy = true
	m.lastErr = nil

	if old != nil {
		if closeErr := old.Close(); closeErr != nil {
			return fmt.Errorf("close previous recognizer: %w", closeErr)
		}
	}
	return nil
}

// Close releases the current recognizer.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.recognizer == nil {
		return nil
	}
	err := m.recognizer.Close()
	m.recognizer = nil
	m.healthy = false
	return err
}

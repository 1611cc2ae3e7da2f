package power

import (
	"context"
	"errors"
	"sync"
)

// MockSequencer is an in-memory Sequencer for tests. It counts On/Off calls
// so tests can assert that power references are balanced.
type MockSequencer struct {
	mu       sync.Mutex
	on       bool
	OnCalls  int
	OffCalls int
	FailOn   bool
}

// NewMockSequencer creates a mock power sequencer, initially off.
func NewMockSequencer() *MockSequencer { return &MockSequencer{} }

func (m *MockSequencer) On(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OnCalls++
	if m.FailOn {
		return errors.New("power: mock: on failure configured")
	}
	m.on = true
	return nil
}

func (m *MockSequencer) Off(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OffCalls++
	m.on = false
	return nil
}

// IsOn reports whether the mock sensor is powered.
func (m *MockSequencer) IsOn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.on
}

// MockFilter is an in-memory IR-cut Filter for tests.
type MockFilter struct {
	mu      sync.Mutex
	enabled bool
}

func (m *MockFilter) Set(enable bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = enable
	return nil
}

// Enabled reports the last state set on the filter.
func (m *MockFilter) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled
}

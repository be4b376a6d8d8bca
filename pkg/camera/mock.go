package camera

import (
	"context"
	"sync"
	"time"
)

// MockCamera serves canned frames for tests.
type MockCamera struct {
	cfg Config

	mu      sync.Mutex
	running bool
	frames  [][]byte
	pos     int
	seq     uint64
}

// NewMockCamera creates a mock that cycles through the given JPEG
// payloads, one per Frame call.
func NewMockCamera(frames ...[]byte) *MockCamera {
	return &MockCamera{cfg: DefaultConfig(), frames: frames}
}

// Start marks the mock running.
func (m *MockCamera) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = true
	return nil
}

// Stop marks the mock stopped.
func (m *MockCamera) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
	return nil
}

// Frame returns the next scripted frame, or ErrNoFrame when the mock
// has none.
func (m *MockCamera) Frame() (Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.frames) == 0 {
		return Frame{}, ErrNoFrame
	}
	jpeg := m.frames[m.pos%len(m.frames)]
	m.pos++
	m.seq++
	return Frame{JPEG: jpeg, Captured: time.Now(), Seq: m.seq}, nil
}

// Config returns the mock configuration.
func (m *MockCamera) Config() Config { return m.cfg }

// Close is a no-op.
func (m *MockCamera) Close() error { return nil }

// Running reports whether Start has been called without a matching
// Stop.
func (m *MockCamera) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

var _ Camera = (*MockCamera)(nil)

package stt

import (
	"context"
	"sync"
)

// MockRecognizer implements Recognizer for testing. Each Accept call pops
// the next scripted result; once the script runs out, Accept returns empty
// partials.
type MockRecognizer struct {
	mu      sync.Mutex
	script  []Result
	pos     int
	final   string
	accepts int
	flushes int
	closed  bool
}

// NewMockRecognizer creates a mock that replays the given results.
func NewMockRecognizer(script ...Result) *MockRecognizer {
	return &MockRecognizer{script: script}
}

// SetFinal sets the text returned by Flush.
func (m *MockRecognizer) SetFinal(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.final = text
}

// Accept pops the next scripted result.
func (m *MockRecognizer) Accept(ctx context.Context, pcm []byte) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Result{}, ErrClosed
	}
	m.accepts++
	if m.pos < len(m.script) {
		r := m.script[m.pos]
		m.pos++
		return r, nil
	}
	return Result{}, nil
}

// Flush returns the configured final text.
func (m *MockRecognizer) Flush(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", ErrClosed
	}
	m.flushes++
	return m.final, nil
}

// Reset is a no-op; the script plays through once.
func (m *MockRecognizer) Reset(ctx context.Context) error {
	return nil
}

// Close marks the recognizer closed.
func (m *MockRecognizer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Accepts returns the number of Accept calls.
func (m *MockRecognizer) Accepts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accepts
}

// Flushes returns the number of Flush calls.
func (m *MockRecognizer) Flushes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushes
}

var _ Recognizer = (*MockRecognizer)(nil)

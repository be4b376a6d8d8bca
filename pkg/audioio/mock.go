package audioio

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"
)

// MockSource is a mock audio source for testing. By default it generates
// silence on a real-time tick; it can also generate a sine wave or replay
// scripted chunks.
type MockSource struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	running  bool
	closed   bool
	streamCh chan AudioChunk
	stopCh   chan struct{}

	phase     float64
	frequency float64
	amplitude float64
	script    []AudioChunk
	scriptPos int
}

// MockSourceOption configures a MockSource.
type MockSourceOption func(*MockSource)

// WithSineWave configures the mock to generate a sine wave.
func WithSineWave(frequency, amplitude float64) MockSourceOption {
	return func(m *MockSource) {
		m.frequency = frequency
		m.amplitude = amplitude
	}
}

// WithScript configures the mock to replay the given chunks, one per
// tick, then stop.
func WithScript(chunks ...AudioChunk) MockSourceOption {
	return func(m *MockSource) { m.script = chunks }
}

// NewMockSource creates a new mock audio source.
func NewMockSource(cfg Config, logger *slog.Logger, opts ...MockSourceOption) *MockSource {
	if logger == nil {
		logger = slog.Default()
	}
	m := &MockSource{
		cfg:       cfg,
		logger:    logger,
		streamCh:  make(chan AudioChunk, 10),
		stopCh:    make(chan struct{}),
		amplitude: 0.5,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start begins generating audio.
func (m *MockSource) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return io.ErrClosedPipe
	}
	if m.running {
		return nil
	}

	m.running = true
	m.stopCh = make(chan struct{})
	m.streamCh = make(chan AudioChunk, 10)
	m.scriptPos = 0

	go m.generateLoop(ctx, m.stopCh, m.streamCh)
	return nil
}

func (m *MockSource) generateLoop(ctx context.Context, stopCh chan struct{}, streamCh chan AudioChunk) {
	// Only the generator closes the stream channel, so a concurrent
	// Stop can never race a send with the close. Readers drain any
	// buffered chunks, then see EOF.
	defer close(streamCh)

	// Tick fast so tests don't wait on wall-clock audio pacing.
	interval := m.cfg.BufferDuration / 10
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.Stop()
			return
		case <-stopCh:
			return
		case <-ticker.C:
			chunk, ok := m.nextChunk()
			if !ok {
				m.Stop()
				return
			}
			select {
			case streamCh <- chunk:
			case <-stopCh:
				return
			}
		}
	}
}

func (m *MockSource) nextChunk() (AudioChunk, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.script != nil {
		if m.scriptPos >= len(m.script) {
			return AudioChunk{}, false
		}
		chunk := m.script[m.scriptPos]
		m.scriptPos++
		return chunk, true
	}

	bufferSize := m.cfg.BufferSize()
	samples := make([]int16, bufferSize*m.cfg.Channels)
	if m.frequency > 0 {
		for i := 0; i < bufferSize; i++ {
			v := m.amplitude * math.Sin(2*math.Pi*m.frequency*m.phase/float64(m.cfg.SampleRate))
			s := int16(v * 32767)
			for ch := 0; ch < m.cfg.Channels; ch++ {
				samples[i*m.cfg.Channels+ch] = s
			}
			m.phase++
			if m.phase >= float64(m.cfg.SampleRate) {
				m.phase = 0
			}
		}
	}
	return AudioChunk{Samples: samples, SampleRate: m.cfg.SampleRate, Channels: m.cfg.Channels}, true
}

// Stop halts audio generation.
func (m *MockSource) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}
	m.running = false
	close(m.stopCh)
	return nil
}

// Read reads the next audio chunk.
func (m *MockSource) Read(ctx context.Context) (AudioChunk, error) {
	m.mu.Lock()
	ch := m.streamCh
	m.mu.Unlock()

	select {
	case <-ctx.Done():
		return AudioChunk{}, ctx.Err()
	case chunk, ok := <-ch:
		if !ok {
			return AudioChunk{}, io.EOF
		}
		return chunk, nil
	}
}

// Config returns the audio configuration.
func (m *MockSource) Config() Config { return m.cfg }

// Name returns "mock".
func (m *MockSource) Name() string { return "mock" }

// Close releases resources.
func (m *MockSource) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()
	return m.Stop()
}

// MockSink is a mock audio sink for testing. It records written chunks
// instead of playing them.
type MockSink struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	closed  bool
	written []AudioChunk
	cleared int
}

// NewMockSink creates a new mock audio sink.
func NewMockSink(cfg Config, logger *slog.Logger) *MockSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &MockSink{cfg: cfg, logger: logger}
}

// Start begins accepting audio.
func (m *MockSink) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return io.ErrClosedPipe
	}
	m.running = true
	return nil
}

// Stop halts audio acceptance.
func (m *MockSink) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
	return nil
}

// Write records an audio chunk.
func (m *MockSink) Write(ctx context.Context, chunk AudioChunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || !m.running {
		return io.ErrClosedPipe
	}
	m.written = append(m.written, chunk)
	return nil
}

// Flush is a no-op for the mock.
func (m *MockSink) Flush(ctx context.Context) error { return nil }

// Clear counts the discard.
func (m *MockSink) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleared++
	return nil
}

// Written returns a copy of the recorded chunks.
func (m *MockSink) Written() []AudioChunk {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]AudioChunk, len(m.written))
	copy(out, m.written)
	return out
}

// WrittenSamples returns all recorded samples concatenated.
func (m *MockSink) WrittenSamples() []int16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []int16
	for _, chunk := range m.written {
		out = append(out, chunk.Samples...)
	}
	return out
}

// Cleared returns the number of Clear calls.
func (m *MockSink) Cleared() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cleared
}

// Config returns the audio configuration.
func (m *MockSink) Config() Config { return m.cfg }

// Name returns "mock".
func (m *MockSink) Name() string { return "mock" }

// Close releases resources.
func (m *MockSink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.running = false
	return nil
}

var (
	_ Source = (*MockSource)(nil)
	_ Sink   = (*MockSink)(nil)
)

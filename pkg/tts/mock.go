package tts

import (
	"context"
	"sync"
)

// Mock implements Provider for testing.
type Mock struct {
	// SynthesizeFunc is called when Synthesize is invoked.
	SynthesizeFunc func(ctx context.Context, text string) (*AudioResult, error)

	// StreamFunc is called when Stream is invoked.
	StreamFunc func(ctx context.Context, text string) (AudioStream, error)

	mu    sync.Mutex
	texts []string
}

// NewMock creates a mock that returns a small silent WAV-ish buffer.
func NewMock() *Mock {
	return &Mock{
		SynthesizeFunc: func(ctx context.Context, text string) (*AudioResult, error) {
			return &AudioResult{
				Audio:     make([]byte, 64),
				Format:    AudioFormat{Container: "pcm", SampleRate: 16000, Channels: 1, BitDepth: 16},
				CharCount: len(text),
			}, nil
		},
	}
}

// Synthesize records the text and calls SynthesizeFunc.
func (m *Mock) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	m.record(text)
	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, text)
	}
	return nil, ErrProviderUnavailable
}

// Stream records the text and calls StreamFunc, falling back to chunking
// the Synthesize result.
func (m *Mock) Stream(ctx context.Context, text string) (AudioStream, error) {
	m.record(text)
	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, text)
	}
	if m.SynthesizeFunc != nil {
		result, err := m.SynthesizeFunc(ctx, text)
		if err != nil {
			return nil, err
		}
		return newMemStream(result.Audio, result.Format), nil
	}
	return nil, ErrProviderUnavailable
}

// Name returns "mock".
func (m *Mock) Name() string { return "mock" }

// Close is a no-op.
func (m *Mock) Close() error { return nil }

// Texts returns every text passed to Synthesize or Stream.
func (m *Mock) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.texts))
	copy(out, m.texts)
	return out
}

func (m *Mock) record(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
}

var _ Provider = (*Mock)(nil)

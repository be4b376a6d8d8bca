package llm

import (
	"context"
	"io"
	"sync"
	"time"
)

// Mock implements Provider for testing.
type Mock struct {
	// ChatFunc is called when Chat is invoked.
	ChatFunc func(ctx context.Context, msgs []Message) (*ChatResponse, error)

	// StreamFunc is called when Stream is invoked.
	StreamFunc func(ctx context.Context, msgs []Message) (Stream, error)

	// CloseFunc is called when Close is invoked.
	CloseFunc func() error

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation.
type MockCall struct {
	Method   string
	Messages []Message
	Time     time.Time
}

// NewMock creates a new mock provider with sensible defaults.
func NewMock() *Mock {
	return &Mock{
		ChatFunc: func(ctx context.Context, msgs []Message) (*ChatResponse, error) {
			return &ChatResponse{Content: "Mock response", Model: "mock"}, nil
		},
	}
}

// Chat calls ChatFunc and records the call.
func (m *Mock) Chat(ctx context.Context, msgs []Message) (*ChatResponse, error) {
	m.record("Chat", msgs)
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, msgs)
	}
	return nil, wrapError(VendorCustom, ErrNoURL)
}

// Stream calls StreamFunc and records the call. When StreamFunc is unset the
// chat response is replayed word by word.
func (m *Mock) Stream(ctx context.Context, msgs []Message) (Stream, error) {
	m.record("Stream", msgs)
	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, msgs)
	}
	if m.ChatFunc != nil {
		resp, err := m.ChatFunc(ctx, msgs)
		if err != nil {
			return nil, err
		}
		return NewMockStream(resp.Content), nil
	}
	return nil, wrapError(VendorCustom, ErrNoURL)
}

// Close calls CloseFunc and records the call.
func (m *Mock) Close() error {
	m.record("Close", nil)
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Calls returns a copy of recorded calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]MockCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// Reset clears recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

func (m *Mock) record(method string, msgs []Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: method, Messages: msgs, Time: time.Now()})
}

// MockStream replays fixed chunks, then a done chunk.
type MockStream struct {
	mu     sync.Mutex
	chunks []StreamChunk
	pos    int
	closed bool

	// Err, when set, is returned after the queued chunks are consumed.
	Err error
}

// NewMockStream splits content on spaces and yields one chunk per word.
func NewMockStream(content string) *MockStream {
	var chunks []StreamChunk
	word := ""
	for _, r := range content {
		word += string(r)
		if r == ' ' {
			chunks = append(chunks, StreamChunk{Delta: word})
			word = ""
		}
	}
	if word != "" {
		chunks = append(chunks, StreamChunk{Delta: word})
	}
	return &MockStream{chunks: chunks}
}

// NewMockStreamChunks yields exactly the given chunks.
func NewMockStreamChunks(chunks ...StreamChunk) *MockStream {
	return &MockStream{chunks: chunks}
}

// Recv returns the next queued chunk.
func (s *MockStream) Recv() (StreamChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return StreamChunk{}, ErrStreamClosed
	}
	if s.pos < len(s.chunks) {
		chunk := s.chunks[s.pos]
		s.pos++
		return chunk, nil
	}
	if s.Err != nil {
		return StreamChunk{}, s.Err
	}
	return StreamChunk{Done: true}, io.EOF
}

// Close marks the stream closed.
func (s *MockStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var _ Provider = (*Mock)(nil)
var _ Stream = (*MockStream)(nil)

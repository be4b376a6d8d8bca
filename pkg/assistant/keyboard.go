package assistant

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
)

// KeyboardReader collects typed lines from a background goroutine so
// the arbiter can poll for them without blocking on stdin.
type KeyboardReader struct {
	input  io.Reader
	logger *slog.Logger
	lines  chan string

	mu      sync.Mutex
	running bool
	done    chan struct{}
}

// KeyboardOption configures a KeyboardReader.
type KeyboardOption func(*KeyboardReader)

// WithKeyboardInput overrides the input source. Defaults to stdin.
func WithKeyboardInput(r io.Reader) KeyboardOption {
	return func(k *KeyboardReader) { k.input = r }
}

// WithKeyboardLogger sets the logger.
func WithKeyboardLogger(l *slog.Logger) KeyboardOption {
	return func(k *KeyboardReader) { k.logger = l }
}

// NewKeyboardReader creates a keyboard reader.
func NewKeyboardReader(opts ...KeyboardOption) *KeyboardReader {
	k := &KeyboardReader{
		input: os.Stdin,
		lines: make(chan string, 8),
	}
	for _, opt := range opts {
		opt(k)
	}
	if k.logger == nil {
		k.logger = slog.Default()
	}
	k.logger = k.logger.With("component", "keyboard")
	return k
}

// Start launches the line-reading goroutine. Starting twice is a
// no-op.
func (k *KeyboardReader) Start() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.running {
		return
	}
	k.running = true
	k.done = make(chan struct{})
	go k.readLoop(k.done)
}

// readLoop blocks on the input reader until it is exhausted. There is
// no portable way to interrupt a blocking stdin read, so the goroutine
// simply runs until EOF; shutdown does not wait for it.
func (k *KeyboardReader) readLoop(done chan struct{}) {
	defer close(done)
	scanner := bufio.NewScanner(k.input)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		select {
		case k.lines <- line:
		default:
			k.logger.Warn("dropping typed line, buffer full")
		}
	}
	if err := scanner.Err(); err != nil {
		k.logger.Warn("keyboard input closed", "error", err)
	}
}

// Trigger returns a trigger that fires when a typed line is waiting.
// Typed turns never capture an image.
func (k *KeyboardReader) Trigger() Trigger {
	return func(ctx context.Context) Result {
		select {
		case line := <-k.lines:
			return Result{Triggered: true, DisableImage: true, Message: line}
		default:
			return Result{}
		}
	}
}

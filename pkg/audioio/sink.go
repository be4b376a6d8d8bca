package audioio

import (
	"context"
	"io"
)

// Sink plays audio to a speaker or other output device.
type Sink interface {
	// Start begins audio playback.
	Start(ctx context.Context) error

	// Stop halts audio playback. Safe to call more than once.
	Stop() error

	// Write sends an audio chunk to the output device. May block while
	// the output buffer is full.
	Write(ctx context.Context, chunk AudioChunk) error

	// Flush waits for all buffered audio to be played.
	Flush(ctx context.Context) error

	// Clear discards all buffered audio immediately.
	Clear() error

	// Config returns the current audio configuration.
	Config() Config

	// Name returns the backend name.
	Name() string

	// Close releases all resources. A closed sink cannot restart.
	io.Closer
}

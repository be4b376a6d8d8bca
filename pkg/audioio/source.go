package audioio

import (
	"context"
	"io"
)

// AudioChunk represents a chunk of audio data.
type AudioChunk struct {
	// Samples contains PCM16 audio samples (little-endian).
	Samples []int16

	// SampleRate is the sample rate of this chunk.
	SampleRate int

	// Channels is the number of channels in this chunk.
	Channels int
}

// Bytes returns the raw bytes of the audio chunk.
func (c *AudioChunk) Bytes() []byte {
	return SamplesToBytes(c.Samples)
}

// FromBytes populates the chunk from raw PCM16 bytes.
func (c *AudioChunk) FromBytes(data []byte, sampleRate, channels int) {
	c.SampleRate = sampleRate
	c.Channels = channels
	c.Samples = BytesToSamples(data)
}

// Duration returns the duration of this audio chunk in seconds.
func (c *AudioChunk) Duration() float64 {
	if c.SampleRate == 0 || c.Channels == 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.SampleRate*c.Channels)
}

// Source captures audio from a microphone or other input device.
type Source interface {
	// Start begins audio capture. Starting a running source is a no-op.
	Start(ctx context.Context) error

	// Stop halts audio capture. Safe to call more than once.
	Stop() error

	// Read reads the next audio chunk, blocking if necessary.
	// Returns io.EOF when the source is stopped.
	Read(ctx context.Context) (AudioChunk, error)

	// Config returns the current audio configuration.
	Config() Config

	// Name returns the backend name.
	Name() string

	// Close releases all resources. A closed source cannot restart.
	io.Closer
}

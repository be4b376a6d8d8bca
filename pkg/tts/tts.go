// Package tts provides a unified interface for text-to-speech engines.
//
// Four engines are supported: OpenAI (HTTP speech API), Piper (local
// neural voices via the piper executable), and the command-line espeak
// and pico2wave tools. All implement the Provider interface, so callers
// can switch engines without code changes, and Chain adds first-success
// fallback across several of them.
//
// Example usage:
//
//	provider, _ := tts.NewPiper(tts.WithModel("en_US-ryan-low"))
//	defer provider.Close()
//
//	result, _ := provider.Synthesize(ctx, "Hello world")
//	// result.Audio contains WAV bytes
package tts

import (
	"context"
	"time"
)

// Provider defines the TTS engine interface.
type Provider interface {
	// Synthesize converts text to audio, returning the complete audio
	// buffer (WAV unless the format says otherwise).
	Synthesize(ctx context.Context, text string) (*AudioResult, error)

	// Stream converts text to audio with chunked output for lower
	// latency. Engines without native streaming render fully and then
	// chunk the result.
	Stream(ctx context.Context, text string) (AudioStream, error)

	// Name returns the engine name.
	Name() string

	// Close releases any resources held by the provider.
	Close() error
}

// AudioStream represents a streaming audio response.
// Callers should read until Read returns io.EOF, then call Close.
type AudioStream interface {
	// Read returns the next audio chunk. io.EOF ends the stream.
	Read() ([]byte, error)

	// Close stops the stream and releases resources.
	Close() error

	// Format returns the audio format metadata.
	Format() AudioFormat
}

// AudioResult represents a complete synthesis result.
type AudioResult struct {
	// Audio contains the raw audio data.
	Audio []byte

	// Format describes the audio encoding.
	Format AudioFormat

	// CharCount is the number of characters synthesized.
	CharCount int

	// LatencyMs is the time to first byte in milliseconds.
	LatencyMs int64
}

// AudioFormat describes audio encoding parameters.
type AudioFormat struct {
	// Container is "wav" or "pcm".
	Container string

	// SampleRate in Hz.
	SampleRate int

	// Channels is 1 for mono, 2 for stereo.
	Channels int

	// BitDepth for PCM formats.
	BitDepth int
}

// Duration estimates playback time for a raw PCM byte count.
func (f AudioFormat) Duration(byteLen int) time.Duration {
	bytesPerSecond := f.SampleRate * f.Channels * f.BitDepth / 8
	if bytesPerSecond == 0 {
		return 0
	}
	return time.Duration(float64(byteLen) / float64(bytesPerSecond) * float64(time.Second))
}

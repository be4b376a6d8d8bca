// Package audioio provides audio capture and playback.
//
// Two backends are supported: PortAudio for real devices (build with
// -tags portaudio) and a mock for tests and CI. The backend is selected
// automatically or explicitly via configuration.
package audioio

import (
	"fmt"
	"time"
)

// Backend represents the audio backend type.
type Backend string

const (
	// BackendAuto selects the best available backend.
	BackendAuto Backend = "auto"
	// BackendPortAudio uses PortAudio for audio I/O.
	BackendPortAudio Backend = "portaudio"
	// BackendMock uses a mock implementation for testing.
	BackendMock Backend = "mock"
)

// Config holds audio configuration.
type Config struct {
	// Backend specifies which audio backend to use.
	Backend Backend `yaml:"backend" json:"backend"`

	// SampleRate is the audio sample rate in Hz. Default 16000, what the
	// recognizer expects.
	SampleRate int `yaml:"sample_rate" json:"sample_rate"`

	// Channels is the number of audio channels. Default 1 (mono).
	Channels int `yaml:"channels" json:"channels"`

	// BufferDuration is the size of audio buffers. Default 20ms.
	BufferDuration time.Duration `yaml:"buffer_duration" json:"buffer_duration"`

	// Device is the platform-specific device identifier, empty for the
	// system default.
	Device string `yaml:"device" json:"device"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Backend:        BackendAuto,
		SampleRate:     16000,
		Channels:       1,
		BufferDuration: 20 * time.Millisecond,
	}
}

// Validate checks that the configuration is valid.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("channels must be positive, got %d", c.Channels)
	}
	if c.BufferDuration <= 0 {
		return fmt.Errorf("buffer_duration must be positive, got %v", c.BufferDuration)
	}
	return nil
}

// BufferSize returns the number of samples per buffer per channel.
func (c Config) BufferSize() int {
	return int(float64(c.SampleRate) * c.BufferDuration.Seconds())
}

// BufferBytes returns the size of a buffer in bytes (int16 samples).
func (c Config) BufferBytes() int {
	return c.BufferSize() * c.Channels * 2
}

//go:build portaudio

package audioio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"
)

func detectBestBackend() Backend {
	return BackendPortAudio
}

var (
	paInitMu   sync.Mutex
	paInitRefs int
)

func paAcquire() error {
	paInitMu.Lock()
	defer paInitMu.Unlock()
	if paInitRefs == 0 {
		if err := portaudio.Initialize(); err != nil {
			return fmt.Errorf("initializing portaudio: %w", err)
		}
	}
	paInitRefs++
	return nil
}

func paRelease() {
	paInitMu.Lock()
	defer paInitMu.Unlock()
	paInitRefs--
	if paInitRefs == 0 {
		portaudio.Terminate()
	}
}

// PortAudioSource captures audio from the default input device.
type PortAudioSource struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	closed  bool
	stream  *portaudio.Stream
	buffer  []int16
}

func newPortAudioSource(cfg Config, logger *slog.Logger) (Source, error) {
	return &PortAudioSource{cfg: cfg, logger: logger}, nil
}

// Start opens the default input stream.
func (s *PortAudioSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return io.ErrClosedPipe
	}
	if s.running {
		return nil
	}

	if err := paAcquire(); err != nil {
		return err
	}

	s.buffer = make([]int16, s.cfg.BufferSize()*s.cfg.Channels)
	stream, err := portaudio.OpenDefaultStream(
		s.cfg.Channels, 0,
		float64(s.cfg.SampleRate),
		s.cfg.BufferSize(),
		s.buffer,
	)
	if err != nil {
		paRelease()
		return fmt.Errorf("opening input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		paRelease()
		return fmt.Errorf("starting input stream: %w", err)
	}

	s.stream = stream
	s.running = true
	s.logger.Info("audio capture started", "sample_rate", s.cfg.SampleRate)
	return nil
}

// Stop halts capture.
func (s *PortAudioSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false
	s.stream.Stop()
	s.stream.Close()
	s.stream = nil
	paRelease()
	return nil
}

// Read blocks until the next buffer of samples is captured.
func (s *PortAudioSource) Read(ctx context.Context) (AudioChunk, error) {
	if err := ctx.Err(); err != nil {
		return AudioChunk{}, err
	}

	s.mu.Lock()
	stream := s.stream
	buffer := s.buffer
	s.mu.Unlock()

	if stream == nil {
		return AudioChunk{}, io.EOF
	}

	if err := stream.Read(); err != nil {
		return AudioChunk{}, fmt.Errorf("reading from stream: %w", err)
	}

	samples := make([]int16, len(buffer))
	copy(samples, buffer)
	return AudioChunk{
		Samples:    samples,
		SampleRate: s.cfg.SampleRate,
		Channels:   s.cfg.Channels,
	}, nil
}

// Config returns the audio configuration.
func (s *PortAudioSource) Config() Config { return s.cfg }

// Name returns "portaudio".
func (s *PortAudioSource) Name() string { return "portaudio" }

// Close releases resources.
func (s *PortAudioSource) Close() error {
	err := s.Stop()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return err
}

// PortAudioSink plays audio to the default output device.
type PortAudioSink struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	closed  bool
	stream  *portaudio.Stream
	buffer  []int16
	pending []int16
}

func newPortAudioSink(cfg Config, logger *slog.Logger) (Sink, error) {
	return &PortAudioSink{cfg: cfg, logger: logger}, nil
}

// Start opens the default output stream.
func (s *PortAudioSink) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return io.ErrClosedPipe
	}
	if s.running {
		return nil
	}

	if err := paAcquire(); err != nil {
		return err
	}

	s.buffer = make([]int16, s.cfg.BufferSize()*s.cfg.Channels)
	stream, err := portaudio.OpenDefaultStream(
		0, s.cfg.Channels,
		float64(s.cfg.SampleRate),
		s.cfg.BufferSize(),
		s.buffer,
	)
	if err != nil {
		paRelease()
		return fmt.Errorf("opening output stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		paRelease()
		return fmt.Errorf("starting output stream: %w", err)
	}

	s.stream = stream
	s.running = true
	s.logger.Info("audio playback started", "sample_rate", s.cfg.SampleRate)
	return nil
}

// Stop halts playback, discarding any partial frame.
func (s *PortAudioSink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false
	s.pending = nil
	s.stream.Stop()
	s.stream.Close()
	s.stream = nil
	paRelease()
	return nil
}

// Write queues samples and plays every complete frame. A trailing partial
// frame stays pending until the next Write or Flush.
func (s *PortAudioSink) Write(ctx context.Context, chunk AudioChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return io.ErrClosedPipe
	}

	s.pending = append(s.pending, chunk.Samples...)
	frame := len(s.buffer)
	for len(s.pending) >= frame {
		if err := ctx.Err(); err != nil {
			return err
		}
		copy(s.buffer, s.pending[:frame])
		s.pending = s.pending[frame:]
		if err := s.stream.Write(); err != nil {
			return fmt.Errorf("writing to stream: %w", err)
		}
	}
	return nil
}

// Flush pads the pending partial frame with silence and plays it.
func (s *PortAudioSink) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || len(s.pending) == 0 {
		return nil
	}

	frame := len(s.buffer)
	copy(s.buffer, s.pending)
	for i := len(s.pending); i < frame; i++ {
		s.buffer[i] = 0
	}
	s.pending = nil
	if err := s.stream.Write(); err != nil {
		return fmt.Errorf("writing to stream: %w", err)
	}
	return nil
}

// Clear discards all buffered audio.
func (s *PortAudioSink) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	return nil
}

// Config returns the audio configuration.
func (s *PortAudioSink) Config() Config { return s.cfg }

// Name returns "portaudio".
func (s *PortAudioSink) Name() string { return "portaudio" }

// Close releases resources.
func (s *PortAudioSink) Close() error {
	err := s.Stop()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return err
}

var (
	_ Source = (*PortAudioSource)(nil)
	_ Sink   = (*PortAudioSink)(nil)
)

package audioio

import (
	"fmt"
	"log/slog"
)

// NewSource creates a new audio source with the given configuration.
// BackendAuto picks PortAudio when compiled in, the mock otherwise.
func NewSource(cfg Config, logger *slog.Logger) (Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	backend := cfg.Backend
	if backend == BackendAuto || backend == "" {
		backend = detectBestBackend()
	}

	logger.Debug("creating audio source",
		"backend", backend,
		"sample_rate", cfg.SampleRate,
		"channels", cfg.Channels,
	)

	switch backend {
	case BackendMock:
		return NewMockSource(cfg, logger), nil
	case BackendPortAudio:
		return newPortAudioSource(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported backend: %s", backend)
	}
}

// NewSink creates a new audio sink with the given configuration.
func NewSink(cfg Config, logger *slog.Logger) (Sink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	backend := cfg.Backend
	if backend == BackendAuto || backend == "" {
		backend = detectBestBackend()
	}

	logger.Debug("creating audio sink",
		"backend", backend,
		"sample_rate", cfg.SampleRate,
		"channels", cfg.Channels,
	)

	switch backend {
	case BackendMock:
		return NewMockSink(cfg, logger), nil
	case BackendPortAudio:
		return newPortAudioSink(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported backend: %s", backend)
	}
}

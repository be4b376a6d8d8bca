//go:build !portaudio

package audioio

import (
	"fmt"
	"log/slog"
)

func detectBestBackend() Backend {
	return BackendMock
}

func newPortAudioSource(cfg Config, logger *slog.Logger) (Source, error) {
	return nil, fmt.Errorf("portaudio backend not available: rebuild with -tags portaudio")
}

func newPortAudioSink(cfg Config, logger *slog.Logger) (Sink, error) {
	return nil, fmt.Errorf("portaudio backend not available: rebuild with -tags portaudio")
}

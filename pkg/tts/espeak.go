package tts

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const providerEspeak = "espeak"

// Espeak implements Provider with the espeak command-line engine.
// Amplitude, speed, gap and pitch are validated against espeak's
// accepted ranges at construction.
type Espeak struct {
	config *Config
	logger *slog.Logger
}

// NewEspeak creates a new espeak provider.
func NewEspeak(opts ...Option) (*Espeak, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if _, err := exec.LookPath("espeak"); err != nil {
		return nil, fmt.Errorf("%w: espeak", ErrEngineNotInstalled)
	}
	if err := cfg.validateEspeakParams(); err != nil {
		return nil, err
	}

	return &Espeak{
		config: cfg,
		logger: cfg.Logger.With("component", "tts.espeak"),
	}, nil
}

// Synthesize renders text to a WAV buffer via a temporary file.
func (e *Espeak) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	start := time.Now()

	dir, err := os.MkdirTemp("", "espeak")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)
	out := filepath.Join(dir, "out.wav")

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "espeak",
		"-a", strconv.Itoa(e.config.Amplitude),
		"-s", strconv.Itoa(e.config.Speed),
		"-g", strconv.Itoa(e.config.Gap),
		"-p", strconv.Itoa(e.config.Pitch),
		"-w", out,
		text,
	)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("tts [%s]: %w: %s", providerEspeak, err, strings.TrimSpace(stderr.String()))
	}

	audio, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("tts [%s]: read output: %w", providerEspeak, err)
	}

	return &AudioResult{
		Audio:     audio,
		Format:    AudioFormat{Container: "wav", SampleRate: 22050, Channels: 1, BitDepth: 16},
		CharCount: len(text),
		LatencyMs: time.Since(start).Milliseconds(),
	}, nil
}

// Stream renders fully, then chunks the result.
func (e *Espeak) Stream(ctx context.Context, text string) (AudioStream, error) {
	result, err := e.Synthesize(ctx, text)
	if err != nil {
		return nil, err
	}
	return newMemStream(result.Audio, result.Format), nil
}

// Name returns "espeak".
func (e *Espeak) Name() string { return providerEspeak }

// Close releases resources.
func (e *Espeak) Close() error { return nil }

var _ Provider = (*Espeak)(nil)

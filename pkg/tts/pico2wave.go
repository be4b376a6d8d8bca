package tts

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const providerPico = "pico2wave"

// pico2wave ships voices for exactly these locales.
var picoLanguages = []string{"en-US", "en-GB", "de-DE", "es-ES", "fr-FR", "it-IT"}

// Pico2Wave implements Provider with the pico2wave command-line engine.
type Pico2Wave struct {
	config *Config
	logger *slog.Logger
}

// NewPico2Wave creates a new pico2wave provider. The configured language
// must be in the engine's allowlist.
func NewPico2Wave(opts ...Option) (*Pico2Wave, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if _, err := exec.LookPath("pico2wave"); err != nil {
		return nil, fmt.Errorf("%w: pico2wave", ErrEngineNotInstalled)
	}
	if !picoLangSupported(cfg.Lang) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, cfg.Lang)
	}

	return &Pico2Wave{
		config: cfg,
		logger: cfg.Logger.With("component", "tts.pico2wave"),
	}, nil
}

func picoLangSupported(lang string) bool {
	for _, l := range picoLanguages {
		if l == lang {
			return true
		}
	}
	return false
}

// Synthesize renders text to a WAV buffer via a temporary file.
func (p *Pico2Wave) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	start := time.Now()

	dir, err := os.MkdirTemp("", "pico2wave")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)
	out := filepath.Join(dir, "out.wav")

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "pico2wave",
		"-l", p.config.Lang,
		"-w", out,
		text,
	)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("tts [%s]: %w: %s", providerPico, err, strings.TrimSpace(stderr.String()))
	}

	audio, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("tts [%s]: read output: %w", providerPico, err)
	}

	return &AudioResult{
		Audio:     audio,
		Format:    AudioFormat{Container: "wav", SampleRate: 16000, Channels: 1, BitDepth: 16},
		CharCount: len(text),
		LatencyMs: time.Since(start).Milliseconds(),
	}, nil
}

// Stream renders fully, then chunks the result.
func (p *Pico2Wave) Stream(ctx context.Context, text string) (AudioStream, error) {
	result, err := p.Synthesize(ctx, text)
	if err != nil {
		return nil, err
	}
	return newMemStream(result.Audio, result.Format), nil
}

// Name returns "pico2wave".
func (p *Pico2Wave) Name() string { return providerPico }

// Close releases resources.
func (p *Pico2Wave) Close() error { return nil }

var _ Provider = (*Pico2Wave)(nil)

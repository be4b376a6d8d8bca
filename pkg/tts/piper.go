package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/buddybotics/go-buddy/internal/httpc"
)

const (
	providerPiper = "piper"

	// DefaultPiperModelDir is where piper voice files live unless
	// overridden with WithModelDir.
	DefaultPiperModelDir = "/opt/piper_models"

	piperVoiceURL = "https://huggingface.co/rhasspy/piper-voices/resolve/v1.0.0"
)

// Piper implements Provider using the piper executable with local neural
// voice files. Voices are identified as "<code>-<name>-<quality>"
// (e.g. "en_US-ryan-low") and downloaded on demand.
type Piper struct {
	config *Config
	http   *http.Client
	logger *slog.Logger

	sampleRate int
}

// NewPiper creates a new Piper provider. The piper executable must be on
// PATH; the voice model downloads lazily on first synthesis.
func NewPiper(opts ...Option) (*Piper, error) {
	cfg := DefaultConfig()
	cfg.ModelDir = DefaultPiperModelDir
	cfg.Apply(opts...)

	if _, err := exec.LookPath("piper"); err != nil {
		return nil, fmt.Errorf("%w: piper", ErrEngineNotInstalled)
	}

	return &Piper{
		config: cfg,
		http:   httpc.NewClient(5 * time.Minute),
		logger: cfg.Logger.With("component", "tts.piper"),
	}, nil
}

// Synthesize renders text to a WAV buffer. A synthesis failure triggers
// one forced re-download of the voice, covering corrupted model files.
func (p *Piper) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	if p.config.Model == "" {
		return nil, ErrNoModel
	}
	start := time.Now()

	if isChineseModel(p.config.Model) {
		text = FixChinesePunctuation(text)
	}

	if err := p.EnsureModel(ctx, false); err != nil {
		return nil, err
	}

	audio, err := p.run(ctx, text)
	if err != nil {
		p.logger.Warn("synthesis failed, re-downloading voice", "error", err)
		if dlErr := p.EnsureModel(ctx, true); dlErr != nil {
			return nil, dlErr
		}
		audio, err = p.run(ctx, text)
		if err != nil {
			return nil, err
		}
	}

	return &AudioResult{
		Audio:     audio,
		Format:    p.format(),
		CharCount: len(text),
		LatencyMs: time.Since(start).Milliseconds(),
	}, nil
}

// Stream renders fully, then chunks the result.
func (p *Piper) Stream(ctx context.Context, text string) (AudioStream, error) {
	result, err := p.Synthesize(ctx, text)
	if err != nil {
		return nil, err
	}
	return newMemStream(result.Audio, result.Format), nil
}

// Name returns "piper".
func (p *Piper) Name() string { return providerPiper }

// Close releases resources.
func (p *Piper) Close() error {
	p.http.CloseIdleConnections()
	return nil
}

func (p *Piper) run(ctx context.Context, text string) ([]byte, error) {
	modelPath := p.modelPath()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "piper",
		"--model", modelPath,
		"--config", modelPath+".json",
		"--output_file", "-",
	)
	cmd.Stdin = strings.NewReader(text)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("tts [%s]: %w: %s", providerPiper, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

func (p *Piper) format() AudioFormat {
	rate := p.sampleRate
	if rate == 0 {
		rate = p.loadSampleRate()
	}
	return AudioFormat{Container: "wav", SampleRate: rate, Channels: 1, BitDepth: 16}
}

// loadSampleRate reads the voice's sample rate from its config json.
func (p *Piper) loadSampleRate() int {
	data, err := os.ReadFile(p.modelPath() + ".json")
	if err != nil {
		return 22050
	}
	var cfg struct {
		Audio struct {
			SampleRate int `json:"sample_rate"`
		} `json:"audio"`
	}
	if json.Unmarshal(data, &cfg) != nil || cfg.Audio.SampleRate == 0 {
		return 22050
	}
	p.sampleRate = cfg.Audio.SampleRate
	return p.sampleRate
}

// ModelDownloaded reports whether both voice files are present.
func (p *Piper) ModelDownloaded() bool {
	modelPath := p.modelPath()
	if _, err := os.Stat(modelPath); err != nil {
		return false
	}
	_, err := os.Stat(modelPath + ".json")
	return err == nil
}

// EnsureModel downloads the voice files unless present. With force set,
// both files are fetched again regardless.
func (p *Piper) EnsureModel(ctx context.Context, force bool) error {
	if !force && p.ModelDownloaded() {
		return nil
	}
	if err := os.MkdirAll(p.config.ModelDir, 0o755); err != nil {
		return fmt.Errorf("tts [%s]: create model dir: %w", providerPiper, err)
	}

	base, err := voiceURL(p.config.Model)
	if err != nil {
		return err
	}

	modelPath := p.modelPath()
	p.logger.Info("downloading voice", "model", p.config.Model, "force", force)
	if err := p.fetch(ctx, base+".onnx", modelPath); err != nil {
		return err
	}
	if err := p.fetch(ctx, base+".onnx.json", modelPath+".json"); err != nil {
		return err
	}
	p.sampleRate = 0
	return nil
}

func (p *Piper) fetch(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return err
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("tts [%s]: fetch %s: %w", providerPiper, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tts [%s]: fetch %s: status %d", providerPiper, url, resp.StatusCode)
	}

	tmp := dest + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, dest)
}

func (p *Piper) modelPath() string {
	return filepath.Join(p.config.ModelDir, p.config.Model+".onnx")
}

// voiceURL maps a voice id like "en_US-ryan-low" onto the upstream
// repository layout: <family>/<code>/<name>/<quality>/<id>.
func voiceURL(model string) (string, error) {
	parts := strings.Split(model, "-")
	if len(parts) != 3 {
		return "", fmt.Errorf("tts [%s]: malformed voice id %q", providerPiper, model)
	}
	code, name, quality := parts[0], parts[1], parts[2]
	family, _, ok := strings.Cut(code, "_")
	if !ok {
		return "", fmt.Errorf("tts [%s]: malformed voice id %q", providerPiper, model)
	}
	return fmt.Sprintf("%s/%s/%s/%s/%s/%s", piperVoiceURL, family, code, name, quality, model), nil
}

// memStream chunks an in-memory buffer.
type memStream struct {
	data   []byte
	pos    int
	format AudioFormat
	closed bool
}

func newMemStream(data []byte, format AudioFormat) *memStream {
	return &memStream{data: data, format: format}
}

func (s *memStream) Read() ([]byte, error) {
	if s.closed {
		return nil, ErrStreamClosed
	}
	if s.pos >= len(s.data) {
		return nil, io.EOF
	}
	end := s.pos + 4096
	if end > len(s.data) {
		end = len(s.data)
	}
	chunk := s.data[s.pos:end]
	s.pos = end
	return chunk, nil
}

func (s *memStream) Close() error {
	s.closed = true
	return nil
}

func (s *memStream) Format() AudioFormat { return s.format }

var _ Provider = (*Piper)(nil)
var _ AudioStream = (*memStream)(nil)

package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/buddybotics/go-buddy/internal/httpc"
)

const (
	openAITTSURL   = "https://api.openai.com/v1/audio/speech"
	providerOpenAI = "openai"
)

// OpenAI voice options
const (
	VoiceAlloy   = "alloy"
	VoiceAsh     = "ash"
	VoiceCoral   = "coral"
	VoiceEcho    = "echo"
	VoiceFable   = "fable"
	VoiceNova    = "nova"
	VoiceOnyx    = "onyx"
	VoiceSage    = "sage"
	VoiceShimmer = "shimmer"
)

// OpenAI model options
const (
	ModelGPT4oMiniTTS = "gpt-4o-mini-tts"
	ModelTTS1         = "tts-1"
)

// DefaultInstructions is the delivery prompt used when none is configured.
const DefaultInstructions = "Speak in a cheerful and positive tone."

// Audio container options
const (
	FormatWAV  = "wav"
	FormatOpus = "opus"
)

// OpenAI implements Provider for the OpenAI speech API. WAV output
// plays straight through; opus output trades a decode step for less
// bandwidth on slow links.
type OpenAI struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

// NewOpenAI creates a new OpenAI TTS provider.
func NewOpenAI(opts ...Option) (*OpenAI, error) {
	cfg := DefaultConfig()
	cfg.Model = ModelGPT4oMiniTTS
	cfg.Voice = VoiceAlloy
	cfg.Instructions = DefaultInstructions
	cfg.Apply(opts...)

	switch cfg.Format {
	case "":
		cfg.Format = FormatWAV
	case FormatWAV, FormatOpus:
	default:
		return nil, fmt.Errorf("tts [%s]: unsupported format %q", providerOpenAI, cfg.Format)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openAITTSURL
	}

	return &OpenAI{
		config:  cfg,
		client:  httpc.NewClient(cfg.Timeout),
		logger:  cfg.Logger.With("component", "tts.openai"),
		baseURL: baseURL,
	}, nil
}

// Synthesize converts text to audio, returning the complete buffer in
// the configured container.
func (o *OpenAI) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	start := time.Now()

	resp, err := o.request(ctx, text, o.client)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tts [%s]: read audio: %w", providerOpenAI, err)
	}

	return &AudioResult{
		Audio:     audio,
		Format:    o.format(),
		CharCount: len(text),
		LatencyMs: time.Since(start).Milliseconds(),
	}, nil
}

// Stream converts text to audio, yielding chunks as they arrive.
func (o *OpenAI) Stream(ctx context.Context, text string) (AudioStream, error) {
	resp, err := o.request(ctx, text, httpc.NewClient(o.config.StreamTimeout))
	if err != nil {
		return nil, err
	}
	return &httpStream{body: resp.Body, format: o.format()}, nil
}

// Name returns "openai".
func (o *OpenAI) Name() string { return providerOpenAI }

// Close releases resources.
func (o *OpenAI) Close() error {
	o.client.CloseIdleConnections()
	return nil
}

func (o *OpenAI) format() AudioFormat {
	if o.config.Format == FormatOpus {
		// Opus always decodes at 48kHz regardless of the encode rate.
		return AudioFormat{Container: FormatOpus, SampleRate: 48000, Channels: 1, BitDepth: 16}
	}
	return AudioFormat{Container: FormatWAV, SampleRate: 24000, Channels: 1, BitDepth: 16}
}

func (o *OpenAI) request(ctx context.Context, text string, client *http.Client) (*http.Response, error) {
	if o.config.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	payload := map[string]any{
		"model":           o.config.Model,
		"voice":           o.config.Voice,
		"input":           text,
		"response_format": o.config.Format,
	}
	if o.config.Instructions != "" {
		payload["instructions"] = o.config.Instructions
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("tts [%s]: marshal payload: %w", providerOpenAI, err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("tts [%s]: create request: %w", providerOpenAI, err)
	}
	req.Header.Set("Authorization", "Bearer "+o.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	var resp *http.Response
	var lastErr error
	for attempt := 0; attempt <= o.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(o.config.RetryDelay * time.Duration(attempt)):
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
		}

		resp, err = client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("tts [%s]: %w", providerOpenAI, err)
			continue
		}
		if resp.StatusCode == 429 || resp.StatusCode >= 500 {
			lastErr = parseAPIError(resp, providerOpenAI)
			resp.Body.Close()
			o.logger.Warn("retrying request", "attempt", attempt+1, "status", resp.StatusCode)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			defer resp.Body.Close()
			return nil, parseAPIError(resp, providerOpenAI)
		}
		return resp, nil
	}
	return nil, lastErr
}

// parseAPIError reads an error response body into an APIError.
func parseAPIError(resp *http.Response, provider string) error {
	body, _ := io.ReadAll(resp.Body)
	message := string(body)

	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Provider:   provider,
	}
}

// httpStream chunks an HTTP response body.
type httpStream struct {
	body   io.ReadCloser
	format AudioFormat
	closed bool
}

func (s *httpStream) Read() ([]byte, error) {
	if s.closed {
		return nil, ErrStreamClosed
	}
	buf := make([]byte, 4096)
	n, err := s.body.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	if err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *httpStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}

func (s *httpStream) Format() AudioFormat { return s.format }

var _ Provider = (*OpenAI)(nil)
var _ AudioStream = (*httpStream)(nil)

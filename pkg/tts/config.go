package tts

import (
	"fmt"
	"log/slog"
	"time"
)

// Config holds TTS engine configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// Provider credentials
	APIKey  string
	BaseURL string

	// Voice configuration
	Model string
	Voice string
	Lang  string

	// Instructions steer delivery for engines that accept them.
	Instructions string

	// Format is the requested audio container for engines that offer
	// a choice ("wav" or "opus"). Empty means "wav".
	Format string

	// ModelDir is where local engines keep downloaded voice files.
	ModelDir string

	// Command-line engine parameters (espeak).
	Amplitude int // 0-200
	Speed     int // 80-260
	Gap       int // 0-200
	Pitch     int // 0-99

	// Timeouts
	Timeout       time.Duration
	StreamTimeout time.Duration

	// Retry configuration
	MaxRetries int
	RetryDelay time.Duration

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring TTS engines.
type Option func(*Config)

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithModel sets the voice model identifier.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithVoice sets the voice name for engines with built-in voices.
func WithVoice(voice string) Option {
	return func(c *Config) { c.Voice = voice }
}

// WithLang sets the language tag for command-line engines.
func WithLang(lang string) Option {
	return func(c *Config) { c.Lang = lang }
}

// WithInstructions sets delivery instructions.
func WithInstructions(instructions string) Option {
	return func(c *Config) { c.Instructions = instructions }
}

// WithFormat sets the requested audio container.
func WithFormat(format string) Option {
	return func(c *Config) { c.Format = format }
}

// WithModelDir sets the local voice model directory.
func WithModelDir(dir string) Option {
	return func(c *Config) { c.ModelDir = dir }
}

// WithAmplitude sets the espeak amplitude (0-200).
func WithAmplitude(a int) Option {
	return func(c *Config) { c.Amplitude = a }
}

// WithSpeed sets the espeak speed in words per minute (80-260).
func WithSpeed(s int) Option {
	return func(c *Config) { c.Speed = s }
}

// WithGap sets the espeak word gap (0-200).
func WithGap(g int) Option {
	return func(c *Config) { c.Gap = g }
}

// WithPitch sets the espeak pitch (0-99).
func WithPitch(p int) Option {
	return func(c *Config) { c.Pitch = p }
}

// WithTimeout sets the request timeout for non-streaming requests.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) { c.Timeout = timeout }
}

// WithStreamTimeout sets the timeout for streaming requests.
func WithStreamTimeout(timeout time.Duration) Option {
	return func(c *Config) { c.StreamTimeout = timeout }
}

// WithRetry configures retry behavior for failed requests.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.RetryDelay = delay
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		Lang:          "en-US",
		Amplitude:     100,
		Speed:         175,
		Gap:           5,
		Pitch:         50,
		Timeout:       30 * time.Second,
		StreamTimeout: 60 * time.Second,
		MaxRetries:    3,
		RetryDelay:    100 * time.Millisecond,
		Logger:        slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// validateEspeakParams checks the command-line parameter ranges.
func (c *Config) validateEspeakParams() error {
	if c.Amplitude < 0 || c.Amplitude > 200 {
		return fmt.Errorf("tts: amplitude must be 0-200, got %d", c.Amplitude)
	}
	if c.Speed < 80 || c.Speed > 260 {
		return fmt.Errorf("tts: speed must be 80-260, got %d", c.Speed)
	}
	if c.Gap < 0 || c.Gap > 200 {
		return fmt.Errorf("tts: gap must be 0-200, got %d", c.Gap)
	}
	if c.Pitch < 0 || c.Pitch > 99 {
		return fmt.Errorf("tts: pitch must be 0-99, got %d", c.Pitch)
	}
	return nil
}

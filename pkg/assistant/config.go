package assistant

import (
	"log/slog"
	"time"

	"github.com/buddybotics/go-buddy/pkg/llm"
)

// Config holds the assistant's behavioral settings.
type Config struct {
	// WakePhrases are the exact phrases that wake the assistant.
	WakePhrases []string

	// AckText is spoken right after waking, before the full listen.
	// Empty disables the acknowledgment.
	AckText string

	// EnableWake runs the wake-word trigger.
	EnableWake bool

	// EnableKeyboard also accepts typed lines as turns.
	EnableKeyboard bool

	// EnableImage captures a camera frame with each spoken turn.
	EnableImage bool

	// Instructions is the system prompt, pinned at the front of
	// history.
	Instructions string

	// Welcome seeds history with an opening assistant message.
	Welcome string

	// MaxMessages bounds the conversation history.
	MaxMessages int

	// PollInterval paces the trigger arbiter.
	PollInterval time.Duration

	// Logger for the assistant and its workers.
	Logger *slog.Logger
}

// Option configures the assistant.
type Option func(*Config)

// WithWakePhrases sets the wake vocabulary.
func WithWakePhrases(phrases ...string) Option {
	return func(c *Config) { c.WakePhrases = phrases }
}

// WithAckText sets the phrase spoken after waking.
func WithAckText(text string) Option {
	return func(c *Config) { c.AckText = text }
}

// WithWake toggles the wake-word trigger.
func WithWake(enabled bool) Option {
	return func(c *Config) { c.EnableWake = enabled }
}

// WithKeyboard toggles the typed-input trigger.
func WithKeyboard(enabled bool) Option {
	return func(c *Config) { c.EnableKeyboard = enabled }
}

// WithImageCapture toggles per-turn camera frames.
func WithImageCapture(enabled bool) Option {
	return func(c *Config) { c.EnableImage = enabled }
}

// WithInstructions sets the system prompt.
func WithInstructions(text string) Option {
	return func(c *Config) { c.Instructions = text }
}

// WithWelcome sets the opening assistant message.
func WithWelcome(text string) Option {
	return func(c *Config) { c.Welcome = text }
}

// WithMaxMessages bounds the history length.
func WithMaxMessages(n int) Option {
	return func(c *Config) { c.MaxMessages = n }
}

// WithPollInterval sets the arbiter tick.
func WithPollInterval(d time.Duration) Option {
	return func(c *Config) { c.PollInterval = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns the default assistant settings.
func DefaultConfig() *Config {
	return &Config{
		WakePhrases:    []string{"hey buddy"},
		EnableWake:     true,
		EnableKeyboard: true,
		MaxMessages:    llm.DefaultMaxMessages,
		PollInterval:   defaultPollInterval,
	}
}

// Apply applies options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

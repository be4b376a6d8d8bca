package llm

import (
	"log/slog"
	"time"
)

// Vendor selects a chat API vendor preset.
type Vendor string

const (
	VendorOpenAI   Vendor = "openai"
	VendorDeepseek Vendor = "deepseek"
	VendorGrok     Vendor = "grok"
	VendorDoubao   Vendor = "doubao"
	VendorQwen     Vendor = "qwen"
	VendorGemini   Vendor = "gemini"
	VendorOllama   Vendor = "ollama"

	// VendorCustom uses whatever base URL or full URL is configured.
	VendorCustom Vendor = "custom"
)

// wire identifies the streaming wire format a vendor speaks.
type wire int

const (
	// wireOpenAI is SSE: "data: {...}" lines terminated by "data: [DONE]".
	wireOpenAI wire = iota

	// wireOllama is raw JSON objects, one per line.
	wireOllama
)

// vendorPreset holds the per-vendor connection defaults.
type vendorPreset struct {
	baseURL string
	url     string
	wire    wire
	// keyOptional vendors accept requests without an API key (local servers).
	keyOptional bool
}

var vendorPresets = map[Vendor]vendorPreset{
	VendorOpenAI:   {baseURL: "https://api.openai.com/v1"},
	VendorDeepseek: {baseURL: "https://api.deepseek.com"},
	VendorGrok:     {baseURL: "https://api.x.ai/v1"},
	VendorDoubao:   {baseURL: "https://ark.cn-beijing.volces.com/api/v3"},
	VendorQwen:     {baseURL: "https://dashscope.aliyuncs.com/compatible-mode/v1"},
	VendorGemini:   {baseURL: "https://generativelanguage.googleapis.com/v1beta/openai"},
	VendorOllama:   {url: "http://localhost:11434/api/chat", wire: wireOllama, keyOptional: true},
	VendorCustom:   {keyOptional: true},
}

// Config holds client configuration.
type Config struct {
	// Connection
	Vendor  Vendor
	BaseURL string // overrides the vendor base URL
	URL     string // overrides the full chat endpoint URL
	APIKey  string

	// Request defaults
	Model       string
	MaxTokens   int
	Temperature float64

	// Params are extra payload fields passed through verbatim
	// (e.g. "think": false for reasoning models on Ollama).
	Params map[string]any

	// Timeouts
	Timeout       time.Duration
	StreamTimeout time.Duration

	// Retry configuration
	MaxRetries int
	RetryDelay time.Duration

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring the client.
type Option func(*Config)

// WithVendor selects a vendor preset.
func WithVendor(v Vendor) Option {
	return func(c *Config) { c.Vendor = v }
}

// WithBaseURL overrides the vendor's API base URL.
// The chat endpoint is derived as baseURL + "/chat/completions".
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithURL sets the full chat endpoint URL, bypassing base-URL derivation.
func WithURL(url string) Option {
	return func(c *Config) { c.URL = url }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithModel sets the chat model.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithMaxTokens sets the default max tokens.
func WithMaxTokens(n int) Option {
	return func(c *Config) { c.MaxTokens = n }
}

// WithTemperature sets the default temperature.
func WithTemperature(t float64) Option {
	return func(c *Config) { c.Temperature = t }
}

// WithParam sets an extra payload field passed through to the API.
func WithParam(name string, value any) Option {
	return func(c *Config) {
		if c.Params == nil {
			c.Params = map[string]any{}
		}
		c.Params[name] = value
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithStreamTimeout sets the streaming request timeout.
func WithStreamTimeout(d time.Duration) Option {
	return func(c *Config) { c.StreamTimeout = d }
}

// WithRetry configures retry behavior.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.RetryDelay = delay
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Vendor:        VendorOpenAI,
		Temperature:   0.7,
		Timeout:       30 * time.Second,
		StreamTimeout: 120 * time.Second,
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

// endpoint resolves the chat endpoint URL for this config.
func (c *Config) endpoint() string {
	if c.URL != "" {
		return c.URL
	}
	preset := vendorPresets[c.Vendor]
	base := c.BaseURL
	if base == "" {
		base = preset.baseURL
	}
	if base != "" {
		return base + "/chat/completions"
	}
	return preset.url
}

// wireFormat resolves the streaming wire format for this config.
func (c *Config) wireFormat() wire {
	return vendorPresets[c.Vendor].wire
}

// keyOptional reports whether the vendor accepts requests without a key.
func (c *Config) keyOptional() bool {
	return vendorPresets[c.Vendor].keyOptional
}

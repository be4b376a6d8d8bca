// Package config loads the go-buddy configuration file.
//
// The file is YAML with ${ENV_VAR} expansion, so API keys can stay out of
// the file itself. Missing fields fall back to defaults suitable for a
// bench setup; credentials are validated at the point of use, not here.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for the assistant binary.
type Config struct {
	Assistant AssistantConfig `yaml:"assistant"`
	LLM       LLMConfig       `yaml:"llm"`
	STT       STTConfig       `yaml:"stt"`
	TTS       TTSConfig       `yaml:"tts"`
	Audio     AudioConfig     `yaml:"audio"`
	Web       WebConfig       `yaml:"web"`
	Log       LogConfig       `yaml:"log"`
}

// AssistantConfig controls the main loop behaviour.
type AssistantConfig struct {
	Name           string   `yaml:"name"`
	WakeWords      []string `yaml:"wake_words"`
	WakeEnable     *bool    `yaml:"wake_enable"`
	KeyboardEnable *bool    `yaml:"keyboard_enable"`
	WithImage      bool     `yaml:"with_image"`
	AnswerOnWake   string   `yaml:"answer_on_wake"`
	Welcome        string   `yaml:"welcome"`
	Instructions   string   `yaml:"instructions"`
}

// LLMConfig selects the chat vendor and model.
type LLMConfig struct {
	Vendor      string  `yaml:"vendor"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	URL         string  `yaml:"url"`
	MaxMessages int     `yaml:"max_messages"`
	Temperature float64 `yaml:"temperature"`
}

// STTConfig configures speech recognition.
type STTConfig struct {
	Language  string `yaml:"language"`
	ServerURL string `yaml:"server_url"`
	ModelDir  string `yaml:"model_dir"`
}

// TTSConfig selects the speech engine.
type TTSConfig struct {
	Engine   string  `yaml:"engine"`
	Model    string  `yaml:"model"`
	Voice    string  `yaml:"voice"`
	APIKey   string  `yaml:"api_key"`
	Language string  `yaml:"language"`
	Format   string  `yaml:"format"`
	Gain     float64 `yaml:"gain"`
	ModelDir string  `yaml:"model_dir"`
}

// AudioConfig configures capture and playback devices.
type AudioConfig struct {
	Backend    string `yaml:"backend"`
	SampleRate int    `yaml:"sample_rate"`
	Device     string `yaml:"device"`
}

// WebConfig configures the optional dashboard.
type WebConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

func (c *Config) setDefaults() {
	if c.Assistant.Name == "" {
		c.Assistant.Name = "Buddy"
	}
	if len(c.Assistant.WakeWords) == 0 {
		c.Assistant.WakeWords = []string{"hey buddy"}
	}
	if c.Assistant.WakeEnable == nil {
		t := true
		c.Assistant.WakeEnable = &t
	}
	if c.Assistant.KeyboardEnable == nil {
		t := true
		c.Assistant.KeyboardEnable = &t
	}
	if c.LLM.Vendor == "" {
		c.LLM.Vendor = "openai"
	}
	if c.LLM.MaxMessages == 0 {
		c.LLM.MaxMessages = 20
	}
	if c.STT.Language == "" {
		c.STT.Language = "en-us"
	}
	if c.STT.ServerURL == "" {
		c.STT.ServerURL = "ws://localhost:2700"
	}
	if c.TTS.Engine == "" {
		c.TTS.Engine = "piper"
	}
	if c.TTS.Model == "" {
		c.TTS.Model = "en_US-ryan-low"
	}
	if c.TTS.Gain == 0 {
		c.TTS.Gain = 1.0
	}
	if c.Audio.Backend == "" {
		c.Audio.Backend = "auto"
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
	if c.Web.Addr == "" {
		c.Web.Addr = ":9090"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Package camera captures webcam frames for image-aware conversation
// turns and the dashboard preview.
package camera

import "fmt"

// Config holds camera capture parameters.
type Config struct {
	// Device is the capture device index.
	Device int `yaml:"device" json:"device"`

	// Width and Height request a capture resolution. The driver may
	// pick the closest supported mode.
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`

	// Framerate is the target capture rate in frames per second.
	Framerate int `yaml:"framerate" json:"framerate"`

	// Quality is the JPEG encode quality, 1-100.
	Quality int `yaml:"quality" json:"quality"`

	// FlipHorizontal mirrors frames, matching what a user expects
	// from a front-facing camera.
	FlipHorizontal bool `yaml:"flip_horizontal" json:"flip_horizontal"`
}

// DefaultConfig returns the default capture configuration.
func DefaultConfig() Config {
	return Config{
		Device:    0,
		Width:     640,
		Height:    480,
		Framerate: 15,
		Quality:   85,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Device < 0 {
		return fmt.Errorf("device must be non-negative, got %d", c.Device)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("resolution must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.Framerate <= 0 {
		return fmt.Errorf("framerate must be positive, got %d", c.Framerate)
	}
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("quality must be 1-100, got %d", c.Quality)
	}
	return nil
}

// Presets are named capture configurations selectable from the
// dashboard.
var presets = map[string]Config{
	"low":    {Width: 320, Height: 240, Framerate: 10, Quality: 70},
	"medium": {Width: 640, Height: 480, Framerate: 15, Quality: 85},
	"high":   {Width: 1280, Height: 720, Framerate: 30, Quality: 90},
}

// Preset returns a named configuration, preserving the device index
// of the base config.
func Preset(name string, base Config) (Config, error) {
	p, ok := presets[name]
	if !ok {
		return Config{}, fmt.Errorf("unknown camera preset %q", name)
	}
	p.Device = base.Device
	p.FlipHorizontal = base.FlipHorizontal
	return p, nil
}

// PresetNames lists the available presets.
func PresetNames() []string {
	return []string{"low", "medium", "high"}
}

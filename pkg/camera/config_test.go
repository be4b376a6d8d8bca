package camera

import (
	"context"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"negative device", func(c *Config) { c.Device = -1 }, true},
		{"zero width", func(c *Config) { c.Width = 0 }, true},
		{"zero framerate", func(c *Config) { c.Framerate = 0 }, true},
		{"quality too high", func(c *Config) { c.Quality = 101 }, true},
		{"quality zero", func(c *Config) { c.Quality = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPresetKeepsDevice(t *testing.T) {
	base := DefaultConfig()
	base.Device = 2
	base.FlipHorizontal = true

	cfg, err := Preset("high", base)
	if err != nil {
		t.Fatalf("Preset: %v", err)
	}
	if cfg.Device != 2 {
		t.Errorf("device = %d, want 2", cfg.Device)
	}
	if !cfg.FlipHorizontal {
		t.Error("flip setting lost")
	}
	if cfg.Width != 1280 || cfg.Height != 720 {
		t.Errorf("resolution = %dx%d, want 1280x720", cfg.Width, cfg.Height)
	}
}

func TestPresetUnknown(t *testing.T) {
	if _, err := Preset("ultra", DefaultConfig()); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestPresetNamesAllResolve(t *testing.T) {
	for _, name := range PresetNames() {
		cfg, err := Preset(name, DefaultConfig())
		if err != nil {
			t.Errorf("preset %q: %v", name, err)
			continue
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("preset %q invalid: %v", name, err)
		}
	}
}

func TestMockCameraCyclesFrames(t *testing.T) {
	mock := NewMockCamera([]byte("frame-a"), []byte("frame-b"))
	if err := mock.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	first, err := mock.Frame()
	if err != nil {
		t.Fatalf("Frame: %v", err)
	}
	second, _ := mock.Frame()
	third, _ := mock.Frame()

	if string(first.JPEG) != "frame-a" || string(second.JPEG) != "frame-b" || string(third.JPEG) != "frame-a" {
		t.Errorf("frames did not cycle: %q %q %q", first.JPEG, second.JPEG, third.JPEG)
	}
	if third.Seq != 3 {
		t.Errorf("seq = %d, want 3", third.Seq)
	}
}

func TestMockCameraEmpty(t *testing.T) {
	mock := NewMockCamera()
	if _, err := mock.Frame(); err != ErrNoFrame {
		t.Errorf("got %v, want ErrNoFrame", err)
	}
}

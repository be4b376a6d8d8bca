package assistant

import (
	"context"
	"log/slog"

	"github.com/buddybotics/go-buddy/pkg/stt"
)

// wakeTriggerConfig carries the optional pieces of a wake trigger.
type wakeTriggerConfig struct {
	ack          func(ctx context.Context)
	onWake       func()
	beforeListen func()
	afterListen  func(text string)
	logger       *slog.Logger
}

// WakeTriggerOption configures a wake trigger.
type WakeTriggerOption func(*wakeTriggerConfig)

// WithAck sets a callback that speaks the acknowledgment phrase
// between waking and listening.
func WithAck(ack func(ctx context.Context)) WakeTriggerOption {
	return func(c *wakeTriggerConfig) { c.ack = ack }
}

// WithOnWake sets a callback fired the moment the wake word matches.
func WithOnWake(fn func()) WakeTriggerOption {
	return func(c *wakeTriggerConfig) { c.onWake = fn }
}

// WithListenHooks sets callbacks around the full listen. Either may
// be nil.
func WithListenHooks(before func(), after func(text string)) WakeTriggerOption {
	return func(c *wakeTriggerConfig) {
		c.beforeListen = before
		c.afterListen = after
	}
}

// WithWakeTriggerLogger sets the logger.
func WithWakeTriggerLogger(l *slog.Logger) WakeTriggerOption {
	return func(c *wakeTriggerConfig) { c.logger = l }
}

// NewWakeTrigger builds the wake-word trigger. When the detector has
// waked, the trigger stops wake listening, optionally speaks an
// acknowledgment, then runs a full listen; the heard text becomes the
// turn's message. A wake that yields no utterance restarts wake
// listening and reports not triggered.
func NewWakeTrigger(det *stt.WakeDetector, listener *stt.Listener, opts ...WakeTriggerOption) Trigger {
	cfg := wakeTriggerConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	logger := cfg.logger.With("component", "wake-trigger")

	return func(ctx context.Context) Result {
		if !det.Waked() {
			return Result{}
		}
		logger.Info("wake word detected")
		det.Stop()
		if cfg.onWake != nil {
			cfg.onWake()
		}
		if cfg.ack != nil {
			cfg.ack(ctx)
		}

		if cfg.beforeListen != nil {
			cfg.beforeListen()
		}
		text, err := listener.Listen(ctx)
		if err != nil {
			logger.Warn("listen failed", "error", err)
		}
		if cfg.afterListen != nil {
			cfg.afterListen(text)
		}
		if text == "" {
			// Nothing heard; go back to wake listening.
			if err := det.Start(ctx); err != nil {
				logger.Warn("restart wake listening", "error", err)
			}
			return Result{}
		}
		return Result{Triggered: true, Message: text}
	}
}

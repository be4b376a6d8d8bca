package stt

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/buddybotics/go-buddy/pkg/audioio"
)

// State is a wake detector lifecycle state.
type State int

const (
	// StateIdle means no background listening task is running.
	StateIdle State = iota

	// StateListening means a background task is pulling audio and matching
	// utterances against the wake phrases.
	StateListening

	// StateWaked means a wake phrase matched. The state holds until the
	// next Start begins a fresh cycle.
	StateWaked
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateWaked:
		return "waked"
	default:
		return "unknown"
	}
}

// WakeDetector listens for wake phrases in the background.
//
// The lifecycle is idle → listening → waked → idle, driven by Start and
// the background task. A committed utterance wakes the detector iff its
// normalized text exactly equals one configured phrase: matching is
// case and whitespace insensitive but never fuzzy, so a near-miss
// transcript does not wake the system.
type WakeDetector struct {
	source  audioio.Source
	rec     Recognizer
	phrases []string
	logger  *slog.Logger

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}
}

// WakeOption configures a WakeDetector.
type WakeOption func(*WakeDetector)

// WithWakeLogger sets the structured logger.
func WithWakeLogger(l *slog.Logger) WakeOption {
	return func(d *WakeDetector) { d.logger = l }
}

// NewWakeDetector creates a detector matching the given phrases.
func NewWakeDetector(source audioio.Source, rec Recognizer, phrases []string, opts ...WakeOption) *WakeDetector {
	d := &WakeDetector{
		source: source,
		rec:    rec,
		logger: slog.Default(),
	}
	for _, phrase := range phrases {
		d.phrases = append(d.phrases, normalize(phrase))
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("component", "stt.wake")
	return d
}

// Start begins a background listening cycle, clearing any previous waked
// state. Starting while already listening is a no-op.
func (d *WakeDetector) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == StateListening {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})
	d.state = StateListening

	go d.run(runCtx, d.done)
	return nil
}

// Stop cancels the background task and waits for it to exit, up to a
// timeout. A waked state survives Stop; only Start clears it.
func (d *WakeDetector) Stop() {
	d.mu.Lock()
	cancel := d.cancel
	done := d.done
	d.cancel = nil
	d.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		d.logger.Warn("wake task did not exit in time")
	}
}

// Waked reports whether a wake phrase has matched since the last Start.
func (d *WakeDetector) Waked() bool {
	return d.State() == StateWaked
}

// State returns the current lifecycle state.
func (d *WakeDetector) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *WakeDetector) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	defer func() {
		d.mu.Lock()
		if d.state == StateListening {
			d.state = StateIdle
		}
		d.mu.Unlock()
	}()

	if err := d.source.Start(ctx); err != nil {
		d.logger.Error("source start failed", "error", err)
		return
	}
	defer d.source.Stop()

	if err := d.rec.Reset(ctx); err != nil {
		d.logger.Error("recognizer reset failed", "error", err)
		return
	}

	for ctx.Err() == nil {
		chunk, err := d.source.Read(ctx)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) {
				d.logger.Error("audio read failed", "error", err)
			}
			return
		}

		result, err := d.rec.Accept(ctx, chunk.Bytes())
		if err != nil {
			d.logger.Error("recognition failed", "error", err)
			return
		}
		if !result.Final {
			continue
		}

		if d.matches(result.Text) {
			d.mu.Lock()
			d.state = StateWaked
			d.mu.Unlock()
			d.logger.Info("wake phrase matched", "text", result.Text)
			return
		}
	}
}

func (d *WakeDetector) matches(text string) bool {
	text = normalize(text)
	for _, phrase := range d.phrases {
		if text == phrase {
			return true
		}
	}
	return false
}

// normalize lower-cases and collapses whitespace for phrase comparison.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

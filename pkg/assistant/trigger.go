package assistant

import (
	"context"
	"log/slog"
	"time"
)

// Result is what a trigger check reports. Message is meaningful only
// when Triggered is set.
type Result struct {
	// Triggered means this source has a turn to start.
	Triggered bool

	// DisableImage suppresses camera capture for this turn.
	DisableImage bool

	// Message is the user text that starts the turn.
	Message string
}

// Trigger checks one input source for a pending turn. A winning check
// has already consumed its input (stopped wake listening, captured the
// utterance) before returning.
type Trigger func(ctx context.Context) Result

// defaultPollInterval paces the arbiter between empty ticks.
const defaultPollInterval = 10 * time.Millisecond

// Arbiter polls registered triggers in order and reports the first
// match. Registration order is priority order.
type Arbiter struct {
	names    []string
	triggers []Trigger
	interval time.Duration
	logger   *slog.Logger
}

// ArbiterOption configures an Arbiter.
type ArbiterOption func(*Arbiter)

// WithArbiterInterval overrides the sleep between empty ticks.
func WithArbiterInterval(d time.Duration) ArbiterOption {
	return func(a *Arbiter) { a.interval = d }
}

// WithArbiterLogger sets the logger.
func WithArbiterLogger(l *slog.Logger) ArbiterOption {
	return func(a *Arbiter) { a.logger = l }
}

// NewArbiter creates an empty arbiter.
func NewArbiter(opts ...ArbiterOption) *Arbiter {
	a := &Arbiter{interval: defaultPollInterval}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	a.logger = a.logger.With("component", "arbiter")
	return a
}

// Register appends a trigger. The name shows up in logs.
func (a *Arbiter) Register(name string, t Trigger) {
	a.names = append(a.names, name)
	a.triggers = append(a.triggers, t)
}

// Poll runs one tick: each trigger in order, stopping at the first
// match. It returns the winning result and trigger name.
func (a *Arbiter) Poll(ctx context.Context) (Result, string, bool) {
	for i, t := range a.triggers {
		r := a.check(ctx, a.names[i], t)
		if r.Triggered {
			return r, a.names[i], true
		}
	}
	return Result{}, "", false
}

// Wait polls until a trigger fires or the context is cancelled.
func (a *Arbiter) Wait(ctx context.Context) (Result, string, error) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		if r, name, ok := a.Poll(ctx); ok {
			return r, name, nil
		}
		select {
		case <-ctx.Done():
			return Result{}, "", ctx.Err()
		case <-ticker.C:
		}
	}
}

// check runs one trigger with a panic guard. A panicking trigger is
// treated as not triggered.
func (a *Arbiter) check(ctx context.Context, name string, t Trigger) (r Result) {
	defer func() {
		if rec := recover(); rec != nil {
			a.logger.Error("trigger panicked", "trigger", name, "panic", rec)
			r = Result{}
		}
	}()
	return t(ctx)
}

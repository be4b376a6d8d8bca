package stt

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/buddybotics/go-buddy/pkg/audioio"
)

// Listener drives a Recognizer from an audio source.
//
// Two modes are offered. Listen blocks until one utterance is committed.
// Stream yields transcript events as they form: partial hypotheses while
// the utterance is in flight, then a single terminal Done event. Both
// treat cancellation as a silent empty result, never an error.
type Listener struct {
	source audioio.Source
	rec    Recognizer
	logger *slog.Logger
}

// ListenerOption configures a Listener.
type ListenerOption func(*Listener)

// WithListenerLogger sets the structured logger.
func WithListenerLogger(l *slog.Logger) ListenerOption {
	return func(ln *Listener) { ln.logger = l }
}

// NewListener creates a listener over the given source and recognizer.
func NewListener(source audioio.Source, rec Recognizer, opts ...ListenerOption) *Listener {
	l := &Listener{
		source: source,
		rec:    rec,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With("component", "stt.listener")
	return l
}

// Listen blocks until one utterance with non-empty text is committed and
// returns its transcript. Cancellation returns "" with a nil error.
func (l *Listener) Listen(ctx context.Context) (string, error) {
	var final string
	for event := range l.Stream(ctx) {
		if event.Done {
			final = event.Final
		}
	}
	return final, nil
}

// Stream starts the source and produces transcript events until one
// utterance is committed or ctx is cancelled. The channel is closed when
// the sequence ends; a cancelled listen closes it without a Done event.
// The sequence is not restartable.
func (l *Listener) Stream(ctx context.Context) <-chan Event {
	events := make(chan Event)

	go func() {
		defer close(events)

		if err := l.source.Start(ctx); err != nil {
			l.logger.Error("source start failed", "error", err)
			return
		}
		defer l.source.Stop()

		if err := l.rec.Reset(ctx); err != nil {
			l.logger.Error("recognizer reset failed", "error", err)
			return
		}
		// A cancelled listen leaves an utterance in flight on the
		// recognizer. Flush it so the next listen starts clean; the
		// committed text is discarded.
		defer func() {
			if ctx.Err() == nil {
				return
			}
			flushCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if _, err := l.rec.Flush(flushCtx); err != nil {
				l.logger.Debug("flush after cancel failed", "error", err)
			}
		}()

		lastPartial := ""
		for {
			if ctx.Err() != nil {
				return
			}

			chunk, err := l.source.Read(ctx)
			if err != nil {
				if !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) {
					l.logger.Error("audio read failed", "error", err)
				}
				return
			}

			result, err := l.rec.Accept(ctx, chunk.Bytes())
			if err != nil {
				l.logger.Error("recognition failed", "error", err)
				return
			}

			if result.Final {
				text := strings.TrimSpace(result.Text)
				if text == "" {
					// Committed silence. Keep listening.
					lastPartial = ""
					continue
				}
				select {
				case events <- Event{Done: true, Final: text}:
				case <-ctx.Done():
				}
				return
			}

			partial := strings.TrimSpace(result.Text)
			if partial == "" || partial == lastPartial {
				continue
			}
			lastPartial = partial

			select {
			case events <- Event{Partial: partial}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events
}

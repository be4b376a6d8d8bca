package stt

import (
	"context"
	"testing"
	"time"

	"github.com/buddybotics/go-buddy/pkg/audioio"
)

func scriptedSource(n int) *audioio.MockSource {
	cfg := audioio.DefaultConfig()
	cfg.Backend = audioio.BackendMock

	chunk := audioio.AudioChunk{
		Samples:    make([]int16, 320),
		SampleRate: cfg.SampleRate,
		Channels:   1,
	}
	chunks := make([]audioio.AudioChunk, n)
	for i := range chunks {
		chunks[i] = chunk
	}
	return audioio.NewMockSource(cfg, nil, audioio.WithScript(chunks...))
}

func collectEvents(ctx context.Context, l *Listener) []Event {
	var events []Event
	for event := range l.Stream(ctx) {
		events = append(events, event)
	}
	return events
}

func TestStreamYieldsPartialsThenFinal(t *testing.T) {
	rec := NewMockRecognizer(
		Result{Text: "hel"},
		Result{Text: "hello th"},
		Result{Text: "hello there", Final: true},
	)
	l := NewListener(scriptedSource(10), rec)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events := collectEvents(ctx, l)
	if len(events) != 3 {
		t.Fatalf("events = %d, want 3: %v", len(events), events)
	}
	if events[0].Done || events[0].Partial != "hel" {
		t.Errorf("event 0 = %+v", events[0])
	}
	if !events[2].Done || events[2].Final != "hello there" {
		t.Errorf("terminal event = %+v", events[2])
	}
}

func TestStreamSuppressesWhitespacePartials(t *testing.T) {
	rec := NewMockRecognizer(
		Result{Text: "   "},
		Result{Text: ""},
		Result{Text: "hi", Final: true},
	)
	l := NewListener(scriptedSource(10), rec)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events := collectEvents(ctx, l)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1: %v", len(events), events)
	}
	if !events[0].Done {
		t.Errorf("event = %+v, want done", events[0])
	}
}

func TestStreamSingleTerminalEvent(t *testing.T) {
	rec := NewMockRecognizer(
		Result{Text: "one", Final: true},
		Result{Text: "two", Final: true},
	)
	l := NewListener(scriptedSource(10), rec)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events := collectEvents(ctx, l)
	doneCount := 0
	for _, e := range events {
		if e.Done {
			doneCount++
		}
	}
	if doneCount != 1 {
		t.Errorf("done events = %d, want 1", doneCount)
	}
	if !events[len(events)-1].Done {
		t.Error("terminal event is not done")
	}
}

func TestStreamSkipsCommittedSilence(t *testing.T) {
	rec := NewMockRecognizer(
		Result{Text: "  ", Final: true},
		Result{Text: "actual words", Final: true},
	)
	l := NewListener(scriptedSource(10), rec)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events := collectEvents(ctx, l)
	if len(events) != 1 || events[0].Final != "actual words" {
		t.Errorf("events = %v, want single final %q", events, "actual words")
	}
}

func TestStreamEarlyCancelNoFinal(t *testing.T) {
	// No final in the script, so the stream only ends via cancellation.
	rec := NewMockRecognizer()
	l := NewListener(scriptedSource(1000), rec)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	events := collectEvents(ctx, l)
	for _, e := range events {
		if e.Done {
			t.Errorf("cancelled stream yielded done event: %+v", e)
		}
	}
}

func TestStreamCancelFlushesRecognizer(t *testing.T) {
	rec := NewMockRecognizer()
	l := NewListener(scriptedSource(1000), rec)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	collectEvents(ctx, l)
	if rec.Flushes() != 1 {
		t.Errorf("flushes = %d, want 1", rec.Flushes())
	}
}

func TestStreamCompletedDoesNotFlush(t *testing.T) {
	rec := NewMockRecognizer(
		Result{Text: "all done", Final: true},
	)
	l := NewListener(scriptedSource(10), rec)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	collectEvents(ctx, l)
	if rec.Flushes() != 0 {
		t.Errorf("flushes = %d, want 0", rec.Flushes())
	}
}

func TestListenReturnsFinal(t *testing.T) {
	rec := NewMockRecognizer(
		Result{Text: "turn on the light", Final: true},
	)
	l := NewListener(scriptedSource(10), rec)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	text, err := l.Listen(ctx)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	if text != "turn on the light" {
		t.Errorf("text = %q", text)
	}
}

func TestListenCancelledReturnsEmpty(t *testing.T) {
	rec := NewMockRecognizer()
	l := NewListener(scriptedSource(1000), rec)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	text, err := l.Listen(ctx)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	if text != "" {
		t.Errorf("text = %q, want empty", text)
	}
}

package assistant

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestKeyboardTrigger(t *testing.T) {
	k := NewKeyboardReader(WithKeyboardInput(strings.NewReader("turn the lights on\n")))
	k.Start()
	trigger := k.Trigger()

	r := pollUntilTriggered(t, trigger)
	if r.Message != "turn the lights on" {
		t.Errorf("message = %q", r.Message)
	}
	if !r.DisableImage {
		t.Error("typed turns should not capture an image")
	}
}

func TestKeyboardTriggerSkipsBlankLines(t *testing.T) {
	k := NewKeyboardReader(WithKeyboardInput(strings.NewReader("\n\nhello\n")))
	k.Start()

	r := pollUntilTriggered(t, k.Trigger())
	if r.Message != "hello" {
		t.Errorf("message = %q", r.Message)
	}
}

func TestKeyboardTriggerEmptyWhenNoInput(t *testing.T) {
	k := NewKeyboardReader(WithKeyboardInput(strings.NewReader("")))
	k.Start()
	time.Sleep(10 * time.Millisecond)

	if r := k.Trigger()(context.Background()); r.Triggered {
		t.Error("triggered with no input")
	}
}

func TestKeyboardStartIdempotent(t *testing.T) {
	k := NewKeyboardReader(WithKeyboardInput(strings.NewReader("once\n")))
	k.Start()
	k.Start()

	trigger := k.Trigger()
	pollUntilTriggered(t, trigger)
	if r := trigger(context.Background()); r.Triggered {
		t.Errorf("line delivered twice: %q", r.Message)
	}
}

func pollUntilTriggered(t *testing.T, trigger Trigger) Result {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if r := trigger(context.Background()); r.Triggered {
			return r
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("trigger never fired")
	return Result{}
}

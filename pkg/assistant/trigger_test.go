package assistant

import (
	"context"
	"testing"
	"time"
)

func TestArbiterFirstMatchWins(t *testing.T) {
	a := NewArbiter()
	var calls []string
	a.Register("first", func(ctx context.Context) Result {
		calls = append(calls, "first")
		return Result{Triggered: true, Message: "from first"}
	})
	a.Register("second", func(ctx context.Context) Result {
		calls = append(calls, "second")
		return Result{Triggered: true, Message: "from second"}
	})

	r, name, ok := a.Poll(context.Background())
	if !ok {
		t.Fatal("expected a trigger")
	}
	if name != "first" || r.Message != "from first" {
		t.Errorf("winner = %q message %q", name, r.Message)
	}
	if len(calls) != 1 {
		t.Errorf("later triggers were checked after a match: %v", calls)
	}
}

func TestArbiterRegistrationOrderIsPriority(t *testing.T) {
	a := NewArbiter()
	a.Register("quiet", func(ctx context.Context) Result { return Result{} })
	a.Register("loud", func(ctx context.Context) Result {
		return Result{Triggered: true, Message: "hi"}
	})

	_, name, ok := a.Poll(context.Background())
	if !ok || name != "loud" {
		t.Errorf("winner = %q, ok = %v", name, ok)
	}
}

func TestArbiterNoTrigger(t *testing.T) {
	a := NewArbiter()
	a.Register("quiet", func(ctx context.Context) Result { return Result{} })

	if _, _, ok := a.Poll(context.Background()); ok {
		t.Error("Poll reported a trigger with none firing")
	}
}

func TestArbiterPanicTreatedAsNotTriggered(t *testing.T) {
	a := NewArbiter()
	a.Register("broken", func(ctx context.Context) Result {
		panic("trigger bug")
	})
	a.Register("working", func(ctx context.Context) Result {
		return Result{Triggered: true, Message: "still here"}
	})

	r, name, ok := a.Poll(context.Background())
	if !ok {
		t.Fatal("panicking trigger took down the tick")
	}
	if name != "working" || r.Message != "still here" {
		t.Errorf("winner = %q message %q", name, r.Message)
	}
}

func TestArbiterWait(t *testing.T) {
	a := NewArbiter(WithArbiterInterval(time.Millisecond))
	fires := 0
	a.Register("third-time", func(ctx context.Context) Result {
		fires++
		if fires < 3 {
			return Result{}
		}
		return Result{Triggered: true, Message: "done"}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	r, _, err := a.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if r.Message != "done" || fires != 3 {
		t.Errorf("message = %q after %d checks", r.Message, fires)
	}
}

func TestArbiterWaitCancelled(t *testing.T) {
	a := NewArbiter(WithArbiterInterval(time.Millisecond))
	a.Register("never", func(ctx context.Context) Result { return Result{} })

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	if _, _, err := a.Wait(ctx); err == nil {
		t.Error("Wait returned nil after cancellation")
	}
}

package assistant

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/buddybotics/go-buddy/pkg/audio"
	"github.com/buddybotics/go-buddy/pkg/audioio"
	"github.com/buddybotics/go-buddy/pkg/llm"
	"github.com/buddybotics/go-buddy/pkg/stt"
	"github.com/buddybotics/go-buddy/pkg/tts"
)

type testRig struct {
	assistant *Assistant
	provider  *llm.Mock
	speech    *tts.Mock
	sink      *audioio.MockSink
	det       *stt.WakeDetector
	wakeRec   *stt.MockRecognizer
	listenRec *stt.MockRecognizer
}

func newTestRig(t *testing.T, typed string, wakeScript, listenScript []stt.Result, opts ...Option) *testRig {
	t.Helper()

	srcCfg := audioio.DefaultConfig()
	srcCfg.Backend = audioio.BackendMock

	wakeRec := stt.NewMockRecognizer(wakeScript...)
	listenRec := stt.NewMockRecognizer(listenScript...)
	det := stt.NewWakeDetector(audioio.NewMockSource(srcCfg, nil), wakeRec, []string{"hey buddy"})
	listener := stt.NewListener(audioio.NewMockSource(srcCfg, nil), listenRec)

	provider := llm.NewMock()
	speech := tts.NewMock()
	sink := audioio.NewMockSink(audioio.DefaultConfig(), nil)
	player := audio.NewPlayer(sink)

	cfg := DefaultConfig()
	cfg.PollInterval = time.Millisecond
	cfg.Apply(opts...)

	deps := []Dep{}
	if typed != "" {
		cfg.EnableKeyboard = true
		deps = append(deps, WithKeyboardReader(
			NewKeyboardReader(WithKeyboardInput(strings.NewReader(typed)))))
	} else {
		cfg.EnableKeyboard = false
	}

	return &testRig{
		assistant: New(cfg, provider, listener, det, speech, player, deps...),
		provider:  provider,
		speech:    speech,
		sink:      sink,
		det:       det,
		wakeRec:   wakeRec,
		listenRec: listenRec,
	}
}

func runAssistant(t *testing.T, a *Assistant) (context.CancelFunc, chan struct{}) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.Run(ctx)
	}()
	return cancel, done
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestTypedTurn(t *testing.T) {
	rig := newTestRig(t, "what time is it\n", nil, nil)

	cancel, done := runAssistant(t, rig.assistant)
	defer func() { cancel(); <-done }()

	waitUntil(t, func() bool { return len(rig.speech.Texts()) > 0 })

	msgs := rig.assistant.History().Snapshot()
	if len(msgs) != 2 {
		t.Fatalf("history holds %d messages, want 2", len(msgs))
	}
	if msgs[0].Role != llm.RoleUser || msgs[0].Content != "what time is it" {
		t.Errorf("user turn = %+v", msgs[0])
	}
	if msgs[1].Role != llm.RoleAssistant || msgs[1].Content != "Mock response" {
		t.Errorf("assistant turn = %+v", msgs[1])
	}
	if got := rig.speech.Texts()[0]; got != "Mock response" {
		t.Errorf("spoke %q", got)
	}
	waitUntil(t, func() bool { return len(rig.sink.WrittenSamples()) > 0 })
}

func TestWakeTurn(t *testing.T) {
	wakeScript := []stt.Result{
		{Text: "hey", Final: false},
		{Text: "hey buddy", Final: true},
	}
	listenScript := []stt.Result{
		{Text: "turn on", Final: false},
		{Text: "turn on the lights", Final: true},
	}
	rig := newTestRig(t, "", wakeScript, listenScript, WithAckText("yes?"))

	cancel, done := runAssistant(t, rig.assistant)
	defer func() { cancel(); <-done }()

	waitUntil(t, func() bool {
		return len(rig.assistant.History().Snapshot()) >= 2
	})

	msgs := rig.assistant.History().Snapshot()
	if msgs[0].Content != "turn on the lights" {
		t.Errorf("user turn = %q", msgs[0].Content)
	}

	texts := rig.speech.Texts()
	if len(texts) < 2 || texts[0] != "yes?" {
		t.Errorf("spoken texts = %v, want acknowledgment first", texts)
	}
}

func TestWelcomeSpokenAtStartup(t *testing.T) {
	const welcome = "Say hey buddy to wake me."
	rig := newTestRig(t, "", nil, nil, WithWelcome(welcome))

	cancel, done := runAssistant(t, rig.assistant)
	defer func() { cancel(); <-done }()

	waitUntil(t, func() bool { return len(rig.speech.Texts()) > 0 })

	if got := rig.speech.Texts()[0]; got != welcome {
		t.Errorf("spoke %q first, want the welcome", got)
	}
	msgs := rig.assistant.History().Snapshot()
	if len(msgs) != 1 || msgs[0].Role != llm.RoleAssistant || msgs[0].Content != welcome {
		t.Errorf("history = %+v, want the welcome seeded as an assistant turn", msgs)
	}
}

func TestTypedTurnStopsWakeListening(t *testing.T) {
	rig := newTestRig(t, "hello there\n", nil, nil)
	states := make(chan stt.State, 1)
	rig.assistant.hooks.BeforeThink = func(text string) string {
		select {
		case states <- rig.det.State():
		default:
		}
		return text
	}

	cancel, done := runAssistant(t, rig.assistant)
	defer func() { cancel(); <-done }()

	select {
	case state := <-states:
		if state != stt.StateIdle {
			t.Errorf("wake detector %v during typed turn, want idle", state)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("turn never reached the model")
	}
}

func TestEmptyResponseSkipsSpeech(t *testing.T) {
	rig := newTestRig(t, "say nothing\n", nil, nil)
	rig.provider.ChatFunc = func(ctx context.Context, msgs []llm.Message) (*llm.ChatResponse, error) {
		return &llm.ChatResponse{Content: ""}, nil
	}

	rounds := make(chan struct{}, 1)
	rig.assistant.hooks.OnRoundEnd = func() { rounds <- struct{}{} }

	cancel, done := runAssistant(t, rig.assistant)
	defer func() { cancel(); <-done }()

	select {
	case <-rounds:
	case <-time.After(5 * time.Second):
		t.Fatal("turn never completed")
	}

	if texts := rig.speech.Texts(); len(texts) != 0 {
		t.Errorf("spoke %v despite empty response", texts)
	}
	msgs := rig.assistant.History().Snapshot()
	if len(msgs) != 1 {
		t.Errorf("history holds %d messages, want only the user turn", len(msgs))
	}
}

func TestTurnFailureKeepsLoopAlive(t *testing.T) {
	rig := newTestRig(t, "first\nsecond\n", nil, nil)
	failed := false
	rig.provider.StreamFunc = func(ctx context.Context, msgs []llm.Message) (llm.Stream, error) {
		if !failed {
			failed = true
			return nil, &llm.APIError{StatusCode: 500, Message: "backend down"}
		}
		return llm.NewMockStream("recovered fine"), nil
	}

	cancel, done := runAssistant(t, rig.assistant)
	defer func() { cancel(); <-done }()

	waitUntil(t, func() bool {
		for _, m := range rig.assistant.History().Snapshot() {
			if m.Content == "recovered fine" {
				return true
			}
		}
		return false
	})
}

func TestInstructionsPinnedThroughTurns(t *testing.T) {
	rig := newTestRig(t, "one\ntwo\nthree\n", nil, nil,
		WithInstructions("You are a helpful robot."),
		WithMaxMessages(4))

	cancel, done := runAssistant(t, rig.assistant)
	defer func() { cancel(); <-done }()

	waitUntil(t, func() bool { return len(rig.speech.Texts()) >= 3 })

	msgs := rig.assistant.History().Snapshot()
	if msgs[0].Role != llm.RoleSystem {
		t.Errorf("first history entry is %s, want pinned system prompt", msgs[0].Role)
	}
	if len(msgs) > 4 {
		t.Errorf("history grew to %d entries past the bound", len(msgs))
	}
}

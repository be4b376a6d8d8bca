// Package assistant wires speech recognition, the chat model, and
// speech synthesis into a trigger-driven turn loop.
//
// Each turn is strictly sequential: a trigger supplies the user text,
// the turn processor streams a model response into history, and the
// synthesizer speaks it. At most one turn is active at a time; wake
// listening and keyboard input run as background workers polled by the
// trigger arbiter.
package assistant

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/buddybotics/go-buddy/pkg/audio"
	"github.com/buddybotics/go-buddy/pkg/camera"
	"github.com/buddybotics/go-buddy/pkg/llm"
	"github.com/buddybotics/go-buddy/pkg/stt"
	"github.com/buddybotics/go-buddy/pkg/tts"
	"github.com/buddybotics/go-buddy/pkg/web"
)

// Assistant is the top-level turn loop.
type Assistant struct {
	cfg    *Config
	logger *slog.Logger

	provider llm.Provider
	history  *llm.History
	listener *stt.Listener
	wake     *stt.WakeDetector
	speech   tts.Provider
	player   *audio.Player

	cam      camera.Camera
	dash     *web.Server
	keyboard *KeyboardReader
	arbiter  *Arbiter
	hooks    Hooks
	onToken  func(token string)

	running atomic.Bool
	turns   int
}

// Dep configures a dependency on the assistant.
type Dep func(*Assistant)

// WithCamera attaches a camera for image-aware turns.
func WithCamera(cam camera.Camera) Dep {
	return func(a *Assistant) { a.cam = cam }
}

// WithDashboard attaches the web dashboard.
func WithDashboard(dash *web.Server) Dep {
	return func(a *Assistant) { a.dash = dash }
}

// WithHooks installs lifecycle callbacks.
func WithHooks(hooks Hooks) Dep {
	return func(a *Assistant) { a.hooks = hooks }
}

// WithKeyboardReader overrides the keyboard worker, mainly for tests.
func WithKeyboardReader(k *KeyboardReader) Dep {
	return func(a *Assistant) { a.keyboard = k }
}

// WithTokenSink forwards each streamed response token, e.g. to the
// console.
func WithTokenSink(fn func(token string)) Dep {
	return func(a *Assistant) { a.onToken = fn }
}

// New assembles an assistant from its core components.
func New(cfg *Config, provider llm.Provider, listener *stt.Listener, wake *stt.WakeDetector, speech tts.Provider, player *audio.Player, deps ...Dep) *Assistant {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	a := &Assistant{
		cfg:      cfg,
		logger:   cfg.Logger.With("component", "assistant"),
		provider: provider,
		history:  llm.NewHistory(cfg.MaxMessages),
		listener: listener,
		wake:     wake,
		speech:   speech,
		player:   player,
	}
	for _, dep := range deps {
		dep(a)
	}
	if a.keyboard == nil {
		a.keyboard = NewKeyboardReader(WithKeyboardLogger(cfg.Logger))
	}

	a.arbiter = NewArbiter(
		WithArbiterInterval(cfg.PollInterval),
		WithArbiterLogger(cfg.Logger),
	)
	if cfg.EnableWake && wake != nil {
		a.arbiter.Register("wake", NewWakeTrigger(wake, listener,
			WithAck(a.ackFunc()),
			WithOnWake(func() {
				a.hooks.onWake()
				a.setState(func(s *web.State) { s.Waked = true })
			}),
			WithListenHooks(a.hooks.beforeListen, a.hooks.afterListen),
			WithWakeTriggerLogger(cfg.Logger),
		))
	}
	if cfg.EnableKeyboard {
		a.arbiter.Register("keyboard", a.keyboard.Trigger())
	}
	return a
}

func (a *Assistant) wakeEnabled() bool {
	return a.cfg.EnableWake && a.wake != nil
}

// History exposes the conversation history.
func (a *Assistant) History() *llm.History {
	return a.history
}

// Run is the main loop. It returns when the context is cancelled.
func (a *Assistant) Run(ctx context.Context) error {
	if !a.running.CompareAndSwap(false, true) {
		return errors.New("assistant: already running")
	}
	defer a.running.Store(false)

	if a.cfg.Instructions != "" {
		a.history.SetInstructions(a.cfg.Instructions)
	}
	if a.cfg.Welcome != "" {
		a.history.SetWelcome(a.cfg.Welcome)
	}
	if a.cfg.EnableKeyboard {
		a.keyboard.Start()
	}
	if a.cam != nil && a.cfg.EnableImage {
		if err := a.cam.Start(ctx); err != nil {
			a.logger.Warn("camera unavailable", "error", err)
		} else {
			a.setState(func(s *web.State) { s.CameraActive = true })
		}
	}
	a.setState(func(s *web.State) {
		s.Phase = "idle"
		s.ImageEnabled = a.cfg.EnableImage
	})
	a.hooks.onStart()
	if a.cfg.Welcome != "" {
		if err := a.speak(ctx, a.cfg.Welcome); err != nil {
			a.logger.Warn("welcome playback failed", "error", err)
		}
	}
	a.logger.Info("assistant running", "wake_phrases", a.cfg.WakePhrases,
		"keyboard", a.cfg.EnableKeyboard, "image", a.cfg.EnableImage)

	for {
		if a.wakeEnabled() {
			if err := a.wake.Start(ctx); err != nil {
				a.logger.Error("wake listening failed", "error", err)
			}
		}
		a.setState(func(s *web.State) {
			s.Phase = "idle"
			s.Waked = false
		})

		result, source, err := a.arbiter.Wait(ctx)
		if err != nil {
			break
		}
		if source != "wake" && a.wakeEnabled() {
			// The wake trigger stops the detector itself; other
			// sources must stop it too or it keeps matching against
			// the assistant's own playback.
			a.wake.Stop()
		}
		a.runTurn(ctx, result, source)
	}

	a.shutdown()
	return nil
}

// runTurn executes one listen-think-speak cycle.
func (a *Assistant) runTurn(ctx context.Context, r Result, source string) {
	turnID := uuid.NewString()
	logger := a.logger.With("turn", turnID, "source", source)
	a.turns++

	text := r.Message
	logger.Info("turn started", "text", text)
	a.hooks.onHeard(text)
	a.addConversation("user", text)
	a.setState(func(s *web.State) {
		s.Phase = "thinking"
		s.LastUserMessage = text
		s.Turns = a.turns
	})

	text = a.hooks.beforeThink(text)

	var images [][]byte
	if a.cfg.EnableImage && !r.DisableImage && a.cam != nil {
		if frame, err := a.cam.Frame(); err == nil {
			images = append(images, frame.JPEG)
		} else if !errors.Is(err, camera.ErrNoFrame) {
			logger.Warn("frame capture failed", "error", err)
		}
	}

	reply, err := a.think(ctx, text, images)
	if err != nil {
		logger.Error("turn failed", "error", err)
		a.addLog("error", err.Error())
		a.hooks.onRoundEnd()
		return
	}

	reply = a.hooks.parseResponse(reply)
	a.hooks.afterThink(reply)

	if strings.TrimSpace(reply) == "" {
		logger.Info("empty response, skipping speech")
		a.hooks.onRoundEnd()
		return
	}

	a.addConversation("assistant", reply)
	a.setState(func(s *web.State) {
		s.Phase = "speaking"
		s.LastReply = reply
	})

	spoken := a.hooks.beforeSay(reply)
	if err := a.speak(ctx, spoken); err != nil {
		logger.Warn("speech failed", "error", err)
		a.addLog("error", err.Error())
	}
	a.hooks.afterSay()

	logger.Info("turn complete")
	a.hooks.onRoundEnd()
}

// think appends the user turn, streams the model response, and
// appends the assistant turn only once the full response is known.
func (a *Assistant) think(ctx context.Context, text string, images [][]byte) (string, error) {
	if len(images) > 0 {
		a.history.Append(llm.NewImageMessage(text, images...))
	} else {
		a.history.Append(llm.NewUserMessage(text))
	}

	stream, err := a.provider.Stream(ctx, a.history.Snapshot())
	if err != nil {
		return "", err
	}
	defer stream.Close()

	var b strings.Builder
	for {
		chunk, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", err
		}
		if chunk.Done {
			break
		}
		if chunk.Delta != "" {
			b.WriteString(chunk.Delta)
			if a.onToken != nil {
				a.onToken(chunk.Delta)
			}
		}
	}

	reply := b.String()
	if reply != "" {
		a.history.Append(llm.NewAssistantMessage(reply))
	}
	return reply, nil
}

// speak renders the text and plays it, preferring the streaming path.
func (a *Assistant) speak(ctx context.Context, text string) error {
	stream, err := a.speech.Stream(ctx, text)
	if err == nil {
		defer stream.Close()
		format := stream.Format()
		var reader audio.ChunkReader = stream
		switch format.Container {
		case "wav":
			reader = audio.StripWAVHeader(stream)
		case "opus":
			decoded, decErr := audio.DecodeOpus(stream)
			if decErr != nil {
				return decErr
			}
			defer decoded.Close()
			return a.player.PlayStream(ctx, decoded, audio.OpusDecodedRate)
		}
		return a.player.PlayStream(ctx, reader, format.SampleRate)
	}

	result, synthErr := a.speech.Synthesize(ctx, text)
	if synthErr != nil {
		return errors.Join(err, synthErr)
	}
	pcm := result.Audio
	rate := result.Format.SampleRate
	switch result.Format.Container {
	case "wav":
		wav, parseErr := audio.ParseWAV(pcm)
		if parseErr != nil {
			return parseErr
		}
		pcm = wav.Data
		rate = wav.SampleRate
	case "opus":
		decoded, decErr := audio.DecodeOpusAll(pcm)
		if decErr != nil {
			return decErr
		}
		pcm = decoded
		rate = audio.OpusDecodedRate
	}
	return a.player.Play(ctx, pcm, rate)
}

// ackFunc speaks the acknowledgment phrase, if one is configured.
func (a *Assistant) ackFunc() func(ctx context.Context) {
	if a.cfg.AckText == "" {
		return nil
	}
	return func(ctx context.Context) {
		if err := a.speak(ctx, a.cfg.AckText); err != nil {
			a.logger.Warn("acknowledgment failed", "error", err)
		}
	}
}

// shutdown stops background workers. Joins inside the components are
// bounded by their own timeouts; a worker that does not stop in time
// is abandoned rather than escalated.
func (a *Assistant) shutdown() {
	a.logger.Info("shutting down")
	if a.wake != nil {
		a.wake.Stop()
	}
	a.player.Stop()
	if a.cam != nil {
		if err := a.cam.Stop(); err != nil {
			a.logger.Warn("camera stop", "error", err)
		}
	}
	a.setState(func(s *web.State) { s.Phase = "stopped" })
	a.hooks.onStop()
}

func (a *Assistant) setState(update func(*web.State)) {
	if a.dash != nil {
		a.dash.UpdateState(update)
	}
}

func (a *Assistant) addConversation(role, message string) {
	if a.dash != nil {
		a.dash.AddConversation(role, message)
	}
}

func (a *Assistant) addLog(level, message string) {
	if a.dash != nil {
		a.dash.AddLog(level, message)
	}
}

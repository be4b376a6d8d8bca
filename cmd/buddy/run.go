package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/buddybotics/go-buddy/internal/config"
	"github.com/buddybotics/go-buddy/internal/log"
	"github.com/buddybotics/go-buddy/pkg/assistant"
	"github.com/buddybotics/go-buddy/pkg/audio"
	"github.com/buddybotics/go-buddy/pkg/audioio"
	"github.com/buddybotics/go-buddy/pkg/camera"
	"github.com/buddybotics/go-buddy/pkg/llm"
	"github.com/buddybotics/go-buddy/pkg/stt"
	"github.com/buddybotics/go-buddy/pkg/tts"
	"github.com/buddybotics/go-buddy/pkg/web"
)

func runAssistant(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := log.L()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	audioCfg := audioio.DefaultConfig()
	audioCfg.Backend = audioio.Backend(cfg.Audio.Backend)
	if cfg.Audio.SampleRate > 0 {
		audioCfg.SampleRate = cfg.Audio.SampleRate
	}

	// Wake detection and full listening each get their own capture
	// stream; the arbiter guarantees they never run at once.
	wakeSource, err := audioio.NewSource(audioCfg, logger)
	if err != nil {
		return fmt.Errorf("open wake microphone: %w", err)
	}
	defer wakeSource.Close()
	listenSource, err := audioio.NewSource(audioCfg, logger)
	if err != nil {
		return fmt.Errorf("open microphone: %w", err)
	}
	defer listenSource.Close()

	wakeRec := stt.NewVosk(cfg.STT.ServerURL,
		stt.WithSampleRate(audioCfg.SampleRate),
		stt.WithPhraseList(cfg.Assistant.WakeWords),
		stt.WithVoskLogger(logger))
	if err := wakeRec.Connect(ctx); err != nil {
		return fmt.Errorf("connect recognizer: %w", err)
	}
	defer wakeRec.Close()
	listenRec := stt.NewVosk(cfg.STT.ServerURL,
		stt.WithSampleRate(audioCfg.SampleRate),
		stt.WithVoskLogger(logger))
	if err := listenRec.Connect(ctx); err != nil {
		return fmt.Errorf("connect recognizer: %w", err)
	}
	defer listenRec.Close()

	detector := stt.NewWakeDetector(wakeSource, wakeRec, cfg.Assistant.WakeWords,
		stt.WithWakeLogger(logger))
	listener := stt.NewListener(listenSource, listenRec,
		stt.WithListenerLogger(logger))

	provider, err := newLLMClient(cfg, logger)
	if err != nil {
		return err
	}
	defer provider.Close()

	speech, err := newSpeechProvider(cfg, logger)
	if err != nil {
		return err
	}
	defer speech.Close()

	sink, err := audioio.NewSink(audioCfg, logger)
	if err != nil {
		return fmt.Errorf("open speaker: %w", err)
	}
	player := audio.NewPlayer(sink,
		audio.WithGain(cfg.TTS.Gain),
		audio.WithPlayerLogger(logger))
	defer player.Close()

	deps := []assistant.Dep{
		assistant.WithTokenSink(func(token string) { fmt.Print(token) }),
		assistant.WithHooks(assistant.Hooks{
			AfterThink: func(string) { fmt.Println() },
		}),
	}

	var cam camera.Camera
	if cfg.Assistant.WithImage {
		webcam, err := camera.NewWebcam(camera.DefaultConfig(), logger)
		if err != nil {
			logger.Warn("camera unavailable, image capture disabled", "error", err)
		} else {
			cam = webcam
			defer webcam.Close()
			deps = append(deps, assistant.WithCamera(cam))
		}
	}

	if cfg.Web.Enabled {
		webOpts := []web.ServerOption{web.WithServerLogger(logger)}
		if cam != nil {
			webOpts = append(webOpts, web.WithCamera(cam))
		}
		dash := web.NewServer(cfg.Web.Addr, webOpts...)
		dash.StartAsync()
		defer dash.Shutdown()
		deps = append(deps, assistant.WithDashboard(dash))
	}

	acfg := assistant.DefaultConfig()
	acfg.Apply(
		assistant.WithWakePhrases(cfg.Assistant.WakeWords...),
		assistant.WithAckText(cfg.Assistant.AnswerOnWake),
		assistant.WithWake(*cfg.Assistant.WakeEnable),
		assistant.WithKeyboard(*cfg.Assistant.KeyboardEnable),
		assistant.WithImageCapture(cfg.Assistant.WithImage && cam != nil),
		assistant.WithInstructions(cfg.Assistant.Instructions),
		assistant.WithWelcome(cfg.Assistant.Welcome),
		assistant.WithMaxMessages(cfg.LLM.MaxMessages),
		assistant.WithLogger(logger),
	)

	a := assistant.New(acfg, provider, listener, detector, speech, player, deps...)

	logger.Info("starting", "name", cfg.Assistant.Name, "version", version)
	return a.Run(ctx)
}

func newLLMClient(cfg *config.Config, logger *slog.Logger) (*llm.Client, error) {
	opts := []llm.Option{
		llm.WithVendor(llm.Vendor(cfg.LLM.Vendor)),
		llm.WithAPIKey(cfg.LLM.APIKey),
		llm.WithModel(cfg.LLM.Model),
		llm.WithLogger(logger),
	}
	if cfg.LLM.BaseURL != "" {
		opts = append(opts, llm.WithBaseURL(cfg.LLM.BaseURL))
	}
	if cfg.LLM.URL != "" {
		opts = append(opts, llm.WithURL(cfg.LLM.URL))
	}
	if cfg.LLM.Temperature != 0 {
		opts = append(opts, llm.WithTemperature(cfg.LLM.Temperature))
	}
	return llm.NewClient(opts...)
}

// newSpeechProvider builds the TTS engine named in the config. The
// "auto" engine chains local engines so a missing binary falls
// through to the next one.
func newSpeechProvider(cfg *config.Config, logger *slog.Logger) (tts.Provider, error) {
	common := []tts.Option{
		tts.WithLang(cfg.TTS.Language),
		tts.WithLogger(logger),
	}
	if cfg.TTS.ModelDir != "" {
		common = append(common, tts.WithModelDir(cfg.TTS.ModelDir))
	}

	switch cfg.TTS.Engine {
	case "openai":
		return tts.NewOpenAI(append(common,
			tts.WithAPIKey(cfg.TTS.APIKey),
			tts.WithModel(cfg.TTS.Model),
			tts.WithVoice(cfg.TTS.Voice),
			tts.WithFormat(cfg.TTS.Format))...)
	case "piper":
		return tts.NewPiper(append(common, tts.WithModel(cfg.TTS.Model))...)
	case "espeak":
		return tts.NewEspeak(common...)
	case "pico2wave":
		return tts.NewPico2Wave(common...)
	case "auto", "":
		var providers []tts.Provider
		if p, err := tts.NewPiper(append(common, tts.WithModel(cfg.TTS.Model))...); err == nil {
			providers = append(providers, p)
		}
		if p, err := tts.NewEspeak(common...); err == nil {
			providers = append(providers, p)
		}
		if p, err := tts.NewPico2Wave(common...); err == nil {
			providers = append(providers, p)
		}
		return tts.NewChain(providers...)
	default:
		return nil, fmt.Errorf("unknown tts engine %q", cfg.TTS.Engine)
	}
}

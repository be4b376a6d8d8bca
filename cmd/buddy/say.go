package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/buddybotics/go-buddy/internal/log"
	"github.com/buddybotics/go-buddy/pkg/audio"
	"github.com/buddybotics/go-buddy/pkg/audioio"
)

// newSayCommand speaks one phrase and exits, useful for checking the
// speech path without the full assistant.
func newSayCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "say <text>...",
		Short: "Synthesize and play a phrase",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := log.L()

			speech, err := newSpeechProvider(cfg, logger)
			if err != nil {
				return err
			}
			defer speech.Close()

			audioCfg := audioio.DefaultConfig()
			audioCfg.Backend = audioio.Backend(cfg.Audio.Backend)
			sink, err := audioio.NewSink(audioCfg, logger)
			if err != nil {
				return err
			}
			player := audio.NewPlayer(sink,
				audio.WithGain(cfg.TTS.Gain),
				audio.WithPlayerLogger(logger))
			defer player.Close()

			text := strings.Join(args, " ")
			result, err := speech.Synthesize(cmd.Context(), text)
			if err != nil {
				return err
			}
			pcm := result.Audio
			rate := result.Format.SampleRate
			if result.Format.Container == "wav" {
				wav, err := audio.ParseWAV(pcm)
				if err != nil {
					return err
				}
				pcm = wav.Data
				rate = wav.SampleRate
			}
			return player.Play(cmd.Context(), pcm, rate)
		},
	}
}

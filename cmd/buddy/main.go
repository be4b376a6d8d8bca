// Buddy is a trigger-driven voice assistant: wake word or typed line
// in, streamed LLM response out through a local speaker.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/buddybotics/go-buddy/internal/config"
	"github.com/buddybotics/go-buddy/internal/log"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "buddy",
		Short:   "Voice assistant with wake-word turn taking",
		Version: version,
		RunE:    runAssistant,
	}
	root.PersistentFlags().StringP("config", "c", "", "Path to config YAML")
	root.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(newModelsCommand())
	root.AddCommand(newSayCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file from --config and applies flag
// overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	if path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default()
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	log.Init(cfg.Log.Level, cfg.Log.Format)
	return cfg, nil
}

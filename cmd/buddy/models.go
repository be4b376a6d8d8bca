package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/buddybotics/go-buddy/internal/log"
	"github.com/buddybotics/go-buddy/pkg/stt"
)

// newModelsCommand manages the local recognition model cache used to
// provision a vosk-server instance.
func newModelsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage speech recognition models",
	}

	var dir string
	cmd.PersistentFlags().StringVar(&dir, "dir", defaultModelDir(), "Model cache directory")

	list := &cobra.Command{
		Use:   "list",
		Short: "List available models for a language",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(cmd); err != nil {
				return err
			}
			store, err := stt.NewModelStore(dir, stt.WithModelLogger(log.L()))
			if err != nil {
				return err
			}
			if err := store.RefreshCatalog(cmd.Context()); err != nil {
				return err
			}
			for _, m := range store.Models() {
				mark := " "
				if store.Downloaded(m) {
					mark = "*"
				}
				fmt.Printf("%s %-40s %-8s %s\n", mark, m.Name, m.Lang, m.SizeText)
			}
			return nil
		},
	}

	download := &cobra.Command{
		Use:   "download <language>",
		Short: "Download the small model for a language",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(cmd); err != nil {
				return err
			}
			store, err := stt.NewModelStore(dir, stt.WithModelLogger(log.L()))
			if err != nil {
				return err
			}
			if err := store.RefreshCatalog(cmd.Context()); err != nil {
				return err
			}
			model, err := store.Lookup(args[0])
			if err != nil {
				return err
			}
			if err := store.Ensure(cmd.Context(), model); err != nil {
				return err
			}
			fmt.Printf("%s ready at %s\n", model.Name, store.Path(model))
			return nil
		},
	}

	cmd.AddCommand(list, download)
	return cmd
}

func defaultModelDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "models"
	}
	return filepath.Join(home, ".cache", "buddy", "models")
}

// Package commands defines all Cobra CLI commands for the pdfqa binary.
package commands

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/realshak7781/pdfqa-go/internal/audit"
	"github.com/realshak7781/pdfqa-go/internal/config"
	"github.com/realshak7781/pdfqa-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// envFiles holds the --env-file flag values.
var envFiles []string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pdfqa",
		Short: "pdfqa: ask questions about a PDF or text document",
		Long: `pdfqa extracts the text of a document, splits it into overlapping passages,
embeds them, and answers questions using the passages most similar to the
question as context for a chat model.

Settings come from the environment, optionally seeded from .env files and a
YAML config file (~/.pdfqa/config.yaml). Environment variables always win.
See 'pdfqa --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New()

			// .env values never override variables already exported.
			if err := loadEnvFiles(envFiles, cmd.Flags().Changed("env-file")); err != nil {
				return err
			}

			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}

			audit.LogCommandStart(cmd.Context(), log, cmd.Name(), path)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.pdfqa/config.yaml)")
	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "dotenv files to load before the config file")

	root.AddCommand(
		NewServeCmd(),
		NewIngestCmd(),
		NewAskCmd(),
		NewVersionCmd(),
	)

	return root
}

// loadEnvFiles loads dotenv files in order. A missing default .env is fine;
// a missing file named explicitly with --env-file is an error.
func loadEnvFiles(files []string, explicit bool) error {
	for _, f := range files {
		err := godotenv.Load(f)
		if err == nil {
			continue
		}
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			continue
		}
		return fmt.Errorf("env file %s: %w", f, err)
	}
	return nil
}

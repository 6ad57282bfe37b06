// Package cli provides the command-line interface for saeview.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/saeviz/saeview/internal/config"
	"github.com/saeviz/saeview/internal/ingest"
	"github.com/saeviz/saeview/internal/model"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config and logger
	cfg        config.Config
	logger     *slog.Logger
	logCleanup func() error
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "saeview",
	Short: "Browse SAE feature activation artifacts",
	Long: `Saeview is a terminal viewer for sparse-autoencoder feature activation
artifacts. It loads a (possibly gzip-compressed) feature-windows JSON file
from disk or over HTTP, validates it, and lets you browse features sorted
by summary statistics with token-level activation highlighting.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		_ = godotenv.Load()

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		level := cfg.LogLevel
		if verbose {
			level = slog.LevelDebug
		}
		// The view command draws on the terminal, so keep stderr clean there.
		quiet := cmd.Name() == "view" && isTerminal()
		logger, logCleanup = config.SetupLogger(cfg.LogFile, level, quiet)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCleanup != nil {
			if err := logCleanup(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(featuresCmd)
	rootCmd.AddCommand(examplesCmd)
	rootCmd.AddCommand(checkCmd)
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// sourceArg resolves the artifact source from positional args, falling back
// to the configured default URL.
func sourceArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.SourceURL
}

// failureKind maps a load error onto the user-facing taxonomy so the
// message hints at the right fix (network problem vs corrupt file vs bad
// schema).
func failureKind(err error) string {
	var (
		transportErr *ingest.TransportError
		decodeErr    *ingest.DecodeError
		parseErr     *model.ParseError
		schemaErr    *model.SchemaError
	)
	switch {
	case errors.As(err, &transportErr):
		return "transport failure"
	case errors.As(err, &decodeErr):
		return "decode failure"
	case errors.As(err, &parseErr):
		return "parse failure"
	case errors.As(err, &schemaErr):
		return "schema validation failure"
	default:
		return "load failure"
	}
}

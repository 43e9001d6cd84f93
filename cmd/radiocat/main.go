// Command radiocat consolidates radio playlists into a cumulative catalog
// and resolves playlists against a local music library.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/justestif/go-radio-catalog/internal/config"
	"github.com/justestif/go-radio-catalog/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newRootCmd().ExecuteContext(ctx)
}

// app carries configuration shared by every subcommand.
type app struct {
	cfg *config.Config
	log *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "radiocat",
		Short:         "Consolidate radio playlists and resolve them against a music library",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			envFile, _ := cmd.Flags().GetString("env-file")
			cfg, err := config.Load(envFile)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
			}
			a.cfg = cfg
			a.log = logging.New(cfg.LogLevel, cfg.LogFormat)
			return nil
		},
	}
	root.PersistentFlags().String("env-file", ".env", "Path to a .env file")
	root.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")

	root.AddCommand(
		cmdScan(a),
		cmdReference(a),
		cmdMerge(a),
		cmdBackfill(a),
		cmdResolve(a),
		cmdExport(a),
		cmdSync(a),
		cmdServe(a),
	)
	return root
}

package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/next-trace/scg-message-center/internal/config"
)

// env holds what PersistentPreRunE prepared for the subcommands.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewRootCmd builds the msgcenter command tree.
func NewRootCmd() *cobra.Command {
	var (
		envFiles []string
		e        env
	)

	root := &cobra.Command{
		Use:   "msgcenter",
		Short: "Publish topics and dispatch named actions",
		Long: `msgcenter drives a message center and a state dispatcher from the command line.

Available commands:
  run       Select named actions and run them
  publish   Publish a topic to local subscribers and the configured relay
  listen    Bridge a topic from the configured relay and log deliveries`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(envFiles...)
			if err != nil {
				return err
			}

			e.cfg = cfg
			e.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.LogLevel}))

			return nil
		},
	}

	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load (default .env)")

	root.AddCommand(newRunCmd(&e), newPublishCmd(&e), newListenCmd(&e))

	return root
}

// Execute executes the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	berr "github.com/next-trace/scg-message-center/contract/errors"
	"github.com/next-trace/scg-message-center/internal/transport"
	"github.com/next-trace/scg-message-center/messagecenter"
)

func newListenCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "listen <topic>",
		Short: "Bridge a topic from the configured relay and log deliveries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := transport.Open(e.cfg, e.logger)
			if err != nil {
				return err
			}
			defer tr.Close()

			if tr.Source == nil {
				return fmt.Errorf("relay %s cannot listen: %w", e.cfg.Relay, berr.ErrRelayNotConfigured)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			topic := args[0]
			center := messagecenter.New(messagecenter.WithLogger(e.logger))
			center.Subscribe(topic, func() { e.logger.Info("received", "topic", topic) })

			unbridge, err := center.Bridge(ctx, tr.Source, topic)
			if err != nil {
				return err
			}
			defer unbridge()

			e.logger.Info("listening", "topic", topic, "relay", e.cfg.Relay)
			<-ctx.Done()

			return nil
		},
	}
}

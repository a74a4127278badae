package cmd

import (
	"github.com/spf13/cobra"

	"github.com/next-trace/scg-message-center/internal/transport"
	"github.com/next-trace/scg-message-center/messagecenter"
)

func newPublishCmd(e *env) *cobra.Command {
	var subscribers int

	c := &cobra.Command{
		Use:   "publish <topic>",
		Short: "Publish a topic to local subscribers and the configured relay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := transport.Open(e.cfg, e.logger)
			if err != nil {
				return err
			}
			defer tr.Close()

			opts := []messagecenter.Option{messagecenter.WithLogger(e.logger)}
			if tr.Relay != nil {
				opts = append(opts, messagecenter.WithRelay(tr.Relay))
			}

			center := messagecenter.New(opts...)
			topic := args[0]

			for i := 1; i <= subscribers; i++ {
				n := i
				center.Subscribe(topic, func() { e.logger.Info("subscriber notified", "topic", topic, "subscriber", n) })
			}

			center.PublishContext(cmd.Context(), topic)
			e.logger.Info("published", "topic", topic, "relay", e.cfg.Relay)

			return nil
		},
	}

	c.Flags().IntVar(&subscribers, "subscribers", 1, "number of logging subscribers to attach locally")

	return c
}

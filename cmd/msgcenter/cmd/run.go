package cmd

import (
	"github.com/spf13/cobra"

	"github.com/next-trace/scg-message-center/statemanager"
)

func newRunCmd(e *env) *cobra.Command {
	var times int

	c := &cobra.Command{
		Use:   "run [action...]",
		Short: "Select named actions and run them",
		Long: `Selects the given actions on the built-in dispatcher (state0, state1, state2, key)
and runs the selection. Unknown names are reported and skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := statemanager.Default(statemanager.WithLogger(e.logger)).SetState(args...)
			for i := 0; i < times; i++ {
				d.Run()
			}

			return nil
		},
	}

	c.Flags().IntVar(&times, "times", 1, "how many times to replay the selection")

	return c
}

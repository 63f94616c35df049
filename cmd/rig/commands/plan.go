package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan <target>",
		Short: "Print the execution plan of a target without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := c.app.Plan(c.flags.file, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, line := range plan.Describe() {
				_, _ = fmt.Fprintf(out, "%d. %s\n", i+1, line)
			}
			return nil
		},
	}
}

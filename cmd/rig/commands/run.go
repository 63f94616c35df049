package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <target>",
		Short: "Run a target after its prerequisites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.app.RunTarget(cmd.Context(), args[0], c.runOptions())
			if err != nil {
				return err
			}
			return res.Err()
		},
	}
}

package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.trai.ch/rig/internal/app"
	"go.trai.ch/rig/internal/core/domain"
	"go.trai.ch/rig/internal/ui/style"
)

func (c *CLI) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List declared targets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			infos, err := c.app.List(c.flags.file)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(infos) == 0 {
				_, _ = fmt.Fprintln(out, "no targets declared")
				return nil
			}

			names := make([]string, len(infos))
			for i, info := range infos {
				names[i] = info.Name
			}
			width := widest(names)

			r := newRenderer(out)
			nameStyle := r.NewStyle().Foreground(style.Accent).Bold(true)
			faint := r.NewStyle().Faint(true)

			for _, info := range infos {
				line := nameStyle.Render(info.Name) + padding(info.Name, width)
				if info.Description != "" {
					line += "  " + info.Description
				}
				if tags := targetTags(info); tags != "" {
					line += "  " + faint.Render("("+tags+")")
				}
				_, _ = fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}

func targetTags(info app.TargetInfo) string {
	var tags []string
	if info.Phony {
		tags = append(tags, "phony")
	}
	if info.Mode == domain.ModeFanOutJoin {
		tags = append(tags, info.Mode.String())
	}
	if len(info.Prerequisites) > 0 {
		tags = append(tags, "deps: "+strings.Join(info.Prerequisites, ", "))
	}
	return strings.Join(tags, ", ")
}

package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.trai.ch/rig/internal/core/domain"
	"go.trai.ch/rig/internal/ui/style"
)

func (c *CLI) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the last recorded outcome of every target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := c.app.Status()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				_, _ = fmt.Fprintln(out, "no runs recorded yet")
				return nil
			}

			names := make([]string, len(entries))
			statuses := make([]string, len(entries))
			durations := make([]string, len(entries))
			for i, e := range entries {
				names[i] = e.Target
				statuses[i] = string(e.Status)
				durations[i] = e.Duration.Round(time.Millisecond).String()
			}
			nameWidth, statusWidth, durationWidth := widest(names), widest(statuses), widest(durations)

			r := newRenderer(out)
			faint := r.NewStyle().Faint(true)

			for i, e := range entries {
				icon, color := style.Status(e.Status)
				line := fmt.Sprintf("%s %s%s  %s%s  %s%s  %s",
					r.NewStyle().Foreground(color).Render(icon),
					names[i], padding(names[i], nameWidth),
					statuses[i], padding(statuses[i], statusWidth),
					durations[i], padding(durations[i], durationWidth),
					faint.Render(e.Timestamp.Format(time.RFC3339)),
				)
				if e.Status == domain.StatusFailed {
					line += fmt.Sprintf("  exit %d", e.ExitCode)
				}
				_, _ = fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}

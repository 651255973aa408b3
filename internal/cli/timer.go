package cli

import (
	"fmt"
	"time"

	"github.com/araddon/dateparse"
	"github.com/spf13/cobra"

	"github.com/highercomve/timesheet/internal/app"
	"github.com/highercomve/timesheet/internal/models"
	"github.com/highercomve/timesheet/internal/timer"
)

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show running timers and today's total",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app.App) error {
				renderStatus(cmd.OutOrStdout(), a.Store, a.Store.Now(), a.Settings.ShowSeconds)
				return nil
			})
		},
	}
}

// parseWhen reads a local date/time in any format dateparse understands.
func parseWhen(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := dateparse.ParseLocal(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("time %q: %w", s, models.ErrValidation)
	}
	return t, nil
}

func newStartCmd(opts *options) *cobra.Command {
	var title, from, to string
	cmd := &cobra.Command{
		Use:   "start <project>",
		Short: "Start a timer, or stop it when the project is already running",
		Long: `Start tracking a project by name or id ("-" for no project).

With retroactive tracking on, the time since the last stopped record is
assigned to the project instead of leaving a timer running.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseWhen(from)
			if err != nil {
				return err
			}
			end, err := parseWhen(to)
			if err != nil {
				return err
			}
			return withApp(opts, func(a *app.App) error {
				p, err := resolveProject(a.Store, args[0])
				if err != nil {
					return err
				}
				so := timer.StartOptions{Title: title, StartTime: start, EndTime: end}
				if err := timer.ValidateStart(p.ID, so, a.Engine.Policy()); err != nil {
					return err
				}
				res, err := a.Engine.Start(p.ID, so)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				switch res.Action {
				case timer.ActionNoop:
					fmt.Fprintln(out, "Nothing to track")
				case timer.ActionStopped:
					fmt.Fprintf(out, "Stopped %s\n", projectLabel(a.Store, p.ID))
				default:
					fmt.Fprintf(out, "%s %s\n", actionVerb(res.Action), recordLine(a.Store, res.Record, a.Store.Now(), a.Settings.ShowSeconds))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "record title")
	cmd.Flags().StringVar(&from, "from", "", "start time (default now, or the last end in retroactive mode)")
	cmd.Flags().StringVar(&to, "to", "", "end time; adds a completed record")
	return cmd
}

func actionVerb(a timer.Action) string {
	switch a {
	case timer.ActionStarted:
		return "Started"
	case timer.ActionExtended:
		return "Extended"
	case timer.ActionGapFilled:
		return "Filled"
	case timer.ActionAdded:
		return "Added"
	}
	return string(a)
}

func newStopCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <project>",
		Short: "Stop the running timer of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app.App) error {
				p, err := resolveProject(a.Store, args[0])
				if err != nil {
					return err
				}
				if !a.Engine.Stop(p.ID) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s is not running\n", projectLabel(a.Store, p.ID))
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Stopped %s\n", projectLabel(a.Store, p.ID))
				return nil
			})
		},
	}
}

func newStopAllCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stop-all",
		Short: "Stop every running timer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app.App) error {
				fmt.Fprintf(cmd.OutOrStdout(), "Stopped %d timer(s)\n", a.Engine.StopAll())
				return nil
			})
		},
	}
}

func newToggleCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle",
		Short: "Stop all timers, or restart the last stopped project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app.App) error {
				if !a.Engine.ToggleLast() {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing to toggle")
					return nil
				}
				renderStatus(cmd.OutOrStdout(), a.Store, a.Store.Now(), a.Settings.ShowSeconds)
				return nil
			})
		},
	}
}

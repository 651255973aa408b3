package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/highercomve/timesheet/internal/app"
	"github.com/highercomve/timesheet/internal/models"
)

func newBlocksCmd(opts *options) *cobra.Command {
	var (
		rf        rangeFlags
		calendars bool
	)
	cmd := &cobra.Command{
		Use:   "blocks",
		Short: "List and manage planned timeblocks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app.App) error {
				now := a.Store.Now()
				r, err := rf.resolve(a.Settings, now)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, b := range a.Timeblocks.InRange(r.Start, r.End) {
					fmt.Fprintf(out, "%s #%-3d %s-%s %s %s\n", swatch(b.Color), b.ID,
						b.StartTime.Local().Format("Mon 02 15:04"), b.EndTime.Local().Format("15:04"),
						b.Title, dimStyle.Render(b.Notes))
				}
				if !calendars {
					return nil
				}
				_, errs := a.RefreshCalendars(cmd.Context())
				for _, err := range errs {
					a.Log.Warn("calendar feed", "error", err)
				}
				for _, e := range a.Calendar.InRange(r.Start, r.End) {
					when := e.Start.Local().Format("Mon 02 15:04")
					if e.AllDay {
						when = e.Start.Local().Format("Mon 02") + " all day"
					}
					fmt.Fprintf(out, "%s      %s %s %s\n", swatch(e.Color), when, e.Title, dimStyle.Render(e.Source))
				}
				return nil
			})
		},
	}
	rf.register(cmd)
	cmd.Flags().BoolVar(&calendars, "calendars", false, "also fetch and list events from the configured ICS feeds")
	cmd.AddCommand(newBlockAddCmd(opts), newBlockEditCmd(opts), newBlockDeleteCmd(opts))
	return cmd
}

func newBlockAddCmd(opts *options) *cobra.Command {
	var from, to, color, notes string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Plan a timeblock",
		Args:  cobra.ExactArgs(1),
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
				b, err := a.Timeblocks.Add(models.Timeblock{Title: args[0], StartTime: start, EndTime: end, Color: color, Notes: notes})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added timeblock #%d\n", b.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "start time")
	cmd.Flags().StringVar(&to, "to", "", "end time")
	cmd.Flags().StringVar(&color, "color", "", "#rrggbb")
	cmd.Flags().StringVar(&notes, "notes", "", "free text")
	return cmd
}

func newBlockEditCmd(opts *options) *cobra.Command {
	var title, from, to, color, notes string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a timeblock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			start, err := parseWhen(from)
			if err != nil {
				return err
			}
			end, err := parseWhen(to)
			if err != nil {
				return err
			}
			return withApp(opts, func(a *app.App) error {
				b, ok := a.Timeblocks.Get(id)
				if !ok {
					return fmt.Errorf("timeblock #%d: %w", id, models.ErrNotFound)
				}
				flags := cmd.Flags()
				if flags.Changed("title") {
					b.Title = title
				}
				if !start.IsZero() {
					b.StartTime = start
				}
				if !end.IsZero() {
					b.EndTime = end
				}
				if flags.Changed("color") {
					b.Color = color
				}
				if flags.Changed("notes") {
					b.Notes = notes
				}
				if err := a.Timeblocks.Update(b); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated timeblock #%d\n", id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&from, "from", "", "new start time")
	cmd.Flags().StringVar(&to, "to", "", "new end time")
	cmd.Flags().StringVar(&color, "color", "", "#rrggbb")
	cmd.Flags().StringVar(&notes, "notes", "", "free text")
	return cmd
}

func newBlockDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a timeblock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(opts, func(a *app.App) error {
				ok, err := a.Timeblocks.Delete(id)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("timeblock #%d: %w", id, models.ErrNotFound)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted timeblock #%d\n", id)
				return nil
			})
		},
	}
}

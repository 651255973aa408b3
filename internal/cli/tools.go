package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/highercomve/timesheet/internal/app"
	"github.com/highercomve/timesheet/internal/codec"
	"github.com/highercomve/timesheet/internal/legacyimport"
	"github.com/highercomve/timesheet/internal/models"
	"github.com/highercomve/timesheet/internal/reconcile"
	"github.com/highercomve/timesheet/internal/report"
	"github.com/highercomve/timesheet/internal/service"
)

func newImportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import-stt <file>",
		Short: "Import a Simple Time Tracker backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			backup, err := legacyimport.Parse(f)
			if err != nil {
				return err
			}
			return withApp(opts, func(a *app.App) error {
				imp := &legacyimport.Import{Backup: backup}
				if _, err := a.Store.Apply(imp); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), imp.Summary.String())
				if imp.Summary.Duplicates > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Skipped %d duplicate record(s)\n", imp.Summary.Duplicates)
				}
				return nil
			})
		},
	}
}

func newResolveCmd(opts *options) *cobra.Command {
	var fromBackup bool
	cmd := &cobra.Command{
		Use:   "resolve <file>",
		Short: "Merge a conflicting timesheet file or a backup into the active one",
		Long: `Merge records from another timesheet into the active one.

A record with the same id is replaced when the incoming one is running
and the current one is not, or when it ends later. New records are added
unless they overlap an existing record. With --backup the argument names
a file in the backup folder.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app.App) error {
				var text string
				if fromBackup {
					t, err := a.Backups.Read(args[0])
					if err != nil {
						return err
					}
					text = t
				} else {
					data, err := os.ReadFile(args[0])
					if err != nil {
						return err
					}
					text = string(data)
				}
				parsed := codec.ParseString(text)
				for _, rowErr := range parsed.Errors {
					a.Log.Warn("skipped incoming row", "line", rowErr.Line, "error", rowErr.Err)
				}
				merge := &reconcile.Merge{Incoming: parsed.Timesheet}
				if _, err := a.Store.Apply(merge); err != nil {
					return err
				}
				res := merge.Result
				fmt.Fprintf(cmd.OutOrStdout(), "Replaced %d, added %d, skipped %d record(s); added %d project(s), %d categor(ies)\n",
					len(res.Records.Replaced), len(res.Records.Added), len(res.Records.Skipped),
					len(res.ProjectsAdded), len(res.CategoriesAdded))
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&fromBackup, "backup", "b", false, "read the argument from the backup folder")
	return cmd
}

func newBackupCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create a compressed backup of the timesheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app.App) error {
				info, created, err := a.Backups.Create(codec.SerializeString(a.Store.Snapshot()))
				if err != nil {
					return err
				}
				if !created {
					fmt.Fprintln(cmd.OutOrStdout(), "Latest backup is already up to date")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", info.Name)
				return nil
			})
		},
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app.App) error {
				list, err := a.Backups.List()
				if err != nil {
					return err
				}
				for _, b := range list {
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", b.Time.Format("2006-01-02 15:04:05"), b.Name)
				}
				return nil
			})
		},
	}
	show := &cobra.Command{
		Use:   "show <name>",
		Short: "Print the timesheet stored in a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app.App) error {
				text, err := a.Backups.Read(args[0])
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), text)
				return nil
			})
		},
	}
	cleanup := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove backups past the retention period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app.App) error {
				n, err := a.Backups.Cleanup()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d backup(s)\n", n)
				return nil
			})
		},
	}
	cmd.AddCommand(list, show, cleanup)
	return cmd
}

func newReportCmd(opts *options) *cobra.Command {
	var (
		rf      rangeFlags
		groupBy string
		output  string
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize tracked time, or export it as PDF or XLSX",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			group, err := parseGroupBy(groupBy)
			if err != nil {
				return err
			}
			return withApp(opts, func(a *app.App) error {
				now := a.Store.Now()
				r, err := rf.resolve(a.Settings, now)
				if err != nil {
					return err
				}
				rep := report.Build(a.Store.Snapshot(), r, group, now)
				rep.ShowSeconds = a.Settings.ShowSeconds

				switch strings.ToLower(filepath.Ext(output)) {
				case "":
					printReport(cmd, rep)
					return nil
				case ".pdf":
					if err := report.SavePDF(output, rep); err != nil {
						return err
					}
				case ".xlsx":
					f, err := os.Create(output)
					if err != nil {
						return err
					}
					if err := report.WriteXLSX(f, rep); err != nil {
						f.Close()
						return err
					}
					if err := f.Close(); err != nil {
						return err
					}
				default:
					return fmt.Errorf("output %q: use .pdf or .xlsx: %w", output, models.ErrValidation)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
				return nil
			})
		},
	}
	rf.register(cmd)
	cmd.Flags().StringVarP(&groupBy, "group", "g", "day", "none, day, week or week-of-month")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write a .pdf or .xlsx file instead of printing")
	return cmd
}

func parseGroupBy(s string) (string, error) {
	switch strings.ToLower(s) {
	case "none", "":
		return service.GroupByNone, nil
	case "day", "daily":
		return service.GroupByDay, nil
	case "week", "weekly":
		return service.GroupByWeek, nil
	case "week-of-month", "weekofmonth":
		return service.GroupByWeekOfMonth, nil
	}
	return "", fmt.Errorf("group %q: %w", s, models.ErrValidation)
}

func printReport(cmd *cobra.Command, rep report.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%s  %s", rep.Title, rep.Range.Start.Format("2006-01-02"))))
	for _, p := range rep.Projects {
		fmt.Fprintf(out, "%s %-24s %10s\n", swatch(p.Color), p.Name, service.FormatDuration(p.Duration, rep.ShowSeconds))
	}
	for _, sec := range rep.Sections {
		fmt.Fprintf(out, "\n%s  %s\n", sec.Title, dimStyle.Render(service.FormatDuration(sec.Total, rep.ShowSeconds)))
		for _, r := range sec.Rows {
			fmt.Fprintf(out, "  %s-%s %10s  %s %s\n", r.Start.Local().Format("15:04"), r.End.Local().Format("15:04"),
				service.FormatDuration(r.Duration, rep.ShowSeconds), r.Project, dimStyle.Render(r.Title))
		}
	}
	fmt.Fprintf(out, "\nTotal: %s\n", service.FormatDuration(rep.Total, rep.ShowSeconds))
}

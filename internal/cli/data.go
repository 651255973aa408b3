package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/highercomve/timesheet/internal/app"
	"github.com/highercomve/timesheet/internal/config"
	"github.com/highercomve/timesheet/internal/models"
	"github.com/highercomve/timesheet/internal/service"
	"github.com/highercomve/timesheet/internal/timer"
	"github.com/highercomve/timesheet/internal/timesheet"
)

type rangeFlags struct {
	kind string
	from string
	to   string
}

func (f *rangeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.kind, "range", "r", "", "day, week, month, year or custom (default from settings)")
	cmd.Flags().StringVar(&f.from, "from", "", "first day of a custom range, or the day the range contains")
	cmd.Flags().StringVar(&f.to, "to", "", "last day of a custom range")
}

func (f *rangeFlags) resolve(s config.Settings, now time.Time) (service.TimeRange, error) {
	kind := f.kind
	if kind == "" {
		kind = s.DefaultTimeRange
	}
	at := now
	if f.from != "" {
		t, err := parseWhen(f.from)
		if err != nil {
			return service.TimeRange{}, err
		}
		at = t
	}
	if kind != service.RangeCustom {
		return service.RangeFor(kind, at)
	}
	to := now
	if f.to != "" {
		t, err := parseWhen(f.to)
		if err != nil {
			return service.TimeRange{}, err
		}
		to = t
	}
	return service.CustomRange(at, to)
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(arg, "#"))
	if err != nil {
		return 0, fmt.Errorf("id %q: %w", arg, models.ErrValidation)
	}
	return id, nil
}

func newRecordsCmd(opts *options) *cobra.Command {
	var rf rangeFlags
	cmd := &cobra.Command{
		Use:   "records",
		Short: "List, add, edit and delete time records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app.App) error {
				now := a.Store.Now()
				r, err := rf.resolve(a.Settings, now)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				records := service.RecordsIn(a.Store.Snapshot().Records, r, now)
				for _, rec := range records {
					fmt.Fprintln(out, recordLine(a.Store, rec, now, a.Settings.ShowSeconds))
				}
				fmt.Fprintf(out, "%d record(s), %s\n", len(records), service.FormatDuration(service.Total(records, r, now), a.Settings.ShowSeconds))
				return nil
			})
		},
	}
	rf.register(cmd)
	cmd.AddCommand(newRecordAddCmd(opts), newRecordEditCmd(opts), newRecordDeleteCmd(opts))
	return cmd
}

func newRecordAddCmd(opts *options) *cobra.Command {
	var title, from, to string
	cmd := &cobra.Command{
		Use:   "add <project>",
		Short: "Add a record with explicit times",
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
				p, err := resolveProject(a.Store, args[0])
				if err != nil {
					return err
				}
				rec := models.TimeRecord{ProjectID: p.ID, StartTime: start, Title: title}
				if !end.IsZero() {
					rec.EndTime = models.TimePtr(end)
				}
				if err := timer.ValidateRecord(rec); err != nil {
					return err
				}
				ev, err := a.Store.Apply(timesheet.AddRecord{Record: rec})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added record #%d\n", ev.IDs[0])
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "record title")
	cmd.Flags().StringVar(&from, "from", "", "start time (required)")
	cmd.Flags().StringVar(&to, "to", "", "end time (empty leaves the record running)")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func newRecordEditCmd(opts *options) *cobra.Command {
	var (
		project, title, from, to string
		running                  bool
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(opts, func(a *app.App) error {
				current, ok := a.Store.Record(id)
				if !ok {
					return fmt.Errorf("record %d: %w", id, models.ErrNotFound)
				}
				var patch timesheet.RecordPatch
				if cmd.Flags().Changed("project") {
					p, err := resolveProject(a.Store, project)
					if err != nil {
						return err
					}
					patch.ProjectID = &p.ID
				}
				if cmd.Flags().Changed("title") {
					patch.Title = &title
				}
				if from != "" {
					t, err := parseWhen(from)
					if err != nil {
						return err
					}
					patch.StartTime = &t
				}
				if to != "" {
					t, err := parseWhen(to)
					if err != nil {
						return err
					}
					patch.EndTime = &t
				}
				patch.ClearEnd = running
				if err := timer.ValidatePatch(current, patch); err != nil {
					return err
				}
				if !a.Engine.EditRecord(id, patch) {
					return fmt.Errorf("record %d: %w", id, models.ErrNotFound)
				}
				rec, _ := a.Store.Record(id)
				fmt.Fprintln(cmd.OutOrStdout(), recordLine(a.Store, rec, a.Store.Now(), a.Settings.ShowSeconds))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&project, "project", "p", "", "project name or id")
	cmd.Flags().StringVarP(&title, "title", "t", "", "record title")
	cmd.Flags().StringVar(&from, "from", "", "start time")
	cmd.Flags().StringVar(&to, "to", "", "end time")
	cmd.Flags().BoolVar(&running, "running", false, "clear the end time")
	return cmd
}

func newRecordDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(opts, func(a *app.App) error {
				if !a.Engine.DeleteRecord(id) {
					return fmt.Errorf("record %d: %w", id, models.ErrNotFound)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted record #%d\n", id)
				return nil
			})
		},
	}
}

func newProjectsCmd(opts *options) *cobra.Command {
	var archived bool
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List and manage projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app.App) error {
				out := cmd.OutOrStdout()
				projects := a.Store.Projects(archived || a.Settings.ShowArchivedProjects)
				for _, p := range service.SortProjects(a.Store.Snapshot(), projects, a.Settings.SortMode) {
					line := fmt.Sprintf("%s #%-3d %s %s  %s", swatch(p.Color), p.ID, p.Icon, p.Name, dimStyle.Render(a.Store.CategoryLabel(p.CategoryID)))
					if p.Archived {
						line += dimStyle.Render(" (archived)")
					}
					if a.Store.IsRunning(p.ID) {
						line += " " + runningStyle.Render("▶")
					}
					fmt.Fprintln(out, line)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&archived, "archived", "a", false, "include archived projects")

	var icon, color, category string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app.App) error {
				catID := models.Uncategorized
				if category != "" {
					c, err := resolveCategory(a.Store, category)
					if err != nil {
						return err
					}
					catID = c.ID
				}
				ev, err := a.Store.Apply(timesheet.AddProject{Name: args[0], Icon: icon, Color: color, CategoryID: catID})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added project #%d\n", ev.IDs[0])
				return nil
			})
		},
	}
	add.Flags().StringVar(&icon, "icon", "", "emoji icon")
	add.Flags().StringVar(&color, "color", "", "hex color")
	add.Flags().StringVarP(&category, "category", "c", "", "category name or id")

	var newName, newIcon, newColor, newCategory string
	edit := &cobra.Command{
		Use:   "edit <project>",
		Short: "Change a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app.App) error {
				p, err := resolveProject(a.Store, args[0])
				if err != nil {
					return err
				}
				c := timesheet.EditProject{ID: p.ID}
				if cmd.Flags().Changed("name") {
					c.Name = &newName
				}
				if cmd.Flags().Changed("icon") {
					c.Icon = &newIcon
				}
				if cmd.Flags().Changed("color") {
					c.Color = &newColor
				}
				if cmd.Flags().Changed("category") {
					cat, err := resolveCategory(a.Store, newCategory)
					if err != nil {
						return err
					}
					c.CategoryID = &cat.ID
				}
				_, err = a.Store.Apply(c)
				return err
			})
		},
	}
	edit.Flags().StringVar(&newName, "name", "", "new name")
	edit.Flags().StringVar(&newIcon, "icon", "", "emoji icon")
	edit.Flags().StringVar(&newColor, "color", "", "hex color")
	edit.Flags().StringVarP(&newCategory, "category", "c", "", "category name or id, \"-\" for none")

	archive := projectSimpleCmd(opts, "archive <project>", "Hide a project from the tracker", func(p models.Project) timesheet.Command {
		return timesheet.ArchiveProject{ID: p.ID, Archived: true}
	})
	unarchive := projectSimpleCmd(opts, "unarchive <project>", "Show an archived project again", func(p models.Project) timesheet.Command {
		return timesheet.ArchiveProject{ID: p.ID, Archived: false}
	})
	del := projectSimpleCmd(opts, "delete <project>", "Delete a project; its records are kept", func(p models.Project) timesheet.Command {
		return timesheet.DeleteProject{ID: p.ID}
	})

	reorder := &cobra.Command{
		Use:   "reorder <project>...",
		Short: "Set the display order of projects",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app.App) error {
				ids := make([]int, 0, len(args))
				for _, arg := range args {
					p, err := resolveProject(a.Store, arg)
					if err != nil {
						return err
					}
					ids = append(ids, p.ID)
				}
				_, err := a.Store.Apply(timesheet.ReorderProjects{IDs: ids})
				return err
			})
		},
	}

	cmd.AddCommand(add, edit, archive, unarchive, del, reorder)
	return cmd
}

func projectSimpleCmd(opts *options, use, short string, build func(models.Project) timesheet.Command) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app.App) error {
				p, err := resolveProject(a.Store, args[0])
				if err != nil {
					return err
				}
				if p.ID == models.NoProject {
					return fmt.Errorf("project %q: %w", args[0], models.ErrNotFound)
				}
				_, err = a.Store.Apply(build(p))
				return err
			})
		},
	}
}

// resolveCategory accepts a category name, a numeric id or "-" for none.
func resolveCategory(s *timesheet.Store, arg string) (models.Category, error) {
	arg = strings.TrimSpace(arg)
	if arg == "-" {
		return models.Category{ID: models.Uncategorized, Name: models.DefaultCategoryName}, nil
	}
	for _, c := range s.Categories(true) {
		if strings.EqualFold(c.Name, arg) {
			return c, nil
		}
	}
	if id, err := strconv.Atoi(arg); err == nil {
		if c, ok := s.Category(id); ok {
			return c, nil
		}
	}
	return models.Category{}, fmt.Errorf("category %q: %w", arg, models.ErrNotFound)
}

func newCategoriesCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List and manage categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app.App) error {
				out := cmd.OutOrStdout()
				for _, c := range a.Store.Categories(true) {
					line := fmt.Sprintf("%s #%-3d %s", swatch(c.Color), c.ID, c.Name)
					if c.Archived {
						line += dimStyle.Render(" (archived)")
					}
					fmt.Fprintln(out, line)
				}
				return nil
			})
		},
	}

	var color string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app.App) error {
				ev, err := a.Store.Apply(timesheet.AddCategory{Name: args[0], Color: color})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added category #%d\n", ev.IDs[0])
				return nil
			})
		},
	}
	add.Flags().StringVar(&color, "color", "", "hex color")

	var newName, newColor string
	edit := &cobra.Command{
		Use:   "edit <category>",
		Short: "Rename or recolor a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app.App) error {
				c, err := resolveCategory(a.Store, args[0])
				if err != nil {
					return err
				}
				ec := timesheet.EditCategory{ID: c.ID}
				if cmd.Flags().Changed("name") {
					ec.Name = &newName
				}
				if cmd.Flags().Changed("color") {
					ec.Color = &newColor
				}
				_, err = a.Store.Apply(ec)
				return err
			})
		},
	}
	edit.Flags().StringVar(&newName, "name", "", "new name")
	edit.Flags().StringVar(&newColor, "color", "", "hex color")

	categoryCmd := func(use, short string, build func(models.Category) timesheet.Command) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(opts, func(a *app.App) error {
					c, err := resolveCategory(a.Store, args[0])
					if err != nil {
						return err
					}
					_, err = a.Store.Apply(build(c))
					return err
				})
			},
		}
	}
	archive := categoryCmd("archive <category>", "Archive a category", func(c models.Category) timesheet.Command {
		return timesheet.ArchiveCategory{ID: c.ID, Archived: true}
	})
	del := categoryCmd("delete <category>", "Delete a category; its projects become uncategorized", func(c models.Category) timesheet.Command {
		return timesheet.DeleteCategory{ID: c.ID}
	})

	cmd.AddCommand(add, edit, archive, del)
	return cmd
}

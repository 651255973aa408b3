// Package cli is the tsctl command tree.
package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/highercomve/timesheet/internal/app"
	"github.com/highercomve/timesheet/internal/config"
	"github.com/highercomve/timesheet/internal/models"
	"github.com/highercomve/timesheet/internal/timesheet"
)

type options struct {
	configPath string
	dataFolder string
}

// NewRootCommand builds the full command tree.
func NewRootCommand(version string) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "tsctl",
		Short:         "Track time against projects from the terminal",
		Long:          "tsctl reads and writes the same timesheet file as the desktop tracker.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "settings file (default $XDG_CONFIG_HOME/timesheet/settings.json)")
	root.PersistentFlags().StringVar(&opts.dataFolder, "data", "", "override the data folder")

	root.AddCommand(
		newStatusCmd(opts),
		newStartCmd(opts),
		newStopCmd(opts),
		newStopAllCmd(opts),
		newToggleCmd(opts),
		newRecordsCmd(opts),
		newProjectsCmd(opts),
		newCategoriesCmd(opts),
		newBlocksCmd(opts),
		newImportCmd(opts),
		newResolveCmd(opts),
		newBackupCmd(opts),
		newReportCmd(opts),
		newWatchCmd(opts),
	)
	return root
}

// Execute runs the root command
func Execute(version string) error {
	if err := NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// withApp loads the app, runs fn and waits for its writes to reach disk.
func withApp(opts *options, fn func(a *app.App) error) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	settings, err := cfg.Settings()
	if err != nil {
		return fmt.Errorf("settings %s: %w", cfg.Path(), err)
	}
	if opts.dataFolder != "" {
		settings.DataFolder = opts.dataFolder
	}
	a, err := app.New(settings, app.NewLogger(settings.Log))
	if err != nil {
		return err
	}
	a.Config = cfg
	a.Start(context.Background(), false)
	runErr := fn(a)
	closeErr := a.Close()
	if runErr != nil {
		return runErr
	}
	return closeErr
}

// resolveProject accepts a project name, a numeric id or "-" for no project.
func resolveProject(s *timesheet.Store, arg string) (models.Project, error) {
	arg = strings.TrimSpace(arg)
	if arg == "-" || strings.EqualFold(arg, "none") {
		return models.Project{ID: models.NoProject, Name: timesheet.NoProjectLabel}, nil
	}
	if p, ok := s.ProjectByName(arg); ok {
		return p, nil
	}
	if id, err := strconv.Atoi(arg); err == nil {
		if p, ok := s.Project(id); ok {
			return p, nil
		}
	}
	return models.Project{}, fmt.Errorf("project %q: %w", arg, models.ErrNotFound)
}

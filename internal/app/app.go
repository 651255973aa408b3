// Package app wires settings, storage and the timesheet core together for
// the desktop and command-line entry points.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/highercomve/timesheet/internal/calendar"
	"github.com/highercomve/timesheet/internal/config"
	"github.com/highercomve/timesheet/internal/store"
	"github.com/highercomve/timesheet/internal/timeblocks"
	"github.com/highercomve/timesheet/internal/timer"
	"github.com/highercomve/timesheet/internal/timesheet"
)

type App struct {
	Config   *config.Config
	Settings config.Settings
	Log      *slog.Logger

	FS         *store.OSFileSystem
	Storage    *store.Storage
	Store      *timesheet.Store
	Engine     *timer.Engine
	Backups    *store.Backups
	Persister  *store.Persister
	Syncer     *store.Syncer
	Timeblocks *timeblocks.Store
	Calendar   *calendar.Cache
}

// Load reads the settings file at cfgPath (empty for the default location)
// and builds the application on top of it.
func Load(cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	settings, err := cfg.Settings()
	if err != nil {
		return nil, fmt.Errorf("settings %s: %w", cfg.Path(), err)
	}
	a, err := New(settings, NewLogger(settings.Log))
	if err != nil {
		return nil, err
	}
	a.Config = cfg
	return a, nil
}

// New loads the timesheet and timeblocks files described by settings.
// Nothing runs in the background until Start.
func New(settings config.Settings, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}
	fs := store.NewOSFileSystem(settings.DataFolder)
	storage := store.NewStorage(fs, store.Paths{
		Timesheet:  settings.TimesheetPath,
		Timeblocks: settings.TimeblocksPath,
	}, log.With("component", "storage"))

	res, err := storage.Load()
	if err != nil {
		return nil, err
	}
	blocks, err := storage.LoadTimeblocks()
	if err != nil {
		return nil, err
	}

	ts := timesheet.New(res.Timesheet, timesheet.WithLogger(log.With("component", "timesheet")))
	backups := store.NewBackups(fs, settings.BackupFolder, settings.BackupRetentionDays, log.With("component", "backups"))
	persister := store.NewPersister(storage, ts, log.With("component", "persister"))

	a := &App{
		Settings:   settings,
		Log:        log,
		FS:         fs,
		Storage:    storage,
		Store:      ts,
		Engine:     timer.New(ts, PolicyFrom(settings), log.With("component", "timer")),
		Backups:    backups,
		Persister:  persister,
		Timeblocks: timeblocks.New(blocks, storage, log.With("component", "timeblocks")),
		Calendar:   calendar.NewCache(calendar.NewFetcher(log.With("component", "calendar"))),
	}
	a.Syncer = store.NewSyncer(storage, ts, backups, persister, store.SyncerConfig{
		AutosaveInterval: settings.AutosaveInterval,
		PollInterval:     settings.PollInterval,
	}, log.With("component", "syncer"))
	return a, nil
}

func PolicyFrom(s config.Settings) timer.Policy {
	return timer.Policy{
		Multitasking: s.Multitasking,
		Retroactive:  s.RetroactiveTracking,
		Tolerance:    s.RetroactiveTolerance,
	}
}

// Start turns on write-through persistence. With watch set it also runs the
// autosave and poll loop until ctx is done.
func (a *App) Start(ctx context.Context, watch bool) <-chan error {
	a.Persister.Start()
	done := make(chan error, 1)
	if !watch {
		close(done)
		return done
	}
	go func() {
		done <- a.Syncer.Run(ctx)
		close(done)
	}()
	return done
}

// Close waits for pending writes. It returns the last storage failure, if
// the final write did not clear it.
func (a *App) Close() error {
	a.Persister.Stop()
	if msg := a.Storage.LastError(); msg != "" {
		return errors.New(msg)
	}
	return nil
}

// UpdateSettings applies new settings to the running app and writes them to
// the settings file when one is loaded. File locations take effect on the
// next start.
func (a *App) UpdateSettings(s config.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if a.Config != nil {
		if err := a.Config.Update(s); err != nil {
			return err
		}
	}
	a.Settings = s
	a.Engine.SetPolicy(PolicyFrom(s))
	a.Store.Refresh()
	return nil
}

// RefreshCalendars fetches the configured ICS feeds into the cache.
func (a *App) RefreshCalendars(ctx context.Context) ([]calendar.Event, []error) {
	return a.Calendar.Refresh(ctx, a.Settings.ICSCalendars)
}

package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/highercomve/timesheet/internal/app"
	"github.com/highercomve/timesheet/internal/codec"
	"github.com/highercomve/timesheet/internal/config"
	"github.com/highercomve/timesheet/internal/legacyimport"
	"github.com/highercomve/timesheet/internal/reconcile"
)

type Config struct {
	window fyne.Window
	app    *app.App
}

func NewConfig(w fyne.Window, a *app.App) *Config {
	return &Config{window: w, app: a}
}

func (c *Config) MakeUI() fyne.CanvasObject {
	s := c.app.Settings

	folder := widget.NewEntry()
	folder.SetText(s.DataFolder)
	browseBtn := widget.NewButtonWithIcon("", theme.FolderOpenIcon(), func() {
		dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
			if err != nil {
				dialog.ShowError(err, c.window)
				return
			}
			if uri == nil {
				return
			}
			folder.SetText(uri.Path())
		}, c.window).Show()
	})

	retro := widget.NewCheck("Retroactive tracking", nil)
	retro.SetChecked(s.RetroactiveTracking)
	tolerance := widget.NewEntry()
	tolerance.SetText(s.RetroactiveTolerance.String())
	multi := widget.NewCheck("Multitasking", nil)
	multi.SetChecked(s.Multitasking)
	seconds := widget.NewCheck("Show seconds", nil)
	seconds.SetChecked(s.ShowSeconds)
	archived := widget.NewCheck("Show archived projects", nil)
	archived.SetChecked(s.ShowArchivedProjects)

	columns := widget.NewSelect([]string{"1", "2", "3", "4", "5", "6"}, nil)
	columns.SetSelected(strconv.Itoa(s.GridColumns))
	timeRange := widget.NewSelect(config.TimeRanges, nil)
	timeRange.SetSelected(s.DefaultTimeRange)
	sortMode := widget.NewSelect(config.SortModes, nil)
	sortMode.SetSelected(s.SortMode)

	retention := widget.NewEntry()
	retention.SetText(strconv.Itoa(s.BackupRetentionDays))
	calendars := widget.NewMultiLineEntry()
	calendars.SetPlaceHolder("One ICS URL per line")
	calendars.SetText(strings.Join(s.ICSCalendars, "\n"))

	saveBtn := widget.NewButtonWithIcon("Save configuration", theme.DocumentSaveIcon(), func() {
		next := c.app.Settings
		next.DataFolder = strings.TrimSpace(folder.Text)
		next.RetroactiveTracking = retro.Checked
		next.Multitasking = multi.Checked
		next.ShowSeconds = seconds.Checked
		next.ShowArchivedProjects = archived.Checked
		next.DefaultTimeRange = timeRange.Selected
		next.SortMode = sortMode.Selected
		next.ICSCalendars = splitLines(calendars.Text)

		var err error
		if next.RetroactiveTolerance, err = time.ParseDuration(strings.TrimSpace(tolerance.Text)); err != nil {
			dialog.ShowError(fmt.Errorf("tolerance: %w", err), c.window)
			return
		}
		if next.BackupRetentionDays, err = strconv.Atoi(strings.TrimSpace(retention.Text)); err != nil {
			dialog.ShowError(fmt.Errorf("backup retention: %w", err), c.window)
			return
		}
		next.GridColumns, _ = strconv.Atoi(columns.Selected)

		folderChanged := next.DataFolder != c.app.Settings.DataFolder
		if err := c.app.UpdateSettings(next); err != nil {
			dialog.ShowError(err, c.window)
			return
		}
		msg := "Configuration saved."
		if folderChanged {
			msg += "\nThe new data folder is used after a restart."
		}
		dialog.ShowInformation("Success", msg, c.window)
	})
	saveBtn.Importance = widget.HighImportance

	quitBtn := widget.NewButtonWithIcon("Quit application", theme.LogoutIcon(), func() {
		fyne.CurrentApp().Quit()
	})

	return container.NewVScroll(container.NewVBox(
		widget.NewForm(
			widget.NewFormItem("Data folder", container.NewBorder(nil, nil, nil, browseBtn, folder)),
			widget.NewFormItem("", retro),
			widget.NewFormItem("Tolerance", tolerance),
			widget.NewFormItem("", multi),
			widget.NewFormItem("", seconds),
			widget.NewFormItem("", archived),
			widget.NewFormItem("Grid columns", columns),
			widget.NewFormItem("Default range", timeRange),
			widget.NewFormItem("Sort projects by", sortMode),
			widget.NewFormItem("Keep backups (days)", retention),
			widget.NewFormItem("Calendars", calendars),
		),
		saveBtn,
		widget.NewSeparator(),
		c.dataTools(),
		widget.NewSeparator(),
		quitBtn,
	))
}

func (c *Config) dataTools() fyne.CanvasObject {
	backupBtn := widget.NewButtonWithIcon("Backup now", theme.DocumentSaveIcon(), func() {
		info, created, err := c.app.Backups.Create(codec.SerializeString(c.app.Store.Snapshot()))
		switch {
		case err != nil:
			dialog.ShowError(err, c.window)
		case !created:
			dialog.ShowInformation("Backup", "Latest backup is already up to date.", c.window)
		default:
			dialog.ShowInformation("Backup", "Created "+info.Name, c.window)
		}
	})

	restoreBtn := widget.NewButtonWithIcon("Merge a backup", theme.HistoryIcon(), c.showRestore)

	importBtn := widget.NewButtonWithIcon("Import Simple Time Tracker backup", theme.UploadIcon(), func() {
		dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, c.window)
				return
			}
			if r == nil {
				return
			}
			defer r.Close()
			backup, err := legacyimport.Parse(r)
			if err != nil {
				dialog.ShowError(err, c.window)
				return
			}
			imp := &legacyimport.Import{Backup: backup}
			if _, err := c.app.Store.Apply(imp); err != nil {
				dialog.ShowError(err, c.window)
				return
			}
			dialog.ShowInformation("Import", imp.Summary.String(), c.window)
		}, c.window).Show()
	})

	calendarsBtn := widget.NewButtonWithIcon("Refresh calendars", theme.ViewRefreshIcon(), func() {
		go func() {
			events, errs := c.app.RefreshCalendars(context.Background())
			fyne.Do(func() {
				msg := fmt.Sprintf("Loaded %d event(s).", len(events))
				for _, err := range errs {
					msg += "\n" + err.Error()
				}
				dialog.ShowInformation("Calendars", msg, c.window)
				c.app.Store.Refresh()
			})
		}()
	})

	return container.NewVBox(backupBtn, restoreBtn, importBtn, calendarsBtn)
}

// showRestore merges a chosen backup into the open timesheet. Records are
// never removed by this, only replaced or added.
func (c *Config) showRestore() {
	list, err := c.app.Backups.List()
	if err != nil {
		dialog.ShowError(err, c.window)
		return
	}
	if len(list) == 0 {
		dialog.ShowInformation("Backups", "There are no backups yet.", c.window)
		return
	}
	names := make([]string, len(list))
	for i, b := range list {
		names[i] = b.Name
	}
	sel := widget.NewSelect(names, nil)
	sel.SetSelected(names[0])

	dialog.ShowForm("Merge a backup", "Merge", "Cancel", []*widget.FormItem{
		widget.NewFormItem("Backup", sel),
	}, func(ok bool) {
		if !ok || sel.Selected == "" {
			return
		}
		text, err := c.app.Backups.Read(sel.Selected)
		if err != nil {
			dialog.ShowError(err, c.window)
			return
		}
		parsed := codec.ParseString(text)
		for _, rowErr := range parsed.Errors {
			c.app.Log.Warn("skipped backup row", "line", rowErr.Line, "error", rowErr.Err)
		}
		merge := &reconcile.Merge{Incoming: parsed.Timesheet}
		if _, err := c.app.Store.Apply(merge); err != nil {
			dialog.ShowError(err, c.window)
			return
		}
		res := merge.Result
		dialog.ShowInformation("Backups", fmt.Sprintf("Replaced %d, added %d, skipped %d record(s).",
			len(res.Records.Replaced), len(res.Records.Added), len(res.Records.Skipped)), c.window)
	}, c.window)
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

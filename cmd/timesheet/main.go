package main

import (
	"context"
	"os"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"

	"github.com/highercomve/timesheet/internal/app"
	"github.com/highercomve/timesheet/internal/ui"
	"github.com/highercomve/timesheet/internal/version"
)

func main() {
	os.Setenv("FYNE_SCALE", "auto")

	a := fyneapp.NewWithID("com.highercomve.timesheet")
	a.Settings().SetTheme(theme.DarkTheme())
	icon := theme.HistoryIcon()
	a.SetIcon(icon)

	w := a.NewWindow("Timesheet " + version.Version)
	w.Resize(fyne.NewSize(480, 640))

	tracker, err := app.Load(os.Getenv("TIMESHEET_CONFIG"))
	if err != nil {
		dialog.ShowError(err, w)
		w.ShowAndRun()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := tracker.Start(ctx, true)
	go tracker.RefreshCalendars(ctx)

	dashboard := ui.NewDashboard(tracker, w)
	reports := ui.NewReports(tracker, w)
	projects := ui.NewProjects(tracker, w)
	configUI := ui.NewConfig(w, tracker)

	tabs := container.NewAppTabs(
		container.NewTabItem("Tracker", dashboard.MakeUI()),
		container.NewTabItem("Reports", reports.MakeUI()),
		container.NewTabItem("Projects", projects.MakeUI()),
		container.NewTabItem("Config", configUI.MakeUI()),
	)
	w.SetContent(tabs)

	// pick up edits made by other devices when the window comes back
	a.Lifecycle().SetOnEnteredForeground(func() {
		go tracker.Syncer.Reload()
	})
	a.Lifecycle().SetOnStopped(func() {
		cancel()
		if err := <-done; err != nil {
			tracker.Log.Error("sync loop", "error", err)
		}
		if err := tracker.Close(); err != nil {
			tracker.Log.Error("close", "error", err)
		}
	})

	ui.SetupTray(a, w, icon, dashboard)

	w.ShowAndRun()
}

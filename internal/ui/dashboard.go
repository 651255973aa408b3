package ui

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/highercomve/timesheet/internal/app"
	"github.com/highercomve/timesheet/internal/models"
	"github.com/highercomve/timesheet/internal/service"
	"github.com/highercomve/timesheet/internal/timer"
	"github.com/highercomve/timesheet/internal/timesheet"
)

// Dashboard is the tracker tab: a grid of project buttons, the running
// timers and today's records.
type Dashboard struct {
	app    *app.App
	window fyne.Window

	timerData binding.String
	errorData binding.String
	errorBar  *fyne.Container
	title     *widget.Entry
	grid      *fyne.Container
	list      *widget.List
	records   []models.TimeRecord
	buttons   map[int]*widget.Button
}

func NewDashboard(a *app.App, w fyne.Window) *Dashboard {
	return &Dashboard{
		app:       a,
		window:    w,
		timerData: binding.NewString(),
		errorData: binding.NewString(),
		buttons:   map[int]*widget.Button{},
	}
}

func (d *Dashboard) MakeUI() fyne.CanvasObject {
	d.timerData.Set("0:00")

	timerLabel := widget.NewLabelWithData(d.timerData)
	timerLabel.TextStyle = fyne.TextStyle{Bold: true}
	timerLabel.Alignment = fyne.TextAlignCenter

	d.title = widget.NewEntry()
	d.title.PlaceHolder = "What are you working on?"

	stopAll := widget.NewButtonWithIcon("Stop all", theme.MediaStopIcon(), func() {
		d.StopTask()
	})
	noProject := widget.NewButtonWithIcon("No project", theme.MediaPlayIcon(), func() {
		d.start(models.NoProject)
	})

	errorLabel := widget.NewLabelWithData(d.errorData)
	errorLabel.Wrapping = fyne.TextWrapWord
	d.errorBar = container.NewBorder(nil, nil, widget.NewIcon(theme.ErrorIcon()),
		widget.NewButtonWithIcon("", theme.CancelIcon(), func() {
			d.app.Storage.ClearError()
			d.refreshError()
		}),
		errorLabel)
	d.errorBar.Hide()

	d.grid = container.NewGridWithColumns(max(1, d.app.Settings.GridColumns))

	d.list = widget.NewList(
		func() int { return len(d.records) },
		func() fyne.CanvasObject {
			return container.NewBorder(nil, nil, nil,
				container.NewHBox(widget.NewLabel("0:00:00"), widget.NewButtonWithIcon("", theme.DocumentCreateIcon(), nil), widget.NewButtonWithIcon("", theme.DeleteIcon(), nil)),
				widget.NewLabel("Title"))
		},
		func(i int, o fyne.CanvasObject) {
			rec := d.records[len(d.records)-1-i] // newest first
			box := o.(*fyne.Container)
			title := box.Objects[0].(*widget.Label)
			rightBox := box.Objects[1].(*fyne.Container)
			dur := rightBox.Objects[0].(*widget.Label)
			editBtn := rightBox.Objects[1].(*widget.Button)
			delBtn := rightBox.Objects[2].(*widget.Button)

			title.SetText(recordTitle(d.app.Store, rec))
			dur.SetText(service.FormatDuration(rec.Duration(d.app.Store.Now()), d.app.Settings.ShowSeconds))
			dur.TextStyle = fyne.TextStyle{Italic: rec.Running()}

			editBtn.OnTapped = func() {
				showRecordDialog(d.app, d.window, rec, nil)
			}
			delBtn.OnTapped = func() {
				confirmDeleteRecord(d.app, d.window, rec.ID)
			}
		},
	)

	d.app.Store.Subscribe(func(timesheet.Event) {
		fyne.Do(d.refresh)
	})
	d.refresh()

	go func() {
		ticker := time.NewTicker(1 * time.Second)
		for range ticker.C {
			fyne.Do(d.tick)
		}
	}()

	return container.NewBorder(
		container.NewVBox(
			d.errorBar,
			timerLabel,
			container.NewBorder(nil, nil, nil, container.NewHBox(noProject, stopAll), d.title),
			container.NewVScroll(d.grid),
			widget.NewSeparator(),
		),
		nil, nil, nil,
		d.list,
	)
}

func (d *Dashboard) start(projectID int) {
	opts := timer.StartOptions{Title: strings.TrimSpace(d.title.Text)}
	if err := timer.ValidateStart(projectID, opts, d.app.Engine.Policy()); err != nil {
		dialog.ShowError(err, d.window)
		return
	}
	res, err := d.app.Engine.Start(projectID, opts)
	if err != nil {
		dialog.ShowError(err, d.window)
		return
	}
	if res.Action != timer.ActionNoop && res.Action != timer.ActionStopped {
		d.title.SetText("")
	}
}

// TogglePause stops all timers, or restarts the project of the last record.
func (d *Dashboard) TogglePause() {
	d.app.Engine.ToggleLast()
}

func (d *Dashboard) StopTask() {
	d.app.Engine.StopAll()
}

func (d *Dashboard) refresh() {
	now := d.app.Store.Now()
	day, _ := service.RangeFor(service.RangeDay, now)
	d.records = service.RecordsIn(d.app.Store.Snapshot().Records, day, now)

	d.grid.Objects = nil
	d.buttons = map[int]*widget.Button{}
	for _, p := range d.visibleProjects() {
		id := p.ID
		btn := widget.NewButton(projectButtonText(p, 0, d.app.Settings.ShowSeconds), func() {
			d.start(id)
		})
		d.buttons[id] = btn
		swatch := canvas.NewRectangle(parseHexColor(p.Color))
		swatch.SetMinSize(fyne.NewSize(6, 6))
		d.grid.Add(container.NewBorder(nil, nil, swatch, nil, btn))
	}
	d.grid.Layout = layout.NewGridLayoutWithColumns(max(1, d.app.Settings.GridColumns))
	d.grid.Refresh()
	d.list.Refresh()
	d.refreshError()
	d.tick()
}

func (d *Dashboard) visibleProjects() []models.Project {
	projects := service.SortProjects(d.app.Store.Snapshot(), d.app.Store.Projects(d.app.Settings.ShowArchivedProjects), d.app.Settings.SortMode)
	if len(d.app.Settings.CategoryFilter) == 0 {
		return projects
	}
	var out []models.Project
	for _, p := range projects {
		for _, c := range d.app.Settings.CategoryFilter {
			if p.CategoryID == c {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

func (d *Dashboard) tick() {
	now := d.app.Store.Now()
	var running time.Duration
	for _, r := range d.app.Store.RunningRecords() {
		running += r.Duration(now)
	}
	d.timerData.Set(service.FormatDuration(running, d.app.Settings.ShowSeconds))

	day, _ := service.RangeFor(service.RangeDay, now)
	records := d.app.Store.Snapshot().Records
	for id, btn := range d.buttons {
		p, ok := d.app.Store.Project(id)
		if !ok {
			continue
		}
		btn.SetText(projectButtonText(p, service.ProjectDuration(records, id, day, now), d.app.Settings.ShowSeconds))
		if d.app.Store.IsRunning(id) {
			btn.Importance = widget.HighImportance
		} else {
			btn.Importance = widget.MediumImportance
		}
		btn.Refresh()
	}
	d.list.Refresh()
}

func (d *Dashboard) refreshError() {
	msg := d.app.Storage.LastError()
	d.errorData.Set(msg)
	if msg == "" {
		d.errorBar.Hide()
	} else {
		d.errorBar.Show()
	}
}

func projectButtonText(p models.Project, today time.Duration, showSeconds bool) string {
	return fmt.Sprintf("%s %s\n%s", p.Icon, p.Name, service.FormatDuration(today, showSeconds))
}

func recordTitle(s *timesheet.Store, r models.TimeRecord) string {
	label := s.ProjectLabel(r.ProjectID)
	if r.Title != "" {
		label += ": " + r.Title
	}
	end := "…"
	if !r.Running() {
		end = r.EndTime.Local().Format("15:04")
	}
	return fmt.Sprintf("%s  %s-%s", label, r.StartTime.Local().Format("15:04"), end)
}

// parseHexColor reads #rrggbb; anything else is the theme's disabled grey.
func parseHexColor(s string) color.Color {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return theme.Color(theme.ColorNameDisabled)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return theme.Color(theme.ColorNameDisabled)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

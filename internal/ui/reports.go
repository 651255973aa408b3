package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/highercomve/timesheet/internal/app"
	"github.com/highercomve/timesheet/internal/models"
	"github.com/highercomve/timesheet/internal/report"
	"github.com/highercomve/timesheet/internal/service"
	"github.com/highercomve/timesheet/internal/timesheet"
)

type Reports struct {
	app    *app.App
	window fyne.Window

	refreshers []func()
}

func NewReports(a *app.App, w fyne.Window) *Reports {
	return &Reports{app: a, window: w}
}

// period is a navigable day, week or month.
type period struct {
	kind   string
	at     time.Time
	format func(service.TimeRange) string
}

func (p *period) step(n int) {
	switch p.kind {
	case service.RangeDay:
		p.at = p.at.AddDate(0, 0, n)
	case service.RangeWeek:
		p.at = p.at.AddDate(0, 0, 7*n)
	case service.RangeMonth:
		// from the 1st so Jan 31 + 1 does not skip February
		y, m, _ := p.at.Date()
		p.at = time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, p.at.Location())
	}
}

func (p *period) rng() service.TimeRange {
	r, _ := service.RangeFor(p.kind, p.at)
	return r
}

func (r *Reports) MakeUI() fyne.CanvasObject {
	now := r.app.Store.Now()
	tabs := container.NewAppTabs(
		container.NewTabItem("Daily", r.periodTab(&period{kind: service.RangeDay, at: now, format: func(tr service.TimeRange) string {
			return "Report for " + tr.Start.Format("Mon, 02 Jan 2006")
		}}, "Today")),
		container.NewTabItem("Weekly", r.periodTab(&period{kind: service.RangeWeek, at: now, format: func(tr service.TimeRange) string {
			return fmt.Sprintf("Week %s - %s", tr.Start.Format("Jan 02"), tr.End.AddDate(0, 0, -1).Format("Jan 02"))
		}}, "This Week")),
		container.NewTabItem("Monthly", r.periodTab(&period{kind: service.RangeMonth, at: now, format: func(tr service.TimeRange) string {
			return "Report for " + tr.Start.Format("January 2006")
		}}, "This Month")),
		container.NewTabItem("Custom Range", r.customTab()),
	)
	switch r.app.Settings.DefaultTimeRange {
	case service.RangeWeek:
		tabs.SelectIndex(1)
	case service.RangeMonth, service.RangeYear:
		tabs.SelectIndex(2)
	}

	r.app.Store.Subscribe(func(timesheet.Event) {
		fyne.Do(r.refreshAll)
	})
	return tabs
}

func (r *Reports) refreshAll() {
	for _, fn := range r.refreshers {
		fn()
	}
}

func (r *Reports) periodTab(p *period, currentLabel string) fyne.CanvasObject {
	content := container.NewStack()
	label := widget.NewLabel("")

	update := func() {
		tr := p.rng()
		label.SetText(p.format(tr))
		r.render(content, tr)
	}
	r.refreshers = append(r.refreshers, update)
	update()

	return container.NewBorder(
		container.NewHBox(
			widget.NewButtonWithIcon("", theme.NavigateBackIcon(), func() {
				p.step(-1)
				update()
			}),
			widget.NewButton(currentLabel, func() {
				p.at = r.app.Store.Now()
				update()
			}),
			widget.NewButtonWithIcon("", theme.NavigateNextIcon(), func() {
				p.step(1)
				update()
			}),
			layout.NewSpacer(),
			label,
			r.exportButton(p.rng),
		),
		nil, nil, nil,
		content,
	)
}

func (r *Reports) customTab() fyne.CanvasObject {
	content := container.NewStack()
	now := r.app.Store.Now()
	startDate := now.AddDate(0, 0, -7)
	endDate := now

	var startBtn, endBtn *widget.Button
	current := func() service.TimeRange {
		tr, err := service.CustomRange(startDate, endDate)
		if err != nil {
			tr, _ = service.CustomRange(startDate, startDate)
		}
		return tr
	}
	update := func() {
		startBtn.SetText(startDate.Format("2006-01-02"))
		endBtn.SetText(endDate.Format("2006-01-02"))
		r.render(content, current())
	}

	pickDate := func(at time.Time, onSelect func(time.Time)) {
		var d dialog.Dialog
		cal := widget.NewCalendar(at, func(t time.Time) {
			onSelect(t)
			if d != nil {
				d.Hide()
			}
		})
		d = dialog.NewCustom("Select Date", "Cancel", container.NewPadded(cal), r.window)
		d.Resize(fyne.NewSize(300, 300))
		d.Show()
	}

	startBtn = widget.NewButton("", func() {
		pickDate(startDate, func(t time.Time) {
			startDate = t
			update()
		})
	})
	endBtn = widget.NewButton("", func() {
		pickDate(endDate, func(t time.Time) {
			endDate = t
			update()
		})
	})
	r.refreshers = append(r.refreshers, update)
	update()

	return container.NewBorder(
		container.NewHBox(
			widget.NewLabel("From:"), startBtn,
			widget.NewLabel("To:"), endBtn,
			layout.NewSpacer(),
			widget.NewButtonWithIcon("Add record", theme.ContentAddIcon(), func() {
				showRecordDialog(r.app, r.window, models.TimeRecord{ProjectID: models.NoProject}, nil)
			}),
			r.exportButton(current),
		),
		nil, nil, nil,
		content,
	)
}

func (r *Reports) render(content *fyne.Container, tr service.TimeRange) {
	content.Objects = []fyne.CanvasObject{r.renderHistory(tr)}
	content.Refresh()
}

func (r *Reports) renderHistory(tr service.TimeRange) fyne.CanvasObject {
	now := r.app.Store.Now()
	ts := r.app.Store.Snapshot()
	records := service.RecordsIn(ts.Records, tr, now)
	events := r.app.Calendar.InRange(tr.Start, tr.End)
	if len(records) == 0 && len(events) == 0 {
		return widget.NewLabel("No records found for this period.")
	}
	showSeconds := r.app.Settings.ShowSeconds

	var summary strings.Builder
	fmt.Fprintf(&summary, "Total Time: %s\n", service.FormatDuration(service.Total(ts.Records, tr, now), showSeconds))
	for _, p := range service.ProjectTotals(ts, tr, now) {
		fmt.Fprintf(&summary, "- %s %s: %s\n", p.Icon, p.Name, service.FormatDuration(p.Duration, showSeconds))
	}
	for _, e := range events {
		fmt.Fprintf(&summary, "• %s %s (%s)\n", e.Start.Local().Format("Mon 15:04"), e.Title, e.Source)
	}
	summaryLabel := widget.NewLabel(strings.TrimRight(summary.String(), "\n"))

	listView := widget.NewList(
		func() int { return len(records) },
		func() fyne.CanvasObject {
			return container.NewBorder(nil, nil, nil,
				container.NewHBox(widget.NewLabel("00:00:00"), widget.NewButtonWithIcon("", theme.DocumentCreateIcon(), nil), widget.NewButtonWithIcon("", theme.DeleteIcon(), nil)),
				container.NewVBox(
					widget.NewLabelWithStyle("Title", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
					widget.NewLabelWithStyle("Date", fyne.TextAlignLeading, fyne.TextStyle{Italic: true}),
				))
		},
		func(i int, o fyne.CanvasObject) {
			rec := records[len(records)-1-i]

			box := o.(*fyne.Container)
			rightBox := box.Objects[1].(*fyne.Container)
			durLabel := rightBox.Objects[0].(*widget.Label)
			editBtn := rightBox.Objects[1].(*widget.Button)
			delBtn := rightBox.Objects[2].(*widget.Button)

			infoBox := box.Objects[0].(*fyne.Container)
			infoBox.Objects[0].(*widget.Label).SetText(recordTitle(r.app.Store, rec))
			infoBox.Objects[1].(*widget.Label).SetText(rec.StartTime.Local().Format("Mon, 02 Jan 15:04"))

			durLabel.TextStyle = fyne.TextStyle{Italic: rec.Running()}
			durLabel.SetText(service.FormatDuration(tr.Overlap(rec, now), showSeconds))

			editBtn.OnTapped = func() {
				showRecordDialog(r.app, r.window, rec, nil)
			}
			delBtn.OnTapped = func() {
				confirmDeleteRecord(r.app, r.window, rec.ID)
			}
		},
	)

	return container.NewBorder(
		container.NewVBox(summaryLabel, widget.NewSeparator()),
		nil, nil, nil,
		listView,
	)
}

// exportButton saves the current range as PDF or XLSX, chosen by the
// extension the user types.
func (r *Reports) exportButton(current func() service.TimeRange) fyne.CanvasObject {
	return widget.NewButtonWithIcon("Export", theme.DocumentSaveIcon(), func() {
		tr := current()
		save := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, r.window)
				return
			}
			if w == nil {
				return
			}
			defer w.Close()
			if err := r.export(w, w.URI().Extension(), tr); err != nil {
				dialog.ShowError(err, r.window)
			}
		}, r.window)
		save.SetFileName(fmt.Sprintf("timesheet-%s.pdf", tr.Start.Format("2006-01-02")))
		save.Show()
	})
}

func (r *Reports) export(w io.Writer, ext string, tr service.TimeRange) error {
	now := r.app.Store.Now()
	rep := report.Build(r.app.Store.Snapshot(), tr, service.GroupByDay, now)
	rep.ShowSeconds = r.app.Settings.ShowSeconds
	switch strings.ToLower(ext) {
	case ".xlsx":
		return report.WriteXLSX(w, rep)
	case ".pdf", "":
		return report.WritePDF(w, rep)
	}
	return fmt.Errorf("export %q: use .pdf or .xlsx: %w", ext, models.ErrValidation)
}

package ui

import (
	"fmt"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/araddon/dateparse"

	"github.com/highercomve/timesheet/internal/app"
	"github.com/highercomve/timesheet/internal/models"
	"github.com/highercomve/timesheet/internal/timer"
	"github.com/highercomve/timesheet/internal/timesheet"
)

const timeLayout = "2006-01-02 15:04:05"

// projectChoice maps select labels to project ids, keeping "No project" first.
type projectChoice struct {
	labels []string
	ids    map[string]int
}

func newProjectChoice(s *timesheet.Store) projectChoice {
	c := projectChoice{
		labels: []string{timesheet.NoProjectLabel},
		ids:    map[string]int{timesheet.NoProjectLabel: models.NoProject},
	}
	for _, p := range s.Projects(false) {
		label := strings.TrimSpace(p.Icon + " " + p.Name)
		c.labels = append(c.labels, label)
		c.ids[label] = p.ID
	}
	return c
}

func (c projectChoice) label(id int) string {
	for l, v := range c.ids {
		if v == id {
			return l
		}
	}
	return timesheet.NoProjectLabel
}

func parseEntryTime(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := dateparse.ParseLocal(s)
	if err != nil {
		return nil, fmt.Errorf("time %q: %w", s, models.ErrValidation)
	}
	return &t, nil
}

// showRecordDialog edits rec, or adds a new record when rec.ID is zero.
// An empty end time leaves the record running.
func showRecordDialog(a *app.App, parent fyne.Window, rec models.TimeRecord, onDone func()) {
	choice := newProjectChoice(a.Store)
	project := widget.NewSelect(choice.labels, nil)
	project.SetSelected(choice.label(rec.ProjectID))

	title := widget.NewEntry()
	title.SetText(rec.Title)

	if rec.StartTime.IsZero() {
		rec.StartTime = a.Store.Now().Truncate(time.Minute)
	}
	start := widget.NewEntry()
	start.SetText(rec.StartTime.Local().Format(timeLayout))
	end := widget.NewEntry()
	end.PlaceHolder = "running"
	if rec.EndTime != nil {
		end.SetText(rec.EndTime.Local().Format(timeLayout))
	}

	items := []*widget.FormItem{
		widget.NewFormItem("Project", project),
		widget.NewFormItem("Title", title),
		widget.NewFormItem("Start", start),
		widget.NewFormItem("End", end),
	}
	heading := "Edit record"
	if rec.ID == 0 {
		heading = "Add record"
	}

	dlg := dialog.NewForm(heading, "Save", "Cancel", items, func(ok bool) {
		if !ok {
			return
		}
		if err := saveRecord(a, rec, choice.ids[project.Selected], title.Text, start.Text, end.Text); err != nil {
			dialog.ShowError(err, parent)
			return
		}
		if onDone != nil {
			onDone()
		}
	}, parent)
	dlg.Resize(fyne.NewSize(parent.Canvas().Size().Width*0.8, dlg.MinSize().Height))
	dlg.Show()
}

func saveRecord(a *app.App, rec models.TimeRecord, projectID int, title, startText, endText string) error {
	start, err := parseEntryTime(startText)
	if err != nil {
		return err
	}
	if start == nil {
		return models.NewValidationError("start_time", "required")
	}
	end, err := parseEntryTime(endText)
	if err != nil {
		return err
	}

	if rec.ID == 0 {
		r := models.TimeRecord{ProjectID: projectID, StartTime: *start, EndTime: end, Title: strings.TrimSpace(title)}
		if err := timer.ValidateRecord(r); err != nil {
			return err
		}
		_, err := a.Store.Apply(timesheet.AddRecord{Record: r})
		return err
	}

	title = strings.TrimSpace(title)
	patch := timesheet.RecordPatch{
		ProjectID: &projectID,
		StartTime: start,
		EndTime:   end,
		ClearEnd:  end == nil,
		Title:     &title,
	}
	if err := timer.ValidatePatch(rec, patch); err != nil {
		return err
	}
	if !a.Engine.EditRecord(rec.ID, patch) {
		return fmt.Errorf("record #%d: %w", rec.ID, models.ErrNotFound)
	}
	return nil
}

func confirmDeleteRecord(a *app.App, parent fyne.Window, id int) {
	dialog.ShowConfirm("Delete record", "Are you sure you want to delete this record?", func(confirmed bool) {
		if confirmed {
			a.Engine.DeleteRecord(id)
		}
	}, parent)
}

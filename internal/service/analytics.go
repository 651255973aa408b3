// Package service computes report figures from a timesheet snapshot.
package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/highercomve/timesheet/internal/models"
	"github.com/highercomve/timesheet/internal/timesheet"
)

const (
	RangeDay    = "day"
	RangeWeek   = "week"
	RangeMonth  = "month"
	RangeYear   = "year"
	RangeCustom = "custom"
)

// TimeRange is the half-open interval [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// RangeFor returns the day, week (Monday first), month or year containing at,
// in at's location.
func RangeFor(kind string, at time.Time) (TimeRange, error) {
	y, m, d := at.Date()
	loc := at.Location()
	switch kind {
	case RangeDay:
		start := time.Date(y, m, d, 0, 0, 0, 0, loc)
		return TimeRange{start, start.AddDate(0, 0, 1)}, nil
	case RangeWeek:
		start := mondayOf(at)
		return TimeRange{start, start.AddDate(0, 0, 7)}, nil
	case RangeMonth:
		start := time.Date(y, m, 1, 0, 0, 0, 0, loc)
		return TimeRange{start, start.AddDate(0, 1, 0)}, nil
	case RangeYear:
		start := time.Date(y, 1, 1, 0, 0, 0, 0, loc)
		return TimeRange{start, start.AddDate(1, 0, 0)}, nil
	}
	return TimeRange{}, fmt.Errorf("time range %q: %w", kind, models.ErrValidation)
}

// CustomRange covers whole local days from the day of from through the day of to.
func CustomRange(from, to time.Time) (TimeRange, error) {
	start, _ := RangeFor(RangeDay, from)
	end, _ := RangeFor(RangeDay, to)
	if end.End.Before(start.End) {
		return TimeRange{}, fmt.Errorf("custom range ends before it starts: %w", models.ErrValidation)
	}
	return TimeRange{start.Start, end.End}, nil
}

func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Clip returns the part of the record inside the range. Running records end at now.
func (r TimeRange) Clip(rec models.TimeRecord, now time.Time) (time.Time, time.Time, bool) {
	start, end := rec.StartTime, rec.End(now)
	if start.Before(r.Start) {
		start = r.Start
	}
	if end.After(r.End) {
		end = r.End
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// Overlap is the duration of rec inside the range.
func (r TimeRange) Overlap(rec models.TimeRecord, now time.Time) time.Duration {
	start, end, ok := r.Clip(rec, now)
	if !ok {
		return 0
	}
	return end.Sub(start)
}

// RecordsIn returns the records overlapping the range, oldest first.
// Zero-length records count when they start inside the range.
func RecordsIn(records []models.TimeRecord, r TimeRange, now time.Time) []models.TimeRecord {
	var out []models.TimeRecord
	for _, rec := range records {
		if r.Overlap(rec, now) > 0 || r.Contains(rec.StartTime) {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func ProjectDuration(records []models.TimeRecord, projectID int, r TimeRange, now time.Time) time.Duration {
	var total time.Duration
	for _, rec := range records {
		if rec.ProjectID == projectID {
			total += r.Overlap(rec, now)
		}
	}
	return total
}

type ProjectTotal struct {
	ProjectID  int
	Name       string
	Icon       string
	Color      string
	CategoryID int
	Duration   time.Duration
	Records    int
}

// ProjectTotals sums tracked time per project, longest first. Records whose
// project no longer exists are reported under their dangling id.
func ProjectTotals(ts models.Timesheet, r TimeRange, now time.Time) []ProjectTotal {
	byID := map[int]*ProjectTotal{}
	var order []int
	for _, rec := range ts.Records {
		d := r.Overlap(rec, now)
		if d <= 0 {
			continue
		}
		pt, ok := byID[rec.ProjectID]
		if !ok {
			pt = &ProjectTotal{ProjectID: rec.ProjectID, CategoryID: models.Uncategorized}
			fillProject(pt, ts.Projects)
			byID[rec.ProjectID] = pt
			order = append(order, rec.ProjectID)
		}
		pt.Duration += d
		pt.Records++
	}

	out := make([]ProjectTotal, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Duration != out[j].Duration {
			return out[i].Duration > out[j].Duration
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func fillProject(pt *ProjectTotal, projects []models.Project) {
	if pt.ProjectID == models.NoProject {
		pt.Name = timesheet.NoProjectLabel
		return
	}
	for _, p := range projects {
		if p.ID == pt.ProjectID {
			pt.Name, pt.Icon, pt.Color, pt.CategoryID = p.Name, p.Icon, p.Color, p.CategoryID
			return
		}
	}
	pt.Name = timesheet.UnknownProjectLabel
}

// ProjectName labels a project id, including the no-project and deleted cases.
func ProjectName(projects []models.Project, id int) string {
	pt := ProjectTotal{ProjectID: id}
	fillProject(&pt, projects)
	return pt.Name
}

type CategoryTotal struct {
	CategoryID int
	Name       string
	Color      string
	Duration   time.Duration
}

// CategoryTotals folds ProjectTotals by category, longest first.
func CategoryTotals(ts models.Timesheet, r TimeRange, now time.Time) []CategoryTotal {
	byID := map[int]*CategoryTotal{}
	var order []int
	for _, pt := range ProjectTotals(ts, r, now) {
		ct, ok := byID[pt.CategoryID]
		if !ok {
			ct = &CategoryTotal{CategoryID: pt.CategoryID, Name: models.DefaultCategoryName}
			for _, c := range ts.Categories {
				if c.ID == pt.CategoryID {
					ct.Name, ct.Color = c.Name, c.Color
				}
			}
			byID[pt.CategoryID] = ct
			order = append(order, pt.CategoryID)
		}
		ct.Duration += pt.Duration
	}
	out := make([]CategoryTotal, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Duration > out[j].Duration })
	return out
}

func Total(records []models.TimeRecord, r TimeRange, now time.Time) time.Duration {
	var total time.Duration
	for _, rec := range records {
		total += r.Overlap(rec, now)
	}
	return total
}

// TimelineEntry is a record clipped to the viewed range.
type TimelineEntry struct {
	RecordID  int
	ProjectID int
	Label     string
	Color     string
	Start     time.Time
	End       time.Time
	Running   bool
}

func Timeline(ts models.Timesheet, r TimeRange, now time.Time) []TimelineEntry {
	var out []TimelineEntry
	for _, rec := range RecordsIn(ts.Records, r, now) {
		start, end, _ := r.Clip(rec, now)
		pt := ProjectTotal{ProjectID: rec.ProjectID}
		fillProject(&pt, ts.Projects)
		label := pt.Name
		if pt.Icon != "" {
			label = pt.Icon + " " + label
		}
		if rec.Title != "" {
			label += ": " + rec.Title
		}
		color := pt.Color
		if color == "" {
			color = models.DefaultProjectColor
		}
		out = append(out, TimelineEntry{
			RecordID:  rec.ID,
			ProjectID: rec.ProjectID,
			Label:     label,
			Color:     color,
			Start:     start,
			End:       end,
			Running:   rec.Running(),
		})
	}
	return out
}

// FormatDuration renders h:mm:ss (m:ss under an hour) with seconds, or
// "1h 5m", "5m", "30s" without.
func FormatDuration(d time.Duration, showSeconds bool) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	h, m, s := total/3600, (total%3600)/60, total%60
	if showSeconds {
		if h > 0 {
			return fmt.Sprintf("%d:%02d:%02d", h, m, s)
		}
		return fmt.Sprintf("%d:%02d", m, s)
	}
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%ds", s)
}

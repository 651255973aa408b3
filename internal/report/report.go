// Package report renders tracked time for a range as PDF or XLSX.
package report

import (
	"time"

	"github.com/highercomve/timesheet/internal/models"
	"github.com/highercomve/timesheet/internal/service"
)

type Row struct {
	RecordID int
	Date     string
	Project  string
	Title    string
	Start    time.Time
	End      time.Time
	Running  bool
	Duration time.Duration
}

type Section struct {
	Title string
	Rows  []Row
	Total time.Duration
}

type Report struct {
	Title    string
	Range    service.TimeRange
	GroupBy  string
	Sections []Section
	Projects []service.ProjectTotal
	Total    time.Duration
	// ShowSeconds controls duration formatting.
	ShowSeconds bool
}

// Build collects the records overlapping r, clipped to it, grouped by groupBy.
func Build(ts models.Timesheet, r service.TimeRange, groupBy string, now time.Time) Report {
	rep := Report{
		Title:       "Time report",
		Range:       r,
		GroupBy:     groupBy,
		Projects:    service.ProjectTotals(ts, r, now),
		ShowSeconds: true,
	}

	for _, g := range service.GroupRecords(service.RecordsIn(ts.Records, r, now), groupBy, now) {
		sec := Section{Title: g.Title}
		for _, rec := range g.Records {
			start, end, _ := r.Clip(rec, now)
			row := Row{
				RecordID: rec.ID,
				Date:     rec.StartTime.Format("2006-01-02"),
				Project:  service.ProjectName(ts.Projects, rec.ProjectID),
				Title:    rec.Title,
				Start:    start,
				End:      end,
				Running:  rec.Running(),
				Duration: end.Sub(start),
			}
			sec.Rows = append(sec.Rows, row)
			sec.Total += row.Duration
		}
		rep.Sections = append(rep.Sections, sec)
		rep.Total += sec.Total
	}
	return rep
}

func (r Report) duration(d time.Duration) string {
	return service.FormatDuration(d, r.ShowSeconds)
}

func (r Report) dateRange() string {
	// End is exclusive; show the last included day.
	return r.Range.Start.Format("2006-01-02") + " - " + r.Range.End.Add(-time.Nanosecond).Format("2006-01-02")
}

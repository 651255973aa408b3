// Package reconcile merges a conflicting copy or a backup of the timesheet
// into the active one.
//
// Records with the same id: a running record beats a completed one,
// otherwise the later end time wins and a tie keeps the current record.
// Records only present in the incoming copy are added when they do not
// overlap anything already kept.
package reconcile

import (
	"sort"
	"time"

	"github.com/highercomve/timesheet/internal/models"
	"github.com/highercomve/timesheet/internal/timesheet"
)

type RecordsResult struct {
	Records  []models.TimeRecord
	// Replaced holds ids whose incoming version won.
	Replaced []int
	Added    []int
	// Skipped holds incoming-only ids dropped because they overlap.
	Skipped  []int
}

// Records merges incoming into current. now closes running records for the
// overlap test. Neither input is modified.
func Records(current, incoming []models.TimeRecord, now time.Time) RecordsResult {
	res := RecordsResult{Records: make([]models.TimeRecord, 0, len(current))}

	byID := make(map[int]models.TimeRecord, len(incoming))
	for _, r := range incoming {
		byID[r.ID] = r
	}

	for _, cur := range current {
		inc, ok := byID[cur.ID]
		if ok && incomingWins(cur, inc) {
			res.Records = append(res.Records, copyRecord(inc))
			res.Replaced = append(res.Replaced, cur.ID)
		} else {
			res.Records = append(res.Records, copyRecord(cur))
		}
		delete(byID, cur.ID)
	}

	rest := make([]models.TimeRecord, 0, len(byID))
	for _, r := range byID {
		rest = append(rest, r)
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].ID < rest[j].ID })

	for _, r := range rest {
		if overlapsAny(r, res.Records, now) {
			res.Skipped = append(res.Skipped, r.ID)
			continue
		}
		res.Records = append(res.Records, copyRecord(r))
		res.Added = append(res.Added, r.ID)
	}
	return res
}

func incomingWins(cur, inc models.TimeRecord) bool {
	switch {
	case cur.Running() && inc.Running():
		return false
	case cur.Running() != inc.Running():
		return inc.Running()
	}
	return inc.EndTime.After(*cur.EndTime)
}

// Overlaps compares half-open intervals; running records end at now.
func Overlaps(a, b models.TimeRecord, now time.Time) bool {
	return a.StartTime.Before(b.End(now)) && b.StartTime.Before(a.End(now))
}

func overlapsAny(r models.TimeRecord, others []models.TimeRecord, now time.Time) bool {
	for _, o := range others {
		if Overlaps(r, o, now) {
			return true
		}
	}
	return false
}

type Result struct {
	Timesheet       models.Timesheet
	Records         RecordsResult
	ProjectsAdded   []int
	CategoriesAdded []int
}

// Changed reports whether the merge altered the current timesheet.
func (r Result) Changed() bool {
	return len(r.Records.Replaced) > 0 || len(r.Records.Added) > 0 ||
		len(r.ProjectsAdded) > 0 || len(r.CategoriesAdded) > 0
}

// Timesheets merges a whole incoming timesheet. Categories and projects are
// matched by name, case-insensitively; missing ones are added with fresh ids
// and incoming record project ids are remapped onto the current ones.
func Timesheets(current, incoming models.Timesheet, now time.Time) Result {
	out := current.Clone()
	res := Result{}

	catMap := make(map[int]int, len(incoming.Categories))
	for _, c := range incoming.Categories {
		if existing, ok := timesheet.CategoryByName(out, c.Name); ok {
			catMap[c.ID] = existing.ID
			continue
		}
		oldID := c.ID
		c.ID = models.NextID(out.Categories)
		c.Order = len(out.Categories)
		out.Categories = append(out.Categories, c)
		catMap[oldID] = c.ID
		res.CategoriesAdded = append(res.CategoriesAdded, c.ID)
	}

	projMap := make(map[int]int, len(incoming.Projects))
	for _, p := range incoming.Projects {
		if existing, ok := timesheet.ProjectByName(out, p.Name); ok {
			projMap[p.ID] = existing.ID
			continue
		}
		oldID := p.ID
		p.ID = models.NextID(out.Projects)
		p.Order = len(out.Projects)
		if mapped, ok := catMap[p.CategoryID]; ok {
			p.CategoryID = mapped
		} else {
			p.CategoryID = models.Uncategorized
		}
		out.Projects = append(out.Projects, p)
		projMap[oldID] = p.ID
		res.ProjectsAdded = append(res.ProjectsAdded, p.ID)
	}

	remapped := make([]models.TimeRecord, len(incoming.Records))
	for i, r := range incoming.Records {
		if mapped, ok := projMap[r.ProjectID]; ok {
			r.ProjectID = mapped
		}
		remapped[i] = r
	}

	res.Records = Records(out.Records, remapped, now)
	out.Records = res.Records.Records
	res.Timesheet = out
	return res
}

func copyRecord(r models.TimeRecord) models.TimeRecord {
	if r.EndTime != nil {
		r.EndTime = models.TimePtr(*r.EndTime)
	}
	return r
}

// Merge is the store command form of Timesheets.
type Merge struct {
	Incoming models.Timesheet
	Result   Result
}

func (m *Merge) Execute(tx *timesheet.Tx) (timesheet.Event, error) {
	m.Result = Timesheets(*tx.Timesheet(), m.Incoming, tx.Now())
	if !m.Result.Changed() {
		return timesheet.Event{}, nil
	}
	*tx.Timesheet() = m.Result.Timesheet
	ids := append(append([]int(nil), m.Result.Records.Replaced...), m.Result.Records.Added...)
	return timesheet.Event{Kind: timesheet.EventMerged, IDs: ids}, nil
}

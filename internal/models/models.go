package models

import (
	"sort"
	"time"
)

const (
	// NoProject marks a record that is not attached to any project.
	NoProject = -1
	// Uncategorized marks a project without a category.
	Uncategorized = -1
)

const (
	DefaultCategoryName   = "Uncategorized"
	DefaultCategoryColor  = "#88C0D0"
	DefaultTimeblockColor = "#6b7280"
	DefaultProjectIcon    = "📌"
	DefaultProjectColor   = "#5e81ac"
)

// TimeRecord represents a single unit of tracked work.
// A nil EndTime means the timer is still running.
type TimeRecord struct {
	ID        int        `json:"id"`
	ProjectID int        `json:"project_id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Title     string     `json:"title"`
}

func (r TimeRecord) Identity() int { return r.ID }

// Running reports whether the record has no end time yet.
func (r TimeRecord) Running() bool { return r.EndTime == nil }

// End returns the end time, or now for a running record.
func (r TimeRecord) End(now time.Time) time.Time {
	if r.EndTime == nil {
		return now
	}
	return *r.EndTime
}

func (r TimeRecord) Duration(now time.Time) time.Duration {
	return r.End(now).Sub(r.StartTime)
}

// Project represents something time is tracked against.
type Project struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Icon       string `json:"icon"`
	Color      string `json:"color"`
	CategoryID int    `json:"category_id"`
	Archived   bool   `json:"archived"`
	Order      int    `json:"order"`
}

func (p Project) Identity() int { return p.ID }

// Category groups projects.
type Category struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Color    string `json:"color"`
	Archived bool   `json:"archived"`
	Order    int    `json:"order"`
}

func (c Category) Identity() int { return c.ID }

// Timesheet is the aggregate persisted in the timesheet file.
type Timesheet struct {
	Records    []TimeRecord `json:"records"`
	Projects   []Project    `json:"projects"`
	Categories []Category   `json:"categories"`
}

// Timeblock is a planned slot of time. Both ends are always set.
type Timeblock struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Color     string    `json:"color"`
	Notes     string    `json:"notes"`
}

func (b Timeblock) Identity() int { return b.ID }

// Identifiable is implemented by every collection element that carries an integer id.
type Identifiable interface {
	Identity() int
}

// NextID returns max(existing ids)+1, or 1 for an empty collection.
// It is not safe for concurrent writers; callers hold the store lock.
func NextID[T Identifiable](items []T) int {
	next := 1
	for _, it := range items {
		if it.Identity() >= next {
			next = it.Identity() + 1
		}
	}
	return next
}

// NewTimesheet returns the data written to a freshly created timesheet file.
func NewTimesheet() Timesheet {
	return Timesheet{
		Records:  []TimeRecord{},
		Projects: []Project{},
		Categories: []Category{
			{ID: 1, Name: DefaultCategoryName, Color: DefaultCategoryColor},
		},
	}
}

// Clone returns a deep copy; end times are copied so mutations never alias.
func (t Timesheet) Clone() Timesheet {
	out := Timesheet{
		Records:    make([]TimeRecord, len(t.Records)),
		Projects:   make([]Project, len(t.Projects)),
		Categories: make([]Category, len(t.Categories)),
	}
	for i, r := range t.Records {
		if r.EndTime != nil {
			end := *r.EndTime
			r.EndTime = &end
		}
		out.Records[i] = r
	}
	copy(out.Projects, t.Projects)
	copy(out.Categories, t.Categories)
	return out
}

// Equal reports structural equality regardless of row order.
// Times are compared by instant.
func (t Timesheet) Equal(o Timesheet) bool {
	if len(t.Records) != len(o.Records) || len(t.Projects) != len(o.Projects) || len(t.Categories) != len(o.Categories) {
		return false
	}
	t, o = t.sorted(), o.sorted()
	for i := range t.Projects {
		if t.Projects[i] != o.Projects[i] {
			return false
		}
	}
	for i := range t.Categories {
		if t.Categories[i] != o.Categories[i] {
			return false
		}
	}
	for i := range t.Records {
		if !t.Records[i].Equal(o.Records[i]) {
			return false
		}
	}
	return true
}

func (t Timesheet) sorted() Timesheet {
	c := t.Clone()
	sort.SliceStable(c.Records, func(i, j int) bool { return c.Records[i].ID < c.Records[j].ID })
	sort.SliceStable(c.Projects, func(i, j int) bool { return c.Projects[i].ID < c.Projects[j].ID })
	sort.SliceStable(c.Categories, func(i, j int) bool { return c.Categories[i].ID < c.Categories[j].ID })
	return c
}

func (r TimeRecord) Equal(o TimeRecord) bool {
	if r.ID != o.ID || r.ProjectID != o.ProjectID || r.Title != o.Title || !r.StartTime.Equal(o.StartTime) {
		return false
	}
	if r.EndTime == nil || o.EndTime == nil {
		return r.EndTime == nil && o.EndTime == nil
	}
	return r.EndTime.Equal(*o.EndTime)
}

// TimePtr is a small helper for building records with an end time.
func TimePtr(t time.Time) *time.Time { return &t }

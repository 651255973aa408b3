package timesheet

import (
	"sort"
	"strings"

	"github.com/highercomve/timesheet/internal/models"
)

const (
	UnknownProjectLabel = "Unknown project"
	NoProjectLabel      = "No project"
)

// RunningRecords returns every record without an end time, in file order.
// This is the only place that decides what "running" means.
func RunningRecords(t models.Timesheet) []models.TimeRecord {
	var out []models.TimeRecord
	for _, r := range t.Records {
		if r.Running() {
			out = append(out, r)
		}
	}
	return out
}

// LastStoppedRecord returns the completed record with the latest end time.
// Among records sharing that end time the highest id wins.
func LastStoppedRecord(t models.Timesheet) (models.TimeRecord, bool) {
	var (
		last  models.TimeRecord
		found bool
	)
	for _, r := range t.Records {
		if r.Running() {
			continue
		}
		if !found || r.EndTime.After(*last.EndTime) || (r.EndTime.Equal(*last.EndTime) && r.ID > last.ID) {
			last = r
			found = true
		}
	}
	return last, found
}

// ProjectByName matches names case-insensitively after trimming.
func ProjectByName(t models.Timesheet, name string) (models.Project, bool) {
	name = strings.TrimSpace(name)
	for _, p := range t.Projects {
		if strings.EqualFold(strings.TrimSpace(p.Name), name) {
			return p, true
		}
	}
	return models.Project{}, false
}

func CategoryByName(t models.Timesheet, name string) (models.Category, bool) {
	name = strings.TrimSpace(name)
	for _, c := range t.Categories {
		if strings.EqualFold(strings.TrimSpace(c.Name), name) {
			return c, true
		}
	}
	return models.Category{}, false
}

func (s *Store) RunningRecords() []models.TimeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRecords(RunningRecords(s.data))
}

func (s *Store) LastStoppedRecord() (models.TimeRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := LastStoppedRecord(s.data)
	return cloneRecord(r), ok
}

// IsRunning reports whether projectID has a running record.
func (s *Store) IsRunning(projectID int) bool {
	for _, r := range s.RunningRecords() {
		if r.ProjectID == projectID {
			return true
		}
	}
	return false
}

func (s *Store) Record(id int) (models.TimeRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.data.Records {
		if r.ID == id {
			return cloneRecord(r), true
		}
	}
	return models.TimeRecord{}, false
}

func (s *Store) Project(id int) (models.Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.data.Projects {
		if p.ID == id {
			return p, true
		}
	}
	return models.Project{}, false
}

func (s *Store) ProjectByName(name string) (models.Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ProjectByName(s.data, name)
}

func (s *Store) Category(id int) (models.Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.data.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return models.Category{}, false
}

// Projects returns projects in display order, optionally with archived ones.
func (s *Store) Projects(includeArchived bool) []models.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Project, 0, len(s.data.Projects))
	for _, p := range s.data.Projects {
		if p.Archived && !includeArchived {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func (s *Store) Categories(includeArchived bool) []models.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Category, 0, len(s.data.Categories))
	for _, c := range s.data.Categories {
		if c.Archived && !includeArchived {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// ProjectLabel resolves a record project id for display. Missing projects
// never fail; they render as "Unknown project".
func (s *Store) ProjectLabel(id int) string {
	if id == models.NoProject {
		return NoProjectLabel
	}
	if p, ok := s.Project(id); ok {
		return p.Name
	}
	return UnknownProjectLabel
}

func (s *Store) CategoryLabel(id int) string {
	if c, ok := s.Category(id); ok {
		return c.Name
	}
	return models.DefaultCategoryName
}

func cloneRecord(r models.TimeRecord) models.TimeRecord {
	if r.EndTime != nil {
		r.EndTime = models.TimePtr(*r.EndTime)
	}
	return r
}

func cloneRecords(rs []models.TimeRecord) []models.TimeRecord {
	out := make([]models.TimeRecord, len(rs))
	for i, r := range rs {
		out[i] = cloneRecord(r)
	}
	return out
}

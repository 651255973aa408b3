package timesheet

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/highercomve/timesheet/internal/models"
)

func requireName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", models.NewValidationError("name", "required")
	}
	return name, nil
}

// Record project columns are written by name, so two projects may not share one.
func projectNameTaken(t *models.Timesheet, name string, except int) bool {
	for _, p := range t.Projects {
		if p.ID != except && strings.EqualFold(strings.TrimSpace(p.Name), name) {
			return true
		}
	}
	return false
}

// --- projects ---

type AddProject struct {
	Name       string
	Icon       string
	Color      string
	CategoryID int
}

func (c AddProject) Execute(tx *Tx) (Event, error) {
	name, err := requireName(c.Name)
	if err != nil {
		return Event{}, err
	}
	ts := tx.Timesheet()
	if projectNameTaken(ts, name, 0) {
		return Event{}, fmt.Errorf("project %q: %w", name, models.ErrConflict)
	}
	p := models.Project{
		ID:         models.NextID(ts.Projects),
		Name:       name,
		Icon:       c.Icon,
		Color:      c.Color,
		CategoryID: c.CategoryID,
		Order:      len(ts.Projects),
	}
	if p.Icon == "" {
		p.Icon = models.DefaultProjectIcon
	}
	if p.Color == "" {
		p.Color = models.DefaultProjectColor
	}
	if p.CategoryID == 0 {
		p.CategoryID = models.Uncategorized
	}
	ts.Projects = append(ts.Projects, p)
	return Event{Kind: EventProjectAdded, IDs: []int{p.ID}}, nil
}

// EditProject changes the non-nil fields of a project.
type EditProject struct {
	ID         int
	Name       *string
	Icon       *string
	Color      *string
	CategoryID *int
}

func (c EditProject) Execute(tx *Tx) (Event, error) {
	p, ok := tx.Project(c.ID)
	if !ok {
		return Event{}, notFound("project", c.ID)
	}
	if c.Name != nil {
		name, err := requireName(*c.Name)
		if err != nil {
			return Event{}, err
		}
		if projectNameTaken(tx.Timesheet(), name, c.ID) {
			return Event{}, fmt.Errorf("project %q: %w", name, models.ErrConflict)
		}
		p.Name = name
	}
	if c.Icon != nil {
		p.Icon = *c.Icon
	}
	if c.Color != nil {
		p.Color = *c.Color
	}
	if c.CategoryID != nil {
		p.CategoryID = *c.CategoryID
	}
	return Event{Kind: EventProjectUpdated, IDs: []int{c.ID}}, nil
}

type ArchiveProject struct {
	ID       int
	Archived bool
}

func (c ArchiveProject) Execute(tx *Tx) (Event, error) {
	p, ok := tx.Project(c.ID)
	if !ok {
		return Event{}, notFound("project", c.ID)
	}
	p.Archived = c.Archived
	return Event{Kind: EventProjectUpdated, IDs: []int{c.ID}}, nil
}

// DeleteProject removes a project. Its records keep the stale id.
type DeleteProject struct {
	ID int
}

func (c DeleteProject) Execute(tx *Tx) (Event, error) {
	ts := tx.Timesheet()
	idx := -1
	for i, p := range ts.Projects {
		if p.ID == c.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Event{}, notFound("project", c.ID)
	}
	ts.Projects = append(ts.Projects[:idx], ts.Projects[idx+1:]...)
	renumberProjects(ts.Projects)
	return Event{Kind: EventProjectDeleted, IDs: []int{c.ID}}, nil
}

// ReorderProjects puts the listed projects first, in the given order.
// Projects not listed keep their relative order after them.
type ReorderProjects struct {
	IDs []int
}

func (c ReorderProjects) Execute(tx *Tx) (Event, error) {
	ts := tx.Timesheet()
	rank := make(map[int]int, len(c.IDs))
	for i, id := range c.IDs {
		if _, ok := tx.Project(id); !ok {
			return Event{}, notFound("project", id)
		}
		rank[id] = i
	}
	sort.SliceStable(ts.Projects, func(i, j int) bool {
		ri, iok := rank[ts.Projects[i].ID]
		rj, jok := rank[ts.Projects[j].ID]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		}
		return ts.Projects[i].Order < ts.Projects[j].Order
	})
	for i := range ts.Projects {
		ts.Projects[i].Order = i
	}
	return Event{Kind: EventProjectsReordered, IDs: append([]int(nil), c.IDs...)}, nil
}

func renumberProjects(ps []models.Project) {
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].Order < ps[j].Order })
	for i := range ps {
		ps[i].Order = i
	}
}

// --- categories ---

func renumberCategories(cs []models.Category) {
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].Order < cs[j].Order })
	for i := range cs {
		cs[i].Order = i
	}
}

type AddCategory struct {
	Name  string
	Color string
}

func (c AddCategory) Execute(tx *Tx) (Event, error) {
	name, err := requireName(c.Name)
	if err != nil {
		return Event{}, err
	}
	ts := tx.Timesheet()
	cat := models.Category{
		ID:    models.NextID(ts.Categories),
		Name:  name,
		Color: c.Color,
		Order: len(ts.Categories),
	}
	if cat.Color == "" {
		cat.Color = models.DefaultCategoryColor
	}
	ts.Categories = append(ts.Categories, cat)
	return Event{Kind: EventCategoryAdded, IDs: []int{cat.ID}}, nil
}

type EditCategory struct {
	ID    int
	Name  *string
	Color *string
}

func (c EditCategory) Execute(tx *Tx) (Event, error) {
	cat, ok := tx.Category(c.ID)
	if !ok {
		return Event{}, notFound("category", c.ID)
	}
	if c.Name != nil {
		name, err := requireName(*c.Name)
		if err != nil {
			return Event{}, err
		}
		cat.Name = name
	}
	if c.Color != nil {
		cat.Color = *c.Color
	}
	return Event{Kind: EventCategoryUpdated, IDs: []int{c.ID}}, nil
}

type ArchiveCategory struct {
	ID       int
	Archived bool
}

func (c ArchiveCategory) Execute(tx *Tx) (Event, error) {
	cat, ok := tx.Category(c.ID)
	if !ok {
		return Event{}, notFound("category", c.ID)
	}
	cat.Archived = c.Archived
	return Event{Kind: EventCategoryUpdated, IDs: []int{c.ID}}, nil
}

// DeleteCategory removes a category and moves its projects to Uncategorized.
// Records are not touched.
type DeleteCategory struct {
	ID int
}

func (c DeleteCategory) Execute(tx *Tx) (Event, error) {
	ts := tx.Timesheet()
	idx := -1
	for i, cat := range ts.Categories {
		if cat.ID == c.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Event{}, notFound("category", c.ID)
	}
	ts.Categories = append(ts.Categories[:idx], ts.Categories[idx+1:]...)
	renumberCategories(ts.Categories)
	for i := range ts.Projects {
		if ts.Projects[i].CategoryID == c.ID {
			ts.Projects[i].CategoryID = models.Uncategorized
		}
	}
	return Event{Kind: EventCategoryDeleted, IDs: []int{c.ID}}, nil
}

// --- records ---

// AddRecord inserts a record as given, with a fresh id. Times are not
// validated here; see timer.ValidateRecord.
type AddRecord struct {
	Record models.TimeRecord
}

func (c AddRecord) Execute(tx *Tx) (Event, error) {
	r := tx.InsertRecord(cloneRecord(c.Record))
	return Event{Kind: EventRecordAdded, IDs: []int{r.ID}}, nil
}

// RecordPatch holds the fields to change on a record. Nil fields are kept.
// ClearEnd turns a completed record back into a running one.
type RecordPatch struct {
	ProjectID *int
	StartTime *time.Time
	EndTime   *time.Time
	ClearEnd  bool
	Title     *string
}

func (p RecordPatch) Apply(r *models.TimeRecord) {
	if p.ProjectID != nil {
		r.ProjectID = *p.ProjectID
	}
	if p.StartTime != nil {
		r.StartTime = WholeSeconds(*p.StartTime)
	}
	if p.EndTime != nil {
		r.EndTime = models.TimePtr(WholeSeconds(*p.EndTime))
	}
	if p.ClearEnd {
		r.EndTime = nil
	}
	if p.Title != nil {
		r.Title = *p.Title
	}
}

type EditRecord struct {
	ID    int
	Patch RecordPatch
}

func (c EditRecord) Execute(tx *Tx) (Event, error) {
	r, ok := tx.Record(c.ID)
	if !ok {
		return Event{}, notFound("record", c.ID)
	}
	c.Patch.Apply(r)
	return Event{Kind: EventRecordUpdated, IDs: []int{c.ID}}, nil
}

type DeleteRecord struct {
	ID int
}

func (c DeleteRecord) Execute(tx *Tx) (Event, error) {
	ts := tx.Timesheet()
	for i, r := range ts.Records {
		if r.ID == c.ID {
			ts.Records = append(ts.Records[:i], ts.Records[i+1:]...)
			return Event{Kind: EventRecordDeleted, IDs: []int{c.ID}}, nil
		}
	}
	return Event{}, notFound("record", c.ID)
}

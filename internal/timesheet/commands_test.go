package timesheet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/highercomve/timesheet/internal/models"
)

func strPtr(s string) *string { return &s }

func TestAddProject(t *testing.T) {
	s := newStore(models.NewTimesheet())

	_, err := s.Apply(AddProject{Name: "  Code  ", CategoryID: 1})
	require.NoError(t, err)

	p, ok := s.Project(1)
	require.True(t, ok)
	assert.Equal(t, "Code", p.Name)
	assert.Equal(t, models.DefaultProjectIcon, p.Icon)
	assert.Equal(t, 1, p.CategoryID)

	_, err = s.Apply(AddProject{Name: "code"})
	assert.ErrorIs(t, err, models.ErrConflict)

	_, err = s.Apply(AddProject{Name: "   "})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestEditProject(t *testing.T) {
	s := newStore(models.Timesheet{Projects: []models.Project{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}}})

	_, err := s.Apply(EditProject{ID: 1, Name: strPtr("Alpha"), Color: strPtr("#ff0000")})
	require.NoError(t, err)
	p, _ := s.Project(1)
	assert.Equal(t, "Alpha", p.Name)
	assert.Equal(t, "#ff0000", p.Color)

	_, err = s.Apply(EditProject{ID: 1, Name: strPtr("b")})
	assert.ErrorIs(t, err, models.ErrConflict)

	_, err = s.Apply(EditProject{ID: 9})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDeleteProjectKeepsRecords(t *testing.T) {
	s := newStore(models.Timesheet{
		Projects: []models.Project{{ID: 1, Name: "A", Order: 0}, {ID: 2, Name: "B", Order: 1}, {ID: 3, Name: "C", Order: 2}},
		Records:  []models.TimeRecord{rec(1, 2, 0, 10)},
	})

	_, err := s.Apply(DeleteProject{ID: 2})
	require.NoError(t, err)

	snap := s.Snapshot()
	require.Len(t, snap.Projects, 2)
	assert.Equal(t, 1, snap.Projects[1].Order)
	assert.Equal(t, 2, snap.Records[0].ProjectID)
	assert.Equal(t, UnknownProjectLabel, s.ProjectLabel(2))
}

func TestReorderProjects(t *testing.T) {
	s := newStore(models.Timesheet{Projects: []models.Project{
		{ID: 1, Name: "A", Order: 0}, {ID: 2, Name: "B", Order: 1}, {ID: 3, Name: "C", Order: 2},
	}})

	_, err := s.Apply(ReorderProjects{IDs: []int{3, 1}})
	require.NoError(t, err)

	var names []string
	for _, p := range s.Projects(true) {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"C", "A", "B"}, names)

	_, err = s.Apply(ReorderProjects{IDs: []int{4}})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestArchivedProjectsAreHidden(t *testing.T) {
	s := newStore(models.Timesheet{Projects: []models.Project{{ID: 1, Name: "A"}, {ID: 2, Name: "B", Order: 1}}})

	_, err := s.Apply(ArchiveProject{ID: 1, Archived: true})
	require.NoError(t, err)

	assert.Len(t, s.Projects(false), 1)
	assert.Len(t, s.Projects(true), 2)
}

func TestDeleteCategoryCascades(t *testing.T) {
	s := newStore(models.Timesheet{
		Categories: []models.Category{{ID: 1, Name: "Uncategorized"}, {ID: 2, Name: "Work"}},
		Projects: []models.Project{
			{ID: 1, Name: "P1", CategoryID: 2},
			{ID: 2, Name: "P2", CategoryID: 2},
			{ID: 3, Name: "P3", CategoryID: 1},
		},
		Records: []models.TimeRecord{rec(1, 1, 0, 10), rec(2, 2, 20, -1)},
	})
	before := s.Snapshot()

	ev, err := s.Apply(DeleteCategory{ID: 2})
	require.NoError(t, err)
	assert.Equal(t, EventCategoryDeleted, ev.Kind)

	snap := s.Snapshot()
	assert.Len(t, snap.Categories, 1)
	assert.Equal(t, models.Uncategorized, snap.Projects[0].CategoryID)
	assert.Equal(t, models.Uncategorized, snap.Projects[1].CategoryID)
	assert.Equal(t, 1, snap.Projects[2].CategoryID)
	for i := range before.Records {
		assert.True(t, before.Records[i].Equal(snap.Records[i]))
	}
}

func TestDeleteCategoryKeepsOrderContiguous(t *testing.T) {
	s := newStore(models.NewTimesheet())
	for _, name := range []string{"Work", "Home", "Study"} {
		_, err := s.Apply(AddCategory{Name: name})
		require.NoError(t, err)
	}

	_, err := s.Apply(DeleteCategory{ID: 2})
	require.NoError(t, err)
	_, err = s.Apply(AddCategory{Name: "Errands"})
	require.NoError(t, err)

	var names []string
	for i, c := range s.Snapshot().Categories {
		assert.Equal(t, i, c.Order)
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Uncategorized", "Home", "Study", "Errands"}, names)
}

func TestCategoryCRUD(t *testing.T) {
	s := newStore(models.NewTimesheet())

	ev, err := s.Apply(AddCategory{Name: "Work"})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, ev.IDs)

	_, err = s.Apply(EditCategory{ID: 2, Name: strPtr("Job"), Color: strPtr("#000000")})
	require.NoError(t, err)
	_, err = s.Apply(ArchiveCategory{ID: 2, Archived: true})
	require.NoError(t, err)

	c, ok := s.Category(2)
	require.True(t, ok)
	assert.Equal(t, "Job", c.Name)
	assert.True(t, c.Archived)
	assert.Len(t, s.Categories(false), 1)

	_, err = s.Apply(EditCategory{ID: 2, Name: strPtr("")})
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = s.Apply(DeleteCategory{ID: 5})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRecordCRUD(t *testing.T) {
	s := newStore(models.Timesheet{Records: []models.TimeRecord{rec(3, 1, 0, 10), rec(7, 1, 20, 30)}})

	ev, err := s.Apply(AddRecord{Record: rec(0, 2, 40, 50)})
	require.NoError(t, err)
	assert.Equal(t, []int{8}, ev.IDs)

	end := base.Add(2 * time.Hour)
	_, err = s.Apply(EditRecord{ID: 8, Patch: RecordPatch{EndTime: &end, Title: strPtr("notes")}})
	require.NoError(t, err)
	r, _ := s.Record(8)
	assert.True(t, r.EndTime.Equal(end))
	assert.Equal(t, "notes", r.Title)

	_, err = s.Apply(EditRecord{ID: 8, Patch: RecordPatch{ClearEnd: true}})
	require.NoError(t, err)
	r, _ = s.Record(8)
	assert.True(t, r.Running())

	_, err = s.Apply(DeleteRecord{ID: 3})
	require.NoError(t, err)
	_, err = s.Apply(DeleteRecord{ID: 3})
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Len(t, s.Snapshot().Records, 2)
}

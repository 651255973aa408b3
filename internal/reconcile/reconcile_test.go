package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/highercomve/timesheet/internal/models"
	"github.com/highercomve/timesheet/internal/timesheet"
)

var t0 = time.Date(2024, time.March, 4, 9, 0, 0, 0, time.Local)

func rec(id, project, startMin, endMin int) models.TimeRecord {
	r := models.TimeRecord{ID: id, ProjectID: project, StartTime: t0.Add(time.Duration(startMin) * time.Minute)}
	if endMin >= 0 {
		r.EndTime = models.TimePtr(t0.Add(time.Duration(endMin) * time.Minute))
	}
	return r
}

func byID(rs []models.TimeRecord, id int) models.TimeRecord {
	for _, r := range rs {
		if r.ID == id {
			return r
		}
	}
	return models.TimeRecord{}
}

func TestRecordsSameID(t *testing.T) {
	now := t0.Add(10 * time.Hour)
	tests := []struct {
		name     string
		current  models.TimeRecord
		incoming models.TimeRecord
		want     models.TimeRecord
	}{
		{"later end wins", rec(1, 1, 0, 30), rec(1, 1, 0, 45), rec(1, 1, 0, 45)},
		{"earlier end loses", rec(1, 1, 0, 45), rec(1, 2, 0, 30), rec(1, 1, 0, 45)},
		{"running incoming beats completed", rec(1, 1, 0, 45), rec(1, 1, 0, -1), rec(1, 1, 0, -1)},
		{"running current beats completed", rec(1, 1, 0, -1), rec(1, 1, 0, 45), rec(1, 1, 0, -1)},
		{"equal ends keep current", rec(1, 1, 0, 30), rec(1, 2, 5, 30), rec(1, 1, 0, 30)},
		{"both running keep current", rec(1, 1, 0, -1), rec(1, 2, 5, -1), rec(1, 1, 0, -1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Records([]models.TimeRecord{tt.current}, []models.TimeRecord{tt.incoming}, now)

			require.Len(t, res.Records, 1)
			assert.True(t, tt.want.Equal(res.Records[0]), "got %+v", res.Records[0])
			assert.Empty(t, res.Added)
		})
	}
}

func TestRecordsIncomingOnly(t *testing.T) {
	now := t0.Add(11 * time.Hour)
	current := []models.TimeRecord{rec(1, 1, 0, 60), rec(2, 1, 120, -1)}
	incoming := []models.TimeRecord{
		rec(3, 2, 60, 90),   // touches record 1 at its end: kept
		rec(4, 2, 30, 70),   // overlaps record 1
		rec(5, 2, 600, 610), // overlaps the running record 2, which ends at now
		rec(6, 2, 85, 100),  // overlaps record 3 once it is added
	}

	res := Records(current, incoming, now)

	assert.Equal(t, []int{3}, res.Added)
	assert.Equal(t, []int{4, 5, 6}, res.Skipped)
	assert.Len(t, res.Records, 3)
}

func TestRecordsDoesNotAliasInputs(t *testing.T) {
	current := []models.TimeRecord{rec(1, 1, 0, 30)}
	incoming := []models.TimeRecord{rec(1, 1, 0, 45)}

	res := Records(current, incoming, t0)
	*res.Records[0].EndTime = t0

	assert.True(t, incoming[0].EndTime.Equal(t0.Add(45*time.Minute)))
}

func TestTimesheetsRemapsByName(t *testing.T) {
	current := models.Timesheet{
		Categories: []models.Category{{ID: 1, Name: "Uncategorized"}},
		Projects:   []models.Project{{ID: 1, Name: "Code", CategoryID: -1}},
		Records:    []models.TimeRecord{rec(1, 1, 0, 60)},
	}
	incoming := models.Timesheet{
		Categories: []models.Category{{ID: 1, Name: "uncategorized"}, {ID: 7, Name: "Home"}},
		Projects: []models.Project{
			{ID: 5, Name: "Garden", CategoryID: 7},
			{ID: 9, Name: "code", CategoryID: 1},
		},
		Records: []models.TimeRecord{
			rec(1, 9, 0, 75),
			rec(2, 5, 90, 120),
			rec(3, models.NoProject, 130, 140),
		},
	}

	res := Timesheets(current, incoming, t0.Add(5*time.Hour))

	require.True(t, res.Changed())
	assert.Equal(t, []int{2}, res.CategoriesAdded)
	assert.Equal(t, []int{2}, res.ProjectsAdded)

	ts := res.Timesheet
	garden, ok := timesheet.ProjectByName(ts, "Garden")
	require.True(t, ok)
	assert.Equal(t, 2, garden.CategoryID)

	assert.Equal(t, 1, byID(ts.Records, 1).ProjectID)
	assert.True(t, byID(ts.Records, 1).EndTime.Equal(t0.Add(75*time.Minute)))
	assert.Equal(t, garden.ID, byID(ts.Records, 2).ProjectID)
	assert.Equal(t, models.NoProject, byID(ts.Records, 3).ProjectID)
}

func TestMergeCommand(t *testing.T) {
	s := timesheet.New(models.Timesheet{
		Projects: []models.Project{{ID: 1, Name: "Code"}},
		Records:  []models.TimeRecord{rec(1, 1, 0, 60)},
	}, timesheet.WithClock(func() time.Time { return t0.Add(3 * time.Hour) }))

	same := &Merge{Incoming: s.Snapshot()}
	ev, err := s.Apply(same)
	require.NoError(t, err)
	assert.True(t, ev.Empty())

	m := &Merge{Incoming: models.Timesheet{
		Projects: []models.Project{{ID: 1, Name: "Code"}},
		Records:  []models.TimeRecord{rec(1, 1, 0, 60), rec(2, 1, 60, 120)},
	}}
	ev, err = s.Apply(m)
	require.NoError(t, err)
	assert.Equal(t, timesheet.EventMerged, ev.Kind)
	assert.Equal(t, []int{2}, ev.IDs)
	assert.Len(t, s.Snapshot().Records, 2)
}

package report

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/highercomve/timesheet/internal/models"
	"github.com/highercomve/timesheet/internal/service"
)

var monday = time.Date(2024, time.March, 4, 0, 0, 0, 0, time.Local)

func sample() (models.Timesheet, service.TimeRange, time.Time) {
	ts := models.Timesheet{
		Projects: []models.Project{{ID: 1, Name: "Alpha"}, {ID: 2, Name: "Beta"}},
		Records: []models.TimeRecord{
			{ID: 1, ProjectID: 1, StartTime: monday.Add(9 * time.Hour), EndTime: models.TimePtr(monday.Add(11 * time.Hour)), Title: "design"},
			{ID: 2, ProjectID: 2, StartTime: monday.Add(33 * time.Hour), EndTime: models.TimePtr(monday.Add(34 * time.Hour))},
			{ID: 3, ProjectID: 1, StartTime: monday.Add(56 * time.Hour)},
			{ID: 4, ProjectID: 2, StartTime: monday.Add(-48 * time.Hour), EndTime: models.TimePtr(monday.Add(-47 * time.Hour))},
		},
	}
	week, _ := service.RangeFor(service.RangeWeek, monday)
	now := monday.Add(57 * time.Hour)
	return ts, week, now
}

func TestBuild(t *testing.T) {
	ts, week, now := sample()

	rep := Build(ts, week, service.GroupByDay, now)

	require.Len(t, rep.Sections, 3)
	assert.Equal(t, "Monday, 04 Mar 2024", rep.Sections[0].Title)
	assert.Equal(t, "Alpha", rep.Sections[0].Rows[0].Project)
	assert.Equal(t, 2*time.Hour, rep.Sections[0].Total)
	assert.True(t, rep.Sections[2].Rows[0].Running)
	assert.Equal(t, 4*time.Hour, rep.Total)
	require.Len(t, rep.Projects, 2)
	assert.Equal(t, "Alpha", rep.Projects[0].Name)
	assert.Equal(t, "2024-03-04 - 2024-03-10", rep.dateRange())
}

func TestWriteXLSX(t *testing.T) {
	ts, week, now := sample()
	var buf bytes.Buffer

	require.NoError(t, WriteXLSX(&buf, Build(ts, week, service.GroupByWeek, now)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetRecords)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "Project", rows[0][2])
	assert.Equal(t, "design", rows[1][3])
	assert.Equal(t, "2", rows[1][6])
	assert.Equal(t, "Total", rows[4][0])
	assert.Equal(t, "4", rows[4][6])

	projects, err := f.GetRows(SheetProjects)
	require.NoError(t, err)
	assert.Len(t, projects, 3)
}

func TestSavePDF(t *testing.T) {
	ts, week, now := sample()
	path := filepath.Join(t.TempDir(), "report.pdf")

	require.NoError(t, SavePDF(path, Build(ts, week, service.GroupByNone, now)))

	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, Build(ts, week, service.GroupByDay, now)))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
	assert.FileExists(t, path)
}

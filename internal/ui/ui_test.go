package ui

import (
	"image/color"
	"path/filepath"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/theme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/highercomve/timesheet/internal/app"
	"github.com/highercomve/timesheet/internal/config"
	"github.com/highercomve/timesheet/internal/models"
	"github.com/highercomve/timesheet/internal/timesheet"
)

func newTestApp(t *testing.T) *app.App {
	t.Helper()
	test.NewTempApp(t)
	cfg, err := config.Load(filepath.Join(t.TempDir(), "settings.json"))
	require.NoError(t, err)
	s, err := cfg.Settings()
	require.NoError(t, err)
	s.DataFolder = t.TempDir()
	a, err := app.New(s, nil)
	require.NoError(t, err)
	return a
}

func TestParseHexColor(t *testing.T) {
	test.NewTempApp(t)

	assert.Equal(t, color.NRGBA{R: 0x5e, G: 0x81, B: 0xac, A: 0xff}, parseHexColor("#5e81ac"))
	assert.Equal(t, color.NRGBA{R: 0xff, A: 0xff}, parseHexColor("FF0000"))
	assert.Equal(t, theme.Color(theme.ColorNameDisabled), parseHexColor("#zzzzzz"))
	assert.Equal(t, theme.Color(theme.ColorNameDisabled), parseHexColor("#123"))
}

func TestProjectChoice(t *testing.T) {
	a := newTestApp(t)
	_, err := a.Store.Apply(timesheet.AddProject{Name: "Writing", Icon: "✍"})
	require.NoError(t, err)

	c := newProjectChoice(a.Store)
	assert.Equal(t, []string{timesheet.NoProjectLabel, "✍ Writing"}, c.labels)
	assert.Equal(t, 1, c.ids["✍ Writing"])
	assert.Equal(t, "✍ Writing", c.label(1))
	assert.Equal(t, timesheet.NoProjectLabel, c.label(42))
}

func TestSaveRecord(t *testing.T) {
	a := newTestApp(t)
	_, err := a.Store.Apply(timesheet.AddProject{Name: "Reading"})
	require.NoError(t, err)

	require.NoError(t, saveRecord(a, models.TimeRecord{}, 1, " chapter 1 ", "2024-03-04 09:00:00", "2024-03-04 10:00:00"))
	rec, ok := a.Store.Record(1)
	require.True(t, ok)
	assert.Equal(t, "chapter 1", rec.Title)
	assert.Equal(t, time.Hour, rec.Duration(time.Now()))

	err = saveRecord(a, rec, 1, "", "2024-03-04 09:00:00", "2024-03-04 08:00:00")
	assert.ErrorIs(t, err, models.ErrValidation)

	err = saveRecord(a, rec, 1, "", "", "")
	assert.ErrorIs(t, err, models.ErrValidation)

	// clearing the end resumes the record
	require.NoError(t, saveRecord(a, rec, models.NoProject, "resumed", "2024-03-04 09:00:00", ""))
	rec, _ = a.Store.Record(1)
	assert.True(t, rec.Running())
	assert.Equal(t, models.NoProject, rec.ProjectID)

	missing := models.TimeRecord{ID: 9, StartTime: rec.StartTime}
	err = saveRecord(a, missing, 1, "", "2024-03-04 09:00:00", "2024-03-04 10:00:00")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestPeriodStep(t *testing.T) {
	at := time.Date(2024, time.January, 31, 12, 0, 0, 0, time.UTC)

	p := &period{kind: "month", at: at}
	p.step(1)
	assert.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), p.rng().Start)

	p = &period{kind: "week", at: at}
	p.step(-1)
	assert.Equal(t, time.Date(2024, time.January, 22, 0, 0, 0, 0, time.UTC), p.rng().Start)
}

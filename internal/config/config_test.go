package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), AppDir, FileName)

	c, err := Load(path)
	require.NoError(t, err)
	assert.FileExists(t, path)

	s, err := c.Settings()
	require.NoError(t, err)
	assert.Equal(t, "./data", s.DataFolder)
	assert.Equal(t, "timesheet.csv", s.TimesheetPath)
	assert.Equal(t, 5, s.BackupRetentionDays)
	assert.Equal(t, 5*time.Minute, s.AutosaveInterval)
	assert.Equal(t, 30*time.Second, s.PollInterval)
	assert.Equal(t, time.Duration(0), s.RetroactiveTolerance)
	assert.True(t, s.ShowSeconds)
	assert.Equal(t, "week", s.DefaultTimeRange)
	assert.Equal(t, "info", s.Log.Level)
	assert.Equal(t, filepath.Join("data", "timesheet.csv"), s.TimesheetFile())
	assert.Equal(t, filepath.Join("data", ".timebackups"), s.BackupDir())
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(`{
		"data_folder": "/srv/time",
		"multitasking": true,
		"retroactive_tolerance": "2m",
		"ics_calendars": ["https://example.com/a.ics"],
		"log": {"level": "debug"}
	}`), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	s, err := c.Settings()
	require.NoError(t, err)

	assert.True(t, s.Multitasking)
	assert.Equal(t, 2*time.Minute, s.RetroactiveTolerance)
	assert.Equal(t, []string{"https://example.com/a.ics"}, s.ICSCalendars)
	assert.Equal(t, "debug", s.Log.Level)
	assert.Equal(t, "text", s.Log.Format)
	assert.Equal(t, "/srv/time/timesheet.csv", s.TimesheetFile())
}

func TestUpdateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	c, err := Load(path)
	require.NoError(t, err)
	s, err := c.Settings()
	require.NoError(t, err)

	s.RetroactiveTracking = true
	s.PollInterval = time.Minute
	s.SortMode = "name"
	require.NoError(t, c.Update(s))

	again, err := Load(path)
	require.NoError(t, err)
	got, err := again.Settings()
	require.NoError(t, err)
	assert.True(t, got.RetroactiveTracking)
	assert.Equal(t, time.Minute, got.PollInterval)
	assert.Equal(t, "name", got.SortMode)
}

func TestValidate(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	base, err := c.Settings()
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"time range", func(s *Settings) { s.DefaultTimeRange = "decade" }},
		{"sort mode", func(s *Settings) { s.SortMode = "random" }},
		{"autosave", func(s *Settings) { s.AutosaveInterval = 0 }},
		{"poll", func(s *Settings) { s.PollInterval = -time.Second }},
		{"tolerance", func(s *Settings) { s.RetroactiveTolerance = -time.Second }},
		{"columns", func(s *Settings) { s.GridColumns = 0 }},
		{"log level", func(s *Settings) { s.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base
			tt.mutate(&s)
			assert.Error(t, s.Validate())
			assert.Error(t, c.Update(s))
		})
	}
}

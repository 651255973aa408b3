package timeblocks

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/highercomve/timesheet/internal/models"
)

var day = time.Date(2024, time.March, 4, 0, 0, 0, 0, time.Local)

type memSaver struct {
	saved [][]models.Timeblock
	err   error
}

func (m *memSaver) SaveTimeblocks(b []models.Timeblock) error {
	m.saved = append(m.saved, b)
	return m.err
}

func block(title string, fromH, toH int) models.Timeblock {
	return models.Timeblock{Title: title, StartTime: day.Add(time.Duration(fromH) * time.Hour), EndTime: day.Add(time.Duration(toH) * time.Hour)}
}

func TestAddValidatesAndSaves(t *testing.T) {
	saver := &memSaver{}
	s := New(nil, saver, nil)

	b, err := s.Add(block(" Focus ", 9, 11))
	require.NoError(t, err)
	assert.Equal(t, 1, b.ID)
	assert.Equal(t, "Focus", b.Title)
	assert.Equal(t, models.DefaultTimeblockColor, b.Color)
	require.Len(t, saver.saved, 1)

	_, err = s.Add(block("", 9, 11))
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = s.Add(block("Backwards", 11, 9))
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Len(t, saver.saved, 1)
}

func TestUpdateAndDelete(t *testing.T) {
	s := New([]models.Timeblock{{ID: 4, Title: "Lunch", StartTime: day.Add(12 * time.Hour), EndTime: day.Add(13 * time.Hour), Color: "#a3be8c"}}, nil, nil)

	upd := block("Long lunch", 12, 14)
	upd.ID = 4
	require.NoError(t, s.Update(upd))
	got, ok := s.Get(4)
	require.True(t, ok)
	assert.Equal(t, "Long lunch", got.Title)
	assert.Equal(t, "#a3be8c", got.Color)

	upd.ID = 5
	assert.ErrorIs(t, s.Update(upd), models.ErrNotFound)

	ok, err := s.Delete(4)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Delete(4)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInRange(t *testing.T) {
	s := New([]models.Timeblock{
		{ID: 1, Title: "late", StartTime: day.Add(20 * time.Hour), EndTime: day.Add(22 * time.Hour)},
		{ID: 2, Title: "early", StartTime: day.Add(8 * time.Hour), EndTime: day.Add(9 * time.Hour)},
		{ID: 3, Title: "tomorrow", StartTime: day.Add(32 * time.Hour), EndTime: day.Add(33 * time.Hour)},
	}, nil, nil)

	got := s.InRange(day, day.Add(24*time.Hour))

	require.Len(t, got, 2)
	assert.Equal(t, "early", got[0].Title)
	assert.Equal(t, "late", got[1].Title)
}

func TestSaveErrorIsReturned(t *testing.T) {
	s := New(nil, &memSaver{err: errors.New("nope")}, nil)

	_, err := s.Add(block("x", 1, 2))

	assert.Error(t, err)
}

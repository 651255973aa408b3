package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextID(t *testing.T) {
	assert.Equal(t, 1, NextID([]TimeRecord{}))
	assert.Equal(t, 8, NextID([]TimeRecord{{ID: 3}, {ID: 7}}))
	assert.Equal(t, 5, NextID([]Project{{ID: 4}, {ID: 2}}))
	assert.Equal(t, 1, NextID([]Category(nil)))
}

func TestNewTimesheet(t *testing.T) {
	ts := NewTimesheet()

	require.Len(t, ts.Categories, 1)
	assert.Equal(t, 1, ts.Categories[0].ID)
	assert.Equal(t, "Uncategorized", ts.Categories[0].Name)
	assert.Empty(t, ts.Projects)
	assert.Empty(t, ts.Records)
}

func TestCloneDoesNotAliasEndTimes(t *testing.T) {
	end := time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local)
	ts := Timesheet{Records: []TimeRecord{{ID: 1, StartTime: end.Add(-time.Hour), EndTime: &end}}}

	c := ts.Clone()
	*c.Records[0].EndTime = end.Add(time.Hour)

	assert.True(t, ts.Records[0].EndTime.Equal(end))
}

func TestEqualIgnoresRowOrder(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local)
	a := Timesheet{
		Records:  []TimeRecord{{ID: 1, StartTime: start}, {ID: 2, StartTime: start, EndTime: TimePtr(start.Add(time.Minute))}},
		Projects: []Project{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}},
	}
	b := Timesheet{
		Records:  []TimeRecord{a.Records[1], a.Records[0]},
		Projects: []Project{a.Projects[1], a.Projects[0]},
	}
	assert.True(t, a.Equal(b))

	b.Records[1].EndTime = TimePtr(start)
	assert.False(t, a.Equal(b))
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("name", "required")

	assert.Equal(t, "validation: name: required", err.Error())
	assert.True(t, errors.Is(err, ErrValidation))

	var empty ValidationError
	assert.NoError(t, empty.OrNil())
	empty.Add("a", "x")
	empty.Add("b", "y")
	assert.Equal(t, "validation: 2 errors", empty.OrNil().Error())
}

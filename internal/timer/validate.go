package timer

import (
	"time"

	"github.com/highercomve/timesheet/internal/models"
	"github.com/highercomve/timesheet/internal/timesheet"
)

// ValidateRecord performs the checks the engine itself skips. Views and the
// CLI call it before AddRecord or EditRecord.
func ValidateRecord(r models.TimeRecord) error {
	var verr models.ValidationError
	if r.StartTime.IsZero() {
		verr.Add("start_time", "required")
	}
	if r.EndTime != nil && !r.StartTime.IsZero() && r.EndTime.Before(r.StartTime) {
		verr.Add("end_time", "must be after start time")
	}
	return verr.OrNil()
}

// ValidatePatch checks the record that would result from applying patch.
func ValidatePatch(current models.TimeRecord, patch timesheet.RecordPatch) error {
	if current.EndTime != nil {
		current.EndTime = models.TimePtr(*current.EndTime)
	}
	patch.Apply(&current)
	return ValidateRecord(current)
}

// ValidateStart checks explicit start options.
func ValidateStart(projectID int, opts StartOptions, p Policy) error {
	var verr models.ValidationError
	if p.Retroactive && projectID == models.NoProject {
		verr.Add("project", "required in retroactive mode")
	}
	if !opts.StartTime.IsZero() && !opts.EndTime.IsZero() && opts.EndTime.Before(opts.StartTime) {
		verr.Add("end_time", "must be after start time")
	}
	if !opts.StartTime.IsZero() && opts.StartTime.After(time.Now()) && opts.EndTime.IsZero() {
		verr.Add("start_time", "cannot be in the future")
	}
	return verr.OrNil()
}

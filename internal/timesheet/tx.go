package timesheet

import (
	"fmt"
	"time"

	"github.com/highercomve/timesheet/internal/models"
)

// Tx is the mutable view a Command works on. It is a private copy; changes
// become visible only if the command returns without error.
type Tx struct {
	ts  *models.Timesheet
	now time.Time
}

// NewTx wraps t for code that wants to run commands outside a Store.
func NewTx(t *models.Timesheet, now time.Time) *Tx {
	return &Tx{ts: t, now: now}
}

// Now is the time the command started executing.
func (tx *Tx) Now() time.Time { return tx.now }

func (tx *Tx) Timesheet() *models.Timesheet { return tx.ts }

func (tx *Tx) RunningRecords() []models.TimeRecord {
	return RunningRecords(*tx.ts)
}

func (tx *Tx) LastStoppedRecord() (models.TimeRecord, bool) {
	return LastStoppedRecord(*tx.ts)
}

func (tx *Tx) Record(id int) (*models.TimeRecord, bool) {
	for i := range tx.ts.Records {
		if tx.ts.Records[i].ID == id {
			return &tx.ts.Records[i], true
		}
	}
	return nil, false
}

func (tx *Tx) Project(id int) (*models.Project, bool) {
	for i := range tx.ts.Projects {
		if tx.ts.Projects[i].ID == id {
			return &tx.ts.Projects[i], true
		}
	}
	return nil, false
}

func (tx *Tx) Category(id int) (*models.Category, bool) {
	for i := range tx.ts.Categories {
		if tx.ts.Categories[i].ID == id {
			return &tx.ts.Categories[i], true
		}
	}
	return nil, false
}

// InsertRecord assigns the next record id and appends r, with its times cut
// to whole seconds.
func (tx *Tx) InsertRecord(r models.TimeRecord) models.TimeRecord {
	r.ID = models.NextID(tx.ts.Records)
	r.StartTime = WholeSeconds(r.StartTime)
	if r.EndTime != nil {
		r.EndTime = models.TimePtr(WholeSeconds(*r.EndTime))
	}
	tx.ts.Records = append(tx.ts.Records, r)
	return r
}

// StopRecord sets the end time of a running record. It returns false when
// the record does not exist or is already stopped.
func (tx *Tx) StopRecord(id int, at time.Time) bool {
	r, ok := tx.Record(id)
	if !ok || !r.Running() {
		return false
	}
	r.EndTime = models.TimePtr(WholeSeconds(at))
	return true
}

// StopAll stops every running record at the given time and returns their ids.
func (tx *Tx) StopAll(at time.Time) []int {
	var ids []int
	for i := range tx.ts.Records {
		if tx.ts.Records[i].Running() {
			tx.ts.Records[i].EndTime = models.TimePtr(WholeSeconds(at))
			ids = append(ids, tx.ts.Records[i].ID)
		}
	}
	return ids
}

// WholeSeconds drops what the file cannot hold, sub-second precision and
// the monotonic reading.
func WholeSeconds(t time.Time) time.Time {
	return t.Truncate(time.Second)
}

func notFound(kind string, id int) error {
	return fmt.Errorf("%s %d: %w", kind, id, models.ErrNotFound)
}

// Package timer starts, stops and extends records on a timesheet.Store.
package timer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/highercomve/timesheet/internal/models"
	"github.com/highercomve/timesheet/internal/timesheet"
)

// Policy mirrors the tracking settings.
type Policy struct {
	Multitasking bool
	Retroactive  bool
	// Tolerance is how far a retroactive start may be from the last end and
	// still extend the last record instead of adding a new one.
	Tolerance    time.Duration
}

type Action string

const (
	ActionNoop      Action = "noop"
	ActionStarted   Action = "started"
	ActionStopped   Action = "stopped"
	ActionExtended  Action = "extended"
	ActionGapFilled Action = "gap_filled"
	ActionAdded     Action = "added"
)

// StartOptions are the optional arguments of Start. Zero times mean "now"
// or, in retroactive mode, "the end of the last stopped record".
type StartOptions struct {
	Title     string
	StartTime time.Time
	EndTime   time.Time
}

type StartResult struct {
	Action Action
	Record models.TimeRecord
}

type Engine struct {
	store *timesheet.Store
	log   *slog.Logger

	mu     sync.RWMutex
	policy Policy
}

func New(store *timesheet.Store, policy Policy, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{store: store, policy: policy, log: log}
}

func (e *Engine) Policy() Policy {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.policy
}

func (e *Engine) SetPolicy(p Policy) {
	e.mu.Lock()
	e.policy = p
	e.mu.Unlock()
}

func (e *Engine) Store() *timesheet.Store { return e.store }

// Start starts tracking projectID, or stops it when it is already running.
// In retroactive mode nothing is left running: the gap since the last
// stopped record is filled instead.
func (e *Engine) Start(projectID int, opts StartOptions) (StartResult, error) {
	cmd := startCommand{projectID: projectID, opts: opts, policy: e.Policy()}
	ev, err := e.store.Apply(&cmd)
	if err != nil {
		return StartResult{}, err
	}
	if !ev.Empty() {
		e.log.Info("timer", "action", cmd.result.Action, "project", projectID, "record", cmd.result.Record.ID)
	}
	return cmd.result, nil
}

// Stop ends the first running record of projectID. NoProject matches
// records without a project. It returns false when nothing was running.
func (e *Engine) Stop(projectID int) bool {
	ev, err := e.store.Apply(timesheet.CommandFunc(func(tx *timesheet.Tx) (timesheet.Event, error) {
		for _, r := range tx.RunningRecords() {
			if r.ProjectID == projectID {
				tx.StopRecord(r.ID, tx.Now())
				return timesheet.Event{Kind: timesheet.EventTimerStopped, IDs: []int{r.ID}}, nil
			}
		}
		return timesheet.Event{}, nil
	}))
	if err != nil {
		e.log.Error("stop timer", "project", projectID, "error", err)
		return false
	}
	return !ev.Empty()
}

// StopAll stops every running record and returns how many were stopped.
func (e *Engine) StopAll() int {
	ev, err := e.store.Apply(timesheet.CommandFunc(func(tx *timesheet.Tx) (timesheet.Event, error) {
		ids := tx.StopAll(tx.Now())
		if len(ids) == 0 {
			return timesheet.Event{}, nil
		}
		return timesheet.Event{Kind: timesheet.EventTimerStopped, IDs: ids}, nil
	}))
	if err != nil {
		e.log.Error("stop all timers", "error", err)
		return 0
	}
	return len(ev.IDs)
}

// ToggleLast stops or restarts the project of the last stopped record.
// It returns false when there is no such record or its project is gone.
func (e *Engine) ToggleLast() bool {
	last, ok := e.store.LastStoppedRecord()
	if !ok {
		return false
	}
	if _, ok := e.store.Project(last.ProjectID); !ok {
		return false
	}
	if e.store.IsRunning(last.ProjectID) {
		return e.Stop(last.ProjectID)
	}
	res, err := e.Start(last.ProjectID, StartOptions{})
	if err != nil {
		e.log.Error("toggle last timer", "project", last.ProjectID, "error", err)
		return false
	}
	return res.Action != ActionNoop
}

// EditRecord merges the patch into record id. It does not check that the
// start is before the end; callers validate with ValidateRecord first.
func (e *Engine) EditRecord(id int, patch timesheet.RecordPatch) bool {
	_, err := e.store.Apply(timesheet.EditRecord{ID: id, Patch: patch})
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			e.log.Error("edit record", "record", id, "error", err)
		}
		return false
	}
	return true
}

// DeleteRecord removes record id and reports whether it existed.
func (e *Engine) DeleteRecord(id int) bool {
	_, err := e.store.Apply(timesheet.DeleteRecord{ID: id})
	return err == nil
}

type startCommand struct {
	projectID int
	opts      StartOptions
	policy    Policy
	result    StartResult
}

func (c *startCommand) Execute(tx *timesheet.Tx) (timesheet.Event, error) {
	if !c.opts.StartTime.IsZero() {
		c.opts.StartTime = timesheet.WholeSeconds(c.opts.StartTime)
	}
	if !c.opts.EndTime.IsZero() {
		c.opts.EndTime = timesheet.WholeSeconds(c.opts.EndTime)
	}
	if c.projectID != models.NoProject {
		if _, ok := tx.Project(c.projectID); !ok {
			c.result = StartResult{Action: ActionNoop}
			return timesheet.Event{}, nil
		}
	}

	var (
		ev  timesheet.Event
		err error
	)
	if c.policy.Retroactive {
		ev, err = c.retroactive(tx)
	} else {
		ev, err = c.live(tx)
	}
	if err != nil {
		return timesheet.Event{}, err
	}
	if !c.policy.Retroactive && !c.policy.Multitasking {
		if n := len(tx.RunningRecords()); n > 1 {
			return timesheet.Event{}, fmt.Errorf("%w: %d running records with multitasking disabled", models.ErrInvariant, n)
		}
	}
	return ev, nil
}

func (c *startCommand) live(tx *timesheet.Tx) (timesheet.Event, error) {
	now := tx.Now()

	for _, r := range tx.RunningRecords() {
		if r.ProjectID != c.projectID {
			continue
		}
		stopped := []int{r.ID}
		tx.StopRecord(r.ID, now)
		if !c.policy.Multitasking {
			stopped = append(stopped, tx.StopAll(now)...)
		}
		c.result = StartResult{Action: ActionStopped, Record: copyRecord(*mustRecord(tx, r.ID))}
		return timesheet.Event{Kind: timesheet.EventTimerStopped, IDs: stopped}, nil
	}

	var stopped []int
	if !c.policy.Multitasking {
		stopped = tx.StopAll(now)
	}

	start := c.opts.StartTime
	if start.IsZero() {
		start = now
	}
	r := models.TimeRecord{ProjectID: c.projectID, StartTime: start, Title: c.opts.Title}
	action, kind := ActionStarted, timesheet.EventTimerStarted
	if !c.opts.EndTime.IsZero() {
		r.EndTime = models.TimePtr(c.opts.EndTime)
		action, kind = ActionAdded, timesheet.EventRecordAdded
	}
	r = tx.InsertRecord(r)
	c.result = StartResult{Action: action, Record: copyRecord(r)}
	return timesheet.Event{Kind: kind, IDs: append([]int{r.ID}, stopped...)}, nil
}

func (c *startCommand) retroactive(tx *timesheet.Tx) (timesheet.Event, error) {
	if c.projectID == models.NoProject {
		return timesheet.Event{}, models.ErrNoProjectRetroactive
	}
	c.result = StartResult{Action: ActionNoop}

	last, hasLast := tx.LastStoppedRecord()
	start := c.opts.StartTime
	if start.IsZero() {
		if !hasLast {
			return timesheet.Event{}, nil
		}
		start = *last.EndTime
	}
	end := c.opts.EndTime
	if end.IsZero() {
		end = tx.Now()
	}
	// Comparisons are on millisecond values; a zero gap is nothing to fill.
	if end.UnixMilli()-start.UnixMilli() <= 0 {
		return timesheet.Event{}, nil
	}

	if hasLast && last.ProjectID == c.projectID && absDuration(start.Sub(*last.EndTime)) <= c.policy.Tolerance {
		r := mustRecord(tx, last.ID)
		r.EndTime = models.TimePtr(end)
		if c.opts.Title != "" {
			r.Title = c.opts.Title
		}
		c.result = StartResult{Action: ActionExtended, Record: copyRecord(*r)}
		return timesheet.Event{Kind: timesheet.EventTimerExtended, IDs: []int{r.ID}}, nil
	}

	r := tx.InsertRecord(models.TimeRecord{
		ProjectID: c.projectID,
		StartTime: start,
		EndTime:   models.TimePtr(end),
		Title:     c.opts.Title,
	})
	c.result = StartResult{Action: ActionGapFilled, Record: copyRecord(r)}
	return timesheet.Event{Kind: timesheet.EventRecordAdded, IDs: []int{r.ID}}, nil
}

func mustRecord(tx *timesheet.Tx, id int) *models.TimeRecord {
	r, ok := tx.Record(id)
	if !ok {
		panic(fmt.Sprintf("record %d vanished inside a command", id))
	}
	return r
}

// copyRecord detaches the end time from the transaction's copy.
func copyRecord(r models.TimeRecord) models.TimeRecord {
	if r.EndTime != nil {
		r.EndTime = models.TimePtr(*r.EndTime)
	}
	return r
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

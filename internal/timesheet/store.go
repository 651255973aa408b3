// Package timesheet owns the in-memory timesheet. Every mutation goes
// through Apply, which runs a Command against a private copy, swaps the
// copy in when the command succeeds and then notifies subscribers.
package timesheet

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/highercomve/timesheet/internal/models"
)

// Command is a single mutation of the timesheet.
type Command interface {
	Execute(tx *Tx) (Event, error)
}

// CommandFunc adapts a function to the Command interface.
type CommandFunc func(tx *Tx) (Event, error)

func (f CommandFunc) Execute(tx *Tx) (Event, error) { return f(tx) }

type Option func(*Store)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

type Store struct {
	mu      sync.RWMutex
	data    models.Timesheet
	version uint64
	now     func() time.Time
	log     *slog.Logger

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

func New(data models.Timesheet, opts ...Option) *Store {
	s := &Store{
		data: data.Clone(),
		now:  time.Now,
		log:  slog.Default(),
		subs: map[int]func(Event){},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Now returns the store clock.
func (s *Store) Now() time.Time { return s.now() }

// Snapshot returns a deep copy of the current timesheet.
func (s *Store) Snapshot() models.Timesheet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Clone()
}

// Apply executes cmd. On error the timesheet is left untouched. Subscribers
// are called after the lock is released, and only when the command changed
// something.
func (s *Store) Apply(cmd Command) (Event, error) {
	s.mu.Lock()
	work := s.data.Clone()
	tx := &Tx{ts: &work, now: WholeSeconds(s.now())}
	ev, err := cmd.Execute(tx)
	if err == nil && !ev.Empty() {
		err = checkIDs(tx.ts)
	}
	if err != nil {
		s.mu.Unlock()
		return Event{}, err
	}
	if !ev.Empty() {
		s.data = *tx.ts
		s.version++
	}
	s.mu.Unlock()

	if !ev.Empty() {
		s.log.Debug("timesheet changed", "event", ev.Kind, "ids", ev.IDs)
		s.broadcast(ev)
	}
	return ev, nil
}

// Version counts the changes made to the timesheet. It grows by one for
// every Apply or Replace that changed something.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// VersionedSnapshot returns a deep copy together with the version it
// belongs to.
func (s *Store) VersionedSnapshot() (models.Timesheet, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Clone(), s.version
}

// Replace swaps the whole timesheet, typically after a reload from disk.
// It returns false and skips the broadcast when t is structurally equal to
// the current data.
func (s *Store) Replace(t models.Timesheet) bool {
	s.mu.Lock()
	_, ok := s.replaceLocked(t)
	s.mu.Unlock()
	if ok {
		s.broadcast(Event{Kind: EventReplaced})
	}
	return ok
}

// ReplaceAt is Replace guarded by a version read earlier. It does nothing
// when the store changed since then. The returned version is the one the
// store holds afterwards.
func (s *Store) ReplaceAt(version uint64, t models.Timesheet) (uint64, bool) {
	s.mu.Lock()
	if s.version != version {
		v := s.version
		s.mu.Unlock()
		return v, false
	}
	v, ok := s.replaceLocked(t)
	s.mu.Unlock()
	if ok {
		s.broadcast(Event{Kind: EventReplaced})
	}
	return v, ok
}

func (s *Store) replaceLocked(t models.Timesheet) (uint64, bool) {
	if s.data.Equal(t) {
		return s.version, false
	}
	s.data = t.Clone()
	s.version++
	return s.version, true
}

// Subscribe registers fn for every change. The returned func unregisters it.
func (s *Store) Subscribe(fn func(Event)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

// Refresh re-sends the last state to subscribers without changing it.
func (s *Store) Refresh() {
	s.broadcast(Event{Kind: EventRefresh})
}

func (s *Store) broadcast(ev Event) {
	s.subMu.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func checkIDs(t *models.Timesheet) error {
	seen := make(map[int]bool, len(t.Records))
	for _, r := range t.Records {
		if seen[r.ID] {
			return fmt.Errorf("%w: duplicate record id %d", models.ErrInvariant, r.ID)
		}
		seen[r.ID] = true
	}
	clear(seen)
	for _, p := range t.Projects {
		if seen[p.ID] {
			return fmt.Errorf("%w: duplicate project id %d", models.ErrInvariant, p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}

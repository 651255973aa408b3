package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/highercomve/timesheet/internal/codec"
	"github.com/highercomve/timesheet/internal/timesheet"
)

// Persister writes the whole timesheet after every change. Writes happen in
// the background; callers never wait for them.
type Persister struct {
	storage *Storage
	store   *timesheet.Store
	log     *slog.Logger

	wg      sync.WaitGroup
	mu      sync.Mutex
	seq     uint64
	written uint64
	saved   uint64
	pending int

	unsubscribe func()
}

func NewPersister(storage *Storage, store *timesheet.Store, log *slog.Logger) *Persister {
	if log == nil {
		log = slog.Default()
	}
	return &Persister{storage: storage, store: store, log: log}
}

func (p *Persister) Start() {
	p.unsubscribe = p.store.Subscribe(p.onEvent)
}

// Stop unsubscribes and waits for writes in flight.
func (p *Persister) Stop() {
	if p.unsubscribe != nil {
		p.unsubscribe()
	}
	p.wg.Wait()
}

// Pending reports whether a write has been scheduled but not finished.
func (p *Persister) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending > 0
}

// Saved is the latest store version known to match the file.
func (p *Persister) Saved() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saved
}

// markSaved records that version v matches the file.
func (p *Persister) markSaved(v uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saved = max(p.saved, v)
}

func (p *Persister) onEvent(ev timesheet.Event) {
	// Replaced data came from disk; refresh changes nothing.
	if ev.Kind == timesheet.EventReplaced || ev.Kind == timesheet.EventRefresh {
		return
	}
	// Snapshot and sequence number are taken together so a later seq never
	// carries older data.
	p.mu.Lock()
	snap, version := p.store.VersionedSnapshot()
	p.seq++
	seq := p.seq
	p.pending++
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.mu.Lock()
		defer p.mu.Unlock()
		defer func() { p.pending-- }()
		// A newer snapshot already reached the disk.
		if seq < p.written {
			return
		}
		if err := p.storage.Save(snap); err != nil {
			return
		}
		p.written = seq
		p.saved = max(p.saved, version)
		p.log.Debug("timesheet saved", "event", ev.Kind, "version", version)
	}()
}

// Flush saves the current snapshot synchronously.
func (p *Persister) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	seq := p.seq
	snap, version := p.store.VersionedSnapshot()
	if err := p.storage.Save(snap); err != nil {
		return err
	}
	p.written = seq
	p.saved = max(p.saved, version)
	return nil
}

type SyncerConfig struct {
	AutosaveInterval time.Duration
	PollInterval     time.Duration
}

// Syncer saves periodically, polls the file for outside edits and takes a
// backup on each autosave.
type Syncer struct {
	storage   *Storage
	store     *timesheet.Store
	backups   *Backups
	persister *Persister
	cfg       SyncerConfig
	log       *slog.Logger

	reloadMu sync.Mutex
}

func NewSyncer(storage *Storage, store *timesheet.Store, backups *Backups, persister *Persister, cfg SyncerConfig, log *slog.Logger) *Syncer {
	if log == nil {
		log = slog.Default()
	}
	return &Syncer{storage: storage, store: store, backups: backups, persister: persister, cfg: cfg, log: log}
}

// Run blocks until ctx is done, then saves one last time.
func (s *Syncer) Run(ctx context.Context) error {
	autosave := newTicker(s.cfg.AutosaveInterval)
	defer autosave.Stop()
	poll := newTicker(s.cfg.PollInterval)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := s.Save(); err != nil {
				return err
			}
			return nil
		case <-autosave.C:
			if err := s.Save(); err == nil {
				s.Backup()
			}
		case <-poll.C:
			s.Reload()
		}
	}
}

func (s *Syncer) Save() error {
	if s.persister != nil {
		return s.persister.Flush()
	}
	return s.storage.Save(s.store.Snapshot())
}

// Backup snapshots the in-memory timesheet into the backup folder.
func (s *Syncer) Backup() {
	if s.backups == nil {
		return
	}
	if _, _, err := s.backups.Create(codec.SerializeString(s.store.Snapshot())); err != nil {
		s.log.Error("backup", "error", err)
	}
}

// Reload reads the file again and replaces the store when it differs.
// It reports whether the store changed. A reload is skipped while memory
// holds changes the file does not have yet, and dropped when a change lands
// while the file is being read, so an older file never overwrites newer
// memory.
func (s *Syncer) Reload() bool {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	version := s.store.Version()
	if s.unsaved(version) {
		s.log.Debug("reload skipped, write pending", "version", version)
		return false
	}
	res, err := s.storage.Load()
	if err != nil {
		return false
	}
	if s.unsaved(version) {
		s.log.Debug("reload dropped, write pending", "version", version)
		return false
	}
	v, changed := s.store.ReplaceAt(version, res.Timesheet)
	if !changed {
		if v != version {
			s.log.Debug("reload dropped, timesheet changed meanwhile", "version", v)
		}
		return false
	}
	if s.persister != nil {
		s.persister.markSaved(v)
	}
	s.log.Info("timesheet reloaded from disk", "version", v)
	return true
}

func (s *Syncer) unsaved(version uint64) bool {
	if s.persister == nil {
		return false
	}
	return s.persister.Pending() || s.persister.Saved() < version
}

// newTicker returns a stopped-channel ticker for non-positive intervals.
func newTicker(d time.Duration) *time.Ticker {
	if d <= 0 {
		t := time.NewTicker(time.Hour)
		t.Stop()
		return t
	}
	return time.NewTicker(d)
}

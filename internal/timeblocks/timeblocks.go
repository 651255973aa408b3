// Package timeblocks manages planned blocks of time kept next to the
// timesheet in their own file.
package timeblocks

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/highercomve/timesheet/internal/models"
)

// Saver persists the full list after every change.
type Saver interface {
	SaveTimeblocks([]models.Timeblock) error
}

type Store struct {
	mu     sync.RWMutex
	blocks []models.Timeblock
	saver  Saver
	log    *slog.Logger
}

func New(blocks []models.Timeblock, saver Saver, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{blocks: append([]models.Timeblock(nil), blocks...), saver: saver, log: log}
}

// Validate requires a title and an end after the start.
func Validate(b models.Timeblock) error {
	var verr models.ValidationError
	if strings.TrimSpace(b.Title) == "" {
		verr.Add("title", "required")
	}
	if b.StartTime.IsZero() {
		verr.Add("start_time", "required")
	}
	if b.EndTime.IsZero() {
		verr.Add("end_time", "required")
	}
	if !b.StartTime.IsZero() && !b.EndTime.IsZero() && !b.EndTime.After(b.StartTime) {
		verr.Add("end_time", "must be after start time")
	}
	return verr.OrNil()
}

func (s *Store) All() []models.Timeblock {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]models.Timeblock(nil), s.blocks...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func (s *Store) Get(id int) (models.Timeblock, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.blocks {
		if b.ID == id {
			return b, true
		}
	}
	return models.Timeblock{}, false
}

// InRange returns blocks overlapping [from, to), sorted by start.
func (s *Store) InRange(from, to time.Time) []models.Timeblock {
	var out []models.Timeblock
	for _, b := range s.All() {
		if b.StartTime.Before(to) && b.EndTime.After(from) {
			out = append(out, b)
		}
	}
	return out
}

func (s *Store) Add(b models.Timeblock) (models.Timeblock, error) {
	b.Title = strings.TrimSpace(b.Title)
	if err := Validate(b); err != nil {
		return models.Timeblock{}, err
	}
	if b.Color == "" {
		b.Color = models.DefaultTimeblockColor
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = models.NextID(s.blocks)
	s.blocks = append(s.blocks, b)
	return b, s.save()
}

func (s *Store) Update(b models.Timeblock) error {
	b.Title = strings.TrimSpace(b.Title)
	if err := Validate(b); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.blocks {
		if s.blocks[i].ID == b.ID {
			if b.Color == "" {
				b.Color = s.blocks[i].Color
			}
			s.blocks[i] = b
			return s.save()
		}
	}
	return fmt.Errorf("timeblock %d: %w", b.ID, models.ErrNotFound)
}

// Delete reports whether the block existed.
func (s *Store) Delete(id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.blocks {
		if s.blocks[i].ID == id {
			s.blocks = append(s.blocks[:i], s.blocks[i+1:]...)
			return true, s.save()
		}
	}
	return false, nil
}

// Replace swaps in blocks read from disk without saving them back.
func (s *Store) Replace(blocks []models.Timeblock) {
	s.mu.Lock()
	s.blocks = append([]models.Timeblock(nil), blocks...)
	s.mu.Unlock()
}

func (s *Store) save() error {
	if s.saver == nil {
		return nil
	}
	if err := s.saver.SaveTimeblocks(append([]models.Timeblock(nil), s.blocks...)); err != nil {
		s.log.Error("save timeblocks", "error", err)
		return err
	}
	return nil
}

// Package store loads and saves the timesheet and timeblocks files and
// keeps the in-memory store and the disk in step.
package store

import (
	"bytes"
	"fmt"
	"log/slog"
	"sync"

	"github.com/highercomve/timesheet/internal/codec"
	"github.com/highercomve/timesheet/internal/models"
)

type Paths struct {
	Timesheet  string
	Timeblocks string
}

// Storage reads and writes whole files. I/O failures are returned and also
// kept as the last error for the views to show.
type Storage struct {
	fs    FileSystem
	paths Paths
	log   *slog.Logger

	mu sync.Mutex

	errMu     sync.RWMutex
	lastError string
}

func NewStorage(fs FileSystem, paths Paths, log *slog.Logger) *Storage {
	if log == nil {
		log = slog.Default()
	}
	return &Storage{fs: fs, paths: paths, log: log}
}

func (s *Storage) Paths() Paths { return s.paths }

func (s *Storage) FS() FileSystem { return s.fs }

// LastError is the message of the most recent failed operation, or "".
func (s *Storage) LastError() string {
	s.errMu.RLock()
	defer s.errMu.RUnlock()
	return s.lastError
}

func (s *Storage) ClearError() {
	s.setError(nil)
}

func (s *Storage) setError(err error) {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if err == nil {
		s.lastError = ""
		return
	}
	s.lastError = err.Error()
}

func (s *Storage) fail(op string, err error) error {
	err = fmt.Errorf("%s: %w", op, err)
	s.log.Error("storage", "op", op, "error", err)
	s.setError(err)
	return err
}

// Load reads the timesheet. A missing file is created with a fresh
// timesheet. Skipped rows are logged and returned in the result.
func (s *Storage) Load() (*codec.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.fs.Exists(s.paths.Timesheet) {
		fresh := models.NewTimesheet()
		if err := s.fs.Create(s.paths.Timesheet, []byte(codec.SerializeString(fresh))); err != nil {
			return nil, s.fail("create timesheet", err)
		}
		s.log.Info("created timesheet", "path", s.paths.Timesheet)
		return &codec.Result{Timesheet: fresh}, nil
	}

	data, err := s.fs.ReadFile(s.paths.Timesheet)
	if err != nil {
		return nil, s.fail("read timesheet", err)
	}
	res, err := codec.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, s.fail("parse timesheet", err)
	}
	for _, rowErr := range res.Errors {
		s.log.Warn("skipped timesheet row", "path", s.paths.Timesheet, "line", rowErr.Line, "error", rowErr.Err)
	}
	return res, nil
}

// ReadText returns the raw timesheet file.
func (s *Storage) ReadText() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.fs.ReadFile(s.paths.Timesheet)
	if err != nil {
		return "", s.fail("read timesheet", err)
	}
	return string(data), nil
}

// Save rewrites the timesheet file.
func (s *Storage) Save(t models.Timesheet) error {
	var buf bytes.Buffer
	if err := codec.Serialize(&buf, t); err != nil {
		return s.fail("serialize timesheet", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fs.WriteFile(s.paths.Timesheet, buf.Bytes()); err != nil {
		return s.fail("write timesheet", err)
	}
	s.setError(nil)
	return nil
}

// LoadTimeblocks reads the planning file. A missing file is empty.
func (s *Storage) LoadTimeblocks() ([]models.Timeblock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.fs.Exists(s.paths.Timeblocks) {
		return []models.Timeblock{}, nil
	}
	data, err := s.fs.ReadFile(s.paths.Timeblocks)
	if err != nil {
		return nil, s.fail("read timeblocks", err)
	}
	res, err := codec.ParseTimeblocks(bytes.NewReader(data))
	if err != nil {
		return nil, s.fail("parse timeblocks", err)
	}
	for _, rowErr := range res.Errors {
		s.log.Warn("skipped timeblock row", "path", s.paths.Timeblocks, "line", rowErr.Line, "error", rowErr.Err)
	}
	return res.Timeblocks, nil
}

func (s *Storage) SaveTimeblocks(blocks []models.Timeblock) error {
	var buf bytes.Buffer
	if err := codec.SerializeTimeblocks(&buf, blocks); err != nil {
		return s.fail("serialize timeblocks", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fs.WriteFile(s.paths.Timeblocks, buf.Bytes()); err != nil {
		return s.fail("write timeblocks", err)
	}
	return nil
}

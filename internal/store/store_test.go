package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/highercomve/timesheet/internal/codec"
	"github.com/highercomve/timesheet/internal/models"
	"github.com/highercomve/timesheet/internal/timesheet"
)

var t0 = time.Date(2024, time.March, 4, 9, 0, 0, 0, time.Local)

func newTestStorage(t *testing.T) (*Storage, string) {
	t.Helper()
	dir := t.TempDir()
	fs := NewOSFileSystem(dir)
	return NewStorage(fs, Paths{Timesheet: "timesheet.csv", Timeblocks: "plan/timeblocks.csv"}, nil), dir
}

type brokenFS struct{ FileSystem }

func (brokenFS) Exists(string) bool { return true }
func (brokenFS) ReadFile(string) ([]byte, error) { return nil, errors.New("disk on fire") }
func (brokenFS) WriteFile(string, []byte) error { return errors.New("read-only") }

func TestOSFileSystem(t *testing.T) {
	dir := t.TempDir()
	fs := NewOSFileSystem(dir)

	require.NoError(t, fs.WriteFile("a/b.txt", []byte("one")))
	require.NoError(t, fs.WriteFile("a/b.txt", []byte("two")))
	data, err := fs.ReadFile("a/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	names, err := fs.List("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b.txt"}, names, "temporary files must not be left behind")

	assert.Error(t, fs.Create("a/b.txt", []byte("x")))
	require.NoError(t, fs.Create("c.txt", []byte("x")))
	assert.True(t, fs.Exists("c.txt"))

	names, err = fs.List("missing")
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, fs.Remove("c.txt"))
	assert.False(t, fs.Exists(filepath.Join(dir, "c.txt")))
}

func TestLoadCreatesFreshTimesheet(t *testing.T) {
	s, dir := newTestStorage(t)

	res, err := s.Load()
	require.NoError(t, err)

	assert.True(t, models.NewTimesheet().Equal(res.Timesheet))
	data, err := os.ReadFile(filepath.Join(dir, "timesheet.csv"))
	require.NoError(t, err)
	assert.Equal(t, "category,1,Uncategorized,#88C0D0,0\n", string(data))
}

func TestSaveAndLoad(t *testing.T) {
	s, _ := newTestStorage(t)
	ts := models.Timesheet{
		Categories: []models.Category{{ID: 1, Name: "Uncategorized", Color: "#88C0D0"}},
		Projects:   []models.Project{{ID: 1, Name: "Code", Icon: "💻", Color: "#00ff00", CategoryID: 1}},
		Records: []models.TimeRecord{
			{ID: 1, ProjectID: 1, StartTime: t0, EndTime: models.TimePtr(t0.Add(time.Hour)), Title: "a, b"},
			{ID: 2, ProjectID: 1, StartTime: t0.Add(2 * time.Hour)},
		},
	}

	require.NoError(t, s.Save(ts))
	res, err := s.Load()
	require.NoError(t, err)

	assert.True(t, ts.Equal(res.Timesheet))
	assert.Empty(t, s.LastError())
}

func TestLoadReportsSkippedRows(t *testing.T) {
	s, dir := newTestStorage(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "timesheet.csv"), []byte("project,1,A,x,#fff,0,-1\nrecord,zz\n"), 0644))

	res, err := s.Load()

	require.NoError(t, err)
	assert.Len(t, res.Timesheet.Projects, 1)
	assert.Len(t, res.Errors, 1)
}

func TestIOErrorsBecomeLastError(t *testing.T) {
	s := NewStorage(brokenFS{}, Paths{Timesheet: "t.csv"}, nil)

	_, err := s.Load()
	require.Error(t, err)
	assert.Contains(t, s.LastError(), "disk on fire")

	require.Error(t, s.Save(models.NewTimesheet()))
	assert.Contains(t, s.LastError(), "read-only")

	s.ClearError()
	assert.Empty(t, s.LastError())
}

func TestTimeblocksFile(t *testing.T) {
	s, _ := newTestStorage(t)

	blocks, err := s.LoadTimeblocks()
	require.NoError(t, err)
	assert.Empty(t, blocks)

	want := []models.Timeblock{{ID: 1, Title: "Focus", StartTime: t0, EndTime: t0.Add(time.Hour), Color: "#6b7280"}}
	require.NoError(t, s.SaveTimeblocks(want))
	blocks, err = s.LoadTimeblocks()
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "Focus", blocks[0].Title)
}

func TestBackups(t *testing.T) {
	fs := NewOSFileSystem(t.TempDir())
	b := NewBackups(fs, ".timebackups", 5, nil)
	now := t0
	b.now = func() time.Time { return now }

	info, created, err := b.Create("v1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "timesheet-2024-03-04T09-00-00.csv.xz", info.Name)

	now = now.Add(time.Minute)
	_, created, err = b.Create("v1")
	require.NoError(t, err)
	assert.False(t, created, "identical content is not backed up twice")

	_, created, err = b.Create("v2")
	require.NoError(t, err)
	assert.True(t, created)

	list, err := b.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "timesheet-2024-03-04T09-01-00.csv.xz", list[0].Name)

	text, err := b.Read(list[1].Name)
	require.NoError(t, err)
	assert.Equal(t, "v1", text)

	// past the first backup's retention, not the second's
	now = now.Add(5*24*time.Hour + 30*time.Second - time.Minute)
	removed, err := b.Cleanup()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	list, err = b.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "timesheet-2024-03-04T09-01-00.csv.xz", list[0].Name)
}

func TestPersisterWritesAfterChange(t *testing.T) {
	s, _ := newTestStorage(t)
	st := timesheet.New(models.NewTimesheet())
	p := NewPersister(s, st, nil)
	p.Start()

	_, err := st.Apply(timesheet.AddProject{Name: "Code"})
	require.NoError(t, err)
	p.Stop()

	res, err := s.Load()
	require.NoError(t, err)
	assert.Len(t, res.Timesheet.Projects, 1)
	assert.False(t, p.Pending())
}

func TestPersisterKeepsNewestSnapshot(t *testing.T) {
	s, _ := newTestStorage(t)
	st := timesheet.New(models.NewTimesheet())
	p := NewPersister(s, st, nil)
	p.Start()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := st.Apply(timesheet.AddCategory{Name: fmt.Sprintf("Cat %d", i)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	p.Stop()

	res, err := s.Load()
	require.NoError(t, err)
	assert.True(t, res.Timesheet.Equal(st.Snapshot()))
	assert.Equal(t, st.Version(), p.Saved())
}

func TestReloadAfterSaveIsQuiet(t *testing.T) {
	s, _ := newTestStorage(t)
	res, err := s.Load()
	require.NoError(t, err)
	st := timesheet.New(res.Timesheet, timesheet.WithClock(func() time.Time {
		return t0.Add(123456789 * time.Nanosecond)
	}))
	p := NewPersister(s, st, nil)
	syncer := NewSyncer(s, st, nil, p, SyncerConfig{}, nil)
	events := 0
	st.Subscribe(func(timesheet.Event) { events++ })

	_, err = st.Apply(timesheet.AddProject{Name: "Code"})
	require.NoError(t, err)
	_, err = st.Apply(timesheet.AddRecord{Record: models.TimeRecord{ProjectID: 1, StartTime: t0.Add(time.Millisecond)}})
	require.NoError(t, err)
	require.Equal(t, 2, events)

	assert.False(t, syncer.Reload(), "memory is ahead of the file")
	assert.Len(t, st.Projects(true), 1)

	require.NoError(t, p.Flush())
	assert.False(t, syncer.Reload())
	assert.Equal(t, 2, events)
}

// hookFS runs hook once, after the timesheet has been read.
type hookFS struct {
	FileSystem
	hook func()
}

func (h *hookFS) ReadFile(path string) ([]byte, error) {
	data, err := h.FileSystem.ReadFile(path)
	if h.hook != nil {
		hook := h.hook
		h.hook = nil
		hook()
	}
	return data, err
}

func TestReloadKeepsChangeMadeDuringRead(t *testing.T) {
	dir := t.TempDir()
	fs := &hookFS{FileSystem: NewOSFileSystem(dir)}
	s := NewStorage(fs, Paths{Timesheet: "timesheet.csv"}, nil)
	res, err := s.Load()
	require.NoError(t, err)
	st := timesheet.New(res.Timesheet)
	p := NewPersister(s, st, nil)
	syncer := NewSyncer(s, st, nil, p, SyncerConfig{}, nil)

	edited := codec.SerializeString(res.Timesheet) + "project,1,Outside,x,#000000,0,-1\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "timesheet.csv"), []byte(edited), 0644))
	fs.hook = func() {
		_, err := st.Apply(timesheet.AddCategory{Name: "Home"})
		assert.NoError(t, err)
	}

	assert.False(t, syncer.Reload())
	assert.Equal(t, "Home", st.CategoryLabel(2))
	_, ok := st.ProjectByName("outside")
	assert.False(t, ok)
}

func TestSyncerReload(t *testing.T) {
	s, dir := newTestStorage(t)
	res, err := s.Load()
	require.NoError(t, err)
	st := timesheet.New(res.Timesheet)
	sync := NewSyncer(s, st, nil, nil, SyncerConfig{}, nil)
	events := 0
	st.Subscribe(func(timesheet.Event) { events++ })

	assert.False(t, sync.Reload())
	assert.Equal(t, 0, events)

	edited := codec.SerializeString(res.Timesheet) + "project,1,Outside,x,#000000,0,-1\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "timesheet.csv"), []byte(edited), 0644))

	assert.True(t, sync.Reload())
	assert.Equal(t, 1, events)
	_, ok := st.ProjectByName("outside")
	assert.True(t, ok)
}

func TestSyncerRunSavesOnShutdown(t *testing.T) {
	s, dir := newTestStorage(t)
	st := timesheet.New(models.NewTimesheet())
	_, err := st.Apply(timesheet.AddCategory{Name: "Home"})
	require.NoError(t, err)
	sync := NewSyncer(s, st, nil, nil, SyncerConfig{AutosaveInterval: time.Hour, PollInterval: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, sync.Run(ctx))

	data, err := os.ReadFile(filepath.Join(dir, "timesheet.csv"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "category,2,Home"))
}

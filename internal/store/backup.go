package store

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/ulikunitz/xz"
)

const (
	backupPrefix = "timesheet-"
	backupSuffix = ".csv.xz"
	backupLayout = "2006-01-02T15-04-05"
)

type BackupInfo struct {
	Name string
	Path string
	Time time.Time
}

// Backups keeps xz compressed snapshots of the timesheet text in a folder.
type Backups struct {
	fs        FileSystem
	dir       string
	retention time.Duration
	now       func() time.Time
	log       *slog.Logger
}

func NewBackups(fs FileSystem, dir string, retentionDays int, log *slog.Logger) *Backups {
	if log == nil {
		log = slog.Default()
	}
	return &Backups{
		fs:        fs,
		dir:       dir,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		now:       time.Now,
		log:       log,
	}
}

// Create stores text as a new backup unless it matches the latest one.
// Old backups are cleaned up afterwards.
func (b *Backups) Create(text string) (BackupInfo, bool, error) {
	list, err := b.List()
	if err != nil {
		return BackupInfo{}, false, err
	}
	if len(list) > 0 {
		last, err := b.Read(list[0].Name)
		if err != nil {
			b.log.Warn("read last backup", "name", list[0].Name, "error", err)
		} else if last == text {
			b.log.Debug("backup skipped, content unchanged")
			return list[0], false, nil
		}
	}

	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return BackupInfo{}, false, fmt.Errorf("backup: %w", err)
	}
	if _, err := io.WriteString(w, text); err != nil {
		return BackupInfo{}, false, fmt.Errorf("backup: %w", err)
	}
	if err := w.Close(); err != nil {
		return BackupInfo{}, false, fmt.Errorf("backup: %w", err)
	}

	at := b.now().In(time.Local).Truncate(time.Second)
	name := backupPrefix + at.Format(backupLayout) + backupSuffix
	info := BackupInfo{Name: name, Path: path.Join(b.dir, name), Time: at}
	if err := b.fs.WriteFile(info.Path, buf.Bytes()); err != nil {
		return BackupInfo{}, false, fmt.Errorf("write backup: %w", err)
	}
	b.log.Info("backup created", "path", info.Path)

	if _, err := b.Cleanup(); err != nil {
		b.log.Error("backup cleanup", "error", err)
	}
	return info, true, nil
}

// List returns backups, newest first. Files not named like a backup are ignored.
func (b *Backups) List() ([]BackupInfo, error) {
	names, err := b.fs.List(b.dir)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	var out []BackupInfo
	for _, n := range names {
		at, ok := parseBackupName(n)
		if !ok {
			continue
		}
		out = append(out, BackupInfo{Name: n, Path: path.Join(b.dir, n), Time: at})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.After(out[j].Time) })
	return out, nil
}

// Read returns the decompressed text of a backup.
func (b *Backups) Read(name string) (string, error) {
	data, err := b.fs.ReadFile(path.Join(b.dir, path.Base(name)))
	if err != nil {
		return "", fmt.Errorf("read backup: %w", err)
	}
	r, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("read backup %s: %w", name, err)
	}
	text, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read backup %s: %w", name, err)
	}
	return string(text), nil
}

// Cleanup removes backups older than the retention period.
func (b *Backups) Cleanup() (int, error) {
	if b.retention <= 0 {
		return 0, nil
	}
	list, err := b.List()
	if err != nil {
		return 0, err
	}
	cutoff := b.now().Add(-b.retention)
	removed := 0
	for _, info := range list {
		if !info.Time.Before(cutoff) {
			continue
		}
		if err := b.fs.Remove(info.Path); err != nil {
			b.log.Error("delete backup", "path", info.Path, "error", err)
			continue
		}
		b.log.Info("deleted old backup", "path", info.Path)
		removed++
	}
	return removed, nil
}

func parseBackupName(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, backupPrefix) || !strings.HasSuffix(name, backupSuffix) {
		return time.Time{}, false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, backupPrefix), backupSuffix)
	at, err := time.ParseInLocation(backupLayout, stamp, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return at, true
}

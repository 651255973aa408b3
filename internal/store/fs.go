package store

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
)

// FileSystem is what the storage layer needs from its host.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	// WriteFile replaces the whole file.
	WriteFile(path string, data []byte) error
	Exists(path string) bool
	// Create writes a new file and fails if it already exists.
	Create(path string, data []byte) error
	List(dir string) ([]string, error)
	Remove(path string) error
}

// OSFileSystem resolves relative paths against Root.
type OSFileSystem struct {
	Root string
}

func NewOSFileSystem(root string) *OSFileSystem {
	return &OSFileSystem{Root: root}
}

func (o *OSFileSystem) path(p string) string {
	if filepath.IsAbs(p) || o.Root == "" {
		return p
	}
	return filepath.Join(o.Root, p)
}

func (o *OSFileSystem) ReadFile(p string) ([]byte, error) {
	return os.ReadFile(o.path(p))
}

// WriteFile writes to a temporary sibling and renames it over the target.
func (o *OSFileSystem) WriteFile(p string, data []byte) error {
	full := o.path(p)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return err
	}
	tmp := filepath.Join(filepath.Dir(full), "."+filepath.Base(full)+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, full); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func (o *OSFileSystem) Exists(p string) bool {
	_, err := os.Stat(o.path(p))
	return err == nil
}

func (o *OSFileSystem) Create(p string, data []byte) error {
	full := o.path(p)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// List returns the names of regular files in dir, sorted. A missing
// directory is empty.
func (o *OSFileSystem) List(dir string) ([]string, error) {
	entries, err := os.ReadDir(o.path(dir))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (o *OSFileSystem) Remove(p string) error {
	return os.Remove(o.path(p))
}

// SPDX-License-Identifier: MIT
package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Store is the file capability the catalog needs. Names are slash
// separated and relative to the store root. Implementations must be safe
// for concurrent use and must replace files atomically so readers never
// observe a partial write.
type Store interface {
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte) error
	ReadDir(dir string) ([]string, error) // Regular files directly in dir.
	Exists(name string) (bool, error)
	Remove(name string) error // Removing a missing file is not an error.
}

// FSStore is a Store on the local filesystem.
type FSStore struct {
	root string
}

// NewFSStore returns a store rooted at root.
func NewFSStore(root string) *FSStore {
	if root == "" {
		root = "."
	}
	return &FSStore{root: root}
}

// Root returns the directory names are resolved against.
func (s *FSStore) Root() string {
	return s.root
}

// Path maps a store name to a filesystem path.
func (s *FSStore) Path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

func (s *FSStore) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(s.Path(name))
}

// WriteFile writes data to a temporary file in the target directory and
// renames it over name.
func (s *FSStore) WriteFile(name string, data []byte) error {
	target := s.Path(name)
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("syncing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("closing %s: %w", name, err)
	}
	// CreateTemp uses 0600; records are served over HTTP.
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("chmod %s: %w", name, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		cleanup()
		return fmt.Errorf("replacing %s: %w", name, err)
	}
	return nil
}

// ReadDir lists regular files in dir in directory order.
func (s *FSStore) ReadDir(dir string) ([]string, error) {
	f, err := os.Open(s.Path(dir))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries, err := f.ReadDir(-1)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() || e.Type()&fs.ModeSymlink != 0 {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (s *FSStore) Exists(name string) (bool, error) {
	info, err := os.Stat(s.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !info.IsDir(), nil
}

func (s *FSStore) Remove(name string) error {
	if err := os.Remove(s.Path(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Ensure FSStore satisfies the interface at compile time.
var _ Store = (*FSStore)(nil)

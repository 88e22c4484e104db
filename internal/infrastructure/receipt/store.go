package receipt

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// Store writes receipt files under one directory of an afero filesystem.
type Store struct {
	fs  afero.Fs
	dir string
}

// NewStore creates a store rooted at dir.
func NewStore(fs afero.Fs, dir string) *Store {
	return &Store{fs: fs, dir: dir}
}

// Path is where name is stored.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Save writes data to a temp file next to the target and renames it into
// place, so a reader never sees a partial PDF. An existing file with the
// same name is replaced.
func (s *Store) Save(name string, data []byte) (path string, err error) {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("receipt: create %s: %w", s.dir, err)
	}

	tmp, err := afero.TempFile(s.fs, s.dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("receipt: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = s.fs.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("receipt: write %s: %w", tmpName, err)
	}
	if err = tmp.Close(); err != nil {
		return "", fmt.Errorf("receipt: close %s: %w", tmpName, err)
	}

	path = s.Path(name)
	if err = s.fs.Rename(tmpName, path); err != nil {
		return "", fmt.Errorf("receipt: rename to %s: %w", path, err)
	}
	return path, nil
}

// Exists reports whether name has been stored.
func (s *Store) Exists(name string) (bool, error) {
	return afero.Exists(s.fs, s.Path(name))
}

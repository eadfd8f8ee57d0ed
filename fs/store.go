// Package fs provides file-based storage for downloaded media.
package fs

import (
	"io"
	"os"
	"path/filepath"

	"github.com/nlitsme/wikiexport"
)

// Ensure Store implements wikiexport.FileStore at compile time.
var _ wikiexport.FileStore = (*Store)(nil)

// Store writes media files directly into a single save directory. It never
// creates subdirectories: a name carrying a path separator would escape the
// directory and is rejected.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir. The directory is created if it
// does not exist.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

// Create opens a writer for the named file, truncating any existing content.
func (s *Store) Create(name string) (io.WriteCloser, error) {
	if !wikiexport.SafeFileName(name) {
		return nil, wikiexport.Errorf(wikiexport.EINVALID, "file name %q contains a path separator", name)
	}
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return nil, err
	}
	return f, nil
}

package mock

import (
	"io"

	"github.com/nlitsme/wikiexport"
)

var _ wikiexport.FileStore = (*FileStore)(nil)

// FileStore is a mock implementation of wikiexport.FileStore.
type FileStore struct {
	CreateFn func(name string) (io.WriteCloser, error)
}

func (s *FileStore) Create(name string) (io.WriteCloser, error) {
	return s.CreateFn(name)
}

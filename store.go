package wikiexport

import "io"

// FileStore persists downloaded media files by their local name (the page
// title without its "File:" prefix). Names containing path separators are
// rejected with an EINVALID error; a store never creates subdirectories.
type FileStore interface {
	// Create opens a writer for the named file, truncating any existing
	// content. The caller must close the returned writer.
	Create(name string) (io.WriteCloser, error)
}

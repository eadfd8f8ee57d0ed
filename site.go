package wikiexport

import (
	"context"
	"io"
	"strings"
)

// Namespace identifies one of the wiki's content namespaces.
type Namespace struct {
	ID   int
	Name string
}

// PageRange is a sub-interval of the page index, produced when an index
// listing is itself an index of further listings.
type PageRange struct {
	From string
	To   string
}

// Listing is the structured result of one page-index response. A listing is
// either a chunk index (Ranges non-empty) or a leaf page list (Pages plus an
// optional continuation cursor in Next), never both.
type Listing struct {
	Ranges []PageRange
	Pages  []string
	Next   string
}

// IsIndex reports whether the listing is a chunk index rather than a leaf
// page list.
func (l *Listing) IsIndex() bool {
	return len(l.Ranges) > 0
}

// Site is a session with a single MediaWiki installation. All operations
// share one connection pool and cookie jar for the lifetime of the crawl.
type Site interface {
	// BaseURL returns the wiki's canonical script URL the session was
	// constructed with (e.g. "https://wiki.example.org/w/index.php").
	BaseURL() string

	// Namespaces fetches the wiki's namespace table, in document order.
	Namespaces(ctx context.Context) ([]Namespace, error)

	// ListIndex fetches one page of the Special:AllPages index for the
	// namespace, bounded by from/to (either may be empty).
	ListIndex(ctx context.Context, namespace int, from, to string) (*Listing, error)

	// Export requests the bulk XML export for the given titles. When
	// currentOnly is set only the latest revision of each page is included.
	Export(ctx context.Context, titles []string, currentOnly bool) ([]byte, error)

	// ExportPage requests the XML export of a single page via the dedicated
	// per-page endpoint.
	ExportPage(ctx context.Context, title string) ([]byte, error)

	// DownloadFile streams the media file with the given name (the title
	// without its "File:" prefix) into w in fixed-size chunks. w is closed
	// on completion or error.
	DownloadFile(ctx context.Context, name string, w io.WriteCloser) error

	// Close releases the session's network resources.
	Close() error
}

// PageLister walks a namespace's full page index, invoking fn for every page
// title in the server's listing order. Returning a non-nil error from fn
// stops the walk.
type PageLister interface {
	ListPages(ctx context.Context, namespace int, fn func(title string) error) error
}

// FileTitlePrefix marks titles in the wiki's media namespace.
const FileTitlePrefix = "File:"

// ParseFileTitle splits a page title into its media-file local name.
// The second return value is false if the title is not in the File: namespace.
func ParseFileTitle(title string) (string, bool) {
	if !strings.HasPrefix(title, FileTitlePrefix) {
		return "", false
	}
	return title[len(FileTitlePrefix):], true
}

// SafeFileName reports whether a media file's local name can be written
// directly into the save directory. Names carrying path separators would
// escape it.
func SafeFileName(name string) bool {
	return name != "" && !strings.ContainsAny(name, `/\`)
}

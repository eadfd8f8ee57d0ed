package wikiexport

import "context"

// Fetcher retrieves raw HTML from a URL. It is used for the seed page only:
// base-path discovery happens before a Site session exists. Implementations
// may use plain HTTP or browser automation for wikis fronted by JavaScript
// challenges.
type Fetcher interface {
	// Fetch returns the HTML of the page at url.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (html string, err error)

	// Close releases any resources held by the fetcher.
	Close() error
}

// Package etree inspects MediaWiki XML export payloads.
package etree

import (
	"bytes"

	"github.com/beevik/etree"
	"github.com/nlitsme/wikiexport"
)

// Ensure Inspector implements wikiexport.ExportInspector at compile time.
var _ wikiexport.ExportInspector = (*Inspector)(nil)

// Inspector counts the pages and revisions inside one export document. The
// counts feed logs and the crawl manifest; the payload itself is passed
// through untouched whether or not it parses.
type Inspector struct{}

// NewInspector creates a new Inspector.
func NewInspector() *Inspector {
	return &Inspector{}
}

// Inspect parses the export payload and reports its page and revision
// counts.
func (i *Inspector) Inspect(payload []byte) (*wikiexport.ExportStats, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(bytes.NewReader(payload)); err != nil {
		return nil, wikiexport.Errorf(wikiexport.EINVALID, "parsing export XML: %v", err)
	}

	root := doc.Root()
	if root == nil {
		return nil, wikiexport.Errorf(wikiexport.EINVALID, "empty export document")
	}

	stats := &wikiexport.ExportStats{}
	for _, page := range root.SelectElements("page") {
		stats.Pages++
		stats.Revisions += len(page.SelectElements("revision"))
	}
	return stats, nil
}

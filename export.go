package wikiexport

// ExportStats summarizes the contents of one XML export document.
type ExportStats struct {
	Pages     int
	Revisions int
}

// ExportInspector parses an export payload and reports what it contains.
// Inspection is advisory: it feeds logs and the crawl manifest, and a payload
// that fails to parse is still written to the output sink untouched.
type ExportInspector interface {
	Inspect(payload []byte) (*ExportStats, error)
}

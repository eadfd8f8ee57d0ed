package mock

import "github.com/nlitsme/wikiexport"

var _ wikiexport.ExportInspector = (*ExportInspector)(nil)

// ExportInspector is a mock implementation of wikiexport.ExportInspector.
type ExportInspector struct {
	InspectFn func(payload []byte) (*wikiexport.ExportStats, error)
}

func (i *ExportInspector) Inspect(payload []byte) (*wikiexport.ExportStats, error) {
	return i.InspectFn(payload)
}

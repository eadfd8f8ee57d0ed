package wikiexport

import (
	"context"
	"time"
)

// Run records one crawl of a wiki.
type Run struct {
	ID         string
	SeedURL    string
	BaseURL    string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Validate returns an error if the run contains invalid fields.
func (r *Run) Validate() error {
	if r.SeedURL == "" {
		return Errorf(EINVALID, "run seed URL required")
	}
	if r.BaseURL == "" {
		return Errorf(EINVALID, "run base URL required")
	}
	return nil
}

// ExportBatchRecord records one export request issued during a run.
type ExportBatchRecord struct {
	ID        string
	RunID     string
	Namespace int
	Titles    int
	Bytes     int
	Hash      string
	Endpoint  string // "bulk" or "single"
	CreatedAt time.Time
}

// Validate returns an error if the record contains invalid fields.
func (r *ExportBatchRecord) Validate() error {
	if r.RunID == "" {
		return Errorf(EINVALID, "export record run ID required")
	}
	if r.Titles <= 0 {
		return Errorf(EINVALID, "export record title count required")
	}
	return nil
}

// DownloadRecord records one media file saved during a run.
type DownloadRecord struct {
	ID        string
	RunID     string
	Title     string
	Name      string
	Bytes     int64
	Hash      string
	CreatedAt time.Time
}

// Validate returns an error if the record contains invalid fields.
func (r *DownloadRecord) Validate() error {
	if r.RunID == "" {
		return Errorf(EINVALID, "download record run ID required")
	}
	if r.Name == "" {
		return Errorf(EINVALID, "download record file name required")
	}
	return nil
}

// ManifestService records crawl provenance: which run produced which export
// batches and media downloads. It is a write-only audit trail; resuming an
// interrupted crawl from it is out of scope.
type ManifestService interface {
	// CreateRun registers a new run and assigns its ID and start time.
	CreateRun(ctx context.Context, run *Run) error

	// FinishRun stamps the run's finish time.
	FinishRun(ctx context.Context, id string) error

	// RecordExportBatch records a completed export request.
	RecordExportBatch(ctx context.Context, rec *ExportBatchRecord) error

	// RecordDownload records a saved media file.
	RecordDownload(ctx context.Context, rec *DownloadRecord) error
}

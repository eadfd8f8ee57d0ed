package mock

import (
	"context"

	"github.com/nlitsme/wikiexport"
)

var _ wikiexport.ManifestService = (*ManifestService)(nil)

// ManifestService is a mock implementation of wikiexport.ManifestService.
type ManifestService struct {
	CreateRunFn         func(ctx context.Context, run *wikiexport.Run) error
	FinishRunFn         func(ctx context.Context, id string) error
	RecordExportBatchFn func(ctx context.Context, rec *wikiexport.ExportBatchRecord) error
	RecordDownloadFn    func(ctx context.Context, rec *wikiexport.DownloadRecord) error
}

func (s *ManifestService) CreateRun(ctx context.Context, run *wikiexport.Run) error {
	return s.CreateRunFn(ctx, run)
}

func (s *ManifestService) FinishRun(ctx context.Context, id string) error {
	return s.FinishRunFn(ctx, id)
}

func (s *ManifestService) RecordExportBatch(ctx context.Context, rec *wikiexport.ExportBatchRecord) error {
	return s.RecordExportBatchFn(ctx, rec)
}

func (s *ManifestService) RecordDownload(ctx context.Context, rec *wikiexport.DownloadRecord) error {
	return s.RecordDownloadFn(ctx, rec)
}

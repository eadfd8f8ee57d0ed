package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nlitsme/wikiexport"
)

// Compile-time interface verification.
var _ wikiexport.ManifestService = (*ManifestService)(nil)

// ManifestService implements wikiexport.ManifestService using SQLite.
type ManifestService struct {
	db *DB
}

// NewManifestService creates a new ManifestService.
func NewManifestService(db *DB) *ManifestService {
	return &ManifestService{db: db}
}

// CreateRun registers a new run and assigns its ID and start time.
func (s *ManifestService) CreateRun(ctx context.Context, run *wikiexport.Run) error {
	if err := run.Validate(); err != nil {
		return err
	}

	run.ID = uuid.New().String()
	run.StartedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, seed_url, base_url, started_at)
		VALUES (?, ?, ?, ?)
	`, run.ID, run.SeedURL, run.BaseURL, run.StartedAt.Format(time.RFC3339))

	return err
}

// FinishRun stamps the run's finish time.
func (s *ManifestService) FinishRun(ctx context.Context, id string) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET finished_at = ? WHERE id = ?
	`, now.Format(time.RFC3339), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return wikiexport.Errorf(wikiexport.ENOTFOUND, "run not found")
	}
	return nil
}

// RecordExportBatch records a completed export request.
func (s *ManifestService) RecordExportBatch(ctx context.Context, rec *wikiexport.ExportBatchRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	rec.ID = uuid.New().String()
	rec.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO export_batches (id, run_id, namespace, titles, bytes, hash, endpoint, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.RunID, rec.Namespace, rec.Titles, rec.Bytes, rec.Hash, rec.Endpoint,
		rec.CreatedAt.Format(time.RFC3339))

	return err
}

// RecordDownload records a saved media file.
func (s *ManifestService) RecordDownload(ctx context.Context, rec *wikiexport.DownloadRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	rec.ID = uuid.New().String()
	rec.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO downloads (id, run_id, title, name, bytes, hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.RunID, rec.Title, rec.Name, rec.Bytes, rec.Hash,
		rec.CreatedAt.Format(time.RFC3339))

	return err
}

// FindRunByID retrieves a run by ID. The crawler itself never reads the
// manifest back; this exists for inspection tooling and for verifying
// persisted state in tests.
func (s *ManifestService) FindRunByID(ctx context.Context, id string) (*wikiexport.Run, error) {
	var run wikiexport.Run
	var startedAt, finishedAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, seed_url, base_url, started_at, finished_at
		FROM runs
		WHERE id = ?
	`, id).Scan(&run.ID, &run.SeedURL, &run.BaseURL, &startedAt, &finishedAt)

	if err == sql.ErrNoRows {
		return nil, wikiexport.Errorf(wikiexport.ENOTFOUND, "run not found")
	}
	if err != nil {
		return nil, err
	}

	run.StartedAt, err = time.Parse(time.RFC3339, startedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse started_at: %w", err)
	}
	if finishedAt != "" {
		run.FinishedAt, err = time.Parse(time.RFC3339, finishedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse finished_at: %w", err)
		}
	}

	return &run, nil
}

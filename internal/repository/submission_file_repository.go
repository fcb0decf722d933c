package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/haryzobo/quickSubmit/internal/models"
)

// SubmissionFileRepository persists submission file records and galleys.
// File blobs themselves live in the storage area; rows reference them by path.
type SubmissionFileRepository struct {
	db *sqlx.DB
}

// NewSubmissionFileRepository constructs the repository.
func NewSubmissionFileRepository(db *sqlx.DB) *SubmissionFileRepository {
	return &SubmissionFileRepository{db: db}
}

// ListGalleys returns the galleys of a publication in display order,
// including entries whose file has not been uploaded yet (nil FileID).
func (r *SubmissionFileRepository) ListGalleys(ctx context.Context, publicationID int64) ([]models.Galley, error) {
	const query = `
SELECT id, publication_id, label, locale, file_id, seq
FROM galleys
WHERE publication_id = $1
ORDER BY seq ASC, id ASC`

	var galleys []models.Galley
	if err := r.db.SelectContext(ctx, &galleys, query, publicationID); err != nil {
		return nil, fmt.Errorf("list galleys: %w", err)
	}
	return galleys, nil
}

// ListBySubmission returns every file record attached to a submission.
func (r *SubmissionFileRepository) ListBySubmission(ctx context.Context, submissionID int64) ([]models.SubmissionFile, error) {
	const query = `
SELECT id, submission_id, file_id, revision, file_stage, name, path, mime_type, created_at
FROM submission_files
WHERE submission_id = $1
ORDER BY id ASC`

	var files []models.SubmissionFile
	if err := r.db.SelectContext(ctx, &files, query, submissionID); err != nil {
		return nil, fmt.Errorf("list submission files: %w", err)
	}
	return files, nil
}

// LatestRevision returns the highest revision number recorded for a file.
func (r *SubmissionFileRepository) LatestRevision(ctx context.Context, fileID int64) (int, error) {
	const query = `SELECT COALESCE(MAX(revision), 0) FROM submission_files WHERE file_id = $1`
	var revision int
	if err := r.db.GetContext(ctx, &revision, query, fileID); err != nil {
		return 0, fmt.Errorf("latest revision: %w", err)
	}
	return revision, nil
}

// GetByFileRevision fetches one file row by (file id, revision). Returns nil
// when no such revision exists.
func (r *SubmissionFileRepository) GetByFileRevision(ctx context.Context, fileID int64, revision int) (*models.SubmissionFile, error) {
	const query = `
SELECT id, submission_id, file_id, revision, file_stage, name, path, mime_type, created_at
FROM submission_files
WHERE file_id = $1 AND revision = $2`

	var file models.SubmissionFile
	if err := r.db.GetContext(ctx, &file, query, fileID, revision); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get file revision: %w", err)
	}
	return &file, nil
}

// Create records a new submission file row and fills in its id.
func (r *SubmissionFileRepository) Create(ctx context.Context, f *models.SubmissionFile) error {
	const query = `
INSERT INTO submission_files (submission_id, file_id, revision, file_stage, name, path, mime_type, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`

	f.CreatedAt = time.Now().UTC()
	if err := r.db.QueryRowxContext(ctx, query,
		f.SubmissionID, f.FileID, f.Revision, f.FileStage, f.Name, f.Path, f.MimeType, f.CreatedAt,
	).Scan(&f.ID); err != nil {
		return fmt.Errorf("insert submission file: %w", err)
	}
	return nil
}

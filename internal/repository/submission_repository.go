package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/haryzobo/quickSubmit/internal/models"
)

// SubmissionRepository provides persistence for submission records.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs the repository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// GetByID fetches a submission scoped to its journal. Returns nil when the
// row does not exist in that journal.
func (r *SubmissionRepository) GetByID(ctx context.Context, id, journalID int64) (*models.Submission, error) {
	const query = `
SELECT id, journal_id, locale, status, stage_id, progress, section_id,
	current_publication_id, date_submitted, date_status_modified,
	copyright_holder, copyright_year, license_url, pages, created_at, updated_at
FROM submissions
WHERE id = $1 AND journal_id = $2`

	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, id, journalID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return &submission, nil
}

// Create inserts a new submission and fills in its id and timestamps.
func (r *SubmissionRepository) Create(ctx context.Context, s *models.Submission) error {
	const query = `
INSERT INTO submissions (journal_id, locale, status, stage_id, progress, section_id,
	date_status_modified, copyright_holder, license_url, pages, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
RETURNING id`

	now := time.Now().UTC()
	s.DateStatusModified = now
	s.CreatedAt = now
	s.UpdatedAt = now
	if err := r.db.QueryRowxContext(ctx, query,
		s.JournalID, s.Locale, s.Status, s.StageID, s.Progress, s.SectionID,
		s.DateStatusModified, s.CopyrightHolder, s.LicenseURL, s.Pages, now,
	).Scan(&s.ID); err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// Update persists all mutable submission fields.
func (r *SubmissionRepository) Update(ctx context.Context, s *models.Submission) error {
	const query = `
UPDATE submissions SET
	locale = $1,
	status = $2,
	stage_id = $3,
	progress = $4,
	section_id = $5,
	current_publication_id = $6,
	date_submitted = $7,
	date_status_modified = $8,
	copyright_holder = $9,
	copyright_year = $10,
	license_url = $11,
	pages = $12,
	updated_at = $13
WHERE id = $14`

	s.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx, query,
		s.Locale, s.Status, s.StageID, s.Progress, s.SectionID,
		s.CurrentPublicationID, s.DateSubmitted, s.DateStatusModified,
		s.CopyrightHolder, s.CopyrightYear, s.LicenseURL, s.Pages,
		s.UpdatedAt, s.ID,
	)
	if err != nil {
		return fmt.Errorf("update submission: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateLocale persists only the locale change that happens when an existing
// draft is reopened under a different working locale.
func (r *SubmissionRepository) UpdateLocale(ctx context.Context, id int64, locale string) error {
	const query = `UPDATE submissions SET locale = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, locale, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update submission locale: %w", err)
	}
	return nil
}

// SetCurrentPublication points the submission at its current publication.
func (r *SubmissionRepository) SetCurrentPublication(ctx context.Context, id, publicationID int64) error {
	const query = `UPDATE submissions SET current_publication_id = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, publicationID, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("set current publication: %w", err)
	}
	return nil
}

// Delete removes a submission. Publications, files, stage assignments and the
// published-article row cascade at the schema level.
func (r *SubmissionRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM submissions WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete submission: %w", err)
	}
	return nil
}

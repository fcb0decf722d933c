package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/haryzobo/quickSubmit/internal/models"
)

// IssueRepository provides issue lookups for the quick-submit form.
type IssueRepository struct {
	db *sqlx.DB
}

// NewIssueRepository constructs the repository.
func NewIssueRepository(db *sqlx.DB) *IssueRepository {
	return &IssueRepository{db: db}
}

const issueColumns = `id, journal_id, volume, number, year, title, published, current, date_published`

// GetByID fetches an issue scoped to its journal. Returns nil when absent.
func (r *IssueRepository) GetByID(ctx context.Context, id, journalID int64) (*models.Issue, error) {
	query := fmt.Sprintf(`SELECT %s FROM issues WHERE id = $1 AND journal_id = $2`, issueColumns)

	var issue models.Issue
	if err := r.db.GetContext(ctx, &issue, query, id, journalID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get issue: %w", err)
	}
	return &issue, nil
}

// ListUnpublished returns the journal's future issues in creation order.
func (r *IssueRepository) ListUnpublished(ctx context.Context, journalID int64) ([]models.Issue, error) {
	query := fmt.Sprintf(`
SELECT %s FROM issues
WHERE journal_id = $1 AND published = FALSE
ORDER BY year ASC, volume ASC, id ASC`, issueColumns)

	var issues []models.Issue
	if err := r.db.SelectContext(ctx, &issues, query, journalID); err != nil {
		return nil, fmt.Errorf("list unpublished issues: %w", err)
	}
	return issues, nil
}

// ListPublished returns the journal's published issues, most recent first.
// When the journal has a current issue it sorts first.
func (r *IssueRepository) ListPublished(ctx context.Context, journalID int64) ([]models.Issue, error) {
	query := fmt.Sprintf(`
SELECT %s FROM issues
WHERE journal_id = $1 AND published = TRUE
ORDER BY current DESC, date_published DESC, id DESC`, issueColumns)

	var issues []models.Issue
	if err := r.db.SelectContext(ctx, &issues, query, journalID); err != nil {
		return nil, fmt.Errorf("list published issues: %w", err)
	}
	return issues, nil
}

// HasAny reports whether the journal has any issues at all.
func (r *IssueRepository) HasAny(ctx context.Context, journalID int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM issues WHERE journal_id = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, journalID); err != nil {
		return false, fmt.Errorf("issues exist: %w", err)
	}
	return exists, nil
}

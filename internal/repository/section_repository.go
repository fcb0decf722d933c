package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/haryzobo/quickSubmit/internal/models"
)

// SectionRepository provides section lookups and custom section ordering.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs the repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

// ListTitlesByJournal returns (id, title) pairs in natural listing order.
// The first entry is the journal's default section for new drafts.
func (r *SectionRepository) ListTitlesByJournal(ctx context.Context, journalID int64) ([]models.SectionTitle, error) {
	const query = `
SELECT id, title
FROM sections
WHERE journal_id = $1
ORDER BY seq ASC, id ASC`

	var titles []models.SectionTitle
	if err := r.db.SelectContext(ctx, &titles, query, journalID); err != nil {
		return nil, fmt.Errorf("list section titles: %w", err)
	}
	return titles, nil
}

// GetByID fetches a section scoped to its journal. Returns nil when absent.
func (r *SectionRepository) GetByID(ctx context.Context, id, journalID int64) (*models.Section, error) {
	const query = `
SELECT id, journal_id, title, abbrev, seq, abstracts_not_required, abstract_word_count
FROM sections
WHERE id = $1 AND journal_id = $2`

	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, id, journalID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get section: %w", err)
	}
	return &section, nil
}

// Exists reports whether a section belongs to the journal.
func (r *SectionRepository) Exists(ctx context.Context, id, journalID int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM sections WHERE id = $1 AND journal_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, id, journalID); err != nil {
		return false, fmt.Errorf("section exists: %w", err)
	}
	return exists, nil
}

// CustomOrderExists reports whether the issue overrides section ordering.
func (r *SectionRepository) CustomOrderExists(ctx context.Context, issueID int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM custom_section_orders WHERE issue_id = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, issueID); err != nil {
		return false, fmt.Errorf("custom section order exists: %w", err)
	}
	return exists, nil
}

// GetCustomOrder returns the section's position within the issue, or nil when
// the section has no custom order entry yet.
func (r *SectionRepository) GetCustomOrder(ctx context.Context, issueID, sectionID int64) (*int64, error) {
	const query = `SELECT seq FROM custom_section_orders WHERE issue_id = $1 AND section_id = $2`
	var seq int64
	if err := r.db.GetContext(ctx, &seq, query, issueID, sectionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get custom section order: %w", err)
	}
	return &seq, nil
}

// InsertCustomOrder adds a custom order entry at the given position.
func (r *SectionRepository) InsertCustomOrder(ctx context.Context, issueID, sectionID, seq int64) error {
	const query = `INSERT INTO custom_section_orders (issue_id, section_id, seq) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, issueID, sectionID, seq); err != nil {
		return fmt.Errorf("insert custom section order: %w", err)
	}
	return nil
}

// ResequenceCustomOrders compacts the issue's custom order entries into a
// dense 1..N sequence, preserving relative order (ties broken by section id).
// The member rows are locked for the duration of the rewrite.
func (r *SectionRepository) ResequenceCustomOrders(ctx context.Context, issueID int64) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin custom order resequence: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const selectQuery = `
SELECT section_id
FROM custom_section_orders
WHERE issue_id = $1
ORDER BY seq ASC, section_id ASC
FOR UPDATE`

	var sectionIDs []int64
	if err = tx.SelectContext(ctx, &sectionIDs, selectQuery, issueID); err != nil {
		return fmt.Errorf("load custom section orders: %w", err)
	}

	const updateQuery = `UPDATE custom_section_orders SET seq = $1 WHERE issue_id = $2 AND section_id = $3`
	for i, sectionID := range sectionIDs {
		if _, err = tx.ExecContext(ctx, updateQuery, int64(i+1), issueID, sectionID); err != nil {
			return fmt.Errorf("update custom section order: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit custom order resequence: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/haryzobo/quickSubmit/internal/models"
)

// JournalRepository loads journal (tenant) rows.
type JournalRepository struct {
	db *sqlx.DB
}

// NewJournalRepository constructs the repository.
func NewJournalRepository(db *sqlx.DB) *JournalRepository {
	return &JournalRepository{db: db}
}

// GetByID fetches a journal together with its supported submission locales.
// Returns nil when the journal does not exist.
func (r *JournalRepository) GetByID(ctx context.Context, id int64) (*models.Journal, error) {
	const query = `
SELECT id, path, name, primary_locale, enabled, created_at
FROM journals
WHERE id = $1`

	var journal models.Journal
	if err := r.db.GetContext(ctx, &journal, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get journal: %w", err)
	}

	const localesQuery = `SELECT supported_locales FROM journal_settings WHERE journal_id = $1`
	var locales pq.StringArray
	if err := r.db.GetContext(ctx, &locales, localesQuery, id); err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("get journal locales: %w", err)
	}
	journal.SupportedLocales = []string(locales)

	return &journal, nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/haryzobo/quickSubmit/internal/models"
)

// PublicationRepository persists publication snapshots and their authors.
type PublicationRepository struct {
	db *sqlx.DB
}

// NewPublicationRepository constructs the repository.
func NewPublicationRepository(db *sqlx.DB) *PublicationRepository {
	return &PublicationRepository{db: db}
}

// Create inserts a publication and fills in its id.
func (r *PublicationRepository) Create(ctx context.Context, p *models.Publication) error {
	const query = `
INSERT INTO publications (submission_id, locale, language, section_id, status, title, abstract, keywords)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`

	if p.Title == nil {
		p.Title = models.LocalizedText{}
	}
	if p.Abstract == nil {
		p.Abstract = models.LocalizedText{}
	}
	if err := r.db.QueryRowxContext(ctx, query,
		p.SubmissionID, p.Locale, p.Language, p.SectionID, p.Status,
		p.Title, p.Abstract, pq.Array([]string(p.Keywords)),
	).Scan(&p.ID); err != nil {
		return fmt.Errorf("insert publication: %w", err)
	}
	return nil
}

// GetByID fetches a publication with its authors in display order. Returns
// nil when the row does not exist.
func (r *PublicationRepository) GetByID(ctx context.Context, id int64) (*models.Publication, error) {
	const query = `
SELECT id, submission_id, locale, language, section_id, status, title, abstract, keywords
FROM publications
WHERE id = $1`

	var publication models.Publication
	if err := r.db.GetContext(ctx, &publication, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get publication: %w", err)
	}

	const authorsQuery = `
SELECT id, publication_id, given_name, family_name, email, affiliation, seq
FROM publication_authors
WHERE publication_id = $1
ORDER BY seq ASC, id ASC`
	if err := r.db.SelectContext(ctx, &publication.Authors, authorsQuery, id); err != nil {
		return nil, fmt.Errorf("get publication authors: %w", err)
	}
	return &publication, nil
}

// UpdateMetadata writes the metadata sub-form fields onto the publication and
// replaces its author list, all within one transaction.
func (r *PublicationRepository) UpdateMetadata(ctx context.Context, id int64, title, abstract models.LocalizedText, keywords []string, authors []models.Author) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin metadata transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if title == nil {
		title = models.LocalizedText{}
	}
	if abstract == nil {
		abstract = models.LocalizedText{}
	}

	const updateQuery = `UPDATE publications SET title = $1, abstract = $2, keywords = $3 WHERE id = $4`
	if _, err = tx.ExecContext(ctx, updateQuery, title, abstract, pq.Array(keywords), id); err != nil {
		return fmt.Errorf("update publication metadata: %w", err)
	}

	const deleteAuthors = `DELETE FROM publication_authors WHERE publication_id = $1`
	if _, err = tx.ExecContext(ctx, deleteAuthors, id); err != nil {
		return fmt.Errorf("clear publication authors: %w", err)
	}

	const insertAuthor = `
INSERT INTO publication_authors (publication_id, given_name, family_name, email, affiliation, seq)
VALUES ($1, $2, $3, $4, $5, $6)`
	for i, author := range authors {
		if _, err = tx.ExecContext(ctx, insertAuthor, id, author.GivenName, author.FamilyName, author.Email, author.Affiliation, int64(i+1)); err != nil {
			return fmt.Errorf("insert publication author: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit publication metadata: %w", err)
	}
	return nil
}

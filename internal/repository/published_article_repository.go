package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/haryzobo/quickSubmit/internal/models"
)

// TOCEntry is one line of an issue table of contents: the published article
// joined with its display title and section.
type TOCEntry struct {
	SubmissionID int64                `db:"submission_id"`
	SectionID    int64                `db:"section_id"`
	SectionTitle string               `db:"section_title"`
	Title        models.LocalizedText `db:"title"`
	Locale       string               `db:"locale"`
	Pages        string               `db:"pages"`
	Seq          int64                `db:"seq"`
}

// PublishedArticleRepository persists issue-placement rows and maintains
// their ordering.
type PublishedArticleRepository struct {
	db *sqlx.DB
}

// NewPublishedArticleRepository constructs the repository.
func NewPublishedArticleRepository(db *sqlx.DB) *PublishedArticleRepository {
	return &PublishedArticleRepository{db: db}
}

// Create inserts a published-article row. The id is the submission id.
func (r *PublishedArticleRepository) Create(ctx context.Context, a *models.PublishedArticle) error {
	const query = `
INSERT INTO published_articles (id, issue_id, section_id, date_published, seq, access_status)
VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := r.db.ExecContext(ctx, query,
		a.ID, a.IssueID, a.SectionID, a.DatePublished, a.Seq, a.AccessStatus,
	); err != nil {
		return fmt.Errorf("insert published article: %w", err)
	}
	return nil
}

// GetByID fetches the placement row for a submission. Returns nil when the
// submission is not published.
func (r *PublishedArticleRepository) GetByID(ctx context.Context, id int64) (*models.PublishedArticle, error) {
	const query = `
SELECT id, issue_id, section_id, date_published, seq, access_status
FROM published_articles
WHERE id = $1`

	var article models.PublishedArticle
	if err := r.db.GetContext(ctx, &article, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get published article: %w", err)
	}
	return &article, nil
}

// ListByPartition returns the members of one (section, issue) partition
// ordered by sequence, ties broken by id.
func (r *PublishedArticleRepository) ListByPartition(ctx context.Context, sectionID, issueID int64) ([]models.PublishedArticle, error) {
	const query = `
SELECT id, issue_id, section_id, date_published, seq, access_status
FROM published_articles
WHERE section_id = $1 AND issue_id = $2
ORDER BY seq ASC, id ASC`

	var articles []models.PublishedArticle
	if err := r.db.SelectContext(ctx, &articles, query, sectionID, issueID); err != nil {
		return nil, fmt.Errorf("list published articles: %w", err)
	}
	return articles, nil
}

// Resequence compacts the (section, issue) partition into a dense 1..N
// ordering. Members are read under lock ordered by current sequence value,
// ties broken by id, so items parked at the end sentinel keep insertion order.
func (r *PublishedArticleRepository) Resequence(ctx context.Context, sectionID, issueID int64) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin resequence: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const selectQuery = `
SELECT id
FROM published_articles
WHERE section_id = $1 AND issue_id = $2
ORDER BY seq ASC, id ASC
FOR UPDATE`

	var ids []int64
	if err = tx.SelectContext(ctx, &ids, selectQuery, sectionID, issueID); err != nil {
		return fmt.Errorf("load partition members: %w", err)
	}

	const updateQuery = `UPDATE published_articles SET seq = $1 WHERE id = $2`
	for i, id := range ids {
		if _, err = tx.ExecContext(ctx, updateQuery, int64(i+1), id); err != nil {
			return fmt.Errorf("update sequence: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit resequence: %w", err)
	}
	return nil
}

// ListTOC returns the issue's table of contents: every published article in
// the issue with its title and section, ordered by section then sequence.
// Sections follow the issue's custom order where an entry exists, the
// journal-wide section sequence otherwise.
func (r *PublishedArticleRepository) ListTOC(ctx context.Context, issueID int64) ([]TOCEntry, error) {
	const query = `
SELECT pa.id AS submission_id,
	pa.section_id AS section_id,
	sec.title AS section_title,
	p.title AS title,
	p.locale AS locale,
	s.pages AS pages,
	pa.seq AS seq
FROM published_articles pa
JOIN submissions s ON s.id = pa.id
JOIN publications p ON p.id = s.current_publication_id
JOIN sections sec ON sec.id = pa.section_id
LEFT JOIN custom_section_orders cso ON cso.issue_id = pa.issue_id AND cso.section_id = pa.section_id
WHERE pa.issue_id = $1
ORDER BY COALESCE(cso.seq, sec.seq) ASC, pa.seq ASC, pa.id ASC`

	var entries []TOCEntry
	if err := r.db.SelectContext(ctx, &entries, query, issueID); err != nil {
		return nil, fmt.Errorf("list issue toc: %w", err)
	}
	return entries, nil
}

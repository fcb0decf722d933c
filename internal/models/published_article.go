package models

import "time"

// Access status for published articles.
const (
	AccessIssueDefault = 0
	AccessOpen         = 1
)

// PublishedArticle places a submission into an issue. The id is shared with
// the owning submission; the row exists iff the submission is published.
type PublishedArticle struct {
	ID            int64      `db:"id" json:"id"`
	IssueID       int64      `db:"issue_id" json:"issue_id"`
	SectionID     int64      `db:"section_id" json:"section_id"`
	DatePublished *time.Time `db:"date_published" json:"date_published,omitempty"`
	Seq           int64      `db:"seq" json:"seq"`
	AccessStatus  int        `db:"access_status" json:"access_status"`
}

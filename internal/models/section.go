package models

// Section is a journal section articles are submitted into.
type Section struct {
	ID                   int64  `db:"id" json:"id"`
	JournalID            int64  `db:"journal_id" json:"journal_id"`
	Title                string `db:"title" json:"title"`
	Abbrev               string `db:"abbrev" json:"abbrev"`
	Seq                  int64  `db:"seq" json:"seq"`
	AbstractsNotRequired bool   `db:"abstracts_not_required" json:"abstracts_not_required"`
	AbstractWordCount    int    `db:"abstract_word_count" json:"abstract_word_count"`
}

// SectionTitle pairs a section id with its display title, in listing order.
type SectionTitle struct {
	ID    int64  `db:"id" json:"id"`
	Title string `db:"title" json:"title"`
}

// CustomSectionOrder overrides the default section display order within one
// issue. Created lazily the first time a section receives a published article
// in that issue.
type CustomSectionOrder struct {
	IssueID   int64 `db:"issue_id" json:"issue_id"`
	SectionID int64 `db:"section_id" json:"section_id"`
	Seq       int64 `db:"seq" json:"seq"`
}

package models

import "time"

// SubmissionStatus tracks where a submission sits in its editorial life.
type SubmissionStatus int

const (
	StatusQueued    SubmissionStatus = 1
	StatusPublished SubmissionStatus = 3
	StatusDeclined  SubmissionStatus = 4
)

// Workflow stage identifiers.
const (
	StageSubmission int = 1
	StageEditing    int = 4
	StageProduction int = 5
)

// Submission is a draft or accepted article record.
type Submission struct {
	ID                   int64            `db:"id" json:"id"`
	JournalID            int64            `db:"journal_id" json:"journal_id"`
	Locale               string           `db:"locale" json:"locale"`
	Status               SubmissionStatus `db:"status" json:"status"`
	StageID              int              `db:"stage_id" json:"stage_id"`
	Progress             int              `db:"progress" json:"progress"`
	SectionID            int64            `db:"section_id" json:"section_id"`
	CurrentPublicationID *int64           `db:"current_publication_id" json:"current_publication_id,omitempty"`
	DateSubmitted        *time.Time       `db:"date_submitted" json:"date_submitted,omitempty"`
	DateStatusModified   time.Time        `db:"date_status_modified" json:"date_status_modified"`
	CopyrightHolder      string           `db:"copyright_holder" json:"copyright_holder"`
	CopyrightYear        *int             `db:"copyright_year" json:"copyright_year,omitempty"`
	LicenseURL           string           `db:"license_url" json:"license_url"`
	Pages                string           `db:"pages" json:"pages"`
	CreatedAt            time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time        `db:"updated_at" json:"updated_at"`
}

// StageAssignment grants a user editorial authority over a submission's
// workflow under a user group. The group may be null when the submitter holds
// no manager role in the journal.
type StageAssignment struct {
	ID           int64     `db:"id" json:"id"`
	SubmissionID int64     `db:"submission_id" json:"submission_id"`
	UserGroupID  *int64    `db:"user_group_id" json:"user_group_id,omitempty"`
	UserID       int64     `db:"user_id" json:"user_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

package dto

import (
	"github.com/haryzobo/quickSubmit/internal/models"
)

// AuthorInput is one contributor row from the metadata sub-form.
type AuthorInput struct {
	GivenName   string `json:"givenName" validate:"required"`
	FamilyName  string `json:"familyName"`
	Email       string `json:"email" validate:"omitempty,email"`
	Affiliation string `json:"affiliation"`
}

// SubmissionMetadata carries the metadata sub-form fields. The intake flow
// treats the set as opaque beyond persisting it onto the current publication.
type SubmissionMetadata struct {
	Title    map[string]string `json:"title" validate:"required"`
	Abstract map[string]string `json:"abstract"`
	Keywords []string          `json:"keywords"`
	Authors  []AuthorInput     `json:"authors" validate:"dive"`
}

// QuickSubmitRequest is the bound field surface of the quick-submit form.
// articleStatus: 0 = queued/unpublished, 1 = published into an issue.
type QuickSubmitRequest struct {
	SubmissionID    int64              `json:"submissionId"`
	SectionID       int64              `json:"sectionId" validate:"required,gt=0"`
	IssueID         int64              `json:"issueId"`
	Pages           string             `json:"pages"`
	DatePublished   string             `json:"datePublished"`
	LicenseURL      string             `json:"licenseURL" validate:"omitempty,url"`
	CopyrightHolder string             `json:"copyrightHolder"`
	CopyrightYear   int                `json:"copyrightYear"`
	ArticleStatus   int                `json:"articleStatus" validate:"oneof=0 1"`
	Locale          string             `json:"locale" validate:"required"`
	Metadata        SubmissionMetadata `json:"metadata"`
}

// DraftRequest opens a quick-submit session. SubmissionID resumes an existing
// draft; zero creates a new one.
type DraftRequest struct {
	JournalID    int64  `json:"journalId" validate:"required,gt=0"`
	Locale       string `json:"locale"`
	SubmissionID int64  `json:"submissionId"`
}

// DraftResponse reports the created or resumed draft.
type DraftResponse struct {
	SubmissionID  int64  `json:"submissionId"`
	PublicationID int64  `json:"publicationId"`
	SectionID     int64  `json:"sectionId"`
	Locale        string `json:"locale"`
}

// ExecuteResponse summarises the committed submission.
type ExecuteResponse struct {
	Submission       *models.Submission       `json:"submission"`
	PublishedArticle *models.PublishedArticle `json:"published_article,omitempty"`
	CopiedFiles      int                      `json:"copied_files"`
}

// FormSupportResponse carries the display-support data for the form: section
// options, issue option groups, locale names and the abstract policy of the
// currently selected section.
type FormSupportResponse struct {
	SectionOptions    []models.SectionTitle `json:"section_options"`
	HasIssues         bool                  `json:"has_issues"`
	IssueOptions      IssueOptionGroups     `json:"issue_options"`
	SupportedLocales  []string              `json:"supported_locales"`
	AbstractWordCount int                   `json:"abstract_word_count"`
	AbstractsRequired bool                  `json:"abstracts_required"`
}

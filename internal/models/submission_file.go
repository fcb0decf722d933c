package models

import "time"

// File stages a submission file can live in.
const (
	FileStageSubmission = 2
	FileStageProof      = 9
	FileStageGalley     = 10
)

// SubmissionFile is a revisioned file attached to a submission at a stage.
type SubmissionFile struct {
	ID           int64     `db:"id" json:"id"`
	SubmissionID int64     `db:"submission_id" json:"submission_id"`
	FileID       int64     `db:"file_id" json:"file_id"`
	Revision     int       `db:"revision" json:"revision"`
	FileStage    int       `db:"file_stage" json:"file_stage"`
	Name         string    `db:"name" json:"name"`
	Path         string    `db:"path" json:"path"`
	MimeType     string    `db:"mime_type" json:"mime_type"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Galley is a production-ready rendition of a publication. FileID is null
// when no file has been uploaded for the galley yet.
type Galley struct {
	ID            int64  `db:"id" json:"id"`
	PublicationID int64  `db:"publication_id" json:"publication_id"`
	Label         string `db:"label" json:"label"`
	Locale        string `db:"locale" json:"locale"`
	FileID        *int64 `db:"file_id" json:"file_id,omitempty"`
	Seq           int64  `db:"seq" json:"seq"`
}

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
)

// LocalizedText maps locale codes to text values. Stored as JSONB.
type LocalizedText map[string]string

// Value implements driver.Valuer.
func (t LocalizedText) Value() (driver.Value, error) {
	if t == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(t)
}

// Scan implements sql.Scanner.
func (t *LocalizedText) Scan(src interface{}) error {
	if src == nil {
		*t = LocalizedText{}
		return nil
	}
	raw, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("localized text: unexpected type %T", src)
	}
	return json.Unmarshal(raw, t)
}

// Get returns the value for the locale, falling back to any available entry.
func (t LocalizedText) Get(locale string) string {
	if v, ok := t[locale]; ok {
		return v
	}
	for _, v := range t {
		return v
	}
	return ""
}

// Publication is a versioned metadata snapshot of a submission. Exactly one
// publication is current per submission at any time.
type Publication struct {
	ID           int64            `db:"id" json:"id"`
	SubmissionID int64            `db:"submission_id" json:"submission_id"`
	Locale       string           `db:"locale" json:"locale"`
	Language     string           `db:"language" json:"language"`
	SectionID    int64            `db:"section_id" json:"section_id"`
	Status       SubmissionStatus `db:"status" json:"status"`
	Title        LocalizedText    `db:"title" json:"title"`
	Abstract     LocalizedText    `db:"abstract" json:"abstract"`
	Keywords     pq.StringArray   `db:"keywords" json:"keywords"`

	Authors []Author `db:"-" json:"authors,omitempty"`
}

// Author is a contributor attached to a publication, kept in display order.
type Author struct {
	ID            int64  `db:"id" json:"id"`
	PublicationID int64  `db:"publication_id" json:"publication_id"`
	GivenName     string `db:"given_name" json:"given_name"`
	FamilyName    string `db:"family_name" json:"family_name"`
	Email         string `db:"email" json:"email"`
	Affiliation   string `db:"affiliation" json:"affiliation"`
	Seq           int64  `db:"seq" json:"seq"`
}

// FullName renders the author's display name.
func (a Author) FullName() string {
	if a.FamilyName == "" {
		return a.GivenName
	}
	return a.GivenName + " " + a.FamilyName
}

package models

import "time"

// Journal is the tenant owning sections, issues and submissions.
type Journal struct {
	ID            int64     `db:"id" json:"id"`
	Path          string    `db:"path" json:"path"`
	Name          string    `db:"name" json:"name"`
	PrimaryLocale string    `db:"primary_locale" json:"primary_locale"`
	Enabled       bool      `db:"enabled" json:"enabled"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`

	// SupportedLocales lists the locales submissions may be made in. Loaded
	// from journal_settings alongside the row; empty means "primary only".
	SupportedLocales []string `db:"-" json:"supported_locales"`
}

// SubmissionLocales returns the locales accepted for new submissions, falling
// back to the primary locale when none are configured.
func (j *Journal) SubmissionLocales() []string {
	if len(j.SupportedLocales) > 0 {
		return j.SupportedLocales
	}
	return []string{j.PrimaryLocale}
}

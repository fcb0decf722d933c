package models

import (
	"fmt"
	"strings"
	"time"
)

// Issue is a published or planned collection of articles.
type Issue struct {
	ID            int64      `db:"id" json:"id"`
	JournalID     int64      `db:"journal_id" json:"journal_id"`
	Volume        int        `db:"volume" json:"volume"`
	Number        string     `db:"number" json:"number"`
	Year          int        `db:"year" json:"year"`
	Title         string     `db:"title" json:"title"`
	Published     bool       `db:"published" json:"published"`
	Current       bool       `db:"current" json:"current"`
	DatePublished *time.Time `db:"date_published" json:"date_published,omitempty"`
}

// Identification renders the human-readable issue label, e.g.
// "Vol. 12 No. 3 (2024): Special Issue".
func (i *Issue) Identification() string {
	parts := make([]string, 0, 3)
	if i.Volume > 0 {
		parts = append(parts, fmt.Sprintf("Vol. %d", i.Volume))
	}
	if i.Number != "" {
		parts = append(parts, fmt.Sprintf("No. %s", i.Number))
	}
	label := strings.Join(parts, " ")
	if i.Year > 0 {
		if label == "" {
			label = fmt.Sprintf("(%d)", i.Year)
		} else {
			label = fmt.Sprintf("%s (%d)", label, i.Year)
		}
	}
	if i.Title != "" {
		if label == "" {
			return i.Title
		}
		return fmt.Sprintf("%s: %s", label, i.Title)
	}
	return label
}

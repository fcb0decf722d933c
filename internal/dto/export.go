package dto

import (
	"time"

	"github.com/haryzobo/quickSubmit/internal/models"
)

// ExportRequest asks for an issue TOC export in the given format.
type ExportRequest struct {
	Format models.ExportFormat `json:"format" validate:"required,oneof=csv pdf"`
}

// ExportJobResponse acknowledges a queued export.
type ExportJobResponse struct {
	ID     string              `json:"id"`
	Status models.ExportStatus `json:"status"`
}

// ExportStatusResponse reports job progress and, once done, a signed
// download URL.
type ExportStatusResponse struct {
	ID           string              `json:"id"`
	Status       models.ExportStatus `json:"status"`
	ErrorMessage *string             `json:"error_message,omitempty"`
	DownloadURL  *string             `json:"download_url,omitempty"`
	ExpiresAt    *time.Time          `json:"expires_at,omitempty"`
}

package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/haryzobo/quickSubmit/internal/dto"
	"github.com/haryzobo/quickSubmit/internal/models"
	appErrors "github.com/haryzobo/quickSubmit/pkg/errors"
	"github.com/haryzobo/quickSubmit/pkg/response"
)

type intakeService interface {
	InitDraft(ctx context.Context, req dto.DraftRequest, actor *models.JWTClaims) (*dto.DraftResponse, error)
	Execute(ctx context.Context, journalID int64, req dto.QuickSubmitRequest, actor *models.JWTClaims) (*dto.ExecuteResponse, error)
	Cancel(ctx context.Context, journalID, submissionID int64, actor *models.JWTClaims) error
	FormSupport(ctx context.Context, journalID, sectionID int64) (*dto.FormSupportResponse, error)
}

type intakeMetrics interface {
	RecordDraftCreated()
	RecordCommit(published bool)
}

// SubmissionHandler exposes the quick-submit endpoints.
type SubmissionHandler struct {
	service intakeService
	metrics intakeMetrics
}

// NewSubmissionHandler builds a new handler. metrics may be nil.
func NewSubmissionHandler(service intakeService, metrics intakeMetrics) *SubmissionHandler {
	return &SubmissionHandler{service: service, metrics: metrics}
}

// CreateDraft godoc
// @Summary Open a quick-submit draft
// @Tags Submissions
// @Accept json
// @Produce json
// @Param payload body dto.DraftRequest true "Draft payload"
// @Success 201 {object} response.Envelope
// @Router /submissions/drafts [post]
func (h *SubmissionHandler) CreateDraft(c *gin.Context) {
	claims := claimsFromContext(c)
	var req dto.DraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid draft payload"))
		return
	}
	resp, err := h.service.InitDraft(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil && req.SubmissionID == 0 {
		h.metrics.RecordDraftCreated()
	}
	response.Created(c, resp)
}

// Execute godoc
// @Summary Commit a quick submission
// @Tags Submissions
// @Accept json
// @Produce json
// @Param id path int true "Submission ID"
// @Param journalId query int true "Journal ID"
// @Param payload body dto.QuickSubmitRequest true "Submission payload"
// @Success 200 {object} response.Envelope
// @Router /submissions/{id} [put]
func (h *SubmissionHandler) Execute(c *gin.Context) {
	claims := claimsFromContext(c)
	submissionID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	journalID, err := queryID(c, "journalId")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.QuickSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submission payload"))
		return
	}
	req.SubmissionID = submissionID

	resp, err := h.service.Execute(c.Request.Context(), journalID, req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordCommit(resp.PublishedArticle != nil)
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Cancel godoc
// @Summary Cancel a quick-submit draft
// @Tags Submissions
// @Param id path int true "Submission ID"
// @Param journalId query int true "Journal ID"
// @Success 204
// @Router /submissions/{id} [delete]
func (h *SubmissionHandler) Cancel(c *gin.Context) {
	claims := claimsFromContext(c)
	submissionID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	journalID, err := queryID(c, "journalId")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Cancel(c.Request.Context(), journalID, submissionID, claims); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// FormSupport godoc
// @Summary Form display-support data
// @Tags Submissions
// @Produce json
// @Param journalId query int true "Journal ID"
// @Param sectionId query int false "Selected section ID"
// @Success 200 {object} response.Envelope
// @Router /submissions/form-support [get]
func (h *SubmissionHandler) FormSupport(c *gin.Context) {
	journalID, err := queryID(c, "journalId")
	if err != nil {
		response.Error(c, err)
		return
	}
	sectionID := int64(0)
	if raw := c.Query("sectionId"); raw != "" {
		sectionID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "sectionId must be numeric"))
			return
		}
	}
	resp, err := h.service.FormSupport(c.Request.Context(), journalID, sectionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, name+" must be a positive integer")
	}
	return id, nil
}

func queryID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Query(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, name+" must be a positive integer")
	}
	return id, nil
}

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/haryzobo/quickSubmit/internal/dto"
	"github.com/haryzobo/quickSubmit/pkg/response"
)

type issueOptionsService interface {
	Build(ctx context.Context, journalID int64) (dto.IssueOptionGroups, error)
}

// IssueHandler exposes issue option endpoints.
type IssueHandler struct {
	service issueOptionsService
}

// NewIssueHandler builds a new handler.
func NewIssueHandler(service issueOptionsService) *IssueHandler {
	return &IssueHandler{service: service}
}

// Options godoc
// @Summary Issue options grouped for selection
// @Tags Issues
// @Produce json
// @Param journalId query int true "Journal ID"
// @Success 200 {object} response.Envelope
// @Router /issues/options [get]
func (h *IssueHandler) Options(c *gin.Context) {
	journalID, err := queryID(c, "journalId")
	if err != nil {
		response.Error(c, err)
		return
	}
	groups, err := h.service.Build(c.Request.Context(), journalID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, nil)
}

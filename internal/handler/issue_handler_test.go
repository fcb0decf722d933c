package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haryzobo/quickSubmit/internal/dto"
)

type issueOptionsServiceMock struct {
	groups    dto.IssueOptionGroups
	err       error
	journalID int64
	called    bool
}

func (m *issueOptionsServiceMock) Build(ctx context.Context, journalID int64) (dto.IssueOptionGroups, error) {
	m.called = true
	m.journalID = journalID
	return m.groups, m.err
}

func TestIssueHandlerOptions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	current := dto.IssueOption{ID: 3, Label: "Vol. 3 (2024)"}
	mockSvc := &issueOptionsServiceMock{groups: dto.IssueOptionGroups{
		Future:  []dto.IssueOption{{ID: 10, Label: "Vol. 10"}},
		Current: &current,
		Back:    []dto.IssueOption{},
		Dates:   map[int64]string{3: "2024-06-01"},
	}}
	handler := NewIssueHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/issues/options?journalId=1", nil)
	c.Request = req

	handler.Options(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.called)
	assert.Equal(t, int64(1), mockSvc.journalID)
	assert.Contains(t, w.Body.String(), "Vol. 3 (2024)")
}

func TestIssueHandlerOptionsMissingJournalID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &issueOptionsServiceMock{}
	handler := NewIssueHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/issues/options", nil)
	c.Request = req

	handler.Options(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mockSvc.called)
}

func TestIssueHandlerOptionsServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &issueOptionsServiceMock{err: errors.New("db gone")}
	handler := NewIssueHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/issues/options?journalId=1", nil)
	c.Request = req

	handler.Options(c)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

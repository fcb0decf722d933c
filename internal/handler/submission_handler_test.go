package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haryzobo/quickSubmit/internal/dto"
	"github.com/haryzobo/quickSubmit/internal/middleware"
	"github.com/haryzobo/quickSubmit/internal/models"
	appErrors "github.com/haryzobo/quickSubmit/pkg/errors"
)

type intakeServiceMock struct {
	draftResp   *dto.DraftResponse
	draftErr    error
	execResp    *dto.ExecuteResponse
	execErr     error
	cancelErr   error
	supportResp *dto.FormSupportResponse

	draftReq      dto.DraftRequest
	execReq       dto.QuickSubmitRequest
	execJournalID int64
	cancelled     [2]int64
	draftCalled   bool
	execCalled    bool
	cancelCalled  bool
}

func (m *intakeServiceMock) InitDraft(ctx context.Context, req dto.DraftRequest, actor *models.JWTClaims) (*dto.DraftResponse, error) {
	m.draftCalled = true
	m.draftReq = req
	return m.draftResp, m.draftErr
}

func (m *intakeServiceMock) Execute(ctx context.Context, journalID int64, req dto.QuickSubmitRequest, actor *models.JWTClaims) (*dto.ExecuteResponse, error) {
	m.execCalled = true
	m.execJournalID = journalID
	m.execReq = req
	return m.execResp, m.execErr
}

func (m *intakeServiceMock) Cancel(ctx context.Context, journalID, submissionID int64, actor *models.JWTClaims) error {
	m.cancelCalled = true
	m.cancelled = [2]int64{journalID, submissionID}
	return m.cancelErr
}

func (m *intakeServiceMock) FormSupport(ctx context.Context, journalID, sectionID int64) (*dto.FormSupportResponse, error) {
	return m.supportResp, nil
}

type intakeMetricsMock struct {
	drafts  int
	commits []bool
}

func (m *intakeMetricsMock) RecordDraftCreated() {
	m.drafts++
}

func (m *intakeMetricsMock) RecordCommit(published bool) {
	m.commits = append(m.commits, published)
}

func submissionTestContext(t *testing.T, method, target string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: 7, Role: models.RoleManager})
	return c, w
}

func TestSubmissionHandlerCreateDraft(t *testing.T) {
	mockSvc := &intakeServiceMock{draftResp: &dto.DraftResponse{SubmissionID: 10, PublicationID: 20, Locale: "en_US"}}
	metrics := &intakeMetricsMock{}
	handler := NewSubmissionHandler(mockSvc, metrics)

	c, w := submissionTestContext(t, http.MethodPost, "/submissions/drafts", dto.DraftRequest{JournalID: 1})
	handler.CreateDraft(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, mockSvc.draftCalled)
	assert.Equal(t, int64(1), mockSvc.draftReq.JournalID)
	assert.Equal(t, 1, metrics.drafts)
}

func TestSubmissionHandlerCreateDraftResumeSkipsMetric(t *testing.T) {
	mockSvc := &intakeServiceMock{draftResp: &dto.DraftResponse{SubmissionID: 10}}
	metrics := &intakeMetricsMock{}
	handler := NewSubmissionHandler(mockSvc, metrics)

	c, w := submissionTestContext(t, http.MethodPost, "/submissions/drafts", dto.DraftRequest{JournalID: 1, SubmissionID: 10})
	handler.CreateDraft(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Zero(t, metrics.drafts)
}

func TestSubmissionHandlerCreateDraftInvalidBody(t *testing.T) {
	handler := NewSubmissionHandler(&intakeServiceMock{}, nil)

	c, w := submissionTestContext(t, http.MethodPost, "/submissions/drafts", nil)
	c.Request.Body = http.NoBody
	handler.CreateDraft(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmissionHandlerExecute(t *testing.T) {
	published := &models.PublishedArticle{ID: 10, IssueID: 3}
	mockSvc := &intakeServiceMock{execResp: &dto.ExecuteResponse{PublishedArticle: published}}
	metrics := &intakeMetricsMock{}
	handler := NewSubmissionHandler(mockSvc, metrics)

	c, w := submissionTestContext(t, http.MethodPut, "/submissions/10?journalId=1", dto.QuickSubmitRequest{
		SectionID: 2, ArticleStatus: 1, IssueID: 3, Locale: "en_US",
		Metadata: dto.SubmissionMetadata{Title: map[string]string{"en_US": "A Study"}},
	})
	c.Params = gin.Params{{Key: "id", Value: "10"}}
	handler.Execute(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.execCalled)
	assert.Equal(t, int64(1), mockSvc.execJournalID)
	assert.Equal(t, int64(10), mockSvc.execReq.SubmissionID)
	assert.Equal(t, []bool{true}, metrics.commits)
}

func TestSubmissionHandlerExecuteBadSubmissionID(t *testing.T) {
	mockSvc := &intakeServiceMock{}
	handler := NewSubmissionHandler(mockSvc, nil)

	c, w := submissionTestContext(t, http.MethodPut, "/submissions/abc?journalId=1", dto.QuickSubmitRequest{})
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	handler.Execute(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mockSvc.execCalled)
}

func TestSubmissionHandlerExecuteServiceError(t *testing.T) {
	mockSvc := &intakeServiceMock{execErr: appErrors.Clone(appErrors.ErrNotFound, "submission not found")}
	metrics := &intakeMetricsMock{}
	handler := NewSubmissionHandler(mockSvc, metrics)

	c, w := submissionTestContext(t, http.MethodPut, "/submissions/10?journalId=1", dto.QuickSubmitRequest{
		SectionID: 2, Locale: "en_US",
		Metadata: dto.SubmissionMetadata{Title: map[string]string{"en_US": "A Study"}},
	})
	c.Params = gin.Params{{Key: "id", Value: "10"}}
	handler.Execute(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, metrics.commits)
}

func TestSubmissionHandlerCancel(t *testing.T) {
	mockSvc := &intakeServiceMock{}
	handler := NewSubmissionHandler(mockSvc, nil)

	c, w := submissionTestContext(t, http.MethodDelete, "/submissions/10?journalId=1", nil)
	c.Params = gin.Params{{Key: "id", Value: "10"}}
	handler.Cancel(c)
	c.Writer.WriteHeaderNow()

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, mockSvc.cancelCalled)
	assert.Equal(t, [2]int64{1, 10}, mockSvc.cancelled)
}

func TestSubmissionHandlerCancelMissingJournalID(t *testing.T) {
	mockSvc := &intakeServiceMock{}
	handler := NewSubmissionHandler(mockSvc, nil)

	c, w := submissionTestContext(t, http.MethodDelete, "/submissions/10", nil)
	c.Params = gin.Params{{Key: "id", Value: "10"}}
	handler.Cancel(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mockSvc.cancelCalled)
}

func TestSubmissionHandlerFormSupport(t *testing.T) {
	mockSvc := &intakeServiceMock{supportResp: &dto.FormSupportResponse{
		SectionOptions: []models.SectionTitle{{ID: 2, Title: "Articles"}},
		HasIssues:      true,
	}}
	handler := NewSubmissionHandler(mockSvc, nil)

	c, w := submissionTestContext(t, http.MethodGet, "/submissions/form-support?journalId=1&sectionId=2", nil)
	handler.FormSupport(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Articles")
}

func TestSubmissionHandlerFormSupportBadSectionID(t *testing.T) {
	handler := NewSubmissionHandler(&intakeServiceMock{}, nil)

	c, w := submissionTestContext(t, http.MethodGet, "/submissions/form-support?journalId=1&sectionId=abc", nil)
	handler.FormSupport(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hr-onboarding-api/internal/llm"
	"github.com/noah-isme/hr-onboarding-api/internal/middleware"
	"github.com/noah-isme/hr-onboarding-api/internal/models"
	"github.com/noah-isme/hr-onboarding-api/internal/service"
	appErrors "github.com/noah-isme/hr-onboarding-api/pkg/errors"
)

type documentServiceMock struct {
	uploadInput  service.UploadInput
	uploadActor  service.Actor
	uploadResult *service.UploadResult
	uploadErr    error
	listFilter   models.DocumentFilter
	verifyStatus models.VerificationStatus
	verifyNotes  *string
	downloadBody string
	downloadErr  error
	deleteErr    error
}

func (m *documentServiceMock) Upload(_ context.Context, actor service.Actor, input service.UploadInput) (*service.UploadResult, error) {
	m.uploadActor = actor
	m.uploadInput = input
	if input.Content != nil {
		_, _ = io.ReadAll(input.Content)
	}
	return m.uploadResult, m.uploadErr
}

func (m *documentServiceMock) List(_ context.Context, _ service.Actor, filter models.DocumentFilter) ([]models.Document, *models.Pagination, error) {
	m.listFilter = filter
	return []models.Document{{ID: "d1"}}, &models.Pagination{Page: 1, PageSize: 50, TotalCount: 1}, nil
}

func (m *documentServiceMock) Get(_ context.Context, _ service.Actor, id string) (*service.DocumentDetail, error) {
	return &service.DocumentDetail{Document: &models.Document{ID: id}, DownloadURL: "/api/v1/documents/" + id + "/download?token=t"}, nil
}

func (m *documentServiceMock) Download(_ context.Context, id, _ string) (io.ReadCloser, *models.Document, error) {
	if m.downloadErr != nil {
		return nil, nil, m.downloadErr
	}
	doc := &models.Document{ID: id, OriginalFilename: "pan.pdf", MimeType: "application/pdf", FileSize: int64(len(m.downloadBody))}
	return io.NopCloser(strings.NewReader(m.downloadBody)), doc, nil
}

func (m *documentServiceMock) Verify(_ context.Context, _ service.Actor, id string, status models.VerificationStatus, notes *string) (*models.Document, error) {
	m.verifyStatus = status
	m.verifyNotes = notes
	return &models.Document{ID: id, VerificationStatus: status}, nil
}

func (m *documentServiceMock) AIAnalysis(_ context.Context, _ service.Actor, id string) (*service.AIAnalysis, error) {
	return &service.AIAnalysis{DocumentID: id, Analysis: map[string]any{"status": "not_processed"}}, nil
}

func (m *documentServiceMock) Reprocess(_ context.Context, _ service.Actor, id string) (*models.Document, service.PipelineOutcome, error) {
	return &models.Document{ID: id}, service.PipelineOutcome{State: service.StateMaskedAndStored}, nil
}

func (m *documentServiceMock) Delete(context.Context, service.Actor, string) error {
	return m.deleteErr
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext(method, target string, body io.Reader, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, target, body)
	c.Request = req
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, w
}

func hrClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "hr-1", Role: models.RoleHR}
}

func employeeClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "emp-1", Role: models.RoleEmployee}
}

func multipartUpload(t *testing.T, fields map[string]string, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

func TestDocumentUploadProcessedInline(t *testing.T) {
	svc := &documentServiceMock{uploadResult: &service.UploadResult{
		Document: &models.Document{ID: "doc-1"},
		Outcome:  &service.PipelineOutcome{State: service.StateAIFailedLogged, Degraded: true},
	}}
	h := NewDocumentHandler(svc, nil)
	body, contentType := multipartUpload(t, map[string]string{"document_type": "pan", "related_task_id": "task-7"}, "pan.pdf", "%PDF-1.4")
	c, w := newTestContext(http.MethodPost, "/documents", body, employeeClaims())
	c.Request.Header.Set("Content-Type", contentType)

	h.Upload(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "pan", svc.uploadInput.DocumentType)
	assert.Equal(t, "pan.pdf", svc.uploadInput.Filename)
	require.NotNil(t, svc.uploadInput.RelatedTaskID)
	assert.Equal(t, "task-7", *svc.uploadInput.RelatedTaskID)
	assert.Equal(t, "emp-1", svc.uploadActor.ID)

	data := decodeEnvelope(t, w)["data"].(map[string]any)
	assert.Equal(t, "ai_failed_logged", data["processing_state"])
	assert.Equal(t, true, data["ai_degraded"])
}

func TestDocumentUploadQueued(t *testing.T) {
	svc := &documentServiceMock{uploadResult: &service.UploadResult{Document: &models.Document{ID: "doc-1"}, Queued: true}}
	h := NewDocumentHandler(svc, nil)
	body, contentType := multipartUpload(t, map[string]string{"document_type": "resume"}, "cv.pdf", "cv")
	c, w := newTestContext(http.MethodPost, "/documents", body, hrClaims())
	c.Request.Header.Set("Content-Type", contentType)

	h.Upload(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	data := decodeEnvelope(t, w)["data"].(map[string]any)
	assert.Equal(t, "uploaded", data["processing_state"])
	assert.Equal(t, true, data["queued"])
}

func TestDocumentUploadValidation(t *testing.T) {
	svc := &documentServiceMock{}
	h := NewDocumentHandler(svc, nil)

	body, contentType := multipartUpload(t, map[string]string{}, "pan.pdf", "x")
	c, w := newTestContext(http.MethodPost, "/documents", body, employeeClaims())
	c.Request.Header.Set("Content-Type", contentType)
	h.Upload(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body, contentType = multipartUpload(t, map[string]string{"document_type": "pan"}, "", "")
	c, w = newTestContext(http.MethodPost, "/documents", body, employeeClaims())
	c.Request.Header.Set("Content-Type", contentType)
	h.Upload(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "file is required")

	body, contentType = multipartUpload(t, map[string]string{"document_type": "pan"}, "pan.pdf", "x")
	c, w = newTestContext(http.MethodPost, "/documents", body, nil)
	c.Request.Header.Set("Content-Type", contentType)
	h.Upload(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDocumentUploadInvalidCategory(t *testing.T) {
	svc := &documentServiceMock{uploadErr: appErrors.Clone(appErrors.ErrInvalidCategory, "Invalid document type")}
	h := NewDocumentHandler(svc, nil)
	body, contentType := multipartUpload(t, map[string]string{"document_type": "passport"}, "p.pdf", "x")
	c, w := newTestContext(http.MethodPost, "/documents", body, employeeClaims())
	c.Request.Header.Set("Content-Type", contentType)

	h.Upload(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_CATEGORY")
}

func TestDocumentListBindsFilters(t *testing.T) {
	svc := &documentServiceMock{}
	h := NewDocumentHandler(svc, nil)
	c, w := newTestContext(http.MethodGet, "/documents?page=2&page_size=10&document_type=pan&verification_status=pending", nil, hrClaims())

	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, svc.listFilter.Page)
	assert.Equal(t, 10, svc.listFilter.PageSize)
	assert.Equal(t, models.CategoryPAN, svc.listFilter.DocumentType)
	assert.Equal(t, models.VerificationPending, svc.listFilter.VerificationStatus)
	assert.NotNil(t, decodeEnvelope(t, w)["pagination"])

	c, w = newTestContext(http.MethodGet, "/documents?verification_status=archived", nil, hrClaims())
	h.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDocumentVerify(t *testing.T) {
	svc := &documentServiceMock{}
	h := NewDocumentHandler(svc, nil)
	c, w := newTestContext(http.MethodPatch, "/documents/d1/verify", strings.NewReader(`{"status":"verified","notes":"looks good"}`), hrClaims())
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "d1"}}

	h.Verify(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.VerificationVerified, svc.verifyStatus)
	require.NotNil(t, svc.verifyNotes)
	assert.Equal(t, "looks good", *svc.verifyNotes)

	c, w = newTestContext(http.MethodPatch, "/documents/d1/verify", strings.NewReader(`{"status":"pending"}`), hrClaims())
	c.Request.Header.Set("Content-Type", "application/json")
	h.Verify(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	details := decodeEnvelope(t, w)["error"].(map[string]any)["details"].(map[string]any)
	assert.Equal(t, "must be one of verified rejected", details["status"])
}

func TestDocumentDownload(t *testing.T) {
	svc := &documentServiceMock{downloadBody: "%PDF-bytes"}
	h := NewDocumentHandler(svc, nil)

	c, w := newTestContext(http.MethodGet, "/documents/d1/download", nil, nil)
	h.Download(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newTestContext(http.MethodGet, "/documents/d1/download?token=abc", nil, nil)
	c.Params = gin.Params{{Key: "id", Value: "d1"}}
	h.Download(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "%PDF-bytes", w.Body.String())
	assert.Equal(t, `attachment; filename="pan.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))

	svc.downloadErr = appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download link")
	c, w = newTestContext(http.MethodGet, "/documents/d1/download?token=bad", nil, nil)
	h.Download(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDocumentDelete(t *testing.T) {
	svc := &documentServiceMock{}
	h := NewDocumentHandler(svc, nil)
	c, _ := newTestContext(http.MethodDelete, "/documents/d1", nil, hrClaims())

	h.Delete(c)
	assert.Equal(t, http.StatusNoContent, c.Writer.Status())

	svc.deleteErr = appErrors.ErrForbidden
	c, w := newTestContext(http.MethodDelete, "/documents/d1", nil, employeeClaims())
	h.Delete(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

type profileServiceMock struct {
	err error
}

func (m *profileServiceMock) Assemble(_ context.Context, employeeID string) (*models.OnboardingProfile, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.OnboardingProfile{Employee: models.EmployeeSummary{ID: employeeID, Name: "Asha"}}, nil
}

type exporterMock struct {
	format string
}

func (m *exporterMock) Profile(_ context.Context, employeeID, format string) (*service.ExportFile, error) {
	m.format = format
	if format == "xlsx" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be pdf or csv")
	}
	return &service.ExportFile{Filename: "onboarding_profile_" + employeeID + ".csv", ContentType: "text/csv", Data: []byte("a,b\n")}, nil
}

func TestEmployeeProfile(t *testing.T) {
	h := NewEmployeeHandler(&profileServiceMock{}, &exporterMock{})
	c, w := newTestContext(http.MethodGet, "/employees/emp-1/profile", nil, employeeClaims())
	c.Params = gin.Params{{Key: "id", Value: "emp-1"}}

	h.Profile(c)

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)["data"].(map[string]any)
	assert.Equal(t, "Asha", data["employee"].(map[string]any)["name"])

	h = NewEmployeeHandler(&profileServiceMock{err: appErrors.Clone(appErrors.ErrNotFound, "employee not found")}, &exporterMock{})
	c, w = newTestContext(http.MethodGet, "/employees/ghost/profile", nil, hrClaims())
	h.Profile(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEmployeeExportProfile(t *testing.T) {
	exporter := &exporterMock{}
	h := NewEmployeeHandler(&profileServiceMock{}, exporter)

	c, w := newTestContext(http.MethodGet, "/employees/emp-1/profile/export?format=csv", nil, hrClaims())
	c.Params = gin.Params{{Key: "id", Value: "emp-1"}}
	h.ExportProfile(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a,b\n", w.Body.String())
	assert.Equal(t, `attachment; filename="onboarding_profile_emp-1.csv"`, w.Header().Get("Content-Disposition"))

	c, _ = newTestContext(http.MethodGet, "/employees/emp-1/profile/export", nil, hrClaims())
	h.ExportProfile(c)
	assert.Equal(t, service.ExportFormatPDF, exporter.format)

	c, w = newTestContext(http.MethodGet, "/employees/emp-1/profile/export?format=xlsx", nil, hrClaims())
	h.ExportProfile(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type assistantMock struct {
	query     string
	employee  string
	message   string
	history   []service.ChatTurn
	analyzed  string
	answerErr error
}

func (m *assistantMock) Answer(_ context.Context, query string) (*service.AssistantResult, error) {
	m.query = query
	if m.answerErr != nil {
		return nil, m.answerErr
	}
	return &service.AssistantResult{Data: map[string]any{"answer": "ok"}, Source: llm.SourceLive}, nil
}

func (m *assistantMock) Chat(_ context.Context, employeeID, message string, history []service.ChatTurn) (*service.AssistantResult, error) {
	m.employee, m.message, m.history = employeeID, message, history
	return &service.AssistantResult{Data: map[string]any{"reply": "hi"}, Source: llm.SourceFallback}, nil
}

func (m *assistantMock) Analyze(_ context.Context, employeeID string) (*service.AssistantResult, error) {
	m.analyzed = employeeID
	return &service.AssistantResult{Data: map[string]any{"recommended_status": "in_progress"}, Source: llm.SourceMock}, nil
}

func TestAssistantHRQuery(t *testing.T) {
	mock := &assistantMock{}
	h := NewAssistantHandler(mock, mock, mock, nil)

	c, w := newTestContext(http.MethodPost, "/assistants/hr/query", strings.NewReader(`{"query":"who is stuck?"}`), hrClaims())
	c.Request.Header.Set("Content-Type", "application/json")
	h.HRQuery(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "who is stuck?", mock.query)
	envelope := decodeEnvelope(t, w)
	assert.Equal(t, "live", envelope["meta"].(map[string]any)["source"])

	c, w = newTestContext(http.MethodPost, "/assistants/hr/query", strings.NewReader(`{"query":""}`), hrClaims())
	c.Request.Header.Set("Content-Type", "application/json")
	h.HRQuery(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	mock.answerErr = errors.New("boom")
	c, w = newTestContext(http.MethodPost, "/assistants/hr/query", strings.NewReader(`{"query":"x"}`), hrClaims())
	c.Request.Header.Set("Content-Type", "application/json")
	h.HRQuery(c)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAssistantEmployeeChat(t *testing.T) {
	mock := &assistantMock{}
	h := NewAssistantHandler(mock, mock, mock, nil)
	payload := `{"message":"what next?","history":[{"user":"hello","bot":"hi there"}]}`
	c, w := newTestContext(http.MethodPost, "/assistants/employee/chat", strings.NewReader(payload), employeeClaims())
	c.Request.Header.Set("Content-Type", "application/json")

	h.EmployeeChat(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "emp-1", mock.employee)
	assert.Equal(t, "what next?", mock.message)
	assert.Equal(t, []service.ChatTurn{{User: "hello", Bot: "hi there"}}, mock.history)
	assert.Equal(t, true, decodeEnvelope(t, w)["meta"].(map[string]any)["ai_degraded"])
}

func TestAssistantAnalyzeOnboarding(t *testing.T) {
	mock := &assistantMock{}
	h := NewAssistantHandler(mock, mock, mock, nil)
	c, w := newTestContext(http.MethodPost, "/onboarding/emp-3/analyze", nil, hrClaims())
	c.Params = gin.Params{{Key: "id", Value: "emp-3"}}

	h.AnalyzeOnboarding(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "emp-3", mock.analyzed)
}

type pingerStub struct {
	err error
}

func (p pingerStub) PingContext(context.Context) error {
	return p.err
}

func TestMetricsHandlerProbes(t *testing.T) {
	h := NewMetricsHandler(service.NewMetricsService(), "mock", map[string]Pinger{"database": pingerStub{}, "redis": pingerStub{}})

	c, w := newTestContext(http.MethodGet, "/health", nil, nil)
	h.Health(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ai_mode":"mock"`)

	c, w = newTestContext(http.MethodGet, "/ready", nil, nil)
	h.Ready(c)
	assert.Equal(t, http.StatusOK, w.Code)

	h = NewMetricsHandler(nil, "live", map[string]Pinger{"database": pingerStub{}, "redis": pingerStub{err: errors.New("connection refused")}})
	c, w = newTestContext(http.MethodGet, "/ready", nil, nil)
	h.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, "ok", body["database"])
	assert.Equal(t, "connection refused", body["redis"])

	c, w = newTestContext(http.MethodGet, "/metrics", nil, nil)
	h.Prometheus(c)
	assert.Equal(t, http.StatusServiceUnavailable, c.Writer.Status())
}

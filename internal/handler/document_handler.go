package handler

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/hr-onboarding-api/internal/dto"
	"github.com/noah-isme/hr-onboarding-api/internal/models"
	"github.com/noah-isme/hr-onboarding-api/internal/service"
	appErrors "github.com/noah-isme/hr-onboarding-api/pkg/errors"
	"github.com/noah-isme/hr-onboarding-api/pkg/response"
)

type documentService interface {
	Upload(ctx context.Context, actor service.Actor, input service.UploadInput) (*service.UploadResult, error)
	List(ctx context.Context, actor service.Actor, filter models.DocumentFilter) ([]models.Document, *models.Pagination, error)
	Get(ctx context.Context, actor service.Actor, id string) (*service.DocumentDetail, error)
	Download(ctx context.Context, id, token string) (io.ReadCloser, *models.Document, error)
	Verify(ctx context.Context, actor service.Actor, id string, status models.VerificationStatus, notes *string) (*models.Document, error)
	AIAnalysis(ctx context.Context, actor service.Actor, id string) (*service.AIAnalysis, error)
	Reprocess(ctx context.Context, actor service.Actor, id string) (*models.Document, service.PipelineOutcome, error)
	Delete(ctx context.Context, actor service.Actor, id string) error
}

// DocumentHandler exposes onboarding document endpoints.
type DocumentHandler struct {
	service  documentService
	validate *validator.Validate
}

// NewDocumentHandler constructs the handler.
func NewDocumentHandler(service documentService, validate *validator.Validate) *DocumentHandler {
	if validate == nil {
		validate = NewValidator()
	}
	return &DocumentHandler{service: service, validate: validate}
}

// Upload godoc
// @Summary Upload an onboarding document
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param document_type formData string true "aadhaar, pan, resume, offer_letter, pf_form, photo or other"
// @Param related_task_id formData string false "Onboarding task the upload satisfies"
// @Param employee_id formData string false "Owner, HR only"
// @Param file formData file true "Document"
// @Success 201 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Router /documents [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UploadDocumentRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid upload payload"))
		return
	}
	if err := validateRequest(h.validate, req, "document_type is required"); err != nil {
		response.Error(c, err)
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
		return
	}
	defer src.Close()

	input := service.UploadInput{
		EmployeeID:   req.EmployeeID,
		DocumentType: req.DocumentType,
		Filename:     fileHeader.Filename,
		MimeType:     fileHeader.Header.Get("Content-Type"),
		Size:         fileHeader.Size,
		Content:      src,
	}
	if taskID := strings.TrimSpace(req.RelatedTaskID); taskID != "" {
		input.RelatedTaskID = &taskID
	}
	result, err := h.service.Upload(c.Request.Context(), actor, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	payload := dto.UploadDocumentResponse{Document: result.Document, Queued: result.Queued}
	if result.Queued {
		payload.ProcessingState = string(service.StateUploaded)
		payload.Message = "Document uploaded, AI processing queued"
		response.Accepted(c, payload)
		return
	}
	if result.Outcome != nil {
		payload.ProcessingState = string(result.Outcome.State)
		payload.AIDegraded = result.Outcome.Degraded
	}
	payload.Message = "Document uploaded and processed"
	response.Created(c, payload)
}

// List godoc
// @Summary List documents
// @Tags Documents
// @Produce json
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Param employee_id query string false "Owner filter, HR only"
// @Param document_type query string false "Category filter"
// @Param verification_status query string false "pending, verified, rejected or failed"
// @Success 200 {object} response.Envelope
// @Router /documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var query dto.DocumentListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	if err := validateRequest(h.validate, query, "invalid query parameters"); err != nil {
		response.Error(c, err)
		return
	}
	docs, pagination, err := h.service.List(c.Request.Context(), actor, query.Filter())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, docs, pagination)
}

// Get godoc
// @Summary Get document metadata with a signed download link
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /documents/{id} [get]
func (h *DocumentHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	detail, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Download godoc
// @Summary Download document bytes via signed token
// @Tags Documents
// @Produce octet-stream
// @Param id path string true "Document ID"
// @Param token query string true "Signed token"
// @Success 200 {file} binary
// @Router /documents/{id}/download [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	file, doc, err := h.service.Download(c.Request.Context(), c.Param("id"), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	response.AttachmentFromReader(c, doc.OriginalFilename, doc.MimeType, doc.FileSize, file)
}

// Verify godoc
// @Summary Record an HR verification decision
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param payload body dto.VerifyDocumentRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Router /documents/{id}/verify [patch]
func (h *DocumentHandler) Verify(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.VerifyDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid verification payload"))
		return
	}
	if err := validateRequest(h.validate, req, "status must be verified or rejected"); err != nil {
		response.Error(c, err)
		return
	}
	doc, err := h.service.Verify(c.Request.Context(), actor, c.Param("id"), models.VerificationStatus(req.Status), req.Notes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doc, nil)
}

// AIAnalysis godoc
// @Summary Masked AI analysis of a document
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /documents/{id}/ai-analysis [get]
func (h *DocumentHandler) AIAnalysis(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	analysis, err := h.service.AIAnalysis(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, analysis, nil)
}

// Reprocess godoc
// @Summary Re-run AI processing for a document
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /documents/{id}/reprocess [post]
func (h *DocumentHandler) Reprocess(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	doc, outcome, err := h.service.Reprocess(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ReprocessDocumentResponse{
		Document:        doc,
		ProcessingState: string(outcome.State),
		Reason:          outcome.Reason,
		AIDegraded:      outcome.Degraded,
		ProcessedAt:     doc.AIProcessedAt,
	}, nil)
}

// Delete godoc
// @Summary Delete a document and its stored file
// @Tags Documents
// @Param id path string true "Document ID"
// @Success 204
// @Router /documents/{id} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

package dto

import (
	"time"

	"github.com/noah-isme/hr-onboarding-api/internal/models"
)

// UploadDocumentRequest carries the multipart form fields sent with a file.
type UploadDocumentRequest struct {
	DocumentType  string `form:"document_type" validate:"required"`
	RelatedTaskID string `form:"related_task_id" validate:"omitempty,max=64"`
	EmployeeID    string `form:"employee_id" validate:"omitempty,max=64"`
}

// DocumentListQuery holds the filters accepted by the document listing.
type DocumentListQuery struct {
	Page               int    `form:"page" validate:"omitempty,min=1"`
	PageSize           int    `form:"page_size" validate:"omitempty,min=1,max=100"`
	EmployeeID         string `form:"employee_id"`
	DocumentType       string `form:"document_type"`
	VerificationStatus string `form:"verification_status" validate:"omitempty,oneof=pending verified rejected failed"`
}

// Filter converts the query into a repository filter.
func (q DocumentListQuery) Filter() models.DocumentFilter {
	return models.DocumentFilter{
		EmployeeID:         q.EmployeeID,
		DocumentType:       models.DocumentCategory(q.DocumentType),
		VerificationStatus: models.VerificationStatus(q.VerificationStatus),
		Page:               q.Page,
		PageSize:           q.PageSize,
	}
}

// VerifyDocumentRequest records an HR review decision.
type VerifyDocumentRequest struct {
	Status string  `json:"status" validate:"required,oneof=verified rejected"`
	Notes  *string `json:"notes" validate:"omitempty,max=1000"`
}

// UploadDocumentResponse is returned after an upload.
type UploadDocumentResponse struct {
	Document        *models.Document `json:"document"`
	ProcessingState string           `json:"processing_state"`
	Queued          bool             `json:"queued"`
	AIDegraded      bool             `json:"ai_degraded"`
	Message         string           `json:"message"`
}

// ReprocessDocumentResponse is returned after the pipeline is re-run.
type ReprocessDocumentResponse struct {
	Document        *models.Document `json:"document"`
	ProcessingState string           `json:"processing_state"`
	Reason          string           `json:"reason,omitempty"`
	AIDegraded      bool             `json:"ai_degraded"`
	ProcessedAt     *time.Time       `json:"processed_at,omitempty"`
}

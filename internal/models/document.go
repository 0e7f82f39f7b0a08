package models

import "time"

// VerificationStatus is the human review state of a document.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
	VerificationFailed   VerificationStatus = "failed"
)

// Document is one uploaded onboarding file plus its AI-derived fields.
type Document struct {
	ID                 string             `db:"id" json:"id"`
	EmployeeID         string             `db:"employee_id" json:"employee_id"`
	DocumentType       DocumentCategory   `db:"document_type" json:"document_type"`
	OriginalFilename   string             `db:"original_filename" json:"original_filename"`
	FilePath           string             `db:"file_path" json:"-"`
	FileSize           int64              `db:"file_size" json:"file_size"`
	MimeType           string             `db:"mime_type" json:"mime_type"`
	VerificationStatus VerificationStatus `db:"verification_status" json:"verification_status"`
	VerificationNotes  *string            `db:"verification_notes" json:"verification_notes,omitempty"`
	VerifiedBy         *string            `db:"verified_by" json:"verified_by,omitempty"`
	VerifiedAt         *time.Time         `db:"verified_at" json:"verified_at,omitempty"`
	UploadedAt         time.Time          `db:"uploaded_at" json:"uploaded_at"`
	RelatedTaskID      *string            `db:"task_id" json:"related_task_id,omitempty"`
	ExtractedText      *string            `db:"extracted_text" json:"-"`
	AIValidationResult *string            `db:"ai_validation_result" json:"-"`
	AIConfidenceScore  *float64           `db:"ai_confidence_score" json:"ai_confidence_score"`
	AIProcessedAt      *time.Time         `db:"ai_processed_at" json:"ai_processed_at,omitempty"`
}

// DocumentFilter narrows document listings.
type DocumentFilter struct {
	EmployeeID         string
	DocumentType       DocumentCategory
	VerificationStatus VerificationStatus
	Page               int
	PageSize           int
}

// PendingDocument joins a pending document with its owner's name.
type PendingDocument struct {
	EmployeeName      string           `db:"employee_name" json:"employee_name"`
	DocumentType      DocumentCategory `db:"document_type" json:"document_type"`
	UploadedAt        time.Time        `db:"uploaded_at" json:"uploaded_at"`
	AIConfidenceScore *float64         `db:"ai_confidence_score" json:"ai_confidence"`
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hr-onboarding-api/internal/models"
)

const documentColumns = `id, employee_id, document_type, original_filename, file_path, file_size, mime_type,
       verification_status, verification_notes, verified_by, verified_at, uploaded_at, task_id,
       extracted_text, ai_validation_result, ai_confidence_score, ai_processed_at`

// DocumentRepository persists onboarding documents.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs the repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create stores a freshly uploaded document.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}
	if doc.VerificationStatus == "" {
		doc.VerificationStatus = models.VerificationPending
	}
	const query = `INSERT INTO documents
	(id, employee_id, document_type, original_filename, file_path, file_size, mime_type, verification_status,
	 verification_notes, verified_by, verified_at, uploaded_at, task_id, extracted_text, ai_validation_result,
	 ai_confidence_score, ai_processed_at)
	VALUES (:id, :employee_id, :document_type, :original_filename, :file_path, :file_size, :mime_type, :verification_status,
	 :verification_notes, :verified_by, :verified_at, :uploaded_at, :task_id, :extracted_text, :ai_validation_result,
	 :ai_confidence_score, :ai_processed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// GetByID retrieves one document.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	var doc models.Document
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &doc, nil
}

// UpdateAIResult writes every pipeline-owned column in a single statement.
func (r *DocumentRepository) UpdateAIResult(ctx context.Context, doc *models.Document) error {
	const query = `UPDATE documents SET extracted_text = :extracted_text, ai_validation_result = :ai_validation_result,
	ai_confidence_score = :ai_confidence_score, ai_processed_at = :ai_processed_at, verification_notes = :verification_notes
	WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, doc)
	if err != nil {
		return fmt.Errorf("update document ai result: %w", err)
	}
	return expectOneRow(res, "update document ai result")
}

// UpdateVerification records a human review decision.
func (r *DocumentRepository) UpdateVerification(ctx context.Context, doc *models.Document) error {
	const query = `UPDATE documents SET verification_status = :verification_status, verification_notes = :verification_notes,
	verified_by = :verified_by, verified_at = :verified_at
	WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, doc)
	if err != nil {
		return fmt.Errorf("update document verification: %w", err)
	}
	return expectOneRow(res, "update document verification")
}

// ListByEmployee returns an employee's documents, newest first.
func (r *DocumentRepository) ListByEmployee(ctx context.Context, employeeID string) ([]models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE employee_id = $1 ORDER BY uploaded_at DESC`
	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query, employeeID); err != nil {
		return nil, fmt.Errorf("list employee documents: %w", err)
	}
	return docs, nil
}

// List returns documents matching filter with the total count.
func (r *DocumentRepository) List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, int, error) {
	var conditions []string
	var args []interface{}

	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		conditions = append(conditions, fmt.Sprintf("employee_id = $%d", len(args)))
	}
	if filter.DocumentType != "" {
		args = append(args, filter.DocumentType)
		conditions = append(conditions, fmt.Sprintf("document_type = $%d", len(args)))
	}
	if filter.VerificationStatus != "" {
		args = append(args, filter.VerificationStatus)
		conditions = append(conditions, fmt.Sprintf("verification_status = $%d", len(args)))
	}

	baseQuery := "FROM documents"
	if len(conditions) > 0 {
		baseQuery += " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 50
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY uploaded_at DESC LIMIT %d OFFSET %d", documentColumns, baseQuery, pageSize, offset)
	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}
	return docs, total, nil
}

// ListPendingWithEmployee returns pending documents joined with the owner's name.
func (r *DocumentRepository) ListPendingWithEmployee(ctx context.Context, limit int) ([]models.PendingDocument, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `SELECT u.name AS employee_name, d.document_type, d.uploaded_at, d.ai_confidence_score
	FROM documents d JOIN users u ON u.id = d.employee_id
	WHERE d.verification_status = $1
	ORDER BY d.uploaded_at ASC
	LIMIT $2`
	var docs []models.PendingDocument
	if err := r.db.SelectContext(ctx, &docs, query, models.VerificationPending, limit); err != nil {
		return nil, fmt.Errorf("list pending documents: %w", err)
	}
	return docs, nil
}

// Delete removes a document row.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return expectOneRow(res, "delete document")
}

func expectOneRow(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

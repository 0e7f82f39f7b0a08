package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/hr-onboarding-api/internal/models"
	appErrors "github.com/noah-isme/hr-onboarding-api/pkg/errors"
	"github.com/noah-isme/hr-onboarding-api/pkg/jobs"
	"github.com/noah-isme/hr-onboarding-api/pkg/storage"
)

type documentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id string) (*models.Document, error)
	UpdateVerification(ctx context.Context, doc *models.Document) error
	List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, int, error)
	Delete(ctx context.Context, id string) error
}

type documentProcessor interface {
	Process(ctx context.Context, doc *models.Document) (*models.Document, PipelineOutcome)
	GetMaskedDocumentData(doc *models.Document) map[string]any
}

type documentQueue interface {
	Enqueue(job jobs.Job[string]) error
}

type jobMetrics interface {
	RecordJob(result string)
}

// DocumentServiceConfig tunes upload validation and download links.
type DocumentServiceConfig struct {
	APIPrefix         string
	MaxFileSizeBytes  int64
	AllowedExtensions []string
}

// UploadInput describes one uploaded file.
type UploadInput struct {
	EmployeeID    string
	DocumentType  string
	RelatedTaskID *string
	Filename      string
	MimeType      string
	Size          int64
	Content       io.Reader
}

// UploadResult is the stored document plus, for synchronous runs, the pipeline outcome.
type UploadResult struct {
	Document *models.Document
	Outcome  *PipelineOutcome
	Queued   bool
}

// DocumentDetail is a document with a short-lived download link.
type DocumentDetail struct {
	Document    *models.Document `json:"document"`
	DownloadURL string           `json:"download_url"`
	ExpiresAt   time.Time        `json:"download_expires_at"`
}

// AIAnalysis is the masked AI view of a processed document.
type AIAnalysis struct {
	DocumentID      string                  `json:"document_id"`
	DocumentType    models.DocumentCategory `json:"document_type"`
	Analysis        map[string]any          `json:"ai_analysis"`
	ConfidenceScore *float64                `json:"confidence_score"`
	ProcessedAt     *time.Time              `json:"processed_at"`
}

// DocumentService implements the upload, review and download workflow.
type DocumentService struct {
	repo     documentRepository
	files    storage.FileStore
	pipeline documentProcessor
	signer   *storage.SignedURLSigner
	queue    documentQueue
	metrics  jobMetrics
	logger   *zap.Logger
	cfg      DocumentServiceConfig
	allowed  map[string]struct{}
	now      func() time.Time
}

// NewDocumentService constructs a DocumentService. Without a queue every
// upload is processed synchronously.
func NewDocumentService(repo documentRepository, files storage.FileStore, pipeline documentProcessor, signer *storage.SignedURLSigner, cfg DocumentServiceConfig, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	allowed := make(map[string]struct{}, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = struct{}{}
	}
	return &DocumentService{
		repo:     repo,
		files:    files,
		pipeline: pipeline,
		signer:   signer,
		logger:   logger,
		cfg:      cfg,
		allowed:  allowed,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// UseQueue switches uploads to background processing.
func (s *DocumentService) UseQueue(queue documentQueue, metrics jobMetrics) {
	s.queue = queue
	s.metrics = metrics
}

// Upload validates and stores a file, then runs or enqueues the pipeline.
// AI problems never fail an upload.
func (s *DocumentService) Upload(ctx context.Context, actor Actor, input UploadInput) (*UploadResult, error) {
	category, err := models.ParseDocumentCategory(input.DocumentType)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCategory, "Invalid document type")
	}

	employeeID := strings.TrimSpace(input.EmployeeID)
	if employeeID == "" {
		employeeID = actor.ID
	}
	if !actor.CanAccessEmployee(employeeID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "employees can only upload their own documents")
	}
	if input.Content == nil || strings.TrimSpace(input.Filename) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if s.cfg.MaxFileSizeBytes > 0 && input.Size > s.cfg.MaxFileSizeBytes {
		return nil, appErrors.ErrFileTooLarge
	}
	if !s.extensionAllowed(input.Filename) {
		return nil, appErrors.ErrUnsupportedFile
	}

	key := fmt.Sprintf("%s_%s_%s", employeeID, category, storage.SanitizeFilename(input.Filename))
	content := input.Content
	if s.cfg.MaxFileSizeBytes > 0 {
		content = io.LimitReader(content, s.cfg.MaxFileSizeBytes+1)
	}
	written, err := s.files.Save(ctx, key, content)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "File upload failed")
	}
	if s.cfg.MaxFileSizeBytes > 0 && written > s.cfg.MaxFileSizeBytes {
		_ = s.files.Delete(ctx, key)
		return nil, appErrors.ErrFileTooLarge
	}

	doc := &models.Document{
		EmployeeID:         employeeID,
		DocumentType:       category,
		OriginalFilename:   input.Filename,
		FilePath:           key,
		FileSize:           written,
		MimeType:           input.MimeType,
		VerificationStatus: models.VerificationPending,
		RelatedTaskID:      input.RelatedTaskID,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		_ = s.files.Delete(ctx, key)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save document")
	}

	if s.queue != nil {
		err := s.queue.Enqueue(jobs.Job[string]{ID: doc.ID, Payload: doc.ID})
		if err == nil {
			return &UploadResult{Document: doc, Queued: true}, nil
		}
		s.logger.Warn("enqueue document failed, processing inline", zap.String("document_id", doc.ID), zap.Error(err))
	}

	processed, outcome := s.pipeline.Process(ctx, doc)
	return &UploadResult{Document: processed, Outcome: &outcome}, nil
}

// ProcessJob is the background queue handler. It returns an error only when
// the document cannot be loaded, so the queue may retry.
func (s *DocumentService) ProcessJob(ctx context.Context, job jobs.Job[string]) error {
	doc, err := s.repo.GetByID(ctx, job.Payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("queued document disappeared", zap.String("document_id", job.Payload))
			s.recordJob("failed")
			return nil
		}
		s.recordJob("retry")
		return fmt.Errorf("load document %s: %w", job.Payload, err)
	}
	s.pipeline.Process(ctx, doc)
	s.recordJob("success")
	return nil
}

// List returns a page of documents. Employees only ever see their own.
func (s *DocumentService) List(ctx context.Context, actor Actor, filter models.DocumentFilter) ([]models.Document, *models.Pagination, error) {
	if !actor.IsHR() {
		filter.EmployeeID = actor.ID
	}
	if filter.DocumentType != "" {
		category, err := models.ParseDocumentCategory(string(filter.DocumentType))
		if err != nil {
			return nil, nil, appErrors.Clone(appErrors.ErrInvalidCategory, "Invalid document type")
		}
		filter.DocumentType = category
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 50
	}

	docs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}
	if docs == nil {
		docs = []models.Document{}
	}
	return docs, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns a document with a signed download link.
func (s *DocumentService) Get(ctx context.Context, actor Actor, id string) (*DocumentDetail, error) {
	doc, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(doc.ID, doc.FilePath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	url := fmt.Sprintf("%s/documents/%s/download?token=%s", strings.TrimRight(s.cfg.APIPrefix, "/"), doc.ID, token)
	return &DocumentDetail{Document: doc, DownloadURL: url, ExpiresAt: expiresAt}, nil
}

// Download opens the stored bytes after validating the signed token.
func (s *DocumentService) Download(ctx context.Context, id, token string) (io.ReadCloser, *models.Document, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, s.mapLoadError(err)
	}
	if err := s.signer.Verify(token, doc.ID, doc.FilePath); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid or expired download link")
	}
	rc, err := s.files.Open(ctx, doc.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "stored file not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open document")
	}
	return rc, doc, nil
}

// Verify records an HR review decision.
func (s *DocumentService) Verify(ctx context.Context, actor Actor, id string, status models.VerificationStatus, notes *string) (*models.Document, error) {
	if !actor.IsHR() {
		return nil, appErrors.ErrForbidden
	}
	if status != models.VerificationVerified && status != models.VerificationRejected {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be verified or rejected")
	}
	doc, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	verifiedAt := s.now()
	verifier := actor.ID
	doc.VerificationStatus = status
	doc.VerifiedBy = &verifier
	doc.VerifiedAt = &verifiedAt
	if notes != nil {
		doc.VerificationNotes = notes
	}
	if err := s.repo.UpdateVerification(ctx, doc); err != nil {
		return nil, s.mapLoadError(err)
	}
	return doc, nil
}

// AIAnalysis returns the masked AI result of a document.
func (s *DocumentService) AIAnalysis(ctx context.Context, actor Actor, id string) (*AIAnalysis, error) {
	doc, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return &AIAnalysis{
		DocumentID:      doc.ID,
		DocumentType:    doc.DocumentType,
		Analysis:        s.pipeline.GetMaskedDocumentData(doc),
		ConfidenceScore: doc.AIConfidenceScore,
		ProcessedAt:     doc.AIProcessedAt,
	}, nil
}

// Reprocess runs the pipeline again for an existing document.
func (s *DocumentService) Reprocess(ctx context.Context, actor Actor, id string) (*models.Document, PipelineOutcome, error) {
	if !actor.IsHR() {
		return nil, PipelineOutcome{}, appErrors.ErrForbidden
	}
	doc, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, PipelineOutcome{}, err
	}
	processed, outcome := s.pipeline.Process(ctx, doc)
	return processed, outcome, nil
}

// Delete removes a document row and its stored bytes.
func (s *DocumentService) Delete(ctx context.Context, actor Actor, id string) error {
	if !actor.IsHR() {
		return appErrors.ErrForbidden
	}
	doc, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, doc.ID); err != nil {
		return s.mapLoadError(err)
	}
	if err := s.files.Delete(ctx, doc.FilePath); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.Warn("delete stored file failed", zap.String("document_id", doc.ID), zap.Error(err))
	}
	return nil
}

func (s *DocumentService) load(ctx context.Context, actor Actor, id string) (*models.Document, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapLoadError(err)
	}
	if !actor.CanAccessEmployee(doc.EmployeeID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Access denied")
	}
	return doc, nil
}

func (s *DocumentService) mapLoadError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "Document not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
}

func (s *DocumentService) extensionAllowed(filename string) bool {
	if len(s.allowed) == 0 {
		return true
	}
	_, ok := s.allowed[strings.ToLower(filepath.Ext(filename))]
	return ok
}

func (s *DocumentService) recordJob(result string) {
	if s.metrics != nil {
		s.metrics.RecordJob(result)
	}
}

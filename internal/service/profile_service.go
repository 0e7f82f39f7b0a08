package service

import (
	"context"
	"database/sql"
	"errors"
	"math"

	"go.uber.org/zap"

	"github.com/noah-isme/hr-onboarding-api/internal/models"
	appErrors "github.com/noah-isme/hr-onboarding-api/pkg/errors"
)

type profileUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type profileDocumentReader interface {
	ListByEmployee(ctx context.Context, employeeID string) ([]models.Document, error)
}

// ProfileService assembles the six-slot onboarding profile of an employee.
type ProfileService struct {
	users     profileUserReader
	documents profileDocumentReader
	logger    *zap.Logger
}

// NewProfileService constructs a ProfileService.
func NewProfileService(users profileUserReader, documents profileDocumentReader, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{users: users, documents: documents, logger: logger}
}

// Assemble builds the profile. Documents are expected newest first; the first
// document seen per category fills its slot.
func (s *ProfileService) Assemble(ctx context.Context, employeeID string) (*models.OnboardingProfile, error) {
	user, err := s.users.FindByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}

	docs, err := s.documents.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load documents")
	}

	latest := make(map[models.DocumentCategory]*models.Document, len(docs))
	for i := range docs {
		if _, seen := latest[docs[i].DocumentType]; !seen {
			latest[docs[i].DocumentType] = &docs[i]
		}
	}

	profile := &models.OnboardingProfile{
		Employee: models.EmployeeSummary{
			ID:               user.ID,
			Name:             user.Name,
			Email:            user.Email,
			Role:             user.Role,
			OnboardingStatus: user.OnboardingStatus,
			IsActive:         user.IsActive,
			CreatedAt:        user.CreatedAt,
		},
		DocumentSlots: make([]models.DocumentSlot, 0, len(models.RequiredCategories)),
	}

	summary := models.DocumentSummary{TotalRequired: len(models.RequiredCategories)}
	for _, category := range models.RequiredCategories {
		doc, ok := latest[category]
		if !ok {
			profile.DocumentSlots = append(profile.DocumentSlots, emptySlot(category))
			continue
		}
		slot := uploadedSlot(doc)
		profile.DocumentSlots = append(profile.DocumentSlots, slot)

		summary.Uploaded++
		switch doc.VerificationStatus {
		case models.VerificationVerified:
			summary.Verified++
		case models.VerificationPending:
			summary.PendingVerification++
		case models.VerificationRejected:
			summary.Rejected++
		}
	}
	summary.PendingUpload = summary.TotalRequired - summary.Uploaded
	summary.CompletionPercentage = int(math.Round(float64(summary.Uploaded) / float64(summary.TotalRequired) * 100))
	profile.DocumentSummary = summary

	return profile, nil
}

func uploadedSlot(doc *models.Document) models.DocumentSlot {
	data := maskedDocumentData(doc)
	id := doc.ID
	filename := doc.OriginalFilename
	uploadedAt := doc.UploadedAt
	return models.DocumentSlot{
		DocumentID:         &id,
		DocumentType:       doc.DocumentType,
		OriginalFilename:   &filename,
		UploadedAt:         &uploadedAt,
		VerificationStatus: string(doc.VerificationStatus),
		VerificationNotes:  doc.VerificationNotes,
		VerifiedAt:         doc.VerifiedAt,
		AIConfidenceScore:  doc.AIConfidenceScore,
		ExtractedFields:    data,
		Issues:             listField(data, "issues"),
		MissingFields:      listField(data, "missing_fields"),
		Status:             models.SlotUploaded,
	}
}

func emptySlot(category models.DocumentCategory) models.DocumentSlot {
	return models.DocumentSlot{
		DocumentType:       category,
		VerificationStatus: models.SlotNotUploaded,
		ExtractedFields:    map[string]any{},
		Issues:             []any{},
		MissingFields:      []any{},
		Status:             models.SlotPendingUpload,
	}
}

func listField(data map[string]any, key string) []any {
	if list, ok := data[key].([]any); ok {
		return list
	}
	return []any{}
}

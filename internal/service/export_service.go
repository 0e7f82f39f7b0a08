package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/hr-onboarding-api/internal/masking"
	"github.com/noah-isme/hr-onboarding-api/internal/models"
	appErrors "github.com/noah-isme/hr-onboarding-api/pkg/errors"
	"github.com/noah-isme/hr-onboarding-api/pkg/export"
)

// Export formats.
const (
	ExportFormatPDF = "pdf"
	ExportFormatCSV = "csv"
)

var profileExportHeaders = []string{"document_type", "status", "verification_status", "uploaded_at", "ai_confidence", "fields", "issues"}

type profileAssembler interface {
	Assemble(ctx context.Context, employeeID string) (*models.OnboardingProfile, error)
}

// ExportFile is a rendered export ready to stream.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders onboarding profiles as downloadable files.
type ExportService struct {
	profiles  profileAssembler
	renderers map[string]export.Renderer
	logger    *zap.Logger
}

// NewExportService constructs an ExportService with the CSV and PDF renderers.
func NewExportService(profiles profileAssembler, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		profiles: profiles,
		renderers: map[string]export.Renderer{
			ExportFormatCSV: export.NewCSVExporter(),
			ExportFormatPDF: export.NewPDFExporter(),
		},
		logger: logger,
	}
}

// Profile renders employeeID's profile. Only masked, display-filtered values are written.
func (s *ExportService) Profile(ctx context.Context, employeeID, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatPDF
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be pdf or csv")
	}

	profile, err := s.profiles.Assemble(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	data, err := renderer.Render(profileDataset(profile))
	if err != nil {
		s.logger.Error("render profile export", zap.String("employee_id", employeeID), zap.String("format", format), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("onboarding_profile_%s.%s", employeeID, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Data:        data,
	}, nil
}

func profileDataset(profile *models.OnboardingProfile) export.Dataset {
	summary := profile.DocumentSummary
	ds := export.Dataset{
		Title: "Onboarding Profile - " + profile.Employee.Name,
		Details: []export.Detail{
			{Label: "Employee", Value: profile.Employee.Name},
			{Label: "Email", Value: masking.MaskEmail(profile.Employee.Email)},
			{Label: "Onboarding status", Value: string(profile.Employee.OnboardingStatus)},
			{Label: "Documents uploaded", Value: fmt.Sprintf("%d/%d", summary.Uploaded, summary.TotalRequired)},
			{Label: "Verified", Value: strconv.Itoa(summary.Verified)},
			{Label: "Completion", Value: fmt.Sprintf("%d%%", summary.CompletionPercentage)},
		},
		Headers: profileExportHeaders,
	}
	for _, slot := range profile.DocumentSlots {
		row := map[string]string{
			"document_type":       slot.DocumentType.String(),
			"status":              slot.Status,
			"verification_status": slot.VerificationStatus,
			"fields":              formatFields(slot.ExtractedFields),
			"issues":              formatList(slot.Issues),
		}
		if slot.UploadedAt != nil {
			row["uploaded_at"] = slot.UploadedAt.Format("2006-01-02")
		}
		if slot.AIConfidenceScore != nil {
			row["ai_confidence"] = strconv.FormatFloat(*slot.AIConfidenceScore, 'f', 2, 64)
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds
}

// formatFields renders display fields as sorted key=value pairs.
func formatFields(fields map[string]any) string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		switch key {
		case "confidence", "issues", "missing_fields":
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", key, fields[key]))
	}
	return strings.Join(parts, "; ")
}

func formatList(items []any) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprint(item))
	}
	return strings.Join(parts, "; ")
}

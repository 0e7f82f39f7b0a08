package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/hr-onboarding-api/internal/llm"
	"github.com/noah-isme/hr-onboarding-api/internal/masking"
	"github.com/noah-isme/hr-onboarding-api/internal/models"
	"github.com/noah-isme/hr-onboarding-api/pkg/middleware/requestid"
)

// PipelineState is the terminal state a pipeline run ends in.
type PipelineState string

const (
	StateUploaded        PipelineState = "uploaded"
	StateTextExtracted   PipelineState = "text_extracted"
	StateAIValidated     PipelineState = "ai_validated"
	StateMaskedAndStored PipelineState = "masked_and_stored"
	StateUnreadable      PipelineState = "unreadable"
	StateAIFailedLogged  PipelineState = "ai_failed_logged"
)

const (
	maxStoredTextRunes  = 5000
	minReadableRunes    = 10
	maxFailureNoteRunes = 100
	highConfidence      = 0.8

	noteUnreadable    = "AI: No readable text found in document"
	noteReadyForHR    = "AI: Ready for HR review (high confidence)"
	noteNeedsReview   = "AI: Needs review - "
	noteProcessed     = "AI: Processed successfully"
	noteFailurePrefix = "AI processing failed: "

	documentVerificationInstruction = `You are a document verification assistant for HR onboarding.
Analyze documents and extract key information.
Be strict but fair. Flag genuine issues only.`
)

// PipelineOutcome describes how a pipeline run ended. Degraded is true when
// the model gateway answered from its mock fallback.
type PipelineOutcome struct {
	State    PipelineState
	Reason   string
	Degraded bool
}

type textExtractor interface {
	Extract(ctx context.Context, fileRef, formatHint string) string
}

type modelGateway interface {
	Call(ctx context.Context, req llm.Request) llm.Result
}

type pipelineDocumentStore interface {
	UpdateAIResult(ctx context.Context, doc *models.Document) error
}

type pipelineMetrics interface {
	RecordPipelineOutcome(category, state string)
}

// DocumentPipeline runs extraction, AI validation and masking for a document.
type DocumentPipeline struct {
	extractor textExtractor
	gateway   modelGateway
	store     pipelineDocumentStore
	metrics   pipelineMetrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewDocumentPipeline constructs the pipeline. metrics may be nil.
func NewDocumentPipeline(extractor textExtractor, gateway modelGateway, store pipelineDocumentStore, metrics pipelineMetrics, logger *zap.Logger) *DocumentPipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentPipeline{
		extractor: extractor,
		gateway:   gateway,
		store:     store,
		metrics:   metrics,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Process never fails; AI and persistence problems end in StateAIFailedLogged.
func (p *DocumentPipeline) Process(ctx context.Context, doc *models.Document) (*models.Document, PipelineOutcome) {
	outcome := p.process(ctx, doc)
	if p.metrics != nil {
		p.metrics.RecordPipelineOutcome(doc.DocumentType.String(), string(outcome.State))
	}
	p.logger.Info("document processed",
		zap.String("request_id", requestid.FromContext(ctx)),
		zap.String("document_id", doc.ID),
		zap.String("document_type", doc.DocumentType.String()),
		zap.String("state", string(outcome.State)),
		zap.Bool("degraded", outcome.Degraded),
	)
	return doc, outcome
}

func (p *DocumentPipeline) process(ctx context.Context, doc *models.Document) (outcome PipelineOutcome) {
	text := p.extractor.Extract(ctx, doc.FilePath, doc.OriginalFilename)
	stored := truncateRunes(text, maxStoredTextRunes)
	doc.ExtractedText = &stored

	if len([]rune(text)) < minReadableRunes {
		return p.finishUnreadable(ctx, doc)
	}

	var degraded bool
	defer func() {
		if r := recover(); r != nil {
			outcome = p.finishFailed(ctx, doc, fmt.Errorf("panic: %v", r), degraded)
		}
	}()

	result := p.gateway.Call(ctx, llm.Request{
		Prompt:            BuildValidationPrompt(text, doc.DocumentType),
		SystemInstruction: documentVerificationInstruction,
	})
	degraded = result.Degraded()

	if err := p.applyValidation(doc, result.Data); err != nil {
		return p.finishFailed(ctx, doc, err, degraded)
	}
	if err := p.store.UpdateAIResult(ctx, doc); err != nil {
		return p.finishFailed(ctx, doc, err, degraded)
	}
	return PipelineOutcome{State: StateMaskedAndStored, Reason: result.Reason, Degraded: degraded}
}

func (p *DocumentPipeline) applyValidation(doc *models.Document, validation map[string]any) error {
	confidence := 0.0
	if raw, ok := validation["confidence"]; ok {
		value, err := numericValue(raw)
		if err != nil {
			return fmt.Errorf("confidence %w", err)
		}
		confidence = value
	}

	issues, err := issueList(validation["issues"])
	if err != nil {
		return err
	}

	masked := masking.Mask(validation, doc.DocumentType)
	payload, err := json.Marshal(masked)
	if err != nil {
		return fmt.Errorf("serialize validation result: %w", err)
	}

	var note string
	switch {
	case confidence > highConfidence && len(issues) == 0:
		note = noteReadyForHR
	case len(issues) > 0:
		if len(issues) > 3 {
			issues = issues[:3]
		}
		note = noteNeedsReview + strings.Join(issues, ", ")
	default:
		note = noteProcessed
	}

	result := string(payload)
	processedAt := p.now()
	doc.AIValidationResult = &result
	doc.AIConfidenceScore = &confidence
	doc.AIProcessedAt = &processedAt
	doc.VerificationNotes = &note
	return nil
}

func (p *DocumentPipeline) finishUnreadable(ctx context.Context, doc *models.Document) PipelineOutcome {
	confidence := 0.0
	note := noteUnreadable
	processedAt := p.now()
	doc.AIConfidenceScore = &confidence
	doc.VerificationNotes = &note
	doc.AIProcessedAt = &processedAt

	if err := p.store.UpdateAIResult(ctx, doc); err != nil {
		p.logger.Error("persist unreadable document", zap.String("document_id", doc.ID), zap.Error(err))
	}
	return PipelineOutcome{State: StateUnreadable, Reason: "no readable text"}
}

func (p *DocumentPipeline) finishFailed(ctx context.Context, doc *models.Document, cause error, degraded bool) PipelineOutcome {
	p.logger.Warn("ai processing failed", zap.String("document_id", doc.ID), zap.Error(cause))

	note := noteFailurePrefix + truncateRunes(cause.Error(), maxFailureNoteRunes)
	processedAt := p.now()
	doc.VerificationNotes = &note
	doc.AIProcessedAt = &processedAt

	if err := p.store.UpdateAIResult(ctx, doc); err != nil {
		p.logger.Error("persist failed document", zap.String("document_id", doc.ID), zap.Error(err))
	}
	return PipelineOutcome{State: StateAIFailedLogged, Reason: cause.Error(), Degraded: degraded}
}

// GetMaskedDocumentData returns the display-filtered stored validation payload.
func (p *DocumentPipeline) GetMaskedDocumentData(doc *models.Document) map[string]any {
	return maskedDocumentData(doc)
}

func maskedDocumentData(doc *models.Document) map[string]any {
	if doc == nil || doc.AIValidationResult == nil || *doc.AIValidationResult == "" {
		return map[string]any{"status": "not_processed"}
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(*doc.AIValidationResult), &data); err != nil {
		return map[string]any{"error": "Failed to parse document data: " + err.Error()}
	}
	if data == nil {
		return map[string]any{"error": "Failed to parse document data: payload is not an object"}
	}
	return masking.FilterForDisplay(data, doc.DocumentType)
}

// BuildValidationPrompt renders the category's extraction prompt for text.
func BuildValidationPrompt(text string, category models.DocumentCategory) string {
	schema := category.Schema()
	body := truncateRunes(text, schema.TextLimit)
	if body == "" && schema.EmptyText != "" {
		body = schema.EmptyText
	}

	var b strings.Builder
	b.WriteString(schema.Heading)
	b.WriteString("\n\n")
	b.WriteString(schema.TextLabel)
	b.WriteString("\n")
	b.WriteString(body)
	b.WriteString("\n\n")
	b.WriteString(schema.ReturnLabel)
	b.WriteString("\n")
	b.WriteString(schema.Fields)
	if schema.Note != "" {
		b.WriteString("\n\n")
		b.WriteString(schema.Note)
	}
	return b.String()
}

func numericValue(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("is not numeric: %q", v)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("is not numeric: %v", raw)
	}
}

// issueList treats a single string as one issue; a list must hold strings.
func issueList(raw any) ([]string, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		if v == "" {
			return nil, nil
		}
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		issues := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, errors.New("issues must be a list of strings")
			}
			issues = append(issues, s)
		}
		return issues, nil
	default:
		return nil, fmt.Errorf("issues has unexpected type %T", raw)
	}
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

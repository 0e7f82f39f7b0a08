package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hr-onboarding-api/internal/llm"
	"github.com/noah-isme/hr-onboarding-api/internal/models"
)

func newPipelineForTest(text string, results ...llm.Result) (*DocumentPipeline, *gatewayStub, *pipelineStoreStub, *pipelineMetricsStub) {
	gateway := &gatewayStub{results: results}
	store := &pipelineStoreStub{}
	metrics := &pipelineMetricsStub{}
	return NewDocumentPipeline(&extractorStub{text: text}, gateway, store, metrics, nil), gateway, store, metrics
}

func panDocument() *models.Document {
	return &models.Document{ID: "doc-1", EmployeeID: "emp-1", DocumentType: models.CategoryPAN, OriginalFilename: "pan.pdf", FilePath: "emp-1_pan_pan.pdf"}
}

func TestPipelineUnreadableSkipsGateway(t *testing.T) {
	pipeline, gateway, store, metrics := newPipelineForTest("  tiny  ")

	doc, outcome := pipeline.Process(context.Background(), panDocument())

	assert.Equal(t, StateUnreadable, outcome.State)
	assert.Empty(t, gateway.requests)
	require.Len(t, store.updates, 1)
	require.NotNil(t, doc.AIConfidenceScore)
	assert.Zero(t, *doc.AIConfidenceScore)
	assert.Equal(t, noteUnreadable, *doc.VerificationNotes)
	assert.NotNil(t, doc.AIProcessedAt)
	assert.Nil(t, doc.AIValidationResult)
	assert.Equal(t, []string{"pan:unreadable"}, metrics.outcomes)
}

func TestPipelineMasksBeforeStoring(t *testing.T) {
	pipeline, gateway, store, _ := newPipelineForTest("INCOME TAX DEPARTMENT ABCDE1234F RAVI KUMAR", llm.Result{
		Source: llm.SourceLive,
		Data: map[string]any{
			"pan_number": "ABCDE1234F",
			"name":       "Ravi Kumar",
			"confidence": 0.95,
			"issues":     []any{},
		},
	})

	doc, outcome := pipeline.Process(context.Background(), panDocument())

	assert.Equal(t, StateMaskedAndStored, outcome.State)
	assert.False(t, outcome.Degraded)
	require.Len(t, gateway.requests, 1)
	assert.Equal(t, documentVerificationInstruction, gateway.requests[0].SystemInstruction)
	assert.Contains(t, gateway.requests[0].Prompt, "Analyze this PAN card document")
	require.Len(t, store.updates, 1)

	require.NotNil(t, doc.AIValidationResult)
	assert.NotContains(t, *doc.AIValidationResult, "ABCDE1234F")
	var stored map[string]any
	require.NoError(t, json.Unmarshal([]byte(*doc.AIValidationResult), &stored))
	assert.Equal(t, "XXXXX234F", stored["pan_number_masked"])
	assert.Equal(t, "XXXXX234F", stored["pan_number"])
	assert.InDelta(t, 0.95, *doc.AIConfidenceScore, 1e-9)
	assert.Equal(t, noteReadyForHR, *doc.VerificationNotes)
}

func TestPipelineNotesFirstThreeIssues(t *testing.T) {
	pipeline, _, _, _ := newPipelineForTest("some readable document text", llm.Result{
		Source: llm.SourceLive,
		Data: map[string]any{
			"confidence": 0.9,
			"issues":     []any{"blurry", "cropped", "expired", "glare"},
		},
	})

	doc, outcome := pipeline.Process(context.Background(), panDocument())

	assert.Equal(t, StateMaskedAndStored, outcome.State)
	assert.Equal(t, "AI: Needs review - blurry, cropped, expired", *doc.VerificationNotes)
}

func TestPipelineLowConfidenceWithoutIssues(t *testing.T) {
	pipeline, _, _, _ := newPipelineForTest("some readable document text", llm.Result{
		Source: llm.SourceLive,
		Data:   map[string]any{"confidence": 0.5},
	})

	doc, _ := pipeline.Process(context.Background(), panDocument())

	assert.Equal(t, noteProcessed, *doc.VerificationNotes)
}

func TestPipelineMissingConfidenceDefaultsToZero(t *testing.T) {
	pipeline, _, _, _ := newPipelineForTest("some readable document text", llm.Result{
		Source: llm.SourceLive,
		Data:   map[string]any{"name": "Ravi"},
	})

	doc, outcome := pipeline.Process(context.Background(), panDocument())

	assert.Equal(t, StateMaskedAndStored, outcome.State)
	require.NotNil(t, doc.AIConfidenceScore)
	assert.Zero(t, *doc.AIConfidenceScore)
}

func TestPipelineNonNumericConfidenceFails(t *testing.T) {
	pipeline, _, store, metrics := newPipelineForTest("some readable document text", llm.Result{
		Source: llm.SourceLive,
		Data:   map[string]any{"confidence": strings.Repeat("high", 60)},
	})

	doc, outcome := pipeline.Process(context.Background(), panDocument())

	assert.Equal(t, StateAIFailedLogged, outcome.State)
	require.Len(t, store.updates, 1)
	note := *doc.VerificationNotes
	assert.True(t, strings.HasPrefix(note, noteFailurePrefix))
	assert.Len(t, []rune(strings.TrimPrefix(note, noteFailurePrefix)), maxFailureNoteRunes)
	assert.NotNil(t, doc.AIProcessedAt)
	assert.Equal(t, []string{"pan:ai_failed_logged"}, metrics.outcomes)
}

func TestPipelinePersistFailureLandsInFailedState(t *testing.T) {
	gateway := &gatewayStub{results: []llm.Result{{Source: llm.SourceLive, Data: map[string]any{"confidence": 0.9}}}}
	store := &pipelineStoreStub{errs: []error{errors.New("connection reset")}}
	pipeline := NewDocumentPipeline(&extractorStub{text: "some readable document text"}, gateway, store, nil, nil)

	doc, outcome := pipeline.Process(context.Background(), panDocument())

	assert.Equal(t, StateAIFailedLogged, outcome.State)
	assert.Len(t, store.updates, 2)
	assert.Equal(t, "AI processing failed: connection reset", *doc.VerificationNotes)
}

func TestPipelineRecoversFromGatewayPanic(t *testing.T) {
	gateway := &gatewayStub{panicMsg: "boom"}
	store := &pipelineStoreStub{}
	pipeline := NewDocumentPipeline(&extractorStub{text: "some readable document text"}, gateway, store, nil, nil)

	doc, outcome := pipeline.Process(context.Background(), panDocument())

	assert.Equal(t, StateAIFailedLogged, outcome.State)
	assert.Equal(t, "AI processing failed: panic: boom", *doc.VerificationNotes)
	assert.Len(t, store.updates, 1)
}

func TestPipelineDegradedDoesNotChangeNote(t *testing.T) {
	pipeline, _, _, _ := newPipelineForTest("some readable document text", llm.Result{
		Source: llm.SourceFallback,
		Reason: "quota exceeded",
		Data:   map[string]any{"confidence": 0.95, "issues": []any{}},
	})

	doc, outcome := pipeline.Process(context.Background(), panDocument())

	assert.Equal(t, StateMaskedAndStored, outcome.State)
	assert.True(t, outcome.Degraded)
	assert.Equal(t, "quota exceeded", outcome.Reason)
	assert.Equal(t, noteReadyForHR, *doc.VerificationNotes)
}

func TestPipelineStoresAtMostFiveThousandRunes(t *testing.T) {
	pipeline, gateway, _, _ := newPipelineForTest(strings.Repeat("é", 6000), llm.Result{Source: llm.SourceLive, Data: map[string]any{}})

	doc, _ := pipeline.Process(context.Background(), panDocument())

	assert.Len(t, []rune(*doc.ExtractedText), maxStoredTextRunes)
	assert.Contains(t, gateway.requests[0].Prompt, strings.Repeat("é", 2000))
	assert.NotContains(t, gateway.requests[0].Prompt, strings.Repeat("é", 2001))
}

func TestGetMaskedDocumentData(t *testing.T) {
	pipeline, _, _, _ := newPipelineForTest("")

	assert.Equal(t, map[string]any{"status": "not_processed"}, pipeline.GetMaskedDocumentData(&models.Document{DocumentType: models.CategoryPAN}))

	broken := &models.Document{DocumentType: models.CategoryPAN, AIValidationResult: strPtr("{not json")}
	data := pipeline.GetMaskedDocumentData(broken)
	assert.True(t, strings.HasPrefix(data["error"].(string), "Failed to parse document data: "))

	stored := &models.Document{
		DocumentType:       models.CategoryAadhaar,
		AIValidationResult: strPtr(`{"name":"Asha","aadhaar_number":"XXXX XXXX 9012","aadhaar_number_masked":"XXXX XXXX 9012","confidence":0.9,"issues":[],"extracted_data":{"x":1}}`),
	}
	data = pipeline.GetMaskedDocumentData(stored)
	assert.Equal(t, "XXXX XXXX 9012", data["aadhaar_number_masked"])
	assert.Equal(t, "Asha", data["name"])
	assert.Contains(t, data, "confidence")
	assert.NotContains(t, data, "aadhaar_number")
	assert.NotContains(t, data, "extracted_data")
}

func TestBuildValidationPrompt(t *testing.T) {
	resume := BuildValidationPrompt(strings.Repeat("a", 4000), models.CategoryResume)
	assert.Contains(t, resume, strings.Repeat("a", 3000))
	assert.NotContains(t, resume, strings.Repeat("a", 3001))
	assert.Contains(t, resume, `"experience_years"`)

	photo := BuildValidationPrompt("", models.CategoryPhoto)
	assert.Contains(t, photo, "Image file")

	aadhaar := BuildValidationPrompt("text", models.CategoryAadhaar)
	assert.True(t, strings.HasSuffix(aadhaar, "IMPORTANT: Extract the full 12-digit Aadhaar number (will be masked later for security)."))

	other := BuildValidationPrompt("text", models.CategoryOther)
	assert.True(t, strings.HasPrefix(other, "Analyze this document:"))
	assert.Contains(t, other, "Return JSON:")
}

package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/hr-onboarding-api/internal/llm"
	"github.com/noah-isme/hr-onboarding-api/internal/models"
	appErrors "github.com/noah-isme/hr-onboarding-api/pkg/errors"
)

// HR query intents.
const (
	IntentStuckEmployees   = "stuck_employees"
	IntentPendingDocuments = "pending_documents"
	IntentTaskCompletion   = "task_completion"
	IntentEmployeeStatus   = "employee_status"
	IntentGeneralStats     = "general_stats"
)

const (
	assistantRowLimit = 20
	answerDataLimit   = 2000
)

type hrUserReader interface {
	ListByOnboardingStatuses(ctx context.Context, statuses []models.OnboardingStatus, limit int) ([]models.User, error)
	CountEmployees(ctx context.Context) (int, error)
	CountEmployeesByOnboardingStatus(ctx context.Context, status models.OnboardingStatus) (int, error)
}

type hrDocumentReader interface {
	ListPendingWithEmployee(ctx context.Context, limit int) ([]models.PendingDocument, error)
}

type hrTaskReader interface {
	TaskCompletionStats(ctx context.Context) (models.TaskCompletionStats, error)
}

// HRAssistantService answers free-text HR questions from live data.
type HRAssistantService struct {
	gateway   modelGateway
	users     hrUserReader
	documents hrDocumentReader
	tasks     hrTaskReader
	logger    *zap.Logger
}

// NewHRAssistantService constructs the HR assistant.
func NewHRAssistantService(gateway modelGateway, users hrUserReader, documents hrDocumentReader, tasks hrTaskReader, logger *zap.Logger) *HRAssistantService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HRAssistantService{gateway: gateway, users: users, documents: documents, tasks: tasks, logger: logger}
}

// Answer classifies query, loads the matching data and asks the model to
// summarise it. The loaded data is returned under raw_data.
func (s *HRAssistantService) Answer(ctx context.Context, query string) (*AssistantResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "query is required")
	}

	intent := s.classify(ctx, query)
	data, err := s.fetch(ctx, intent)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assistant data")
	}

	result := s.gateway.Call(ctx, llm.Request{Prompt: buildAnswerPrompt(query, intent, data)})
	answer := newAssistantResult(result)
	answer.Data["raw_data"] = data
	s.logger.Debug("hr query answered", zap.String("intent", intent), zap.String("source", string(result.Source)))
	return answer, nil
}

func (s *HRAssistantService) classify(ctx context.Context, query string) string {
	result := s.gateway.Call(ctx, llm.Request{Prompt: buildClassifyPrompt(query)})
	intent := strings.ToLower(strings.TrimSpace(stringField(result.Data, "intent", IntentGeneralStats)))
	switch intent {
	case IntentStuckEmployees, IntentPendingDocuments, IntentTaskCompletion, IntentEmployeeStatus, IntentGeneralStats:
		return intent
	default:
		return IntentGeneralStats
	}
}

func (s *HRAssistantService) fetch(ctx context.Context, intent string) (map[string]any, error) {
	switch intent {
	case IntentStuckEmployees:
		users, err := s.users.ListByOnboardingStatuses(ctx,
			[]models.OnboardingStatus{models.OnboardingBlocked, models.OnboardingInProgress}, assistantRowLimit)
		if err != nil {
			return nil, err
		}
		employees := make([]map[string]any, 0, len(users))
		for _, u := range users {
			notes := "No notes"
			if u.OnboardingNotes != nil && *u.OnboardingNotes != "" {
				notes = *u.OnboardingNotes
			}
			employees = append(employees, map[string]any{
				"name":   u.Name,
				"status": string(u.OnboardingStatus),
				"notes":  notes,
			})
		}
		return map[string]any{"employees": employees}, nil

	case IntentPendingDocuments:
		docs, err := s.documents.ListPendingWithEmployee(ctx, assistantRowLimit)
		if err != nil {
			return nil, err
		}
		pending := make([]map[string]any, 0, len(docs))
		for _, d := range docs {
			confidence := 0.0
			if d.AIConfidenceScore != nil {
				confidence = *d.AIConfidenceScore
			}
			pending = append(pending, map[string]any{
				"employee_name": d.EmployeeName,
				"document_type": d.DocumentType.String(),
				"uploaded_at":   d.UploadedAt.Format("2006-01-02 15:04:05"),
				"ai_confidence": confidence,
			})
		}
		return map[string]any{"pending_documents": pending}, nil

	case IntentTaskCompletion:
		stats, err := s.tasks.TaskCompletionStats(ctx)
		if err != nil {
			return nil, err
		}
		rate := 0.0
		if stats.TotalTasks > 0 {
			rate = float64(stats.CompletedTasks) / float64(stats.TotalTasks) * 100
		}
		return map[string]any{
			"total_tasks":     stats.TotalTasks,
			"completed_tasks": stats.CompletedTasks,
			"completion_rate": rate,
		}, nil

	default:
		total, err := s.users.CountEmployees(ctx)
		if err != nil {
			return nil, err
		}
		completed, err := s.users.CountEmployeesByOnboardingStatus(ctx, models.OnboardingCompleted)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"total_employees":      total,
			"completed_onboarding": completed,
		}, nil
	}
}

func buildClassifyPrompt(query string) string {
	return fmt.Sprintf(`Classify this HR query into one of these categories:
- stuck_employees: Questions about blocked/delayed onboarding
- pending_documents: Questions about document verification
- task_completion: Questions about task progress
- employee_status: Questions about specific employee status
- general_stats: Questions about overall metrics

Query: "%s"

Return JSON:
{
    "intent": "category_name",
    "confidence": 0.9
}`, query)
}

func buildAnswerPrompt(query, intent string, data map[string]any) string {
	return fmt.Sprintf(`HR asked: "%s"

Query type: %s

Database shows:
%s

Provide a helpful, concise answer in natural language.
Also suggest actionable next steps.

Return JSON:
{
    "answer": "Natural language response",
    "data_summary": {},
    "suggestions": ["action1", "action2"],
    "priority": "low"
}`, query, intent, truncateRunes(compactJSON(data), answerDataLimit))
}

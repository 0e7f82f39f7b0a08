package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/hr-onboarding-api/internal/llm"
	"github.com/noah-isme/hr-onboarding-api/internal/models"
	appErrors "github.com/noah-isme/hr-onboarding-api/pkg/errors"
)

const (
	chatHistoryTurns   = 3
	chatPendingTasks   = 10
	employeeChatSystem = "You are a helpful, friendly onboarding assistant. Be concise and actionable."
)

// chatTrackedCategories are the documents the chat assistant reminds employees about.
var chatTrackedCategories = []models.DocumentCategory{
	models.CategoryPAN,
	models.CategoryAadhaar,
	models.CategoryResume,
	models.CategoryOfferLetter,
}

// ChatTurn is one earlier exchange of a conversation.
type ChatTurn struct {
	User string `json:"user"`
	Bot  string `json:"bot"`
}

type employeeTaskReader interface {
	ListEmployeeTasks(ctx context.Context, employeeID string) ([]models.EmployeeTask, error)
}

type employeeDocumentReader interface {
	ListByEmployee(ctx context.Context, employeeID string) ([]models.Document, error)
}

// EmployeeAssistantService answers an employee's onboarding questions.
type EmployeeAssistantService struct {
	gateway   modelGateway
	users     profileUserReader
	tasks     employeeTaskReader
	documents employeeDocumentReader
	logger    *zap.Logger
}

// NewEmployeeAssistantService constructs the employee chat assistant.
func NewEmployeeAssistantService(gateway modelGateway, users profileUserReader, tasks employeeTaskReader, documents employeeDocumentReader, logger *zap.Logger) *EmployeeAssistantService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmployeeAssistantService{gateway: gateway, users: users, tasks: tasks, documents: documents, logger: logger}
}

type chatContext struct {
	Employee         *models.User
	PendingTasks     []models.EmployeeTask
	MissingDocuments []string
}

// Chat replies to message using the employee's tasks, documents and the last
// few turns of history.
func (s *EmployeeAssistantService) Chat(ctx context.Context, employeeID, message string, history []ChatTurn) (*AssistantResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "message is required")
	}

	cc, err := s.buildContext(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	result := s.gateway.Call(ctx, llm.Request{
		Prompt:            buildChatPrompt(cc, message, history),
		SystemInstruction: employeeChatSystem,
	})
	return newAssistantResult(result), nil
}

func (s *EmployeeAssistantService) buildContext(ctx context.Context, employeeID string) (*chatContext, error) {
	employee, err := s.users.FindByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}

	tasks, err := s.tasks.ListEmployeeTasks(ctx, employeeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tasks")
	}
	pending := make([]models.EmployeeTask, 0, chatPendingTasks)
	for _, task := range tasks {
		if task.Status == models.TaskCompleted {
			continue
		}
		if len(pending) == chatPendingTasks {
			break
		}
		pending = append(pending, task)
	}

	docs, err := s.documents.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load documents")
	}
	have := make(map[models.DocumentCategory]struct{}, len(docs))
	for _, doc := range docs {
		have[doc.DocumentType] = struct{}{}
	}
	missing := make([]string, 0, len(chatTrackedCategories))
	for _, category := range chatTrackedCategories {
		if _, ok := have[category]; !ok {
			missing = append(missing, category.String())
		}
	}

	return &chatContext{Employee: employee, PendingTasks: pending, MissingDocuments: missing}, nil
}

func buildChatPrompt(cc *chatContext, message string, history []ChatTurn) string {
	if len(history) > chatHistoryTurns {
		history = history[len(history)-chatHistoryTurns:]
	}
	var historyText strings.Builder
	for _, turn := range history {
		fmt.Fprintf(&historyText, "Employee: %s\nAssistant: %s\n", turn.User, turn.Bot)
	}

	return fmt.Sprintf(`You are an onboarding assistant helping an employee.

Employee Context:
- Name: %s
- Role: %s
- Onboarding Status: %s

Pending Tasks: %d tasks
Missing Documents: %s

Conversation History:
%s

Employee's Question: "%s"

Provide a helpful, friendly response.
If they need to take action, be specific about next steps.

Return JSON:
{
    "reply": "Friendly response text",
    "action_items": ["specific action 1"],
    "helpful_links": ["/tasks"],
    "urgency": "low"
}`,
		cc.Employee.Name,
		cc.Employee.Role,
		cc.Employee.OnboardingStatus,
		len(cc.PendingTasks),
		compactJSON(cc.MissingDocuments),
		historyText.String(),
		message,
	)
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/hr-onboarding-api/internal/llm"
	"github.com/noah-isme/hr-onboarding-api/internal/models"
	appErrors "github.com/noah-isme/hr-onboarding-api/pkg/errors"
)

const (
	onboardingNotesLimit   = 500
	onboardingAnalystInstr = "You are an onboarding progress analyst. Be accurate and helpful."
)

type onboardingUserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateOnboarding(ctx context.Context, id string, update models.OnboardingUpdate, updatedAt time.Time) error
}

type onboardingProgressReader interface {
	ListEmployeeTasks(ctx context.Context, employeeID string) ([]models.EmployeeTask, error)
	ListEmployeeTraining(ctx context.Context, employeeID string) ([]models.EmployeeTraining, error)
}

// OnboardingSnapshot is the progress data handed to the analyst model.
type OnboardingSnapshot struct {
	Employee  *models.User
	Tasks     TaskCounts
	Documents DocumentCounts
	Training  TrainingCounts
}

// TaskCounts summarises an employee's task assignments.
type TaskCounts struct {
	Total     int
	Completed int
	Pending   int
}

// DocumentCounts summarises an employee's uploads by review state.
type DocumentCounts struct {
	Total    int
	Verified int
	Pending  int
	Rejected int
}

// TrainingCounts summarises an employee's training enrollments.
type TrainingCounts struct {
	Total      int
	Completed  int
	InProgress int
	NotStarted int
}

// OnboardingService asks the model to judge an employee's onboarding progress
// and writes the verdict back to the employee record.
type OnboardingService struct {
	gateway   modelGateway
	users     onboardingUserStore
	progress  onboardingProgressReader
	documents employeeDocumentReader
	logger    *zap.Logger
	now       func() time.Time
}

// NewOnboardingService constructs an OnboardingService.
func NewOnboardingService(gateway modelGateway, users onboardingUserStore, progress onboardingProgressReader, documents employeeDocumentReader, logger *zap.Logger) *OnboardingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OnboardingService{
		gateway:   gateway,
		users:     users,
		progress:  progress,
		documents: documents,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Analyze gathers progress, asks for a verdict and persists the recommended status.
func (s *OnboardingService) Analyze(ctx context.Context, employeeID string) (*AssistantResult, error) {
	snapshot, err := s.gather(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	result := s.gateway.Call(ctx, llm.Request{
		Prompt:            buildOnboardingPrompt(snapshot),
		SystemInstruction: onboardingAnalystInstr,
	})
	analysis := newAssistantResult(result)

	update := s.updateFor(snapshot.Employee, analysis.Data)
	if err := s.users.UpdateOnboarding(ctx, employeeID, update, s.now()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update onboarding status")
	}

	s.logger.Info("onboarding analysed",
		zap.String("employee_id", employeeID),
		zap.String("status", string(update.Status)),
		zap.String("source", string(result.Source)),
	)
	return analysis, nil
}

func (s *OnboardingService) gather(ctx context.Context, employeeID string) (*OnboardingSnapshot, error) {
	employee, err := s.users.FindByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}

	tasks, err := s.progress.ListEmployeeTasks(ctx, employeeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tasks")
	}
	docs, err := s.documents.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load documents")
	}
	training, err := s.progress.ListEmployeeTraining(ctx, employeeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load training")
	}

	snapshot := &OnboardingSnapshot{Employee: employee}
	snapshot.Tasks.Total = len(tasks)
	for _, task := range tasks {
		switch task.Status {
		case models.TaskCompleted:
			snapshot.Tasks.Completed++
		case models.TaskPending:
			snapshot.Tasks.Pending++
		}
	}
	snapshot.Documents.Total = len(docs)
	for _, doc := range docs {
		switch doc.VerificationStatus {
		case models.VerificationVerified:
			snapshot.Documents.Verified++
		case models.VerificationPending:
			snapshot.Documents.Pending++
		case models.VerificationRejected:
			snapshot.Documents.Rejected++
		}
	}
	snapshot.Training.Total = len(training)
	for _, t := range training {
		switch t.Status {
		case models.TrainingCompleted:
			snapshot.Training.Completed++
		case models.TrainingInProgress:
			snapshot.Training.InProgress++
		case models.TrainingNotStarted:
			snapshot.Training.NotStarted++
		}
	}
	return snapshot, nil
}

// updateFor maps the analysis onto the employee. Timestamps already set on
// the employee are left alone.
func (s *OnboardingService) updateFor(employee *models.User, analysis map[string]any) models.OnboardingUpdate {
	status := models.ParseOnboardingStatus(stringField(analysis, "recommended_status", string(models.OnboardingInProgress)))
	update := models.OnboardingUpdate{
		Status: status,
		Notes:  truncateRunes(stringField(analysis, "summary", ""), onboardingNotesLimit),
	}
	now := s.now()
	switch status {
	case models.OnboardingCompleted:
		if employee.OnboardingCompletedAt == nil {
			update.CompletedAt = &now
		}
	case models.OnboardingInProgress, models.OnboardingBlocked:
		if employee.OnboardingStartedAt == nil {
			update.StartedAt = &now
		}
	}
	return update
}

func buildOnboardingPrompt(s *OnboardingSnapshot) string {
	return fmt.Sprintf(`Analyze this employee's onboarding progress:

Employee: %s (%s)
Current Status: %s

Tasks:
- Total: %d
- Completed: %d
- Pending: %d

Documents:
- Total: %d
- Verified: %d
- Pending: %d
- Rejected: %d

Training:
- Total: %d
- Completed: %d
- In Progress: %d

Determine:
1. Overall onboarding status (not_started / in_progress / completed / blocked)
2. What is blocking completion (if any)
3. Next steps for the employee
4. Estimated completion time

Return JSON:
{
    "recommended_status": "in_progress",
    "completion_percentage": 65,
    "blockers": ["Document verification pending"],
    "completed_steps": ["Training", "Profile setup"],
    "pending_steps": ["Document verification", "IT setup"],
    "next_action": "Complete document verification",
    "estimated_days_to_complete": 3,
    "summary": "Employee has completed training but documents are pending verification.",
    "is_on_track": true
}`,
		s.Employee.Name, s.Employee.Role,
		s.Employee.OnboardingStatus,
		s.Tasks.Total, s.Tasks.Completed, s.Tasks.Pending,
		s.Documents.Total, s.Documents.Verified, s.Documents.Pending, s.Documents.Rejected,
		s.Training.Total, s.Training.Completed, s.Training.InProgress,
	)
}

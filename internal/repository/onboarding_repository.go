package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hr-onboarding-api/internal/models"
)

// OnboardingRepository reads task assignments and training progress.
type OnboardingRepository struct {
	db *sqlx.DB
}

// NewOnboardingRepository constructs the repository.
func NewOnboardingRepository(db *sqlx.DB) *OnboardingRepository {
	return &OnboardingRepository{db: db}
}

// ListEmployeeTasks returns an employee's assignments joined with task definitions.
func (r *OnboardingRepository) ListEmployeeTasks(ctx context.Context, employeeID string) ([]models.EmployeeTask, error) {
	const query = `SELECT et.id, et.task_id, t.title, t.task_type, t.description, et.status, et.assigned_at, et.completed_at
	FROM employee_tasks et JOIN tasks t ON t.id = et.task_id
	WHERE et.employee_id = $1
	ORDER BY et.assigned_at ASC`
	var tasks []models.EmployeeTask
	if err := r.db.SelectContext(ctx, &tasks, query, employeeID); err != nil {
		return nil, fmt.Errorf("list employee tasks: %w", err)
	}
	return tasks, nil
}

// ListEmployeeTraining returns an employee's training enrollments.
func (r *OnboardingRepository) ListEmployeeTraining(ctx context.Context, employeeID string) ([]models.EmployeeTraining, error) {
	const query = `SELECT id, training_module_id, status, progress_percentage
	FROM employee_training WHERE employee_id = $1`
	var training []models.EmployeeTraining
	if err := r.db.SelectContext(ctx, &training, query, employeeID); err != nil {
		return nil, fmt.Errorf("list employee training: %w", err)
	}
	return training, nil
}

// TaskCompletionStats counts all assignments and completed ones.
func (r *OnboardingRepository) TaskCompletionStats(ctx context.Context) (models.TaskCompletionStats, error) {
	const query = `SELECT COUNT(*) AS total_tasks,
	COUNT(*) FILTER (WHERE status = $1) AS completed_tasks
	FROM employee_tasks`
	var stats models.TaskCompletionStats
	if err := r.db.GetContext(ctx, &stats, query, models.TaskCompleted); err != nil {
		return models.TaskCompletionStats{}, fmt.Errorf("task completion stats: %w", err)
	}
	return stats, nil
}

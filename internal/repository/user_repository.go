package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/hr-onboarding-api/internal/models"
)

const userColumns = `id, name, email, role, is_active, onboarding_status, onboarding_started_at,
       onboarding_completed_at, onboarding_notes, created_at, updated_at`

// UserRepository reads employees and writes their onboarding columns.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// ListByOnboardingStatuses returns employees in any of statuses, oldest first.
func (r *UserRepository) ListByOnboardingStatuses(ctx context.Context, statuses []models.OnboardingStatus, limit int) ([]models.User, error) {
	if limit <= 0 {
		limit = 20
	}
	values := make([]string, len(statuses))
	for i, status := range statuses {
		values[i] = string(status)
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 AND onboarding_status = ANY($2) ORDER BY created_at ASC LIMIT $3`
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, models.RoleEmployee, pq.Array(values), limit); err != nil {
		return nil, fmt.Errorf("list users by onboarding status: %w", err)
	}
	return users, nil
}

// CountEmployees returns the number of employee accounts.
func (r *UserRepository) CountEmployees(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users WHERE role = $1`, models.RoleEmployee); err != nil {
		return 0, fmt.Errorf("count employees: %w", err)
	}
	return total, nil
}

// CountEmployeesByOnboardingStatus returns the number of employees in status.
func (r *UserRepository) CountEmployeesByOnboardingStatus(ctx context.Context, status models.OnboardingStatus) (int, error) {
	var total int
	const query = `SELECT COUNT(*) FROM users WHERE role = $1 AND onboarding_status = $2`
	if err := r.db.GetContext(ctx, &total, query, models.RoleEmployee, status); err != nil {
		return 0, fmt.Errorf("count employees by onboarding status: %w", err)
	}
	return total, nil
}

// UpdateOnboarding writes the analysis outcome. Existing start and completion
// timestamps are never overwritten.
func (r *UserRepository) UpdateOnboarding(ctx context.Context, id string, update models.OnboardingUpdate, updatedAt time.Time) error {
	const query = `UPDATE users SET onboarding_status = $2, onboarding_notes = $3,
	onboarding_started_at = COALESCE(onboarding_started_at, $4),
	onboarding_completed_at = COALESCE(onboarding_completed_at, $5),
	updated_at = $6
	WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, update.Status, update.Notes, update.StartedAt, update.CompletedAt, updatedAt)
	if err != nil {
		return fmt.Errorf("update onboarding: %w", err)
	}
	return expectOneRow(res, "update onboarding")
}

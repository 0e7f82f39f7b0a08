package models

import (
	"strings"
	"time"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleHR       UserRole = "hr"
	RoleEmployee UserRole = "employee"
)

// OnboardingStatus tracks where an employee is in the onboarding flow.
type OnboardingStatus string

const (
	OnboardingNotStarted OnboardingStatus = "NOT_STARTED"
	OnboardingInProgress OnboardingStatus = "IN_PROGRESS"
	OnboardingCompleted  OnboardingStatus = "COMPLETED"
	OnboardingBlocked    OnboardingStatus = "BLOCKED"
)

// ParseOnboardingStatus matches raw case-insensitively, defaulting to IN_PROGRESS.
func ParseOnboardingStatus(raw string) OnboardingStatus {
	switch status := OnboardingStatus(upper(raw)); status {
	case OnboardingNotStarted, OnboardingInProgress, OnboardingCompleted, OnboardingBlocked:
		return status
	default:
		return OnboardingInProgress
	}
}

func upper(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// User represents an HR user or employee stored in the users table.
type User struct {
	ID                    string           `db:"id" json:"id"`
	Name                  string           `db:"name" json:"name"`
	Email                 string           `db:"email" json:"email"`
	Role                  UserRole         `db:"role" json:"role"`
	IsActive              bool             `db:"is_active" json:"is_active"`
	OnboardingStatus      OnboardingStatus `db:"onboarding_status" json:"onboarding_status"`
	OnboardingStartedAt   *time.Time       `db:"onboarding_started_at" json:"onboarding_started_at,omitempty"`
	OnboardingCompletedAt *time.Time       `db:"onboarding_completed_at" json:"onboarding_completed_at,omitempty"`
	OnboardingNotes       *string          `db:"onboarding_notes" json:"onboarding_notes,omitempty"`
	CreatedAt             time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time        `db:"updated_at" json:"updated_at"`
}

// OnboardingUpdate carries the fields written back by onboarding analysis.
type OnboardingUpdate struct {
	Status      OnboardingStatus
	Notes       string
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

package models

import "time"

// TaskStatus is the completion state of an assigned task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
)

// TrainingStatus is an employee's progress through a training module.
type TrainingStatus string

const (
	TrainingNotStarted TrainingStatus = "not_started"
	TrainingInProgress TrainingStatus = "in_progress"
	TrainingCompleted  TrainingStatus = "completed"
)

// EmployeeTask is an assigned task joined with its definition.
type EmployeeTask struct {
	ID          string     `db:"id" json:"id"`
	TaskID      string     `db:"task_id" json:"task_id"`
	Title       string     `db:"title" json:"title"`
	TaskType    string     `db:"task_type" json:"type"`
	Description *string    `db:"description" json:"description,omitempty"`
	Status      TaskStatus `db:"status" json:"status"`
	AssignedAt  time.Time  `db:"assigned_at" json:"assigned_at"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// EmployeeTraining is an employee's enrollment in one training module.
type EmployeeTraining struct {
	ID                 string         `db:"id" json:"id"`
	TrainingModuleID   string         `db:"training_module_id" json:"training_module_id"`
	Status             TrainingStatus `db:"status" json:"status"`
	ProgressPercentage int            `db:"progress_percentage" json:"progress_percentage"`
}

// TaskCompletionStats aggregates assignment completion across all employees.
type TaskCompletionStats struct {
	TotalTasks     int `db:"total_tasks" json:"total_tasks"`
	CompletedTasks int `db:"completed_tasks" json:"completed_tasks"`
}

// Profile slot states.
const (
	SlotUploaded      = "uploaded"
	SlotPendingUpload = "pending_upload"
	SlotNotUploaded   = "not_uploaded"
)

// EmployeeSummary is the employee header of an onboarding profile.
type EmployeeSummary struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Email            string           `json:"email"`
	Role             UserRole         `json:"role"`
	OnboardingStatus OnboardingStatus `json:"onboarding_status"`
	IsActive         bool             `json:"is_active"`
	CreatedAt        time.Time        `json:"created_at"`
}

// DocumentSlot is one of the six required document positions in a profile.
type DocumentSlot struct {
	DocumentID         *string          `json:"document_id,omitempty"`
	DocumentType       DocumentCategory `json:"document_type"`
	OriginalFilename   *string          `json:"original_filename,omitempty"`
	UploadedAt         *time.Time       `json:"uploaded_at"`
	VerificationStatus string           `json:"verification_status"`
	VerificationNotes  *string          `json:"verification_notes,omitempty"`
	VerifiedAt         *time.Time       `json:"verified_at"`
	AIConfidenceScore  *float64         `json:"ai_confidence_score"`
	ExtractedFields    map[string]any   `json:"extracted_fields"`
	Issues             []any            `json:"issues"`
	MissingFields      []any            `json:"missing_fields"`
	Status             string           `json:"status"`
}

// DocumentSummary counts slot states across a profile.
type DocumentSummary struct {
	TotalRequired        int `json:"total_required"`
	Uploaded             int `json:"uploaded"`
	Verified             int `json:"verified"`
	PendingVerification  int `json:"pending_verification"`
	PendingUpload        int `json:"pending_upload"`
	Rejected             int `json:"rejected"`
	CompletionPercentage int `json:"completion_percentage"`
}

// OnboardingProfile is the assembled six-slot document view of an employee.
type OnboardingProfile struct {
	Employee        EmployeeSummary `json:"employee"`
	DocumentSlots   []DocumentSlot  `json:"document_slots"`
	DocumentSummary DocumentSummary `json:"document_summary"`
}

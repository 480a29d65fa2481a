// Package models defines the data structures used across the application.
// These map to the PostgreSQL schema.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Grievance statuses. The database stores the exact strings; display-level
// collapsing (see DisplayStatus) never mutates the stored value.
const (
	StatusPending         = "Pending"
	StatusPendingAtTriage = "Pending at Triage"
	StatusReopened        = "Reopened"
	StatusInReview        = "In Review"
	StatusInProgress      = "In Progress"
	StatusResolved        = "Resolved"
	StatusRejected        = "Rejected"
	StatusPolicyDecision  = "Policy Decision"
	StatusPendingApproval = "Pending Approval"
)

// User roles carried in the JWT role claim.
const (
	RoleCitizen         = "CITIZEN"
	RoleTriageUser      = "TRIAGE_USER"
	RoleDepartmentAdmin = "DEPARTMENT_ADMIN"
	RoleTopAuthority    = "TOP_AUTHORITY"
)

// Audit event actions.
const (
	ActionSubmitted         = "SUBMITTED"
	ActionStatusChanged     = "STATUS_CHANGED"
	ActionDueDateUpdated    = "DUE_DATE_UPDATED"
	ActionResolutionUpdated = "RESOLUTION_NOTES_UPDATED"
	ActionCategoryAssigned  = "CATEGORY_ASSIGNED"
	ActionReopened          = "REOPENED"
	ActionExtensionGranted  = "SLA_EXTENSION_GRANTED"
	ActionEscalated         = "AUTO_ESCALATED"
	ActionImageUploaded     = "IMAGE_UPLOADED"
)

// Grievance is a citizen complaint tracked against an SLA due date.
type Grievance struct {
	ID              uuid.UUID        `json:"id" db:"id"`
	Title           string           `json:"title" db:"title"`
	Description     string           `json:"description" db:"description"`
	Status          string           `json:"status" db:"status"`
	Location        string           `json:"location,omitempty" db:"location"`
	CategoryID      *uuid.UUID       `json:"category_id,omitempty" db:"category_id"`
	Category        *Category        `json:"category,omitempty" db:"-"`
	CategoryName    string           `json:"category_name,omitempty" db:"category_name"`
	DepartmentID    *uuid.UUID       `json:"department_id,omitempty" db:"department_id"`
	DepartmentName  string           `json:"department_name,omitempty" db:"department_name"`
	DueDate         *Date            `json:"due_date" db:"due_date"`
	ResolutionNotes string           `json:"resolution_notes,omitempty" db:"resolution_notes"`
	UserID          uuid.UUID        `json:"user" db:"user_id"`
	UserName        string           `json:"user_name" db:"user_name"`
	Images          []GrievanceImage `json:"images" db:"-"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at" db:"updated_at"`
}

// DisplayStatus returns the citizen-facing status bucket. Pending at Triage
// and Reopened collapse to "Pending" for display only; the stored status is
// untouched.
func (g *Grievance) DisplayStatus() string {
	switch g.Status {
	case StatusPendingAtTriage, StatusReopened:
		return StatusPending
	default:
		return g.Status
	}
}

// GrievanceImage is an ordered attachment reference.
type GrievanceImage struct {
	ID         uuid.UUID `json:"id" db:"id"`
	Path       string    `json:"image" db:"path"`
	UploadedAt time.Time `json:"uploaded_at" db:"uploaded_at"`
}

// GrievanceEvent is an immutable audit record, append-only, created on every
// status/category/due-date mutation.
type GrievanceEvent struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	GrievanceID uuid.UUID  `json:"grievance" db:"grievance_id"`
	UserID      *uuid.UUID `json:"user,omitempty" db:"user_id"`
	UserName    string     `json:"user_name,omitempty" db:"user_name"`
	Action      string     `json:"action" db:"action"`
	Notes       string     `json:"notes" db:"notes"`
	Timestamp   time.Time  `json:"timestamp" db:"timestamp"`
}

// User is an authenticated account.
type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	Email        string     `json:"email" db:"email"`
	Role         string     `json:"role" db:"role"`
	DepartmentID *uuid.UUID `json:"department_id,omitempty" db:"department_id"`
	PasswordHash string     `json:"-" db:"password_hash"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// Department owns grievances routed to it via category assignment.
type Department struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description,omitempty" db:"description"`
}

// HealthStatus represents the server health check response
type HealthStatus struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Database string `json:"database,omitempty"`
	Cache    string `json:"cache,omitempty"`
}

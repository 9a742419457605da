package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AssignmentStatusActive    = "Active"
	AssignmentStatusCancelled = "Cancelled"
)

const (
	RoleLead       = "Lead"
	RoleTechnician = "Technician"
	RoleHelper     = "Helper"
	RoleSupervisor = "Supervisor"
)

// JobAssignment links an employee to a job in a role. The partial unique index
// keeps one active row per (job, employee, role).
type JobAssignment struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	JobID            uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_active_assignment,where:assignment_status = 'Active'" json:"job_id"`
	EmployeeID       uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_active_assignment,where:assignment_status = 'Active'" json:"employee_id"`
	RoleType         string    `gorm:"size:20;not null;uniqueIndex:idx_active_assignment,where:assignment_status = 'Active'" json:"role_type"`
	AssignmentStatus string    `gorm:"size:20;not null;default:'Active'" json:"assignment_status"`
	Notes            string    `gorm:"type:text" json:"notes,omitempty"`

	AssignedBy  uuid.UUID  `gorm:"type:uuid;not null" json:"assigned_by"`
	AssignedAt  time.Time  `json:"assigned_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

func (a *JobAssignment) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Job statuses
const (
	JobStatusCreated    = "Created"
	JobStatusAssigned   = "Assigned"
	JobStatusInProgress = "In Progress"
	JobStatusOnHold     = "On Hold"
	JobStatusCompleted  = "Completed"
	JobStatusCancelled  = "Cancelled"
)

const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
	PriorityUrgent = "Urgent"
)

type Job struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	JobCode    string     `gorm:"size:20;uniqueIndex;not null" json:"job_code"`
	CustomerID uuid.UUID  `gorm:"type:uuid;index;not null" json:"customer_id"`
	LocationID *uuid.UUID `gorm:"type:uuid;index" json:"location_id,omitempty"`
	PackageID  *uuid.UUID `gorm:"type:uuid;index" json:"package_id,omitempty"`

	ServiceType string `gorm:"size:50;not null" json:"service_type"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	Status      string `gorm:"size:20;not null;index;default:'Created'" json:"status"`
	Priority    string `gorm:"size:10;not null;default:'Medium'" json:"priority"`

	EstimatedCost decimal.Decimal `gorm:"type:decimal(14,4);not null;default:0" json:"estimated_cost"`
	ActualCost    decimal.Decimal `gorm:"type:decimal(14,4);not null;default:0" json:"actual_cost"`

	ScheduledDate *time.Time `json:"scheduled_date,omitempty"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`

	Metadata datatypes.JSON `json:"metadata,omitempty"`

	CreatedBy uuid.UUID `gorm:"type:uuid;index;not null" json:"created_by"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// JobLocation is an additional site attached to a job (e.g. a second rooftop).
type JobLocation struct {
	ID    uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	JobID uuid.UUID `gorm:"type:uuid;index;not null" json:"job_id"`

	Label        string   `json:"label,omitempty"`
	AddressLine1 string   `gorm:"not null" json:"address_line1"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	Pincode      string   `gorm:"size:10" json:"pincode"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (j *Job) BeforeCreate(tx *gorm.DB) (err error) {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return
}

func (l *JobLocation) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return
}

// models/status_tracking.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JobStatusTracking is the append-only audit trail of job status changes.
// Rows are never updated or deleted.
type JobStatusTracking struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	JobID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_job_tracking_sequence,priority:1" json:"job_id"`
	Sequence int       `gorm:"not null;uniqueIndex:idx_job_tracking_sequence,priority:2" json:"sequence"`

	PreviousStatus *string `gorm:"size:20" json:"previous_status"`
	NewStatus      string  `gorm:"size:20;not null" json:"new_status"`
	Reason         string  `gorm:"type:text" json:"reason,omitempty"`
	Comments       string  `gorm:"type:text" json:"comments,omitempty"`

	ChangedBy       *uuid.UUID `gorm:"type:uuid" json:"changed_by"` // nil for system transitions
	SystemGenerated bool       `gorm:"default:false" json:"system_generated"`
	CreatedAt       time.Time  `json:"created_at"`
}

func (t *JobStatusTracking) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Employee is maintained by the staff directory; this service only reads it to
// check assignments and to show creator names.
type Employee struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name   string    `gorm:"not null" json:"name"`
	Email  string    `gorm:"uniqueIndex;not null" json:"email"`
	Mobile string    `gorm:"size:20" json:"mobile"`
	Role   string    `gorm:"type:varchar(20);not null" json:"role"` // 'admin', 'manager' or 'technician'

	IsActive  bool      `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (e *Employee) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return
}

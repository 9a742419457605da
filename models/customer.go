package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CustomerStatusActive      = "Active"
	CustomerStatusInactive    = "Inactive"
	CustomerStatusBlacklisted = "Blacklisted"
)

const (
	CustomerTypeResidential = "Residential"
	CustomerTypeCommercial  = "Commercial"
	CustomerTypeIndustrial  = "Industrial"
)

type Customer struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CustomerCode string    `gorm:"size:20;uniqueIndex;not null" json:"customer_code"`

	Name         string  `gorm:"not null" json:"name"`
	Mobile       string  `gorm:"size:20;uniqueIndex;not null" json:"mobile"`
	Email        *string `gorm:"uniqueIndex" json:"email,omitempty"` // NULL when absent so it never collides
	CustomerType string  `gorm:"size:20;not null;default:'Residential'" json:"customer_type"`
	Status       string  `gorm:"size:20;not null;default:'Active'" json:"status"`
	GSTIN        *string `gorm:"size:15" json:"gstin,omitempty"`

	CreatedBy uuid.UUID `gorm:"type:uuid;index" json:"created_by"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Locations []CustomerLocation `gorm:"foreignKey:CustomerID" json:"locations,omitempty"`
}

// CustomerLocation is a service address. At most one row per customer is primary.
type CustomerLocation struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_customer_primary_location,where:is_primary = true" json:"customer_id"`

	AddressLine1 string   `gorm:"not null" json:"address_line1"`
	AddressLine2 string   `json:"address_line2,omitempty"`
	City         string   `json:"city"`
	District     string   `json:"district,omitempty"`
	State        string   `gorm:"index" json:"state"`
	Pincode      string   `gorm:"size:10" json:"pincode"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	IsPrimary    bool     `gorm:"not null;default:false" json:"is_primary"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Customer) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}

func (l *CustomerLocation) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return
}

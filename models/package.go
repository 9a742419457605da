package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Package is a solar installation package from the reference catalogue.
type Package struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Name        string          `gorm:"not null" json:"name"`
	Description string          `json:"description,omitempty"`
	CapacityKW  decimal.Decimal `gorm:"type:decimal(8,2);not null" json:"capacity_kw"`
	Price       decimal.Decimal `gorm:"type:decimal(14,4);not null" json:"price"`
	IsActive    bool            `gorm:"not null" json:"is_active"`
}

func (p *Package) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

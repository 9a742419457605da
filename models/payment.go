package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	PaymentTypeAdvance   = "Advance"
	PaymentTypeMilestone = "Milestone"
	PaymentTypeFinal     = "Final"
)

const (
	PaymentStatusPending   = "Pending"
	PaymentStatusCompleted = "Completed"
	PaymentStatusFailed    = "Failed"
)

// JobPayment is one entry of the job's GST-aware payment ledger. Tax values are
// stored unrounded; TotalAmount = Amount + CGST + SGST + IGST values.
type JobPayment struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	JobID       uuid.UUID `gorm:"type:uuid;index;not null" json:"job_id"`
	PaymentType string    `gorm:"size:20;not null" json:"payment_type"`

	Amount      decimal.Decimal `gorm:"type:decimal(14,4);not null" json:"amount"`
	CGSTRate    decimal.Decimal `gorm:"type:decimal(7,4);default:0" json:"cgst_rate"`
	SGSTRate    decimal.Decimal `gorm:"type:decimal(7,4);default:0" json:"sgst_rate"`
	IGSTRate    decimal.Decimal `gorm:"type:decimal(7,4);default:0" json:"igst_rate"`
	CGSTValue   decimal.Decimal `gorm:"type:decimal(18,6);default:0" json:"cgst_value"`
	SGSTValue   decimal.Decimal `gorm:"type:decimal(18,6);default:0" json:"sgst_value"`
	IGSTValue   decimal.Decimal `gorm:"type:decimal(18,6);default:0" json:"igst_value"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(18,6);not null" json:"total_amount"`

	Status         string    `gorm:"size:20;not null;index;default:'Pending'" json:"status"`
	PaymentMethod  string    `gorm:"size:30" json:"payment_method,omitempty"`
	TransactionRef string    `gorm:"size:100" json:"transaction_ref,omitempty"`
	PaymentDate    time.Time `json:"payment_date"`
	Notes          string    `gorm:"type:text" json:"notes,omitempty"`

	ReceivedBy uuid.UUID `gorm:"type:uuid;not null" json:"received_by"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (p *JobPayment) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

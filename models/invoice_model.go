package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	InvoicePending       = "PENDING"
	InvoicePartiallyPaid = "PARTIALLY_PAID"
	InvoicePaid          = "PAID"
	InvoiceOverdue       = "OVERDUE"
	InvoiceCancelled     = "CANCELLED"
)

const (
	FeeTypeRegistration = "REGISTRATION"
	FeeTypeTuition      = "TUITION"
	FeeTypeService      = "SERVICE"
)

type Invoice struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	InvoiceNumber  string     `gorm:"size:30;not null;unique" json:"invoice_number"`
	RegistrationID *uuid.UUID `gorm:"unique" json:"registration_id"` // nil for recurring-fee invoices
	StudentID      uuid.UUID  `gorm:"not null;index" json:"student_id"`
	BranchID       uuid.UUID  `gorm:"not null;index" json:"branch_id"`
	TotalAmount    float64    `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	DiscountAmount float64    `gorm:"type:numeric(12,2);default:0" json:"discount_amount"`
	PaidAmount     float64    `gorm:"type:numeric(12,2);default:0" json:"paid_amount"`
	FinalAmount    float64    `gorm:"type:numeric(12,2);not null" json:"final_amount"`
	Status         string     `gorm:"size:20;not null;default:'PENDING'" json:"status"`
	DueDate        time.Time  `gorm:"not null" json:"due_date"`
	CreatedByID    uuid.UUID  `gorm:"not null" json:"created_by_id"`

	Registration *Registration `gorm:"foreignkey:RegistrationID" json:"-"`
	Student      Student       `gorm:"foreignkey:StudentID" json:"student,omitempty"`
	Branch       Branch        `gorm:"foreignkey:BranchID" json:"-"`
	CreatedBy    User          `gorm:"foreignkey:CreatedByID" json:"-"`
	Items        []InvoiceItem `gorm:"foreignkey:InvoiceID" json:"items,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Outstanding is the balance still owed on the invoice.
func (i *Invoice) Outstanding() float64 {
	return i.FinalAmount - i.PaidAmount
}

// DeriveStatus returns the status implied by paid vs total. CANCELLED is
// sticky and never recomputed.
func (i *Invoice) DeriveStatus() string {
	switch {
	case i.PaidAmount <= 0:
		return InvoicePending
	case i.PaidAmount < i.FinalAmount:
		return InvoicePartiallyPaid
	default:
		return InvoicePaid
	}
}

type InvoiceItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	InvoiceID   uuid.UUID `gorm:"not null;index" json:"invoice_id"`
	FeeType     string    `gorm:"size:20;not null" json:"fee_type"`
	Description string    `gorm:"size:255;not null" json:"description"`
	Quantity    int       `gorm:"not null;default:1" json:"quantity"`
	Amount      float64   `gorm:"type:numeric(12,2);not null" json:"amount"`

	CreatedAt time.Time `json:"created_at"`
}

func (it *InvoiceItem) BeforeCreate(tx *gorm.DB) error {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	return nil
}

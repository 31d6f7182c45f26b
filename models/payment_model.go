package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	PaymentPending   = "PENDING"
	PaymentCompleted = "COMPLETED"
	PaymentFailed    = "FAILED"
)

const (
	MethodCash         = "CASH"
	MethodBankTransfer = "BANK_TRANSFER"
	MethodTelebirr     = "TELEBIRR"
	MethodOnline       = "ONLINE"
)

// Confirmation sources recorded on completed payments.
const (
	ConfirmSourceWebhook = "WEBHOOK"
	ConfirmSourceCashier = "CASHIER"
	ConfirmSourceDirect  = "DIRECT"
)

type Payment struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	PaymentNumber  string     `gorm:"size:30;not null;unique" json:"payment_number"`
	InvoiceID      uuid.UUID  `gorm:"not null;index" json:"invoice_id"`
	StudentID      uuid.UUID  `gorm:"not null;index" json:"student_id"`
	RegistrationID *uuid.UUID `json:"registration_id"`
	Amount         float64    `gorm:"type:numeric(12,2);not null" json:"amount"`
	PaymentMethod  string     `gorm:"size:20;not null" json:"payment_method"`
	Status         string     `gorm:"size:20;not null;default:'PENDING'" json:"status"`
	TransactionID  *string    `gorm:"size:64;unique" json:"transaction_id"` // gateway correlation id
	GatewayRef     *string    `gorm:"size:255" json:"gateway_ref"`          // receipt/reference reported back by the gateway
	ConfirmedVia   *string    `gorm:"size:20" json:"confirmed_via"`
	ConfirmedByID  *uuid.UUID `json:"confirmed_by_id"`
	Notes          *string    `gorm:"type:text" json:"notes"`
	PaymentDate    *time.Time `json:"payment_date"`

	// Verbatim webhook body kept for reconciliation audits.
	WebhookPayload datatypes.JSON `json:"-"`

	Invoice      Invoice       `gorm:"foreignkey:InvoiceID" json:"-"`
	Student      Student       `gorm:"foreignkey:StudentID" json:"-"`
	Registration *Registration `gorm:"foreignkey:RegistrationID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

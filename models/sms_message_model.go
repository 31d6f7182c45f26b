package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SmsPending = "PENDING"
	SmsSent    = "SENT"
	SmsFailed  = "FAILED"
)

// SmsMessage is the durable outbox for confirmation texts. Rows are written
// before the first send attempt so a crashed process never loses a message;
// the retry job re-sends FAILED rows out-of-band.
type SmsMessage struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	Phone     string     `gorm:"size:20;not null" json:"phone"`
	Body      string     `gorm:"type:text;not null" json:"body"`
	Status    string     `gorm:"size:10;not null;default:'PENDING'" json:"status"`
	Attempts  int        `gorm:"default:0" json:"attempts"`
	LastError *string    `gorm:"size:500" json:"last_error"`
	SentAt    *time.Time `json:"sent_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *SmsMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

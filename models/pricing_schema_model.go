package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PricingSchema is the fee table for one (branch, grade) pair. Read-only at
// registration time; amounts are ETB.
type PricingSchema struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	BranchID        uuid.UUID `gorm:"not null;index:idx_pricing_branch_grade,unique" json:"branch_id"`
	GradeID         uuid.UUID `gorm:"not null;index:idx_pricing_branch_grade,unique" json:"grade_id"`
	RegistrationFee float64   `gorm:"type:numeric(12,2);not null" json:"registration_fee"`
	MonthlyFee      float64   `gorm:"type:numeric(12,2);not null" json:"monthly_fee"`
	ServiceFee      float64   `gorm:"type:numeric(12,2);default:0" json:"service_fee"`
	IsActive        bool      `gorm:"default:true" json:"is_active"`

	Branch Branch `gorm:"foreignkey:BranchID" json:"-"`
	Grade  Grade  `gorm:"foreignkey:GradeID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *PricingSchema) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

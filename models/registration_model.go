package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RegistrationPendingPayment   = "PENDING_PAYMENT"
	RegistrationPaymentCompleted = "PAYMENT_COMPLETED"
	RegistrationEnrolled         = "ENROLLED"
	RegistrationCancelled        = "CANCELLED"
	RegistrationExpired          = "EXPIRED"
)

// Payment duration options offered at registration, as multiples of the
// monthly fee.
const (
	OptionOneMonth       = "ONE_MONTH"
	OptionTwoMonths      = "TWO_MONTHS"
	OptionTwoHalfMonths  = "TWO_HALF_MONTHS"
	OptionThreeMonths    = "THREE_MONTHS"
	OptionFourMonths     = "FOUR_MONTHS"
	OptionFiveMonths     = "FIVE_MONTHS"
	OptionTenMonths      = "TEN_MONTHS"
)

// PaymentOptionMonths maps each option to its duration multiplier. Order of
// the menu is fixed by PaymentOptionOrder.
var PaymentOptionMonths = map[string]float64{
	OptionOneMonth:      1,
	OptionTwoMonths:     2,
	OptionTwoHalfMonths: 2.5,
	OptionThreeMonths:   3,
	OptionFourMonths:    4,
	OptionFiveMonths:    5,
	OptionTenMonths:     10,
}

var PaymentOptionOrder = []string{
	OptionOneMonth,
	OptionTwoMonths,
	OptionTwoHalfMonths,
	OptionThreeMonths,
	OptionFourMonths,
	OptionFiveMonths,
	OptionTenMonths,
}

type Registration struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	RegistrationNumber string     `gorm:"size:30;not null;unique" json:"registration_number"`
	StudentID          uuid.UUID  `gorm:"not null;index" json:"student_id"`
	BranchID           uuid.UUID  `gorm:"not null;index" json:"branch_id"`
	GradeID            uuid.UUID  `gorm:"not null" json:"grade_id"`
	AcademicYearID     uuid.UUID  `gorm:"not null;index" json:"academic_year_id"`
	PaymentOption      string     `gorm:"size:20;not null" json:"payment_option"`
	RegistrationFee    float64    `gorm:"type:numeric(12,2);not null" json:"registration_fee"`
	AdditionalFee      float64    `gorm:"type:numeric(12,2);not null" json:"additional_fee"`
	DiscountAmount     float64    `gorm:"type:numeric(12,2);default:0" json:"discount_amount"`
	TotalAmount        float64    `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	PaidAmount         float64    `gorm:"type:numeric(12,2);default:0" json:"paid_amount"`
	PaymentDueDate     time.Time  `gorm:"not null" json:"payment_due_date"`
	Status             string     `gorm:"size:20;not null;default:'PENDING_PAYMENT'" json:"status"`
	CompletedAt        *time.Time `json:"completed_at"`
	EnrolledAt         *time.Time `json:"enrolled_at"`

	Student      Student      `gorm:"foreignkey:StudentID" json:"student,omitempty"`
	Branch       Branch       `gorm:"foreignkey:BranchID" json:"-"`
	Grade        Grade        `gorm:"foreignkey:GradeID" json:"-"`
	AcademicYear AcademicYear `gorm:"foreignkey:AcademicYearID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Registration) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

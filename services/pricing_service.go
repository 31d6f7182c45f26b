package services

import (
	"errors"

	"github.com/eyobtef/school_admin/apperrors"
	"github.com/eyobtef/school_admin/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentOptionQuote struct {
	Option string  `json:"option"`
	Months float64 `json:"months"`
	Fee    float64 `json:"fee"`
}

type PricingQuote struct {
	RegistrationFee float64              `json:"registration_fee"`
	MonthlyFee      float64              `json:"monthly_fee"`
	ServiceFee      float64              `json:"service_fee"`
	Options         []PaymentOptionQuote `json:"options"`
}

// ResolvePricing looks up the active fee schedule for a branch+grade pair and
// derives the payment-duration menu. Read-only, no side effects. Fees are
// float64 throughout so a 2.5-month option never truncates.
func ResolvePricing(db *gorm.DB, branchID, gradeID uuid.UUID) (*PricingQuote, error) {
	var schema models.PricingSchema
	err := db.Where("branch_id = ? AND grade_id = ? AND is_active = ?", branchID, gradeID, true).
		First(&schema).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("no active pricing schema for branch %s grade %s", branchID, gradeID)
		}
		return nil, err
	}

	quote := &PricingQuote{
		RegistrationFee: schema.RegistrationFee,
		MonthlyFee:      schema.MonthlyFee,
		ServiceFee:      schema.ServiceFee,
	}
	for _, option := range models.PaymentOptionOrder {
		months := models.PaymentOptionMonths[option]
		quote.Options = append(quote.Options, PaymentOptionQuote{
			Option: option,
			Months: months,
			Fee:    schema.MonthlyFee * months,
		})
	}
	return quote, nil
}

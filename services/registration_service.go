package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/eyobtef/school_admin/apperrors"
	"github.com/eyobtef/school_admin/models"
	"github.com/eyobtef/school_admin/notifications"
	"github.com/eyobtef/school_admin/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Days a registration may sit unpaid before the expiry job closes it.
const PaymentDueDays = 14

type CreateRegistrationInput struct {
	StudentID      uuid.UUID
	BranchID       uuid.UUID
	GradeID        uuid.UUID
	AcademicYearID uuid.UUID
	PaymentOption  string
	DiscountAmount float64
	CreatedByID    uuid.UUID
}

// CreateRegistration opens a registration in PENDING_PAYMENT with totals
// computed eagerly from the pricing schema, and generates its invoice in the
// same transaction. The guardian is texted after the commit.
func CreateRegistration(db *gorm.DB, input CreateRegistrationInput) (*models.Registration, *models.Invoice, error) {
	months, ok := models.PaymentOptionMonths[input.PaymentOption]
	if !ok {
		return nil, nil, apperrors.Validation("unknown payment option %q", input.PaymentOption)
	}

	var student models.Student
	if err := db.First(&student, "id = ?", input.StudentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.NotFound("student %s not found", input.StudentID)
		}
		return nil, nil, err
	}
	if student.BranchID != input.BranchID {
		return nil, nil, apperrors.AccessDenied("student belongs to a different branch")
	}

	var branch models.Branch
	if err := db.First(&branch, "id = ?", input.BranchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.NotFound("branch %s not found", input.BranchID)
		}
		return nil, nil, err
	}

	var year models.AcademicYear
	if err := db.First(&year, "id = ?", input.AcademicYearID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.NotFound("academic year %s not found", input.AcademicYearID)
		}
		return nil, nil, err
	}

	quote, err := ResolvePricing(db, input.BranchID, input.GradeID)
	if err != nil {
		return nil, nil, err
	}

	additionalFee := quote.MonthlyFee*months + quote.ServiceFee
	subtotal := quote.RegistrationFee + additionalFee
	if input.DiscountAmount < 0 || input.DiscountAmount > subtotal {
		return nil, nil, apperrors.Validation("discount must be between 0 and %.2f", subtotal)
	}
	totalAmount := subtotal - input.DiscountAmount

	var registration models.Registration
	var invoice *models.Invoice

	// A concurrent create for the same branch can collide on the derived
	// sequence; the unique constraint catches it and we re-derive once.
	for attempt := 0; ; attempt++ {
		err = db.Transaction(func(tx *gorm.DB) error {
			number, err := utils.NextRegistrationNumber(tx, input.BranchID, branch.Code, input.AcademicYearID)
			if err != nil {
				return err
			}

			registration = models.Registration{
				RegistrationNumber: number,
				StudentID:          input.StudentID,
				BranchID:           input.BranchID,
				GradeID:            input.GradeID,
				AcademicYearID:     input.AcademicYearID,
				PaymentOption:      input.PaymentOption,
				RegistrationFee:    quote.RegistrationFee,
				AdditionalFee:      additionalFee,
				DiscountAmount:     input.DiscountAmount,
				TotalAmount:        totalAmount,
				PaymentDueDate:     time.Now().AddDate(0, 0, PaymentDueDays),
				Status:             models.RegistrationPendingPayment,
			}
			if err := tx.Create(&registration).Error; err != nil {
				return err
			}

			invoice, err = GenerateInvoice(tx, &registration, input.CreatedByID)
			return err
		})

		if err == nil {
			break
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) && attempt == 0 {
			log.Printf("Registration number collision for branch %s, retrying once", branch.Code)
			continue
		}
		return nil, nil, err
	}

	go notifications.SendSMS(student.GuardianPhone, fmt.Sprintf(
		"Dear %s, registration %s for %s has been created. Amount due: %.2f ETB by %s. Invoice: %s.",
		student.GuardianName, registration.RegistrationNumber, student.FullName(),
		registration.TotalAmount, registration.PaymentDueDate.Format("02 Jan 2006"), invoice.InvoiceNumber,
	))

	return &registration, invoice, nil
}

// MarkPaymentCompleted advances PENDING_PAYMENT -> PAYMENT_COMPLETED with a
// compare-and-set so a duplicate confirmation can never double-count the paid
// amount.
func MarkPaymentCompleted(tx *gorm.DB, registrationID uuid.UUID, paidAmount float64) error {
	now := time.Now()
	res := tx.Model(&models.Registration{}).
		Where("id = ? AND status = ?", registrationID, models.RegistrationPendingPayment).
		Updates(map[string]interface{}{
			"status":       models.RegistrationPaymentCompleted,
			"paid_amount":  paidAmount,
			"completed_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return registrationStateError(tx, registrationID, models.RegistrationPendingPayment)
	}
	return nil
}

// MarkEnrolled advances PAYMENT_COMPLETED -> ENROLLED.
func MarkEnrolled(tx *gorm.DB, registrationID uuid.UUID) error {
	now := time.Now()
	res := tx.Model(&models.Registration{}).
		Where("id = ? AND status = ?", registrationID, models.RegistrationPaymentCompleted).
		Updates(map[string]interface{}{
			"status":      models.RegistrationEnrolled,
			"enrolled_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return registrationStateError(tx, registrationID, models.RegistrationPaymentCompleted)
	}
	return nil
}

// CancelRegistration closes an unpaid registration and voids its invoice.
func CancelRegistration(db *gorm.DB, registrationID uuid.UUID) error {
	return db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Registration{}).
			Where("id = ? AND status = ?", registrationID, models.RegistrationPendingPayment).
			Update("status", models.RegistrationCancelled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return registrationStateError(tx, registrationID, models.RegistrationPendingPayment)
		}

		return tx.Model(&models.Invoice{}).
			Where("registration_id = ? AND paid_amount = 0 AND status NOT IN ?",
				registrationID, []string{models.InvoicePaid, models.InvoicePartiallyPaid}).
			Update("status", models.InvoiceCancelled).Error
	})
}

// registrationStateError distinguishes a missing registration from an illegal
// transition after a compare-and-set matched no rows.
func registrationStateError(tx *gorm.DB, registrationID uuid.UUID, wanted string) error {
	var reg models.Registration
	if err := tx.First(&reg, "id = ?", registrationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("registration %s not found", registrationID)
		}
		return err
	}
	log.Printf("Illegal registration transition attempted: %s is %s, wanted %s", registrationID, reg.Status, wanted)
	return apperrors.InvalidState("registration %s is %s, expected %s", reg.RegistrationNumber, reg.Status, wanted)
}

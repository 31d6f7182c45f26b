package services

import (
	"errors"
	"fmt"
	"log"

	"github.com/eyobtef/school_admin/apperrors"
	"github.com/eyobtef/school_admin/models"
	"github.com/eyobtef/school_admin/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GenerateInvoice builds the itemized invoice for a registration: one line
// item per fee component, discount applied at the invoice level. Invoices are
// financial records; a registration that already has one gets
// AlreadyExistsError, never a rewrite.
func GenerateInvoice(tx *gorm.DB, reg *models.Registration, createdByID uuid.UUID) (*models.Invoice, error) {
	var existing models.Invoice
	err := tx.Where("registration_id = ?", reg.ID).First(&existing).Error
	if err == nil {
		return nil, apperrors.AlreadyExists("registration %s already has invoice %s", reg.RegistrationNumber, existing.InvoiceNumber)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	months := models.PaymentOptionMonths[reg.PaymentOption]
	subtotal := reg.RegistrationFee + reg.AdditionalFee

	invoice := models.Invoice{
		RegistrationID: &reg.ID,
		StudentID:      reg.StudentID,
		BranchID:       reg.BranchID,
		TotalAmount:    subtotal,
		DiscountAmount: reg.DiscountAmount,
		FinalAmount:    subtotal - reg.DiscountAmount,
		Status:         models.InvoicePending,
		DueDate:        reg.PaymentDueDate,
		CreatedByID:    createdByID,
		Items: []models.InvoiceItem{
			{
				FeeType:     models.FeeTypeRegistration,
				Description: "Registration fee",
				Quantity:    1,
				Amount:      reg.RegistrationFee,
			},
			{
				FeeType:     models.FeeTypeTuition,
				Description: fmt.Sprintf("Tuition fee (%.1f months)", months),
				Quantity:    1,
				Amount:      reg.AdditionalFee,
			},
		},
	}

	// The date-prefixed number can collide under concurrent creation; the
	// unique constraint reports it and we regenerate once. The insert runs
	// under a savepoint because on Postgres a failed statement aborts the
	// whole transaction otherwise.
	for attempt := 0; ; attempt++ {
		invoice.InvoiceNumber = utils.NextInvoiceNumber()
		if err := tx.SavePoint("invoice_number").Error; err != nil {
			return nil, err
		}
		err := tx.Create(&invoice).Error
		if err == nil {
			return &invoice, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) && attempt == 0 {
			if err := tx.RollbackTo("invoice_number").Error; err != nil {
				return nil, err
			}
			log.Printf("Invoice number collision on %s, regenerating", invoice.InvoiceNumber)
			continue
		}
		return nil, err
	}
}

// RecomputeInvoice re-derives paidAmount and status from the COMPLETED
// payments on record. Callers must hold the invoice row lock. Overpayment is
// clamped and flagged, never silently accepted.
func RecomputeInvoice(tx *gorm.DB, invoice *models.Invoice) error {
	var paid float64
	err := tx.Model(&models.Payment{}).
		Where("invoice_id = ? AND status = ?", invoice.ID, models.PaymentCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&paid).Error
	if err != nil {
		return err
	}

	if paid > invoice.FinalAmount {
		log.Printf("⚠️ Invoice %s overpaid: %.2f against %.2f, clamping", invoice.InvoiceNumber, paid, invoice.FinalAmount)
		paid = invoice.FinalAmount
	}

	invoice.PaidAmount = paid
	if invoice.Status != models.InvoiceCancelled {
		invoice.Status = invoice.DeriveStatus()
	}

	return tx.Model(&models.Invoice{}).
		Where("id = ?", invoice.ID).
		Updates(map[string]interface{}{
			"paid_amount": invoice.PaidAmount,
			"status":      invoice.Status,
		}).Error
}

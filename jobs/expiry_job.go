package jobs

import (
	"errors"
	"log"
	"time"

	"github.com/eyobtef/school_admin/database"
	"github.com/eyobtef/school_admin/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ExpireStaleRegistrations closes registrations that sat unpaid past their
// due date and voids their untouched invoices. Registrations with a partial
// payment are left for a human to resolve.
func ExpireStaleRegistrations() {
	log.Println("Running job: ExpireStaleRegistrations...")

	var stale []models.Registration
	err := database.DB.
		Where("status = ? AND payment_due_date < ?", models.RegistrationPendingPayment, time.Now()).
		Find(&stale).Error
	if err != nil {
		log.Printf("Error finding stale registrations: %v", err)
		return
	}
	if len(stale) == 0 {
		return
	}

	for _, reg := range stale {
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			// Lock the invoice so a payment committing between the stale scan
			// and this transaction is visible here, not overwritten.
			var invoice models.Invoice
			hasInvoice := true
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("registration_id = ?", reg.ID).First(&invoice).Error
			if err != nil {
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}
				hasInvoice = false
			}
			if hasInvoice && invoice.PaidAmount > 0 {
				log.Printf("Registration %s is past due but has payments, skipping", reg.RegistrationNumber)
				return nil
			}

			res := tx.Model(&models.Registration{}).
				Where("id = ? AND status = ?", reg.ID, models.RegistrationPendingPayment).
				Update("status", models.RegistrationExpired)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// Paid, cancelled or enrolled since the scan; leave the
				// invoice alone.
				return nil
			}

			if hasInvoice {
				err := tx.Model(&models.Invoice{}).
					Where("id = ? AND paid_amount = 0 AND status NOT IN ?",
						invoice.ID, []string{models.InvoicePaid, models.InvoicePartiallyPaid}).
					Update("status", models.InvoiceCancelled).Error
				if err != nil {
					return err
				}
			}
			log.Printf("Registration %s expired", reg.RegistrationNumber)
			return nil
		})
		if err != nil {
			log.Printf("🔥 Failed to expire registration %s: %v", reg.RegistrationNumber, err)
		}
	}
}

// MarkOverdueInvoices flags unpaid invoices past their due date so listings
// and exports show them as OVERDUE.
func MarkOverdueInvoices() {
	log.Println("Running job: MarkOverdueInvoices...")

	res := database.DB.Model(&models.Invoice{}).
		Where("status IN ? AND due_date < ?",
			[]string{models.InvoicePending, models.InvoicePartiallyPaid}, time.Now()).
		Update("status", models.InvoiceOverdue)
	if res.Error != nil {
		log.Printf("Error marking overdue invoices: %v", res.Error)
		return
	}
	if res.RowsAffected > 0 {
		log.Printf("Marked %d invoices overdue", res.RowsAffected)
	}
}

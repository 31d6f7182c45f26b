package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/eyobtef/school_admin/apperrors"
	"github.com/eyobtef/school_admin/models"
	"github.com/eyobtef/school_admin/notifications"
	"github.com/eyobtef/school_admin/payments"
	"github.com/eyobtef/school_admin/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CashPaymentInput struct {
	InvoiceID     uuid.UUID
	Amount        float64
	PaymentMethod string // CASH or BANK_TRANSFER
	Notes         *string
	ActorID       uuid.UUID
}

type OnlinePaymentInput struct {
	InvoiceID     uuid.UUID
	Amount        float64
	PaymentMethod string // TELEBIRR or ONLINE
	PayerPhone    string
	SuccessURL    string
	FailureURL    string
	NotifyURL     string
}

// lockInvoice loads the invoice under a row lock so the outstanding-balance
// check and the later paidAmount recompute are serialized per invoice.
func lockInvoice(tx *gorm.DB, invoiceID uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&invoice, "id = ?", invoiceID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("invoice %s not found", invoiceID)
		}
		return nil, err
	}
	return &invoice, nil
}

func validatePaymentAmount(invoice *models.Invoice, amount float64) error {
	if invoice.Status == models.InvoiceCancelled {
		return apperrors.InvalidState("invoice %s is cancelled", invoice.InvoiceNumber)
	}
	if amount <= 0 {
		return apperrors.Validation("payment amount must be positive")
	}
	outstanding := invoice.Outstanding()
	if outstanding <= 0 {
		return apperrors.Validation("invoice %s has no outstanding balance", invoice.InvoiceNumber)
	}
	if amount > outstanding {
		return apperrors.Validation("amount %.2f exceeds outstanding balance %.2f", amount, outstanding)
	}
	return nil
}

// createPayment inserts the row, regenerating the payment number once if the
// date-prefixed value collides. The insert runs under a savepoint so the
// retry still works on Postgres, where a failed statement aborts the
// transaction.
func createPayment(tx *gorm.DB, payment *models.Payment) error {
	for attempt := 0; ; attempt++ {
		payment.PaymentNumber = utils.NextPaymentNumber()
		if err := tx.SavePoint("payment_number").Error; err != nil {
			return err
		}
		err := tx.Create(payment).Error
		if err == nil {
			return nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) && attempt == 0 {
			if err := tx.RollbackTo("payment_number").Error; err != nil {
				return err
			}
			log.Printf("Payment number collision on %s, regenerating", payment.PaymentNumber)
			continue
		}
		return err
	}
}

// advanceRegistration moves the linked registration forward once its invoice
// is fully paid. A registration no longer waiting for payment is skipped with
// a log line since the money is already recorded on the invoice.
func advanceRegistration(tx *gorm.DB, invoice *models.Invoice) error {
	if invoice.RegistrationID == nil || invoice.Status != models.InvoicePaid {
		return nil
	}

	err := MarkPaymentCompleted(tx, *invoice.RegistrationID, invoice.PaidAmount)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindInvalidState) {
			log.Printf("Invoice %s paid but registration %s is not pending payment: %v",
				invoice.InvoiceNumber, invoice.RegistrationID, err)
			return nil
		}
		return err
	}
	return nil
}

// RecordCashPayment settles (part of) an invoice at the counter. Cash and
// bank-transfer payments come from a trusted operator and are created
// directly COMPLETED; payment, invoice and registration all move in one
// transaction.
func RecordCashPayment(db *gorm.DB, input CashPaymentInput) (*models.Payment, error) {
	if input.PaymentMethod != models.MethodCash && input.PaymentMethod != models.MethodBankTransfer {
		return nil, apperrors.Validation("unsupported counter payment method %q", input.PaymentMethod)
	}

	var payment models.Payment
	err := db.Transaction(func(tx *gorm.DB) error {
		invoice, err := lockInvoice(tx, input.InvoiceID)
		if err != nil {
			return err
		}
		if err := validatePaymentAmount(invoice, input.Amount); err != nil {
			return err
		}

		now := time.Now()
		source := models.ConfirmSourceDirect
		payment = models.Payment{
			InvoiceID:      invoice.ID,
			StudentID:      invoice.StudentID,
			RegistrationID: invoice.RegistrationID,
			Amount:         input.Amount,
			PaymentMethod:  input.PaymentMethod,
			Status:         models.PaymentCompleted,
			Notes:          input.Notes,
			ConfirmedVia:   &source,
			ConfirmedByID:  &input.ActorID,
			PaymentDate:    &now,
		}
		if err := createPayment(tx, &payment); err != nil {
			return err
		}

		if err := RecomputeInvoice(tx, invoice); err != nil {
			return err
		}
		return advanceRegistration(tx, invoice)
	})
	if err != nil {
		return nil, err
	}

	notifyPaymentReceived(db, &payment)
	return &payment, nil
}

// InitiateOnlinePayment creates a PENDING payment correlated to the gateway
// by transactionId, then asks the gateway for the hosted-checkout redirect
// URL. A gateway refusal fails the payment and surfaces UpstreamError.
func InitiateOnlinePayment(db *gorm.DB, input OnlinePaymentInput) (*models.Payment, string, error) {
	if input.PaymentMethod != models.MethodTelebirr && input.PaymentMethod != models.MethodOnline {
		return nil, "", apperrors.Validation("unsupported online payment method %q", input.PaymentMethod)
	}

	var payment models.Payment
	err := db.Transaction(func(tx *gorm.DB) error {
		invoice, err := lockInvoice(tx, input.InvoiceID)
		if err != nil {
			return err
		}
		if err := validatePaymentAmount(invoice, input.Amount); err != nil {
			return err
		}

		txnID := utils.NewTransactionID()
		payment = models.Payment{
			InvoiceID:      invoice.ID,
			StudentID:      invoice.StudentID,
			RegistrationID: invoice.RegistrationID,
			Amount:         input.Amount,
			PaymentMethod:  input.PaymentMethod,
			Status:         models.PaymentPending,
			TransactionID:  &txnID,
		}
		return createPayment(tx, &payment)
	})
	if err != nil {
		return nil, "", err
	}

	reason := fmt.Sprintf("School fees, payment %s", payment.PaymentNumber)
	redirectURL, err := payments.BuildRedirectURL(
		*payment.TransactionID, payment.Amount, reason,
		input.SuccessURL, input.FailureURL, input.NotifyURL, input.PayerPhone,
	)
	if err != nil {
		// The gateway never saw this attempt; close it so it cannot be
		// confirmed later.
		if failErr := FailPayment(db, payment.ID, "gateway URL generation failed"); failErr != nil {
			log.Printf("🔥 Failed to close payment %s after gateway error: %v", payment.PaymentNumber, failErr)
		}
		return nil, "", err
	}

	return &payment, redirectURL, nil
}

// ConfirmPayment is the single confirmation entry point: gateway webhooks and
// the cashier's manual confirm action both land here. Confirming an
// already-COMPLETED payment is a no-op success, so at-least-once webhook
// delivery and a racing manual confirm can never double-count.
func ConfirmPayment(db *gorm.DB, paymentID uuid.UUID, source, externalRef string, actorID *uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	transitioned := false
	err := db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&payment, "id = ?", paymentID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("payment %s not found", paymentID)
			}
			return err
		}

		if payment.Status == models.PaymentCompleted {
			log.Printf("Payment %s already completed, confirmation from %s (%s) is a no-op",
				payment.PaymentNumber, source, externalRef)
			return nil
		}
		if payment.Status == models.PaymentFailed {
			return apperrors.InvalidState("payment %s already failed", payment.PaymentNumber)
		}

		invoice, err := lockInvoice(tx, payment.InvoiceID)
		if err != nil {
			return err
		}

		now := time.Now()
		payment.Status = models.PaymentCompleted
		payment.ConfirmedVia = &source
		payment.ConfirmedByID = actorID
		payment.PaymentDate = &now
		if externalRef != "" {
			payment.GatewayRef = &externalRef
		}
		if err := tx.Save(&payment).Error; err != nil {
			return err
		}

		if err := RecomputeInvoice(tx, invoice); err != nil {
			return err
		}
		transitioned = true
		return advanceRegistration(tx, invoice)
	})
	if err != nil {
		return nil, err
	}

	if transitioned {
		notifyPaymentReceived(db, &payment)
	}
	return &payment, nil
}

// FailPayment closes a pending payment. Only the payment row moves; a failed
// attempt never touches invoice or registration totals.
func FailPayment(db *gorm.DB, paymentID uuid.UUID, reason string) error {
	res := db.Model(&models.Payment{}).
		Where("id = ? AND status = ?", paymentID, models.PaymentPending).
		Updates(map[string]interface{}{
			"status": models.PaymentFailed,
			"notes":  reason,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var payment models.Payment
		if err := db.First(&payment, "id = ?", paymentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("payment %s not found", paymentID)
			}
			return err
		}
		if payment.Status == models.PaymentFailed {
			return nil
		}
		return apperrors.InvalidState("payment %s is %s, cannot fail", payment.PaymentNumber, payment.Status)
	}
	return nil
}

// FindPaymentByGatewayRefs correlates an inbound webhook to a payment by
// trying thirdPartyId, then txnId, then clientReference against the stored
// transaction id. First match wins.
func FindPaymentByGatewayRefs(db *gorm.DB, thirdPartyID, txnID, clientReference string) (*models.Payment, error) {
	for _, ref := range []string{thirdPartyID, txnID, clientReference} {
		if ref == "" {
			continue
		}
		var payment models.Payment
		err := db.Where("transaction_id = ?", ref).First(&payment).Error
		if err == nil {
			return &payment, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return nil, apperrors.NotFound("no payment matches the webhook references")
}

func notifyPaymentReceived(db *gorm.DB, payment *models.Payment) {
	var student models.Student
	if err := db.First(&student, "id = ?", payment.StudentID).Error; err != nil {
		log.Printf("Skipping payment SMS, student %s not found: %v", payment.StudentID, err)
		return
	}
	go notifications.SendSMS(student.GuardianPhone, fmt.Sprintf(
		"Payment %s of %.2f ETB for %s has been received. Thank you.",
		payment.PaymentNumber, payment.Amount, student.FullName(),
	))
}

package handlers

import (
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/eyobtef/school_admin/apperrors"
	config "github.com/eyobtef/school_admin/configs"
	"github.com/eyobtef/school_admin/database"
	"github.com/eyobtef/school_admin/middleware"
	"github.com/eyobtef/school_admin/models"
	"github.com/eyobtef/school_admin/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CashPaymentRequest struct {
	InvoiceID     string  `json:"invoice_id" validate:"required,uuid"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	PaymentMethod string  `json:"payment_method" validate:"required,oneof=CASH BANK_TRANSFER"`
	Notes         *string `json:"notes,omitempty"`
}

// RecordCashPayment is the counter flow: cashier takes cash or a bank slip
// and the payment lands COMPLETED in one step.
func RecordCashPayment(c *fiber.Ctx) error {
	var req CashPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	invoiceID, _ := uuid.Parse(req.InvoiceID)
	if err := requireInvoiceBranch(c, invoiceID); err != nil {
		return err
	}

	payment, err := services.RecordCashPayment(database.DB, services.CashPaymentInput{
		InvoiceID:     invoiceID,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
		ActorID:       middleware.ClaimUserID(c),
	})
	if err != nil {
		return apperrors.ToResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Payment recorded successfully",
		"payment": payment,
	})
}

type OnlinePaymentRequest struct {
	InvoiceID     string  `json:"invoice_id" validate:"required,uuid"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	PaymentMethod string  `json:"payment_method" validate:"required,oneof=TELEBIRR ONLINE"`
	PayerPhone    string  `json:"payer_phone" validate:"required,min=9"`
}

// InitiateOnlinePayment creates the pending payment and hands back the
// gateway redirect URL for the payer's browser.
func InitiateOnlinePayment(c *fiber.Ctx) error {
	var req OnlinePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	invoiceID, _ := uuid.Parse(req.InvoiceID)
	if err := requireInvoiceBranch(c, invoiceID); err != nil {
		return err
	}

	base := config.Config("PUBLIC_BASE_URL")
	payment, redirectURL, err := services.InitiateOnlinePayment(database.DB, services.OnlinePaymentInput{
		InvoiceID:     invoiceID,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		PayerPhone:    req.PayerPhone,
		SuccessURL:    base + "/payments/success",
		FailureURL:    base + "/payments/failure",
		NotifyURL:     base + "/api/v1/payments/webhook",
	})
	if err != nil {
		return apperrors.ToResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"payment":      payment,
		"redirect_url": redirectURL,
	})
}

type GatewayWebhookPayload struct {
	Message         string  `json:"message"`
	Status          string  `json:"Status"`
	ThirdPartyID    string  `json:"thirdPartyId"`
	TxnID           string  `json:"txnId"`
	ClientReference string  `json:"clientReference"`
	TotalAmount     float64 `json:"totalAmount"`
}

// HandlePaymentWebhook receives the gateway's asynchronous outcome report.
// Delivery is at-least-once, so everything here is idempotent; the reported
// totalAmount is only cross-checked, the invoice's own total is authoritative.
func HandlePaymentWebhook(c *fiber.Ctx) error {
	var payload GatewayWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse webhook payload"})
	}

	log.Printf("Received payment webhook: status=%s thirdPartyId=%s txnId=%s clientReference=%s",
		payload.Status, payload.ThirdPartyID, payload.TxnID, payload.ClientReference)

	payment, err := services.FindPaymentByGatewayRefs(database.DB,
		payload.ThirdPartyID, payload.TxnID, payload.ClientReference)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment record not found"})
	}

	// Keep the verbatim body for reconciliation audits.
	raw := datatypes.JSON(c.Body())
	if err := database.DB.Model(&models.Payment{}).Where("id = ?", payment.ID).
		Update("webhook_payload", raw).Error; err != nil {
		log.Printf("Failed to store webhook payload for payment %s: %v", payment.PaymentNumber, err)
	}

	if payload.TotalAmount != 0 && payload.TotalAmount != payment.Amount {
		log.Printf("⚠️ Webhook amount mismatch for payment %s: gateway says %.2f, record says %.2f",
			payment.PaymentNumber, payload.TotalAmount, payment.Amount)
	}

	externalRef := payload.ThirdPartyID
	if externalRef == "" {
		externalRef = payload.TxnID
	}
	if externalRef == "" {
		externalRef = payload.ClientReference
	}

	switch strings.ToUpper(payload.Status) {
	case "COMPLETED", "SUCCESS", "SUCCEEDED":
		_, err := services.ConfirmPayment(database.DB, payment.ID, models.ConfirmSourceWebhook, externalRef, nil)
		if err != nil {
			if apperrors.IsKind(err, apperrors.KindInvalidState) {
				// Known payment in a state we will not move; acknowledge so
				// the gateway stops retrying.
				log.Printf("Webhook for payment %s ignored: %v", payment.PaymentNumber, err)
				return c.JSON(fiber.Map{"message": "Webhook acknowledged", "status": "ignored"})
			}
			log.Printf("🔥 CRITICAL: failed to process webhook for payment %s: %v", payment.PaymentNumber, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process webhook"})
		}
		return c.JSON(fiber.Map{"message": "Webhook processed successfully", "status": "completed"})

	case "FAILED", "CANCELLED", "DECLINED":
		if err := services.FailPayment(database.DB, payment.ID, "gateway reported "+payload.Status); err != nil {
			if apperrors.IsKind(err, apperrors.KindInvalidState) {
				log.Printf("Webhook failure report for payment %s ignored: %v", payment.PaymentNumber, err)
				return c.JSON(fiber.Map{"message": "Webhook acknowledged", "status": "ignored"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process webhook"})
		}
		return c.JSON(fiber.Map{"message": "Acknowledged failed payment", "status": "failed"})

	default:
		log.Printf("Webhook with unknown status %q for payment %s", payload.Status, payment.PaymentNumber)
		return c.JSON(fiber.Map{"message": "Webhook acknowledged", "status": "unknown"})
	}
}

type ConfirmPaymentRequest struct {
	Action               string  `json:"action" validate:"required,oneof=confirm_payment"`
	TransactionReference string  `json:"transaction_reference" validate:"required"`
	Notes                *string `json:"notes,omitempty"`
}

// ConfirmPaymentAction is the cashier's manual fallback for when the gateway
// webhook is lost. It funnels into the same confirmation path as the webhook.
func ConfirmPaymentAction(c *fiber.Ctx) error {
	paymentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment ID format"})
	}

	var req ConfirmPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var payment models.Payment
	if err := database.DB.First(&payment, "id = ?", paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	if err := requireInvoiceBranch(c, payment.InvoiceID); err != nil {
		return err
	}

	actorID := middleware.ClaimUserID(c)
	confirmed, err := services.ConfirmPayment(database.DB, paymentID, models.ConfirmSourceCashier, req.TransactionReference, &actorID)
	if err != nil {
		return apperrors.ToResponse(c, err)
	}

	if req.Notes != nil {
		if err := database.DB.Model(&models.Payment{}).Where("id = ?", paymentID).
			Update("notes", *req.Notes).Error; err != nil {
			log.Printf("Failed to store cashier notes on payment %s: %v", confirmed.PaymentNumber, err)
		}
	}

	return c.JSON(fiber.Map{
		"message": "Payment confirmed",
		"payment": confirmed,
	})
}

func ListPayments(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := database.DB.Model(&models.Payment{}).
		Joins("JOIN invoices ON invoices.id = payments.invoice_id")
	if own := middleware.ClaimBranchID(c); own != nil {
		query = query.Where("invoices.branch_id = ?", *own)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("payments.status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to count payments"})
	}

	var payments []models.Payment
	err := query.Order("payments.created_at desc").
		Offset((page - 1) * limit).Limit(limit).Find(&payments).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list payments"})
	}

	return c.JSON(fiber.Map{
		"payments": payments,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}

// requireInvoiceBranch answers the request itself when the invoice is missing
// or owned by another branch; nil means the caller may proceed.
func requireInvoiceBranch(c *fiber.Ctx, invoiceID uuid.UUID) error {
	var invoice models.Invoice
	if err := database.DB.First(&invoice, "id = ?", invoiceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Invoice not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	if !middleware.CanAccessBranch(c, invoice.BranchID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden: cross-branch access"})
	}
	return nil
}

package services

import (
	"strings"
	"testing"

	"github.com/eyobtef/school_admin/apperrors"
	"github.com/eyobtef/school_admin/models"
	"github.com/eyobtef/school_admin/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// pendingOnlinePayment inserts the row InitiateOnlinePayment would create,
// without talking to the gateway.
func pendingOnlinePayment(t *testing.T, db *gorm.DB, inv *models.Invoice, amount float64) *models.Payment {
	t.Helper()

	txnID := utils.NewTransactionID()
	payment := models.Payment{
		PaymentNumber:  utils.NextPaymentNumber(),
		InvoiceID:      inv.ID,
		StudentID:      inv.StudentID,
		RegistrationID: inv.RegistrationID,
		Amount:         amount,
		PaymentMethod:  models.MethodTelebirr,
		Status:         models.PaymentPending,
		TransactionID:  &txnID,
	}
	require.NoError(t, db.Create(&payment).Error)
	return &payment
}

func TestCashPaymentSettlesInvoiceAndRegistration(t *testing.T) {
	db := setupTestDB(t)
	f := seedSchool(t, db)
	reg, inv := registerStudent(t, db, f)

	payment, err := RecordCashPayment(db, CashPaymentInput{
		InvoiceID:     inv.ID,
		Amount:        1300,
		PaymentMethod: models.MethodCash,
		ActorID:       f.Actor.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, models.PaymentCompleted, payment.Status)
	assert.True(t, strings.HasPrefix(payment.PaymentNumber, "PAY-"))
	assert.NotNil(t, payment.PaymentDate)

	var loadedInv models.Invoice
	require.NoError(t, db.First(&loadedInv, "id = ?", inv.ID).Error)
	assert.Equal(t, models.InvoicePaid, loadedInv.Status)
	assert.Equal(t, 1300.0, loadedInv.PaidAmount)

	var loadedReg models.Registration
	require.NoError(t, db.First(&loadedReg, "id = ?", reg.ID).Error)
	assert.Equal(t, models.RegistrationPaymentCompleted, loadedReg.Status)
	assert.Equal(t, 1300.0, loadedReg.PaidAmount)
}

func TestPartialPaymentsAccumulate(t *testing.T) {
	db := setupTestDB(t)
	f := seedSchool(t, db)
	reg, inv := registerStudent(t, db, f)

	_, err := RecordCashPayment(db, CashPaymentInput{
		InvoiceID: inv.ID, Amount: 700, PaymentMethod: models.MethodCash, ActorID: f.Actor.ID,
	})
	require.NoError(t, err)

	var loadedInv models.Invoice
	require.NoError(t, db.First(&loadedInv, "id = ?", inv.ID).Error)
	assert.Equal(t, models.InvoicePartiallyPaid, loadedInv.Status)
	assert.Equal(t, 700.0, loadedInv.PaidAmount)

	// Registration stays put until the invoice is fully settled.
	var loadedReg models.Registration
	require.NoError(t, db.First(&loadedReg, "id = ?", reg.ID).Error)
	assert.Equal(t, models.RegistrationPendingPayment, loadedReg.Status)

	_, err = RecordCashPayment(db, CashPaymentInput{
		InvoiceID: inv.ID, Amount: 600, PaymentMethod: models.MethodBankTransfer, ActorID: f.Actor.ID,
	})
	require.NoError(t, err)

	require.NoError(t, db.First(&loadedInv, "id = ?", inv.ID).Error)
	assert.Equal(t, models.InvoicePaid, loadedInv.Status)
	assert.Equal(t, 1300.0, loadedInv.PaidAmount)

	require.NoError(t, db.First(&loadedReg, "id = ?", reg.ID).Error)
	assert.Equal(t, models.RegistrationPaymentCompleted, loadedReg.Status)

	// The invoice is settled, so any further payment is rejected outright.
	_, err = RecordCashPayment(db, CashPaymentInput{
		InvoiceID: inv.ID, Amount: 1, PaymentMethod: models.MethodCash, ActorID: f.Actor.ID,
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestPaymentAmountValidation(t *testing.T) {
	db := setupTestDB(t)
	f := seedSchool(t, db)
	_, inv := registerStudent(t, db, f)

	cases := []struct {
		name   string
		amount float64
	}{
		{"zero", 0},
		{"negative", -50},
		{"above outstanding", 1301},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := RecordCashPayment(db, CashPaymentInput{
				InvoiceID: inv.ID, Amount: tc.amount, PaymentMethod: models.MethodCash, ActorID: f.Actor.ID,
			})
			assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
		})
	}

	// No partial write: a rejected attempt leaves no payment row behind.
	var count int64
	require.NoError(t, db.Model(&models.Payment{}).Where("invoice_id = ?", inv.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestConfirmPaymentIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	f := seedSchool(t, db)
	reg, inv := registerStudent(t, db, f)
	payment := pendingOnlinePayment(t, db, inv, 1300)

	first, err := ConfirmPayment(db, payment.ID, models.ConfirmSourceWebhook, "TB123456", nil)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, first.Status)
	require.NotNil(t, first.GatewayRef)
	assert.Equal(t, "TB123456", *first.GatewayRef)

	// Second delivery of the same confirmation: same end state, no double
	// count anywhere.
	second, err := ConfirmPayment(db, payment.ID, models.ConfirmSourceWebhook, "TB123456", nil)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, second.Status)

	var loadedInv models.Invoice
	require.NoError(t, db.First(&loadedInv, "id = ?", inv.ID).Error)
	assert.Equal(t, 1300.0, loadedInv.PaidAmount)
	assert.Equal(t, models.InvoicePaid, loadedInv.Status)

	var loadedReg models.Registration
	require.NoError(t, db.First(&loadedReg, "id = ?", reg.ID).Error)
	assert.Equal(t, models.RegistrationPaymentCompleted, loadedReg.Status)
	assert.Equal(t, 1300.0, loadedReg.PaidAmount)
}

func TestConfirmPaymentRejectsFailedPayment(t *testing.T) {
	db := setupTestDB(t)
	f := seedSchool(t, db)
	_, inv := registerStudent(t, db, f)
	payment := pendingOnlinePayment(t, db, inv, 1300)

	require.NoError(t, FailPayment(db, payment.ID, "gateway reported FAILED"))

	_, err := ConfirmPayment(db, payment.ID, models.ConfirmSourceCashier, "ref", &f.Actor.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))
}

func TestFailPaymentTouchesNothingElse(t *testing.T) {
	db := setupTestDB(t)
	f := seedSchool(t, db)
	reg, inv := registerStudent(t, db, f)
	payment := pendingOnlinePayment(t, db, inv, 1300)

	require.NoError(t, FailPayment(db, payment.ID, "gateway reported DECLINED"))

	var loadedPay models.Payment
	require.NoError(t, db.First(&loadedPay, "id = ?", payment.ID).Error)
	assert.Equal(t, models.PaymentFailed, loadedPay.Status)

	var loadedInv models.Invoice
	require.NoError(t, db.First(&loadedInv, "id = ?", inv.ID).Error)
	assert.Equal(t, 0.0, loadedInv.PaidAmount)
	assert.Equal(t, models.InvoicePending, loadedInv.Status)

	var loadedReg models.Registration
	require.NoError(t, db.First(&loadedReg, "id = ?", reg.ID).Error)
	assert.Equal(t, models.RegistrationPendingPayment, loadedReg.Status)

	// Failing an already-failed payment is a no-op, not an error.
	require.NoError(t, FailPayment(db, payment.ID, "again"))
}

func TestFindPaymentByGatewayRefs(t *testing.T) {
	db := setupTestDB(t)
	f := seedSchool(t, db)
	_, inv := registerStudent(t, db, f)
	payment := pendingOnlinePayment(t, db, inv, 1300)
	txnID := *payment.TransactionID

	t.Run("matches thirdPartyId first", func(t *testing.T) {
		found, err := FindPaymentByGatewayRefs(db, txnID, "unrelated", "unrelated")
		require.NoError(t, err)
		assert.Equal(t, payment.ID, found.ID)
	})

	t.Run("falls back to txnId then clientReference", func(t *testing.T) {
		found, err := FindPaymentByGatewayRefs(db, "", txnID, "")
		require.NoError(t, err)
		assert.Equal(t, payment.ID, found.ID)

		found, err = FindPaymentByGatewayRefs(db, "", "", txnID)
		require.NoError(t, err)
		assert.Equal(t, payment.ID, found.ID)
	})

	t.Run("no match", func(t *testing.T) {
		_, err := FindPaymentByGatewayRefs(db, "nope", "nope", "nope")
		assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	})
}

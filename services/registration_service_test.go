package services

import (
	"strings"
	"testing"

	"github.com/eyobtef/school_admin/apperrors"
	"github.com/eyobtef/school_admin/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRegistrationComputesTotals(t *testing.T) {
	db := setupTestDB(t)
	f := seedSchool(t, db)

	reg, inv := registerStudent(t, db, f)

	assert.Equal(t, models.RegistrationPendingPayment, reg.Status)
	assert.Equal(t, 500.0, reg.RegistrationFee)
	assert.Equal(t, 800.0, reg.AdditionalFee)
	assert.Equal(t, 1300.0, reg.TotalAmount)
	assert.True(t, strings.HasPrefix(reg.RegistrationNumber, "REG-BOL"))

	// Invoice is generated in the same transaction, itemized per component.
	require.NotNil(t, inv.RegistrationID)
	assert.Equal(t, reg.ID, *inv.RegistrationID)
	assert.Equal(t, 1300.0, inv.TotalAmount)
	assert.Equal(t, 1300.0, inv.FinalAmount)
	assert.Equal(t, models.InvoicePending, inv.Status)
	require.Len(t, inv.Items, 2)
	assert.Equal(t, models.FeeTypeRegistration, inv.Items[0].FeeType)
	assert.Equal(t, 500.0, inv.Items[0].Amount)
	assert.Equal(t, models.FeeTypeTuition, inv.Items[1].FeeType)
	assert.Equal(t, 800.0, inv.Items[1].Amount)
}

func TestCreateRegistrationAppliesDiscount(t *testing.T) {
	db := setupTestDB(t)
	f := seedSchool(t, db)

	reg, inv, err := CreateRegistration(db, CreateRegistrationInput{
		StudentID:      f.Student.ID,
		BranchID:       f.Branch.ID,
		GradeID:        f.Grade.ID,
		AcademicYearID: f.Year.ID,
		PaymentOption:  models.OptionTwoHalfMonths,
		DiscountAmount: 300,
		CreatedByID:    f.Actor.ID,
	})
	require.NoError(t, err)

	// 500 + 800*2.5 - 300
	assert.Equal(t, 2200.0, reg.TotalAmount)
	assert.Equal(t, 2500.0, inv.TotalAmount)
	assert.Equal(t, 300.0, inv.DiscountAmount)
	assert.Equal(t, 2200.0, inv.FinalAmount)
}

func TestCreateRegistrationRejectsBadInput(t *testing.T) {
	db := setupTestDB(t)
	f := seedSchool(t, db)

	base := CreateRegistrationInput{
		StudentID:      f.Student.ID,
		BranchID:       f.Branch.ID,
		GradeID:        f.Grade.ID,
		AcademicYearID: f.Year.ID,
		PaymentOption:  models.OptionOneMonth,
		CreatedByID:    f.Actor.ID,
	}

	t.Run("unknown payment option", func(t *testing.T) {
		input := base
		input.PaymentOption = "SIX_MONTHS"
		_, _, err := CreateRegistration(db, input)
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	})

	t.Run("negative discount", func(t *testing.T) {
		input := base
		input.DiscountAmount = -1
		_, _, err := CreateRegistration(db, input)
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	})

	t.Run("discount above subtotal", func(t *testing.T) {
		input := base
		input.DiscountAmount = 1301
		_, _, err := CreateRegistration(db, input)
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	})
}

func TestRegistrationNumbersIncrementPerBranch(t *testing.T) {
	db := setupTestDB(t)
	f := seedSchool(t, db)

	first, _ := registerStudent(t, db, f)
	second, _, err := CreateRegistration(db, CreateRegistrationInput{
		StudentID:      f.Student.ID,
		BranchID:       f.Branch.ID,
		GradeID:        f.Grade.ID,
		AcademicYearID: f.Year.ID,
		PaymentOption:  models.OptionTenMonths,
		CreatedByID:    f.Actor.ID,
	})
	require.NoError(t, err)

	assert.NotEqual(t, first.RegistrationNumber, second.RegistrationNumber)
	assert.True(t, strings.HasSuffix(first.RegistrationNumber, "-00001"))
	assert.True(t, strings.HasSuffix(second.RegistrationNumber, "-00002"))
}

func TestMarkPaymentCompletedIsSingleShot(t *testing.T) {
	db := setupTestDB(t)
	f := seedSchool(t, db)
	reg, _ := registerStudent(t, db, f)

	require.NoError(t, MarkPaymentCompleted(db, reg.ID, 1300))

	var loaded models.Registration
	require.NoError(t, db.First(&loaded, "id = ?", reg.ID).Error)
	assert.Equal(t, models.RegistrationPaymentCompleted, loaded.Status)
	assert.Equal(t, 1300.0, loaded.PaidAmount)
	assert.NotNil(t, loaded.CompletedAt)

	// A duplicate confirmation is a conflict, not a double count.
	err := MarkPaymentCompleted(db, reg.ID, 1300)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))

	require.NoError(t, db.First(&loaded, "id = ?", reg.ID).Error)
	assert.Equal(t, 1300.0, loaded.PaidAmount)
}

func TestMarkEnrolledRequiresPaymentCompleted(t *testing.T) {
	db := setupTestDB(t)
	f := seedSchool(t, db)
	reg, _ := registerStudent(t, db, f)

	err := MarkEnrolled(db, reg.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))

	require.NoError(t, MarkPaymentCompleted(db, reg.ID, 1300))
	require.NoError(t, MarkEnrolled(db, reg.ID))

	var loaded models.Registration
	require.NoError(t, db.First(&loaded, "id = ?", reg.ID).Error)
	assert.Equal(t, models.RegistrationEnrolled, loaded.Status)
	assert.NotNil(t, loaded.EnrolledAt)
}

func TestCancelRegistrationVoidsInvoice(t *testing.T) {
	db := setupTestDB(t)
	f := seedSchool(t, db)
	reg, inv := registerStudent(t, db, f)

	require.NoError(t, CancelRegistration(db, reg.ID))

	var loadedReg models.Registration
	require.NoError(t, db.First(&loadedReg, "id = ?", reg.ID).Error)
	assert.Equal(t, models.RegistrationCancelled, loadedReg.Status)

	var loadedInv models.Invoice
	require.NoError(t, db.First(&loadedInv, "id = ?", inv.ID).Error)
	assert.Equal(t, models.InvoiceCancelled, loadedInv.Status)

	// Cancelling twice is an illegal transition.
	err := CancelRegistration(db, reg.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))
}

func TestGenerateInvoiceRejectsDuplicate(t *testing.T) {
	db := setupTestDB(t)
	f := seedSchool(t, db)
	reg, _ := registerStudent(t, db, f)

	_, err := GenerateInvoice(db, reg, f.Actor.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindAlreadyExists))
}

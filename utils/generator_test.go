package utils

import (
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/eyobtef/school_admin/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Branch{}, &models.Grade{}, &models.AcademicYear{},
		&models.Student{}, &models.User{}, &models.Registration{},
	))
	return db
}

func TestNextRegistrationNumberSequence(t *testing.T) {
	db := openTestDB(t)

	branchID := uuid.New()
	otherBranchID := uuid.New()
	yearID := uuid.New()
	yy := time.Now().Format("06")

	num, err := NextRegistrationNumber(db, branchID, "BOL", yearID)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("REG-BOL%s-00001", yy), num)

	reg := models.Registration{
		RegistrationNumber: num,
		StudentID:          uuid.New(),
		BranchID:           branchID,
		GradeID:            uuid.New(),
		AcademicYearID:     yearID,
		PaymentOption:      models.OptionOneMonth,
		RegistrationFee:    500,
		AdditionalFee:      800,
		TotalAmount:        1300,
		PaymentDueDate:     time.Now().AddDate(0, 0, 14),
		Status:             models.RegistrationPendingPayment,
	}
	require.NoError(t, db.Create(&reg).Error)

	num, err = NextRegistrationNumber(db, branchID, "BOL", yearID)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("REG-BOL%s-00002", yy), num)

	// Sequence is scoped per branch and academic year.
	num, err = NextRegistrationNumber(db, otherBranchID, "KAL", yearID)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("REG-KAL%s-00001", yy), num)

	num, err = NextRegistrationNumber(db, branchID, "BOL", uuid.New())
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("REG-BOL%s-00001", yy), num)
}

func TestDocumentNumberFormats(t *testing.T) {
	date := time.Now().Format("060102")

	invoicePattern := regexp.MustCompile(fmt.Sprintf(`^INV-%s-\d{6}$`, date))
	assert.Regexp(t, invoicePattern, NextInvoiceNumber())

	paymentPattern := regexp.MustCompile(fmt.Sprintf(`^PAY-%s-\d{6}$`, date))
	assert.Regexp(t, paymentPattern, NextPaymentNumber())
}

func TestNewTransactionID(t *testing.T) {
	id := NewTransactionID()
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.NotEqual(t, id, NewTransactionID())
}

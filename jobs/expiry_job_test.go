package jobs

import (
	"testing"
	"time"

	"github.com/eyobtef/school_admin/database"
	"github.com/eyobtef/school_admin/models"
	"github.com/eyobtef/school_admin/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupJobTest seeds one registration whose due date already passed, the
// state the hourly scan is looking for.
func setupJobTest(t *testing.T) (*gorm.DB, *models.Registration, *models.Invoice) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Branch{}, &models.Grade{}, &models.AcademicYear{},
		&models.Student{}, &models.PricingSchema{}, &models.Registration{},
		&models.Invoice{}, &models.InvoiceItem{}, &models.Payment{},
		&models.SmsMessage{},
	))
	database.DB = db

	branch := models.Branch{Name: "Bole Branch", Code: "BOL", IsActive: true}
	require.NoError(t, db.Create(&branch).Error)
	grade := models.Grade{BranchID: branch.ID, Name: "Grade 1", Level: 1}
	require.NoError(t, db.Create(&grade).Error)
	year := models.AcademicYear{Name: "2018 E.C.", IsCurrent: true}
	require.NoError(t, db.Create(&year).Error)
	student := models.Student{
		BranchID: branch.ID, FirstName: "Abel", LastName: "Tesfaye",
		GuardianName: "Mulu", GuardianPhone: "0911223344", IsActive: true,
	}
	require.NoError(t, db.Create(&student).Error)
	pricing := models.PricingSchema{
		BranchID: branch.ID, GradeID: grade.ID,
		RegistrationFee: 500, MonthlyFee: 800, IsActive: true,
	}
	require.NoError(t, db.Create(&pricing).Error)
	actor := models.User{
		FullName: "Registrar", Email: "registrar@test.local", Password: "x",
		Role: models.RoleRegistrar, BranchID: &branch.ID,
	}
	require.NoError(t, db.Create(&actor).Error)

	reg, inv, err := services.CreateRegistration(db, services.CreateRegistrationInput{
		StudentID:      student.ID,
		BranchID:       branch.ID,
		GradeID:        grade.ID,
		AcademicYearID: year.ID,
		PaymentOption:  models.OptionOneMonth,
		CreatedByID:    actor.ID,
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.Registration{}).Where("id = ?", reg.ID).
		Update("payment_due_date", time.Now().AddDate(0, 0, -1)).Error)

	return db, reg, inv
}

func TestExpireStaleRegistrations(t *testing.T) {
	db, reg, inv := setupJobTest(t)

	ExpireStaleRegistrations()

	var loadedReg models.Registration
	require.NoError(t, db.First(&loadedReg, "id = ?", reg.ID).Error)
	assert.Equal(t, models.RegistrationExpired, loadedReg.Status)

	var loadedInv models.Invoice
	require.NoError(t, db.First(&loadedInv, "id = ?", inv.ID).Error)
	assert.Equal(t, models.InvoiceCancelled, loadedInv.Status)
}

func TestExpireLeavesSettledInvoiceAlone(t *testing.T) {
	db, reg, inv := setupJobTest(t)

	// A payment can commit between the stale scan and the per-row
	// transaction; the job must see the settled invoice and back off.
	require.NoError(t, db.Model(&models.Invoice{}).Where("id = ?", inv.ID).
		Updates(map[string]interface{}{
			"paid_amount": inv.FinalAmount,
			"status":      models.InvoicePaid,
		}).Error)

	ExpireStaleRegistrations()

	var loadedInv models.Invoice
	require.NoError(t, db.First(&loadedInv, "id = ?", inv.ID).Error)
	assert.Equal(t, models.InvoicePaid, loadedInv.Status)
	assert.Equal(t, inv.FinalAmount, loadedInv.PaidAmount)

	var loadedReg models.Registration
	require.NoError(t, db.First(&loadedReg, "id = ?", reg.ID).Error)
	assert.Equal(t, models.RegistrationPendingPayment, loadedReg.Status)
}

func TestExpireSkipsPartiallyPaid(t *testing.T) {
	db, reg, inv := setupJobTest(t)

	require.NoError(t, db.Model(&models.Invoice{}).Where("id = ?", inv.ID).
		Updates(map[string]interface{}{
			"paid_amount": 700,
			"status":      models.InvoicePartiallyPaid,
		}).Error)

	ExpireStaleRegistrations()

	var loadedReg models.Registration
	require.NoError(t, db.First(&loadedReg, "id = ?", reg.ID).Error)
	assert.Equal(t, models.RegistrationPendingPayment, loadedReg.Status)

	var loadedInv models.Invoice
	require.NoError(t, db.First(&loadedInv, "id = ?", inv.ID).Error)
	assert.Equal(t, models.InvoicePartiallyPaid, loadedInv.Status)
}

func TestMarkOverdueInvoices(t *testing.T) {
	db, _, inv := setupJobTest(t)

	require.NoError(t, db.Model(&models.Invoice{}).Where("id = ?", inv.ID).
		Update("due_date", time.Now().AddDate(0, 0, -1)).Error)

	MarkOverdueInvoices()

	var loadedInv models.Invoice
	require.NoError(t, db.First(&loadedInv, "id = ?", inv.ID).Error)
	assert.Equal(t, models.InvoiceOverdue, loadedInv.Status)
}

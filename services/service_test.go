package services

import (
	"testing"

	"github.com/eyobtef/school_admin/database"
	"github.com/eyobtef/school_admin/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Branch{},
		&models.Grade{},
		&models.AcademicYear{},
		&models.Student{},
		&models.Class{},
		&models.PricingSchema{},
		&models.Registration{},
		&models.Invoice{},
		&models.InvoiceItem{},
		&models.Payment{},
		&models.Enrollment{},
		&models.AttendanceRecord{},
		&models.SmsMessage{},
	))

	// Fire-and-forget SMS rows land in the outbox table of the test DB.
	database.DB = db
	return db
}

type fixtures struct {
	Branch  models.Branch
	Grade   models.Grade
	Year    models.AcademicYear
	Student models.Student
	Pricing models.PricingSchema
	Actor   models.User
}

// seedSchool sets up one branch with the pricing from the canonical
// walkthrough: registration fee 500, monthly fee 800.
func seedSchool(t *testing.T, db *gorm.DB) fixtures {
	t.Helper()

	f := fixtures{}

	f.Branch = models.Branch{Name: "Bole Branch", Code: "BOL", IsActive: true}
	require.NoError(t, db.Create(&f.Branch).Error)

	f.Grade = models.Grade{BranchID: f.Branch.ID, Name: "Grade 1", Level: 1}
	require.NoError(t, db.Create(&f.Grade).Error)

	f.Year = models.AcademicYear{Name: "2018 E.C.", IsCurrent: true}
	require.NoError(t, db.Create(&f.Year).Error)

	f.Student = models.Student{
		BranchID:      f.Branch.ID,
		FirstName:     "Abel",
		LastName:      "Tesfaye",
		GuardianName:  "Mulu",
		GuardianPhone: "0911223344",
		IsActive:      true,
	}
	require.NoError(t, db.Create(&f.Student).Error)

	f.Pricing = models.PricingSchema{
		BranchID:        f.Branch.ID,
		GradeID:         f.Grade.ID,
		RegistrationFee: 500,
		MonthlyFee:      800,
		ServiceFee:      0,
		IsActive:        true,
	}
	require.NoError(t, db.Create(&f.Pricing).Error)

	f.Actor = models.User{
		FullName: "Test Registrar",
		Email:    "registrar@test.local",
		Password: "irrelevant",
		Role:     models.RoleRegistrar,
		BranchID: &f.Branch.ID,
	}
	require.NoError(t, db.Create(&f.Actor).Error)

	return f
}

// registerStudent creates a one-month registration plus its invoice.
func registerStudent(t *testing.T, db *gorm.DB, f fixtures) (*models.Registration, *models.Invoice) {
	t.Helper()

	reg, inv, err := CreateRegistration(db, CreateRegistrationInput{
		StudentID:      f.Student.ID,
		BranchID:       f.Branch.ID,
		GradeID:        f.Grade.ID,
		AcademicYearID: f.Year.ID,
		PaymentOption:  models.OptionOneMonth,
		DiscountAmount: 0,
		CreatedByID:    f.Actor.ID,
	})
	require.NoError(t, err)
	return reg, inv
}

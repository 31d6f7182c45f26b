package services

import (
	"fmt"
	"testing"

	"github.com/eyobtef/school_admin/apperrors"
	"github.com/eyobtef/school_admin/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func makeClass(t *testing.T, db *gorm.DB, f fixtures, capacity int) *models.Class {
	t.Helper()

	class := models.Class{
		BranchID:       f.Branch.ID,
		GradeID:        f.Grade.ID,
		AcademicYearID: f.Year.ID,
		Name:           "1A",
		Capacity:       capacity,
	}
	require.NoError(t, db.Create(&class).Error)
	return &class
}

func paidRegistration(t *testing.T, db *gorm.DB, f fixtures) *models.Registration {
	t.Helper()

	reg, inv := registerStudent(t, db, f)
	_, err := RecordCashPayment(db, CashPaymentInput{
		InvoiceID: inv.ID, Amount: 1300, PaymentMethod: models.MethodCash, ActorID: f.Actor.ID,
	})
	require.NoError(t, err)
	return reg
}

func TestEnrollHappyPath(t *testing.T) {
	db := setupTestDB(t)
	f := seedSchool(t, db)
	class := makeClass(t, db, f, 30)
	reg := paidRegistration(t, db, f)

	enrollment, err := Enroll(db, reg.ID, class.ID, f.Actor.ID)
	require.NoError(t, err)

	assert.Equal(t, models.EnrollmentActive, enrollment.Status)
	assert.Equal(t, f.Student.ID, enrollment.StudentID)
	assert.Equal(t, class.ID, enrollment.ClassID)

	var loadedReg models.Registration
	require.NoError(t, db.First(&loadedReg, "id = ?", reg.ID).Error)
	assert.Equal(t, models.RegistrationEnrolled, loadedReg.Status)

	// First enrollment stamps the admission date.
	var loadedStudent models.Student
	require.NoError(t, db.First(&loadedStudent, "id = ?", f.Student.ID).Error)
	assert.NotNil(t, loadedStudent.AdmissionDate)
}

func TestEnrollRequiresCompletedPayment(t *testing.T) {
	db := setupTestDB(t)
	f := seedSchool(t, db)
	class := makeClass(t, db, f, 30)
	reg, _ := registerStudent(t, db, f)

	_, err := Enroll(db, reg.ID, class.ID, f.Actor.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))
}

func TestEnrollTwiceIsRejected(t *testing.T) {
	db := setupTestDB(t)
	f := seedSchool(t, db)
	class := makeClass(t, db, f, 30)
	reg := paidRegistration(t, db, f)

	_, err := Enroll(db, reg.ID, class.ID, f.Actor.ID)
	require.NoError(t, err)

	_, err = Enroll(db, reg.ID, class.ID, f.Actor.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindAlreadyEnrolled))

	var count int64
	require.NoError(t, db.Model(&models.Enrollment{}).
		Where("registration_id = ?", reg.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEnrollRespectsCapacity(t *testing.T) {
	db := setupTestDB(t)
	f := seedSchool(t, db)
	class := makeClass(t, db, f, 30)

	// Fill every seat with synthetic active enrollments.
	for i := 0; i < 30; i++ {
		student := models.Student{
			BranchID:      f.Branch.ID,
			FirstName:     "Filler",
			LastName:      fmt.Sprintf("Student%d", i),
			GuardianName:  "Guardian",
			GuardianPhone: "0911000000",
			IsActive:      true,
		}
		require.NoError(t, db.Create(&student).Error)

		reg := models.Registration{
			RegistrationNumber: fmt.Sprintf("REG-FILL-%05d", i),
			StudentID:          student.ID,
			BranchID:           f.Branch.ID,
			GradeID:            f.Grade.ID,
			AcademicYearID:     f.Year.ID,
			PaymentOption:      models.OptionOneMonth,
			RegistrationFee:    500,
			AdditionalFee:      800,
			TotalAmount:        1300,
			Status:             models.RegistrationEnrolled,
		}
		require.NoError(t, db.Create(&reg).Error)

		require.NoError(t, db.Create(&models.Enrollment{
			StudentID:      student.ID,
			ClassID:        class.ID,
			BranchID:       f.Branch.ID,
			AcademicYearID: f.Year.ID,
			RegistrationID: reg.ID,
			Status:         models.EnrollmentActive,
			EnrolledByID:   f.Actor.ID,
		}).Error)
	}

	reg := paidRegistration(t, db, f)
	_, err := Enroll(db, reg.ID, class.ID, f.Actor.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindCapacityExceeded))

	// Capacity breach leaves nothing behind and the registration untouched.
	var count int64
	require.NoError(t, db.Model(&models.Enrollment{}).
		Where("class_id = ? AND status = ?", class.ID, models.EnrollmentActive).
		Count(&count).Error)
	assert.Equal(t, int64(30), count)

	var loadedReg models.Registration
	require.NoError(t, db.First(&loadedReg, "id = ?", reg.ID).Error)
	assert.Equal(t, models.RegistrationPaymentCompleted, loadedReg.Status)
}

func TestEnrollRejectsMismatchedClass(t *testing.T) {
	db := setupTestDB(t)
	f := seedSchool(t, db)
	reg := paidRegistration(t, db, f)

	otherGrade := models.Grade{BranchID: f.Branch.ID, Name: "Grade 2", Level: 2}
	require.NoError(t, db.Create(&otherGrade).Error)

	class := models.Class{
		BranchID:       f.Branch.ID,
		GradeID:        otherGrade.ID,
		AcademicYearID: f.Year.ID,
		Name:           "2A",
		Capacity:       30,
	}
	require.NoError(t, db.Create(&class).Error)

	_, err := Enroll(db, reg.ID, class.ID, f.Actor.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestEnrollEndToEndFromWebhook(t *testing.T) {
	db := setupTestDB(t)
	f := seedSchool(t, db)
	class := makeClass(t, db, f, 30)
	reg, inv := registerStudent(t, db, f)
	payment := pendingOnlinePayment(t, db, inv, 1300)

	_, err := ConfirmPayment(db, payment.ID, models.ConfirmSourceWebhook, "TB-REF", nil)
	require.NoError(t, err)

	enrollment, err := Enroll(db, reg.ID, class.ID, f.Actor.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentActive, enrollment.Status)
}

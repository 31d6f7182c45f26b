package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/eyobtef/school_admin/apperrors"
	"github.com/eyobtef/school_admin/models"
	"github.com/eyobtef/school_admin/notifications"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Enroll binds a paid registration's student to a class. The class row is
// locked so the capacity check and the enrollment insert are atomic; two
// concurrent enrolls for the last seat cannot both pass.
func Enroll(db *gorm.DB, registrationID, classID, actorID uuid.UUID) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	var student models.Student

	err := db.Transaction(func(tx *gorm.DB) error {
		var reg models.Registration
		if err := tx.First(&reg, "id = ?", registrationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("registration %s not found", registrationID)
			}
			return err
		}
		if reg.Status == models.RegistrationEnrolled {
			return apperrors.AlreadyEnrolled("registration %s is already enrolled", reg.RegistrationNumber)
		}
		if reg.Status != models.RegistrationPaymentCompleted {
			return apperrors.InvalidState("registration %s is %s, expected %s",
				reg.RegistrationNumber, reg.Status, models.RegistrationPaymentCompleted)
		}

		var class models.Class
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&class, "id = ?", classID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("class %s not found", classID)
			}
			return err
		}
		if class.BranchID != reg.BranchID {
			return apperrors.AccessDenied("class belongs to a different branch")
		}
		if class.GradeID != reg.GradeID {
			return apperrors.Validation("class grade does not match the registration's grade")
		}
		if class.AcademicYearID != reg.AcademicYearID {
			return apperrors.Validation("class academic year does not match the registration's")
		}

		var active int64
		err = tx.Model(&models.Enrollment{}).
			Where("class_id = ? AND status = ?", classID, models.EnrollmentActive).
			Count(&active).Error
		if err != nil {
			return err
		}
		if active >= int64(class.Capacity) {
			return apperrors.CapacityExceeded("class %s is at capacity (%d)", class.Name, class.Capacity)
		}

		var existing int64
		err = tx.Model(&models.Enrollment{}).
			Where("student_id = ? AND academic_year_id = ? AND status = ?",
				reg.StudentID, reg.AcademicYearID, models.EnrollmentActive).
			Count(&existing).Error
		if err != nil {
			return err
		}
		if existing > 0 {
			return apperrors.AlreadyEnrolled("student already has an active enrollment this academic year")
		}

		enrollment = models.Enrollment{
			StudentID:      reg.StudentID,
			ClassID:        classID,
			BranchID:       reg.BranchID,
			AcademicYearID: reg.AcademicYearID,
			RegistrationID: reg.ID,
			EnrollmentDate: time.Now(),
			Status:         models.EnrollmentActive,
			EnrolledByID:   actorID,
		}
		if err := tx.Create(&enrollment).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.AlreadyEnrolled("duplicate enrollment for registration %s", reg.RegistrationNumber)
			}
			return err
		}

		if err := tx.First(&student, "id = ?", reg.StudentID).Error; err != nil {
			return err
		}
		if student.AdmissionDate == nil {
			now := time.Now()
			student.AdmissionDate = &now
			if err := tx.Save(&student).Error; err != nil {
				return err
			}
		}

		return MarkEnrolled(tx, reg.ID)
	})
	if err != nil {
		return nil, err
	}

	var class models.Class
	if err := db.First(&class, "id = ?", enrollment.ClassID).Error; err == nil {
		go notifications.SendSMS(student.GuardianPhone, fmt.Sprintf(
			"%s has been enrolled in class %s. Welcome!", student.FullName(), class.Name,
		))
	} else {
		log.Printf("Skipping enrollment SMS, class lookup failed: %v", err)
	}

	return &enrollment, nil
}

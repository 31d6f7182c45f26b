package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	EnrollmentActive      = "ACTIVE"
	EnrollmentWithdrawn   = "WITHDRAWN"
	EnrollmentTransferred = "TRANSFERRED"
)

type Enrollment struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	StudentID      uuid.UUID `gorm:"not null;index:idx_enrollment_student_year,unique,where:status = 'ACTIVE'" json:"student_id"`
	ClassID        uuid.UUID `gorm:"not null;index" json:"class_id"`
	BranchID       uuid.UUID `gorm:"not null;index" json:"branch_id"`
	AcademicYearID uuid.UUID `gorm:"not null;index:idx_enrollment_student_year,unique,where:status = 'ACTIVE'" json:"academic_year_id"`
	RegistrationID uuid.UUID `gorm:"not null;unique" json:"registration_id"`
	EnrollmentDate time.Time `gorm:"not null" json:"enrollment_date"`
	Status         string    `gorm:"size:20;not null;default:'ACTIVE'" json:"status"`
	EnrolledByID   uuid.UUID `gorm:"not null" json:"enrolled_by_id"`

	Student      Student      `gorm:"foreignkey:StudentID" json:"student,omitempty"`
	Class        Class        `gorm:"foreignkey:ClassID" json:"class,omitempty"`
	Branch       Branch       `gorm:"foreignkey:BranchID" json:"-"`
	AcademicYear AcademicYear `gorm:"foreignkey:AcademicYearID" json:"-"`
	Registration Registration `gorm:"foreignkey:RegistrationID" json:"-"`
	EnrolledBy   User         `gorm:"foreignkey:EnrolledByID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

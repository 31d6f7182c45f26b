package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Student struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	BranchID      uuid.UUID  `gorm:"not null;index" json:"branch_id"`
	FirstName     string     `gorm:"size:100;not null" json:"first_name"`
	LastName      string     `gorm:"size:100;not null" json:"last_name"`
	Gender        string     `gorm:"size:10" json:"gender"`
	DateOfBirth   *time.Time `json:"date_of_birth"`
	GuardianName  string     `gorm:"size:255" json:"guardian_name"`
	GuardianPhone string     `gorm:"size:20;not null" json:"guardian_phone"` // SMS target
	AdmissionDate *time.Time `json:"admission_date"`                         // set on first enrollment
	IsActive      bool       `gorm:"default:true" json:"is_active"`

	Branch Branch `gorm:"foreignkey:BranchID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Student) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (s *Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

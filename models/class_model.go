package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AcademicYear struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name      string    `gorm:"size:50;not null;unique" json:"name"` // e.g. "2018 E.C."
	StartDate time.Time `gorm:"not null" json:"start_date"`
	EndDate   time.Time `gorm:"not null" json:"end_date"`
	IsCurrent bool      `gorm:"default:false" json:"is_current"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (y *AcademicYear) BeforeCreate(tx *gorm.DB) error {
	if y.ID == uuid.Nil {
		y.ID = uuid.New()
	}
	return nil
}

type Class struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	BranchID       uuid.UUID  `gorm:"not null;index" json:"branch_id"`
	GradeID        uuid.UUID  `gorm:"not null;index" json:"grade_id"`
	AcademicYearID uuid.UUID  `gorm:"not null;index" json:"academic_year_id"`
	Name           string     `gorm:"size:50;not null" json:"name"` // section, "1A"
	Capacity       int        `gorm:"not null" json:"capacity"`
	HomeroomID     *uuid.UUID `json:"homeroom_id"`

	Branch       Branch       `gorm:"foreignkey:BranchID" json:"-"`
	Grade        Grade        `gorm:"foreignkey:GradeID" json:"-"`
	AcademicYear AcademicYear `gorm:"foreignkey:AcademicYearID" json:"-"`
	Homeroom     *User        `gorm:"foreignkey:HomeroomID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (cl *Class) BeforeCreate(tx *gorm.DB) error {
	if cl.ID == uuid.Nil {
		cl.ID = uuid.New()
	}
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AttendancePresent = "PRESENT"
	AttendanceAbsent  = "ABSENT"
	AttendanceLate    = "LATE"
	AttendanceExcused = "EXCUSED"
)

type AttendanceRecord struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	StudentID  uuid.UUID `gorm:"not null;index:idx_attendance_unique,unique" json:"student_id"`
	ClassID    uuid.UUID `gorm:"not null;index:idx_attendance_unique,unique" json:"class_id"`
	Date       time.Time `gorm:"type:date;not null;index:idx_attendance_unique,unique" json:"date"`
	Status     string    `gorm:"size:10;not null" json:"status"`
	Remark     *string   `gorm:"size:255" json:"remark"`
	MarkedByID uuid.UUID `gorm:"not null" json:"marked_by_id"`

	Student  Student `gorm:"foreignkey:StudentID" json:"-"`
	Class    Class   `gorm:"foreignkey:ClassID" json:"-"`
	MarkedBy User    `gorm:"foreignkey:MarkedByID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *AttendanceRecord) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

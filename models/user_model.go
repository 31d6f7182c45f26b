package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleAdmin     = "ADMIN"
	RoleRegistrar = "REGISTRAR"
	RoleCashier   = "CASHIER"
	RoleTeacher   = "TEACHER"
)

type User struct {
	ID       uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	FullName string     `gorm:"size:255;not null" json:"full_name"`
	Email    string     `gorm:"size:255;not null;unique" json:"email"`
	Phone    *string    `gorm:"size:20" json:"phone"`
	Password string     `gorm:"not null" json:"-"`
	Role     string     `gorm:"size:20;not null;default:'REGISTRAR'" json:"role"`
	BranchID *uuid.UUID `json:"branch_id"` // nil = super admin, sees every branch
	IsActive bool       `gorm:"default:true" json:"is_active"`

	Branch *Branch `gorm:"foreignkey:BranchID" json:"branch,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

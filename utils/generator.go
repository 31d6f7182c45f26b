package utils

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/eyobtef/school_admin/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Human-readable numbers ride next to the UUID primary keys and must stay
// stable for the life of the record. Uniqueness is enforced by the DB unique
// constraint; callers retry once with a regenerated value on
// gorm.ErrDuplicatedKey.

// NextRegistrationNumber derives "REG-<branch code><yy>-<seq>" from the count
// of registrations the branch already has this academic year. The count is a
// snapshot, so a concurrent create can collide; the unique constraint catches
// that and the caller re-derives.
func NextRegistrationNumber(tx *gorm.DB, branchID uuid.UUID, branchCode string, academicYearID uuid.UUID) (string, error) {
	var count int64
	err := tx.Model(&models.Registration{}).
		Where("branch_id = ? AND academic_year_id = ?", branchID, academicYearID).
		Count(&count).Error
	if err != nil {
		return "", err
	}

	year := time.Now().Format("06")
	return fmt.Sprintf("REG-%s%s-%05d", branchCode, year, count+1), nil
}

// NextInvoiceNumber is monotonic-looking (date-prefixed) with a random tail
// so concurrent creates rarely collide.
func NextInvoiceNumber() string {
	return fmt.Sprintf("INV-%s-%06d", time.Now().Format("060102"), rand.Intn(1000000))
}

func NextPaymentNumber() string {
	return fmt.Sprintf("PAY-%s-%06d", time.Now().Format("060102"), rand.Intn(1000000))
}

// NewTransactionID allocates the gateway correlation id stored on pending
// online payments and echoed back by the webhook.
func NewTransactionID() string {
	return uuid.New().String()
}

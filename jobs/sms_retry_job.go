package jobs

import (
	"log"
	"time"

	"github.com/eyobtef/school_admin/database"
	"github.com/eyobtef/school_admin/models"
	"github.com/eyobtef/school_admin/notifications"
)

const maxSmsAttempts = 3

// RetryFailedSms re-sends outbox messages that failed their earlier attempts.
// Delivery stays best-effort: a message that exhausts its attempts just stays
// FAILED in the outbox.
func RetryFailedSms() {
	log.Println("Running job: RetryFailedSms...")

	var pending []models.SmsMessage
	err := database.DB.
		Where("status IN ? AND attempts < ?", []string{models.SmsFailed, models.SmsPending}, maxSmsAttempts).
		Order("created_at").
		Limit(50).
		Find(&pending).Error
	if err != nil {
		log.Printf("Error loading SMS outbox: %v", err)
		return
	}

	for _, msg := range pending {
		msg.Attempts++
		if err := notifications.Deliver(msg.Phone, msg.Body); err != nil {
			errStr := err.Error()
			msg.Status = models.SmsFailed
			msg.LastError = &errStr
			log.Printf("SMS retry failed for %s (attempt %d): %v", msg.Phone, msg.Attempts, err)
		} else {
			now := time.Now()
			msg.Status = models.SmsSent
			msg.SentAt = &now
			msg.LastError = nil
			log.Printf("✅ SMS retry succeeded for %s", msg.Phone)
		}
		if err := database.DB.Save(&msg).Error; err != nil {
			log.Printf("🔥 Failed to update SMS outbox row %s: %v", msg.ID, err)
		}
	}
}

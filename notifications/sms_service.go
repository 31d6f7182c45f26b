package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	config "github.com/eyobtef/school_admin/configs"
	"github.com/eyobtef/school_admin/database"
	"github.com/eyobtef/school_admin/models"
)

type AfroMessageService struct {
	APIKey   string
	SenderID string
}

var SmsClient *AfroMessageService

type afroPayload struct {
	From    string `json:"from"`
	Sender  string `json:"sender"`
	To      string `json:"to"`
	Message string `json:"message"`
}

type afroResponse struct {
	Acknowledge string `json:"acknowledge"`
	Response    struct {
		MessageID string `json:"message_id"`
	} `json:"response"`
}

func InitSmsService() {
	apiKey := config.Config("AFROMESSAGE_API_KEY")
	senderID := config.Config("SMS_SENDER_ID")

	if apiKey == "" || senderID == "" {
		log.Println("⚠️ SMS service not configured. Missing API key or sender ID.")
		SmsClient = nil
		return
	}

	SmsClient = &AfroMessageService{APIKey: apiKey, SenderID: senderID}
	log.Println("✅ SMS service initialized successfully.")
}

// Deliver performs one send attempt against the SMS API.
func Deliver(phone, body string) error {
	if SmsClient == nil {
		return fmt.Errorf("SMS client not initialized")
	}
	return SmsClient.send(phone, body)
}

func (s *AfroMessageService) send(phone, body string) error {
	url := "https://api.afromessage.com/api/send"

	payload := afroPayload{
		From:    s.SenderID,
		Sender:  s.SenderID,
		To:      phone,
		Message: body,
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %v", err)
	}

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(raw))
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("SMS API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed afroResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return fmt.Errorf("failed to parse SMS API response: %v", err)
	}
	if parsed.Acknowledge != "success" {
		return fmt.Errorf("SMS API rejected message: %s", string(respBody))
	}

	return nil
}

// SendSMS is the fire-and-forget entry used after lifecycle transitions. The
// message is written to the outbox first so a failed attempt is retried by
// the cron job; errors are logged and never propagated.
func SendSMS(phone, body string) {
	msg := models.SmsMessage{Phone: phone, Body: body, Status: models.SmsPending}
	if err := database.DB.Create(&msg).Error; err != nil {
		log.Printf("🔥 Failed to queue SMS for %s: %v", phone, err)
		return
	}

	now := time.Now()
	msg.Attempts = 1
	if err := Deliver(phone, body); err != nil {
		errStr := err.Error()
		msg.Status = models.SmsFailed
		msg.LastError = &errStr
		log.Printf("🔥 Failed to send SMS to %s: %v", phone, err)
	} else {
		msg.Status = models.SmsSent
		msg.SentAt = &now
		log.Printf("✅ SMS sent successfully to %s", phone)
	}

	if err := database.DB.Save(&msg).Error; err != nil {
		log.Printf("🔥 Failed to update SMS outbox row %s: %v", msg.ID, err)
	}
}

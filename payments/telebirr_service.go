package payments

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/eyobtef/school_admin/apperrors"
	config "github.com/eyobtef/school_admin/configs"
)

const telebirrBaseURL = "https://app.telebirr.et/api/checkout/v2"

type CheckoutRequest struct {
	AppID          string `json:"appId"`
	Nonce          string `json:"nonce"`
	OutTradeNo     string `json:"outTradeNo"` // our gateway transaction id
	Subject        string `json:"subject"`
	TotalAmount    string `json:"totalAmount"`
	MSISDN         string `json:"msisdn,omitempty"`
	NotifyURL      string `json:"notifyUrl"`
	ReturnURL      string `json:"returnUrl"`
	CancelURL      string `json:"cancelUrl"`
	TimeoutExpress string `json:"timeoutExpress"`
	Timestamp      string `json:"timestamp"`
	Sign           string `json:"sign"`
}

type CheckoutResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		ToPayURL string `json:"toPayUrl"`
		PrepayID string `json:"prepayId"`
	} `json:"data"`
}

var nonDigitRegex = regexp.MustCompile(`[^0-9]`)

// SanitizePhone normalizes Ethiopian mobile numbers to 2519XXXXXXXX /
// 2517XXXXXXXX form.
func SanitizePhone(phone string) (string, error) {
	sanitized := nonDigitRegex.ReplaceAllString(phone, "")

	if (strings.HasPrefix(sanitized, "09") || strings.HasPrefix(sanitized, "07")) && len(sanitized) == 10 {
		return "251" + sanitized[1:], nil
	}
	if (strings.HasPrefix(sanitized, "9") || strings.HasPrefix(sanitized, "7")) && len(sanitized) == 9 {
		return "251" + sanitized, nil
	}
	if strings.HasPrefix(sanitized, "251") && len(sanitized) == 12 {
		return sanitized, nil
	}

	return "", errors.New("invalid Ethiopian phone number format")
}

// signPayload produces the HMAC-SHA256 signature over the sorted key=value
// string, the way the hosted checkout verifies requests.
func signPayload(fields map[string]string, secret string) string {
	keys := make([]string, 0, len(fields))
	for k, v := range fields {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+fields[k])
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.Join(pairs, "&")))
	return hex.EncodeToString(mac.Sum(nil))
}

// BuildRedirectURL asks the hosted checkout for a payment page URL for the
// given pending payment. The returned URL is where the payer's browser is
// sent; the gateway reports the outcome to notifyURL later.
func BuildRedirectURL(transactionID string, amount float64, reason, returnURL, cancelURL, notifyURL, payerPhone string) (string, error) {
	appID := config.Config("TELEBIRR_APP_ID")
	appSecret := config.Config("TELEBIRR_APP_SECRET")
	if appID == "" || appSecret == "" {
		return "", apperrors.Upstream(nil, "Telebirr credentials are not configured")
	}

	msisdn := ""
	if payerPhone != "" {
		sanitized, err := SanitizePhone(payerPhone)
		if err != nil {
			return "", apperrors.Validation("invalid payer phone: %v", err)
		}
		msisdn = sanitized
	}

	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	nonce := fmt.Sprintf("%d", time.Now().UnixNano())
	amountStr := fmt.Sprintf("%.2f", amount)

	payload := CheckoutRequest{
		AppID:          appID,
		Nonce:          nonce,
		OutTradeNo:     transactionID,
		Subject:        reason,
		TotalAmount:    amountStr,
		MSISDN:         msisdn,
		NotifyURL:      notifyURL,
		ReturnURL:      returnURL,
		CancelURL:      cancelURL,
		TimeoutExpress: "30m",
		Timestamp:      timestamp,
	}
	payload.Sign = signPayload(map[string]string{
		"appId":       appID,
		"nonce":       nonce,
		"outTradeNo":  transactionID,
		"subject":     reason,
		"totalAmount": amountStr,
		"msisdn":      msisdn,
		"notifyUrl":   notifyURL,
		"returnUrl":   returnURL,
		"cancelUrl":   cancelURL,
		"timestamp":   timestamp,
	}, appSecret)

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal checkout payload: %v", err)
	}

	req, err := http.NewRequest("POST", telebirrBaseURL+"/toPayUrl", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create checkout request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", apperrors.Upstream(err, "Telebirr checkout request failed")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperrors.Upstream(err, "failed to read Telebirr response")
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("Telebirr API error: %s", string(respBody))
		return "", apperrors.Upstream(nil, "Telebirr returned non-200 status: %d", resp.StatusCode)
	}

	var checkoutResp CheckoutResponse
	if err := json.Unmarshal(respBody, &checkoutResp); err != nil {
		return "", apperrors.Upstream(err, "failed to unmarshal Telebirr response")
	}

	if checkoutResp.Code != 0 || checkoutResp.Data.ToPayURL == "" {
		log.Printf("Telebirr checkout rejected: %s", checkoutResp.Message)
		return "", apperrors.Upstream(nil, "Telebirr checkout rejected: %s", checkoutResp.Message)
	}

	log.Println("✅ Telebirr checkout URL created for transaction:", transactionID)
	return checkoutResp.Data.ToPayURL, nil
}

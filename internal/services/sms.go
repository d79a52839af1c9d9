package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// SMSGateway talks to the external SMS provider's HTTP API. Reminders and
// escalations for customers without email go through here.
type SMSGateway struct {
	baseURL     string
	apiKey      string
	senderID    string
	countryCode string
	client      *http.Client
}

func NewSMSGateway() *SMSGateway {
	url := os.Getenv("SMS_GATEWAY_URL")
	if url == "" {
		url = "http://sms-gateway:3000"
	}
	countryCode := os.Getenv("SMS_COUNTRY_CODE")
	if countryCode == "" {
		countryCode = "94"
	}
	return &SMSGateway{
		baseURL:     url,
		apiKey:      os.Getenv("SMS_GATEWAY_API_KEY"),
		senderID:    os.Getenv("SMS_SENDER_ID"),
		countryCode: countryCode,
		client:      &http.Client{},
	}
}

func (s *SMSGateway) makeRequest(ctx context.Context, method, endpoint string, payload interface{}) error {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		bodyReader = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fmt.Sprintf("%s%s", s.baseURL, endpoint), bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// NormalizeMSISDN standardizes phone numbers to international format without
// the plus sign. A leading zero is replaced by the configured country code.
func (s *SMSGateway) NormalizeMSISDN(msisdn string) string {
	msisdn = strings.TrimSpace(msisdn)
	msisdn = strings.ReplaceAll(msisdn, " ", "")
	msisdn = strings.ReplaceAll(msisdn, "-", "")
	msisdn = strings.TrimPrefix(msisdn, "+")

	if strings.HasPrefix(msisdn, "0") {
		msisdn = s.countryCode + strings.TrimPrefix(msisdn, "0")
	}

	return msisdn
}

// SendSMS delivers one text message. A nil return means the gateway accepted
// the message.
func (s *SMSGateway) SendSMS(ctx context.Context, msisdn, text string) error {
	msisdn = s.NormalizeMSISDN(msisdn)

	return s.makeRequest(ctx, "POST", "/api/v1/messages", map[string]string{
		"to":     msisdn,
		"text":   text,
		"sender": s.senderID,
	})
}

package sms

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var ErrNotConfigured = errors.New("sms provider not configured")

// Sender sends one text message to one or more numbers.
type Sender interface {
	Send(ctx context.Context, to []string, message string) (string, error)
}

// NimbaClient sends SMS through the Nimba SMS API.
type NimbaClient struct {
	BaseURL    string
	ServiceID  string
	SecretKey  string
	SenderName string
	MaxLength  int
	client     *http.Client
	logger     *logrus.Logger
}

func NewNimbaClient(baseURL, serviceID, secretKey, senderName string, maxLength int, logger *logrus.Logger) *NimbaClient {
	if baseURL == "" {
		baseURL = "https://api.nimbasms.com"
	}
	if maxLength <= 0 {
		maxLength = 160
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &NimbaClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		ServiceID:  serviceID,
		SecretKey:  secretKey,
		SenderName: senderName,
		MaxLength:  maxLength,
		client:     &http.Client{Timeout: 20 * time.Second},
		logger:     logger,
	}
}

type nimbaReq struct {
	To         []string `json:"to"`
	Message    string   `json:"message"`
	SenderName string   `json:"sender_name"`
}

type nimbaResp struct {
	MessageID string `json:"messageid"`
	URL       string `json:"url"`
	Detail    string `json:"detail"`
}

// Send returns the provider message id. Messages longer than MaxLength are truncated.
func (c *NimbaClient) Send(ctx context.Context, to []string, message string) (string, error) {
	if c.ServiceID == "" || c.SecretKey == "" {
		return "", ErrNotConfigured
	}
	if len(to) == 0 {
		return "", errors.New("sms: no recipient")
	}
	body, _ := json.Marshal(nimbaReq{To: to, Message: Truncate(message, c.MaxLength), SenderName: c.SenderName})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(c.ServiceID+":"+c.SecretKey)))
	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	c.logger.WithFields(logrus.Fields{"provider": "nimba", "status": resp.StatusCode, "recipients": len(to)}).
		Debug(string(respBody))
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("nimba sms: %d %s", resp.StatusCode, string(respBody))
	}
	var out nimbaResp
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("nimba sms: %w", err)
	}
	return out.MessageID, nil
}

// Truncate cuts message to max runes, ending with "..." when cut.
func Truncate(message string, max int) string {
	r := []rune(message)
	if max <= 3 || len(r) <= max {
		return message
	}
	return string(r[:max-3]) + "..."
}

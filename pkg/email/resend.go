package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var ErrNotConfigured = errors.New("email provider not configured")

type Message struct {
	To      []string
	Subject string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// ResendClient sends transactional email through the Resend API.
type ResendClient struct {
	BaseURL string
	APIKey  string
	From    string
	client  *http.Client
	logger  *logrus.Logger
}

func NewResendClient(baseURL, apiKey, from string, logger *logrus.Logger) *ResendClient {
	if baseURL == "" {
		baseURL = "https://api.resend.com"
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ResendClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		From:    from,
		client:  &http.Client{Timeout: 20 * time.Second},
		logger:  logger,
	}
}

type resendReq struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type resendResp struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

func (c *ResendClient) Send(ctx context.Context, msg Message) (string, error) {
	if c.APIKey == "" {
		return "", ErrNotConfigured
	}
	if len(msg.To) == 0 {
		return "", errors.New("email: no recipient")
	}
	body, _ := json.Marshal(resendReq{From: c.From, To: msg.To, Subject: msg.Subject, HTML: msg.HTML})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	c.logger.WithFields(logrus.Fields{"provider": "resend", "status": resp.StatusCode}).Debug(string(respBody))
	var out resendResp
	_ = json.Unmarshal(respBody, &out)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("resend: %d %s", resp.StatusCode, out.Message)
	}
	return out.ID, nil
}

package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// LengoProvider talks to the Lengo Pay REST API.
type LengoProvider struct {
	BaseURL    string
	LicenseKey string
	SiteID     string
	Currency   string
	client     *http.Client
	logger     *logrus.Logger
}

func NewLengoProvider(baseURL, licenseKey, siteID, currency string, timeout time.Duration, logger *logrus.Logger) *LengoProvider {
	if baseURL == "" {
		baseURL = "https://portal.lengopay.com"
	}
	if currency == "" {
		currency = "GNF"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LengoProvider{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		LicenseKey: licenseKey,
		SiteID:     siteID,
		Currency:   currency,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type lengoPaymentReq struct {
	WebsiteID   string `json:"websiteid"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	ReturnURL   string `json:"return_url,omitempty"`
	CallbackURL string `json:"callback_url,omitempty"`
}

type lengoPaymentResp struct {
	Status     string `json:"status"`
	PayID      string `json:"pay_id"`
	PaymentURL string `json:"payment_url"`
	Message    string `json:"message"`
}

type lengoStatusReq struct {
	PayID     string `json:"pay_id"`
	WebsiteID string `json:"websiteid"`
}

func (p *LengoProvider) CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error) {
	currency := req.Currency
	if currency == "" {
		currency = p.Currency
	}
	payload := lengoPaymentReq{
		WebsiteID:   p.SiteID,
		Amount:      req.Amount,
		Currency:    currency,
		ReturnURL:   req.ReturnURL,
		CallbackURL: req.CallbackURL,
	}
	p.logger.WithFields(logrus.Fields{"provider": "lengo", "reference": req.Reference, "amount": req.Amount}).
		Info("creating payment")
	body, err := p.post(ctx, "/api/v1/payments", payload)
	if err != nil {
		return nil, err
	}
	var out lengoPaymentResp
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if out.PayID == "" {
		return nil, fmt.Errorf("%w: missing pay_id (%s)", ErrInvalidResponse, out.Message)
	}
	return &PaymentResponse{PayID: out.PayID, PaymentURL: out.PaymentURL, Status: out.Status}, nil
}

func (p *LengoProvider) GetStatus(ctx context.Context, payID string) (*StatusResponse, error) {
	body, err := p.post(ctx, "/api/v1/txn/status", lengoStatusReq{PayID: payID, WebsiteID: p.SiteID})
	if err != nil {
		return nil, err
	}
	raw := map[string]interface{}{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	out := &StatusResponse{
		PayID:   stringField(raw, "pay_id"),
		Status:  strings.ToUpper(stringField(raw, "status")),
		Amount:  intField(raw, "amount"),
		Date:    stringField(raw, "date"),
		Receipt: stringField(raw, "receipt"),
		Raw:     raw,
	}
	if out.PayID == "" {
		out.PayID = payID
	}
	if out.Status == "" {
		return nil, fmt.Errorf("%w: missing status", ErrInvalidResponse)
	}
	return out, nil
}

// post sends a JSON body and returns the response body of a 2xx JSON answer.
func (p *LengoProvider) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Basic "+p.LicenseKey)
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	p.logger.WithFields(logrus.Fields{"provider": "lengo", "path": path, "status": resp.StatusCode}).
		Debug(string(respBody))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s %d", ErrUpstream, path, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "json") {
		return nil, fmt.Errorf("%w: content-type %q", ErrInvalidResponse, ct)
	}
	return respBody, nil
}

func stringField(m map[string]interface{}, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func intField(m map[string]interface{}, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseFloat(v, 64)
		return int64(n)
	}
	return 0
}

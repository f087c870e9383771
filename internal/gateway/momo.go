package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"
)

// MomoClient talks to the mobile-money collections API.
type MomoClient struct {
	SecretKey string
	BaseURL   string
	Client    *http.Client
}

// Momo API response structures
type momoResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Data    struct {
		ProviderRef string `json:"provider_ref"`
		SessionID   string `json:"session_id"`
	} `json:"data"`
}

// NewMomoClient creates a new mobile-money client instance
func NewMomoClient() *MomoClient {
	baseURL := os.Getenv("MOMO_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.momo-collections.example.com"
	}
	return &MomoClient{
		SecretKey: os.Getenv("MOMO_SECRET_KEY"),
		BaseURL:   baseURL,
		Client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// makeRequest makes HTTP request to the momo API
func (mc *MomoClient) makeRequest(ctx context.Context, method, endpoint string, payload interface{}) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, mc.BaseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+mc.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	return mc.Client.Do(req)
}

// InitiateCharge asks the rail to push an approval prompt to the payer's
// handset (request-to-pay).
func (mc *MomoClient) InitiateCharge(ctx context.Context, chargeReq ChargeRequest) error {
	payload := map[string]interface{}{
		"session_id": chargeReq.SessionID,
		"msisdn":     chargeReq.PhoneNumber,
		"network":    chargeReq.Network,
		"amount":     chargeReq.Amount,
		"currency":   chargeReq.Currency,
		"reference":  chargeReq.Reference,
	}

	resp, err := mc.makeRequest(ctx, "POST", "/collections/request-to-pay", payload)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return &ChargeError{Reason: "timeout", Transient: true, Message: err.Error()}
		}
		return &ChargeError{Reason: "network_error", Transient: true, Message: err.Error()}
	}
	defer resp.Body.Close()

	var result momoResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return &ChargeError{Reason: "network_error", Transient: true, Message: fmt.Sprintf("failed to decode response: %v", err)}
	}

	if resp.StatusCode >= 500 {
		return &ChargeError{Reason: "gateway_busy", Transient: true, Message: result.Message}
	}
	if !result.Status {
		return &ChargeError{Reason: momoReason(result.Code), Transient: false, Message: result.Message}
	}
	return nil
}

// momoReason maps the rail's decline codes onto recorded failure
// reasons.
func momoReason(code string) string {
	switch code {
	case "INSUFFICIENT_FUNDS":
		return "insufficient_funds"
	case "INVALID_MSISDN":
		return "invalid_phone"
	case "PAYER_REJECTED":
		return "user_declined"
	default:
		return "user_declined"
	}
}

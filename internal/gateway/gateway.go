package gateway

import (
	"context"
	"fmt"
)

// ChargeRequest is the outbound "initiate charge" call for one session.
type ChargeRequest struct {
	SessionID   string `json:"session_id"`
	PhoneNumber string `json:"phone_number"`
	Network     string `json:"network"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Reference   string `json:"reference"`
}

// Callback is the inbound settlement report from the rail. Gateways retry
// webhooks, so consumers must treat duplicates as no-ops.
type Callback struct {
	SessionID   string `json:"session_id"`
	GatewayTxID string `json:"gateway_tx_id"`
	Result      string `json:"result"`
	Reason      string `json:"reason,omitempty"`
	RawPayload  string `json:"-"`
}

const (
	ResultSuccess = "success"
	ResultFailed  = "failed"
)

// Charger is the port to the mobile-money rail. Two adapters implement
// it: the momo HTTP client and the deterministic mock.
type Charger interface {
	InitiateCharge(ctx context.Context, req ChargeRequest) error
}

// ChargeError reports a failed charge initiation with a machine reason
// the core can classify. Transient errors are eligible for retry.
type ChargeError struct {
	Reason    string
	Transient bool
	Message   string
}

func (e *ChargeError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("gateway %s error (%s): %s", kind, e.Reason, e.Message)
}

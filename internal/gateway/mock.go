package gateway

import (
	"context"
	"strings"
	"sync"
)

// MockCharger is the deterministic stand-in for the rail: the outcome
// depends only on the payer's phone number, so tests and local dev never
// touch the network and never flake.
//
//	...0000  -> permanent decline (insufficient funds)
//	...1111  -> transient failure (gateway busy)
//	anything else -> charge accepted, settlement arrives via callback
type MockCharger struct {
	mu    sync.Mutex
	calls []ChargeRequest
}

func NewMockCharger() *MockCharger {
	return &MockCharger{}
}

func (m *MockCharger) InitiateCharge(_ context.Context, req ChargeRequest) error {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	switch {
	case strings.HasSuffix(req.PhoneNumber, "0000"):
		return &ChargeError{Reason: "insufficient_funds", Transient: false, Message: "payer balance too low"}
	case strings.HasSuffix(req.PhoneNumber, "1111"):
		return &ChargeError{Reason: "gateway_busy", Transient: true, Message: "rail is busy, try again"}
	default:
		return nil
	}
}

// Calls returns a copy of every charge request seen so far.
func (m *MockCharger) Calls() []ChargeRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ChargeRequest, len(m.calls))
	copy(out, m.calls)
	return out
}

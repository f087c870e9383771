package giving

import "errors"

var (
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrInvalidTransition     = errors.New("invalid transition")
	ErrDuplicateSettlement   = errors.New("duplicate settlement")
	ErrRefundExceedsOriginal = errors.New("refund exceeds original")
	ErrNotFound              = errors.New("not found")
	ErrMethodInactive        = errors.New("payment method inactive")
)

// Failure reasons recorded on transactions. The retry coordinator only
// ever acts on the transient set.
const (
	ReasonNetworkError      = "network_error"
	ReasonTimeout           = "timeout"
	ReasonGatewayBusy       = "gateway_busy"
	ReasonSessionExpired    = "session_expired"
	ReasonInsufficientFunds = "insufficient_funds"
	ReasonInvalidPhone      = "invalid_phone"
	ReasonUserDeclined      = "user_declined"
)

// IsTransient classifies a failure reason. Unknown reasons are treated as
// permanent: an unclassified failure must not turn into a retry storm.
func IsTransient(reason string) bool {
	switch reason {
	case ReasonNetworkError, ReasonTimeout, ReasonGatewayBusy, ReasonSessionExpired:
		return true
	default:
		return false
	}
}

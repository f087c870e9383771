package models

import (
	"time"
)

type SessionStatus string

const (
	SessionInitiated SessionStatus = "initiated"
	SessionPending   SessionStatus = "pending"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
	SessionExpired   SessionStatus = "expired"
)

// GatewaySession is the live handshake with the mobile-money rail for one
// charge attempt. A retry of the same transaction gets a brand-new session
// id; Amount is copied from the transaction's gross at creation and never
// changes afterwards.
type GatewaySession struct {
	ID            uint          `gorm:"primarykey" json:"id"`
	SessionID     string        `gorm:"uniqueIndex;not null" json:"session_id"`
	TransactionID uint          `gorm:"not null;index" json:"transaction_id"`
	PhoneNumber   string        `gorm:"type:varchar(20);not null" json:"phone_number"`
	Network       string        `gorm:"type:varchar(20);not null" json:"network"`
	Amount        int64         `gorm:"not null" json:"amount"`
	Currency      string        `gorm:"type:varchar(3);not null;default:'GHS'" json:"currency"`
	Status        SessionStatus `gorm:"type:varchar(20);not null;default:'initiated';index" json:"status"`
	Attempt       int           `gorm:"not null;default:0" json:"attempt"`
	ExpiresAt     time.Time     `gorm:"not null;index" json:"expires_at"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
	RawResponse   string        `gorm:"type:text" json:"raw_response,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`

	Transaction Transaction `gorm:"foreignKey:TransactionID" json:"transaction,omitempty"`
}

func (GatewaySession) TableName() string {
	return "gateway_sessions"
}

func (s *GatewaySession) IsTerminal() bool {
	switch s.Status {
	case SessionCompleted, SessionFailed, SessionExpired:
		return true
	default:
		return false
	}
}

package models

import (
	"time"
)

// PaymentMethod is a config record for one giving rail. Business logic
// branches on the capability flags, never on Code, so adding a new rail
// is a config row plus an adapter, not a call-site hunt.
type PaymentMethod struct {
	ID                     uint      `gorm:"primarykey" json:"id"`
	Code                   string    `gorm:"uniqueIndex;not null" json:"code"`
	Name                   string    `gorm:"not null" json:"name"`
	Currency               string    `gorm:"type:varchar(3);not null;default:'GHS'" json:"currency"`
	RequiresGatewaySession bool      `gorm:"not null;default:false" json:"requires_gateway_session"`
	RequiresAccountNumber  bool      `gorm:"not null;default:false" json:"requires_account_number"`
	FeeBps                 int64     `gorm:"not null;default:0" json:"fee_bps"`
	FeeFixed               int64     `gorm:"not null;default:0" json:"fee_fixed"`
	MinAmount              int64     `gorm:"not null;default:100" json:"min_amount"`
	MaxAmount              int64     `gorm:"not null;default:0" json:"max_amount"` // 0 = no cap
	IsActive               bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

func (PaymentMethod) TableName() string {
	return "payment_methods"
}

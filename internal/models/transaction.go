package models

import (
	"time"
)

type TransactionType string
type TransactionStatus string
type PaymentStatus string

const (
	TransactionPayment    TransactionType = "payment"
	TransactionRefund     TransactionType = "refund"
	TransactionAdjustment TransactionType = "adjustment"
)

const (
	TransactionPending    TransactionStatus = "pending"
	TransactionProcessing TransactionStatus = "processing"
	TransactionCompleted  TransactionStatus = "completed"
	TransactionFailed     TransactionStatus = "failed"
	TransactionCancelled  TransactionStatus = "cancelled"
)

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentAuthorized PaymentStatus = "authorized"
	PaymentCaptured   PaymentStatus = "captured"
	PaymentFailed     PaymentStatus = "failed"
	PaymentCancelled  PaymentStatus = "cancelled"
)

// Transaction is one monetary movement. Amounts are int64 minor currency
// units (pesewas); GrossAmount == NetAmount + FeeAmount at all times.
// Rows are never deleted — terminal states are final, refunds and
// adjustments are new rows pointing back at the original.
type Transaction struct {
	ID         uint            `gorm:"primarykey" json:"id"`
	Reference  string          `gorm:"uniqueIndex;not null" json:"reference"`
	MemberID   uint            `gorm:"not null;index" json:"member_id"`
	MethodID   uint            `gorm:"not null;index" json:"method_id"`
	CategoryID uint            `gorm:"not null;index" json:"category_id"`
	PlanID     *uint           `gorm:"index" json:"plan_id,omitempty"`
	Type       TransactionType `gorm:"type:varchar(20);not null;default:'payment'" json:"type"`

	GrossAmount int64  `gorm:"not null" json:"gross_amount"`
	FeeAmount   int64  `gorm:"not null;default:0" json:"fee_amount"`
	NetAmount   int64  `gorm:"not null" json:"net_amount"`
	Currency    string `gorm:"type:varchar(3);not null;default:'GHS'" json:"currency"`

	Status        TransactionStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PaymentStatus PaymentStatus     `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"`

	// Set for refund/adjustment rows only.
	OriginalTxID *uint `gorm:"index" json:"original_tx_id,omitempty"`

	Description string `gorm:"type:text" json:"description,omitempty"`

	// Gateway-facing fields.
	PhoneNumber string `gorm:"type:varchar(20)" json:"phone_number,omitempty"`
	Network     string `gorm:"type:varchar(20)" json:"network,omitempty"`
	GatewayTxID string `gorm:"index" json:"gateway_tx_id,omitempty"`

	FailureReason string     `gorm:"type:text" json:"failure_reason,omitempty"`
	RetryCount    int        `gorm:"not null;default:0" json:"retry_count"`
	NextRetryAt   *time.Time `gorm:"index" json:"next_retry_at,omitempty"`

	CreatedBy   string     `gorm:"type:varchar(50)" json:"created_by,omitempty"`
	ProcessedBy string     `gorm:"type:varchar(50)" json:"processed_by,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	FailedAt    *time.Time `json:"failed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Member   Member         `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	Method   PaymentMethod  `gorm:"foreignKey:MethodID" json:"method,omitempty"`
	Category GivingCategory `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// IsTerminal reports whether the ledger state machine has finished with
// this transaction. A failed transaction with retries remaining may still
// be re-entered by the retry coordinator.
func (t *Transaction) IsTerminal() bool {
	switch t.Status {
	case TransactionCompleted, TransactionFailed, TransactionCancelled:
		return true
	default:
		return false
	}
}

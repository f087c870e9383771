package models

import (
	"time"
)

type PlanFrequency string
type PlanStatus string

const (
	FrequencyWeekly    PlanFrequency = "weekly"
	FrequencyMonthly   PlanFrequency = "monthly"
	FrequencyQuarterly PlanFrequency = "quarterly"
	FrequencyYearly    PlanFrequency = "yearly"
)

const (
	PlanActive    PlanStatus = "active"
	PlanPaused    PlanStatus = "paused"
	PlanCancelled PlanStatus = "cancelled"
	PlanCompleted PlanStatus = "completed"
)

// RecurringPlan is a standing instruction to spawn a new transaction each
// period. NextDueDate always advances from the previous due date, never
// from the tick that happened to execute it, so a late tick cannot shift
// the cadence.
type RecurringPlan struct {
	ID         uint `gorm:"primarykey" json:"id"`
	MemberID   uint `gorm:"not null;index" json:"member_id"`
	MethodID   uint `gorm:"not null" json:"method_id"`
	CategoryID uint `gorm:"not null" json:"category_id"`

	Amount   int64  `gorm:"not null" json:"amount"`
	Currency string `gorm:"type:varchar(3);not null;default:'GHS'" json:"currency"`

	Frequency   PlanFrequency `gorm:"type:varchar(20);not null" json:"frequency"`
	StartDate   time.Time     `gorm:"not null" json:"start_date"`
	EndDate     *time.Time    `json:"end_date,omitempty"`
	NextDueDate time.Time     `gorm:"not null;index" json:"next_due_date"`

	Status   PlanStatus `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	IsActive bool       `gorm:"not null;default:true;index" json:"is_active"`

	MaxOccurrences   int        `gorm:"not null;default:0" json:"max_occurrences"` // 0 = unbounded
	OccurrencesSoFar int        `gorm:"not null;default:0" json:"occurrences_so_far"`
	FailureCount     int        `gorm:"not null;default:0" json:"failure_count"`
	LastPaymentDate  *time.Time `json:"last_payment_date,omitempty"`

	PhoneNumber string `gorm:"type:varchar(20)" json:"phone_number,omitempty"`
	Network     string `gorm:"type:varchar(20)" json:"network,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Member   Member         `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	Method   PaymentMethod  `gorm:"foreignKey:MethodID" json:"method,omitempty"`
	Category GivingCategory `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

func (RecurringPlan) TableName() string {
	return "recurring_plans"
}

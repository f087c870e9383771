package models

import (
	"time"

	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationGiftReceived    NotificationType = "gift_received"
	NotificationGiftFailed      NotificationType = "gift_failed"
	NotificationRefundProcessed NotificationType = "refund_processed"
	NotificationPlanCreated     NotificationType = "plan_created"
	NotificationPlanPaused      NotificationType = "plan_paused"
	NotificationPlanCompleted   NotificationType = "plan_completed"
)

type Notification struct {
	ID        uint             `json:"id" gorm:"primaryKey"`
	MemberID  uint             `json:"member_id" gorm:"not null;index"`
	Type      NotificationType `json:"type" gorm:"type:varchar(50);not null"`
	Title     string           `json:"title" gorm:"type:varchar(255);not null"`
	Message   string           `json:"message" gorm:"type:text;not null"`
	IsRead    bool             `json:"is_read" gorm:"default:false;index"`
	Data      string           `json:"data" gorm:"type:json"`
	CreatedAt time.Time        `json:"created_at"`
	ReadAt    *time.Time       `json:"read_at"`

	Member Member `json:"member,omitempty" gorm:"foreignKey:MemberID"`
}

func (Notification) TableName() string {
	return "notifications"
}

// BeforeCreate hook
func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	n.CreatedAt = time.Now()
	return nil
}

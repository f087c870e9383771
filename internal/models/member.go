package models

import (
	"time"
)

// Member is a read-only projection of the member directory. The giving
// engine only needs enough of it to address receipts and notifications;
// the directory subsystem owns the full record.
type Member struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	FullName     string    `gorm:"not null" json:"full_name"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	Phone        string    `gorm:"not null" json:"phone"`
	MemberNumber string    `gorm:"uniqueIndex;not null" json:"member_number"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Member) TableName() string {
	return "members"
}

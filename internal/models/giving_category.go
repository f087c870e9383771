package models

import (
	"time"
)

// GivingCategory is a config record naming where a gift is directed
// (tithe, offering, building fund, missions, ...).
type GivingCategory struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Code      string    `gorm:"uniqueIndex;not null" json:"code"`
	Name      string    `gorm:"not null" json:"name"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (GivingCategory) TableName() string {
	return "giving_categories"
}

package models

import "time"

// Notification is an in-app message shown on the dashboard. A nil UserID targets every admin.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `gorm:"index" json:"user_id"`
	Titre     string    `gorm:"size:255;not null" json:"titre"`
	Message   string    `gorm:"type:text" json:"message"`
	Type      string    `gorm:"size:50;not null;index" json:"type"`
	Lu        bool      `gorm:"default:false;index" json:"lu"`
	CreatedAt time.Time `json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// User is an authentication account (dashboard admin, HR manager or employee).
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Email        string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Telephone    string         `gorm:"size:20" json:"telephone"`
	DisplayName  string         `gorm:"size:200" json:"display_name"`
	PasswordHash string         `gorm:"size:255" json:"-"`
	Role         string         `gorm:"size:20;not null;index" json:"role"` // ADMIN | RH | EMPLOYEE
	Actif        bool           `gorm:"default:true" json:"actif"`
	LastLoginAt  *time.Time     `json:"last_login_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

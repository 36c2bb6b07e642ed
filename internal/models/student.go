package models

import (
	"time"

	"gorm.io/gorm"
)

type Student struct {
	ID           uint      `gorm:"primaryKey"`
	TelegramID   int64     `gorm:"uniqueIndex;not null"`
	FullName     string    `gorm:"type:varchar(255);not null"`
	GroupName    string    `gorm:"type:varchar(100)"`
	Phone        string    `gorm:"type:varchar(20)"`
	Subscribed   bool      `gorm:"default:false;not null"`
	RegisteredAt time.Time `gorm:"autoCreateTime"`
}

func (Student) TableName() string {
	return "students"
}

// MinNameLength is the shortest accepted full name
const MinNameLength = 3

// BeforeSave hook for validation
func (s *Student) BeforeSave(tx *gorm.DB) error {
	if len([]rune(s.FullName)) < MinNameLength {
		return gorm.ErrInvalidData
	}
	return nil
}

type Admin struct {
	ID           uint      `gorm:"primaryKey"`
	TelegramID   int64     `gorm:"uniqueIndex;not null"`
	FullName     string    `gorm:"type:varchar(255)"`
	RegisteredAt time.Time `gorm:"autoCreateTime"`
}

func (Admin) TableName() string {
	return "admins"
}

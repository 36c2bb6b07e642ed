package models

import "time"

type Setting struct {
	Key   string `gorm:"primaryKey;type:varchar(100)"`
	Value string `gorm:"type:text"`
}

func (Setting) TableName() string {
	return "settings"
}

const SettingChannelUsername = "channel_username"

// RequiredChannel is a channel participants must join before taking a test
type RequiredChannel struct {
	ID       uint   `gorm:"primaryKey"`
	Username string `gorm:"type:varchar(100);uniqueIndex;not null"`
}

func (RequiredChannel) TableName() string {
	return "required_channels"
}

// StoredSession is the durable form of an in-progress attempt, keyed by
// participant. Payload is the JSON-encoded session.
type StoredSession struct {
	ParticipantID int64     `gorm:"primaryKey;autoIncrement:false"`
	AttemptID     string    `gorm:"type:varchar(36);not null"`
	Payload       string    `gorm:"type:text;not null"`
	TouchedAt     time.Time `gorm:"not null;index"`
}

func (StoredSession) TableName() string {
	return "quiz_sessions"
}

package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Test is a published multiple-choice test. CorrectKeys holds the canonical
// answer key in normalized "1-A 2-B" form.
type Test struct {
	ID            uint      `gorm:"primaryKey"`
	Code          string    `gorm:"type:varchar(64);uniqueIndex;not null"`
	Title         string    `gorm:"type:varchar(255);not null"`
	CorrectKeys   string    `gorm:"type:text;not null"`
	QuestionCount int       `gorm:"not null"`
	CreatedBy     int64     `gorm:"index"`
	IsActive      bool      `gorm:"default:true;not null;index"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index"`
}

func (Test) TableName() string {
	return "tests"
}

// BeforeSave keeps codes case-normalized
func (t *Test) BeforeSave(tx *gorm.DB) error {
	t.Code = strings.ToUpper(strings.TrimSpace(t.Code))
	if t.Code == "" || t.QuestionCount <= 0 {
		return gorm.ErrInvalidData
	}
	return nil
}

// Result is the immutable outcome of one completed attempt. The composite
// unique index on (participant_id, test_id) is what enforces at-most-one
// submission.
type Result struct {
	ID             uint      `gorm:"primaryKey"`
	ParticipantID  int64     `gorm:"not null;uniqueIndex:idx_result_participant_test"`
	TestID         uint      `gorm:"not null;uniqueIndex:idx_result_participant_test;index"`
	Test           Test      `gorm:"foreignKey:TestID;constraint:OnDelete:CASCADE"`
	CorrectCount   int       `gorm:"not null"`
	TotalQuestions int       `gorm:"not null"`
	UserAnswers    string    `gorm:"type:text;not null"`
	SubmittedAt    time.Time `gorm:"autoCreateTime;index"`
}

func (Result) TableName() string {
	return "results"
}

// ResultStat is one row of per-test statistics
type ResultStat struct {
	FullName       string
	CorrectCount   int
	TotalQuestions int
}

// ResultSummary is one row of a participant's own history
type ResultSummary struct {
	Title          string
	Code           string
	CorrectCount   int
	TotalQuestions int
	SubmittedAt    time.Time
}

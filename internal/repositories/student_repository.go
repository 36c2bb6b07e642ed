package repositories

import (
	"context"
	stderrors "errors"

	"github.com/mroshb/quiz_bot/internal/models"
	"github.com/mroshb/quiz_bot/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StudentRepository struct {
	db *gorm.DB
}

func NewStudentRepository(db *gorm.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// CreateStudent registers a student. Registering the same Telegram id twice
// fails with ALREADY_EXISTS.
func (r *StudentRepository) CreateStudent(ctx context.Context, student *models.Student) error {
	if err := r.db.WithContext(ctx).Create(student).Error; err != nil {
		if isDuplicateError(err) {
			return errors.Wrap(err, errors.ErrCodeAlreadyExists, "student already registered")
		}
		if stderrors.Is(err, gorm.ErrInvalidData) {
			return errors.Wrap(err, errors.ErrCodeValidation, "name is too short")
		}
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create student")
	}
	return nil
}

// GetStudentByTelegramID retrieves a student by Telegram ID
func (r *StudentRepository) GetStudentByTelegramID(ctx context.Context, telegramID int64) (*models.Student, error) {
	var student models.Student
	result := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&student)

	if stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, errors.New(errors.ErrCodeNotFound, "student not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get student")
	}

	return &student, nil
}

// MarkSubscribed records that the student passed the channel check
func (r *StudentRepository) MarkSubscribed(ctx context.Context, telegramID int64) error {
	err := r.db.WithContext(ctx).Model(&models.Student{}).
		Where("telegram_id = ?", telegramID).
		UpdateColumn("subscribed", true).Error
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to update student")
	}
	return nil
}

// IsAdmin checks the admins table
func (r *StudentRepository) IsAdmin(ctx context.Context, telegramID int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Admin{}).Where("telegram_id = ?", telegramID).Count(&count).Error; err != nil {
		return false, errors.Wrap(err, errors.ErrCodeInternalError, "failed to check admin")
	}
	return count > 0, nil
}

// EnsureAdmins inserts the given admin ids, ignoring ones already present
func (r *StudentRepository) EnsureAdmins(ctx context.Context, telegramIDs []int64) error {
	if len(telegramIDs) == 0 {
		return nil
	}
	admins := make([]models.Admin, 0, len(telegramIDs))
	for _, id := range telegramIDs {
		admins = append(admins, models.Admin{TelegramID: id, FullName: "Admin"})
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "telegram_id"}}, DoNothing: true}).
		Create(&admins).Error
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to seed admins")
	}
	return nil
}

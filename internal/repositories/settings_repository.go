package repositories

import (
	"context"
	stderrors "errors"

	"github.com/mroshb/quiz_bot/internal/models"
	"github.com/mroshb/quiz_bot/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetSetting returns the stored value, or def when the key is unset
func (r *SettingsRepository) GetSetting(ctx context.Context, key, def string) (string, error) {
	var s models.Setting
	result := r.db.WithContext(ctx).First(&s, "key = ?", key)

	if stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
		return def, nil
	}
	if result.Error != nil {
		return def, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get setting")
	}
	return s.Value, nil
}

// SetSetting inserts or replaces a setting
func (r *SettingsRepository) SetSetting(ctx context.Context, key, value string) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).
		Create(&models.Setting{Key: key, Value: value}).Error
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to save setting")
	}
	return nil
}

// ListChannels returns required channels in insertion order
func (r *SettingsRepository) ListChannels(ctx context.Context) ([]models.RequiredChannel, error) {
	var channels []models.RequiredChannel
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&channels).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list channels")
	}
	return channels, nil
}

// AddChannel adds a required channel; adding an existing one is a no-op
func (r *SettingsRepository) AddChannel(ctx context.Context, username string) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "username"}}, DoNothing: true}).
		Create(&models.RequiredChannel{Username: username}).Error
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to add channel")
	}
	return nil
}

func (r *SettingsRepository) RemoveChannel(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.RequiredChannel{}, id).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to remove channel")
	}
	return nil
}

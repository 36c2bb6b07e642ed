package repositories

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/mroshb/quiz_bot/internal/models"
	"github.com/mroshb/quiz_bot/pkg/errors"
	"gorm.io/gorm"
)

// RecentTestsLimit caps the admin test list
const RecentTestsLimit = 50

type TestRepository struct {
	db *gorm.DB
}

func NewTestRepository(db *gorm.DB) *TestRepository {
	return &TestRepository{db: db}
}

// CreateTest stores a new test. A taken code fails with ALREADY_EXISTS.
func (r *TestRepository) CreateTest(ctx context.Context, test *models.Test) error {
	if err := r.db.WithContext(ctx).Create(test).Error; err != nil {
		if isDuplicateError(err) {
			return errors.Wrap(err, errors.ErrCodeAlreadyExists, "test code already exists")
		}
		if stderrors.Is(err, gorm.ErrInvalidData) {
			return errors.Wrap(err, errors.ErrCodeValidation, "invalid test")
		}
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create test")
	}
	return nil
}

// FindActiveTest returns the active test with the given normalized code
func (r *TestRepository) FindActiveTest(ctx context.Context, code string) (*models.Test, error) {
	var test models.Test
	result := r.db.WithContext(ctx).
		Where("code = ? AND is_active = ?", code, true).
		First(&test)

	if stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, errors.New(errors.ErrCodeNotFound, "test not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get test")
	}

	return &test, nil
}

// FindTest returns a test by id regardless of its active flag
func (r *TestRepository) FindTest(ctx context.Context, id uint) (*models.Test, error) {
	var test models.Test
	result := r.db.WithContext(ctx).First(&test, id)

	if stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, errors.New(errors.ErrCodeNotFound, "test not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get test")
	}

	return &test, nil
}

// CodeExists checks whether any test, active or not, uses code
func (r *TestRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Test{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, errors.Wrap(err, errors.ErrCodeInternalError, "failed to check test code")
	}
	return count > 0, nil
}

// ListRecent returns the newest tests first
func (r *TestRepository) ListRecent(ctx context.Context, limit int) ([]models.Test, error) {
	var tests []models.Test
	result := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&tests)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to list tests")
	}
	return tests, nil
}

// ListActive returns every active test, newest first
func (r *TestRepository) ListActive(ctx context.Context) ([]models.Test, error) {
	var tests []models.Test
	result := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC, id DESC").
		Find(&tests)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to list active tests")
	}
	return tests, nil
}

// ToggleActive flips the active flag and returns the updated test
func (r *TestRepository) ToggleActive(ctx context.Context, id uint) (*models.Test, error) {
	var test models.Test
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&test, id).Error; err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New(errors.ErrCodeNotFound, "test not found")
			}
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to get test")
		}

		test.IsActive = !test.IsActive
		if err := tx.Model(&test).Update("is_active", test.IsActive).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to update test")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &test, nil
}

// DeleteTest removes a test together with its results
func (r *TestRepository) DeleteTest(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("test_id = ?", id).Delete(&models.Result{}).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to delete results")
		}

		result := tx.Delete(&models.Test{}, id)
		if result.Error != nil {
			return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to delete test")
		}
		if result.RowsAffected == 0 {
			return errors.New(errors.ErrCodeNotFound, "test not found")
		}
		return nil
	})
}

// isDuplicateError recognizes unique constraint violations across drivers
func isDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

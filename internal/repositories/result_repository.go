package repositories

import (
	"context"

	"github.com/mroshb/quiz_bot/internal/models"
	"github.com/mroshb/quiz_bot/internal/quiz"
	"github.com/mroshb/quiz_bot/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StatsLimit caps the participants listed per test
const StatsLimit = 50

type ResultRepository struct {
	db *gorm.DB
}

func NewResultRepository(db *gorm.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// Exists reports whether the participant already has a result for the test
func (r *ResultRepository) Exists(ctx context.Context, participantID int64, testID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Result{}).
		Where("participant_id = ? AND test_id = ?", participantID, testID).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeInternalError, "failed to check result")
	}
	return count > 0, nil
}

// InsertIfAbsent inserts the result unless one already exists for the same
// participant and test. The unique index decides; concurrent callers for the
// same pair see exactly one Committed.
func (r *ResultRepository) InsertIfAbsent(ctx context.Context, result *models.Result) (quiz.SubmitOutcome, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "participant_id"}, {Name: "test_id"}},
			DoNothing: true,
		}).
		Omit(clause.Associations).
		Create(result)

	if res.Error != nil {
		if isDuplicateError(res.Error) {
			return quiz.Duplicate, nil
		}
		return 0, errors.Wrap(res.Error, errors.ErrCodeInternalError, "failed to insert result")
	}
	if res.RowsAffected == 0 {
		return quiz.Duplicate, nil
	}
	return quiz.Committed, nil
}

// ListByParticipant returns the participant's results, newest first
func (r *ResultRepository) ListByParticipant(ctx context.Context, participantID int64) ([]models.ResultSummary, error) {
	var rows []models.ResultSummary
	err := r.db.WithContext(ctx).
		Table("results").
		Select("tests.title, tests.code, results.correct_count, results.total_questions, results.submitted_at").
		Joins("JOIN tests ON tests.id = results.test_id").
		Where("results.participant_id = ?", participantID).
		Order("results.submitted_at DESC, results.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list results")
	}
	return rows, nil
}

// StatsByTest returns up to limit rows ordered by correct count, and the
// total number of results for the test.
func (r *ResultRepository) StatsByTest(ctx context.Context, testID uint, limit int) ([]models.ResultStat, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Result{}).Where("test_id = ?", testID).Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to count results")
	}

	var rows []models.ResultStat
	err := r.db.WithContext(ctx).
		Table("results").
		Select("COALESCE(students.full_name, admins.full_name, '') AS full_name, results.correct_count, results.total_questions").
		Joins("LEFT JOIN students ON students.telegram_id = results.participant_id").
		Joins("LEFT JOIN admins ON admins.telegram_id = results.participant_id").
		Where("results.test_id = ?", testID).
		Order("results.correct_count DESC, results.submitted_at ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to load statistics")
	}
	return rows, total, nil
}

package repositories

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/mroshb/quiz_bot/internal/models"
	"github.com/mroshb/quiz_bot/internal/quiz"
	"github.com/mroshb/quiz_bot/pkg/errors"
	"github.com/mroshb/quiz_bot/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionRepository is a quiz.SessionStore backed by the quiz_sessions
// table, so attempts survive a restart.
type SessionRepository struct {
	db          *gorm.DB
	idleTimeout time.Duration
	now         func() time.Time
}

func NewSessionRepository(db *gorm.DB, idleTimeout time.Duration) *SessionRepository {
	return &SessionRepository{
		db:          db,
		idleTimeout: idleTimeout,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (r *SessionRepository) Get(ctx context.Context, participantID int64) (*quiz.Session, error) {
	var row models.StoredSession
	result := r.db.WithContext(ctx).First(&row, "participant_id = ?", participantID)

	if stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get session")
	}

	if r.expired(row.TouchedAt) {
		if err := r.Delete(ctx, participantID); err != nil {
			logger.Warn("Failed to drop idle session", "participant_id", participantID, "error", err)
		}
		return nil, nil
	}

	var s quiz.Session
	if err := json.Unmarshal([]byte(row.Payload), &s); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to decode session")
	}
	return &s, nil
}

func (r *SessionRepository) Put(ctx context.Context, session *quiz.Session) error {
	touched := session.LastActivityAt
	if touched.IsZero() {
		touched = r.now()
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to encode session")
	}

	row := models.StoredSession{
		ParticipantID: session.ParticipantID,
		AttemptID:     session.AttemptID,
		Payload:       string(payload),
		TouchedAt:     touched,
	}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "participant_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"attempt_id", "payload", "touched_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to save session")
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, participantID int64) error {
	err := r.db.WithContext(ctx).
		Where("participant_id = ?", participantID).
		Delete(&models.StoredSession{}).Error
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to delete session")
	}
	return nil
}

// PurgeIdle deletes every session idle longer than the timeout
func (r *SessionRepository) PurgeIdle(ctx context.Context) (int64, error) {
	if r.idleTimeout <= 0 {
		return 0, nil
	}
	cutoff := r.now().Add(-r.idleTimeout)
	result := r.db.WithContext(ctx).
		Where("touched_at < ?", cutoff).
		Delete(&models.StoredSession{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to purge sessions")
	}
	return result.RowsAffected, nil
}

// StartPurger runs PurgeIdle every interval until ctx is done
func (r *SessionRepository) StartPurger(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := r.PurgeIdle(ctx)
			if err != nil {
				logger.Error("Failed to purge idle sessions", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug("Purged idle sessions", "count", n)
			}
		}
	}
}

func (r *SessionRepository) expired(touched time.Time) bool {
	return r.idleTimeout > 0 && r.now().Sub(touched) > r.idleTimeout
}

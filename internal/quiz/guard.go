package quiz

import (
	"context"
	"time"

	"github.com/mroshb/quiz_bot/internal/models"
	"github.com/mroshb/quiz_bot/pkg/errors"
	"github.com/mroshb/quiz_bot/pkg/logger"
)

type SubmitOutcome int

const (
	Committed SubmitOutcome = iota + 1
	Duplicate
)

func (o SubmitOutcome) String() string {
	switch o {
	case Committed:
		return "committed"
	case Duplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// ResultStore persists results. InsertIfAbsent must be atomic with respect to
// the (participant, test) existence check, typically through a unique index.
type ResultStore interface {
	Exists(ctx context.Context, participantID int64, testID uint) (bool, error)
	InsertIfAbsent(ctx context.Context, result *models.Result) (SubmitOutcome, error)
}

// SubmissionGuard enforces at most one stored result per participant and
// test. The store's uniqueness constraint is the source of truth; Exists is
// only a fast read path for rejecting a second attempt early.
type SubmissionGuard struct {
	results ResultStore
	now     func() time.Time
}

func NewSubmissionGuard(results ResultStore) *SubmissionGuard {
	return &SubmissionGuard{
		results: results,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// AlreadySubmitted is the read path used before a session is created
func (g *SubmissionGuard) AlreadySubmitted(ctx context.Context, participantID int64, testID uint) (bool, error) {
	exists, err := g.results.Exists(ctx, participantID, testID)
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeInternalError, "failed to check existing result")
	}
	return exists, nil
}

// TrySubmit stores the scored attempt. A conflict on the uniqueness
// constraint is reported as Duplicate with a nil error; only infrastructure
// failures come back as errors.
func (g *SubmissionGuard) TrySubmit(ctx context.Context, participantID int64, testID uint, answers AnswerKey, score ScoreResult) (*models.Result, SubmitOutcome, error) {
	result := &models.Result{
		ParticipantID:  participantID,
		TestID:         testID,
		CorrectCount:   score.CorrectCount,
		TotalQuestions: score.Total,
		UserAnswers:    answers.String(),
		SubmittedAt:    g.now(),
	}

	outcome, err := g.results.InsertIfAbsent(ctx, result)
	if err != nil {
		// Stores that surface the constraint violation as an error instead
		// of an outcome still map to Duplicate.
		if errors.HasCode(err, errors.ErrCodeDuplicate) || errors.HasCode(err, errors.ErrCodeAlreadyExists) {
			outcome = Duplicate
		} else {
			return nil, 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to store result")
		}
	}

	switch outcome {
	case Committed:
		logger.Info("Result committed",
			"participant_id", participantID,
			"test_id", testID,
			"correct", score.CorrectCount,
			"total", score.Total,
		)
		return result, Committed, nil
	case Duplicate:
		logger.Warn("Duplicate result rejected", "participant_id", participantID, "test_id", testID)
		return nil, Duplicate, nil
	default:
		return nil, 0, errors.New(errors.ErrCodeInternalError, "result store returned no outcome")
	}
}

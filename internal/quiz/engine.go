package quiz

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mroshb/quiz_bot/internal/models"
	"github.com/mroshb/quiz_bot/pkg/errors"
	"github.com/mroshb/quiz_bot/pkg/logger"
	"github.com/mroshb/quiz_bot/pkg/utils"
)

// TestRegistry resolves tests. Both lookups return an error with code
// NOT_FOUND when the test does not exist; FindActiveTest also treats an
// inactive test as missing.
type TestRegistry interface {
	FindActiveTest(ctx context.Context, code string) (*models.Test, error)
	FindTest(ctx context.Context, id uint) (*models.Test, error)
}

// SessionStore holds at most one session per participant. Get returns nil
// with no error when there is none (including after idle expiry).
type SessionStore interface {
	Get(ctx context.Context, participantID int64) (*Session, error)
	Put(ctx context.Context, session *Session) error
	Delete(ctx context.Context, participantID int64) error
}

// Outcome is what a successful finish hands back to the caller
type Outcome struct {
	Test   *models.Test
	Result *models.Result
	Score  ScoreResult
}

// Engine is the per-participant state machine. It holds no per-participant
// state itself; callers must serialize events for one participant.
type Engine struct {
	tests    TestRegistry
	guard    *SubmissionGuard
	sessions SessionStore
	now      func() time.Time
}

func NewEngine(tests TestRegistry, results ResultStore, sessions SessionStore) *Engine {
	return &Engine{
		tests:    tests,
		guard:    NewSubmissionGuard(results),
		sessions: sessions,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Begin moves the participant to SelectingTest, discarding any unfinished
// attempt.
func (e *Engine) Begin(ctx context.Context, participantID int64) (Snapshot, error) {
	now := e.now()
	s := &Session{
		AttemptID:      uuid.NewString(),
		ParticipantID:  participantID,
		State:          StateSelectingTest,
		StartedAt:      now,
		LastActivityAt: now,
	}
	if err := e.replace(ctx, s); err != nil {
		return Snapshot{}, err
	}
	return s.Snapshot(), nil
}

// SelectTest starts an attempt on the active test with the given code.
func (e *Engine) SelectTest(ctx context.Context, participantID int64, code string, mode Mode) (Snapshot, error) {
	test, err := e.tests.FindActiveTest(ctx, utils.NormalizeCode(code))
	if err != nil {
		return Snapshot{}, e.lookupError(err)
	}
	return e.start(ctx, participantID, test, mode)
}

// SelectTestByID starts an attempt on a test picked from a list
func (e *Engine) SelectTestByID(ctx context.Context, participantID int64, testID uint, mode Mode) (Snapshot, error) {
	test, err := e.tests.FindTest(ctx, testID)
	if err != nil {
		return Snapshot{}, e.lookupError(err)
	}
	if !test.IsActive {
		return Snapshot{}, ErrTestNotFound
	}
	return e.start(ctx, participantID, test, mode)
}

func (e *Engine) start(ctx context.Context, participantID int64, test *models.Test, mode Mode) (Snapshot, error) {
	submitted, err := e.guard.AlreadySubmitted(ctx, participantID, test.ID)
	if err != nil {
		return Snapshot{}, err
	}
	if submitted {
		// the participant has nothing left to do in this conversation
		e.discard(ctx, participantID)
		return Snapshot{}, ErrAlreadySubmitted
	}
	if mode == "" {
		mode = ModeInteractive
	}

	now := e.now()
	s := &Session{
		AttemptID:       uuid.NewString(),
		ParticipantID:   participantID,
		State:           StateInProgress,
		Mode:            mode,
		TestID:          test.ID,
		TestCode:        test.Code,
		TestTitle:       test.Title,
		QuestionCount:   test.QuestionCount,
		CurrentQuestion: 1,
		Answers:         make(map[int]string),
		StartedAt:       now,
		LastActivityAt:  now,
	}
	if err := e.replace(ctx, s); err != nil {
		return Snapshot{}, err
	}

	logger.Debug("Attempt started",
		"participant_id", participantID,
		"test_id", test.ID,
		"attempt_id", s.AttemptID,
		"mode", mode,
	)
	return s.Snapshot(), nil
}

// replace stores s, dropping whatever session the participant had before
func (e *Engine) replace(ctx context.Context, s *Session) error {
	prev, err := e.sessions.Get(ctx, s.ParticipantID)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to load session")
	}
	if prev != nil && prev.State == StateInProgress {
		logger.Info("Discarding unfinished attempt",
			"participant_id", s.ParticipantID,
			"test_id", prev.TestID,
			"answered", len(prev.Answers),
		)
	}
	if err := e.sessions.Put(ctx, s); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to save session")
	}
	return nil
}

// Choose records an answer without moving the current question
func (e *Engine) Choose(ctx context.Context, participantID int64, question int, letter string) (Snapshot, error) {
	s, err := e.active(ctx, participantID)
	if err != nil {
		return Snapshot{}, err
	}
	if err := s.choose(question, letter); err != nil {
		return s.Snapshot(), err
	}
	if err := e.save(ctx, s); err != nil {
		return Snapshot{}, err
	}
	return s.Snapshot(), nil
}

// Navigate moves the current question, clamped to the test's range
func (e *Engine) Navigate(ctx context.Context, participantID int64, dir Direction) (Snapshot, error) {
	s, err := e.active(ctx, participantID)
	if err != nil {
		return Snapshot{}, err
	}
	if err := s.navigate(dir); err != nil {
		return s.Snapshot(), err
	}
	if err := e.save(ctx, s); err != nil {
		return Snapshot{}, err
	}
	return s.Snapshot(), nil
}

// Snapshot returns the current attempt without changing it
func (e *Engine) Snapshot(ctx context.Context, participantID int64) (Snapshot, error) {
	s, err := e.load(ctx, participantID)
	if err != nil {
		return Snapshot{}, err
	}
	return s.Snapshot(), nil
}

// Finish scores the per-question answers. An incomplete attempt is left
// untouched.
func (e *Engine) Finish(ctx context.Context, participantID int64) (*Outcome, error) {
	s, err := e.active(ctx, participantID)
	if err != nil {
		return nil, err
	}
	if !s.complete() {
		return nil, &IncompleteError{Answered: len(s.Answers), Expected: s.QuestionCount}
	}
	return e.submit(ctx, s, s.submittedKey())
}

// SubmitText scores a whole answer key sent as one message
func (e *Engine) SubmitText(ctx context.Context, participantID int64, raw string) (*Outcome, error) {
	s, err := e.active(ctx, participantID)
	if err != nil {
		return nil, err
	}
	answers := ParseKey(raw)
	if answers.Len() == 0 {
		return nil, ErrMalformed
	}
	if answers.Len() != s.QuestionCount {
		return nil, &IncompleteError{Answered: answers.Len(), Expected: s.QuestionCount}
	}
	return e.submit(ctx, s, answers)
}

func (e *Engine) submit(ctx context.Context, s *Session, answers AnswerKey) (*Outcome, error) {
	log := logger.With("participant_id", s.ParticipantID, "test_id", s.TestID, "mode", s.Mode)

	test, err := e.tests.FindTest(ctx, s.TestID)
	if err != nil {
		lerr := e.lookupError(err)
		if errors.HasCode(lerr, errors.ErrCodeTestNotFound) {
			log.Infow("Test removed during attempt")
			e.discard(ctx, s.ParticipantID)
		}
		return nil, lerr
	}

	score := Score(answers, ParseKey(test.CorrectKeys))

	result, outcome, err := e.guard.TrySubmit(ctx, s.ParticipantID, test.ID, answers, score)
	if err != nil {
		// session kept so the dispatcher can retry
		log.Errorw("Failed to store result", "error", err)
		return nil, err
	}

	s.State = StateFinished
	e.discard(ctx, s.ParticipantID)

	if outcome == Duplicate {
		log.Infow("Duplicate submission rejected")
		return nil, errors.Wrap(ErrDuplicate, errors.ErrCodeAlreadySubmitted, "test already submitted")
	}
	log.Infow("Attempt submitted", "correct", score.CorrectCount, "total", score.Total)
	return &Outcome{Test: test, Result: result, Score: score}, nil
}

// Cancel drops the participant's session. It never touches results and fails
// with ErrSessionExpired when there is no session to cancel.
func (e *Engine) Cancel(ctx context.Context, participantID int64) error {
	s, err := e.sessions.Get(ctx, participantID)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to load session")
	}
	if s == nil {
		return ErrSessionExpired
	}
	if err := e.sessions.Delete(ctx, participantID); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to delete session")
	}
	logger.Debug("Session cancelled", "participant_id", participantID)
	return nil
}

func (e *Engine) load(ctx context.Context, participantID int64) (*Session, error) {
	s, err := e.sessions.Get(ctx, participantID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to load session")
	}
	if s == nil || s.State.Terminal() {
		return nil, ErrSessionExpired
	}
	return s, nil
}

// active loads a session that has a test in progress
func (e *Engine) active(ctx context.Context, participantID int64) (*Session, error) {
	s, err := e.load(ctx, participantID)
	if err != nil {
		return nil, err
	}
	if s.State != StateInProgress {
		return nil, ErrSessionExpired
	}
	return s, nil
}

func (e *Engine) save(ctx context.Context, s *Session) error {
	s.LastActivityAt = e.now()
	if err := e.sessions.Put(ctx, s); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to save session")
	}
	return nil
}

func (e *Engine) discard(ctx context.Context, participantID int64) {
	if err := e.sessions.Delete(ctx, participantID); err != nil {
		logger.Error("Failed to delete session", "participant_id", participantID, "error", err)
	}
}

func (e *Engine) lookupError(err error) error {
	if errors.HasCode(err, errors.ErrCodeNotFound) || errors.HasCode(err, errors.ErrCodeTestNotFound) {
		return ErrTestNotFound
	}
	return errors.Wrap(err, errors.ErrCodeInternalError, "failed to resolve test")
}

package services

import (
	"context"
	"fmt"

	"github.com/mroshb/quiz_bot/internal/config"
	"github.com/mroshb/quiz_bot/internal/models"
	"github.com/mroshb/quiz_bot/internal/repositories"
	"github.com/mroshb/quiz_bot/internal/security"
	"github.com/mroshb/quiz_bot/pkg/errors"
	"github.com/mroshb/quiz_bot/pkg/logger"
)

// MembershipChecker asks the chat platform whether a user has joined a
// channel
type MembershipChecker interface {
	IsChannelMember(ctx context.Context, channel string, userID int64) (bool, error)
}

type StudentService struct {
	students *repositories.StudentRepository
	results  *repositories.ResultRepository
	tests    *repositories.TestRepository
	settings *repositories.SettingsRepository
	cfg      *config.Config
}

func NewStudentService(
	students *repositories.StudentRepository,
	results *repositories.ResultRepository,
	tests *repositories.TestRepository,
	settings *repositories.SettingsRepository,
	cfg *config.Config,
) *StudentService {
	return &StudentService{
		students: students,
		results:  results,
		tests:    tests,
		settings: settings,
		cfg:      cfg,
	}
}

// IsAdmin checks the configured ids first, then the admins table
func (s *StudentService) IsAdmin(ctx context.Context, telegramID int64) bool {
	if s.cfg.IsAdmin(telegramID) {
		return true
	}
	ok, err := s.students.IsAdmin(ctx, telegramID)
	if err != nil {
		logger.Error("Failed to check admin", "user_id", telegramID, "error", err)
		return false
	}
	return ok
}

// GetStudent returns nil without error when the user is not registered
func (s *StudentService) GetStudent(ctx context.Context, telegramID int64) (*models.Student, error) {
	student, err := s.students.GetStudentByTelegramID(ctx, telegramID)
	if errors.HasCode(err, errors.ErrCodeNotFound) {
		return nil, nil
	}
	return student, err
}

// CanTakeTests reports whether the user is registered or an admin
func (s *StudentService) CanTakeTests(ctx context.Context, telegramID int64) (bool, error) {
	if s.IsAdmin(ctx, telegramID) {
		return true, nil
	}
	student, err := s.GetStudent(ctx, telegramID)
	if err != nil {
		return false, err
	}
	return student != nil, nil
}

// Register stores a student with a sanitized full name
func (s *StudentService) Register(ctx context.Context, telegramID int64, rawName string) (*models.Student, error) {
	name := security.SanitizeName(rawName)
	if len([]rune(name)) < models.MinNameLength {
		return nil, errors.New(errors.ErrCodeValidation, fmt.Sprintf("name must be at least %d characters", models.MinNameLength))
	}

	student := &models.Student{TelegramID: telegramID, FullName: name}
	if err := s.students.CreateStudent(ctx, student); err != nil {
		return nil, err
	}

	logger.Info("Student registered", "user_id", telegramID)
	return student, nil
}

func (s *StudentService) MyResults(ctx context.Context, telegramID int64) ([]models.ResultSummary, error) {
	return s.results.ListByParticipant(ctx, telegramID)
}

func (s *StudentService) ActiveTests(ctx context.Context) ([]models.Test, error) {
	return s.tests.ListActive(ctx)
}

// RequiredChannels returns the channel list, or the single fallback channel
// when the list is empty. An empty result means no subscription is required.
func (s *StudentService) RequiredChannels(ctx context.Context) ([]string, error) {
	channels, err := s.settings.ListChannels(ctx)
	if err != nil {
		return nil, err
	}
	if len(channels) > 0 {
		names := make([]string, 0, len(channels))
		for _, ch := range channels {
			names = append(names, ch.Username)
		}
		return names, nil
	}

	fallback, err := s.settings.GetSetting(ctx, models.SettingChannelUsername, s.cfg.ChannelUsername)
	if err != nil {
		return nil, err
	}
	if fallback == "" {
		fallback = s.cfg.ChannelUsername
	}
	if fallback == "" {
		return nil, nil
	}
	return []string{fallback}, nil
}

// CheckSubscription verifies membership in every required channel. A lookup
// failure counts as not subscribed. The missing channels are returned.
func (s *StudentService) CheckSubscription(ctx context.Context, checker MembershipChecker, telegramID int64) ([]string, error) {
	channels, err := s.RequiredChannels(ctx)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, ch := range channels {
		ok, err := checker.IsChannelMember(ctx, ch, telegramID)
		if err != nil {
			logger.Warn("Channel membership check failed", "channel", ch, "user_id", telegramID, "error", err)
		}
		if !ok {
			missing = append(missing, ch)
		}
	}

	if len(missing) == 0 && len(channels) > 0 {
		if err := s.students.MarkSubscribed(ctx, telegramID); err != nil {
			logger.Warn("Failed to mark subscribed", "user_id", telegramID, "error", err)
		}
	}
	return missing, nil
}

package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/mroshb/quiz_bot/internal/config"
	"github.com/mroshb/quiz_bot/internal/models"
	"github.com/mroshb/quiz_bot/internal/quiz"
	"github.com/mroshb/quiz_bot/internal/repositories"
	"github.com/mroshb/quiz_bot/internal/security"
	"github.com/mroshb/quiz_bot/pkg/errors"
	"github.com/mroshb/quiz_bot/pkg/logger"
	"github.com/mroshb/quiz_bot/pkg/utils"
)

const (
	MinTitleLength = 3
	MinCodeLength  = 3
	MaxCodeLength  = 64

	generatedCodeLength = 6
	generateAttempts    = 5
)

// AutoCodeInputs are replies that ask for a generated test code
var AutoCodeInputs = []string{"-", "AUTO"}

// TestStats is the statistics block for one active test
type TestStats struct {
	Test  models.Test
	Rows  []models.ResultStat
	Total int64
}

// More returns how many participants were left out of Rows
func (s TestStats) More() int64 {
	return s.Total - int64(len(s.Rows))
}

type AdminService struct {
	tests    *repositories.TestRepository
	results  *repositories.ResultRepository
	settings *repositories.SettingsRepository
	cfg      *config.Config
}

func NewAdminService(
	tests *repositories.TestRepository,
	results *repositories.ResultRepository,
	settings *repositories.SettingsRepository,
	cfg *config.Config,
) *AdminService {
	return &AdminService{
		tests:    tests,
		results:  results,
		settings: settings,
		cfg:      cfg,
	}
}

// ValidateTitle returns the cleaned title
func (s *AdminService) ValidateTitle(raw string) (string, error) {
	title := security.SanitizeName(raw)
	if len([]rune(title)) < MinTitleLength {
		return "", errors.New(errors.ErrCodeValidation, fmt.Sprintf("title must be at least %d characters", MinTitleLength))
	}
	return title, nil
}

// PrepareCode normalizes a code typed by an admin and checks it is free.
// "-" or "auto" generates a fresh code.
func (s *AdminService) PrepareCode(ctx context.Context, raw string) (string, error) {
	code := utils.NormalizeCode(raw)
	for _, auto := range AutoCodeInputs {
		if code == auto {
			return s.generateCode(ctx)
		}
	}

	if len([]rune(code)) < MinCodeLength || len(code) > MaxCodeLength || strings.ContainsAny(code, " \t\n") {
		return "", errors.New(errors.ErrCodeValidation, fmt.Sprintf("code must be %d-%d characters without spaces", MinCodeLength, MaxCodeLength))
	}

	exists, err := s.tests.CodeExists(ctx, code)
	if err != nil {
		return "", err
	}
	if exists {
		return "", errors.New(errors.ErrCodeAlreadyExists, "a test with this code already exists")
	}
	return code, nil
}

func (s *AdminService) generateCode(ctx context.Context) (string, error) {
	for i := 0; i < generateAttempts; i++ {
		code := utils.GenerateTestCode(generatedCodeLength)
		if code == "" {
			return "", errors.New(errors.ErrCodeInternalError, "failed to generate code")
		}
		exists, err := s.tests.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", errors.New(errors.ErrCodeInternalError, "could not generate a free code")
}

// CreateTestFromText parses an answer key typed by the admin and stores the test
func (s *AdminService) CreateTestFromText(ctx context.Context, adminID int64, title, code, keyText string) (*models.Test, error) {
	return s.CreateTest(ctx, adminID, title, code, quiz.ParseKey(keyText))
}

// CreateTest stores an active test with the given canonical key. The question
// count is the number of distinct question numbers in the key.
func (s *AdminService) CreateTest(ctx context.Context, adminID int64, title, code string, key quiz.AnswerKey) (*models.Test, error) {
	if key.Len() == 0 {
		return nil, quiz.ErrMalformed
	}

	test := &models.Test{
		Code:          code,
		Title:         title,
		CorrectKeys:   key.String(),
		QuestionCount: key.Len(),
		CreatedBy:     adminID,
		IsActive:      true,
	}
	if err := s.tests.CreateTest(ctx, test); err != nil {
		return nil, err
	}

	logger.Info("Test created",
		"test_id", test.ID,
		"code", test.Code,
		"questions", test.QuestionCount,
		"admin_id", adminID,
	)
	return test, nil
}

func (s *AdminService) ListTests(ctx context.Context) ([]models.Test, error) {
	return s.tests.ListRecent(ctx, repositories.RecentTestsLimit)
}

func (s *AdminService) ToggleTest(ctx context.Context, testID uint) (*models.Test, error) {
	test, err := s.tests.ToggleActive(ctx, testID)
	if err != nil {
		return nil, err
	}
	logger.Info("Test toggled", "test_id", testID, "active", test.IsActive)
	return test, nil
}

func (s *AdminService) DeleteTest(ctx context.Context, testID uint) error {
	if err := s.tests.DeleteTest(ctx, testID); err != nil {
		return err
	}
	logger.Info("Test deleted", "test_id", testID)
	return nil
}

// Statistics returns per-test rankings for every active test
func (s *AdminService) Statistics(ctx context.Context) ([]TestStats, error) {
	tests, err := s.tests.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	stats := make([]TestStats, 0, len(tests))
	for _, t := range tests {
		rows, total, err := s.results.StatsByTest(ctx, t.ID, repositories.StatsLimit)
		if err != nil {
			return nil, err
		}
		stats = append(stats, TestStats{Test: t, Rows: rows, Total: total})
	}
	return stats, nil
}

func (s *AdminService) ListChannels(ctx context.Context) ([]models.RequiredChannel, error) {
	return s.settings.ListChannels(ctx)
}

// AddChannel accepts "@name" or a t.me link and stores "@name"
func (s *AdminService) AddChannel(ctx context.Context, raw string) (string, error) {
	username, ok := security.NormalizeChannelUsername(raw)
	if !ok {
		return "", errors.New(errors.ErrCodeValidation, "invalid channel username")
	}
	if err := s.settings.AddChannel(ctx, username); err != nil {
		return "", err
	}
	logger.Info("Required channel added", "channel", username)
	return username, nil
}

func (s *AdminService) RemoveChannel(ctx context.Context, id uint) error {
	if err := s.settings.RemoveChannel(ctx, id); err != nil {
		return err
	}
	logger.Info("Required channel removed", "channel_id", id)
	return nil
}

// FallbackChannel returns the stored fallback channel, or the configured one
func (s *AdminService) FallbackChannel(ctx context.Context) (string, error) {
	value, err := s.settings.GetSetting(ctx, models.SettingChannelUsername, s.cfg.ChannelUsername)
	if err != nil {
		return "", err
	}
	if value == "" {
		value = s.cfg.ChannelUsername
	}
	return value, nil
}

// SetFallbackChannel sets the single channel used when the list is empty.
// An empty input clears it.
func (s *AdminService) SetFallbackChannel(ctx context.Context, raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", s.settings.SetSetting(ctx, models.SettingChannelUsername, "")
	}
	username, ok := security.NormalizeChannelUsername(raw)
	if !ok {
		return "", errors.New(errors.ErrCodeValidation, "invalid channel username")
	}
	if err := s.settings.SetSetting(ctx, models.SettingChannelUsername, username); err != nil {
		return "", err
	}
	return username, nil
}

package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mroshb/quiz_bot/internal/config"
	"github.com/mroshb/quiz_bot/internal/database"
	"github.com/mroshb/quiz_bot/internal/models"
	"github.com/mroshb/quiz_bot/internal/quiz"
	"github.com/mroshb/quiz_bot/internal/repositories"
	"github.com/mroshb/quiz_bot/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	admin    *AdminService
	student  *StudentService
	results  *repositories.ResultRepository
	settings *repositories.SettingsRepository
	cfg      *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		DBDriver:        config.DriverSQLite,
		SQLitePath:      filepath.Join(t.TempDir(), "services.db"),
		AppEnv:          "test",
		AdminIDs:        []int64{1},
		ChannelUsername: "@default_channel",
	}
	db, err := database.Connect(cfg)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	require.NoError(t, database.SeedAdmins(db, cfg))

	tests := repositories.NewTestRepository(db)
	results := repositories.NewResultRepository(db)
	settings := repositories.NewSettingsRepository(db)
	students := repositories.NewStudentRepository(db)

	return &testEnv{
		admin:    NewAdminService(tests, results, settings, cfg),
		student:  NewStudentService(students, results, tests, settings, cfg),
		results:  results,
		settings: settings,
		cfg:      cfg,
	}
}

type fakeChecker struct {
	members map[string]bool
	err     error
}

func (f *fakeChecker) IsChannelMember(_ context.Context, channel string, _ int64) (bool, error) {
	return f.members[channel], f.err
}

func TestAdminService_CreateTest(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	title, err := env.admin.ValidateTitle("  <i>Ona tili</i> 9-sinf ")
	require.NoError(t, err)
	assert.Equal(t, "Ona tili 9-sinf", title)

	_, err = env.admin.ValidateTitle("ab")
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))

	code, err := env.admin.PrepareCode(ctx, " ot9-2025 ")
	require.NoError(t, err)
	assert.Equal(t, "OT9-2025", code)

	test, err := env.admin.CreateTestFromText(ctx, 1, title, code, "1-a 2-B 3.c 2-d")
	require.NoError(t, err)
	assert.Equal(t, 3, test.QuestionCount)
	assert.Equal(t, "1-A 2-D 3-C", test.CorrectKeys)
	assert.True(t, test.IsActive)

	_, err = env.admin.PrepareCode(ctx, "ot9-2025")
	assert.True(t, errors.HasCode(err, errors.ErrCodeAlreadyExists))

	_, err = env.admin.PrepareCode(ctx, "ab")
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))

	_, err = env.admin.CreateTestFromText(ctx, 1, title, "EMPTY", "no keys here")
	assert.ErrorIs(t, err, quiz.ErrMalformed)

	generated, err := env.admin.PrepareCode(ctx, "auto")
	require.NoError(t, err)
	assert.Len(t, generated, generatedCodeLength)
}

func TestAdminService_ManageAndStatistics(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	math, err := env.admin.CreateTestFromText(ctx, 1, "Math", "MATH", "1-A 2-B")
	require.NoError(t, err)
	hist, err := env.admin.CreateTestFromText(ctx, 1, "History", "HIST", "1-C")
	require.NoError(t, err)

	_, err = env.student.Register(ctx, 100, "Ali Valiyev")
	require.NoError(t, err)
	_, err = env.results.InsertIfAbsent(ctx, &models.Result{ParticipantID: 100, TestID: math.ID, CorrectCount: 2, TotalQuestions: 2, UserAnswers: "1-A 2-B"})
	require.NoError(t, err)

	toggled, err := env.admin.ToggleTest(ctx, hist.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	stats, err := env.admin.Statistics(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "MATH", stats[0].Test.Code)
	require.Len(t, stats[0].Rows, 1)
	assert.Equal(t, "Ali Valiyev", stats[0].Rows[0].FullName)
	assert.EqualValues(t, 0, stats[0].More())

	listed, err := env.admin.ListTests(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	require.NoError(t, env.admin.DeleteTest(ctx, math.ID))
	mine, err := env.student.MyResults(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestStudentService_Register(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	s, err := env.student.GetStudent(ctx, 100)
	require.NoError(t, err)
	assert.Nil(t, s)

	_, err = env.student.Register(ctx, 100, " <b>Al</b> ")
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))

	s, err = env.student.Register(ctx, 100, "Sardor   Karimov")
	require.NoError(t, err)
	assert.Equal(t, "Sardor Karimov", s.FullName)

	_, err = env.student.Register(ctx, 100, "Sardor Karimov")
	assert.True(t, errors.HasCode(err, errors.ErrCodeAlreadyExists))

	ok, err := env.student.CanTakeTests(ctx, 100)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.student.CanTakeTests(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok, "admins may take tests without registering")

	ok, err = env.student.CanTakeTests(ctx, 555)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStudentService_RequiredChannels(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	channels, err := env.student.RequiredChannels(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"@default_channel"}, channels)

	_, err = env.admin.SetFallbackChannel(ctx, "https://t.me/override_channel")
	require.NoError(t, err)
	channels, err = env.student.RequiredChannels(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"@override_channel"}, channels)

	_, err = env.admin.AddChannel(ctx, "t.me/first_channel")
	require.NoError(t, err)
	_, err = env.admin.AddChannel(ctx, "@second_channel")
	require.NoError(t, err)
	_, err = env.admin.AddChannel(ctx, "not a channel")
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))

	channels, err = env.student.RequiredChannels(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"@first_channel", "@second_channel"}, channels)

	_, err = env.student.Register(ctx, 100, "Ali Valiyev")
	require.NoError(t, err)

	checker := &fakeChecker{members: map[string]bool{"@first_channel": true}}
	missing, err := env.student.CheckSubscription(ctx, checker, 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"@second_channel"}, missing)

	checker.members["@second_channel"] = true
	missing, err = env.student.CheckSubscription(ctx, checker, 100)
	require.NoError(t, err)
	assert.Empty(t, missing)

	s, err := env.student.GetStudent(ctx, 100)
	require.NoError(t, err)
	assert.True(t, s.Subscribed)
}

func TestStudentService_NoChannelRequirement(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.cfg.ChannelUsername = ""

	missing, err := env.student.CheckSubscription(ctx, &fakeChecker{}, 100)
	require.NoError(t, err)
	assert.Empty(t, missing)
}

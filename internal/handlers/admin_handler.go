package handlers

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mroshb/quiz_bot/internal/ingest"
	"github.com/mroshb/quiz_bot/internal/models"
	"github.com/mroshb/quiz_bot/internal/security"
	"github.com/mroshb/quiz_bot/internal/services"
	apperrors "github.com/mroshb/quiz_bot/pkg/errors"
	"github.com/mroshb/quiz_bot/pkg/logger"
)

const (
	dataTitle = "title"
	dataCode  = "code"
)

func (h *HandlerManager) requireAdmin(ctx context.Context, userID int64, bot BotInterface) bool {
	if h.StudentSvc.IsAdmin(ctx, userID) {
		return true
	}
	bot.SendMessage(userID, MsgAdminOnly, nil)
	return false
}

// ShowAdminPanel shows the admin inline menu
func (h *HandlerManager) ShowAdminPanel(userID int64, session *UserSession, bot BotInterface) {
	ctx, cancel := h.context()
	defer cancel()

	if !h.requireAdmin(ctx, userID, bot) {
		return
	}
	session.Reset()
	bot.SendMessage(userID, "🛠 <b>Admin panel</b>", AdminPanelKeyboard())
}

func (h *HandlerManager) ShowAdminHelp(userID int64, bot BotInterface) {
	ctx, cancel := h.context()
	defer cancel()

	if !h.requireAdmin(ctx, userID, bot) {
		return
	}
	bot.SendMessage(userID, MsgAdminHelp, AdminPanelKeyboard())
}

// StartCreateTest begins the title -> code -> key prompts
func (h *HandlerManager) StartCreateTest(userID int64, session *UserSession, bot BotInterface) {
	ctx, cancel := h.context()
	defer cancel()

	if !h.requireAdmin(ctx, userID, bot) {
		return
	}
	session.Reset()
	session.State = StateAdminTitle
	bot.SendMessage(userID, MsgAskTitle, CancelInlineKeyboard())
}

// HandleAdminInput consumes a typed reply to one of the admin prompts
func (h *HandlerManager) HandleAdminInput(message *tgbotapi.Message, session *UserSession, bot BotInterface) {
	userID := message.From.ID

	ctx, cancel := h.context()
	defer cancel()

	if !h.requireAdmin(ctx, userID, bot) {
		session.Reset()
		return
	}

	switch session.State {
	case StateAdminTitle:
		h.handleTitle(ctx, userID, message.Text, session, bot)
	case StateAdminCode:
		h.handleCode(ctx, userID, message.Text, session, bot)
	case StateAdminKeys:
		if message.Document != nil {
			h.handleKeyDocument(ctx, userID, message.Document, session, bot)
			return
		}
		h.createTest(ctx, userID, session, bot, func(title, code string) (*models.Test, error) {
			return h.AdminSvc.CreateTestFromText(ctx, userID, title, code, message.Text)
		})
	case StateAdminChannelAdd:
		h.handleChannelAdd(ctx, userID, message.Text, session, bot)
	case StateAdminChannelFallback:
		h.handleChannelFallback(ctx, userID, message.Text, session, bot)
	default:
		logger.Warn("Unknown admin state", "state", session.State, "user_id", userID)
		session.Reset()
	}
}

func (h *HandlerManager) handleTitle(ctx context.Context, userID int64, text string, session *UserSession, bot BotInterface) {
	title, err := h.AdminSvc.ValidateTitle(text)
	if err != nil {
		bot.SendMessage(userID, fmt.Sprintf("❌ The title must be at least %d characters.", services.MinTitleLength), CancelInlineKeyboard())
		return
	}
	session.Data[dataTitle] = title
	session.State = StateAdminCode
	bot.SendMessage(userID, MsgAskCode, CancelInlineKeyboard())
}

func (h *HandlerManager) handleCode(ctx context.Context, userID int64, text string, session *UserSession, bot BotInterface) {
	code, err := h.AdminSvc.PrepareCode(ctx, text)
	switch {
	case apperrors.HasCode(err, apperrors.ErrCodeAlreadyExists):
		bot.SendMessage(userID, "❌ A test with this code already exists. Send another code.", CancelInlineKeyboard())
		return
	case apperrors.HasCode(err, apperrors.ErrCodeValidation):
		bot.SendMessage(userID, fmt.Sprintf("❌ The code must be %d-%d characters without spaces.", services.MinCodeLength, services.MaxCodeLength), CancelInlineKeyboard())
		return
	case err != nil:
		logger.Error("Failed to prepare test code", "admin_id", userID, "error", err)
		bot.SendMessage(userID, MsgGenericError, CancelInlineKeyboard())
		return
	}

	session.Data[dataCode] = code
	session.State = StateAdminKeys
	bot.SendMessage(userID, fmt.Sprintf(MsgAskKeys, security.EscapeHTML(code)), CancelInlineKeyboard())
}

func (h *HandlerManager) handleKeyDocument(ctx context.Context, userID int64, doc *tgbotapi.Document, session *UserSession, bot BotInterface) {
	if !security.ValidateFileType(doc.FileName, security.AllowedKeyFileTypes) {
		bot.SendMessage(userID, MsgUploadBadType, CancelInlineKeyboard())
		return
	}
	if !security.ValidateFileSize(int64(doc.FileSize), h.Config.UploadMaxSize) {
		bot.SendMessage(userID, MsgUploadTooLarge, CancelInlineKeyboard())
		return
	}

	data, err := bot.DownloadFile(doc.FileID, h.Config.UploadMaxSize)
	if err != nil {
		logger.Error("Failed to download key file", "admin_id", userID, "error", err)
		bot.SendMessage(userID, MsgGenericError, CancelInlineKeyboard())
		return
	}

	key, err := ingest.ReadWorkbook(bytes.NewReader(data))
	if err != nil {
		logger.Warn("Unreadable key file", "admin_id", userID, "file", doc.FileName, "error", err)
		bot.SendMessage(userID, MsgUploadNotKey, CancelInlineKeyboard())
		return
	}

	h.createTest(ctx, userID, session, bot, func(title, code string) (*models.Test, error) {
		return h.AdminSvc.CreateTest(ctx, userID, title, code, key)
	})
}

func (h *HandlerManager) createTest(ctx context.Context, userID int64, session *UserSession, bot BotInterface, create func(title, code string) (*models.Test, error)) {
	title, _ := session.Data[dataTitle].(string)
	code, _ := session.Data[dataCode].(string)
	if title == "" || code == "" {
		session.Reset()
		bot.SendMessage(userID, MsgGenericError, nil)
		return
	}

	test, err := create(title, code)
	switch {
	case apperrors.HasCode(err, apperrors.ErrCodeMalformed):
		bot.SendMessage(userID, MsgMalformed, CancelInlineKeyboard())
		return
	case apperrors.HasCode(err, apperrors.ErrCodeAlreadyExists):
		// the code was taken since it was checked
		session.State = StateAdminCode
		bot.SendMessage(userID, "❌ A test with this code already exists. Send another code.", CancelInlineKeyboard())
		return
	case err != nil:
		logger.Error("Failed to create test", "admin_id", userID, "error", err)
		bot.SendMessage(userID, MsgGenericError, CancelInlineKeyboard())
		return
	}

	session.Reset()
	bot.SendMessage(userID, fmt.Sprintf(MsgTestCreated, security.EscapeHTML(test.Title), security.EscapeHTML(test.Code), test.QuestionCount), MainMenuKeyboard(true))
}

// ShowTestManagement lists the latest tests with toggle and delete buttons
func (h *HandlerManager) ShowTestManagement(userID int64, bot BotInterface) {
	ctx, cancel := h.context()
	defer cancel()

	if !h.requireAdmin(ctx, userID, bot) {
		return
	}

	tests, err := h.AdminSvc.ListTests(ctx)
	if err != nil {
		logger.Error("Failed to list tests", "admin_id", userID, "error", err)
		bot.SendMessage(userID, MsgGenericError, nil)
		return
	}
	bot.SendMessage(userID, FormatTestList(tests), ManageTestsKeyboard(tests))
}

func (h *HandlerManager) HandleToggleTest(query *tgbotapi.CallbackQuery, testID uint, bot BotInterface) {
	h.manageTest(query, bot, func(ctx context.Context) (string, error) {
		test, err := h.AdminSvc.ToggleTest(ctx, testID)
		if err != nil {
			return "", err
		}
		if test.IsActive {
			return test.Code + " enabled", nil
		}
		return test.Code + " disabled", nil
	})
}

func (h *HandlerManager) HandleDeleteTest(query *tgbotapi.CallbackQuery, testID uint, bot BotInterface) {
	h.manageTest(query, bot, func(ctx context.Context) (string, error) {
		return alertText(MsgTestDeleted), h.AdminSvc.DeleteTest(ctx, testID)
	})
}

// manageTest runs one test management action and refreshes the list
func (h *HandlerManager) manageTest(query *tgbotapi.CallbackQuery, bot BotInterface, action func(ctx context.Context) (string, error)) {
	userID := query.From.ID

	ctx, cancel := h.context()
	defer cancel()

	if !h.StudentSvc.IsAdmin(ctx, userID) {
		bot.AnswerCallbackQuery(query.ID, alertText(MsgAdminOnly), true)
		return
	}

	notice, err := action(ctx)
	switch {
	case apperrors.HasCode(err, apperrors.ErrCodeNotFound):
		bot.AnswerCallbackQuery(query.ID, "Test not found", true)
	case err != nil:
		logger.Error("Test management failed", "admin_id", userID, "error", err)
		bot.AnswerCallbackQuery(query.ID, alertText(MsgGenericError), true)
		return
	default:
		bot.AnswerCallbackQuery(query.ID, notice, false)
	}

	tests, err := h.AdminSvc.ListTests(ctx)
	if err != nil {
		logger.Error("Failed to list tests", "admin_id", userID, "error", err)
		return
	}
	if query.Message != nil {
		bot.EditMessage(userID, query.Message.MessageID, FormatTestList(tests), ManageTestsKeyboard(tests))
	}
}

// ShowStatistics sends per-test rankings for every active test
func (h *HandlerManager) ShowStatistics(userID int64, bot BotInterface) {
	ctx, cancel := h.context()
	defer cancel()

	if !h.requireAdmin(ctx, userID, bot) {
		return
	}

	stats, err := h.AdminSvc.Statistics(ctx)
	if err != nil {
		logger.Error("Failed to build statistics", "admin_id", userID, "error", err)
		bot.SendMessage(userID, MsgGenericError, nil)
		return
	}
	bot.SendMessage(userID, FormatStatistics(stats), nil)
	logger.Info("Admin viewed stats", "admin_id", userID)
}

// ShowChannels lists the required channels with remove buttons
func (h *HandlerManager) ShowChannels(userID int64, bot BotInterface) {
	ctx, cancel := h.context()
	defer cancel()

	if !h.requireAdmin(ctx, userID, bot) {
		return
	}
	text, kb, err := h.channelsView(ctx)
	if err != nil {
		logger.Error("Failed to list channels", "admin_id", userID, "error", err)
		bot.SendMessage(userID, MsgGenericError, nil)
		return
	}
	bot.SendMessage(userID, text, kb)
}

func (h *HandlerManager) channelsView(ctx context.Context) (string, tgbotapi.InlineKeyboardMarkup, error) {
	channels, err := h.AdminSvc.ListChannels(ctx)
	if err != nil {
		return "", tgbotapi.InlineKeyboardMarkup{}, err
	}
	fallback, err := h.AdminSvc.FallbackChannel(ctx)
	if err != nil {
		return "", tgbotapi.InlineKeyboardMarkup{}, err
	}
	return FormatChannels(channels, fallback), ChannelsKeyboard(channels), nil
}

func (h *HandlerManager) StartAddChannel(userID int64, session *UserSession, bot BotInterface) {
	h.startChannelPrompt(userID, session, StateAdminChannelAdd, MsgAskChannel, bot)
}

func (h *HandlerManager) StartSetFallback(userID int64, session *UserSession, bot BotInterface) {
	h.startChannelPrompt(userID, session, StateAdminChannelFallback, MsgAskFallback, bot)
}

func (h *HandlerManager) startChannelPrompt(userID int64, session *UserSession, state, prompt string, bot BotInterface) {
	ctx, cancel := h.context()
	defer cancel()

	if !h.requireAdmin(ctx, userID, bot) {
		return
	}
	session.Reset()
	session.State = state
	bot.SendMessage(userID, prompt, CancelInlineKeyboard())
}

func (h *HandlerManager) handleChannelAdd(ctx context.Context, userID int64, text string, session *UserSession, bot BotInterface) {
	username, err := h.AdminSvc.AddChannel(ctx, text)
	switch {
	case apperrors.HasCode(err, apperrors.ErrCodeValidation):
		bot.SendMessage(userID, MsgInvalidChannel, CancelInlineKeyboard())
		return
	case err != nil:
		logger.Error("Failed to add channel", "admin_id", userID, "error", err)
		bot.SendMessage(userID, MsgGenericError, CancelInlineKeyboard())
		return
	}

	session.Reset()
	bot.SendMessage(userID, fmt.Sprintf(MsgChannelAdded, security.EscapeHTML(username)), nil)
}

func (h *HandlerManager) handleChannelFallback(ctx context.Context, userID int64, text string, session *UserSession, bot BotInterface) {
	if strings.TrimSpace(text) == "-" {
		text = ""
	}

	username, err := h.AdminSvc.SetFallbackChannel(ctx, text)
	switch {
	case apperrors.HasCode(err, apperrors.ErrCodeValidation):
		bot.SendMessage(userID, MsgInvalidChannel, CancelInlineKeyboard())
		return
	case err != nil:
		logger.Error("Failed to set fallback channel", "admin_id", userID, "error", err)
		bot.SendMessage(userID, MsgGenericError, CancelInlineKeyboard())
		return
	}

	session.Reset()
	if username == "" {
		bot.SendMessage(userID, MsgFallbackCleared, nil)
		return
	}
	bot.SendMessage(userID, fmt.Sprintf(MsgFallbackSet, security.EscapeHTML(username)), nil)
}

func (h *HandlerManager) HandleRemoveChannel(query *tgbotapi.CallbackQuery, channelID uint, bot BotInterface) {
	userID := query.From.ID

	ctx, cancel := h.context()
	defer cancel()

	if !h.StudentSvc.IsAdmin(ctx, userID) {
		bot.AnswerCallbackQuery(query.ID, alertText(MsgAdminOnly), true)
		return
	}

	if err := h.AdminSvc.RemoveChannel(ctx, channelID); err != nil && !apperrors.HasCode(err, apperrors.ErrCodeNotFound) {
		logger.Error("Failed to remove channel", "admin_id", userID, "error", err)
		bot.AnswerCallbackQuery(query.ID, alertText(MsgGenericError), true)
		return
	}
	bot.AnswerCallbackQuery(query.ID, alertText(MsgChannelRemoved), false)

	text, kb, err := h.channelsView(ctx)
	if err != nil {
		logger.Error("Failed to list channels", "admin_id", userID, "error", err)
		return
	}
	if query.Message != nil {
		bot.EditMessage(userID, query.Message.MessageID, text, kb)
	}
}

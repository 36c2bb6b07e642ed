package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mroshb/quiz_bot/internal/models"
	"github.com/mroshb/quiz_bot/internal/quiz"
	"github.com/mroshb/quiz_bot/internal/security"
	apperrors "github.com/mroshb/quiz_bot/pkg/errors"
	"github.com/mroshb/quiz_bot/pkg/logger"
)

// HandleStart resets every conversation and test state and either greets a
// known user or asks a new one for their name
func (h *HandlerManager) HandleStart(userID int64, session *UserSession, bot BotInterface) {
	session.Reset()

	ctx, cancel := h.context()
	defer cancel()

	if err := h.Engine.Cancel(ctx, userID); err != nil && !errors.Is(err, quiz.ErrSessionExpired) {
		logger.Error("Failed to cancel attempt on start", "user_id", userID, "error", err)
	}

	if h.StudentSvc.IsAdmin(ctx, userID) {
		bot.SendMessage(userID, MsgWelcomeAdmin, MainMenuKeyboard(true))
		return
	}

	student, err := h.StudentSvc.GetStudent(ctx, userID)
	if err != nil {
		logger.Error("Failed to load student", "user_id", userID, "error", err)
		bot.SendMessage(userID, MsgGenericError, nil)
		return
	}
	if student != nil {
		bot.SendMessage(userID, fmt.Sprintf(MsgWelcomeBack, security.EscapeHTML(student.FullName)), MainMenuKeyboard(false))
		return
	}

	session.State = StateRegisterName
	bot.SendMessage(userID, MsgWelcome, tgbotapi.NewRemoveKeyboard(true))
}

func (h *HandlerManager) HandleRegisterName(message *tgbotapi.Message, session *UserSession, bot BotInterface) {
	userID := message.From.ID

	ctx, cancel := h.context()
	defer cancel()

	student, err := h.StudentSvc.Register(ctx, userID, message.Text)
	switch {
	case apperrors.HasCode(err, apperrors.ErrCodeValidation):
		bot.SendMessage(userID, fmt.Sprintf(MsgNameTooShort, models.MinNameLength), nil)
		return
	case apperrors.HasCode(err, apperrors.ErrCodeAlreadyExists):
		session.Reset()
		bot.SendMessage(userID, MsgMainMenu, MainMenuKeyboard(false))
		return
	case err != nil:
		logger.Error("Failed to register student", "user_id", userID, "error", err)
		bot.SendMessage(userID, MsgGenericError, nil)
		return
	}

	session.Reset()
	bot.SendMessage(userID, fmt.Sprintf(MsgRegistered, security.EscapeHTML(student.FullName)), MainMenuKeyboard(false))
}

// HandleCancel drops the conversation state and any unfinished attempt
func (h *HandlerManager) HandleCancel(userID int64, session *UserSession, bot BotInterface) {
	session.Reset()

	ctx, cancel := h.context()
	defer cancel()

	if err := h.Engine.Cancel(ctx, userID); err != nil && !errors.Is(err, quiz.ErrSessionExpired) {
		logger.Error("Failed to cancel attempt", "user_id", userID, "error", err)
	}
	h.sendMainMenu(ctx, userID, MsgCancel, bot)
}

func (h *HandlerManager) ShowHelp(userID int64, bot BotInterface) {
	ctx, cancel := h.context()
	defer cancel()
	h.sendMainMenu(ctx, userID, MsgHelp, bot)
}

// ShowMainMenu answers input nothing else claimed
func (h *HandlerManager) ShowMainMenu(userID int64, bot BotInterface) {
	ctx, cancel := h.context()
	defer cancel()

	ok, err := h.StudentSvc.CanTakeTests(ctx, userID)
	if err == nil && !ok {
		bot.SendMessage(userID, MsgNotRegistered, nil)
		return
	}
	h.sendMainMenu(ctx, userID, MsgUnknownInput, bot)
}

func (h *HandlerManager) ShowMyResults(userID int64, bot BotInterface) {
	ctx, cancel := h.context()
	defer cancel()

	results, err := h.StudentSvc.MyResults(ctx, userID)
	if err != nil {
		logger.Error("Failed to list results", "user_id", userID, "error", err)
		bot.SendMessage(userID, MsgGenericError, nil)
		return
	}
	bot.SendMessage(userID, FormatMyResults(results), nil)
}

// HandleCheckSubscription re-verifies channel membership after the user
// pressed the check button
func (h *HandlerManager) HandleCheckSubscription(query *tgbotapi.CallbackQuery, bot BotInterface) {
	userID := query.From.ID

	ctx, cancel := h.context()
	defer cancel()

	missing, err := h.StudentSvc.CheckSubscription(ctx, bot, userID)
	if err != nil {
		logger.Error("Failed to check subscription", "user_id", userID, "error", err)
		bot.AnswerCallbackQuery(query.ID, MsgGenericError, true)
		return
	}
	if len(missing) > 0 {
		bot.AnswerCallbackQuery(query.ID, MsgStillMissing, true)
		return
	}

	bot.AnswerCallbackQuery(query.ID, MsgSubscribed, false)
	h.showTestPicker(ctx, userID, bot)
}

// ensureCanTakeTests checks registration and channel membership, telling
// the user what is missing
func (h *HandlerManager) ensureCanTakeTests(ctx context.Context, userID int64, bot BotInterface) bool {
	ok, err := h.StudentSvc.CanTakeTests(ctx, userID)
	if err != nil {
		logger.Error("Failed to check registration", "user_id", userID, "error", err)
		bot.SendMessage(userID, MsgGenericError, nil)
		return false
	}
	if !ok {
		bot.SendMessage(userID, MsgNotRegistered, nil)
		return false
	}

	missing, err := h.StudentSvc.CheckSubscription(ctx, bot, userID)
	if err != nil {
		logger.Error("Failed to check subscription", "user_id", userID, "error", err)
		bot.SendMessage(userID, MsgGenericError, nil)
		return false
	}
	if len(missing) > 0 {
		list := make([]string, 0, len(missing))
		for _, ch := range missing {
			list = append(list, "• "+security.EscapeHTML(ch))
		}
		bot.SendMessage(userID, fmt.Sprintf(MsgSubscribe, strings.Join(list, "\n")), SubscriptionKeyboard(missing))
		return false
	}
	return true
}

func (h *HandlerManager) sendMainMenu(ctx context.Context, userID int64, text string, bot BotInterface) {
	bot.SendMessage(userID, text, MainMenuKeyboard(h.StudentSvc.IsAdmin(ctx, userID)))
}

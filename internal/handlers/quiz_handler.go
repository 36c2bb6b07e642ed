package handlers

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mroshb/quiz_bot/internal/quiz"
	"github.com/mroshb/quiz_bot/internal/security"
	"github.com/mroshb/quiz_bot/pkg/logger"
)

// maxListedTests caps the buttons in the test picker
const maxListedTests = 30

// StartTakeTest checks the user may take tests and asks for a code
func (h *HandlerManager) StartTakeTest(userID int64, session *UserSession, bot BotInterface) {
	session.Reset()

	ctx, cancel := h.context()
	defer cancel()

	if !h.ensureCanTakeTests(ctx, userID, bot) {
		return
	}
	h.showTestPicker(ctx, userID, bot)
}

func (h *HandlerManager) showTestPicker(ctx context.Context, userID int64, bot BotInterface) {
	if _, err := h.Engine.Begin(ctx, userID); err != nil {
		logger.Error("Failed to begin test selection", "user_id", userID, "error", err)
		bot.SendMessage(userID, MsgGenericError, nil)
		return
	}

	tests, err := h.StudentSvc.ActiveTests(ctx)
	if err != nil {
		logger.Error("Failed to list active tests", "user_id", userID, "error", err)
	}
	if len(tests) > maxListedTests {
		tests = tests[:maxListedTests]
	}

	text := MsgEnterCode
	if len(tests) == 0 {
		text = MsgEnterCodeNoList
	}
	bot.SendMessage(userID, text, TestListKeyboard(tests))
}

// HandleQuizText routes typed text to the user's test attempt: a code while
// selecting, or the whole answer list in text mode. It returns false when
// the user has no attempt so the caller can fall back to the menu.
func (h *HandlerManager) HandleQuizText(message *tgbotapi.Message, bot BotInterface) bool {
	userID := message.From.ID

	ctx, cancel := h.context()
	defer cancel()

	snap, err := h.Engine.Snapshot(ctx, userID)
	if errors.Is(err, quiz.ErrSessionExpired) {
		return false
	}
	if err != nil {
		logger.Error("Failed to load attempt", "user_id", userID, "error", err)
		bot.SendMessage(userID, MsgGenericError, nil)
		return true
	}

	switch snap.State {
	case quiz.StateSelectingTest:
		snap, err = h.Engine.SelectTest(ctx, userID, message.Text, quiz.ModeText)
		if errors.Is(err, quiz.ErrAlreadySubmitted) {
			h.sendMainMenu(ctx, userID, MsgAlreadyTaken, bot)
			return true
		}
		if err != nil {
			bot.SendMessage(userID, h.quizErrorText(userID, err), nil)
			return true
		}
		bot.SendMessage(userID, FormatTextPrompt(snap), TestListKeyboard(nil))

	case quiz.StateInProgress:
		if snap.Mode != quiz.ModeText {
			bot.SendMessage(userID, MsgUseButtons, nil)
			return true
		}
		outcome, err := h.Engine.SubmitText(ctx, userID, message.Text)
		if err != nil {
			bot.SendMessage(userID, h.quizErrorText(userID, err), nil)
			return true
		}
		h.sendMainMenu(ctx, userID, FormatResult(outcome), bot)

	default:
		return false
	}
	return true
}

// HandleSelectTest starts an interactive attempt on a test picked from the list
func (h *HandlerManager) HandleSelectTest(query *tgbotapi.CallbackQuery, testID uint, bot BotInterface) {
	userID := query.From.ID

	ctx, cancel := h.context()
	defer cancel()

	if !h.ensureCanTakeTests(ctx, userID, bot) {
		bot.AnswerCallbackQuery(query.ID, "", false)
		return
	}

	snap, err := h.Engine.SelectTestByID(ctx, userID, testID, quiz.ModeInteractive)
	if err != nil {
		bot.AnswerCallbackQuery(query.ID, alertText(h.quizErrorText(userID, err)), true)
		return
	}

	bot.AnswerCallbackQuery(query.ID, "", false)
	h.renderQuestion(query, snap, bot)
}

func (h *HandlerManager) HandleChoose(query *tgbotapi.CallbackQuery, question int, letter string, bot BotInterface) {
	userID := query.From.ID

	ctx, cancel := h.context()
	defer cancel()

	snap, err := h.Engine.Choose(ctx, userID, question, letter)
	if err != nil {
		bot.AnswerCallbackQuery(query.ID, alertText(h.quizErrorText(userID, err)), true)
		return
	}

	bot.AnswerCallbackQuery(query.ID, fmt.Sprintf("%d: %s", question, snap.Selection), false)
	h.renderQuestion(query, snap, bot)
}

func (h *HandlerManager) HandleNavigate(query *tgbotapi.CallbackQuery, dir quiz.Direction, bot BotInterface) {
	userID := query.From.ID

	ctx, cancel := h.context()
	defer cancel()

	before, err := h.Engine.Snapshot(ctx, userID)
	if err != nil {
		bot.AnswerCallbackQuery(query.ID, alertText(h.quizErrorText(userID, err)), true)
		return
	}

	snap, err := h.Engine.Navigate(ctx, userID, dir)
	if err != nil {
		bot.AnswerCallbackQuery(query.ID, alertText(h.quizErrorText(userID, err)), true)
		return
	}

	bot.AnswerCallbackQuery(query.ID, "", false)
	// editing to identical content is rejected by Telegram
	if snap.CurrentQuestion != before.CurrentQuestion {
		h.renderQuestion(query, snap, bot)
	}
}

func (h *HandlerManager) HandleFinish(query *tgbotapi.CallbackQuery, bot BotInterface) {
	userID := query.From.ID

	ctx, cancel := h.context()
	defer cancel()

	outcome, err := h.Engine.Finish(ctx, userID)
	var incomplete *quiz.IncompleteError
	if errors.As(err, &incomplete) {
		bot.AnswerCallbackQuery(query.ID, fmt.Sprintf(MsgFinishIncomplete, incomplete.Answered, incomplete.Expected), true)
		return
	}
	if err != nil {
		bot.AnswerCallbackQuery(query.ID, alertText(h.quizErrorText(userID, err)), true)
		if query.Message != nil && isTerminal(err) {
			bot.EditMessage(userID, query.Message.MessageID, h.quizErrorText(userID, err), nil)
		}
		return
	}

	bot.AnswerCallbackQuery(query.ID, "", false)
	if query.Message != nil {
		bot.EditMessage(userID, query.Message.MessageID, FormatResult(outcome), nil)
	} else {
		bot.SendMessage(userID, FormatResult(outcome), nil)
	}
}

// HandleQuitAttempt cancels the attempt from its inline keyboard
func (h *HandlerManager) HandleQuitAttempt(query *tgbotapi.CallbackQuery, session *UserSession, bot BotInterface) {
	bot.AnswerCallbackQuery(query.ID, "", false)
	if query.Message != nil {
		bot.EditMessage(query.From.ID, query.Message.MessageID, MsgCancel, nil)
	}
	h.HandleCancel(query.From.ID, session, bot)
}

func (h *HandlerManager) renderQuestion(query *tgbotapi.CallbackQuery, snap quiz.Snapshot, bot BotInterface) {
	userID := query.From.ID
	if query.Message == nil {
		bot.SendMessage(userID, FormatQuestion(snap), QuestionKeyboard(snap))
		return
	}
	bot.EditMessage(userID, query.Message.MessageID, FormatQuestion(snap), QuestionKeyboard(snap))
}

// quizErrorText maps engine failures to what the user should do next
func (h *HandlerManager) quizErrorText(userID int64, err error) string {
	var incomplete *quiz.IncompleteError
	switch {
	case errors.As(err, &incomplete):
		return fmt.Sprintf(MsgIncomplete, incomplete.Answered, incomplete.Expected)
	case errors.Is(err, quiz.ErrTestNotFound):
		return MsgTestNotFound
	case errors.Is(err, quiz.ErrAlreadySubmitted), errors.Is(err, quiz.ErrDuplicate):
		return MsgAlreadyTaken
	case errors.Is(err, quiz.ErrMalformed):
		return MsgMalformed
	case errors.Is(err, quiz.ErrSessionExpired):
		return MsgSessionExpired
	case errors.Is(err, quiz.ErrInvalidChoice):
		return MsgGenericError
	default:
		logger.Error("Test attempt failed", "user_id", userID, "error", err)
		return MsgGenericError
	}
}

// alertText turns an HTML message into plain text for a callback alert
func alertText(text string) string {
	return security.SanitizeName(text)
}

// isTerminal reports failures after which the attempt is gone
func isTerminal(err error) bool {
	return errors.Is(err, quiz.ErrAlreadySubmitted) ||
		errors.Is(err, quiz.ErrDuplicate) ||
		errors.Is(err, quiz.ErrSessionExpired) ||
		errors.Is(err, quiz.ErrTestNotFound)
}

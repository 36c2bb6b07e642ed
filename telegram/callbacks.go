package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mroshb/quiz_bot/internal/handlers"
	"github.com/mroshb/quiz_bot/internal/quiz"
	"github.com/mroshb/quiz_bot/pkg/logger"
)

func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	userID := query.From.ID
	data := query.Data

	logger.Debug("Callback query", "data", data, "user_id", userID)

	if !b.allow(userID, query.ID) {
		return
	}

	if b.handleQuizCallbacks(query, data) {
		return
	}
	if b.handleAdminCallbacks(query, data) {
		return
	}

	logger.Warn("Unknown callback", "data", data, "user_id", userID)
	b.AnswerCallbackQuery(query.ID, "", false)
}

// handleQuizCallbacks handles the test picker and question keyboard
func (b *Bot) handleQuizCallbacks(query *tgbotapi.CallbackQuery, data string) bool {
	userID := query.From.ID

	switch data {
	case handlers.CbNoop:
		b.AnswerCallbackQuery(query.ID, "", false)
		return true

	case handlers.CbFinish:
		b.handlers.HandleFinish(query, b)
		return true

	case handlers.CbQuit, handlers.CbCancel:
		b.handlers.HandleQuitAttempt(query, b.getSession(userID), b)
		return true

	case handlers.CbCheckSub:
		b.handlers.HandleCheckSubscription(query, b)
		return true
	}

	// Answer a question
	if strings.HasPrefix(data, handlers.CbChoose) {
		var question int
		var letter string
		if _, err := fmt.Sscanf(strings.Replace(data, "_", " ", -1), "qc %d %s", &question, &letter); err != nil {
			b.AnswerCallbackQuery(query.ID, "", false)
			return true
		}
		b.handlers.HandleChoose(query, question, letter, b)
		return true
	}

	// Previous / next question
	if strings.HasPrefix(data, handlers.CbNavigate) {
		dir := quiz.Direction(strings.TrimPrefix(data, handlers.CbNavigate))
		b.handlers.HandleNavigate(query, dir, b)
		return true
	}

	// Test picked from the list
	if strings.HasPrefix(data, handlers.CbSelect) {
		var testID uint
		fmt.Sscanf(data, handlers.CbSelect+"%d", &testID)
		b.handlers.HandleSelectTest(query, testID, b)
		return true
	}

	return false
}

// handleAdminCallbacks handles the admin panel buttons
func (b *Bot) handleAdminCallbacks(query *tgbotapi.CallbackQuery, data string) bool {
	userID := query.From.ID

	if !strings.HasPrefix(data, "adm_") {
		return false
	}

	switch data {
	case handlers.CbAdminNew:
		b.AnswerCallbackQuery(query.ID, "", false)
		b.handlers.StartCreateTest(userID, b.getSession(userID), b)
		return true

	case handlers.CbAdminTests:
		b.AnswerCallbackQuery(query.ID, "", false)
		b.handlers.ShowTestManagement(userID, b)
		return true

	case handlers.CbAdminStats:
		b.AnswerCallbackQuery(query.ID, "", false)
		b.handlers.ShowStatistics(userID, b)
		return true

	case handlers.CbAdminChannels:
		b.AnswerCallbackQuery(query.ID, "", false)
		b.handlers.ShowChannels(userID, b)
		return true

	case handlers.CbAdminHelp:
		b.AnswerCallbackQuery(query.ID, "", false)
		b.handlers.ShowAdminHelp(userID, b)
		return true

	case handlers.CbChannelAdd:
		b.AnswerCallbackQuery(query.ID, "", false)
		b.handlers.StartAddChannel(userID, b.getSession(userID), b)
		return true

	case handlers.CbChannelFB:
		b.AnswerCallbackQuery(query.ID, "", false)
		b.handlers.StartSetFallback(userID, b.getSession(userID), b)
		return true
	}

	// Toggle test
	if strings.HasPrefix(data, handlers.CbAdminToggle) {
		var testID uint
		fmt.Sscanf(data, handlers.CbAdminToggle+"%d", &testID)
		b.handlers.HandleToggleTest(query, testID, b)
		return true
	}

	// Delete test
	if strings.HasPrefix(data, handlers.CbAdminDelete) {
		var testID uint
		fmt.Sscanf(data, handlers.CbAdminDelete+"%d", &testID)
		b.handlers.HandleDeleteTest(query, testID, b)
		return true
	}

	// Remove channel
	if strings.HasPrefix(data, handlers.CbChannelRemove) {
		var channelID uint
		fmt.Sscanf(data, handlers.CbChannelRemove+"%d", &channelID)
		b.handlers.HandleRemoveChannel(query, channelID, b)
		return true
	}

	return false
}

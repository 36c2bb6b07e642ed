package handlers

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mroshb/quiz_bot/internal/models"
	"github.com/mroshb/quiz_bot/internal/quiz"
)

// Callback data prefixes. Telegram limits callback data to 64 bytes.
const (
	CbChoose   = "qc_" // qc_<question>_<letter>
	CbNavigate = "qn_" // qn_prev, qn_next
	CbFinish   = "q_finish"
	CbQuit     = "q_cancel"
	CbNoop     = "q_noop"
	CbSelect   = "qsel_" // qsel_<test id>
	CbCheckSub = "sub_check"
	CbCancel   = "cancel"

	CbAdminNew      = "adm_new"
	CbAdminTests    = "adm_tests"
	CbAdminStats    = "adm_stats"
	CbAdminChannels = "adm_channels"
	CbAdminHelp     = "adm_help"
	CbAdminToggle   = "adm_toggle_" // adm_toggle_<test id>
	CbAdminDelete   = "adm_del_"    // adm_del_<test id>
	CbChannelAdd    = "adm_ch_add"
	CbChannelRemove = "adm_ch_rm_" // adm_ch_rm_<channel id>
	CbChannelFB     = "adm_ch_fb"
)

// MainMenuKeyboard creates the main menu keyboard
func MainMenuKeyboard(isAdmin bool) tgbotapi.ReplyKeyboardMarkup {
	rows := [][]tgbotapi.KeyboardButton{
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(BtnTakeTest),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(BtnMyResults),
			tgbotapi.NewKeyboardButton(BtnHelp),
		),
	}

	if isAdmin {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(BtnAdminPanel),
		))
	}

	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	return kb
}

// CancelInlineKeyboard creates a single cancel button for typed prompts
func CancelInlineKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(BtnCancel, CbCancel),
		),
	)
}

// QuestionKeyboard shows the options for the current question with the
// chosen one in brackets, navigation, and finish once every question has an
// answer
func QuestionKeyboard(snap quiz.Snapshot) tgbotapi.InlineKeyboardMarkup {
	var options []tgbotapi.InlineKeyboardButton
	for _, l := range quiz.Letters {
		letter := string(l)
		label := letter
		if letter == snap.Selection {
			label = "[" + letter + "]"
		}
		options = append(options, tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("%s%d_%s", CbChoose, snap.CurrentQuestion, letter)))
	}

	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(options...),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️", CbNavigate+string(quiz.DirectionPrev)),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d/%d", snap.CurrentQuestion, snap.TotalQuestions), CbNoop),
			tgbotapi.NewInlineKeyboardButtonData("➡️", CbNavigate+string(quiz.DirectionNext)),
		),
	}

	if snap.CanFinish() {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏁 Finish", CbFinish),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(BtnCancel, CbQuit),
	))

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// TestListKeyboard creates one button per active test
func TestListKeyboard(tests []models.Test) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, t := range tests {
		label := fmt.Sprintf("%s (%d)", t.Title, t.QuestionCount)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("%s%d", CbSelect, t.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(BtnCancel, CbQuit),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// SubscriptionKeyboard links every missing channel plus a re-check button
func SubscriptionKeyboard(channels []string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, ch := range channels {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("📢 "+ch, "https://t.me/"+strings.TrimPrefix(ch, "@")),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ I've joined", CbCheckSub),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// AdminPanelKeyboard creates the admin inline menu
func AdminPanelKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ New test", CbAdminNew),
			tgbotapi.NewInlineKeyboardButtonData("📚 Tests", CbAdminTests),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Statistics", CbAdminStats),
			tgbotapi.NewInlineKeyboardButtonData("📢 Channels", CbAdminChannels),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("ℹ️ Help", CbAdminHelp),
		),
	)
}

// ManageTestsKeyboard creates toggle/delete buttons for each test
func ManageTestsKeyboard(tests []models.Test) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, t := range tests {
		toggle := "🔴 Disable"
		if !t.IsActive {
			toggle = "🟢 Enable"
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%s %s", toggle, t.Code), fmt.Sprintf("%s%d", CbAdminToggle, t.ID)),
			tgbotapi.NewInlineKeyboardButtonData("🗑 "+t.Code, fmt.Sprintf("%s%d", CbAdminDelete, t.ID)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// ChannelsKeyboard creates the channel management menu
func ChannelsKeyboard(channels []models.RequiredChannel) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, ch := range channels {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 "+ch.Username, fmt.Sprintf("%s%d", CbChannelRemove, ch.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("➕ Add channel", CbChannelAdd),
		tgbotapi.NewInlineKeyboardButtonData("🔁 Fallback", CbChannelFB),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mroshb/quiz_bot/pkg/logger"
)

// BotCommands is the command list shown in the Telegram client menu
func BotCommands() []tgbotapi.BotCommand {
	return []tgbotapi.BotCommand{
		{Command: "start", Description: "Register or restart"},
		{Command: "help", Description: "How to take a test"},
		{Command: "cancel", Description: "Stop the current action"},
		{Command: "admin", Description: "Admin panel"},
	}
}

func (b *Bot) registerCommands() {
	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(BotCommands()...)); err != nil {
		logger.Warn("Failed to register bot commands", "error", err)
	}
}

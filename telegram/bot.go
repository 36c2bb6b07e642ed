package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mroshb/quiz_bot/internal/config"
	"github.com/mroshb/quiz_bot/internal/handlers"
	"github.com/mroshb/quiz_bot/internal/middleware"
	"github.com/mroshb/quiz_bot/internal/quiz"
	"github.com/mroshb/quiz_bot/internal/repositories"
	"github.com/mroshb/quiz_bot/internal/services"
	"github.com/mroshb/quiz_bot/pkg/logger"
	"github.com/mroshb/quiz_bot/pkg/utils"
	"gorm.io/gorm"
)

const (
	maxMessageLength = 4096
	workerBuffer     = 100

	rateLimitWindow = time.Minute
	cleanupInterval = 5 * time.Minute
	downloadTimeout = 30 * time.Second
)

type Bot struct {
	api      *tgbotapi.BotAPI
	config   *config.Config
	handlers *handlers.HandlerManager
	limiter  *middleware.RateLimiter
	http     *http.Client

	// User sessions for conversation state
	sessions map[int64]*handlers.UserSession
	mu       sync.RWMutex

	// Worker pool for parallel processing
	workerChans []chan tgbotapi.Update

	cancel context.CancelFunc
}

func InitBot(cfg *config.Config, db *gorm.DB) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	if cfg.AppEnv == "development" {
		api.Debug = true
	}

	logger.Info("Authorized on account", "username", api.Self.UserName)

	ctx, cancel := context.WithCancel(context.Background())

	// Initialize repositories
	testRepo := repositories.NewTestRepository(db)
	resultRepo := repositories.NewResultRepository(db)
	studentRepo := repositories.NewStudentRepository(db)
	settingsRepo := repositories.NewSettingsRepository(db)

	engine := quiz.NewEngine(testRepo, resultRepo, newSessionStore(ctx, cfg, db))

	adminSvc := services.NewAdminService(testRepo, resultRepo, settingsRepo, cfg)
	studentSvc := services.NewStudentService(studentRepo, resultRepo, testRepo, settingsRepo, cfg)

	// Initialize handler manager
	handlerMgr := handlers.NewHandlerManager(cfg, engine, adminSvc, studentSvc)

	bot := &Bot{
		api:         api,
		config:      cfg,
		handlers:    handlerMgr,
		limiter:     middleware.NewRateLimiter(cfg.RateLimitPerUser, rateLimitWindow),
		http:        &http.Client{Timeout: downloadTimeout},
		sessions:    make(map[int64]*handlers.UserSession),
		workerChans: make([]chan tgbotapi.Update, cfg.WorkerCount),
		cancel:      cancel,
	}

	go bot.limiter.StartCleanup(ctx, cleanupInterval)

	// Start workers
	for i := range bot.workerChans {
		bot.workerChans[i] = make(chan tgbotapi.Update, workerBuffer)
		go bot.startWorker(bot.workerChans[i])
	}

	bot.registerCommands()

	// Start update listener
	go bot.startUpdateListener(ctx)

	return bot, nil
}

// newSessionStore picks where test attempts live between updates and starts
// its idle sweeper
func newSessionStore(ctx context.Context, cfg *config.Config, db *gorm.DB) quiz.SessionStore {
	idle := cfg.GetSessionIdleTimeout()

	if cfg.SessionStore == config.SessionStoreDB {
		store := repositories.NewSessionRepository(db, idle)
		if idle > 0 {
			go store.StartPurger(ctx, idle)
		}
		logger.Info("Using database session store", "idle_timeout", idle)
		return store
	}

	store := quiz.NewMemorySessionStore(idle)
	if idle > 0 {
		go store.StartReaper(ctx, idle)
	}
	logger.Info("Using in-memory session store", "idle_timeout", idle)
	return store
}

func (b *Bot) startUpdateListener(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	for {
		logger.Info("Starting update listener...")
		updates := b.api.GetUpdatesChan(u)

		for update := range updates {
			// Find userID for hashing
			var userID int64
			if update.Message != nil && update.Message.From != nil {
				userID = update.Message.From.ID
			} else if update.CallbackQuery != nil {
				userID = update.CallbackQuery.From.ID
			}

			if userID == 0 {
				continue
			}

			// Hashed dispatch to workers to ensure per-user ordered processing
			workerIdx := userID % int64(len(b.workerChans))
			if workerIdx < 0 {
				workerIdx = -workerIdx
			}
			b.workerChans[workerIdx] <- update
		}

		if ctx.Err() != nil {
			return
		}
		logger.Warn("Update channel closed. Restarting in 5 seconds...")
		time.Sleep(5 * time.Second)
	}
}

func (b *Bot) startWorker(ch chan tgbotapi.Update) {
	for update := range ch {
		b.handleUpdate(update)
	}
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic in handleUpdate", "error", r)
		}
	}()

	if update.Message != nil {
		b.handleMessage(update.Message)
	} else if update.CallbackQuery != nil {
		b.handleCallbackQuery(update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(message *tgbotapi.Message) {
	userID := message.From.ID

	// Only private chats carry participant events
	if message.Chat == nil || !message.Chat.IsPrivate() {
		return
	}

	logger.Debug("Received message",
		"user_id", userID,
		"text", message.Text,
		"has_document", message.Document != nil,
	)

	if !b.allow(userID, "") {
		return
	}

	session := b.getSession(userID)

	// Handle commands
	if message.IsCommand() {
		b.handleCommand(message, session)
		return
	}

	if message.Text == handlers.BtnCancel {
		b.handlers.HandleCancel(userID, session, b)
		return
	}

	// Handle registration flow (highest priority state)
	if session.State == handlers.StateRegisterName {
		b.handlers.HandleRegisterName(message, session, b)
		return
	}

	// Handle button presses (allows switching context)
	if message.Text != "" && b.handleButtonPress(message, session) {
		return
	}

	if strings.HasPrefix(session.State, "admin_") {
		b.handlers.HandleAdminInput(message, session, b)
		return
	}

	if message.Text != "" && b.handlers.HandleQuizText(message, b) {
		return
	}

	b.handlers.ShowMainMenu(userID, b)
}

func (b *Bot) handleCommand(message *tgbotapi.Message, session *handlers.UserSession) {
	userID := message.From.ID

	switch message.Command() {
	case "start":
		b.handlers.HandleStart(userID, session, b)

	case "help":
		b.handlers.ShowHelp(userID, b)

	case "cancel":
		b.handlers.HandleCancel(userID, session, b)

	case "admin":
		b.handlers.ShowAdminPanel(userID, session, b)

	default:
		b.handlers.ShowMainMenu(userID, b)
	}
}

func (b *Bot) handleButtonPress(message *tgbotapi.Message, session *handlers.UserSession) bool {
	userID := message.From.ID

	switch message.Text {
	case handlers.BtnTakeTest:
		b.handlers.StartTakeTest(userID, session, b)

	case handlers.BtnMyResults:
		session.Reset()
		b.handlers.ShowMyResults(userID, b)

	case handlers.BtnHelp:
		session.Reset()
		b.handlers.ShowHelp(userID, b)

	case handlers.BtnAdminPanel:
		b.handlers.ShowAdminPanel(userID, session, b)

	default:
		return false
	}
	return true
}

// allow applies the per-user rate limit, warning once per window
func (b *Bot) allow(userID int64, queryID string) bool {
	allowed, firstDenial := b.limiter.Allow(userID)
	if allowed {
		return true
	}

	if firstDenial {
		logger.Warn("Rate limit exceeded", "user_id", userID)
	}
	switch {
	case queryID != "":
		b.AnswerCallbackQuery(queryID, handlers.MsgRateLimited, firstDenial)
	case firstDenial:
		b.sendMessage(userID, handlers.MsgRateLimited, nil)
	}
	return false
}

func (b *Bot) getSession(userID int64) *handlers.UserSession {
	b.mu.Lock()
	defer b.mu.Unlock()

	if session, exists := b.sessions[userID]; exists {
		return session
	}

	session := &handlers.UserSession{}
	session.Reset()
	b.sessions[userID] = session
	return session
}

// sendMessage sends text as HTML, split into several messages when it is over
// Telegram's limit. The keyboard goes on the last one.
func (b *Bot) sendMessage(chatID int64, text string, keyboard interface{}) int {
	chunks := utils.SplitMessage(text, maxMessageLength)

	var msgID int
	for i, chunk := range chunks {
		msg := tgbotapi.NewMessage(chatID, chunk)
		msg.ParseMode = tgbotapi.ModeHTML

		if i == len(chunks)-1 {
			switch kb := keyboard.(type) {
			case tgbotapi.ReplyKeyboardMarkup:
				msg.ReplyMarkup = kb
			case tgbotapi.InlineKeyboardMarkup:
				msg.ReplyMarkup = kb
			case tgbotapi.ReplyKeyboardRemove:
				msg.ReplyMarkup = kb
			}
		}

		msgID = b.send(msg)
		if msgID == 0 {
			return 0
		}
	}
	return msgID
}

func (b *Bot) send(msg tgbotapi.MessageConfig) int {
	maxRetries := 3
	for i := 0; i < maxRetries; i++ {
		sentMsg, err := b.api.Send(msg)
		if err != nil {
			logger.Error("Failed to send message", "error", err, "chat_id", msg.ChatID, "attempt", i+1)

			// If it's a network error, wait and retry
			if isNetworkError(err) {
				time.Sleep(time.Duration(i+1) * time.Second)
				continue
			}
			return 0 // Non-network error, don't retry
		}
		return sentMsg.MessageID // Success
	}
	return 0 // All retries failed
}

func isNetworkError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "network is unreachable")
}

func (b *Bot) SendMessage(chatID int64, text string, keyboard interface{}) int {
	return b.sendMessage(chatID, text, keyboard)
}

func (b *Bot) EditMessage(chatID int64, messageID int, text string, keyboard interface{}) {
	if chunks := utils.SplitMessage(text, maxMessageLength); len(chunks) > 1 {
		text = chunks[0]
	}
	msg := tgbotapi.NewEditMessageText(chatID, messageID, text)
	msg.ParseMode = tgbotapi.ModeHTML

	if keyboard != nil {
		if kb, ok := keyboard.(tgbotapi.InlineKeyboardMarkup); ok {
			msg.ReplyMarkup = &kb
		}
	}

	if _, err := b.api.Send(msg); err != nil && !strings.Contains(err.Error(), "message is not modified") {
		logger.Error("Failed to edit message", "error", err, "chat_id", chatID, "message_id", messageID)
	}
}

func (b *Bot) AnswerCallbackQuery(queryID string, text string, showAlert bool) {
	callback := tgbotapi.NewCallback(queryID, text)
	callback.ShowAlert = showAlert
	if _, err := b.api.Request(callback); err != nil {
		logger.Error("Failed to answer callback query", "error", err, "query_id", queryID)
	}
}

// IsChannelMember asks Telegram whether the user has joined the channel.
// The bot must be an administrator of the channel for this to work.
func (b *Bot) IsChannelMember(ctx context.Context, channel string, userID int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	member, err := b.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			SuperGroupUsername: channel,
			UserID:             userID,
		},
	})
	if err != nil {
		return false, fmt.Errorf("get chat member %s: %w", channel, err)
	}

	switch member.Status {
	case "creator", "administrator", "member":
		return true, nil
	case "restricted":
		return member.IsMember, nil
	default:
		return false, nil
	}
}

// DownloadFile fetches an uploaded document, refusing anything over maxSize
func (b *Bot) DownloadFile(fileID string, maxSize int64) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("get file url: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("file exceeds %d bytes", maxSize)
	}
	return data, nil
}

func (b *Bot) Stop() {
	b.api.StopReceivingUpdates()
	b.cancel()
	logger.Info("Bot stopped receiving updates")
}

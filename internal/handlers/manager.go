package handlers

import (
	"context"
	"time"

	"github.com/mroshb/quiz_bot/internal/config"
	"github.com/mroshb/quiz_bot/internal/quiz"
	"github.com/mroshb/quiz_bot/internal/services"
)

// handlerTimeout bounds the storage work done for one update
const handlerTimeout = 15 * time.Second

// Bot interface to avoid circular dependency
type BotInterface interface {
	services.MembershipChecker

	SendMessage(chatID int64, text string, keyboard interface{}) int
	EditMessage(chatID int64, messageID int, text string, keyboard interface{})
	AnswerCallbackQuery(queryID string, text string, showAlert bool)
	DownloadFile(fileID string, maxSize int64) ([]byte, error)
}

// UserSession is the conversation state outside of a test attempt: the
// registration and admin prompts waiting for a typed reply
type UserSession struct {
	State string
	Data  map[string]interface{}
}

const (
	StateNone = ""

	StateRegisterName = "register_name"

	StateAdminTitle           = "admin_title"
	StateAdminCode            = "admin_code"
	StateAdminKeys            = "admin_keys"
	StateAdminChannelAdd      = "admin_channel_add"
	StateAdminChannelFallback = "admin_channel_fallback"
)

// Reset clears the conversation state
func (s *UserSession) Reset() {
	s.State = StateNone
	s.Data = make(map[string]interface{})
}

type HandlerManager struct {
	Config     *config.Config
	Engine     *quiz.Engine
	AdminSvc   *services.AdminService
	StudentSvc *services.StudentService
}

func NewHandlerManager(
	cfg *config.Config,
	engine *quiz.Engine,
	adminSvc *services.AdminService,
	studentSvc *services.StudentService,
) *HandlerManager {
	return &HandlerManager{
		Config:     cfg,
		Engine:     engine,
		AdminSvc:   adminSvc,
		StudentSvc: studentSvc,
	}
}

func (h *HandlerManager) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), handlerTimeout)
}

// IsAdmin reports whether the user may use the admin panel
func (h *HandlerManager) IsAdmin(userID int64) bool {
	ctx, cancel := h.context()
	defer cancel()
	return h.StudentSvc.IsAdmin(ctx, userID)
}

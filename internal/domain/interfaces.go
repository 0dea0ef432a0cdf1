package domain

import (
	"context"
	"time"

	"coworkingbot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Backend is the remote booking ledger. Every failure is a *backend.Error.
type Backend interface {
	FreeSlots(ctx context.Context, date string) ([]string, error)
	CreateBooking(ctx context.Context, req models.BookingRequest) (models.CreatedBooking, error)
	CancelBookingByUser(ctx context.Context, recordID string, userID int64) error
	ForceCancelBooking(ctx context.Context, recordID string, adminID int64) error
	ConfirmPayment(ctx context.Context, recordID string, adminID int64) (models.PaymentConfirmation, error)
	UserBookings(ctx context.Context, userID int64, activeOnly bool) ([]models.Booking, error)
	BookingInfo(ctx context.Context, recordID string) (models.Booking, error)
	TodayBookings(ctx context.Context) ([]models.Booking, error)
	BusySlots(ctx context.Context, date string) ([]models.Booking, error)

	AddException(ctx context.Context, payload map[string]any) error
	RemoveException(ctx context.Context, id string) error
	Exceptions(ctx context.Context) ([]models.Exception, error)
	Settings(ctx context.Context) (models.Settings, error)
	UpdateSettings(ctx context.Context, payload map[string]any) error
	BanUser(ctx context.Context, userID int64) error
	UnbanUser(ctx context.Context, userID int64) error
	BannedUsers(ctx context.Context) ([]string, error)

	Stats(ctx context.Context) (models.Report, error)
	Report(ctx context.Context, reportType, period string) (models.Report, error)
	Reviews(ctx context.Context, q models.ReviewsQuery) (models.ReviewList, error)
	SaveReview(ctx context.Context, req models.ReviewRequest) error
	TestConnection(ctx context.Context) (models.Connection, error)
	SendReminders(ctx context.Context) (models.ReminderStats, error)
	AutoCancel(ctx context.Context) (int, error)
}

type StateRepository interface {
	GetState(ctx context.Context, id models.ConversationID) (models.State, error)
	SetState(ctx context.Context, id models.ConversationID, state models.State) error
	ClearState(ctx context.Context, id models.ConversationID) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

type StateManager interface {
	Get(ctx context.Context, id models.ConversationID) (models.State, error)
	Set(ctx context.Context, id models.ConversationID, state models.State) error
	Clear(ctx context.Context, id models.ConversationID) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload any) error
}

// Notifier routes messages to administrators.
type Notifier interface {
	Alert(ctx context.Context, text string)
	ActionRequired(ctx context.Context, text string, markup *tgbotapi.InlineKeyboardMarkup)
	Error(ctx context.Context, where string, err error)
	UserError(ctx context.Context, chatID int64, isAdmin bool, where, short, detail string)
	Direct(ctx context.Context, chatID int64, text string) error
}

type ContentRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	All(ctx context.Context) (map[string]string, error)
}

type ContentProvider interface {
	Get(ctx context.Context, key string) string
	Set(ctx context.Context, key, value string) error
	Reset(ctx context.Context, key string) error
	Fields() []string
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

type TelegramService interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	SendMessage(chatID int64, text string) (tgbotapi.Message, error)
	SendHTML(chatID int64, text string) (tgbotapi.Message, error)
	SendWithKeyboard(chatID int64, text string, keyboard tgbotapi.ReplyKeyboardMarkup) (tgbotapi.Message, error)
	SendWithInlineKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	EditMessage(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	AnswerCallback(callbackID string, text string) error
	SendDocument(chatID int64, path, caption string) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

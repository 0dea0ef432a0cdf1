package bot

import (
	"context"
	"errors"
	"os"
	"time"

	"coworkingbot/internal/config"
	"coworkingbot/internal/domain"
	"coworkingbot/internal/logging"
	"coworkingbot/internal/metrics"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const updateTimeout = 30 * time.Second

type Bot struct {
	tgService domain.TelegramService
	config    *config.Config
	texts     config.Texts
	state     domain.StateManager
	backend   domain.Backend
	content   domain.ContentProvider
	notifier  domain.Notifier
	eventBus  domain.EventPublisher
	logger    *zerolog.Logger

	now            func() time.Time
	notifyInterval time.Duration
}

func NewBot(
	tgService domain.TelegramService,
	cfg *config.Config,
	texts config.Texts,
	state domain.StateManager,
	backend domain.Backend,
	content domain.ContentProvider,
	notifier domain.Notifier,
	eventBus domain.EventPublisher,
	logger *zerolog.Logger,
) (*Bot, error) {
	if tgService == nil || cfg == nil || state == nil || backend == nil || content == nil || notifier == nil {
		return nil, errors.New("bot: missing dependency")
	}

	if logger == nil {
		l := zerolog.New(os.Stdout).With().Timestamp().Logger()
		logger = &l
	}

	return &Bot{
		tgService:      tgService,
		config:         cfg,
		texts:          texts.Merge(config.DefaultTexts()),
		state:          state,
		backend:        backend,
		content:        content,
		notifier:       notifier,
		eventBus:       eventBus,
		logger:         logger,
		now:            time.Now,
		notifyInterval: time.Second,
	}, nil
}

// Start polls for updates until ctx is canceled.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.config.Telegram.UpdateTimeout

	updates := b.tgService.GetUpdatesChan(u)

	b.logger.Info().Str("username", b.tgService.GetSelf().UserName).Msg("Authorized on account")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("Bot stopping...")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.processUpdate(ctx, update)
		}
	}
}

// Stop stops receiving Telegram updates.
func (b *Bot) Stop() {
	if b == nil || b.tgService == nil {
		return
	}
	b.tgService.StopReceivingUpdates()
}

func (b *Bot) processUpdate(ctx context.Context, update tgbotapi.Update) {
	start := time.Now()
	kind := updateKind(update)
	defer func() {
		metrics.ObserveUpdate(kind, time.Since(start))
	}()

	updateCtx, cancel := context.WithTimeout(ctx, updateTimeout)
	defer cancel()

	var userID, chatID int64
	switch {
	case update.Message != nil && update.Message.From != nil:
		userID, chatID = update.Message.From.ID, update.Message.Chat.ID
	case update.CallbackQuery != nil:
		userID = update.CallbackQuery.From.ID
		chatID = callbackChatID(update.CallbackQuery)
	}
	if userID == 0 {
		return
	}

	updateCtx, l := logging.ForUpdate(updateCtx, b.logger, userID, chatID)

	b.withRecovery(updateCtx, chatID, func() error {
		if !b.isAdmin(userID) {
			window := time.Duration(b.config.Bot.RateLimitWindow) * time.Second
			allowed, err := b.state.CheckRateLimit(updateCtx, userID, b.config.Bot.RateLimitMessages, window)
			if err != nil {
				l.Error().Err(err).Msg("Rate limit check failed")
			} else if !allowed {
				l.Warn().Msg("Rate limit exceeded")
				if update.Message != nil {
					b.sendText(chatID, "⚠️ Вы отправляете сообщения слишком часто. Пожалуйста, подождите немного.")
				}
				return nil
			}
		}

		if update.CallbackQuery != nil {
			return b.handleCallbackQuery(updateCtx, update.CallbackQuery)
		}
		return b.handleMessage(updateCtx, update.Message)
	})
}

func updateKind(update tgbotapi.Update) string {
	switch {
	case update.CallbackQuery != nil:
		return "callback"
	case update.Message != nil && update.Message.Contact != nil:
		return "contact"
	case update.Message != nil && update.Message.IsCommand():
		return "command"
	case update.Message != nil:
		return "message"
	default:
		return "other"
	}
}

package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"sync"
	"time"

	"coworkingbot/internal/config"
	"coworkingbot/internal/metrics"
	"coworkingbot/internal/models"
	"coworkingbot/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	ClassAlert    = "alert"
	ClassAction   = "action_required"
	ClassError    = "error"
	ClassUserText = "user"

	errorTextRunes = 500

	defaultUserErrorContext = "user_error"
)

// Sender is the part of the Telegram client the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier delivers operational messages to administrators.
type Notifier struct {
	sender     Sender
	admins     []int64
	alertsChat int64
	agg        Aggregator
	retry      worker.RetryPolicy
	loc        *time.Location
	now        func() time.Time
	logger     *zerolog.Logger

	limit    rate.Limit
	burst    int
	mu       sync.Mutex
	limiters map[int64]*rate.Limiter
}

type Option func(*Notifier)

// WithAggregator overrides the default LRU error aggregator.
func WithAggregator(a Aggregator) Option {
	return func(n *Notifier) { n.agg = a }
}

// WithClock sets the time source for aggregation and timestamps.
func WithClock(now func() time.Time) Option {
	return func(n *Notifier) { n.now = now }
}

// WithRetryPolicy sets the retry policy for every delivery.
func WithRetryPolicy(p worker.RetryPolicy) Option {
	return func(n *Notifier) { n.retry = p }
}

// New builds a notifier for the configured admins and alerts chat.
func New(sender Sender, cfg *config.Config, logger *zerolog.Logger, opts ...Option) (*Notifier, error) {
	n := &Notifier{
		sender:     sender,
		admins:     append([]int64(nil), cfg.Admins.IDs...),
		alertsChat: cfg.Admins.AlertsChatID,
		retry: worker.RetryPolicy{
			MaxRetries:    2,
			InitialDelay:  500 * time.Millisecond,
			MaxDelay:      5 * time.Second,
			BackoffFactor: 2,
		},
		loc:      cfg.Location(),
		now:      time.Now,
		logger:   logger,
		limit:    rate.Limit(cfg.Notifications.SendRate),
		burst:    cfg.Notifications.SendBurst,
		limiters: make(map[int64]*rate.Limiter),
	}
	if n.limit <= 0 {
		n.limit = rate.Inf
	}
	if n.burst <= 0 {
		n.burst = 1
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.agg == nil {
		agg, err := NewLRUAggregator(cfg.Notifications.AggregateCapacity, cfg.Notifications.AggregateEvery,
			cfg.Notifications.AggregateWindow, n.now)
		if err != nil {
			return nil, fmt.Errorf("create error aggregator: %w", err)
		}
		n.agg = agg
	}
	return n, nil
}

// Alert goes to the alerts chat when configured, otherwise to every admin.
func (n *Notifier) Alert(ctx context.Context, text string) {
	n.alert(ctx, ClassAlert, text, 0)
}

func (n *Notifier) alert(ctx context.Context, class, text string, skip int64) {
	if n.alertsChat != 0 {
		n.deliver(ctx, class, n.alertsChat, text, nil)
		return
	}
	if len(n.admins) == 0 {
		n.logger.Warn().Str("class", class).Msg("no admins configured, alert dropped")
		return
	}
	for _, id := range n.admins {
		if id == skip {
			continue
		}
		n.deliver(ctx, class, id, text, nil)
	}
}

// ActionRequired goes to every admin personally so each gets working buttons.
func (n *Notifier) ActionRequired(ctx context.Context, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	if len(n.admins) == 0 {
		n.logger.Warn().Msg("no admins configured, action-required message dropped")
		return
	}
	for _, id := range n.admins {
		n.deliver(ctx, ClassAction, id, text, markup)
	}
}

// Error reports a failure to admins, collapsing repeats.
func (n *Notifier) Error(ctx context.Context, where string, err error) {
	if err == nil {
		return
	}
	msg := err.Error()
	d := n.agg.Observe(where, msg)
	metrics.IncErrorReport(d.Send)
	if !d.Send {
		n.logger.Debug().Str("context", where).Int("count", d.Count).Msg("error report suppressed")
		return
	}
	n.alert(ctx, ClassError, n.formatError(where, msg, d), 0)
}

// UserError shows admins the full detail inline; other users see only the short
// text while the detail is reported through Error under the call site, so one
// failure hitting many users collapses into a single group.
func (n *Notifier) UserError(ctx context.Context, chatID int64, isAdmin bool, where, short, detail string) {
	if isAdmin {
		text := short
		if detail != "" {
			text += "\n\n" + html.EscapeString(detail)
		}
		n.deliver(ctx, ClassUserText, chatID, text, nil)
		return
	}
	n.deliver(ctx, ClassUserText, chatID, short, nil)
	if detail == "" {
		return
	}
	if where == "" {
		where = defaultUserErrorContext
	}
	n.logger.Warn().Int64("chat_id", chatID).Str("context", where).Str("detail", detail).Msg("user request failed")
	n.Error(ctx, where, errors.New(detail))
}

// Direct sends text to a single chat under the same throttle and retry rules.
func (n *Notifier) Direct(ctx context.Context, chatID int64, text string) error {
	return n.deliver(ctx, ClassUserText, chatID, text, nil)
}

func (n *Notifier) formatError(where, msg string, d Decision) string {
	r := []rune(msg)
	if len(r) > errorTextRunes {
		r = r[:errorTextRunes]
	}
	text := fmt.Sprintf("🚨 <b>ОШИБКА В СИСТЕМЕ</b>\n\n🕐 Время: %s\n📝 Контекст: %s\n💥 Ошибка: %s",
		n.now().In(n.loc).Format("15:04 02.01.2006"), html.EscapeString(where), html.EscapeString(string(r)))
	if d.Count > 1 {
		text += fmt.Sprintf("\n🔁 Повторов: %d за %s", d.Count, d.Since.Round(time.Second))
	}
	return text
}

func (n *Notifier) deliver(ctx context.Context, class string, chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = models.ParseModeHTML
	if markup != nil {
		msg.ReplyMarkup = *markup
	}

	err := worker.Retry(ctx, n.retry, func(ctx context.Context) error {
		if err := n.limiter(chatID).Wait(ctx); err != nil {
			return worker.Permanent(err)
		}
		_, err := n.sender.Send(msg)
		return classifySendError(err)
	})
	if err != nil {
		metrics.IncNotification(class, "failed")
		n.logger.Error().Err(err).Str("class", class).Int64("chat_id", chatID).Msg("notification delivery failed")
		return err
	}
	metrics.IncNotification(class, "sent")
	return nil
}

func (n *Notifier) limiter(chatID int64) *rate.Limiter {
	n.mu.Lock()
	defer n.mu.Unlock()
	l, ok := n.limiters[chatID]
	if !ok {
		l = rate.NewLimiter(n.limit, n.burst)
		n.limiters[chatID] = l
	}
	return l
}

type floodError struct {
	err  error
	wait time.Duration
}

func (f *floodError) Error() string             { return f.err.Error() }
func (f *floodError) Unwrap() error             { return f.err }
func (f *floodError) RetryAfter() time.Duration { return f.wait }

// classifySendError retries flood control and server errors; other API errors are permanent.
func classifySendError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return &floodError{err: err, wait: time.Duration(apiErr.RetryAfter) * time.Second}
		case apiErr.Code >= 500:
			return err
		default:
			return worker.Permanent(err)
		}
	}
	return err
}

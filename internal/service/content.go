package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"coworkingbot/internal/domain"

	"github.com/rs/zerolog"
)

// Editable content fields.
const (
	ContentWelcome                 = "welcome"
	ContentRules                   = "rules"
	ContentSupport                 = "support"
	ContentAnnouncement            = "announcement"
	ContentBookingButtonLabel      = "booking_button_label"
	ContentBookingSuccess          = "booking_success"
	ContentBookingCancelReschedule = "booking_cancel_reschedule"
)

var ErrUnknownContentField = errors.New("unknown content field")

var defaultContent = map[string]string{
	ContentWelcome: "👋 <b>Добро пожаловать в коворкинг!</b>\n\n" +
		"Здесь можно забронировать рабочее место, посмотреть свои брони и оставить отзыв.\n" +
		"Выберите действие в меню ниже.",
	ContentRules: "📜 <b>Правила коворкинга</b>\n\n" +
		"• Приходите вовремя и освобождайте место к концу слота.\n" +
		"• Соблюдайте тишину в рабочей зоне.\n" +
		"• Оплата подтверждается администратором.\n" +
		"• Оплаченную бронь отменить через бота нельзя, напишите в поддержку.",
	ContentSupport: "💬 <b>Поддержка</b>\n\nНапишите администратору, и мы ответим в ближайшее время.",
	ContentAnnouncement:       "",
	ContentBookingButtonLabel: "📅 Забронировать",
	ContentBookingSuccess: "Готово ✅\nБронь создана.\n\n" +
		"📅 {date}\n🕐 {time}\n👤 {name}\n📞 {phone}\n\n" +
		"📋 ID брони: <code>{record_id}</code>\n\n" +
		"Дальше вы можете посмотреть детали в «Мои брони».",
	ContentBookingCancelReschedule: "✅ Бронь отменена.\nВы можете выбрать новую дату или остаться в меню.",
}

type cachedContent struct {
	values   map[string]string
	loadedAt time.Time
}

// ContentService serves bot texts: an admin override when one is set and
// non-blank, the built-in default otherwise. Overrides are cached.
type ContentService struct {
	repo   domain.ContentRepository
	ttl    time.Duration
	logger *zerolog.Logger
	now    func() time.Time

	mu    sync.Mutex
	cache *cachedContent
}

func NewContentService(repo domain.ContentRepository, ttl time.Duration, logger *zerolog.Logger) *ContentService {
	return &ContentService{
		repo:   repo,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

func (s *ContentService) Fields() []string {
	fields := make([]string, 0, len(defaultContent))
	for k := range defaultContent {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}

func (s *ContentService) Get(ctx context.Context, key string) string {
	def := defaultContent[key]
	overrides, err := s.load(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("content store unavailable, using default")
		return def
	}
	if v := strings.TrimSpace(overrides[key]); v != "" {
		return overrides[key]
	}
	return def
}

func (s *ContentService) Set(ctx context.Context, key, value string) error {
	if _, ok := defaultContent[key]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownContentField, key)
	}
	if err := s.repo.Set(ctx, key, value); err != nil {
		return err
	}
	s.invalidate()
	s.logger.Info().Str("key", key).Msg("content updated")
	return nil
}

func (s *ContentService) Reset(ctx context.Context, key string) error {
	if _, ok := defaultContent[key]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownContentField, key)
	}
	if err := s.repo.Delete(ctx, key); err != nil {
		return err
	}
	s.invalidate()
	s.logger.Info().Str("key", key).Msg("content reset to default")
	return nil
}

func (s *ContentService) load(ctx context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache != nil && s.now().Sub(s.cache.loadedAt) < s.ttl {
		return s.cache.values, nil
	}
	values, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	s.cache = &cachedContent{values: values, loadedAt: s.now()}
	return values, nil
}

func (s *ContentService) invalidate() {
	s.mu.Lock()
	s.cache = nil
	s.mu.Unlock()
}

// Render substitutes {name} placeholders in a content template.
func Render(template string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

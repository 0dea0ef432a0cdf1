package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"coworkingbot/internal/models"
	"coworkingbot/internal/service"

	"github.com/rs/zerolog"
)

const msgContentUsage = "Использование:\n" +
	"<code>/content_set поле текст</code>\n" +
	"<code>/content_reset поле</code>"

func (b *Bot) showContent(ctx context.Context, chatID int64, key string) {
	b.sendReply(chatID, b.content.Get(ctx, key), b.mainMenuKeyboard(b.content.Get(ctx, service.ContentBookingButtonLabel)))
}

func (b *Bot) showContentFields(ctx context.Context, chatID int64) {
	var sb strings.Builder
	sb.WriteString("📝 <b>Тексты бота</b>\n\n")
	for _, key := range b.content.Fields() {
		value := strings.ReplaceAll(b.content.Get(ctx, key), "\n", " ")
		fmt.Fprintf(&sb, "• <code>%s</code>: %s\n", key, escape(truncate(value, 60)))
	}
	sb.WriteString("\n")
	sb.WriteString(msgContentUsage)
	b.sendHTML(chatID, sb.String())
}

// setContent parses "key text..." where text keeps its own line breaks.
func (b *Bot) setContent(ctx context.Context, conv models.ConversationID, args string) {
	key, value, _ := strings.Cut(strings.TrimSpace(args), " ")
	value = strings.TrimSpace(value)
	if key == "" || value == "" {
		b.sendHTML(conv.ChatID, msgContentUsage)
		return
	}

	if err := b.content.Set(ctx, key, value); err != nil {
		b.replyContentError(ctx, conv.ChatID, key, err)
		return
	}
	zerolog.Ctx(ctx).Info().Str("key", key).Int64("admin_id", conv.UserID).Msg("Content updated by admin")
	b.sendHTML(conv.ChatID, fmt.Sprintf("✅ Текст <code>%s</code> обновлён.", escape(key)))
}

func (b *Bot) resetContent(ctx context.Context, conv models.ConversationID, key string) {
	if key == "" {
		b.sendHTML(conv.ChatID, msgContentUsage)
		return
	}
	if err := b.content.Reset(ctx, key); err != nil {
		b.replyContentError(ctx, conv.ChatID, key, err)
		return
	}
	zerolog.Ctx(ctx).Info().Str("key", key).Int64("admin_id", conv.UserID).Msg("Content reset by admin")
	b.sendHTML(conv.ChatID, fmt.Sprintf("♻️ Текст <code>%s</code> сброшен к значению по умолчанию.", escape(key)))
}

func (b *Bot) replyContentError(ctx context.Context, chatID int64, key string, err error) {
	if errors.Is(err, service.ErrUnknownContentField) {
		b.sendHTML(chatID, fmt.Sprintf("❌ Неизвестное поле: <code>%s</code>\n\nДоступные поля: %s",
			escape(key), strings.Join(b.content.Fields(), ", ")))
		return
	}
	zerolog.Ctx(ctx).Error().Err(err).Str("key", key).Msg("Content store failed")
	b.notifier.Error(ctx, "content store", err)
	b.sendText(chatID, msgInternalError)
}

package bot

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"

	"coworkingbot/internal/models"
	"coworkingbot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const guestName = "Гость"

func conversation(chatID, userID int64) models.ConversationID {
	return models.ConversationID{ChatID: chatID, UserID: userID}
}

func callbackChatID(cb *tgbotapi.CallbackQuery) int64 {
	if cb.Message != nil && cb.Message.Chat != nil {
		return cb.Message.Chat.ID
	}
	return cb.From.ID
}

func (b *Bot) isAdmin(userID int64) bool {
	return b.config.IsAdmin(userID)
}

// requireAdmin returns ErrNotAdmin for anyone outside the admin list.
func (b *Bot) requireAdmin(userID int64) error {
	if !b.isAdmin(userID) {
		return ErrNotAdmin
	}
	return nil
}

// profileName builds the display name from the Telegram profile.
func profileName(u *tgbotapi.User) string {
	if u == nil {
		return guestName
	}
	full := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if full != "" {
		return full
	}
	if u.UserName != "" {
		return u.UserName
	}
	return guestName
}

func (b *Bot) sendText(chatID int64, text string) {
	if _, err := b.tgService.SendMessage(chatID, text); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

func (b *Bot) sendHTML(chatID int64, text string) {
	if _, err := b.tgService.SendHTML(chatID, text); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

func (b *Bot) sendReply(chatID int64, text string, kb tgbotapi.ReplyKeyboardMarkup) {
	if _, err := b.tgService.SendWithKeyboard(chatID, text, kb); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

func (b *Bot) sendInline(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) {
	if _, err := b.tgService.SendWithInlineKeyboard(chatID, text, kb); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

// edit replaces a callback's message in place, falling back to a new message
// when the source message cannot be edited.
func (b *Bot) edit(chatID int64, messageID int, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	if messageID != 0 {
		_, err := b.tgService.EditMessage(chatID, messageID, text, kb)
		if err == nil {
			return
		}
		b.logger.Debug().Err(err).Int64("chat_id", chatID).Msg("Edit failed, sending new message")
	}
	if kb != nil {
		b.sendInline(chatID, text, *kb)
		return
	}
	b.sendHTML(chatID, text)
}

func (b *Bot) answerCallback(id, text string) {
	if err := b.tgService.AnswerCallback(id, text); err != nil {
		b.logger.Debug().Err(err).Msg("Failed to answer callback")
	}
}

// reportBackendError shows the user a short message and routes the detail to
// admins (inline for admin callers).
func (b *Bot) reportBackendError(ctx context.Context, chatID, userID int64, short, where string, err error) {
	zerolog.Ctx(ctx).Warn().Err(err).Str("where", where).Msg("Backend request failed")
	detail := fmt.Sprintf("%s: %s", where, backendMessage(err))
	b.notifier.UserError(ctx, chatID, b.isAdmin(userID), where, short, detail)
}

func (b *Bot) showMainMenu(ctx context.Context, chatID int64) {
	text := b.content.Get(ctx, service.ContentWelcome)
	if ann := strings.TrimSpace(b.content.Get(ctx, service.ContentAnnouncement)); ann != "" {
		text += "\n\n📢 " + ann
	}
	b.sendReply(chatID, text, b.mainMenuKeyboard(b.content.Get(ctx, service.ContentBookingButtonLabel)))
}

func (b *Bot) resetToMenu(ctx context.Context, conv models.ConversationID) error {
	if err := b.state.Clear(ctx, conv); err != nil {
		return err
	}
	b.showMainMenu(ctx, conv.ChatID)
	return nil
}

func (b *Bot) publish(ctx context.Context, eventType string, payload any) {
	if b.eventBus == nil {
		return
	}
	if err := b.eventBus.PublishJSON(eventType, payload); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("event", eventType).Msg("Failed to publish event")
	}
}

func escape(s string) string {
	return html.EscapeString(s)
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// commandArg returns the first whitespace-separated argument of a command.
func commandArg(msg *tgbotapi.Message) string {
	fields := strings.Fields(msg.CommandArguments())
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

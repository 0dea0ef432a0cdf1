package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"coworkingbot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

var testNotifications = []string{
	"🆕 Тест: Новая бронь",
	"❌ Тест: Отмена брони",
	"💰 Тест: Подтверждение оплаты",
	"⭐ Тест: Новый отзыв",
	"🚨 Тест: Ошибка системы",
}

func (b *Bot) showHelp(conv models.ConversationID) {
	text := b.texts.UserHelp
	if b.isAdmin(conv.UserID) {
		text += "\n\n" + b.texts.AdminHelp
	}
	b.sendHTML(conv.ChatID, text)
}

func (b *Bot) showMyID(msg *tgbotapi.Message) {
	admin := "❌ Нет"
	if b.isAdmin(msg.From.ID) {
		admin = "✅ Да"
	}
	username := "нет"
	if msg.From.UserName != "" {
		username = msg.From.UserName
	}
	b.sendHTML(msg.Chat.ID, fmt.Sprintf("👤 <b>Ваши данные:</b>\n\n"+
		"ID пользователя: <code>%d</code>\n"+
		"Username: @%s\n"+
		"Имя: %s\n"+
		"Чат ID: <code>%d</code>\n"+
		"Тип чата: %s\n\n"+
		"Являетесь админом: %s",
		msg.From.ID, escape(username), escape(orDefault(msg.From.FirstName, "не указано")),
		msg.Chat.ID, escape(msg.Chat.Type), admin))
}

func (b *Bot) testConnection(ctx context.Context, chatID int64) {
	b.sendText(chatID, "🔗 Тестирую подключение к серверу...")

	conn, err := b.backend.TestConnection(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("Backend connection test failed")
		b.sendHTML(chatID, "❌ <b>Ошибка подключения</b>\n\n"+escape(backendMessage(err)))
		return
	}
	b.sendHTML(chatID, fmt.Sprintf("✅ <b>Подключение работает!</b>\n\nСервер: <code>%s</code>\nСтатус: %s\nВремя: %s",
		escape(b.config.Backend.URL), escape(orDefault(conn.Message, "OK")), escape(orDefault(conn.Timestamp, "N/A"))))
}

// selfCheck reports configuration and backend health. ok is true only when
// both pass.
func (b *Bot) selfCheck(ctx context.Context) (report string, ok bool) {
	envStatus := "✅ OK"
	envOK := true
	if err := b.config.Validate(); err != nil {
		envStatus = "❌ " + escape(err.Error())
		envOK = false
	}

	backendStatus := "✅ OK"
	backendOK := true
	conn, err := b.backend.TestConnection(ctx)
	if err != nil {
		backendStatus = "❌ Ошибка " + escape(backendMessage(err))
		backendOK = false
	} else if conn.Message != "" {
		backendStatus += " " + escape(conn.Message)
	}

	var sb strings.Builder
	sb.WriteString("🧪 <b>Диагностика</b>\n\n")
	fmt.Fprintf(&sb, "• Конфигурация: %s\n", envStatus)
	fmt.Fprintf(&sb, "• Сервер: %s\n", backendStatus)
	fmt.Fprintf(&sb, "• Версия: %s\n", escape(orDefault(b.config.App.Version, "dev")))
	fmt.Fprintf(&sb, "• Время: %s\n", b.now().In(b.config.Location()).Format("15:04 02.01.2006"))
	return sb.String(), envOK && backendOK
}

// testNotify sends a fixed series of alerts spaced by notifyInterval.
func (b *Bot) testNotify(ctx context.Context, chatID int64) {
	for i, text := range testNotifications {
		if i > 0 {
			select {
			case <-ctx.Done():
				b.sendText(chatID, "⚠️ Отправка тестовых уведомлений прервана.")
				return
			case <-time.After(b.notifyInterval):
			}
		}
		stamp := b.now().In(b.config.Location()).Format("15:04")
		b.notifier.Alert(ctx, fmt.Sprintf("🔔 %s\n⏰ %s", text, stamp))
	}
	b.sendText(chatID, "✅ Тестовые уведомления отправлены!")
}

func (b *Bot) runAutoCancel(ctx context.Context, chatID int64, msgID int) {
	kb := backKeyboard("↩️ Назад", callbackAdminBack)
	n, err := b.backend.AutoCancel(ctx)
	if err != nil {
		b.edit(chatID, msgID, b.adminFailure(ctx, "auto_cancel", err), &kb)
		return
	}
	zerolog.Ctx(ctx).Info().Int("cancelled", n).Msg("Auto-cancel finished")
	b.edit(chatID, msgID, fmt.Sprintf("✅ Автоотмена выполнена\nУдалено: %d", n), &kb)
}

func (b *Bot) runReminders(ctx context.Context, chatID int64, msgID int) {
	kb := backKeyboard("↩️ Назад", callbackAdminBack)
	stats, err := b.backend.SendReminders(ctx)
	if err != nil {
		b.edit(chatID, msgID, b.adminFailure(ctx, "send_reminders", err), &kb)
		return
	}
	b.edit(chatID, msgID, fmt.Sprintf("✅ Напоминания отправлены\n\nЗа 24 часа: %d\nЗа 2 часа: %d\nОшибки: %d",
		stats.DayBefore, stats.TwoHoursBefore, stats.Errors), &kb)
}

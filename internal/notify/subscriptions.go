package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"coworkingbot/internal/events"
	"coworkingbot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Subscribe routes domain events to admin notifications.
func (n *Notifier) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.BookingCreated, n.onBookingCreated)
	bus.Subscribe(events.BookingCanceled, n.onBookingCanceled)
	bus.Subscribe(events.PaymentConfirmed, n.onPaymentConfirmed)
	bus.Subscribe(events.ReviewSaved, n.onReviewSaved)
}

func (n *Notifier) onBookingCreated(e *events.Event) error {
	var p events.BookingPayload
	if err := e.Decode(&p); err != nil {
		return fmt.Errorf("decode %s: %w", e.Type, err)
	}

	var sb strings.Builder
	sb.WriteString("🆕 <b>Новая бронь</b>\n\n")
	fmt.Fprintf(&sb, "🆔 ID: <code>%s</code>\n", html.EscapeString(p.RecordID))
	fmt.Fprintf(&sb, "📅 Дата: %s\n", html.EscapeString(p.Date))
	fmt.Fprintf(&sb, "🕐 Время: %s\n", html.EscapeString(p.Slot))
	fmt.Fprintf(&sb, "👤 Имя: %s\n", html.EscapeString(p.Name))
	fmt.Fprintf(&sb, "📞 Телефон: %s\n", html.EscapeString(p.Phone))
	if p.Price > 0 {
		fmt.Fprintf(&sb, "💵 Сумма: %.0f ₽\n", p.Price)
	}
	fmt.Fprintf(&sb, "🧑 Пользователь: <code>%d</code>", p.UserID)

	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💰 Подтвердить оплату", models.CallbackConfirmPayment+p.RecordID),
		),
	)
	n.ActionRequired(context.Background(), sb.String(), &markup)
	return nil
}

func (n *Notifier) onBookingCanceled(e *events.Event) error {
	var p events.BookingPayload
	if err := e.Decode(&p); err != nil {
		return fmt.Errorf("decode %s: %w", e.Type, err)
	}

	text := fmt.Sprintf("❌ <b>Отмена брони</b>\n\n🆔 ID: <code>%s</code>", html.EscapeString(p.RecordID))
	if p.Date != "" {
		text += fmt.Sprintf("\n📅 %s %s", html.EscapeString(p.Date), html.EscapeString(p.Slot))
	}
	if p.Reason != "" {
		text += "\nПричина: отменена " + html.EscapeString(p.Reason)
	}
	n.Alert(context.Background(), text)
	return nil
}

func (n *Notifier) onPaymentConfirmed(e *events.Event) error {
	var p events.BookingPayload
	if err := e.Decode(&p); err != nil {
		return fmt.Errorf("decode %s: %w", e.Type, err)
	}
	ctx := context.Background()

	text := fmt.Sprintf("💰 <b>Оплата подтверждена</b>\n\n🆔 ID: <code>%s</code>\n📅 %s %s\n👤 %s\n🛡 Админ: <code>%d</code>",
		html.EscapeString(p.RecordID), html.EscapeString(p.Date), html.EscapeString(p.Slot),
		html.EscapeString(p.Name), p.ActorID)
	// the confirming admin already saw the result in their own chat
	n.alert(ctx, ClassAlert, text, p.ActorID)

	if p.ChatID != 0 {
		client := fmt.Sprintf("✅ Ваша оплата брони #%s на %s %s подтверждена! Ждём вас.",
			html.EscapeString(p.RecordID), html.EscapeString(p.Date), html.EscapeString(p.Slot))
		if err := n.Direct(ctx, p.ChatID, client); err != nil {
			return fmt.Errorf("notify client %d: %w", p.ChatID, err)
		}
	}
	return nil
}

func (n *Notifier) onReviewSaved(e *events.Event) error {
	var p events.ReviewPayload
	if err := e.Decode(&p); err != nil {
		return fmt.Errorf("decode %s: %w", e.Type, err)
	}

	text := fmt.Sprintf("⭐ <b>Новый отзыв</b>\n\n🆔 Бронь: <code>%s</code>\nОценка: %s",
		html.EscapeString(p.RecordID), Stars(p.Rating))
	if strings.TrimSpace(p.Text) != "" {
		text += "\n💬 " + html.EscapeString(p.Text)
	}
	n.Alert(context.Background(), text)
	return nil
}

// Stars renders a 1..5 rating.
func Stars(rating int) string {
	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}
	return strings.Repeat("⭐", rating) + strings.Repeat("☆", 5-rating)
}

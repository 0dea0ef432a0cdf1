package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"coworkingbot/internal/backend"
	"coworkingbot/internal/events"
	"coworkingbot/internal/models"
	"coworkingbot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const msgCancelUsage = "❌ <b>Отмена бронирования</b>\n\n" +
	"Использование: <code>/cancel ID_брони</code>\n\n" +
	"ID ваших броней можно посмотреть в /my_bookings."

// findUserBooking looks id up among every booking of the user, active or not.
func (b *Bot) findUserBooking(ctx context.Context, userID int64, recordID string) (models.Booking, error) {
	bookings, err := b.backend.UserBookings(ctx, userID, false)
	if err != nil {
		return models.Booking{}, err
	}
	for _, bk := range bookings {
		if bk.ID == recordID {
			return bk, nil
		}
	}
	return models.Booking{}, ErrBookingNotFound
}

// cancelOwnBooking cancels a booking on behalf of its owner. Paid bookings are
// refused before the backend is asked.
func (b *Bot) cancelOwnBooking(ctx context.Context, conv models.ConversationID, recordID, reason string) (models.Booking, error) {
	bk, err := b.findUserBooking(ctx, conv.UserID, recordID)
	if err != nil {
		return models.Booking{}, err
	}
	if bk.IsPaid() {
		return bk, ErrPaidBooking
	}
	if err := b.backend.CancelBookingByUser(ctx, recordID, conv.UserID); err != nil {
		return bk, err
	}

	zerolog.Ctx(ctx).Info().Str("record_id", recordID).Str("reason", reason).Msg("Booking cancelled by owner")
	b.publish(ctx, events.BookingCanceled, events.BookingPayload{
		RecordID: recordID,
		Date:     bk.Date,
		Slot:     bk.Time,
		Name:     bk.Name,
		UserID:   conv.UserID,
		ChatID:   conv.ChatID,
		Reason:   reason,
		ActorID:  conv.UserID,
	})
	return bk, nil
}

// handleCancel serves /cancel and the cancel confirmation button. Admins
// cancelling a booking that is not theirs fall through to a force cancel.
func (b *Bot) handleCancel(ctx context.Context, conv models.ConversationID, messageID int, recordID string) {
	_, err := b.cancelOwnBooking(ctx, conv, recordID, models.CancelReasonUser)
	switch {
	case err == nil:
		b.edit(conv.ChatID, messageID, fmt.Sprintf("✅ Бронь #%s отменена.", escape(recordID)), nil)
	case errors.Is(err, ErrBookingNotFound) && b.isAdmin(conv.UserID):
		b.forceCancel(ctx, conv, recordID)
	case errors.Is(err, ErrBookingNotFound), errors.Is(err, ErrPaidBooking):
		kb := menuInlineKeyboard()
		b.edit(conv.ChatID, messageID, b.getErrorMessage(err), &kb)
	default:
		b.reportBackendError(ctx, conv.ChatID, conv.UserID, msgRequestFailed, "cancel_booking", err)
	}
}

// handleReschedule cancels the booking and restarts the flow from the date step.
func (b *Bot) handleReschedule(ctx context.Context, conv models.ConversationID, messageID int, recordID string) error {
	_, err := b.cancelOwnBooking(ctx, conv, recordID, models.CancelReasonReschedule)
	switch {
	case err == nil:
		b.edit(conv.ChatID, messageID, "✅ Бронь отменена. Давайте выберем новую дату.", nil)
		return b.startBooking(ctx, conv, b.content.Get(ctx, service.ContentBookingCancelReschedule))
	case errors.Is(err, ErrBookingNotFound), errors.Is(err, ErrPaidBooking):
		kb := menuInlineKeyboard()
		b.edit(conv.ChatID, messageID, b.getErrorMessage(err), &kb)
	default:
		b.reportBackendError(ctx, conv.ChatID, conv.UserID, msgRequestFailed, "reschedule_booking", err)
	}
	return nil
}

// forceCancel cancels any booking regardless of status. The owner of a paid
// booking is told directly.
func (b *Bot) forceCancel(ctx context.Context, conv models.ConversationID, recordID string) {
	bk, err := b.backend.BookingInfo(ctx, recordID)
	if backend.IsTransport(err) {
		b.sendHTML(conv.ChatID, b.adminFailure(ctx, "get_booking_info", err))
		return
	}
	if err != nil {
		b.sendHTML(conv.ChatID, fmt.Sprintf("❌ Бронь не найдена: <code>%s</code>", escape(recordID)))
		return
	}
	if err := b.backend.ForceCancelBooking(ctx, recordID, conv.UserID); err != nil {
		b.reportBackendError(ctx, conv.ChatID, conv.UserID, msgRequestFailed, "cancel_booking", err)
		return
	}

	b.sendHTML(conv.ChatID, fmt.Sprintf("✅ <b>Бронь отменена администратором</b>\n\nID: <code>%s</code>\n👤 Клиент: %s\n📅 Дата: %s\n🕐 Время: %s",
		escape(recordID), escape(orDefault(bk.Name, "Неизвестно")), escape(orDefault(bk.Date, "Неизвестно")), escape(orDefault(bk.Time, "Неизвестно"))))

	if bk.IsPaid() && bk.ClientChatID != 0 {
		text := fmt.Sprintf("⚠️ Ваша оплаченная бронь #%s на %s %s отменена администратором.",
			escape(recordID), escape(bk.Date), escape(bk.Time))
		if err := b.notifier.Direct(ctx, bk.ClientChatID, text); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Int64("client_chat_id", bk.ClientChatID).Msg("Failed to notify client about cancellation")
		}
	}

	b.publish(ctx, events.BookingCanceled, events.BookingPayload{
		RecordID: recordID,
		Date:     bk.Date,
		Slot:     bk.Time,
		Name:     bk.Name,
		ChatID:   bk.ClientChatID,
		Reason:   models.CancelReasonAdmin,
		ActorID:  conv.UserID,
	})
}

// confirmPayment is idempotent on the backend side; a repeated confirmation
// only produces a short acknowledgement.
func (b *Bot) confirmPayment(ctx context.Context, adminID int64, recordID string) (string, error) {
	res, err := b.backend.ConfirmPayment(ctx, recordID, adminID)
	if err != nil {
		return "", err
	}
	if res.AlreadyConfirmed {
		return "✅ Оплата уже была подтверждена ранее", nil
	}

	b.publish(ctx, events.PaymentConfirmed, events.BookingPayload{
		RecordID: recordID,
		Date:     res.BookingDate,
		Slot:     res.BookingTime,
		Name:     res.ClientName,
		ChatID:   res.ClientChatID,
		ActorID:  adminID,
	})
	return fmt.Sprintf("✅ <b>Оплата подтверждена!</b>\n\n📋 ID: <code>%s</code>\n👤 Клиент: %s\n📅 Дата: %s\n🕐 Время: %s",
		escape(recordID), escape(orDefault(res.ClientName, "Неизвестно")),
		escape(orDefault(res.BookingDate, "Неизвестно")), escape(orDefault(res.BookingTime, "Неизвестно"))), nil
}

func (b *Bot) showMyBookings(ctx context.Context, conv models.ConversationID) {
	bookings, err := b.backend.UserBookings(ctx, conv.UserID, false)
	if err != nil {
		b.reportBackendError(ctx, conv.ChatID, conv.UserID, "⚠️ Не удалось получить список броней. Попробуйте позже.", "get_user_bookings", err)
		return
	}
	if len(bookings) == 0 {
		b.sendReply(conv.ChatID, "📭 У вас еще нет броней.", b.mainMenuKeyboard(b.content.Get(ctx, service.ContentBookingButtonLabel)))
		return
	}
	if limit := b.config.Bot.MyBookingsLimit; limit > 0 && len(bookings) > limit {
		bookings = bookings[:limit]
	}

	botName := b.tgService.GetSelf().UserName
	var sb strings.Builder
	sb.WriteString("📋 <b>Ваши брони</b>\n\n")
	for i, bk := range bookings {
		status := orDefault(bk.Status, "Неизвестно")
		fmt.Fprintf(&sb, "%d. %s <b>%s %s</b>\n", i+1, statusEmoji(bk), escape(bk.Date), escape(bk.Time))
		fmt.Fprintf(&sb, "   Статус: %s\n", escape(status))
		if bk.Price > 0 {
			fmt.Fprintf(&sb, "   Цена: %s ₽\n", formatPrice(bk.Price))
		}
		fmt.Fprintf(&sb, "   🆔 %s\n", escape(bk.ID))
		if bk.IsPaid() && botName != "" && b.isPastOrToday(bk.Date) {
			fmt.Fprintf(&sb, "   ⭐ <a href=\"https://t.me/%s?start=%s%s\">Оставить отзыв</a>\n",
				botName, models.DeepLinkReviewPrefix, escape(bk.ID))
		}
		sb.WriteString("\n")
	}
	b.sendInline(conv.ChatID, sb.String(), myBookingsKeyboard(bookings))
}

func statusEmoji(bk models.Booking) string {
	if bk.IsPaid() {
		return "✅"
	}
	return "⏳"
}

// isPastOrToday reports whether date is today or earlier in the bot timezone.
func (b *Bot) isPastOrToday(date string) bool {
	loc := b.config.Location()
	d, err := time.ParseInLocation(models.DateLayout, date, loc)
	if err != nil {
		return false
	}
	now := b.now().In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	return !d.After(today)
}

// showToday lists today's bookings: all of them for admins, the caller's own
// active ones otherwise.
func (b *Bot) showToday(ctx context.Context, conv models.ConversationID) {
	if b.isAdmin(conv.UserID) {
		text, err := b.todayText(ctx)
		if err != nil {
			b.reportBackendError(ctx, conv.ChatID, conv.UserID, msgRequestFailed, "get_today_bookings", err)
			return
		}
		b.sendHTML(conv.ChatID, text)
		return
	}

	today := b.now().In(b.config.Location()).Format(models.DateLayout)
	bookings, err := b.backend.UserBookings(ctx, conv.UserID, true)
	if err != nil {
		b.reportBackendError(ctx, conv.ChatID, conv.UserID, "⚠️ Не удалось получить брони на сегодня. Попробуйте позже.", "get_user_bookings", err)
		return
	}
	var mine []models.Booking
	for _, bk := range bookings {
		if bk.Date == today {
			mine = append(mine, bk)
		}
	}
	if len(mine) == 0 {
		b.sendText(conv.ChatID, "📭 У вас нет броней на сегодня.")
		return
	}
	b.sendHTML(conv.ChatID, formatDayBookings("📋 <b>Ваши брони на сегодня</b>", mine, false))
}

func (b *Bot) todayText(ctx context.Context) (string, error) {
	bookings, err := b.backend.TodayBookings(ctx)
	if err != nil {
		return "", err
	}
	if len(bookings) == 0 {
		return "📭 <b>Брони на сегодня</b>\n\nНа сегодня броней нет.", nil
	}
	return formatDayBookings("📋 <b>Брони на сегодня</b>", bookings, true), nil
}

func (b *Bot) tomorrowDate() string {
	return b.now().In(b.config.Location()).AddDate(0, 0, 1).Format(models.DateLayout)
}

// tomorrowText uses the busy-slot listing, which carries no phone numbers.
func (b *Bot) tomorrowText(ctx context.Context) (string, error) {
	date := b.tomorrowDate()
	bookings, err := b.backend.BusySlots(ctx, date)
	if err != nil {
		return "", err
	}
	if len(bookings) == 0 {
		return fmt.Sprintf("📭 <b>Брони на завтра (%s)</b>\n\nНа завтра броней нет.", date), nil
	}
	return formatDayBookings(fmt.Sprintf("📋 <b>Брони на завтра (%s)</b>", date), bookings, true), nil
}

func (b *Bot) showTomorrow(ctx context.Context, conv models.ConversationID) {
	text, err := b.tomorrowText(ctx)
	if err != nil {
		b.reportBackendError(ctx, conv.ChatID, conv.UserID, msgRequestFailed, "get_busy_slots", err)
		return
	}
	b.sendHTML(conv.ChatID, text)
}

// formatDayBookings renders one day's bookings; withClient adds name and phone.
func formatDayBookings(title string, bookings []models.Booking, withClient bool) string {
	var sb strings.Builder
	sb.WriteString(title)
	sb.WriteString("\n\n")
	for i, bk := range bookings {
		fmt.Fprintf(&sb, "%d. %s <b>%s</b>\n", i+1, statusEmoji(bk), escape(bk.Time))
		if withClient {
			if bk.Name != "" {
				fmt.Fprintf(&sb, "   👤 %s\n", escape(bk.Name))
			}
			if bk.Phone != "" {
				fmt.Fprintf(&sb, "   📞 %s\n", escape(bk.Phone))
			}
		} else {
			fmt.Fprintf(&sb, "   Статус: %s\n", escape(bk.Status))
		}
		if bk.Price > 0 {
			fmt.Fprintf(&sb, "   💰 %s ₽\n", formatPrice(bk.Price))
		}
		if bk.ID != "" {
			fmt.Fprintf(&sb, "   🆔 %s\n", escape(bk.ID))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (b *Bot) promptCancel(chatID int64, messageID int, recordID string) {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Да, отменить", models.CallbackBookingCancelConfirm+recordID),
			tgbotapi.NewInlineKeyboardButtonData("↩️ Назад", models.CallbackMyBookings),
		),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🏠 В меню", models.CallbackMainMenu)),
	)
	b.edit(chatID, messageID, fmt.Sprintf("⚠️ Вы уверены, что хотите отменить бронь #%s?", escape(recordID)), &kb)
}

func (b *Bot) promptReschedule(chatID int64, messageID int, recordID string) {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Да, перенести", models.CallbackBookingRescheduleConfirm+recordID),
			tgbotapi.NewInlineKeyboardButtonData("↩️ Назад", models.CallbackMyBookings),
		),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🏠 В меню", models.CallbackMainMenu)),
	)
	b.edit(chatID, messageID, "⚠️ Перенос означает отмену текущей брони и создание новой.", &kb)
}

package bot

import (
	"context"
	"strings"

	"coworkingbot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const (
	callbackLeaveReviewInfo = "leave_review_info"
	callbackReviewsBack     = "reviews_back"
)

// adminCallbackPrefixes guard every callback that mutates or reads admin data.
var adminCallbackPrefixes = []string{"admin_", "report_", models.CallbackConfirmPayment}

func isAdminCallback(data string) bool {
	for _, p := range adminCallbackPrefixes {
		if strings.HasPrefix(data, p) {
			return true
		}
	}
	return false
}

func (b *Bot) handleCallbackQuery(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil {
		return nil
	}
	data := cb.Data
	conv := conversation(callbackChatID(cb), cb.From.ID)
	var msgID int
	if cb.Message != nil {
		msgID = cb.Message.MessageID
	}

	l := zerolog.Ctx(ctx)
	l.Debug().Str("data", data).Msg("Handling callback query")

	if isAdminCallback(data) && !b.isAdmin(cb.From.ID) {
		l.Warn().Str("data", data).Msg("Admin callback from non-admin")
		b.answerCallback(cb.ID, msgNoAccess)
		return nil
	}
	b.answerCallback(cb.ID, "")

	switch {
	case data == models.CallbackMainMenu:
		return b.resetToMenu(ctx, conv)
	case data == models.CallbackMyBookings:
		b.showMyBookings(ctx, conv)
	case data == callbackLeaveReviewInfo:
		b.showReviewInfo(conv.ChatID, msgID)
	case data == callbackReviewsBack:
		b.showReviews(ctx, conv)

	case strings.HasPrefix(data, models.CallbackBookingCancelConfirm):
		b.handleCancel(ctx, conv, msgID, strings.TrimPrefix(data, models.CallbackBookingCancelConfirm))
	case strings.HasPrefix(data, models.CallbackBookingRescheduleConfirm):
		return b.handleReschedule(ctx, conv, msgID, strings.TrimPrefix(data, models.CallbackBookingRescheduleConfirm))
	case strings.HasPrefix(data, models.CallbackBookingCancel):
		b.promptCancel(conv.ChatID, msgID, strings.TrimPrefix(data, models.CallbackBookingCancel))
	case strings.HasPrefix(data, models.CallbackBookingReschedule):
		b.promptReschedule(conv.ChatID, msgID, strings.TrimPrefix(data, models.CallbackBookingReschedule))

	case strings.HasPrefix(data, models.CallbackReviewRate):
		return b.handleReviewRating(ctx, conv, msgID, strings.TrimPrefix(data, models.CallbackReviewRate))

	case strings.HasPrefix(data, models.CallbackConfirmPayment):
		b.handlePaymentCallback(ctx, conv, msgID, strings.TrimPrefix(data, models.CallbackConfirmPayment))
	case strings.HasPrefix(data, "report_"):
		b.handleReportCallback(ctx, conv, msgID, data)
	case strings.HasPrefix(data, "admin_"):
		return b.handleAdminCallback(ctx, conv, msgID, data)

	default:
		l.Warn().Str("data", data).Msg("Unknown callback")
	}
	return nil
}

func (b *Bot) handlePaymentCallback(ctx context.Context, conv models.ConversationID, msgID int, recordID string) {
	kb := backKeyboard("↩️ Назад в админ-панель", callbackAdminBack)
	text, err := b.confirmPayment(ctx, conv.UserID, recordID)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("record_id", recordID).Msg("Payment confirmation failed")
		b.edit(conv.ChatID, msgID, "❌ <b>Ошибка подтверждения оплаты</b>\n\nID: <code>"+escape(recordID)+
			"</code>\nОшибка: "+escape(backendMessage(err)), &kb)
		return
	}
	b.edit(conv.ChatID, msgID, text, &kb)
}

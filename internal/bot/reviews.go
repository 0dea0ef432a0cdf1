package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"coworkingbot/internal/events"
	"coworkingbot/internal/models"
	"coworkingbot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const (
	publicReviewsLimit = 10
	publicReviewsShown = 5
	adminReviewsLimit  = 20
	adminReviewsShown  = 10
	reviewStatsLimit   = 100
	maxReviewRunes     = 1000
)

func stars(n int) string {
	if n < 0 {
		n = 0
	}
	return strings.Repeat("⭐", n)
}

// truncate cuts s to n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func (b *Bot) showReviews(ctx context.Context, conv models.ConversationID) {
	list, err := b.backend.Reviews(ctx, models.ReviewsQuery{PublicOnly: true, Limit: publicReviewsLimit, MaskNames: true})
	if err != nil {
		b.reportBackendError(ctx, conv.ChatID, conv.UserID, "⚠️ Не удалось загрузить отзывы. Попробуйте позже.", "get_reviews", err)
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	if b.isAdmin(conv.UserID) {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Все отзывы (админ)", "admin_all_reviews"),
			tgbotapi.NewInlineKeyboardButtonData("📈 Статистика", "admin_review_stats"),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⭐ Оставить отзыв", callbackLeaveReviewInfo),
		tgbotapi.NewInlineKeyboardButtonData("🏠 В меню", models.CallbackMainMenu),
	))
	b.sendInline(conv.ChatID, formatPublicReviews(list), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func formatPublicReviews(list models.ReviewList) string {
	if list.Count == 0 {
		return "⭐️ <b>Отзывы</b>\n\nНа данный момент отзывов еще нет."
	}

	var sb strings.Builder
	sb.WriteString("⭐️ <b>Отзывы клиентов</b>\n\n📊 <b>Статистика:</b>\n")
	fmt.Fprintf(&sb, "• Всего отзывов: %d\n", list.Count)
	fmt.Fprintf(&sb, "• Средняя оценка: %.1f/5\n\n", list.AverageRating)

	for i, r := range list.Reviews {
		if i == publicReviewsShown {
			break
		}
		date := "Дата неизвестна"
		if fields := strings.Fields(r.Date); len(fields) > 0 {
			date = fields[0]
		}
		fmt.Fprintf(&sb, "%d. <b>%s</b> %s (%d/5)\n", i+1, escape(orDefault(r.ClientName, "Аноним")), stars(r.Rating), r.Rating)
		if r.Text != "" {
			fmt.Fprintf(&sb, "   <i>\"%s\"</i>\n", escape(truncate(r.Text, 60)))
		}
		fmt.Fprintf(&sb, "   📅 %s\n\n", escape(date))
	}
	return sb.String()
}

func (b *Bot) showReviewInfo(chatID int64, msgID int) {
	text := "⭐️ <b>Как оставить отзыв?</b>\n\n" +
		"Отзыв можно оставить только после посещения коворкинга.\n\n" +
		"• Откройте /my_bookings\n" +
		"• У оплаченной прошедшей брони нажмите «Оставить отзыв»\n" +
		"• Поставьте оценку от 1 до 5 и при желании добавьте комментарий\n\n" +
		"Отзывы проходят модерацию."
	kb := verticalKeyboard(
		[2]string{"📋 Мои брони", models.CallbackMyBookings},
		[2]string{"↩️ Назад к отзывам", callbackReviewsBack},
	)
	b.edit(chatID, msgID, text, &kb)
}

func (b *Bot) showAllReviews(ctx context.Context, chatID int64, msgID int) {
	back := backKeyboard("↩️ Назад", callbackAdminBack)
	list, err := b.backend.Reviews(ctx, models.ReviewsQuery{Limit: adminReviewsLimit})
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("Failed to load reviews")
		b.edit(chatID, msgID, "❌ Ошибка загрузки отзывов: "+escape(backendMessage(err)), &back)
		return
	}
	if len(list.Reviews) == 0 {
		b.edit(chatID, msgID, "📭 Пока нет отзывов для модерации.", &back)
		return
	}

	var sb strings.Builder
	sb.WriteString("⭐ <b>Все отзывы (админ)</b>\n\n")
	hasPending := false
	for i, r := range list.Reviews {
		if !r.IsPublic {
			hasPending = true
		}
		if i >= adminReviewsShown {
			continue
		}
		status := "⏳ На модерации"
		if r.IsPublic {
			status = "✅ Опубликован"
		}
		fmt.Fprintf(&sb, "<b>%d. %s</b>\n", i+1, escape(orDefault(r.ClientName, "Клиент")))
		fmt.Fprintf(&sb, "   Оценка: %s (%d/5)\n", stars(r.Rating), r.Rating)
		fmt.Fprintf(&sb, "   Статус: %s\n", status)
		if r.Text != "" {
			fmt.Fprintf(&sb, "   Отзыв: %s\n", escape(truncate(r.Text, 50)))
		}
		if r.Date != "" {
			fmt.Fprintf(&sb, "   Дата: %s\n", escape(r.Date))
		}
		fmt.Fprintf(&sb, "   ID: <code>%s</code>\n\n", escape(orDefault(r.ID, "N/A")))
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	if hasPending {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📈 Статистика", "admin_review_stats")))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("↩️ Назад", callbackAdminBack)))
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.edit(chatID, msgID, sb.String(), &kb)
}

func (b *Bot) showReviewStats(ctx context.Context, chatID int64, msgID int) {
	list, err := b.backend.Reviews(ctx, models.ReviewsQuery{Limit: reviewStatsLimit})
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("Failed to load review stats")
		back := backKeyboard("↩️ Назад", callbackAdminBack)
		b.edit(chatID, msgID, "❌ Ошибка загрузки статистики: "+escape(backendMessage(err)), &back)
		return
	}

	kb := verticalKeyboard(
		[2]string{"📋 Все отзывы", "admin_all_reviews"},
		[2]string{"↩️ Назад", callbackAdminBack},
	)
	b.edit(chatID, msgID, formatReviewStats(list), &kb)
}

func formatReviewStats(list models.ReviewList) string {
	var counts [6]int
	public := 0
	for _, r := range list.Reviews {
		if r.Rating >= 1 && r.Rating <= 5 {
			counts[r.Rating]++
		}
		if r.IsPublic {
			public++
		}
	}
	total := len(list.Reviews)

	var sb strings.Builder
	sb.WriteString("📊 <b>Статистика отзывов</b>\n\n")
	fmt.Fprintf(&sb, "📈 Всего отзывов: <b>%d</b>\n", total)
	fmt.Fprintf(&sb, "✅ Опубликовано: <b>%d</b>\n", public)
	fmt.Fprintf(&sb, "⏳ На модерации: <b>%d</b>\n", total-public)
	fmt.Fprintf(&sb, "⭐ Средняя оценка: <b>%.1f/5</b>\n\n", list.AverageRating)
	sb.WriteString("<b>Распределение оценок:</b>\n")
	for rating := 5; rating >= 1; rating-- {
		var pct float64
		if total > 0 {
			pct = float64(counts[rating]) / float64(total) * 100
		}
		bar := strings.Repeat("█", int(pct/5))
		fmt.Fprintf(&sb, "%s: %s %d (%.1f%%)\n", stars(rating), bar, counts[rating], pct)
	}
	return sb.String()
}

// startReview opens the review flow from a deep link. Only the owner of a
// paid booking may review it.
func (b *Bot) startReview(ctx context.Context, conv models.ConversationID, recordID string) error {
	if recordID == "" {
		return b.resetToMenu(ctx, conv)
	}

	bk, err := b.findUserBooking(ctx, conv.UserID, recordID)
	switch {
	case errors.Is(err, ErrBookingNotFound):
		b.sendText(conv.ChatID, "❌ Бронь не найдена или у вас нет прав оставить отзыв.")
		return nil
	case err != nil:
		b.reportBackendError(ctx, conv.ChatID, conv.UserID, msgRequestFailed, "get_user_bookings", err)
		return nil
	case !bk.IsPaid():
		b.sendText(conv.ChatID, "❌ Отзыв можно оставить только по оплаченной брони.")
		return nil
	}

	if err := b.state.Set(ctx, conv, models.LeavingReview{RecordID: recordID}); err != nil {
		return err
	}
	b.sendInline(conv.ChatID,
		fmt.Sprintf("⭐ Оцените посещение %s %s (бронь #%s):", escape(bk.Date), escape(bk.Time), escape(recordID)),
		ratingKeyboard())
	return nil
}

func (b *Bot) handleReviewRating(ctx context.Context, conv models.ConversationID, msgID int, raw string) error {
	state, err := b.state.Get(ctx, conv)
	if err != nil {
		return err
	}
	st, ok := state.(models.LeavingReview)
	if !ok {
		b.edit(conv.ChatID, msgID, "⚠️ Сессия отзыва устарела. Откройте ссылку из /my_bookings ещё раз.", nil)
		return nil
	}

	rating, err := strconv.Atoi(raw)
	if err != nil || rating < 1 || rating > 5 {
		zerolog.Ctx(ctx).Warn().Str("rating", raw).Msg("Invalid review rating")
		return nil
	}

	st.Rating = rating
	if err := b.state.Set(ctx, conv, st); err != nil {
		return err
	}
	b.edit(conv.ChatID, msgID,
		fmt.Sprintf("Ваша оценка: %s (%d/5)\n\nНапишите пару слов о посещении или отправьте /skip.", stars(rating), rating), nil)
	return nil
}

// handleReviewText finishes the review. An empty text comes from /skip.
func (b *Bot) handleReviewText(ctx context.Context, conv models.ConversationID, st models.LeavingReview, text string) error {
	if st.Rating == 0 {
		b.sendInline(conv.ChatID, "Сначала выберите оценку:", ratingKeyboard())
		return nil
	}
	text = truncate(strings.TrimSpace(text), maxReviewRunes)

	req := models.ReviewRequest{RecordID: st.RecordID, Rating: st.Rating, Text: text, UserID: conv.UserID}
	if err := b.backend.SaveReview(ctx, req); err != nil {
		b.reportBackendError(ctx, conv.ChatID, conv.UserID, "⚠️ Не удалось сохранить отзыв. Попробуйте позже.", "save_review", err)
		return nil
	}
	if err := b.state.Clear(ctx, conv); err != nil {
		return err
	}

	b.sendReply(conv.ChatID, "🙏 Спасибо за отзыв!", b.mainMenuKeyboard(b.content.Get(ctx, service.ContentBookingButtonLabel)))
	b.publish(ctx, events.ReviewSaved, events.ReviewPayload{
		RecordID: st.RecordID,
		Rating:   st.Rating,
		Text:     text,
		UserID:   conv.UserID,
	})
	return nil
}

package bot

import (
	"context"
	"fmt"
	"strings"

	"coworkingbot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const (
	msgAdminPanel = "👑 <b>Админ-панель</b>\n\nВыберите действие:"

	callbackAdminBack       = "admin_back"
	callbackAdminSummary    = "admin_summary"
	callbackAdminExceptions = "admin_exceptions"
	callbackAdminSettings   = "admin_settings"
	callbackAdminUsers      = "admin_users"
	callbackReportMenu      = "report_menu"
)

func adminPanelKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Сводка", callbackAdminSummary),
			tgbotapi.NewInlineKeyboardButtonData("⛔️ Исключения", callbackAdminExceptions),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🧩 Настройки", callbackAdminSettings),
			tgbotapi.NewInlineKeyboardButtonData("👤 Пользователи", callbackAdminUsers),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 Сегодня", "admin_view_today"),
			tgbotapi.NewInlineKeyboardButtonData("📅 Завтра", "admin_view_tomorrow"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📈 Отчеты", callbackReportMenu),
			tgbotapi.NewInlineKeyboardButtonData("⭐ Отзывы", "admin_all_reviews"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🧪 Диагностика", "admin_diagnostics"),
			tgbotapi.NewInlineKeyboardButtonData("❓ Помощь", "admin_help"),
		),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🚪 Выйти", models.CallbackMainMenu)),
	)
}

func verticalKeyboard(buttons ...[2]string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, btn := range buttons {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(btn[0], btn[1])))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// adminFailure logs a backend failure and renders it for an admin reply.
func (b *Bot) adminFailure(ctx context.Context, where string, err error) string {
	zerolog.Ctx(ctx).Warn().Err(err).Str("where", where).Msg("Admin request failed")
	return "❌ Ошибка: " + escape(backendMessage(err))
}

func (b *Bot) handleAdminCallback(ctx context.Context, conv models.ConversationID, msgID int, data string) error {
	back := backKeyboard("↩️ Назад", callbackAdminBack)

	switch data {
	case callbackAdminBack:
		if err := b.state.Clear(ctx, conv); err != nil {
			return err
		}
		kb := adminPanelKeyboard()
		b.edit(conv.ChatID, msgID, msgAdminPanel, &kb)

	case models.CallbackAdminActionConfirm:
		return b.confirmPendingAction(ctx, conv, msgID)
	case models.CallbackAdminActionCancel:
		return b.cancelPendingAction(ctx, conv, msgID)

	case callbackAdminSummary:
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Сегодня", "admin_summary_today"),
				tgbotapi.NewInlineKeyboardButtonData("Неделя", "admin_summary_week"),
			),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("↩️ Назад", callbackAdminBack)),
		)
		b.edit(conv.ChatID, msgID, "📊 <b>Сводка</b>\n\nВыберите период:", &kb)
	case "admin_summary_today":
		b.showReport(ctx, conv.ChatID, msgID, reportDaily, callbackAdminSummary)
	case "admin_summary_week":
		b.showReport(ctx, conv.ChatID, msgID, reportWeekly, callbackAdminSummary)

	case callbackAdminExceptions:
		kb := verticalKeyboard(
			[2]string{"📋 Список", "admin_exceptions_list"},
			[2]string{"➕ Закрыть дату", "admin_exceptions_add_date"},
			[2]string{"➕ Закрыть слот", "admin_exceptions_add_slot"},
			[2]string{"➖ Удалить", "admin_exceptions_remove"},
			[2]string{"↩️ Назад", callbackAdminBack},
		)
		b.edit(conv.ChatID, msgID, "⛔️ <b>Исключения</b>\n\nЗакрытые даты и слоты:", &kb)
	case "admin_exceptions_list":
		b.showExceptions(ctx, conv.ChatID, msgID)
	case "admin_exceptions_add_date":
		return b.beginAdminInput(ctx, conv, models.PendingAddExceptionDate, "",
			"Введите дату в формате ДД.ММ.ГГГГ, которую нужно закрыть.")
	case "admin_exceptions_add_slot":
		return b.beginAdminInput(ctx, conv, models.PendingAddExceptionSlot, "",
			"Введите слот в формате ДД.ММ.ГГГГ 10:00-12:00, который нужно закрыть.")
	case "admin_exceptions_remove":
		return b.beginAdminInput(ctx, conv, models.PendingRemoveException, "", "Введите ID исключения для удаления.")

	case callbackAdminSettings:
		b.showSettings(ctx, conv.ChatID, msgID)
	case "admin_settings_rules":
		return b.beginAdminInput(ctx, conv, models.PendingUpdateSetting, models.SettingRulesText, "Введите новый текст правил.")
	case "admin_settings_limit":
		return b.beginAdminInput(ctx, conv, models.PendingUpdateSetting, models.SettingBookingLimit,
			"Введите новый лимит бронирований (число).")
	case "admin_settings_window":
		return b.beginAdminInput(ctx, conv, models.PendingUpdateSetting, models.SettingTimeWindows,
			"Введите новые окна времени (например: 10:00-22:00).")

	case callbackAdminUsers:
		kb := verticalKeyboard(
			[2]string{"📋 Список банов", "admin_users_list"},
			[2]string{"🚫 Забанить", "admin_users_ban"},
			[2]string{"♻️ Разбанить", "admin_users_unban"},
			[2]string{"↩️ Назад", callbackAdminBack},
		)
		b.edit(conv.ChatID, msgID, "👤 <b>Пользователи</b>", &kb)
	case "admin_users_list":
		b.showBannedUsers(ctx, conv.ChatID, msgID)
	case "admin_users_ban":
		return b.beginAdminInput(ctx, conv, models.PendingBanUser, "", "Введите ID пользователя для бана.")
	case "admin_users_unban":
		return b.beginAdminInput(ctx, conv, models.PendingUnbanUser, "", "Введите ID пользователя для разбана.")

	case "admin_view_today":
		text, err := b.todayText(ctx)
		if err != nil {
			text = b.adminFailure(ctx, "get_today_bookings", err)
		}
		b.edit(conv.ChatID, msgID, text, &back)
	case "admin_view_tomorrow":
		text, err := b.tomorrowText(ctx)
		if err != nil {
			text = b.adminFailure(ctx, "get_busy_slots", err)
		}
		b.edit(conv.ChatID, msgID, text, &back)

	case "admin_stats":
		b.showStats(ctx, conv, msgID)

	case "admin_diagnostics":
		report, _ := b.selfCheck(ctx)
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🔄 Автоотмена", "admin_auto_cancel"),
				tgbotapi.NewInlineKeyboardButtonData("🔔 Напоминания", "admin_send_reminders"),
			),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("↩️ Назад", callbackAdminBack)),
		)
		b.edit(conv.ChatID, msgID, report, &kb)
	case "admin_auto_cancel":
		b.runAutoCancel(ctx, conv.ChatID, msgID)
	case "admin_send_reminders":
		b.runReminders(ctx, conv.ChatID, msgID)

	case "admin_all_reviews":
		b.showAllReviews(ctx, conv.ChatID, msgID)
	case "admin_review_stats":
		b.showReviewStats(ctx, conv.ChatID, msgID)

	case "admin_help":
		b.edit(conv.ChatID, msgID, b.texts.AdminHelp, &back)

	default:
		zerolog.Ctx(ctx).Warn().Str("data", data).Msg("Unknown admin callback")
	}
	return nil
}

func (b *Bot) showExceptions(ctx context.Context, chatID int64, msgID int) {
	kb := backKeyboard("↩️ Назад", callbackAdminExceptions)
	list, err := b.backend.Exceptions(ctx)
	if err != nil {
		b.edit(chatID, msgID, b.adminFailure(ctx, "get_exceptions", err), &kb)
		return
	}
	if len(list) == 0 {
		b.edit(chatID, msgID, "📭 Исключений нет.", &kb)
		return
	}

	var sb strings.Builder
	sb.WriteString("⛔️ <b>Исключения</b>\n\n")
	for _, e := range list {
		fmt.Fprintf(&sb, "• <code>%s</code> %s %s\n", escape(orDefault(e.ID, "N/A")), escape(e.Date), escape(e.Slot))
	}
	b.edit(chatID, msgID, sb.String(), &kb)
}

func (b *Bot) showSettings(ctx context.Context, chatID int64, msgID int) {
	kb := verticalKeyboard(
		[2]string{"📄 Правила", "admin_settings_rules"},
		[2]string{"🔢 Лимит бронирований", "admin_settings_limit"},
		[2]string{"⏰ Окна времени", "admin_settings_window"},
		[2]string{"↩️ Назад", callbackAdminBack},
	)

	settings, err := b.backend.Settings(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("Failed to load settings")
		b.edit(chatID, msgID, "🧩 <b>Настройки</b>\n\n⚠️ Не удалось загрузить настройки.", &kb)
		return
	}

	const unset = "не задано"
	text := fmt.Sprintf("🧩 <b>Настройки</b>\n\n• Правила: %s\n• Лимит бронирований: %s\n• Окна времени: %s\n",
		escape(orDefault(settings.RulesText, unset)),
		escape(orDefault(settings.BookingLimit, unset)),
		escape(orDefault(settings.TimeWindows, unset)))
	b.edit(chatID, msgID, text, &kb)
}

func (b *Bot) showBannedUsers(ctx context.Context, chatID int64, msgID int) {
	kb := backKeyboard("↩️ Назад", callbackAdminUsers)
	users, err := b.backend.BannedUsers(ctx)
	if err != nil {
		b.edit(chatID, msgID, b.adminFailure(ctx, "list_banned_users", err), &kb)
		return
	}
	if len(users) == 0 {
		b.edit(chatID, msgID, "✅ Забаненных пользователей нет.", &kb)
		return
	}

	var sb strings.Builder
	sb.WriteString("🚫 <b>Забаненные пользователи</b>\n\n")
	for _, u := range users {
		fmt.Fprintf(&sb, "• <code>%s</code>\n", escape(u))
	}
	b.edit(chatID, msgID, sb.String(), &kb)
}

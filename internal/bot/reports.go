package bot

import (
	"context"
	"fmt"
	"os"
	"strings"

	"coworkingbot/internal/models"
	"coworkingbot/internal/report"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Report types and periods understood by get_report.
const (
	reportDaily    = "daily"
	reportWeekly   = "weekly"
	reportMonthly  = "monthly"
	reportDetailed = "detailed"

	periodCurrent = "current"
	periodLast    = "last"
	periodAll     = "all"
)

var periodTitles = map[string]string{
	periodCurrent: "Текущий месяц",
	periodLast:    "Предыдущий месяц",
	periodAll:     "За всё время",
}

// reply edits msgID in place, or sends a new message when msgID is 0.
func (b *Bot) reply(chatID int64, msgID int, text string, kb tgbotapi.InlineKeyboardMarkup) {
	if msgID == 0 {
		b.sendInline(chatID, text, kb)
		return
	}
	b.edit(chatID, msgID, text, &kb)
}

func (b *Bot) showStats(ctx context.Context, conv models.ConversationID, msgID int) {
	rep, err := b.backend.Stats(ctx)
	if err != nil {
		b.reply(conv.ChatID, msgID, b.adminFailure(ctx, "get_stats", err), backKeyboard("↩️ Назад", callbackAdminBack))
		return
	}
	kb := verticalKeyboard(
		[2]string{"📊 Подробный отчет", models.CallbackReportDetailed + periodCurrent},
		[2]string{"↩️ В админ-панель", callbackAdminBack},
	)
	b.reply(conv.ChatID, msgID, orDefault(rep.FormattedTelegram, "Статистика не доступна"), kb)
}

func (b *Bot) handleReportCallback(ctx context.Context, conv models.ConversationID, msgID int, data string) {
	switch data {
	case callbackReportMenu:
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("📊 Ежедневный", "report_daily"),
				tgbotapi.NewInlineKeyboardButtonData("📈 Еженедельный", "report_weekly"),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("📅 Ежемесячный", "report_monthly"),
				tgbotapi.NewInlineKeyboardButtonData("📋 Детальный", "report_detailed"),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🚀 Быстрая статистика", "report_quick_stats"),
				tgbotapi.NewInlineKeyboardButtonData("🧪 Тест подключения", "report_test_connection"),
			),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("↩️ Назад", callbackAdminBack)),
		)
		b.edit(conv.ChatID, msgID, "📈 <b>Система отчетности</b>\n\nВыберите тип отчета или действие:", &kb)
		return
	case "report_daily":
		b.showReport(ctx, conv.ChatID, msgID, reportDaily, callbackReportMenu)
		return
	case "report_weekly":
		b.showReport(ctx, conv.ChatID, msgID, reportWeekly, callbackReportMenu)
		return
	case "report_monthly":
		b.showReport(ctx, conv.ChatID, msgID, reportMonthly, callbackReportMenu)
		return
	case "report_detailed":
		kb := verticalKeyboard(
			[2]string{"📅 Текущий месяц", models.CallbackReportDetailed + periodCurrent},
			[2]string{"📅 Предыдущий месяц", models.CallbackReportDetailed + periodLast},
			[2]string{"📅 За всё время", models.CallbackReportDetailed + periodAll},
			[2]string{"↩️ Назад", callbackReportMenu},
		)
		b.edit(conv.ChatID, msgID, "📊 <b>Детальный отчет</b>\n\nВыберите период:", &kb)
		return
	case "report_quick_stats":
		b.showStats(ctx, conv, msgID)
		return
	case "report_test_connection":
		b.testConnection(ctx, conv.ChatID)
		return
	}

	switch {
	case strings.HasPrefix(data, models.CallbackReportDetailed):
		b.showDetailedReport(ctx, conv.ChatID, msgID, strings.TrimPrefix(data, models.CallbackReportDetailed))
	case strings.HasPrefix(data, models.CallbackReportExport):
		b.exportReport(ctx, conv, strings.TrimPrefix(data, models.CallbackReportExport))
	default:
		zerolog.Ctx(ctx).Warn().Str("data", data).Msg("Unknown report callback")
	}
}

// showReport renders a backend-formatted report with a single back button.
func (b *Bot) showReport(ctx context.Context, chatID int64, msgID int, reportType, backTo string) {
	rep, err := b.backend.Report(ctx, reportType, periodCurrent)
	if err != nil {
		kb := backKeyboard("↩️ Назад", backTo)
		b.edit(chatID, msgID, b.adminFailure(ctx, "get_report", err), &kb)
		return
	}
	label := "↩️ Назад к отчетам"
	if backTo != callbackReportMenu {
		label = "↩️ Назад"
	}
	kb := backKeyboard(label, backTo)
	b.edit(chatID, msgID, orDefault(rep.FormattedTelegram, "Отчет сформирован"), &kb)
}

func (b *Bot) showDetailedReport(ctx context.Context, chatID int64, msgID int, period string) {
	title, ok := periodTitles[period]
	if !ok {
		kb := backKeyboard("↩️ Назад", callbackReportMenu)
		b.edit(chatID, msgID, "❌ Неизвестный период отчета.", &kb)
		return
	}

	rep, err := b.backend.Report(ctx, reportDetailed, period)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("period", period).Msg("Detailed report failed")
		kb := backKeyboard("↩️ Назад", callbackReportMenu)
		b.edit(chatID, msgID, "❌ Ошибка генерации отчета: "+escape(backendMessage(err)), &kb)
		return
	}

	kb := verticalKeyboard(
		[2]string{"📥 Выгрузить в Excel", models.CallbackReportExport + period},
		[2]string{"↩️ Назад к отчетам", callbackReportMenu},
	)
	b.edit(chatID, msgID, formatDetailedReport(title, rep.Summary), &kb)
}

func formatDetailedReport(title string, s models.ReportSummary) string {
	var sb strings.Builder
	sb.WriteString("📊 <b>Детальный отчет</b>\n\n")
	fmt.Fprintf(&sb, "📅 <b>Период:</b> %s\n", title)
	sb.WriteString("\n📈 <b>Сводка:</b>\n")
	fmt.Fprintf(&sb, "• Всего броней: %d\n", s.TotalBookings)
	fmt.Fprintf(&sb, "• Оплачено: %d\n", s.PaidBookings)
	fmt.Fprintf(&sb, "• Не оплачено: %d\n", s.UnpaidBookings)
	fmt.Fprintf(&sb, "• Общий доход: %s ₽\n", formatPrice(s.TotalIncome))
	fmt.Fprintf(&sb, "• Конверсия: %s%%\n", formatPrice(s.ConversionRate))
	fmt.Fprintf(&sb, "• Средний чек: %s ₽\n", formatPrice(s.AvgCheck))
	return sb.String()
}

// exportReport builds an Excel workbook from the detailed report and sends it
// as a document. The file is removed once sent.
func (b *Bot) exportReport(ctx context.Context, conv models.ConversationID, period string) {
	l := zerolog.Ctx(ctx)
	if _, ok := periodTitles[period]; !ok {
		b.sendHTML(conv.ChatID, "❌ Период должен быть одним из: <code>current</code>, <code>last</code>, <code>all</code>.")
		return
	}

	rep, err := b.backend.Report(ctx, reportDetailed, period)
	if err != nil {
		b.sendHTML(conv.ChatID, b.adminFailure(ctx, "get_report", err))
		return
	}

	path, err := report.Export(rep, b.config.Exports.Path)
	if err != nil {
		l.Error().Err(err).Str("period", period).Msg("Failed to build export")
		b.sendText(conv.ChatID, "❌ Не удалось сформировать файл отчета.")
		return
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			l.Warn().Err(err).Str("path", path).Msg("Failed to remove export file")
		}
	}()

	caption := fmt.Sprintf("📊 Детальный отчет: %s", periodTitles[period])
	if _, err := b.tgService.SendDocument(conv.ChatID, path, caption); err != nil {
		l.Error().Err(err).Str("path", path).Msg("Failed to send export")
		b.sendText(conv.ChatID, "❌ Не удалось отправить файл отчета.")
		return
	}
	l.Info().Str("period", period).Int("rows", len(rep.Bookings)).Msg("Report exported")
}

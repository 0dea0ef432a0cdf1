package bot

import (
	"fmt"
	"time"

	"coworkingbot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Reply-keyboard labels of the booking confirmation step.
const (
	btnConfirm    = "✅ Подтвердить"
	btnCancelFlow = "❌ Отменить"
	btnChangeName = "✏️ Изменить имя"
	btnSendPhone  = "📱 Отправить телефон"
)

const buttonsPerRow = 3

func (b *Bot) mainMenuKeyboard(bookingLabel string) tgbotapi.ReplyKeyboardMarkup {
	btn := b.texts.Buttons
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(bookingLabel)),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btn.MyBookings),
			tgbotapi.NewKeyboardButton(btn.Reviews),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btn.Rules),
			tgbotapi.NewKeyboardButton(btn.Support),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func (b *Bot) menuOnlyKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(b.texts.Buttons.Menu)),
	)
	kb.ResizeKeyboard = true
	return kb
}

// gridKeyboard lays labels out buttonsPerRow per row with the menu button last.
func (b *Bot) gridKeyboard(labels []string) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	var row []tgbotapi.KeyboardButton
	for _, l := range labels {
		row = append(row, tgbotapi.NewKeyboardButton(l))
		if len(row) == buttonsPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(b.texts.Buttons.Menu)))

	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	return kb
}

// dateKeyboard offers the next n calendar days starting today.
func (b *Bot) dateKeyboard(now time.Time) tgbotapi.ReplyKeyboardMarkup {
	n := b.config.Bot.DateSuggestions
	local := now.In(b.config.Location())
	dates := make([]string, 0, n)
	for i := 0; i < n; i++ {
		dates = append(dates, local.AddDate(0, 0, i).Format(models.DateLayout))
	}
	return b.gridKeyboard(dates)
}

func (b *Bot) slotKeyboard(slots []string) tgbotapi.ReplyKeyboardMarkup {
	return b.gridKeyboard(slots)
}

func (b *Bot) confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonContact(btnSendPhone)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnChangeName)),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancelFlow),
		),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(b.texts.Buttons.Menu)),
	)
	kb.ResizeKeyboard = true
	return kb
}

func yesNoKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Подтвердить", models.CallbackAdminActionConfirm),
			tgbotapi.NewInlineKeyboardButtonData("↩️ Отмена", models.CallbackAdminActionCancel),
		),
	)
}

func backKeyboard(label, data string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(label, data)),
	)
}

func menuInlineKeyboard() tgbotapi.InlineKeyboardMarkup {
	return backKeyboard("🏠 В меню", models.CallbackMainMenu)
}

func myBookingsKeyboard(bookings []models.Booking) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, bk := range bookings {
		if bk.ID == "" || bk.IsPaid() {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("❌ Отменить #%d", i+1), models.CallbackBookingCancel+bk.ID),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("🔄 Перенести #%d", i+1), models.CallbackBookingReschedule+bk.ID),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🏠 В меню", models.CallbackMainMenu),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func ratingKeyboard() tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, 5)
	for i := 1; i <= 5; i++ {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d ⭐", i), fmt.Sprintf("%s%d", models.CallbackReviewRate, i)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

package bot

import (
	"context"
	"fmt"

	"coworkingbot/internal/events"
	"coworkingbot/internal/metrics"
	"coworkingbot/internal/models"
	"coworkingbot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	msgEnterDate        = "📅 Введите дату в формате ДД.ММ.ГГГГ"
	msgEnterName        = "✍️ Введите ваше имя:"
	msgNameTooShort     = "❌ Имя должно содержать минимум 2 символа."
	msgSlotTaken        = "❌ Этот слот только что заняли! Выбирайте из доступных:"
	msgInvalidPhone     = "❌ Неверный формат телефона. Пример: +79991234567"
	msgPhoneRequired    = "📞 Пожалуйста, отправьте номер телефона (можно через кнопку)."
	msgBookingAborted   = "❌ Бронирование отменено."
	msgUseButtons       = "Пожалуйста, используйте кнопки ниже или отправьте номер телефона."
	msgPhoneNotProvided = "не указан"
)

// startBooking opens a fresh flow at ChoosingDate. hint, when set, is sent
// before the date prompt.
func (b *Bot) startBooking(ctx context.Context, conv models.ConversationID, hint string) error {
	if err := b.state.Set(ctx, conv, models.ChoosingDate{}); err != nil {
		return err
	}
	if hint != "" {
		b.sendHTML(conv.ChatID, hint)
	}
	b.sendReply(conv.ChatID, msgEnterDate, b.dateKeyboard(b.now()))
	return nil
}

func (b *Bot) handleDateInput(ctx context.Context, conv models.ConversationID, text string) error {
	d, err := ParseBookingDate(text, b.now(), b.config.Location())
	if err != nil {
		b.sendReply(conv.ChatID, b.getErrorMessage(err), b.dateKeyboard(b.now()))
		return nil
	}
	date := d.Format(models.DateLayout)

	slots, err := b.backend.FreeSlots(ctx, date)
	if err != nil {
		b.reportBackendError(ctx, conv.ChatID, conv.UserID, msgRequestFailed, "get_free_slots", err)
		return nil
	}
	if len(slots) == 0 {
		b.sendReply(conv.ChatID, fmt.Sprintf("😔 На %s нет свободных слотов. Выберите другую дату.", date), b.dateKeyboard(b.now()))
		return nil
	}

	if err := b.state.Set(ctx, conv, models.ChoosingTime{Date: date, FreeSlots: slots}); err != nil {
		return err
	}
	b.sendReply(conv.ChatID, fmt.Sprintf("🕐 Выберите время на %s:", date), b.slotKeyboard(slots))
	return nil
}

// handleSlotInput never trusts the cached list on a miss: the choice is
// re-checked against a live query before the flow advances.
func (b *Bot) handleSlotInput(ctx context.Context, conv models.ConversationID, from *tgbotapi.User, st models.ChoosingTime, text string) error {
	if !st.Contains(text) {
		live, err := b.backend.FreeSlots(ctx, st.Date)
		if err != nil {
			b.reportBackendError(ctx, conv.ChatID, conv.UserID, msgRequestFailed, "get_free_slots", err)
			return nil
		}
		fresh := models.ChoosingTime{Date: st.Date, FreeSlots: live}
		switch {
		case fresh.Contains(text):
		case len(live) == 0:
			if err := b.state.Set(ctx, conv, models.ChoosingDate{}); err != nil {
				return err
			}
			b.sendReply(conv.ChatID, fmt.Sprintf("😔 Все слоты на %s уже заняты. Выберите другую дату.", st.Date), b.dateKeyboard(b.now()))
			return nil
		default:
			if err := b.state.Set(ctx, conv, fresh); err != nil {
				return err
			}
			b.sendReply(conv.ChatID, msgSlotTaken, b.slotKeyboard(live))
			return nil
		}
	}

	if name, ok := ValidateName(profileName(from)); ok {
		draft, err := models.NewConfirmingBooking(st.Date, text, name, "")
		if err != nil {
			return err
		}
		return b.showConfirmation(ctx, conv, draft)
	}

	if err := b.state.Set(ctx, conv, models.GettingName{Date: st.Date, Slot: text}); err != nil {
		return err
	}
	b.sendReply(conv.ChatID, msgEnterName, b.menuOnlyKeyboard())
	return nil
}

func (b *Bot) handleNameInput(ctx context.Context, conv models.ConversationID, st models.GettingName, text string) error {
	name, ok := ValidateName(text)
	if !ok {
		b.sendReply(conv.ChatID, msgNameTooShort, b.menuOnlyKeyboard())
		return nil
	}
	draft, err := models.NewConfirmingBooking(st.Date, st.Slot, name, st.Phone)
	if err != nil {
		return err
	}
	return b.showConfirmation(ctx, conv, draft)
}

// showConfirmation stores the draft and renders the summary.
func (b *Bot) showConfirmation(ctx context.Context, conv models.ConversationID, draft models.ConfirmingBooking) error {
	if err := b.state.Set(ctx, conv, draft); err != nil {
		return err
	}
	phone := msgPhoneNotProvided
	if draft.HasPhone() {
		phone = escape(draft.Phone)
	}
	text := fmt.Sprintf("📋 <b>Проверьте данные брони:</b>\n\n📅 Дата: %s\n🕐 Время: %s\n👤 Имя: %s\n📞 Телефон: %s",
		escape(draft.Date), escape(draft.Slot), escape(draft.Name), phone)
	b.sendReply(conv.ChatID, text, b.confirmKeyboard())
	return nil
}

func (b *Bot) handleConfirmationInput(ctx context.Context, conv models.ConversationID, msg *tgbotapi.Message, st models.ConfirmingBooking) error {
	if msg.Contact != nil {
		phone, ok := NormalizePhone(msg.Contact.PhoneNumber)
		if !ok {
			b.sendReply(conv.ChatID, msgInvalidPhone, b.confirmKeyboard())
			return nil
		}
		return b.showConfirmation(ctx, conv, st.WithPhone(phone))
	}

	text := msg.Text
	if phone, ok := NormalizePhone(text); ok {
		return b.showConfirmation(ctx, conv, st.WithPhone(phone))
	}

	switch text {
	case btnChangeName:
		if err := b.state.Set(ctx, conv, models.GettingName{Date: st.Date, Slot: st.Slot, Phone: st.Phone}); err != nil {
			return err
		}
		b.sendReply(conv.ChatID, msgEnterName, b.menuOnlyKeyboard())
		return nil

	case btnCancelFlow:
		if err := b.state.Clear(ctx, conv); err != nil {
			return err
		}
		b.sendReply(conv.ChatID, msgBookingAborted, b.mainMenuKeyboard(b.content.Get(ctx, service.ContentBookingButtonLabel)))
		return nil

	case btnConfirm:
		if !st.HasPhone() {
			b.sendText(conv.ChatID, msgPhoneRequired)
			return b.showConfirmation(ctx, conv, st)
		}
		return b.submitBooking(ctx, conv, st)
	}

	b.sendText(conv.ChatID, msgUseButtons)
	return b.showConfirmation(ctx, conv, st)
}

// submitBooking sends the draft to the backend. On failure the draft stays so
// the user can retry.
func (b *Bot) submitBooking(ctx context.Context, conv models.ConversationID, st models.ConfirmingBooking) error {
	req := st.Request(conv.UserID)
	created, err := b.backend.CreateBooking(ctx, req)
	if err != nil {
		b.reportBackendError(ctx, conv.ChatID, conv.UserID, msgRequestFailed, "create_booking", err)
		return nil
	}
	metrics.IncBookingCreated()

	if err := b.state.Clear(ctx, conv); err != nil {
		return err
	}

	text := service.Render(b.content.Get(ctx, service.ContentBookingSuccess), map[string]string{
		"date":      escape(st.Date),
		"time":      escape(st.Slot),
		"name":      escape(st.Name),
		"phone":     escape(st.Phone),
		"record_id": escape(created.RecordID),
		"price":     formatPrice(created.Price),
	})
	b.sendReply(conv.ChatID, text, b.mainMenuKeyboard(b.content.Get(ctx, service.ContentBookingButtonLabel)))

	b.publish(ctx, events.BookingCreated, events.BookingPayload{
		RecordID: created.RecordID,
		Date:     st.Date,
		Slot:     st.Slot,
		Name:     st.Name,
		Phone:    st.Phone,
		Price:    created.Price,
		UserID:   conv.UserID,
		ChatID:   conv.ChatID,
	})
	return nil
}

package bot

import (
	"errors"

	"coworkingbot/internal/backend"
)

var (
	ErrNotAdmin        = errors.New("admin only")
	ErrBookingNotFound = errors.New("booking not found")
	ErrPaidBooking     = errors.New("booking is paid")
)

const (
	msgAdminOnly      = "⛔ Эта команда доступна только администраторам."
	msgNoAccess       = "⛔ Нет доступа"
	msgRequestFailed  = "⚠️ Не удалось выполнить запрос. Попробуйте позже."
	msgInternalError  = "⚠️ Произошла ошибка. Мы уже разбираемся."
	msgBookingMissing = "❌ Бронь не найдена."
	msgPaidBooking    = "❌ Оплаченную бронь нельзя отменить. Обратитесь в поддержку."
	msgDateFormat     = "❌ Неверный формат даты. Используйте ДД.ММ.ГГГГ"
	msgDateInPast     = "❌ Нельзя выбрать прошедшую дату."
)

func (b *Bot) getErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrNotAdmin):
		return msgAdminOnly
	case errors.Is(err, ErrBookingNotFound):
		return msgBookingMissing
	case errors.Is(err, ErrPaidBooking):
		return msgPaidBooking
	case errors.Is(err, ErrDateFormat):
		return msgDateFormat
	case errors.Is(err, ErrDateInPast):
		return msgDateInPast
	}

	var berr *backend.Error
	if errors.As(err, &berr) {
		return msgRequestFailed
	}

	return msgInternalError
}

// backendMessage extracts the backend's own description for admin-facing replies.
func backendMessage(err error) string {
	var berr *backend.Error
	if errors.As(err, &berr) && berr.Message != "" {
		return berr.Message
	}
	return err.Error()
}

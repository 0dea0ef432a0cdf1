package bot

import (
	"testing"

	"coworkingbot/internal/backend"
	"coworkingbot/internal/events"
	"coworkingbot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCancelOwnBooking(t *testing.T) {
	env := newTestEnv(t)
	env.backend.On("UserBookings", mock.Anything, testUserID, false).
		Return([]models.Booking{{ID: "ID_1", Date: "12.03.2026", Time: "10:00-12:00", Status: "Не оплачено"}}, nil)
	env.backend.On("CancelBookingByUser", mock.Anything, "ID_1", testUserID).Return(nil)

	env.callback(testUserID, models.CallbackBookingCancelConfirm+"ID_1")

	last := env.tg.last()
	assert.True(t, last.edited)
	assert.Equal(t, "✅ Бронь #ID_1 отменена.", last.text)

	canceled := env.bus.byType(events.BookingCanceled)
	require.Len(t, canceled, 1)
	payload := canceled[0].payload.(events.BookingPayload)
	assert.Equal(t, models.CancelReasonUser, payload.Reason)
	assert.Equal(t, testUserID, payload.ActorID)
}

func TestCancelPaidBookingRefused(t *testing.T) {
	env := newTestEnv(t)
	env.backend.On("UserBookings", mock.Anything, testUserID, false).
		Return([]models.Booking{{ID: "ID_3", Status: models.StatusPaid}}, nil)

	env.callback(testUserID, models.CallbackBookingCancelConfirm+"ID_3")

	assert.Equal(t, msgPaidBooking, env.tg.last().text)
	env.backend.AssertNotCalled(t, "CancelBookingByUser", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, env.bus.byType(events.BookingCanceled))
}

func TestCancelCommand(t *testing.T) {
	t.Run("usage without id", func(t *testing.T) {
		env := newTestEnv(t)
		env.sendCommand(testUserID, "/cancel", 7)
		assert.Equal(t, msgCancelUsage, env.tg.last().text)
	})

	t.Run("foreign booking is not found for a user", func(t *testing.T) {
		env := newTestEnv(t)
		env.backend.On("UserBookings", mock.Anything, testUserID, false).Return([]models.Booking{}, nil)

		env.sendCommand(testUserID, "/cancel ID_9", 7)

		assert.Equal(t, msgBookingMissing, env.tg.last().text)
		env.backend.AssertNotCalled(t, "ForceCancelBooking", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRescheduleCancelsAndRestarts(t *testing.T) {
	env := newTestEnv(t)
	env.backend.On("UserBookings", mock.Anything, testUserID, false).
		Return([]models.Booking{{ID: "ID_2", Date: "12.03.2026", Time: "14:00-16:00"}}, nil)
	env.backend.On("CancelBookingByUser", mock.Anything, "ID_2", testUserID).Return(nil)

	env.callback(testUserID, models.CallbackBookingRescheduleConfirm+"ID_2")

	assert.Equal(t, models.ChoosingDate{}, env.stateOf(t, testUserID))
	assert.Equal(t, msgEnterDate, env.tg.last().text)

	canceled := env.bus.byType(events.BookingCanceled)
	require.Len(t, canceled, 1)
	assert.Equal(t, models.CancelReasonReschedule, canceled[0].payload.(events.BookingPayload).Reason)
}

func TestAdminForceCancelNotifiesClient(t *testing.T) {
	env := newTestEnv(t)
	env.backend.On("UserBookings", mock.Anything, testAdminID, false).Return([]models.Booking{}, nil)
	env.backend.On("BookingInfo", mock.Anything, "ID_9").Return(models.Booking{
		ID:           "ID_9",
		Date:         "12.03.2026",
		Time:         "10:00-12:00",
		Name:         "Anna",
		Status:       models.StatusPaid,
		ClientChatID: 555,
	}, nil)
	env.backend.On("ForceCancelBooking", mock.Anything, "ID_9", testAdminID).Return(nil)

	env.sendCommand(testAdminID, "/cancel ID_9", 7)

	assert.Contains(t, env.tg.last().text, "Бронь отменена администратором")
	require.Len(t, env.notifier.direct, 1)
	assert.Equal(t, int64(555), env.notifier.direct[0].chatID)
	assert.Contains(t, env.notifier.direct[0].text, "#ID_9")

	canceled := env.bus.byType(events.BookingCanceled)
	require.Len(t, canceled, 1)
	payload := canceled[0].payload.(events.BookingPayload)
	assert.Equal(t, models.CancelReasonAdmin, payload.Reason)
	assert.Equal(t, testAdminID, payload.ActorID)
}

func TestAdminForceCancelUnknownBooking(t *testing.T) {
	env := newTestEnv(t)
	env.backend.On("UserBookings", mock.Anything, testAdminID, false).Return([]models.Booking{}, nil)
	env.backend.On("BookingInfo", mock.Anything, "ID_0").
		Return(models.Booking{}, &backend.Error{Action: "get_booking_info", Message: "not found"})

	env.sendCommand(testAdminID, "/cancel ID_0", 7)

	assert.Equal(t, "❌ Бронь не найдена: <code>ID_0</code>", env.tg.last().text)
	env.backend.AssertNotCalled(t, "ForceCancelBooking", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminForceCancelLookupFailure(t *testing.T) {
	env := newTestEnv(t)
	env.backend.On("UserBookings", mock.Anything, testAdminID, false).Return([]models.Booking{}, nil)
	env.backend.On("BookingInfo", mock.Anything, "ID_0").
		Return(models.Booking{}, &backend.Error{Action: "get_booking_info", Message: "Сервер не отвечает. Попробуйте позже.", Transport: true})

	env.sendCommand(testAdminID, "/cancel ID_0", 7)

	assert.Equal(t, "❌ Ошибка: Сервер не отвечает. Попробуйте позже.", env.tg.last().text)
	env.backend.AssertNotCalled(t, "ForceCancelBooking", mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmPayment(t *testing.T) {
	t.Run("first confirmation publishes", func(t *testing.T) {
		env := newTestEnv(t)
		env.backend.On("ConfirmPayment", mock.Anything, "ID_5", testAdminID).Return(models.PaymentConfirmation{
			RecordID:     "ID_5",
			ClientName:   "Anna",
			BookingDate:  "12.03.2026",
			BookingTime:  "10:00-12:00",
			ClientChatID: 555,
		}, nil)

		env.callback(testAdminID, models.CallbackConfirmPayment+"ID_5")

		assert.Contains(t, env.tg.last().text, "Оплата подтверждена!")
		confirmed := env.bus.byType(events.PaymentConfirmed)
		require.Len(t, confirmed, 1)
		assert.Equal(t, int64(555), confirmed[0].payload.(events.BookingPayload).ChatID)
	})

	t.Run("repeat confirmation is acknowledged only", func(t *testing.T) {
		env := newTestEnv(t)
		env.backend.On("ConfirmPayment", mock.Anything, "ID_5", testAdminID).
			Return(models.PaymentConfirmation{RecordID: "ID_5", AlreadyConfirmed: true}, nil)

		env.sendCommand(testAdminID, "/confirm ID_5", 8)

		assert.Equal(t, "✅ Оплата уже была подтверждена ранее", env.tg.last().text)
		assert.Empty(t, env.bus.byType(events.PaymentConfirmed))
	})
}

func TestMyBookingsReviewLink(t *testing.T) {
	env := newTestEnv(t)
	env.backend.On("UserBookings", mock.Anything, testUserID, false).Return([]models.Booking{
		{ID: "ID_past", Date: "01.03.2026", Time: "10:00-12:00", Status: models.StatusPaid},
		{ID: "ID_future", Date: "20.03.2026", Time: "10:00-12:00", Status: models.StatusPaid},
	}, nil)

	env.callback(testUserID, models.CallbackMyBookings)

	text := env.tg.last().text
	assert.Contains(t, text, "https://t.me/test_bot?start=review_ID_past")
	assert.NotContains(t, text, "start=review_ID_future")
}

func TestFormatDayBookings(t *testing.T) {
	text := formatDayBookings("Завтра", []models.Booking{
		{ID: "ID_1", Time: "10:00-12:00", Name: "Anna", Phone: "79991234567", Status: models.StatusPaid},
	}, true)
	assert.Contains(t, text, "Anna")
	assert.Contains(t, text, "10:00-12:00")
	assert.Contains(t, text, "79991234567")

	text = formatDayBookings("Сегодня", []models.Booking{{Time: "10:00-12:00", Status: "Не оплачено"}}, false)
	assert.Contains(t, text, "Статус: Не оплачено")
}

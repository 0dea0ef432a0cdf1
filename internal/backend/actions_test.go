package backend

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"coworkingbot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBookingPayloadAndDecode(t *testing.T) {
	c, fb := newTestClient(t)
	fb.on("create_booking", http.StatusOK, `{"status":"success","record_id":17,"price":"1 500,50"}`)

	created, err := c.CreateBooking(context.Background(), models.BookingRequest{
		Date: "01.02.2030", Slot: "10:00-12:00", Name: "Анна", Phone: "79991234567", UserID: 42,
	})
	require.NoError(t, err)
	assert.Equal(t, "17", created.RecordID)
	assert.InDelta(t, 1500.5, created.Price, 0.001)

	body := fb.last().Body
	assert.Equal(t, "10:00-12:00", body["time"])
	assert.Equal(t, "42", body["user_id"])
}

func TestTypedActionReturnsBackendError(t *testing.T) {
	c, fb := newTestClient(t)
	fb.on("cancel_booking", http.StatusOK, `{"status":"error","message":"Бронь оплачена"}`)

	err := c.CancelBookingByUser(context.Background(), "5", 42)
	require.Error(t, err)

	var be *Error
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "cancel_booking", be.Action)
	assert.Equal(t, "Бронь оплачена", be.Message)
	assert.False(t, be.Transport)
	assert.False(t, IsTransport(err))
	assert.Equal(t, "42", fb.last().Body["user_id"])
}

func TestTransportFailureIsMarked(t *testing.T) {
	c, fb := newTestClient(t)
	fb.on("get_booking_info", http.StatusInternalServerError, "boom")

	_, err := c.BookingInfo(context.Background(), "ID_1")
	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.Contains(t, err.Error(), "Ошибка сервера: 500")
	assert.False(t, IsTransport(errors.New("plain")))
	assert.False(t, IsTransport(nil))
}

func TestEmptyErrorMessage(t *testing.T) {
	c, fb := newTestClient(t)
	fb.on("ban_user", http.StatusOK, `{"status":"error"}`)

	err := c.BanUser(context.Background(), 9)
	var be *Error
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "Неизвестная ошибка", be.Message)
}

func TestForceCancelPayload(t *testing.T) {
	c, fb := newTestClient(t)
	fb.on("cancel_booking", http.StatusOK, `{"status":"success"}`)

	require.NoError(t, c.ForceCancelBooking(context.Background(), "5", 7))
	body := fb.last().Body
	assert.Equal(t, true, body["force"])
	assert.Equal(t, "7", body["admin_id"])
	assert.NotContains(t, body, "user_id")
}

func TestConfirmPaymentAlreadyConfirmed(t *testing.T) {
	c, fb := newTestClient(t)
	fb.on("confirm_payment", http.StatusOK,
		`{"status":"success","already_confirmed":"true","client_name":"Анна","client_chat_id":"42"}`)

	conf, err := c.ConfirmPayment(context.Background(), "5", 7)
	require.NoError(t, err)
	assert.True(t, conf.AlreadyConfirmed)
	assert.Equal(t, int64(42), conf.ClientChatID)
	assert.Equal(t, "5", conf.RecordID)
}

func TestUserBookingsFlexibleFields(t *testing.T) {
	c, fb := newTestClient(t)
	fb.on("get_user_bookings", http.StatusOK, `{"status":"success","bookings":[
		{"id":3,"date":"01.02.2030","time":"10:00-12:00","status":"Оплачено","price":500},
		{"id":"4","date":"02.02.2030","time":"12:00-14:00","status":"","price":"700"}
	]}`)

	bookings, err := c.UserBookings(context.Background(), 42, true)
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, "3", bookings[0].ID)
	assert.True(t, bookings[0].IsPaid())
	assert.InDelta(t, 700, bookings[1].Price, 0.001)
	assert.Equal(t, true, fb.last().Body["active_only"])
}

func TestBookingInfoShapes(t *testing.T) {
	t.Run("flat", func(t *testing.T) {
		c, fb := newTestClient(t)
		fb.on("get_booking_info", http.StatusOK,
			`{"status":"success","client_name":"Анна","booking_date":"01.02.2030","booking_time":"10:00-12:00","payment_status":"YES"}`)

		b, err := c.BookingInfo(context.Background(), "9")
		require.NoError(t, err)
		assert.Equal(t, "9", b.ID)
		assert.Equal(t, "Анна", b.Name)
		assert.True(t, b.IsPaid())
	})

	t.Run("nested", func(t *testing.T) {
		c, fb := newTestClient(t)
		fb.on("get_booking_info", http.StatusOK,
			`{"status":"success","booking":{"date":"01.02.2030","time":"10:00-12:00","name":"Олег","status":"Не оплачено"}}`)

		b, err := c.BookingInfo(context.Background(), "9")
		require.NoError(t, err)
		assert.Equal(t, "9", b.ID)
		assert.Equal(t, "Олег", b.Name)
		assert.False(t, b.IsPaid())
	})
}

func TestReportDecodesSummary(t *testing.T) {
	c, fb := newTestClient(t)
	fb.on("get_report", http.StatusOK, `{"status":"success","formatted_telegram":"<b>Отчет</b>","data":{
		"summary":{"totalBookings":"4","paidBookings":3,"unpaidBookings":1,"totalIncome":"1500","conversionRate":75,"avgCheck":500},
		"bookings":[{"id":1,"date":"01.02.2030","time":"10:00-12:00"}]}}`)

	rep, err := c.Report(context.Background(), "week", "")
	require.NoError(t, err)
	assert.Equal(t, "<b>Отчет</b>", rep.FormattedTelegram)
	assert.Equal(t, 4, rep.Summary.TotalBookings)
	assert.InDelta(t, 1500, rep.Summary.TotalIncome, 0.001)
	assert.Len(t, rep.Bookings, 1)

	body := fb.last().Body
	assert.Equal(t, "week", body["report_type"])
	assert.Equal(t, "current", body["period"])
}

func TestReportFallbackText(t *testing.T) {
	c, fb := newTestClient(t)
	fb.on("get_report", http.StatusOK, `{"status":"success"}`)
	fb.on("get_stats", http.StatusOK, `{"status":"success"}`)

	rep, err := c.Report(context.Background(), "day", "current")
	require.NoError(t, err)
	assert.Equal(t, "Отчет сформирован", rep.FormattedTelegram)

	stats, err := c.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Статистика не доступна", stats.FormattedTelegram)
}

func TestTypedDecodeFailure(t *testing.T) {
	c, fb := newTestClient(t)
	fb.on("get_free_slots", http.StatusOK, `{"status":"success","free_slots":"not a list"}`)

	_, err := c.FreeSlots(context.Background(), "01.02.2030")
	var be *Error
	require.True(t, errors.As(err, &be))
	assert.Contains(t, be.Message, "Ошибка формата ответа")
	assert.True(t, be.Transport)
}

func TestBannedUsersLabels(t *testing.T) {
	c, fb := newTestClient(t)
	fb.on("list_banned_users", http.StatusOK,
		`{"status":"success","users":[123,"456",{"user_id":789,"name":"Петр"}]}`)

	users, err := c.BannedUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"123", "456", "789 (Петр)"}, users)
}

func TestReviewsAndSaveReview(t *testing.T) {
	c, fb := newTestClient(t)
	fb.on("get_reviews", http.StatusOK, `{"status":"success","average_rating":"4,5","reviews":[
		{"id":1,"client_name":"А***","rating":"5","review_text":"Отлично","is_public":true},
		{"id":2,"client_name":"Б***","rating":4,"review_text":"","is_public":"да"}]}`)
	fb.on("save_review", http.StatusOK, `{"status":"success"}`)

	list, err := c.Reviews(context.Background(), models.ReviewsQuery{PublicOnly: true, Limit: 5, MaskNames: true})
	require.NoError(t, err)
	assert.Equal(t, 2, list.Count)
	assert.InDelta(t, 4.5, list.AverageRating, 0.001)
	assert.True(t, list.Reviews[1].IsPublic)

	require.NoError(t, c.SaveReview(context.Background(), models.ReviewRequest{RecordID: "3", Rating: 5, Text: "ok", UserID: 42}))
	body := fb.last().Body
	assert.Equal(t, "ok", body["review_text"])
	assert.Equal(t, float64(5), body["rating"])
	assert.Equal(t, "42", body["user_id"])
}

func TestDiagnostics(t *testing.T) {
	c, fb := newTestClient(t)
	fb.on("test_connection", http.StatusOK, `{"status":"success","message":"ok","timestamp":"2030-01-01T00:00:00Z"}`)
	fb.on("send_reminders", http.StatusOK, `{"status":"success","stats":{"day_before":2,"two_hours_before":"1","errors":0}}`)
	fb.on("auto_cancel", http.StatusOK, `{"status":"success","cancelled_count":"3"}`)

	conn, err := c.TestConnection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", conn.Message)

	stats, err := c.SendReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.ReminderStats{DayBefore: 2, TwoHoursBefore: 1}, stats)

	n, err := c.AutoCancel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

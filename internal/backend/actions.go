package backend

import (
	"context"
	"fmt"
	"strconv"

	"coworkingbot/internal/models"
)

// invoke runs action and decodes a successful reply into T.
func invoke[T any](ctx context.Context, c *Client, action string, payload map[string]any) (T, error) {
	var out T
	res := c.do(ctx, action, payload)
	if !res.OK() {
		return out, resultError(action, res)
	}
	if err := res.Decode(&out); err != nil {
		return out, &Error{Action: action, Message: fmt.Sprintf("Ошибка формата ответа: %v", err), Transport: true}
	}
	return out, nil
}

func exec(ctx context.Context, c *Client, action string, payload map[string]any) error {
	res := c.do(ctx, action, payload)
	if !res.OK() {
		return resultError(action, res)
	}
	return nil
}

func resultError(action string, res Result) error {
	msg := res.Message
	if msg == "" {
		msg = "Неизвестная ошибка"
	}
	return &Error{Action: action, Message: msg, Transport: res.Transport}
}

// FreeSlots returns the bookable slots for a date. Never cached.
func (c *Client) FreeSlots(ctx context.Context, date string) ([]string, error) {
	resp, err := invoke[freeSlotsResponse](ctx, c, "get_free_slots", map[string]any{"date": date})
	if err != nil {
		return nil, err
	}
	return resp.FreeSlots, nil
}

// BusySlots returns the bookings occupying a date.
func (c *Client) BusySlots(ctx context.Context, date string) ([]models.Booking, error) {
	resp, err := invoke[busySlotsResponse](ctx, c, "get_busy_slots", map[string]any{"date": date})
	if err != nil {
		return nil, err
	}
	return bookingModels(resp.BusySlots), nil
}

// CreateBooking books a slot and returns the new record id.
func (c *Client) CreateBooking(ctx context.Context, req models.BookingRequest) (models.CreatedBooking, error) {
	resp, err := invoke[createBookingResponse](ctx, c, "create_booking", map[string]any{
		"date":    req.Date,
		"time":    req.Slot,
		"name":    req.Name,
		"phone":   req.Phone,
		"user_id": strconv.FormatInt(req.UserID, 10),
	})
	if err != nil {
		return models.CreatedBooking{}, err
	}
	return models.CreatedBooking{
		RecordID: string(resp.RecordID),
		Price:    float64(resp.Price),
		Message:  resp.Message,
	}, nil
}

// CancelBookingByUser cancels the caller's own booking.
func (c *Client) CancelBookingByUser(ctx context.Context, recordID string, userID int64) error {
	return exec(ctx, c, "cancel_booking", map[string]any{
		"record_id": recordID,
		"user_id":   strconv.FormatInt(userID, 10),
	})
}

// ForceCancelBooking cancels any booking on behalf of an admin.
func (c *Client) ForceCancelBooking(ctx context.Context, recordID string, adminID int64) error {
	return exec(ctx, c, "cancel_booking", map[string]any{
		"record_id": recordID,
		"admin_id":  strconv.FormatInt(adminID, 10),
		"force":     true,
	})
}

// ConfirmPayment marks a booking as paid; a repeated call reports AlreadyConfirmed.
func (c *Client) ConfirmPayment(ctx context.Context, recordID string, adminID int64) (models.PaymentConfirmation, error) {
	resp, err := invoke[paymentResponse](ctx, c, "confirm_payment", map[string]any{
		"record_id": recordID,
		"admin_id":  strconv.FormatInt(adminID, 10),
	})
	if err != nil {
		return models.PaymentConfirmation{}, err
	}
	return models.PaymentConfirmation{
		RecordID:         recordID,
		AlreadyConfirmed: bool(resp.AlreadyConfirmed),
		ClientName:       string(resp.ClientName),
		BookingDate:      string(resp.BookingDate),
		BookingTime:      string(resp.BookingTime),
		ClientChatID:     int64(resp.ClientChatID),
		Message:          resp.Message,
	}, nil
}

// UserBookings lists a user's bookings, optionally only the active ones.
func (c *Client) UserBookings(ctx context.Context, userID int64, activeOnly bool) ([]models.Booking, error) {
	resp, err := invoke[bookingsResponse](ctx, c, "get_user_bookings", map[string]any{
		"user_id":     strconv.FormatInt(userID, 10),
		"active_only": activeOnly,
	})
	if err != nil {
		return nil, err
	}
	return bookingModels(resp.Bookings), nil
}

// BookingInfo fetches a single booking by record id.
func (c *Client) BookingInfo(ctx context.Context, recordID string) (models.Booking, error) {
	resp, err := invoke[bookingInfoResponse](ctx, c, "get_booking_info", map[string]any{"record_id": recordID})
	if err != nil {
		return models.Booking{}, err
	}
	return resp.model(recordID), nil
}

// TodayBookings lists every booking for the current day.
func (c *Client) TodayBookings(ctx context.Context) ([]models.Booking, error) {
	resp, err := invoke[bookingsResponse](ctx, c, "get_today_bookings", map[string]any{})
	if err != nil {
		return nil, err
	}
	return bookingModels(resp.Bookings), nil
}

// AddException closes a date or a slot.
func (c *Client) AddException(ctx context.Context, payload map[string]any) error {
	return exec(ctx, c, "add_exception", payload)
}

// RemoveException reopens a previously closed date or slot.
func (c *Client) RemoveException(ctx context.Context, id string) error {
	return exec(ctx, c, "remove_exception", map[string]any{"id": id})
}

// Exceptions lists closed dates and slots.
func (c *Client) Exceptions(ctx context.Context) ([]models.Exception, error) {
	resp, err := invoke[exceptionsResponse](ctx, c, "get_exceptions", map[string]any{})
	if err != nil {
		return nil, err
	}
	out := make([]models.Exception, 0, len(resp.Exceptions))
	for _, e := range resp.Exceptions {
		out = append(out, models.Exception{ID: string(e.ID), Type: string(e.Type), Date: string(e.Date), Slot: string(e.Slot)})
	}
	return out, nil
}

// Settings returns the booking rules, limit and time windows.
func (c *Client) Settings(ctx context.Context) (models.Settings, error) {
	resp, err := invoke[settingsResponse](ctx, c, "get_settings", map[string]any{})
	if err != nil {
		return models.Settings{}, err
	}
	return models.Settings{
		RulesText:    string(resp.Settings.RulesText),
		BookingLimit: string(resp.Settings.BookingLimit),
		TimeWindows:  string(resp.Settings.TimeWindows),
	}, nil
}

// UpdateSettings changes one or more settings.
func (c *Client) UpdateSettings(ctx context.Context, payload map[string]any) error {
	return exec(ctx, c, "update_settings", payload)
}

// BanUser blocks a user from booking.
func (c *Client) BanUser(ctx context.Context, userID int64) error {
	return exec(ctx, c, "ban_user", map[string]any{"user_id": userID})
}

// UnbanUser lifts a ban.
func (c *Client) UnbanUser(ctx context.Context, userID int64) error {
	return exec(ctx, c, "unban_user", map[string]any{"user_id": userID})
}

// BannedUsers returns display labels of banned users.
func (c *Client) BannedUsers(ctx context.Context) ([]string, error) {
	resp, err := invoke[bannedUsersResponse](ctx, c, "list_banned_users", map[string]any{})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(resp.Users))
	for _, raw := range resp.Users {
		out = append(out, bannedUserLabel(raw))
	}
	return out, nil
}

// Stats returns the preformatted overall statistics.
func (c *Client) Stats(ctx context.Context) (models.Report, error) {
	resp, err := invoke[statsResponse](ctx, c, "get_stats", map[string]any{})
	if err != nil {
		return models.Report{}, err
	}
	text := resp.FormattedTelegram
	if text == "" {
		text = "Статистика не доступна"
	}
	return models.Report{Type: "stats", FormattedTelegram: text}, nil
}

// Report fetches a report of the given type; an empty period means "current".
func (c *Client) Report(ctx context.Context, reportType, period string) (models.Report, error) {
	if period == "" {
		period = "current"
	}
	resp, err := invoke[reportResponse](ctx, c, "get_report", map[string]any{
		"report_type": reportType,
		"period":      period,
	})
	if err != nil {
		return models.Report{}, err
	}
	text := resp.FormattedTelegram
	if text == "" {
		text = "Отчет сформирован"
	}
	return models.Report{
		Type:              reportType,
		Period:            period,
		FormattedTelegram: text,
		Summary:           resp.Data.Summary.model(),
		Bookings:          bookingModels(resp.Data.Bookings),
	}, nil
}

// Reviews lists reviews with their average rating.
func (c *Client) Reviews(ctx context.Context, q models.ReviewsQuery) (models.ReviewList, error) {
	resp, err := invoke[reviewsResponse](ctx, c, "get_reviews", map[string]any{
		"public_only": q.PublicOnly,
		"limit":       q.Limit,
		"mask_names":  q.MaskNames,
	})
	if err != nil {
		return models.ReviewList{}, err
	}
	list := models.ReviewList{
		Count:         int(resp.Count),
		AverageRating: float64(resp.AverageRating),
		Reviews:       make([]models.Review, 0, len(resp.Reviews)),
	}
	for _, r := range resp.Reviews {
		list.Reviews = append(list.Reviews, models.Review{
			ID:         string(r.ID),
			RecordID:   string(r.RecordID),
			ClientName: string(r.ClientName),
			Rating:     int(r.Rating),
			Text:       string(r.Text),
			Date:       string(r.Date),
			IsPublic:   bool(r.IsPublic),
		})
	}
	if list.Count == 0 {
		list.Count = len(list.Reviews)
	}
	return list, nil
}

// SaveReview stores a rating and optional text for a booking.
func (c *Client) SaveReview(ctx context.Context, req models.ReviewRequest) error {
	return exec(ctx, c, "save_review", map[string]any{
		"record_id":   req.RecordID,
		"rating":      req.Rating,
		"review_text": req.Text,
		"user_id":     strconv.FormatInt(req.UserID, 10),
	})
}

// TestConnection performs a round trip to the backend.
func (c *Client) TestConnection(ctx context.Context) (models.Connection, error) {
	resp, err := invoke[connectionResponse](ctx, c, "test_connection", map[string]any{})
	if err != nil {
		return models.Connection{}, err
	}
	return models.Connection{Message: resp.Message, Timestamp: string(resp.Timestamp)}, nil
}

// SendReminders asks the backend to send upcoming-booking reminders now.
func (c *Client) SendReminders(ctx context.Context) (models.ReminderStats, error) {
	resp, err := invoke[remindersResponse](ctx, c, "send_reminders", map[string]any{})
	if err != nil {
		return models.ReminderStats{}, err
	}
	return models.ReminderStats{
		DayBefore:      int(resp.Stats.DayBefore),
		TwoHoursBefore: int(resp.Stats.TwoHoursBefore),
		Errors:         int(resp.Stats.Errors),
	}, nil
}

// AutoCancel runs the backend cleanup of unpaid bookings and returns how many were canceled.
func (c *Client) AutoCancel(ctx context.Context) (int, error) {
	resp, err := invoke[autoCancelResponse](ctx, c, "auto_cancel", map[string]any{})
	if err != nil {
		return 0, err
	}
	return int(resp.CancelledCount), nil
}

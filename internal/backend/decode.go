package backend

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"coworkingbot/internal/models"
)

// The backend is a spreadsheet script: ids, prices and ratings arrive as
// numbers or strings depending on the cell. These types accept both.

type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		var b bool
		if errB := json.Unmarshal(data, &b); errB != nil {
			return err
		}
		*f = flexString(strconv.FormatBool(b))
		return nil
	}
	*f = flexString(n.String())
	return nil
}

type flexInt int64

func (f *flexInt) UnmarshalJSON(data []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	str := strings.TrimSpace(string(s))
	if str == "" {
		*f = 0
		return nil
	}
	if n, err := strconv.ParseInt(str, 10, 64); err == nil {
		*f = flexInt(n)
		return nil
	}
	fl, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return err
	}
	*f = flexInt(int64(fl))
	return nil
}

type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	str := strings.ReplaceAll(strings.TrimSpace(string(s)), ",", ".")
	str = strings.ReplaceAll(str, " ", "")
	if str == "" {
		*f = 0
		return nil
	}
	fl, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return err
	}
	*f = flexFloat(fl)
	return nil
}

type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(string(s))) {
	case "true", "1", "yes", "да":
		*f = true
	default:
		*f = false
	}
	return nil
}

type bookingWire struct {
	ID           flexString `json:"id"`
	RecordID     flexString `json:"record_id"`
	Date         flexString `json:"date"`
	Time         flexString `json:"time"`
	Name         flexString `json:"name"`
	Phone        flexString `json:"phone"`
	Status       flexString `json:"status"`
	Price        flexFloat  `json:"price"`
	UserID       flexInt    `json:"user_id"`
	ClientChatID flexInt    `json:"client_chat_id"`
}

func (w bookingWire) model() models.Booking {
	id := string(w.ID)
	if id == "" {
		id = string(w.RecordID)
	}
	return models.Booking{
		ID:           id,
		Date:         string(w.Date),
		Time:         string(w.Time),
		Name:         string(w.Name),
		Phone:        string(w.Phone),
		Status:       string(w.Status),
		Price:        float64(w.Price),
		UserID:       int64(w.UserID),
		ClientChatID: int64(w.ClientChatID),
	}
}

func bookingModels(wires []bookingWire) []models.Booking {
	out := make([]models.Booking, 0, len(wires))
	for _, w := range wires {
		out = append(out, w.model())
	}
	return out
}

type freeSlotsResponse struct {
	FreeSlots []string `json:"free_slots"`
}

type createBookingResponse struct {
	RecordID flexString `json:"record_id"`
	Price    flexFloat  `json:"price"`
	Message  string     `json:"message"`
}

type bookingsResponse struct {
	Bookings []bookingWire `json:"bookings"`
}

type busySlotsResponse struct {
	BusySlots []bookingWire `json:"busy_slots"`
}

// get_booking_info answers with flat client_* and booking_* fields;
// newer deployments nest a booking object instead.
type bookingInfoResponse struct {
	RecordID      flexString   `json:"record_id"`
	ClientName    flexString   `json:"client_name"`
	ClientPhone   flexString   `json:"client_phone"`
	BookingDate   flexString   `json:"booking_date"`
	BookingTime   flexString   `json:"booking_time"`
	PaymentStatus flexString   `json:"payment_status"`
	Price         flexFloat    `json:"price"`
	ClientChatID  flexInt      `json:"client_chat_id"`
	Booking       *bookingWire `json:"booking"`
}

func (r bookingInfoResponse) model(recordID string) models.Booking {
	if r.Booking != nil {
		b := r.Booking.model()
		if b.ID == "" {
			b.ID = recordID
		}
		return b
	}
	id := string(r.RecordID)
	if id == "" {
		id = recordID
	}
	return models.Booking{
		ID:           id,
		Date:         string(r.BookingDate),
		Time:         string(r.BookingTime),
		Name:         string(r.ClientName),
		Phone:        string(r.ClientPhone),
		Status:       string(r.PaymentStatus),
		Price:        float64(r.Price),
		ClientChatID: int64(r.ClientChatID),
	}
}

type paymentResponse struct {
	AlreadyConfirmed flexBool   `json:"already_confirmed"`
	ClientName       flexString `json:"client_name"`
	BookingDate      flexString `json:"booking_date"`
	BookingTime      flexString `json:"booking_time"`
	ClientChatID     flexInt    `json:"client_chat_id"`
	Message          string     `json:"message"`
}

type exceptionWire struct {
	ID   flexString `json:"id"`
	Type flexString `json:"type"`
	Date flexString `json:"date"`
	Slot flexString `json:"slot"`
}

type exceptionsResponse struct {
	Exceptions []exceptionWire `json:"exceptions"`
}

type settingsResponse struct {
	Settings struct {
		RulesText    flexString `json:"rules_text"`
		BookingLimit flexString `json:"booking_limit"`
		TimeWindows  flexString `json:"time_windows"`
	} `json:"settings"`
}

type bannedUsersResponse struct {
	Users []json.RawMessage `json:"users"`
}

// bannedUserLabel renders one entry of list_banned_users, which is either a
// bare id or an object carrying one.
func bannedUserLabel(raw json.RawMessage) string {
	var s flexString
	if err := s.UnmarshalJSON(raw); err == nil {
		return string(s)
	}
	var obj struct {
		UserID flexString `json:"user_id"`
		Name   flexString `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return string(raw)
	}
	if obj.Name != "" {
		return string(obj.UserID) + " (" + string(obj.Name) + ")"
	}
	return string(obj.UserID)
}

type statsResponse struct {
	FormattedTelegram string `json:"formatted_telegram"`
}

type reportResponse struct {
	FormattedTelegram string `json:"formatted_telegram"`
	Data              struct {
		Summary  *summaryWire  `json:"summary"`
		Bookings []bookingWire `json:"bookings"`
	} `json:"data"`
}

type summaryWire struct {
	TotalBookings  flexInt   `json:"totalBookings"`
	PaidBookings   flexInt   `json:"paidBookings"`
	UnpaidBookings flexInt   `json:"unpaidBookings"`
	TotalIncome    flexFloat `json:"totalIncome"`
	ConversionRate flexFloat `json:"conversionRate"`
	AvgCheck       flexFloat `json:"avgCheck"`
}

func (w *summaryWire) model() models.ReportSummary {
	if w == nil {
		return models.ReportSummary{}
	}
	return models.ReportSummary{
		TotalBookings:  int(w.TotalBookings),
		PaidBookings:   int(w.PaidBookings),
		UnpaidBookings: int(w.UnpaidBookings),
		TotalIncome:    float64(w.TotalIncome),
		ConversionRate: float64(w.ConversionRate),
		AvgCheck:       float64(w.AvgCheck),
	}
}

type reviewWire struct {
	ID         flexString `json:"id"`
	RecordID   flexString `json:"record_id"`
	ClientName flexString `json:"client_name"`
	Rating     flexInt    `json:"rating"`
	Text       flexString `json:"review_text"`
	Date       flexString `json:"review_date"`
	IsPublic   flexBool   `json:"is_public"`
}

type reviewsResponse struct {
	Reviews       []reviewWire `json:"reviews"`
	Count         flexInt      `json:"count"`
	AverageRating flexFloat    `json:"average_rating"`
}

type connectionResponse struct {
	Message   string     `json:"message"`
	Timestamp flexString `json:"timestamp"`
}

type remindersResponse struct {
	Stats struct {
		DayBefore      flexInt `json:"day_before"`
		TwoHoursBefore flexInt `json:"two_hours_before"`
		Errors         flexInt `json:"errors"`
	} `json:"stats"`
}

type autoCancelResponse struct {
	CancelledCount flexInt `json:"cancelled_count"`
}

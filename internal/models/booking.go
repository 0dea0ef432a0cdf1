package models

// Booking is a reservation as surfaced by the backend. The backend is its only writer.
type Booking struct {
	ID           string  `json:"id"`
	Date         string  `json:"date"`
	Time         string  `json:"time"`
	Name         string  `json:"name"`
	Phone        string  `json:"phone"`
	Status       string  `json:"status"`
	Price        float64 `json:"price"`
	UserID       int64   `json:"user_id,omitempty"`
	ClientChatID int64   `json:"client_chat_id,omitempty"`
}

func (b Booking) IsPaid() bool {
	return b.Status == StatusPaid || b.Status == StatusPaidRaw
}

// BookingRequest is the create_booking intent.
type BookingRequest struct {
	Date   string
	Slot   string
	Name   string
	Phone  string
	UserID int64
}

type CreatedBooking struct {
	RecordID string
	Price    float64
	Message  string
}

type PaymentConfirmation struct {
	RecordID         string
	AlreadyConfirmed bool
	ClientName       string
	BookingDate      string
	BookingTime      string
	ClientChatID     int64
	Message          string
}

type Exception struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Date string `json:"date"`
	Slot string `json:"slot"`
}

type Settings struct {
	RulesText    string `json:"rules_text"`
	BookingLimit string `json:"booking_limit"`
	TimeWindows  string `json:"time_windows"`
}

type Report struct {
	Type              string
	Period            string
	FormattedTelegram string
	Summary           ReportSummary
	Bookings          []Booking
}

type ReportSummary struct {
	TotalBookings  int
	PaidBookings   int
	UnpaidBookings int
	TotalIncome    float64
	ConversionRate float64
	AvgCheck       float64
}

type Review struct {
	ID         string `json:"id"`
	RecordID   string `json:"record_id"`
	ClientName string `json:"client_name"`
	Rating     int    `json:"rating"`
	Text       string `json:"review_text"`
	Date       string `json:"review_date"`
	IsPublic   bool   `json:"is_public"`
}

type ReviewList struct {
	Reviews       []Review
	Count         int
	AverageRating float64
}

type ReviewsQuery struct {
	PublicOnly bool
	Limit      int
	MaskNames  bool
}

type ReviewRequest struct {
	RecordID string
	Rating   int
	Text     string
	UserID   int64
}

type Connection struct {
	Message   string
	Timestamp string
}

type ReminderStats struct {
	DayBefore      int
	TwoHoursBefore int
	Errors         int
}

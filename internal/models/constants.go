package models

// Booking statuses as reported by the backend.
const (
	StatusPaid    = "Оплачено"
	StatusPaidRaw = "YES"
)

const ParseModeHTML = "HTML"

// DateLayout is the user-facing booking date format (ДД.ММ.ГГГГ).
const DateLayout = "02.01.2006"

// Callback data prefixes and fixed tags.
const (
	CallbackBookingCancel            = "booking_cancel:"
	CallbackBookingCancelConfirm     = "booking_cancel_confirm:"
	CallbackBookingReschedule        = "booking_reschedule:"
	CallbackBookingRescheduleConfirm = "booking_reschedule_confirm:"
	CallbackConfirmPayment           = "confirm_"
	CallbackReviewRate               = "review_rate:"
	CallbackReportDetailed           = "report_detailed_"
	CallbackReportExport             = "report_export_"

	CallbackAdminActionConfirm = "admin_action_confirm"
	CallbackAdminActionCancel  = "admin_action_cancel"
	CallbackMainMenu           = "main_menu"
	CallbackMyBookings         = "my_bookings_callback"
)

// DeepLinkReviewPrefix is the /start payload prefix that opens the review flow.
const DeepLinkReviewPrefix = "review_"

// Cancellation reasons shown to admins.
const (
	CancelReasonUser       = "пользователем"
	CancelReasonReschedule = "переносом"
	CancelReasonAdmin      = "администратором"
)

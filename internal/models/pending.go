package models

import "strconv"

// PendingKind names a guarded admin mutation.
type PendingKind string

const (
	PendingAddExceptionDate PendingKind = "add_exception_date"
	PendingAddExceptionSlot PendingKind = "add_exception_slot"
	PendingRemoveException  PendingKind = "remove_exception"
	PendingUpdateSetting    PendingKind = "update_setting"
	PendingBanUser          PendingKind = "ban_user"
	PendingUnbanUser        PendingKind = "unban_user"
)

// Setting fields accepted by update_setting.
const (
	SettingRulesText    = "rules_text"
	SettingBookingLimit = "booking_limit"
	SettingTimeWindows  = "time_windows"
)

// PendingAction is a proposed admin mutation awaiting explicit confirmation.
type PendingAction struct {
	Kind    PendingKind    `json:"kind"`
	Payload map[string]any `json:"payload"`
}

// NewPendingAction snapshots payload so later changes to the caller's map
// do not leak into the committed action.
func NewPendingAction(kind PendingKind, payload map[string]any) PendingAction {
	return PendingAction{Kind: kind, Payload: copyPayload(payload)}
}

// Snapshot returns a copy of the payload for dispatch.
func (p PendingAction) Snapshot() map[string]any {
	return copyPayload(p.Payload)
}

func copyPayload(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (p PendingAction) GetString(key string) string {
	if p.Payload == nil {
		return ""
	}
	switch v := p.Payload[key].(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// GetInt64 tolerates the float64 values produced by a JSON round trip.
func (p PendingAction) GetInt64(key string) int64 {
	if p.Payload == nil {
		return 0
	}
	switch v := p.Payload[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}

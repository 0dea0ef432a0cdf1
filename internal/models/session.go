package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ConversationID identifies one chat+user pair.
type ConversationID struct {
	ChatID int64 `json:"chat_id"`
	UserID int64 `json:"user_id"`
}

func (c ConversationID) Key() string {
	return fmt.Sprintf("session:%d:%d", c.ChatID, c.UserID)
}

type StateKind string

const (
	KindChoosingDate       StateKind = "choosing_date"
	KindChoosingTime       StateKind = "choosing_time"
	KindGettingName        StateKind = "getting_name"
	KindConfirmingBooking  StateKind = "confirming_booking"
	KindAwaitingAdminInput StateKind = "awaiting_admin_input"
	KindConfirmingAction   StateKind = "confirming_action"
	KindLeavingReview      StateKind = "leaving_review"
)

// State is the current step of a conversation. Each variant carries only the
// fields that are valid at that step. A nil State means no active flow.
type State interface {
	Kind() StateKind
	isState()
}

type ChoosingDate struct{}

type ChoosingTime struct {
	Date      string   `json:"date"`
	FreeSlots []string `json:"free_slots"`
}

type GettingName struct {
	Date  string `json:"date"`
	Slot  string `json:"slot"`
	Phone string `json:"phone,omitempty"`
}

// ConfirmingBooking is only reachable with date, slot and name set.
// Build it with NewConfirmingBooking.
type ConfirmingBooking struct {
	Date  string `json:"date"`
	Slot  string `json:"slot"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

type AwaitingAdminInput struct {
	Input PendingKind `json:"input"`
	// Setting narrows update_setting to one field.
	Setting string `json:"setting,omitempty"`
}

type ConfirmingAction struct {
	Action PendingAction `json:"action"`
}

type LeavingReview struct {
	RecordID string `json:"record_id"`
	Rating   int    `json:"rating,omitempty"`
}

func (ChoosingDate) Kind() StateKind       { return KindChoosingDate }
func (ChoosingTime) Kind() StateKind       { return KindChoosingTime }
func (GettingName) Kind() StateKind        { return KindGettingName }
func (ConfirmingBooking) Kind() StateKind  { return KindConfirmingBooking }
func (AwaitingAdminInput) Kind() StateKind { return KindAwaitingAdminInput }
func (ConfirmingAction) Kind() StateKind   { return KindConfirmingAction }
func (LeavingReview) Kind() StateKind      { return KindLeavingReview }

func (ChoosingDate) isState()       {}
func (ChoosingTime) isState()       {}
func (GettingName) isState()        {}
func (ConfirmingBooking) isState()  {}
func (AwaitingAdminInput) isState() {}
func (ConfirmingAction) isState()   {}
func (LeavingReview) isState()      {}

var ErrIncompleteDraft = errors.New("booking draft requires date, slot and name")

func NewConfirmingBooking(date, slot, name, phone string) (ConfirmingBooking, error) {
	if date == "" || slot == "" || name == "" {
		return ConfirmingBooking{}, ErrIncompleteDraft
	}
	return ConfirmingBooking{Date: date, Slot: slot, Name: name, Phone: phone}, nil
}

func (c ConfirmingBooking) HasPhone() bool { return c.Phone != "" }

func (c ConfirmingBooking) WithPhone(phone string) ConfirmingBooking {
	c.Phone = phone
	return c
}

func (c ConfirmingBooking) WithName(name string) ConfirmingBooking {
	c.Name = name
	return c
}

// Request turns a confirmed draft into the create_booking intent.
func (c ConfirmingBooking) Request(userID int64) BookingRequest {
	return BookingRequest{Date: c.Date, Slot: c.Slot, Name: c.Name, Phone: c.Phone, UserID: userID}
}

// Contains reports whether slot is one of the offered slots.
func (c ChoosingTime) Contains(slot string) bool {
	for _, s := range c.FreeSlots {
		if s == slot {
			return true
		}
	}
	return false
}

type stateEnvelope struct {
	Kind StateKind       `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// MarshalState encodes a State with its kind tag so it can be stored outside memory.
func MarshalState(s State) ([]byte, error) {
	if s == nil {
		return nil, errors.New("nil state")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return json.Marshal(stateEnvelope{Kind: s.Kind(), Data: data})
}

func UnmarshalState(raw []byte) (State, error) {
	var env stateEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}

	var (
		s   State
		err error
	)
	switch env.Kind {
	case KindChoosingDate:
		s = ChoosingDate{}
	case KindChoosingTime:
		s, err = decodeVariant[ChoosingTime](env.Data)
	case KindGettingName:
		s, err = decodeVariant[GettingName](env.Data)
	case KindConfirmingBooking:
		var c ConfirmingBooking
		if c, err = decodeVariant[ConfirmingBooking](env.Data); err == nil {
			s, err = NewConfirmingBooking(c.Date, c.Slot, c.Name, c.Phone)
		}
	case KindAwaitingAdminInput:
		s, err = decodeVariant[AwaitingAdminInput](env.Data)
	case KindConfirmingAction:
		s, err = decodeVariant[ConfirmingAction](env.Data)
	case KindLeavingReview:
		s, err = decodeVariant[LeavingReview](env.Data)
	default:
		return nil, fmt.Errorf("unknown state kind %q", env.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Kind, err)
	}
	return s, nil
}

func decodeVariant[T any](data json.RawMessage) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}

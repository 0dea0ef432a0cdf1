package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationIDKey(t *testing.T) {
	assert.Equal(t, "session:-100:42", ConversationID{ChatID: -100, UserID: 42}.Key())
}

func TestNewConfirmingBooking(t *testing.T) {
	_, err := NewConfirmingBooking("01.02.2030", "", "Анна", "")
	assert.ErrorIs(t, err, ErrIncompleteDraft)

	c, err := NewConfirmingBooking("01.02.2030", "10:00-12:00", "Анна", "")
	require.NoError(t, err)
	assert.False(t, c.HasPhone())

	withPhone := c.WithPhone("79991234567")
	assert.True(t, withPhone.HasPhone())
	assert.False(t, c.HasPhone(), "WithPhone must not mutate the receiver")

	req := withPhone.WithName("Анна К.").Request(7)
	assert.Equal(t, BookingRequest{Date: "01.02.2030", Slot: "10:00-12:00", Name: "Анна К.", Phone: "79991234567", UserID: 7}, req)
}

func TestStateRoundTrip(t *testing.T) {
	states := []State{
		ChoosingDate{},
		ChoosingTime{Date: "01.02.2030", FreeSlots: []string{"10:00-12:00", "12:00-14:00"}},
		GettingName{Date: "01.02.2030", Slot: "10:00-12:00", Phone: "79991234567"},
		ConfirmingBooking{Date: "01.02.2030", Slot: "10:00-12:00", Name: "Анна"},
		AwaitingAdminInput{Input: PendingUpdateSetting, Setting: SettingBookingLimit},
		ConfirmingAction{Action: NewPendingAction(PendingBanUser, map[string]any{"user_id": int64(5)})},
		LeavingReview{RecordID: "17", Rating: 4},
	}

	for _, s := range states {
		t.Run(string(s.Kind()), func(t *testing.T) {
			raw, err := MarshalState(s)
			require.NoError(t, err)

			decoded, err := UnmarshalState(raw)
			require.NoError(t, err)
			assert.Equal(t, s.Kind(), decoded.Kind())

			if ca, ok := decoded.(ConfirmingAction); ok {
				assert.Equal(t, int64(5), ca.Action.GetInt64("user_id"))
				return
			}
			assert.Equal(t, s, decoded)
		})
	}
}

func TestUnmarshalStateRejectsIncompleteDraft(t *testing.T) {
	_, err := UnmarshalState([]byte(`{"kind":"confirming_booking","data":{"date":"01.02.2030"}}`))
	assert.Error(t, err)

	_, err = UnmarshalState([]byte(`{"kind":"flying","data":{}}`))
	assert.Error(t, err)
}

func TestChoosingTimeContains(t *testing.T) {
	s := ChoosingTime{FreeSlots: []string{"10:00-12:00"}}
	assert.True(t, s.Contains("10:00-12:00"))
	assert.False(t, s.Contains("12:00-14:00"))
}

func TestBookingIsPaid(t *testing.T) {
	assert.True(t, Booking{Status: StatusPaid}.IsPaid())
	assert.True(t, Booking{Status: StatusPaidRaw}.IsPaid())
	assert.False(t, Booking{Status: "Ожидает оплаты"}.IsPaid())
}

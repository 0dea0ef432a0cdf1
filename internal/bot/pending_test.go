package bot

import (
	"testing"

	"coworkingbot/internal/backend"
	"coworkingbot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProposeAction(t *testing.T) {
	tests := []struct {
		name    string
		input   models.AwaitingAdminInput
		text    string
		payload map[string]any
		wantErr bool
	}{
		{
			name:    "exception date",
			input:   models.AwaitingAdminInput{Input: models.PendingAddExceptionDate},
			text:    " 31.12.2026 ",
			payload: map[string]any{"date": "31.12.2026"},
		},
		{
			name:    "exception date bad format",
			input:   models.AwaitingAdminInput{Input: models.PendingAddExceptionDate},
			text:    "2026-12-31",
			wantErr: true,
		},
		{
			name:    "exception slot",
			input:   models.AwaitingAdminInput{Input: models.PendingAddExceptionSlot},
			text:    "31.12.2026 10:00-12:00",
			payload: map[string]any{"date": "31.12.2026", "slot": "10:00-12:00"},
		},
		{
			name:    "exception slot missing part",
			input:   models.AwaitingAdminInput{Input: models.PendingAddExceptionSlot},
			text:    "31.12.2026",
			wantErr: true,
		},
		{
			name:    "remove exception",
			input:   models.AwaitingAdminInput{Input: models.PendingRemoveException},
			text:    "EX_1",
			payload: map[string]any{"id": "EX_1"},
		},
		{
			name:    "booking limit",
			input:   models.AwaitingAdminInput{Input: models.PendingUpdateSetting, Setting: models.SettingBookingLimit},
			text:    "3",
			payload: map[string]any{models.SettingBookingLimit: 3},
		},
		{
			name:    "booking limit not a number",
			input:   models.AwaitingAdminInput{Input: models.PendingUpdateSetting, Setting: models.SettingBookingLimit},
			text:    "three",
			wantErr: true,
		},
		{
			name:    "empty rules",
			input:   models.AwaitingAdminInput{Input: models.PendingUpdateSetting, Setting: models.SettingRulesText},
			text:    "   ",
			wantErr: true,
		},
		{
			name:    "ban user",
			input:   models.AwaitingAdminInput{Input: models.PendingBanUser},
			text:    "12345",
			payload: map[string]any{"user_id": int64(12345)},
		},
		{
			name:    "ban user negative id",
			input:   models.AwaitingAdminInput{Input: models.PendingBanUser},
			text:    "-5",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, prompt, err := proposeAction(tt.input, tt.text)
			if tt.wantErr {
				var inErr inputError
				assert.ErrorAs(t, err, &inErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, prompt)
			assert.Equal(t, tt.input.Input, action.Kind)
			assert.Equal(t, tt.payload, action.Payload)
		})
	}

	_, _, err := proposeAction(models.AwaitingAdminInput{Input: "bogus"}, "x")
	assert.ErrorIs(t, err, errUnknownAction)
}

func TestBanUserTwoPhase(t *testing.T) {
	env := newTestEnv(t)
	env.backend.On("BanUser", mock.Anything, int64(12345)).Return(nil).Once()

	env.callback(testAdminID, "admin_users_ban")
	assert.Equal(t, models.AwaitingAdminInput{Input: models.PendingBanUser}, env.stateOf(t, testAdminID))

	env.send(testAdminID, "abc")
	assert.Equal(t, "❌ Введите числовой ID пользователя.", env.tg.last().text)
	assert.IsType(t, models.AwaitingAdminInput{}, env.stateOf(t, testAdminID))

	env.send(testAdminID, "12345")
	assert.Equal(t, "Забанить пользователя <code>12345</code>?", env.tg.last().text)
	assert.IsType(t, models.ConfirmingAction{}, env.stateOf(t, testAdminID))
	env.backend.AssertNotCalled(t, "BanUser", mock.Anything, mock.Anything)

	env.send(testAdminID, "12345")
	assert.Equal(t, msgUseActionKeys, env.tg.last().text)

	env.callback(testAdminID, models.CallbackAdminActionConfirm)
	assert.Equal(t, msgActionDone, env.tg.last().text)
	assert.Nil(t, env.stateOf(t, testAdminID))

	env.callback(testAdminID, models.CallbackAdminActionConfirm)
	assert.Equal(t, msgNoPendingAction, env.tg.last().text)
	env.backend.AssertNumberOfCalls(t, "BanUser", 1)
}

func TestPendingActionCancel(t *testing.T) {
	env := newTestEnv(t)
	env.setState(t, testAdminID, models.ConfirmingAction{
		Action: models.NewPendingAction(models.PendingBanUser, map[string]any{"user_id": int64(1)}),
	})

	env.callback(testAdminID, models.CallbackAdminActionCancel)

	assert.Equal(t, msgActionCancelled, env.tg.last().text)
	assert.Nil(t, env.stateOf(t, testAdminID))
	env.backend.AssertNotCalled(t, "BanUser", mock.Anything, mock.Anything)
}

func TestPendingActionBackendFailure(t *testing.T) {
	env := newTestEnv(t)
	env.setState(t, testAdminID, models.ConfirmingAction{
		Action: models.NewPendingAction(models.PendingUpdateSetting, map[string]any{models.SettingBookingLimit: 3}),
	})
	env.backend.On("UpdateSettings", mock.Anything, map[string]any{models.SettingBookingLimit: 3}).
		Return(&backend.Error{Action: "update_settings", Message: "denied"})

	env.callback(testAdminID, models.CallbackAdminActionConfirm)

	assert.Equal(t, "⚠️ Ошибка: denied", env.tg.last().text)
	assert.Nil(t, env.stateOf(t, testAdminID))
}

func TestAdminAccessDenied(t *testing.T) {
	env := newTestEnv(t)

	env.sendCommand(testUserID, "/admin", 6)
	assert.Equal(t, msgAdminOnly, env.tg.last().text)

	env.callback(testUserID, "admin_users_ban")
	assert.Equal(t, []string{msgNoAccess}, env.tg.answers)
	assert.Nil(t, env.stateOf(t, testUserID))

	env.setState(t, testUserID, models.AwaitingAdminInput{Input: models.PendingBanUser})
	env.send(testUserID, "12345")
	assert.Equal(t, msgAdminOnly, env.tg.last().text)
	assert.Nil(t, env.stateOf(t, testUserID))
}

package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"coworkingbot/internal/models"

	"github.com/rs/zerolog"
)

// inputError is a validation failure shown to the admin verbatim.
type inputError string

func (e inputError) Error() string { return string(e) }

var errUnknownAction = errors.New("unknown pending action")

const (
	msgActionDone      = "✅ Готово."
	msgActionUnknown   = "❌ Неизвестное действие."
	msgActionCancelled = "Действие отменено."
	msgNoPendingAction = "Нет ожидающего действия."
)

// proposeAction validates admin input for the awaited kind and builds the
// action plus its confirmation prompt. Nothing is sent to the backend here.
func proposeAction(input models.AwaitingAdminInput, text string) (models.PendingAction, string, error) {
	text = strings.TrimSpace(text)

	switch input.Input {
	case models.PendingAddExceptionDate:
		if _, err := time.Parse(models.DateLayout, text); err != nil {
			return models.PendingAction{}, "", inputError("❌ Неверный формат даты. Используйте ДД.ММ.ГГГГ.")
		}
		return models.NewPendingAction(input.Input, map[string]any{"date": text}),
			fmt.Sprintf("Закрыть дату <b>%s</b>?", escape(text)), nil

	case models.PendingAddExceptionSlot:
		parts := strings.Fields(text)
		if len(parts) != 2 {
			return models.PendingAction{}, "", inputError("❌ Используйте формат ДД.ММ.ГГГГ 10:00-12:00.")
		}
		if _, err := time.Parse(models.DateLayout, parts[0]); err != nil {
			return models.PendingAction{}, "", inputError("❌ Неверный формат даты. Используйте ДД.ММ.ГГГГ.")
		}
		return models.NewPendingAction(input.Input, map[string]any{"date": parts[0], "slot": parts[1]}),
			fmt.Sprintf("Закрыть слот <b>%s %s</b>?", escape(parts[0]), escape(parts[1])), nil

	case models.PendingRemoveException:
		if text == "" {
			return models.PendingAction{}, "", inputError("❌ Введите ID исключения.")
		}
		return models.NewPendingAction(input.Input, map[string]any{"id": text}),
			fmt.Sprintf("Удалить исключение <code>%s</code>?", escape(text)), nil

	case models.PendingUpdateSetting:
		return proposeSetting(input.Setting, text)

	case models.PendingBanUser, models.PendingUnbanUser:
		if text == "" || !isDigits(text) {
			return models.PendingAction{}, "", inputError("❌ Введите числовой ID пользователя.")
		}
		id, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return models.PendingAction{}, "", inputError("❌ Введите числовой ID пользователя.")
		}
		verb := "Забанить"
		if input.Input == models.PendingUnbanUser {
			verb = "Разбанить"
		}
		return models.NewPendingAction(input.Input, map[string]any{"user_id": id}),
			fmt.Sprintf("%s пользователя <code>%d</code>?", verb, id), nil
	}

	return models.PendingAction{}, "", errUnknownAction
}

func proposeSetting(setting, text string) (models.PendingAction, string, error) {
	switch setting {
	case models.SettingRulesText:
		if text == "" {
			return models.PendingAction{}, "", inputError("❌ Текст правил не может быть пустым.")
		}
		return models.NewPendingAction(models.PendingUpdateSetting, map[string]any{setting: text}),
			"Сохранить новый текст правил?", nil

	case models.SettingBookingLimit:
		if text == "" || !isDigits(text) {
			return models.PendingAction{}, "", inputError("❌ Введите число.")
		}
		n, err := strconv.Atoi(text)
		if err != nil {
			return models.PendingAction{}, "", inputError("❌ Введите число.")
		}
		return models.NewPendingAction(models.PendingUpdateSetting, map[string]any{setting: n}),
			fmt.Sprintf("Сохранить лимит %d?", n), nil

	case models.SettingTimeWindows:
		if text == "" {
			return models.PendingAction{}, "", inputError("❌ Окна времени не могут быть пустыми.")
		}
		return models.NewPendingAction(models.PendingUpdateSetting, map[string]any{setting: text}),
			fmt.Sprintf("Сохранить окна времени <b>%s</b>?", escape(text)), nil
	}
	return models.PendingAction{}, "", errUnknownAction
}

// beginAdminInput moves the admin into AwaitingAdminInput and asks for the value.
func (b *Bot) beginAdminInput(ctx context.Context, conv models.ConversationID, input models.PendingKind, setting, prompt string) error {
	if err := b.state.Set(ctx, conv, models.AwaitingAdminInput{Input: input, Setting: setting}); err != nil {
		return err
	}
	b.sendText(conv.ChatID, prompt)
	return nil
}

func (b *Bot) handleAdminInput(ctx context.Context, conv models.ConversationID, st models.AwaitingAdminInput, text string) error {
	if err := b.requireAdmin(conv.UserID); err != nil {
		if clearErr := b.state.Clear(ctx, conv); clearErr != nil {
			return clearErr
		}
		b.sendText(conv.ChatID, b.getErrorMessage(err))
		return nil
	}

	action, prompt, err := proposeAction(st, text)
	var inErr inputError
	switch {
	case errors.As(err, &inErr):
		b.sendText(conv.ChatID, inErr.Error())
		return nil
	case err != nil:
		zerolog.Ctx(ctx).Warn().Str("input", string(st.Input)).Msg("Unknown admin input kind, dropping state")
		return b.state.Clear(ctx, conv)
	}

	if err := b.state.Set(ctx, conv, models.ConfirmingAction{Action: action}); err != nil {
		return err
	}
	b.sendInline(conv.ChatID, prompt, yesNoKeyboard())
	return nil
}

// confirmPendingAction commits the stored action. The state is cleared before
// dispatch so a repeated tap cannot run it twice.
func (b *Bot) confirmPendingAction(ctx context.Context, conv models.ConversationID, msgID int) error {
	kb := backKeyboard("↩️ В админ-панель", callbackAdminBack)

	state, err := b.state.Get(ctx, conv)
	if err != nil {
		return err
	}
	st, ok := state.(models.ConfirmingAction)
	if !ok {
		b.edit(conv.ChatID, msgID, msgNoPendingAction, &kb)
		return nil
	}
	if err := b.state.Clear(ctx, conv); err != nil {
		return err
	}

	l := zerolog.Ctx(ctx).With().Str("action", string(st.Action.Kind)).Logger()
	err = b.dispatchAction(ctx, st.Action)
	switch {
	case errors.Is(err, errUnknownAction):
		l.Warn().Msg("Unknown pending action")
		b.edit(conv.ChatID, msgID, msgActionUnknown, &kb)
	case err != nil:
		l.Warn().Err(err).Msg("Admin action failed")
		b.edit(conv.ChatID, msgID, "⚠️ Ошибка: "+escape(backendMessage(err)), &kb)
	default:
		l.Info().Interface("payload", st.Action.Payload).Msg("Admin action committed")
		b.edit(conv.ChatID, msgID, msgActionDone, &kb)
	}
	return nil
}

func (b *Bot) cancelPendingAction(ctx context.Context, conv models.ConversationID, msgID int) error {
	if err := b.state.Clear(ctx, conv); err != nil {
		return err
	}
	kb := backKeyboard("↩️ В админ-панель", callbackAdminBack)
	b.edit(conv.ChatID, msgID, msgActionCancelled, &kb)
	return nil
}

func (b *Bot) dispatchAction(ctx context.Context, action models.PendingAction) error {
	switch action.Kind {
	case models.PendingAddExceptionDate:
		payload := action.Snapshot()
		payload["type"] = "date"
		return b.backend.AddException(ctx, payload)
	case models.PendingAddExceptionSlot:
		payload := action.Snapshot()
		payload["type"] = "slot"
		return b.backend.AddException(ctx, payload)
	case models.PendingRemoveException:
		return b.backend.RemoveException(ctx, action.GetString("id"))
	case models.PendingUpdateSetting:
		return b.backend.UpdateSettings(ctx, action.Snapshot())
	case models.PendingBanUser:
		return b.backend.BanUser(ctx, action.GetInt64("user_id"))
	case models.PendingUnbanUser:
		return b.backend.UnbanUser(ctx, action.GetInt64("user_id"))
	}
	return errUnknownAction
}

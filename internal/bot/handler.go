package bot

import (
	"context"
	"strings"

	"coworkingbot/internal/models"
	"coworkingbot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const (
	msgUnknownCommand = "Я не понимаю эту команду. Используйте /start для начала работы.\nИли /help для получения справки."
	msgFinishAction   = "Пожалуйста, завершите текущее действие или нажмите «🏠 В меню»."
	msgUseActionKeys  = "Пожалуйста, подтвердите или отмените действие кнопками выше."
)

var adminCommands = map[string]bool{
	"admin":         true,
	"stats":         true,
	"confirm":       true,
	"tomorrow":      true,
	"test":          true,
	"test_notify":   true,
	"self_check":    true,
	"export":        true,
	"content":       true,
	"content_set":   true,
	"content_reset": true,
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg == nil || msg.From == nil {
		return nil
	}
	conv := conversation(msg.Chat.ID, msg.From.ID)

	zerolog.Ctx(ctx).Debug().
		Str("username", msg.From.UserName).
		Str("text", msg.Text).
		Bool("contact", msg.Contact != nil).
		Msg("Handling message")

	if msg.IsCommand() {
		return b.handleCommand(ctx, conv, msg)
	}

	if handled, err := b.handleMenuButton(ctx, conv, msg.Text); handled {
		return err
	}

	state, err := b.state.Get(ctx, conv)
	if err != nil {
		return err
	}

	switch st := state.(type) {
	case models.ChoosingDate:
		return b.handleDateInput(ctx, conv, strings.TrimSpace(msg.Text))
	case models.ChoosingTime:
		return b.handleSlotInput(ctx, conv, msg.From, st, strings.TrimSpace(msg.Text))
	case models.GettingName:
		if msg.Contact != nil {
			return b.handleNameContact(ctx, conv, st, msg.Contact)
		}
		return b.handleNameInput(ctx, conv, st, msg.Text)
	case models.ConfirmingBooking:
		return b.handleConfirmationInput(ctx, conv, msg, st)
	case models.AwaitingAdminInput:
		return b.handleAdminInput(ctx, conv, st, msg.Text)
	case models.ConfirmingAction:
		b.sendText(conv.ChatID, msgUseActionKeys)
		return nil
	case models.LeavingReview:
		return b.handleReviewText(ctx, conv, st, msg.Text)
	case nil:
		b.sendText(conv.ChatID, msgUnknownCommand)
		return nil
	default:
		b.sendText(conv.ChatID, msgFinishAction)
		return nil
	}
}

// handleNameContact keeps a phone shared before the name was entered.
func (b *Bot) handleNameContact(ctx context.Context, conv models.ConversationID, st models.GettingName, contact *tgbotapi.Contact) error {
	phone, ok := NormalizePhone(contact.PhoneNumber)
	if !ok {
		b.sendReply(conv.ChatID, msgInvalidPhone, b.menuOnlyKeyboard())
		return nil
	}
	st.Phone = phone
	if err := b.state.Set(ctx, conv, st); err != nil {
		return err
	}
	b.sendReply(conv.ChatID, msgEnterName, b.menuOnlyKeyboard())
	return nil
}

// handleMenuButton serves the persistent keyboard. Buttons work from any
// step; only the menu button drops the current flow.
func (b *Bot) handleMenuButton(ctx context.Context, conv models.ConversationID, text string) (bool, error) {
	btn := b.texts.Buttons
	switch text {
	case "":
		return false, nil
	case btn.Menu:
		return true, b.resetToMenu(ctx, conv)
	case b.content.Get(ctx, service.ContentBookingButtonLabel):
		return true, b.startBooking(ctx, conv, "")
	case btn.MyBookings:
		b.showMyBookings(ctx, conv)
	case btn.Reviews:
		b.showReviews(ctx, conv)
	case btn.Rules:
		b.showContent(ctx, conv.ChatID, service.ContentRules)
	case btn.Support:
		b.showContent(ctx, conv.ChatID, service.ContentSupport)
	default:
		return false, nil
	}
	return true, nil
}

func (b *Bot) handleCommand(ctx context.Context, conv models.ConversationID, msg *tgbotapi.Message) error {
	cmd := msg.Command()

	if adminCommands[cmd] {
		if err := b.requireAdmin(conv.UserID); err != nil {
			zerolog.Ctx(ctx).Warn().Str("command", cmd).Msg("Admin command from non-admin")
			b.sendText(conv.ChatID, b.getErrorMessage(err))
			return nil
		}
		return b.handleAdminCommand(ctx, conv, msg)
	}

	switch cmd {
	case "start":
		if arg := strings.TrimSpace(msg.CommandArguments()); strings.HasPrefix(arg, models.DeepLinkReviewPrefix) {
			return b.startReview(ctx, conv, strings.TrimPrefix(arg, models.DeepLinkReviewPrefix))
		}
		return b.resetToMenu(ctx, conv)
	case "menu":
		return b.resetToMenu(ctx, conv)
	case "book":
		return b.startBooking(ctx, conv, "")
	case "help":
		b.showHelp(conv)
	case "my_bookings":
		b.showMyBookings(ctx, conv)
	case "today":
		b.showToday(ctx, conv)
	case "reviews":
		b.showReviews(ctx, conv)
	case "cancel":
		id := commandArg(msg)
		if id == "" {
			b.sendHTML(conv.ChatID, msgCancelUsage)
			return nil
		}
		b.handleCancel(ctx, conv, 0, id)
	case "myid":
		b.showMyID(msg)
	case "rules":
		b.showContent(ctx, conv.ChatID, service.ContentRules)
	case "support":
		b.showContent(ctx, conv.ChatID, service.ContentSupport)
	case "skip":
		state, err := b.state.Get(ctx, conv)
		if err != nil {
			return err
		}
		if st, ok := state.(models.LeavingReview); ok {
			return b.handleReviewText(ctx, conv, st, "")
		}
		b.sendText(conv.ChatID, msgUnknownCommand)
	default:
		b.sendText(conv.ChatID, msgUnknownCommand)
	}
	return nil
}

func (b *Bot) handleAdminCommand(ctx context.Context, conv models.ConversationID, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "admin":
		if err := b.state.Clear(ctx, conv); err != nil {
			return err
		}
		b.sendInline(conv.ChatID, msgAdminPanel, adminPanelKeyboard())
	case "stats":
		b.showStats(ctx, conv, 0)
	case "confirm":
		id := commandArg(msg)
		if id == "" {
			b.sendText(conv.ChatID, "Использование: /confirm ID_записи\n\nНапример: /confirm ID_12345678")
			return nil
		}
		text, err := b.confirmPayment(ctx, conv.UserID, id)
		if err != nil {
			b.sendHTML(conv.ChatID, b.adminFailure(ctx, "confirm_payment", err))
			return nil
		}
		b.sendHTML(conv.ChatID, text)
	case "tomorrow":
		b.showTomorrow(ctx, conv)
	case "test":
		b.testConnection(ctx, conv.ChatID)
	case "test_notify":
		b.testNotify(ctx, conv.ChatID)
	case "self_check":
		report, _ := b.selfCheck(ctx)
		b.sendHTML(conv.ChatID, report)
	case "export":
		period := commandArg(msg)
		if period == "" {
			period = periodCurrent
		}
		b.exportReport(ctx, conv, period)
	case "content":
		b.showContentFields(ctx, conv.ChatID)
	case "content_set":
		b.setContent(ctx, conv, msg.CommandArguments())
	case "content_reset":
		b.resetContent(ctx, conv, commandArg(msg))
	}
	return nil
}

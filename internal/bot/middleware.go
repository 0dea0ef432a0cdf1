package bot

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/rs/zerolog"
)

// withRecovery is the last line of defence for one update: panics and
// unexpected handler errors are logged, reported to admins and answered with
// a generic apology.
func (b *Bot) withRecovery(ctx context.Context, chatID int64, handler func() error) {
	defer func() {
		if r := recover(); r != nil {
			zerolog.Ctx(ctx).Error().Interface("panic", r).Bytes("stack", debug.Stack()).
				Msg("Recovered from panic in update handler")
			b.reportFailure(ctx, chatID, fmt.Errorf("panic: %v", r))
		}
	}()

	if err := handler(); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Update handler failed")
		b.reportFailure(ctx, chatID, err)
	}
}

func (b *Bot) reportFailure(ctx context.Context, chatID int64, err error) {
	b.notifier.Error(ctx, "update processing", err)
	if chatID != 0 {
		b.sendText(chatID, msgInternalError)
	}
}

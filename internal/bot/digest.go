package bot

import (
	"context"
	"time"
)

// StartDigest schedules the daily admin digest of tomorrow's bookings at
// Bot.DigestTime. An empty DigestTime disables it.
func (b *Bot) StartDigest(ctx context.Context) {
	if b == nil || b.config.Bot.DigestTime == "" {
		return
	}

	at, err := time.Parse("15:04", b.config.Bot.DigestTime)
	if err != nil {
		b.logger.Error().Err(err).Str("digest_time", b.config.Bot.DigestTime).Msg("Invalid digest time format")
		return
	}

	go func() {
		loc := b.config.Location()
		timer := time.NewTimer(nextRun(b.now(), at.Hour(), at.Minute(), loc).Sub(b.now()))
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				b.sendDigest(ctx)
				now := b.now()
				timer.Reset(nextRun(now, at.Hour(), at.Minute(), loc).Sub(now))
			}
		}
	}()
}

// nextRun returns the first hh:mm in loc strictly after now.
func nextRun(now time.Time, hour, minute int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (b *Bot) sendDigest(ctx context.Context) {
	text, err := b.tomorrowText(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("digest: get busy slots error")
		b.notifier.Error(ctx, "daily digest", err)
		return
	}
	b.notifier.Alert(ctx, text)
}

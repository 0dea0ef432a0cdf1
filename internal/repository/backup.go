package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const backupPrefix = "content_"

// Backup writes a consistent snapshot of the content store into dir and
// returns its path.
func (r *ContentRepository) Backup(ctx context.Context, dir string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s%s.db", backupPrefix, now.UTC().Format("20060102_150405")))
	if _, err := r.db.ExecContext(ctx, `VACUUM INTO ?`, path); err != nil {
		return "", fmt.Errorf("vacuum into %s: %w", path, err)
	}
	return path, nil
}

// PruneBackups removes content snapshots in dir older than retention and
// returns how many were deleted. Foreign files are left alone.
func PruneBackups(dir string, retention time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	cutoff := now.Add(-retention)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), backupPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

// RunBackups snapshots the content store every interval until ctx is done.
func (r *ContentRepository) RunBackups(ctx context.Context, dir string, interval, retention time.Duration, logger *zerolog.Logger) {
	l := logger.With().Str("component", "content-backup").Str("dir", dir).Logger()
	l.Info().Dur("interval", interval).Msg("Content backups enabled")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			path, err := r.Backup(ctx, dir, now)
			if err != nil {
				l.Error().Err(err).Msg("Content backup failed")
				continue
			}
			l.Info().Str("path", path).Msg("Content backup written")
			if retention > 0 {
				if n, err := PruneBackups(dir, retention, now); err != nil {
					l.Warn().Err(err).Msg("Failed to prune old backups")
				} else if n > 0 {
					l.Info().Int("removed", n).Msg("Old backups pruned")
				}
			}
		}
	}
}

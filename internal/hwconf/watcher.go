package hwconf

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce window for editors that write config files in several events.
const reloadDelay = 250 * time.Millisecond

// Watch reloads the board file whenever it changes on disk and hands the
// parsed result to fn. The parent directory is watched rather than the file
// itself so atomic rename-in-place saves are caught. Blocks until ctx is
// cancelled; parse failures are logged and the previous config stays live.
func Watch(ctx context.Context, path string, fn func(*Config)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if err := w.Add(dir); err != nil {
		return err
	}

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDelay)
				fire = timer.C
			} else {
				// Drain a fired-but-unread timer before resetting, or the
				// stale tick would cut the debounce window short.
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(reloadDelay)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Error("hwconf: watch error", "err", err)
		case <-fire:
			timer = nil
			fire = nil
			cfg, err := Load(path)
			if err != nil {
				slog.Error("hwconf: reload failed, keeping previous config",
					"path", path, "err", err)
				continue
			}
			slog.Info("hwconf: config reloaded", "path", path)
			fn(cfg)
		}
	}
}

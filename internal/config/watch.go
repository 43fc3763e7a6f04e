package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"

	"github.com/dshills/gotodef/internal/logging"
)

// DefaultDebounce coalesces bursts of writes from editors that save in
// several steps.
const DefaultDebounce = 100 * time.Millisecond

// ReloadFunc receives each successfully reloaded Config.
type ReloadFunc func(Config)

// WatchOption configures Watch.
type WatchOption func(*watchOptions)

type watchOptions struct {
	debounce time.Duration
	logger   *logging.Logger
}

// WithDebounce sets the quiet period before a reload.
func WithDebounce(d time.Duration) WatchOption {
	return func(o *watchOptions) {
		if d >= 0 {
			o.debounce = d
		}
	}
}

// WithWatchLogger sets the logger for reload failures.
func WithWatchLogger(l *logging.Logger) WatchOption {
	return func(o *watchOptions) { o.logger = l }
}

// Watch reloads the config file at path whenever it changes and passes each
// valid result to fn. Invalid files are logged and skipped. The parent
// directory is watched so that atomic renames are seen. Watch blocks until
// ctx is done.
func Watch(ctx context.Context, path string, fn ReloadFunc, opts ...WatchOption) error {
	o := watchOptions{debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger.WithComponent("config")

	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "resolve %q", path)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create watcher")
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return errors.Wrapf(err, "watch %q", filepath.Dir(abs))
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(o.debounce)
			} else {
				timer.Reset(o.debounce)
			}
			fire = timer.C

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "path", abs, "error", err)

		case <-fire:
			fire = nil
			cfg, err := Load(abs)
			if err != nil {
				log.Warn("config reload failed", "path", abs, "error", err)
				continue
			}
			log.Info("config reloaded", "path", abs)
			fn(cfg)
		}
	}
}

package app

import (
	"context"
	"slices"

	"github.com/cockroachdb/errors"

	"github.com/dshills/gotodef/internal/config"
	"github.com/dshills/gotodef/internal/layout"
	"github.com/dshills/gotodef/internal/logging"
	"github.com/dshills/gotodef/internal/lspbridge"
)

// ReloadConfig applies cfg to the running application. Command-line
// overrides still win. The plugin is reloaded when its settings change and
// the bridge is restarted when servers or routing change.
func (app *Application) ReloadConfig(ctx context.Context, cfg config.Config) error {
	app.opMu.Lock()
	defer app.opMu.Unlock()

	cfg, err := applyOverrides(cfg, app.opts)
	if err != nil {
		return err
	}

	app.mu.Lock()
	if app.closed {
		app.mu.Unlock()
		return ErrShutdown
	}
	old := app.cfg
	app.mu.Unlock()

	// The new bridge runs beside the old one until the plugin is in place,
	// so a failed reload leaves the previous routing untouched.
	var next *lspbridge.Bridge
	if bridgeChanged(old, cfg) {
		next, err = app.newBridge(cfg)
		if err != nil {
			return errors.Wrap(err, "restart lsp bridge")
		}
	}
	if cfg.Plugin != old.Plugin {
		if err := app.reloadPlugin(ctx, cfg); err != nil {
			if next != nil {
				if cerr := next.Close(ctx); cerr != nil {
					app.log.Warn("closing rejected lsp bridge", "error", cerr)
				}
			}
			return err
		}
	}
	if next != nil {
		app.swapBridge(ctx, next)
	}

	app.log.SetLevel(logging.ParseLogLevel(cfg.Log.Level))
	if cfg.Plugin.TabWidth != old.Plugin.TabWidth {
		app.editor.SetIndexer(layout.NewTabIndexer(cfg.Plugin.TabWidth))
	}

	app.mu.Lock()
	app.cfg = cfg
	app.mu.Unlock()

	app.log.Debug("configuration applied")
	return nil
}

func bridgeChanged(old, cfg config.Config) bool {
	if old.Plugin.RequestTopic != cfg.Plugin.RequestTopic ||
		old.Plugin.ResponseTopic != cfg.Plugin.ResponseTopic ||
		old.Plugin.LSPID != cfg.Plugin.LSPID ||
		len(old.Servers) != len(cfg.Servers) {
		return true
	}
	for ft, s := range cfg.Servers {
		o, ok := old.Servers[ft]
		if !ok || o.Command != s.Command || !slices.Equal(o.Args, s.Args) {
			return true
		}
	}
	return false
}

// swapBridge installs next and closes the bridge it replaces.
func (app *Application) swapBridge(ctx context.Context, next *lspbridge.Bridge) {
	app.mu.Lock()
	prev := app.bridge
	app.bridge = next
	app.mu.Unlock()

	if prev != nil {
		if err := prev.Close(ctx); err != nil {
			app.log.Warn("closing previous lsp bridge", "error", err)
		}
	}
}

// reloadPlugin swaps the go-to-definition plugin for one built from cfg. If
// the new plugin fails to boot the previous one is restored.
func (app *Application) reloadPlugin(ctx context.Context, cfg config.Config) error {
	app.mu.Lock()
	prev := app.gotodef
	app.mu.Unlock()

	if err := app.plugins.Unload(ctx, prev.Name()); err != nil {
		return errors.Wrap(err, "unload plugin")
	}

	next := app.newPlugin(cfg)
	if err := app.plugins.Load(ctx, next); err != nil {
		_ = app.plugins.Unload(ctx, next.Name())
		if rerr := app.plugins.Load(ctx, prev); rerr != nil {
			app.log.Error("restoring plugin", "plugin", prev.Name(), "error", rerr)
		}
		return errors.Wrap(err, "reload plugin")
	}

	app.mu.Lock()
	app.gotodef = next
	app.mu.Unlock()
	return nil
}

// WatchConfig reloads the configuration whenever the config file changes.
// It blocks until ctx is done. Without a config file it only waits.
func (app *Application) WatchConfig(ctx context.Context) error {
	path := app.opts.ConfigPath
	if path == "" {
		<-ctx.Done()
		return nil
	}

	return config.Watch(ctx, path, func(cfg config.Config) {
		if err := app.ReloadConfig(ctx, cfg); err != nil {
			app.log.Warn("config reload rejected", "error", err)
		}
	}, config.WithWatchLogger(app.log))
}

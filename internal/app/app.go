// Package app wires the editor, the event bus, the go-to-definition plugin
// and the language server bridge into one application.
package app

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/dshills/gotodef/internal/config"
	"github.com/dshills/gotodef/internal/editor"
	"github.com/dshills/gotodef/internal/event"
	"github.com/dshills/gotodef/internal/gotodef"
	"github.com/dshills/gotodef/internal/logging"
	"github.com/dshills/gotodef/internal/lspbridge"
	"github.com/dshills/gotodef/internal/plugin"
)

// maxResolutions bounds how many unclaimed resolutions are remembered.
const maxResolutions = 128

// Options configures the application.
type Options struct {
	// ConfigPath is the TOML config file. Empty means defaults and
	// environment only.
	ConfigPath string

	// Overrides applied on top of the file and environment. Zero values
	// leave the loaded setting alone.
	LogLevel string
	Timeout  time.Duration
	TabWidth int
	Servers  map[string]config.ServerConfig

	// WorkspacePath is the root sent to language servers.
	WorkspacePath string

	// Files are opened on startup; the last one is active.
	Files []string

	// LogOutput receives log lines. Defaults to stderr.
	LogOutput io.Writer

	// Dial replaces process-based language servers.
	Dial lspbridge.Dialer

	// ReadFile replaces os.ReadFile for the editor.
	ReadFile editor.ReadFileFunc
}

// Application is the central coordinator for all gotodef components.
type Application struct {
	opts Options

	log     *logging.Logger
	bus     *event.Bus
	editor  *editor.Editor
	plugins *plugin.Manager

	// opMu serializes lookups, scripts and config reloads.
	opMu sync.Mutex

	mu      sync.Mutex
	cfg     config.Config
	bridge  *lspbridge.Bridge
	gotodef *gotodef.Plugin
	stopLog func()
	closed  bool

	resMu    sync.Mutex
	resolved map[string]gotodef.Resolution
	resOrder []string
}

// New creates and boots an Application.
func New(opts Options) (*Application, error) {
	app := &Application{
		opts:     opts,
		resolved: make(map[string]gotodef.Resolution),
	}
	if err := newBootstrapper(app).bootstrap(); err != nil {
		return nil, err
	}
	return app, nil
}

// Config returns the active configuration.
func (app *Application) Config() config.Config {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.cfg.Clone()
}

// Editor returns the editor host.
func (app *Application) Editor() *editor.Editor { return app.editor }

// Bus returns the message bus.
func (app *Application) Bus() *event.Bus { return app.bus }

// Logger returns the application logger.
func (app *Application) Logger() *logging.Logger { return app.log }

// Plugins returns the plugin manager.
func (app *Application) Plugins() *plugin.Manager { return app.plugins }

// Plugin returns the go-to-definition plugin.
func (app *Application) Plugin() *gotodef.Plugin {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.gotodef
}

func (app *Application) currentBridge() *lspbridge.Bridge {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.bridge
}

// Settle waits for outstanding language server calls and then runs the
// host work they posted, so that their responses have been resolved when
// it returns.
func (app *Application) Settle(ctx context.Context) error {
	if b := app.currentBridge(); b != nil {
		if err := b.Wait(ctx); err != nil {
			return err
		}
	}
	app.editor.RunPending()
	return nil
}

// recordResolution is the plugin's resolved hook.
func (app *Application) recordResolution(res gotodef.Resolution) {
	if res.ID == "" {
		return
	}

	app.resMu.Lock()
	defer app.resMu.Unlock()

	if _, ok := app.resolved[res.ID]; !ok {
		app.resOrder = append(app.resOrder, res.ID)
	}
	app.resolved[res.ID] = res

	for len(app.resOrder) > maxResolutions {
		delete(app.resolved, app.resOrder[0])
		app.resOrder = app.resOrder[1:]
	}
}

// takeResolution removes and returns the resolution for id.
func (app *Application) takeResolution(id string) (gotodef.Resolution, bool) {
	app.resMu.Lock()
	defer app.resMu.Unlock()

	res, ok := app.resolved[id]
	if !ok {
		return res, false
	}
	delete(app.resolved, id)
	for i, v := range app.resOrder {
		if v == id {
			app.resOrder = append(app.resOrder[:i], app.resOrder[i+1:]...)
			break
		}
	}
	return res, true
}

// Shutdown unloads plugins, stops language servers and closes the bus.
// It is safe to call more than once.
func (app *Application) Shutdown(ctx context.Context) error {
	app.mu.Lock()
	if app.closed {
		app.mu.Unlock()
		return nil
	}
	app.closed = true
	bridge := app.bridge
	stopLog := app.stopLog
	app.mu.Unlock()

	var errs []error
	if err := app.plugins.UnloadAll(ctx); err != nil {
		errs = append(errs, errors.Wrap(err, "unload plugins"))
	}
	if stopLog != nil {
		stopLog()
	}
	if bridge != nil {
		if err := bridge.Close(ctx); err != nil {
			errs = append(errs, errors.Wrap(err, "close bridge"))
		}
	}
	app.bus.Close()

	app.log.Debug("shutdown complete")
	return errors.Join(errs...)
}

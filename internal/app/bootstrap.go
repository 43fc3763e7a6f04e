package app

import (
	"context"
	"time"

	"github.com/samber/lo"

	"github.com/dshills/gotodef/internal/config"
	"github.com/dshills/gotodef/internal/editor"
	"github.com/dshills/gotodef/internal/event"
	"github.com/dshills/gotodef/internal/event/topic"
	"github.com/dshills/gotodef/internal/gotodef"
	"github.com/dshills/gotodef/internal/layout"
	"github.com/dshills/gotodef/internal/logging"
	"github.com/dshills/gotodef/internal/lsp"
	"github.com/dshills/gotodef/internal/lspbridge"
	"github.com/dshills/gotodef/internal/plugin"
)

// bootstrapper handles component initialization with proper cleanup on failure.
type bootstrapper struct {
	app       *Application
	opts      Options
	initOrder []string
}

// newBootstrapper creates a new bootstrapper for the application.
func newBootstrapper(app *Application) *bootstrapper {
	return &bootstrapper{
		app:       app,
		opts:      app.opts,
		initOrder: make([]string, 0, 7),
	}
}

// bootstrap initializes all components in dependency order.
// On failure, it cleans up already-initialized components.
func (b *bootstrapper) bootstrap() error {
	steps := []func() error{
		b.initConfig,
		b.initLogger,
		b.initEventBus,
		b.initEditor,
		b.initBridge,
		b.initPlugins,
		b.initDocuments,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			b.cleanup()
			return err
		}
	}
	return nil
}

// initConfig loads the file and environment layers and applies overrides.
func (b *bootstrapper) initConfig() error {
	cfg, err := config.Load(b.opts.ConfigPath)
	if err != nil {
		return &InitError{Component: "config", Err: err}
	}
	cfg, err = applyOverrides(cfg, b.opts)
	if err != nil {
		return &InitError{Component: "config", Err: err}
	}
	b.app.cfg = cfg
	b.initOrder = append(b.initOrder, "config")
	return nil
}

// applyOverrides layers command-line settings over cfg and revalidates.
func applyOverrides(cfg config.Config, opts Options) (config.Config, error) {
	cfg = cfg.Clone()
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.Timeout != 0 {
		cfg.Plugin.Timeout = opts.Timeout
	}
	if opts.TabWidth != 0 {
		cfg.Plugin.TabWidth = opts.TabWidth
	}
	for ft, s := range opts.Servers {
		s.Args = append([]string(nil), s.Args...)
		cfg.Servers[ft] = s
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func (b *bootstrapper) initLogger() error {
	b.app.log = logging.NewLogger(logging.LoggerConfig{
		Level:      logging.ParseLogLevel(b.app.cfg.Log.Level),
		Output:     b.opts.LogOutput,
		Prefix:     "gotodef",
		Timestamps: true,
	})
	b.initOrder = append(b.initOrder, "logger")
	return nil
}

func (b *bootstrapper) initEventBus() error {
	b.app.bus = event.NewBus(event.WithLogger(b.app.log))
	b.initOrder = append(b.initOrder, "eventBus")
	return nil
}

func (b *bootstrapper) initEditor() error {
	opts := []editor.Option{
		editor.WithLogger(b.app.log),
		editor.WithIndexer(layout.NewTabIndexer(b.app.cfg.Plugin.TabWidth)),
	}
	if b.opts.ReadFile != nil {
		opts = append(opts, editor.WithReadFile(b.opts.ReadFile))
	}
	b.app.editor = editor.New(opts...)
	b.initOrder = append(b.initOrder, "editor")
	return nil
}

func (b *bootstrapper) initBridge() error {
	bridge, err := b.app.newBridge(b.app.cfg)
	if err != nil {
		return &InitError{Component: "lsp bridge", Err: err}
	}
	b.app.bridge = bridge
	b.initOrder = append(b.initOrder, "bridge")
	return nil
}

func (b *bootstrapper) initPlugins() error {
	pctx := &plugin.Context{
		Host:     b.app.editor,
		Commands: b.app.editor,
		Bus:      b.app.bus,
		Logger:   b.app.log,
	}
	b.app.plugins = plugin.NewManager(pctx, plugin.DefaultManagerConfig())
	b.app.stopLog = b.app.plugins.Subscribe(b.app.logManagerEvent)
	b.initOrder = append(b.initOrder, "plugins")

	p := b.app.newPlugin(b.app.cfg)
	if err := b.app.plugins.Load(context.Background(), p); err != nil {
		return &InitError{Component: "plugins", Err: err}
	}
	b.app.gotodef = p
	return nil
}

func (b *bootstrapper) initDocuments() error {
	for _, path := range b.opts.Files {
		if _, err := b.app.editor.Open(path); err != nil {
			return &InitError{Component: "documents", Err: err}
		}
	}
	b.initOrder = append(b.initOrder, "documents")
	return nil
}

// cleanup releases initialized components in reverse order.
func (b *bootstrapper) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i := len(b.initOrder) - 1; i >= 0; i-- {
		b.cleanupComponent(ctx, b.initOrder[i])
	}
}

// cleanupComponent cleans up a single component.
func (b *bootstrapper) cleanupComponent(ctx context.Context, component string) {
	switch component {
	case "plugins":
		if b.app.plugins != nil {
			_ = b.app.plugins.UnloadAll(ctx)
		}
		if b.app.stopLog != nil {
			b.app.stopLog()
			b.app.stopLog = nil
		}
	case "bridge":
		if b.app.bridge != nil {
			_ = b.app.bridge.Close(ctx)
			b.app.bridge = nil
		}
	case "eventBus":
		if b.app.bus != nil {
			b.app.bus.Close()
		}
	}
}

// newPlugin builds the go-to-definition plugin from cfg.
func (app *Application) newPlugin(cfg config.Config) *gotodef.Plugin {
	p := cfg.Plugin
	return gotodef.New(
		gotodef.WithLogger(app.log),
		gotodef.WithIdentity(p.ID, p.LSPID),
		gotodef.WithCommand(p.Command),
		gotodef.WithTopics(topic.Topic(p.RequestTopic), topic.Topic(p.ResponseTopic)),
		gotodef.WithTimeout(p.Timeout),
		gotodef.WithIndexer(layout.NewTabIndexer(p.TabWidth)),
		gotodef.WithResolvedHook(app.recordResolution),
	)
}

// newBridge builds and starts a language server bridge from cfg. Requests
// travel on the plugin's request topic and responses carry the plugin's
// expected server identity.
func (app *Application) newBridge(cfg config.Config) (*lspbridge.Bridge, error) {
	dial := app.opts.Dial
	if dial == nil {
		servers := lo.MapValues(cfg.Servers, func(s config.ServerConfig, _ string) lspbridge.Server {
			return lspbridge.Server{Command: s.Command, Args: s.Args, Dir: app.opts.WorkspacePath}
		})
		dial = lspbridge.ExecDialer(servers, app.log)
	}

	var root lsp.DocumentURI
	if app.opts.WorkspacePath != "" {
		root = lsp.FilePathToURI(app.opts.WorkspacePath)
	}

	bridge, err := lspbridge.New(lspbridge.Config{
		Bus:           app.bus,
		Dial:          dial,
		Post:          app.editor.Post,
		Documents:     app.editor.DocumentText,
		RequestTopic:  topic.Topic(cfg.Plugin.RequestTopic),
		ResponseTopic: topic.Topic(cfg.Plugin.ResponseTopic),
		Identity:      cfg.Plugin.LSPID,
		RootURI:       root,
		Logger:        app.log,
	})
	if err != nil {
		return nil, err
	}
	if err := bridge.Start(); err != nil {
		return nil, err
	}
	return bridge, nil
}

func (app *Application) logManagerEvent(ev plugin.ManagerEvent) {
	if ev.Error != nil {
		app.log.Warn("plugin event", "type", ev.Type, "plugin", ev.Plugin, "error", ev.Error)
		return
	}
	app.log.Debug("plugin event", "type", ev.Type, "plugin", ev.Plugin)
}

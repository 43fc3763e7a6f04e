package gotodef

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/dshills/gotodef/internal/event"
	"github.com/dshills/gotodef/internal/event/topic"
	"github.com/dshills/gotodef/internal/layout"
	"github.com/dshills/gotodef/internal/logging"
	"github.com/dshills/gotodef/internal/plugin"
)

// Defaults for the plugin's identity and routing.
const (
	DefaultID            = "lsp_goto_definition"
	DefaultLSPID         = "lsp"
	DefaultCommand       = "lsp-goto-definition"
	DefaultRequestTopic  = topic.Topic("lsp-request:textDocument/definition")
	DefaultResponseTopic = topic.Topic("textDocument/definition")
	DefaultTimeout       = 5 * time.Second
)

// ErrNotBooted is returned by GotoDefinition before Boot.
var ErrNotBooted = errors.New("plugin not booted")

// Option configures a Plugin.
type Option func(*options)

type options struct {
	id            string
	lspID         string
	command       string
	requestTopic  topic.Topic
	responseTopic topic.Topic
	timeout       time.Duration
	indexer       layout.LineIndexer
	now           Clock
	newID         IDGenerator
	logger        *logging.Logger
	onResolved    func(Resolution)
}

// WithLogger sets the logger. By default the boot context's logger is used.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithIndexer sets the column/byte-offset converter.
func WithIndexer(x layout.LineIndexer) Option {
	return func(o *options) { o.indexer = x }
}

// WithTimeout sets how long a request waits for its response.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithClock sets the time source used for timeouts.
func WithClock(now Clock) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator sets the request id source.
func WithIDGenerator(gen IDGenerator) Option {
	return func(o *options) { o.newID = gen }
}

// WithTopics sets the request and response topics.
func WithTopics(request, response topic.Topic) Option {
	return func(o *options) {
		o.requestTopic = request
		o.responseTopic = response
	}
}

// WithIdentity sets the plugin's own id and the id of the component that
// answers requests.
func WithIdentity(id, lspID string) Option {
	return func(o *options) {
		o.id = id
		o.lspID = lspID
	}
}

// WithCommand sets the name of the user command.
func WithCommand(name string) Option {
	return func(o *options) { o.command = name }
}

// WithResolvedHook registers fn to observe every Resolution.
func WithResolvedHook(fn func(Resolution)) Option {
	return func(o *options) { o.onResolved = fn }
}

// Plugin wires the Emitter and Resolver into an editor.
type Plugin struct {
	opts    options
	pending *PendingTable

	mu       sync.Mutex
	pctx     *plugin.Context
	logger   *logging.Logger
	emitter  *Emitter
	resolver *Resolver
	sub      event.Subscription
}

// New creates the plugin.
func New(opts ...Option) *Plugin {
	o := options{
		id:            DefaultID,
		lspID:         DefaultLSPID,
		command:       DefaultCommand,
		requestTopic:  DefaultRequestTopic,
		responseTopic: DefaultResponseTopic,
		timeout:       DefaultTimeout,
		now:           time.Now,
		newID:         uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.indexer == nil {
		o.indexer = layout.DefaultIndexer()
	}

	return &Plugin{
		opts:    o,
		pending: NewPendingTable(o.timeout, o.now),
	}
}

// Name returns the plugin id.
func (p *Plugin) Name() string {
	return p.opts.id
}

// Boot subscribes the resolver and registers the user command.
func (p *Plugin) Boot(ctx context.Context, pctx *plugin.Context) error {
	if err := pctx.Validate(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sub != nil {
		return errors.Wrapf(plugin.ErrAlreadyActive, "plugin %q", p.opts.id)
	}

	logger := p.opts.logger
	if logger == nil {
		logger = pctx.Logger
	}
	logger = logger.WithComponent(p.opts.id)

	translator := NewTranslator(p.opts.indexer)
	emitter := NewEmitter(EmitterConfig{
		Publisher:  pctx.Bus,
		Pending:    p.pending,
		Translator: translator,
		Topic:      p.opts.requestTopic,
		Source:     p.opts.id,
		NewID:      p.opts.newID,
		Now:        p.opts.now,
		Logger:     logger,
	})
	resolver := NewResolver(ResolverConfig{
		Host:       pctx.Host,
		Pending:    p.pending,
		Translator: translator,
		Topic:      p.opts.responseTopic,
		LSPID:      p.opts.lspID,
		Logger:     logger,
	})

	sub, err := pctx.Bus.SubscribeFunc(p.opts.responseTopic, p.handle,
		event.WithPriority(event.PriorityHigh))
	if err != nil {
		return errors.Wrap(err, "subscribe resolver")
	}

	if err := pctx.Commands.SetCommand(p.opts.command, p.command); err != nil {
		_ = pctx.Bus.Unsubscribe(sub)
		return errors.Wrapf(err, "register command %q", p.opts.command)
	}

	p.pctx, p.logger, p.emitter, p.resolver, p.sub = pctx, logger, emitter, resolver, sub

	// Zero move so the host refreshes cursor state after a (re)load.
	pctx.Host.MoveCursor(0, 0)

	logger.Debug("booted", "command", p.opts.command, "request", p.opts.requestTopic, "response", p.opts.responseTopic)
	return nil
}

// Unload removes the subscription and command and forgets pending requests.
func (p *Plugin) Unload(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sub == nil {
		return nil
	}

	var err error
	if uerr := p.pctx.Bus.Unsubscribe(p.sub); uerr != nil && !errors.Is(uerr, event.ErrSubscriptionNotFound) {
		err = errors.Wrap(uerr, "unsubscribe resolver")
	}
	p.pctx.Commands.RemoveCommand(p.opts.command)
	p.pending.Clear()

	p.logger.Debug("unloaded")
	p.pctx, p.emitter, p.resolver, p.sub = nil, nil, nil, nil
	return err
}

// GotoDefinition requests the definition under the active cursor and
// returns the request id, or "" when there is nothing to look up.
func (p *Plugin) GotoDefinition(ctx context.Context) (string, error) {
	p.mu.Lock()
	emitter, pctx := p.emitter, p.pctx
	p.mu.Unlock()

	if emitter == nil {
		return "", ErrNotBooted
	}
	return emitter.Request(ctx, pctx.Host.ActiveSurface())
}

// Sweep drops timed-out requests and returns how many were dropped.
func (p *Plugin) Sweep() int {
	expired := p.pending.Sweep()
	for _, e := range expired {
		p.logger.Debug("definition request timed out", "id", e.ID, "uri", e.URI)
	}
	return len(expired)
}

// Pending returns the ids of requests still waiting for a response.
func (p *Plugin) Pending() []string {
	return p.pending.IDs()
}

// command is the user command body. Failures are logged, never returned, so
// a lookup never interrupts editing.
func (p *Plugin) command(args ...string) error {
	if _, err := p.GotoDefinition(context.Background()); err != nil {
		p.logger.Warn("definition request failed", "error", err)
	}
	return nil
}

func (p *Plugin) handle(ctx context.Context, msg *event.Message) error {
	p.mu.Lock()
	resolver := p.resolver
	p.mu.Unlock()

	if resolver == nil {
		return nil
	}

	res := resolver.Handle(ctx, msg)
	if p.opts.onResolved != nil {
		p.opts.onResolved(res)
	}
	return nil
}

package lspbridge

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"github.com/sourcegraph/jsonrpc2"

	"github.com/dshills/gotodef/internal/event"
	"github.com/dshills/gotodef/internal/event/topic"
	"github.com/dshills/gotodef/internal/logging"
	"github.com/dshills/gotodef/internal/lsp"
)

// Defaults for Config.
const (
	DefaultIdentity        = "lsp"
	DefaultCallTimeout     = 10 * time.Second
	DefaultShutdownTimeout = 2 * time.Second
)

// PostFunc schedules fn on the host loop.
type PostFunc func(fn func())

// DocumentSource returns the editor's text for an open document.
type DocumentSource func(uri lsp.DocumentURI) (string, bool)

// Config configures a Bridge.
type Config struct {
	Bus  *event.Bus
	Dial Dialer

	// Post hands responses back to the host loop. When nil, responses are
	// published from the goroutine that received them.
	Post PostFunc

	// Documents supplies didOpen text. When nil or when the document is
	// not open in the editor, the server reads the file itself.
	Documents DocumentSource

	RequestTopic  topic.Topic
	ResponseTopic topic.Topic

	// Identity is the Source stamped on responses.
	Identity string

	// RootURI is sent in initialize.
	RootURI lsp.DocumentURI

	CallTimeout     time.Duration
	ShutdownTimeout time.Duration

	Logger *logging.Logger
}

// entry tracks one file type's server while it starts.
type entry struct {
	ready  chan struct{}
	client *client
	err    error
}

// Bridge forwards bus definition requests to language servers.
type Bridge struct {
	cfg Config
	log *logging.Logger

	// ctx is cancelled by Close to abort in-flight calls.
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	sub     event.Subscription
	servers map[string]*entry
	closed  bool

	inflight sync.WaitGroup
}

// New creates a bridge. Call Start to begin serving.
func New(cfg Config) (*Bridge, error) {
	if cfg.Bus == nil || cfg.Dial == nil {
		return nil, errors.Wrap(ErrIncompleteConfig, "bus and dialer are required")
	}
	if cfg.RequestTopic == "" || cfg.ResponseTopic == "" {
		return nil, errors.Wrap(ErrIncompleteConfig, "request and response topics are required")
	}
	if cfg.Identity == "" {
		cfg.Identity = DefaultIdentity
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Bridge{
		cfg:     cfg,
		log:     cfg.Logger.WithComponent("lspbridge"),
		ctx:     ctx,
		cancel:  cancel,
		servers: make(map[string]*entry),
	}, nil
}

// Start subscribes to the request topic.
func (b *Bridge) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	if b.sub != nil {
		return nil
	}

	sub, err := b.cfg.Bus.SubscribeFunc(b.cfg.RequestTopic, b.handle, event.WithPriority(event.PriorityHigh))
	if err != nil {
		return errors.Wrapf(err, "subscribe %s", b.cfg.RequestTopic)
	}
	b.sub = sub
	return nil
}

// handle runs on the publisher's goroutine. It reads the document text
// there and does the RPC work elsewhere.
func (b *Bridge) handle(_ context.Context, msg *event.Message) error {
	params, err := lsp.DecodeDefinitionParams(msg.Data)
	if err != nil {
		b.log.Warn("dropping malformed request", "id", msg.Metadata.CorrelationID, "error", err)
		return nil
	}

	var (
		text   string
		hasDoc bool
	)
	if b.cfg.Documents != nil {
		text, hasDoc = b.cfg.Documents(params.TextDocument.URI)
	}

	req := request{
		id:       msg.Metadata.CorrelationID,
		fileType: msg.FileType,
		params:   params,
		text:     text,
		hasDoc:   hasDoc,
	}
	if req.fileType == "" {
		if path, err := lsp.URIToFilePath(params.TextDocument.URI); err == nil {
			req.fileType = lsp.DetectLanguageID(path)
		}
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	b.inflight.Add(1)
	b.mu.Unlock()

	go func() {
		defer b.inflight.Done()
		b.deliver(req, b.lookup(req))
	}()
	return nil
}

type request struct {
	id       string
	fileType string
	params   lsp.TextDocumentPositionParams
	text     string
	hasDoc   bool
}

// lookup returns the response body for req.
func (b *Bridge) lookup(req request) string {
	ctx, cancel := context.WithTimeout(b.ctx, b.cfg.CallTimeout)
	defer cancel()

	log := b.log.WithField("id", req.id)

	c, err := b.client(ctx, req.fileType)
	if err != nil {
		log.Debug("no server", "filetype", req.fileType, "error", err)
		return errorBody(err)
	}

	if req.hasDoc {
		if err := c.ensureOpen(ctx, req.params.TextDocument.URI, req.fileType, req.text); err != nil {
			log.Warn("didOpen failed", "error", err)
		}
	}

	raw, err := c.definition(ctx, req.params)
	if err != nil {
		log.Debug("definition failed", "error", err)
		return errorBody(err)
	}

	body, err := lsp.EncodeResult(raw)
	if err != nil {
		return errorBody(err)
	}
	log.Debug("definition result", "body", lsp.Pretty(body))
	return body
}

// deliver publishes a response, on the host loop when Post is set.
func (b *Bridge) deliver(req request, body string) {
	publish := func() {
		msg := event.NewMessage(b.cfg.ResponseTopic, b.cfg.Identity, body).
			WithCorrelation(req.id).
			WithFileType(req.fileType)
		if _, err := b.cfg.Bus.Publish(context.Background(), msg); err != nil {
			b.log.Debug("response not published", "id", req.id, "error", err)
		}
	}

	if b.cfg.Post != nil {
		b.cfg.Post(publish)
		return
	}
	publish()
}

// client returns the ready server for a file type, starting it if needed.
// A failed start is forgotten so the next request retries.
func (b *Bridge) client(ctx context.Context, fileType string) (*client, error) {
	if fileType == "" {
		return nil, errors.Wrap(ErrNoServer, "unknown file type")
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	e, ok := b.servers[fileType]
	if !ok {
		e = &entry{ready: make(chan struct{})}
		b.servers[fileType] = e
	}
	b.mu.Unlock()

	if ok {
		select {
		case <-e.ready:
			return e.client, e.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	e.client, e.err = b.start(ctx, fileType)
	close(e.ready)

	if e.err != nil {
		b.mu.Lock()
		if b.servers[fileType] == e {
			delete(b.servers, fileType)
		}
		b.mu.Unlock()
	}
	return e.client, e.err
}

func (b *Bridge) start(ctx context.Context, fileType string) (*client, error) {
	rwc, err := b.cfg.Dial(ctx, fileType)
	if err != nil {
		return nil, err
	}
	c, err := dialClient(ctx, rwc, fileType, b.cfg.RootURI, b.log.WithField("filetype", fileType))
	if err != nil {
		rwc.Close()
		return nil, err
	}
	return c, nil
}

// Servers returns the file types with a running server, sorted.
func (b *Bridge) Servers() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	ready := lo.PickBy(b.servers, func(_ string, e *entry) bool {
		select {
		case <-e.ready:
			return e.err == nil
		default:
			return false
		}
	})
	out := lo.Keys(ready)
	sort.Strings(out)
	return out
}

// Wait blocks until every accepted request has been answered (handed to
// Post) or ctx is done.
func (b *Bridge) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close unsubscribes, waits briefly for in-flight lookups, then shuts down
// every server. It is safe to call more than once.
func (b *Bridge) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	sub := b.sub
	b.sub = nil
	b.mu.Unlock()

	var errs []error
	if sub != nil {
		// A closed bus has already dropped the subscription.
		if err := b.cfg.Bus.Unsubscribe(sub); err != nil && !errors.Is(err, event.ErrSubscriptionNotFound) {
			errs = append(errs, err)
		}
	}

	waitCtx, cancel := context.WithTimeout(ctx, b.cfg.ShutdownTimeout)
	if err := b.Wait(waitCtx); err != nil {
		b.log.Warn("abandoning in-flight lookups", "error", err)
	}
	cancel()
	b.cancel()

	b.mu.Lock()
	entries := lo.Values(b.servers)
	b.servers = make(map[string]*entry)
	b.mu.Unlock()

	for _, e := range entries {
		<-e.ready
		if e.err != nil {
			continue
		}
		if err := e.client.shutdown(ctx, b.cfg.ShutdownTimeout); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// errorBody converts a failure into an error response body.
func errorBody(err error) string {
	rpcErr := &lsp.RPCError{Code: lsp.CodeRequestFailed, Message: err.Error()}

	var jerr *jsonrpc2.Error
	switch {
	case errors.As(err, &jerr):
		rpcErr = &lsp.RPCError{Code: int(jerr.Code), Message: jerr.Message}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		rpcErr.Code = lsp.CodeRequestCancelled
	case errors.Is(err, ErrNoServer):
		rpcErr.Code = lsp.CodeMethodNotFound
	}

	body, encErr := lsp.EncodeError(rpcErr)
	if encErr != nil {
		return `{"error":{"code":-32603,"message":"internal error"}}`
	}
	return body
}

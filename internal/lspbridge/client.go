package lspbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sourcegraph/jsonrpc2"
	"github.com/tidwall/gjson"

	"github.com/dshills/gotodef/internal/logging"
	"github.com/dshills/gotodef/internal/lsp"
)

// client is one initialized connection to a language server.
type client struct {
	fileType string
	conn     *jsonrpc2.Conn
	log      *logging.Logger

	mu     sync.Mutex
	opened map[lsp.DocumentURI]bool
}

// dialClient connects and performs the initialize handshake.
func dialClient(ctx context.Context, rwc io.ReadWriteCloser, fileType string, root lsp.DocumentURI, log *logging.Logger) (*client, error) {
	c := &client{
		fileType: fileType,
		log:      log,
		opened:   make(map[lsp.DocumentURI]bool),
	}

	stream := jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{})
	c.conn = jsonrpc2.NewConn(context.Background(), stream,
		jsonrpc2.HandlerWithError(c.handle).SuppressErrClosed(),
		jsonrpc2.SetLogger(rpcLogger{log}),
	)

	params := lsp.InitializeParams{
		ProcessID:    os.Getpid(),
		RootURI:      root,
		Capabilities: lsp.DefaultClientCapabilities(),
	}
	var result json.RawMessage
	if err := c.conn.Call(ctx, lsp.MethodInitialize, params, &result); err != nil {
		c.conn.Close()
		return nil, errors.Wrap(err, "initialize request")
	}
	if err := c.conn.Notify(ctx, lsp.MethodInitialized, struct{}{}); err != nil {
		c.conn.Close()
		return nil, errors.Wrap(err, "initialized notification")
	}

	name := gjson.GetBytes(result, "serverInfo.name").String()
	log.Info("language server ready", "filetype", fileType, "name", name)
	return c, nil
}

// handle answers server-to-client traffic. Nothing here calls back into
// the connection, which dispatches on its read goroutine.
func (c *client) handle(_ context.Context, _ *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
	switch req.Method {
	case "window/logMessage", "window/showMessage":
		if req.Params != nil {
			c.log.Debug("server message", "message", gjson.GetBytes(*req.Params, "message").String())
		}
		return nil, nil

	case "workspace/configuration":
		// One null per requested item.
		var n int64
		if req.Params != nil {
			n = gjson.GetBytes(*req.Params, "items.#").Int()
		}
		return make([]any, n), nil

	case "client/registerCapability", "client/unregisterCapability", "window/workDoneProgress/create":
		return nil, nil

	default:
		if req.Notif {
			return nil, nil
		}
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "method not supported: " + req.Method}
	}
}

// ensureOpen sends didOpen the first time a document is seen.
func (c *client) ensureOpen(ctx context.Context, uri lsp.DocumentURI, languageID, text string) error {
	c.mu.Lock()
	if c.opened[uri] {
		c.mu.Unlock()
		return nil
	}
	c.opened[uri] = true
	c.mu.Unlock()

	params := lsp.DidOpenTextDocumentParams{
		TextDocument: lsp.TextDocumentItem{
			URI:        uri,
			LanguageID: languageID,
			Version:    1,
			Text:       text,
		},
	}
	if err := c.conn.Notify(ctx, lsp.MethodDidOpen, params); err != nil {
		c.mu.Lock()
		delete(c.opened, uri)
		c.mu.Unlock()
		return errors.Wrapf(err, "didOpen %s", uri)
	}
	return nil
}

// definition forwards a definition request and returns the raw result.
func (c *client) definition(ctx context.Context, params lsp.TextDocumentPositionParams) (string, error) {
	var result json.RawMessage
	if err := c.conn.Call(ctx, lsp.MethodTextDocumentDefinition, params, &result); err != nil {
		return "", err
	}
	return string(result), nil
}

// shutdown asks the server to exit and closes the connection.
func (c *client) shutdown(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := c.conn.Call(ctx, lsp.MethodShutdown, nil, nil)
	if err == nil {
		err = c.conn.Notify(ctx, lsp.MethodExit, nil)
	}
	if cerr := c.conn.Close(); cerr != nil && !errors.Is(cerr, jsonrpc2.ErrClosed) {
		err = errors.CombineErrors(err, cerr)
	}
	if err != nil {
		return errors.Wrapf(err, "shutdown %s server", c.fileType)
	}
	return nil
}

// rpcLogger routes jsonrpc2's internal logging to the debug level.
type rpcLogger struct {
	l *logging.Logger
}

func (r rpcLogger) Printf(format string, v ...any) {
	r.l.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

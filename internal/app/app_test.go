package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sourcegraph/jsonrpc2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/dshills/gotodef/internal/config"
	"github.com/dshills/gotodef/internal/logging"
	"github.com/dshills/gotodef/internal/lsp"
	"github.com/dshills/gotodef/internal/lspbridge"
)

const (
	mainSource = "package main\n\nfunc main() {\n\thelper()\n}\n"
	utilSource = "package main\n\nfunc helper() {}\n"
)

// fakeServer answers definition requests over net.Pipe.
type fakeServer struct {
	mu      sync.Mutex
	result  string
	methods []string
}

func (f *fakeServer) dial(_ context.Context, fileType string) (io.ReadWriteCloser, error) {
	if fileType != "go" {
		return nil, errors.Wrapf(lspbridge.ErrNoServer, "%q", fileType)
	}
	clientEnd, serverEnd := net.Pipe()
	jsonrpc2.NewConn(context.Background(),
		jsonrpc2.NewBufferedStream(serverEnd, jsonrpc2.VSCodeObjectCodec{}),
		jsonrpc2.HandlerWithError(f.handle),
		jsonrpc2.SetLogger(log.New(io.Discard, "", 0)),
	)
	return clientEnd, nil
}

func (f *fakeServer) handle(_ context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.methods = append(f.methods, req.Method)

	switch req.Method {
	case lsp.MethodInitialize:
		return map[string]any{"capabilities": map[string]any{"definitionProvider": true}}, nil
	case lsp.MethodTextDocumentDefinition:
		return json.RawMessage(f.result), nil
	case lsp.MethodExit:
		go conn.Close()
		return nil, nil
	default:
		return nil, nil
	}
}

func (f *fakeServer) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.methods {
		if m == method {
			n++
		}
	}
	return n
}

// workspace writes main.go and util.go into a temp dir.
func workspace(t *testing.T) (dir, mainPath, utilPath string) {
	t.Helper()
	dir = t.TempDir()
	mainPath = filepath.Join(dir, "main.go")
	utilPath = filepath.Join(dir, "util.go")
	require.NoError(t, os.WriteFile(mainPath, []byte(mainSource), 0o644))
	require.NoError(t, os.WriteFile(utilPath, []byte(utilSource), 0o644))
	return dir, mainPath, utilPath
}

// locationResult is a definition result pointing at line, char of path.
func locationResult(path string, line, char int) string {
	return fmt.Sprintf(`[{"uri":%q,"range":{"start":{"line":%d,"character":%d},"end":{"line":%d,"character":%d}}}]`,
		lsp.FilePathToURI(path), line, char, line, char+6)
}

func newTestApp(t *testing.T, srv *fakeServer, mutate ...func(*Options)) *Application {
	t.Helper()
	opts := Options{
		Dial:      srv.dial,
		LogOutput: io.Discard,
	}
	for _, m := range mutate {
		m(&opts)
	}
	app, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown(context.Background()) })
	return app
}

func TestLookupNavigates(t *testing.T) {
	dir, mainPath, utilPath := workspace(t)
	srv := &fakeServer{result: locationResult(utilPath, 2, 5)}
	app := newTestApp(t, srv, func(o *Options) { o.WorkspacePath = dir })

	got, err := app.Lookup(context.Background(), Location{Path: mainPath, Line: 4, Col: 4})
	require.NoError(t, err)
	assert.Equal(t, Location{Path: utilPath, Line: 3, Col: 5}, got)

	active := app.Editor().Active()
	require.NotNil(t, active)
	assert.Equal(t, utilPath, active.Path())
	assert.Empty(t, app.Plugin().Pending())
	assert.Equal(t, 1, srv.count(lsp.MethodInitialize))
}

func TestLookupNullResult(t *testing.T) {
	_, mainPath, _ := workspace(t)
	app := newTestApp(t, &fakeServer{result: "null"})

	_, err := app.Lookup(context.Background(), Location{Path: mainPath, Line: 4, Col: 4})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoDefinition))
	assert.Contains(t, err.Error(), "no-result")

	line, col := app.Editor().Cursor()
	assert.Equal(t, 4, line)
	assert.Equal(t, 4, col)
	assert.Equal(t, mainPath, app.Editor().Active().Path())
}

func TestLookupNoServer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello\n"), 0o644))
	app := newTestApp(t, &fakeServer{result: "null"})

	_, err := app.Lookup(context.Background(), Location{Path: path, Line: 1, Col: 0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoDefinition))
}

func TestLookupMissingFile(t *testing.T) {
	app := newTestApp(t, &fakeServer{result: "null"})

	_, err := app.Lookup(context.Background(), Location{Path: filepath.Join(t.TempDir(), "nope.go"), Line: 1, Col: 0})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoDefinition))
}

func TestLookupAfterShutdown(t *testing.T) {
	_, mainPath, _ := workspace(t)
	app := newTestApp(t, &fakeServer{result: "null"})
	require.NoError(t, app.Shutdown(context.Background()))

	_, err := app.Lookup(context.Background(), Location{Path: mainPath, Line: 1, Col: 0})
	assert.True(t, errors.Is(err, ErrShutdown))
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		in      string
		want    Location
		wantErr bool
	}{
		{in: "main.go:4:2", want: Location{Path: "main.go", Line: 4, Col: 2}},
		{in: " /src/a.go:1:0 ", want: Location{Path: "/src/a.go", Line: 1, Col: 0}},
		{in: `C:\src\a.go:10:3`, want: Location{Path: `C:\src\a.go`, Line: 10, Col: 3}},
		{in: "main.go", wantErr: true},
		{in: "main.go:4", wantErr: true},
		{in: ":4:2", wantErr: true},
		{in: "main.go:0:2", wantErr: true},
		{in: "main.go:x:2", wantErr: true},
		{in: "main.go:4:-1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLocation(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrBadLocation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, strings.TrimSpace(tt.in), got.String())
		})
	}
}

func TestRunScript(t *testing.T) {
	_, mainPath, utilPath := workspace(t)
	app := newTestApp(t, &fakeServer{result: locationResult(utilPath, 2, 5)})

	script := filepath.Join(t.TempDir(), "goto.lua")
	require.NoError(t, os.WriteFile(script, []byte(fmt.Sprintf(`
assert(editor.open(%q))
editor.move(3, 4)
assert(editor.command("lsp-goto-definition"))
assert(editor.sync())
local b = editor.buffer()
local line, col = editor.cursor()
print(b.path, line, col)
`, mainPath)), 0o644))

	var out bytes.Buffer
	require.NoError(t, app.RunScript(context.Background(), script, &out))
	assert.Equal(t, utilPath+"\t3\t5\n", out.String())
}

func TestRunScriptError(t *testing.T) {
	app := newTestApp(t, &fakeServer{result: "null"})

	script := filepath.Join(t.TempDir(), "bad.lua")
	require.NoError(t, os.WriteFile(script, []byte(`error("boom")`), 0o644))

	err := app.RunScript(context.Background(), script, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestReloadConfigReplacesCommand(t *testing.T) {
	app := newTestApp(t, &fakeServer{result: "null"})
	before := app.Plugin()
	bridge := app.currentBridge()

	cfg := app.Config()
	cfg.Plugin.Command = "goto"
	require.NoError(t, app.ReloadConfig(context.Background(), cfg))

	assert.Contains(t, app.Editor().Commands(), "goto")
	assert.NotContains(t, app.Editor().Commands(), "lsp-goto-definition")
	assert.NotSame(t, before, app.Plugin())
	assert.Same(t, bridge, app.currentBridge(), "routing is unchanged")
	assert.Equal(t, "goto", app.Config().Plugin.Command)
}

func TestReloadConfigRestartsBridge(t *testing.T) {
	app := newTestApp(t, &fakeServer{result: "null"})
	bridge := app.currentBridge()
	before := app.Plugin()

	cfg := app.Config()
	cfg.Servers["go"] = config.ServerConfig{Command: "gopls", Args: []string{"serve"}}
	require.NoError(t, app.ReloadConfig(context.Background(), cfg))

	assert.NotSame(t, bridge, app.currentBridge())
	assert.Same(t, before, app.Plugin(), "plugin settings are unchanged")
}

func TestReloadConfigKeepsOverrides(t *testing.T) {
	app := newTestApp(t, &fakeServer{result: "null"}, func(o *Options) { o.TabWidth = 8 })

	cfg := config.Default()
	require.NoError(t, app.ReloadConfig(context.Background(), cfg))
	assert.Equal(t, 8, app.Config().Plugin.TabWidth)
}

func TestReloadConfigRejectsInvalid(t *testing.T) {
	app := newTestApp(t, &fakeServer{result: "null"})

	cfg := app.Config()
	cfg.Plugin.Timeout = 0
	err := app.ReloadConfig(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrValidationFailed))
	assert.Equal(t, 5*time.Second, app.Config().Plugin.Timeout)
}

func TestReloadConfigRejectsInvalidTopic(t *testing.T) {
	_, mainPath, utilPath := workspace(t)
	app := newTestApp(t, &fakeServer{result: locationResult(utilPath, 2, 5)})
	bridge := app.currentBridge()
	before := app.Plugin()

	cfg := app.Config()
	cfg.Plugin.ResponseTopic = "text document/definition"
	cfg.Servers["go"] = config.ServerConfig{Command: "gopls"}
	cfg.Log.Level = "debug"
	err := app.ReloadConfig(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrValidationFailed))

	assert.Same(t, bridge, app.currentBridge())
	assert.Same(t, before, app.Plugin())
	assert.Equal(t, "textDocument/definition", app.Config().Plugin.ResponseTopic)
	assert.NotEqual(t, logging.LevelDebug, app.Logger().Level())

	got, err := app.Lookup(context.Background(), Location{Path: mainPath, Line: 4, Col: 4})
	require.NoError(t, err)
	assert.Equal(t, Location{Path: utilPath, Line: 3, Col: 5}, got)
}

func TestServe(t *testing.T) {
	_, mainPath, utilPath := workspace(t)
	app := newTestApp(t, &fakeServer{result: locationResult(utilPath, 2, 5)})

	in := strings.NewReader(fmt.Sprintf("# comment\n\n%s:4:4\nbogus\n", mainPath))
	var out bytes.Buffer
	require.NoError(t, app.Serve(context.Background(), in, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	ok := gjson.Parse(lines[0])
	assert.Equal(t, mainPath+":4:4", ok.Get("query").String())
	assert.Equal(t, utilPath, ok.Get("path").String())
	assert.Equal(t, int64(3), ok.Get("line").Int())
	assert.Equal(t, int64(5), ok.Get("col").Int())
	assert.False(t, ok.Get("error").Exists())

	bad := gjson.Parse(lines[1])
	assert.Equal(t, "bogus", bad.Get("query").String())
	assert.Contains(t, bad.Get("error").String(), "invalid location")
}

func TestNewInvalidConfig(t *testing.T) {
	_, err := New(Options{TabWidth: -1, LogOutput: io.Discard})
	require.Error(t, err)

	var ie *InitError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "config", ie.Component)
	assert.True(t, errors.Is(err, config.ErrValidationFailed))
}

func TestNewMissingInitialFile(t *testing.T) {
	_, err := New(Options{
		Files:     []string{filepath.Join(t.TempDir(), "missing.go")},
		LogOutput: io.Discard,
		Dial:      (&fakeServer{}).dial,
	})
	require.Error(t, err)

	var ie *InitError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "documents", ie.Component)
}

func TestNewOpensFiles(t *testing.T) {
	_, mainPath, utilPath := workspace(t)
	app := newTestApp(t, &fakeServer{}, func(o *Options) { o.Files = []string{mainPath, utilPath} })

	assert.Len(t, app.Editor().Buffers(), 2)
	assert.Equal(t, utilPath, app.Editor().Active().Path())
	assert.Contains(t, app.Editor().Commands(), "lsp-goto-definition")
}

func TestShutdownIsIdempotent(t *testing.T) {
	app := newTestApp(t, &fakeServer{})

	require.NoError(t, app.Shutdown(context.Background()))
	require.NoError(t, app.Shutdown(context.Background()))
	assert.Empty(t, app.Plugins().List())
}

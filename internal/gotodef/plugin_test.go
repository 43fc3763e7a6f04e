package gotodef

import (
	"context"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/gotodef/internal/event"
	"github.com/dshills/gotodef/internal/host"
	"github.com/dshills/gotodef/internal/lsp"
	"github.com/dshills/gotodef/internal/plugin"
)

// fakeServer answers definition requests on the bus. With hold set it only
// records them so the test can reply later.
type fakeServer struct {
	bus    *event.Bus
	result func(params lsp.TextDocumentPositionParams) string
	hold   bool

	mu       sync.Mutex
	requests []*event.Message
}

func (s *fakeServer) Handle(ctx context.Context, msg *event.Message) error {
	s.mu.Lock()
	s.requests = append(s.requests, msg)
	s.mu.Unlock()

	if s.hold {
		return nil
	}
	return s.reply(ctx, msg)
}

func (s *fakeServer) reply(ctx context.Context, req *event.Message) error {
	params, err := lsp.DecodeDefinitionParams(req.Data)
	if err != nil {
		return err
	}
	resp := event.NewMessage(DefaultResponseTopic, DefaultLSPID, s.result(params)).
		WithCorrelation(req.Metadata.CorrelationID)
	_, err = s.bus.Publish(ctx, resp)
	return err
}

type pluginFixture struct {
	bus     *event.Bus
	host    *fakeHost
	origin  *fakeSurface
	target  *fakeSurface
	server  *fakeServer
	clock   *fakeClock
	plugin  *Plugin
	results []Resolution
}

func newPluginFixture(t *testing.T, opts ...Option) *pluginFixture {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("unix paths")
	}

	f := &pluginFixture{
		bus:   event.NewBus(),
		clock: newFakeClock(),
	}
	f.origin = &fakeSurface{buf: goFile("/src/main.go", "package main", "", "func main() { Foo() }"), line: 3, col: 14}
	f.target = &fakeSurface{buf: goFile("/src/foo.go", "package main", "", "// Foo does things.", "func Foo() {}"), line: 1}
	f.host = newFakeHost(f.origin, f.target)

	f.server = &fakeServer{bus: f.bus, result: func(lsp.TextDocumentPositionParams) string {
		return `{"result":[{"uri":"file:///src/foo.go","range":{"start":{"line":3,"character":5},"end":{"line":3,"character":8}}}]}`
	}}
	_, err := f.bus.Subscribe(DefaultRequestTopic, f.server, event.WithFileType("go"))
	require.NoError(t, err)

	opts = append([]Option{
		WithClock(f.clock.Now),
		WithIDGenerator(seqIDs()),
		WithResolvedHook(func(r Resolution) { f.results = append(f.results, r) }),
	}, opts...)
	f.plugin = New(opts...)

	require.NoError(t, f.plugin.Boot(context.Background(), f.context()))
	return f
}

func (f *pluginFixture) context() *plugin.Context {
	return &plugin.Context{Host: f.host, Commands: f.host, Bus: f.bus}
}

func TestPluginName(t *testing.T) {
	assert.Equal(t, "lsp_goto_definition", New().Name())
	assert.Equal(t, "custom", New(WithIdentity("custom", "clangd")).Name())
}

func TestPluginBoot(t *testing.T) {
	f := newPluginFixture(t)

	assert.Contains(t, f.host.commands, DefaultCommand)
	assert.Equal(t, [][2]int{{0, 0}}, f.host.moves, "zero move on boot")
	assert.Equal(t, 2, f.bus.Stats().Subscribers)

	err := f.plugin.Boot(context.Background(), f.context())
	assert.True(t, errors.Is(err, plugin.ErrAlreadyActive))

	err = New().Boot(context.Background(), &plugin.Context{Bus: f.bus})
	assert.True(t, errors.Is(err, plugin.ErrIncompleteContext))
}

func TestPluginGotoDefinition(t *testing.T) {
	f := newPluginFixture(t)

	require.NoError(t, f.host.run(DefaultCommand))

	require.Len(t, f.server.requests, 1)
	req := f.server.requests[0]
	assert.Equal(t, DefaultID, req.Source)
	assert.Equal(t, "go", req.FileType)
	assert.JSONEq(t, `{"textDocument":{"uri":"file:///src/main.go"},"position":{"line":2,"character":14}}`, req.Data)

	require.Len(t, f.results, 1)
	res := f.results[0]
	assert.Equal(t, OutcomeNavigated, res.Outcome)
	assert.Equal(t, "req-1", res.ID)
	assert.Equal(t, EditorPosition{Line: 4, Column: 5}, res.Target)

	assert.Same(t, f.target, f.host.active)
	assert.Equal(t, 4, f.target.line)
	assert.Equal(t, 5, f.target.col)
	assert.Empty(t, f.plugin.Pending())
}

func TestPluginOutOfOrderResponses(t *testing.T) {
	f := newPluginFixture(t)
	f.server.hold = true
	f.server.result = func(p lsp.TextDocumentPositionParams) string {
		if p.Position.Line == 2 {
			return `{"result":{"uri":"file:///src/foo.go","range":{"start":{"line":3,"character":5}}}}`
		}
		return `{"result":null}`
	}

	ctx := context.Background()
	first, err := f.plugin.GotoDefinition(ctx)
	require.NoError(t, err)

	f.origin.line, f.origin.col = 1, 0
	f.clock.Advance(time.Millisecond)
	second, err := f.plugin.GotoDefinition(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{first, second}, f.plugin.Pending())
	require.Len(t, f.server.requests, 2)

	require.NoError(t, f.server.reply(ctx, f.server.requests[1]))
	require.NoError(t, f.server.reply(ctx, f.server.requests[0]))

	require.Len(t, f.results, 2)
	assert.Equal(t, second, f.results[0].ID)
	assert.Equal(t, OutcomeNoResult, f.results[0].Outcome)
	assert.Equal(t, first, f.results[1].ID)
	assert.Equal(t, OutcomeNavigated, f.results[1].Outcome)
	assert.Empty(t, f.plugin.Pending())
}

func TestPluginTimeout(t *testing.T) {
	f := newPluginFixture(t, WithTimeout(2*time.Second))
	f.server.hold = true

	ctx := context.Background()
	id, err := f.plugin.GotoDefinition(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	f.clock.Advance(3 * time.Second)
	assert.Equal(t, 1, f.plugin.Sweep())
	assert.Empty(t, f.plugin.Pending())

	require.NoError(t, f.server.reply(ctx, f.server.requests[0]))
	require.Len(t, f.results, 1)
	assert.Equal(t, OutcomeStale, f.results[0].Outcome)
	assert.Same(t, f.origin, f.host.active, "late answer does not navigate")
}

func TestPluginRepeatedLookups(t *testing.T) {
	f := newPluginFixture(t)
	f.server.hold = true

	require.NoError(t, f.host.run(DefaultCommand))
	require.NoError(t, f.host.run(DefaultCommand))

	assert.Len(t, f.server.requests, 2)
	assert.Len(t, f.plugin.Pending(), 2)
	assert.Same(t, f.origin, f.host.active)
	assert.Equal(t, [][2]int{{0, 0}}, f.host.moves)

	special := &fakeSurface{buf: &fakeBuffer{name: "*log", kind: host.KindFile, special: true, lines: []string{"x"}}, line: 1}
	f.host.active = special
	require.NoError(t, f.host.run(DefaultCommand))
	require.NoError(t, f.host.run(DefaultCommand))
	assert.Len(t, f.server.requests, 2, "special buffers publish nothing")
}

func TestPluginCancelsHandledResponses(t *testing.T) {
	f := newPluginFixture(t)

	var seen []string
	_, err := f.bus.SubscribeFunc(DefaultResponseTopic, func(_ context.Context, msg *event.Message) error {
		seen = append(seen, msg.Source)
		return nil
	}, event.WithPriority(event.PriorityNormal))
	require.NoError(t, err)

	require.NoError(t, f.host.run(DefaultCommand))
	_, err = f.bus.Publish(context.Background(), event.NewMessage(DefaultResponseTopic, "other", `{"result":null}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"other"}, seen, "lsp answers stop at the resolver")
}

func TestPluginUnload(t *testing.T) {
	f := newPluginFixture(t)
	f.server.hold = true

	_, err := f.plugin.GotoDefinition(context.Background())
	require.NoError(t, err)

	require.NoError(t, f.plugin.Unload(context.Background()))
	assert.NotContains(t, f.host.commands, DefaultCommand)
	assert.Empty(t, f.plugin.Pending())
	assert.Equal(t, 1, f.bus.Stats().Subscribers, "only the fake server remains")

	require.NoError(t, f.server.reply(context.Background(), f.server.requests[0]))
	assert.Empty(t, f.results)

	_, err = f.plugin.GotoDefinition(context.Background())
	assert.ErrorIs(t, err, ErrNotBooted)

	require.NoError(t, f.plugin.Unload(context.Background()), "second unload is a no-op")

	require.NoError(t, f.plugin.Boot(context.Background(), f.context()), "reload")
	assert.Contains(t, f.host.commands, DefaultCommand)
}

func TestPluginCustomRouting(t *testing.T) {
	bus := event.NewBus()
	origin := &fakeSurface{buf: goFile("/x.go", "package x"), line: 1}
	h := newFakeHost(origin)

	var got []*event.Message
	_, err := bus.SubscribeFunc("defs:request", func(_ context.Context, msg *event.Message) error {
		got = append(got, msg)
		return nil
	})
	require.NoError(t, err)

	p := New(WithTopics("defs:request", "defs:response"), WithIdentity("mine", "clangd"), WithCommand("goto"))
	require.NoError(t, p.Boot(context.Background(), &plugin.Context{Host: h, Commands: h, Bus: bus}))
	require.NoError(t, h.run("goto"))

	require.Len(t, got, 1)
	assert.Equal(t, "mine", got[0].Source)
}

func TestPluginWithManager(t *testing.T) {
	f := newPluginFixture(t)
	require.NoError(t, f.plugin.Unload(context.Background()))

	m := plugin.NewManager(f.context(), plugin.DefaultManagerConfig())
	require.NoError(t, m.Load(context.Background(), f.plugin))
	assert.Equal(t, plugin.StateActive, m.State(DefaultID))

	require.NoError(t, f.host.run(DefaultCommand))
	require.Len(t, f.results, 1)
	assert.Equal(t, OutcomeNavigated, f.results[0].Outcome)

	require.NoError(t, m.UnloadAll(context.Background()))
	assert.Equal(t, plugin.StateUnloaded, m.State(DefaultID))
	assert.NotContains(t, f.host.commands, DefaultCommand)
}

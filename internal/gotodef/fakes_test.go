package gotodef

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dshills/gotodef/internal/event"
	"github.com/dshills/gotodef/internal/host"
)

type fakeBuffer struct {
	name    string
	path    string
	kind    host.BufferKind
	special bool
	ft      string
	lines   []string
}

func (b *fakeBuffer) Name() string          { return b.name }
func (b *fakeBuffer) Path() string          { return b.path }
func (b *fakeBuffer) Kind() host.BufferKind { return b.kind }
func (b *fakeBuffer) Special() bool         { return b.special }
func (b *fakeBuffer) FileType() string      { return b.ft }
func (b *fakeBuffer) LineCount() int        { return len(b.lines) }

func (b *fakeBuffer) Line(n int) (string, bool) {
	if n < 1 || n > len(b.lines) {
		return "", false
	}
	return b.lines[n-1], true
}

func goFile(path string, lines ...string) *fakeBuffer {
	return &fakeBuffer{name: path, path: path, kind: host.KindFile, ft: "go", lines: lines}
}

type fakeSurface struct {
	buf  *fakeBuffer
	line int
	col  int
}

func (s *fakeSurface) Buffer() host.Buffer {
	if s.buf == nil {
		return nil
	}
	return s.buf
}

func (s *fakeSurface) Cursor() (int, int) { return s.line, s.col }

// fakeHost switches between pre-built surfaces keyed by path and records
// every command and cursor move.
type fakeHost struct {
	mu       sync.Mutex
	active   *fakeSurface
	surfaces map[string]*fakeSurface
	executed [][]string
	moves    [][2]int
	execErr  error
	commands map[string]host.CommandFunc
}

func newFakeHost(active *fakeSurface, others ...*fakeSurface) *fakeHost {
	h := &fakeHost{
		active:   active,
		surfaces: make(map[string]*fakeSurface),
		commands: make(map[string]host.CommandFunc),
	}
	for _, s := range append([]*fakeSurface{active}, others...) {
		if s != nil && s.buf != nil {
			h.surfaces[s.buf.path] = s
		}
	}
	return h
}

func (h *fakeHost) ActiveSurface() host.Surface {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active == nil {
		return nil
	}
	return h.active
}

func (h *fakeHost) Execute(name string, args ...string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.executed = append(h.executed, append([]string{name}, args...))
	if h.execErr != nil {
		return h.execErr
	}
	if name != "buffer" || len(args) != 1 {
		return fmt.Errorf("unknown command %q", name)
	}
	s, ok := h.surfaces[args[0]]
	if !ok {
		return fmt.Errorf("no such file %q", args[0])
	}
	h.active = s
	return nil
}

func (h *fakeHost) MoveCursor(dl, dc int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.moves = append(h.moves, [2]int{dl, dc})
	if h.active != nil {
		h.active.line += dl
		h.active.col += dc
	}
}

func (h *fakeHost) SetCommand(name string, fn host.CommandFunc) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.commands[name] = fn
	return nil
}

func (h *fakeHost) RemoveCommand(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.commands, name)
}

func (h *fakeHost) run(name string) error {
	h.mu.Lock()
	fn, ok := h.commands[name]
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("no command %q", name)
	}
	return fn()
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// seqIDs returns ids "req-1", "req-2", ...
func seqIDs() IDGenerator {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("req-%d", n)
	}
}

// recordingPublisher captures published messages.
type recordingPublisher struct {
	msgs []*event.Message
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, msg *event.Message) (event.PublishResult, error) {
	if p.err != nil {
		return event.PublishResult{}, p.err
	}
	p.msgs = append(p.msgs, msg)
	return event.PublishResult{Delivered: 1}, nil
}

func response(data, correlation string) *event.Message {
	return event.NewMessage(DefaultResponseTopic, DefaultLSPID, data).WithCorrelation(correlation)
}

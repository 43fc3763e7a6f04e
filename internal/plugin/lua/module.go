package lua

import (
	"context"
	"strconv"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/gotodef/internal/host"
)

// DefaultSyncTimeout bounds editor.sync() when the script gives no timeout.
const DefaultSyncTimeout = 5 * time.Second

// SyncFunc waits for outstanding editor work, such as definition responses
// from a language server, to settle.
type SyncFunc func(ctx context.Context) error

// Module is the "editor" table exposed to scripts.
type Module struct {
	Host host.Host

	// Sync backs editor.sync(). Optional.
	Sync SyncFunc
}

// Install registers the editor table on s.
func (m *Module) Install(s *State) error {
	if m.Host == nil {
		return ErrNoHost
	}
	s.RegisterModule("editor", map[string]lua.LGFunction{
		"command": m.command,
		"open":    m.open,
		"cursor":  m.cursor,
		"move":    m.move,
		"buffer":  m.buffer,
		"line":    m.line,
		"sync":    m.sync,
	})
	return nil
}

// editor.command(name, ...) -> true | nil, err
func (m *Module) command(L *lua.LState) int {
	name := L.CheckString(1)
	args := make([]string, 0, L.GetTop()-1)
	for i := 2; i <= L.GetTop(); i++ {
		args = append(args, luaArg(L.Get(i)))
	}
	return pushResult(L, m.Host.Execute(name, args...))
}

// editor.open(path) -> true | nil, err
func (m *Module) open(L *lua.LState) int {
	return pushResult(L, m.Host.Execute("buffer", L.CheckString(1)))
}

// editor.cursor() -> line, col | nil
func (m *Module) cursor(L *lua.LState) int {
	s := m.Host.ActiveSurface()
	if s == nil {
		L.Push(lua.LNil)
		return 1
	}
	line, col := s.Cursor()
	L.Push(lua.LNumber(line))
	L.Push(lua.LNumber(col))
	return 2
}

// editor.move(dl, dc)
func (m *Module) move(L *lua.LState) int {
	m.Host.MoveCursor(L.CheckInt(1), L.CheckInt(2))
	return 0
}

// editor.buffer() -> {name, path, filetype, kind, special, lines} | nil
func (m *Module) buffer(L *lua.LState) int {
	s := m.Host.ActiveSurface()
	if s == nil || s.Buffer() == nil {
		L.Push(lua.LNil)
		return 1
	}
	b := s.Buffer()

	t := L.NewTable()
	t.RawSetString("name", lua.LString(b.Name()))
	t.RawSetString("path", lua.LString(b.Path()))
	t.RawSetString("filetype", lua.LString(b.FileType()))
	t.RawSetString("kind", lua.LString(b.Kind().String()))
	t.RawSetString("special", lua.LBool(b.Special()))
	t.RawSetString("lines", lua.LNumber(b.LineCount()))
	L.Push(t)
	return 1
}

// editor.line([n]) -> string | nil. Defaults to the cursor line.
func (m *Module) line(L *lua.LState) int {
	s := m.Host.ActiveSurface()
	if s == nil || s.Buffer() == nil {
		L.Push(lua.LNil)
		return 1
	}
	cur, _ := s.Cursor()
	content, ok := s.Buffer().Line(L.OptInt(1, cur))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(content))
	return 1
}

// editor.sync([seconds]) -> true | nil, err
func (m *Module) sync(L *lua.LState) int {
	if m.Sync == nil {
		L.Push(lua.LTrue)
		return 1
	}

	timeout := DefaultSyncTimeout
	if secs := L.OptNumber(1, 0); secs > 0 {
		timeout = time.Duration(float64(secs) * float64(time.Second))
	}

	parent := L.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	return pushResult(L, m.Sync(ctx))
}

func pushResult(L *lua.LState, err error) int {
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LTrue)
	return 1
}

// luaArg renders a command argument. Integral numbers print without a
// fraction so "cursor", 3, 4 works.
func luaArg(v lua.LValue) string {
	if n, ok := v.(lua.LNumber); ok {
		f := float64(n)
		if f == float64(int64(f)) {
			return strconv.FormatInt(int64(f), 10)
		}
	}
	return v.String()
}

package editor

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/dshills/gotodef/internal/host"
	"github.com/dshills/gotodef/internal/layout"
	"github.com/dshills/gotodef/internal/logging"
	"github.com/dshills/gotodef/internal/lsp"
)

// Built-in command names.
const (
	CommandBuffer = "buffer"
	CommandCursor = "cursor"
)

// ReadFileFunc loads a file's content.
type ReadFileFunc func(path string) ([]byte, error)

// Option configures an Editor.
type Option func(*Editor)

// WithReadFile sets how files are loaded. The default is os.ReadFile.
func WithReadFile(fn ReadFileFunc) Option {
	return func(e *Editor) { e.readFile = fn }
}

// WithIndexer sets the converter used to measure line widths.
func WithIndexer(x layout.LineIndexer) Option {
	return func(e *Editor) { e.indexer = x }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Editor) { e.logger = l.WithComponent("editor") }
}

type cursor struct {
	line int
	col  int
}

// Editor is an in-memory host.
type Editor struct {
	mu       sync.RWMutex
	buffers  map[string]*Buffer
	order    []string
	active   *Buffer
	cursors  map[*Buffer]cursor
	commands map[string]host.CommandFunc

	readFile ReadFileFunc
	indexer  layout.LineIndexer
	logger   *logging.Logger

	queueMu sync.Mutex
	queue   []func()
	wake    chan struct{}
}

// New creates an editor with the built-in commands registered.
func New(opts ...Option) *Editor {
	e := &Editor{
		buffers:  make(map[string]*Buffer),
		cursors:  make(map[*Buffer]cursor),
		commands: make(map[string]host.CommandFunc),
		readFile: os.ReadFile,
		indexer:  layout.DefaultIndexer(),
		wake:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.commands[CommandBuffer] = e.bufferCommand
	e.commands[CommandCursor] = e.cursorCommand
	return e
}

// Open makes the file at path the active buffer, loading it if needed.
func (e *Editor) Open(path string) (*Buffer, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %q", path)
	}

	e.mu.Lock()
	if b, ok := e.buffers[abs]; ok {
		e.activateLocked(b)
		e.mu.Unlock()
		return b, nil
	}
	e.mu.Unlock()

	content, err := e.readFile(abs)
	if err != nil {
		return nil, errors.Wrapf(err, "open %q", abs)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Another caller may have opened it meanwhile.
	b, ok := e.buffers[abs]
	if !ok {
		b = NewFileBuffer(abs, content)
		e.addLocked(b)
		e.logger.Debug("opened", "path", abs, "lines", b.LineCount())
	}
	e.activateLocked(b)
	return b, nil
}

// Add registers b without reading anything from disk.
func (e *Editor) Add(b *Buffer) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.buffers[b.key()]; ok {
		return errors.Wrapf(ErrDuplicateBuffer, "%q", b.key())
	}
	e.addLocked(b)
	return nil
}

// Show makes b the active buffer. b must have been added or opened.
func (e *Editor) Show(b *Buffer) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.buffers[b.key()] != b {
		return errors.Wrapf(ErrBufferNotFound, "%q", b.Name())
	}
	e.activateLocked(b)
	return nil
}

// Close forgets the buffer with the given path or name.
func (e *Editor) Close(b *Buffer) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := b.key()
	if e.buffers[key] != b {
		return errors.Wrapf(ErrBufferNotFound, "%q", b.Name())
	}
	delete(e.buffers, key)
	delete(e.cursors, b)
	for i, k := range e.order {
		if k == key {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}

	if e.active == b {
		e.active = nil
		if n := len(e.order); n > 0 {
			e.active = e.buffers[e.order[n-1]]
		}
	}
	return nil
}

// Buffer returns the open buffer for a path or, for buffers without a path,
// a name.
func (e *Editor) Buffer(pathOrName string) (*Buffer, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if b, ok := e.buffers[pathOrName]; ok {
		return b, true
	}
	if abs, err := filepath.Abs(pathOrName); err == nil {
		if b, ok := e.buffers[abs]; ok {
			return b, true
		}
	}
	b, ok := e.buffers["::"+pathOrName]
	return b, ok
}

// Buffers returns all open buffers in open order.
func (e *Editor) Buffers() []*Buffer {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]*Buffer, 0, len(e.order))
	for _, k := range e.order {
		out = append(out, e.buffers[k])
	}
	return out
}

// Active returns the active buffer, or nil.
func (e *Editor) Active() *Buffer {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.active
}

// ActiveSurface implements host.Host. The returned frame is a snapshot.
func (e *Editor) ActiveSurface() host.Surface {
	f := e.Frame()
	if f == nil {
		return nil
	}
	return f
}

// Frame returns a snapshot of the active frame, or nil.
func (e *Editor) Frame() *Frame {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.active == nil {
		return nil
	}
	c := e.cursors[e.active]
	return &Frame{buffer: e.active, line: c.line, col: c.col}
}

// Cursor returns the active cursor, or (0, 0) with no active buffer.
func (e *Editor) Cursor() (line, col int) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.active == nil {
		return 0, 0
	}
	c := e.cursors[e.active]
	return c.line, c.col
}

// MoveCursor implements host.Host. The result is clamped to the buffer.
func (e *Editor) MoveCursor(deltaLine, deltaColumn int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		return
	}
	c := e.cursors[e.active]
	e.setCursorLocked(c.line+deltaLine, c.col+deltaColumn)
}

// SetCursor moves the active cursor to an absolute, clamped position.
func (e *Editor) SetCursor(line, col int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		return ErrNoActiveFrame
	}
	e.setCursorLocked(line, col)
	return nil
}

// SetIndexer replaces the converter used to measure line widths.
func (e *Editor) SetIndexer(x layout.LineIndexer) {
	if x == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.indexer = x
}

// Execute implements host.Host.
func (e *Editor) Execute(name string, args ...string) error {
	e.mu.RLock()
	fn, ok := e.commands[name]
	e.mu.RUnlock()

	if !ok {
		return errors.Wrapf(ErrUnknownCommand, "%q", name)
	}
	return fn(args...)
}

// SetCommand implements host.Commands.
func (e *Editor) SetCommand(name string, fn host.CommandFunc) error {
	if name == "" || fn == nil {
		return errors.Wrap(ErrBadArguments, "command needs a name and a function")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.commands[name] = fn
	return nil
}

// RemoveCommand implements host.Commands.
func (e *Editor) RemoveCommand(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.commands, name)
}

// Commands returns the registered command names, sorted.
func (e *Editor) Commands() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.commands))
	for name := range e.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DocumentText returns the content of the open buffer a URI refers to.
func (e *Editor) DocumentText(uri lsp.DocumentURI) (string, bool) {
	key, err := lsp.URIToFilePath(uri)
	if err != nil {
		return "", false
	}
	b, ok := e.Buffer(key)
	if !ok {
		return "", false
	}
	return b.Text(), true
}

func (e *Editor) bufferCommand(args ...string) error {
	if len(args) != 1 || args[0] == "" {
		return errors.Wrapf(ErrBadArguments, "%s <path>", CommandBuffer)
	}
	if b, ok := e.Buffer(args[0]); ok && b.Path() == "" {
		return e.Show(b)
	}
	_, err := e.Open(args[0])
	return err
}

func (e *Editor) cursorCommand(args ...string) error {
	if len(args) != 2 {
		return errors.Wrapf(ErrBadArguments, "%s <line> <col>", CommandCursor)
	}
	line, err := strconv.Atoi(args[0])
	if err != nil {
		return errors.Wrapf(ErrBadArguments, "line %q", args[0])
	}
	col, err := strconv.Atoi(args[1])
	if err != nil {
		return errors.Wrapf(ErrBadArguments, "column %q", args[1])
	}
	return e.SetCursor(line, col)
}

func (e *Editor) addLocked(b *Buffer) {
	k := b.key()
	e.buffers[k] = b
	e.order = append(e.order, k)
	e.cursors[b] = cursor{line: 1}
}

func (e *Editor) activateLocked(b *Buffer) {
	e.active = b
}

// setCursorLocked clamps the line to the buffer and the column to the
// line's display width.
func (e *Editor) setCursorLocked(line, col int) {
	b := e.active
	line = max(1, min(line, b.LineCount()))
	content, _ := b.Line(line)
	width := e.indexer.ByteOffsetToColumn(content, len(content))
	col = max(0, min(col, width))
	e.cursors[b] = cursor{line: line, col: col}
}

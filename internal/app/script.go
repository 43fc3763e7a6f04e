package app

import (
	"context"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/dshills/gotodef/internal/plugin/lua"
)

// RunScript runs the Lua file at path against the editor. print() writes to
// out. editor.sync() settles outstanding definition lookups.
func (app *Application) RunScript(ctx context.Context, path string, out io.Writer) error {
	app.opMu.Lock()
	defer app.opMu.Unlock()

	app.mu.Lock()
	closed := app.closed
	app.mu.Unlock()
	if closed {
		return ErrShutdown
	}

	s := lua.NewState(lua.WithOutput(out))
	defer s.Close()

	mod := &lua.Module{Host: app.editor, Sync: app.Settle}
	if err := mod.Install(s); err != nil {
		return err
	}

	app.log.Debug("running script", "path", path)
	if err := s.DoFile(ctx, path); err != nil {
		return errors.Wrapf(err, "script %s", path)
	}

	// Deliver anything the script left in flight.
	return app.Settle(ctx)
}

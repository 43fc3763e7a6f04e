package app

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/dshills/gotodef/internal/gotodef"
)

// Location is an editor position in a file: a 1-based line and a 0-based
// display column.
type Location struct {
	Path string
	Line int
	Col  int
}

// String formats l as PATH:LINE:COL.
func (l Location) String() string {
	return l.Path + ":" + strconv.Itoa(l.Line) + ":" + strconv.Itoa(l.Col)
}

// ParseLocation parses PATH:LINE:COL. The path may itself contain colons.
func ParseLocation(s string) (Location, error) {
	s = strings.TrimSpace(s)

	rest, colStr, ok := cutLast(s, ":")
	if !ok {
		return Location{}, errors.Wrapf(ErrBadLocation, "%q: want PATH:LINE:COL", s)
	}
	path, lineStr, ok := cutLast(rest, ":")
	if !ok || path == "" {
		return Location{}, errors.Wrapf(ErrBadLocation, "%q: want PATH:LINE:COL", s)
	}

	line, err := strconv.Atoi(lineStr)
	if err != nil || line < 1 {
		return Location{}, errors.Wrapf(ErrBadLocation, "%q: line must be a number from 1", s)
	}
	col, err := strconv.Atoi(colStr)
	if err != nil || col < 0 {
		return Location{}, errors.Wrapf(ErrBadLocation, "%q: column must be a number from 0", s)
	}
	return Location{Path: path, Line: line, Col: col}, nil
}

func cutLast(s, sep string) (before, after string, found bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(sep):], true
}

// Lookup opens loc, requests its definition and waits for the answer. On
// success the editor has navigated and the new cursor location is
// returned.
func (app *Application) Lookup(ctx context.Context, loc Location) (Location, error) {
	app.opMu.Lock()
	defer app.opMu.Unlock()

	app.mu.Lock()
	closed, p, timeout := app.closed, app.gotodef, app.cfg.Plugin.Timeout
	app.mu.Unlock()
	if closed {
		return Location{}, ErrShutdown
	}

	if _, err := app.editor.Open(loc.Path); err != nil {
		return Location{}, err
	}
	if err := app.editor.SetCursor(loc.Line, loc.Col); err != nil {
		return Location{}, err
	}

	id, err := p.GotoDefinition(ctx)
	if err != nil {
		return Location{}, err
	}
	if id == "" {
		return Location{}, errors.Wrapf(ErrNoDefinition, "nothing to look up at %s", loc)
	}

	res, err := app.await(ctx, p, id, timeout)
	if err != nil {
		return Location{}, err
	}
	if res.Outcome != gotodef.OutcomeNavigated {
		err := errors.Wrapf(ErrNoDefinition, "%s", res.Outcome)
		if res.Err != nil {
			err = errors.CombineErrors(err, res.Err)
		}
		return Location{}, err
	}

	line, col := app.editor.Cursor()
	return Location{Path: res.Path, Line: line, Col: col}, nil
}

// await settles outstanding work and claims the resolution for id. A request
// still pending after timeout is swept so a late answer is dropped.
func (app *Application) await(ctx context.Context, p *gotodef.Plugin, id string, timeout time.Duration) (gotodef.Resolution, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := app.Settle(ctx); err != nil {
		p.Sweep()
		if errors.Is(err, context.DeadlineExceeded) {
			return gotodef.Resolution{}, errors.Wrapf(ErrTimeout, "after %s", timeout)
		}
		return gotodef.Resolution{}, err
	}

	res, ok := app.takeResolution(id)
	if !ok {
		return gotodef.Resolution{}, errors.Wrapf(ErrNoResponse, "request %s", id)
	}
	return res, nil
}

package app

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/tidwall/sjson"
)

// Serve answers one lookup per input line. Each line is PATH:LINE:COL and
// each answer is a JSON object on its own line:
//
//	{"query":"main.go:12:4","path":"/src/util.go","line":3,"col":5}
//	{"query":"main.go:1:0","error":"no definition found: no-result"}
//
// Blank lines and lines starting with '#' are skipped. The config file is
// watched while serving. Serve returns at end of input or when ctx is done.
func (app *Application) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	watchDone := make(chan error, 1)
	go func() { watchDone <- app.WatchConfig(ctx) }()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	w := bufio.NewWriter(out)
	for {
		select {
		case <-ctx.Done():
			return w.Flush()

		case err := <-watchDone:
			if err != nil {
				app.log.Warn("config watch stopped", "error", err)
			}
			watchDone = nil

		case line, ok := <-lines:
			if !ok {
				if err := w.Flush(); err != nil {
					return err
				}
				select {
				case err := <-scanErr:
					return errors.Wrap(err, "read input")
				default:
					return nil
				}
			}
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if _, err := io.WriteString(w, app.answer(ctx, line)+"\n"); err != nil {
				return errors.Wrap(err, "write answer")
			}
			if err := w.Flush(); err != nil {
				return errors.Wrap(err, "write answer")
			}
		}
	}
}

// answer runs one lookup and encodes its outcome.
func (app *Application) answer(ctx context.Context, query string) string {
	body, _ := sjson.Set("{}", "query", query)

	loc, err := ParseLocation(query)
	if err == nil {
		loc, err = app.Lookup(ctx, loc)
	}
	if err != nil {
		app.log.Debug("lookup failed", "query", query, "error", err)
		body, _ = sjson.Set(body, "error", err.Error())
		return body
	}

	body, _ = sjson.Set(body, "path", loc.Path)
	body, _ = sjson.Set(body, "line", loc.Line)
	body, _ = sjson.Set(body, "col", loc.Col)
	return body
}

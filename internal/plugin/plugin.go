package plugin

import (
	"context"

	"github.com/dshills/gotodef/internal/event"
	"github.com/dshills/gotodef/internal/host"
	"github.com/dshills/gotodef/internal/logging"
)

// Plugin is an extension compiled into the editor.
type Plugin interface {
	// Name uniquely identifies the plugin.
	Name() string

	// Boot installs the plugin's handlers and commands.
	Boot(ctx context.Context, pctx *Context) error

	// Unload removes everything Boot installed.
	Unload(ctx context.Context) error
}

// Context is what the editor hands a plugin at boot.
type Context struct {
	Host     host.Host
	Commands host.Commands
	Bus      *event.Bus
	Logger   *logging.Logger
}

// Validate checks that the context carries every collaborator.
func (c *Context) Validate() error {
	if c == nil || c.Host == nil || c.Commands == nil || c.Bus == nil {
		return ErrIncompleteContext
	}
	return nil
}

// ForPlugin returns a copy of c whose logger is tagged with the plugin name.
func (c *Context) ForPlugin(name string) *Context {
	cp := *c
	cp.Logger = c.Logger.WithField("plugin", name)
	return &cp
}

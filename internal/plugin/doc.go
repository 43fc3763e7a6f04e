// Package plugin defines how Go plugins attach to the editor and manages
// their lifecycle.
//
// A Plugin is booted with a Context carrying the editor host, its command
// table, the message bus and a logger. Boot installs subscriptions and
// commands; Unload removes them.
//
//	mgr := plugin.NewManager(&plugin.Context{
//	    Host:     ed,
//	    Commands: ed,
//	    Bus:      bus,
//	    Logger:   logger,
//	}, plugin.DefaultManagerConfig())
//
//	if err := mgr.Load(ctx, gotodef.New()); err != nil {
//	    return err
//	}
//	defer mgr.UnloadAll(ctx)
//
// Plugins move through the states unloaded, loaded, activating, active,
// deactivating and back. A failed boot leaves the plugin in StateError with
// the error available from Manager.Errors.
//
// Subpackage lua runs sandboxed Lua scripts against the same host.
package plugin

// Package config loads gotodef settings.
//
// Settings come from three layers, highest priority first:
//
//  1. Environment variables (GOTODEF_<SECTION>_<KEY>)
//  2. The TOML config file
//  3. Built-in defaults
//
// A config file looks like:
//
//	[plugin]
//	timeout = "3s"
//	tab_width = 8
//
//	[log]
//	level = "debug"
//
//	[servers.go]
//	command = "gopls"
//	args = ["serve"]
//
// Watch reloads the file on change and hands each valid Config to a callback.
package config

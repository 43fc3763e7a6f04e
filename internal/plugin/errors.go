package plugin

import "github.com/cockroachdb/errors"

// Plugin system errors.
var (
	// ErrPluginNotFound is returned when a plugin is not registered.
	ErrPluginNotFound = errors.New("plugin not found")

	// ErrNilPlugin is returned when a nil plugin is loaded.
	ErrNilPlugin = errors.New("plugin is nil")

	// ErrAlreadyLoaded is returned when attempting to load an already loaded plugin.
	ErrAlreadyLoaded = errors.New("plugin is already loaded")

	// ErrNotActive is returned when deactivating a plugin that is not active.
	ErrNotActive = errors.New("plugin is not active")

	// ErrAlreadyActive is returned when activating an active plugin.
	ErrAlreadyActive = errors.New("plugin is already active")

	// ErrInvalidPlugin is returned when plugin validation fails.
	ErrInvalidPlugin = errors.New("invalid plugin")

	// ErrIncompleteContext is returned when a plugin is booted without a
	// host, command table or bus.
	ErrIncompleteContext = errors.New("plugin context is incomplete")
)

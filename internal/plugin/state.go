package plugin

// State represents the lifecycle state of a plugin.
type State int

// Plugin states.
const (
	// StateUnloaded - Plugin is not registered with the manager.
	StateUnloaded State = iota

	// StateLoaded - Plugin is registered but not booted.
	StateLoaded

	// StateActivating - Plugin is booting.
	StateActivating

	// StateActive - Plugin is booted and handling events.
	StateActive

	// StateDeactivating - Plugin is unloading its handlers.
	StateDeactivating

	// StateError - Plugin failed to boot or unload.
	StateError
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoaded:
		return "loaded"
	case StateActivating:
		return "activating"
	case StateActive:
		return "active"
	case StateDeactivating:
		return "deactivating"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// IsUsable returns true if the plugin can be used (loaded or active).
func (s State) IsUsable() bool {
	return s == StateLoaded || s == StateActive
}

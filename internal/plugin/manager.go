package plugin

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/dshills/gotodef/internal/logging"
)

// Manager manages the lifecycle of compiled-in plugins.
type Manager struct {
	mu sync.RWMutex

	// Shared boot context
	pctx *Context

	// Loaded plugins by name
	plugins map[string]*entry

	// Plugin load order (for deterministic iteration)
	loadOrder []string

	// Event handlers (protected by mu)
	eventHandlers []EventHandler

	config ManagerConfig
	logger *logging.Logger
}

type entry struct {
	plugin Plugin
	state  State
	err    error
}

// ManagerConfig configures the plugin manager.
type ManagerConfig struct {
	// AutoActivate boots plugins as soon as they are loaded.
	AutoActivate bool
}

// DefaultManagerConfig returns the default configuration.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{AutoActivate: true}
}

// EventHandler handles plugin manager events.
// Handlers must be non-blocking and should not call back into the Manager
// to avoid deadlocks. Panics in handlers are recovered.
type EventHandler func(event ManagerEvent)

// ManagerEvent represents a plugin manager event.
type ManagerEvent struct {
	Type   ManagerEventType
	Plugin string
	Error  error
}

// ManagerEventType is the type of manager event.
type ManagerEventType int

const (
	// EventPluginLoaded is emitted when a plugin is loaded.
	EventPluginLoaded ManagerEventType = iota
	// EventPluginUnloaded is emitted when a plugin is unloaded.
	EventPluginUnloaded
	// EventPluginActivated is emitted when a plugin is activated.
	EventPluginActivated
	// EventPluginDeactivated is emitted when a plugin is deactivated.
	EventPluginDeactivated
	// EventPluginReloaded is emitted when a plugin is reloaded.
	EventPluginReloaded
	// EventPluginError is emitted when a plugin encounters an error.
	EventPluginError
)

// String returns a string representation of the event type.
func (t ManagerEventType) String() string {
	switch t {
	case EventPluginLoaded:
		return "loaded"
	case EventPluginUnloaded:
		return "unloaded"
	case EventPluginActivated:
		return "activated"
	case EventPluginDeactivated:
		return "deactivated"
	case EventPluginReloaded:
		return "reloaded"
	case EventPluginError:
		return "error"
	default:
		return "unknown"
	}
}

// Info describes a loaded plugin.
type Info struct {
	Name  string
	State State
	Err   error
}

// NewManager creates a plugin manager that boots plugins with pctx.
func NewManager(pctx *Context, config ManagerConfig) *Manager {
	var logger *logging.Logger
	if pctx != nil {
		logger = pctx.Logger.WithComponent("plugins")
	}
	return &Manager{
		pctx:      pctx,
		plugins:   make(map[string]*entry),
		loadOrder: make([]string, 0),
		config:    config,
		logger:    logger,
	}
}

// Load registers p. If AutoActivate is set the plugin is booted too; a boot
// failure leaves the plugin loaded in StateError and is returned.
func (m *Manager) Load(ctx context.Context, p Plugin) error {
	if p == nil {
		return ErrNilPlugin
	}
	name := p.Name()
	if name == "" {
		return errors.Wrap(ErrInvalidPlugin, "empty name")
	}

	m.mu.Lock()
	if _, exists := m.plugins[name]; exists {
		m.mu.Unlock()
		return errors.Wrapf(ErrAlreadyLoaded, "plugin %q", name)
	}
	m.plugins[name] = &entry{plugin: p, state: StateLoaded}
	m.loadOrder = append(m.loadOrder, name)
	m.mu.Unlock()

	m.logger.Debug("plugin loaded", "plugin", name)
	m.emitEvent(ManagerEvent{Type: EventPluginLoaded, Plugin: name})

	if m.config.AutoActivate {
		return m.Activate(ctx, name)
	}
	return nil
}

// Unload deactivates the plugin if needed and forgets it.
func (m *Manager) Unload(ctx context.Context, name string) error {
	m.mu.RLock()
	e, exists := m.plugins[name]
	m.mu.RUnlock()
	if !exists {
		return errors.Wrapf(ErrPluginNotFound, "plugin %q", name)
	}

	var unloadErr error
	if m.stateOf(e) == StateActive {
		unloadErr = m.Deactivate(ctx, name)
	}

	m.mu.Lock()
	delete(m.plugins, name)
	m.removeFromLoadOrder(name)
	m.mu.Unlock()

	m.emitEvent(ManagerEvent{Type: EventPluginUnloaded, Plugin: name})
	if unloadErr != nil {
		return errors.Wrapf(unloadErr, "failed to unload plugin %q", name)
	}
	return nil
}

// UnloadAll unloads all plugins in reverse load order.
func (m *Manager) UnloadAll(ctx context.Context) error {
	var unloadErrors []error
	for _, name := range m.reverseOrder() {
		if err := m.Unload(ctx, name); err != nil {
			unloadErrors = append(unloadErrors, err)
		}
	}

	if len(unloadErrors) > 0 {
		return errors.Wrapf(errors.Join(unloadErrors...), "failed to unload %d plugins", len(unloadErrors))
	}
	return nil
}

// Activate boots a loaded plugin.
func (m *Manager) Activate(ctx context.Context, name string) error {
	m.mu.Lock()
	e, exists := m.plugins[name]
	if !exists {
		m.mu.Unlock()
		return errors.Wrapf(ErrPluginNotFound, "plugin %q", name)
	}
	if e.state == StateActive || e.state == StateActivating {
		m.mu.Unlock()
		return errors.Wrapf(ErrAlreadyActive, "plugin %q", name)
	}
	e.state = StateActivating
	m.mu.Unlock()

	err := m.pctx.Validate()
	if err == nil {
		err = e.plugin.Boot(ctx, m.pctx.ForPlugin(name))
	}

	m.mu.Lock()
	if err != nil {
		e.state, e.err = StateError, err
	} else {
		e.state, e.err = StateActive, nil
	}
	m.mu.Unlock()

	if err != nil {
		m.logger.Error("plugin boot failed", "plugin", name, "error", err)
		m.emitEvent(ManagerEvent{Type: EventPluginError, Plugin: name, Error: err})
		return errors.Wrapf(err, "failed to activate plugin %q", name)
	}

	m.logger.Info("plugin active", "plugin", name)
	m.emitEvent(ManagerEvent{Type: EventPluginActivated, Plugin: name})
	return nil
}

// Deactivate unloads an active plugin's handlers, leaving it loaded.
func (m *Manager) Deactivate(ctx context.Context, name string) error {
	m.mu.Lock()
	e, exists := m.plugins[name]
	if !exists {
		m.mu.Unlock()
		return errors.Wrapf(ErrPluginNotFound, "plugin %q", name)
	}
	if e.state != StateActive {
		m.mu.Unlock()
		return errors.Wrapf(ErrNotActive, "plugin %q is %s", name, e.state)
	}
	e.state = StateDeactivating
	m.mu.Unlock()

	err := e.plugin.Unload(ctx)

	m.mu.Lock()
	if err != nil {
		e.state, e.err = StateError, err
	} else {
		e.state = StateLoaded
	}
	m.mu.Unlock()

	if err != nil {
		m.emitEvent(ManagerEvent{Type: EventPluginError, Plugin: name, Error: err})
		return err
	}

	m.emitEvent(ManagerEvent{Type: EventPluginDeactivated, Plugin: name})
	return nil
}

// Reload deactivates and re-boots a plugin.
func (m *Manager) Reload(ctx context.Context, name string) error {
	if m.State(name) == StateActive {
		if err := m.Deactivate(ctx, name); err != nil {
			return errors.Wrap(err, "reload deactivate failed")
		}
	}
	if err := m.Activate(ctx, name); err != nil {
		return errors.Wrap(err, "reload activate failed")
	}

	m.emitEvent(ManagerEvent{Type: EventPluginReloaded, Plugin: name})
	return nil
}

// Get returns a plugin by name.
func (m *Manager) Get(name string) (Plugin, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, exists := m.plugins[name]
	if !exists {
		return nil, false
	}
	return e.plugin, true
}

// State returns the plugin's state, StateUnloaded if it is unknown.
func (m *Manager) State(name string) State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if e, exists := m.plugins[name]; exists {
		return e.state
	}
	return StateUnloaded
}

// List returns all loaded plugins in load order.
func (m *Manager) List() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Info, 0, len(m.loadOrder))
	for _, name := range m.loadOrder {
		if e, exists := m.plugins[name]; exists {
			result = append(result, Info{Name: name, State: e.state, Err: e.err})
		}
	}
	return result
}

// Subscribe adds an event handler.
// Returns an unsubscribe function to remove the handler.
func (m *Manager) Subscribe(handler EventHandler) func() {
	if handler == nil {
		return func() {} // No-op for nil handlers
	}

	m.mu.Lock()
	m.eventHandlers = append(m.eventHandlers, handler)
	index := len(m.eventHandlers) - 1
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		// Set to nil instead of removing to avoid index shifting issues
		if index < len(m.eventHandlers) {
			m.eventHandlers[index] = nil
		}
	}
}

// Count returns the number of loaded plugins.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.plugins)
}

// CountActive returns the number of active plugins.
func (m *Manager) CountActive() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, e := range m.plugins {
		if e.state == StateActive {
			count++
		}
	}
	return count
}

// Errors returns all plugins in error state with their errors.
func (m *Manager) Errors() map[string]error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	errs := make(map[string]error)
	for name, e := range m.plugins {
		if e.state == StateError && e.err != nil {
			errs[name] = e.err
		}
	}
	return errs
}

func (m *Manager) stateOf(e *entry) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return e.state
}

func (m *Manager) reverseOrder() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, len(m.loadOrder))
	for i, name := range m.loadOrder {
		names[len(m.loadOrder)-1-i] = name
	}
	return names
}

func (m *Manager) emitEvent(event ManagerEvent) {
	// Copy handlers under lock
	m.mu.RLock()
	handlers := make([]EventHandler, len(m.eventHandlers))
	copy(handlers, m.eventHandlers)
	m.mu.RUnlock()

	// Call handlers outside lock with panic recovery
	for _, handler := range handlers {
		if handler == nil {
			continue
		}
		func() {
			defer func() {
				recover() // Ignore panics from handlers
			}()
			handler(event)
		}()
	}
}

// removeFromLoadOrder removes a name from the load order slice.
// Must be called with mu held.
func (m *Manager) removeFromLoadOrder(name string) {
	for i, n := range m.loadOrder {
		if n == name {
			m.loadOrder = append(m.loadOrder[:i], m.loadOrder[i+1:]...)
			return
		}
	}
}

package adapter

import (
	"fmt"
	"sync"
)

// Factory constructs a fresh Adapter instance, standing in for the Python
// original's dynamic class-name resolution (AdapterManager.load_adapter):
// since Go has no runtime class loading, adapters are registered ahead of
// time by name via a Factory rather than discovered from .py files on disk.
type Factory func() Adapter

// Manager owns the lifecycle of loaded adapters: discovery (via registered
// factories), load/unload, and validation — grounded on
// plugin_manager.py's AdapterManager.
type Manager struct {
	mu        sync.RWMutex
	factories map[string]Factory
	loaded    map[string]Adapter
}

// NewManager constructs an empty Manager.
func NewManager() *Manager {
	return &Manager{
		factories: make(map[string]Factory),
		loaded:    make(map[string]Adapter),
	}
}

// Register adds a factory for an adapter name, analogous to dropping a new
// adapter module into the Python plugin directory.
func (m *Manager) Register(name string, factory Factory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.factories[name] = factory
}

// ListAvailable returns the names of all registered (but not necessarily
// loaded) adapters, mirroring list_available_adapters.
func (m *Manager) ListAvailable() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.factories))
	for name := range m.factories {
		names = append(names, name)
	}
	return names
}

// ListLoaded returns the names of currently loaded adapters, mirroring
// list_loaded_adapters.
func (m *Manager) ListLoaded() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.loaded))
	for name := range m.loaded {
		names = append(names, name)
	}
	return names
}

// LoadAdapter instantiates and validates the named adapter if not already
// loaded, mirroring load_adapter's cache-or-construct-then-validate flow.
func (m *Manager) LoadAdapter(name string) (Adapter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a, ok := m.loaded[name]; ok {
		return a, nil
	}

	factory, ok := m.factories[name]
	if !ok {
		return nil, fmt.Errorf("adapter %q is not registered", name)
	}

	a := factory()
	if err := ValidateAdapter(a); err != nil {
		return nil, fmt.Errorf("adapter %q failed validation: %w", name, err)
	}
	m.loaded[name] = a
	return a, nil
}

// UnloadAdapter removes name from the loaded set.
func (m *Manager) UnloadAdapter(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.loaded, name)
}

// GetAdapterInfo returns Info for a loaded adapter.
func (m *Manager) GetAdapterInfo(name string) (Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.loaded[name]
	if !ok {
		return Info{}, fmt.Errorf("adapter %q is not loaded", name)
	}
	return a.GetInfo(), nil
}

// CleanupAll unloads every currently loaded adapter, mirroring cleanup_all.
func (m *Manager) CleanupAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaded = make(map[string]Adapter)
}

// ValidateAdapter checks an adapter satisfies basic structural expectations —
// a non-empty name and description — mirroring validate_adapter's checks
// that get_info returns a dict with the required keys. Go's type system
// already enforces the required methods exist (the Adapter interface), so
// only the data-level checks need repeating here.
func ValidateAdapter(a Adapter) error {
	info := a.GetInfo()
	if info.Name == "" {
		return fmt.Errorf("adapter GetInfo().Name must not be empty")
	}
	if info.Description == "" {
		return fmt.Errorf("adapter GetInfo().Description must not be empty")
	}
	return nil
}

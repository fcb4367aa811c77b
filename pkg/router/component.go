package router

import (
	"context"
	"sync"
)

// Component is an activated component instance. The router only inspects
// it for the optional lifecycle interfaces below.
type Component any

// ComponentDef describes how to create a component for a route.
type ComponentDef struct {
	// New creates the component instance for the matched params.
	New func(params Params) Component

	// CanActivate may veto activation before the component is created.
	// Optional.
	CanActivate func(ctx context.Context, params Params) (bool, error)
}

// Registry resolves the component references named in route configs.
type Registry interface {
	Lookup(ref string) (ComponentDef, bool)
}

// MapRegistry is an in-memory Registry, safe for concurrent use.
type MapRegistry struct {
	mu   sync.RWMutex
	defs map[string]ComponentDef
}

// NewMapRegistry creates an empty registry.
func NewMapRegistry() *MapRegistry {
	return &MapRegistry{defs: make(map[string]ComponentDef)}
}

// Register adds or replaces a component definition.
func (m *MapRegistry) Register(ref string, def ComponentDef) *MapRegistry {
	m.mu.Lock()
	m.defs[ref] = def
	m.mu.Unlock()
	return m
}

// Lookup implements Registry.
func (m *MapRegistry) Lookup(ref string) (ComponentDef, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	def, ok := m.defs[ref]
	return def, ok
}

// Placeholder is the component created by PlaceholderRegistry.
type Placeholder struct {
	Ref    string
	Params Params
}

// PlaceholderRegistry resolves every reference to a Placeholder. It is the
// default when no registry is configured, which lets a router run headless
// (CLI, HTTP API) with only route configs.
type PlaceholderRegistry struct{}

// Lookup implements Registry.
func (PlaceholderRegistry) Lookup(ref string) (ComponentDef, bool) {
	return ComponentDef{
		New: func(params Params) Component {
			return &Placeholder{Ref: ref, Params: params}
		},
	}, true
}

// Deactivatable is implemented by components that may veto leaving.
type Deactivatable interface {
	CanDeactivate(ctx context.Context) (bool, error)
}

// ActivateHook is implemented by components notified after mounting.
type ActivateHook interface {
	OnActivate(ctx context.Context, instr *Instruction) error
}

// DeactivateHook is implemented by components notified before unmounting.
type DeactivateHook interface {
	OnDeactivate(ctx context.Context) error
}

// OutletHost is implemented by components that render a nested outlet.
// Routes with children mount their child components there.
type OutletHost interface {
	ChildOutlet() Outlet
}

// Outlet is where a router mounts the component for its active route.
// Both calls are treated as synchronous.
type Outlet interface {
	Mount(ctx context.Context, ref string, c Component, params Params) error
	Unmount(ctx context.Context, c Component) error
}

// detachedOutlet is used by child routers whose parent component has no
// outlet of its own.
type detachedOutlet struct{}

func (detachedOutlet) Mount(context.Context, string, Component, Params) error { return nil }
func (detachedOutlet) Unmount(context.Context, Component) error               { return nil }

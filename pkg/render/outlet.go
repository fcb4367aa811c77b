package render

import (
	"context"
	"fmt"
	"sync"

	"github.com/vango-dev/outlet/pkg/router"
	"github.com/vango-dev/outlet/pkg/vdom"
)

// Outlet is a router.Outlet backed by a vdom node. Mounting a component
// replaces the node's children with the component's rendered tree.
//
// Components must implement vdom.Component, except router.Placeholder,
// which renders as a labelled div.
type Outlet struct {
	mu      sync.Mutex
	node    *vdom.VNode
	mounted router.Component
}

// NewOutlet creates an outlet rendered as <div data-outlet="name">.
func NewOutlet(name string) *Outlet {
	return &Outlet{node: vdom.Div(vdom.Data("outlet", name))}
}

// Node returns the outlet's placeholder node, to be embedded in the
// enclosing component's tree.
func (o *Outlet) Node() *vdom.VNode {
	return o.node
}

// Mounted returns the mounted component, or nil.
func (o *Outlet) Mounted() router.Component {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.mounted
}

// Mount implements router.Outlet.
func (o *Outlet) Mount(ctx context.Context, ref string, c router.Component, params router.Params) error {
	var tree *vdom.VNode
	switch comp := c.(type) {
	case vdom.Component:
		tree = comp.Render()
	case *router.Placeholder:
		tree = vdom.Div(vdom.Data("component", comp.Ref), vdom.Text(comp.Ref))
	default:
		return fmt.Errorf("component %q (%T) does not implement vdom.Component", ref, c)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.node.ReplaceChildren(tree)
	o.mounted = c
	return nil
}

// Unmount implements router.Outlet.
func (o *Outlet) Unmount(ctx context.Context, c router.Component) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.mounted != c {
		return nil
	}
	o.node.ReplaceChildren()
	o.mounted = nil
	return nil
}

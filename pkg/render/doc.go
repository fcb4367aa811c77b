// Package render turns vdom trees into HTML and provides the outlet that
// routers mount components into.
//
// # Basic Usage
//
//	renderer := render.NewRenderer(render.RendererConfig{})
//	html, err := renderer.RenderToString(node)
//
// # Outlets
//
// An Outlet is a placeholder node plus the router.Outlet implementation that
// fills it:
//
//	out := render.NewOutlet("main")
//	r := router.New(router.WithOutlet(out), router.WithRegistry(registry))
//	page := vdom.Div(nav, out.Node())
//
// Components with nested routes embed their own Outlet and return it from
// ChildOutlet.
//
// # Security
//
// Text content and attribute values are always escaped.
package render

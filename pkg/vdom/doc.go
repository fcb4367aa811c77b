// Package vdom provides the virtual DOM that routed components render into.
//
// # Core Types
//
// VNode represents elements, text and fragments. Props holds attributes
// and event handlers. Attr and EventHandler are used to build Props.
//
// # Element API
//
// Elements are created using variadic factory functions:
//
//	Nav(Class("tabs"),
//	    A(Href("./a"), Text("One")),
//	    OnClick(handler),
//	)
//
// # Mutation
//
// Long-lived nodes can be updated in place with SetAttr, RemoveAttr and
// SetClass. Router links use these to keep href and the active class in
// sync with navigation.
package vdom

package vdom

// event creates an EventHandler with the given name and handler.
// The name is prefixed with "on" (e.g., "click" becomes "onclick").
func event(name string, handler any) EventHandler {
	return EventHandler{Event: "on" + name, Handler: handler}
}

// OnClick handles click events. The handler receives the event value
// passed to Dispatch.
func OnClick(handler func(event any)) EventHandler { return event("click", handler) }

// Dispatch calls the node's handler for an event such as "click".
// It reports whether a handler was found.
func (v *VNode) Dispatch(name string, ev any) bool {
	if v == nil || v.Props == nil {
		return false
	}
	switch h := v.Props["on"+name].(type) {
	case func(any):
		h(ev)
		return true
	case func():
		h()
		return true
	}
	return false
}

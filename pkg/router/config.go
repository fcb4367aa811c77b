package router

// RouteConfig declares one route in a sibling set.
//
// Exactly one of Component and RedirectTo is set. Configs are identified by
// pointer: two instructions match at a level only if they point at the same
// RouteConfig.
type RouteConfig struct {
	// Path is the pattern, e.g. "/users/:id". "/" and "" match no segments.
	Path string `json:"path" yaml:"path"`

	// Component is the reference the registry resolves when this route activates.
	Component string `json:"component,omitempty" yaml:"component,omitempty"`

	// Name identifies the route for URL generation. Unique within a sibling set.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Children are recognized against the URL suffix left after Path.
	Children []*RouteConfig `json:"children,omitempty" yaml:"children,omitempty"`

	// Guard is an optional CEL expression over `params` that must be true
	// for the route to activate.
	Guard string `json:"guard,omitempty" yaml:"guard,omitempty"`

	// RedirectTo restarts recognition with the given URL at the recognizer
	// Recognize was called on, usually the root.
	RedirectTo string `json:"redirectTo,omitempty" yaml:"redirectTo,omitempty"`

	// Data is opaque per-route data handed to components through the instruction.
	Data map[string]string `json:"data,omitempty" yaml:"data,omitempty"`
}

// walkConfigs visits every config depth-first in registration order.
func walkConfigs(configs []*RouteConfig, fn func(cfg *RouteConfig, depth int)) {
	var walk func(list []*RouteConfig, depth int)
	walk = func(list []*RouteConfig, depth int) {
		for _, cfg := range list {
			fn(cfg, depth)
			walk(cfg.Children, depth+1)
		}
	}
	walk(configs, 0)
}

// HasGuards reports whether any config in the tree declares a guard.
func HasGuards(configs []*RouteConfig) bool {
	found := false
	walkConfigs(configs, func(cfg *RouteConfig, _ int) {
		if cfg.Guard != "" {
			found = true
		}
	})
	return found
}

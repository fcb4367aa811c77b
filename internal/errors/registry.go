package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Routing Errors (R100-R199)
	// ============================================

	"R100": {
		Category: CategoryRouting,
		Message:  "No route matches",
	},
	"R101": {
		Category:   CategoryRouting,
		Message:    "Route not found",
		Suggestion: "Check the URL against `outlet routes`, or add a route config for it",
	},
	"R102": {
		Category: CategoryRouting,
		Message:  "Navigation aborted",
	},
	"R103": {
		Category:   CategoryRouting,
		Message:    "Unknown component",
		Suggestion: "Register the component reference before navigating to it",
	},
	"R104": {
		Category:   CategoryRouting,
		Message:    "Stale navigation instruction",
		Suggestion: "Regenerate the instruction after reconfiguring the router",
	},
	"R105": {
		Category: CategoryRouting,
		Message:  "Redirect loop",
	},
	"R106": {
		Category: CategoryRouting,
		Message:  "Router destroyed",
	},
	"R107": {
		Category: CategoryRouting,
		Message:  "Invalid URL",
	},
	"R108": {
		Category: CategoryRouting,
		Message:  "Component lifecycle failed",
	},

	// ============================================
	// Generation Errors (R150-R199)
	// ============================================

	"R150": {
		Category:   CategoryGeneration,
		Message:    "Unknown route name",
		Suggestion: "Route names are case sensitive; list them with `outlet routes`",
	},
	"R151": {
		Category: CategoryGeneration,
		Message:  "Missing route parameter",
	},
	"R152": {
		Category:   CategoryGeneration,
		Message:    "Unexpected route parameter",
		Suggestion: `Set "extraParams": "query" to append extra params as a query string`,
	},

	// ============================================
	// Config Errors (R200-R299)
	// ============================================

	"R200": {
		Category: CategoryConfig,
		Message:  "Route config conflict",
	},
	"R201": {
		Category:   CategoryConfig,
		Message:    "Invalid route pattern",
		Suggestion: "Patterns are /-separated literals and :name parameters",
	},
	"R202": {
		Category:   CategoryConfig,
		Message:    "Invalid route guard",
		Suggestion: "Guards are CEL expressions over `params` that return a bool",
	},
	"R210": {
		Category: CategoryConfig,
		Message:  "Failed to load routes",
	},
	"R211": {
		Category:   CategoryConfig,
		Message:    "Unsupported routes source",
		Suggestion: "Use a .json, .yaml or .yml file, or an s3://bucket/key URI",
	},
	"R220": {
		Category:   CategoryConfig,
		Message:    "Invalid outlet.json",
		Suggestion: "Check that outlet.json is valid JSON",
	},
	"R221": {
		Category:   CategoryConfig,
		Message:    "Missing outlet.json",
		Suggestion: "Run from a directory containing outlet.json or pass --routes",
	},
	"R222": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},

	// ============================================
	// CLI Errors (R300-R399)
	// ============================================

	"R300": {
		Category: CategoryCLI,
		Message:  "Invalid argument",
	},
	"R301": {
		Category: CategoryCLI,
		Message:  "Server failed",
	},
}

// GetAllCodes returns all registered error codes in sorted order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}

package router

import (
	"fmt"
	"strings"

	oerrors "github.com/vango-dev/outlet/internal/errors"
)

// Validator validates a route config tree for conflicts and errors.
type Validator struct {
	configs []*RouteConfig
	guards  *GuardEvaluator
	errors  []ValidationError
}

// ValidationError represents a route validation error.
type ValidationError struct {
	// Type is the error category
	Type ValidationErrorType

	// Message is the human-readable error message
	Message string

	// Path is the full pattern of the offending config, ancestors included
	Path string
}

func (e ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (at %s)", e.Type, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ValidationErrorType categorizes validation errors.
type ValidationErrorType string

const (
	// ErrorDuplicateName indicates two siblings share a route name.
	ErrorDuplicateName ValidationErrorType = "DUPLICATE_NAME"

	// ErrorInvalidPattern indicates a path that does not compile
	// (empty or duplicate parameter names, unknown parameter types).
	ErrorInvalidPattern ValidationErrorType = "INVALID_PATTERN"

	// ErrorAmbiguousTarget indicates a config with both or neither of
	// Component and RedirectTo.
	ErrorAmbiguousTarget ValidationErrorType = "AMBIGUOUS_TARGET"

	// ErrorRedirectChildren indicates a redirect config with children.
	ErrorRedirectChildren ValidationErrorType = "REDIRECT_CHILDREN"

	// ErrorInvalidGuard indicates a guard expression that does not compile.
	ErrorInvalidGuard ValidationErrorType = "INVALID_GUARD"

	// ErrorNilConfig indicates a nil entry in a config list.
	ErrorNilConfig ValidationErrorType = "NIL_CONFIG"
)

// MultiValidationError wraps multiple validation errors.
type MultiValidationError struct {
	Errors []ValidationError
}

func (e *MultiValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d route validation errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Unwrap lets errors.Is match ErrConfigConflict.
func (e *MultiValidationError) Unwrap() error {
	return ErrConfigConflict
}

// NewValidator creates a new route validator. guards may be nil, in which
// case guard expressions are not compiled.
func NewValidator(configs []*RouteConfig, guards *GuardEvaluator) *Validator {
	return &Validator{configs: configs, guards: guards}
}

// Validate checks the whole tree. Returns nil if it is valid, or a coded
// error wrapping a MultiValidationError with every problem found.
func (v *Validator) Validate() error {
	v.errors = nil
	v.validateSiblings(v.configs, "")

	if len(v.errors) > 0 {
		multi := &MultiValidationError{Errors: v.errors}
		return oerrors.New("R200").WithDetail(multi.Error()).Wrap(multi)
	}
	return nil
}

// Errors returns the errors found by the last Validate call.
func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// validateSiblings validates one sibling set and recurses into children.
func (v *Validator) validateSiblings(configs []*RouteConfig, prefix string) {
	names := make(map[string]string)

	for i, cfg := range configs {
		if cfg == nil {
			v.add(ErrorNilConfig, fmt.Sprintf("config #%d is nil", i), prefix)
			continue
		}
		full := joinPatterns(prefix, cfg.Path)

		if _, err := parsePattern(cfg.Path); err != nil {
			v.add(ErrorInvalidPattern, err.Error(), full)
		}

		if cfg.Name != "" {
			if first, dup := names[cfg.Name]; dup {
				v.add(ErrorDuplicateName,
					fmt.Sprintf("route name %q already used by %s", cfg.Name, first), full)
			} else {
				names[cfg.Name] = full
			}
		}

		hasComponent := cfg.Component != ""
		hasRedirect := cfg.RedirectTo != ""
		switch {
		case hasComponent && hasRedirect:
			v.add(ErrorAmbiguousTarget, "config sets both component and redirectTo", full)
		case !hasComponent && !hasRedirect:
			v.add(ErrorAmbiguousTarget, "config sets neither component nor redirectTo", full)
		}
		if hasRedirect && len(cfg.Children) > 0 {
			v.add(ErrorRedirectChildren, "redirect configs cannot have children", full)
		}

		if cfg.Guard != "" && v.guards != nil {
			if err := v.guards.Validate(cfg.Guard); err != nil {
				v.add(ErrorInvalidGuard, err.Error(), full)
			}
		}

		v.validateSiblings(cfg.Children, full)
	}
}

func (v *Validator) add(typ ValidationErrorType, msg, path string) {
	v.errors = append(v.errors, ValidationError{Type: typ, Message: msg, Path: path})
}

// joinPatterns concatenates a parent and child pattern for display.
func joinPatterns(parent, child string) string {
	p := strings.TrimRight(parent, "/")
	c := strings.Trim(child, "/")
	if c == "" {
		if p == "" {
			return "/"
		}
		return p
	}
	return p + "/" + c
}

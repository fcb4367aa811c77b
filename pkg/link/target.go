package link

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vango-dev/outlet/pkg/router"
)

// ErrInvalidTarget is returned for malformed link target expressions.
var ErrInvalidTarget = errors.New("invalid link target")

// Scope is the router a target starts resolving from.
type Scope int

const (
	// ScopeOwner resolves among the owning router's routes. No prefix.
	ScopeOwner Scope = iota

	// ScopeRoot resolves from the root router. Prefix "/".
	ScopeRoot

	// ScopeChild resolves among the children of the owner's active route.
	// Prefix "./".
	ScopeChild
)

// String returns the prefix that selects the scope.
func (s Scope) String() string {
	switch s {
	case ScopeRoot:
		return "/"
	case ScopeChild:
		return "./"
	default:
		return ""
	}
}

// Target is a parsed link target: where it starts and the named steps
// from there.
type Target struct {
	Scope Scope
	Steps []router.Step
}

// ParseTarget parses a target expression: route names, each optionally
// followed by its params.
//
//	[]any{"/Two"}
//	[]any{"/Two", map[string]string{"param": "lol"}}
//	[]any{"/User", router.Params{"id": "7"}, "Post", router.Params{"post": "1"}}
//
// Params may be router.Params, map[string]string or map[string]any; other
// value types are formatted with fmt.Sprint.
func ParseTarget(expr []any) (Target, error) {
	var t Target
	if len(expr) == 0 {
		return t, fmt.Errorf("%w: empty expression", ErrInvalidTarget)
	}

	for i, item := range expr {
		switch v := item.(type) {
		case string:
			name := v
			if i == 0 {
				switch {
				case strings.HasPrefix(name, "./"):
					t.Scope, name = ScopeChild, name[2:]
				case strings.HasPrefix(name, "/"):
					t.Scope, name = ScopeRoot, name[1:]
				}
			}
			if name == "" || strings.ContainsAny(name, "/") {
				return Target{}, fmt.Errorf("%w: bad route name %q at position %d", ErrInvalidTarget, v, i)
			}
			t.Steps = append(t.Steps, router.Step{Name: name})

		default:
			params, ok := toParams(item)
			if !ok {
				return Target{}, fmt.Errorf("%w: unsupported %T at position %d", ErrInvalidTarget, item, i)
			}
			if len(t.Steps) == 0 {
				return Target{}, fmt.Errorf("%w: params before any route name", ErrInvalidTarget)
			}
			last := &t.Steps[len(t.Steps)-1]
			if last.Params != nil {
				return Target{}, fmt.Errorf("%w: two param sets for %q", ErrInvalidTarget, last.Name)
			}
			last.Params = params
		}
	}
	return t, nil
}

// MustParseTarget is like ParseTarget but panics on error.
func MustParseTarget(expr ...any) Target {
	t, err := ParseTarget(expr)
	if err != nil {
		panic(err)
	}
	return t
}

// String formats the target back into its DSL form, e.g. "/User(id=7) Post".
func (t Target) String() string {
	var b strings.Builder
	b.WriteString(t.Scope.String())
	for i, step := range t.Steps {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(step.Name)
		if len(step.Params) == 0 {
			continue
		}
		keys := step.Params.Keys()
		b.WriteByte('(')
		for j, k := range keys {
			if j > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(&b, "%s=%s", k, step.Params[k])
		}
		b.WriteByte(')')
	}
	return b.String()
}

func toParams(v any) (router.Params, bool) {
	switch p := v.(type) {
	case router.Params:
		return p.Clone(), true
	case map[string]string:
		return router.Params(p).Clone(), true
	case map[string]any:
		out := make(router.Params, len(p))
		for k, val := range p {
			out[k] = fmt.Sprint(val)
		}
		return out, true
	case nil:
		return router.Params{}, true
	}
	return nil, false
}

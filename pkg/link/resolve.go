package link

import (
	"github.com/vango-dev/outlet/pkg/router"
)

// DefaultPrefix is prepended to generated URLs to form hrefs, so "/b"
// becomes "./b".
const DefaultPrefix = "."

// DefaultActiveClass marks links whose target is active.
const DefaultActiveClass = "link-active"

// State is the computed state of a link.
type State struct {
	// Href is prefix + canonical URL, or "" when the target cannot be
	// generated.
	Href string

	// Active reports whether the router the target starts at currently
	// shows the target.
	Active bool

	// Instruction is the target relative to the root, ready for
	// NavigateByInstruction on the root router.
	Instruction *router.Instruction

	// Err is the generation error, if any.
	Err error
}

// Compute resolves target against the owner router's current state. It
// has no side effects.
func Compute(owner *router.Router, target Target, prefix string) State {
	if owner == nil || owner.Destroyed() {
		return State{Err: router.ErrRouterDestroyed}
	}

	start := owner
	var (
		instr *router.Instruction
		err   error
	)
	switch target.Scope {
	case ScopeRoot:
		start = owner.Root()
		if start == nil {
			return State{Err: router.ErrRouterDestroyed}
		}
		instr, err = start.Generate(target.Steps)
	case ScopeChild:
		instr, err = owner.GenerateChild(target.Steps)
	default:
		instr, err = owner.Generate(target.Steps)
	}
	if err != nil {
		return State{Err: err}
	}

	abs := start.Absolute(instr)
	return State{
		Href:        prefix + abs.URL(),
		Active:      start.Current().Covers(instr),
		Instruction: abs,
	}
}

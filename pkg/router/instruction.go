package router

import (
	"net/url"
	"strings"

	"github.com/vango-dev/outlet/pkg/routepath"
)

// Instruction is one resolved level of a navigation: the matched config,
// its params, and the instruction for the level below.
//
// Instructions are immutable. The query string lives on the top level.
type Instruction struct {
	route  *route
	params Params
	child  *Instruction
	query  url.Values
	origin uint64
}

func newInstruction(rt *route, params Params, child *Instruction) *Instruction {
	return &Instruction{route: rt, params: params, child: child, origin: rt.origin}
}

// Config returns the matched route config.
func (in *Instruction) Config() *RouteConfig {
	return in.route.config
}

// Name returns the matched route's name, which may be empty.
func (in *Instruction) Name() string {
	return in.route.config.Name
}

// Component returns the matched route's component reference.
func (in *Instruction) Component() string {
	return in.route.config.Component
}

// Params returns a copy of this level's params.
func (in *Instruction) Params() Params {
	return in.params.Clone()
}

// Param returns a single param of this level.
func (in *Instruction) Param(name string) string {
	return in.params[name]
}

// Child returns the instruction for the next level, or nil.
func (in *Instruction) Child() *Instruction {
	return in.child
}

// Query returns a copy of the query values.
func (in *Instruction) Query() url.Values {
	out := make(url.Values, len(in.query))
	for k, v := range in.query {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Leaf returns the deepest level.
func (in *Instruction) Leaf() *Instruction {
	cur := in
	for cur.child != nil {
		cur = cur.child
	}
	return cur
}

// AllParams merges the params of every level; deeper levels win on clashes.
func (in *Instruction) AllParams() Params {
	out := make(Params)
	for cur := in; cur != nil; cur = cur.child {
		for k, v := range cur.params {
			out[k] = v
		}
	}
	return out
}

// Depth returns the number of levels.
func (in *Instruction) Depth() int {
	n := 0
	for cur := in; cur != nil; cur = cur.child {
		n++
	}
	return n
}

// Levels returns every level, top first.
func (in *Instruction) Levels() []*Instruction {
	var out []*Instruction
	for cur := in; cur != nil; cur = cur.child {
		out = append(out, cur)
	}
	return out
}

// Path returns the canonical path without the query string.
func (in *Instruction) Path() string {
	var segments []string
	for cur := in; cur != nil; cur = cur.child {
		// Params were bound by the pattern, so build cannot fail here.
		parts, _ := cur.route.pattern.build(cur.route.config.Name, cur.params)
		segments = append(segments, parts...)
	}
	return routepath.Join(segments)
}

// URL returns the canonical URL, with the query string sorted by key.
func (in *Instruction) URL() string {
	path := in.Path()
	if len(in.query) == 0 {
		return path
	}
	return path + "?" + in.query.Encode()
}

// LevelEqual reports whether both instructions match the same config with
// the same params at this level only.
func (in *Instruction) LevelEqual(other *Instruction) bool {
	if in == nil || other == nil {
		return in == other
	}
	return in.route.config == other.route.config && in.params.Equal(other.params)
}

// Equal reports structural equality at every level, query included.
func (in *Instruction) Equal(other *Instruction) bool {
	if in == nil || other == nil {
		return in == other
	}
	if !queryEqual(in.query, other.query) {
		return false
	}
	a, b := in, other
	for a != nil && b != nil {
		if !a.LevelEqual(b) {
			return false
		}
		a, b = a.child, b.child
	}
	return a == nil && b == nil
}

// Covers reports whether every level of target is matched by the same level
// here. The receiver may go deeper than target. Query strings are ignored.
func (in *Instruction) Covers(target *Instruction) bool {
	if in == nil || target == nil {
		return false
	}
	a, b := in, target
	for b != nil {
		if a == nil || !a.LevelEqual(b) {
			return false
		}
		a, b = a.child, b.child
	}
	return true
}

// String returns a compact description such as "Two(param=lol) > Leaf()".
func (in *Instruction) String() string {
	var b strings.Builder
	for cur := in; cur != nil; cur = cur.child {
		if cur != in {
			b.WriteString(" > ")
		}
		label := cur.route.config.Name
		if label == "" {
			label = cur.route.config.Component
		}
		b.WriteString(label)
		b.WriteByte('(')
		for i, k := range cur.params.Keys() {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(cur.params[k])
		}
		b.WriteByte(')')
	}
	if len(in.query) > 0 {
		b.WriteString(" ?")
		b.WriteString(in.query.Encode())
	}
	return b.String()
}

// withQuery returns a copy of the top level carrying q.
func (in *Instruction) withQuery(q url.Values) *Instruction {
	cp := *in
	cp.query = q
	return &cp
}

// graft returns a new instruction made of the given levels followed by tail.
// The query of tail moves to the new top level.
func graft(levels []*Instruction, tail *Instruction) *Instruction {
	if len(levels) == 0 {
		return tail
	}
	var query url.Values
	if tail != nil {
		query = tail.query
		tail = tail.withQuery(nil)
	}
	next := tail
	for i := len(levels) - 1; i >= 0; i-- {
		lvl := levels[i]
		next = &Instruction{route: lvl.route, params: lvl.params, child: next, origin: lvl.origin}
	}
	next.query = query
	return next
}

// stale reports whether any level was built by a recognizer other than origin.
func (in *Instruction) stale(origin uint64) bool {
	for cur := in; cur != nil; cur = cur.child {
		if cur.origin != origin {
			return true
		}
	}
	return false
}

func queryEqual(a, b url.Values) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
	}
	return true
}

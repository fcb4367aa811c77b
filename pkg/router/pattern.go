package router

import (
	"fmt"
	"strings"

	"github.com/vango-dev/outlet/pkg/routepath"
)

// segment is one part of a compiled pattern.
type segment struct {
	// value is the literal text, or the parameter name for params
	value string

	// isParam indicates a :name segment
	isParam bool

	// paramType is the constraint for params ("string" when unset)
	paramType string
}

// pattern is a compiled route path.
type pattern struct {
	raw      string
	segments []segment
}

// parsePattern compiles a route path such as "/users/:id:int/posts".
func parsePattern(path string) (*pattern, error) {
	p := &pattern{raw: path}
	seen := make(map[string]bool)

	for _, part := range routepath.Split(path) {
		if !strings.HasPrefix(part, ":") {
			if part == "" {
				return nil, fmt.Errorf("empty segment in %q", path)
			}
			p.segments = append(p.segments, segment{value: part})
			continue
		}

		name, paramType := parseParamSegment(part)
		if name == "" {
			return nil, fmt.Errorf("empty parameter name in %q", path)
		}
		if !knownParamTypes[paramType] {
			return nil, fmt.Errorf("unknown parameter type %q in %q", paramType, path)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate parameter %q in %q", name, path)
		}
		seen[name] = true
		p.segments = append(p.segments, segment{value: name, isParam: true, paramType: paramType})
	}

	return p, nil
}

// parseParamSegment extracts name and type from a parameter segment.
// Input: ":id" or ":id:int" -> name="id", type="string" or "int"
func parseParamSegment(seg string) (name, paramType string) {
	seg = seg[1:]
	if idx := strings.Index(seg, ":"); idx != -1 {
		return seg[:idx], seg[idx+1:]
	}
	return seg, "string"
}

// match binds the pattern positionally against the leading URL segments.
// It returns the extracted params and how many segments were consumed.
func (p *pattern) match(parts []string) (Params, int, bool) {
	if len(parts) < len(p.segments) {
		return nil, 0, false
	}

	params := make(Params)
	for i, seg := range p.segments {
		part := parts[i]
		if !seg.isParam {
			if part != seg.value {
				return nil, 0, false
			}
			continue
		}
		if err := ValidateParam(part, seg.paramType); err != nil {
			return nil, 0, false
		}
		params[seg.value] = part
	}

	return params, len(p.segments), true
}

// build substitutes params into the pattern, returning decoded segments.
// The name is only used for error reporting.
func (p *pattern) build(name string, params Params) ([]string, error) {
	out := make([]string, 0, len(p.segments))
	for _, seg := range p.segments {
		if !seg.isParam {
			out = append(out, seg.value)
			continue
		}
		val, ok := params[seg.value]
		if !ok {
			return nil, missingParam(name, seg.value)
		}
		out = append(out, val)
	}
	return out, nil
}

// paramNames returns the parameter names in pattern order.
func (p *pattern) paramNames() []string {
	var names []string
	for _, seg := range p.segments {
		if seg.isParam {
			names = append(names, seg.value)
		}
	}
	return names
}

// String returns the original path.
func (p *pattern) String() string {
	return p.raw
}

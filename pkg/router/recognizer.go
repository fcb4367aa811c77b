package router

import (
	"net/url"
	"sync/atomic"

	"github.com/vango-dev/outlet/pkg/routepath"
)

// maxRedirects bounds how many redirect configs one recognition may follow.
const maxRedirects = 10

// recognizerSeq numbers compiled config trees so stale instructions can be detected.
var recognizerSeq atomic.Uint64

// ExtraParamsMode controls what generation does with params that no path
// placeholder consumes.
type ExtraParamsMode string

const (
	// ExtraParamsQuery appends leftover params as a query string.
	ExtraParamsQuery ExtraParamsMode = "query"

	// ExtraParamsReject fails generation with ErrUnknownParam.
	ExtraParamsReject ExtraParamsMode = "reject"
)

// route is a compiled RouteConfig.
type route struct {
	config   *RouteConfig
	pattern  *pattern
	children *Recognizer
	origin   uint64
}

// Recognizer matches URLs against one sibling set of route configs and
// generates URLs from route names. It is immutable once built.
type Recognizer struct {
	routes []*route
	names  map[string]*route
	origin uint64
	extra  ExtraParamsMode
}

// RecognizerOption configures a Recognizer.
type RecognizerOption func(*Recognizer)

// WithExtraParamsMode sets how generation treats unconsumed params.
func WithExtraParamsMode(mode ExtraParamsMode) RecognizerOption {
	return func(rc *Recognizer) {
		if mode != "" {
			rc.extra = mode
		}
	}
}

// NewRecognizer validates and compiles a config tree.
func NewRecognizer(configs []*RouteConfig, opts ...RecognizerOption) (*Recognizer, error) {
	if err := NewValidator(configs, nil).Validate(); err != nil {
		return nil, err
	}

	rc := &Recognizer{extra: ExtraParamsQuery}
	for _, opt := range opts {
		opt(rc)
	}
	return compile(configs, recognizerSeq.Add(1), rc.extra), nil
}

// compile builds a recognizer for validated configs.
func compile(configs []*RouteConfig, origin uint64, extra ExtraParamsMode) *Recognizer {
	rc := &Recognizer{
		routes: make([]*route, 0, len(configs)),
		names:  make(map[string]*route),
		origin: origin,
		extra:  extra,
	}
	for _, cfg := range configs {
		p, _ := parsePattern(cfg.Path)
		rt := &route{config: cfg, pattern: p, origin: origin}
		if len(cfg.Children) > 0 {
			rt.children = compile(cfg.Children, origin, extra)
		}
		if cfg.Name != "" {
			rc.names[cfg.Name] = rt
		}
		rc.routes = append(rc.routes, rt)
	}
	return rc
}

// Configs returns the sibling set this recognizer was built from.
func (rc *Recognizer) Configs() []*RouteConfig {
	out := make([]*RouteConfig, len(rc.routes))
	for i, rt := range rc.routes {
		out[i] = rt.config
	}
	return out
}

// Recognize resolves a URL into an instruction.
//
// Configs are tried in registration order. A config without children must
// consume every remaining segment. A config with children claims the URL as
// soon as its pattern matches a prefix; if its children cannot recognize the
// rest, recognition fails without trying later siblings.
func (rc *Recognizer) Recognize(rawURL string) (*Instruction, error) {
	target := rawURL
	for hops := 0; hops <= maxRedirects; hops++ {
		canon, err := routepath.Canonicalize(target)
		if err != nil {
			return nil, invalidURL(target, err)
		}
		segments, err := routepath.DecodeSegments(canon.Path)
		if err != nil {
			return nil, invalidURL(target, err)
		}
		query, err := url.ParseQuery(canon.Query)
		if err != nil {
			return nil, invalidURL(target, err)
		}

		instr, redirect, ok := rc.recognize(segments)
		if !ok {
			return nil, noMatch(canon.Path)
		}
		if redirect != "" {
			target = redirect
			continue
		}
		if len(query) > 0 {
			instr = instr.withQuery(query)
		}
		return instr, nil
	}
	return nil, redirectLoop(rawURL)
}

// recognize matches decoded segments. A non-empty redirect means a redirect
// config matched and recognition should restart with that URL.
func (rc *Recognizer) recognize(segments []string) (*Instruction, string, bool) {
	for _, rt := range rc.routes {
		params, n, ok := rt.pattern.match(segments)
		if !ok {
			continue
		}
		rest := segments[n:]

		if rt.children == nil {
			if len(rest) != 0 {
				continue
			}
			if rt.config.RedirectTo != "" {
				return nil, rt.config.RedirectTo, true
			}
			return newInstruction(rt, params, nil), "", true
		}

		child, redirect, ok := rt.children.recognize(rest)
		if redirect != "" {
			return nil, redirect, true
		}
		if !ok {
			if len(rest) == 0 {
				// No default child: the instruction ends at this level.
				return newInstruction(rt, params, nil), "", true
			}
			return nil, "", false
		}
		return newInstruction(rt, params, child), "", true
	}
	return nil, "", false
}

// lookup finds the chain of routes from this level down to the route named
// name. This level is searched first, then descendants depth-first in
// registration order.
func (rc *Recognizer) lookup(name string) []*route {
	if rt, ok := rc.names[name]; ok {
		return []*route{rt}
	}
	for _, rt := range rc.routes {
		if rt.children == nil {
			continue
		}
		if chain := rt.children.lookup(name); chain != nil {
			return append([]*route{rt}, chain...)
		}
	}
	return nil
}

// Names returns every route name reachable from this level, depth-first.
func (rc *Recognizer) Names() []string {
	var names []string
	for _, rt := range rc.routes {
		if rt.config.Name != "" {
			names = append(names, rt.config.Name)
		}
		if rt.children != nil {
			names = append(names, rt.children.Names()...)
		}
	}
	return names
}

package router

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	oerrors "github.com/vango-dev/outlet/internal/errors"
)

// RouterID identifies a router within its tree.
type RouterID uint64

// Policy decides what happens when a navigation starts while another one
// is still evaluating lifecycle hooks.
type Policy string

const (
	// PolicySupersede aborts the pending navigation; the newer one wins.
	PolicySupersede Policy = "supersede"

	// PolicyQueue runs navigations one after another in arrival order.
	PolicyQueue Policy = "queue"
)

// Router owns one outlet level: the recognizer for its sibling set, the
// active component, and the child router for the level below.
//
// Parents own their single active child. Children refer back to their
// parent by ID only, resolved through the tree's registry.
type Router struct {
	id       RouterID
	parentID RouterID
	depth    int
	tree     *tree

	// Guarded by tree.mu.
	recognizer *Recognizer
	outlet     Outlet
	child      *Router
	current    *Instruction
	component  Component
	destroyed  bool
}

// tree is the state shared by every router under one root.
type tree struct {
	// mu guards router fields and the routers map.
	mu      sync.RWMutex
	routers map[RouterID]*Router
	nextID  RouterID

	// commitMu serializes commits; version counts them.
	commitMu sync.Mutex
	version  atomic.Uint64

	registry   Registry
	logger     *slog.Logger
	middleware []Middleware
	guards     *GuardEvaluator
	extra      ExtraParamsMode
	policy     Policy

	navSeq atomic.Uint64

	pendingMu     sync.Mutex
	latest        uint64
	cancelPending context.CancelCauseFunc
	queue         chan struct{}

	listenersMu  sync.Mutex
	listeners    map[uint64]func(*Instruction)
	nextListener uint64
	publishMu    sync.Mutex
}

// Option configures a root router.
type Option func(*Router)

// WithOutlet sets the outlet the root router mounts components into.
func WithOutlet(o Outlet) Option {
	return func(r *Router) {
		if o != nil {
			r.outlet = o
		}
	}
}

// WithRegistry sets the component registry. Defaults to PlaceholderRegistry.
func WithRegistry(reg Registry) Option {
	return func(r *Router) {
		if reg != nil {
			r.tree.registry = reg
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.tree.logger = l
		}
	}
}

// WithMiddleware appends navigation middleware.
func WithMiddleware(mw ...Middleware) Option {
	return func(r *Router) {
		r.tree.middleware = append(r.tree.middleware, mw...)
	}
}

// WithGuards sets the evaluator for route guard expressions. Without one,
// an evaluator is created the first time a config declares a guard.
func WithGuards(g *GuardEvaluator) Option {
	return func(r *Router) {
		r.tree.guards = g
	}
}

// WithExtraParams sets how URL generation treats unconsumed params.
func WithExtraParams(mode ExtraParamsMode) Option {
	return func(r *Router) {
		if mode != "" {
			r.tree.extra = mode
		}
	}
}

// WithPolicy sets the concurrent navigation policy.
func WithPolicy(p Policy) Option {
	return func(r *Router) {
		if p != "" {
			r.tree.policy = p
		}
	}
}

// New creates an unconfigured root router.
func New(opts ...Option) *Router {
	t := &tree{
		routers:   make(map[RouterID]*Router),
		registry:  PlaceholderRegistry{},
		logger:    slog.Default(),
		extra:     ExtraParamsQuery,
		policy:    PolicySupersede,
		queue:     make(chan struct{}, 1),
		listeners: make(map[uint64]func(*Instruction)),
	}
	t.nextID = 1
	root := &Router{
		id:         t.nextID,
		tree:       t,
		outlet:     detachedOutlet{},
		recognizer: compile(nil, recognizerSeq.Add(1), ExtraParamsQuery),
	}
	t.routers[root.id] = root

	for _, opt := range opts {
		opt(root)
	}
	root.recognizer.extra = t.extra
	return root
}

// Configure registers the root sibling set. Invalid configs fail with
// ErrConfigConflict and leave the previous configuration in place.
//
// Reconfiguring invalidates every instruction built before; the active
// view is kept until the next navigation.
func (r *Router) Configure(configs []*RouteConfig) error {
	if r.parentID != 0 {
		return oerrors.New("R200").
			WithDetail("child routers take their configs from the parent route's children").
			Wrap(ErrConfigConflict)
	}

	t := r.tree
	if t.guards == nil && HasGuards(configs) {
		g, err := NewGuardEvaluator()
		if err != nil {
			return err
		}
		t.guards = g
	}
	if err := NewValidator(configs, t.guards).Validate(); err != nil {
		return err
	}

	rc := compile(configs, recognizerSeq.Add(1), t.extra)

	t.mu.Lock()
	defer t.mu.Unlock()
	if r.destroyed {
		return routerDestroyed()
	}
	r.recognizer = rc
	t.logger.Debug("router configured", "router_id", r.id, "routes", len(configs))
	return nil
}

// ID returns the router's ID.
func (r *Router) ID() RouterID {
	return r.id
}

// Depth returns the router's level; the root is 0.
func (r *Router) Depth() int {
	return r.depth
}

// Parent returns the parent router, or nil for the root and for routers
// that were destroyed.
func (r *Router) Parent() *Router {
	if r.parentID == 0 {
		return nil
	}
	r.tree.mu.RLock()
	defer r.tree.mu.RUnlock()
	return r.tree.routers[r.parentID]
}

// Root returns the root router.
func (r *Router) Root() *Router {
	r.tree.mu.RLock()
	defer r.tree.mu.RUnlock()
	return r.tree.routers[1]
}

// Child returns the active child router, or nil.
func (r *Router) Child() *Router {
	r.tree.mu.RLock()
	defer r.tree.mu.RUnlock()
	return r.child
}

// Current returns the instruction for this router's level downward, or nil
// before the first navigation.
func (r *Router) Current() *Instruction {
	r.tree.mu.RLock()
	defer r.tree.mu.RUnlock()
	return r.current
}

// Component returns the component mounted in this router's outlet.
func (r *Router) Component() Component {
	r.tree.mu.RLock()
	defer r.tree.mu.RUnlock()
	return r.component
}

// Recognizer returns the recognizer for this router's sibling set.
func (r *Router) Recognizer() *Recognizer {
	r.tree.mu.RLock()
	defer r.tree.mu.RUnlock()
	return r.recognizer
}

// Destroyed reports whether the router has been torn down.
func (r *Router) Destroyed() bool {
	r.tree.mu.RLock()
	defer r.tree.mu.RUnlock()
	return r.destroyed
}

// Logger returns the tree's logger.
func (r *Router) Logger() *slog.Logger {
	return r.tree.logger
}

// Generate builds an instruction relative to this router for a named target.
func (r *Router) Generate(steps []Step) (*Instruction, error) {
	return r.Recognizer().GenerateChain(steps)
}

// GenerateChild builds an instruction relative to this router whose first
// step resolves among the children of the currently active route.
func (r *Router) GenerateChild(steps []Step) (*Instruction, error) {
	current := r.Current()
	if current == nil || current.route.children == nil {
		name := ""
		if len(steps) > 0 {
			name = steps[0].Name
		}
		return nil, unknownRouteName(name)
	}
	child, err := current.route.children.GenerateChain(steps)
	if err != nil {
		return nil, err
	}
	return graft([]*Instruction{current}, child), nil
}

// Absolute prefixes an instruction relative to this router with the active
// levels of its ancestors, giving an instruction relative to the root.
func (r *Router) Absolute(instr *Instruction) *Instruction {
	if r.depth == 0 || instr == nil {
		return instr
	}
	root := r.Root()
	if root == nil {
		return instr
	}
	levels := root.Current().Levels()
	if len(levels) < r.depth {
		return instr
	}
	return graft(levels[:r.depth], instr)
}

// Subscribe registers fn to be called with the root instruction after every
// committed navigation. It returns a function that removes the listener.
func (r *Router) Subscribe(fn func(*Instruction)) func() {
	t := r.tree
	t.listenersMu.Lock()
	t.nextListener++
	id := t.nextListener
	t.listeners[id] = fn
	t.listenersMu.Unlock()

	return func() {
		t.listenersMu.Lock()
		delete(t.listeners, id)
		t.listenersMu.Unlock()
	}
}

// publish notifies listeners with the root's current instruction.
func (t *tree) publish() {
	t.publishMu.Lock()
	defer t.publishMu.Unlock()

	t.mu.RLock()
	root := t.routers[1]
	var current *Instruction
	if root != nil {
		current = root.current
	}
	t.mu.RUnlock()

	t.listenersMu.Lock()
	fns := make([]func(*Instruction), 0, len(t.listeners))
	for _, fn := range t.listeners {
		fns = append(fns, fn)
	}
	t.listenersMu.Unlock()

	for _, fn := range fns {
		fn(current)
	}
}

// newChild creates and registers a child router under parent.
// Callers hold t.mu.
func (t *tree) newChild(parent *Router, rc *Recognizer, outlet Outlet) *Router {
	t.nextID++
	child := &Router{
		id:         t.nextID,
		parentID:   parent.id,
		depth:      parent.depth + 1,
		tree:       t,
		recognizer: rc,
		outlet:     outlet,
	}
	t.routers[child.id] = child
	return child
}

// Destroy deactivates every component from this router down and removes
// the routers from the tree. Destroying a child router truncates the
// ancestors' instructions to end above it.
func (r *Router) Destroy(ctx context.Context) error {
	t := r.tree
	t.commitMu.Lock()
	defer t.commitMu.Unlock()

	t.mu.RLock()
	if r.destroyed {
		t.mu.RUnlock()
		return routerDestroyed()
	}
	var chain []*Router
	for rr := r; rr != nil; rr = rr.child {
		chain = append(chain, rr)
	}
	t.mu.RUnlock()

	for i := len(chain) - 1; i >= 0; i-- {
		t.deactivate(ctx, chain[i])
	}

	t.mu.Lock()
	for _, rr := range chain {
		rr.destroyed = true
		rr.child = nil
		delete(t.routers, rr.id)
	}
	if parent := t.routers[r.parentID]; parent != nil {
		parent.child = nil
		if root := t.routers[1]; root != nil && root.current != nil {
			levels := root.current.Levels()
			if len(levels) > r.depth {
				levels = levels[:r.depth]
			}
			t.setCurrentLocked(root, graft(levels, nil))
		}
	}
	t.mu.Unlock()
	t.version.Add(1)

	t.logger.Debug("router destroyed", "router_id", r.id)
	if r.parentID != 0 {
		t.publish()
	}
	return nil
}

// deactivate runs the deactivation hooks for a router's component and
// unmounts it. Hook and outlet errors are logged; deactivation proceeds.
func (t *tree) deactivate(ctx context.Context, rr *Router) {
	t.mu.RLock()
	comp := rr.component
	outlet := rr.outlet
	t.mu.RUnlock()
	if comp == nil {
		return
	}

	if hook, ok := comp.(DeactivateHook); ok {
		if err := hook.OnDeactivate(ctx); err != nil {
			t.logger.Warn("OnDeactivate failed", "router_id", rr.id, "error", err)
		}
	}
	if err := outlet.Unmount(ctx, comp); err != nil {
		t.logger.Warn("unmount failed", "router_id", rr.id, "error", err)
	}

	t.mu.Lock()
	rr.component = nil
	rr.current = nil
	t.mu.Unlock()
}

// setCurrentLocked points every router on the active chain at its level of
// instr. Callers hold t.mu.
func (t *tree) setCurrentLocked(root *Router, instr *Instruction) {
	rr, lvl := root, instr
	for rr != nil {
		rr.current = lvl
		if lvl != nil {
			lvl = lvl.child
		}
		rr = rr.child
	}
}

// String implements fmt.Stringer.
func (r *Router) String() string {
	return fmt.Sprintf("Router(%d@%d)", r.id, r.depth)
}

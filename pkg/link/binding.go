package link

import (
	"context"
	"log/slog"
	"sync"

	"github.com/vango-dev/outlet/pkg/router"
	"github.com/vango-dev/outlet/pkg/vdom"
)

// Anchor is the element a Binding keeps in sync. *vdom.VNode implements it.
type Anchor interface {
	SetAttr(key, value string)
	RemoveAttr(key string)
	SetClass(class string, on bool)
}

// ClickEvent is the part of a DOM click the binding looks at.
type ClickEvent struct {
	Button   int
	CtrlKey  bool
	MetaKey  bool
	ShiftKey bool

	prevented bool
}

// PreventDefault stops the host from following the href.
func (e *ClickEvent) PreventDefault() {
	e.prevented = true
}

// DefaultPrevented reports whether PreventDefault was called.
func (e *ClickEvent) DefaultPrevented() bool {
	return e.prevented
}

// Binding ties an anchor to a target on behalf of an owning router. It
// recomputes href and the active class whenever the target changes or the
// router tree navigates.
type Binding struct {
	owner       *router.Router
	anchor      Anchor
	prefix      string
	activeClass string
	logger      *slog.Logger

	mu          sync.Mutex
	target      *Target
	state       State
	unsubscribe func()
}

// Option configures a Binding.
type Option func(*Binding)

// WithPrefix sets the href prefix. Defaults to DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(b *Binding) { b.prefix = prefix }
}

// WithActiveClass sets the class toggled on active links.
func WithActiveClass(class string) Option {
	return func(b *Binding) {
		if class != "" {
			b.activeClass = class
		}
	}
}

// WithLogger sets the logger. Defaults to the owner's logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Binding) {
		if l != nil {
			b.logger = l
		}
	}
}

// Bind attaches anchor to owner. The binding has no target until
// SetTarget is called; until then the anchor is left alone.
func Bind(owner *router.Router, anchor Anchor, opts ...Option) *Binding {
	b := &Binding{
		owner:       owner,
		anchor:      anchor,
		prefix:      DefaultPrefix,
		activeClass: DefaultActiveClass,
		logger:      owner.Logger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if root := owner.Root(); root != nil {
		b.unsubscribe = root.Subscribe(func(*router.Instruction) { b.Refresh() })
	}
	return b
}

// SetTarget parses expr and recomputes the link. An empty expr clears the
// target, leaving clicks to default handling.
func (b *Binding) SetTarget(expr []any) error {
	if len(expr) == 0 {
		b.mu.Lock()
		b.target = nil
		b.state = State{}
		b.anchor.RemoveAttr("href")
		b.anchor.SetClass(b.activeClass, false)
		b.mu.Unlock()
		return nil
	}

	t, err := ParseTarget(expr)
	if err != nil {
		b.mu.Lock()
		b.target = nil
		b.state = State{Err: err}
		b.anchor.RemoveAttr("href")
		b.anchor.SetClass(b.activeClass, false)
		b.mu.Unlock()
		return err
	}

	b.mu.Lock()
	b.target = &t
	b.mu.Unlock()
	b.Refresh()
	return nil
}

// Refresh recomputes the link state and applies it to the anchor.
func (b *Binding) Refresh() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.target == nil {
		return
	}

	st := Compute(b.owner, *b.target, b.prefix)
	if st.Err != nil {
		b.logger.Debug("link target unresolvable", "target", b.target.String(), "error", st.Err)
	}
	b.state = st

	if st.Href != "" {
		b.anchor.SetAttr("href", st.Href)
	} else {
		b.anchor.RemoveAttr("href")
	}
	b.anchor.SetClass(b.activeClass, st.Active)
}

// State returns the last computed state.
func (b *Binding) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// HandleClick intercepts a primary-button click without modifier keys on a
// resolvable link and navigates the router tree instead. Any other click
// returns nil without touching the event.
func (b *Binding) HandleClick(ctx context.Context, ev *ClickEvent) error {
	if ev == nil || ev.Button != 0 || ev.CtrlKey || ev.MetaKey || ev.ShiftKey {
		return nil
	}

	st := b.State()
	if st.Instruction == nil {
		return nil
	}
	root := b.owner.Root()
	if root == nil {
		return nil
	}

	ev.PreventDefault()
	return root.NavigateByInstruction(ctx, st.Instruction)
}

// Close stops recomputing on navigation.
func (b *Binding) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.unsubscribe != nil {
		b.unsubscribe()
		b.unsubscribe = nil
	}
}

// A builds an anchor element bound to target. Clicks dispatched to the
// node with a *ClickEvent go through HandleClick; navigation errors are
// logged. A nil target leaves the anchor unbound.
func A(owner *router.Router, target []any, children ...any) (*vdom.VNode, *Binding) {
	return AWith(owner, target, nil, children...)
}

// AWith is A with binding options.
func AWith(owner *router.Router, target []any, opts []Option, children ...any) (*vdom.VNode, *Binding) {
	node := vdom.A(children...)
	b := Bind(owner, node, opts...)
	if err := b.SetTarget(target); err != nil {
		b.logger.Warn("invalid link target", "error", err)
	}

	node.Props["onclick"] = func(ev any) {
		click, ok := ev.(*ClickEvent)
		if !ok {
			return
		}
		if err := b.HandleClick(context.Background(), click); err != nil {
			b.logger.Warn("link navigation failed", "href", b.State().Href, "error", err)
		}
	}
	return node, b
}

package router

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// maxReplans bounds how often a navigation re-plans after another
// navigation committed while its hooks were running.
const maxReplans = 3

// NavigateByURL recognizes url from the root and moves the whole tree to
// the result. Recognition failures are reported as ErrRouteNotFound.
//
// Lifecycle hooks run on the calling goroutine and must not navigate
// synchronously.
func (r *Router) NavigateByURL(ctx context.Context, rawURL string) error {
	root := r.Root()
	if root == nil {
		return routerDestroyed()
	}
	t := root.tree
	nav := t.newNavigation(rawURL, nil)

	return ComposeMiddleware(ctx, nav, t.middleware, func(ctx context.Context) error {
		instr, err := root.Recognizer().Recognize(rawURL)
		if err != nil {
			if errors.Is(err, ErrNoMatch) || errors.Is(err, ErrInvalidURL) {
				err = routeNotFound(rawURL, err)
			}
			t.logger.Debug("navigation failed", "id", nav.ID, "url", rawURL, "error", err)
			return err
		}
		nav.Target = instr
		return root.run(ctx, nav)
	})
}

// NavigateByInstruction moves the tree to a pre-built instruction. On a
// child router the instruction is relative to that router and the active
// ancestor levels are kept.
func (r *Router) NavigateByInstruction(ctx context.Context, instr *Instruction) error {
	if instr == nil {
		return routeNotFound("", noMatch(""))
	}
	root := r.Root()
	if root == nil || r.Destroyed() {
		return routerDestroyed()
	}
	t := root.tree

	target := r.Absolute(instr)
	if target.stale(root.Recognizer().origin) {
		return staleInstruction()
	}

	nav := t.newNavigation(target.URL(), target)
	return ComposeMiddleware(ctx, nav, t.middleware, func(ctx context.Context) error {
		return root.run(ctx, nav)
	})
}

func (t *tree) newNavigation(url string, target *Instruction) *Navigation {
	return &Navigation{
		ID:     t.navSeq.Add(1),
		URL:    url,
		Target: target,
		Start:  time.Now(),
	}
}

// plan is the difference between the active tree and a target.
type plan struct {
	target  *Instruction
	version uint64

	// noop means the target equals the current instruction.
	noop bool
	// queryOnly means every level is kept and only the query changed.
	queryOnly bool

	// pivot is the first router whose component changes.
	pivot *Router
	// outgoing are the routers from pivot down that have a component,
	// top first, with the component each one had when planned.
	outgoing      []*Router
	outgoingComps []Component
	// incoming are the target levels to activate, top first.
	incoming []*Instruction
	defs     []ComponentDef
}

// run takes a recognized target through the lifecycle pipeline. The
// receiver is the root router.
func (r *Router) run(ctx context.Context, nav *Navigation) error {
	t := r.tree
	t.logger.Debug("navigation started", "id", nav.ID, "url", nav.URL, "target", nav.Target.String())

	ctx, ticket, release, err := t.begin(ctx)
	if err != nil {
		return err
	}
	defer release()

	for attempt := 0; ; attempt++ {
		if attempt == maxReplans {
			return aborted("the active tree kept changing during navigation")
		}

		p, err := r.plan(nav.Target)
		if err != nil {
			return err
		}
		if p.noop {
			t.logger.Debug("navigation is a no-op", "id", nav.ID, "url", nav.URL)
			return nil
		}

		if !p.queryOnly {
			if err := t.checkDeactivate(ctx, ticket, p); err != nil {
				t.logRejected(nav, err)
				return err
			}
			if err := t.checkActivate(ctx, ticket, p); err != nil {
				t.logRejected(nav, err)
				return err
			}
		}

		committed, err := t.commit(ctx, ticket, r, p)
		if err != nil {
			t.logRejected(nav, err)
			return err
		}
		if !committed {
			t.logger.Debug("re-planning navigation", "id", nav.ID, "attempt", attempt+1)
			continue
		}
		break
	}

	t.publish()
	t.logger.Info("navigated",
		"id", nav.ID,
		"url", nav.Target.URL(),
		"duration", time.Since(nav.Start),
	)
	return nil
}

func (t *tree) logRejected(nav *Navigation, err error) {
	if errors.Is(err, ErrSuperseded) {
		t.logger.Debug("navigation superseded", "id", nav.ID, "url", nav.URL)
		return
	}
	t.logger.Warn("navigation rejected", "id", nav.ID, "url", nav.URL, "error", err)
}

// begin registers a navigation with the tree's policy. It returns the
// context hooks run under, a ticket for latest-wins checks, and a release
// function.
func (t *tree) begin(ctx context.Context) (context.Context, uint64, func(), error) {
	if t.policy == PolicyQueue {
		select {
		case t.queue <- struct{}{}:
		case <-ctx.Done():
			return nil, 0, nil, canceled(ctx.Err())
		}
		t.pendingMu.Lock()
		t.latest++
		ticket := t.latest
		t.pendingMu.Unlock()
		return ctx, ticket, func() { <-t.queue }, nil
	}

	navCtx, cancel := context.WithCancelCause(ctx)

	t.pendingMu.Lock()
	if t.cancelPending != nil {
		t.cancelPending(ErrSuperseded)
	}
	t.latest++
	ticket := t.latest
	t.cancelPending = cancel
	t.pendingMu.Unlock()

	release := func() {
		t.pendingMu.Lock()
		if t.latest == ticket {
			t.cancelPending = nil
		}
		t.pendingMu.Unlock()
		cancel(nil)
	}
	return navCtx, ticket, release, nil
}

// interrupted reports whether the navigation holding ticket must stop.
func (t *tree) interrupted(ctx context.Context, ticket uint64) error {
	t.pendingMu.Lock()
	latest := t.latest
	t.pendingMu.Unlock()
	if latest != ticket {
		return superseded()
	}
	if err := ctx.Err(); err != nil {
		if errors.Is(context.Cause(ctx), ErrSuperseded) {
			return superseded()
		}
		return canceled(err)
	}
	return nil
}

// plan diffs the active tree against target. The receiver is the root.
func (r *Router) plan(target *Instruction) (*plan, error) {
	t := r.tree
	t.mu.RLock()
	defer t.mu.RUnlock()

	if r.destroyed {
		return nil, routerDestroyed()
	}
	p := &plan{target: target, version: t.version.Load()}

	router, cur, tgt := r, r.current, target
	for router != nil && cur != nil && tgt != nil && cur.LevelEqual(tgt) {
		cur, tgt = cur.child, tgt.child
		if tgt != nil {
			router = router.child
		}
	}

	if cur == nil && tgt == nil {
		if r.current.Equal(target) {
			p.noop = true
		} else {
			p.queryOnly = true
		}
		return p, nil
	}
	if router == nil {
		return nil, aborted("the active tree has no router for the target level")
	}

	p.pivot = router
	if tgt == nil {
		// The target is shallower: the pivot keeps its component and
		// everything below it goes.
		router = router.child
	}
	for rr := router; rr != nil && rr.component != nil; rr = rr.child {
		p.outgoing = append(p.outgoing, rr)
		p.outgoingComps = append(p.outgoingComps, rr.component)
	}
	for lvl := tgt; lvl != nil; lvl = lvl.child {
		p.incoming = append(p.incoming, lvl)
	}
	return p, nil
}

// checkDeactivate asks every outgoing component, top-down, whether it may
// be left. A refusal aborts the navigation before any activation check.
func (t *tree) checkDeactivate(ctx context.Context, ticket uint64, p *plan) error {
	for i, comp := range p.outgoingComps {
		d, ok := comp.(Deactivatable)
		if !ok {
			continue
		}
		allowed, err := d.CanDeactivate(ctx)
		if ierr := t.interrupted(ctx, ticket); ierr != nil {
			return ierr
		}
		if err != nil {
			return fmt.Errorf("%w: %w", aborted("CanDeactivate failed"), err)
		}
		if !allowed {
			return aborted(fmt.Sprintf("component in router %d refused to deactivate", p.outgoing[i].id))
		}
	}
	return nil
}

// checkActivate resolves every incoming component and runs its guard and
// CanActivate hook, parent level first.
func (t *tree) checkActivate(ctx context.Context, ticket uint64, p *plan) error {
	p.defs = make([]ComponentDef, len(p.incoming))
	for i, lvl := range p.incoming {
		ref := lvl.Component()
		def, ok := t.registry.Lookup(ref)
		if !ok {
			return unknownComponent(ref)
		}
		p.defs[i] = def

		if guard := lvl.Config().Guard; guard != "" {
			if t.guards == nil {
				return invalidGuard(guard, errors.New("no guard evaluator configured"))
			}
			allowed, err := t.guards.Allow(ctx, guard, lvl.params)
			if ierr := t.interrupted(ctx, ticket); ierr != nil {
				return ierr
			}
			if err != nil {
				return fmt.Errorf("%w: %w", aborted("guard failed"), err)
			}
			if !allowed {
				return aborted(fmt.Sprintf("guard %q rejected %s", guard, lvl.Component()))
			}
		}

		if def.CanActivate != nil {
			allowed, err := def.CanActivate(ctx, lvl.Params())
			if ierr := t.interrupted(ctx, ticket); ierr != nil {
				return ierr
			}
			if err != nil {
				return fmt.Errorf("%w: %w", aborted("CanActivate failed"), err)
			}
			if !allowed {
				return aborted(fmt.Sprintf("%s refused to activate", ref))
			}
		}
	}
	return nil
}

// commit swaps components. It reports false without touching anything when
// another commit happened since p was planned.
//
// Once the swap starts it runs to completion. A Mount failure leaves the
// tree at the deepest level that activated.
func (t *tree) commit(ctx context.Context, ticket uint64, root *Router, p *plan) (bool, error) {
	t.commitMu.Lock()
	defer t.commitMu.Unlock()

	if err := t.interrupted(ctx, ticket); err != nil {
		return false, err
	}
	if t.version.Load() != p.version {
		return false, nil
	}
	defer t.version.Add(1)

	// Hooks below run to completion even if a newer navigation cancels ctx.
	ctx = context.WithoutCancel(ctx)

	if p.queryOnly {
		t.mu.Lock()
		t.setCurrentLocked(root, p.target)
		t.mu.Unlock()
		return true, nil
	}

	for i := len(p.outgoing) - 1; i >= 0; i-- {
		t.deactivate(ctx, p.outgoing[i])
	}

	t.mu.Lock()
	for rr := p.pivot.child; rr != nil; rr = rr.child {
		rr.destroyed = true
		delete(t.routers, rr.id)
	}
	if len(p.incoming) > 0 || len(p.outgoing) > 0 {
		p.pivot.child = nil
	}
	if len(p.incoming) == 0 {
		// Shallower target: pivot keeps its component, so its child router
		// is recreated empty for the route's children.
		if p.pivot.current != nil && p.pivot.current.route.children != nil {
			outlet := p.pivot.childOutletLocked()
			p.pivot.child = t.newChild(p.pivot, p.pivot.current.route.children, outlet)
		}
		t.setCurrentLocked(root, p.target)
		t.mu.Unlock()
		return true, nil
	}
	t.mu.Unlock()

	rr := p.pivot
	for i, lvl := range p.incoming {
		params := lvl.Params()
		var comp Component
		if p.defs[i].New != nil {
			comp = p.defs[i].New(params)
		} else {
			comp = &Placeholder{Ref: lvl.Component(), Params: params}
		}

		if err := rr.outlet.Mount(ctx, lvl.Component(), comp, params); err != nil {
			t.truncate(root, p.target, rr.depth)
			return true, hookFailed(fmt.Sprintf("mounting %s", lvl.Component()), err)
		}

		t.mu.Lock()
		rr.component = comp
		var next *Router
		if lvl.route.children != nil {
			next = t.newChild(rr, lvl.route.children, rr.childOutletLocked())
			rr.child = next
		}
		t.mu.Unlock()

		if hook, ok := comp.(ActivateHook); ok {
			if err := hook.OnActivate(ctx, lvl); err != nil {
				t.logger.Warn("OnActivate failed", "router_id", rr.id, "component", lvl.Component(), "error", err)
			}
		}
		if next == nil {
			break
		}
		rr = next
	}

	t.mu.Lock()
	t.setCurrentLocked(root, p.target)
	t.mu.Unlock()
	return true, nil
}

// truncate sets the active instruction to the first depth levels of target
// after a failed activation at that depth.
func (t *tree) truncate(root *Router, target *Instruction, depth int) {
	levels := target.Levels()
	if depth < len(levels) {
		levels = levels[:depth]
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setCurrentLocked(root, graft(levels, nil))
}

// childOutletLocked returns the outlet nested in the router's component,
// or a detached one. Callers hold t.mu.
func (r *Router) childOutletLocked() Outlet {
	if host, ok := r.component.(OutletHost); ok {
		if o := host.ChildOutlet(); o != nil {
			return o
		}
	}
	return detachedOutlet{}
}

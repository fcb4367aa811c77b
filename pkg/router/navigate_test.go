package router

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// lifecycle records hook calls across a test.
type lifecycle struct {
	mu     sync.Mutex
	events []string
	counts map[string]int
}

func newLifecycle() *lifecycle {
	return &lifecycle{counts: make(map[string]int)}
}

func (l *lifecycle) record(event string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	l.counts[event]++
}

func (l *lifecycle) count(event string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[event]
}

// testComponent implements every optional lifecycle interface.
type testComponent struct {
	ref          string
	log          *lifecycle
	allowLeave   func() bool
	childOutlet  Outlet
	activatedFor *Instruction
}

func (c *testComponent) CanDeactivate(ctx context.Context) (bool, error) {
	c.log.record("canDeactivate:" + c.ref)
	if c.allowLeave != nil {
		return c.allowLeave(), nil
	}
	return true, nil
}

func (c *testComponent) OnActivate(ctx context.Context, instr *Instruction) error {
	c.log.record("activate:" + c.ref)
	c.activatedFor = instr
	return nil
}

func (c *testComponent) OnDeactivate(ctx context.Context) error {
	c.log.record("deactivate:" + c.ref)
	return nil
}

func (c *testComponent) ChildOutlet() Outlet {
	return c.childOutlet
}

// recordingOutlet tracks what is mounted.
type recordingOutlet struct {
	mu      sync.Mutex
	mounted Component
	refs    []string
	failOn  string
}

func (o *recordingOutlet) Mount(ctx context.Context, ref string, c Component, params Params) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if ref == o.failOn {
		return errors.New("mount failed")
	}
	o.mounted = c
	o.refs = append(o.refs, ref)
	return nil
}

func (o *recordingOutlet) Unmount(ctx context.Context, c Component) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.mounted == c {
		o.mounted = nil
	}
	return nil
}

func (o *recordingOutlet) current() Component {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.mounted
}

type fixture struct {
	router   *Router
	log      *lifecycle
	registry *MapRegistry
	outlet   *recordingOutlet
	// leave decides CanDeactivate per component ref.
	leave map[string]bool
	mu    sync.Mutex
}

func newFixture(t *testing.T, configs []*RouteConfig, refs ...string) *fixture {
	t.Helper()
	f := &fixture{
		log:      newLifecycle(),
		registry: NewMapRegistry(),
		outlet:   &recordingOutlet{},
		leave:    make(map[string]bool),
	}
	for _, ref := range refs {
		ref := ref
		f.registry.Register(ref, ComponentDef{
			New: func(params Params) Component {
				f.log.record("new:" + ref)
				return &testComponent{
					ref:         ref,
					log:         f.log,
					childOutlet: &recordingOutlet{},
					allowLeave: func() bool {
						f.mu.Lock()
						defer f.mu.Unlock()
						allowed, set := f.leave[ref]
						return !set || allowed
					},
				}
			},
		})
	}

	f.router = New(
		WithOutlet(f.outlet),
		WithRegistry(f.registry),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err := f.router.Configure(configs); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	return f
}

func (f *fixture) refuseLeave(ref string) {
	f.mu.Lock()
	f.leave[ref] = false
	f.mu.Unlock()
}

func (f *fixture) navigate(t *testing.T, url string) {
	t.Helper()
	if err := f.router.NavigateByURL(context.Background(), url); err != nil {
		t.Fatalf("NavigateByURL(%q) error = %v", url, err)
	}
}

func tabsConfigs() []*RouteConfig {
	return []*RouteConfig{
		{Path: "/a", Component: "oneCmp", Name: "One"},
		{Path: "/b/:param", Component: "twoCmp", Name: "Two"},
		{
			Path:      "/users/:id",
			Component: "user",
			Name:      "User",
			Children: []*RouteConfig{
				{Path: "/posts/:post", Component: "post", Name: "Post"},
				{Path: "/settings", Component: "settings", Name: "Settings"},
			},
		},
	}
}

var tabsRefs = []string{"oneCmp", "twoCmp", "user", "post", "settings"}

func TestNavigateByURL(t *testing.T) {
	f := newFixture(t, tabsConfigs(), tabsRefs...)

	f.navigate(t, "/a")

	current := f.router.Current()
	if current == nil || current.Component() != "oneCmp" {
		t.Fatalf("Current() = %v, want oneCmp", current)
	}
	comp, ok := f.outlet.current().(*testComponent)
	if !ok || comp.ref != "oneCmp" {
		t.Errorf("outlet holds %v, want oneCmp", f.outlet.current())
	}
	if f.log.count("activate:oneCmp") != 1 {
		t.Errorf("oneCmp activated %d times, want 1", f.log.count("activate:oneCmp"))
	}
}

func TestNavigateRouteNotFound(t *testing.T) {
	f := newFixture(t, tabsConfigs(), tabsRefs...)
	f.navigate(t, "/a")

	err := f.router.NavigateByURL(context.Background(), "/missing")
	if !errors.Is(err, ErrRouteNotFound) {
		t.Fatalf("error = %v, want ErrRouteNotFound", err)
	}
	if got := f.router.Current().Component(); got != "oneCmp" {
		t.Errorf("state changed to %q after a failed navigation", got)
	}
}

func TestNavigateSameURLIsNoop(t *testing.T) {
	f := newFixture(t, tabsConfigs(), tabsRefs...)
	f.navigate(t, "/b/x")
	f.navigate(t, "/b/x")

	if got := f.log.count("new:twoCmp"); got != 1 {
		t.Errorf("twoCmp created %d times, want 1", got)
	}
	if got := f.log.count("canDeactivate:twoCmp"); got != 0 {
		t.Errorf("CanDeactivate called %d times on a no-op navigation", got)
	}
}

func TestNavigateParamChangeReactivates(t *testing.T) {
	f := newFixture(t, tabsConfigs(), tabsRefs...)
	f.navigate(t, "/b/x")
	f.navigate(t, "/b/y")

	if got := f.log.count("new:twoCmp"); got != 2 {
		t.Errorf("twoCmp created %d times, want 2", got)
	}
	if got := f.router.Current().Param("param"); got != "y" {
		t.Errorf("param = %q, want y", got)
	}
}

func TestNavigateKeepsUnchangedParent(t *testing.T) {
	f := newFixture(t, tabsConfigs(), tabsRefs...)
	f.navigate(t, "/users/7/posts/1")
	f.navigate(t, "/users/7/settings")

	if got := f.log.count("new:user"); got != 1 {
		t.Errorf("user created %d times, want 1", got)
	}
	if got := f.log.count("deactivate:user"); got != 0 {
		t.Errorf("user deactivated %d times, want 0", got)
	}
	if got := f.log.count("deactivate:post"); got != 1 {
		t.Errorf("post deactivated %d times, want 1", got)
	}

	child := f.router.Child()
	if child == nil {
		t.Fatal("expected a child router")
	}
	if got := child.Current().Component(); got != "settings" {
		t.Errorf("child router shows %q, want settings", got)
	}
	if child.Parent() != f.router {
		t.Error("child router's parent should be the root")
	}
}

func TestNavigateParentParamChangeRebuildsChildren(t *testing.T) {
	f := newFixture(t, tabsConfigs(), tabsRefs...)
	f.navigate(t, "/users/7/settings")
	oldChild := f.router.Child()

	f.navigate(t, "/users/8/settings")

	if got := f.log.count("new:user"); got != 2 {
		t.Errorf("user created %d times, want 2", got)
	}
	if got := f.log.count("new:settings"); got != 2 {
		t.Errorf("settings created %d times, want 2", got)
	}
	if !oldChild.Destroyed() {
		t.Error("the old child router should be destroyed")
	}
	if f.router.Child() == oldChild {
		t.Error("expected a fresh child router")
	}
}

func TestNavigateShallower(t *testing.T) {
	configs := []*RouteConfig{
		{
			Path:      "/users/:id",
			Component: "user",
			Children: []*RouteConfig{
				{Path: "/posts", Component: "post"},
			},
		},
	}
	f := newFixture(t, configs, "user", "post")
	f.navigate(t, "/users/7/posts")
	f.navigate(t, "/users/7")

	if got := f.log.count("deactivate:post"); got != 1 {
		t.Errorf("post deactivated %d times, want 1", got)
	}
	if got := f.log.count("new:user"); got != 1 {
		t.Errorf("user created %d times, want 1", got)
	}
	if got := f.router.Current().Depth(); got != 1 {
		t.Errorf("Depth() = %d, want 1", got)
	}
	child := f.router.Child()
	if child == nil || child.Component() != nil {
		t.Fatalf("expected an empty child router, got %v", child)
	}

	f.navigate(t, "/users/7/posts")
	if got := f.log.count("new:post"); got != 2 {
		t.Errorf("post created %d times, want 2", got)
	}
}

func TestNavigateQueryOnlyChange(t *testing.T) {
	f := newFixture(t, tabsConfigs(), tabsRefs...)
	f.navigate(t, "/a?tab=1")
	f.navigate(t, "/a?tab=2")

	if got := f.log.count("new:oneCmp"); got != 1 {
		t.Errorf("oneCmp created %d times, want 1", got)
	}
	if got := f.router.Current().Query().Get("tab"); got != "2" {
		t.Errorf("query tab = %q, want 2", got)
	}
}

func TestNavigateDeactivateVetoIsAtomic(t *testing.T) {
	f := newFixture(t, tabsConfigs(), tabsRefs...)
	f.navigate(t, "/users/7/posts/1")
	f.refuseLeave("post")

	before := f.router.Current()
	err := f.router.NavigateByURL(context.Background(), "/a")
	if !errors.Is(err, ErrNavigationAborted) {
		t.Fatalf("error = %v, want ErrNavigationAborted", err)
	}

	if !f.router.Current().Equal(before) {
		t.Errorf("Current() = %s, want %s", f.router.Current(), before)
	}
	if got := f.log.count("new:oneCmp"); got != 0 {
		t.Errorf("oneCmp created %d times after a veto", got)
	}
	if got := f.log.count("deactivate:user"); got != 0 {
		t.Errorf("user deactivated after a veto")
	}
	// Parent asked first, then the child that refused.
	if f.log.count("canDeactivate:user") != 1 || f.log.count("canDeactivate:post") != 1 {
		t.Errorf("events = %v", f.log.events)
	}
}

func TestNavigateActivateVeto(t *testing.T) {
	f := newFixture(t, tabsConfigs(), tabsRefs...)
	f.registry.Register("twoCmp", ComponentDef{
		New: func(Params) Component { return &testComponent{ref: "twoCmp", log: f.log} },
		CanActivate: func(ctx context.Context, params Params) (bool, error) {
			return params["param"] != "forbidden", nil
		},
	})
	f.navigate(t, "/a")

	err := f.router.NavigateByURL(context.Background(), "/b/forbidden")
	if !errors.Is(err, ErrNavigationAborted) {
		t.Fatalf("error = %v, want ErrNavigationAborted", err)
	}
	if got := f.router.Current().Component(); got != "oneCmp" {
		t.Errorf("Current() = %q, want oneCmp", got)
	}
	if got := f.log.count("deactivate:oneCmp"); got != 0 {
		t.Errorf("oneCmp deactivated %d times after a veto", got)
	}

	f.navigate(t, "/b/ok")
	if got := f.router.Current().Component(); got != "twoCmp" {
		t.Errorf("Current() = %q, want twoCmp", got)
	}
}

func TestNavigateGuard(t *testing.T) {
	configs := []*RouteConfig{
		{Path: "/admin/:role", Component: "admin", Guard: `params.role == "root"`},
		{Path: "/a", Component: "oneCmp"},
	}
	f := newFixture(t, configs, "admin", "oneCmp")

	err := f.router.NavigateByURL(context.Background(), "/admin/guest")
	if !errors.Is(err, ErrNavigationAborted) {
		t.Fatalf("error = %v, want ErrNavigationAborted", err)
	}
	f.navigate(t, "/admin/root")
	if got := f.router.Current().Component(); got != "admin" {
		t.Errorf("Current() = %q, want admin", got)
	}
}

func TestConfigureRejectsBadGuard(t *testing.T) {
	r := New()
	err := r.Configure([]*RouteConfig{
		{Path: "/a", Component: "a", Guard: "params.id +"},
	})
	if !errors.Is(err, ErrConfigConflict) {
		t.Errorf("error = %v, want ErrConfigConflict", err)
	}
}

func TestNavigateUnknownComponent(t *testing.T) {
	f := newFixture(t, tabsConfigs(), "oneCmp")

	err := f.router.NavigateByURL(context.Background(), "/b/x")
	if !errors.Is(err, ErrUnknownComponent) {
		t.Errorf("error = %v, want ErrUnknownComponent", err)
	}
	if f.router.Current() != nil {
		t.Error("router should stay unstarted")
	}
}

func TestNavigateMountFailure(t *testing.T) {
	f := newFixture(t, tabsConfigs(), tabsRefs...)
	f.navigate(t, "/a")
	f.outlet.failOn = "twoCmp"

	err := f.router.NavigateByURL(context.Background(), "/b/x")
	if err == nil {
		t.Fatal("expected an error")
	}
	if f.router.Current() != nil {
		t.Errorf("Current() = %s, want nil after the root level failed", f.router.Current())
	}
}

func TestNavigateByInstruction(t *testing.T) {
	f := newFixture(t, tabsConfigs(), tabsRefs...)

	instr, err := f.router.Generate([]Step{{Name: "Two", Params: Params{"param": "lol"}}})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if err := f.router.NavigateByInstruction(context.Background(), instr); err != nil {
		t.Fatalf("NavigateByInstruction() error = %v", err)
	}
	if !f.router.Current().Equal(instr) {
		t.Errorf("Current() = %s, want %s", f.router.Current(), instr)
	}
}

func TestNavigateByInstructionFromChild(t *testing.T) {
	f := newFixture(t, tabsConfigs(), tabsRefs...)
	f.navigate(t, "/users/7/posts/1")

	child := f.router.Child()
	instr, err := child.Generate([]Step{{Name: "Settings"}})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if err := child.NavigateByInstruction(context.Background(), instr); err != nil {
		t.Fatalf("NavigateByInstruction() error = %v", err)
	}
	if got := f.router.Current().URL(); got != "/users/7/settings" {
		t.Errorf("URL() = %q, want /users/7/settings", got)
	}
	if got := f.log.count("new:user"); got != 1 {
		t.Errorf("user created %d times, want 1", got)
	}
}

func TestNavigateStaleInstruction(t *testing.T) {
	f := newFixture(t, tabsConfigs(), tabsRefs...)

	instr, err := f.router.Generate([]Step{{Name: "One"}})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if err := f.router.Configure(tabsConfigs()); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}

	err = f.router.NavigateByInstruction(context.Background(), instr)
	if !errors.Is(err, ErrStaleInstruction) {
		t.Errorf("error = %v, want ErrStaleInstruction", err)
	}
}

func TestNavigateSupersede(t *testing.T) {
	f := newFixture(t, tabsConfigs(), tabsRefs...)

	entered := make(chan struct{})
	f.registry.Register("twoCmp", ComponentDef{
		New: func(Params) Component { return &testComponent{ref: "twoCmp", log: f.log} },
		CanActivate: func(ctx context.Context, params Params) (bool, error) {
			close(entered)
			<-ctx.Done()
			return true, nil
		},
	})

	slow := make(chan error, 1)
	go func() {
		slow <- f.router.NavigateByURL(context.Background(), "/b/slow")
	}()

	<-entered
	f.navigate(t, "/a")

	select {
	case err := <-slow:
		if !errors.Is(err, ErrSuperseded) {
			t.Errorf("slow navigation error = %v, want ErrSuperseded", err)
		}
		if !errors.Is(err, ErrNavigationAborted) {
			t.Errorf("slow navigation error = %v, want ErrNavigationAborted", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("superseded navigation did not return")
	}

	if got := f.router.Current().Component(); got != "oneCmp" {
		t.Errorf("Current() = %q, want oneCmp", got)
	}
	if got := f.log.count("new:twoCmp"); got != 0 {
		t.Errorf("twoCmp created %d times by a superseded navigation", got)
	}
}

func TestNavigateQueuePolicy(t *testing.T) {
	registry := NewMapRegistry()
	release := make(chan struct{})
	entered := make(chan struct{})
	registry.Register("slow", ComponentDef{
		New: func(Params) Component { return "slow" },
		CanActivate: func(ctx context.Context, params Params) (bool, error) {
			close(entered)
			<-release
			return true, nil
		},
	})
	registry.Register("fast", ComponentDef{New: func(Params) Component { return "fast" }})

	r := New(WithRegistry(registry), WithPolicy(PolicyQueue),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err := r.Configure([]*RouteConfig{
		{Path: "/slow", Component: "slow"},
		{Path: "/fast", Component: "fast"},
	}); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}

	first := make(chan error, 1)
	go func() { first <- r.NavigateByURL(context.Background(), "/slow") }()
	<-entered

	second := make(chan error, 1)
	go func() { second <- r.NavigateByURL(context.Background(), "/fast") }()

	close(release)
	if err := <-first; err != nil {
		t.Errorf("first navigation error = %v", err)
	}
	if err := <-second; err != nil {
		t.Errorf("second navigation error = %v", err)
	}
	if got := r.Current().Component(); got != "fast" {
		t.Errorf("Current() = %q, want fast", got)
	}
}

func TestNavigateMiddleware(t *testing.T) {
	var seen []string
	mw := MiddlewareFunc(func(ctx context.Context, nav *Navigation, next func(context.Context) error) error {
		seen = append(seen, "before:"+nav.URL)
		err := next(ctx)
		if nav.Target != nil {
			seen = append(seen, "after:"+nav.Target.Component())
		}
		return err
	})

	r := New(WithMiddleware(mw), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err := r.Configure(tabsConfigs()); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	if err := r.NavigateByURL(context.Background(), "/a"); err != nil {
		t.Fatalf("NavigateByURL() error = %v", err)
	}

	if len(seen) != 2 || seen[0] != "before:/a" || seen[1] != "after:oneCmp" {
		t.Errorf("middleware saw %v", seen)
	}
}

func TestNavigateMiddlewareCanBlock(t *testing.T) {
	blocked := errors.New("blocked")
	mw := MiddlewareFunc(func(ctx context.Context, nav *Navigation, next func(context.Context) error) error {
		return blocked
	})

	r := New(WithMiddleware(mw))
	if err := r.Configure(tabsConfigs()); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	if err := r.NavigateByURL(context.Background(), "/a"); !errors.Is(err, blocked) {
		t.Errorf("error = %v, want blocked", err)
	}
	if r.Current() != nil {
		t.Error("router should stay unstarted")
	}
}

func TestSubscribe(t *testing.T) {
	f := newFixture(t, tabsConfigs(), tabsRefs...)

	var urls []string
	unsubscribe := f.router.Subscribe(func(instr *Instruction) {
		urls = append(urls, instr.URL())
	})

	f.navigate(t, "/a")
	f.navigate(t, "/b/x")
	unsubscribe()
	f.navigate(t, "/a")

	if len(urls) != 2 || urls[0] != "/a" || urls[1] != "/b/x" {
		t.Errorf("listener saw %v", urls)
	}
}

func TestOutletHostReceivesChild(t *testing.T) {
	f := newFixture(t, tabsConfigs(), tabsRefs...)
	f.navigate(t, "/users/7/posts/1")

	user, ok := f.outlet.current().(*testComponent)
	if !ok {
		t.Fatalf("outlet holds %T", f.outlet.current())
	}
	nested := user.childOutlet.(*recordingOutlet)
	post, ok := nested.current().(*testComponent)
	if !ok || post.ref != "post" {
		t.Errorf("nested outlet holds %v, want post", nested.current())
	}
	if post.activatedFor == nil || post.activatedFor.Param("post") != "1" {
		t.Errorf("OnActivate got %v", post.activatedFor)
	}
}

func TestDestroy(t *testing.T) {
	f := newFixture(t, tabsConfigs(), tabsRefs...)
	f.navigate(t, "/users/7/posts/1")
	child := f.router.Child()

	if err := f.router.Destroy(context.Background()); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}
	if !f.router.Destroyed() || !child.Destroyed() {
		t.Error("every router in the tree should be destroyed")
	}
	if f.log.count("deactivate:post") != 1 || f.log.count("deactivate:user") != 1 {
		t.Errorf("events = %v", f.log.events)
	}
	err := f.router.NavigateByURL(context.Background(), "/a")
	if !errors.Is(err, ErrRouterDestroyed) {
		t.Errorf("error = %v, want ErrRouterDestroyed", err)
	}
}

func TestDestroyChildTruncates(t *testing.T) {
	f := newFixture(t, tabsConfigs(), tabsRefs...)
	f.navigate(t, "/users/7/posts/1")

	if err := f.router.Child().Destroy(context.Background()); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}
	if f.router.Child() != nil {
		t.Error("root should no longer have a child")
	}
	if got := f.router.Current().URL(); got != "/users/7" {
		t.Errorf("URL() = %q, want /users/7", got)
	}
}

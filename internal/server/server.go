package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/outlet/internal/config"
	oerrors "github.com/vango-dev/outlet/internal/errors"
	"github.com/vango-dev/outlet/pkg/history"
	"github.com/vango-dev/outlet/pkg/link"
	"github.com/vango-dev/outlet/pkg/middleware"
	"github.com/vango-dev/outlet/pkg/render"
	"github.com/vango-dev/outlet/pkg/router"
	"github.com/vango-dev/outlet/pkg/vdom"
)

// Server serves one router tree over HTTP.
type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	root     *router.Router
	outlet   *render.Outlet
	renderer *render.Renderer
	hub      *history.Hub
	metrics  *middleware.Metrics
	registry *prometheus.Registry
	mux      chi.Router

	// viewMu serializes navigations so the outlet tree is never rendered
	// mid-commit.
	viewMu   sync.Mutex
	page     *vdom.VNode
	bindings []*link.Binding
}

// Option configures a Server.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	components router.Registry
	middleware []router.Middleware
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithComponents sets the component registry. Without one every route
// renders a placeholder.
func WithComponents(r router.Registry) Option {
	return func(o *options) { o.components = r }
}

// WithNavigationMiddleware appends navigation middleware after the
// built-in logging, tracing and metrics.
func WithNavigationMiddleware(mw ...router.Middleware) Option {
	return func(o *options) { o.middleware = append(o.middleware, mw...) }
}

// New builds a server for routes. The routes are validated here; config
// errors are returned as is.
func New(cfg *config.Config, routes []*router.RouteConfig, opts ...Option) (*Server, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Server{
		cfg:      cfg,
		logger:   o.logger,
		outlet:   render.NewOutlet("main"),
		renderer: render.NewRenderer(render.RendererConfig{}),
		registry: prometheus.NewRegistry(),
	}
	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	chain := []router.Middleware{
		router.MiddlewareFunc(s.serialize),
		middleware.Logger(s.logger),
		middleware.OpenTelemetry(),
	}
	if !cfg.Metrics.Disabled {
		s.metrics = middleware.NewMetrics(
			middleware.WithRegistry(s.registry),
			middleware.WithNamespace(cfg.Metrics.Namespace),
		)
		chain = append(chain, s.metrics.Middleware())
	}
	if d := time.Duration(cfg.Router.NavigationTimeout); d > 0 {
		chain = append(chain, timeout(d))
	}
	chain = append(chain, o.middleware...)

	ropts := append(cfg.RouterOptions(),
		router.WithOutlet(s.outlet),
		router.WithLogger(s.logger),
		router.WithMiddleware(chain...),
	)
	if o.components != nil {
		ropts = append(ropts, router.WithRegistry(o.components))
	}
	s.root = router.New(ropts...)
	if err := s.root.Configure(routes); err != nil {
		return nil, err
	}

	hubOpts := []history.Option{history.WithLogger(s.logger)}
	if s.metrics != nil {
		hubOpts = append(hubOpts, history.WithObserver(s.metrics))
	}
	if origins := cfg.Server.AllowedOrigins; len(origins) > 0 {
		hubOpts = append(hubOpts, history.WithCheckOrigin(func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(origins, origin)
		}))
	}
	s.hub = history.NewHub(s.root, hubOpts...)

	s.page = s.buildPage()
	s.mux = s.routes()
	return s, nil
}

// Root returns the server's root router.
func (s *Server) Root() *router.Router {
	return s.root
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// buildPage lays out a nav bar with one bound link per named top-level
// route, followed by the outlet.
func (s *Server) buildPage() *vdom.VNode {
	nav := vdom.Nav(vdom.ID("nav"))
	for _, cfg := range s.root.Recognizer().Configs() {
		if cfg.Name == "" || cfg.RedirectTo != "" {
			continue
		}
		a, b := link.AWith(s.root, []any{"/" + cfg.Name}, s.cfg.LinkOptions(), cfg.Name)
		if b.State().Err != nil {
			// Routes with required params have no standalone link.
			b.Close()
			continue
		}
		s.bindings = append(s.bindings, b)
		nav.Children = append(nav.Children, a)
	}
	return vdom.Div(nav, s.outlet.Node())
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if !s.cfg.Metrics.Disabled {
		r.Handle(s.cfg.Metrics.Path, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	r.Handle(s.cfg.Server.HistoryPath, s.hub)

	r.Route("/api", func(r chi.Router) {
		r.Get("/routes", s.handleRoutes)
		r.Get("/recognize", s.handleRecognize)
		r.Post("/generate", s.handleGenerate)
		r.Post("/navigate", s.handleNavigate)
		r.Get("/state", s.handleState)
	})

	r.Get("/*", s.handlePage)
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", chimw.GetReqID(r.Context()),
		)
	})
}

// serialize is navigation middleware holding viewMu for the whole
// navigation.
func (s *Server) serialize(ctx context.Context, nav *router.Navigation, next func(context.Context) error) error {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()
	return next(ctx)
}

func timeout(d time.Duration) router.Middleware {
	return router.MiddlewareFunc(func(ctx context.Context, nav *router.Navigation, next func(context.Context) error) error {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return next(ctx)
	})
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully
// within the configured timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Server.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return oerrors.New("R301").Wrap(err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Duration(s.cfg.Server.ShutdownTimeout))
	defer cancel()
	s.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return oerrors.New("R301").WithDetail("shutdown").Wrap(err)
	}
	return nil
}

// Close disconnects history clients, unbinds links and tears down the
// router tree.
func (s *Server) Close() {
	s.hub.Close()
	for _, b := range s.bindings {
		b.Close()
	}
	if err := s.root.Destroy(context.Background()); err != nil {
		s.logger.Warn("router teardown failed", "error", err)
	}
}

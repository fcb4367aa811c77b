// Package middleware provides navigation middleware for outlet router trees.
//
// This package includes:
//   - OpenTelemetry tracing of navigations
//   - Prometheus navigation and history metrics
//   - Structured navigation logging with log/slog
//
// Middleware is installed on the root router and wraps every navigation,
// whether it started from a URL or a pre-built instruction:
//
//	m := middleware.NewMetrics(middleware.WithNamespace("myapp"))
//	r := router.New(router.WithMiddleware(
//	    middleware.Logger(logger),
//	    middleware.OpenTelemetry(),
//	    m.Middleware(),
//	))
//
// # OpenTelemetry Middleware
//
// Every navigation gets a span. The span's context is passed down the
// chain, so CanActivate and CanDeactivate hooks receive it and any client
// calls they make inherit the trace:
//
//	middleware.OpenTelemetry(
//	    middleware.WithTracerName("my-app"),
//	    middleware.WithNavigationFilter(func(nav *router.Navigation) bool {
//	        return nav.URL != "/healthz"
//	    }),
//	)
//
// # Prometheus Metrics
//
// Metrics collected:
//   - outlet_navigations_total: navigations by route and status
//   - outlet_navigation_duration_seconds: navigation duration histogram
//   - outlet_navigation_errors_total: failures by error type
//   - outlet_active_depth: depth of the committed instruction
//   - outlet_history_clients: connected history clients
//   - outlet_history_messages_total: history messages by direction and type
//
// Expose them with promhttp:
//
//	http.Handle("/metrics", promhttp.Handler())
package middleware

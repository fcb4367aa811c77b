package middleware

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/outlet/pkg/router"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "outlet").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for navigation duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "outlet",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the navigation and history metrics of one router tree.
type Metrics struct {
	navigationsTotal   *prometheus.CounterVec
	navigationDuration *prometheus.HistogramVec
	navigationErrors   *prometheus.CounterVec
	activeDepth        prometheus.Gauge
	historyClients     prometheus.Gauge
	historyMessages    *prometheus.CounterVec
}

// NewMetrics registers the metrics with the configured registry. It panics
// if they are already registered there, like promauto.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		navigationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigations_total",
			Help:        "Total number of navigations by route and status",
			ConstLabels: config.ConstLabels,
		}, []string{"route", "status"}),

		navigationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigation_duration_seconds",
			Help:        "Navigation duration in seconds, hooks included",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"status"}),

		navigationErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigation_errors_total",
			Help:        "Total number of failed navigations by error type",
			ConstLabels: config.ConstLabels,
		}, []string{"error_type"}),

		activeDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_depth",
			Help:        "Number of levels in the last committed instruction",
			ConstLabels: config.ConstLabels,
		}),

		historyClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "history_clients",
			Help:        "Number of connected history clients",
			ConstLabels: config.ConstLabels,
		}),

		historyMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "history_messages_total",
			Help:        "Total history messages by direction and type",
			ConstLabels: config.ConstLabels,
		}, []string{"direction", "type"}),
	}
}

// Middleware returns navigation middleware that records into m.
//
// Metrics collected:
//   - outlet_navigations_total: Counter of navigations by route and status
//   - outlet_navigation_duration_seconds: Histogram of navigation duration
//   - outlet_navigation_errors_total: Counter of failures by error type
//   - outlet_active_depth: Gauge of the committed instruction depth
func (m *Metrics) Middleware() router.Middleware {
	return router.MiddlewareFunc(func(ctx context.Context, nav *router.Navigation, next func(context.Context) error) error {
		start := time.Now()
		err := next(ctx)
		status := statusOf(err)

		m.navigationDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
		m.navigationsTotal.WithLabelValues(routeLabel(nav), status).Inc()
		if err != nil {
			m.navigationErrors.WithLabelValues(categorizeError(err)).Inc()
		} else if nav.Target != nil {
			m.activeDepth.Set(float64(nav.Target.Depth()))
		}
		return err
	})
}

// ClientConnected records a history client connecting.
func (m *Metrics) ClientConnected() {
	m.historyClients.Inc()
}

// ClientDisconnected records a history client going away.
func (m *Metrics) ClientDisconnected() {
	m.historyClients.Dec()
}

// MessageReceived records an inbound history message.
func (m *Metrics) MessageReceived(kind string) {
	m.historyMessages.WithLabelValues("in", kind).Inc()
}

// MessageSent records an outbound history message.
func (m *Metrics) MessageSent(kind string) {
	m.historyMessages.WithLabelValues("out", kind).Inc()
}

var (
	globalMetrics   *Metrics
	globalMetricsMu sync.Mutex
)

// Prometheus returns navigation middleware backed by a process-wide Metrics
// created on first use. Options only apply to that first call.
//
// Example:
//
//	r := router.New(router.WithMiddleware(
//	    middleware.Prometheus(middleware.WithNamespace("myapp")),
//	))
//
//	// Expose metrics endpoint
//	http.Handle("/metrics", promhttp.Handler())
func Prometheus(opts ...MetricsOption) router.Middleware {
	return GetMetrics(opts...).Middleware()
}

// GetMetrics returns the process-wide Metrics, creating it on first call.
func GetMetrics(opts ...MetricsOption) *Metrics {
	globalMetricsMu.Lock()
	defer globalMetricsMu.Unlock()
	if globalMetrics == nil {
		globalMetrics = NewMetrics(opts...)
	}
	return globalMetrics
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, router.ErrSuperseded):
		return "superseded"
	case errors.Is(err, router.ErrNavigationAborted):
		return "aborted"
	case errors.Is(err, router.ErrRouteNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// categorizeError maps an error onto a fixed label set so error messages
// never become label values.
func categorizeError(err error) string {
	switch {
	case errors.Is(err, router.ErrStaleInstruction):
		return "stale_instruction"
	case errors.Is(err, router.ErrRouteNotFound):
		return "not_found"
	case errors.Is(err, router.ErrSuperseded):
		return "superseded"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, router.ErrNavigationAborted):
		return "aborted"
	case errors.Is(err, router.ErrUnknownComponent):
		return "unknown_component"
	case errors.Is(err, router.ErrRedirectLoop):
		return "redirect_loop"
	case errors.Is(err, router.ErrRouterDestroyed):
		return "destroyed"
	case errors.Is(err, router.ErrInvalidGuard):
		return "invalid_guard"
	default:
		return "internal"
	}
}

func routeLabel(nav *router.Navigation) string {
	if nav.Target == nil {
		return "unmatched"
	}
	leaf := nav.Target.Leaf()
	if name := leaf.Name(); name != "" {
		return name
	}
	return leaf.Component()
}

package middleware

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/outlet/pkg/router"
)

// Default tracer name for outlet router trees.
const defaultTracerName = "outlet"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "outlet").
	TracerName string

	// TracerProvider supplies the tracer. Defaults to the global provider.
	TracerProvider trace.TracerProvider

	// IncludeParams adds the target's params as attributes.
	// Params may carry user data, so this is disabled by default.
	IncludeParams bool

	// Filter determines which navigations to trace.
	// Return true to trace, false to skip. If nil, all are traced.
	Filter func(nav *router.Navigation) bool

	// AttributeExtractor adds custom attributes once the target is known.
	AttributeExtractor func(nav *router.Navigation) []attribute.KeyValue
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithIncludeParams enables recording target params in traces.
func WithIncludeParams(include bool) OTelOption {
	return func(c *OTelConfig) {
		c.IncludeParams = include
	}
}

// WithNavigationFilter sets a filter function for navigations.
func WithNavigationFilter(filter func(nav *router.Navigation) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(nav *router.Navigation) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// OpenTelemetry creates middleware that traces every navigation.
//
// Each navigation gets a span named after the requested URL. The span
// context is passed down the chain, so lifecycle hooks receive it in
// their ctx. Once the target is resolved, the route name, component and
// depth are attached; failures are recorded on the span.
//
// The tracer comes from the global provider unless WithTracerProvider is
// given. Configure it in main() before navigating:
//
//	otel.SetTracerProvider(tp)
//	r := router.New(router.WithMiddleware(middleware.OpenTelemetry()))
func OpenTelemetry(opts ...OTelOption) router.Middleware {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	tp := config.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	tracer := tp.Tracer(config.TracerName)

	return router.MiddlewareFunc(func(ctx context.Context, nav *router.Navigation, next func(context.Context) error) error {
		if config.Filter != nil && !config.Filter(nav) {
			return next(ctx)
		}

		spanCtx, span := tracer.Start(ctx, fmt.Sprintf("outlet.navigate %s", nav.URL),
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithTimestamp(nav.Start),
			trace.WithAttributes(
				attribute.String("outlet.url", nav.URL),
				attribute.Int64("outlet.navigation_id", int64(nav.ID)),
			),
		)
		defer span.End()

		err := next(spanCtx)

		if nav.Target != nil {
			span.SetAttributes(targetAttributes(nav.Target, config.IncludeParams)...)
		}
		if config.AttributeExtractor != nil {
			span.SetAttributes(config.AttributeExtractor(nav)...)
		}

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.SetAttributes(attribute.String("outlet.error_type", categorizeError(err)))
		} else {
			span.SetStatus(codes.Ok, "")
		}
		return err
	})
}

func targetAttributes(target *router.Instruction, params bool) []attribute.KeyValue {
	leaf := target.Leaf()
	attrs := []attribute.KeyValue{
		attribute.String("outlet.route", leaf.Name()),
		attribute.String("outlet.component", leaf.Component()),
		attribute.Int("outlet.depth", target.Depth()),
		attribute.String("outlet.target", target.URL()),
	}
	if params {
		all := target.AllParams()
		for _, k := range all.Keys() {
			attrs = append(attrs, attribute.String("outlet.param."+k, all[k]))
		}
	}
	return attrs
}

// SpanFromContext returns the navigation span carried by a hook's ctx.
//
//	func (c *Profile) CanDeactivate(ctx context.Context) (bool, error) {
//	    middleware.SpanFromContext(ctx).AddEvent("profile.unsaved_check")
//	    return !c.dirty, nil
//	}
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

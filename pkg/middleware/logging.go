package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vango-dev/outlet/pkg/router"
)

// Logger creates middleware that logs every navigation with its outcome
// and duration. Superseded navigations log at debug level, other failures
// at warn. A nil logger uses slog.Default().
func Logger(logger *slog.Logger) router.Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return router.MiddlewareFunc(func(ctx context.Context, nav *router.Navigation, next func(context.Context) error) error {
		err := next(ctx)

		attrs := []slog.Attr{
			slog.Uint64("id", nav.ID),
			slog.String("url", nav.URL),
			slog.Duration("duration", time.Since(nav.Start)),
		}
		if nav.Target != nil {
			attrs = append(attrs, slog.String("route", routeLabel(nav)))
		}

		switch {
		case err == nil:
			logger.LogAttrs(ctx, slog.LevelInfo, "navigation", attrs...)
		case errors.Is(err, router.ErrSuperseded):
			logger.LogAttrs(ctx, slog.LevelDebug, "navigation superseded", attrs...)
		default:
			attrs = append(attrs, slog.String("error_type", categorizeError(err)), slog.Any("error", err))
			logger.LogAttrs(ctx, slog.LevelWarn, "navigation failed", attrs...)
		}
		return err
	})
}

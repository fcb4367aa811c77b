package router

import (
	"errors"
	"fmt"

	oerrors "github.com/vango-dev/outlet/internal/errors"
)

// Routing errors. Every error returned by this package wraps one of these,
// so callers can branch with errors.Is.
var (
	// ErrNoMatch is the recognizer's failure: no config matched the URL.
	ErrNoMatch = errors.New("no match")

	// ErrRouteNotFound is reported by navigation when recognition fails.
	ErrRouteNotFound = errors.New("route not found")

	// ErrUnknownRouteName is returned by generation for an unregistered name.
	ErrUnknownRouteName = errors.New("unknown route name")

	// ErrMissingParam is returned by generation when a pattern parameter has no value.
	ErrMissingParam = errors.New("missing route parameter")

	// ErrUnknownParam is returned by generation for params no pattern consumes,
	// when extra params are rejected rather than appended as a query string.
	ErrUnknownParam = errors.New("unexpected route parameter")

	// ErrNavigationAborted is returned when a lifecycle hook vetoes a navigation
	// or a newer navigation supersedes it.
	ErrNavigationAborted = errors.New("navigation aborted")

	// ErrSuperseded marks navigations aborted because a newer one started.
	ErrSuperseded = errors.New("navigation superseded")

	// ErrConfigConflict is returned by Configure for invalid route configs.
	ErrConfigConflict = errors.New("route config conflict")

	// ErrStaleInstruction is returned for instructions built before the last Configure.
	ErrStaleInstruction = errors.New("stale instruction")

	// ErrUnknownComponent is returned when a matched config names an unregistered component.
	ErrUnknownComponent = errors.New("unknown component")

	// ErrRedirectLoop is returned when redirects do not settle.
	ErrRedirectLoop = errors.New("redirect loop")

	// ErrRouterDestroyed is returned for operations on a destroyed router.
	ErrRouterDestroyed = errors.New("router destroyed")

	// ErrInvalidURL is returned for URLs that fail canonicalization.
	ErrInvalidURL = errors.New("invalid url")

	// ErrInvalidGuard is returned for guard expressions that do not compile.
	ErrInvalidGuard = errors.New("invalid route guard")
)

func noMatch(url string) error {
	return oerrors.New("R100").WithDetailf("no route matches %q", url).Wrap(ErrNoMatch)
}

func routeNotFound(url string, cause error) error {
	return oerrors.New("R101").
		WithDetailf("no route matches %q", url).
		Wrap(fmt.Errorf("%w: %w", ErrRouteNotFound, cause))
}

func aborted(reason string) error {
	return oerrors.New("R102").WithDetail(reason).Wrap(ErrNavigationAborted)
}

func superseded() error {
	return oerrors.New("R102").
		WithDetail("a newer navigation started").
		Wrap(fmt.Errorf("%w: %w", ErrNavigationAborted, ErrSuperseded))
}

func canceled(cause error) error {
	return oerrors.New("R102").
		WithDetail("navigation context canceled").
		Wrap(fmt.Errorf("%w: %w", ErrNavigationAborted, cause))
}

func unknownComponent(ref string) error {
	return oerrors.New("R103").WithDetailf("component %q is not registered", ref).Wrap(ErrUnknownComponent)
}

func staleInstruction() error {
	return oerrors.New("R104").
		WithDetail("instruction was built before the router was reconfigured").
		Wrap(fmt.Errorf("%w: %w", ErrRouteNotFound, ErrStaleInstruction))
}

func redirectLoop(url string) error {
	return oerrors.New("R105").WithDetailf("redirects starting at %q did not settle", url).Wrap(ErrRedirectLoop)
}

func routerDestroyed() error {
	return oerrors.New("R106").Wrap(ErrRouterDestroyed)
}

func invalidURL(url string, cause error) error {
	return oerrors.New("R107").WithDetailf("%q", url).Wrap(fmt.Errorf("%w: %w", ErrInvalidURL, cause))
}

func hookFailed(stage string, err error) error {
	return oerrors.New("R108").WithDetail(stage).Wrap(err)
}

func unknownRouteName(name string) error {
	return oerrors.New("R150").WithDetailf("no route named %q", name).Wrap(ErrUnknownRouteName)
}

func missingParam(name, param string) error {
	return oerrors.New("R151").WithDetailf("route %q needs param %q", name, param).Wrap(ErrMissingParam)
}

func unknownParam(name string, params []string) error {
	return oerrors.New("R152").WithDetailf("route %q does not use params %v", name, params).Wrap(ErrUnknownParam)
}

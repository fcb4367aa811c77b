// Package errors provides coded, actionable errors for outlet.
//
// Every error carries a code (e.g., "R101") registered with a category,
// a short message and a longer explanation. Routing packages wrap their
// sentinel errors in a coded error so callers can still use errors.Is,
// while the CLI prints the formatted form.
//
// # Error Categories
//
//   - routing: recognition and navigation failures
//   - generation: URL generation failures for named routes
//   - config: route configuration and outlet.json problems
//   - cli: command line usage errors
//
// # Usage
//
//	err := errors.New("R101").
//	    WithDetail(`no route matches "/missing"`).
//	    Wrap(router.ErrRouteNotFound)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR R101: Route not found
//	//
//	//   no route matches "/missing"
//	//
//	//   Hint: ...
package errors

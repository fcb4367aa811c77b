// Package router implements component routing for outlet.
//
// The router provides:
//   - Declarative, nested route configs with names and parameters
//   - A Recognizer that turns URLs into navigation instructions
//   - URL generation from route names and parameters
//   - A tree of routers, one per outlet, that activates and deactivates
//     components as instructions change
//   - Lifecycle hooks (CanActivate, CanDeactivate) with all-or-nothing vetoes
//
// # Route Configs
//
// Routes are registered as an ordered list per router level. The first
// config whose pattern matches wins:
//
//	r := router.New(router.WithOutlet(outlet), router.WithRegistry(registry))
//	err := r.Configure([]*router.RouteConfig{
//	    {Path: "/", Component: "home", Name: "Home"},
//	    {Path: "/users/:id", Component: "user", Name: "User", Children: []*router.RouteConfig{
//	        {Path: "/", Component: "userOverview", Name: "Overview"},
//	        {Path: "/posts/:post", Component: "userPost", Name: "Post"},
//	    }},
//	})
//
// # Patterns
//
//	/users         literal segment
//	/users/:id     parameter, any single segment
//	/users/:id:int parameter constrained to integers (int, uint, uuid, string)
//
// # Navigation
//
//	err := r.NavigateByURL(ctx, "/users/42/posts/7")
//	switch {
//	case errors.Is(err, router.ErrRouteNotFound):
//	    // nothing matched; the current view is unchanged
//	case errors.Is(err, router.ErrNavigationAborted):
//	    // a lifecycle hook vetoed; the current view is unchanged
//	}
//
// Navigating from /users/42/posts/7 to /users/42/posts/8 only replaces the
// post component; the user component at the shared level is kept.
//
// # URL Generation
//
//	instr, err := r.Generate([]router.Step{{Name: "User", Params: router.Params{"id": "42"}}})
//	url := instr.URL() // "/users/42"
package router

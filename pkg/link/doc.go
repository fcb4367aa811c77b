// Package link resolves router link targets into hrefs and keeps anchors
// in sync with navigation.
//
// A target names routes rather than URLs:
//
//	node, b := link.A(r, []any{"/User", router.Params{"id": "7"}}, "Profile")
//	defer b.Close()
//
// The href is regenerated and the active class toggled after every
// navigation. Primary-button clicks without modifier keys navigate the
// router tree in place; every other click falls through to the browser.
package link

// Package server exposes a router tree over HTTP.
//
// The server owns one root router. GET requests for application URLs
// navigate it and return the rendered page; the JSON API recognizes,
// generates and navigates without HTML; /ws keeps browser history in step
// through package history; /metrics serves Prometheus metrics.
//
//	GET  /api/routes              route config tree
//	GET  /api/recognize?url=/a/b  instruction for a URL, no navigation
//	POST /api/generate            {"target": ["/User", {"id": "7"}]}
//	POST /api/navigate            {"url": "/users/7"}
//	GET  /api/state               current instruction
//	GET  /healthz
//	GET  /metrics
//	GET  /ws
//	GET  /*                       navigate and render
package server

// Package history keeps browser history and a router tree in step over a
// WebSocket.
//
// The client reports URL changes (back/forward, manual edits) and the hub
// navigates the root router. Whenever the root commits a navigation,
// whatever started it, the hub pushes the canonical URL to every client so
// they can update their location bar.
//
// Wire messages are JSON objects:
//
//	client -> hub   {"type":"url","url":"/users/7"}
//	hub -> client   {"type":"ack","url":"/users/7"}
//	hub -> client   {"type":"error","url":"/nope","code":"R101","error":"..."}
//	hub -> client   {"type":"push","url":"/users/7"}
package history

// Package server implements a stub platform server for local development.
//
// The stub serves the same HTTP surface the settings panel talks to in
// production: the account record endpoint (GET and JSON merge patch), the
// locale switch, social auth disconnect, and password reset. State lives in
// memory and is seeded with a realistic learner account, so the panel can be
// exercised end to end without a real platform.
//
// Every state change is broadcast as a JSON event over the /ws/events
// WebSocket feed, which is useful for watching what the panel actually
// persists. The server can optionally advertise itself over mDNS so
// `campusctl scan` finds it.
package server

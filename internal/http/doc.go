// Package http exposes the scheduling core as a JSON API for the kiosk and
// admin panel. Handlers are thin adapters: they decode requests, call the
// orchestrator, and render the uniform response envelope. All scheduling
// decisions live in the core packages.
package http

// Package http provides the ops REST API of the web runtime.
//
// The ops API is for operators and tooling, never for hosted content. It
// exposes the catalog, the running instances and a diagnostic path into each
// instance's bridge and script context.
//
// Endpoints:
//   - Health: / and /health
//   - Catalog: GET /catalog, GET /catalog/:appId, POST /catalog/rescan,
//     POST /catalog/:appId/launch
//   - Instances: GET /instances, GET /instances/:id, DELETE /instances/:id
//   - Bridge: POST /instances/:id/call
//   - Inspector: POST /instances/:id/eval (inspectable applications only)
//
// A bridge call made through the ops API gets the same opaque response a
// hosted page would: a rejected call is {"ok": false} whatever the reason.
//
// Example Usage:
//
//	handlers := http.NewHandlers(manager, catalog, metrics, tracer, logger)
//	router.GET("/health", handlers.Health)
//	router.POST("/instances/:id/call", handlers.CallInstance)
package http

// Package server assembles the web runtime and its ops API.
//
// This package wires every component together:
//   - Host adapter (device properties, per-app state, container readiness)
//   - Catalog of installed applications, scanned at startup
//   - Instance manager with one bridge and script context per instance
//   - Gin router with recovery, tracing, metrics, CORS and rate limiting
//
// Server Lifecycle:
//  1. Load configuration from environment/flags
//  2. Initialize logger (production or development)
//  3. Create host adapter and scan the install root
//  4. Launch the container application when one is configured
//  5. Setup HTTP routes and middleware
//  6. Start HTTP server
//  7. Graceful shutdown on signal
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.NewServer(cfg)
//	go srv.Run()
//	defer srv.Shutdown(ctx)
package server

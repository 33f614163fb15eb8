// Package main is the entry point for the web application runtime.
//
// The runtime scans an install root for application descriptors, launches
// applications on request and gives every running instance a capability
// bridge gated by the application's trust level.
//
// The server provides:
//   - Ops REST API for the catalog and running instances
//   - Diagnostic bridge calls and script evaluation
//   - Prometheus metrics and health checks
//   - Rate limiting and CORS
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	./server -port 8000 -apps /usr/share/apps -container com.example.home
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main

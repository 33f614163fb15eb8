// Package config provides 12-factor configuration management for the web runtime.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Server: ops HTTP server settings (port, host)
//   - Runtime: install root, container app, system language, device properties
//   - Sandbox: script context timeout and console capture
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//   - Cache: manifest cache size
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Serving %s on %s:%s\n", cfg.Runtime.AppsDir, cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST
//   - APPS_DIR, CONTAINER_APP_ID, SYSTEM_LANGUAGE, DEVICE_INFO_PATH, LOCALE_REGION
//   - SANDBOX_TIMEOUT, SANDBOX_CONSOLE
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - MANIFEST_CACHE_SIZE
package config

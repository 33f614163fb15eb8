/*
Package monitoring provides Prometheus metrics for the runtime.

# Overview

Metrics tracks bridge traffic, descriptor parsing, the catalog, running
instances and the ops HTTP server. Metrics satisfies bridge.Recorder, so it
can be handed straight to every bridge the runtime creates.

# Features

- Bridge calls by capability and outcome, call latency, trust denials
- Descriptor parses by result
- Catalog size and scan timing
- Instance lifecycle (active, launched, relaunched)
- Ops HTTP request metrics (latency, throughput, size)
- Uptime

# Usage

	metrics := monitoring.NewMetrics()
	defer metrics.Close()

	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	b := bridge.New(m, host, bridge.WithMetrics(metrics))

	timer := monitoring.NewTimer(metrics, "catalog", "scan")
	// ... perform operation ...
	timer.Stop("success")

Tests should use NewRegistryMetrics so each test gets its own registry.
*/
package monitoring

/*
Package tracing provides lightweight request tracing for the ops server.

# Overview

Each ops request gets a span; handlers open child spans around bridge calls
and script evaluation. Finished spans are written to the structured log by a
background collector, so a trace id in a response header leads straight to
the matching log lines.

# Usage

	tracer := tracing.New("webruntime", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	err := tracer.Trace(ctx, "bridge.call", func(ctx context.Context, span *tracing.Span) error {
		span.SetTag("capability", method)
		return nil
	})

# Trace Format

Traces use HTTP headers for propagation:
  - X-Trace-ID: Unique identifier for entire request flow
  - X-Span-ID: Identifier for current operation

Spans are buffered (1000) and dropped rather than blocking when the buffer is
full.
*/
package tracing

/*
Package tracing provides lightweight request tracing.

# Overview

A trace follows one browser action from the HTTP request through the build
submission to the remote builder. Spans are collected asynchronously and
written to the structured log; there is no external exporter.

# Usage

	tracer := tracing.New("rnpad", logger)
	defer tracer.Close()

	// HTTP middleware
	router.Use(tracing.HTTPMiddleware(tracer))

	// Manual span creation
	span, ctx := tracer.StartSpan(ctx, "builder.submit")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()

	// Outbound propagation
	tracing.Inject(ctx, req.Header)

# Trace Format

Context travels in two headers:
  - X-Trace-ID: identifier for the whole request flow
  - X-Span-ID: identifier for the calling operation

# Performance

Spans go through a buffered channel (1000 spans). When the buffer is full the
span is dropped with a warning rather than blocking the request.
*/
package tracing

/*
Package tracing provides lightweight request tracing.

Every HTTP request gets a span. The trace id is taken from the X-Trace-ID
header when the caller sends one and generated otherwise, and it is echoed
back in the response headers. Domain code reads it with GetTraceID to tag its
logs, so one request can be followed through the handler, the VFS service and
the identity store.

# Usage

	tracer := tracing.New("xos-vfs", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	logger.Info("file written", tracing.Field(ctx))

Finished spans are logged at debug level by a collector goroutine, or at
warn level when the request failed. A full buffer drops spans instead of
blocking the request.
*/
package tracing

package tracing

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxInboundID bounds caller-supplied trace and span ids
const maxInboundID = 128

// HTTPMiddleware opens a span per request. A well-formed X-Trace-ID from the
// caller is continued; anything else starts a new trace.
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := WithTrace(c.Request.Context(),
			TraceID(inboundID(c.GetHeader(TraceHeader))),
			SpanID(inboundID(c.GetHeader(SpanHeader))),
		)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		span, ctx := tracer.StartSpan(ctx, c.Request.Method+" "+route)
		c.Request = c.Request.WithContext(ctx)
		c.Header(TraceHeader, span.TraceID.String())
		c.Header(SpanHeader, string(span.SpanID))

		c.Next()

		span.Annotate(zap.String("path", c.Request.URL.Path))
		var err error
		if len(c.Errors) > 0 {
			err = c.Errors.Last()
		}
		span.End(c.Writer.Status(), err)
		tracer.Submit(span)
	}
}

// inboundID returns v when it is a short printable ASCII token, else ""
func inboundID(v string) string {
	if v == "" || len(v) > maxInboundID {
		return ""
	}
	for i := 0; i < len(v); i++ {
		if v[i] <= ' ' || v[i] > '~' {
			return ""
		}
	}
	return v
}

package tracing

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/yasakei/xos/internal/shared/id"
)

// Propagation headers
const (
	TraceHeader = "X-Trace-ID"
	SpanHeader  = "X-Span-ID"
)

// spanBuffer bounds the finished spans waiting for the collector
const spanBuffer = 1024

// TraceID identifies one request across client and server
type TraceID string

func (t TraceID) String() string { return string(t) }

// SpanID identifies one traced operation
type SpanID string

// Span is one timed operation within a trace
type Span struct {
	TraceID  TraceID
	SpanID   SpanID
	ParentID SpanID
	Name     string
	Start    time.Time
	Duration time.Duration
	Status   int
	Err      error

	attrs []zap.Field
}

// Annotate attaches log fields reported when the span completes
func (s *Span) Annotate(fields ...zap.Field) {
	s.attrs = append(s.attrs, fields...)
}

// End stops the clock and records the outcome
func (s *Span) End(status int, err error) {
	s.Duration = time.Since(s.Start)
	s.Status = status
	s.Err = err
}

// Tracer reports finished spans through the logger on its own goroutine
type Tracer struct {
	service string
	logger  *zap.Logger
	spans   chan *Span
	done    chan struct{}
	dropped atomic.Uint64

	mu     sync.RWMutex
	closed bool
}

// New creates a tracer and starts its collector. Call Close to stop it.
func New(service string, logger *zap.Logger) *Tracer {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tracer{
		service: service,
		logger:  logger.Named("trace"),
		spans:   make(chan *Span, spanBuffer),
		done:    make(chan struct{}),
	}
	go t.collect()
	return t
}

// StartSpan opens a span, continuing the trace carried by ctx if there is
// one. The returned context carries the new span.
func (t *Tracer) StartSpan(ctx context.Context, name string) (*Span, context.Context) {
	parent := fromContext(ctx)

	traceID := parent.trace
	if traceID == "" {
		traceID = TraceID(id.NewTraceID())
	}
	span := &Span{
		TraceID:  traceID,
		SpanID:   SpanID(id.NewSpanID()),
		ParentID: parent.span,
		Name:     name,
		Start:    time.Now(),
	}
	return span, WithTrace(ctx, span.TraceID, span.SpanID)
}

// Submit hands a finished span to the collector. A full buffer or a closed
// tracer drops it.
func (t *Tracer) Submit(span *Span) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		t.dropped.Add(1)
		return
	}
	select {
	case t.spans <- span:
	default:
		if t.dropped.Add(1) == 1 {
			t.logger.Warn("Span buffer full, dropping spans", zap.String("trace_id", span.TraceID.String()))
		}
	}
}

// Dropped returns how many spans were lost to a full buffer
func (t *Tracer) Dropped() uint64 {
	return t.dropped.Load()
}

// Close drains buffered spans and stops the collector. Spans submitted
// afterwards are dropped.
func (t *Tracer) Close() {
	t.mu.Lock()
	if !t.closed {
		t.closed = true
		close(t.spans)
	}
	t.mu.Unlock()
	<-t.done
}

func (t *Tracer) collect() {
	defer close(t.done)
	for span := range t.spans {
		t.report(span)
	}
}

func (t *Tracer) report(span *Span) {
	fields := make([]zap.Field, 0, 7+len(span.attrs))
	fields = append(fields,
		zap.String("service", t.service),
		zap.String("trace_id", span.TraceID.String()),
		zap.String("span_id", string(span.SpanID)),
		zap.String("span", span.Name),
		zap.Duration("duration", span.Duration),
		zap.Int("status", span.Status),
	)
	if span.ParentID != "" {
		fields = append(fields, zap.String("parent_id", string(span.ParentID)))
	}
	fields = append(fields, span.attrs...)

	if span.Err != nil || span.Status >= 500 {
		t.logger.Warn("Span failed", append(fields, zap.Error(span.Err))...)
		return
	}
	t.logger.Debug("Span finished", fields...)
}

type spanContext struct {
	trace TraceID
	span  SpanID
}

type spanContextKey struct{}

func fromContext(ctx context.Context) spanContext {
	if ctx == nil {
		return spanContext{}
	}
	sc, _ := ctx.Value(spanContextKey{}).(spanContext)
	return sc
}

// WithTrace returns ctx carrying the given ids. Empty ids keep the ones
// already in ctx.
func WithTrace(ctx context.Context, traceID TraceID, spanID SpanID) context.Context {
	sc := fromContext(ctx)
	if traceID != "" {
		sc.trace = traceID
	}
	if spanID != "" {
		sc.span = spanID
	}
	return context.WithValue(ctx, spanContextKey{}, sc)
}

// GetTraceID returns the trace id carried by ctx, or ""
func GetTraceID(ctx context.Context) TraceID {
	return fromContext(ctx).trace
}

// GetSpanID returns the span id carried by ctx, or ""
func GetSpanID(ctx context.Context) SpanID {
	return fromContext(ctx).span
}

// Field tags request-scoped logs with the trace id
func Field(ctx context.Context) zap.Field {
	return zap.String("trace_id", GetTraceID(ctx).String())
}

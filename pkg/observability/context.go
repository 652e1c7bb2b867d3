package observability

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Standard attribute keys used in logs and metrics.
const (
	CorrelationIDKey = "correlation_id"
	RequestIDKey     = "request_id"
	SourceKey        = "source"
	OperationKey     = "operation"
	DurationKey      = "duration_ms"
	ErrorKey         = "error"
	StatusKey        = "status"
)

// Header names carrying request tracing ids over HTTP.
const (
	CorrelationIDHeader = "X-Correlation-ID"
	RequestIDHeader     = "X-Request-ID"
)

// Trace is the tracing data carried through a call: which adapter started
// it and the ids tying its log lines and events together.
type Trace struct {
	CorrelationID string
	RequestID     string
	Source        string
}

type traceKey struct{}

// TraceFromContext returns the trace stored in ctx, or the zero Trace.
func TraceFromContext(ctx context.Context) Trace {
	if ctx == nil {
		return Trace{}
	}
	t, _ := ctx.Value(traceKey{}).(Trace)
	return t
}

// ContextWithTrace replaces the trace stored in ctx.
func ContextWithTrace(ctx context.Context, t Trace) context.Context {
	return context.WithValue(ctx, traceKey{}, t)
}

func updateTrace(ctx context.Context, update func(*Trace)) context.Context {
	t := TraceFromContext(ctx)
	update(&t)
	return ContextWithTrace(ctx, t)
}

func orNewID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

// WithCorrelationID sets the correlation id, generating one when id is empty.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return updateTrace(ctx, func(t *Trace) { t.CorrelationID = orNewID(id) })
}

// WithRequestID sets the request id, generating one when id is empty.
func WithRequestID(ctx context.Context, id string) context.Context {
	return updateTrace(ctx, func(t *Trace) { t.RequestID = orNewID(id) })
}

// WithSource records which adapter (api, mcp, cli, worker) drives the call.
func WithSource(ctx context.Context, source string) context.Context {
	return updateTrace(ctx, func(t *Trace) { t.Source = source })
}

func CorrelationIDFromContext(ctx context.Context) string { return TraceFromContext(ctx).CorrelationID }
func RequestIDFromContext(ctx context.Context) string     { return TraceFromContext(ctx).RequestID }
func SourceFromContext(ctx context.Context) string        { return TraceFromContext(ctx).Source }

// NewRequestContext starts a request: a fresh request id, and the caller's
// correlation id when it sent one.
func NewRequestContext(ctx context.Context, parentCorrelationID string) context.Context {
	return updateTrace(ctx, func(t *Trace) {
		t.RequestID = uuid.NewString()
		t.CorrelationID = orNewID(parentCorrelationID)
	})
}

// attrs returns the non-empty trace fields as log attributes.
func (t Trace) attrs() []slog.Attr {
	out := make([]slog.Attr, 0, 3)
	if t.CorrelationID != "" {
		out = append(out, slog.String(CorrelationIDKey, t.CorrelationID))
	}
	if t.RequestID != "" {
		out = append(out, slog.String(RequestIDKey, t.RequestID))
	}
	if t.Source != "" {
		out = append(out, slog.String(SourceKey, t.Source))
	}
	return out
}

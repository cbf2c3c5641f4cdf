// Package tracing times nested operations through context-carried spans.
// A finished root span logs its whole tree through slog.
package tracing

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"
)

type contextKey string

const spanKey contextKey = "trace_span"

type Span struct {
	Name      string
	TraceID   string
	StartTime time.Time
	Duration  time.Duration
	Children  []*Span
	Attrs     map[string]any
	root      bool
	mu        sync.Mutex
}

// Tracer starts spans and logs finished traces when enabled. A nil Tracer
// still hands out spans but never logs.
type Tracer struct {
	enabled bool
	logger  *slog.Logger
}

func NewTracer(enabled bool) *Tracer {
	return &Tracer{
		enabled: enabled,
		logger:  slog.Default().With("component", "tracing"),
	}
}

// Start opens a span under the one in ctx, or a new trace if there is none.
func (t *Tracer) Start(ctx context.Context, name string) (context.Context, *Span) {
	span := &Span{
		Name:      name,
		StartTime: time.Now(),
		Attrs:     make(map[string]any),
	}
	if parent := SpanFromContext(ctx); parent != nil {
		span.TraceID = parent.TraceID
		parent.mu.Lock()
		parent.Children = append(parent.Children, span)
		parent.mu.Unlock()
	} else {
		span.TraceID = newTraceID()
		span.root = true
	}
	return context.WithValue(ctx, spanKey, span), span
}

// Finish ends s; finishing a root span logs the trace.
func (t *Tracer) Finish(s *Span) {
	s.End()
	if t == nil || !t.enabled || !s.root {
		return
	}
	s.log(t.logger, 0)
}

func (s *Span) End() {
	s.mu.Lock()
	s.Duration = time.Since(s.StartTime)
	s.mu.Unlock()
}

func (s *Span) SetAttr(key string, value any) {
	s.mu.Lock()
	s.Attrs[key] = value
	s.mu.Unlock()
}

func SpanFromContext(ctx context.Context) *Span {
	if span, ok := ctx.Value(spanKey).(*Span); ok {
		return span
	}
	return nil
}

func (s *Span) log(logger *slog.Logger, depth int) {
	s.mu.Lock()
	attrs := []any{
		"trace_id", s.TraceID,
		"span", s.Name,
		"duration_ms", s.Duration.Milliseconds(),
		"depth", depth,
	}
	for k, v := range s.Attrs {
		attrs = append(attrs, k, v)
	}
	children := append([]*Span(nil), s.Children...)
	s.mu.Unlock()

	logger.Debug("span", attrs...)
	for _, child := range children {
		child.log(logger, depth+1)
	}
}

func newTraceID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

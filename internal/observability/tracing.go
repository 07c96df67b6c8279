package observability

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/cargo-vitasdk/internal/logfields"
)

// Span times one unit of work and logs its end at debug level.
type Span struct {
	ctx       context.Context
	name      string
	startTime time.Time
	err       error
}

// StartSpan begins a span named name; ctx supplies the log attributes.
func StartSpan(ctx context.Context, name string) *Span {
	DebugContext(ctx, "Span started", slog.String("span", name))
	return &Span{ctx: ctx, name: name, startTime: time.Now()}
}

// RecordError remembers err so End reports the span as failed.
func (s *Span) RecordError(err error) {
	if s != nil && err != nil {
		s.err = err
	}
}

// End ends the span and returns its duration.
func (s *Span) End() time.Duration {
	if s == nil {
		return 0
	}
	d := time.Since(s.startTime)
	attrs := []slog.Attr{
		slog.String("span", s.name),
		logfields.DurationMS(float64(d.Microseconds()) / 1000),
	}
	if s.err != nil {
		attrs = append(attrs, logfields.Error(s.err))
	}
	DebugContext(s.ctx, "Span ended", attrs...)
	return d
}

package log

import (
	"context"
	"strconv"

	"go.uber.org/zap"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

// WithDD returns base enriched with extra and, when ctx carries a Datadog
// span, the dd.trace_id / dd.span_id correlation fields (as decimal strings).
func WithDD(ctx context.Context, base *zap.Logger, extra ...zap.Field) *zap.Logger {
	if sp, ok := tracer.SpanFromContext(ctx); ok && sp != nil {
		sc := sp.Context()
		extra = append(extra,
			zap.String("dd.trace_id", strconv.FormatUint(sc.TraceID(), 10)),
			zap.String("dd.span_id", strconv.FormatUint(sc.SpanID(), 10)),
		)
	}
	return base.With(extra...)
}

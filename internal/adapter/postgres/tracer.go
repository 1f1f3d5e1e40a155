package postgres

import (
	"context"
	"time"

	"github.com/abouzarnameh/bombbase-api/internal/adapter/metrics"
	"github.com/jackc/pgx/v5"
)

// queryTracer implements pgx.QueryTracer to collect database metrics.
type queryTracer struct {
	metrics *metrics.DBMetrics
}

var _ pgx.QueryTracer = (*queryTracer)(nil)

type queryCtxKey struct{}

type queryStart struct {
	at  time.Time
	sql string
}

func (t *queryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryCtxKey{}, queryStart{at: time.Now(), sql: data.SQL})
}

func (t *queryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(queryCtxKey{}).(queryStart)
	if !ok {
		return
	}
	t.metrics.Observe(start.sql, time.Since(start.at).Seconds(), data.Err)
}

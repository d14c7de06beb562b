package database

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// maxLoggedSQL caps the statement text written to slow query logs.
const maxLoggedSQL = 300

type queryStartKey struct{}

type queryStart struct {
	sql   string
	start time.Time
}

// slowQueryTracer logs statements that take longer than threshold, and failed
// statements at debug level. Arguments are never logged.
type slowQueryTracer struct {
	threshold time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

var _ pgx.QueryTracer = (*slowQueryTracer)(nil)

func newSlowQueryTracer(threshold time.Duration, logger zerolog.Logger) *slowQueryTracer {
	return &slowQueryTracer{
		threshold: threshold,
		logger:    logger.With().Str("component", "database").Logger(),
		now:       time.Now,
	}
}

func (t *slowQueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryStartKey{}, queryStart{sql: data.SQL, start: t.now()})
}

func (t *slowQueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	qs, ok := ctx.Value(queryStartKey{}).(queryStart)
	if !ok {
		return
	}
	elapsed := t.now().Sub(qs.start)

	switch {
	case data.Err != nil:
		t.logger.Debug().
			Err(data.Err).
			Str("sql", compactSQL(qs.sql)).
			Dur("duration", elapsed).
			Msg("query failed")
	case elapsed >= t.threshold:
		t.logger.Warn().
			Str("sql", compactSQL(qs.sql)).
			Dur("duration", elapsed).
			Int64("rows", data.CommandTag.RowsAffected()).
			Msg("slow query")
	}
}

// compactSQL collapses whitespace and truncates long statements.
func compactSQL(sql string) string {
	sql = strings.Join(strings.Fields(sql), " ")
	if len(sql) > maxLoggedSQL {
		return sql[:maxLoggedSQL] + "..."
	}
	return sql
}

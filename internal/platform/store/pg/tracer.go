package pg

import (
	"context"
	"errors"
	"strings"

	"opengov/internal/platform/logger"

	"github.com/jackc/pgx/v5"
)

// QueryEvent is one statement round trip as seen by the store adapter
type QueryEvent struct {
	SQL       string
	Args      any
	ElapsedUS int64
	Err       error
	Slow      bool
}

// QueryTracer receives an event per statement
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// Tracer logs statements under component=pg. Statements issued inside a
// reconciliation pass carry its pass_id so SQL can be lined up with the pass log.
// Slow statements go to warn and failures to error; pgx.ErrNoRows is not a failure.
func Tracer(root logger.Logger) QueryTracer {
	return sqlLog{log: root.With().Str("component", "pg").Logger()}
}

type sqlLog struct{ log logger.Logger }

func (s sqlLog) OnQuery(ctx context.Context, ev QueryEvent) {
	log := s.log
	if id := logger.PassID(ctx); id != "" {
		log = log.With().Str("pass_id", id).Logger()
	}

	failed := ev.Err != nil && !errors.Is(ev.Err, pgx.ErrNoRows)
	evt := log.Debug()
	switch {
	case failed:
		evt = log.Error().Err(ev.Err)
	case ev.Slow:
		evt = log.Warn()
	}
	evt.Str("sql", oneLine(ev.SQL)).
		Interface("args", ev.Args).
		Float64("ms", float64(ev.ElapsedUS)/1000).
		Bool("slow", ev.Slow).
		Msg("sql")
}

func oneLine(sql string) string { return strings.Join(strings.Fields(sql), " ") }

package pg

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"opengov/internal/platform/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

func TestOpen_BadURL(t *testing.T) {
	if _, err := Open(context.Background(), Config{URL: "://nope"}, nil, nil); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestOpen_AppliesConfig(t *testing.T) {
	var seen *pgxpool.Config
	orig := newPool
	newPool = func(_ context.Context, c *pgxpool.Config) (*pgxpool.Pool, error) {
		seen = c
		return nil, errors.New("no server in unit tests")
	}
	t.Cleanup(func() { newPool = orig })

	mutated := false
	_, err := Open(context.Background(), Config{
		URL:      "postgres://u:p@localhost:5432/db",
		AppName:  "opengov",
		MaxConns: 7,
	}, nil, func(*pgxpool.Config) { mutated = true })
	if err == nil {
		t.Fatal("expected pool error")
	}
	if seen == nil || seen.MaxConns != 7 || !mutated {
		t.Fatalf("config not applied: %+v mutated=%v", seen, mutated)
	}
	if seen.ConnConfig.RuntimeParams["application_name"] != "opengov" {
		t.Fatalf("application_name = %q", seen.ConnConfig.RuntimeParams["application_name"])
	}
}

func TestTracer_Levels(t *testing.T) {
	var buf bytes.Buffer
	tr := Tracer(zerolog.New(&buf).Level(zerolog.WarnLevel))
	ctx := logger.WithPass(context.Background(), "pass-7")

	tr.OnQuery(ctx, QueryEvent{SQL: "SELECT id\n\t FROM divisions\n WHERE division_id=$1", Args: []any{101}, ElapsedUS: 1500})
	tr.OnQuery(ctx, QueryEvent{SQL: "SELECT 1", Err: pgx.ErrNoRows})
	if buf.Len() != 0 {
		t.Fatalf("fast and no-rows statements should stay below warn: %s", buf.String())
	}

	tr.OnQuery(ctx, QueryEvent{SQL: "SELECT pg_sleep(1)", ElapsedUS: 1_000_000, Slow: true})
	tr.OnQuery(ctx, QueryEvent{SQL: "INSERT INTO divisions\n VALUES ($1)", Err: errors.New("duplicate key")})

	out := buf.String()
	for _, want := range []string{`"level":"warn"`, `"level":"error"`, `"pass_id":"pass-7"`, `"sql":"INSERT INTO divisions VALUES ($1)"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %s in %s", want, out)
		}
	}
}

func TestClose_Nil(t *testing.T) {
	var p *PG
	p.Close()
}

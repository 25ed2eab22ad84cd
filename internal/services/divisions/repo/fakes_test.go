package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"opengov/internal/modkit/repokit"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type tag int64

func (t tag) String() string      { return fmt.Sprintf("INSERT 0 %d", int64(t)) }
func (t tag) RowsAffected() int64 { return int64(t) }

type row struct {
	vals []any
	err  error
}

func (r row) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.vals) {
		return fmt.Errorf("scan: %d dest for %d values", len(dest), len(r.vals))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *int:
			*p = r.vals[i].(int)
		case *int64:
			*p = r.vals[i].(int64)
		case *string:
			*p = r.vals[i].(string)
		case **string:
			if r.vals[i] == nil {
				*p = nil
			} else {
				s := r.vals[i].(string)
				*p = &s
			}
		default:
			return fmt.Errorf("scan: unsupported dest %T", d)
		}
	}
	return nil
}

type rows struct {
	data [][]any
	i    int
}

func (r *rows) Next() bool             { r.i++; return r.i <= len(r.data) }
func (r *rows) Scan(dest ...any) error { return row{vals: r.data[r.i-1]}.Scan(dest...) }
func (r *rows) Err() error             { return nil }
func (r *rows) Close()                 {}

// memDB interprets the handful of statements the repo issues against two maps
type memDB struct {
	nextID  int64
	threads map[int]int64
	ids     map[int]int64
	seen    map[int]string
	err     error
}

func newMemDB() *memDB {
	return &memDB{threads: map[int]int64{}, ids: map[int]int64{}, seen: map[int]string{}}
}

var _ repokit.Queryer = (*memDB)(nil)

func (m *memDB) Exec(_ context.Context, sql string, args ...any) (repokit.CommandTag, error) {
	if m.err != nil {
		return tag(0), m.err
	}
	if strings.Contains(sql, "INSERT INTO division_updates") {
		id := args[0].(int)
		if _, ok := m.threads[id]; !ok {
			return tag(0), &pgconn.PgError{Code: "23503", Message: "violates foreign key constraint"}
		}
		m.seen[id] = args[1].(string)
		return tag(1), nil
	}
	return tag(0), errors.New("memdb: unexpected exec")
}

func (m *memDB) Query(_ context.Context, sql string, args ...any) (repokit.Rows, error) {
	if m.err != nil {
		return nil, m.err
	}
	id := args[0].(int)
	thread, ok := m.threads[id]
	if !ok {
		return &rows{}, nil
	}
	switch {
	case strings.Contains(sql, "LEFT JOIN division_updates"):
		var marker any
		if s, ok := m.seen[id]; ok {
			marker = s
		}
		return &rows{data: [][]any{{id, thread, marker}}}, nil
	case strings.Contains(sql, "FROM divisions"):
		return &rows{data: [][]any{{m.ids[id], id, thread}}}, nil
	}
	return nil, errors.New("memdb: unexpected query")
}

func (m *memDB) QueryRow(_ context.Context, sql string, args ...any) repokit.Row {
	if m.err != nil {
		return row{err: m.err}
	}
	switch {
	case strings.Contains(sql, "INSERT INTO divisions"):
		id := args[0].(int)
		if _, dup := m.threads[id]; dup {
			return row{err: &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}}
		}
		m.nextID++
		m.threads[id] = args[1].(int64)
		m.ids[id] = m.nextID
		return row{vals: []any{m.nextID}}
	case strings.Contains(sql, "FROM division_updates"):
		s, ok := m.seen[args[0].(int)]
		if !ok {
			return row{err: pgx.ErrNoRows}
		}
		return row{vals: []any{s}}
	}
	return row{err: errors.New("memdb: unexpected query row")}
}

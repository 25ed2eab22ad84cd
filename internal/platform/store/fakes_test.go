package store

import (
	"context"
	"errors"
	"strings"
)

type fakeTag int64

func (f fakeTag) String() string      { return "INSERT 0" }
func (f fakeTag) RowsAffected() int64 { return int64(f) }

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i := range dest {
		if i >= len(r.vals) {
			break
		}
		switch p := dest[i].(type) {
		case *int:
			*p = r.vals[i].(int)
		case *string:
			*p = r.vals[i].(string)
		case *bool:
			*p = r.vals[i].(bool)
		default:
			return errors.New("unsupported dest")
		}
	}
	return nil
}

type fakeRows struct {
	data [][]any
	i    int
	err  error
}

func (r *fakeRows) Next() bool             { r.i++; return r.i <= len(r.data) }
func (r *fakeRows) Scan(dest ...any) error { return fakeRow{vals: r.data[r.i-1]}.Scan(dest...) }
func (r *fakeRows) Err() error             { return r.err }
func (r *fakeRows) Close()                 {}

// fakeDB records statements; migrations already applied are listed in done
type fakeDB struct {
	execs   []string
	done    map[string]bool
	rows    *fakeRows
	row     Row
	execTag fakeTag
	execErr error
	failOn  string
	txCount int
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (CommandTag, error) {
	f.execs = append(f.execs, strings.TrimSpace(sql))
	if f.failOn != "" && strings.Contains(sql, f.failOn) {
		return fakeTag(0), errors.New("syntax error")
	}
	if strings.HasPrefix(strings.TrimSpace(sql), "INSERT INTO schema_migrations") && f.done != nil {
		f.done[args[0].(string)] = true
	}
	return f.execTag, f.execErr
}

func (f *fakeDB) Query(context.Context, string, ...any) (Rows, error) {
	if f.rows == nil {
		return &fakeRows{}, nil
	}
	return f.rows, nil
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) Row {
	if strings.Contains(sql, "schema_migrations") {
		return fakeRow{vals: []any{f.done[args[0].(string)]}}
	}
	if f.row != nil {
		return f.row
	}
	return fakeRow{err: errors.New("unexpected query")}
}

func (f *fakeDB) Tx(_ context.Context, fn func(q RowQuerier) error) error {
	f.txCount++
	return fn(f)
}

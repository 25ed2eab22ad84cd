// Package repokit is the seam between service repos and the store.
// Repos are written against Queryer and bound once at module wiring time.
package repokit

import "opengov/internal/platform/store"

type (
	// Queryer is what a bound repo reads and writes through
	Queryer = store.RowQuerier
	// TxRunner is a Queryer that can also open transactions
	TxRunner = store.TxRunner
	// Row is a single scanned row
	Row = store.Row
	// Rows is a result cursor
	Rows = store.Rows
	// CommandTag reports rows affected by a write
	CommandTag = store.CommandTag
)

// Binder builds a repo of type T over q
type Binder[T any] interface {
	Bind(q Queryer) T
}

// BindFunc lets a plain constructor act as a Binder
type BindFunc[T any] func(Queryer) T

// Bind implements Binder
func (f BindFunc[T]) Bind(q Queryer) T { return f(q) }

// MustBind binds b to q, panicking when q is nil since that can only be a wiring mistake
func MustBind[T any](b Binder[T], q Queryer) T {
	if q == nil {
		panic("repokit: bind on nil Queryer")
	}
	return b.Bind(q)
}

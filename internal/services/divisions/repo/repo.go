// Package repo is the Postgres backed division store
package repo

import (
	"context"
	"errors"
	"strconv"

	"opengov/internal/modkit/repokit"
	perr "opengov/internal/platform/errors"
	"opengov/internal/platform/store"
	"opengov/internal/services/divisions/domain"
)

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// Storage is the division store plus the admin read model
type Storage interface {
	domain.MappingStore
	View(ctx context.Context, divisionID int) (domain.DivisionView, error)
}

func scanMapping(r repokit.Row) (domain.DivisionMapping, error) {
	var (
		m      domain.DivisionMapping
		thread int64
	)
	if err := r.Scan(&m.ID, &m.DivisionID, &thread); err != nil {
		return m, err
	}
	m.ThreadID = threadFromDB(thread)
	return m, nil
}

// FindMapping implements domain.MappingStore
func (s *pg) FindMapping(ctx context.Context, divisionID int) (domain.DivisionMapping, bool, error) {
	m, err := store.One(ctx, s.q, scanMapping, `
		SELECT id, division_id, discord_thread_id
		  FROM divisions
		 WHERE division_id = $1
	`, divisionID)
	if errors.Is(err, perr.ErrNotFound) {
		return domain.DivisionMapping{}, false, nil
	}
	if err != nil {
		return domain.DivisionMapping{}, false, storeErr(err, "find mapping")
	}
	return m, true, nil
}

// CreateMapping implements domain.MappingStore. A second mapping for the
// same division is reported as domain.ErrDuplicateMapping
func (s *pg) CreateMapping(ctx context.Context, divisionID int, threadID domain.ThreadID) (domain.DivisionMapping, error) {
	thread, err := threadToDB(threadID)
	if err != nil {
		return domain.DivisionMapping{}, err
	}
	m := domain.DivisionMapping{DivisionID: divisionID, ThreadID: threadID}
	err = s.q.QueryRow(ctx, `
		INSERT INTO divisions (division_id, discord_thread_id)
		VALUES ($1, $2)
		RETURNING id
	`, divisionID, thread).Scan(&m.ID)
	if err != nil {
		if perr.IsDuplicateKey(err) {
			return domain.DivisionMapping{}, domain.Mark(domain.ErrDuplicateMapping, perr.FromPostgres(err, "create mapping"))
		}
		return domain.DivisionMapping{}, storeErr(err, "create mapping")
	}
	return m, nil
}

// LastSeen implements domain.MappingStore
func (s *pg) LastSeen(ctx context.Context, divisionID int) (string, bool, error) {
	v, err := store.Scalar[string](ctx, s.q, `
		SELECT publication_updated FROM division_updates WHERE division_id = $1
	`, divisionID)
	if errors.Is(err, perr.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, storeErr(err, "last seen")
	}
	return v, true, nil
}

// RecordUpdateSeen implements domain.MappingStore
func (s *pg) RecordUpdateSeen(ctx context.Context, divisionID int, marker string) error {
	// upsert always touches exactly one row
	err := store.ExecOne(ctx, s.q, `
		INSERT INTO division_updates (division_id, publication_updated)
		VALUES ($1, $2)
		ON CONFLICT (division_id) DO UPDATE SET publication_updated = EXCLUDED.publication_updated
	`, divisionID, marker)
	switch {
	case err == nil:
		return nil
	case perr.IsForeignKeyViolation(err):
		return perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "division %d has no thread mapping", divisionID)
	default:
		return storeErr(err, "record update seen")
	}
}

// View returns the mapping and last seen marker for one division
func (s *pg) View(ctx context.Context, divisionID int) (domain.DivisionView, error) {
	v, err := store.One(ctx, s.q, func(r repokit.Row) (domain.DivisionView, error) {
		var (
			v      domain.DivisionView
			thread int64
			marker *string
		)
		if err := r.Scan(&v.DivisionID, &thread, &marker); err != nil {
			return v, err
		}
		v.ThreadID = threadFromDB(thread)
		if marker != nil {
			v.PublicationUpdated, v.Seen = *marker, true
		}
		return v, nil
	}, `
		SELECT d.division_id, d.discord_thread_id, u.publication_updated
		  FROM divisions d
		  LEFT JOIN division_updates u ON u.division_id = d.division_id
		 WHERE d.division_id = $1
	`, divisionID)
	if errors.Is(err, perr.ErrNotFound) {
		return v, perr.NotFoundf("division %d is not tracked", divisionID)
	}
	if err != nil {
		return v, storeErr(err, "view division")
	}
	return v, nil
}

// storeErr codes a driver error and marks it StoreUnavailable
func storeErr(err error, msg string) error {
	return domain.Mark(domain.ErrStoreUnavailable, perr.FromPostgres(err, msg))
}

func threadToDB(id domain.ThreadID) (int64, error) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil || n <= 0 {
		return 0, perr.InvalidArgf("thread id %q is not a snowflake", id)
	}
	return n, nil
}

func threadFromDB(n int64) domain.ThreadID {
	return domain.ThreadID(strconv.FormatInt(n, 10))
}

// Package service runs reconciliation passes and schedules them
package service

import (
	"context"
	"sync/atomic"
	"time"

	perr "opengov/internal/platform/errors"
	"opengov/internal/services/divisions/domain"
	"opengov/internal/services/divisions/guardrails"

	"github.com/google/uuid"
)

// Config holds the per pass budgets
type Config struct {
	Timeouts guardrails.Timeouts
}

// Service is the reconciliation engine. It keeps no state between passes
// except the last report, which is only read by the admin API
type Service struct {
	Source  domain.SourcePort
	Store   domain.MappingStore
	Threads domain.ThreadPort
	Views   domain.ViewPort
	Cfg     Config

	now   func() time.Time
	newID func() string
	last  atomic.Pointer[domain.PassReport]
}

var (
	_ domain.ReconcilerPort = (*Service)(nil)
	_ domain.StatusPort     = (*Service)(nil)
)

// New constructs the engine. views may be nil when no admin surface is wired
func New(src domain.SourcePort, store domain.MappingStore, threads domain.ThreadPort, views domain.ViewPort, cfg Config) *Service {
	if src == nil || store == nil || threads == nil {
		panic("divisions.Service requires a source, a store and a thread driver")
	}
	return &Service{
		Source:  src,
		Store:   store,
		Threads: threads,
		Views:   views,
		Cfg:     cfg,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// LastPass returns the report of the most recent finished pass
func (s *Service) LastPass() (domain.PassReport, bool) {
	if r := s.last.Load(); r != nil {
		return *r, true
	}
	return domain.PassReport{}, false
}

// Division returns the admin view of one tracked division
func (s *Service) Division(ctx context.Context, divisionID int) (domain.DivisionView, error) {
	if divisionID <= 0 {
		return domain.DivisionView{}, perr.InvalidArgf("division id must be positive")
	}
	if s.Views == nil {
		return domain.DivisionView{}, perr.Unavailablef("division views are not wired")
	}
	sctx, cancel := guardrails.ForStore(ctx, s.Cfg.Timeouts)
	defer cancel()
	v, err := s.Views.View(sctx, divisionID)
	if err != nil {
		return v, err
	}
	v.FetchedAt = s.now().UTC()
	return v, nil
}

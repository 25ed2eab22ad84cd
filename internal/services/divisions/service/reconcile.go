package service

import (
	"context"
	"errors"

	"opengov/internal/platform/logger"
	"opengov/internal/services/divisions/domain"
	"opengov/internal/services/divisions/guardrails"

	"github.com/rs/zerolog"
)

// RunPass lists remote divisions and reconciles each one in order, bounded by
// the pass budget. A listing failure aborts the pass before any write; a
// failure on one division is logged and the pass moves on
func (s *Service) RunPass(ctx context.Context, trigger string) (domain.PassReport, error) {
	rep := domain.PassReport{PassID: s.newID(), Trigger: trigger, StartedAt: s.now().UTC()}
	ctx = logger.WithPass(ctx, rep.PassID)
	log := logger.C(ctx)
	log.Info().Str("trigger", trigger).Msg("pass started")

	pctx, cancel := guardrails.WithPass(ctx, s.Cfg.Timeouts)
	defer cancel()

	err := s.pass(pctx, &rep)

	rep.FinishedAt = s.now().UTC()
	if err != nil {
		rep.Aborted = true
		rep.Error = err.Error()
	}
	s.last.Store(&rep)

	var ev *zerolog.Event
	if err != nil {
		ev = log.Error().Err(err).Str("kind", domain.KindOf(err))
	} else {
		ev = log.Info()
	}
	ev.Int("listed", rep.Listed).
		Int("created", rep.Created).
		Int("updated", rep.Updated).
		Int("unchanged", rep.Unchanged).
		Int("duplicates", rep.Duplicates).
		Int("failed", rep.Failed).
		Dur("took", rep.FinishedAt.Sub(rep.StartedAt)).
		Msg("pass finished")
	return rep, err
}

func (s *Service) pass(ctx context.Context, rep *domain.PassReport) error {
	list, err := s.listDivisions(ctx)
	if err != nil {
		return passErr(ctx, err)
	}
	rep.Listed = len(list)

	for _, r := range list {
		if ctx.Err() != nil {
			return passErr(ctx, ctx.Err())
		}

		dctx := logger.WithDivision(ctx, r.DivisionID)
		outcome, err := s.reconcile(dctx, r)
		rep.Count(outcome)
		if err != nil {
			rep.Failures = append(rep.Failures, domain.DivisionFailure{
				DivisionID: r.DivisionID,
				Kind:       domain.KindOf(err),
				Error:      err.Error(),
			})
			logger.C(dctx).Warn().Err(err).Str("kind", domain.KindOf(err)).Msg("division skipped")
			continue
		}
		logger.C(dctx).Debug().Str("outcome", string(outcome)).Msg("division reconciled")
	}
	return nil
}

// passErr marks err as a pass timeout when the pass deadline is what ended it.
// Cancellation from above (shutdown) is returned as is
func passErr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.Mark(domain.ErrPassTimedOut, err)
	}
	return err
}

// reconcile takes one division through the CREATE or UPDATE branch
func (s *Service) reconcile(ctx context.Context, r domain.DivisionRecord) (domain.Outcome, error) {
	m, found, err := s.findMapping(ctx, r.DivisionID)
	if err != nil {
		return domain.OutcomeFailed, err
	}
	if !found {
		return s.create(ctx, r)
	}
	return s.update(ctx, m)
}

// create fetches the detail, opens a thread and records the mapping. The
// thread cannot be taken back, so a lost race or a failed insert leaves it
// orphaned; both cases are logged with the thread id
func (s *Service) create(ctx context.Context, r domain.DivisionRecord) (domain.Outcome, error) {
	detail, err := s.fetchDivision(ctx, r.DivisionID)
	if err != nil {
		return domain.OutcomeFailed, err
	}

	thread, err := s.createThread(ctx, detail.Title)
	if err != nil {
		return domain.OutcomeFailed, err
	}

	if _, err := s.createMapping(ctx, r.DivisionID, thread); err != nil {
		if errors.Is(err, domain.ErrDuplicateMapping) {
			logger.C(ctx).Warn().Str("orphan_thread_id", string(thread)).Msg("division already mapped by another pass")
			return domain.OutcomeDuplicate, nil
		}
		logger.C(ctx).Error().Err(err).Str("orphan_thread_id", string(thread)).Msg("thread created but mapping not stored")
		return domain.OutcomeFailed, err
	}

	// a missing marker is re-baselined by the next pass, so this is not fatal
	if err := s.recordUpdateSeen(ctx, r.DivisionID, detail.PublicationUpdated); err != nil {
		logger.C(ctx).Warn().Err(err).Msg("publication marker not stored")
	}
	logger.C(ctx).Info().Str("thread_id", string(thread)).Str("title", detail.Title).Msg("thread created")
	return domain.OutcomeCreated, nil
}

// update posts into the mapped thread when the publication marker moved
func (s *Service) update(ctx context.Context, m domain.DivisionMapping) (domain.Outcome, error) {
	detail, err := s.fetchDivision(ctx, m.DivisionID)
	if err != nil {
		return domain.OutcomeFailed, err
	}

	last, seen, err := s.lastSeen(ctx, m.DivisionID)
	if err != nil {
		return domain.OutcomeFailed, err
	}
	if !seen {
		// nothing to compare against: take the current marker as the baseline
		if err := s.recordUpdateSeen(ctx, m.DivisionID, detail.PublicationUpdated); err != nil {
			return domain.OutcomeFailed, err
		}
		return domain.OutcomeUnchanged, nil
	}
	if last == detail.PublicationUpdated {
		return domain.OutcomeUnchanged, nil
	}

	if err := s.postUpdate(ctx, m.ThreadID, ComposeUpdate(detail, last)); err != nil {
		return domain.OutcomeFailed, err
	}
	if err := s.recordUpdateSeen(ctx, m.DivisionID, detail.PublicationUpdated); err != nil {
		logger.C(ctx).Error().Err(err).Str("thread_id", string(m.ThreadID)).Msg("update posted but marker not stored")
		return domain.OutcomeFailed, err
	}
	logger.C(ctx).Info().
		Str("thread_id", string(m.ThreadID)).
		Str("from", last).
		Str("to", detail.PublicationUpdated).
		Msg("update posted")
	return domain.OutcomeUpdated, nil
}

// each external call gets its own budget inside the pass deadline

func (s *Service) listDivisions(ctx context.Context) ([]domain.DivisionRecord, error) {
	cctx, cancel := guardrails.ForSource(ctx, s.Cfg.Timeouts)
	defer cancel()
	return s.Source.ListDivisions(cctx)
}

func (s *Service) fetchDivision(ctx context.Context, id int) (domain.DivisionRecord, error) {
	cctx, cancel := guardrails.ForSource(ctx, s.Cfg.Timeouts)
	defer cancel()
	return s.Source.FetchDivision(cctx, id)
}

func (s *Service) findMapping(ctx context.Context, id int) (domain.DivisionMapping, bool, error) {
	cctx, cancel := guardrails.ForStore(ctx, s.Cfg.Timeouts)
	defer cancel()
	return s.Store.FindMapping(cctx, id)
}

func (s *Service) createMapping(ctx context.Context, id int, thread domain.ThreadID) (domain.DivisionMapping, error) {
	cctx, cancel := guardrails.ForStore(ctx, s.Cfg.Timeouts)
	defer cancel()
	return s.Store.CreateMapping(cctx, id, thread)
}

func (s *Service) lastSeen(ctx context.Context, id int) (string, bool, error) {
	cctx, cancel := guardrails.ForStore(ctx, s.Cfg.Timeouts)
	defer cancel()
	return s.Store.LastSeen(cctx, id)
}

func (s *Service) recordUpdateSeen(ctx context.Context, id int, marker string) error {
	cctx, cancel := guardrails.ForStore(ctx, s.Cfg.Timeouts)
	defer cancel()
	return s.Store.RecordUpdateSeen(cctx, id, marker)
}

func (s *Service) createThread(ctx context.Context, title string) (domain.ThreadID, error) {
	cctx, cancel := guardrails.ForPlatform(ctx, s.Cfg.Timeouts)
	defer cancel()
	return s.Threads.CreateThread(cctx, title)
}

func (s *Service) postUpdate(ctx context.Context, thread domain.ThreadID, content string) error {
	cctx, cancel := guardrails.ForPlatform(ctx, s.Cfg.Timeouts)
	defer cancel()
	return s.Threads.PostUpdate(cctx, thread, content)
}

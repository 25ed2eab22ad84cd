// Package http provides the divisions admin endpoints
package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"opengov/internal/core/version"
	perr "opengov/internal/platform/errors"
	phttp "opengov/internal/platform/net/http"
	"opengov/internal/platform/net/http/bind"
	"opengov/internal/services/divisions/domain"
)

// Pinger is satisfied by backends that expose Ping
type Pinger interface {
	Ping(context.Context) error
}

// Deps are the handler dependencies. Nil checks are reported as skipped
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	Scheduler   domain.SchedulerPort
	Status      domain.StatusPort
	Checks      map[string]Pinger
}

type handlers struct {
	deps Deps
	now  func() time.Time
}

// Register mounts the admin routes
func Register(r phttp.Router, d Deps) {
	h := &handlers{deps: d, now: time.Now}

	phttp.GetJSON(r, "/meta/health", h.health)
	phttp.GetJSON(r, "/meta/ready", h.ready)
	phttp.GetJSON(r, "/passes/last", h.lastPass)
	phttp.PostJSON(r, "/passes", h.triggerPass, bind.JSONOptions{MaxBytes: 4 << 10, DisallowUnknown: true, AllowEmptyBody: true})
	phttp.GetJSON(r, "/divisions/{divisionID}", h.division)
}

// HealthResponse is the liveness payload
type HealthResponse struct {
	OK      bool              `json:"ok"`
	Service string            `json:"service"`
	Build   version.BuildInfo `json:"build"`
	Started string            `json:"started"`
	Now     string            `json:"now"`
}

// ReadyCheck describes a single dependency check
type ReadyCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"` // ok fail skipped
	Error  string `json:"error,omitempty"`
}

// ReadyResponse summarizes readiness
type ReadyResponse struct {
	Status string       `json:"status"` // ok fail
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now"`
}

// TriggerRequest is the optional body of POST /passes
type TriggerRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=200"`
}

func (h *handlers) health(_ *http.Request) (any, error) {
	return HealthResponse{
		OK:      true,
		Service: h.deps.ServiceName,
		Build:   version.Info(),
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Now:     h.now().UTC().Format(time.RFC3339),
	}, nil
}

func (h *handlers) ready(r *http.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	out := ReadyResponse{Status: "ok", Now: h.now().UTC().Format(time.RFC3339)}
	for _, name := range []string{"pg", "redis"} {
		c := ReadyCheck{Name: name, Status: "skipped"}
		if p := h.deps.Checks[name]; p != nil {
			c.Status = "ok"
			if err := p.Ping(ctx); err != nil {
				c.Status, c.Error = "fail", err.Error()
				out.Status = "fail"
			}
		}
		out.Checks = append(out.Checks, c)
	}
	if out.Status != "ok" {
		return nil, perr.Unavailablef("not ready: %s", failed(out.Checks))
	}
	return out, nil
}

func failed(cs []ReadyCheck) string {
	s := ""
	for _, c := range cs {
		if c.Status == "fail" {
			if s != "" {
				s += ", "
			}
			s += c.Name + " (" + c.Error + ")"
		}
	}
	return s
}

func (h *handlers) lastPass(_ *http.Request) (any, error) {
	rep, ok := h.deps.Status.LastPass()
	if !ok {
		return nil, perr.NotFoundf("no pass has finished yet")
	}
	return rep, nil
}

// triggerPass runs a pass now and returns its report. A pass that ran but
// failed still answers 200; the report carries the error
func (h *handlers) triggerPass(r *http.Request, in TriggerRequest) (any, error) {
	rep, err := h.deps.Scheduler.Trigger(r.Context(), in.Reason)
	switch {
	case errors.Is(err, domain.ErrPassInFlight):
		return nil, perr.Conflictf("a pass is already running")
	case err != nil && rep.PassID == "":
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "pass not started")
	}
	return rep, nil
}

func (h *handlers) division(r *http.Request) (any, error) {
	id, err := strconv.Atoi(phttp.URLParam(r, "divisionID"))
	if err != nil || id <= 0 {
		return nil, perr.InvalidArgf("divisionID must be a positive integer")
	}
	return h.deps.Status.Division(r.Context(), id)
}

// Package middleware holds the admin server's middleware stack
package middleware

import (
	"net/http"
	"time"

	"opengov/internal/platform/logger"
	pnet "opengov/internal/platform/net"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// AccessLog writes one zerolog line per admin request. Requests slower than
// slow are raised to warn; slow <= 0 keeps everything at debug.
func AccessLog(slow time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			took := time.Since(start)

			log := logger.C(logger.WithRequest(r.Context(), pnet.RequestID(r.Context())))
			evt := log.Debug()
			switch {
			case ww.Status() >= http.StatusInternalServerError:
				evt = log.Error()
			case slow > 0 && took >= slow:
				evt = log.Warn()
			}

			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			evt.Str("method", r.Method).
				Str("route", route).
				Int("status", statusOf(ww)).
				Int("bytes", ww.BytesWritten()).
				Dur("took", took).
				Str("remote", r.RemoteAddr).
				Msg("admin request")
		})
	}
}

// a handler that never writes leaves Status at 0; net/http sends 200 in that case
func statusOf(ww chimw.WrapResponseWriter) int {
	if s := ww.Status(); s != 0 {
		return s
	}
	return http.StatusOK
}

package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	chicors "github.com/go-chi/cors"
)

// RequestID attaches or propagates X-Request-ID
func RequestID() func(http.Handler) http.Handler { return chimw.RequestID }

// RealIP sets RemoteAddr from forwarding headers
func RealIP() func(http.Handler) http.Handler { return chimw.RealIP }

// Timeout cancels the request context after d
func Timeout(d time.Duration) func(http.Handler) http.Handler { return chimw.Timeout(d) }

// NoCache disables client and proxy caching
func NoCache() func(http.Handler) http.Handler { return chimw.NoCache }

// CORSOptions is a narrow surface over go-chi/cors
type CORSOptions struct {
	AllowedOrigins []string
	MaxAge         int
}

// CORS allows the admin endpoints' methods for the listed origins
func CORS(o CORSOptions) func(http.Handler) http.Handler {
	return chicors.Handler(chicors.Options{
		AllowedOrigins: o.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         o.MaxAge,
	})
}

// Stack is the admin middleware chain, outermost first. CORS is added only when origins are configured
func Stack(origins []string, requestTimeout time.Duration) []func(http.Handler) http.Handler {
	mws := []func(http.Handler) http.Handler{RealIP(), RequestID()}
	if len(origins) > 0 {
		mws = append(mws, CORS(CORSOptions{AllowedOrigins: origins, MaxAge: 300}))
	}
	return append(mws,
		AccessLog(time.Second),
		RecoverJSON,
		Timeout(requestTimeout),
		NoCache(),
	)
}

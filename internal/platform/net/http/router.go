package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler is the platform handler type
type Handler = func(http.ResponseWriter, *http.Request)

// Router is what modules mount admin routes on. chi backs it; modules never import chi
type Router interface {
	Get(path string, h Handler)
	Post(path string, h Handler)
	Handle(path string, h http.Handler)
	Route(pattern string, fn func(Router))
	Group(fn func(Router))
	Mux() http.Handler
}

type chiRouter struct{ r chi.Router }

// AdaptChi wraps a chi mux
func AdaptChi(m *chi.Mux) Router { return chiRouter{r: m} }

func (c chiRouter) Get(p string, h Handler)         { c.r.Get(p, h) }
func (c chiRouter) Post(p string, h Handler)        { c.r.Post(p, h) }
func (c chiRouter) Handle(p string, h http.Handler) { c.r.Handle(p, h) }
func (c chiRouter) Mux() http.Handler               { return c.r }

func (c chiRouter) Route(pattern string, fn func(Router)) {
	c.r.Route(pattern, func(sub chi.Router) { fn(chiRouter{r: sub}) })
}

func (c chiRouter) Group(fn func(Router)) {
	c.r.Group(func(sub chi.Router) { fn(chiRouter{r: sub}) })
}

// URLParam reads a path parameter such as {divisionID}
func URLParam(r *http.Request, key string) string { return chi.URLParam(r, key) }

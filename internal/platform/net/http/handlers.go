package http

import (
	"net/http"

	"opengov/internal/platform/net/http/bind"
)

// GetJSON mounts fn on GET path; its result or error becomes the envelope
func GetJSON(r Router, path string, fn func(*http.Request) (any, error)) {
	r.Get(path, Handle(func(req *http.Request) Response {
		return result(fn(req))
	}))
}

// PostJSON mounts fn on POST path after binding and validating a T from the body
func PostJSON[T any](r Router, path string, fn func(*http.Request, T) (any, error), opts ...bind.JSONOptions) {
	r.Post(path, Handle(func(req *http.Request) Response {
		in, err := bind.ParseJSON[T](req, opts...)
		if err != nil {
			return Error(err)
		}
		return result(fn(req, in))
	}))
}

func result(out any, err error) Response {
	if err != nil {
		return Error(err)
	}
	return OK(out)
}

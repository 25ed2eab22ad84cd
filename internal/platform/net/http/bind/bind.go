// Package bind decodes and validates JSON request bodies for admin handlers
package bind

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	perr "opengov/internal/platform/errors"
	"opengov/internal/platform/validate"
)

// JSONOptions controls parsing
type JSONOptions struct {
	MaxBytes        int64
	DisallowUnknown bool
	AllowEmptyBody  bool
}

func defaultJSONOptions() JSONOptions {
	return JSONOptions{MaxBytes: 1 << 20, DisallowUnknown: true}
}

// ParseJSON decodes the body into T and validates it. Decode failures are
// ErrorCodeJSON and validation failures ErrorCodeValidation
func ParseJSON[T any](r *http.Request, opts ...JSONOptions) (T, error) {
	var zero T
	o := defaultJSONOptions()
	if len(opts) > 0 {
		o = opts[0]
	}
	if r.Body == nil {
		if o.AllowEmptyBody {
			return zero, nil
		}
		return zero, perr.Newf(perr.ErrorCodeJSON, "empty body")
	}
	defer func() { _ = r.Body.Close() }()

	var body io.Reader = r.Body
	if o.MaxBytes > 0 {
		body = io.LimitReader(r.Body, o.MaxBytes)
	}
	dec := json.NewDecoder(body)
	if o.DisallowUnknown {
		dec.DisallowUnknownFields()
	}

	var dst T
	if err := dec.Decode(&dst); err != nil {
		if errors.Is(err, io.EOF) {
			if o.AllowEmptyBody {
				return dst, nil
			}
			return zero, perr.Newf(perr.ErrorCodeJSON, "empty body")
		}
		return zero, perr.Newf(perr.ErrorCodeJSON, "invalid JSON: %v", err)
	}
	if dec.More() {
		return zero, perr.Newf(perr.ErrorCodeJSON, "unexpected trailing data")
	}

	if err := validate.Struct(dst); err != nil {
		var f *validate.Failure
		if errors.As(err, &f) {
			_, msg := f.First()
			return zero, perr.Newf(perr.ErrorCodeValidation, "%s", msg)
		}
		return zero, perr.Wrap(err, perr.ErrorCodeJSON, "validation error")
	}
	return dst, nil
}

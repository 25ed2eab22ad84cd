package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Adapters mark their errors with one of these so callers can
// branch with errors.Is while the underlying cause stays inspectable
var (
	ErrSourceUnavailable   = errors.New("source unavailable")
	ErrSourceMalformed     = errors.New("source malformed")
	ErrSourceNotFound      = errors.New("source not found")
	ErrStoreUnavailable    = errors.New("store unavailable")
	ErrDuplicateMapping    = errors.New("duplicate mapping")
	ErrPlatformUnavailable = errors.New("platform unavailable")
	ErrPlatformRejected    = errors.New("platform rejected")
	ErrThreadNotFound      = errors.New("thread not found")
	ErrPassTimedOut        = errors.New("pass timed out")

	// ErrPassInFlight is returned by on-demand triggers while another pass runs
	ErrPassInFlight = errors.New("pass in flight")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrSourceUnavailable, "SourceUnavailable"},
	{ErrSourceMalformed, "SourceMalformed"},
	{ErrSourceNotFound, "SourceNotFound"},
	{ErrStoreUnavailable, "StoreUnavailable"},
	{ErrDuplicateMapping, "DuplicateMapping"},
	{ErrPlatformUnavailable, "PlatformUnavailable"},
	{ErrPlatformRejected, "PlatformRejected"},
	{ErrThreadNotFound, "ThreadNotFound"},
	{ErrPassTimedOut, "PassTimedOut"},
	{ErrPassInFlight, "PassInFlight"},
}

// Mark tags cause with kind. A nil cause yields nil
func Mark(kind, cause error) error {
	if cause == nil {
		return nil
	}
	if errors.Is(cause, kind) {
		return cause
	}
	return fmt.Errorf("%w: %w", kind, cause)
}

// KindOf names the first kind err carries, or "Unknown"
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "Unknown"
}

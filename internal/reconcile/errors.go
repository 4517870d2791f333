package reconcile

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input rejected before any remote call.
	ErrValidation = errors.New("validation failed")
	// ErrNoEntries is returned by BulkDelete when the selection holds no entries.
	ErrNoEntries = errors.New("no entries to delete")
	// ErrNotFound is returned when the targeted row, day or entry is not in the grid.
	ErrNotFound = errors.New("not in grid")
	// ErrStale is returned when a remote response arrives for a target that
	// was discarded or no longer exists; the response is not applied.
	ErrStale = errors.New("response discarded")
	// ErrBadResponse is wrapped in a RemoteError when the store reports
	// success but echoes no entry or a different one.
	ErrBadResponse = errors.New("unexpected store response")
	// ErrNotLoaded is returned by mutations issued before Load.
	ErrNotLoaded = errors.New("no week loaded")
)

// RemoteError wraps a failed store call: a rejection by the service or a
// transport failure. The grid is unchanged whenever a RemoteError is returned.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// userMessager is implemented by store errors that carry a message meant for
// the user, such as a server-supplied error text.
type userMessager interface {
	UserMessage() string
}

// Message returns the server's message when the store supplied one, or a
// generic notice otherwise.
func (e *RemoteError) Message() string {
	var um userMessager
	if errors.As(e.Err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}
	return fmt.Sprintf("Could not %s. Please try again.", e.Op)
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

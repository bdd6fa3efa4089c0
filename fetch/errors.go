package fetch

import (
	"errors"
	"fmt"
)

// TypeError mirrors the JS TypeError the host throws for fetch protocol
// failures: invalid scheme, blocked
// port, too-many-redirects, and redirect=error. Callers that need to tell
// these apart from network failures (a real connection refusal, a read
// timeout) can errors.As against it.
type TypeError struct {
	Msg string
}

func (e *TypeError) Error() string { return e.Msg }

func typeErrorf(format string, args ...any) error {
	return &TypeError{Msg: fmt.Sprintf(format, args...)}
}

// ErrAborted is the sentinel used when no caller-supplied abort reason
// is available; fetch uses the signal's own reason when it has one and
// falls back to this.
var ErrAborted = errors.New("fetch: the operation was aborted")

// ErrTooManyRedirects is a specific TypeError instance for the 20-hop
// redirect cap.
var ErrTooManyRedirects = &TypeError{Msg: "fetch: too many redirects"}

// ErrRedirectModeError is returned when redirect="error" observes a 3xx.
var ErrRedirectModeError = &TypeError{Msg: "fetch: redirect mode is \"error\""}
